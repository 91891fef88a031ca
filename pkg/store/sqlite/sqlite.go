// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the
// schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, stderrors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(pragma), err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		tree_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		surname TEXT NOT NULL DEFAULT '',
		birth_date TEXT,
		anniversary_date TEXT,
		alive INTEGER NOT NULL DEFAULT 1,
		gender TEXT NOT NULL DEFAULT 'unspecified',
		notes TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		photo_url TEXT NOT NULL DEFAULT '',
		pos_x REAL,
		pos_y REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_people_tree ON people(tree_id);

	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		tree_id TEXT NOT NULL,
		person_a TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		person_b TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('child', 'spouse', 'sibling')),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_tree ON relationships(tree_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_a ON relationships(person_a);
	CREATE INDEX IF NOT EXISTS idx_relationships_b ON relationships(person_b);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *Store) Trees(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tree_id FROM people ORDER BY tree_id`)
	if err != nil {
		return nil, errors.Persistence(err, "list trees")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Persistence(err, "scan tree")
		}
		out = append(out, id)
	}
	return out, errors.Persistence(rows.Err(), "list trees")
}

const personColumns = `id, first_name, surname, birth_date, anniversary_date, alive, gender, notes, tags, photo_url, pos_x, pos_y`

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (family.Person, error) {
	var (
		p            family.Person
		birth, anniv sql.NullString
		gender, tags string
		x, y         sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &p.FirstName, &p.Surname, &birth, &anniv, &p.Alive, &gender, &p.Notes, &tags, &p.PhotoURL, &x, &y); err != nil {
		return p, err
	}
	p.Gender = family.Gender(gender)
	p.BirthDate = parseDate(birth)
	p.AnniversaryDate = parseDate(anniv)
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return p, fmt.Errorf("decode tags of %s: %w", p.ID, err)
	}
	if len(p.Tags) == 0 {
		p.Tags = nil
	}
	if x.Valid && y.Valid {
		p.Position = &family.Position{X: x.Float64, Y: y.Float64}
	}
	return p, nil
}

func (s *Store) FetchPeople(ctx context.Context, treeID string) ([]family.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM people WHERE tree_id = ? ORDER BY rowid`, treeID)
	if err != nil {
		return nil, errors.Persistence(err, "fetch people of tree %s", treeID)
	}
	defer rows.Close()

	var out []family.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, errors.Persistence(err, "scan person")
		}
		out = append(out, p)
	}
	return out, errors.Persistence(rows.Err(), "fetch people of tree %s", treeID)
}

func (s *Store) FetchRelationships(ctx context.Context, treeID string) ([]family.Relationship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, person_a, person_b, kind FROM relationships WHERE tree_id = ? ORDER BY rowid`, treeID)
	if err != nil {
		return nil, errors.Persistence(err, "fetch relationships of tree %s", treeID)
	}
	defer rows.Close()

	var out []family.Relationship
	for rows.Next() {
		var r family.Relationship
		var kind string
		if err := rows.Scan(&r.ID, &r.PersonA, &r.PersonB, &kind); err != nil {
			return nil, errors.Persistence(err, "scan relationship")
		}
		r.Kind = family.Kind(kind)
		out = append(out, r)
	}
	return out, errors.Persistence(rows.Err(), "fetch relationships of tree %s", treeID)
}

func (s *Store) CreatePerson(ctx context.Context, treeID string, f family.Fields) (family.Person, error) {
	p := family.NewPerson(uuid.New().String(), f)
	tags, err := json.Marshal(nonNil(p.Tags))
	if err != nil {
		return family.Person{}, err
	}

	var x, y sql.NullFloat64
	if p.Position != nil {
		x = sql.NullFloat64{Float64: p.Position.X, Valid: true}
		y = sql.NullFloat64{Float64: p.Position.Y, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO people (id, tree_id, first_name, surname, birth_date, anniversary_date, alive, gender, notes, tags, photo_url, pos_x, pos_y, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, treeID, p.FirstName, p.Surname, formatDate(p.BirthDate), formatDate(p.AnniversaryDate),
		p.Alive, string(p.Gender), p.Notes, string(tags), p.PhotoURL, x, y, time.Now().UTC(),
	)
	if err != nil {
		return family.Person{}, errors.Persistence(err, "create person")
	}
	return p, nil
}

func (s *Store) UpdatePerson(ctx context.Context, id string, f family.Fields) (family.Person, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return family.Person{}, errors.Persistence(err, "begin update")
	}
	defer tx.Rollback()

	p, err := scanPerson(tx.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return family.Person{}, fmt.Errorf("update person %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return family.Person{}, errors.Persistence(err, "load person %s", id)
	}

	f.Apply(&p)
	tags, err := json.Marshal(nonNil(p.Tags))
	if err != nil {
		return family.Person{}, err
	}
	var x, y sql.NullFloat64
	if p.Position != nil {
		x = sql.NullFloat64{Float64: p.Position.X, Valid: true}
		y = sql.NullFloat64{Float64: p.Position.Y, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE people SET first_name = ?, surname = ?, birth_date = ?, anniversary_date = ?, alive = ?,
			gender = ?, notes = ?, tags = ?, photo_url = ?, pos_x = ?, pos_y = ?
		WHERE id = ?`,
		p.FirstName, p.Surname, formatDate(p.BirthDate), formatDate(p.AnniversaryDate), p.Alive,
		string(p.Gender), p.Notes, string(tags), p.PhotoURL, x, y, id,
	)
	if err != nil {
		return family.Person{}, errors.Persistence(err, "update person %s", id)
	}
	if err := tx.Commit(); err != nil {
		return family.Person{}, errors.Persistence(err, "commit update")
	}
	return p, nil
}

// DeletePerson removes the person's relationships and then the person in one
// transaction. The foreign keys cascade as well.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Persistence(err, "begin delete")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM relationships WHERE person_a = ? OR person_b = ?`, id, id); err != nil {
		return errors.Persistence(err, "delete relationships of %s", id)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		return errors.Persistence(err, "delete person %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete person %s: %w", id, store.ErrNotFound)
	}
	return errors.Persistence(tx.Commit(), "commit delete")
}

// CreateRelationships inserts every record in one transaction.
func (s *Store) CreateRelationships(ctx context.Context, treeID string, rels []family.Relationship) ([]family.Relationship, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Persistence(err, "begin create relationships")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO relationships (id, tree_id, person_a, person_b, kind, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.Persistence(err, "prepare insert")
	}
	defer stmt.Close()

	out := make([]family.Relationship, len(rels))
	now := time.Now().UTC()
	for i, r := range rels {
		r.ID = uuid.New().String()
		if _, err := stmt.ExecContext(ctx, r.ID, treeID, r.PersonA, r.PersonB, string(r.Kind), now); err != nil {
			return nil, errors.Persistence(err, "create %s relationship %s-%s", r.Kind, r.PersonA, r.PersonB)
		}
		out[i] = r
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Persistence(err, "commit relationships")
	}
	return out, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return errors.Persistence(err, "delete relationship %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete relationship %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SavePositions(ctx context.Context, updates []store.PositionUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Persistence(err, "begin save positions")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE people SET pos_x = ?, pos_y = ? WHERE id = ?`)
	if err != nil {
		return errors.Persistence(err, "prepare save positions")
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.X, u.Y, u.ID); err != nil {
			return errors.Persistence(err, "save position of %s", u.ID)
		}
	}
	return errors.Persistence(tx.Commit(), "commit positions")
}

const dateLayout = time.RFC3339

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(dateLayout), Valid: true}
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

var _ store.Store = (*Store)(nil)
