// Package postgres implements store.Store on PostgreSQL through GORM.
package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Store implements store.Store using GORM.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s := &Store{db: db}
	if err := s.AutoMigrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// AutoMigrate creates or updates the tables.
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&personModel{}, &relationshipModel{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Trees(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&personModel{}).Distinct("tree_id").Order("tree_id").Pluck("tree_id", &ids).Error
	return ids, errors.Persistence(err, "list trees")
}

func (s *Store) FetchPeople(ctx context.Context, treeID string) ([]family.Person, error) {
	var rows []personModel
	if err := s.db.WithContext(ctx).Where("tree_id = ?", treeID).Order("seq").Find(&rows).Error; err != nil {
		return nil, errors.Persistence(err, "fetch people of tree %s", treeID)
	}
	out := make([]family.Person, len(rows))
	for i, m := range rows {
		out[i] = m.person()
	}
	return out, nil
}

func (s *Store) FetchRelationships(ctx context.Context, treeID string) ([]family.Relationship, error) {
	var rows []relationshipModel
	if err := s.db.WithContext(ctx).Where("tree_id = ?", treeID).Order("seq").Find(&rows).Error; err != nil {
		return nil, errors.Persistence(err, "fetch relationships of tree %s", treeID)
	}
	out := make([]family.Relationship, len(rows))
	for i, m := range rows {
		out[i] = m.relationship()
	}
	return out, nil
}

func (s *Store) CreatePerson(ctx context.Context, treeID string, f family.Fields) (family.Person, error) {
	p := family.NewPerson(uuid.New().String(), f)
	m := toPersonModel(treeID, p)
	if err := s.db.WithContext(ctx).Omit("Seq").Create(&m).Error; err != nil {
		return family.Person{}, errors.Persistence(err, "create person")
	}
	return p, nil
}

func (s *Store) UpdatePerson(ctx context.Context, id string, f family.Fields) (family.Person, error) {
	var out family.Person
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m personModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("update person %s: %w", id, store.ErrNotFound)
			}
			return errors.Persistence(err, "load person %s", id)
		}
		p := m.person()
		f.Apply(&p)
		next := toPersonModel(m.TreeID, p)
		next.Seq, next.CreatedAt = m.Seq, m.CreatedAt
		if err := tx.Save(&next).Error; err != nil {
			return errors.Persistence(err, "update person %s", id)
		}
		out = p
		return nil
	})
	return out, err
}

// DeletePerson removes the person's relationships and then the person in one
// transaction.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("person_a = ? OR person_b = ?", id, id).Delete(&relationshipModel{}).Error; err != nil {
			return errors.Persistence(err, "delete relationships of %s", id)
		}
		res := tx.Delete(&personModel{}, "id = ?", id)
		if res.Error != nil {
			return errors.Persistence(res.Error, "delete person %s", id)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete person %s: %w", id, store.ErrNotFound)
		}
		return nil
	})
}

func (s *Store) CreateRelationships(ctx context.Context, treeID string, rels []family.Relationship) ([]family.Relationship, error) {
	if len(rels) == 0 {
		return nil, nil
	}
	rows := make([]relationshipModel, len(rels))
	out := make([]family.Relationship, len(rels))
	for i, r := range rels {
		r.ID = uuid.New().String()
		rows[i] = relationshipModel{ID: r.ID, TreeID: treeID, PersonA: r.PersonA, PersonB: r.PersonB, Kind: string(r.Kind)}
		out[i] = r
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Seq", "A", "B").Create(&rows).Error
	})
	if err != nil {
		return nil, errors.Persistence(err, "create relationships")
	}
	return out, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&relationshipModel{}, "id = ?", id)
	if res.Error != nil {
		return errors.Persistence(res.Error, "delete relationship %s", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete relationship %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SavePositions(ctx context.Context, updates []store.PositionUpdate) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			err := tx.Model(&personModel{}).Where("id = ?", u.ID).
				Updates(map[string]any{"pos_x": u.X, "pos_y": u.Y}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Persistence(err, "save positions")
}

var _ store.Store = (*Store)(nil)
