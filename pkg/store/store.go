// Package store defines the persistence contract of the family tree editor.
//
// The editor never writes to a database directly. It calls a [Store], then
// reloads the whole tree from it, so the in-memory graph only ever reflects
// what storage confirmed.
//
// # Backends
//
//   - store/memory: process memory (tests, scratch trees)
//   - store/sqlite: embedded SQLite file (CLI default)
//   - store/postgres: PostgreSQL through GORM (shared server)
//   - store/mongo: MongoDB collections
//
// Every backend must:
//   - assign IDs to created people and relationships
//   - return people and relationships in creation order
//   - delete a person's relationships when the person is deleted
//   - create a batch of relationships all-or-nothing where the backend
//     supports it
//
// Backend failures are reported as errors.ErrCodePersistence with the driver
// error as cause. Missing records wrap [ErrNotFound].
//
// storetest.Run is the shared conformance suite.
package store

import (
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// ErrNotFound is wrapped by lookups of missing people or relationships.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "record not found")

// PositionUpdate is one saved node position.
type PositionUpdate struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Store persists family trees.
type Store interface {
	// Trees lists the IDs of trees that have at least one person.
	Trees(ctx context.Context) ([]string, error)

	FetchPeople(ctx context.Context, treeID string) ([]family.Person, error)
	FetchRelationships(ctx context.Context, treeID string) ([]family.Relationship, error)

	// CreatePerson creates a person from validated fields and returns it
	// with its new ID.
	CreatePerson(ctx context.Context, treeID string, f family.Fields) (family.Person, error)
	// UpdatePerson applies the set fields and returns the updated person.
	UpdatePerson(ctx context.Context, id string, f family.Fields) (family.Person, error)
	// DeletePerson deletes the person and every relationship involving them.
	DeletePerson(ctx context.Context, id string) error

	// CreateRelationships inserts the records and returns them with IDs.
	CreateRelationships(ctx context.Context, treeID string, rels []family.Relationship) ([]family.Relationship, error)
	DeleteRelationship(ctx context.Context, id string) error

	SavePositions(ctx context.Context, updates []PositionUpdate) error

	Close() error
}

// Positions converts a position map to updates, sorted by ID.
func Positions(pos map[string]family.Position) []PositionUpdate {
	out := make([]PositionUpdate, 0, len(pos))
	for id, p := range pos {
		out = append(out, PositionUpdate{ID: id, X: p.X, Y: p.Y})
	}
	slices.SortFunc(out, func(a, b PositionUpdate) int { return strings.Compare(a.ID, b.ID) })
	return out
}
