// Package memory is a process-local implementation of store.Store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

type personRecord struct {
	treeID string
	person family.Person
}

type relRecord struct {
	treeID string
	rel    family.Relationship
}

// Store keeps every tree in maps guarded by a mutex. Records are copied on
// the way in and out, so callers never share memory with the store.
type Store struct {
	mu       sync.RWMutex
	people   map[string]personRecord
	rels     map[string]relRecord
	order    []string // person IDs in creation order
	relOrder []string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		people: make(map[string]personRecord),
		rels:   make(map[string]relRecord),
	}
}

func (s *Store) Trees(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, id := range s.order {
		t := s.people[id].treeID
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) FetchPeople(ctx context.Context, treeID string) ([]family.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []family.Person
	for _, id := range s.order {
		if rec := s.people[id]; rec.treeID == treeID {
			out = append(out, rec.person.Clone())
		}
	}
	return out, nil
}

func (s *Store) FetchRelationships(ctx context.Context, treeID string) ([]family.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []family.Relationship
	for _, id := range s.relOrder {
		if rec := s.rels[id]; rec.treeID == treeID {
			out = append(out, rec.rel)
		}
	}
	return out, nil
}

func (s *Store) CreatePerson(ctx context.Context, treeID string, f family.Fields) (family.Person, error) {
	if err := ctx.Err(); err != nil {
		return family.Person{}, errors.Persistence(err, "create person")
	}
	p := family.NewPerson(uuid.NewString(), f)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[p.ID] = personRecord{treeID: treeID, person: p.Clone()}
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *Store) UpdatePerson(ctx context.Context, id string, f family.Fields) (family.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.people[id]
	if !ok {
		return family.Person{}, fmt.Errorf("update person %s: %w", id, store.ErrNotFound)
	}
	f.Apply(&rec.person)
	s.people[id] = rec
	return rec.person.Clone(), nil
}

func (s *Store) DeletePerson(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.people[id]; !ok {
		return fmt.Errorf("delete person %s: %w", id, store.ErrNotFound)
	}
	delete(s.people, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })

	s.relOrder = slices.DeleteFunc(s.relOrder, func(rid string) bool {
		if s.rels[rid].rel.Involves(id) {
			delete(s.rels, rid)
			return true
		}
		return false
	})
	return nil
}

// CreateRelationships inserts all records or none. Both endpoints of every
// record must exist.
func (s *Store) CreateRelationships(ctx context.Context, treeID string, rels []family.Relationship) ([]family.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Persistence(err, "create relationships")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rels {
		for _, pid := range []string{r.PersonA, r.PersonB} {
			if _, ok := s.people[pid]; !ok {
				return nil, fmt.Errorf("create %s relationship: person %s: %w", r.Kind, pid, store.ErrNotFound)
			}
		}
	}
	out := make([]family.Relationship, len(rels))
	for i, r := range rels {
		r.ID = uuid.NewString()
		s.rels[r.ID] = relRecord{treeID: treeID, rel: r}
		s.relOrder = append(s.relOrder, r.ID)
		out[i] = r
	}
	return out, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rels[id]; !ok {
		return fmt.Errorf("delete relationship %s: %w", id, store.ErrNotFound)
	}
	delete(s.rels, id)
	s.relOrder = slices.DeleteFunc(s.relOrder, func(x string) bool { return x == id })
	return nil
}

// SavePositions updates known people and ignores unknown IDs.
func (s *Store) SavePositions(ctx context.Context, updates []store.PositionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		rec, ok := s.people[u.ID]
		if !ok {
			continue
		}
		rec.person.Position = &family.Position{X: u.X, Y: u.Y}
		s.people[u.ID] = rec
	}
	return nil
}

func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
