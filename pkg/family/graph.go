package family

import (
	"slices"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Graph is the in-memory family tree.
//
// The zero value is not usable - use New or Load to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	people   map[string]*Person
	order    []string // person IDs in insertion order
	rels     map[string]*Relationship
	relOrder []string
	keys     map[relKey]string   // duplicate index -> relationship ID
	children map[string][]string // parent ID -> child IDs
	parents  map[string][]string // child ID -> parent IDs
	spouse   map[string]string   // person ID -> spouse relationship ID
	touching map[string][]string // person ID -> relationship IDs
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		people:   make(map[string]*Person),
		rels:     make(map[string]*Relationship),
		keys:     make(map[relKey]string),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
		spouse:   make(map[string]string),
		touching: make(map[string][]string),
	}
}

// Load builds a Graph from persisted records. It fails on the first record
// that would violate a graph invariant; the error names the offending record.
func Load(people []Person, relationships []Relationship) (*Graph, error) {
	g := New()
	for _, p := range people {
		if err := g.AddPerson(p); err != nil {
			return nil, err
		}
	}
	for _, r := range relationships {
		if err := g.AddRelationship(r); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "load relationship %s", r.ID)
		}
	}
	return g, nil
}

// Clone returns an independent copy of g.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.order {
		_ = c.AddPerson(*g.people[id])
	}
	for _, id := range g.relOrder {
		_ = c.AddRelationship(*g.rels[id])
	}
	return c
}

// =============================================================================
// Mutations
// =============================================================================

// AddPerson adds a person. The ID must be non-empty and unique.
func (g *Graph) AddPerson(p Person) error {
	if err := errors.ValidateID(p.ID); err != nil {
		return err
	}
	if _, exists := g.people[p.ID]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate person id %q", p.ID)
	}
	cp := p.Clone()
	g.people[p.ID] = &cp
	g.order = append(g.order, p.ID)
	return nil
}

// UpdatePerson replaces the stored record for p.ID.
func (g *Graph) UpdatePerson(p Person) error {
	if _, ok := g.people[p.ID]; !ok {
		return errors.New(errors.ErrCodePersonNotFound, "person %q not found", p.ID)
	}
	cp := p.Clone()
	g.people[p.ID] = &cp
	return nil
}

// CheckRelationship reports whether r could be added without breaking an
// invariant. The relationship ID is not required.
func (g *Graph) CheckRelationship(r Relationship) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for _, id := range []string{r.PersonA, r.PersonB} {
		if _, ok := g.people[id]; !ok {
			return errors.New(errors.ErrCodePersonNotFound, "person %q not found", id)
		}
	}
	if _, dup := g.keys[r.key()]; dup {
		return errors.New(errors.ErrCodeDuplicateRelationship,
			"%s relationship between %s and %s already exists", r.Kind, r.PersonA, r.PersonB)
	}
	if r.Kind == KindSpouse {
		for _, id := range []string{r.PersonA, r.PersonB} {
			if _, taken := g.spouse[id]; taken {
				return errors.New(errors.ErrCodeSpouseConflict, "%s already has a spouse", g.displayName(id))
			}
		}
	}
	return nil
}

// AddRelationship adds a relationship with a store-assigned ID.
func (g *Graph) AddRelationship(r Relationship) error {
	if err := errors.ValidateID(r.ID); err != nil {
		return err
	}
	if _, exists := g.rels[r.ID]; exists {
		return errors.New(errors.ErrCodeDuplicateRelationship, "duplicate relationship id %q", r.ID)
	}
	if err := g.CheckRelationship(r); err != nil {
		return err
	}

	rel := r
	g.rels[r.ID] = &rel
	g.relOrder = append(g.relOrder, r.ID)
	g.keys[r.key()] = r.ID
	g.touching[r.PersonA] = append(g.touching[r.PersonA], r.ID)
	g.touching[r.PersonB] = append(g.touching[r.PersonB], r.ID)

	switch r.Kind {
	case KindChild:
		g.children[r.PersonA] = append(g.children[r.PersonA], r.PersonB)
		g.parents[r.PersonB] = append(g.parents[r.PersonB], r.PersonA)
	case KindSpouse:
		g.spouse[r.PersonA] = r.ID
		g.spouse[r.PersonB] = r.ID
	}
	return nil
}

// RemoveRelationship removes a relationship by ID. It returns false if the
// relationship does not exist.
func (g *Graph) RemoveRelationship(id string) bool {
	r, ok := g.rels[id]
	if !ok {
		return false
	}
	delete(g.rels, id)
	delete(g.keys, r.key())
	g.relOrder = slices.DeleteFunc(g.relOrder, func(s string) bool { return s == id })
	for _, p := range []string{r.PersonA, r.PersonB} {
		g.touching[p] = slices.DeleteFunc(g.touching[p], func(s string) bool { return s == id })
	}

	switch r.Kind {
	case KindChild:
		g.children[r.PersonA] = removeOne(g.children[r.PersonA], r.PersonB)
		g.parents[r.PersonB] = removeOne(g.parents[r.PersonB], r.PersonA)
	case KindSpouse:
		delete(g.spouse, r.PersonA)
		delete(g.spouse, r.PersonB)
	}
	return true
}

// RemovePerson removes a person and every relationship touching it. It
// returns the removed relationships, or false if the person does not exist.
func (g *Graph) RemovePerson(id string) ([]Relationship, bool) {
	if _, ok := g.people[id]; !ok {
		return nil, false
	}
	var removed []Relationship
	for _, relID := range slices.Clone(g.touching[id]) {
		removed = append(removed, *g.rels[relID])
		g.RemoveRelationship(relID)
	}
	delete(g.people, id)
	delete(g.touching, id)
	delete(g.children, id)
	delete(g.parents, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	return removed, true
}

func removeOne(ids []string, id string) []string {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

// =============================================================================
// Queries
// =============================================================================

// Len returns the number of people.
func (g *Graph) Len() int { return len(g.people) }

// RelationshipCount returns the number of relationships.
func (g *Graph) RelationshipCount() int { return len(g.rels) }

// Person returns a copy of the person with the given ID.
func (g *Graph) Person(id string) (Person, bool) {
	p, ok := g.people[id]
	if !ok {
		return Person{}, false
	}
	return p.Clone(), true
}

// Has reports whether a person with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.people[id]
	return ok
}

// People returns copies of all people in insertion order.
func (g *Graph) People() []Person {
	out := make([]Person, len(g.order))
	for i, id := range g.order {
		out[i] = g.people[id].Clone()
	}
	return out
}

// PersonIDs returns all person IDs in insertion order.
func (g *Graph) PersonIDs() []string { return slices.Clone(g.order) }

// Index returns the insertion index of a person, or -1.
func (g *Graph) Index(id string) int { return slices.Index(g.order, id) }

// Relationship returns the relationship with the given ID.
func (g *Graph) Relationship(id string) (Relationship, bool) {
	r, ok := g.rels[id]
	if !ok {
		return Relationship{}, false
	}
	return *r, true
}

// Relationships returns all relationships in insertion order.
func (g *Graph) Relationships() []Relationship {
	out := make([]Relationship, len(g.relOrder))
	for i, id := range g.relOrder {
		out[i] = *g.rels[id]
	}
	return out
}

// RelationshipsOf returns every relationship touching a person.
func (g *Graph) RelationshipsOf(id string) []Relationship {
	ids := g.touching[id]
	out := make([]Relationship, len(ids))
	for i, relID := range ids {
		out[i] = *g.rels[relID]
	}
	return out
}

// Find returns the relationship between a and b of the given kind. Symmetric
// kinds match in either order.
func (g *Graph) Find(a, b string, kind Kind) (Relationship, bool) {
	id, ok := g.keys[Relationship{PersonA: a, PersonB: b, Kind: kind}.key()]
	if !ok {
		return Relationship{}, false
	}
	return *g.rels[id], true
}

// Parents returns the IDs of a person's parents. The returned slice should
// not be modified.
func (g *Graph) Parents(id string) []string { return g.parents[id] }

// Children returns the IDs of a person's children. The returned slice should
// not be modified.
func (g *Graph) Children(id string) []string { return g.children[id] }

// Spouse returns the ID of a person's spouse.
func (g *Graph) Spouse(id string) (string, bool) {
	r, ok := g.SpouseRelationship(id)
	if !ok {
		return "", false
	}
	return r.Other(id), true
}

// SpouseRelationship returns the spouse relationship of a person.
func (g *Graph) SpouseRelationship(id string) (Relationship, bool) {
	relID, ok := g.spouse[id]
	if !ok {
		return Relationship{}, false
	}
	return *g.rels[relID], true
}

// Siblings returns people sharing a parent with id, plus explicit sibling
// links, without duplicates.
func (g *Graph) Siblings(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, p := range g.parents[id] {
		for _, c := range g.children[p] {
			add(c)
		}
	}
	for _, relID := range g.touching[id] {
		if r := g.rels[relID]; r.Kind == KindSibling {
			add(r.Other(id))
		}
	}
	return out
}

// Roots returns people who are not the child in any relationship, in
// insertion order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Validate re-checks every invariant. Load and the mutation methods keep them
// already, so a failure here indicates a bug.
func (g *Graph) Validate() error {
	seen := make(map[relKey]bool, len(g.rels))
	spouses := make(map[string]bool)
	for _, id := range g.relOrder {
		r := g.rels[id]
		if err := r.Validate(); err != nil {
			return err
		}
		if !g.Has(r.PersonA) || !g.Has(r.PersonB) {
			return errors.New(errors.ErrCodeInvalidRelationship, "relationship %s references a missing person", id)
		}
		if seen[r.key()] {
			return errors.New(errors.ErrCodeDuplicateRelationship, "relationship %s is a duplicate", id)
		}
		seen[r.key()] = true
		if r.Kind == KindSpouse {
			if spouses[r.PersonA] || spouses[r.PersonB] {
				return errors.New(errors.ErrCodeSpouseConflict, "relationship %s gives a person a second spouse", id)
			}
			spouses[r.PersonA], spouses[r.PersonB] = true, true
		}
	}
	return nil
}

func (g *Graph) displayName(id string) string {
	if p, ok := g.people[id]; ok && p.FirstName != "" {
		return p.FullName()
	}
	return id
}
