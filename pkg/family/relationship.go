package family

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Kind identifies the relationship variant.
type Kind string

const (
	// KindChild links a parent (PersonA) to a child (PersonB).
	KindChild Kind = "child"
	// KindSpouse links a couple. Meaning is symmetric; stored order is fixed.
	KindSpouse Kind = "spouse"
	// KindSibling links two people who share no recorded parent.
	KindSibling Kind = "sibling"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindChild, KindSpouse, KindSibling:
		return true
	}
	return false
}

// Symmetric reports whether (A,B) and (B,A) mean the same thing.
func (k Kind) Symmetric() bool { return k == KindSpouse || k == KindSibling }

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", errors.New(errors.ErrCodeInvalidRelationship, "unknown relationship kind %q", s)
	}
	return k, nil
}

// Relationship is a typed edge between two people.
type Relationship struct {
	ID      string `json:"id" yaml:"id"`
	PersonA string `json:"person_a" yaml:"person_a"`
	PersonB string `json:"person_b" yaml:"person_b"`
	Kind    Kind   `json:"kind" yaml:"kind"`
}

// NewChild returns a child relationship: parent is PersonA, child is PersonB.
func NewChild(parent, child string) Relationship {
	return Relationship{PersonA: parent, PersonB: child, Kind: KindChild}
}

// NewSpouse returns a spouse relationship in the given stored order.
func NewSpouse(a, b string) Relationship {
	return Relationship{PersonA: a, PersonB: b, Kind: KindSpouse}
}

// NewSibling returns a sibling relationship.
func NewSibling(a, b string) Relationship {
	return Relationship{PersonA: a, PersonB: b, Kind: KindSibling}
}

// Validate checks the invariants every kind shares. The ID is not checked;
// stores assign it on creation.
func (r Relationship) Validate() error {
	if !r.Kind.Valid() {
		return errors.New(errors.ErrCodeInvalidRelationship, "unknown relationship kind %q", r.Kind)
	}
	if r.PersonA == "" || r.PersonB == "" {
		return errors.New(errors.ErrCodeInvalidRelationship, "%s relationship needs two people", r.Kind)
	}
	if r.PersonA == r.PersonB {
		return errors.New(errors.ErrCodeInvalidRelationship, "a person cannot be their own %s", r.Kind)
	}
	return nil
}

// Involves reports whether id is one of the endpoints.
func (r Relationship) Involves(id string) bool {
	return r.PersonA == id || r.PersonB == id
}

// Other returns the endpoint that is not id.
func (r Relationship) Other(id string) string {
	if r.PersonA == id {
		return r.PersonB
	}
	return r.PersonA
}

// EdgeID returns the canvas edge identifier, e.g. "e-ada-bo-child".
func (r Relationship) EdgeID() string {
	return fmt.Sprintf("e-%s-%s-%s", r.PersonA, r.PersonB, r.Kind)
}

type relKey struct {
	a, b string
	kind Kind
}

// key is the duplicate-detection key. Symmetric kinds are normalized so
// that (A,B) and (B,A) collide.
func (r Relationship) key() relKey {
	a, b := r.PersonA, r.PersonB
	if r.Kind.Symmetric() && b < a {
		a, b = b, a
	}
	return relKey{a: a, b: b, kind: r.Kind}
}
