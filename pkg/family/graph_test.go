package family

import (
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
)

func person(id string) Person {
	return Person{ID: id, FirstName: id, Alive: true}
}

func rel(id string, r Relationship) Relationship {
	r.ID = id
	return r
}

func buildCouple(t *testing.T) *Graph {
	t.Helper()
	g, err := Load(
		[]Person{person("a"), person("b"), person("c")},
		[]Relationship{
			rel("r1", NewChild("a", "c")),
			rel("r2", NewChild("b", "c")),
			rel("r3", NewSpouse("a", "b")),
		},
	)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return g
}

func TestLoad(t *testing.T) {
	g := buildCouple(t)

	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
	if g.RelationshipCount() != 3 {
		t.Errorf("RelationshipCount() = %d, want 3", g.RelationshipCount())
	}
	if got := g.Parents("c"); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Parents(c) = %v, want [a b]", got)
	}
	if got := g.Children("a"); !slices.Equal(got, []string{"c"}) {
		t.Errorf("Children(a) = %v, want [c]", got)
	}
	if s, ok := g.Spouse("b"); !ok || s != "a" {
		t.Errorf("Spouse(b) = %q, %v, want a, true", s, ok)
	}
	if got := g.Roots(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Roots() = %v, want [a b]", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadRejectsDanglingRelationship(t *testing.T) {
	_, err := Load([]Person{person("a")}, []Relationship{rel("r1", NewChild("a", "ghost"))})
	if !errors.Is(err, errors.ErrCodePersonNotFound) {
		t.Errorf("Load() error = %v, want %s", err, errors.ErrCodePersonNotFound)
	}
}

func TestAddRelationshipInvariants(t *testing.T) {
	tests := []struct {
		name string
		rel  Relationship
		code errors.Code
	}{
		{"self child", NewChild("a", "a"), errors.ErrCodeInvalidRelationship},
		{"self spouse", NewSpouse("c", "c"), errors.ErrCodeInvalidRelationship},
		{"unknown kind", Relationship{PersonA: "a", PersonB: "c", Kind: "cousin"}, errors.ErrCodeInvalidRelationship},
		{"duplicate child", NewChild("a", "c"), errors.ErrCodeDuplicateRelationship},
		{"duplicate spouse reversed", NewSpouse("b", "a"), errors.ErrCodeDuplicateRelationship},
		{"second spouse", NewSpouse("a", "c"), errors.ErrCodeSpouseConflict},
		{"missing endpoint", NewSibling("a", "zz"), errors.ErrCodePersonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildCouple(t)
			before := g.RelationshipCount()
			err := g.AddRelationship(rel("new", tt.rel))
			if !errors.Is(err, tt.code) {
				t.Fatalf("AddRelationship() error = %v, want %s", err, tt.code)
			}
			if !errors.IsValidation(err) && !errors.IsConflict(err) {
				t.Errorf("error %v should be validation or conflict", err)
			}
			if g.RelationshipCount() != before {
				t.Errorf("RelationshipCount() = %d, want %d (unchanged)", g.RelationshipCount(), before)
			}
		})
	}
}

func TestRemovePersonCascades(t *testing.T) {
	g := buildCouple(t)

	removed, ok := g.RemovePerson("a")
	if !ok {
		t.Fatal("RemovePerson(a) = false")
	}
	if len(removed) != 2 {
		t.Errorf("removed %d relationships, want 2", len(removed))
	}
	for _, r := range g.Relationships() {
		if r.Involves("a") {
			t.Errorf("relationship %s still references a", r.ID)
		}
	}
	if _, ok := g.Spouse("b"); ok {
		t.Error("b should no longer have a spouse")
	}
	if got := g.Parents("c"); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Parents(c) = %v, want [b]", got)
	}
	if _, ok := g.RemovePerson("a"); ok {
		t.Error("RemovePerson(a) twice should return false")
	}
}

func TestRemoveRelationshipFreesSpouse(t *testing.T) {
	g := buildCouple(t)
	if !g.RemoveRelationship("r3") {
		t.Fatal("RemoveRelationship(r3) = false")
	}
	if err := g.CheckRelationship(NewSpouse("a", "c")); err != nil {
		t.Errorf("CheckRelationship() after divorce = %v", err)
	}
	if _, ok := g.Find("b", "a", KindSpouse); ok {
		t.Error("Find() should not return a removed relationship")
	}
}

func TestSiblings(t *testing.T) {
	g, err := Load(
		[]Person{person("p"), person("x"), person("y"), person("z")},
		[]Relationship{
			rel("r1", NewChild("p", "x")),
			rel("r2", NewChild("p", "y")),
			rel("r3", NewSibling("x", "z")),
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Siblings("x"); !slices.Equal(got, []string{"y", "z"}) {
		t.Errorf("Siblings(x) = %v, want [y z]", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := buildCouple(t)
	c := g.Clone()
	c.RemovePerson("c")
	moved := person("a")
	moved.Position = &Position{X: 1, Y: 2}
	if err := c.UpdatePerson(moved); err != nil {
		t.Fatal(err)
	}

	if !g.Has("c") {
		t.Error("removing from clone affected original")
	}
	if p, _ := g.Person("a"); p.Position != nil {
		t.Error("positioning clone affected original")
	}
}

func TestPersonHelpers(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	p := Person{FirstName: "ada", Surname: "lovelace", BirthDate: &birth}

	if got := p.FullName(); got != "ada lovelace" {
		t.Errorf("FullName() = %q", got)
	}
	if got := p.Initials(); got != "AL" {
		t.Errorf("Initials() = %q, want AL", got)
	}

	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2020, time.June, 14, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), 30},
	}
	for _, tt := range tests {
		if got, ok := p.Age(tt.now); !ok || got != tt.want {
			t.Errorf("Age(%s) = %d, %v, want %d", tt.now.Format(time.DateOnly), got, ok, tt.want)
		}
	}
	if _, ok := (Person{}).Age(time.Now()); ok {
		t.Error("Age() without birth date should report false")
	}
}

func TestFields(t *testing.T) {
	f := Fields{FirstName: Ptr("  Bo "), Tags: []string{" a", "b", "a", ""}}
	if err := f.ValidateNew(); err != nil {
		t.Fatalf("ValidateNew() = %v", err)
	}
	p := NewPerson("id1", f)
	if !p.Alive {
		t.Error("new person should default to alive")
	}
	if p.FirstName != "Bo" {
		t.Errorf("FirstName = %q, want Bo", p.FirstName)
	}
	if !slices.Equal(p.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %v, want [a b]", p.Tags)
	}

	if err := (Fields{}).ValidateNew(); !errors.Is(err, errors.ErrCodeMissingName) {
		t.Errorf("ValidateNew() without name = %v", err)
	}
	if err := (Fields{PhotoURL: Ptr("ftp://x")}).Validate(); !errors.Is(err, errors.ErrCodeInvalidURL) {
		t.Errorf("Validate() bad URL = %v", err)
	}
	if err := (Fields{PhotoURL: Ptr("")}).Validate(); err != nil {
		t.Errorf("Validate() empty URL clears photo, got %v", err)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"farmer", []string{"farmer"}},
		{"a, b,,c , a", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := ParseTags(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEdgeID(t *testing.T) {
	r := NewSpouse("a", "b")
	if got := r.EdgeID(); got != "e-a-b-spouse" {
		t.Errorf("EdgeID() = %q, want e-a-b-spouse", got)
	}
}
