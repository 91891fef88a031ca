// Package storetest is the conformance suite every store.Store backend runs.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) store.Store

// Run exercises the store.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("create and fetch people", func(t *testing.T) { testPeople(t, newStore(t)) })
	t.Run("update person", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("relationships", func(t *testing.T) { testRelationships(t, newStore(t)) })
	t.Run("delete cascades", func(t *testing.T) { testCascade(t, newStore(t)) })
	t.Run("save positions", func(t *testing.T) { testPositions(t, newStore(t)) })
	t.Run("trees are isolated", func(t *testing.T) { testTrees(t, newStore(t)) })
	t.Run("not found", func(t *testing.T) { testNotFound(t, newStore(t)) })
}

func create(t *testing.T, s store.Store, tree, name string) family.Person {
	t.Helper()
	p, err := s.CreatePerson(context.Background(), tree, family.Fields{FirstName: family.Ptr(name)})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	return p
}

func testPeople(t *testing.T, s store.Store) {
	ctx := context.Background()
	birth := time.Date(1950, time.March, 2, 0, 0, 0, 0, time.UTC)

	a, err := s.CreatePerson(ctx, "t1", family.Fields{
		FirstName: family.Ptr("Ada"),
		Surname:   family.Ptr("Lovelace"),
		BirthDate: &birth,
		Gender:    family.Ptr(family.GenderFemale),
		Tags:      []string{"poet", "math"},
		PhotoURL:  family.Ptr("https://example.com/ada.png"),
		Position:  &family.Position{X: 250, Y: 150},
	})
	require.NoError(t, err)
	assert.True(t, a.Alive, "new people default to alive")

	b := create(t, s, "t1", "Bo")
	c := create(t, s, "t1", "Cy")

	people, err := s.FetchPeople(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, people, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{people[0].ID, people[1].ID, people[2].ID}, "creation order")

	got := people[0]
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Lovelace", got.Surname)
	require.NotNil(t, got.BirthDate)
	assert.True(t, birth.Equal(*got.BirthDate))
	assert.Equal(t, family.GenderFemale, got.Gender)
	assert.Equal(t, []string{"poet", "math"}, got.Tags)
	assert.Equal(t, "https://example.com/ada.png", got.PhotoURL)
	require.NotNil(t, got.Position)
	assert.Equal(t, family.Position{X: 250, Y: 150}, *got.Position)

	assert.Nil(t, people[1].Position, "no position until saved")
}

func testUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s, "t1", "Ada")
	wed := time.Date(1835, time.July, 8, 0, 0, 0, 0, time.UTC)

	updated, err := s.UpdatePerson(ctx, p.ID, family.Fields{
		Surname:         family.Ptr("King"),
		Alive:           family.Ptr(false),
		AnniversaryDate: &wed,
		Notes:           family.Ptr("**Countess**"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName, "unset fields are kept")
	assert.Equal(t, "King", updated.Surname)
	assert.False(t, updated.Alive)

	people, err := s.FetchPeople(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.False(t, people[0].Alive)
	assert.Equal(t, "**Countess**", people[0].Notes)
	require.NotNil(t, people[0].AnniversaryDate)
	assert.True(t, wed.Equal(*people[0].AnniversaryDate))

	_, err = s.UpdatePerson(ctx, p.ID, family.Fields{ClearAnniversaryDate: true, Tags: []string{}})
	require.NoError(t, err)
	people, err = s.FetchPeople(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, people[0].AnniversaryDate)
	assert.Empty(t, people[0].Tags)
}

func testRelationships(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := create(t, s, "t1", "A")
	b := create(t, s, "t1", "B")
	c := create(t, s, "t1", "C")

	created, err := s.CreateRelationships(ctx, "t1", []family.Relationship{
		family.NewSpouse(a.ID, b.ID),
		family.NewChild(a.ID, c.ID),
		family.NewChild(b.ID, c.ID),
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	for _, r := range created {
		assert.NotEmpty(t, r.ID)
	}

	rels, err := s.FetchRelationships(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, rels, 3)
	assert.Equal(t, family.KindSpouse, rels[0].Kind)
	assert.Equal(t, a.ID, rels[1].PersonA)
	assert.Equal(t, c.ID, rels[1].PersonB)

	g, err := family.Load(mustPeople(t, s, "t1"), rels)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, g.Parents(c.ID))

	require.NoError(t, s.DeleteRelationship(ctx, created[0].ID))
	rels, err = s.FetchRelationships(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, rels, 2)
}

func testCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := create(t, s, "t1", "A")
	b := create(t, s, "t1", "B")
	c := create(t, s, "t1", "C")
	_, err := s.CreateRelationships(ctx, "t1", []family.Relationship{
		family.NewSpouse(a.ID, b.ID),
		family.NewChild(a.ID, c.ID),
		family.NewChild(b.ID, c.ID),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeletePerson(ctx, a.ID))

	rels, err := s.FetchRelationships(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	for _, r := range rels {
		assert.False(t, r.Involves(a.ID), "relationship %s still references deleted person", r.ID)
	}
	assert.Len(t, mustPeople(t, s, "t1"), 2)
}

func testPositions(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := create(t, s, "t1", "A")
	b := create(t, s, "t1", "B")

	err := s.SavePositions(ctx, []store.PositionUpdate{
		{ID: a.ID, X: 10, Y: 20},
		{ID: b.ID, X: -5.5, Y: 300},
		{ID: "junc-unknown", X: 1, Y: 1},
	})
	require.NoError(t, err)

	people := mustPeople(t, s, "t1")
	require.Len(t, people, 2)
	require.NotNil(t, people[0].Position)
	assert.Equal(t, family.Position{X: 10, Y: 20}, *people[0].Position)
	require.NotNil(t, people[1].Position)
	assert.Equal(t, family.Position{X: -5.5, Y: 300}, *people[1].Position)
}

func testTrees(t *testing.T, s store.Store) {
	ctx := context.Background()
	create(t, s, "t1", "A")
	create(t, s, "t2", "B")

	assert.Len(t, mustPeople(t, s, "t1"), 1)
	assert.Len(t, mustPeople(t, s, "t2"), 1)

	trees, err := s.Trees(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, trees)

	empty, err := s.FetchPeople(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000000"

	_, err := s.UpdatePerson(ctx, missing, family.Fields{Surname: family.Ptr("x")})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "UpdatePerson: %v", err)

	err = s.DeletePerson(ctx, missing)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "DeletePerson: %v", err)

	err = s.DeleteRelationship(ctx, missing)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "DeleteRelationship: %v", err)
}

func mustPeople(t *testing.T, s store.Store, tree string) []family.Person {
	t.Helper()
	people, err := s.FetchPeople(context.Background(), tree)
	require.NoError(t, err)
	return people
}
