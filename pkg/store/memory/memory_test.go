package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestCreateRelationshipsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, err := s.CreatePerson(ctx, "t", family.Fields{FirstName: family.Ptr("A")})
	require.NoError(t, err)
	b, err := s.CreatePerson(ctx, "t", family.Fields{FirstName: family.Ptr("B")})
	require.NoError(t, err)

	_, err = s.CreateRelationships(ctx, "t", []family.Relationship{
		family.NewChild(a.ID, b.ID),
		family.NewChild(a.ID, "ghost"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	rels, err := s.FetchRelationships(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, rels, "failed batch must not leave partial records")
}

func TestRecordsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	p, err := s.CreatePerson(ctx, "t", family.Fields{FirstName: family.Ptr("A"), Tags: []string{"x"}})
	require.NoError(t, err)
	p.Tags[0] = "mutated"

	people, err := s.FetchPeople(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, people[0].Tags)
}
