package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/storetest"
)

// setupTestStore creates an in-memory SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return setupTestStore(t) })
}

func TestOpen(t *testing.T) {
	t.Run("error with empty path", func(t *testing.T) {
		_, err := Open(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("file database survives reopen", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "tree.db")

		s, err := Open(ctx, path)
		require.NoError(t, err)
		_, err = s.CreatePerson(ctx, "t1", family.Fields{FirstName: family.Ptr("Ada")})
		require.NoError(t, err)
		require.NoError(t, s.Close())

		s, err = Open(ctx, path)
		require.NoError(t, err)
		defer s.Close()
		people, err := s.FetchPeople(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, people, 1)
		assert.Equal(t, "Ada", people[0].FirstName)
		assert.Equal(t, path, s.Path())
	})
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.EnsureSchema(context.Background()))

	for _, table := range []string{"people", "relationships"} {
		var count int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestCreateRelationshipsRollsBack(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	a, err := s.CreatePerson(ctx, "t", family.Fields{FirstName: family.Ptr("A")})
	require.NoError(t, err)
	b, err := s.CreatePerson(ctx, "t", family.Fields{FirstName: family.Ptr("B")})
	require.NoError(t, err)

	_, err = s.CreateRelationships(ctx, "t", []family.Relationship{
		family.NewChild(a.ID, b.ID),
		family.NewChild(a.ID, "ghost"),
	})
	require.Error(t, err, "foreign key must reject unknown person")

	rels, err := s.FetchRelationships(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, rels)
}
