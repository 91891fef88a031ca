package store_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/memory"
)

// flaky fails the first n calls of FetchPeople and CreatePerson with a
// dropped connection.
type flaky struct {
	store.Store
	failures int
	calls    int
}

func (f *flaky) FetchPeople(ctx context.Context, treeID string) ([]family.Person, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.Persistence(driver.ErrBadConn, "fetch people")
	}
	return f.Store.FetchPeople(ctx, treeID)
}

func (f *flaky) CreatePerson(ctx context.Context, treeID string, fields family.Fields) (family.Person, error) {
	f.calls++
	return family.Person{}, errors.Persistence(driver.ErrBadConn, "create person")
}

var fast = cache.Backoff{Attempts: 3, Delay: time.Millisecond}

func TestWithRetryRetriesReads(t *testing.T) {
	f := &flaky{Store: memory.New(), failures: 2}
	s := store.WithRetry(f, fast)

	_, err := s.FetchPeople(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, 3, f.calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	f := &flaky{Store: memory.New(), failures: 5}
	s := store.WithRetry(f, fast)

	_, err := s.FetchPeople(context.Background(), "t")
	require.Error(t, err)
	assert.True(t, errors.IsPersistence(err))
	assert.False(t, cache.IsRetryable(err), "retry marker must not leak")
	assert.Equal(t, 3, f.calls)
}

func TestWithRetryDoesNotRetryCreates(t *testing.T) {
	f := &flaky{Store: memory.New()}
	s := store.WithRetry(f, fast)

	_, err := s.CreatePerson(context.Background(), "t", family.Fields{FirstName: family.Ptr("A")})
	require.Error(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, store.IsTransient(errors.Persistence(driver.ErrBadConn, "x")))
	assert.False(t, store.IsTransient(store.ErrNotFound))
	assert.False(t, store.IsTransient(nil))
}

func TestPositions(t *testing.T) {
	got := store.Positions(map[string]family.Position{
		"b": {X: 1, Y: 2},
		"a": {X: 3, Y: 4},
	})
	assert.Equal(t, []store.PositionUpdate{{ID: "a", X: 3, Y: 4}, {ID: "b", X: 1, Y: 2}}, got)
}
