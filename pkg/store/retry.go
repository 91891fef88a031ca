package store

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"syscall"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/family"
)

// Retrying decorates a Store with retries of transient failures.
//
// Only reads and idempotent writes are retried. CreatePerson and
// CreateRelationships assign fresh IDs, so a retry after a lost
// acknowledgement would duplicate records; they pass through unchanged.
type Retrying struct {
	Store
	Backoff   cache.Backoff
	Transient func(error) bool
}

// WithRetry wraps s. A zero backoff uses cache.DefaultBackoff.
func WithRetry(s Store, b cache.Backoff) *Retrying {
	if b.Attempts <= 0 {
		b = cache.DefaultBackoff
	}
	return &Retrying{Store: s, Backoff: b, Transient: IsTransient}
}

// IsTransient reports whether err looks like a dropped connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	return stderrors.Is(err, driver.ErrBadConn) ||
		stderrors.Is(err, syscall.ECONNRESET) ||
		stderrors.Is(err, syscall.ECONNREFUSED) ||
		stderrors.As(err, &netErr)
}

func (r *Retrying) do(ctx context.Context, fn func() error) error {
	return cache.RetryWithBackoff(ctx, r.Backoff, func() error {
		err := fn()
		if r.Transient(err) {
			return cache.Retryable(err)
		}
		return err
	})
}

func unwrapRetryable(err error) error {
	var re *cache.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}

func (r *Retrying) Trees(ctx context.Context) (ids []string, err error) {
	err = r.do(ctx, func() (e error) { ids, e = r.Store.Trees(ctx); return })
	return ids, unwrapRetryable(err)
}

func (r *Retrying) FetchPeople(ctx context.Context, treeID string) (ps []family.Person, err error) {
	err = r.do(ctx, func() (e error) { ps, e = r.Store.FetchPeople(ctx, treeID); return })
	return ps, unwrapRetryable(err)
}

func (r *Retrying) FetchRelationships(ctx context.Context, treeID string) (rs []family.Relationship, err error) {
	err = r.do(ctx, func() (e error) { rs, e = r.Store.FetchRelationships(ctx, treeID); return })
	return rs, unwrapRetryable(err)
}

func (r *Retrying) UpdatePerson(ctx context.Context, id string, f family.Fields) (p family.Person, err error) {
	err = r.do(ctx, func() (e error) { p, e = r.Store.UpdatePerson(ctx, id, f); return })
	return p, unwrapRetryable(err)
}

func (r *Retrying) DeletePerson(ctx context.Context, id string) error {
	return unwrapRetryable(r.do(ctx, func() error { return r.Store.DeletePerson(ctx, id) }))
}

func (r *Retrying) DeleteRelationship(ctx context.Context, id string) error {
	return unwrapRetryable(r.do(ctx, func() error { return r.Store.DeleteRelationship(ctx, id) }))
}

func (r *Retrying) SavePositions(ctx context.Context, updates []PositionUpdate) error {
	return unwrapRetryable(r.do(ctx, func() error { return r.Store.SavePositions(ctx, updates) }))
}

var _ Store = (*Retrying)(nil)
