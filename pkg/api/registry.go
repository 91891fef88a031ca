package api

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/session"
	"github.com/matzehuels/kintree/pkg/store"
)

// Factory builds an unloaded editor for a tree.
type Factory func(treeID string) *editor.Editor

// Registry keeps one loaded editor per tree.
type Registry struct {
	store    store.Store
	factory  Factory
	sessions session.Store // optional
	ttl      time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	editors map[string]*editor.Editor
}

// NewRegistry creates a registry. sessions may be nil, in which case mode
// and selection are not persisted.
func NewRegistry(s store.Store, factory Factory, sessions session.Store, ttl time.Duration, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		store:    s,
		factory:  factory,
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
		editors:  make(map[string]*editor.Editor),
	}
}

// Get returns the editor for treeID, loading it on first use.
func (r *Registry) Get(ctx context.Context, treeID string) (*editor.Editor, error) {
	if err := errors.ValidateID(treeID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.editors[treeID]; ok {
		return e, nil
	}

	e := r.factory(treeID)
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	if r.sessions != nil {
		if err := e.RestoreSession(ctx, r.sessions); err != nil {
			r.logger.Warn("could not restore session", "tree", treeID, "error", err)
		}
	}
	r.editors[treeID] = e
	r.logger.Debug("opened tree", "tree", treeID)
	return e, nil
}

// Trees lists the trees in the store.
func (r *Registry) Trees(ctx context.Context) ([]string, error) {
	ids, err := r.store.Trees(ctx)
	if err != nil {
		return nil, errors.Persistence(err, "list trees")
	}
	return ids, nil
}

// SaveSession persists the mode and selection of e, if sessions are kept.
func (r *Registry) SaveSession(ctx context.Context, e *editor.Editor) {
	if r.sessions == nil {
		return
	}
	if err := e.SaveSession(ctx, r.sessions, r.ttl); err != nil {
		r.logger.Warn("could not save session", "tree", e.TreeID(), "error", err)
	}
}

// Close saves every open session.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.editors {
		r.SaveSession(ctx, e)
	}
	return nil
}
