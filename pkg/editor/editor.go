// Package editor orchestrates every change to a family tree.
//
// An [Editor] owns one tree. It loads the tree from a store.Store, derives
// the generation levels, positions and edge orientation, and projects them
// into a canvas.View. Every mutation follows the same cycle:
//
//  1. Check the session mode (locked editors reject changes)
//  2. Validate against the in-memory graph, before any write
//  3. Write through the store
//  4. Reload the whole tree from the store and rebuild the view
//
// The in-memory graph therefore only ever reflects what storage confirmed.
// When a multi-step write fails halfway, the editor undoes the steps that
// succeeded, reloads, and returns the storage error.
//
// # Concurrency
//
// Mutations are serialised by a mutex. Reloads carry a sequence number; a
// reload that finishes after a newer one has been applied is discarded.
// View and the other read accessors are safe to call at any time.
//
// # Positions
//
// Positions come from storage, or the default grid for people without one.
// MoveNode and Relayout change positions in memory only; those unsaved
// positions survive reloads until SavePositions writes them. Relayout puts
// the view in layout.ModeAutomatic; a move or a save returns it to
// layout.ModeManual.
package editor

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/canvas"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/generation"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/orientation"
	"github.com/matzehuels/kintree/pkg/session"
	"github.com/matzehuels/kintree/pkg/store"
)

// Editor is the mutation orchestrator for one tree.
type Editor struct {
	store  store.Store
	treeID string
	opts   Options
	state  *session.State
	logger *log.Logger

	mu  sync.Mutex // serialises mutations
	seq atomic.Uint64

	viewMu    sync.RWMutex // guards everything below
	applied   uint64
	loaded    bool
	graph     *family.Graph // replaced on reload, never modified in place
	levels    generation.Levels
	positions layout.Positions
	pending   layout.Positions // unsaved positions
	table     orientation.Table
	view      canvas.View
	cached    bool // last Relayout was served from cache
	mode      layout.Mode
}

// New creates an editor for treeID. Call Load before using it.
func New(s store.Store, treeID string, opts Options) *Editor {
	opts = opts.withDefaults()
	return &Editor{
		store:   s,
		treeID:  treeID,
		opts:    opts,
		state:   opts.Session,
		logger:  opts.Logger.With("tree", treeID),
		graph:   family.New(),
		pending: make(layout.Positions),
		mode:    layout.ModeManual,
	}
}

// TreeID returns the tree this editor owns.
func (e *Editor) TreeID() string { return e.treeID }

// LayoutOptions returns the node geometry in use.
func (e *Editor) LayoutOptions() layout.Options { return e.opts.Layout }

// LayoutCached reports whether the last Relayout was served from cache.
func (e *Editor) LayoutCached() bool {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return e.cached
}

// Session returns the mode and selection state.
func (e *Editor) Session() *session.State { return e.state }

// Load reads the tree. An empty tree is seeded with one root person.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(ctx); err != nil {
		return err
	}
	if e.Graph().Len() > 0 {
		return nil
	}

	e.logger.Info("seeding empty tree")
	_, err := e.store.CreatePerson(ctx, e.treeID, family.Fields{
		FirstName: family.Ptr(SeedFirstName),
		Surname:   family.Ptr(SeedSurname),
		Alive:     family.Ptr(true),
		Position:  &family.Position{X: SeedPosition.X, Y: SeedPosition.Y},
	})
	if err != nil {
		return errors.Persistence(err, "seed root person")
	}
	return e.reload(ctx)
}

// Reload re-reads the tree from storage and rebuilds the view.
func (e *Editor) Reload(ctx context.Context) error {
	return e.reload(ctx)
}

func (e *Editor) reload(ctx context.Context) error {
	seq := e.seq.Add(1)
	start := time.Now()

	people, err := e.store.FetchPeople(ctx, e.treeID)
	if err == nil {
		var rels []family.Relationship
		rels, err = e.store.FetchRelationships(ctx, e.treeID)
		if err == nil {
			err = e.install(seq, people, rels)
		}
	}
	observability.Editor().OnLoad(ctx, e.treeID, len(people), e.Graph().RelationshipCount(), time.Since(start), err)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Persistence(err, "load tree %s", e.treeID)
		}
		return err
	}
	return nil
}

// install builds the graph from fetched records and swaps it in, unless a
// newer reload has already been applied. Records that break a graph
// invariant are skipped with a warning so one bad row cannot lock a tree.
func (e *Editor) install(seq uint64, people []family.Person, rels []family.Relationship) error {
	g := family.New()
	for _, p := range people {
		if err := g.AddPerson(p); err != nil {
			e.logger.Warn("skipping invalid person", "id", p.ID, "error", err)
		}
	}
	for _, r := range rels {
		if err := g.AddRelationship(r); err != nil {
			e.logger.Warn("skipping invalid relationship", "id", r.ID, "error", err)
		}
	}

	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	if seq < e.applied {
		e.logger.Debug("discarding stale reload", "seq", seq, "applied", e.applied)
		return nil
	}
	e.applied = seq
	e.loaded = true
	e.graph = g
	maps.DeleteFunc(e.pending, func(id string, _ family.Position) bool { return !g.Has(id) })
	if len(e.pending) == 0 {
		e.mode = layout.ModeManual
	}
	if sel := e.state.Selected(); sel != "" && !g.Has(sel) {
		e.state.Clear()
	}
	e.derive()

	e.logger.Debug("loaded tree", "people", g.Len(), "relationships", g.RelationshipCount())
	return nil
}

// derive recomputes levels, positions, orientation and the view from the
// current graph. The caller holds viewMu.
func (e *Editor) derive() {
	in := layout.InputFromGraph(e.graph, nil)
	e.levels = generation.ForGraph(e.graph)
	e.positions = layout.Manual(in, e.opts.Layout)
	for id, p := range e.pending {
		e.positions[id] = p
	}
	e.table = orientation.ResolveAll(e.graph.Relationships(), orientation.Positions(e.positions))
	e.project()
}

// project rebuilds the view from the derived state. The caller holds viewMu.
func (e *Editor) project() {
	e.view = canvas.Project(canvas.Input{
		Graph:       e.graph,
		Levels:      e.levels,
		Positions:   e.positions,
		Orientation: e.table,
		Selected:    e.state.Selected(),
		Locked:      e.state.Locked(),
		LayoutMode:  e.mode,
	}, canvas.Options{
		Junctions: e.opts.Junctions,
		Layout:    e.opts.Layout,
		Now:       e.opts.Now(),
	})
}

// View returns the current canvas view.
func (e *Editor) View() canvas.View {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return e.view
}

// Graph returns the current graph. Callers must not modify it.
func (e *Editor) Graph() *family.Graph {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return e.graph
}

// Levels returns the generation level of every person.
func (e *Editor) Levels() generation.Levels {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return maps.Clone(e.levels)
}

// Positions returns the current position of every person, saved or not.
func (e *Editor) Positions() layout.Positions {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return maps.Clone(e.positions)
}

// Unsaved reports whether MoveNode or Relayout changed positions that have
// not been saved.
func (e *Editor) Unsaved() bool {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return len(e.pending) > 0
}

// Person returns a person by ID.
func (e *Editor) Person(id string) (family.Person, bool) {
	return e.Graph().Person(id)
}

// mutate runs fn as one serialised mutation with mode gating, hooks and
// logging.
func (e *Editor) mutate(ctx context.Context, op string, action session.Action, fn func() error) error {
	start := time.Now()
	if err := e.state.Allow(action); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn()
	observability.Editor().OnMutation(ctx, e.treeID, op, time.Since(start), err)
	if err != nil {
		e.logger.Warn("mutation failed", "op", op, "error", err)
		return err
	}
	e.logger.Info("mutation applied", "op", op, "duration", time.Since(start))
	return nil
}

func (e *Editor) requirePerson(id string) (family.Person, error) {
	p, ok := e.Graph().Person(id)
	if !ok {
		return family.Person{}, errors.New(errors.ErrCodePersonNotFound, "person %q not found", id)
	}
	return p, nil
}

func (e *Editor) confirm(ctx context.Context, prompt string) error {
	if e.opts.Confirmer == nil {
		return nil
	}
	ok, err := e.opts.Confirmer.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.ErrCodeCancelled, "cancelled")
	}
	return nil
}
