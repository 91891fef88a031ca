package editor

import (
	"context"
	"time"

	"github.com/matzehuels/kintree/pkg/canvas"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/orientation"
	"github.com/matzehuels/kintree/pkg/session"
	"github.com/matzehuels/kintree/pkg/store"
)

// MoveNode places a person at pos and re-orients the spouse and sibling
// edges touching them. The move is not saved until SavePositions.
func (e *Editor) MoveNode(id string, pos family.Position) error {
	if err := e.state.Allow(session.ActionMove); err != nil {
		return err
	}
	if canvas.IsJunction(id) {
		return errors.New(errors.ErrCodeInvalidInput, "junction nodes cannot be moved")
	}

	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	if !e.graph.Has(id) {
		return errors.New(errors.ErrCodePersonNotFound, "person %q not found", id)
	}
	e.positions[id] = pos
	e.pending[id] = pos
	e.mode = layout.ModeManual
	changed := e.table.ResolveFor(id, e.graph.RelationshipsOf(id), orientation.Positions(e.positions))
	if len(changed) > 0 {
		e.logger.Debug("re-oriented edges", "node", id, "edges", changed)
	}
	e.project()
	return nil
}

// Relayout computes positions for every person with the configured engine.
// The result replaces the current positions but is not saved until
// SavePositions. Relayout is allowed in locked mode.
func (e *Editor) Relayout(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.viewMu.RLock()
	in := layout.InputFromGraph(e.graph, e.levels)
	e.viewMu.RUnlock()

	engine := e.opts.Engine
	start := time.Now()
	var (
		pos    layout.Positions
		cached bool
		err    error
	)
	if c, ok := engine.(*layout.Cached); ok {
		pos, cached, err = c.LayoutWithCacheInfo(ctx, in)
	} else {
		pos, err = engine.Layout(ctx, in)
		observability.Editor().OnLayout(ctx, engine.Name(), len(in.People), time.Since(start), err)
	}
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeInternal, err, "%s layout", engine.Name())
		}
		return err
	}

	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	for id, p := range pos {
		if !e.graph.Has(id) {
			continue
		}
		e.positions[id] = p
		e.pending[id] = p
	}
	e.cached = cached
	e.mode = layout.ModeAutomatic
	e.table = orientation.ResolveAll(e.graph.Relationships(), orientation.Positions(e.positions))
	e.project()

	e.logger.Info("relayout", "engine", engine.Name(), "nodes", len(pos), "cached", cached, "duration", time.Since(start))
	return nil
}

// SavePositions writes the position of every person on the canvas. Junction
// nodes are never saved.
func (e *Editor) SavePositions(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	updates := store.Positions(e.View().PersonPositions())
	err := e.store.SavePositions(ctx, updates)
	observability.Editor().OnMutation(ctx, e.treeID, "save_positions", time.Since(start), err)
	if err != nil {
		e.logger.Warn("save positions failed", "error", err)
		return errors.Persistence(err, "save positions")
	}

	e.viewMu.Lock()
	clear(e.pending)
	e.mode = layout.ModeManual
	e.viewMu.Unlock()
	e.logger.Info("saved positions", "count", len(updates))
	return e.reload(ctx)
}

// ToggleMode switches between locked and unlocked and returns the new mode.
func (e *Editor) ToggleMode() session.Mode {
	m := e.state.Toggle()
	e.refresh()
	e.logger.Debug("mode changed", "mode", m)
	return m
}

// SetMode sets the mode.
func (e *Editor) SetMode(m session.Mode) {
	e.state.SetMode(m)
	e.refresh()
}

// SelectNode selects a person, or clears the selection for "" or an
// unknown ID.
func (e *Editor) SelectNode(id string) {
	if id != "" && !e.Graph().Has(id) {
		id = ""
	}
	e.state.Select(id)
	e.refresh()
}

func (e *Editor) refresh() {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	if e.loaded {
		e.project()
	}
}
