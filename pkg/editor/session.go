package editor

import (
	"context"
	"time"

	"github.com/matzehuels/kintree/pkg/session"
)

// RestoreSession loads the saved mode and selection for this tree. A
// missing or expired snapshot leaves the state unchanged.
func (e *Editor) RestoreSession(ctx context.Context, st session.Store) error {
	snap, err := st.Get(ctx, session.TreeSessionID(e.treeID))
	if err != nil || snap == nil {
		return err
	}
	e.state.Restore(snap)
	if sel := e.state.Selected(); sel != "" && !e.Graph().Has(sel) {
		e.state.Clear()
	}
	e.refresh()
	e.logger.Debug("restored session", "mode", snap.Mode, "selected", snap.Selected)
	return nil
}

// SaveSession stores the current mode and selection for this tree.
func (e *Editor) SaveSession(ctx context.Context, st session.Store, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	id := session.TreeSessionID(e.treeID)
	return st.Set(ctx, e.state.Snapshot(id, e.treeID, ttl))
}
