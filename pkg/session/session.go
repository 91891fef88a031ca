// Package session holds the per-editor interaction state: edit mode and the
// current selection.
//
// # Mode
//
// An editor is either unlocked (drag, connect, quick-add, delete and edit are
// allowed) or locked (view only). [State.Toggle] switches between the two;
// entering locked mode clears the selection. Mutating entry points call
// [State.Allow] first, which fails with errors.ErrCodeLocked.
//
// # Selection
//
// At most one person is selected. Selecting a node replaces the previous
// selection; selecting "" clears it.
//
// # Persistence
//
// A [Snapshot] of the state can be saved to a [Store] so a terminal or HTTP
// session resumes where it left off. Backends:
//   - [MemoryStore]: tests and single-process servers
//   - [FileStore]: one JSON file per snapshot under the XDG state directory
//     (CLI); the CLI prunes expired files when it opens the store
//   - [RedisStore]: shared across server instances
package session

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Mode is the editor interaction mode.
type Mode string

const (
	ModeUnlocked Mode = "unlocked"
	ModeLocked   Mode = "locked"
)

// Action is a user action gated by the mode.
type Action string

const (
	ActionMove     Action = "move"
	ActionConnect  Action = "connect"
	ActionQuickAdd Action = "quick add"
	ActionDelete   Action = "delete"
	ActionEdit     Action = "edit"
)

// State is the mode and selection of one editor. It is safe for concurrent
// use. The zero value is an unlocked state with nothing selected.
type State struct {
	mu       sync.RWMutex
	locked   bool
	selected string
}

// NewState creates a state in the given mode.
func NewState(mode Mode) *State {
	return &State{locked: mode == ModeLocked}
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.locked {
		return ModeLocked
	}
	return ModeUnlocked
}

// Locked reports whether the state is in view-only mode.
func (s *State) Locked() bool { return s.Mode() == ModeLocked }

// Toggle switches the mode and returns the new one.
func (s *State) Toggle() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = !s.locked
	if s.locked {
		s.selected = ""
		return ModeLocked
	}
	return ModeUnlocked
}

// SetMode sets the mode. Entering locked mode clears the selection.
func (s *State) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = m == ModeLocked
	if s.locked {
		s.selected = ""
	}
}

// Select makes id the only selected node. An empty id clears the selection.
func (s *State) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// Clear removes the selection.
func (s *State) Clear() { s.Select("") }

// Selected returns the selected node ID, or "".
func (s *State) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Allow returns an ErrCodeLocked error when the action is not permitted in
// the current mode.
func (s *State) Allow(a Action) error {
	if s.Locked() {
		return errors.New(errors.ErrCodeLocked, "cannot %s while the tree is locked", a)
	}
	return nil
}

// Snapshot captures the state for storage.
func (s *State) Snapshot(id, treeID string, ttl time.Duration) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	mode := ModeUnlocked
	if s.locked {
		mode = ModeLocked
	}
	return &Snapshot{
		ID:        id,
		TreeID:    treeID,
		Mode:      mode,
		Selected:  s.selected,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Restore loads a snapshot into the state.
func (s *State) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.SetMode(snap.Mode)
	if snap.Mode != ModeLocked {
		s.Select(snap.Selected)
	}
}

// =============================================================================
// Storage
// =============================================================================

// Snapshot is the persisted form of a State.
type Snapshot struct {
	ID        string    `json:"id"`
	TreeID    string    `json:"tree_id"`
	Mode      Mode      `json:"mode"`
	Selected  string    `json:"selected,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the snapshot has expired.
func (s *Snapshot) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a snapshot by ID.
	// Returns nil, nil if the snapshot doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Set stores a snapshot.
	Set(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot.
	Delete(ctx context.Context, id string) error

	// Prune removes expired snapshots and reports how many it removed.
	Prune(ctx context.Context) (int, error)

	Close() error
}

// DefaultTTL is the default session duration.
const DefaultTTL = 7 * 24 * time.Hour

// TreeSessionID is the session ID the CLI uses for a tree, so every
// terminal session on the same tree resumes the same state.
func TreeSessionID(treeID string) string { return "tree-" + treeID }
