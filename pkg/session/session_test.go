package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
)

func TestStateToggle(t *testing.T) {
	var s State
	if s.Mode() != ModeUnlocked {
		t.Fatalf("zero State mode = %s, want unlocked", s.Mode())
	}

	s.Select("p1")
	if got := s.Toggle(); got != ModeLocked {
		t.Errorf("Toggle() = %s, want locked", got)
	}
	if s.Selected() != "" {
		t.Errorf("Selected() = %q after locking, want empty", s.Selected())
	}
	if got := s.Toggle(); got != ModeUnlocked {
		t.Errorf("Toggle() = %s, want unlocked", got)
	}
}

func TestStateSelect(t *testing.T) {
	s := NewState(ModeUnlocked)
	s.Select("a")
	s.Select("b")
	if s.Selected() != "b" {
		t.Errorf("Selected() = %q, want b", s.Selected())
	}
	s.Select("")
	if s.Selected() != "" {
		t.Errorf("Selected() = %q, want empty", s.Selected())
	}
	s.Select("c")
	s.Clear()
	if s.Selected() != "" {
		t.Errorf("Selected() = %q after Clear, want empty", s.Selected())
	}
}

func TestStateAllow(t *testing.T) {
	s := NewState(ModeLocked)
	for _, a := range []Action{ActionMove, ActionConnect, ActionQuickAdd, ActionDelete, ActionEdit} {
		err := s.Allow(a)
		if !errors.Is(err, errors.ErrCodeLocked) {
			t.Errorf("Allow(%s) = %v, want LOCKED", a, err)
		}
	}
	s.SetMode(ModeUnlocked)
	if err := s.Allow(ActionQuickAdd); err != nil {
		t.Errorf("Allow() unlocked = %v, want nil", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := NewState(ModeUnlocked)
	s.Select("p1")
	snap := s.Snapshot("sid", "tree", time.Hour)

	r := NewState(ModeLocked)
	r.Restore(snap)
	if r.Mode() != ModeUnlocked || r.Selected() != "p1" {
		t.Errorf("Restore() = %s %q, want unlocked p1", r.Mode(), r.Selected())
	}
	r.Restore(nil)
	if r.Selected() != "p1" {
		t.Error("Restore(nil) should not change state")
	}
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = %v, %v, want nil, nil", got, err)
	}

	s := NewState(ModeLocked)
	snap := s.Snapshot("sid", "tree-1", time.Hour)
	if err := store.Set(ctx, snap); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err = store.Get(ctx, "sid")
	if err != nil || got == nil {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if got.TreeID != "tree-1" || got.Mode != ModeLocked {
		t.Errorf("Get() = %+v, want tree-1 locked", got)
	}

	expired := s.Snapshot("old", "tree-1", -time.Minute)
	_ = store.Set(ctx, expired)
	if got, _ := store.Get(ctx, "old"); got != nil {
		t.Error("expired snapshot should not be returned")
	}
	if _, err := store.Prune(ctx); err != nil {
		t.Errorf("Prune() error = %v", err)
	}

	if err := store.Delete(ctx, "sid"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := store.Get(ctx, "sid"); got != nil {
		t.Error("Get() after Delete should return nil")
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, store)
}

func TestFileStorePrune(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	s := NewState(ModeUnlocked)
	_ = store.Set(ctx, s.Snapshot("tree-a/b", "a/b", time.Hour))
	_ = store.Set(ctx, s.Snapshot("stale", "a", -time.Minute))
	_ = os.WriteFile(filepath.Join(dir, "broken"+snapshotExt), []byte("{"), 0o600)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o600)

	n, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() = %d, want 2 (expired and unreadable)", n)
	}
	if got, _ := store.Get(ctx, "tree-a/b"); got == nil || got.TreeID != "a/b" {
		t.Errorf("Get(tree-a/b) = %+v, want live snapshot", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("Prune() should leave unrelated files alone")
	}
	if _, err := NewFileStore(""); err == nil {
		t.Error("NewFileStore(\"\") should fail")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("KINTREE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KINTREE_TEST_REDIS_ADDR not set")
	}
	store, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr, Prefix: "kintree:test:session:"})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	testStore(t, store)
}
