package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopEditorHooks{}
	e.OnLoad(ctx, "tree", 10, 12, time.Second, nil)
	e.OnMutation(ctx, "tree", "quick_add", time.Second, errors.New("boom"))
	e.OnLayout(ctx, "layered", 10, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "layout", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Editor().(NoopEditorHooks); !ok {
		t.Error("Editor() should return NoopEditorHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customEditor := &testEditorHooks{}
	SetEditorHooks(customEditor)
	if Editor() != customEditor {
		t.Error("SetEditorHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Editor().(NoopEditorHooks); !ok {
		t.Error("Reset() should restore NoopEditorHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testEditorHooks{}
	SetEditorHooks(custom)
	SetEditorHooks(nil)

	if Editor() != custom {
		t.Error("SetEditorHooks(nil) should be ignored")
	}

	Reset()
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testEditorHooks{}
	SetEditorHooks(h)
	Editor().OnMutation(context.Background(), "t1", "delete_person", time.Millisecond, nil)
	Editor().OnMutation(context.Background(), "t1", "quick_add", time.Millisecond, nil)

	if len(h.ops) != 2 || h.ops[0] != "delete_person" || h.ops[1] != "quick_add" {
		t.Errorf("ops = %v, want [delete_person quick_add]", h.ops)
	}
}

// Test implementations
type testEditorHooks struct {
	NoopEditorHooks
	ops []string
}

func (h *testEditorHooks) OnMutation(_ context.Context, _, op string, _ time.Duration, _ error) {
	h.ops = append(h.ops, op)
}

type testCacheHooks struct{ NoopCacheHooks }
