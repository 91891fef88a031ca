package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/family"
)

type countingEngine struct {
	calls int
}

func (e *countingEngine) Name() string { return "counting" }

func (e *countingEngine) Layout(_ context.Context, in Input) (Positions, error) {
	e.calls++
	return Manual(in, DefaultOptions()), nil
}

func TestCachedReusesLayout(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingEngine{}
	c := NewCached(inner, fc, cache.TreeKeyer("t1"), DefaultOptions(), nil)

	in := Input{People: people("a", "b")}
	first, hit, err := c.LayoutWithCacheInfo(ctx, in)
	if err != nil || hit {
		t.Fatalf("first layout: hit=%v err=%v, want miss", hit, err)
	}
	second, hit, err := c.LayoutWithCacheInfo(ctx, in)
	if err != nil || !hit {
		t.Fatalf("second layout: hit=%v err=%v, want hit", hit, err)
	}
	if inner.calls != 1 {
		t.Errorf("engine calls = %d, want 1", inner.calls)
	}
	if second["b"] != first["b"] {
		t.Errorf("cached position = %v, want %v", second["b"], first["b"])
	}

	in.Relationships = []family.Relationship{family.NewSpouse("a", "b")}
	if _, hit, _ := c.LayoutWithCacheInfo(ctx, in); hit {
		t.Error("changed input should miss the cache")
	}

	if err := c.Invalidate(ctx, in); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, hit, _ := c.LayoutWithCacheInfo(ctx, in); hit {
		t.Error("invalidated input should miss the cache")
	}
	if inner.calls != 3 {
		t.Errorf("engine calls = %d, want 3", inner.calls)
	}
}

func TestCachedNilCache(t *testing.T) {
	inner := &countingEngine{}
	c := NewCached(inner, nil, nil, Options{}, nil)
	in := Input{People: people("a")}
	for range 2 {
		if _, err := c.Layout(context.Background(), in); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("engine calls = %d, want 2", inner.calls)
	}
	if c.Name() != "counting" {
		t.Errorf("Name() = %q, want counting", c.Name())
	}
}
