package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/observability"
)

// Cached wraps an Engine with a layout cache. Results are keyed on the
// engine name, the full input and the geometry, so any change to the tree
// misses the cache.
//
// Cache failures never fail a layout: read errors fall through to the engine
// and write errors are logged.
type Cached struct {
	Engine  Engine
	Cache   cache.Cache
	Keyer   cache.Keyer
	Options Options
	TTL     time.Duration
	Logger  *log.Logger
}

// NewCached wraps engine. A nil cache disables caching and a nil keyer uses
// the default unscoped keyer.
func NewCached(engine Engine, c cache.Cache, keyer cache.Keyer, opts Options, logger *log.Logger) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{
		Engine:  engine,
		Cache:   c,
		Keyer:   keyer,
		Options: opts.WithDefaults(),
		TTL:     cache.DefaultLayoutTTL,
		Logger:  logger,
	}
}

// Name implements Engine.
func (c *Cached) Name() string { return c.Engine.Name() }

// Layout implements Engine.
func (c *Cached) Layout(ctx context.Context, in Input) (Positions, error) {
	pos, _, err := c.LayoutWithCacheInfo(ctx, in)
	return pos, err
}

// LayoutWithCacheInfo runs the layout and reports whether it came from cache.
func (c *Cached) LayoutWithCacheInfo(ctx context.Context, in Input) (Positions, bool, error) {
	key := c.Keyer.LayoutKey(c.Engine.Name(), in, c.Options)
	hooks := observability.Cache()

	if data, hit, err := c.Cache.Get(ctx, key); err == nil && hit {
		var pos Positions
		if err := json.Unmarshal(data, &pos); err == nil {
			hooks.OnCacheHit(ctx, "layout")
			return pos, true, nil
		}
	} else if err != nil {
		c.Logger.Debug("layout cache read failed", "error", err)
	}
	hooks.OnCacheMiss(ctx, "layout")

	start := time.Now()
	pos, err := c.Engine.Layout(ctx, in)
	observability.Editor().OnLayout(ctx, c.Engine.Name(), len(in.People), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(pos); err == nil {
		if err := c.Cache.Set(ctx, key, data, c.TTL); err != nil {
			c.Logger.Warn("layout cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return pos, false, nil
}

// Invalidate removes the cached layout for in.
func (c *Cached) Invalidate(ctx context.Context, in Input) error {
	return c.Cache.Delete(ctx, c.Keyer.LayoutKey(c.Engine.Name(), in, c.Options))
}

var _ Engine = (*Cached)(nil)
