package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/session"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/memory"
	"github.com/matzehuels/kintree/pkg/store/mongo"
	"github.com/matzehuels/kintree/pkg/store/postgres"
	"github.com/matzehuels/kintree/pkg/store/sqlite"
)

// =============================================================================
// Backend Factories
// =============================================================================

// openStore connects to the configured store backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		s = memory.New()
	case config.BackendSQLite:
		if cfg.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		s, err = sqlite.Open(ctx, cfg.DSN)
	case config.BackendPostgres:
		s, err = postgres.Open(ctx, cfg.DSN)
	case config.BackendMongo:
		s, err = mongo.Open(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	if cfg.Retry {
		s = store.WithRetry(s, cache.DefaultBackoff)
	}
	return s, nil
}

// openCache creates the configured layout cache. Failures fall back to no
// cache; a missing cache only costs layout time.
func (c *CLI) openCache(ctx context.Context, noCache bool) cache.Cache {
	cfg := c.config().Cache
	if noCache {
		return cache.NewNullCache()
	}
	switch cfg.Backend {
	case config.BackendFile:
		fc, err := cache.NewFileCache(cfg.Dir)
		if err == nil {
			return fc
		}
		c.Logger.Warn("layout cache disabled", "error", err)
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr})
		if err == nil {
			return rc
		}
		c.Logger.Warn("layout cache disabled", "error", err)
	}
	return cache.NewNullCache()
}

// openSessions creates the configured session store.
func (c *CLI) openSessions(ctx context.Context) (session.Store, error) {
	cfg := c.config().Session
	switch cfg.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendFile:
		fs, err := session.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		if n, err := fs.Prune(ctx); err != nil {
			c.Logger.Debug("prune sessions", "dir", fs.Dir(), "error", err)
		} else if n > 0 {
			c.Logger.Debug("pruned expired sessions", "count", n)
		}
		return fs, nil
	case config.BackendRedis:
		return session.NewRedisStore(ctx, session.RedisConfig{Addr: cfg.RedisAddr})
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

// newEngine builds the configured layout engine.
func newEngine(cfg config.LayoutConfig) layout.Engine {
	if cfg.Engine == config.EngineGraphviz {
		return layout.NewGraphviz(cfg.Options)
	}
	return layout.NewLayered(cfg.Options)
}

// =============================================================================
// Editor Workspace
// =============================================================================

// workspace bundles an opened store, sessions and cache for one command.
type workspace struct {
	cli      *CLI
	store    store.Store
	sessions session.Store
	cache    cache.Cache
}

// openWorkspace opens every backend a command needs. Call close when done.
func (c *CLI) openWorkspace(ctx context.Context) (*workspace, error) {
	cfg := c.config()
	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	sessions, err := c.openSessions(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open sessions: %w", err)
	}
	return &workspace{cli: c, store: s, sessions: sessions, cache: c.openCache(ctx, false)}, nil
}

func (w *workspace) close() {
	for _, closer := range []interface{ Close() error }{w.store, w.sessions, w.cache} {
		if err := closer.Close(); err != nil {
			w.cli.Logger.Debug("close", "error", err)
		}
	}
}

// newEditor builds an unloaded editor for treeID. A nil confirmer lets
// every confirmation through, for clients that confirm on their side.
func (w *workspace) newEditor(treeID string, confirm editor.Confirmer) *editor.Editor {
	cfg := w.cli.config()
	engine := layout.NewCached(newEngine(cfg.Layout), w.cache, cache.TreeKeyer(treeID), cfg.Layout.Options, w.cli.Logger)
	engine.TTL = cfg.Cache.TTL.Duration
	return editor.New(w.store, treeID, editor.Options{
		Engine:       engine,
		Layout:       cfg.Layout.Options,
		Offset:       cfg.Layout.Offset,
		SpousePolicy: editor.SpousePolicy(cfg.Editor.SpousePolicy),
		Confirmer:    confirm,
		Junctions:    cfg.Editor.Junctions,
		Logger:       w.cli.Logger,
	})
}

// openEditor loads the current tree and restores its session.
func (w *workspace) openEditor(ctx context.Context) (*editor.Editor, error) {
	return w.openEditorWith(ctx, w.cli.confirmer())
}

func (w *workspace) openEditorWith(ctx context.Context, confirm editor.Confirmer) (*editor.Editor, error) {
	e := w.newEditor(w.cli.tree(), confirm)
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	if err := e.RestoreSession(ctx, w.sessions); err != nil {
		w.cli.Logger.Debug("no session restored", "error", err)
	}
	return e, nil
}

// saveSession persists mode and selection after a command.
func (w *workspace) saveSession(ctx context.Context, e *editor.Editor) {
	if err := e.SaveSession(ctx, w.sessions, w.cli.config().Session.TTL.Duration); err != nil {
		w.cli.Logger.Warn("could not save session", "error", err)
	}
}

// =============================================================================
// Confirmation
// =============================================================================

// confirmer asks on the terminal, or always agrees with --yes.
func (c *CLI) confirmer() editor.Confirmer {
	if c.yes {
		return alwaysYes
	}
	return editor.ConfirmFunc(surveyConfirm)
}

var alwaysYes = editor.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

func surveyConfirm(_ context.Context, prompt string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: prompt, Default: false}, &ok)
	if err == terminal.InterruptErr {
		return false, errors.New(errors.ErrCodeCancelled, "interrupted")
	}
	return ok, err
}
