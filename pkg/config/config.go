// Package config loads kintree settings.
//
// Settings come from three layers, later ones winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, kintree.toml in the XDG config directory or an explicit path
//  3. Environment variables, optionally from a .env file in the working
//     directory
//
// Recognised environment variables:
//
//	KINTREE_STORE       store backend (memory, sqlite, postgres, mongo)
//	KINTREE_DSN         store DSN, file path or URI
//	KINTREE_DATABASE    mongo database name
//	KINTREE_REDIS_ADDR  redis address for sessions and cache
//	KINTREE_LAYOUT      layout engine (layered, graphviz)
//	KINTREE_ADDR        HTTP listen address
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/kintree/pkg/layout"
)

// AppName names the config, cache and state directories.
const AppName = "kintree"

// FileName is the config file looked up in the config directory.
const FileName = "kintree.toml"

// Config is the full kintree configuration.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Layout  LayoutConfig  `toml:"layout"`
	Session SessionConfig `toml:"session"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	Editor  EditorConfig  `toml:"editor"`

	// Path is the file the config was read from, empty for defaults only.
	Path string `toml:"-"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend  string `toml:"backend"`
	DSN      string `toml:"dsn"`
	Database string `toml:"database"`
	// Retry wraps the store in store.WithRetry.
	Retry bool `toml:"retry"`
}

// LayoutConfig selects the automatic layout engine and canvas geometry.
type LayoutConfig struct {
	Engine string `toml:"engine"`
	layout.Options
	Offset float64 `toml:"offset"`
}

// SessionConfig selects where editor sessions are kept.
type SessionConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// CacheConfig selects the layout cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// ServerConfig configures kintree serve.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// EditorConfig holds editing behaviour.
type EditorConfig struct {
	// SpousePolicy is "reject" or "replace".
	SpousePolicy string `toml:"spouse_policy"`
	Junctions    bool   `toml:"junctions"`
	// Tree is the tree opened when none is given.
	Tree string `toml:"tree"`
}

// Backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendNull     = "null"
)

// Engine names.
const (
	EngineLayered  = "layered"
	EngineGraphviz = "graphviz"
)

// Duration is a time.Duration that reads TOML strings such as "168h".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration: a SQLite tree in the XDG data
// directory, file sessions and a file layout cache.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:  BackendSQLite,
			DSN:      filepath.Join(dataDir(), "kintree.db"),
			Database: AppName,
		},
		Layout: LayoutConfig{
			Engine:  EngineLayered,
			Options: layout.DefaultOptions(),
			Offset:  250,
		},
		Session: SessionConfig{
			Backend: BackendFile,
			Dir:     filepath.Join(StateDir(), "sessions"),
			TTL:     Duration{7 * 24 * time.Hour},
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			Dir:     CacheDir(),
			TTL:     Duration{24 * time.Hour},
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Editor: EditorConfig{
			SpousePolicy: "reject",
			Junctions:    true,
			Tree:         "default",
		},
	}
}

// Load reads the configuration. An empty path looks for kintree.toml in the
// config directory and falls back to defaults when it does not exist; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(ConfigDir(), FileName)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			path = ""
		} else {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.Path = path

	cfg.applyEnv(os.Getenv)
	cfg.Layout.Options = cfg.Layout.Options.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes TOML text on top of the defaults. It does not read the
// environment.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Layout.Options = cfg.Layout.Options.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Store.Backend, "KINTREE_STORE")
	set(&c.Store.DSN, "KINTREE_DSN")
	set(&c.Store.Database, "KINTREE_DATABASE")
	set(&c.Layout.Engine, "KINTREE_LAYOUT")
	set(&c.Server.Addr, "KINTREE_ADDR")
	if addr := strings.TrimSpace(getenv("KINTREE_REDIS_ADDR")); addr != "" {
		c.Session.RedisAddr = addr
		c.Cache.RedisAddr = addr
	}
}

// Validate checks backend and engine names.
func (c *Config) Validate() error {
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"store.backend", c.Store.Backend, []string{BackendMemory, BackendSQLite, BackendPostgres, BackendMongo}},
		{"layout.engine", c.Layout.Engine, []string{EngineLayered, EngineGraphviz}},
		{"session.backend", c.Session.Backend, []string{BackendMemory, BackendFile, BackendRedis}},
		{"cache.backend", c.Cache.Backend, []string{BackendNull, BackendFile, BackendRedis}},
		{"editor.spouse_policy", c.Editor.SpousePolicy, []string{"reject", "replace"}},
	}
	for _, chk := range checks {
		if !slices.Contains(chk.allowed, chk.value) {
			return fmt.Errorf("invalid %s %q (want one of %s)", chk.field, chk.value, strings.Join(chk.allowed, ", "))
		}
	}
	if c.Store.Backend != BackendMemory && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for backend %s", c.Store.Backend)
	}
	if c.Session.Backend == BackendRedis && c.Session.RedisAddr == "" {
		return fmt.Errorf("session.redis_addr is required for the redis backend")
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	return nil
}

// Encode writes c as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// =============================================================================
// Paths
// =============================================================================

// ConfigDir returns the XDG config directory (~/.config/kintree/).
func ConfigDir() string { return xdgDir("XDG_CONFIG_HOME", ".config") }

// CacheDir returns the XDG cache directory (~/.cache/kintree/).
func CacheDir() string { return xdgDir("XDG_CACHE_HOME", ".cache") }

// StateDir returns the XDG state directory (~/.local/state/kintree/).
func StateDir() string { return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state")) }

func dataDir() string { return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")) }

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, fallback, AppName)
}
