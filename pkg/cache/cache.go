// Package cache stores computed layouts so repeated relayouts of an
// unchanged tree skip the engine.
//
// Three backends implement [Cache]:
//   - [NullCache]: never stores anything (tests, --no-cache)
//   - [FileCache]: JSON files under the XDG cache directory (CLI)
//   - [RedisCache]: shared cache for the HTTP server
//
// Keys come from a [Keyer]. Layout keys hash the full layout input together
// with the engine name and geometry, so any change to people, relationships
// or options produces a new key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// DefaultLayoutTTL bounds how long a computed layout is reused.
const DefaultLayoutTTL = 24 * time.Hour

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey returns the key for a layout of the given input.
	LayoutKey(engine string, input any, opts any) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the engine, input and options.
func (DefaultKeyer) LayoutKey(engine string, input any, opts any) string {
	return hashKey("layout:"+engine, input, opts)
}

// hashKey returns prefix + ":" + the SHA-256 of the JSON encoding of parts.
// Map keys are sorted by encoding/json, so equal inputs give equal keys.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(parts)
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of data (64 characters).
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
