package cache

// ScopedKeyer wraps a Keyer with a prefix so trees never share entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "tree:"+treeID+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TreeKeyer scopes keys to a single tree.
func TreeKeyer(treeID string) Keyer {
	return NewScopedKeyer(nil, "tree:"+treeID+":")
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(engine string, input any, opts any) string {
	return k.prefix + k.inner.LayoutKey(engine, input, opts)
}
