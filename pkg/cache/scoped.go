package cache

// ScopedKeyer wraps a Keyer with a prefix so independent contexts get
// separate cache namespaces. The server uses this to keep per-deployment
// keys apart when several instances share one Redis.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// SnapshotKey generates a prefixed key for a captured snapshot.
func (k *ScopedKeyer) SnapshotKey(provider, path string, opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(provider, path, opts)
}

// RenderKey generates a prefixed key for a rendered document.
func (k *ScopedKeyer) RenderKey(snapshotID string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(snapshotID, opts)
}

// Ensure ScopedKeyer implements Keyer.
var _ Keyer = (*ScopedKeyer)(nil)
