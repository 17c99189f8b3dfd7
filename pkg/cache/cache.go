// Package cache provides caching for captured snapshots and rendered
// documents. Backends share one interface: a file cache for CLI usage, a
// Redis cache for server deployments, and a null cache for tests and
// opt-out.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// SnapshotKeyOpts carries the inputs that invalidate a cached capture.
// File sources change on disk, so the key includes size and modification
// time.
type SnapshotKeyOpts struct {
	Size    int64
	ModTime int64 // unix nanoseconds
}

// RenderKeyOpts carries the serializer settings that shape the rendered
// document.
type RenderKeyOpts struct {
	ExpandDepth int
}

// Keyer generates cache keys for the two cacheable artifacts: captured
// snapshots (keyed by source) and rendered documents (keyed by snapshot).
type Keyer interface {
	// SnapshotKey generates a key for a captured snapshot.
	SnapshotKey(provider, path string, opts SnapshotKeyOpts) string

	// RenderKey generates a key for a rendered document.
	RenderKey(snapshotID string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SnapshotKey generates a key for a captured snapshot.
func (k *DefaultKeyer) SnapshotKey(provider, path string, opts SnapshotKeyOpts) string {
	return digestKey("snapshot", provider, path, opts.Size, opts.ModTime)
}

// RenderKey generates a key for a rendered document.
func (k *DefaultKeyer) RenderKey(snapshotID string, opts RenderKeyOpts) string {
	return digestKey("render", snapshotID, opts.ExpandDepth)
}

// digestKey builds a "prefix:<sha256 hex>" key from the components. Each
// component is written with a NUL terminator so ("a", "bc") and ("ab", "c")
// never collide.
func digestKey(prefix string, parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%v\x00", p)
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
