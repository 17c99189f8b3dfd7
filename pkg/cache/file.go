package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileCache keeps capture documents on disk so repeated CLI runs against an
// unchanged source skip introspection. Entries are JSON files under a
// two-character shard directory derived from the key digest, each carrying
// its own expiry.
type FileCache struct {
	dir string
}

// NewFileCache opens (and if needed creates) a file cache rooted at dir.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk shape of one cached document.
type fileEntry struct {
	Body   []byte    `json:"body"`
	Expiry time.Time `json:"expiry,omitempty"`
}

// Get returns the cached document for key. Entries that are missing,
// expired, or unreadable as JSON all count as misses; broken files are
// removed on the way out.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.entryPath(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.Expiry.IsZero() && time.Now().After(entry.Expiry) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Body, true, nil
}

// Set stores data under key. The write goes through a temp file in the
// same shard directory and a rename, so readers never see a torn entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Body: data}
	if ttl > 0 {
		entry.Expiry = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Delete removes the entry for key. Missing entries are fine.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.entryPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close is a no-op; file handles are never held open.
func (c *FileCache) Close() error {
	return nil
}

// entryPath maps a key to dir/<xx>/<rest>.json, sharding on the first
// byte of the key digest to keep directories small.
func (c *FileCache) entryPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, digest[:2], digest[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
