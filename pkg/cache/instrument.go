package cache

import (
	"context"
	"strings"
	"time"

	"github.com/schemasnap/schemasnap/pkg/observability"
)

// Instrumented wraps a backend so hits, misses, and writes are reported to
// the registered observability hooks. The key type reported is the key's
// prefix ("snapshot", "render").
func Instrumented(inner Cache) Cache {
	return &instrumented{inner: inner}
}

type instrumented struct {
	inner Cache
}

func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func (c *instrumented) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

func (c *instrumented) Close() error {
	return c.inner.Close()
}

var _ Cache = (*instrumented)(nil)
