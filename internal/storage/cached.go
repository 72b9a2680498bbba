package storage

import (
	"context"
	"log/slog"

	"fintrack/internal/cache"
)

// Cached is a read-through decorator keeping recently read documents in an
// LRU. Writes go to the inner store first and refresh the cache only when
// they succeed.
type Cached struct {
	inner Store
	cache cache.Cache[[]byte]
}

// NewCached wraps inner with c.
func NewCached(inner Store, c cache.Cache[[]byte]) *Cached {
	return &Cached{inner: inner, cache: c}
}

// Inner returns the wrapped store.
func (c *Cached) Inner() Store { return c.inner }

func (c *Cached) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := c.cache.Get(key); ok {
		return clone(v), true, nil
	}
	v, ok, err := c.inner.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	c.cache.Set(key, clone(v))
	return v, true, nil
}

func (c *Cached) Set(ctx context.Context, key string, value []byte) error {
	if err := c.inner.Set(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, clone(value))
	return nil
}

// SetMany is as atomic as the inner store allows; see SetAll.
func (c *Cached) SetMany(ctx context.Context, values map[string][]byte) error {
	if err := SetAll(ctx, c.inner, values); err != nil {
		for key := range values {
			c.cache.Delete(key)
		}
		return err
	}
	for key, value := range values {
		c.cache.Set(key, clone(value))
	}
	return nil
}

func (c *Cached) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	if d, ok := c.inner.(Deleter); ok {
		return d.Delete(ctx, key)
	}
	return nil
}

// Invalidate drops key from the cache so the next Get reads the inner store.
// Used when another process is known to have changed it.
func (c *Cached) Invalidate(keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
	slog.Debug("Cache invalidated", "component", "storage", "keys", keys)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
