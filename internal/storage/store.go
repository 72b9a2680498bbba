// Package storage defines the key/value persistence port used by the ledger
// and settings store, plus the key layout shared by every backend.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// DefaultPrefix namespaces every key written by the application.
const DefaultPrefix = "finance-tracker-"

// Collection discriminates the independently persisted documents.
type Collection string

const (
	Spending    Collection = "spending"
	Savings     Collection = "savings"
	Investments Collection = "investments"
	Settings    Collection = "settings"
)

// Collections lists every persisted collection in a stable order.
func Collections() []Collection {
	return []Collection{Spending, Savings, Investments, Settings}
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")

// Ports for key/value backends.
type (
	// Store reads and writes opaque JSON documents by key.
	Store interface {
		// Get returns the stored value and whether the key exists.
		Get(ctx context.Context, key string) ([]byte, bool, error)
		Set(ctx context.Context, key string, value []byte) error
	}

	// Batcher is implemented by backends able to write several keys
	// atomically: either every value is stored or none is.
	Batcher interface {
		SetMany(ctx context.Context, values map[string][]byte) error
	}

	// Deleter removes a key. Deleting a missing key is not an error.
	Deleter interface {
		Delete(ctx context.Context, key string) error
	}
)

// Keys maps collections to namespaced storage keys.
type Keys struct {
	Prefix string
}

// NewKeys returns a key layout using prefix, or DefaultPrefix when empty.
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Keys{Prefix: prefix}
}

// For returns the storage key of c.
func (k Keys) For(c Collection) string {
	return k.Prefix + string(c)
}

// SetAll writes values through Batcher when the store supports it. Otherwise
// it writes keys one by one and, when a write fails, restores the keys
// already written to their previous contents before returning the error.
func SetAll(ctx context.Context, s Store, values map[string][]byte) error {
	if b, ok := s.(Batcher); ok {
		return b.SetMany(ctx, values)
	}

	written := make(map[string]previousValue, len(values))
	for key, value := range values {
		old, exists, err := s.Get(ctx, key)
		if err != nil {
			rollback(ctx, s, written)
			return fmt.Errorf("read %s before write: %w", key, err)
		}
		if err := s.Set(ctx, key, value); err != nil {
			rollback(ctx, s, written)
			return fmt.Errorf("write %s: %w", key, err)
		}
		written[key] = previousValue{value: old, exists: exists}
	}
	return nil
}

type previousValue struct {
	value  []byte
	exists bool
}

// rollback is best effort: the original write error is what callers see.
func rollback(ctx context.Context, s Store, written map[string]previousValue) {
	for key, prev := range written {
		if !prev.exists {
			if d, ok := s.(Deleter); ok {
				_ = d.Delete(ctx, key)
				continue
			}
		}
		_ = s.Set(ctx, key, prev.value)
	}
}
