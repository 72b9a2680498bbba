package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

type countingStore struct {
	*memory.Store
	gets    int
	failSet bool
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.gets++
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet {
		return errors.New("disk full")
	}
	return s.Store.Set(ctx, key, value)
}

func TestCachedReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memory.New()}
	if err := inner.Store.Set(ctx, "k", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	c := storage.NewCached(inner, cache.NewLRUCache[[]byte](8, time.Minute))

	for i := 0; i < 3; i++ {
		v, ok, err := c.Get(ctx, "k")
		if err != nil || !ok || string(v) != `[]` {
			t.Fatalf("get: %q %v %v", v, ok, err)
		}
	}
	if inner.gets != 1 {
		t.Fatalf("expected one inner read, got %d", inner.gets)
	}

	if err := inner.Store.Set(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatal(err)
	}
	c.Invalidate("k")
	if v, _, _ := c.Get(ctx, "k"); string(v) != `[1]` {
		t.Fatalf("expected fresh value after invalidate, got %q", v)
	}
}

func TestCachedFailedSetDropsEntry(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memory.New()}
	c := storage.NewCached(inner, cache.NewLRUCache[[]byte](8, time.Minute))

	if err := c.Set(ctx, "k", []byte(`1`)); err != nil {
		t.Fatal(err)
	}
	inner.failSet = true
	if err := c.Set(ctx, "k", []byte(`2`)); err == nil {
		t.Fatalf("expected error")
	}
	v, _, _ := c.Get(ctx, "k")
	if string(v) != `1` {
		t.Fatalf("cache must not hold the failed value, got %q", v)
	}
}

func TestCachedSetMany(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	c := storage.NewCached(inner, cache.NewLRUCache[[]byte](8, time.Minute))

	err := c.SetMany(ctx, map[string][]byte{"a": []byte(`1`), "b": []byte(`2`)})
	if err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := inner.Get(ctx, "b"); !ok || string(v) != `2` {
		t.Fatalf("expected inner to hold b, got %q", v)
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("expected a deleted")
	}
}
