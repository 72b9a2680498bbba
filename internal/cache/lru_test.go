package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatalf("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v ok=%v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
	st := c.Stats()
	if st.Evictions != 1 || st.Hits != 2 || st.Misses != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(2 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to be absent")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCacheDeleteAndOverwrite(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("expected overwrite, got %d", v)
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected deleted")
	}
}

func TestManagerCleanNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	now = now.Add(time.Minute)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 cleaned, got %d", n)
	}

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
