package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fintrack/internal/storage"
)

// Ensure interface conformance
var (
	_ storage.Store   = (*Store)(nil)
	_ storage.Batcher = (*Store)(nil)
	_ storage.Deleter = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	items map[string][]byte
}

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewFromDir seeds the store with every *.json file in base, keyed by file
// name without extension. A missing directory yields an empty store.
func NewFromDir(base string) *Store {
	s := New()
	matches, _ := filepath.Glob(filepath.Join(base, "*.json"))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(path), ".json")
		s.items[key] = data
	}
	return s
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// SetMany stores every value under one lock.
func (s *Store) SetMany(_ context.Context, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.items[k] = append([]byte(nil), v...)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Keys returns the stored keys; order is unspecified.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}
