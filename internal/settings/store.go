package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ErrPersistence wraps storage failures; the in-memory settings are left
// unchanged when it is returned.
var ErrPersistence = errors.New("settings persistence failed")

// Store keeps the current settings in memory and writes every change through
// to the backing key/value store.
type Store struct {
	mu      sync.RWMutex
	backend storage.Store
	key     string
	current AppSettings
	logger  *log.Logger
}

// Open loads settings from s under the settings key of keys. A missing or
// undecodable document yields the defaults; only read errors fail.
func Open(ctx context.Context, s storage.Store, keys storage.Keys) (*Store, error) {
	st := &Store{
		backend: s,
		key:     keys.For(storage.Settings),
		logger:  log.FromContext(ctx).WithComponent(log.ComponentSettings),
	}
	data, ok, err := s.Get(ctx, st.key)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	st.current = Decode(data, ok, st.logger)
	return st, nil
}

// Decode parses a stored settings document and normalizes it. Missing or
// corrupt documents decode to the defaults.
func Decode(data []byte, ok bool, logger *log.Logger) AppSettings {
	if !ok || len(data) == 0 {
		return Defaults()
	}
	var a AppSettings
	if err := json.Unmarshal(data, &a); err != nil {
		if logger != nil {
			logger.Warn("Stored settings unreadable, using defaults", log.FieldError, err)
		}
		return Defaults()
	}
	return Normalize(a)
}

// Prepare validates and normalizes a and returns it with its encoded form.
func Prepare(a AppSettings) (AppSettings, []byte, error) {
	if err := Validate(a); err != nil {
		return AppSettings{}, nil, err
	}
	n := Normalize(a)
	data, err := json.Marshal(n)
	if err != nil {
		return AppSettings{}, nil, fmt.Errorf("encode settings: %w", err)
	}
	return n, data, nil
}

// Key returns the storage key the settings live under.
func (s *Store) Key() string { return s.key }

// Get returns a copy of the current settings.
func (s *Store) Get() AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Adopt replaces the in-memory settings with a document the caller has
// already persisted under Key.
func (s *Store) Adopt(a AppSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Normalize(a).Clone()
}

func (s *Store) HasCategory(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.HasCategory(name)
}

func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.current.Categories)
}

// Currency returns the configured currency code.
func (s *Store) Currency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Currency
}

// Update merges p into the current settings and persists the result.
func (s *Store) Update(ctx context.Context, p Patch) (AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := p.Apply(s.current)
	if err != nil {
		return s.current.Clone(), err
	}
	if err := s.save(ctx, next); err != nil {
		return s.current.Clone(), err
	}
	return next.Clone(), nil
}

// Reset restores and persists the defaults.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, Defaults())
}

// AddCategory appends name with color, or DefaultColor when color is empty.
func (s *Store) AddCategory(ctx context.Context, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyCategory
	}
	return s.mutate(ctx, func(a *AppSettings) error {
		if a.HasCategory(name) {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		if color == "" {
			color = DefaultColor
		}
		a.Categories = append(a.Categories, name)
		a.CategoryColors[name] = color
		return nil
	})
}

// RemoveCategory drops name and its color. The last category cannot be
// removed.
func (s *Store) RemoveCategory(ctx context.Context, name string) error {
	return s.mutate(ctx, func(a *AppSettings) error {
		i := slices.Index(a.Categories, strings.TrimSpace(name))
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		a.Categories = slices.Delete(a.Categories, i, i+1)
		delete(a.CategoryColors, name)
		return nil
	})
}

// RenameCategory renames from to to in place, keeping its color and
// position. Existing entries keep the old name.
func (s *Store) RenameCategory(ctx context.Context, from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return core.ErrEmptyCategory
	}
	return s.mutate(ctx, func(a *AppSettings) error {
		i := slices.Index(a.Categories, strings.TrimSpace(from))
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, from)
		}
		if to != a.Categories[i] && a.HasCategory(to) {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, to)
		}
		color := a.ColorOf(a.Categories[i])
		delete(a.CategoryColors, a.Categories[i])
		a.Categories[i] = to
		a.CategoryColors[to] = color
		return nil
	})
}

// SetCategoryColor changes the color of an existing category.
func (s *Store) SetCategoryColor(ctx context.Context, name, color string) error {
	_, err := s.Update(ctx, Patch{CategoryColors: map[string]string{name: color}})
	return err
}

func (s *Store) mutate(ctx context.Context, fn func(*AppSettings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	return s.save(ctx, next)
}

// save must be called with mu held.
func (s *Store) save(ctx context.Context, next AppSettings) error {
	n, data, err := Prepare(next)
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist settings", log.FieldKey, s.key, log.FieldError, err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.current = n
	s.logger.DebugContext(ctx, "Settings saved", log.FieldKey, s.key)
	return nil
}
