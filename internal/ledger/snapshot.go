package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/settings"
	"fintrack/internal/storage"
)

// Snapshot is a full backup of the ledger and, when available, the settings.
type Snapshot struct {
	Spending    []core.SpendingEntry  `json:"spending"`
	Savings     []core.SavingsAccount `json:"savings"`
	Investments []core.Investment     `json:"investments"`
	Settings    *settings.AppSettings `json:"settings,omitempty"`
}

// Backup returns a copy of the current state.
func (e *Engine) Backup() Snapshot {
	e.mu.Lock()
	snap := Snapshot{
		Spending:    slices.Clone(e.state.entries),
		Savings:     slices.Clone(e.state.accounts),
		Investments: slices.Clone(e.state.investments),
	}
	e.mu.Unlock()
	if e.settings != nil {
		a := e.settings.Get()
		snap.Settings = &a
	}
	return snap
}

// WriteTo encodes the snapshot as indented JSON.
func (s Snapshot) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

// ReadSnapshot decodes a snapshot written by WriteTo.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Validate checks every entity in s and that ids are unique per collection.
// Entry references to accounts are not checked: balances in a snapshot
// already carry every entry's effect and accounts may have been deleted.
func (s Snapshot) Validate() error {
	if err := validateAll(s.Spending, entryID, core.SpendingEntry.Validate); err != nil {
		return fmt.Errorf("spending: %w", err)
	}
	if err := validateAll(s.Savings, accountID, core.SavingsAccount.Validate); err != nil {
		return fmt.Errorf("savings: %w", err)
	}
	if err := validateAll(s.Investments, investmentID, core.Investment.Validate); err != nil {
		return fmt.Errorf("investments: %w", err)
	}
	if s.Settings != nil {
		if err := settings.Validate(*s.Settings); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	return nil
}

func validateAll[T any](items []T, idOf func(T) string, validate func(T) error) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		id := idOf(it)
		if id == "" {
			return ErrMissingID
		}
		if seen[id] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		seen[id] = true
		if err := validate(it); err != nil {
			return fmt.Errorf("%q: %w", id, err)
		}
	}
	return nil
}

// Restore replaces the whole state with s after validating it. All
// collections are written together; on failure nothing changes.
func (e *Engine) Restore(ctx context.Context, s Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	err := e.mutate(ctx, func(t *txn) error {
		t.next = state{
			entries:     nonNil(slices.Clone(s.Spending)),
			accounts:    nonNil(slices.Clone(s.Savings)),
			investments: nonNil(slices.Clone(s.Investments)),
		}
		for _, c := range []storage.Collection{storage.Spending, storage.Savings, storage.Investments} {
			t.touch(c, OpRestored, "")
		}
		if s.Settings != nil && e.settings != nil {
			a := *s.Settings
			t.settings = &a
			t.events = append(t.events, Event{Collection: storage.Settings, Op: OpRestored, At: t.now})
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "Ledger restored",
		log.FieldOperation, log.OpRestore,
		"entries", len(s.Spending),
		"accounts", len(s.Savings),
		"investments", len(s.Investments))
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
