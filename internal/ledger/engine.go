// Package ledger owns spending entries, savings accounts and investments and
// keeps account balances consistent with the entries that move money.
//
// Every exported mutation is atomic. It is computed on a copy of the state,
// persisted with a single storage.SetAll and only then made visible.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/settings"
	"fintrack/internal/storage"
)

// Categories reports which expense categories are configured.
type Categories interface {
	HasCategory(name string) bool
}

type Engine struct {
	mu sync.Mutex

	store      storage.Store
	keys       storage.Keys
	settings   *settings.Store
	categories Categories
	notifier   Notifier
	now        func() time.Time
	newID      func() string
	logger     *log.Logger
	structured *log.StructuredLogger

	state state
}

type state struct {
	entries     []core.SpendingEntry
	accounts    []core.SavingsAccount
	investments []core.Investment
}

func (s state) clone() state {
	return state{
		entries:     slices.Clone(s.entries),
		accounts:    slices.Clone(s.accounts),
		investments: slices.Clone(s.investments),
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithKeys sets the storage key layout. The default uses storage.DefaultPrefix.
func WithKeys(k storage.Keys) Option {
	return func(e *Engine) { e.keys = k }
}

// WithSettings validates expense categories against s and includes the
// settings document in backups and restores.
func WithSettings(s *settings.Store) Option {
	return func(e *Engine) {
		e.settings = s
		e.categories = s
	}
}

// WithCategories validates expense categories against c without tying the
// engine to a settings store.
func WithCategories(c Categories) Option {
	return func(e *Engine) { e.categories = c }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Open builds an engine over store and loads the three ledger collections
// concurrently. Missing documents load as empty collections.
func Open(ctx context.Context, store storage.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store: store,
		keys:  storage.NewKeys(""),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.FromContext(ctx).WithComponent(log.ComponentLedger)
	}
	e.structured = log.NewStructuredLogger(e.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return load(gctx, store, e.keys.For(storage.Spending), &e.state.entries) })
	g.Go(func() error { return load(gctx, store, e.keys.For(storage.Savings), &e.state.accounts) })
	g.Go(func() error { return load(gctx, store, e.keys.For(storage.Investments), &e.state.investments) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Ledger loaded",
		"entries", len(e.state.entries),
		"accounts", len(e.state.accounts),
		"investments", len(e.state.investments))
	return e, nil
}

func load[T any](ctx context.Context, s storage.Store, key string, dst *[]T) error {
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	*dst = []T{}
	if !ok || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}

// txn is a mutation in progress. Changes to next become visible only when
// the engine commits it.
type txn struct {
	next     state
	now      time.Time
	dirty    map[storage.Collection]bool
	events   []Event
	changes  []balanceChange
	settings *settings.AppSettings
}

func (t *txn) touch(c storage.Collection, op Op, id string) {
	t.dirty[c] = true
	t.events = append(t.events, Event{Collection: c, Op: op, ID: id, At: t.now})
}

// mutate runs fn on a copy of the state under the engine lock, persists the
// collections fn touched and swaps the copy in. Events are published after
// the lock is released.
func (e *Engine) mutate(ctx context.Context, fn func(t *txn) error) error {
	e.mu.Lock()
	t := &txn{
		next:  e.state.clone(),
		now:   e.now().UTC(),
		dirty: make(map[storage.Collection]bool),
	}
	if err := fn(t); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.commit(ctx, t); err != nil {
		e.mu.Unlock()
		return err
	}
	events, changes := t.events, t.changes
	e.mu.Unlock()

	for _, c := range changes {
		e.structured.LogBalanceChanged(ctx, c.accountID, c.delta.String(), c.balance.String())
	}
	e.publish(ctx, events)
	return nil
}

// rebalance applies d to the pending account balances. Failures of entries
// that involve a transfer are reported as ErrTransferFailed.
func (e *Engine) rebalance(t *txn, d deltas, transfer bool) error {
	changes, err := applyDeltas(t.next.accounts, d, t.now)
	if err != nil {
		if transfer {
			return transferFailed(err)
		}
		return err
	}
	for _, c := range changes {
		t.touch(storage.Savings, OpUpdated, c.accountID)
	}
	t.changes = append(t.changes, changes...)
	return nil
}

func (e *Engine) commit(ctx context.Context, t *txn) error {
	if len(t.dirty) == 0 {
		return nil
	}
	values := make(map[string][]byte, len(t.dirty)+1)
	for c := range t.dirty {
		var doc any
		switch c {
		case storage.Spending:
			doc = t.next.entries
		case storage.Savings:
			doc = t.next.accounts
		case storage.Investments:
			doc = t.next.investments
		default:
			continue
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c, err)
		}
		values[e.keys.For(c)] = data
	}

	var settingsDoc settings.AppSettings
	if t.settings != nil && e.settings != nil {
		n, data, err := settings.Prepare(*t.settings)
		if err != nil {
			return err
		}
		settingsDoc = n
		values[e.settings.Key()] = data
	}

	if err := storage.SetAll(ctx, e.store, values); err != nil {
		e.structured.LogError(ctx, "Failed to persist ledger", err, log.OpPersist,
			log.NewFields().WithErrorType(log.ErrorTypeStorage))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	e.state = t.next
	if t.settings != nil && e.settings != nil {
		e.settings.Adopt(settingsDoc)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, events []Event) {
	if e.notifier == nil {
		return
	}
	for _, ev := range events {
		if err := e.notifier.Notify(ctx, ev); err != nil {
			e.logger.WarnContext(ctx, "Failed to publish ledger event",
				log.FieldCollection, string(ev.Collection),
				log.FieldOperation, string(ev.Op),
				log.FieldError, err)
		}
	}
}

func (e *Engine) checkCategory(category string) error {
	if e.categories == nil || e.categories.HasCategory(category) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
}

func indexByID[T any](items []T, id string, idOf func(T) string) int {
	return slices.IndexFunc(items, func(it T) bool { return idOf(it) == id })
}

func entryID(e core.SpendingEntry) string { return e.ID }

func accountID(a core.SavingsAccount) string { return a.ID }

func investmentID(i core.Investment) string { return i.ID }
