// Package worker mirrors ledger collections into a spreadsheet. Ledger events
// received over AMQP mark collections dirty; dirty collections are re-read
// from storage and rewritten on the next flush.
package worker

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/export"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/settings"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// Invalidator drops cached documents so the next read reaches storage.
type Invalidator interface {
	Invalidate(keys ...string)
}

// exported lists the collections that have a worksheet, in write order.
var exported = []storage.Collection{storage.Spending, storage.Savings, storage.Investments}

// SyncWorker handles synchronization of ledger collections to a spreadsheet
type SyncWorker struct {
	store  storage.Store
	keys   storage.Keys
	cache  Invalidator
	writer sheets.TableWriter
	logger *log.Logger

	mu      sync.Mutex
	pending map[storage.Collection]bool
}

// NewSyncWorker creates a worker reading from store. cache may be nil.
func NewSyncWorker(store storage.Store, keys storage.Keys, cache Invalidator, writer sheets.TableWriter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		store:   store,
		keys:    keys,
		cache:   cache,
		writer:  writer,
		logger:  logger.WithComponent(log.ComponentWorker),
		pending: make(map[storage.Collection]bool),
	}
}

// HandleLedgerEvent marks the collection named by msg for the next flush.
// Account and settings changes also dirty the spending sheet, which shows
// account names and formats amounts in the configured currency.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.DebugContext(ctx, "Processing ledger event",
		log.FieldCollection, string(msg.Collection),
		log.FieldOperation, string(msg.Op),
		log.FieldEntryID, msg.ID)

	switch msg.Collection {
	case storage.Spending, storage.Investments:
		w.Mark(msg.Collection)
	case storage.Savings, storage.Settings:
		w.Mark(storage.Spending, storage.Savings)
	default:
		// Requeueing an unknown collection would loop forever.
		w.logger.WarnContext(ctx, "Ignoring event for unknown collection", log.FieldCollection, string(msg.Collection))
	}
	return nil
}

// Mark flags collections for the next flush.
func (w *SyncWorker) Mark(cs ...storage.Collection) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range cs {
		if slices.Contains(exported, c) {
			w.pending[c] = true
		}
	}
}

// Pending returns the flagged collections in write order.
func (w *SyncWorker) Pending() []storage.Collection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingLocked()
}

func (w *SyncWorker) pendingLocked() []storage.Collection {
	var out []storage.Collection
	for _, c := range exported {
		if w.pending[c] {
			out = append(out, c)
		}
	}
	return out
}

func (w *SyncWorker) take() []storage.Collection {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.pendingLocked()
	clear(w.pending)
	return out
}

// Flush rewrites every flagged worksheet from the current stored state.
// Collections whose write fails stay flagged.
func (w *SyncWorker) Flush(ctx context.Context) error {
	pending := w.take()
	if len(pending) == 0 {
		return nil
	}

	tables, err := w.tables(ctx, pending)
	if err != nil {
		w.Mark(pending...)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range pending {
		table := tables[i]
		g.Go(func() error {
			ref, err := w.writer.WriteTable(gctx, table)
			if err != nil {
				w.Mark(c)
				return fmt.Errorf("write %s: %w", table.Name, err)
			}
			w.logger.InfoContext(gctx, "Synced collection",
				log.FieldCollection, string(c),
				log.FieldCount, len(table.Rows),
				log.FieldSheetsRef, ref)
			return nil
		})
	}
	return g.Wait()
}

// tables reloads the ledger and renders the requested collections.
func (w *SyncWorker) tables(ctx context.Context, cs []storage.Collection) ([]export.Table, error) {
	if w.cache != nil {
		keys := make([]string, 0, len(storage.Collections()))
		for _, c := range storage.Collections() {
			keys = append(keys, w.keys.For(c))
		}
		w.cache.Invalidate(keys...)
	}

	set, err := settings.Open(ctx, w.store, w.keys)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	engine, err := ledger.Open(ctx, w.store, ledger.WithKeys(w.keys), ledger.WithSettings(set), ledger.WithLogger(w.logger))
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	out := make([]export.Table, 0, len(cs))
	for _, c := range cs {
		switch c {
		case storage.Spending:
			out = append(out, export.Spending(engine.Entries(), engine.AccountName, set.Currency()))
		case storage.Savings:
			out = append(out, export.Savings(engine.Accounts()))
		case storage.Investments:
			out = append(out, export.Investments(engine.Investments()))
		}
	}
	return out, nil
}

// Run flags every collection, flushes once, then flushes on each tick until
// ctx is done. Flush errors are logged and retried on the next tick.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	w.Mark(exported...)
	w.flushAndLog(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "Sync worker started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Sync worker stopping", "pending", len(w.Pending()))
			return ctx.Err()
		case <-ticker.C:
			w.flushAndLog(ctx)
		}
	}
}

func (w *SyncWorker) flushAndLog(ctx context.Context) {
	if err := w.Flush(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Sync failed", log.FieldError, err, log.FieldOperation, log.OpSync)
	}
}
