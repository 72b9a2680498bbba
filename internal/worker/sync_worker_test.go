package worker

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/settings"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

type fakeWriter struct {
	mu     sync.Mutex
	tables map[string]export.Table
	fail   map[string]error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{tables: map[string]export.Table{}, fail: map[string]error{}}
}

func (f *fakeWriter) WriteTable(_ context.Context, t export.Table) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[t.Name]; err != nil {
		return "", err
	}
	f.tables[t.Name] = t
	return t.Name + "!A1", nil
}

func (f *fakeWriter) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for n := range f.tables {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: log.ParseLevel("error"), Component: log.ComponentWorker, Output: io.Discard})
}

func seed(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()
	keys := storage.NewKeys("")
	set, err := settings.Open(ctx, store, keys)
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	e, err := ledger.Open(ctx, store, ledger.WithKeys(keys), ledger.WithSettings(set), ledger.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	acc, err := e.AddSavingsAccount(ctx, core.SavingsAccount{BankName: "Chase", AccountName: "Checking", Balance: decimal.NewFromInt(500)})
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	_, err = e.AddSpendingEntry(ctx, core.SpendingEntry{
		Date:      core.NewDate(2025, 3, 1),
		Amount:    decimal.NewFromInt(20),
		Category:  "Food",
		Type:      core.Expense,
		AccountID: acc.ID,
	})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
}

func TestHandleLedgerEvent_MarksCollections(t *testing.T) {
	tests := []struct {
		collection storage.Collection
		want       []storage.Collection
	}{
		{storage.Spending, []storage.Collection{storage.Spending}},
		{storage.Investments, []storage.Collection{storage.Investments}},
		{storage.Savings, []storage.Collection{storage.Spending, storage.Savings}},
		{storage.Settings, []storage.Collection{storage.Spending, storage.Savings}},
		{"unknown", nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.collection), func(t *testing.T) {
			w := NewSyncWorker(memory.New(), storage.NewKeys(""), nil, newFakeWriter(), quietLogger())
			msg := &amqp.LedgerEventMessage{Collection: tt.collection, Op: ledger.OpUpdated}
			if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := w.Pending(); !slices.Equal(got, tt.want) {
				t.Fatalf("pending = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlush_WritesPendingTables(t *testing.T) {
	store := memory.New()
	seed(t, store)
	writer := newFakeWriter()
	w := NewSyncWorker(store, storage.NewKeys(""), nil, writer, quietLogger())

	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("flush with nothing pending: %v", err)
	}
	if len(writer.written()) != 0 {
		t.Fatal("nothing should be written when no collection is pending")
	}

	w.Mark(storage.Spending, storage.Savings)
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := writer.written(); !slices.Equal(got, []string{"Savings", "Spending"}) {
		t.Fatalf("written = %v", got)
	}

	spending := writer.tables["Spending"]
	if len(spending.Rows) != 1 {
		t.Fatalf("expected one spending row, got %d", len(spending.Rows))
	}
	if got := spending.Rows[0][5].Text; got != "Chase - Checking" {
		t.Fatalf("account column = %q", got)
	}
	if got := writer.tables["Savings"].Rows[0][2].Text; got != "480.00" {
		t.Fatalf("balance = %q", got)
	}
	if len(w.Pending()) != 0 {
		t.Fatal("pending should be cleared after a successful flush")
	}
}

func TestFlush_FailedWriteStaysPending(t *testing.T) {
	store := memory.New()
	seed(t, store)
	writer := newFakeWriter()
	writer.fail["Investments"] = errors.New("quota exceeded")
	w := NewSyncWorker(store, storage.NewKeys(""), nil, writer, quietLogger())

	w.Mark(storage.Savings, storage.Investments)
	if err := w.Flush(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := w.Pending(); !slices.Equal(got, []storage.Collection{storage.Investments}) {
		t.Fatalf("pending = %v", got)
	}

	delete(writer.fail, "Investments")
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(w.Pending()) != 0 {
		t.Fatal("retry should clear pending")
	}
}

func TestFlush_CorruptLedgerKeepsPending(t *testing.T) {
	store := memory.New()
	keys := storage.NewKeys("")
	if err := store.Set(context.Background(), keys.For(storage.Spending), []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	w := NewSyncWorker(store, keys, nil, newFakeWriter(), quietLogger())
	w.Mark(storage.Spending)
	if err := w.Flush(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
	if got := w.Pending(); !slices.Equal(got, []storage.Collection{storage.Spending}) {
		t.Fatalf("pending = %v", got)
	}
}

func TestFlush_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	cached := storage.NewCached(inner, cache.NewLRUCache[[]byte](8, time.Minute))
	keys := storage.NewKeys("")

	// Prime the cache with an empty savings document, then change storage
	// behind its back as another process would.
	if err := cached.Set(ctx, keys.For(storage.Savings), []byte("[]")); err != nil {
		t.Fatal(err)
	}
	seed(t, inner)

	writer := newFakeWriter()
	w := NewSyncWorker(cached, keys, cached, writer, quietLogger())
	w.Mark(storage.Savings)
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if rows := len(writer.tables["Savings"].Rows); rows != 1 {
		t.Fatalf("expected fresh savings data, got %d rows", rows)
	}
}

func TestRun_InitialFlushAndStop(t *testing.T) {
	store := memory.New()
	seed(t, store)
	writer := newFakeWriter()
	w := NewSyncWorker(store, storage.NewKeys(""), nil, writer, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Hour) }()

	deadline := time.After(2 * time.Second)
	for len(writer.written()) < 3 {
		select {
		case <-deadline:
			t.Fatalf("initial flush incomplete: %v", writer.written())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
