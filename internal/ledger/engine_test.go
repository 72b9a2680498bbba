package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/settings"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

type fixture struct {
	engine   *Engine
	store    *memory.Store
	settings *settings.Store
	events   *recorder
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = string(ev.Collection) + ":" + string(ev.Op)
	}
	return out
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func openEngine(t *testing.T, backend storage.Store, extra ...Option) *Engine {
	t.Helper()
	ctx := context.Background()
	st, err := settings.Open(ctx, backend, storage.NewKeys(""))
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	opts := append([]Option{
		WithSettings(st),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	}, extra...)
	e, err := Open(ctx, backend, opts...)
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	return e
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := memory.New()
	rec := &recorder{}
	e := openEngine(t, backend, WithNotifier(rec))
	return &fixture{engine: e, store: backend, settings: e.settings, events: rec}
}

func (f *fixture) account(t *testing.T, name, balance string) core.SavingsAccount {
	t.Helper()
	a, err := f.engine.AddSavingsAccount(context.Background(), core.SavingsAccount{
		BankName: "Bank", AccountName: name, Balance: d(balance),
	})
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	return a
}

func (f *fixture) balance(t *testing.T, id string) string {
	t.Helper()
	a, err := f.engine.Account(id)
	if err != nil {
		t.Fatalf("account %s: %v", id, err)
	}
	return a.Balance.StringFixed(2)
}

func expense(accountID, amount, category string) core.SpendingEntry {
	return core.SpendingEntry{
		Date:      core.NewDate(2025, 3, 10),
		Amount:    d(amount),
		Category:  category,
		Type:      core.Expense,
		AccountID: accountID,
	}
}

func transfer(from, to, amount string) core.SpendingEntry {
	return core.SpendingEntry{
		Date:                core.NewDate(2025, 3, 11),
		Amount:              d(amount),
		Type:                core.Transfer,
		AccountID:           from,
		TransferToAccountID: to,
	}
}

func TestAddExpenseDebitsAccount(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "Main", "100")

	entry, err := f.engine.AddSpendingEntry(context.Background(), expense(a.ID, "30.50", "Food"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID == "" || !entry.CreatedAt.Equal(testNow) || !entry.UpdatedAt.Equal(testNow) {
		t.Fatalf("expected id and timestamps, got %+v", entry)
	}
	if got := f.balance(t, a.ID); got != "69.50" {
		t.Fatalf("expected 69.50, got %s", got)
	}
}

func TestExpenseInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "Main", "100")

	_, err := f.engine.AddSpendingEntry(context.Background(), expense(a.ID, "150", "Food"))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if !strings.Contains(err.Error(), `"Bank - Main" has 100.00, short by 50.00`) {
		t.Fatalf("unexpected message: %v", err)
	}
	if errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expense failure must not be reported as a transfer failure")
	}
	if got := f.balance(t, a.ID); got != "100.00" {
		t.Fatalf("balance changed to %s", got)
	}
	if n := len(f.engine.Entries()); n != 0 {
		t.Fatalf("expected no entries, got %d", n)
	}
}

func TestAddEntryValidation(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "Main", "100")
	b := f.account(t, "Other", "0")

	tests := []struct {
		name  string
		entry core.SpendingEntry
		want  error
	}{
		{"zero amount", expense(a.ID, "0", "Food"), core.ErrInvalidAmount},
		{"unknown category", expense(a.ID, "1", "Yachts"), ErrUnknownCategory},
		{"missing account", expense("", "1", "Food"), core.ErrMissingAccount},
		{"same account", transfer(a.ID, a.ID, "1"), core.ErrSameAccount},
		{"missing destination", transfer(a.ID, "", "1"), core.ErrMissingTransferDest},
		{"no date", core.SpendingEntry{Amount: d("1"), Category: "Food", Type: core.Expense, AccountID: a.ID}, core.ErrMissingDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.AddSpendingEntry(context.Background(), tt.entry)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}

	_, err := f.engine.AddSpendingEntry(context.Background(), expense("nope", "1", "Food"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown account, got %v", err)
	}
	_, err = f.engine.AddSpendingEntry(context.Background(), transfer(a.ID, "nope", "1"))
	if !errors.Is(err, ErrTransferFailed) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrTransferFailed wrapping ErrNotFound, got %v", err)
	}
	if f.balance(t, a.ID) != "100.00" || f.balance(t, b.ID) != "0.00" {
		t.Fatalf("balances changed by failed adds")
	}
}

func TestTransferLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	b := f.account(t, "B", "0")

	entry, err := f.engine.AddSpendingEntry(ctx, transfer(a.ID, b.ID, "40"))
	if err != nil {
		t.Fatalf("add transfer: %v", err)
	}
	if entry.Category != TransferCategory {
		t.Fatalf("expected default transfer category, got %q", entry.Category)
	}
	if f.balance(t, a.ID) != "60.00" || f.balance(t, b.ID) != "40.00" {
		t.Fatalf("after add: %s/%s", f.balance(t, a.ID), f.balance(t, b.ID))
	}

	if _, err := f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{Amount: ptr(d("10"))}); err != nil {
		t.Fatalf("update transfer: %v", err)
	}
	if f.balance(t, a.ID) != "90.00" || f.balance(t, b.ID) != "10.00" {
		t.Fatalf("after update: %s/%s", f.balance(t, a.ID), f.balance(t, b.ID))
	}

	if err := f.engine.DeleteSpendingEntry(ctx, entry.ID); err != nil {
		t.Fatalf("delete transfer: %v", err)
	}
	if f.balance(t, a.ID) != "100.00" || f.balance(t, b.ID) != "0.00" {
		t.Fatalf("after delete: %s/%s", f.balance(t, a.ID), f.balance(t, b.ID))
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "A", "10")
	b := f.account(t, "B", "0")

	_, err := f.engine.AddSpendingEntry(context.Background(), transfer(a.ID, b.ID, "40"))
	if !errors.Is(err, ErrTransferFailed) || !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrTransferFailed wrapping ErrInsufficientBalance, got %v", err)
	}
	if len(f.engine.Entries()) != 0 {
		t.Fatalf("failed transfer must not be stored")
	}
	if f.balance(t, a.ID) != "10.00" || f.balance(t, b.ID) != "0.00" {
		t.Fatalf("balances changed")
	}
}

func TestUpdateAppliesNetDelta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	b := f.account(t, "B", "50")

	entry, err := f.engine.AddSpendingEntry(ctx, expense(a.ID, "80", "Food"))
	if err != nil {
		t.Fatal(err)
	}

	// 80 -> 100 needs only the extra 20 from A's remaining 20.
	if _, err := f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{Amount: ptr(d("100"))}); err != nil {
		t.Fatalf("growing within the released amount should succeed: %v", err)
	}
	if got := f.balance(t, a.ID); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}

	// Moving the expense to B refunds A and debits B.
	if _, err := f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{AccountID: ptr(b.ID), Amount: ptr(d("50"))}); err != nil {
		t.Fatalf("move to B: %v", err)
	}
	if f.balance(t, a.ID) != "100.00" || f.balance(t, b.ID) != "0.00" {
		t.Fatalf("after move: %s/%s", f.balance(t, a.ID), f.balance(t, b.ID))
	}

	_, err = f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{Amount: ptr(d("51"))})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if !strings.Contains(err.Error(), "has 0.00, short by 1.00") {
		t.Fatalf("expected the shortfall, not the net delta: %v", err)
	}
	got, _ := f.engine.Entry(entry.ID)
	if !got.Amount.Equal(d("50")) || f.balance(t, b.ID) != "0.00" {
		t.Fatalf("failed update changed state: amount %s balance %s", got.Amount, f.balance(t, b.ID))
	}
}

func TestUpdateExpenseToTransfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	b := f.account(t, "B", "0")

	entry, err := f.engine.AddSpendingEntry(ctx, expense(a.ID, "25", "Food"))
	if err != nil {
		t.Fatal(err)
	}
	updated, err := f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{
		Type:                ptr(core.Transfer),
		TransferToAccountID: ptr(b.ID),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Category != TransferCategory {
		t.Fatalf("expected transfer category, got %q", updated.Category)
	}
	if f.balance(t, a.ID) != "75.00" || f.balance(t, b.ID) != "25.00" {
		t.Fatalf("unexpected balances %s/%s", f.balance(t, a.ID), f.balance(t, b.ID))
	}

	_, err = f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{Type: ptr(core.Expense)})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expense needs a configured category, got %v", err)
	}
	reverted, err := f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{Type: ptr(core.Expense), Category: ptr("Bills")})
	if err != nil {
		t.Fatal(err)
	}
	if reverted.TransferToAccountID != "" {
		t.Fatalf("expense must not keep a transfer destination")
	}
	if f.balance(t, a.ID) != "75.00" || f.balance(t, b.ID) != "0.00" {
		t.Fatalf("unexpected balances %s/%s", f.balance(t, a.ID), f.balance(t, b.ID))
	}
}

func TestUpdateKeepsRemovedCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	entry, err := f.engine.AddSpendingEntry(ctx, expense(a.ID, "5", "Other"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.settings.RemoveCategory(ctx, "Other"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{Description: ptr("coffee")}); err != nil {
		t.Fatalf("unchanged category must not be revalidated: %v", err)
	}
	if _, err := f.engine.UpdateSpendingEntry(ctx, entry.ID, EntryUpdate{Category: ptr("Gone")}); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.engine.UpdateSpendingEntry(ctx, "missing", EntryUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update: %v", err)
	}
	if err := f.engine.DeleteSpendingEntry(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete: %v", err)
	}
	if err := f.engine.DeleteSavingsAccount(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete account: %v", err)
	}
	if err := f.engine.DeleteInvestment(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete investment: %v", err)
	}
}

func TestDeleteEntryOfDeletedAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	b := f.account(t, "B", "0")
	entry, err := f.engine.AddSpendingEntry(ctx, transfer(a.ID, b.ID, "30"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.engine.DeleteSavingsAccount(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.DeleteSpendingEntry(ctx, entry.ID); err != nil {
		t.Fatalf("delete should skip the missing account: %v", err)
	}
	if got := f.balance(t, b.ID); got != "0.00" {
		t.Fatalf("destination should be debited back, got %s", got)
	}
}

func TestDeleteTransferDestinationSpent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	b := f.account(t, "B", "0")
	tr, err := f.engine.AddSpendingEntry(ctx, transfer(a.ID, b.ID, "40"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.AddSpendingEntry(ctx, expense(b.ID, "30", "Food")); err != nil {
		t.Fatal(err)
	}

	err = f.engine.DeleteSpendingEntry(ctx, tr.ID)
	if !errors.Is(err, ErrTransferFailed) || !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if f.balance(t, a.ID) != "60.00" || f.balance(t, b.ID) != "10.00" {
		t.Fatalf("balances changed: %s/%s", f.balance(t, a.ID), f.balance(t, b.ID))
	}
	if _, err := f.engine.Entry(tr.ID); err != nil {
		t.Fatalf("entry must survive the failed delete: %v", err)
	}
}

func TestTransferBetweenAccounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	b := f.account(t, "B", "5")

	if err := f.engine.TransferBetweenAccounts(ctx, a.ID, b.ID, d("25")); err != nil {
		t.Fatal(err)
	}
	if f.balance(t, a.ID) != "75.00" || f.balance(t, b.ID) != "30.00" {
		t.Fatalf("unexpected balances")
	}
	if len(f.engine.Entries()) != 0 {
		t.Fatalf("direct transfers do not record entries")
	}

	tests := []struct {
		name     string
		from, to string
		amount   string
		want     error
	}{
		{"too much", a.ID, b.ID, "75.01", ErrInsufficientBalance},
		{"missing source", "nope", b.ID, "1", ErrNotFound},
		{"missing destination", a.ID, "nope", "1", ErrNotFound},
		{"same account", a.ID, a.ID, "1", core.ErrSameAccount},
		{"negative", a.ID, b.ID, "-1", core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.engine.TransferBetweenAccounts(ctx, tt.from, tt.to, d(tt.amount))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if f.balance(t, a.ID) != "75.00" || f.balance(t, b.ID) != "30.00" {
		t.Fatalf("failed transfers changed balances")
	}
}

func TestUpdateSavingsAccountOverwritesBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")

	updated, err := f.engine.UpdateSavingsAccount(ctx, a.ID, AccountUpdate{Balance: ptr(d("12.34")), AccountName: ptr(" Savings ")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.AccountName != "Savings" || updated.Balance.StringFixed(2) != "12.34" {
		t.Fatalf("unexpected %+v", updated)
	}
	if _, err := f.engine.UpdateSavingsAccount(ctx, a.ID, AccountUpdate{Balance: ptr(d("-1"))}); !errors.Is(err, core.ErrNegativeBalance) {
		t.Fatalf("expected ErrNegativeBalance, got %v", err)
	}
}

func TestAnalyticsExcludeTransfers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "1000")
	b := f.account(t, "B", "0")

	mustAdd := func(e core.SpendingEntry) {
		t.Helper()
		if _, err := f.engine.AddSpendingEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(expense(a.ID, "100", "Food"))
	mustAdd(expense(a.ID, "50", "Bills"))
	mustAdd(expense(a.ID, "25", "Food"))
	mustAdd(transfer(a.ID, b.ID, "300"))
	feb := expense(a.ID, "10", "Food")
	feb.Date = core.NewDate(2025, 2, 1)
	mustAdd(feb)

	if got := f.engine.MonthlySpending(2025, 3); !got.Equal(d("175")) {
		t.Fatalf("expected 175, got %s", got)
	}
	cats := f.engine.SpendingByCategory(2025, 3)
	if len(cats) != 2 || cats[0].Name != "Food" || !cats[0].Amount.Equal(d("125")) || cats[1].Name != "Bills" {
		t.Fatalf("unexpected categories %+v", cats)
	}
	for _, c := range cats {
		if c.Name == TransferCategory {
			t.Fatalf("transfers must not appear in category totals")
		}
	}

	totals := f.engine.MonthlyTotals(2025)
	if !totals[1].Equal(d("10")) || !totals[2].Equal(d("175")) || !totals[0].IsZero() {
		t.Fatalf("unexpected totals %v", totals)
	}

	o := f.engine.MonthOverview(2025, 3)
	if !o.Target.Equal(d("2000")) || !o.Total.Equal(d("175")) || o.OverTarget() {
		t.Fatalf("unexpected overview %+v", o)
	}
	if got := f.engine.TotalSavings(); !got.Equal(d("815")) {
		t.Fatalf("expected total savings 815, got %s", got)
	}
}

func TestInvestments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.engine.AddInvestment(ctx, core.Investment{Name: "Index fund", Amount: d("1000"), Date: core.NewDate(2025, 1, 5)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.AddInvestment(ctx, core.Investment{Name: "Bonds", Amount: d("250.50"), Date: core.NewDate(2025, 2, 5)}); err != nil {
		t.Fatal(err)
	}
	if got := f.engine.TotalInvestments(); !got.Equal(d("1250.5")) {
		t.Fatalf("expected 1250.5, got %s", got)
	}
	if invs := f.engine.Investments(); invs[0].Name != "Bonds" {
		t.Fatalf("expected newest first, got %s", invs[0].Name)
	}

	if _, err := f.engine.UpdateInvestment(ctx, first.ID, InvestmentUpdate{Amount: ptr(d("0"))}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.engine.UpdateInvestment(ctx, first.ID, InvestmentUpdate{Amount: ptr(d("900"))}); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.DeleteInvestment(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.engine.TotalInvestments(); !got.Equal(d("250.5")) {
		t.Fatalf("expected 250.5, got %s", got)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	if _, err := f.engine.AddSpendingEntry(ctx, expense(a.ID, "20", "Food")); err != nil {
		t.Fatal(err)
	}

	reopened := openEngine(t, f.store)
	acc, err := reopened.Account(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Balance.StringFixed(2) != "80.00" || len(reopened.Entries()) != 1 {
		t.Fatalf("unexpected reopened state: %+v, %d entries", acc, len(reopened.Entries()))
	}
	for _, c := range []storage.Collection{storage.Spending, storage.Savings} {
		if _, ok, _ := f.store.Get(ctx, storage.NewKeys("").For(c)); !ok {
			t.Fatalf("%s was not persisted", c)
		}
	}
}

func TestOpenRejectsCorruptDocument(t *testing.T) {
	backend := memory.New()
	_ = backend.Set(context.Background(), "finance-tracker-savings", []byte(`{not json`))
	if _, err := Open(context.Background(), backend); err == nil {
		t.Fatalf("expected decode error")
	}
}

// flakyStore fails every write once armed. It has no SetMany, so writes go
// through storage.SetAll's rollback path.
type flakyStore struct {
	inner  *memory.Store
	failOn string
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failOn != "" && key == s.failOn {
		return errors.New("quota exceeded")
	}
	return s.inner.Set(ctx, key, value)
}

func TestPersistenceFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{inner: memory.New()}
	e := openEngine(t, backend)

	a, err := e.AddSavingsAccount(ctx, core.SavingsAccount{BankName: "Bank", AccountName: "A", Balance: d("100")})
	if err != nil {
		t.Fatal(err)
	}
	savedAccounts, _, _ := backend.inner.Get(ctx, "finance-tracker-savings")

	backend.failOn = "finance-tracker-spending"
	_, err = e.AddSpendingEntry(ctx, expense(a.ID, "40", "Food"))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	acc, _ := e.Account(a.ID)
	if acc.Balance.StringFixed(2) != "100.00" {
		t.Fatalf("in-memory balance changed to %s", acc.Balance)
	}
	if len(e.Entries()) != 0 {
		t.Fatalf("in-memory entries changed")
	}
	stored, _, _ := backend.inner.Get(ctx, "finance-tracker-savings")
	if string(stored) != string(savedAccounts) {
		t.Fatalf("stored accounts not rolled back:\n%s\n%s", stored, savedAccounts)
	}
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	if _, err := f.engine.AddSpendingEntry(ctx, expense(a.ID, "10", "Food")); err != nil {
		t.Fatal(err)
	}
	_, _ = f.engine.AddSpendingEntry(ctx, expense(a.ID, "1000", "Food"))

	got := f.events.ops()
	want := []string{"savings:created", "savings:updated", "spending:created"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNotifierErrorDoesNotFailOperation(t *testing.T) {
	failing := NotifierFunc(func(context.Context, Event) error { return errors.New("broker down") })
	e := openEngine(t, memory.New(), WithNotifier(failing))
	if _, err := e.AddSavingsAccount(context.Background(), core.SavingsAccount{BankName: "B", AccountName: "A"}); err != nil {
		t.Fatalf("notifier errors must be swallowed: %v", err)
	}
}

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	if _, err := f.engine.AddSpendingEntry(ctx, expense(a.ID, "10", "Food")); err != nil {
		t.Fatal(err)
	}
	snap := f.engine.Backup()
	snap.Settings.Currency = "EUR"

	other := openEngine(t, memory.New())
	if err := other.Restore(ctx, snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(other.Entries()) != 1 || other.TotalSavings().StringFixed(2) != "90.00" {
		t.Fatalf("unexpected restored state")
	}
	if got := other.settings.Currency(); got != "EUR" {
		t.Fatalf("expected restored currency, got %s", got)
	}

	bad := f.engine.Backup()
	bad.Savings = append(bad.Savings, bad.Savings[0])
	if err := other.Restore(ctx, bad); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if len(other.Accounts()) != 1 {
		t.Fatalf("rejected restore changed state")
	}
}

func TestConcurrentMutationsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", "100")
	b := f.account(t, "B", "0")
	seed, err := f.engine.AddSpendingEntry(ctx, expense(a.ID, "1", "Food"))
	if err != nil {
		t.Fatal(err)
	}

	var (
		wg, readers     sync.WaitGroup
		added, rejected atomic.Int64
	)
	stop := make(chan struct{})
	unexpected := func(op string, err error) {
		if errors.Is(err, ErrInsufficientBalance) {
			rejected.Add(1)
			return
		}
		t.Errorf("%s: unexpected error %v", op, err)
	}

	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if total := f.engine.TotalSavings(); total.IsNegative() {
					t.Errorf("total savings went negative: %s", total)
				}
				if acc, err := f.engine.Account(a.ID); err != nil || acc.Balance.IsNegative() {
					t.Errorf("account A read %v, %v", acc.Balance, err)
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.AddSpendingEntry(ctx, expense(a.ID, "3", "Food")); err != nil {
				unexpected("add", err)
				return
			}
			added.Add(1)
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.engine.TransferBetweenAccounts(ctx, a.ID, b.ID, d("2")); err != nil {
				unexpected("transfer", err)
			}
		}()
	}
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(amount int) {
			defer wg.Done()
			u := EntryUpdate{Amount: ptr(decimal.NewFromInt(int64(amount)))}
			if _, err := f.engine.UpdateSpendingEntry(ctx, seed.ID, u); err != nil {
				unexpected("update", err)
			}
		}(i)
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	if rejected.Load() == 0 {
		t.Fatalf("expected some operations to be rejected for lack of funds")
	}

	accA, _ := f.engine.Account(a.ID)
	accB, _ := f.engine.Account(b.ID)
	if accA.Balance.IsNegative() || accB.Balance.IsNegative() {
		t.Fatalf("overdrawn: A=%s B=%s", accA.Balance, accB.Balance)
	}

	entries := f.engine.Entries()
	if int64(len(entries)) != added.Load()+1 {
		t.Fatalf("expected %d entries, got %d", added.Load()+1, len(entries))
	}
	spent := decimal.Zero
	for _, e := range entries {
		spent = spent.Add(e.Amount)
	}
	// Transfers only move money between A and B, so the pair plus every
	// committed expense accounts for the starting 100.
	if total := accA.Balance.Add(accB.Balance).Add(spent); !total.Equal(d("100")) {
		t.Fatalf("A=%s B=%s spent=%s do not add up to 100", accA.Balance, accB.Balance, spent)
	}

	reopened := openEngine(t, f.store)
	persisted, err := reopened.Account(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !persisted.Balance.Equal(accA.Balance) || len(reopened.Entries()) != len(entries) {
		t.Fatalf("persisted state diverged: A=%s with %d entries", persisted.Balance, len(reopened.Entries()))
	}
}
