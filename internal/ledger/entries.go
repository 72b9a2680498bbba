package ledger

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// TransferCategory is given to transfer entries without a category.
const TransferCategory = "Transfer"

// EntryUpdate is a partial update of a spending entry; nil fields keep their
// current value.
type EntryUpdate struct {
	Date                *core.Date
	Amount              *decimal.Decimal
	Category            *string
	Description         *string
	Type                *core.EntryType
	AccountID           *string
	TransferToAccountID *string
}

func (u EntryUpdate) apply(e core.SpendingEntry) core.SpendingEntry {
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Type != nil && *u.Type != e.Type {
		e.Type = *u.Type
		if e.Type == core.Transfer && u.Category == nil {
			e.Category = TransferCategory
		}
	}
	if u.AccountID != nil {
		e.AccountID = *u.AccountID
	}
	if u.TransferToAccountID != nil {
		e.TransferToAccountID = *u.TransferToAccountID
	}
	return e
}

func normalizeEntry(e core.SpendingEntry) core.SpendingEntry {
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	e.AccountID = strings.TrimSpace(e.AccountID)
	e.TransferToAccountID = strings.TrimSpace(e.TransferToAccountID)
	switch e.Type {
	case core.Expense:
		e.TransferToAccountID = ""
	case core.Transfer:
		if e.Category == "" {
			e.Category = TransferCategory
		}
	}
	return e
}

// AddSpendingEntry validates in, applies its balance effect and stores it
// with a new id and timestamps. An expense debits its account; a transfer
// moves the amount between its two accounts and fails with
// ErrTransferFailed when that is not possible.
func (e *Engine) AddSpendingEntry(ctx context.Context, in core.SpendingEntry) (core.SpendingEntry, error) {
	entry := normalizeEntry(in)
	if err := entry.Validate(); err != nil {
		return core.SpendingEntry{}, err
	}
	if entry.IsExpense() {
		if err := e.checkCategory(entry.Category); err != nil {
			return core.SpendingEntry{}, err
		}
	}

	err := e.mutate(ctx, func(t *txn) error {
		entry.ID = e.newID()
		entry.CreatedAt, entry.UpdatedAt = t.now, t.now

		transfer := entry.Type == core.Transfer
		if err := requireAccounts(entry, t.next.accounts); err != nil {
			if transfer {
				return transferFailed(err)
			}
			return err
		}
		if err := e.rebalance(t, effect(entry), transfer); err != nil {
			return err
		}
		t.next.entries = append(t.next.entries, entry)
		t.touch(storage.Spending, OpCreated, entry.ID)
		return nil
	})
	if err != nil {
		return core.SpendingEntry{}, err
	}
	e.logEntry(ctx, log.OpCreate, entry)
	return entry, nil
}

// UpdateSpendingEntry merges u into the entry and moves balances by the net
// difference between the old and new effects. Either the entry and every
// balance change are stored or nothing is.
func (e *Engine) UpdateSpendingEntry(ctx context.Context, id string, u EntryUpdate) (core.SpendingEntry, error) {
	var updated core.SpendingEntry
	err := e.mutate(ctx, func(t *txn) error {
		i := indexByID(t.next.entries, id, entryID)
		if i < 0 {
			return notFound("entry", id)
		}
		old := t.next.entries[i]

		updated = normalizeEntry(u.apply(old))
		if err := updated.Validate(); err != nil {
			return err
		}
		if updated.IsExpense() && (!old.IsExpense() || updated.Category != old.Category) {
			if err := e.checkCategory(updated.Category); err != nil {
				return err
			}
		}
		updated.UpdatedAt = t.now

		transfer := old.Type == core.Transfer || updated.Type == core.Transfer
		if err := requireAccounts(updated, t.next.accounts); err != nil {
			if transfer {
				return transferFailed(err)
			}
			return err
		}
		d := reversal(old, t.next.accounts)
		d.merge(effect(updated))
		if err := e.rebalance(t, d, transfer); err != nil {
			return err
		}
		t.next.entries[i] = updated
		t.touch(storage.Spending, OpUpdated, id)
		return nil
	})
	if err != nil {
		return core.SpendingEntry{}, err
	}
	e.logEntry(ctx, log.OpUpdate, updated)
	return updated, nil
}

// DeleteSpendingEntry reverts the entry's effect and removes it. Reverting a
// transfer fails with ErrTransferFailed when the destination account no
// longer holds the amount.
func (e *Engine) DeleteSpendingEntry(ctx context.Context, id string) error {
	var old core.SpendingEntry
	err := e.mutate(ctx, func(t *txn) error {
		i := indexByID(t.next.entries, id, entryID)
		if i < 0 {
			return notFound("entry", id)
		}
		old = t.next.entries[i]
		if err := e.rebalance(t, reversal(old, t.next.accounts), old.Type == core.Transfer); err != nil {
			return err
		}
		t.next.entries = slices.Delete(t.next.entries, i, i+1)
		t.touch(storage.Spending, OpDeleted, id)
		return nil
	})
	if err != nil {
		return err
	}
	e.logEntry(ctx, log.OpDelete, old)
	return nil
}

func (e *Engine) logEntry(ctx context.Context, op string, entry core.SpendingEntry) {
	e.structured.LogEntryApplied(ctx, op, entry.ID, entry.Type.String(), entry.Amount.String(), entry.Category)
}

// Entry returns the entry with id.
func (e *Engine) Entry(id string) (core.SpendingEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexByID(e.state.entries, id, entryID)
	if i < 0 {
		return core.SpendingEntry{}, notFound("entry", id)
	}
	return e.state.entries[i], nil
}

// Entries returns every entry, newest date first.
func (e *Engine) Entries() []core.SpendingEntry {
	e.mu.Lock()
	out := slices.Clone(e.state.entries)
	e.mu.Unlock()
	sortEntries(out)
	return out
}

// EntriesInMonth returns the entries dated in the given month, newest first.
func (e *Engine) EntriesInMonth(year, month int) []core.SpendingEntry {
	e.mu.Lock()
	out := make([]core.SpendingEntry, 0)
	for _, entry := range e.state.entries {
		if entry.Date.InMonth(year, month) {
			out = append(out, entry)
		}
	}
	e.mu.Unlock()
	sortEntries(out)
	return out
}

func sortEntries(entries []core.SpendingEntry) {
	slices.SortStableFunc(entries, func(a, b core.SpendingEntry) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
