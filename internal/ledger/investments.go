package ledger

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type InvestmentUpdate struct {
	Name   *string
	Amount *decimal.Decimal
	Date   *core.Date
	Notes  *string
}

func normalizeInvestment(i core.Investment) core.Investment {
	i.Name = strings.TrimSpace(i.Name)
	i.Notes = strings.TrimSpace(i.Notes)
	return i
}

func (e *Engine) AddInvestment(ctx context.Context, in core.Investment) (core.Investment, error) {
	inv := normalizeInvestment(in)
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	err := e.mutate(ctx, func(t *txn) error {
		inv.ID = e.newID()
		inv.CreatedAt, inv.UpdatedAt = t.now, t.now
		t.next.investments = append(t.next.investments, inv)
		t.touch(storage.Investments, OpCreated, inv.ID)
		return nil
	})
	if err != nil {
		return core.Investment{}, err
	}
	return inv, nil
}

func (e *Engine) UpdateInvestment(ctx context.Context, id string, u InvestmentUpdate) (core.Investment, error) {
	var updated core.Investment
	err := e.mutate(ctx, func(t *txn) error {
		i := indexByID(t.next.investments, id, investmentID)
		if i < 0 {
			return notFound("investment", id)
		}
		updated = t.next.investments[i]
		if u.Name != nil {
			updated.Name = *u.Name
		}
		if u.Amount != nil {
			updated.Amount = *u.Amount
		}
		if u.Date != nil {
			updated.Date = *u.Date
		}
		if u.Notes != nil {
			updated.Notes = *u.Notes
		}
		updated = normalizeInvestment(updated)
		if err := updated.Validate(); err != nil {
			return err
		}
		updated.UpdatedAt = t.now
		t.next.investments[i] = updated
		t.touch(storage.Investments, OpUpdated, id)
		return nil
	})
	if err != nil {
		return core.Investment{}, err
	}
	return updated, nil
}

func (e *Engine) DeleteInvestment(ctx context.Context, id string) error {
	return e.mutate(ctx, func(t *txn) error {
		i := indexByID(t.next.investments, id, investmentID)
		if i < 0 {
			return notFound("investment", id)
		}
		t.next.investments = slices.Delete(t.next.investments, i, i+1)
		t.touch(storage.Investments, OpDeleted, id)
		return nil
	})
}

// Investments returns every investment, newest date first.
func (e *Engine) Investments() []core.Investment {
	e.mu.Lock()
	out := slices.Clone(e.state.investments)
	e.mu.Unlock()
	slices.SortStableFunc(out, func(a, b core.Investment) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}
