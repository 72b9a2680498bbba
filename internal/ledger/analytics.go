package ledger

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// countsAsSpending reports whether e consumes money. Transfers only move it
// and are excluded from every spending figure.
func countsAsSpending(e core.SpendingEntry) bool {
	switch e.Type {
	case core.Expense:
		return true
	case core.Transfer:
		return false
	default:
		return false
	}
}

// MonthlySpending sums the expenses dated in the given month.
func (e *Engine) MonthlySpending(year, month int) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, entry := range e.state.entries {
		if countsAsSpending(entry) && entry.Date.InMonth(year, month) {
			total = total.Add(entry.Amount)
		}
	}
	return total
}

// SpendingByCategory groups the month's expenses by category, largest
// amount first and ties broken by name.
func (e *Engine) SpendingByCategory(year, month int) []core.CategoryAmount {
	e.mu.Lock()
	totals := make(map[string]decimal.Decimal)
	for _, entry := range e.state.entries {
		if countsAsSpending(entry) && entry.Date.InMonth(year, month) {
			totals[entry.Category] = totals[entry.Category].Add(entry.Amount)
		}
	}
	e.mu.Unlock()

	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// MonthOverview summarizes a month against the configured monthly target.
// Target is zero when the engine has no settings store.
func (e *Engine) MonthOverview(year, month int) core.MonthOverview {
	o := core.MonthOverview{
		Year:       year,
		Month:      month,
		Total:      e.MonthlySpending(year, month),
		ByCategory: e.SpendingByCategory(year, month),
	}
	if e.settings != nil {
		o.Target = e.settings.Get().MonthlyTarget
	}
	return o
}

// MonthlyTotals returns the expense total of each month of year, January
// first.
func (e *Engine) MonthlyTotals(year int) [12]decimal.Decimal {
	var out [12]decimal.Decimal
	for i := range out {
		out[i] = decimal.Zero
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, entry := range e.state.entries {
		if countsAsSpending(entry) && entry.Date.Year() == year {
			m := entry.Date.Month() - 1
			out[m] = out[m].Add(entry.Amount)
		}
	}
	return out
}

// TotalSavings sums every account balance.
func (e *Engine) TotalSavings() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, a := range e.state.accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// TotalInvestments sums every investment amount.
func (e *Engine) TotalInvestments() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, inv := range e.state.investments {
		total = total.Add(inv.Amount)
	}
	return total
}
