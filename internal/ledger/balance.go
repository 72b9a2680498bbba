package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// deltas maps account ids to signed balance changes.
type deltas map[string]decimal.Decimal

func (d deltas) add(id string, amount decimal.Decimal) {
	if id == "" {
		return
	}
	d[id] = d[id].Add(amount)
}

func (d deltas) merge(o deltas) {
	for id, amount := range o {
		d.add(id, amount)
	}
}

func (d deltas) negate() deltas {
	out := make(deltas, len(d))
	for id, amount := range d {
		out[id] = amount.Neg()
	}
	return out
}

// ids returns the accounts with a non-zero change, sorted.
func (d deltas) ids() []string {
	out := make([]string, 0, len(d))
	for id, amount := range d {
		if !amount.IsZero() {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// effect is the balance change applying e causes.
func effect(e core.SpendingEntry) deltas {
	d := deltas{}
	switch e.Type {
	case core.Expense:
		d.add(e.AccountID, e.Amount.Neg())
	case core.Transfer:
		d.add(e.AccountID, e.Amount.Neg())
		d.add(e.TransferToAccountID, e.Amount)
	}
	return d
}

// reversal undoes e's effect on the accounts that still exist. Balances of
// deleted accounts are gone with them.
func reversal(e core.SpendingEntry, accounts []core.SavingsAccount) deltas {
	out := deltas{}
	for id, amount := range effect(e).negate() {
		if indexByID(accounts, id, accountID) >= 0 {
			out.add(id, amount)
		}
	}
	return out
}

// requireAccounts checks that every account e applies to exists.
func requireAccounts(e core.SpendingEntry, accounts []core.SavingsAccount) error {
	ids := []string{e.AccountID}
	if e.Type == core.Transfer {
		ids = append(ids, e.TransferToAccountID)
	}
	for _, id := range ids {
		if indexByID(accounts, id, accountID) < 0 {
			return notFound("account", id)
		}
	}
	return nil
}

// balanceChange records one applied delta for logging.
type balanceChange struct {
	accountID string
	delta     decimal.Decimal
	balance   decimal.Decimal
}

// applyDeltas changes balances in accounts in place. Nothing is changed
// unless every resulting balance is non-negative and every account exists.
func applyDeltas(accounts []core.SavingsAccount, d deltas, now time.Time) ([]balanceChange, error) {
	ids := d.ids()
	next := make([]decimal.Decimal, len(ids))
	idx := make([]int, len(ids))
	for i, id := range ids {
		j := indexByID(accounts, id, accountID)
		if j < 0 {
			return nil, notFound("account", id)
		}
		balance := accounts[j].Balance.Add(d[id])
		if balance.IsNegative() {
			return nil, fmt.Errorf("%w: account %q has %s, short by %s",
				ErrInsufficientBalance, accounts[j].DisplayName(), accounts[j].Balance.StringFixed(2), balance.Neg().StringFixed(2))
		}
		idx[i], next[i] = j, balance
	}

	changes := make([]balanceChange, len(ids))
	for i, j := range idx {
		accounts[j].Balance = next[i]
		accounts[j].UpdatedAt = now
		changes[i] = balanceChange{accountID: ids[i], delta: d[ids[i]], balance: next[i]}
	}
	return changes, nil
}
