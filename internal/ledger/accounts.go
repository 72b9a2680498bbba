package ledger

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AccountUpdate is a partial update of a savings account. A Balance
// overwrites the stored balance as-is.
type AccountUpdate struct {
	BankName    *string
	AccountName *string
	Balance     *decimal.Decimal
}

func normalizeAccount(a core.SavingsAccount) core.SavingsAccount {
	a.BankName = strings.TrimSpace(a.BankName)
	a.AccountName = strings.TrimSpace(a.AccountName)
	return a
}

func (e *Engine) AddSavingsAccount(ctx context.Context, in core.SavingsAccount) (core.SavingsAccount, error) {
	account := normalizeAccount(in)
	if err := account.Validate(); err != nil {
		return core.SavingsAccount{}, err
	}
	err := e.mutate(ctx, func(t *txn) error {
		account.ID = e.newID()
		account.CreatedAt, account.UpdatedAt = t.now, t.now
		t.next.accounts = append(t.next.accounts, account)
		t.touch(storage.Savings, OpCreated, account.ID)
		return nil
	})
	if err != nil {
		return core.SavingsAccount{}, err
	}
	return account, nil
}

func (e *Engine) UpdateSavingsAccount(ctx context.Context, id string, u AccountUpdate) (core.SavingsAccount, error) {
	var updated core.SavingsAccount
	err := e.mutate(ctx, func(t *txn) error {
		i := indexByID(t.next.accounts, id, accountID)
		if i < 0 {
			return notFound("account", id)
		}
		updated = t.next.accounts[i]
		if u.BankName != nil {
			updated.BankName = *u.BankName
		}
		if u.AccountName != nil {
			updated.AccountName = *u.AccountName
		}
		if u.Balance != nil {
			updated.Balance = *u.Balance
		}
		updated = normalizeAccount(updated)
		if err := updated.Validate(); err != nil {
			return err
		}
		updated.UpdatedAt = t.now
		t.next.accounts[i] = updated
		t.touch(storage.Savings, OpUpdated, id)
		return nil
	})
	if err != nil {
		return core.SavingsAccount{}, err
	}
	return updated, nil
}

// DeleteSavingsAccount removes the account. Entries referencing it are kept;
// later reverts of those entries skip the missing account.
func (e *Engine) DeleteSavingsAccount(ctx context.Context, id string) error {
	return e.mutate(ctx, func(t *txn) error {
		i := indexByID(t.next.accounts, id, accountID)
		if i < 0 {
			return notFound("account", id)
		}
		t.next.accounts = slices.Delete(t.next.accounts, i, i+1)
		t.touch(storage.Savings, OpDeleted, id)
		return nil
	})
}

// TransferBetweenAccounts moves amount from one account to another without
// recording a spending entry. It fails with ErrTransferFailed when either
// account is missing or from holds less than amount.
func (e *Engine) TransferBetweenAccounts(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	if from == "" || to == "" {
		return core.ErrMissingAccount
	}
	if from == to {
		return core.ErrSameAccount
	}
	return e.mutate(ctx, func(t *txn) error {
		transfer := core.SpendingEntry{Type: core.Transfer, Amount: amount, AccountID: from, TransferToAccountID: to}
		if err := requireAccounts(transfer, t.next.accounts); err != nil {
			return transferFailed(err)
		}
		if err := e.rebalance(t, effect(transfer), true); err != nil {
			return err
		}
		t.touch(storage.Savings, OpTransferred, "")
		return nil
	})
}

// Account returns the account with id.
func (e *Engine) Account(id string) (core.SavingsAccount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexByID(e.state.accounts, id, accountID)
	if i < 0 {
		return core.SavingsAccount{}, notFound("account", id)
	}
	return e.state.accounts[i], nil
}

// Accounts returns every account in creation order.
func (e *Engine) Accounts() []core.SavingsAccount {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.state.accounts)
}

// AccountName returns the display name of id, or "" when it does not exist.
func (e *Engine) AccountName(id string) string {
	a, err := e.Account(id)
	if err != nil {
		return ""
	}
	return a.DisplayName()
}
