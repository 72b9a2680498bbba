package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/ledger"
)

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list savings accounts and their balances" }
func (*accountsCmd) Usage() string {
	return `fintrack accounts

  Lists savings accounts with their current balance and the total.
`
}
func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (*accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		code := a.settings.Currency()
		w := newTable()
		fmt.Fprintln(w, "ID\tBANK\tACCOUNT\tBALANCE\tUPDATED")
		for _, acc := range a.ledger.Accounts() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", acc.ID, acc.BankName, acc.AccountName,
				currency.Format(acc.Balance, code), humanize.Time(acc.UpdatedAt))
		}
		fmt.Fprintf(w, "\t\tTotal\t%s\t\n", currency.Format(a.ledger.TotalSavings(), code))
		return w.Flush()
	})
}

type accountAddCmd struct {
	bank    string
	name    string
	balance string
}

func (*accountAddCmd) Name() string     { return "account-add" }
func (*accountAddCmd) Synopsis() string { return "add a savings account" }
func (*accountAddCmd) Usage() string {
	return `fintrack account-add -bank <bank> -name <account> [-balance <amount>]
`
}

func (c *accountAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bank, "bank", "", "Bank name (required).")
	f.StringVar(&c.name, "name", "", "Account name (required).")
	f.StringVar(&c.balance, "balance", "0", "Opening balance.")
}

func (c *accountAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	balance, err := parseDecimal("balance", c.balance)
	if err != nil {
		return status(err)
	}
	return withApp(ctx, func(a *app) error {
		acc, err := a.ledger.AddSavingsAccount(ctx, core.SavingsAccount{
			BankName:    c.bank,
			AccountName: c.name,
			Balance:     balance,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, acc.ID)
		return nil
	})
}

type accountUpdateCmd struct {
	id      string
	bank    string
	name    string
	balance string
}

func (*accountUpdateCmd) Name() string     { return "account-update" }
func (*accountUpdateCmd) Synopsis() string { return "rename an account or overwrite its balance" }
func (*accountUpdateCmd) Usage() string {
	return `fintrack account-update -id <id> [-bank <bank>] [-name <account>] [-balance <amount>]

  Only the flags given are changed. -balance replaces the stored balance.
`
}

func (c *accountUpdateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Account id (required).")
	f.StringVar(&c.bank, "bank", "", "New bank name.")
	f.StringVar(&c.name, "name", "", "New account name.")
	f.StringVar(&c.balance, "balance", "", "New balance.")
}

func (c *accountUpdateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return usageError("-id is required")
	}
	set := visited(f)
	var u ledger.AccountUpdate
	if set["bank"] {
		u.BankName = &c.bank
	}
	if set["name"] {
		u.AccountName = &c.name
	}
	if set["balance"] {
		b, err := parseDecimal("balance", c.balance)
		if err != nil {
			return status(err)
		}
		u.Balance = &b
	}
	return withApp(ctx, func(a *app) error {
		_, err := a.ledger.UpdateSavingsAccount(ctx, c.id, u)
		return err
	})
}

type accountDeleteCmd struct {
	id string
}

func (*accountDeleteCmd) Name() string     { return "account-delete" }
func (*accountDeleteCmd) Synopsis() string { return "delete a savings account" }
func (*accountDeleteCmd) Usage() string {
	return `fintrack account-delete -id <id>

  Entries referencing the account are kept.
`
}

func (c *accountDeleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Account id (required).")
}

func (c *accountDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return usageError("-id is required")
	}
	return withApp(ctx, func(a *app) error {
		return a.ledger.DeleteSavingsAccount(ctx, c.id)
	})
}

type transferCmd struct {
	from   string
	to     string
	amount string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move money between two accounts" }
func (*transferCmd) Usage() string {
	return `fintrack transfer -from <id> -to <id> -amount <amount>

  Adjusts both balances without recording a spending entry.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source account id.")
	f.StringVar(&c.to, "to", "", "Destination account id.")
	f.StringVar(&c.amount, "amount", "", "Amount to move.")
}

func (c *transferCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return status(err)
	}
	return withApp(ctx, func(a *app) error {
		return a.ledger.TransferBetweenAccounts(ctx, c.from, c.to, amount)
	})
}
