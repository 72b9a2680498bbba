package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/ledger"
)

type entriesCmd struct {
	month string
	all   bool
}

func (*entriesCmd) Name() string     { return "entries" }
func (*entriesCmd) Synopsis() string { return "list spending entries, newest first" }
func (*entriesCmd) Usage() string {
	return `fintrack entries [-month YYYY-MM | -all]

  Lists the entries of a month, the current one by default.
`
}

func (c *entriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month to list (YYYY-MM). Defaults to the current month.")
	f.BoolVar(&c.all, "all", false, "List every entry.")
}

func (c *entriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	year, month, err := parseMonth(c.month)
	if err != nil {
		return status(err)
	}
	return withApp(ctx, func(a *app) error {
		entries := a.ledger.EntriesInMonth(year, month)
		if c.all {
			entries = a.ledger.Entries()
		}
		code := a.settings.Currency()
		w := newTable()
		fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tACCOUNT\tTO\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Date, e.Type.Label(), currency.Format(e.Amount, code), e.Category,
				a.ledger.AccountName(e.AccountID), a.ledger.AccountName(e.TransferToAccountID), e.Description)
		}
		return w.Flush()
	})
}

type entryAddCmd struct {
	date        string
	amount      string
	category    string
	description string
	kind        string
	account     string
	to          string
}

func (*entryAddCmd) Name() string     { return "entry-add" }
func (*entryAddCmd) Synopsis() string { return "record an expense or a transfer" }
func (*entryAddCmd) Usage() string {
	return `fintrack entry-add -amount <amount> -account <id> [-category <name>]
    [-date YYYY-MM-DD] [-description <text>] [-type expense|transfer] [-to <id>]

  -account is required. An expense is deducted from that account. A transfer
  moves the amount from -account to -to.
`
}

func (c *entryAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Entry date (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.amount, "amount", "", "Amount (required).")
	f.StringVar(&c.category, "category", "", "Expense category.")
	f.StringVar(&c.description, "description", "", "Free text description.")
	f.StringVar(&c.kind, "type", string(core.Expense), "Entry type: expense or transfer.")
	f.StringVar(&c.account, "account", "", "Account the money leaves (required).")
	f.StringVar(&c.to, "to", "", "Destination account for transfers.")
}

func (c *entryAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return status(err)
	}
	date, err := parseDate(c.date)
	if err != nil {
		return status(err)
	}
	kind, err := core.ParseEntryType(c.kind)
	if err != nil {
		return status(err)
	}
	if c.account == "" {
		return usageError("-account is required")
	}
	return withApp(ctx, func(a *app) error {
		e, err := a.ledger.AddSpendingEntry(ctx, core.SpendingEntry{
			Date:                date,
			Amount:              amount,
			Category:            c.category,
			Description:         c.description,
			Type:                kind,
			AccountID:           c.account,
			TransferToAccountID: c.to,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, e.ID)
		return nil
	})
}

type entryUpdateCmd struct {
	id string
	entryAddCmd
}

func (*entryUpdateCmd) Name() string     { return "entry-update" }
func (*entryUpdateCmd) Synopsis() string { return "change a spending entry" }
func (*entryUpdateCmd) Usage() string {
	return `fintrack entry-update -id <id> [-amount ...] [-category ...] [-date ...]
    [-description ...] [-type ...] [-account ...] [-to ...]

  Only the flags given are changed. Account balances follow the change.
`
}

func (c *entryUpdateCmd) SetFlags(f *flag.FlagSet) {
	c.entryAddCmd.SetFlags(f)
	f.StringVar(&c.id, "id", "", "Entry id (required).")
}

func (c *entryUpdateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return usageError("-id is required")
	}
	u, err := c.update(visited(f))
	if err != nil {
		return status(err)
	}
	return withApp(ctx, func(a *app) error {
		_, err := a.ledger.UpdateSpendingEntry(ctx, c.id, u)
		return err
	})
}

func (c *entryUpdateCmd) update(set map[string]bool) (ledger.EntryUpdate, error) {
	var u ledger.EntryUpdate
	if set["amount"] {
		amount, err := core.ParseAmount(c.amount)
		if err != nil {
			return u, err
		}
		u.Amount = &amount
	}
	if set["date"] {
		date, err := core.ParseDate(c.date)
		if err != nil {
			return u, err
		}
		u.Date = &date
	}
	if set["type"] {
		kind, err := core.ParseEntryType(c.kind)
		if err != nil {
			return u, err
		}
		u.Type = &kind
	}
	if set["category"] {
		u.Category = &c.category
	}
	if set["description"] {
		u.Description = &c.description
	}
	if set["account"] {
		u.AccountID = &c.account
	}
	if set["to"] {
		u.TransferToAccountID = &c.to
	}
	return u, nil
}

type entryDeleteCmd struct {
	id string
}

func (*entryDeleteCmd) Name() string     { return "entry-delete" }
func (*entryDeleteCmd) Synopsis() string { return "delete a spending entry and revert its balance effect" }
func (*entryDeleteCmd) Usage() string {
	return `fintrack entry-delete -id <id>
`
}

func (c *entryDeleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Entry id (required).")
}

func (c *entryDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return usageError("-id is required")
	}
	return withApp(ctx, func(a *app) error {
		return a.ledger.DeleteSpendingEntry(ctx, c.id)
	})
}
