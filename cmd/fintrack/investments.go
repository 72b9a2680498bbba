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

type investmentsCmd struct{}

func (*investmentsCmd) Name() string     { return "investments" }
func (*investmentsCmd) Synopsis() string { return "list investments, newest first" }
func (*investmentsCmd) Usage() string {
	return `fintrack investments
`
}
func (*investmentsCmd) SetFlags(*flag.FlagSet) {}

func (*investmentsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		code := a.settings.Currency()
		w := newTable()
		fmt.Fprintln(w, "ID\tDATE\tNAME\tAMOUNT\tADDED\tNOTES")
		for _, inv := range a.ledger.Investments() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.Date, inv.Name,
				currency.Format(inv.Amount, code), humanize.Time(inv.CreatedAt), inv.Notes)
		}
		fmt.Fprintf(w, "\t\tTotal\t%s\t\t\n", currency.Format(a.ledger.TotalInvestments(), code))
		return w.Flush()
	})
}

type investmentAddCmd struct {
	name   string
	amount string
	date   string
	notes  string
}

func (*investmentAddCmd) Name() string     { return "investment-add" }
func (*investmentAddCmd) Synopsis() string { return "record an investment" }
func (*investmentAddCmd) Usage() string {
	return `fintrack investment-add -name <name> -amount <amount> [-date YYYY-MM-DD] [-notes <text>]
`
}

func (c *investmentAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Investment name (required).")
	f.StringVar(&c.amount, "amount", "", "Amount invested (required).")
	f.StringVar(&c.date, "date", "", "Investment date (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.notes, "notes", "", "Free text notes.")
}

func (c *investmentAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return status(err)
	}
	date, err := parseDate(c.date)
	if err != nil {
		return status(err)
	}
	return withApp(ctx, func(a *app) error {
		inv, err := a.ledger.AddInvestment(ctx, core.Investment{
			Name:   c.name,
			Amount: amount,
			Date:   date,
			Notes:  c.notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, inv.ID)
		return nil
	})
}

type investmentUpdateCmd struct {
	id string
	investmentAddCmd
}

func (*investmentUpdateCmd) Name() string     { return "investment-update" }
func (*investmentUpdateCmd) Synopsis() string { return "change an investment" }
func (*investmentUpdateCmd) Usage() string {
	return `fintrack investment-update -id <id> [-name ...] [-amount ...] [-date ...] [-notes ...]
`
}

func (c *investmentUpdateCmd) SetFlags(f *flag.FlagSet) {
	c.investmentAddCmd.SetFlags(f)
	f.StringVar(&c.id, "id", "", "Investment id (required).")
}

func (c *investmentUpdateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return usageError("-id is required")
	}
	set := visited(f)
	var u ledger.InvestmentUpdate
	if set["name"] {
		u.Name = &c.name
	}
	if set["notes"] {
		u.Notes = &c.notes
	}
	if set["amount"] {
		amount, err := core.ParseAmount(c.amount)
		if err != nil {
			return status(err)
		}
		u.Amount = &amount
	}
	if set["date"] {
		date, err := core.ParseDate(c.date)
		if err != nil {
			return status(err)
		}
		u.Date = &date
	}
	return withApp(ctx, func(a *app) error {
		_, err := a.ledger.UpdateInvestment(ctx, c.id, u)
		return err
	})
}

type investmentDeleteCmd struct {
	id string
}

func (*investmentDeleteCmd) Name() string     { return "investment-delete" }
func (*investmentDeleteCmd) Synopsis() string { return "delete an investment" }
func (*investmentDeleteCmd) Usage() string {
	return `fintrack investment-delete -id <id>
`
}

func (c *investmentDeleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Investment id (required).")
}

func (c *investmentDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return usageError("-id is required")
	}
	return withApp(ctx, func(a *app) error {
		return a.ledger.DeleteInvestment(ctx, c.id)
	})
}
