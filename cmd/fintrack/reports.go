package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"fintrack/internal/abbrev"
	"fintrack/internal/currency"
)

type summaryCmd struct {
	month string
	short bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "summarize a month's spending against the target" }
func (*summaryCmd) Usage() string {
	return `fintrack summary [-month YYYY-MM] [-short]

  Shows total expenses, progress against the monthly target and the split
  by category. Transfers are not spending and are left out.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month to summarize (YYYY-MM). Defaults to the current month.")
	f.BoolVar(&c.short, "short", false, "Abbreviate amounts (1.5K, 2.3M).")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	year, month, err := parseMonth(c.month)
	if err != nil {
		return status(err)
	}
	return withApp(ctx, func(a *app) error {
		code := a.settings.Currency()
		money := func(d decimal.Decimal) string {
			if c.short {
				return abbrev.AbbreviateCurrency(d.InexactFloat64(), currency.Symbol(code), false)
			}
			return currency.Format(d, code)
		}

		o := a.ledger.MonthOverview(year, month)
		fmt.Fprintf(stdout, "%s %d\n\n", time.Month(month), year)

		w := newTable()
		fmt.Fprintf(w, "Spent\t%s\n", money(o.Total))
		if o.Target.IsPositive() {
			fmt.Fprintf(w, "Target\t%s (%s%%)\n", money(o.Target), o.TargetProgress().StringFixed(1))
			label := "Remaining"
			if o.OverTarget() {
				label = "Over target"
			}
			fmt.Fprintf(w, "%s\t%s\n", label, money(o.Remaining().Abs()))
		}
		fmt.Fprintf(w, "Savings\t%s\n", money(a.ledger.TotalSavings()))
		fmt.Fprintf(w, "Investments\t%s\n", money(a.ledger.TotalInvestments()))
		if err := w.Flush(); err != nil {
			return err
		}

		if len(o.ByCategory) == 0 {
			return nil
		}
		fmt.Fprintln(stdout)
		w = newTable()
		fmt.Fprintln(w, "CATEGORY\tAMOUNT\tSHARE")
		for _, ca := range o.ByCategory {
			share := ca.Amount.Div(o.Total).Mul(decimal.NewFromInt(100)).StringFixed(1)
			fmt.Fprintf(w, "%s\t%s\t%s%%\n", ca.Name, money(ca.Amount), share)
		}
		return w.Flush()
	})
}

type totalsCmd struct {
	year int
}

func (*totalsCmd) Name() string     { return "totals" }
func (*totalsCmd) Synopsis() string { return "chart monthly spending over a year" }
func (*totalsCmd) Usage() string {
	return `fintrack totals [-year YYYY]

  Prints one bar per month scaled to a rounded axis maximum.
`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Year to chart. Defaults to the current year.")
}

const barWidth = 40

func (c *totalsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	year := c.year
	if year == 0 {
		year = now().Year()
	}
	return withApp(ctx, func(a *app) error {
		symbol := currency.Symbol(a.settings.Currency())
		totals := a.ledger.MonthlyTotals(year)

		maxValue := 0.0
		for _, t := range totals {
			maxValue = max(maxValue, t.InexactFloat64())
		}
		axis := abbrev.SuggestChartRange(maxValue)

		w := newTable()
		for i, t := range totals {
			v := t.InexactFloat64()
			n := int(v / axis.Max * barWidth)
			fmt.Fprintf(w, "%s\t%s\t%s\n", time.Month(i+1).String()[:3], strings.Repeat("#", n), abbrev.FormatForChart(v, symbol))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		ticks := make([]string, 0, 6)
		for v := axis.Min; v <= axis.Max+axis.Step/2; v += axis.Step {
			ticks = append(ticks, abbrev.FormatForChart(v, symbol))
		}
		fmt.Fprintf(stdout, "axis: %s\n", strings.Join(ticks, " | "))
		return nil
	})
}

type currenciesCmd struct{}

func (*currenciesCmd) Name() string     { return "currencies" }
func (*currenciesCmd) Synopsis() string { return "list supported currencies" }
func (*currenciesCmd) Usage() string {
	return `fintrack currencies
`
}
func (*currenciesCmd) SetFlags(*flag.FlagSet) {}

func (*currenciesCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	w := newTable()
	fmt.Fprintln(w, "CODE\tSYMBOL\tNAME\tEXAMPLE")
	sample := decimal.RequireFromString("1234567.89")
	for _, o := range currency.Options() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Code, o.Symbol, o.Name, currency.Format(sample, o.Code))
	}
	return status(w.Flush())
}

type formatCmd struct {
	code     string
	noSymbol bool
}

func (*formatCmd) Name() string     { return "format" }
func (*formatCmd) Synopsis() string { return "format amounts in a currency" }
func (*formatCmd) Usage() string {
	return `fintrack format [-currency <code>] [-no-symbol] <amount>...
`
}

func (c *formatCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "currency", currency.DefaultCode, "Currency code.")
	f.BoolVar(&c.noSymbol, "no-symbol", false, "Omit the currency symbol.")
}

func (c *formatCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError("expected at least one amount")
	}
	for _, arg := range f.Args() {
		d, err := parseDecimal("amount", arg)
		if err != nil {
			return status(err)
		}
		if c.noSymbol {
			fmt.Fprintln(stdout, currency.FormatWithoutSymbol(d, c.code))
		} else {
			fmt.Fprintln(stdout, currency.Format(d, c.code))
		}
	}
	return subcommands.ExitSuccess
}

type parseCmd struct {
	code string
}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "parse formatted amounts back to numbers" }
func (*parseCmd) Usage() string {
	return `fintrack parse [-currency <code>] <text>...

  Unparseable text yields 0.
`
}

func (c *parseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "currency", currency.DefaultCode, "Currency code.")
}

func (c *parseCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError("expected at least one value")
	}
	for _, arg := range f.Args() {
		fmt.Fprintln(stdout, currency.Parse(arg, c.code).String())
	}
	return subcommands.ExitSuccess
}

type abbrevCmd struct {
	symbol   string
	decimals bool
	chart    bool
}

func (*abbrevCmd) Name() string     { return "abbrev" }
func (*abbrevCmd) Synopsis() string { return "abbreviate large numbers (1.5K, 150M)" }
func (*abbrevCmd) Usage() string {
	return `fintrack abbrev [-symbol <s>] [-decimals] [-chart] <number>...
`
}

func (c *abbrevCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "Prefix, e.g. $.")
	f.BoolVar(&c.decimals, "decimals", false, "Always show one decimal place.")
	f.BoolVar(&c.chart, "chart", false, "Use the chart label rules.")
}

func (c *abbrevCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError("expected at least one number")
	}
	for _, arg := range f.Args() {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return usageError("%q is not a number", arg)
		}
		switch {
		case c.chart:
			fmt.Fprintln(stdout, abbrev.FormatForChart(v, c.symbol))
		default:
			fmt.Fprintln(stdout, abbrev.AbbreviateCurrency(v, c.symbol, c.decimals))
		}
	}
	return subcommands.ExitSuccess
}
