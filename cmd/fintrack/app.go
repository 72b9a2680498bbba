package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/settings"
)

// app is the opened ledger a command works on.
type app struct {
	res      *backend.Result
	settings *settings.Store
	ledger   *ledger.Engine
}

func (a *app) Close() error { return a.res.Close() }

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	// openApp is replaced in tests.
	openApp = openConfiguredApp

	now = time.Now
)

// openConfiguredApp opens the backend selected by the environment.
func openConfiguredApp(ctx context.Context) (*app, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx)
	if bcfg.Type == backend.MemoryBackend {
		logger.Warn("Memory backend selected, changes will not be kept")
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	set, engine, err := res.Open(ctx)
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	return &app{res: res, settings: set, ledger: engine}, nil
}

// withApp opens the ledger, runs fn and maps its error to an exit status.
func withApp(ctx context.Context, fn func(a *app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintln(stderr, "Error closing storage:", err)
		}
	}()
	return status(fn(a))
}

func status(err error) subcommands.ExitStatus {
	switch {
	case err == nil:
		return subcommands.ExitSuccess
	case errors.Is(err, core.ErrValidation):
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitUsageError
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitFailure
	}
}

func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

// visited returns the names of the flags set on the command line.
func visited(f *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// parseMonth accepts "YYYY-MM"; an empty string means the current month.
func parseMonth(s string) (year, month int, err error) {
	if strings.TrimSpace(s) == "" {
		t := now()
		return t.Year(), int(t.Month()), nil
	}
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month must be YYYY-MM", core.ErrValidation)
	}
	return t.Year(), int(t.Month()), nil
}

// parseDate accepts "YYYY-MM-DD"; an empty string means today.
func parseDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		t := now()
		return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return core.ParseDate(s)
}

// parseDecimal parses a plain number that may be zero or negative.
func parseDecimal(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s must be a number", core.ErrValidation, name)
	}
	return d, nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}
