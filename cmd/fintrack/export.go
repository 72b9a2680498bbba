package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/ledger"
)

type exportCmd struct {
	format     string
	collection string
	dir        string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export collections to CSV or XLSX" }
func (*exportCmd) Usage() string {
	return `fintrack export [-format csv|xlsx] [-collection spending|savings|investments|all] [-dir <dir>]

  CSV writes one file per collection. XLSX writes a single workbook with one
  sheet per collection. Files are named after the collection and today's date.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "csv", "Output format: csv or xlsx.")
	f.StringVar(&c.collection, "collection", "all", "Collection to export.")
	f.StringVar(&c.dir, "dir", ".", "Output directory.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format := strings.ToLower(c.format)
	if format != "csv" && format != "xlsx" {
		return usageError("unknown format %q", c.format)
	}
	collection := strings.ToLower(c.collection)
	switch collection {
	case "all", "spending", "savings", "investments":
	default:
		return usageError("unknown collection %q", c.collection)
	}

	return withApp(ctx, func(a *app) error {
		tables := exportTables(a, collection)
		day := now()
		if format == "xlsx" {
			name := "fintrack"
			if len(tables) == 1 {
				name = tables[0].Name
			}
			return writeFile(filepath.Join(c.dir, export.FileName(name, "xlsx", day)), func(f *os.File) error {
				return export.WriteXLSX(f, tables...)
			})
		}
		for _, t := range tables {
			err := writeFile(filepath.Join(c.dir, export.FileName(t.Name, "csv", day)), func(f *os.File) error {
				return export.WriteCSV(f, t)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func exportTables(a *app, collection string) []export.Table {
	var tables []export.Table
	if collection == "all" || collection == "spending" {
		tables = append(tables, export.Spending(a.ledger.Entries(), a.ledger.AccountName, a.settings.Currency()))
	}
	if collection == "all" || collection == "savings" {
		tables = append(tables, export.Savings(a.ledger.Accounts()))
	}
	if collection == "all" || collection == "investments" {
		tables = append(tables, export.Investments(a.ledger.Investments()))
	}
	return tables
}

// writeFile creates path, runs write and reports the path on success.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)
	return nil
}

type backupCmd struct {
	output string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "write a JSON backup of all data" }
func (*backupCmd) Usage() string {
	return `fintrack backup [-o <file>]

  Writes every collection and the settings to one JSON file.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to fintrack-backup-<date>.json.")
}

func (c *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		path := c.output
		if path == "" {
			path = "fintrack-backup-" + now().Format(core.DateLayout) + ".json"
		}
		return writeFile(path, func(f *os.File) error {
			_, err := a.ledger.Backup().WriteTo(f)
			return err
		})
	})
}

type restoreCmd struct {
	input string
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace all data with a JSON backup" }
func (*restoreCmd) Usage() string {
	return `fintrack restore -i <file>

  The backup is validated first. Nothing changes when it is invalid.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "", "Backup file (required).")
}

func (c *restoreCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.input == "" {
		return usageError("-i is required")
	}
	f, err := os.Open(c.input)
	if err != nil {
		return status(err)
	}
	defer f.Close()
	snap, err := ledger.ReadSnapshot(f)
	if err != nil {
		return status(err)
	}
	return withApp(ctx, func(a *app) error {
		if err := a.ledger.Restore(ctx, snap); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "restored %d entries, %d accounts, %d investments\n",
			len(snap.Spending), len(snap.Savings), len(snap.Investments))
		return nil
	})
}
