// Command fintrack manages the personal finance ledger from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"fintrack/internal/cli"
	"fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stderr, log.ComponentCLI)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()
	ctx := log.WithContext(context.Background(), logger)
	os.Exit(int(commander.Execute(ctx)))
}

// register adds every fintrack command to c.
func register(c *subcommands.Commander) {
	c.Register(&accountsCmd{}, "accounts")
	c.Register(&accountAddCmd{}, "accounts")
	c.Register(&accountUpdateCmd{}, "accounts")
	c.Register(&accountDeleteCmd{}, "accounts")
	c.Register(&transferCmd{}, "accounts")

	c.Register(&entriesCmd{}, "entries")
	c.Register(&entryAddCmd{}, "entries")
	c.Register(&entryUpdateCmd{}, "entries")
	c.Register(&entryDeleteCmd{}, "entries")

	c.Register(&investmentsCmd{}, "investments")
	c.Register(&investmentAddCmd{}, "investments")
	c.Register(&investmentUpdateCmd{}, "investments")
	c.Register(&investmentDeleteCmd{}, "investments")

	c.Register(&settingsCmd{}, "settings")
	c.Register(&settingsSetCmd{}, "settings")
	c.Register(&settingsResetCmd{}, "settings")
	c.Register(&categoryAddCmd{}, "settings")
	c.Register(&categoryRemoveCmd{}, "settings")
	c.Register(&categoryRenameCmd{}, "settings")
	c.Register(&categoryColorCmd{}, "settings")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&totalsCmd{}, "reports")

	c.Register(&exportCmd{}, "data")
	c.Register(&backupCmd{}, "data")
	c.Register(&restoreCmd{}, "data")

	c.Register(&currenciesCmd{}, "tools")
	c.Register(&formatCmd{}, "tools")
	c.Register(&parseCmd{}, "tools")
	c.Register(&abbrevCmd{}, "tools")
}
