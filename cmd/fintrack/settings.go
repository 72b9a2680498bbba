package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"fintrack/internal/currency"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/settings"
	"fintrack/internal/storage"
)

// settingsChanged announces a settings change so the spreadsheet mirror
// re-renders amounts and categories. Publish failures are only logged.
func (a *app) settingsChanged(ctx context.Context) {
	if a.res.Notifier == nil {
		return
	}
	ev := ledger.Event{Collection: storage.Settings, Op: ledger.OpUpdated, At: now()}
	if err := a.res.Notifier.Notify(ctx, ev); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Failed to publish settings change", log.FieldError, err)
	}
}

type settingsCmd struct{}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show the current settings" }
func (*settingsCmd) Usage() string {
	return `fintrack settings
`
}
func (*settingsCmd) SetFlags(*flag.FlagSet) {}

func (*settingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		s := a.settings.Get()
		w := newTable()
		fmt.Fprintf(w, "Title\t%s\n", s.AppTitle)
		fmt.Fprintf(w, "Currency\t%s (%s)\n", s.Currency, currency.Symbol(s.Currency))
		fmt.Fprintf(w, "Monthly target\t%s\n", currency.Format(s.MonthlyTarget, s.Currency))
		fmt.Fprintf(w, "Dark mode\t%t\n", s.DarkMode)
		if s.LogoURL != "" {
			fmt.Fprintf(w, "Logo\t%s\n", s.LogoURL)
		}
		for i, c := range s.Categories {
			label := ""
			if i == 0 {
				label = "Categories"
			}
			fmt.Fprintf(w, "%s\t%s %s\n", label, s.ColorOf(c), c)
		}
		return w.Flush()
	})
}

type settingsSetCmd struct {
	target     string
	currency   string
	title      string
	logo       string
	dark       bool
	categories string
}

func (*settingsSetCmd) Name() string     { return "settings-set" }
func (*settingsSetCmd) Synopsis() string { return "change settings" }
func (*settingsSetCmd) Usage() string {
	return `fintrack settings-set [-target <amount>] [-currency <code>] [-title <text>]
    [-logo <url>] [-dark] [-categories a,b,c]

  Only the flags given are changed. -categories replaces the category list;
  colors of kept categories are preserved.
`
}

func (c *settingsSetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.target, "target", "", "Monthly spending target.")
	f.StringVar(&c.currency, "currency", "", "Currency code, see 'fintrack currencies'.")
	f.StringVar(&c.title, "title", "", "Application title.")
	f.StringVar(&c.logo, "logo", "", "Logo URL.")
	f.BoolVar(&c.dark, "dark", false, "Dark mode.")
	f.StringVar(&c.categories, "categories", "", "Comma separated category list.")
}

func (c *settingsSetCmd) patch(set map[string]bool) (settings.Patch, error) {
	var p settings.Patch
	if set["target"] {
		t, err := parseDecimal("target", c.target)
		if err != nil {
			return p, err
		}
		p.MonthlyTarget = &t
	}
	if set["currency"] {
		code := strings.ToUpper(strings.TrimSpace(c.currency))
		p.Currency = &code
	}
	if set["title"] {
		p.AppTitle = &c.title
	}
	if set["logo"] {
		p.LogoURL = &c.logo
	}
	if set["dark"] {
		p.DarkMode = &c.dark
	}
	if set["categories"] {
		p.Categories = strings.Split(c.categories, ",")
	}
	return p, nil
}

func (c *settingsSetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := c.patch(visited(f))
	if err != nil {
		return status(err)
	}
	return withApp(ctx, func(a *app) error {
		if _, err := a.settings.Update(ctx, p); err != nil {
			return err
		}
		a.settingsChanged(ctx)
		return nil
	})
}

type settingsResetCmd struct{}

func (*settingsResetCmd) Name() string     { return "settings-reset" }
func (*settingsResetCmd) Synopsis() string { return "restore the default settings" }
func (*settingsResetCmd) Usage() string {
	return `fintrack settings-reset
`
}
func (*settingsResetCmd) SetFlags(*flag.FlagSet) {}

func (*settingsResetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		if err := a.settings.Reset(ctx); err != nil {
			return err
		}
		a.settingsChanged(ctx)
		return nil
	})
}

type categoryAddCmd struct {
	color string
}

func (*categoryAddCmd) Name() string     { return "category-add" }
func (*categoryAddCmd) Synopsis() string { return "add an expense category" }
func (*categoryAddCmd) Usage() string {
	return `fintrack category-add [-color #rrggbb] <name>
`
}

func (c *categoryAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.color, "color", "", "Hex color. Defaults to "+settings.DefaultColor+".")
}

func (c *categoryAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("expected exactly one category name")
	}
	return withApp(ctx, func(a *app) error {
		if err := a.settings.AddCategory(ctx, f.Arg(0), c.color); err != nil {
			return err
		}
		a.settingsChanged(ctx)
		return nil
	})
}

type categoryRemoveCmd struct{}

func (*categoryRemoveCmd) Name() string     { return "category-remove" }
func (*categoryRemoveCmd) Synopsis() string { return "remove an expense category" }
func (*categoryRemoveCmd) Usage() string {
	return `fintrack category-remove <name>

  Existing entries keep the category name.
`
}
func (*categoryRemoveCmd) SetFlags(*flag.FlagSet) {}

func (*categoryRemoveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("expected exactly one category name")
	}
	return withApp(ctx, func(a *app) error {
		if err := a.settings.RemoveCategory(ctx, f.Arg(0)); err != nil {
			return err
		}
		a.settingsChanged(ctx)
		return nil
	})
}

type categoryRenameCmd struct{}

func (*categoryRenameCmd) Name() string     { return "category-rename" }
func (*categoryRenameCmd) Synopsis() string { return "rename an expense category" }
func (*categoryRenameCmd) Usage() string {
	return `fintrack category-rename <old> <new>
`
}
func (*categoryRenameCmd) SetFlags(*flag.FlagSet) {}

func (*categoryRenameCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usageError("expected the old and the new category name")
	}
	return withApp(ctx, func(a *app) error {
		if err := a.settings.RenameCategory(ctx, f.Arg(0), f.Arg(1)); err != nil {
			return err
		}
		a.settingsChanged(ctx)
		return nil
	})
}

type categoryColorCmd struct{}

func (*categoryColorCmd) Name() string     { return "category-color" }
func (*categoryColorCmd) Synopsis() string { return "set the color of a category" }
func (*categoryColorCmd) Usage() string {
	return `fintrack category-color <name> <#rrggbb>
`
}
func (*categoryColorCmd) SetFlags(*flag.FlagSet) {}

func (*categoryColorCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usageError("expected a category name and a color")
	}
	return withApp(ctx, func(a *app) error {
		if err := a.settings.SetCategoryColor(ctx, f.Arg(0), f.Arg(1)); err != nil {
			return err
		}
		a.settingsChanged(ctx)
		return nil
	})
}
