// Package export renders ledger collections as tables for CSV files, XLSX
// workbooks and the Google Sheets sync.
package export

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/currency"
)

// Cell is one rendered value. Text is what CSV and text outputs print;
// Value, when set, is the typed value spreadsheets should store instead.
type Cell struct {
	Text  string
	Value any
	// Quote forces CSV quoting even when Text needs none.
	Quote bool
}

type Table struct {
	Name   string
	Header []string
	Rows   [][]Cell
}

func text(s string) Cell { return Cell{Text: s} }

func quoted(s string) Cell { return Cell{Text: s, Quote: true} }

// AccountNamer resolves account ids to display names. Unknown ids resolve
// to "".
type AccountNamer func(id string) string

// Spending renders entries with amounts formatted in currencyCode. Only
// transfers fill the "Transfer To" column.
func Spending(entries []core.SpendingEntry, accountName AccountNamer, currencyCode string) Table {
	t := Table{
		Name:   "Spending",
		Header: []string{"Date", "Type", "Amount", "Category", "Description", "Account", "Transfer To"},
		Rows:   make([][]Cell, 0, len(entries)),
	}
	for _, e := range entries {
		var to string
		switch e.Type {
		case core.Transfer:
			to = accountName(e.TransferToAccountID)
		case core.Expense:
		}
		amount := quoted(currency.Format(e.Amount, currencyCode))
		amount.Value = e.Amount.InexactFloat64()
		t.Rows = append(t.Rows, []Cell{
			text(e.Date.String()),
			text(e.Type.Label()),
			amount,
			text(e.Category),
			quoted(e.Description),
			text(accountName(e.AccountID)),
			text(to),
		})
	}
	return t
}

// Savings renders balances as plain two-decimal numbers.
func Savings(accounts []core.SavingsAccount) Table {
	t := Table{
		Name:   "Savings",
		Header: []string{"Bank Name", "Account Name", "Balance"},
		Rows:   make([][]Cell, 0, len(accounts)),
	}
	for _, a := range accounts {
		t.Rows = append(t.Rows, []Cell{
			text(a.BankName),
			text(a.AccountName),
			{Text: a.Balance.StringFixed(2), Value: a.Balance.InexactFloat64()},
		})
	}
	return t
}

func Investments(investments []core.Investment) Table {
	t := Table{
		Name:   "Investments",
		Header: []string{"Name", "Amount", "Date", "Notes"},
		Rows:   make([][]Cell, 0, len(investments)),
	}
	for _, inv := range investments {
		t.Rows = append(t.Rows, []Cell{
			text(inv.Name),
			{Text: inv.Amount.StringFixed(2), Value: inv.Amount.InexactFloat64()},
			text(inv.Date.String()),
			quoted(inv.Notes),
		})
	}
	return t
}

// FileName returns the download name for a table exported on day, e.g.
// "spending-2025-03-14.csv".
func FileName(table, ext string, day time.Time) string {
	return fmt.Sprintf("%s-%s.%s", strings.ToLower(table), day.Format(core.DateLayout), ext)
}
