package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

func names(id string) string {
	return map[string]string{"a": "Bank - Main", "b": "Bank - Savings"}[id]
}

func sampleEntries() []core.SpendingEntry {
	return []core.SpendingEntry{
		{
			Date: core.NewDate(2025, 3, 10), Amount: decimal.RequireFromString("1234.5"),
			Category: "Food", Description: `Dinner, "fancy"`, Type: core.Expense, AccountID: "a",
		},
		{
			Date: core.NewDate(2025, 3, 11), Amount: decimal.NewFromInt(40),
			Category: "Transfer", Type: core.Transfer, AccountID: "a", TransferToAccountID: "b",
		},
	}
}

func TestWriteCSVSpending(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Spending(sampleEntries(), names, "USD")); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"Date,Type,Amount,Category,Description,Account,Transfer To",
		`2025-03-10,Expense,"$1,234.50",Food,"Dinner, ""fancy""",Bank - Main,`,
		`2025-03-11,Transfer,"$40.00",Transfer,"",Bank - Main,Bank - Savings`,
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected CSV:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteCSVSavingsAndInvestments(t *testing.T) {
	var buf bytes.Buffer
	accounts := []core.SavingsAccount{{BankName: "Chase", AccountName: "Checking", Balance: decimal.RequireFromString("1500.5")}}
	if err := WriteCSV(&buf, Savings(accounts)); err != nil {
		t.Fatal(err)
	}
	if want := "Bank Name,Account Name,Balance\nChase,Checking,1500.50\n"; buf.String() != want {
		t.Fatalf("unexpected savings CSV %q", buf.String())
	}

	buf.Reset()
	invs := []core.Investment{{Name: "Index", Amount: decimal.NewFromInt(100), Date: core.NewDate(2025, 1, 2), Notes: "monthly"}}
	if err := WriteCSV(&buf, Investments(invs)); err != nil {
		t.Fatal(err)
	}
	if want := "Name,Amount,Date,Notes\nIndex,100.00,2025-01-02,\"monthly\"\n"; buf.String() != want {
		t.Fatalf("unexpected investments CSV %q", buf.String())
	}
}

func TestSpendingUsesCurrency(t *testing.T) {
	table := Spending(sampleEntries()[:1], names, "INR")
	if got := table.Rows[0][2].Text; got != "₹1,234.50" {
		t.Fatalf("unexpected amount %q", got)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	accounts := []core.SavingsAccount{{BankName: "Chase", AccountName: "Checking", Balance: decimal.NewFromInt(10)}}
	if err := WriteXLSX(&buf, Spending(sampleEntries(), names, "USD"), Savings(accounts)); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != "Spending" || sheets[1] != "Savings" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows("Spending")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "Date" || rows[2][6] != "Bank - Savings" {
		t.Fatalf("unexpected rows %v", rows)
	}
	if v, _ := f.GetCellValue("Savings", "C2"); v != "10" {
		t.Fatalf("balance should be stored as a number, got %q", v)
	}
}

func TestWriteXLSXNoTables(t *testing.T) {
	if err := WriteXLSX(&bytes.Buffer{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileName(t *testing.T) {
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if got := FileName("Spending", "csv", day); got != "spending-2025-03-14.csv" {
		t.Fatalf("unexpected %q", got)
	}
}
