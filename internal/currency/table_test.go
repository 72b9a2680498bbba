package currency

import (
	"testing"

	"github.com/Rhymond/go-money"
)

func TestTableIsISO(t *testing.T) {
	for _, c := range All() {
		if money.GetCurrency(c.Code) == nil {
			t.Errorf("%s is not an ISO 4217 code", c.Code)
		}
		if c.Decimals != 0 && c.Decimals != 2 {
			t.Errorf("%s: unexpected decimals %d", c.Code, c.Decimals)
		}
		if c.ThousandsSeparator == c.DecimalSeparator {
			t.Errorf("%s: separators must differ", c.Code)
		}
		if c.SymbolPosition != Before && c.SymbolPosition != After {
			t.Errorf("%s: bad symbol position %q", c.Code, c.SymbolPosition)
		}
	}
}

func TestLookup(t *testing.T) {
	if got := Lookup("inr"); got.Code != "INR" || got.Symbol != "₹" {
		t.Fatalf("unexpected INR config: %+v", got)
	}
	if got := Lookup("ZZZ"); got.Code != DefaultCode {
		t.Fatalf("unknown code should fall back to USD, got %s", got.Code)
	}
	if got := Symbol("nope"); got != "$" {
		t.Fatalf("expected USD symbol fallback, got %q", got)
	}
	if got := Symbol("GBP"); got != "£" {
		t.Fatalf("unexpected GBP symbol %q", got)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("EUR") || !IsValid(" eur") {
		t.Fatalf("EUR should be valid")
	}
	if IsValid("ZZZ") || IsValid("") {
		t.Fatalf("unknown codes must not be valid")
	}
}

func TestOptions(t *testing.T) {
	opts := Options()
	if len(opts) != 30 {
		t.Fatalf("expected 30 currencies, got %d", len(opts))
	}
	if opts[0].Code != "USD" || opts[len(opts)-1].Code != "NGN" {
		t.Fatalf("unexpected order: first=%s last=%s", opts[0].Code, opts[len(opts)-1].Code)
	}
	seen := map[string]bool{}
	for _, o := range opts {
		if seen[o.Code] {
			t.Fatalf("duplicate code %s", o.Code)
		}
		seen[o.Code] = true
		if o.Symbol == "" || o.Name == "" {
			t.Fatalf("incomplete option %+v", o)
		}
	}

	all := All()
	all[0].Symbol = "changed"
	if Symbol("USD") != "$" {
		t.Fatalf("All must return a copy")
	}
}
