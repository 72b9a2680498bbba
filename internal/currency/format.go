package currency

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Format renders amount in code's display convention, symbol included.
// Unknown codes render as USD. Negative amounts carry a leading "-".
func Format(amount decimal.Decimal, code string) string {
	cfg := Lookup(code)
	number := cfg.number(amount.Abs())
	sign := ""
	if isNegative(amount, cfg.Decimals) {
		sign = "-"
	}
	if cfg.SymbolPosition == After {
		return sign + number + " " + cfg.Symbol
	}
	return sign + cfg.Symbol + number
}

// FormatWithoutSymbol renders the number exactly as Format does but leaves
// symbol placement to the caller.
func FormatWithoutSymbol(amount decimal.Decimal, code string) string {
	cfg := Lookup(code)
	number := cfg.number(amount.Abs())
	if isNegative(amount, cfg.Decimals) {
		return "-" + number
	}
	return number
}

// isNegative ignores values that round to zero so "-0.00" never appears.
func isNegative(amount decimal.Decimal, places int32) bool {
	return amount.Round(places).IsNegative()
}

func (c Config) number(abs decimal.Decimal) string {
	fixed := abs.StringFixed(c.Decimals)
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	grouped := GrouperFor(c.Code).Group(intPart, c.ThousandsSeparator)
	if c.Decimals > 0 {
		return grouped + c.DecimalSeparator + fracPart
	}
	return grouped
}

// Parse is the inverse of Format. It strips the symbol and whitespace, splits
// on the decimal separator first, drops thousands separators from the
// integer part and reads the result as a plain decimal.
//
// Input that does not reduce to a number yields zero; callers treat zero as
// "unparseable" rather than as an error.
func Parse(formatted, code string) decimal.Decimal {
	cfg := Lookup(code)
	s := strings.TrimSpace(formatted)
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, cfg.Symbol, ""))
	if !negative && strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	if s == "" {
		return decimal.Zero
	}

	intPart, fracPart := s, ""
	if i := strings.LastIndex(s, cfg.DecimalSeparator); i >= 0 {
		intPart, fracPart = s[:i], s[i+len(cfg.DecimalSeparator):]
	}
	intPart = strings.ReplaceAll(intPart, cfg.ThousandsSeparator, "")
	intPart = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, intPart)
	if intPart == "" {
		intPart = "0"
	}
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return decimal.Zero
	}

	raw := intPart
	if fracPart != "" {
		raw += "." + fracPart
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return d.Neg()
	}
	return d
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
