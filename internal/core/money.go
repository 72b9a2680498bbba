// Package core provides money parsing and handling utilities.
//
// This file contains the strict parser used for amounts typed on the command
// line. Display-oriented, per-currency parsing lives in package currency.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fractional digits amounts are stored with.
const AmountPlaces = 2

// ParseAmount converts a decimal string to an amount rounded to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive.
// Returns ErrInvalidAmount for invalid formats, negative values, or zero.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil (half-up)
//	ParseAmount("12.344") -> 12.34, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return decimal.Zero, ErrInvalidAmount
	}
	raw := intPart
	if fracPart != "" {
		raw += "." + fracPart
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = RoundAmount(d)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundAmount rounds half away from zero to AmountPlaces.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
