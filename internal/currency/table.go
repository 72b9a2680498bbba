// Package currency formats and parses monetary amounts for the supported
// display currencies.
//
// Every supported code has a static Config describing its symbol, symbol
// placement, separators and number of decimals. Digit grouping is selected
// per code through a strategy registry (see grouping.go): most codes group
// in triplets, INR uses lakh/crore grouping.
package currency

import "strings"

// DefaultCode is used whenever an unknown currency code is requested.
const DefaultCode = "USD"

// SymbolPosition places the symbol relative to the number.
type SymbolPosition string

const (
	// Before renders the symbol immediately before the number, no space.
	Before SymbolPosition = "before"
	// After renders the symbol after the number, separated by one space.
	After SymbolPosition = "after"
)

// Config is the immutable display configuration of one currency.
type Config struct {
	Code               string
	Symbol             string
	Name               string
	Locale             string // informational only
	Decimals           int32
	SymbolPosition     SymbolPosition
	ThousandsSeparator string
	DecimalSeparator   string
}

// Option is the selector entry derived from a Config.
type Option struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// table lists the supported currencies in their presentation order.
var table = []Config{
	{"USD", "$", "US Dollar", "en-US", 2, Before, ",", "."},
	{"EUR", "€", "Euro", "de-DE", 2, After, ".", ","},
	{"GBP", "£", "British Pound", "en-GB", 2, Before, ",", "."},
	{"JPY", "¥", "Japanese Yen", "ja-JP", 0, Before, ",", "."},
	{"CNY", "¥", "Chinese Yuan", "zh-CN", 2, Before, ",", "."},
	{"INR", "₹", "Indian Rupee", "en-IN", 2, Before, ",", "."},
	{"IDR", "Rp", "Indonesian Rupiah", "id-ID", 2, Before, ".", ","},
	{"AUD", "A$", "Australian Dollar", "en-AU", 2, Before, ",", "."},
	{"CAD", "C$", "Canadian Dollar", "en-CA", 2, Before, ",", "."},
	{"CHF", "CHF", "Swiss Franc", "de-CH", 2, After, "'", "."},
	{"SGD", "S$", "Singapore Dollar", "en-SG", 2, Before, ",", "."},
	{"HKD", "HK$", "Hong Kong Dollar", "zh-HK", 2, Before, ",", "."},
	{"NZD", "NZ$", "New Zealand Dollar", "en-NZ", 2, Before, ",", "."},
	{"KRW", "₩", "South Korean Won", "ko-KR", 0, Before, ",", "."},
	{"MYR", "RM", "Malaysian Ringgit", "ms-MY", 2, Before, ",", "."},
	{"THB", "฿", "Thai Baht", "th-TH", 2, Before, ",", "."},
	{"PHP", "₱", "Philippine Peso", "en-PH", 2, Before, ",", "."},
	{"VND", "₫", "Vietnamese Dong", "vi-VN", 0, After, ".", ","},
	{"BRL", "R$", "Brazilian Real", "pt-BR", 2, Before, ".", ","},
	{"MXN", "MX$", "Mexican Peso", "es-MX", 2, Before, ",", "."},
	{"ZAR", "R", "South African Rand", "en-ZA", 2, Before, ",", "."},
	{"RUB", "₽", "Russian Ruble", "ru-RU", 2, After, " ", ","},
	{"TRY", "₺", "Turkish Lira", "tr-TR", 2, Before, ".", ","},
	{"SEK", "kr", "Swedish Krona", "sv-SE", 2, After, " ", ","},
	{"NOK", "kr", "Norwegian Krone", "nb-NO", 2, After, " ", ","},
	{"DKK", "kr.", "Danish Krone", "da-DK", 2, After, ".", ","},
	{"PLN", "zł", "Polish Zloty", "pl-PL", 2, After, " ", ","},
	{"AED", "د.إ", "UAE Dirham", "ar-AE", 2, After, ",", "."},
	{"SAR", "﷼", "Saudi Riyal", "ar-SA", 2, After, ",", "."},
	{"NGN", "₦", "Nigerian Naira", "en-NG", 2, Before, ",", "."},
}

var byCode = func() map[string]int {
	m := make(map[string]int, len(table))
	for i, c := range table {
		m[c.Code] = i
	}
	return m
}()

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the configuration for code, or the USD configuration when
// the code is not supported.
func Lookup(code string) Config {
	if i, ok := byCode[normalizeCode(code)]; ok {
		return table[i]
	}
	return table[byCode[DefaultCode]]
}

// IsValid reports whether code is a supported currency. Unlike the other
// lookups it does not fall back to USD.
func IsValid(code string) bool {
	_, ok := byCode[normalizeCode(code)]
	return ok
}

// Symbol returns the display symbol for code (USD's for unknown codes).
func Symbol(code string) string {
	return Lookup(code).Symbol
}

// All returns a copy of every supported configuration in table order.
func All() []Config {
	out := make([]Config, len(table))
	copy(out, table)
	return out
}

// Options returns the selector list in table order.
func Options() []Option {
	out := make([]Option, 0, len(table))
	for _, c := range table {
		out = append(out, Option{Code: c.Code, Symbol: c.Symbol, Name: c.Name})
	}
	return out
}
