// Package settings owns the application display configuration: currency,
// monthly spending target, the category list and its colors.
package settings

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/currency"
)

// DefaultColor is given to any category without a color.
const DefaultColor = "#6b7280"

// AppSettings is persisted as one JSON document.
type AppSettings struct {
	MonthlyTarget  decimal.Decimal   `json:"monthlyTarget"`
	Categories     []string          `json:"categories"`
	Currency       string            `json:"currency"`
	DarkMode       bool              `json:"darkMode"`
	AppTitle       string            `json:"appTitle"`
	LogoURL        string            `json:"logoUrl,omitempty"`
	CategoryColors map[string]string `json:"categoryColors"`
}

// defaults is the table Normalize falls back to, field by field.
var defaults = struct {
	monthlyTarget decimal.Decimal
	categories    []string
	colors        map[string]string
	currency      string
	appTitle      string
}{
	monthlyTarget: decimal.NewFromInt(2000),
	categories:    []string{"Food", "Transport", "Shopping", "Entertainment", "Bills", "Healthcare", "Other"},
	colors: map[string]string{
		"Food":          "#ef4444",
		"Transport":     "#3b82f6",
		"Shopping":      "#8b5cf6",
		"Entertainment": "#f59e0b",
		"Bills":         "#10b981",
		"Healthcare":    "#ec4899",
		"Other":         DefaultColor,
	},
	currency: currency.DefaultCode,
	appTitle: "Finance Tracker",
}

var (
	ErrInvalidTarget     = fmt.Errorf("%w: monthly target must be greater than zero", core.ErrValidation)
	ErrInvalidCurrency   = fmt.Errorf("%w: unsupported currency", core.ErrValidation)
	ErrNoCategories      = fmt.Errorf("%w: at least one category is required", core.ErrValidation)
	ErrDuplicateCategory = fmt.Errorf("%w: duplicate category", core.ErrValidation)
	ErrUnknownCategory   = fmt.Errorf("%w: unknown category", core.ErrValidation)
	ErrInvalidColor      = fmt.Errorf("%w: color must be a hex value like #a1b2c3", core.ErrValidation)
	ErrEmptyTitle        = fmt.Errorf("%w: app title is required", core.ErrValidation)
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Defaults returns a fresh copy of the default settings.
func Defaults() AppSettings {
	return AppSettings{
		MonthlyTarget:  defaults.monthlyTarget,
		Categories:     slices.Clone(defaults.categories),
		Currency:       defaults.currency,
		AppTitle:       defaults.appTitle,
		CategoryColors: cloneColors(defaults.colors),
	}
}

// Normalize repairs a loaded document: a non-positive target, unknown
// currency, empty title or empty category list are replaced by their
// defaults; categories are trimmed and deduplicated keeping first
// occurrence; every category gets a color and colors of absent categories
// are dropped. Normalize never fails and never mutates s.
func Normalize(s AppSettings) AppSettings {
	out := s
	if !out.MonthlyTarget.IsPositive() {
		out.MonthlyTarget = defaults.monthlyTarget
	}

	code := strings.ToUpper(strings.TrimSpace(out.Currency))
	if !currency.IsValid(code) {
		code = defaults.currency
	}
	out.Currency = code

	out.AppTitle = strings.TrimSpace(out.AppTitle)
	if out.AppTitle == "" {
		out.AppTitle = defaults.appTitle
	}
	out.LogoURL = strings.TrimSpace(out.LogoURL)

	out.Categories = dedupe(out.Categories)
	if len(out.Categories) == 0 {
		out.Categories = slices.Clone(defaults.categories)
	}
	out.CategoryColors = colorsFor(out.Categories, s.CategoryColors)
	return out
}

// Validate reports the first problem with s without repairing it.
func Validate(s AppSettings) error {
	if !s.MonthlyTarget.IsPositive() {
		return ErrInvalidTarget
	}
	if !currency.IsValid(s.Currency) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, s.Currency)
	}
	if strings.TrimSpace(s.AppTitle) == "" {
		return ErrEmptyTitle
	}
	if len(s.Categories) == 0 {
		return ErrNoCategories
	}
	seen := make(map[string]bool, len(s.Categories))
	for _, c := range s.Categories {
		name := strings.TrimSpace(c)
		if name == "" {
			return core.ErrEmptyCategory
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		seen[key] = true
	}
	for name, color := range s.CategoryColors {
		if !hexColor.MatchString(color) {
			return fmt.Errorf("%w: %s for %q", ErrInvalidColor, color, name)
		}
	}
	return nil
}

// HasCategory reports whether name is configured, ignoring surrounding
// whitespace.
func (s AppSettings) HasCategory(name string) bool {
	return slices.Contains(s.Categories, strings.TrimSpace(name))
}

// ColorOf returns the color of category, or DefaultColor.
func (s AppSettings) ColorOf(category string) string {
	if c, ok := s.CategoryColors[category]; ok && c != "" {
		return c
	}
	return DefaultColor
}

// Clone returns a deep copy.
func (s AppSettings) Clone() AppSettings {
	out := s
	out.Categories = slices.Clone(s.Categories)
	out.CategoryColors = cloneColors(s.CategoryColors)
	return out
}

// Patch carries a partial update; nil fields are left unchanged.
// CategoryColors entries are merged into the existing map.
type Patch struct {
	MonthlyTarget  *decimal.Decimal
	Categories     []string
	Currency       *string
	DarkMode       *bool
	AppTitle       *string
	LogoURL        *string
	CategoryColors map[string]string
}

// Apply returns s with p merged in. The result is validated before
// normalization so that invalid input is rejected rather than repaired.
func (p Patch) Apply(s AppSettings) (AppSettings, error) {
	out := s.Clone()
	if p.MonthlyTarget != nil {
		out.MonthlyTarget = *p.MonthlyTarget
	}
	if p.Categories != nil {
		out.Categories = trimAll(p.Categories)
	}
	if p.Currency != nil {
		out.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.DarkMode != nil {
		out.DarkMode = *p.DarkMode
	}
	if p.AppTitle != nil {
		out.AppTitle = *p.AppTitle
	}
	if p.LogoURL != nil {
		out.LogoURL = *p.LogoURL
	}
	for name, color := range p.CategoryColors {
		if !slices.Contains(out.Categories, name) {
			return s, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		out.CategoryColors[name] = color
	}
	if err := Validate(out); err != nil {
		return s, err
	}
	return Normalize(out), nil
}

func dedupe(categories []string) []string {
	out := make([]string, 0, len(categories))
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func trimAll(categories []string) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func colorsFor(categories []string, existing map[string]string) map[string]string {
	out := make(map[string]string, len(categories))
	for _, c := range categories {
		color := existing[c]
		if !hexColor.MatchString(color) {
			color = DefaultColor
		}
		out[c] = color
	}
	return out
}

func cloneColors(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsValidation reports whether err is an input problem rather than a storage
// failure.
func IsValidation(err error) bool {
	return errors.Is(err, core.ErrValidation)
}
