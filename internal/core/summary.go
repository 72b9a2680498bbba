package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      decimal.Decimal
	Target     decimal.Decimal
	ByCategory []CategoryAmount
}

// Remaining is the part of the monthly target not yet spent. It is negative
// when the month is over target.
func (o MonthOverview) Remaining() decimal.Decimal {
	return o.Target.Sub(o.Total)
}

// OverTarget reports whether spending exceeded the target.
func (o MonthOverview) OverTarget() bool {
	return o.Target.IsPositive() && o.Total.GreaterThan(o.Target)
}

// TargetProgress returns spending as a percentage of the target, rounded to
// one decimal place. A zero target yields zero.
func (o MonthOverview) TargetProgress() decimal.Decimal {
	if !o.Target.IsPositive() {
		return decimal.Zero
	}
	return o.Total.Div(o.Target).Mul(decimal.NewFromInt(100)).Round(1)
}
