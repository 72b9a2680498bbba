// Package abbrev compresses large magnitudes into K/M/B/T short forms for
// summaries and chart axes.
//
// Abbreviate and FormatForChart deliberately follow different decimal
// policies; they must not be merged.
package abbrev

import (
	"math"
	"strconv"
	"strings"
)

type threshold struct {
	value  float64
	suffix string
}

// thresholds is ordered largest first.
var thresholds = []threshold{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// largest returns the biggest threshold not exceeding abs. abs must be at
// least 1000.
func largest(abs float64) threshold {
	for _, t := range thresholds {
		if abs >= t.value {
			return t
		}
	}
	return thresholds[len(thresholds)-1]
}

// signed prefixes s with a minus for negative values, unless rounding has
// left nothing but zero.
func signed(value float64, s string) string {
	if value < 0 && strings.Trim(s, "0.") != "" {
		return "-" + s
	}
	return s
}

func hasFraction(q float64) bool {
	return q != math.Trunc(q)
}

// oneDecimal rounds half away from zero before printing one decimal place.
func oneDecimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}

func integer(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

// Abbreviate returns value in short form: 1500 -> "1.5K", 150000000 ->
// "150M". Values below 1000 are returned as-is. A decimal place is shown when
// forceDecimals is set, or when the scaled value has a fractional part and is
// below 100.
func Abbreviate(value float64, forceDecimals bool) string {
	abs := math.Abs(value)
	if abs < 1000 {
		if forceDecimals {
			return signed(value, oneDecimal(abs))
		}
		return signed(value, strconv.FormatFloat(abs, 'f', -1, 64))
	}
	t := largest(abs)
	q := abs / t.value
	if forceDecimals || (hasFraction(q) && q < 100) {
		return signed(value, oneDecimal(q)) + t.suffix
	}
	return signed(value, integer(q)) + t.suffix
}

// AbbreviateCurrency prefixes the abbreviated value with symbol, no space.
func AbbreviateCurrency(value float64, symbol string, forceDecimals bool) string {
	return symbol + Abbreviate(value, forceDecimals)
}

// FormatForChart renders an axis or tooltip label. Values below 1000 are
// rounded integers. Above that, scaled values from 100 up are integers,
// values from 10 to 100 keep one decimal only when fractional, and values
// below 10 always keep one decimal.
func FormatForChart(value float64, symbol string) string {
	if value == 0 {
		return symbol + "0"
	}
	abs := math.Abs(value)
	if abs < 1000 {
		return symbol + signed(value, integer(abs))
	}
	t := largest(abs)
	q := abs / t.value
	var s string
	switch {
	case q >= 100:
		s = integer(q)
	case q >= 10:
		if hasFraction(q) {
			s = oneDecimal(q)
		} else {
			s = integer(q)
		}
	default:
		s = oneDecimal(q)
	}
	return symbol + signed(value, s) + t.suffix
}

// ChartRange is a y-axis range with evenly spaced ticks.
type ChartRange struct {
	Min  float64
	Max  float64
	Step float64
}

type band struct {
	limit float64
	max   float64
	step  float64
}

var bands = []band{
	{1, 1, 0.2},
	{2, 2, 0.5},
	{5, 5, 1},
}

// SuggestChartRange pads maxValue by 20% and snaps it to a "nice" bound.
// Min is always zero. Non-positive or non-finite input yields {0, 1, 0.2}.
func SuggestChartRange(maxValue float64) ChartRange {
	padded := maxValue * 1.2
	if padded <= 0 || math.IsNaN(padded) || math.IsInf(padded, 0) {
		return ChartRange{Min: 0, Max: 1, Step: 0.2}
	}
	magnitude := math.Pow(10, math.Floor(math.Log10(padded)))
	normalized := padded / magnitude
	for _, b := range bands {
		if normalized <= b.limit {
			return ChartRange{Min: 0, Max: b.max * magnitude, Step: b.step * magnitude}
		}
	}
	return ChartRange{Min: 0, Max: 10 * magnitude, Step: 2 * magnitude}
}
