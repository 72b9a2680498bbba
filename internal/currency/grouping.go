package currency

import "strings"

// Grouper is the strategy inserting separators into the integer digits of an
// amount. Each currency code is mapped to exactly one Grouper.
type Grouper interface {
	// Group returns digits with sep inserted between groups. digits holds
	// only ASCII digits and no sign.
	Group(digits, sep string) string
}

// ThousandsGrouper groups digits in threes from the right: 1,234,567.
type ThousandsGrouper struct{}

func (ThousandsGrouper) Group(digits, sep string) string {
	return groupFromRight(digits, sep, 3)
}

// LakhGrouper keeps the last three digits together and groups the rest in
// pairs: 12,34,567.
type LakhGrouper struct{}

func (LakhGrouper) Group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	return groupFromRight(head, sep, 2) + sep + tail
}

func groupFromRight(digits, sep string, size int) string {
	if len(digits) <= size {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % size
	if lead == 0 {
		lead = size
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += size {
		b.WriteString(sep)
		b.WriteString(digits[i : i+size])
	}
	return b.String()
}

// groupingStrategies maps currency codes to their grouping rule. Codes not
// listed use ThousandsGrouper.
var groupingStrategies = map[string]Grouper{
	"INR": LakhGrouper{},
}

// GrouperFor returns the grouping strategy for code.
func GrouperFor(code string) Grouper {
	if g, ok := groupingStrategies[normalizeCode(code)]; ok {
		return g
	}
	return ThousandsGrouper{}
}
