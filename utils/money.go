package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice formats an amount as a string like "£1,234.50".
// Uses comma as thousands separator and always two decimals.
func FormatPrice(amount decimal.Decimal, symbol string) string {
	neg := amount.IsNegative()
	if neg {
		amount = amount.Neg()
	}

	s := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(s) + len(whole)/3 + len(symbol) + 1)
	if neg {
		b.WriteString("-")
	}
	b.WriteString(symbol)

	// Insert separators from the left.
	rem := len(whole) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(whole[:rem])
	for i := rem; i < len(whole); i += 3 {
		b.WriteByte(',')
		b.WriteString(whole[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)

	return b.String()
}
