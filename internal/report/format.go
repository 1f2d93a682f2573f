package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders d with two decimals and thousands separators, for
// example "$1,234.56".
func FormatAmount(d decimal.Decimal) string {
	d = d.Round(2)
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)

	return b.String()
}
