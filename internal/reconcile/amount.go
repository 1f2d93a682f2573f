package reconcile

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wilo3161/aropostale-logistics-v2/internal/dataset"
)

// ParseAmount converts currency-formatted text into a decimal amount.
//
// Everything except digits, ',' and '.' is discarded, including currency
// symbols and signs. The decimal separator is then resolved:
//
//   - both ',' and '.' present: the right-most one is the decimal separator
//     ("$1,234.56" and "1.234,56" are both 1234.56)
//   - only ',': a single comma is decimal ("4,5" is 4.5), several are grouping
//   - only '.': a single dot is decimal, several are grouping
//
// Text that still fails to parse, such as "N/A", yields zero and false.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}

	s := normalizeSeparators(b.String())
	if s == "" || s == "." {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// AmountFromCell parses a cell as an amount. Numeric cells contribute their
// magnitude; text cells go through ParseAmount.
func AmountFromCell(c dataset.Cell) (decimal.Decimal, bool) {
	switch c.Kind() {
	case dataset.KindEmpty:
		return decimal.Zero, false
	case dataset.KindNumber:
		if d, err := decimal.NewFromString(c.String()); err == nil {
			return d.Abs(), true
		}
		f, _ := c.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(f).Abs(), true
	default:
		return ParseAmount(c.String())
	}
}

// normalizeSeparators rewrites s, made of digits and separators only, so that
// it carries at most one '.' as the decimal separator.
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			return splitDecimal(strings.ReplaceAll(s, ".", ""), ",")
		}
		return splitDecimal(strings.ReplaceAll(s, ",", ""), ".")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}

// splitDecimal keeps the last sep as the decimal point and drops the others.
func splitDecimal(s, sep string) string {
	i := strings.LastIndex(s, sep)
	whole := strings.ReplaceAll(s[:i], sep, "")
	return whole + "." + s[i+len(sep):]
}
