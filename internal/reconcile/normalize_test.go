package reconcile

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/wilo3161/aropostale-logistics-v2/internal/dataset"
)

func TestNormalizeGuide(t *testing.T) {
	tests := []struct {
		raw   string
		want  GuideID
		found bool
	}{
		{"LC004821", "LC004821", true},
		{"  lc004821 ", "LC004821", true},
		{"Guia LC12 / LC34", "LC12", true},
		{"REF-123456789", "123456789", true},
		{"12345", "", false},
		{"no guide here", "", false},
		{"", "", false},
		{"LC-99 0012345678", "0012345678", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeGuide(tt.raw)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeGuideIsIdempotent(t *testing.T) {
	for _, raw := range []string{" lc004821", "guia 000123456", "LC1"} {
		first, ok := NormalizeGuide(raw)
		assert.True(t, ok)
		second, ok := NormalizeGuide(string(first))
		assert.True(t, ok)
		assert.Equal(t, first, second)
	}
}

func TestGuideFromCell(t *testing.T) {
	id, ok := GuideFromCell(dataset.NewCell("123456789"))
	assert.True(t, ok)
	assert.Equal(t, GuideID("123456789"), id)

	id, ok = GuideFromCell(dataset.NewCell("000123456"))
	assert.True(t, ok)
	assert.Equal(t, GuideID("000123456"), id, "leading zeros are kept")

	_, ok = GuideFromCell(dataset.Cell{})
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		found bool
	}{
		{"4,5", "4.5", true},
		{"$1,234.56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{"1,234,567", "1234567", true},
		{"1.234.567", "1234567", true},
		{"12.50", "12.5", true},
		{"USD 300", "300", true},
		{"-15,00", "15", true},
		{"N/A", "0", false},
		{"", "0", false},
		{".", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseAmount(tt.raw)
			assert.Equal(t, tt.found, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestAmountFromCell(t *testing.T) {
	d, ok := AmountFromCell(dataset.NumberCell(10.25))
	assert.True(t, ok)
	assert.Equal(t, "10.25", d.String())

	d, ok = AmountFromCell(dataset.NewCell("$20.10"))
	assert.True(t, ok)
	assert.Equal(t, "20.1", d.String())

	d, ok = AmountFromCell(dataset.NewCell("-3"))
	assert.True(t, ok)
	assert.Equal(t, "3", d.String())

	d, ok = AmountFromCell(dataset.Cell{})
	assert.False(t, ok)
	assert.True(t, d.IsZero())

	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Infinity", "infinity"} {
		d, ok = AmountFromCell(dataset.NewCell(raw))
		assert.False(t, ok, raw)
		assert.True(t, d.IsZero(), raw)
	}

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		d, ok = AmountFromCell(dataset.NumberCell(f))
		assert.False(t, ok)
		assert.True(t, d.IsZero())
	}
}
