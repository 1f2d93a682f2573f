package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the value held by a Cell.
type Kind int

const (
	// KindEmpty is a blank cell.
	KindEmpty Kind = iota
	// KindText is free text.
	KindText
	// KindNumber is a value that parses as a plain number.
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a single spreadsheet value. Spreadsheet exports mix text and
// numbers in the same column, so every cell keeps its original text alongside
// the tag. Conversions built on top of Cell never fail.
type Cell struct {
	kind   Kind
	text   string
	number float64
}

// NewCell classifies the decoded text of a cell. Only finite values are
// numbers; "NaN" and "Inf" stay text.
func NewCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Cell{kind: KindNumber, text: trimmed, number: f}
	}
	return Cell{kind: KindText, text: raw}
}

// TextCell returns a text cell regardless of content.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{kind: KindNumber, text: strconv.FormatFloat(f, 'f', -1, 64), number: f}
}

// Kind returns the cell tag.
func (c Cell) Kind() Kind { return c.kind }

// IsEmpty reports whether the cell is blank.
func (c Cell) IsEmpty() bool { return c.kind == KindEmpty }

// String returns the cell's textual form; empty for blank cells.
func (c Cell) String() string { return c.text }

// Float returns the numeric value for number cells.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.number, true
}
