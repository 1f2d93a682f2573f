package reconcile

import (
	"regexp"
	"strings"

	"github.com/wilo3161/aropostale-logistics-v2/internal/dataset"
)

// GuideID is a canonical shipment guide (tracking) number: either "LC"
// followed by digits, or a bare run of at least six digits.
type GuideID string

var (
	lcGuidePattern      = regexp.MustCompile(`LC\d+`)
	numericGuidePattern = regexp.MustCompile(`\d{6,}`)
)

// NormalizeGuide extracts the canonical guide number from free text.
//
// The text is upper-cased and trimmed, then searched for an "LC<digits>"
// token and, failing that, for six or more consecutive digits. Only the
// first match is used. Text with no such token yields false; callers drop
// the row silently.
func NormalizeGuide(raw string) (GuideID, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}

	if m := lcGuidePattern.FindString(s); m != "" {
		return GuideID(m), true
	}
	if m := numericGuidePattern.FindString(s); m != "" {
		return GuideID(m), true
	}

	return "", false
}

// GuideFromCell normalizes the text of a cell. Empty cells are absent.
func GuideFromCell(c dataset.Cell) (GuideID, bool) {
	if c.IsEmpty() {
		return "", false
	}
	return NormalizeGuide(c.String())
}
