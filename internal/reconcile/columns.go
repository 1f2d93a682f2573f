package reconcile

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ResolveColumn returns the first header, in declared order, whose folded
// name contains any folded keyword. Matching is case and accent
// insensitive, so "Guía" matches "GUIA". The boolean is false when no header
// matches.
//
// Ties are broken by column order, never by keyword order: with headers
// ["Tracking", "Guide"] and keywords ["GUIDE", "TRACKING"] the result is
// "Tracking".
func ResolveColumn(headers, keywords []string) (string, bool) {
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = foldName(k); k != "" {
			folded = append(folded, k)
		}
	}

	for _, header := range headers {
		name := foldName(header)
		for _, k := range folded {
			if strings.Contains(name, k) {
				return header, true
			}
		}
	}

	return "", false
}

// suggestColumn returns the header closest to any keyword by edit distance.
// Nothing is suggested when the best candidate differs from the keyword by
// more than half of the keyword's length.
func suggestColumn(headers, keywords []string) string {
	best := ""
	bestDistance := -1

	for _, header := range headers {
		name := []rune(foldName(header))
		if len(name) == 0 {
			continue
		}
		for _, k := range keywords {
			kw := []rune(foldName(k))
			if len(kw) == 0 {
				continue
			}
			d := levenshtein.DistanceForStrings(name, kw, levenshtein.DefaultOptions)
			if d > len(kw)/2 {
				continue
			}
			if bestDistance < 0 || d < bestDistance {
				best, bestDistance = header, d
			}
		}
	}

	return best
}

// foldName upper-cases s and strips diacritics. The transformer chain is
// stateful, so a new one is built per call.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}
