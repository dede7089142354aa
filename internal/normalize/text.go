// Package normalize cleans text read from job pages and turns the various
// date shapes LinkedIn emits into plain YYYY-MM-DD strings.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text applies NFKC (folds non-breaking spaces and full-width forms) and
// collapses runs of whitespace into a single space.
func Text(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Fold lowercases s and strips combining marks, so "Hồ Chí Minh" and
// "ho chi minh" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return cases.Fold().String(result)
}

// SplitList splits a comma-separated settings value, trims every entry and
// drops empties. Entries are deduplicated case-insensitively, first wins.
func SplitList(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = Text(part)
		if part == "" {
			continue
		}
		key := Fold(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	return out
}

// MetaParts splits the "·"-separated meta line under a job title
// ("Jakarta · 2 weeks ago · Over 100 applicants"). It tolerates the
// mojibake form "Â·" that shows up when the page is decoded as Latin-1.
func MetaParts(line string) []string {
	line = strings.ReplaceAll(line, "Â·", "·")
	var parts []string
	for _, p := range strings.Split(line, "·") {
		if p = Text(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
