// Package answer compares free-text answers against an expected translation.
package answer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Threshold is the minimum similarity accepted as a typo of the target.
const Threshold = 0.85

// Normalize lowercases s, strips diacritics and trims surrounding space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// Similarity is 1 - distance/max(len) over the normalized strings.
func Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// FuzzyMatch accepts equal strings, containment either way, or a close
// Levenshtein match. An empty input or target never matches.
func FuzzyMatch(input, target string) bool {
	in, want := Normalize(input), Normalize(target)
	if in == "" || want == "" {
		return false
	}
	if in == want || strings.Contains(in, want) || strings.Contains(want, in) {
		return true
	}
	return Similarity(in, want) >= Threshold
}
