// Package match decides whether two submitted names plausibly refer to the
// same guest. It is a heuristic for surfacing probable duplicate RSVPs to a
// human, not an identity system: false positives only prompt a review, false
// negatives let a true duplicate through uncaught.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Person is a bare name pair. It carries no identity beyond its two fields.
type Person struct {
	FirstName string
	LastName  string
}

// Normalize canonicalises a name for comparison: diacritics are stripped via
// NFD decomposition ("Sigvé" -> "sigve"), everything is lowercased, and any
// rune outside [a-z0-9 ] is deleted rather than replaced, so punctuation
// fuses its neighbours into one token ("O'Brien" -> "obrien", "Smith-Jones"
// -> "smithjones"). Whitespace runs collapse to a single space and the result
// is trimmed. Idempotent; empty input yields empty output.
func Normalize(name string) string {
	decomposed := norm.NFD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSpace := false

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			// Combining mark left over from decomposition.
			continue
		}
		r = unicode.ToLower(r)
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
		// Everything else is deleted, not replaced with a space.
	}

	return b.String()
}

// Tokenize normalizes and splits a name into its space-separated tokens.
// Empty or whitespace-only input yields an empty slice.
func Tokenize(name string) []string {
	return strings.Fields(Normalize(name))
}

// PersonMatches reports whether a and b plausibly name the same person.
// Last names gate the comparison: a person without any last-name token never
// matches. The relation is symmetric.
func PersonMatches(a, b Person) bool {
	aLast := Tokenize(a.LastName)
	bLast := Tokenize(b.LastName)
	if len(aLast) == 0 || len(bLast) == 0 {
		return false
	}
	if !lastNamesMatch(aLast, bLast) {
		return false
	}

	for _, at := range Tokenize(a.FirstName) {
		for _, bt := range Tokenize(b.FirstName) {
			if firstNameTokenMatches(at, bt) {
				return true
			}
		}
	}
	return false
}

// lastNamesMatch compares tokenized last names: the full rejoined names must
// be identical, or some token of one must be a substring of some token of the
// other. Tokens are compared whole, so a fused "smithjones" still matches a
// separately typed "smith".
func lastNamesMatch(a, b []string) bool {
	if strings.Join(a, " ") == strings.Join(b, " ") {
		return true
	}
	for _, at := range a {
		for _, bt := range b {
			if strings.Contains(at, bt) || strings.Contains(bt, at) {
				return true
			}
		}
	}
	return false
}

// firstNameTokenMatches accepts exact equality, a prefix in either direction
// ("chris"/"christopher"), or equal first three characters when both tokens
// are at least that long. The three-character rule is intentionally loose and
// intentionally misses pairs like "mike"/"michael" ("mik" != "mic").
func firstNameTokenMatches(a, b string) bool {
	if a == b {
		return true
	}
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		return true
	}
	return len(a) >= 3 && len(b) >= 3 && a[:3] == b[:3]
}
