package ner

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// greekPairs maps Greek symbols to their spelled names.  Variant generation
// substitutes in both directions so "IFN-γ" and "IFN-gamma" resolve to the
// same canonical term.
var greekPairs = []struct {
	symbol string
	name   string
}{
	{"α", "alpha"},
	{"β", "beta"},
	{"γ", "gamma"},
	{"δ", "delta"},
	{"ε", "epsilon"},
	{"ζ", "zeta"},
	{"η", "eta"},
	{"θ", "theta"},
	{"κ", "kappa"},
	{"λ", "lambda"},
	{"μ", "mu"},
	{"ν", "nu"},
	{"ξ", "xi"},
	{"π", "pi"},
	{"ρ", "rho"},
	{"σ", "sigma"},
	{"τ", "tau"},
	{"φ", "phi"},
	{"χ", "chi"},
	{"ψ", "psi"},
	{"ω", "omega"},
}

// dashRunes are the Unicode dash variants unified to ASCII "-" during
// normalization.
const dashRunes = "‐‑‒–—―﹘﹣－"

// Normalize produces the canonical lookup form of a string: Unicode
// case-folded, dashes unified to "-", and whitespace runs collapsed to a
// single space with outer whitespace trimmed.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if b.Len() > 0 {
				pendingSpace = true
			}
		case strings.ContainsRune(dashRunes, r):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteByte('-')
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	// Case folding handles Unicode equivalences plain ToLower misses
	// (final sigma, dotless I).  A Caser is stateful, so fold per call.
	return cases.Fold().String(b.String())
}

// expandVariants generates the set of normalized lookup keys for a canonical
// term.  The variants are a union, not a cross product, which bounds index
// growth to a constant factor per term:
//
//   - case-folded form
//   - hyphen-removed form, and hyphen-inserted at letter/digit boundaries
//   - period-removed form ("M. tuberculosis" ↔ "M tuberculosis")
//   - Greek symbol ↔ spelled-name substitution
func expandVariants(term string) []string {
	raw := map[string]struct{}{term: {}}
	lower := strings.ToLower(term)
	raw[lower] = struct{}{}

	for _, g := range greekPairs {
		if strings.Contains(lower, g.symbol) {
			raw[strings.ReplaceAll(lower, g.symbol, g.name)] = struct{}{}
		}
		if strings.Contains(lower, g.name) {
			raw[strings.ReplaceAll(lower, g.name, g.symbol)] = struct{}{}
		}
	}

	if strings.Contains(term, "-") {
		raw[strings.ReplaceAll(term, "-", "")] = struct{}{}
	}
	if hyphenated := insertLetterDigitHyphens(term); hyphenated != term {
		raw[hyphenated] = struct{}{}
	}

	if strings.Contains(term, ". ") {
		raw[strings.ReplaceAll(term, ". ", " ")] = struct{}{}
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for v := range raw {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; !dup {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// insertLetterDigitHyphens inserts "-" at every letter→digit boundary, so
// "DprE1" also indexes as "DprE-1".
func insertLetterDigitHyphens(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	prevLetter := false
	for _, r := range s {
		if prevLetter && unicode.IsDigit(r) {
			b.WriteByte('-')
		}
		b.WriteRune(r)
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}

// isTokenRune reports whether r can be part of an entity token: letters
// (Greek included), digits, hyphen, and period.
func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' ||
		strings.ContainsRune(dashRunes, r)
}

// isWordRune reports whether r is a word character for boundary checks.
// A match span must not be directly adjacent to a word character, which
// would extend it into a longer token.  Hyphen and period are token runes
// but not word runes, so "anti-TB" still yields "TB" and a sentence-final
// period does not block the preceding term.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
