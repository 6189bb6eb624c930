package ner

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// ---- exact matching ----

// ExactMatcher performs boundary-safe exact and variant lookup against the
// store's normalized index.
type ExactMatcher struct {
	store *Store
}

// NewExactMatcher returns a matcher bound to the given frozen store.
func NewExactMatcher(store *Store) *ExactMatcher {
	return &ExactMatcher{store: store}
}

// Match scans the text left to right.  At each token-run start it tries the
// candidate ends within the window longest-first against the variant index;
// the first hit is emitted and scanning resumes after the matched span.
// A position with no hit advances the scan by one rune.
func (m *ExactMatcher) Match(text string) []Match {
	var out []Match
	pos := 0
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !isTokenRune(r) || !boundaryBefore(text, pos) {
			pos += size
			continue
		}

		ends := m.candidateEnds(text, pos)
		matched := false
		for i := len(ends) - 1; i >= 0; i-- {
			end := ends[i]
			cands := m.store.LookupExact(Normalize(text[pos:end]))
			if len(cands) == 0 {
				continue
			}
			// Cross-type collisions keep all candidates in the index; the
			// emitted one is the first in (type, canonical) order.
			c := cands[0]
			out = append(out, Match{
				Text:      text[pos:end],
				Start:     pos,
				End:       end,
				Type:      c.Type,
				Canonical: c.Canonical,
				Method:    MethodExact,
				Score:     100,
			})
			pos = end
			matched = true
			break
		}
		if !matched {
			pos += size
		}
	}
	return out
}

// candidateEnds collects the boundary-safe end offsets reachable from start.
// The window grows across token runes and interior whitespace (so multi-word
// terms like "M. tuberculosis" stay reachable) and is capped once the
// normalized length of the slice exceeds the longest variant key.  An offset
// qualifies when it follows a token rune and the next rune, if any, is not a
// word rune.
func (m *ExactMatcher) candidateEnds(text string, start int) []int {
	maxNorm := m.store.MaxKeyLen()
	var ends []int
	normLen := 0
	pendingSpace := false

	j := start
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		if unicode.IsSpace(r) {
			pendingSpace = true
			j += size
			continue
		}
		if !isTokenRune(r) {
			return ends
		}
		if pendingSpace {
			normLen++
			pendingSpace = false
		}
		normLen += size
		if normLen > maxNorm {
			return ends
		}
		j += size
		if j == len(text) {
			ends = append(ends, j)
			return ends
		}
		if next, _ := utf8.DecodeRuneInString(text[j:]); !isWordRune(next) {
			ends = append(ends, j)
		}
	}
	return ends
}

// boundaryBefore reports whether the rune preceding offset, if any, is a
// non-word rune.  A word rune there would extend the span into a longer
// token, so the offset cannot start a match.
func boundaryBefore(text string, offset int) bool {
	if offset == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:offset])
	return !isWordRune(prev)
}

// ---- regex matching ----

// RegexMatcher scans text with the accession patterns derived at store build
// time.  Each pattern scans the full text independently; conflict resolution
// across patterns and phases is the resolver's job.
type RegexMatcher struct {
	patterns []AccessionPattern
}

// NewRegexMatcher returns a matcher over the given derived patterns.
func NewRegexMatcher(patterns []AccessionPattern) *RegexMatcher {
	return &RegexMatcher{patterns: patterns}
}

// Match returns every non-overlapping occurrence of every pattern.
func (m *RegexMatcher) Match(text string) []Match {
	var out []Match
	for _, p := range m.patterns {
		for _, loc := range p.Pattern.FindAllStringIndex(text, -1) {
			hit := text[loc[0]:loc[1]]
			out = append(out, Match{
				Text:      hit,
				Start:     loc[0],
				End:       loc[1],
				Type:      TypeAccession,
				Canonical: hit,
				Method:    MethodRegex,
				Score:     100,
			})
		}
	}
	return out
}

// ---- fuzzy matching ----

// FuzzyMatcher performs approximate lookup of leftover tokens against the
// canonical universe using normalized Levenshtein similarity.
type FuzzyMatcher struct {
	store     *Store
	threshold int
	universe  []Candidate
}

// NewFuzzyMatcher returns a matcher with the given similarity floor.
// An empty types list means the full canonical universe.
func NewFuzzyMatcher(store *Store, threshold int, types ...EntityType) *FuzzyMatcher {
	return &FuzzyMatcher{
		store:     store,
		threshold: threshold,
		universe:  store.Canonicals(types...),
	}
}

// token is a whitespace/punctuation-delimited candidate for fuzzy matching.
type token struct {
	text  string
	start int
	end   int
}

// Match fuzzy-matches the eligible tokens of text that do not overlap any
// span in accepted.  accepted must be sorted by start offset and
// non-overlapping.  Each emitted match carries its similarity score.
func (m *FuzzyMatcher) Match(text string, accepted []Match) []Match {
	if m.threshold <= 0 {
		return nil
	}

	var out []Match
	for _, tok := range tokenize(text) {
		if overlapsAny(accepted, tok.start, tok.end) {
			continue
		}
		if !eligibleToken(tok.text) {
			continue
		}
		best, score := m.bestCandidate(tok.text)
		if score < m.threshold {
			continue
		}
		out = append(out, Match{
			Text:      tok.text,
			Start:     tok.start,
			End:       tok.end,
			Type:      best.Type,
			Canonical: best.Canonical,
			Method:    MethodFuzzy,
			Score:     score,
		})
	}
	return out
}

// bestCandidate returns the highest-scoring canonical for the token.
// Ties prefer the shorter canonical string, then lexical order.
func (m *FuzzyMatcher) bestCandidate(tok string) (Candidate, int) {
	tokLen := utf8.RuneCountInString(tok)
	var best Candidate
	bestScore := -1

	for _, c := range m.universe {
		canLen := utf8.RuneCountInString(c.Canonical)
		if canLen == 0 {
			continue
		}
		// Length prefilter: very different lengths cannot clear a high
		// similarity floor, so skip the distance computation.
		ratio := float64(tokLen) / float64(canLen)
		if ratio < 0.7 || ratio > 1.4 {
			continue
		}
		score := similarity(tok, c.Canonical)
		if score > bestScore || (score == bestScore && tieBreak(c, best)) {
			best = c
			bestScore = score
		}
	}
	return best, bestScore
}

func tieBreak(c, incumbent Candidate) bool {
	cl, il := len(c.Canonical), len(incumbent.Canonical)
	if cl != il {
		return cl < il
	}
	return c.Canonical < incumbent.Canonical
}

// similarity computes a 0–100 score from the case-insensitive Levenshtein
// distance, normalized by the longer string's rune count.
func similarity(a, b string) int {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(strings.ToLower(a), strings.ToLower(b))
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}

// eligibleToken applies the fuzzy candidate filter: at least 4 runes, and
// either an uppercase first rune or a digit anywhere.
func eligibleToken(tok string) bool {
	if utf8.RuneCountInString(tok) < 4 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(tok)
	if unicode.IsUpper(first) {
		return true
	}
	return strings.IndexFunc(tok, unicode.IsDigit) >= 0
}

// tokenize splits text into maximal token-rune runs with leading and
// trailing hyphens/periods trimmed, so "tuberculosis." yields the bare word.
func tokenize(text string) []token {
	var out []token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTokenRune(r) {
			i += size
			continue
		}
		start := i
		j := i
		for j < len(text) {
			r, size := utf8.DecodeRuneInString(text[j:])
			if !isTokenRune(r) {
				break
			}
			j += size
		}
		if s, e, ok := trimNonWord(text, start, j); ok {
			out = append(out, token{text: text[s:e], start: s, end: e})
		}
		i = j
	}
	return out
}

// trimNonWord shrinks [start, end) until both edges are word runes.
func trimNonWord(text string, start, end int) (int, int, bool) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if isWordRune(r) {
			break
		}
		start += size
	}
	for start < end {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if isWordRune(r) {
			break
		}
		end -= size
	}
	return start, end, start < end
}

// overlapsAny reports whether [start, end) overlaps any accepted span.
func overlapsAny(accepted []Match, start, end int) bool {
	for _, m := range accepted {
		if m.Start >= end {
			return false
		}
		if start < m.End && m.Start < end {
			return true
		}
	}
	return false
}
