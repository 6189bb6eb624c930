package ner

import "sort"

// Resolve merges candidate matches from any combination of phases into the
// final non-overlapping sequence.  Candidates are ordered by start offset
// ascending, span length descending, then method priority (exact over regex
// over fuzzy), and accepted greedily: a candidate whose span overlaps an
// already-accepted span is discarded.  The greedy policy never reconsiders a
// discarded longer span, which is acceptable for the short entity spans of
// this domain.
//
// The remaining comparison keys exist only to make resolution fully
// deterministic when two candidates cover the identical span.
func Resolve(candidates []Match) []Match {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]Match, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		if pa, pb := methodPriority(a.Method), methodPriority(b.Method); pa != pb {
			return pa < pb
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Canonical < b.Canonical
	})

	accepted := make([]Match, 0, len(sorted))
	maxEnd := 0
	for _, c := range sorted {
		// Candidates arrive in start order, so a span overlaps an accepted
		// one iff it begins before the furthest accepted end.
		if c.Start < maxEnd {
			continue
		}
		accepted = append(accepted, c)
		if c.End > maxEnd {
			maxEnd = c.End
		}
	}
	return accepted
}
