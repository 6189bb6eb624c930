// Package ner implements the deterministic three-phase entity extraction
// engine: exact dictionary matching over a normalized variant index, regex
// scanning with patterns derived from accession-number seeds, and fuzzy
// matching over leftover candidate tokens, merged into a non-overlapping
// span set.
package ner

import "sort"

// EntityType classifies an extracted entity.  The built-in types correspond
// to the bundled gazetteers; any other value is a user-declared custom type
// carried through unchanged.
type EntityType string

const (
	TypeCompound           EntityType = "compound_name"
	TypeTarget             EntityType = "target"
	TypeDisease            EntityType = "disease"
	TypeAccession          EntityType = "accession_number"
	TypeScreeningMethod    EntityType = "screening_method"
	TypeFunctionalCategory EntityType = "functional_category"
)

// builtinTypes is the closed set of entity types shipped with the engine.
var builtinTypes = map[EntityType]struct{}{
	TypeCompound:           {},
	TypeTarget:             {},
	TypeDisease:            {},
	TypeAccession:          {},
	TypeScreeningMethod:    {},
	TypeFunctionalCategory: {},
}

// IsBuiltin reports whether t is one of the bundled entity types.
func (t EntityType) IsBuiltin() bool {
	_, ok := builtinTypes[t]
	return ok
}

func (t EntityType) String() string { return string(t) }

// MatchMethod identifies which phase of the engine produced a match.
type MatchMethod string

const (
	MethodExact MatchMethod = "exact"
	MethodRegex MatchMethod = "regex"
	MethodFuzzy MatchMethod = "fuzzy"
)

// methodPriority orders methods for span conflict resolution; lower wins.
func methodPriority(m MatchMethod) int {
	switch m {
	case MethodExact:
		return 0
	case MethodRegex:
		return 1
	default:
		return 2
	}
}

// Match is a single entity occurrence in a text.  Start and End are byte
// offsets into the source text forming the half-open span [Start, End).
// Score is 100 for exact and regex matches and the similarity score (0–100)
// for fuzzy matches.
type Match struct {
	Text      string      `json:"text"`
	Start     int         `json:"start"`
	End       int         `json:"end"`
	Type      EntityType  `json:"entity_type"`
	Canonical string      `json:"canonical"`
	Method    MatchMethod `json:"match_method"`
	Score     int         `json:"score"`
}

// Len returns the span length in bytes.
func (m Match) Len() int { return m.End - m.Start }

// overlaps reports whether the spans of m and other share any offset.
func (m Match) overlaps(other Match) bool {
	return m.Start < other.End && other.Start < m.End
}

// Result is the outcome of extracting entities from one text.  Entities are
// ordered by start offset and never overlap.  A Result is constructed once
// and must not be mutated afterwards.
type Result struct {
	SourceText string  `json:"source_text"`
	Entities   []Match `json:"entities"`
}

// ByType returns the entities of the given type, preserving text order.
func (r *Result) ByType(t EntityType) []Match {
	var out []Match
	for _, m := range r.Entities {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// Grouped partitions the entities by type.  Iteration order over the map is
// unspecified; each group preserves text order.
func (r *Result) Grouped() map[EntityType][]Match {
	out := make(map[EntityType][]Match)
	for _, m := range r.Entities {
		out[m.Type] = append(out[m.Type], m)
	}
	return out
}

// Types returns the distinct entity types present in the result, sorted.
func (r *Result) Types() []EntityType {
	seen := make(map[EntityType]struct{})
	for _, m := range r.Entities {
		seen[m.Type] = struct{}{}
	}
	out := make([]EntityType, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Compounds returns the compound-name entities in text order.
func (r *Result) Compounds() []Match { return r.ByType(TypeCompound) }

// Targets returns the gene/protein target entities in text order.
func (r *Result) Targets() []Match { return r.ByType(TypeTarget) }

// Diseases returns the disease entities in text order.
func (r *Result) Diseases() []Match { return r.ByType(TypeDisease) }

// Accessions returns the accession-identifier entities in text order.
func (r *Result) Accessions() []Match { return r.ByType(TypeAccession) }
