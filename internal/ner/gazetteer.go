package ner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// Candidate is one canonical term a normalized variant key can resolve to.
// A key colliding across entity types keeps every candidate; the collision
// is resolved deterministically at match time.
type Candidate struct {
	Canonical string
	Type      EntityType
}

// Builder accumulates gazetteer terms and produces an immutable Store.
// It follows a single-writer-then-freeze discipline: once Build returns,
// the Builder rejects further mutation and the Store is safe for concurrent
// readers.
type Builder struct {
	terms     map[EntityType]map[string]struct{}
	exclusive bool
	built     bool
}

// NewBuilder returns an empty Builder with the permissive cross-type policy:
// the same canonical string may be registered under several entity types.
func NewBuilder() *Builder {
	return &Builder{terms: make(map[EntityType]map[string]struct{})}
}

// SetExclusiveTypes switches the cross-type collision policy.  When enabled,
// Build fails with a configuration error if the literal same canonical
// string is registered under two different entity types.
func (b *Builder) SetExclusiveTypes(exclusive bool) { b.exclusive = exclusive }

// AddTerms registers literal terms under the given entity type.  Duplicate
// terms collapse to a single canonical entry; empty and whitespace-only
// terms are ignored.
func (b *Builder) AddTerms(t EntityType, terms ...string) error {
	if b.built {
		return apperrors.New(apperrors.ErrCodeStoreFrozen, "gazetteer store is already built")
	}
	if t == "" {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "entity type must not be empty")
	}
	set, ok := b.terms[t]
	if !ok {
		set = make(map[string]struct{})
		b.terms[t] = set
	}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		set[term] = struct{}{}
	}
	return nil
}

// Build finalizes the accumulated terms into an immutable Store: it expands
// every term into its normalized variants, derives accession regex patterns
// from the accession-number seeds, and computes the store fingerprint.
// On any configuration error no store is returned; a partially built store
// is never exposed.
func (b *Builder) Build() (*Store, error) {
	if b.built {
		return nil, apperrors.New(apperrors.ErrCodeStoreFrozen, "gazetteer store is already built")
	}

	if b.exclusive {
		if err := b.checkExclusive(); err != nil {
			return nil, err
		}
	}

	s := &Store{index: make(map[string][]Candidate)}

	types := make([]EntityType, 0, len(b.terms))
	for t := range b.terms {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		canonicals := make([]string, 0, len(b.terms[t]))
		for term := range b.terms[t] {
			canonicals = append(canonicals, term)
		}
		sort.Strings(canonicals)

		for _, canonical := range canonicals {
			cand := Candidate{Canonical: canonical, Type: t}
			s.canonicals = append(s.canonicals, cand)
			for _, key := range expandVariants(canonical) {
				s.index[key] = append(s.index[key], cand)
				if len(key) > s.maxKeyLen {
					s.maxKeyLen = len(key)
				}
			}
		}
	}

	// Keys with multiple candidates resolve deterministically: sorted by
	// entity type, then canonical.
	for key, cands := range s.index {
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].Type != cands[j].Type {
				return cands[i].Type < cands[j].Type
			}
			return cands[i].Canonical < cands[j].Canonical
		})
		s.index[key] = dedupeCandidates(cands)
	}

	if seeds, ok := b.terms[TypeAccession]; ok {
		sorted := make([]string, 0, len(seeds))
		for seed := range seeds {
			sorted = append(sorted, seed)
		}
		sort.Strings(sorted)
		patterns, err := DerivePatterns(sorted)
		if err != nil {
			return nil, err
		}
		s.patterns = patterns
	}

	s.fingerprint = fingerprint(s)
	b.built = true
	return s, nil
}

// checkExclusive returns a configuration error naming the first canonical
// string registered under more than one entity type.
func (b *Builder) checkExclusive() error {
	owner := make(map[string]EntityType)
	types := make([]EntityType, 0, len(b.terms))
	for t := range b.terms {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		canonicals := make([]string, 0, len(b.terms[t]))
		for term := range b.terms[t] {
			canonicals = append(canonicals, term)
		}
		sort.Strings(canonicals)
		for _, canonical := range canonicals {
			if prev, ok := owner[canonical]; ok && prev != t {
				return apperrors.Newf(apperrors.ErrCodeConfigTypeConflict,
					"term %q is registered as both %q and %q", canonical, prev, t)
			}
			owner[canonical] = t
		}
	}
	return nil
}

func dedupeCandidates(cands []Candidate) []Candidate {
	out := cands[:0]
	for i, c := range cands {
		if i == 0 || c != cands[i-1] {
			out = append(out, c)
		}
	}
	return out
}

// Store is the frozen gazetteer: the normalized variant index, the ordered
// canonical universe, and the derived accession patterns.  A Store is
// immutable after Build and safe for concurrent use.
type Store struct {
	index       map[string][]Candidate
	canonicals  []Candidate
	patterns    []AccessionPattern
	maxKeyLen   int
	fingerprint string
}

// LookupExact resolves a normalized key to its candidates, or nil.
// The returned slice must not be modified.
func (s *Store) LookupExact(key string) []Candidate {
	return s.index[key]
}

// Canonicals returns the canonical terms, optionally restricted to the given
// entity types.  The result is ordered by (type, canonical) and must not be
// modified.
func (s *Store) Canonicals(types ...EntityType) []Candidate {
	if len(types) == 0 {
		return s.canonicals
	}
	want := make(map[EntityType]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	var out []Candidate
	for _, c := range s.canonicals {
		if _, ok := want[c.Type]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Patterns returns the accession regex patterns derived at build time.
func (s *Store) Patterns() []AccessionPattern { return s.patterns }

// MaxKeyLen returns the byte length of the longest variant key, which bounds
// the exact matcher's candidate window.
func (s *Store) MaxKeyLen() int { return s.maxKeyLen }

// TermCount returns the number of canonical terms across all types.
func (s *Store) TermCount() int { return len(s.canonicals) }

// Fingerprint returns a stable hex digest of the store contents.  Two stores
// built from the same terms have equal fingerprints, which makes it suitable
// as a cache-key component for extraction results.
func (s *Store) Fingerprint() string { return s.fingerprint }

func fingerprint(s *Store) string {
	h := sha256.New()
	for _, c := range s.canonicals {
		fmt.Fprintf(h, "%s\x00%s\n", c.Type, c.Canonical)
	}
	for _, p := range s.patterns {
		fmt.Fprintf(h, "%s\x00%s\n", p.TemplateID, p.Pattern.String())
	}
	return hex.EncodeToString(h.Sum(nil))
}
