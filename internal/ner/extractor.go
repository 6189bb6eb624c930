package ner

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// DefaultFuzzyThreshold is the similarity floor applied when Options leaves
// FuzzyThreshold unset.
const DefaultFuzzyThreshold = 85

// Options configures extractor construction.  The zero value loads only the
// bundled gazetteers with the default fuzzy threshold.
type Options struct {
	// FuzzyThreshold is the minimum similarity score (0–100) for the fuzzy
	// phase.  0 disables fuzzy matching entirely.  Nil means the default.
	FuzzyThreshold *int

	// GazetteerDir is an optional directory of additional term-list files
	// merged on top of the bundled gazetteers.
	GazetteerDir string

	// ExtraGazetteers are programmatic additions, merged with file-sourced
	// terms of the same entity type.
	ExtraGazetteers map[EntityType][]string

	// FuzzyTypes optionally restricts the fuzzy phase's canonical universe
	// to the listed entity types.  Empty means all types.
	FuzzyTypes []EntityType

	// SkipBundled drops the embedded gazetteers, leaving only directory and
	// programmatic sources.  Intended for tests and fully custom setups.
	SkipBundled bool

	// ExclusiveTypes makes construction fail when the same literal term is
	// registered under two entity types.  Default is permissive.
	ExclusiveTypes bool
}

// Extractor runs the three matching phases over input text against a frozen
// gazetteer store.  Construction builds the store once; afterwards the
// extractor is immutable and safe for concurrent use.
type Extractor struct {
	store     *Store
	threshold int
	exact     *ExactMatcher
	regex     *RegexMatcher
	fuzzy     *FuzzyMatcher
}

// New builds an extractor from the bundled gazetteers plus any sources named
// in opts.  All configuration failures surface here; a partially configured
// extractor is never returned.
func New(opts Options) (*Extractor, error) {
	threshold := DefaultFuzzyThreshold
	if opts.FuzzyThreshold != nil {
		threshold = *opts.FuzzyThreshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, apperrors.Newf(apperrors.ErrCodeConfigInvalidThreshold,
			"fuzzy threshold %d is out of range [0, 100]", threshold)
	}

	builder := NewBuilder()
	builder.SetExclusiveTypes(opts.ExclusiveTypes)

	if !opts.SkipBundled {
		bundled, err := LoadBundled()
		if err != nil {
			return nil, err
		}
		if err := addAll(builder, bundled); err != nil {
			return nil, err
		}
	}

	if opts.GazetteerDir != "" {
		fromDir, err := LoadGazetteerDir(opts.GazetteerDir)
		if err != nil {
			return nil, err
		}
		if err := addAll(builder, fromDir); err != nil {
			return nil, err
		}
	}

	if err := addAll(builder, opts.ExtraGazetteers); err != nil {
		return nil, err
	}

	store, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return NewWithStore(store, threshold, opts.FuzzyTypes...)
}

// NewWithStore wraps an already-built store.  Useful when several extractors
// with different thresholds share one store.
func NewWithStore(store *Store, threshold int, fuzzyTypes ...EntityType) (*Extractor, error) {
	if store == nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreNotBuilt, "nil gazetteer store")
	}
	if threshold < 0 || threshold > 100 {
		return nil, apperrors.Newf(apperrors.ErrCodeConfigInvalidThreshold,
			"fuzzy threshold %d is out of range [0, 100]", threshold)
	}
	return &Extractor{
		store:     store,
		threshold: threshold,
		exact:     NewExactMatcher(store),
		regex:     NewRegexMatcher(store.Patterns()),
		fuzzy:     NewFuzzyMatcher(store, threshold, fuzzyTypes...),
	}, nil
}

func addAll(b *Builder, gazetteers map[EntityType][]string) error {
	for t, terms := range gazetteers {
		if err := b.AddTerms(t, terms...); err != nil {
			return err
		}
	}
	return nil
}

// Store returns the underlying frozen gazetteer store.
func (e *Extractor) Store() *Store { return e.store }

// FuzzyThreshold returns the configured similarity floor.
func (e *Extractor) FuzzyThreshold() int { return e.threshold }

// Fingerprint identifies the extractor configuration for result caching:
// equal fingerprints guarantee byte-identical extraction results.
func (e *Extractor) Fingerprint() string {
	return fmt.Sprintf("%s:%d", e.store.Fingerprint(), e.threshold)
}

// Extract runs the full pipeline over one text.  It is a pure function of
// the text and the frozen store: repeated calls yield identical results, and
// empty or whitespace-only input yields an empty result, never an error.
func (e *Extractor) Extract(text string) *Result {
	if strings.TrimSpace(text) == "" {
		return &Result{SourceText: text}
	}

	candidates := e.exact.Match(text)
	candidates = append(candidates, e.regex.Match(text)...)
	provisional := Resolve(candidates)

	if e.threshold > 0 {
		fuzzy := e.fuzzy.Match(text, provisional)
		if len(fuzzy) > 0 {
			provisional = Resolve(append(provisional, fuzzy...))
		}
	}

	return &Result{SourceText: text, Entities: provisional}
}

// ExtractBatch extracts every text independently across a bounded worker
// pool.  Results are indexed by input position, so the output order always
// matches the input order regardless of completion order.  The only error
// source is context cancellation.
func (e *Extractor) ExtractBatch(ctx context.Context, texts []string, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	results := make([]*Result, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Extract(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
