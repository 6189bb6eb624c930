package ner

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

func intPtr(v int) *int { return &v }

func testExtractor(t *testing.T, threshold int) *Extractor {
	t.Helper()
	e, err := New(Options{
		FuzzyThreshold: intPtr(threshold),
		SkipBundled:    true,
		ExtraGazetteers: map[EntityType][]string{
			TypeTarget:    {"InhA", "DprE1", "AtpE", "MmpL3"},
			TypeCompound:  {"Bedaquiline", "Isoniazid"},
			TypeDisease:   {"tuberculosis", "M. tuberculosis"},
			TypeAccession: {"Rv0005", "P9WGR1"},
		},
	})
	require.NoError(t, err)
	return e
}

func TestExtractEndToEnd(t *testing.T) {
	e := testExtractor(t, 85)

	result := e.Extract("Bedaquiline inhibits AtpE (Rv1305) in M. tuberculosis.")

	require.Len(t, result.Entities, 4)
	assert.Equal(t, "Bedaquiline", result.Entities[0].Canonical)
	assert.Equal(t, MethodExact, result.Entities[0].Method)
	assert.Equal(t, "AtpE", result.Entities[1].Canonical)
	assert.Equal(t, "Rv1305", result.Entities[2].Canonical)
	assert.Equal(t, MethodRegex, result.Entities[2].Method)
	assert.Equal(t, "M. tuberculosis", result.Entities[3].Canonical)

	require.Len(t, result.Compounds(), 1)
	require.Len(t, result.Targets(), 1)
	require.Len(t, result.Accessions(), 1)
	require.Len(t, result.Diseases(), 1)
}

func TestExtractFuzzyTypoRecovery(t *testing.T) {
	e := testExtractor(t, 85)

	result := e.Extract("Bedaquilne showed activity against TB")
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Bedaquiline", result.Entities[0].Canonical)
	assert.Equal(t, MethodFuzzy, result.Entities[0].Method)

	disabled := testExtractor(t, 0)
	result = disabled.Extract("Bedaquilne showed activity against TB")
	assert.Empty(t, result.Entities)
}

func TestExtractEmptyText(t *testing.T) {
	e := testExtractor(t, 85)

	for _, text := range []string{"", "   ", "\n\t"} {
		result := e.Extract(text)
		assert.Empty(t, result.Entities, "text %q", text)
		assert.Equal(t, text, result.SourceText)
	}
}

func TestExtractNoOverlappingSpans(t *testing.T) {
	e := testExtractor(t, 85)

	texts := []string{
		"Bedaquiline inhibits AtpE (Rv1305) in M. tuberculosis.",
		"InhA InhA InhA",
		"Rv0005 Rv0005c P9WGR1 tuberculosis Bedaquilne",
		"DprE-1 and DprE1 and dpre1",
	}
	for _, text := range texts {
		result := e.Extract(text)
		for i := 1; i < len(result.Entities); i++ {
			assert.GreaterOrEqual(t, result.Entities[i].Start, result.Entities[i-1].End,
				"overlap in %q", text)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	e := testExtractor(t, 85)
	text := "Bedaquilne inhibits AtpE (Rv1305) in M. tuberculosis."

	first := e.Extract(text)
	for i := 0; i < 5; i++ {
		assert.True(t, reflect.DeepEqual(first, e.Extract(text)))
	}
}

func TestExtractExactOutranksRegexOnSameSpan(t *testing.T) {
	e := testExtractor(t, 85)

	// "Rv0005" is both a literal gazetteer seed and a hit of its own derived
	// pattern; the exact match must win resolution.
	result := e.Extract("Rv0005")
	require.Len(t, result.Entities, 1)
	assert.Equal(t, MethodExact, result.Entities[0].Method)
	assert.Equal(t, TypeAccession, result.Entities[0].Type)
}

func TestExtractBatchPreservesOrder(t *testing.T) {
	e := testExtractor(t, 85)

	texts := []string{
		"Bedaquiline works",
		"",
		"InhA and DprE1",
		"nothing to find here",
		"Rv1305",
	}
	results, err := e.ExtractBatch(context.Background(), texts, 3)
	require.NoError(t, err)
	require.Len(t, results, len(texts))

	assert.Equal(t, "Bedaquiline", results[0].Entities[0].Canonical)
	assert.Empty(t, results[1].Entities)
	require.Len(t, results[2].Entities, 2)
	assert.Empty(t, results[3].Entities)
	assert.Equal(t, "Rv1305", results[4].Entities[0].Canonical)

	for i, r := range results {
		assert.Equal(t, texts[i], r.SourceText)
	}
}

func TestExtractBatchCancelled(t *testing.T) {
	e := testExtractor(t, 85)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExtractBatch(ctx, []string{"InhA", "DprE1"}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsInvalidThreshold(t *testing.T) {
	for _, threshold := range []int{-1, 101, 1000} {
		_, err := New(Options{FuzzyThreshold: intPtr(threshold), SkipBundled: true})
		require.Error(t, err, "threshold %d", threshold)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfigInvalidThreshold))
	}
}

func TestNewUnreadableGazetteerDir(t *testing.T) {
	_, err := New(Options{
		SkipBundled:  true,
		GazetteerDir: "/nonexistent/gazetteers",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfigUnreadableDir))
}

func TestNewWithBundledGazetteers(t *testing.T) {
	e, err := New(Options{})
	require.NoError(t, err)

	assert.Greater(t, e.Store().TermCount(), 50)
	assert.NotEmpty(t, e.Store().Patterns())

	result := e.Extract("Isoniazid resistance maps to KatG and InhA in M. tuberculosis")
	assert.GreaterOrEqual(t, len(result.Entities), 4)
}

func TestFingerprintCoversThreshold(t *testing.T) {
	a := testExtractor(t, 85)
	b := testExtractor(t, 90)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := testExtractor(t, 85)
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
}

func TestResultGrouping(t *testing.T) {
	e := testExtractor(t, 85)
	result := e.Extract("Bedaquiline inhibits AtpE in tuberculosis")

	grouped := result.Grouped()
	assert.Len(t, grouped[TypeCompound], 1)
	assert.Len(t, grouped[TypeTarget], 1)
	assert.Len(t, grouped[TypeDisease], 1)

	types := result.Types()
	assert.Equal(t, []EntityType{TypeCompound, TypeDisease, TypeTarget}, types)
}
