package ner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

func buildStore(t *testing.T, gazetteers map[EntityType][]string) *Store {
	t.Helper()
	b := NewBuilder()
	for typ, terms := range gazetteers {
		require.NoError(t, b.AddTerms(typ, terms...))
	}
	store, err := b.Build()
	require.NoError(t, err)
	return store
}

func TestBuilderLookup(t *testing.T) {
	store := buildStore(t, map[EntityType][]string{
		TypeTarget: {"InhA", "DprE1"},
	})

	cands := store.LookupExact("inha")
	require.Len(t, cands, 1)
	assert.Equal(t, "InhA", cands[0].Canonical)
	assert.Equal(t, TypeTarget, cands[0].Type)

	assert.NotEmpty(t, store.LookupExact("dpre-1"))
	assert.Empty(t, store.LookupExact("rifampicin"))
}

func TestBuilderDuplicatesCollapse(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddTerms(TypeTarget, "InhA", "InhA", " InhA "))
	store, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 1, store.TermCount())
	assert.Len(t, store.LookupExact("inha"), 1)
}

func TestBuilderBlankTermsIgnored(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddTerms(TypeTarget, "InhA", "", "   "))
	store, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, store.TermCount())
}

func TestBuilderFrozenAfterBuild(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddTerms(TypeTarget, "InhA"))
	_, err := b.Build()
	require.NoError(t, err)

	err = b.AddTerms(TypeTarget, "DprE1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStoreFrozen))

	_, err = b.Build()
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStoreFrozen))
}

func TestCrossTypeCollisionPermissive(t *testing.T) {
	store := buildStore(t, map[EntityType][]string{
		TypeTarget:   {"Rel"},
		TypeCompound: {"Rel"},
	})

	cands := store.LookupExact("rel")
	require.Len(t, cands, 2)
	// Candidates sort by (type, canonical) for deterministic resolution.
	assert.Equal(t, TypeCompound, cands[0].Type)
	assert.Equal(t, TypeTarget, cands[1].Type)
}

func TestCrossTypeCollisionExclusive(t *testing.T) {
	b := NewBuilder()
	b.SetExclusiveTypes(true)
	require.NoError(t, b.AddTerms(TypeTarget, "Rel"))
	require.NoError(t, b.AddTerms(TypeCompound, "Rel"))

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfigTypeConflict))
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestStoreCanonicalsFiltered(t *testing.T) {
	store := buildStore(t, map[EntityType][]string{
		TypeTarget:   {"InhA", "DprE1"},
		TypeCompound: {"Bedaquiline"},
	})

	all := store.Canonicals()
	assert.Len(t, all, 3)

	targets := store.Canonicals(TypeTarget)
	require.Len(t, targets, 2)
	for _, c := range targets {
		assert.Equal(t, TypeTarget, c.Type)
	}
}

func TestStorePatternsDerivedFromAccessionSeeds(t *testing.T) {
	store := buildStore(t, map[EntityType][]string{
		TypeAccession: {"Rv0005", "P9WGR1"},
		TypeTarget:    {"InhA"},
	})
	assert.Len(t, store.Patterns(), 2)

	noSeeds := buildStore(t, map[EntityType][]string{TypeTarget: {"InhA"}})
	assert.Empty(t, noSeeds.Patterns())
}

func TestStoreFingerprintStable(t *testing.T) {
	gaz := map[EntityType][]string{
		TypeTarget:    {"InhA", "DprE1"},
		TypeAccession: {"Rv0005"},
	}
	a := buildStore(t, gaz)
	b := buildStore(t, gaz)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := buildStore(t, map[EntityType][]string{TypeTarget: {"InhA"}})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestStoreMaxKeyLen(t *testing.T) {
	store := buildStore(t, map[EntityType][]string{
		TypeDisease: {"latent tuberculosis infection"},
	})
	assert.Equal(t, len("latent tuberculosis infection"), store.MaxKeyLen())
}
