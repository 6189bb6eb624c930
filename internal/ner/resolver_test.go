package ner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmpty(t *testing.T) {
	assert.Empty(t, Resolve(nil))
	assert.Empty(t, Resolve([]Match{}))
}

func TestResolveKeepsNonOverlapping(t *testing.T) {
	in := []Match{
		{Start: 10, End: 14, Method: MethodExact},
		{Start: 0, End: 4, Method: MethodExact},
		{Start: 5, End: 9, Method: MethodRegex},
	}
	out := Resolve(in)
	require.Len(t, out, 3)
	assert.Equal(t, 0, out[0].Start)
	assert.Equal(t, 5, out[1].Start)
	assert.Equal(t, 10, out[2].Start)
}

func TestResolveLongerSpanWinsAtSameStart(t *testing.T) {
	in := []Match{
		{Start: 0, End: 4, Method: MethodExact, Canonical: "short"},
		{Start: 0, End: 10, Method: MethodFuzzy, Canonical: "long"},
	}
	out := Resolve(in)
	require.Len(t, out, 1)
	assert.Equal(t, "long", out[0].Canonical, "span length outranks method priority")
}

func TestResolveMethodPriorityBreaksLengthTie(t *testing.T) {
	in := []Match{
		{Start: 0, End: 6, Method: MethodFuzzy, Canonical: "fuzzy"},
		{Start: 0, End: 6, Method: MethodRegex, Canonical: "regex"},
		{Start: 0, End: 6, Method: MethodExact, Canonical: "exact"},
	}
	out := Resolve(in)
	require.Len(t, out, 1)
	assert.Equal(t, "exact", out[0].Canonical)

	out = Resolve(in[:2])
	require.Len(t, out, 1)
	assert.Equal(t, "regex", out[0].Canonical)
}

func TestResolveDiscardsOverlaps(t *testing.T) {
	in := []Match{
		{Start: 0, End: 8, Method: MethodExact, Canonical: "a"},
		{Start: 4, End: 12, Method: MethodExact, Canonical: "b"},
		{Start: 8, End: 16, Method: MethodExact, Canonical: "c"},
	}
	out := Resolve(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Canonical)
	assert.Equal(t, "c", out[1].Canonical)
}

func TestResolveGreedyNeverReconsiders(t *testing.T) {
	// Accepting [0,6) rejects [4,14) even though the pair ([0,6), [8,14))
	// would never exist: greedy resolution takes the earliest-start longest
	// span and moves on.
	in := []Match{
		{Start: 0, End: 6, Method: MethodExact, Canonical: "first"},
		{Start: 4, End: 14, Method: MethodExact, Canonical: "second"},
		{Start: 13, End: 20, Method: MethodFuzzy, Canonical: "third"},
	}
	out := Resolve(in)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Canonical)
	assert.Equal(t, "third", out[1].Canonical)
}

func TestResolveDeterministicOnIdenticalSpans(t *testing.T) {
	in := []Match{
		{Start: 0, End: 4, Method: MethodExact, Type: TypeTarget, Canonical: "b"},
		{Start: 0, End: 4, Method: MethodExact, Type: TypeTarget, Canonical: "a"},
	}
	for i := 0; i < 10; i++ {
		out := Resolve(in)
		require.Len(t, out, 1)
		assert.Equal(t, "a", out[0].Canonical)
	}
}

func TestResolveOutputSortedAndDisjoint(t *testing.T) {
	in := []Match{
		{Start: 30, End: 35, Method: MethodFuzzy},
		{Start: 2, End: 12, Method: MethodExact},
		{Start: 10, End: 20, Method: MethodRegex},
		{Start: 18, End: 25, Method: MethodExact},
	}
	out := Resolve(in)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i].Start, out[i-1].End)
	}
}
