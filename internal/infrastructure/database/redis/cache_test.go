package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
)

func TestResultCacheKeyScopedByFingerprint(t *testing.T) {
	a := NewResultCache(nil, "sfner", "abc:85", 0, logging.NewNopLogger())
	b := NewResultCache(nil, "sfner", "def:85", 0, logging.NewNopLogger())

	text := "Bedaquiline inhibits AtpE"
	assert.NotEqual(t, a.Key(text), b.Key(text))
	assert.Equal(t, a.Key(text), a.Key(text))
}

func TestResultCacheKeyScopedByText(t *testing.T) {
	c := NewResultCache(nil, "sfner", "abc:85", 0, nil)
	assert.NotEqual(t, c.Key("Isoniazid"), c.Key("Rifampicin"))
}

func TestResultCacheKeyPrefix(t *testing.T) {
	c := NewResultCache(nil, "custom", "fp", 0, nil)
	require.Contains(t, c.Key("x"), "custom:extract:")

	// Empty prefix falls back to the service default.
	d := NewResultCache(nil, "", "fp", 0, nil)
	assert.Contains(t, d.Key("x"), "sfner:extract:")
}

func TestResultCacheKeyIsFixedLength(t *testing.T) {
	c := NewResultCache(nil, "sfner", "fp", 0, nil)
	short := c.Key("TB")
	long := c.Key(string(make([]byte, 1<<16)))
	assert.Equal(t, len(short), len(long))
}
