package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestLoggerLevels(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Debug("debug msg")
	log.Info("info msg")
	log.Warn("warn msg")
	log.Error("error msg")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestLoggerLevelFiltering(t *testing.T) {
	log, logs := newObservedLogger(zapcore.WarnLevel)

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestLoggerTypedFields(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.Info("typed",
		String("s", "v"),
		Int("i", 42),
		Int64("i64", int64(7)),
		Float64("f", 0.85),
		Bool("b", true),
		Duration("d", 2*time.Second),
	)

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "v", ctx["s"])
	assert.Equal(t, int64(42), ctx["i"])
	assert.Equal(t, int64(7), ctx["i64"])
	assert.Equal(t, 0.85, ctx["f"])
	assert.Equal(t, true, ctx["b"])
	assert.Equal(t, 2*time.Second, ctx["d"])
}

func TestErrField(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.Error("failed", Err(errors.New("boom")))
	log.Error("no cause", Err(nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	assert.Equal(t, "<nil>", entries[1].ContextMap()["error"])
}

func TestWithAttachesFields(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	child := log.With(String("component", "matcher"))
	child.Info("one")
	child.Info("two")
	log.Info("parent")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "matcher", entries[0].ContextMap()["component"])
	assert.Equal(t, "matcher", entries[1].ContextMap()["component"])
	_, ok := entries[2].ContextMap()["component"]
	assert.False(t, ok, "parent logger must not inherit child fields")
}

func TestNamed(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.Named("sfner").Named("http").Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sfner.http", logs.All()[0].LoggerName)
}

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
		"ERROR":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "input %q", in)
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.Debug("x")
		log.Info("x", String("k", "v"))
		log.Warn("x")
		log.Error("x", Err(errors.New("e")))
		log.With(Int("i", 1)).Named("n").Info("x")
	})
}
