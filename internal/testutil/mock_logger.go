// Package testutil provides common test utilities for structflo-ner.
package testutil

import (
	"strings"
	"sync"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger for testing purposes.
// It records log entries and can be used to verify logging behavior.
type MockLogger struct {
	mu      sync.Mutex
	name    string
	Entries []LogEntry
}

// LogEntry is a single log call captured by MockLogger.
type LogEntry struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// NewMockLogger creates a new MockLogger instance.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{
		Level:   level,
		Logger:  m.name,
		Message: msg,
		Fields:  fields,
	})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

// With returns the same recorder; child fields are not tracked separately.
func (m *MockLogger) With(fields ...logging.Field) logging.Logger { return m }

// Named returns a child sharing the parent's entry slice, with the name
// recorded on every subsequent entry.
func (m *MockLogger) Named(name string) logging.Logger {
	full := name
	if m.name != "" {
		full = m.name + "." + name
	}
	return &namedMock{parent: m, name: full}
}

type namedMock struct {
	parent *MockLogger
	name   string
}

func (n *namedMock) log(level, msg string, fields []logging.Field) {
	n.parent.mu.Lock()
	defer n.parent.mu.Unlock()
	n.parent.Entries = append(n.parent.Entries, LogEntry{
		Level:   level,
		Logger:  n.name,
		Message: msg,
		Fields:  fields,
	})
}

func (n *namedMock) Debug(msg string, fields ...logging.Field) { n.log("debug", msg, fields) }
func (n *namedMock) Info(msg string, fields ...logging.Field)  { n.log("info", msg, fields) }
func (n *namedMock) Warn(msg string, fields ...logging.Field)  { n.log("warn", msg, fields) }
func (n *namedMock) Error(msg string, fields ...logging.Field) { n.log("error", msg, fields) }
func (n *namedMock) Fatal(msg string, fields ...logging.Field) { n.log("fatal", msg, fields) }

func (n *namedMock) With(fields ...logging.Field) logging.Logger { return n }

func (n *namedMock) Named(name string) logging.Logger {
	return &namedMock{parent: n.parent, name: n.name + "." + name}
}

// GetEntries returns a copy of all captured entries.
func (m *MockLogger) GetEntries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogEntry, len(m.Entries))
	copy(out, m.Entries)
	return out
}

// Clear removes all captured entries.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = m.Entries[:0]
}

// HasEntry reports whether an entry with the given level and a message
// containing msg was captured.
func (m *MockLogger) HasEntry(level, msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Level == level && strings.Contains(e.Message, msg) {
			return true
		}
	}
	return false
}
