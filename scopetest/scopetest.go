// Package scopetest provides shared test doubles for scopeprop's own
// test suites: a recording scopelog.Logger and a configurable
// transmitter.Transmitter, mirroring the teacher's testutil mocks.
package scopetest

import (
	"context"
	"sync"

	"github.com/jeeves-cluster-organization/scopeprop/scopelog"
)

// LogEntry captures one call made through a RecordingLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// RecordingLogger implements scopelog.Logger and records every call
// for assertion instead of writing anywhere.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, msg string, fields []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f := make(map[string]any, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			f[key] = fields[i+1]
		}
	}
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: f})
}

func (l *RecordingLogger) Info(msg string, fields ...any)  { l.record("info", msg, fields) }
func (l *RecordingLogger) Debug(msg string, fields ...any) { l.record("debug", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...any)  { l.record("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...any) { l.record("error", msg, fields) }

// Bind returns the same RecordingLogger: bound fields aren't tracked
// separately, since tests assert on message and per-call fields.
func (l *RecordingLogger) Bind(fields ...any) scopelog.Logger { return l }

// Entries returns a copy of every call recorded so far.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// HasMessage reports whether any entry at level carries message.
func (l *RecordingLogger) HasMessage(level, message string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}

// MockTransmitter is a configurable transmitter.Transmitter for tests
// that need to assert how a Carrier drives capture/replay/restore
// without depending on the real baggage or diagnostic transmitters.
type MockTransmitter struct {
	NameValue    string
	Snapshot     any
	CaptureErr   error
	ReplayErr    error
	RestoreErr   error
	ReplayCalls  int
	RestoreCalls int
	CaptureCalls int
	mu           sync.Mutex
}

// NewMockTransmitter returns a MockTransmitter with the given name.
func NewMockTransmitter(name string) *MockTransmitter {
	return &MockTransmitter{NameValue: name}
}

func (m *MockTransmitter) Name() string { return m.NameValue }

func (m *MockTransmitter) Capture(ctx context.Context) (any, error) {
	m.mu.Lock()
	m.CaptureCalls++
	m.mu.Unlock()
	return m.Snapshot, m.CaptureErr
}

func (m *MockTransmitter) Replay(ctx context.Context, snapshot any) (context.Context, any, error) {
	m.mu.Lock()
	m.ReplayCalls++
	m.mu.Unlock()
	return ctx, "backup-for-" + m.NameValue, m.ReplayErr
}

func (m *MockTransmitter) Restore(ctx context.Context, backup any) (context.Context, error) {
	m.mu.Lock()
	m.RestoreCalls++
	m.mu.Unlock()
	return ctx, m.RestoreErr
}
