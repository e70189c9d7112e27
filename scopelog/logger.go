// Package scopelog provides the small structured-logging interface
// scopeprop's own components log through, plus a logrus-backed
// default implementation.
package scopelog

import "github.com/sirupsen/logrus"

// Logger is the structured logging interface scopeprop's packages
// take as a dependency. It mirrors a key/value-pairs-after-the-message
// style rather than printf formatting, so fields stay queryable once
// shipped to a log backend.
type Logger interface {
	Info(msg string, fields ...any)
	Debug(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// Bind returns a Logger that prepends fields to every call made
	// through it, for attaching a component name or request id once
	// instead of repeating it at every call site.
	Bind(fields ...any) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New returns a Logger backed by logrus's standard logger.
func New() Logger {
	return &logrusLogger{entry: logrus.NewEntry(logrus.StandardLogger())}
}

// NewWithLogger returns a Logger backed by the given *logrus.Logger,
// for hosts that configure their own formatter, level, or output.
func NewWithLogger(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func toFields(fields []any) logrus.Fields {
	f := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		f[key] = fields[i+1]
	}
	return f
}

func (l *logrusLogger) Info(msg string, fields ...any) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

func (l *logrusLogger) Debug(msg string, fields ...any) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

func (l *logrusLogger) Warn(msg string, fields ...any) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, fields ...any) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

func (l *logrusLogger) Bind(fields ...any) Logger {
	return &logrusLogger{entry: l.entry.WithFields(toFields(fields))}
}
