package rtlog

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields attaches structured key/value context to a log entry, mirroring the
// teacher's logger/fields sub-package shape.
type Fields map[string]any

// Logger is the runtime's structured logger. A component that logs builds
// its own with New (procsup.Process does) and derives children with With.
type Logger interface {
	// With returns a child logger that always attaches the given fields.
	With(f Fields) Logger
	// SetLevel changes the minimum level emitted.
	SetLevel(l Level)
	// SetOutput redirects where entries are written.
	SetOutput(w io.Writer)

	Debug(msg string, f ...Fields)
	Info(msg string, f ...Fields)
	Warn(msg string, f ...Fields)
	Error(msg string, f ...Fields)
	Fatal(msg string, f ...Fields)
}

type logger struct {
	mu  sync.RWMutex
	log *logrus.Logger
	base Fields
}

// New constructs a Logger writing JSON-less text lines to stderr at Info
// level, matching the teacher's logrus-default formatter choice for CLI
// tools (structured text, not JSON, unless explicitly configured).
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return &logger{log: l}
}

func (l *logger) With(f Fields) Logger {
	merged := make(Fields, len(l.base)+len(f))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range f {
		merged[k] = v
	}
	return &logger{log: l.log, base: merged}
}

func (l *logger) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.SetLevel(lvl.logrus())
}

func (l *logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.SetOutput(w)
}

func (l *logger) entry(f ...Fields) *logrus.Entry {
	merged := make(logrus.Fields, len(l.base))
	for k, v := range l.base {
		merged[k] = v
	}
	for _, m := range f {
		for k, v := range m {
			merged[k] = v
		}
	}
	return l.log.WithFields(merged)
}

func (l *logger) Debug(msg string, f ...Fields) { l.entry(f...).Debug(msg) }
func (l *logger) Info(msg string, f ...Fields)  { l.entry(f...).Info(msg) }
func (l *logger) Warn(msg string, f ...Fields)  { l.entry(f...).Warn(msg) }
func (l *logger) Error(msg string, f ...Fields) { l.entry(f...).Error(msg) }
func (l *logger) Fatal(msg string, f ...Fields) { l.entry(f...).Fatal(msg) }
