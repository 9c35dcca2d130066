// Package rtlog is the runtime's ambient structured logger: a thin,
// level-gated wrapper over logrus, carrying the few field/hook concerns this
// runtime actually needs (see DESIGN.md for the hooks deliberately dropped).
package rtlog

import "github.com/sirupsen/logrus"

// Level mirrors the teacher's logger/level enumeration, narrowed to the
// levels this runtime's components actually emit.
type Level uint8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) logrus() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return "info"
	}
}
