// Package logging builds the structured loggers used across harnessprobe.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Options configure New.
type Options struct {
	Level  string
	Writer io.Writer
	Color  bool
}

// New returns a console logger writing to opts.Writer (stderr when nil).
// Unknown level names fall back to info.
func New(opts Options) *log.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	return &log.Logger{
		Level:      ParseLevel(opts.Level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: opts.Color,
		},
	}
}

// ParseLevel maps a level name to a log level.
func ParseLevel(name string) log.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Nop returns a logger that discards everything.
func Nop() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: log.IOWriter{Writer: io.Discard},
	}
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *log.Logger) *log.Logger {
	if l == nil {
		return Nop()
	}
	return l
}
