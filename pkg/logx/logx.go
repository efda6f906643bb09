// Package logx is a verbosity-gated wrapper around the standard logger.
// Level 0 prints errors only, level 1 adds progress messages, level 2 adds
// per-stage progress counters and diagnostics.
package logx

import (
	"fmt"
	"io"
	"log"
)

// Logger writes through a *log.Logger when the verbosity allows. A nil
// *Logger discards everything.
type Logger struct {
	l     *log.Logger
	level int
}

// New returns a Logger writing to w at the given verbosity.
func New(w io.Writer, level int) *Logger {
	return &Logger{l: log.New(w, "", log.LstdFlags), level: level}
}

// Wrap returns a Logger over an existing *log.Logger.
func Wrap(l *log.Logger, level int) *Logger {
	return &Logger{l: l, level: level}
}

// Discard returns a Logger that never writes.
func Discard() *Logger {
	return nil
}

// Level returns the configured verbosity.
func (l *Logger) Level() int {
	if l == nil {
		return -1
	}
	return l.level
}

func (l *Logger) output(min int, format string, args ...any) {
	if l == nil || l.level < min {
		return
	}
	// calldepth 3 reports the caller of Infof/Debugf
	_ = l.l.Output(3, fmt.Sprintf(format, args...))
}

// Errorf always logs.
func (l *Logger) Errorf(format string, args ...any) {
	l.output(0, format, args...)
}

// Infof logs at verbosity 1 and above.
func (l *Logger) Infof(format string, args ...any) {
	l.output(1, format, args...)
}

// Debugf logs at verbosity 2 and above.
func (l *Logger) Debugf(format string, args ...any) {
	l.output(2, format, args...)
}

// Progress reports n of total for a pipeline stage at verbosity 2.
func (l *Logger) Progress(stage string, n, total int) {
	l.output(2, "Progress:%s:%d:%d", stage, n, total)
}
