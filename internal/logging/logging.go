// Package logging wires the benchmark's diagnostic output through
// logiface, using the stumpy JSON backend, exactly as the rest of the
// joeycumines-go-utilpkg dependency family does: a *logiface.Logger[*stumpy.Event]
// wrapped behind the narrow interfaces each consuming package declares for
// itself (internal/pool.Logger, which internal/bench.Config carries).
package logging

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the concrete logger type every package-local Logger interface
// is satisfied against. It is a thin wrapper so call sites can stay in
// terms of the narrow interfaces (Warn, Info, ...) those packages declare,
// rather than importing logiface/stumpy directly.
type Logger struct {
	base *logiface.Logger[*stumpy.Event]
}

// New constructs a Logger writing newline-delimited JSON to w at the given
// minimum level. The CLI maps debug mode to LevelDebug and everything else
// to LevelWarn, keeping stdout clean for the report.
func New(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		base: stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(w)),
			stumpy.L.WithLevel(level),
		),
	}
}

// Level aliases logiface.Level so callers configuring a Logger don't need
// to import logiface for the constant alone.
type Level = logiface.Level

// Level constants mirrored from logiface, in ascending severity.
const (
	LevelDebug Level = logiface.LevelDebug
	LevelInfo  Level = logiface.LevelInformational
	LevelWarn  Level = logiface.LevelWarning
	LevelError Level = logiface.LevelError
)

// Warn logs msg at warning level, attaching err as a field when non-nil.
// Satisfies internal/pool.Logger.
func (l *Logger) Warn(msg string, err error) {
	if l == nil || l.base == nil {
		return
	}
	b := l.base.Warning()
	if err != nil {
		b = b.Err(err)
	}
	b.Log(msg)
}

// Info logs msg at informational level with optional fields, each built by
// Str, Uint64, Int64 or Bool.
func (l *Logger) Info(msg string, fields ...Field) {
	if l == nil || l.base == nil {
		return
	}
	b := l.base.Info()
	for _, f := range fields {
		b = f.apply(b)
	}
	b.Log(msg)
}

// Debug logs msg at debug level with optional fields.
func (l *Logger) Debug(msg string, fields ...Field) {
	if l == nil || l.base == nil {
		return
	}
	b := l.base.Debug()
	for _, f := range fields {
		b = f.apply(b)
	}
	b.Log(msg)
}

// Error logs msg at error level, attaching err as a field when non-nil.
func (l *Logger) Error(msg string, err error, fields ...Field) {
	if l == nil || l.base == nil {
		return
	}
	b := l.base.Err()
	if err != nil {
		b = b.Err(err)
	}
	for _, f := range fields {
		b = f.apply(b)
	}
	b.Log(msg)
}

// Field is one structured key/value pair deferred until the enclosing
// Builder is available, so callers can build a field list without
// depending on logiface's generic Builder type directly.
type Field struct {
	apply func(*logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event]
}

// Str returns a string field.
func Str(key, val string) Field {
	return Field{apply: func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
		return b.Str(key, val)
	}}
}

// Uint64 returns a uint64 field.
func Uint64(key string, val uint64) Field {
	return Field{apply: func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
		return b.Uint64(key, val)
	}}
}

// Int64 returns an int64 field.
func Int64(key string, val int64) Field {
	return Field{apply: func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
		return b.Int64(key, val)
	}}
}

// Bool returns a bool field.
func Bool(key string, val bool) Field {
	return Field{apply: func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
		return b.Bool(key, val)
	}}
}
