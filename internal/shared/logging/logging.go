// Package logging provides the orchestrator's structured logger, a thin
// wrapper over log/slog carrying a component name and context-scoped
// fields (task_id, phase, agent_id) the way the teacher's consumer code
// expects (NewComponentLogger, FromContext, OrNop, IsNil).
package logging

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the orchestrator-wide logging contract. It is deliberately
// small: callers reach for structured key/value pairs, not format verbs.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

type slogLogger struct {
	component string
	l         *slog.Logger
}

var root = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLevel adjusts the package-wide minimum log level (debug/info/warn/error).
func SetLevel(level slog.Level) {
	root = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewComponentLogger returns a Logger tagged with a component name, the
// unit every package-level logger in the orchestrator is constructed with
// (e.g. logging.NewComponentLogger("orchestrator")).
func NewComponentLogger(component string) Logger {
	return &slogLogger{component: component, l: root.With("component", component)}
}

func (s *slogLogger) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s *slogLogger) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s *slogLogger) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s *slogLogger) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }

func (s *slogLogger) With(kv ...any) Logger {
	return &slogLogger{component: s.component, l: s.l.With(kv...)}
}

type ctxKey struct{}

// IntoContext stashes a Logger for retrieval by FromContext further down the
// call chain (e.g. a request handler stores a request-scoped logger with a
// request_id field).
func IntoContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the Logger stashed by IntoContext, or fallback if
// none is present.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	return fallback
}

// nopLogger discards everything; used when a caller is handed no logger at
// all (tests, one-shot CLI tools) but code should not special-case nil.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (n nopLogger) With(...any) Logger { return n }

// Nop is the shared no-op Logger instance.
var Nop Logger = nopLogger{}

// OrNop returns l, or Nop if l is nil (including a nil value boxed in a
// non-nil interface, which IsNil also detects).
func OrNop(l Logger) Logger {
	if IsNil(l) {
		return Nop
	}
	return l
}

// IsNil reports whether l is a literal nil interface or a nil pointer boxed
// inside one — the teacher's consumer code guards both forms before calling
// through a possibly-unset logger field.
func IsNil(l Logger) bool {
	if l == nil {
		return true
	}
	if sl, ok := l.(*slogLogger); ok {
		return sl == nil
	}
	return false
}
