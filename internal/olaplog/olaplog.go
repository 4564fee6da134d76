// Package olaplog provides a thin, leveled logger, used by the HTTP
// layer and the tesseractd command. It wraps log/slog the
// same way the rest of this repo wraps small stdlib primitives rather
// than reaching for a logging framework: every call site wants exactly
// "structured, leveled, one component tag" and nothing more.
package olaplog

import (
	"context"
	"log/slog"
	"os"
)

// Logger is a component-scoped wrapper over *slog.Logger.
type Logger struct {
	inner *slog.Logger
}

// New builds a Logger writing JSON lines to os.Stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(h)}
}

// Discard returns a Logger that drops everything, for tests.
func Discard() *Logger {
	return &Logger{inner: slog.New(slog.NewTextHandler(discardWriter{}, nil))}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// With returns a Logger scoped to the named component, e.g. "compiler",
// "sqlgen", "mysqlbackend".
func (l *Logger) With(component string) *Logger {
	return &Logger{inner: l.inner.With("component", component)}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.inner.DebugContext(ctx, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.inner.InfoContext(ctx, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.inner.WarnContext(ctx, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.inner.ErrorContext(ctx, msg, args...)
}
