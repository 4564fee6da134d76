package olaplog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscardDoesNotPanic(t *testing.T) {
	l := Discard()
	ctx := context.Background()
	assert.NotPanics(t, func() {
		l.Debug(ctx, "debug msg", "k", "v")
		l.Info(ctx, "info msg")
		l.Warn(ctx, "warn msg")
		l.Error(ctx, "error msg", "err", "boom")
	})
}

func TestWithReturnsScopedLogger(t *testing.T) {
	l := Discard().With("compiler")
	assert.NotNil(t, l)
	assert.NotPanics(t, func() {
		l.Info(context.Background(), "compiling")
	})
}
