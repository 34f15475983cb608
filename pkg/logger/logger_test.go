package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCronLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cl := Cron(l)

	cl.Info("wake", "now", "later")
	assert.Empty(t, buf.String(), "cron info should be demoted below info")

	cl.Error(errors.New("boom"), "panic", "job", 1)
	out := buf.String()
	assert.Contains(t, out, "cron: panic")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "job=1")
}

func TestCronLoggerNil(t *testing.T) {
	t.Parallel()

	cl := Cron(nil)
	assert.NotPanics(t, func() {
		cl.Info("wake")
		cl.Error(errors.New("x"), "y")
	})
}
