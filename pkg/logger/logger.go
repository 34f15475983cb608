package logger

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Cron adapts a slog.Logger to the logger interface robfig/cron expects.
// Cron's own chatter ("wake", "run", ...) is demoted to debug.
func Cron(l *slog.Logger) cron.Logger {
	return cronLogger{l: l}
}

type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if c.l != nil {
		c.l.Debug("cron: "+msg, keysAndValues...)
	}
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if c.l != nil {
		c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
	}
}
