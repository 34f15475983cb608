package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ESDMMonitor/internal/ports"
)

// Scheduler wires the cron driver with the monitor use case.
type Scheduler struct {
	driver  ports.Scheduler
	monitor *Monitor
	logger  *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, monitor *Monitor, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, monitor: monitor, logger: logger}
}

// Start registers the monitor with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.monitor == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.monitor.RunOnce(ctx); err != nil && s.logger != nil {
			level := slog.LevelError
			if errors.Is(err, ErrListingUnavailable) {
				level = slog.LevelWarn
			}
			s.logger.Log(ctx, level, "scheduled run ended early", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
