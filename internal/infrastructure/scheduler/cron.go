package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ESDMMonitor/internal/ports"
	"ESDMMonitor/pkg/logger"
)

// CronScheduler triggers a job on a cron expression such as "@every 10m".
// A tick that arrives while the previous job is still running is skipped,
// so jobs never overlap.
type CronScheduler struct {
	spec       string
	location   *time.Location
	runOnStart bool
	logger     *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	stopped chan struct{}
	startup sync.WaitGroup
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, loc *time.Location, runOnStart bool, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, location: loc, runOnStart: runOnStart, logger: log}
}

// Start registers job and begins ticking. When runOnStart is set the job is
// also queued immediately through the same non-overlapping wrapper.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cl := logger.Cron(c.logger)
	cr := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(cl),
	)

	wrapped := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		job(time.Now().In(c.location))
	}))

	if _, err := cr.AddJob(c.spec, wrapped); err != nil {
		return fmt.Errorf("schedule %q: %w", c.spec, err)
	}

	cr.Start()
	c.cron = cr
	c.stopped = nil

	if c.runOnStart {
		c.startup.Add(1)
		go func() {
			defer c.startup.Done()
			wrapped.Run()
		}()
	}

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts ticking and waits for a running job to finish or ctx to end.
// Concurrent and repeated calls all wait on the same shutdown.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.cron != nil {
		cr := c.cron
		c.cron = nil
		done := make(chan struct{})
		c.stopped = done
		go func() {
			<-cr.Stop().Done()
			c.startup.Wait()
			close(done)
		}()
	}
	done := c.stopped
	c.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
