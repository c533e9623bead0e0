// Package scheduler runs the periodic recommendation cache warm-up.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/OscarCarPu/life-manager/internal/logging"
)

// Target is what the warmer refreshes
type Target interface {
	Today() time.Time
	Warm(ctx context.Context, today time.Time) error
}

// Warmer recomputes cached rankings on a cron schedule
type Warmer struct {
	target   Target
	spec     string
	location *time.Location
	logger   logging.Logger

	mu      sync.Mutex
	cron    *rcron.Cron
	cancel  context.CancelFunc
	runs    int
	lastErr error
}

// NewWarmer validates the schedule and creates a stopped warmer. The spec
// uses the standard five-field cron syntax evaluated in loc.
func NewWarmer(target Target, spec string, loc *time.Location, logger logging.Logger) (*Warmer, error) {
	if _, err := rcron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid warm-up schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Warmer{
		target:   target,
		spec:     spec,
		location: loc,
		logger:   logger.WithComponent("warmer"),
	}, nil
}

// Start registers the job, warms once immediately and runs until ctx is
// cancelled or Stop is called.
func (w *Warmer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cron != nil {
		w.mu.Unlock()
		return fmt.Errorf("warmer already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c := rcron.New(rcron.WithLocation(w.location))
	if _, err := c.AddFunc(w.spec, func() { w.RunOnce(runCtx) }); err != nil {
		w.mu.Unlock()
		cancel()
		return fmt.Errorf("failed to register warm-up job: %w", err)
	}
	w.cron = c
	w.cancel = cancel
	w.mu.Unlock()

	c.Start()
	w.logger.Info("cache warmer started", "spec", w.spec, "location", w.location.String())

	go w.RunOnce(runCtx)
	go func() {
		<-runCtx.Done()
		w.Stop()
	}()

	return nil
}

// RunOnce warms the cache for the target's current day
func (w *Warmer) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	today := w.target.Today()
	start := time.Now()
	err := w.target.Warm(ctx, today)

	w.mu.Lock()
	w.runs++
	w.lastErr = err
	w.mu.Unlock()

	if err != nil {
		w.logger.ErrorContext(ctx, "cache warm-up failed", "date", today.Format(time.DateOnly), "error", err.Error())
		return
	}
	w.logger.InfoContext(ctx, "cache warmed", "date", today.Format(time.DateOnly), "duration", time.Since(start).String())
}

// Stats returns the number of completed runs and the last run's error
func (w *Warmer) Stats() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs, w.lastErr
}

// Stop halts scheduling and waits briefly for a running job
func (w *Warmer) Stop() {
	w.mu.Lock()
	c := w.cron
	cancel := w.cancel
	w.cron = nil
	w.cancel = nil
	w.mu.Unlock()

	if c == nil {
		return
	}
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		w.logger.Warn("stop timeout waiting for running warm-up")
	}
	cancel()
	w.logger.Info("cache warmer stopped")
}
