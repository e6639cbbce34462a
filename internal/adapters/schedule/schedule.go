// Package schedule triggers snapshot runs on a fixed interval.
package schedule

import (
	"context"
	"fmt"
	"time"

	service "github.com/okian/mindstats/internal/app"
	"github.com/okian/mindstats/pkg/logger"
)

// DefaultWindow is the trailing period covered by each scheduled run.
const DefaultWindow = 24 * time.Hour

// Trigger runs one snapshot generation.
type Trigger interface {
	Generate(ctx context.Context, req service.Request) (service.Result, error)
}

// Scheduler calls a Trigger every interval until its context is canceled.
// A zero interval disables it.
type Scheduler struct {
	trigger  Trigger
	interval time.Duration
	window   time.Duration
	onStart  bool
	now      func() time.Time

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a scheduler for trigger.
func New(trigger Trigger, opts ...Option) *Scheduler {
	s := &Scheduler{
		trigger:  trigger,
		window:   DefaultWindow,
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("schedule"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether the scheduler has a positive interval.
func (s *Scheduler) Enabled() bool { return s.interval > 0 && s.trigger != nil }

// Run ticks until ctx is canceled or Shutdown is called. It returns at once
// when the scheduler is disabled.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)
	if !s.Enabled() {
		s.logger.Info(ctx, "scheduler disabled")
		return
	}

	s.logger.Info(ctx, "scheduler started",
		logger.Duration("interval", s.interval),
		logger.Duration("window", s.window),
	)
	if s.onStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Shutdown stops the loop and waits for an in-flight run to finish.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// tick runs one generation over the trailing window. Failures are logged and
// the loop continues.
func (s *Scheduler) tick(ctx context.Context) {
	end := s.now().UTC()
	start := end.Add(-s.window)

	res, err := s.trigger.Generate(ctx, service.Request{PeriodStart: &start, PeriodEnd: &end})
	if err != nil {
		s.logger.Error(ctx, "scheduled run failed", logger.Error(err))
		return
	}
	s.logger.Info(ctx, "scheduled run finished",
		logger.String("snapshotId", res.SnapshotID),
		logger.String("version", res.SnapshotVersion),
		logger.Bool("duplicate", res.Duplicate),
	)
}
