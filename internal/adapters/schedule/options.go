package schedule

import (
	"time"

	"github.com/okian/mindstats/pkg/logger"
)

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithInterval sets the tick interval. Zero or negative disables the scheduler.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithWindow sets the trailing period of each run.
func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithRunOnStart triggers a run as soon as Run starts.
func WithRunOnStart(enabled bool) Option {
	return func(s *Scheduler) {
		s.onStart = enabled
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
