package themes

import (
	"math/rand"
	"time"
)

// Option configures an Enricher.
type Option func(*Enricher)

// WithEnabled turns enrichment on or off.
func WithEnabled(enabled bool) Option {
	return func(e *Enricher) {
		e.enabled = enabled
	}
}

// WithSampleSize lowers how many texts are sent per call. Values above
// DefaultSampleSize are clamped to it.
func WithSampleSize(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.sampleSize = min(n, DefaultSampleSize)
		}
	}
}

// WithTimeout bounds a single classifier call.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRand injects the sampling source, mainly for reproducible tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Enricher) {
		if r != nil {
			e.rng = r
		}
	}
}
