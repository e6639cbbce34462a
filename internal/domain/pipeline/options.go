package pipeline

// Option configures a Runner.
type Option func(*Runner)

// WithStages replaces the stage list.
func WithStages(s ...Stage) Option {
	return func(r *Runner) {
		r.stages = append([]Stage(nil), s...)
	}
}

// WithParallel runs stages concurrently behind a barrier.
func WithParallel(parallel bool) Option {
	return func(r *Runner) {
		r.parallel = parallel
	}
}
