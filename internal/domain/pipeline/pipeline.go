// Package pipeline runs the metric stages over one set of inputs and folds
// their deltas into a single accumulator.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/mindstats/internal/domain/stages"
	"github.com/okian/mindstats/pkg/logger"
	"github.com/okian/mindstats/pkg/metrics"
)

// Stage names.
const (
	StageSentimentRisk     = "sentiment_risk"
	StageScreeningScores   = "screening_scores"
	StageStressorsConcerns = "stressors_concerns"
	StageResourceTopics    = "resource_topics"
	StageResolution        = "resolution_metrics"
	StageEngagement        = "user_engagement"
	StagePredictiveRisk    = "predictive_risk"
	StageTotals            = "totals"
)

// Stage is one named aggregation.
type Stage struct {
	Name string
	Run  stages.Func
}

// DefaultStages returns the stages in their declared order.
func DefaultStages() []Stage {
	return []Stage{
		{Name: StageSentimentRisk, Run: stages.SentimentRisk},
		{Name: StageScreeningScores, Run: stages.ScreeningScores},
		{Name: StageStressorsConcerns, Run: stages.StressorsConcerns},
		{Name: StageResourceTopics, Run: stages.ResourceTopics},
		{Name: StageResolution, Run: stages.Resolution},
		{Name: StageEngagement, Run: stages.Engagement},
		{Name: StagePredictiveRisk, Run: stages.PredictiveRisk},
		{Name: StageTotals, Run: stages.Totals},
	}
}

// Accumulator maps metric names to values. Keys are only ever added; a later
// delta overwrites an earlier one with the same key.
type Accumulator map[string]any

// Merge folds d into a.
func (a Accumulator) Merge(d stages.Delta) {
	for k, v := range d {
		a[k] = v
	}
}

// Runner executes stages sequentially or concurrently with an ordered merge.
type Runner struct {
	stages   []Stage
	parallel bool
}

// NewRunner creates a Runner over DefaultStages unless overridden.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{stages: DefaultStages()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stages returns the configured stage list.
func (r *Runner) Stages() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Run applies every stage to in. A stage that panics is dropped from the
// result and counted as degraded. Only context cancellation fails a run.
func (r *Runner) Run(ctx context.Context, in stages.Inputs) (Accumulator, error) {
	if r.parallel {
		return r.runParallel(ctx, in)
	}
	acc := make(Accumulator)
	for _, s := range r.stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline cancelled before %s: %w", s.Name, err)
		}
		if d, ok := runStage(ctx, s, in); ok {
			acc.Merge(d)
		}
	}
	return acc, nil
}

// runParallel gives every stage its own slot and merges the slots in declared
// order after all stages finished, so the result equals the sequential one.
func (r *Runner) runParallel(ctx context.Context, in stages.Inputs) (Accumulator, error) {
	slots := make([]stages.Delta, len(r.stages))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range r.stages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("pipeline cancelled before %s: %w", s.Name, err)
			}
			if d, ok := runStage(gctx, s, in); ok {
				slots[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline cancelled: %w", err)
	}

	acc := make(Accumulator)
	for _, d := range slots {
		acc.Merge(d)
	}
	return acc, nil
}

func runStage(ctx context.Context, s Stage, in stages.Inputs) (d stages.Delta, ok bool) {
	start := time.Now()
	defer func() {
		metrics.RecordStageDuration(s.Name, time.Since(start))
		if p := recover(); p != nil {
			metrics.RecordStageDegraded(s.Name)
			logger.Get().Warn(ctx, "stage degraded",
				logger.String("stage", s.Name),
				logger.Any("panic", p),
			)
			d, ok = nil, false
		}
	}()
	return s.Run(in), true
}
