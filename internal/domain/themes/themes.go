// Package themes detects emerging themes in free-text report content with an
// external classifier. Enrichment never fails a run: errors collapse to a
// sentinel list.
package themes

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/mindstats/internal/domain/stages"
	"github.com/okian/mindstats/internal/domain/table"
	"github.com/okian/mindstats/pkg/logger"
	"github.com/okian/mindstats/pkg/metrics"
)

// Defaults.
const (
	DefaultSampleSize = 50
	DefaultTimeout    = 30 * time.Second
	MaxThemes         = 5
)

// FailedTheme is the single entry reported when detection fails.
const FailedTheme = "Theme detection failed."

// Instruction is sent to the classifier with every sample.
const Instruction = "You are an expert mental health analyst. Read the following anonymous student report " +
	"summaries and identify 3-5 distinct, emerging mental health themes or trends. Focus on patterns. " +
	"Output as a JSON list of themes."

// Classifier labels a sample of texts.
type Classifier interface {
	Classify(ctx context.Context, instruction string, sample []string) ([]string, error)
}

// Enricher samples report content and asks a Classifier for themes.
type Enricher struct {
	classifier Classifier
	enabled    bool
	sampleSize int
	timeout    time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an Enricher. A nil classifier disables enrichment.
func New(c Classifier, opts ...Option) *Enricher {
	e := &Enricher{
		classifier: c,
		enabled:    true,
		sampleSize: DefaultSampleSize,
		timeout:    DefaultTimeout,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns the emergingThemes delta for the unified report table.
func (e *Enricher) Enrich(ctx context.Context, unified table.Table) stages.Delta {
	themes, err := e.Detect(ctx, unified)
	if err != nil {
		metrics.RecordEnrichmentFailure()
		logger.Get().Warn(ctx, "theme detection failed", logger.Error(err))
		themes = []string{FailedTheme}
	}
	return stages.Delta{stages.KeyEmergingThemes: themes}
}

// Detect runs the classifier over a sample of content. It returns an empty
// list when enrichment is off or there is nothing to classify, and an error
// wrapping ErrEnrichment when the classifier fails or times out.
func (e *Enricher) Detect(ctx context.Context, unified table.Table) ([]string, error) {
	if e == nil || !e.enabled || e.classifier == nil || !unified.Has(table.ColContent) {
		return []string{}, nil
	}
	sample := e.Sample(contents(unified))
	if len(sample) == 0 {
		return []string{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type reply struct {
		labels []string
		err    error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- reply{err: fmt.Errorf("classifier panic: %v", p)}
			}
		}()
		labels, err := e.classifier.Classify(callCtx, Instruction, sample)
		done <- reply{labels, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEnrichment, r.err)
		}
		return clean(r.labels), nil
	case <-callCtx.Done():
		return nil, fmt.Errorf("%w: %v", ErrEnrichment, callCtx.Err())
	}
}

// Sample draws at most sampleSize texts without replacement.
func (e *Enricher) Sample(texts []string) []string {
	if len(texts) <= e.sampleSize {
		out := make([]string, len(texts))
		copy(out, texts)
		e.mu.Lock()
		e.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		e.mu.Unlock()
		return out
	}
	e.mu.Lock()
	perm := e.rng.Perm(len(texts))[:e.sampleSize]
	e.mu.Unlock()
	out := make([]string, 0, e.sampleSize)
	for _, i := range perm {
		out = append(out, texts[i])
	}
	return out
}

func contents(t table.Table) []string {
	var out []string
	for _, r := range t.Rows {
		if r.Content == nil {
			continue
		}
		if c := strings.TrimSpace(*r.Content); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// clean trims labels, drops blanks and caps the list at MaxThemes.
func clean(labels []string) []string {
	out := make([]string, 0, MaxThemes)
	for _, l := range labels {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		out = append(out, l)
		if len(out) == MaxThemes {
			break
		}
	}
	return out
}
