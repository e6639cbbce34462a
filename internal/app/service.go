// Package service orchestrates snapshot runs and serves stored snapshots to the
// HTTP API and the scheduler.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/mindstats/internal/adapters/repository"
	"github.com/okian/mindstats/internal/domain/dedupe"
	"github.com/okian/mindstats/internal/domain/normalize"
	"github.com/okian/mindstats/internal/domain/pipeline"
	"github.com/okian/mindstats/internal/domain/record"
	"github.com/okian/mindstats/internal/domain/snapshot"
	"github.com/okian/mindstats/internal/domain/stages"
	"github.com/okian/mindstats/internal/domain/table"
	"github.com/okian/mindstats/internal/domain/themes"
	"github.com/okian/mindstats/pkg/logger"
	"github.com/okian/mindstats/pkg/metrics"
)

// Defaults.
const (
	DefaultVersionPrefix = "Daily"
	DefaultWindow        = stages.DefaultWindow
)

// Messages reported to trigger callers.
const (
	MessageGenerated = "Analytics snapshot generated successfully."
	MessageFailed    = "Analytics snapshot generation failed."
)

// Request selects the period and filters of one run. Nil bounds default to the
// trailing window ending now.
type Request struct {
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Filters     map[string]any
}

// Result reports the outcome of one run.
type Result struct {
	Success         bool               `json:"success"`
	Message         string             `json:"message"`
	SnapshotID      string             `json:"snapshot_id,omitempty"`
	SnapshotVersion string             `json:"snapshot_version,omitempty"`
	Duplicate       bool               `json:"duplicate"`
	Snapshot        *snapshot.Snapshot `json:"-"`
}

// Service runs the snapshot pipeline end to end.
type Service struct {
	mu    sync.RWMutex
	runMu sync.Mutex

	// Core components
	source   repository.RecordSource
	store    repository.SnapshotStore
	deduper  dedupe.Deduper
	enricher *themes.Enricher
	runner   *pipeline.Runner

	// Configuration
	policy        table.Policy
	versionPrefix string
	window        time.Duration
	priorityBoost bool
	now           func() time.Time

	// State
	started     bool
	runs        int64
	failures    int64
	duplicates  int64
	lastRunAt   time.Time
	lastID      string
	lastVersion string

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where raw records are read from.
func WithSource(src repository.RecordSource) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithSnapshotStore sets where snapshots are persisted.
func WithSnapshotStore(st repository.SnapshotStore) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithStore uses one backend as both record source and snapshot store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.source = st
			s.store = st
		}
	}
}

// WithDeduper sets the content-hash deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithEnricher sets the theme enricher.
func WithEnricher(e *themes.Enricher) Option {
	return func(s *Service) {
		if e != nil {
			s.enricher = e
		}
	}
}

// WithRunner sets the stage runner.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithCombinePolicy selects how manual and generated tables are unified.
func WithCombinePolicy(p table.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithVersionPrefix sets the prefix of generated version strings.
func WithVersionPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.versionPrefix = prefix
		}
	}
}

// WithWindow sets the trailing window used when a request has no bounds.
func WithWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithPriorityBoost toggles the outreach boost for open high-priority reports.
func WithPriorityBoost(enabled bool) Option {
	return func(s *Service) {
		s.priorityBoost = enabled
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. Without a store option it keeps everything in memory.
func New(opts ...Option) *Service {
	s := &Service{
		policy:        table.PolicyUnion,
		versionPrefix: DefaultVersionPrefix,
		window:        DefaultWindow,
		priorityBoost: true,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.source == nil || s.store == nil {
		mem := repository.NewMemoryStore()
		if s.source == nil {
			s.source = mem
		}
		if s.store == nil {
			s.store = mem
		}
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper()
	}
	if s.enricher == nil {
		s.enricher = themes.New(nil)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner()
	}
	return s
}

// Start marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.String("policy", s.policy.String()),
		logger.String("versionPrefix", s.versionPrefix),
		logger.Duration("window", s.window),
		logger.Bool("priorityBoost", s.priorityBoost),
	)
	return nil
}

// Stop waits for an in-flight run and releases the stores.
func (s *Service) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	for _, c := range []any{s.source, s.store} {
		if closer, ok := c.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	s.started = false
	s.log().Info(context.Background(), "analytics service stopped")
}

// Generate runs the whole pipeline once and persists the snapshot. Runs are
// serialized. Ingestion and persistence failures are returned wrapped in
// ErrIngestion and ErrPersistence; stage and enrichment failures are absorbed.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	began := time.Now()
	res, outcome, err := s.generate(ctx, req)
	metrics.RecordRun(outcome, time.Since(began))

	s.mu.Lock()
	s.runs++
	s.lastRunAt = began
	if err != nil {
		s.failures++
	} else {
		s.lastID, s.lastVersion = res.SnapshotID, res.SnapshotVersion
		if res.Duplicate {
			s.duplicates++
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.log().Error(ctx, "snapshot run failed",
			logger.String("version", res.SnapshotVersion),
			logger.Error(err),
		)
		res.Success, res.Message = false, fmt.Sprintf("%s %v", MessageFailed, err)
		return res, err
	}
	s.log().Info(ctx, "snapshot persisted",
		logger.String("id", res.SnapshotID),
		logger.String("version", res.SnapshotVersion),
		logger.Bool("duplicate", res.Duplicate),
		logger.Duration("took", time.Since(began)),
	)
	return res, nil
}

func (s *Service) generate(ctx context.Context, req Request) (Result, string, error) {
	now := s.now().UTC()
	end := now
	if req.PeriodEnd != nil {
		end = req.PeriodEnd.UTC()
	}
	start := end.Add(-s.window)
	if req.PeriodStart != nil {
		start = req.PeriodStart.UTC()
	}
	if end.Before(start) {
		return Result{}, metrics.OutcomeIngestionFailed, ErrInvalidPeriod
	}

	res := Result{SnapshotVersion: snapshot.NewVersion(s.versionPrefix, &start, &end, now)}

	batch, err := s.fetch(ctx, repository.Range{Start: &start, End: &end})
	if err != nil {
		return res, metrics.OutcomeIngestionFailed, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	tables, err := normalize.Normalize(batch)
	if err != nil {
		return res, metrics.OutcomeIngestionFailed, fmt.Errorf("%w: %w", ErrIngestion, err)
	}

	unified := table.Combine(tables.Manual, tables.Generated, s.policy)
	acc, err := s.runner.Run(ctx, stages.Inputs{
		Unified:       unified,
		Manual:        tables.Manual,
		Generated:     tables.Generated,
		CheckIns:      tables.CheckIns,
		Students:      tables.Students,
		Counsellors:   tables.Counsellors,
		PeriodStart:   &start,
		PeriodEnd:     &end,
		Now:           now,
		Window:        s.window,
		PriorityBoost: s.priorityBoost,
	})
	if err != nil {
		return res, metrics.OutcomeCancelled, err
	}
	acc.Merge(s.enricher.Enrich(ctx, unified))

	snap, err := snapshot.Assemble(acc, snapshot.AssembleInput{
		Version:     res.SnapshotVersion,
		PeriodStart: &start,
		PeriodEnd:   &end,
		Filters:     req.Filters,
		Manual:      batch.ManualReports,
		Generated:   batch.GeneratedReports,
		Now:         now,
	})
	if err != nil {
		return res, metrics.OutcomeIngestionFailed, fmt.Errorf("%w: %w", ErrIngestion, err)
	}

	res.Duplicate = s.deduper.SeenAndRecord(ctx, snap.RawDataHash)
	if res.Duplicate {
		metrics.RecordDuplicateContent()
	}

	id, err := s.store.Insert(ctx, snap)
	if err != nil {
		if !res.Duplicate {
			s.deduper.Unrecord(ctx, snap.RawDataHash)
		}
		return res, metrics.OutcomePersistFailed, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	snap.ID = id
	metrics.RecordSnapshotPersisted(snap.Timestamp, len(snap.Metrics))

	res.Success = true
	res.Message = MessageGenerated
	res.SnapshotID = id
	res.Snapshot = snap
	outcome := metrics.OutcomeSuccess
	if res.Duplicate {
		outcome = metrics.OutcomeDuplicateContent
	}
	return res, outcome, nil
}

func (s *Service) fetch(ctx context.Context, r repository.Range) (record.Batch, error) {
	var batch record.Batch
	for _, f := range record.Families() {
		docs, err := s.source.Fetch(ctx, f, r)
		if err != nil {
			return record.Batch{}, fmt.Errorf("fetch %s: %w", f, err)
		}
		batch.Set(f, docs)
		metrics.RecordRecordsIngested(string(f), len(docs))
	}
	return batch, nil
}

// Latest returns the most recent snapshot.
func (s *Service) Latest(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.lookup(s.store.Latest(ctx))
}

// Get returns the snapshot with id.
func (s *Service) Get(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	return s.lookup(s.store.Get(ctx, id))
}

// Versions lists stored snapshots newest first.
func (s *Service) Versions(ctx context.Context) ([]snapshot.VersionInfo, error) {
	return s.store.Versions(ctx)
}

func (s *Service) lookup(snap *snapshot.Snapshot, err error) (*snapshot.Snapshot, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return snap, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"runs":          s.runs,
		"failures":      s.failures,
		"duplicates":    s.duplicates,
		"combinePolicy": s.policy.String(),
		"versionPrefix": s.versionPrefix,
		"windowDays":    s.window.Hours() / 24,
		"priorityBoost": s.priorityBoost,
		"stages":        len(s.runner.Stages()),
		"seenHashes":    s.deduper.Size(),
	}
	if !s.lastRunAt.IsZero() {
		stats["lastRunAt"] = s.lastRunAt.UTC()
		stats["lastSnapshotId"] = s.lastID
		stats["lastSnapshotVersion"] = s.lastVersion
	}
	return stats
}

func (s *Service) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}
