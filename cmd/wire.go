package main

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/mindstats/internal/adapters/classifier"
	"github.com/okian/mindstats/internal/adapters/repository"
	service "github.com/okian/mindstats/internal/app"
	"github.com/okian/mindstats/internal/config"
	"github.com/okian/mindstats/internal/domain/dedupe"
	"github.com/okian/mindstats/internal/domain/pipeline"
	"github.com/okian/mindstats/internal/domain/table"
	"github.com/okian/mindstats/internal/domain/themes"
	"github.com/okian/mindstats/pkg/logger"
)

// openStore opens the record source and snapshot store selected by cfg.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Store.Driver == config.DriverMemory {
		return repository.NewMemoryStore(), nil
	}
	return repository.OpenGorm(ctx, cfg.Store.Driver, cfg.Store.DSN)
}

// newEnricher builds the theme enricher. Without an API key the classifier is
// absent and the theme list stays empty.
func newEnricher(ctx context.Context, cfg *config.Config) (*themes.Enricher, error) {
	opts := []themes.Option{
		themes.WithEnabled(cfg.Themes.Enabled),
		themes.WithSampleSize(cfg.Themes.SampleSize),
		themes.WithTimeout(cfg.Themes.Timeout),
	}
	if !cfg.Themes.Enabled || cfg.Themes.APIKey == "" {
		if cfg.Themes.Enabled {
			logger.Get().Warn(ctx, "themes enabled without api key; emerging themes will be empty")
		}
		return themes.New(nil, opts...), nil
	}

	client, err := classifier.New(
		classifier.WithBaseURL(cfg.Themes.BaseURL),
		classifier.WithAPIKey(cfg.Themes.APIKey),
		classifier.WithModel(cfg.Themes.Model),
		classifier.WithRequestTimeout(cfg.Themes.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("theme classifier: %w", err)
	}
	return themes.New(client, opts...), nil
}

// newService wires a Service over store from cfg.
func newService(ctx context.Context, cfg *config.Config, store repository.Store) (*service.Service, error) {
	policy, err := table.ParsePolicy(cfg.Pipeline.CombinePolicy)
	if err != nil {
		return nil, err
	}
	enricher, err := newEnricher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return service.New(
		service.WithStore(store),
		service.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithTTL(cfg.Dedupe.TTL))),
		service.WithEnricher(enricher),
		service.WithRunner(pipeline.NewRunner(pipeline.WithParallel(cfg.Pipeline.Parallel))),
		service.WithCombinePolicy(policy),
		service.WithVersionPrefix(cfg.Snapshot.VersionPrefix),
		service.WithWindow(time.Duration(cfg.Pipeline.WindowDays)*24*time.Hour),
		service.WithPriorityBoost(cfg.Pipeline.PriorityBoost),
		service.WithLogger(logger.Named("service")),
	), nil
}
