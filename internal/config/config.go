// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over those defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Combine policies for manual and generated report tables.
const (
	PolicyUnion        = "union"
	PolicyIntersection = "intersection"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFile enables a rotating JSON log file in addition to the console.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr" validate:"required"`

	Store    StoreConfig    `koanf:"store"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Themes   ThemesConfig   `koanf:"themes"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Dedupe   DedupeConfig   `koanf:"dedupe"`
}

// StoreConfig selects the record source and snapshot store backend.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=sqlite postgres memory"`
	// DSN is a file path or ":memory:" for sqlite, a connection string for postgres.
	DSN string `koanf:"dsn" validate:"required_unless=Driver memory"`
}

// SnapshotConfig controls snapshot versioning.
type SnapshotConfig struct {
	VersionPrefix string `koanf:"version_prefix" validate:"required"`
}

// PipelineConfig tunes the metric stages.
type PipelineConfig struct {
	CombinePolicy string `koanf:"combine_policy" validate:"oneof=union intersection"`
	// Parallel runs the metric stages concurrently and merges after a barrier.
	Parallel bool `koanf:"parallel"`
	// PriorityBoost raises outreach scores for owners of open high-priority reports.
	PriorityBoost bool `koanf:"priority_boost"`
	// WindowDays is the default trailing window when a trigger omits bounds.
	WindowDays int `koanf:"window_days" validate:"gt=0"`
}

// ThemesConfig configures the optional theme classifier.
type ThemesConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
	SampleSize int           `koanf:"sample_size" validate:"gt=0,lte=50"`
	BaseURL    string        `koanf:"base_url" validate:"omitempty,url"`
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model"`
}

// ScheduleConfig drives periodic generation. Interval 0 disables it.
type ScheduleConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
}

// DedupeConfig bounds how long a raw-data hash is remembered.
type DedupeConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":8090",
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    "mindstats.db",
		},
		Snapshot: SnapshotConfig{
			VersionPrefix: "Daily",
		},
		Pipeline: PipelineConfig{
			CombinePolicy: PolicyUnion,
			PriorityBoost: true,
			WindowDays:    30,
		},
		Themes: ThemesConfig{
			Enabled:    true,
			Timeout:    30 * time.Second,
			SampleSize: 50,
			BaseURL:    "https://api.openai.com",
			Model:      "gpt-4o-mini",
		},
		Schedule: ScheduleConfig{
			Window: 24 * time.Hour,
		},
		Dedupe: DedupeConfig{
			TTL: 24 * time.Hour,
		},
	}
}

// Validate checks field constraints and returns ErrInvalidConfig on failure.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
