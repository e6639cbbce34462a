package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix     = "MINDSTATS_"
	EnvConfigPath = "MINDSTATS_CONFIG"
)

// LoadOption customizes Load.
type LoadOption func(*loadSettings)

type loadSettings struct {
	filePath string
	dotEnv   []string
}

// WithFile loads the YAML file at path instead of the MINDSTATS_CONFIG one.
func WithFile(path string) LoadOption {
	return func(s *loadSettings) {
		if path != "" {
			s.filePath = path
		}
	}
}

// WithDotEnv reads the given .env files before the environment is consulted.
// Missing files are skipped.
func WithDotEnv(paths ...string) LoadOption {
	return func(s *loadSettings) {
		s.dotEnv = append(s.dotEnv, paths...)
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if WithFile or MINDSTATS_CONFIG is set
//  3. env (prefix MINDSTATS_, "__" separates nested keys)
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	s := &loadSettings{}
	for _, opt := range opts {
		opt(s)
	}

	if err := loadDotEnv(s.dotEnv); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	base := New()

	k := koanf.New(".")

	path := s.filePath
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MINDSTATS_PIPELINE__COMBINE_POLICY -> pipeline.combine_policy
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// MINDSTATS_CONFIG itself is not a config key.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(paths []string) error {
	var present []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		present = append(present, p)
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}
