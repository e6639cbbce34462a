package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/mindstats/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8090")
				convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.Snapshot.VersionPrefix, convey.ShouldEqual, "Daily")
				convey.So(cfg.Pipeline.CombinePolicy, convey.ShouldEqual, config.PolicyUnion)
				convey.So(cfg.Pipeline.PriorityBoost, convey.ShouldBeTrue)
				convey.So(cfg.Pipeline.WindowDays, convey.ShouldEqual, 30)
				convey.So(cfg.Themes.Timeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.Themes.SampleSize, convey.ShouldEqual, 50)
				convey.So(cfg.Schedule.Interval, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MINDSTATS_ADDR", ":8080")
			_ = os.Setenv("MINDSTATS_PIPELINE__COMBINE_POLICY", "intersection")
			_ = os.Setenv("MINDSTATS_PIPELINE__PARALLEL", "true")
			_ = os.Setenv("MINDSTATS_THEMES__TIMEOUT", "5s")
			_ = os.Setenv("MINDSTATS_STORE__DRIVER", "memory")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then nested keys are overridden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Pipeline.CombinePolicy, convey.ShouldEqual, config.PolicyIntersection)
				convey.So(cfg.Pipeline.Parallel, convey.ShouldBeTrue)
				convey.So(cfg.Themes.Timeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.Pipeline.WindowDays, convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
snapshot:
  version_prefix: Weekly
schedule:
  interval: 1h
  window: 168h
themes:
  enabled: false
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("MINDSTATS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Snapshot.VersionPrefix, convey.ShouldEqual, "Weekly")
				convey.So(cfg.Schedule.Interval, convey.ShouldEqual, time.Hour)
				convey.So(cfg.Schedule.Window, convey.ShouldEqual, 168*time.Hour)
				convey.So(cfg.Themes.Enabled, convey.ShouldBeFalse)
				convey.So(cfg.Themes.SampleSize, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When both file and environment variables are present", func() {
			tmpFile := createTempConfigFile(t, "addr: \":9090\"\nlog_level: debug\n")
			_ = os.Setenv("MINDSTATS_CONFIG", tmpFile)
			_ = os.Setenv("MINDSTATS_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When WithFile is given", func() {
			tmpFile := createTempConfigFile(t, "addr: \":6060\"\n")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithFile(tmpFile))

			convey.Convey("Then that file is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When a .env file is given", func() {
			dir := t.TempDir()
			dotEnv := filepath.Join(dir, ".env")
			convey.So(os.WriteFile(dotEnv, []byte("MINDSTATS_SNAPSHOT__VERSION_PREFIX=Nightly\n"), 0o600), convey.ShouldBeNil)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithDotEnv(dotEnv, filepath.Join(dir, "missing.env")))

			convey.Convey("Then its variables are applied and missing files skipped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Snapshot.VersionPrefix, convey.ShouldEqual, "Nightly")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("MINDSTATS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MINDSTATS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("MINDSTATS_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown combine policy", func() {
			_ = os.Setenv("MINDSTATS_PIPELINE__COMBINE_POLICY", "outer")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MINDSTATS_PIPELINE__WINDOW_DAYS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the sample size exceeds fifty", func() {
			cfg.Themes.SampleSize = 51

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the driver is memory and the DSN empty", func() {
			cfg.Store.Driver = config.DriverMemory
			cfg.Store.DSN = ""

			convey.Convey("Then it validates", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the driver is postgres and the DSN empty", func() {
			cfg.Store.Driver = config.DriverPostgres
			cfg.Store.DSN = ""

			convey.Convey("Then it is rejected", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "mindstats-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
