package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize console logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// JSON console mode
	err = Init(WithJSONConsole())
	if err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}

	logger = Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	logger := Get()
	ctx := context.Background()
	logger.Info(ctx, "test message",
		String("k", "v"),
		Int("n", 3),
		Float64("f", 1.5),
		Bool("b", true),
		Duration("d", time.Second),
		Any("m", map[string]int{"a": 1}),
		Error(errors.New("boom")),
	)
}

func TestLoggerFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindstats.log")
	if err := Init(WithFile(path)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Warn(context.Background(), "written to file", String("k", "v"))
	_ = Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log file to contain the warning entry")
	}
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestSetLevelString(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"debug", "debug", false},
		{"INFO", "info", false},
		{"", "info", false},
		{"warning", "warn", false},
		{"error", "error", false},
		{"chatty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := SetLevelString(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := Level(); got != tt.want {
				t.Errorf("Level() = %q, want %q", got, tt.want)
			}
		})
	}
	_ = SetLevelString("info")
}
