// Package logger provides a simple, clean logging interface.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the optional file sink.
const (
	defaultMaxSizeMB  = 16
	defaultMaxBackups = 32
	defaultMaxAgeDays = 90
)

// Logger defines the logging interface.
type Logger interface {
	// Context-aware variants
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field        { return Field{Key: key, Value: val} }
func Error(err error) Field                        { return Field{Key: "error", Value: err} }

// zapLogger implements Logger on top of zap.
type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) Info(_ context.Context, msg string, fields ...Field) {
	l.z.Info(msg, convertFields(fields)...)
}

func (l *zapLogger) Error(_ context.Context, msg string, fields ...Field) {
	l.z.Error(msg, convertFields(fields)...)
}

func (l *zapLogger) Debug(_ context.Context, msg string, fields ...Field) {
	l.z.Debug(msg, convertFields(fields)...)
}

func (l *zapLogger) Warn(_ context.Context, msg string, fields ...Field) {
	l.z.Warn(msg, convertFields(fields)...)
}

func (l *zapLogger) Fatal(_ context.Context, msg string, fields ...Field) {
	l.z.Fatal(msg, convertFields(fields)...)
}

// convertFields converts our Field type to zap fields.
func convertFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			out[i] = zap.Error(err)
			continue
		}
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// Option configures Init.
type Option func(*settings)

type settings struct {
	filePath string
	console  *os.File
	json     bool
}

// WithFile adds a rotating JSON file sink at path.
func WithFile(path string) Option {
	return func(s *settings) {
		s.filePath = strings.TrimSpace(path)
	}
}

// WithJSONConsole switches the console sink to JSON encoding.
func WithJSONConsole() Option {
	return func(s *settings) {
		s.json = true
	}
}

var (
	global   Logger
	base     *zap.Logger
	levelVar = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// Init initializes the global logger. The console sink writes to stderr; a
// rotating file sink is added when WithFile is given.
func Init(opts ...Option) error {
	s := &settings{console: os.Stderr}
	for _, opt := range opts {
		opt(s)
	}

	cores := []zapcore.Core{consoleCore(s)}

	if s.filePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   s.filePath,
			MaxSize:    defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
			MaxAge:     defaultMaxAgeDays,
			Compress:   true,
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), levelVar))
	}

	base = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	global = &zapLogger{z: base}
	return nil
}

func consoleCore(s *settings) zapcore.Core {
	fd := s.console.Fd()
	isTerminal := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	var enc zapcore.Encoder
	if s.json {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
		if isTerminal {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewCore(enc, zapcore.Lock(s.console), levelVar)
}

// Get returns the global logger.
func Get() Logger {
	if global == nil {
		// The logger should be explicitly initialized by the application
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries. Sync errors on stderr/stdout are
// ignored since those descriptors do not support fsync on most platforms.
func Sync() error {
	if base == nil {
		return nil
	}
	if err := base.Sync(); err != nil && !isIgnorableSyncError(err) {
		return err
	}
	return nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}

// SetLevel updates the current logging level for the global logger.
func SetLevel(level zapcore.Level) { levelVar.SetLevel(level) }

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(zapcore.DebugLevel)
	case "", "info":
		SetLevel(zapcore.InfoLevel)
	case "warn", "warning":
		SetLevel(zapcore.WarnLevel)
	case "error":
		SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}

// Level reports the active level as a string.
func Level() string {
	return levelVar.Level().String()
}
