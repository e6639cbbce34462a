package repository

import (
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// Option applies a configuration option to the GormStore.
type Option func(*gormSettings)

type gormSettings struct {
	logLevel        gormlogger.LogLevel
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	batchSize       int
}

func defaultGormSettings() gormSettings {
	return gormSettings{
		logLevel:        gormlogger.Silent,
		maxOpenConns:    10,
		maxIdleConns:    5,
		connMaxLifetime: time.Hour,
		batchSize:       200,
	}
}

// WithLogLevel sets the gorm SQL log level.
func WithLogLevel(level gormlogger.LogLevel) Option {
	return func(s *gormSettings) {
		s.logLevel = level
	}
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(s *gormSettings) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithBatchSize sets how many records Write inserts per statement.
func WithBatchSize(n int) Option {
	return func(s *gormSettings) {
		if n > 0 {
			s.batchSize = n
		}
	}
}
