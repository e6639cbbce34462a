package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/mindstats/internal/domain/record"
	"github.com/okian/mindstats/internal/domain/snapshot"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type rawRecordModel struct {
	ID      uint           `gorm:"primaryKey"`
	Family  string         `gorm:"size:32;not null;index:idx_raw_records_family_created,priority:1"`
	Created *time.Time     `gorm:"column:created_at;index:idx_raw_records_family_created,priority:2"`
	Payload datatypes.JSON `gorm:"not null"`
}

func (rawRecordModel) TableName() string { return "raw_records" }

type snapshotModel struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Version     string     `gorm:"column:snapshot_version;size:128;not null;index"`
	Timestamp   time.Time  `gorm:"column:snapshot_timestamp;not null;index"`
	PeriodStart *time.Time `gorm:"column:period_start"`
	PeriodEnd   *time.Time `gorm:"column:period_end"`
	Metrics     datatypes.JSON
	Filters     datatypes.JSON
	RawDataHash string `gorm:"column:raw_data_hash;size:64;index"`
}

func (snapshotModel) TableName() string { return "analytics_snapshots" }

// GormStore keeps raw records and snapshots in a SQL database through gorm.
type GormStore struct {
	db        *gorm.DB
	batchSize int
}

// OpenGorm connects to driver/dsn and migrates the schema.
func OpenGorm(ctx context.Context, driver, dsn string, opts ...Option) (*GormStore, error) {
	s := defaultGormSettings()
	for _, opt := range opts {
		opt(&s)
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
		// Every connection to an in-memory sqlite database sees its own database.
		if strings.Contains(dsn, ":memory:") {
			s.maxOpenConns, s.maxIdleConns = 1, 1
		}
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(s.logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	sqlDB.SetMaxOpenConns(s.maxOpenConns)
	sqlDB.SetMaxIdleConns(s.maxIdleConns)
	sqlDB.SetConnMaxLifetime(s.connMaxLifetime)

	store, err := NewGormStore(ctx, db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	store.batchSize = s.batchSize
	return store, nil
}

// NewGormStore wraps an open connection and migrates the schema.
func NewGormStore(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&rawRecordModel{}, &snapshotModel{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &GormStore{db: db, batchSize: defaultGormSettings().batchSize}, nil
}

func (g *GormStore) Write(ctx context.Context, family record.Family, docs ...record.Document) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]rawRecordModel, 0, len(docs))
	for _, d := range docs {
		payload, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode %s record: %w", family, err)
		}
		rows = append(rows, rawRecordModel{Family: string(family), Created: createdAt(d), Payload: payload})
	}
	if err := g.db.WithContext(ctx).CreateInBatches(rows, g.batchSize).Error; err != nil {
		return fmt.Errorf("write %s records: %w", family, err)
	}
	return nil
}

func (g *GormStore) Fetch(ctx context.Context, family record.Family, r Range) ([]record.Document, error) {
	q := g.db.WithContext(ctx).Where("family = ?", string(family))
	if family.Ranged() {
		// Rows without a parseable createdAt are returned so normalization can reject them.
		if r.Start != nil {
			q = q.Where("created_at IS NULL OR created_at >= ?", r.Start.UTC())
		}
		if r.End != nil {
			q = q.Where("created_at IS NULL OR created_at <= ?", r.End.UTC())
		}
	}

	var rows []rawRecordModel
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch %s records: %w", family, err)
	}
	out := make([]record.Document, 0, len(rows))
	for _, row := range rows {
		var d record.Document
		if err := json.Unmarshal(row.Payload, &d); err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", family, row.ID, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (g *GormStore) Insert(ctx context.Context, s *snapshot.Snapshot) (string, error) {
	if s == nil {
		return "", ErrNilSnapshot
	}
	metrics, err := json.Marshal(s.Metrics)
	if err != nil {
		return "", fmt.Errorf("encode snapshot metrics: %w", err)
	}
	filters, err := json.Marshal(s.FiltersUsed)
	if err != nil {
		return "", fmt.Errorf("encode snapshot filters: %w", err)
	}
	row := snapshotModel{
		ID:          uuid.NewString(),
		Version:     s.Version,
		Timestamp:   s.Timestamp.UTC(),
		PeriodStart: s.PeriodStart,
		PeriodEnd:   s.PeriodEnd,
		Metrics:     metrics,
		Filters:     filters,
		RawDataHash: s.RawDataHash,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}
	return row.ID, nil
}

func (g *GormStore) Get(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	var row snapshotModel
	err := g.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return row.toSnapshot()
}

func (g *GormStore) Latest(ctx context.Context) (*snapshot.Snapshot, error) {
	var row snapshotModel
	err := g.db.WithContext(ctx).Order("snapshot_timestamp DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return row.toSnapshot()
}

func (g *GormStore) Versions(ctx context.Context) ([]snapshot.VersionInfo, error) {
	var rows []snapshotModel
	err := g.db.WithContext(ctx).
		Select("id", "snapshot_version", "snapshot_timestamp", "period_start", "period_end").
		Order("snapshot_timestamp DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]snapshot.VersionInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshot.VersionInfo{
			ID:          row.ID,
			Version:     row.Version,
			Timestamp:   row.Timestamp.UTC(),
			PeriodStart: utc(row.PeriodStart),
			PeriodEnd:   utc(row.PeriodEnd),
		})
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (m snapshotModel) toSnapshot() (*snapshot.Snapshot, error) {
	s := &snapshot.Snapshot{
		ID:          m.ID,
		Version:     m.Version,
		Timestamp:   m.Timestamp.UTC(),
		PeriodStart: utc(m.PeriodStart),
		PeriodEnd:   utc(m.PeriodEnd),
		Metrics:     map[string]any{},
		FiltersUsed: map[string]any{},
		RawDataHash: m.RawDataHash,
	}
	if len(m.Metrics) > 0 {
		if err := json.Unmarshal(m.Metrics, &s.Metrics); err != nil {
			return nil, fmt.Errorf("decode snapshot %s metrics: %w", m.ID, err)
		}
	}
	if len(m.Filters) > 0 {
		if err := json.Unmarshal(m.Filters, &s.FiltersUsed); err != nil {
			return nil, fmt.Errorf("decode snapshot %s filters: %w", m.ID, err)
		}
	}
	return s, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
