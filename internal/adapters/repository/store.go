// Package repository provides the raw record source and the snapshot store.
package repository

import (
	"context"
	"time"

	"github.com/okian/mindstats/internal/domain/normalize"
	"github.com/okian/mindstats/internal/domain/record"
	"github.com/okian/mindstats/internal/domain/snapshot"
)

// FieldCreatedAt is the raw document field ranged fetches filter on.
const FieldCreatedAt = "createdAt"

// Range is an inclusive creation-time filter. A nil bound is unbounded.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t lies within r.
func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// RecordSource reads raw records.
type RecordSource interface {
	// Fetch returns the documents of family. Report and check-in families are
	// filtered by r on createdAt; directory families ignore r.
	Fetch(ctx context.Context, family record.Family, r Range) ([]record.Document, error)
}

// RecordWriter appends raw records.
type RecordWriter interface {
	Write(ctx context.Context, family record.Family, docs ...record.Document) error
}

// SnapshotStore persists and retrieves snapshots.
type SnapshotStore interface {
	// Insert stores s and returns the assigned identifier.
	Insert(ctx context.Context, s *snapshot.Snapshot) (string, error)
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*snapshot.Snapshot, error)
	// Latest returns the snapshot with the newest timestamp, or ErrNotFound.
	Latest(ctx context.Context) (*snapshot.Snapshot, error)
	// Versions lists stored snapshots newest first.
	Versions(ctx context.Context) ([]snapshot.VersionInfo, error)
}

// Store is a backend serving every role.
type Store interface {
	RecordSource
	RecordWriter
	SnapshotStore
	Close() error
}

// createdAt extracts the creation time of doc. Missing or malformed values
// yield nil so such records still reach the normalizer, which rejects them.
func createdAt(doc record.Document) *time.Time {
	t, ok, err := normalize.ParseTimestamp(doc[FieldCreatedAt])
	if err != nil || !ok {
		return nil
	}
	return &t
}
