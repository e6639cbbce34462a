package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/mindstats/internal/domain/record"
	"github.com/okian/mindstats/internal/domain/snapshot"
)

func TestMemoryStore_FetchRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	if err := store.Write(ctx, record.FamilyManualReport,
		record.Document{"_id": "a", FieldCreatedAt: jan},
		record.Document{"_id": "b", FieldCreatedAt: feb.Format(time.RFC3339)},
		record.Document{"_id": "c", FieldCreatedAt: "not a date"},
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Write(ctx, record.FamilyStudent, record.Document{"_id": "s1", FieldCreatedAt: jan}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	docs, err := store.Fetch(ctx, record.FamilyManualReport, Range{Start: &start, End: &feb})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// b is inside the inclusive range; c cannot be parsed and is left to the normalizer.
	if len(docs) != 2 || docs[0]["_id"] != "b" || docs[1]["_id"] != "c" {
		t.Errorf("unexpected documents: %v", docs)
	}

	all, _ := store.Fetch(ctx, record.FamilyManualReport, Range{})
	if len(all) != 3 {
		t.Errorf("expected 3 documents without range, got %d", len(all))
	}

	students, _ := store.Fetch(ctx, record.FamilyStudent, Range{Start: &start, End: &feb})
	if len(students) != 1 {
		t.Errorf("directory families must ignore the range, got %d", len(students))
	}
}

func TestMemoryStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Insert(ctx, nil); !errors.Is(err, ErrNilSnapshot) {
		t.Fatalf("expected ErrNilSnapshot, got %v", err)
	}

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	older := &snapshot.Snapshot{Version: "v1", Timestamp: base, Metrics: map[string]any{"totalReports": 1}}
	newer := &snapshot.Snapshot{Version: "v2", Timestamp: base.Add(time.Hour), Metrics: map[string]any{"totalReports": 2}}

	id2, err := store.Insert(ctx, newer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id1, err := store.Insert(ctx, older)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 == id2 || id1 == "" {
		t.Fatalf("expected distinct ids, got %q and %q", id1, id2)
	}
	if older.ID != "" {
		t.Error("insert must not mutate the caller's snapshot")
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.ID != id2 || latest.Version != "v2" {
		t.Errorf("expected newest snapshot v2, got %s", latest.Version)
	}

	got, err := store.Get(ctx, id1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.Metrics["totalReports"] = 100
	again, _ := store.Get(ctx, id1)
	if again.Metrics["totalReports"] != 1 {
		t.Error("stored snapshot must not change through a returned copy")
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	versions, _ := store.Versions(ctx)
	if len(versions) != 2 || versions[0].Version != "v2" || versions[1].Version != "v1" {
		t.Errorf("expected newest first, got %+v", versions)
	}
}
