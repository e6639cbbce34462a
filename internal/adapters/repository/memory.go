package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/mindstats/internal/domain/record"
	"github.com/okian/mindstats/internal/domain/snapshot"
)

// MemoryStore keeps records and snapshots in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[record.Family][]record.Document
	snapshots []*snapshot.Snapshot
	byID      map[string]*snapshot.Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[record.Family][]record.Document),
		byID:    make(map[string]*snapshot.Snapshot),
	}
}

func (m *MemoryStore) Write(_ context.Context, family record.Family, docs ...record.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[family] = append(m.records[family], docs...)
	return nil
}

func (m *MemoryStore) Fetch(ctx context.Context, family record.Family, r Range) ([]record.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.records[family]
	out := make([]record.Document, 0, len(docs))
	for _, d := range docs {
		if family.Ranged() {
			if t := createdAt(d); t != nil && !r.Contains(*t) {
				continue
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *MemoryStore) Insert(ctx context.Context, s *snapshot.Snapshot) (string, error) {
	if s == nil {
		return "", ErrNilSnapshot
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	stored := s.Clone()
	stored.ID = id

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, stored)
	m.byID[id] = stored
	return id, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*snapshot.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Latest(_ context.Context) (*snapshot.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *snapshot.Snapshot
	for _, s := range m.snapshots {
		if latest == nil || !s.Timestamp.Before(latest.Timestamp) {
			latest = s
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest.Clone(), nil
}

func (m *MemoryStore) Versions(_ context.Context) ([]snapshot.VersionInfo, error) {
	m.mu.RLock()
	out := make([]snapshot.VersionInfo, 0, len(m.snapshots))
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		out = append(out, m.snapshots[i].Info())
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
