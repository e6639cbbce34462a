// Package dedupe remembers recently produced snapshot content hashes.
package dedupe

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Default retention settings.
const (
	DefaultTTL             = 24 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// Deduper records seen content hashes so repeated runs over identical input can be flagged.
type Deduper interface {
	// SeenAndRecord atomically checks if hash was seen and records it if not.
	// Returns true if hash was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, hash string) bool

	// Unrecord forgets hash, used when the run that recorded it failed to persist.
	Unrecord(ctx context.Context, hash string)

	Size() int64
}

// cacheDeduper implements Deduper on an expiring in-memory cache.
type cacheDeduper struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	cache           *cache.Cache
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &cacheDeduper{
		ttl:             DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cache = cache.New(d.ttl, d.cleanupInterval)
	return d
}

// SeenAndRecord relies on Add failing for present, unexpired keys.
func (d *cacheDeduper) SeenAndRecord(_ context.Context, hash string) bool {
	return d.cache.Add(hash, struct{}{}, cache.DefaultExpiration) != nil
}

func (d *cacheDeduper) Unrecord(_ context.Context, hash string) {
	d.cache.Delete(hash)
}

func (d *cacheDeduper) Size() int64 {
	return int64(d.cache.ItemCount())
}
