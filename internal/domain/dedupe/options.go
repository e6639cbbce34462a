package dedupe

import "time"

// Option applies a configuration option to the in-memory deduper.
type Option func(*cacheDeduper)

// WithTTL sets how long a hash is remembered. A non-positive ttl keeps hashes forever.
func WithTTL(ttl time.Duration) Option {
	return func(d *cacheDeduper) {
		if ttl <= 0 {
			ttl = -1
		}
		d.ttl = ttl
	}
}

// WithCleanupInterval sets how often expired hashes are purged.
func WithCleanupInterval(interval time.Duration) Option {
	return func(d *cacheDeduper) {
		d.cleanupInterval = interval
	}
}
