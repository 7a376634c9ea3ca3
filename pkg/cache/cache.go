// Package cache stores registry service indexes between runs.
//
// A NuGet service index changes rarely, so nugetfetch can keep the discovered
// search endpoints for a while instead of fetching /v3/index.json on every
// invocation. The backing store is pluggable:
//
//   - [NullCache]: stores nothing; every process starts cold
//   - [FileCache]: JSON entries under a local directory (CLI default)
//   - [RedisCache]: shared entries in a Redis instance
//
// Keys are produced by a [Keyer] so that authenticated and anonymous views of
// the same registry never share an entry.
package cache

import (
	"context"
	"time"
)

// IndexTTL is how long a discovered service index stays fresh.
const IndexTTL = 40 * time.Minute

// Cache is a byte-oriented key/value store with per-entry expiration.
type Cache interface {
	// Get returns the stored bytes and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any held resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}
