// Package cache provides the result cache used for coordinate
// resolutions and symbol lookups.
//
// Cached values are derived deterministically from the same remote
// state, so writes to the same key are idempotent and last-writer-wins
// is acceptable. Entries expire after a TTL; Delete invalidates a key
// explicitly for forced refresh.
//
// Backends:
//   - memory: In-memory storage for single-process use and tests
//   - file: File-based storage for CLI usage
//   - redis: Redis-backed storage for multi-instance deployments
//   - mongo: MongoDB-backed storage with server-side TTL reaping
//   - null: No-op cache that disables caching entirely
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
//
// Get returns (data, true, nil) on a hit, (nil, false, nil) on a miss
// or expired entry, and a non-nil error only for backend failures.
// Reads never block on concurrent writes to different keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete invalidates a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultTTL is the default expiry for cached resolutions and lookups.
const DefaultTTL = 24 * time.Hour

// CoordKey builds the cache key for a coordinate resolution.
// The version is deliberately excluded: repository identity rarely
// depends on it, so all versions of a coordinate share one mapping.
func CoordKey(group, artifact string) string {
	return "coord:" + group + ":" + artifact
}

// SymbolKey builds the cache key for a (repository, symbol) lookup.
func SymbolKey(repo, symbol string) string {
	return "symbol:" + repo + "#" + symbol
}
