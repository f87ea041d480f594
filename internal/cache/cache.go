// Package cache defines the key/value cache port used by the aggregation
// pipeline. TTL policy is owned by the caller; the backends only apply it.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the cached value and whether the key was present.
	// A missing key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value under key. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases any underlying resources.
	Close() error
}
