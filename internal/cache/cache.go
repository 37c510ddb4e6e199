// Package cache provides the shared TTL key-value cache used for stock
// quotes, pagination tokens, and catalog freshness markers. Two backends
// exist: an embedded in-memory cache (ristretto) and Redis. Writers race
// harmlessly — values are vendor-authoritative snapshots, so last-writer-wins
// is acceptable.
package cache

import (
	"context"
	"time"
)

// Cache is a string-valued TTL cache. Structured values are JSON-encoded by
// callers.
type Cache interface {
	// Get returns the value and true when present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
