// Package common provides shared utilities for brokerd
package common

import "time"

// Freshness TTLs for cached vendor data
const (
	FreshnessQuote   = 5 * time.Minute  // persisted stock quotes
	FreshnessToken   = 10 * time.Minute // pagination continuation tokens
	FreshnessCatalog = 5 * time.Minute  // full vendor catalog walks
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
