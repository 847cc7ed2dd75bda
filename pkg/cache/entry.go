// Package cache provides an optional Redis-backed cache for listing
// responses served to the selection UI. Listings are expensive to paginate,
// so browse endpoints keep a short-lived copy per account. Migration runs
// never read from the cache.
package cache

import (
	"encoding/json"
	"time"
)

// Entry is a cached listing payload.
type Entry struct {
	// Data is the JSON-encoded listing.
	Data json.RawMessage `json:"data"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the listing was fetched.
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry wraps a payload with the given lifetime.
func NewEntry(data []byte, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Data:     data,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the entry has passed its lifetime.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
