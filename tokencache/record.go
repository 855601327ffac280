package tokencache

import "time"

// TokenRecord is the cached pair of an opaque session token and its expiry.
// Records are immutable once stored; the cache replaces them wholesale and
// never mutates a field in place.
type TokenRecord struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is no longer usable at the given time.
func (r TokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
