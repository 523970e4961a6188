package types

import "time"

// Meta is the bookkeeping the expiration strategies look at.
// It is kept separate from the value so policies stay non-generic.
type Meta struct {
	CreatedAt      time.Time
	LastAccessedAt time.Time
	TTL            time.Duration
}

// CacheEntry is one stored key/value pair.
// The store replaces entries wholesale on overwrite; only LastAccessedAt
// (and TTL through Expire) is mutated in place, under the cache lock.
type CacheEntry[K comparable, V any] struct {
	Key   K
	Value V
	Meta
}

// NewEntry builds an entry created at now with the given ttl.
func NewEntry[K comparable, V any](key K, value V, ttl time.Duration, now time.Time) *CacheEntry[K, V] {
	return &CacheEntry[K, V]{
		Key:   key,
		Value: value,
		Meta: Meta{
			CreatedAt:      now,
			LastAccessedAt: now,
			TTL:            ttl,
		},
	}
}
