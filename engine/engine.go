package engine

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/krisalay/cachemanager/expiration"
	"github.com/krisalay/cachemanager/refresh"
	"github.com/krisalay/cachemanager/types"
	"github.com/krisalay/cachemanager/writepolicy"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- When data is expired
- How access timestamps are updated on reads/writes
- When refresh hooks are triggered
- How data is loaded on cache miss
- How writes are propagated to backing store
- How metrics are recorded

It does NOT:
- Store data
- Handle locking
- Decide eviction order
*/
type CacheEngine[K comparable, V any] struct {

	// Expiration decides when a cache entry is too old.
	// It is never nil; ExpireAfterWrite is the default.
	Expiration expiration.Strategy

	// Refresh is an optional hook that runs when data is read.
	// If nil, no refresh logic is executed.
	Refresh refresh.Hook[K, V]

	// Loader is how the cache talks to the outside world when it does NOT have the data.
	// If nil, a miss is simply reported as "no value".
	Loader types.Loader[K, V]

	// WritePolicy decides what happens when data is written to the cache.
	// If nil, cache writes stay only in memory.
	WritePolicy writepolicy.WritePolicy[K, V]

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics

	Logger logr.Logger

	// Now is the clock. Tests replace it.
	Now func() time.Time
}

/*
NewCacheEngine creates a CacheEngine.

Nil strategies and metrics are replaced by defaults so callers never need
defensive nil checks.
*/
func NewCacheEngine[K comparable, V any](
	exp expiration.Strategy,
	refresh refresh.Hook[K, V],
	loader types.Loader[K, V],
	writePolicy writepolicy.WritePolicy[K, V],
	metrics types.Metrics,
) *CacheEngine[K, V] {

	if exp == nil {
		exp = expiration.ExpireAfterWrite{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	return &CacheEngine[K, V]{
		Expiration:  exp,
		Refresh:     refresh,
		Loader:      loader,
		WritePolicy: writePolicy,
		Metrics:     metrics,
		Logger:      logr.Discard(),
		Now:         time.Now,
	}
}

// IsExpired checks whether ent is expired at the engine's current time.
func (e *CacheEngine[K, V]) IsExpired(ent *types.CacheEntry[K, V]) bool {
	return e.Expiration.IsExpired(&ent.Meta, e.Now())
}

// Remaining returns the time ent has left to live.
func (e *CacheEngine[K, V]) Remaining(ent *types.CacheEntry[K, V]) time.Duration {
	return e.Expiration.Remaining(&ent.Meta, e.Now())
}

// NewEntry builds an entry stamped by the expiration strategy.
func (e *CacheEngine[K, V]) NewEntry(key K, value V, ttl time.Duration) *types.CacheEntry[K, V] {
	now := e.Now()
	ent := types.NewEntry(key, value, ttl, now)
	e.Expiration.OnWrite(&ent.Meta, now)
	return ent
}

/*
OnRead is called every time the cache returns a live value.

Typical things that happen here:
- Update the last-access time (and the deadline, for sliding TTL)
- Trigger a background refresh
*/
func (e *CacheEngine[K, V]) OnRead(key K, ent *types.CacheEntry[K, V]) {
	e.Expiration.OnAccess(&ent.Meta, e.Now())

	if e.Refresh != nil {
		e.Refresh.OnRead(key, ent)
	}
}

/*
OnWrite is called before a Put is applied to the cache.
Write propagation depends entirely on the configured WritePolicy; an error
means the cache must keep its previous state.
*/
func (e *CacheEngine[K, V]) OnWrite(ctx context.Context, key K, value V) error {
	if e.WritePolicy == nil {
		return nil
	}
	return e.WritePolicy.OnWrite(ctx, key, value)
}

// HasLoader reports whether misses can be filled from a backing store.
func (e *CacheEngine[K, V]) HasLoader() bool {
	return e.Loader != nil
}

/*
Load is used when the cache does NOT have the data.

This usually means:
- A database call
- A network request

Failures are counted and logged here; ErrNotFound is not a failure.
*/
func (e *CacheEngine[K, V]) Load(ctx context.Context, key K) (V, error) {
	v, err := e.Loader.Load(ctx, key)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		e.Metrics.LoadFailure()
		e.Logger.Error(err, "loader failed", "key", key)
	}
	return v, err
}

// Close releases the write policy.
func (e *CacheEngine[K, V]) Close() error {
	if e.WritePolicy == nil {
		return nil
	}
	return e.WritePolicy.Close()
}
