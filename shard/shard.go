package shard

import (
	"context"
	"errors"
	"fmt"
	"time"

	cache "github.com/krisalay/cachemanager"
	"github.com/krisalay/cachemanager/api"
	"github.com/krisalay/cachemanager/types"
)

var _ api.Cache[string, any] = (*Cache[string, any])(nil)

/*
Cache splits the key space across independent caches. A shard is a small,
independent piece of the cache. Instead of having one big cache and one big
lock, each shard:
- Holds some portion of the data
- Has its own LRU order and capacity
- Has its own lock and its own load coalescing

This improves write concurrency, at a price: eviction is least-recently-used
per shard, not across the whole cache. A key can be evicted while an older
key survives in a less busy shard. Use the root cache when exact LRU order
matters.
*/
type Cache[K comparable, V any] struct {
	shards   []*cache.Cache[K, V]
	selector Selector[K]
	capacity int
}

// New builds a sharded cache without a loader. maxCapacity is split across
// the shards so their capacities add up to it exactly. Every shard must get
// at least one slot, so a positive maxCapacity below shards is rejected;
// 0 keeps nothing, as with the root cache.
func New[K comparable, V any](shards int, defaultTTL time.Duration, maxCapacity int, opts ...cache.Option) (*Cache[K, V], error) {
	return build(shards, maxCapacity, func(capacity int) (*cache.Cache[K, V], error) {
		return cache.New[K, V](defaultTTL, capacity, opts...)
	})
}

// NewWithLoader builds a sharded cache whose shards share loader.
func NewWithLoader[K comparable, V any](
	shards int,
	defaultTTL time.Duration,
	maxCapacity int,
	loader types.Loader[K, V],
	opts ...cache.Option,
) (*Cache[K, V], error) {
	return build(shards, maxCapacity, func(capacity int) (*cache.Cache[K, V], error) {
		return cache.NewWithLoader(defaultTTL, capacity, loader, opts...)
	})
}

func build[K comparable, V any](n, maxCapacity int, newShard func(int) (*cache.Cache[K, V], error)) (*Cache[K, V], error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d shards", cache.ErrInvalidOption, n)
	}
	if maxCapacity < 0 {
		return nil, fmt.Errorf("%w: %d", cache.ErrCapacityMisconfiguration, maxCapacity)
	}
	if maxCapacity > 0 && maxCapacity < n {
		return nil, fmt.Errorf("%w: capacity %d is less than %d shards", cache.ErrInvalidOption, maxCapacity, n)
	}

	c := &Cache[K, V]{
		shards:   make([]*cache.Cache[K, V], n),
		selector: NewHashSelector[K](),
		capacity: maxCapacity,
	}

	// The first maxCapacity%n shards take one extra slot.
	per, extra := maxCapacity/n, maxCapacity%n
	for i := range c.shards {
		capacity := per
		if i < extra {
			capacity++
		}
		s, err := newShard(capacity)
		if err != nil {
			_ = c.closeBuilt()
			return nil, err
		}
		c.shards[i] = s
	}
	return c, nil
}

func (c *Cache[K, V]) closeBuilt() error {
	var errs []error
	for _, s := range c.shards {
		if s != nil {
			errs = append(errs, s.Close())
		}
	}
	return errors.Join(errs...)
}

// shard picks the shard that owns key.
func (c *Cache[K, V]) shard(key K) *cache.Cache[K, V] {
	return c.shards[c.selector.Select(key, len(c.shards))]
}

func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	return c.shard(key).Get(ctx, key)
}

func (c *Cache[K, V]) GetCachedOnly(key K) (V, bool) {
	return c.shard(key).GetCachedOnly(key)
}

func (c *Cache[K, V]) Put(ctx context.Context, key K, value V) error {
	return c.shard(key).Put(ctx, key, value)
}

func (c *Cache[K, V]) PutWithTTL(ctx context.Context, key K, value V, ttl time.Duration) error {
	return c.shard(key).PutWithTTL(ctx, key, value, ttl)
}

func (c *Cache[K, V]) Remove(key K) bool {
	return c.shard(key).Remove(key)
}

func (c *Cache[K, V]) Expire(key K, ttl time.Duration) bool {
	return c.shard(key).Expire(key, ttl)
}

func (c *Cache[K, V]) TTL(key K) time.Duration {
	return c.shard(key).TTL(key)
}

// CleanupExpired sweeps every shard in turn. Each shard is locked only for
// its own scan.
func (c *Cache[K, V]) CleanupExpired() int {
	n := 0
	for _, s := range c.shards {
		n += s.CleanupExpired()
	}
	return n
}

// Clear empties every shard. It is not atomic across shards.
func (c *Cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.Clear()
	}
}

// Stats adds up the shard snapshots.
func (c *Cache[K, V]) Stats() cache.Stats {
	var total cache.Stats
	for _, s := range c.shards {
		st := s.Stats()
		total.Hits += st.Hits
		total.Misses += st.Misses
		total.Evictions += st.Evictions
		total.Expirations += st.Expirations
		total.EntriesCount += st.EntriesCount
	}
	return total
}

func (c *Cache[K, V]) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}

// IsFull reports whether the total entry count equals the total capacity.
func (c *Cache[K, V]) IsFull() bool {
	return c.Len() == c.capacity
}

// OnEvict registers fn on every shard.
func (c *Cache[K, V]) OnEvict(fn func(key K, value V, reason cache.Reason)) {
	for _, s := range c.shards {
		s.OnEvict(fn)
	}
}

// Close closes every shard and joins their errors.
func (c *Cache[K, V]) Close() error {
	return c.closeBuilt()
}
