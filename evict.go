package cache

import "github.com/krisalay/cachemanager/types"

// Reason tells an OnEvict callback why an entry left the cache.
type Reason int

const (
	// EvictCapacity: the cache was full and the entry was the eviction victim.
	EvictCapacity Reason = iota + 1
	// EvictExpired: the entry outlived its TTL.
	EvictExpired
	// EvictRemoved: Remove deleted a live entry, or Refresh found it gone
	// from the backend.
	EvictRemoved
	// EvictCleared: Clear emptied the cache.
	EvictCleared
)

func (r Reason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictExpired:
		return "expired"
	case EvictRemoved:
		return "removed"
	case EvictCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// event is one entry leaving the store. Events are collected under the
// store lock and dispatched after it is released.
type event[K comparable, V any] struct {
	entry  *types.CacheEntry[K, V]
	reason Reason
}

// OnEvict registers fn to be called whenever an entry leaves the cache.
// Callbacks run on the goroutine that removed the entry, after the cache lock
// is released, so they may call back into the cache.
func (c *Cache[K, V]) OnEvict(fn func(key K, value V, reason Reason)) {
	if fn == nil {
		return
	}
	c.evictMu.Lock()
	c.onEvict = append(c.onEvict, fn)
	c.evictMu.Unlock()
}

// dispatch updates the counters for removed entries and runs the callbacks.
func (c *Cache[K, V]) dispatch(events []event[K, V]) {
	if len(events) == 0 {
		return
	}

	for _, ev := range events {
		switch ev.reason {
		case EvictCapacity:
			c.counters.evictions.Add(1)
			c.engine.Metrics.Eviction()
			c.log.V(1).Info("evicted", "key", ev.entry.Key)
		case EvictExpired:
			c.counters.expirations.Add(1)
			c.engine.Metrics.Expire()
		}
	}

	c.evictMu.RLock()
	callbacks := c.onEvict
	c.evictMu.RUnlock()

	for _, fn := range callbacks {
		for _, ev := range events {
			fn(ev.entry.Key, ev.entry.Value, ev.reason)
		}
	}
}
