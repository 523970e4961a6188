package cache

import "sync/atomic"

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	// Lifetime counters. Clear does not reset them.
	Hits        uint64
	Misses      uint64
	Evictions   uint64 // capacity evictions only
	Expirations uint64 // lazy expiry on read plus sweeps

	// EntriesCount is the store size when the snapshot was taken, including
	// expired entries nobody has removed yet.
	EntriesCount int
}

// HitRatio returns Hits / (Hits + Misses), or 0 before the first read.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type counters struct {
	hits        atomic.Uint64
	misses      atomic.Uint64
	evictions   atomic.Uint64
	expirations atomic.Uint64
}

func (c *Cache[K, V]) recordHit() {
	c.counters.hits.Add(1)
	c.engine.Metrics.Hit()
}

func (c *Cache[K, V]) recordMiss() {
	c.counters.misses.Add(1)
	c.engine.Metrics.Miss()
}

// Stats returns the current counters and entry count.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.RLock()
	n := c.store.Len()
	c.mu.RUnlock()

	return Stats{
		Hits:         c.counters.hits.Load(),
		Misses:       c.counters.misses.Load(),
		Evictions:    c.counters.evictions.Load(),
		Expirations:  c.counters.expirations.Load(),
		EntriesCount: n,
	}
}
