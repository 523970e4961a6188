package cache

import "time"

// janitor sweeps expired entries every interval until the cache is closed.
// Reads still expire entries lazily; the janitor only bounds how long an
// unread expired entry can hold memory.
func (c *Cache[K, V]) janitor(every time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.CleanupExpired()
		}
	}
}

// goTracked runs fn on a goroutine owned by the cache. It returns false
// once the cache is closed.
func (c *Cache[K, V]) goTracked(fn func()) bool {
	c.bgMu.RLock()
	defer c.bgMu.RUnlock()
	if c.closed {
		return false
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
	return true
}

func (c *Cache[K, V]) isClosed() bool {
	c.bgMu.RLock()
	defer c.bgMu.RUnlock()
	return c.closed
}
