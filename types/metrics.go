package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache calls these
methods outside of its store lock, so implementations must be safe for
concurrent use.
*/
type Metrics interface {

	// Hit is called when the cache returns a live value from memory.
	Hit()

	// Miss is called when the key is absent or expired in memory.
	Miss()

	// Eviction is called when a key is removed because the cache is full and needs space.
	Eviction()

	// Expire is called when a key is removed because it has passed its TTL,
	// either lazily on read or by a sweep.
	Expire()

	// Refresh is called when an entry is reloaded ahead of its expiry.
	Refresh()

	// LoadFailure is called when the loader returns an error.
	LoadFailure()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

The cache always holds a non-nil Metrics so the hot path has no nil checks.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()         {}
func (NoopMetrics) Miss()        {}
func (NoopMetrics) Eviction()    {}
func (NoopMetrics) Expire()      {}
func (NoopMetrics) Refresh()     {}
func (NoopMetrics) LoadFailure() {}
