package eviction

import "fmt"

/*
This file defines how the cache decides what to remove when it runs out of space.
*/

/*
Policy is the interface that all eviction strategies must follow.

A Policy only tracks keys. The store owns the values and keeps the policy's
key set equal to its own. Policies are not safe for concurrent use; the cache
lock serializes every call.
*/
type Policy[K comparable] interface {

	// OnGet is called whenever a live key is read from the cache.
	//
	// Some eviction strategies care about reads.
	// For example:
	// - LRU needs to know what was accessed recently
	// - LFU counts accesses
	//
	// FIFO ignores this.
	OnGet(K)

	// OnPut is called whenever a key is inserted or overwritten.
	OnPut(K)

	// Remove is called when a key leaves the cache for any reason other
	// than Evict (explicit removal, expiry).
	Remove(K)

	// Evict removes and returns the key the policy wants gone next.
	// The boolean is false when nothing is tracked.
	Evict() (K, bool)

	// Len returns the number of tracked keys.
	Len() int

	// Keys lists the tracked keys, the one that would be evicted last first.
	Keys() []K

	// Reset forgets every key.
	Reset()
}

// PolicyType is a simple identifier for supported eviction strategies.
type PolicyType string

const (
	// LRU (Least Recently Used): Evicts the key that has NOT been accessed for the longest time.
	LRU PolicyType = "LRU"

	// LFU (Least Frequently Used): Evicts the key that has been accessed the fewest times.
	// Among keys with the same count, the one that reached that count first goes.
	LFU PolicyType = "LFU"

	// FIFO (First In First Out): Evicts the oldest inserted key, regardless of access.
	FIFO PolicyType = "FIFO"
)

// New creates the policy named by t.
func New[K comparable](t PolicyType) (Policy[K], error) {
	switch t {
	case LRU, "":
		return newLRU[K](), nil
	case LFU:
		return newLFU[K](), nil
	case FIFO:
		return newFIFO[K](), nil
	default:
		return nil, fmt.Errorf("unknown eviction policy %q", t)
	}
}
