package api

import (
	"context"
	"time"
)

/*
Cache defines the PUBLIC API of our in-memory cache system.
This is a contract that guarantees certain behaviors, without exposing internals.
All of the details like (eviction, expiration, concurrency, data loading, and data writing)
are hidden behind this interface.

Every method is safe for concurrent use.
*/
type Cache[K comparable, V any] interface {

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		-------------------
		1. If the key exists in cache and is NOT expired:
		   - Return the value immediately (cache hit)

		2. If the key does NOT exist or is expired:
		   - Count a miss (an expired entry is deleted first)
		   - If a loader is configured, load the value from the backing store,
		     store it with the default TTL and return it
		   - Concurrent misses on the same key share ONE loader call and its outcome
		   - Loader errors are returned, never cached

		3. Without a loader, a miss returns (zero, false, nil)
	*/
	Get(ctx context.Context, key K) (V, bool, error)

	/*
		GetCachedOnly is Get without the loader.
		Expired entries are still removed and counted as misses.
	*/
	GetCachedOnly(key K) (V, bool)

	/*
		Put stores a key-value pair in the cache with the default TTL.

		BEHAVIOR:
		---------
		- Stores the value in memory
		- Evicts the least recently used entry if a NEW key would overflow capacity
		- Applies write policy (write-through or write-back)
	*/
	Put(ctx context.Context, key K, value V) error

	/*
		PutWithTTL stores a key-value pair with an explicit time-to-live (TTL).

		TTL (Time-To-Live):
		-------------------
		- Defines how long the key should remain valid
		- After TTL expires, the key is considered expired
		- Expired keys are lazily removed on access, or by CleanupExpired
	*/
	PutWithTTL(ctx context.Context, key K, value V, ttl time.Duration) error

	/*
		Remove deletes a key from the cache immediately.

		BEHAVIOR:
		---------
		- Removes the key from in-memory storage
		- Removes it from eviction policy tracking
		- Does NOT affect the backing store
		- Returns true only if a live entry was deleted

		This operation is idempotent:
		- Removing a non-existing key is safe
	*/
	Remove(key K) bool

	/*
		CleanupExpired scans every entry and deletes the expired ones.
		Returns how many were removed.
	*/
	CleanupExpired() int

	/*
		Clear removes every entry. Lifetime hit/miss/eviction counters are kept.
	*/
	Clear()

	/*
		IsFull reports whether the entry count equals the max capacity.
	*/
	IsFull() bool

	/*
		Expire sets or updates the TTL for an existing key.

		BEHAVIOR:
		---------
		- If the key exists and is live:
		  - Updates its expiration time to now + ttl
		  - Returns true

		- Otherwise:
		  - Does nothing
		  - Returns false
	*/
	Expire(key K, ttl time.Duration) bool

	/*
		TTL returns the remaining time-to-live for a key.

		RETURN VALUES (Redis-compatible semantics):
		-------------------------------------------
		> 0   : Duration remaining before expiration
		-2    : Key does not exist or is already expired

		Every entry carries a TTL, so the Redis -1 ("no TTL") never occurs.
	*/
	TTL(key K) time.Duration

	/*
		Close gracefully shuts down the cache.

		BEHAVIOR:
		---------
		- Flushes any pending write-back operations
		- Stops background goroutines
		- Rejects later writes

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Graceful termination
		- Tests cleanup
	*/
	Close() error
}
