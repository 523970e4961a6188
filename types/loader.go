package types

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Loader when the backing store has no value
// for the key. The cache reports it as a plain miss and caches nothing.
var ErrNotFound = errors.New("key not found in backing store")

// Loader is the contract between the cache and the backing store.
type Loader[K comparable, V any] interface {

	/*
		Load is called when the cache misses. The key was not found in memory (or
		was expired), so the cache asks the Loader to fetch it.
		1. Cache checks memory → key not found
		2. Cache calls Load(key), at most once per key at a time
		3. Loader fetches from DB/API
		4. Cache stores the result in memory
		5. Cache returns the value

		Errors are never cached. Return ErrNotFound when the backend simply has
		no value.
	*/
	Load(ctx context.Context, key K) (V, error)
}

/*
Writer is implemented by backing stores that accept writes.

This is used by write policies:
-------------------------------
- Write-through: write immediately
- Write-back: write asynchronously later

This does NOT store data in the cache. It stores data in the backing store (DB/API/etc).
*/
type Writer[K comparable, V any] interface {
	Put(ctx context.Context, key K, value V) error
}

// Store is a backing store that can both load and write.
type Store[K comparable, V any] interface {
	Loader[K, V]
	Writer[K, V]
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Load calls f(ctx, key).
func (f LoaderFunc[K, V]) Load(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}
