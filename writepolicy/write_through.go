package writepolicy

import (
	"context"
	"fmt"

	"github.com/krisalay/cachemanager/types"
)

/*
This file implements the "write-through" policy.

Whenever the cache writes data, it first writes the same data to the backing store.

So the flow is: DB write (synchronous) → cache write
*/

// WriteThroughPolicy forwards every cache write to the backing store.
type WriteThroughPolicy[K comparable, V any] struct {

	// store is the backing store (DB, API, etc.) where data must be persisted immediately.
	store types.Writer[K, V]
}

func NewWriteThroughPolicy[K comparable, V any](store types.Writer[K, V]) *WriteThroughPolicy[K, V] {
	return &WriteThroughPolicy[K, V]{store: store}
}

/*
OnWrite writes to the backing store and reports its error.
  - This call is synchronous
  - If the backing store is slow, cache writes become slow
  - If the backing store fails, the cache keeps its old value
*/
func (w *WriteThroughPolicy[K, V]) OnWrite(ctx context.Context, key K, value V) error {
	if err := w.store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("write-through %v: %w", key, err)
	}
	return nil
}

// Close has nothing to release; write-through runs no goroutines.
func (w *WriteThroughPolicy[K, V]) Close() error { return nil }
