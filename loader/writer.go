package loader

import "github.com/krisalay/cachemanager/types"

// store joins a (possibly decorated) loader with the writer it came from.
type store[K comparable, V any] struct {
	types.Loader[K, V]
	types.Writer[K, V]
}

// WithWriter pairs l with w so a decorated backend still accepts writes:
//
//	loader.WithWriter(loader.NewTraced(db, nil), db)
//
// The result can back a cache configured with write-through or write-back.
func WithWriter[K comparable, V any](l types.Loader[K, V], w types.Writer[K, V]) types.Store[K, V] {
	return store[K, V]{Loader: l, Writer: w}
}
