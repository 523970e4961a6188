// Package memory is an in-process backing store built on ristretto. It is
// handy as a stand-in for a real database in demos and tests, and as a
// second-level store behind a small exact-LRU cache.
package memory

import (
	"context"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/krisalay/cachemanager/types"
)

var _ types.Store[string, string] = (*Store[string])(nil)

// Store keeps values in a ristretto cache keyed by string. Ristretto may
// refuse or drop entries under pressure, so a Load after Put can still
// report types.ErrNotFound.
type Store[V any] struct {
	rc *ristretto.Cache[string, V]
}

// New creates a Store. maxCost bounds how many entries it holds (each entry
// has a cost of 1).
func New[V any](maxCost int64) (*Store[V], error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store[V]{rc: rc}, nil
}

// Load returns the value for key or types.ErrNotFound.
func (s *Store[V]) Load(_ context.Context, key string) (V, error) {
	v, ok := s.rc.Get(key)
	if !ok {
		var zero V
		return zero, types.ErrNotFound
	}
	return v, nil
}

// Put stores value under key and waits until it is visible to Load.
func (s *Store[V]) Put(_ context.Context, key string, value V) error {
	s.rc.Set(key, value, 1)
	s.rc.Wait()
	return nil
}

// Delete removes key.
func (s *Store[V]) Delete(key string) {
	s.rc.Del(key)
}

// Close stops ristretto's background goroutines.
func (s *Store[V]) Close() {
	s.rc.Close()
}
