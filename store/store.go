package store

import (
	"fmt"

	"github.com/krisalay/cachemanager/eviction"
	"github.com/krisalay/cachemanager/types"
)

/*
This file defines how data is actually stored inside the cache.

Store pairs the entry map with the recency tracker (an eviction.Policy) so the
two always hold the same key set. Lookup and Touch are separate steps: callers
decide whether a read is a "peek" or a "use".

Store does NO locking. The cache serializes every call under its own lock.
*/
type Store[K comparable, V any] struct {
	entries map[K]*types.CacheEntry[K, V]
	recency eviction.Policy[K]
}

func New[K comparable, V any](recency eviction.Policy[K]) *Store[K, V] {
	return &Store[K, V]{
		entries: make(map[K]*types.CacheEntry[K, V]),
		recency: recency,
	}
}

// Insert stores ent under key, replacing any previous entry, and marks the
// key most recently used. It reports whether an entry was replaced.
func (s *Store[K, V]) Insert(key K, ent *types.CacheEntry[K, V]) bool {
	_, replaced := s.entries[key]
	s.entries[key] = ent
	s.recency.OnPut(key)
	return replaced
}

// Lookup returns the entry for key without touching recency.
func (s *Store[K, V]) Lookup(key K) (*types.CacheEntry[K, V], bool) {
	ent, ok := s.entries[key]
	return ent, ok
}

// Touch marks key as most recently used.
func (s *Store[K, V]) Touch(key K) {
	s.recency.OnGet(key)
}

// Delete removes key from both the map and the recency tracker.
func (s *Store[K, V]) Delete(key K) (*types.CacheEntry[K, V], bool) {
	ent, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	delete(s.entries, key)
	s.recency.Remove(key)
	return ent, true
}

// EvictOldest removes the entry the recency tracker picks as victim.
// It returns false when the store is empty.
func (s *Store[K, V]) EvictOldest() (*types.CacheEntry[K, V], bool) {
	key, ok := s.recency.Evict()
	if !ok {
		return nil, false
	}
	ent := s.entries[key]
	delete(s.entries, key)
	return ent, true
}

// DeleteFunc removes every entry for which fn returns true and returns them.
// This is the only O(n) operation.
func (s *Store[K, V]) DeleteFunc(fn func(*types.CacheEntry[K, V]) bool) []*types.CacheEntry[K, V] {
	var removed []*types.CacheEntry[K, V]
	for key, ent := range s.entries {
		if fn(ent) {
			delete(s.entries, key)
			s.recency.Remove(key)
			removed = append(removed, ent)
		}
	}
	return removed
}

// Reset empties the store and returns what it held.
func (s *Store[K, V]) Reset() []*types.CacheEntry[K, V] {
	removed := make([]*types.CacheEntry[K, V], 0, len(s.entries))
	for _, ent := range s.entries {
		removed = append(removed, ent)
	}
	s.entries = make(map[K]*types.CacheEntry[K, V])
	s.recency.Reset()
	return removed
}

// Len returns how many entries are stored, expired or not.
func (s *Store[K, V]) Len() int {
	return len(s.entries)
}

// Keys lists keys in recency order, the last eviction candidate first.
func (s *Store[K, V]) Keys() []K {
	return s.recency.Keys()
}

// CheckInvariants reports a divergence between the entry map and the
// recency tracker. A non-nil result is a programming error.
func (s *Store[K, V]) CheckInvariants() error {
	if n, m := len(s.entries), s.recency.Len(); n != m {
		return fmt.Errorf("store: %d entries but %d tracked keys", n, m)
	}
	for _, key := range s.recency.Keys() {
		ent, ok := s.entries[key]
		if !ok {
			return fmt.Errorf("store: tracked key %v has no entry", key)
		}
		if ent.CreatedAt.After(ent.LastAccessedAt) {
			return fmt.Errorf("store: entry %v accessed before it was created", key)
		}
	}
	return nil
}
