package shard

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

/*
This file decides HOW a cache key is assigned to a shard.
If every request went to the same shard, that shard would become a bottleneck.
Shard selection is about:
- Load balancing
- Avoiding hot spots
- Scaling under concurrency
*/

/*
Selector is the interface that decides which shard should handle a given key.
The cache does not care HOW this decision is made. Different strategies can be plugged in.
Select must always return the same index for the same key and n.
*/
type Selector[K comparable] interface {
	Select(key K, n int) int
}

/*
HashSelector spreads keys by hash.

String keys use xxhash, so their placement is stable across processes.
Other key types go through hash/maphash with a per-selector seed.
*/
type HashSelector[K comparable] struct {
	seed maphash.Seed
}

func NewHashSelector[K comparable]() *HashSelector[K] {
	return &HashSelector[K]{seed: maphash.MakeSeed()}
}

// Select returns the shard index for key.
func (s *HashSelector[K]) Select(key K, n int) int {
	return int(s.hash(key) % uint64(n))
}

func (s *HashSelector[K]) hash(key K) uint64 {
	if str, ok := any(key).(string); ok {
		return xxhash.Sum64String(str)
	}
	return maphash.Comparable(s.seed, key)
}
