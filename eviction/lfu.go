// This file implements LFU eviction.

package eviction

import (
	"container/list"
	"slices"
)

// lfuNode represents one key tracked by LFU.
type lfuNode[K comparable] struct {
	key  K   // cache key
	freq int // how many times this key was accessed
}

type lfu[K comparable] struct {
	// nodes lets us quickly find the bucket element for a key
	nodes map[K]*list.Element

	// buckets groups keys by access count. Inside a bucket keys are ordered by
	// the time they reached that count, oldest at the front.
	buckets map[int]*list.List

	// minFreq is the smallest count currently present. It can go stale after
	// Remove; Evict recomputes it in that case.
	minFreq int
}

func newLFU[K comparable]() *lfu[K] {
	return &lfu[K]{
		nodes:   make(map[K]*list.Element),
		buckets: make(map[int]*list.List),
	}
}

// OnGet bumps the access count of k.
func (l *lfu[K]) OnGet(k K) {
	e, ok := l.nodes[k]
	if !ok {
		return
	}
	n := e.Value.(*lfuNode[K])
	old := n.freq
	l.unlink(e, old)
	if l.minFreq == old && l.buckets[old] == nil {
		l.minFreq++
	}
	n.freq++
	l.nodes[k] = l.bucket(n.freq).PushBack(n)
}

// OnPut starts new keys at count 1. Overwrites keep their count.
func (l *lfu[K]) OnPut(k K) {
	if _, ok := l.nodes[k]; ok {
		return
	}
	n := &lfuNode[K]{key: k, freq: 1}
	l.nodes[k] = l.bucket(1).PushBack(n)
	l.minFreq = 1
}

// Evict removes the oldest key of the lowest count.
func (l *lfu[K]) Evict() (K, bool) {
	if len(l.nodes) == 0 {
		var zero K
		return zero, false
	}
	b, ok := l.buckets[l.minFreq]
	if !ok {
		l.minFreq = l.lowestFreq()
		b = l.buckets[l.minFreq]
	}
	e := b.Front()
	n := e.Value.(*lfuNode[K])
	l.unlink(e, n.freq)
	delete(l.nodes, n.key)
	return n.key, true
}

func (l *lfu[K]) Remove(k K) {
	e, ok := l.nodes[k]
	if !ok {
		return
	}
	l.unlink(e, e.Value.(*lfuNode[K]).freq)
	delete(l.nodes, k)
}

func (l *lfu[K]) Len() int { return len(l.nodes) }

// Keys lists the most frequently used keys first.
func (l *lfu[K]) Keys() []K {
	freqs := make([]int, 0, len(l.buckets))
	for f := range l.buckets {
		freqs = append(freqs, f)
	}
	slices.Sort(freqs)

	keys := make([]K, 0, len(l.nodes))
	for i := len(freqs) - 1; i >= 0; i-- {
		for e := l.buckets[freqs[i]].Back(); e != nil; e = e.Prev() {
			keys = append(keys, e.Value.(*lfuNode[K]).key)
		}
	}
	return keys
}

func (l *lfu[K]) Reset() {
	l.nodes = make(map[K]*list.Element)
	l.buckets = make(map[int]*list.List)
	l.minFreq = 0
}

func (l *lfu[K]) bucket(freq int) *list.List {
	b, ok := l.buckets[freq]
	if !ok {
		b = list.New()
		l.buckets[freq] = b
	}
	return b
}

// unlink removes e from its bucket and drops the bucket once empty.
func (l *lfu[K]) unlink(e *list.Element, freq int) {
	b := l.buckets[freq]
	b.Remove(e)
	if b.Len() == 0 {
		delete(l.buckets, freq)
	}
}

func (l *lfu[K]) lowestFreq() int {
	lowest := 0
	for f := range l.buckets {
		if lowest == 0 || f < lowest {
			lowest = f
		}
	}
	return lowest
}
