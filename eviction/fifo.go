// This file implements FIFO eviction.

package eviction

import "container/list"

type fifo[K comparable] struct {
	// queue keeps keys in the order they were first inserted.
	// The front of the queue is the oldest key.
	queue *list.List

	// elems lets Remove find a key's queue position without a scan.
	elems map[K]*list.Element
}

func newFIFO[K comparable]() *fifo[K] {
	return &fifo[K]{
		queue: list.New(),
		elems: make(map[K]*list.Element),
	}
}

// OnGet is a no-op. FIFO ignores reads completely.
func (f *fifo[K]) OnGet(K) {}

// OnPut only records the first insertion of a key; overwrites keep their place.
func (f *fifo[K]) OnPut(k K) {
	if _, ok := f.elems[k]; ok {
		return
	}
	f.elems[k] = f.queue.PushBack(k)
}

// Evict pops the oldest inserted key.
func (f *fifo[K]) Evict() (K, bool) {
	e := f.queue.Front()
	if e == nil {
		var zero K
		return zero, false
	}
	k := f.queue.Remove(e).(K)
	delete(f.elems, k)
	return k, true
}

func (f *fifo[K]) Remove(k K) {
	if e, ok := f.elems[k]; ok {
		f.queue.Remove(e)
		delete(f.elems, k)
	}
}

func (f *fifo[K]) Len() int { return len(f.elems) }

// Keys lists the newest key first.
func (f *fifo[K]) Keys() []K {
	keys := make([]K, 0, len(f.elems))
	for e := f.queue.Back(); e != nil; e = e.Prev() {
		keys = append(keys, e.Value.(K))
	}
	return keys
}

func (f *fifo[K]) Reset() {
	f.queue.Init()
	f.elems = make(map[K]*list.Element)
}
