package writepolicy

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/krisalay/cachemanager/types"
)

// This file implements the "write-back" policy.

// writeReq represents one pending write operation that needs to be sent to the backing store.
type writeReq[K comparable, V any] struct {
	ctx   context.Context
	key   K
	value V
}

/*
WriteBackPolicy manages asynchronous writes to the backing store.
*/
type WriteBackPolicy[K comparable, V any] struct {

	// store is the backing store (DB, API, etc.)
	store types.Writer[K, V]

	// ch is a buffered channel that holds pending write requests.
	ch chan writeReq[K, V]

	log logr.Logger

	// mu guards closed so OnWrite never sends on a closed channel.
	mu     sync.RWMutex
	closed bool

	// wg is used to wait for the worker to finish during shutdown.
	wg sync.WaitGroup
}

// NewWriteBackPolicy creates a write-back policy and starts its worker.
func NewWriteBackPolicy[K comparable, V any](store types.Writer[K, V], buffer int, log logr.Logger) *WriteBackPolicy[K, V] {
	w := &WriteBackPolicy[K, V]{
		store: store,
		ch:    make(chan writeReq[K, V], buffer),
		log:   log.WithName("write-back"),
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

// OnWrite queues the write. If the queue is full the write is DROPPED and
// logged; blocking here would defeat the purpose of write-back.
// The request context is detached from cancellation since the write outlives the call.
func (w *WriteBackPolicy[K, V]) OnWrite(ctx context.Context, key K, value V) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}

	select {
	case w.ch <- writeReq[K, V]{context.WithoutCancel(ctx), key, value}:
	default:
		w.log.Info("queue full, dropping write", "key", key)
	}
	return nil
}

/*
worker runs in the background and processes queued writes.
This is where eventual consistency happens.
*/
func (w *WriteBackPolicy[K, V]) worker() {
	defer w.wg.Done()

	for req := range w.ch {
		if err := w.store.Put(req.ctx, req.key, req.value); err != nil {
			w.log.Error(err, "backing store write failed", "key", req.key)
		}
	}
}

/*
Close shuts down the write-back policy gracefully.
------------------
1. Stop accepting writes and close the channel
2. Wait for the worker to drain queued writes

Close is safe to call more than once.
*/
func (w *WriteBackPolicy[K, V]) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}
