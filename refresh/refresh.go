// This file defines the idea of a "refresh hook".
// This hook allows the cache to do something extra WHEN data is read from the cache.
// The goal of refresh is: "Keep data fresh without slowing down reads"

package refresh

import (
	"sync"
	"time"

	"github.com/krisalay/cachemanager/expiration"
	"github.com/krisalay/cachemanager/types"
)

/*
Hook is the interface for refresh behavior.
If a refresh hook is configured, it will be called every time a cache entry is successfully read.

The cache itself does NOT care what the hook does.
It just calls OnRead and moves on.
*/
type Hook[K comparable, V any] interface {

	/*
		OnRead is called after a successful cache read, while the cache lock is
		held. This method MUST be fast and non blocking, and it must not call
		back into the cache synchronously.
	*/
	OnRead(key K, ent *types.CacheEntry[K, V])
}

/*
Ahead is a refresh-ahead hook. When a read finds an entry whose remaining
lifetime is at most Window, it schedules a background reload of that key.

At most one reload per key is pending at a time; reads arriving while a reload
runs are ignored by the hook.
*/
type Ahead[K comparable, V any] struct {
	window     time.Duration
	expiration expiration.Strategy
	now        func() time.Time

	// reload performs the actual fetch-and-replace. It runs on its own goroutine.
	reload func(K)

	// spawn starts fn in the background. It returns false when the owner is
	// shutting down and no goroutine was started.
	spawn func(fn func()) bool

	pending sync.Map // K -> struct{}
}

func NewAhead[K comparable, V any](
	window time.Duration,
	exp expiration.Strategy,
	now func() time.Time,
	reload func(K),
	spawn func(fn func()) bool,
) *Ahead[K, V] {
	return &Ahead[K, V]{
		window:     window,
		expiration: exp,
		now:        now,
		reload:     reload,
		spawn:      spawn,
	}
}

// OnRead schedules a reload when ent is within the refresh window.
func (a *Ahead[K, V]) OnRead(key K, ent *types.CacheEntry[K, V]) {
	if a.expiration.Remaining(&ent.Meta, a.now()) > a.window {
		return
	}
	if _, busy := a.pending.LoadOrStore(key, struct{}{}); busy {
		return
	}
	started := a.spawn(func() {
		defer a.pending.Delete(key)
		a.reload(key)
	})
	if !started {
		a.pending.Delete(key)
	}
}
