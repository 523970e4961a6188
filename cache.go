package cache

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/cachemanager/api"
	"github.com/krisalay/cachemanager/engine"
	"github.com/krisalay/cachemanager/eviction"
	"github.com/krisalay/cachemanager/refresh"
	"github.com/krisalay/cachemanager/store"
	"github.com/krisalay/cachemanager/types"
	"github.com/krisalay/cachemanager/writepolicy"
)

// TTLNotFound is what TTL returns for a key that is absent or expired.
const TTLNotFound time.Duration = -2

var _ api.Cache[string, any] = (*Cache[string, any])(nil)

/*
Cache is the main cache implementation.
This struct is the orchestrator that connects:
- the entry store and its recency tracker
- the engine (expiration, refresh, loading, write policy, metrics)
- per-key load coalescing
- the stats counters
- background goroutines (janitor, refresh-ahead)

One RWMutex guards the store. Backend calls never run under it.
*/

// writeStripes is the number of per-key write locks.
const writeStripes = 64
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	store *store.Store[K, V]

	// engine contains the "rules" of the cache: TTL, refresh, loader, write policy, metrics.
	engine *engine.CacheEngine[K, V]

	defaultTTL  time.Duration
	maxCapacity int

	// sf makes sure that concurrent misses on one key share a single backend call.
	sf singleflight.Group

	// pending has one marker per key with a backend load in flight, guarded
	// by mu. Put, Remove and Clear mark it stale so the load is not cached.
	pending map[K]*pendingLoad

	// writeLocks keep the write policy call and the cache update of one key
	// in the same order for concurrent Puts.
	writeLocks [writeStripes]sync.Mutex
	writeSeed  maphash.Seed

	counters counters
	log      logr.Logger

	evictMu sync.RWMutex
	onEvict []func(K, V, Reason)

	// bgMu guards closed; wg tracks the janitor and refresh goroutines.
	bgMu   sync.RWMutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a cache without a loader. Misses simply report "no value".
func New[K comparable, V any](defaultTTL time.Duration, maxCapacity int, opts ...Option) (*Cache[K, V], error) {
	return newCache[K, V](defaultTTL, maxCapacity, nil, opts)
}

// NewWithLoader creates a cache that fills misses from loader.
func NewWithLoader[K comparable, V any](
	defaultTTL time.Duration,
	maxCapacity int,
	loader types.Loader[K, V],
	opts ...Option,
) (*Cache[K, V], error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: nil loader", ErrInvalidOption)
	}
	return newCache(defaultTTL, maxCapacity, loader, opts)
}

// MustNew is like New but panics on a configuration error.
func MustNew[K comparable, V any](defaultTTL time.Duration, maxCapacity int, opts ...Option) *Cache[K, V] {
	c, err := New[K, V](defaultTTL, maxCapacity, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// MustNewWithLoader is like NewWithLoader but panics on a configuration error.
func MustNewWithLoader[K comparable, V any](
	defaultTTL time.Duration,
	maxCapacity int,
	loader types.Loader[K, V],
	opts ...Option,
) *Cache[K, V] {
	c, err := NewWithLoader(defaultTTL, maxCapacity, loader, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func newCache[K comparable, V any](
	defaultTTL time.Duration,
	maxCapacity int,
	loader types.Loader[K, V],
	opts []Option,
) (*Cache[K, V], error) {

	if maxCapacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrCapacityMisconfiguration, maxCapacity)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	recency, err := eviction.New[K](o.policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	if o.refreshWindow > 0 && loader == nil {
		return nil, fmt.Errorf("%w: refresh-ahead needs a loader", ErrInvalidOption)
	}

	log := o.logger.WithName("cache")

	// The write policy is created last: write-back starts a worker.
	var wp writepolicy.WritePolicy[K, V]
	if o.writeMode != writeNone {
		w, ok := loader.(types.Writer[K, V])
		if !ok {
			return nil, fmt.Errorf("%w: write policy needs a loader that implements types.Writer", ErrInvalidOption)
		}
		switch o.writeMode {
		case writeThrough:
			wp = writepolicy.NewWriteThroughPolicy[K, V](w)
		case writeBack:
			wp = writepolicy.NewWriteBackPolicy[K, V](w, o.writeBuffer, log)
		}
	}

	eng := engine.NewCacheEngine[K, V](o.expiration, nil, loader, wp, o.metrics)
	eng.Logger = log
	eng.Now = o.now

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache[K, V]{
		store:       store.New[K, V](recency),
		engine:      eng,
		defaultTTL:  defaultTTL,
		maxCapacity: maxCapacity,
		pending:     make(map[K]*pendingLoad),
		writeSeed:   maphash.MakeSeed(),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}

	if o.refreshWindow > 0 {
		eng.Refresh = refresh.NewAhead[K, V](o.refreshWindow, eng.Expiration, o.now, c.refreshAhead, c.goTracked)
	}

	if o.cleanupInterval > 0 {
		c.wg.Add(1)
		go c.janitor(o.cleanupInterval)
	}

	return c, nil
}

// ================= READS =================

/*
Get retrieves the value associated with key.

A live cached value is a hit. Otherwise it is a miss, and with a loader the
value is fetched (once for all concurrent callers of the key), cached with
the default TTL and returned. Without a loader, or when the loader reports
types.ErrNotFound, the result is "no value" and no error.
*/
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	if v, ok := c.GetCachedOnly(key); ok {
		return v, true, nil
	}

	var zero V
	if !c.engine.HasLoader() {
		return zero, false, nil
	}
	if c.isClosed() {
		return zero, false, ErrClosed
	}

	return c.fetch(ctx, key, false)
}

// GetCachedOnly returns the live cached value for key. It never calls the
// loader, but an expired entry is still removed.
func (c *Cache[K, V]) GetCachedOnly(key K) (V, bool) {
	var value V

	c.mu.Lock()
	ent, events := c.liveLocked(key)
	if ent != nil {
		c.store.Touch(key)
		c.engine.OnRead(key, ent)
		value = ent.Value
	}
	c.mu.Unlock()

	c.dispatch(events)

	if ent == nil {
		c.recordMiss()
		return value, false
	}
	c.recordHit()
	return value, true
}

// Peek returns the live value for key without touching recency, refresh
// or stats.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ent, ok := c.store.Lookup(key)
	if !ok || c.engine.IsExpired(ent) {
		var zero V
		return zero, false
	}
	return ent.Value, true
}

// Contains reports whether key has a live entry, like Peek.
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.Peek(key)
	return ok
}

// liveLocked returns the live entry for key, or nil. An expired entry is
// deleted and reported as an event. c.mu must be held for writing.
func (c *Cache[K, V]) liveLocked(key K) (*types.CacheEntry[K, V], []event[K, V]) {
	ent, ok := c.store.Lookup(key)
	if !ok {
		return nil, nil
	}
	if c.engine.IsExpired(ent) {
		c.store.Delete(key)
		return nil, []event[K, V]{{entry: ent, reason: EvictExpired}}
	}
	return ent, nil
}

// ================= LOADING =================

type loaded[V any] struct {
	value V
	found bool
}

type pendingLoad struct {
	stale bool
}

/*
fetch loads key through the singleflight group.

Every caller of a flight sees the same value or the same error. A caller
whose ctx ends stops waiting with ctx.Err(); the load itself keeps running
for the others and is only canceled by Close.
*/
func (c *Cache[K, V]) fetch(ctx context.Context, key K, force bool) (V, bool, error) {
	ch := c.sf.DoChan(flightKey(key), func() (any, error) {
		return c.load(ctx, key, force)
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		r := res.Val.(loaded[V])
		return r.value, r.found, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

/*
load is the body of a flight.

BEHAVIOR:
---------
- Unless force is set, a live entry found before the backend call is returned as is
- The key is marked pending while the backend call runs
- A Put, Remove or Clear of the key during the call makes the result stale:
  it is handed to the callers but not cached, and a live entry written in
  the meantime wins
- A forced load that gets types.ErrNotFound removes the key
*/
func (c *Cache[K, V]) load(ctx context.Context, key K, force bool) (any, error) {
	var events []event[K, V]

	c.mu.Lock()
	if !force {
		var ent *types.CacheEntry[K, V]
		ent, events = c.liveLocked(key)
		if ent != nil {
			v := ent.Value
			c.mu.Unlock()
			return loaded[V]{value: v, found: true}, nil
		}
	}
	p := &pendingLoad{}
	c.pending[key] = p
	c.mu.Unlock()
	c.dispatch(events)

	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	v, err := c.engine.Load(loadCtx, key)
	notFound := errors.Is(err, types.ErrNotFound)

	c.mu.Lock()
	delete(c.pending, key)

	if err != nil && !notFound {
		c.mu.Unlock()
		return nil, &LoaderError{Key: key, Err: err}
	}

	var res loaded[V]
	events = nil
	switch {
	case p.stale:
		if ent, ok := c.store.Lookup(key); ok && !c.engine.IsExpired(ent) {
			res = loaded[V]{value: ent.Value, found: true}
		} else if !notFound {
			res = loaded[V]{value: v, found: true}
		}
	case notFound:
		if force {
			if ev, ok := c.deleteLocked(key, EvictRemoved); ok {
				events = append(events, ev)
			}
		}
	default:
		if ent, ok := c.store.Lookup(key); !force && ok && !c.engine.IsExpired(ent) {
			res = loaded[V]{value: ent.Value, found: true}
			break
		}
		events = c.insertLocked(key, c.engine.NewEntry(key, v, c.defaultTTL))
		res = loaded[V]{value: v, found: true}
	}
	c.mu.Unlock()

	c.dispatch(events)
	return res, nil
}

// markStaleLocked stops an in-flight load of key from being cached.
// c.mu must be held for writing.
func (c *Cache[K, V]) markStaleLocked(key K) {
	if p, ok := c.pending[key]; ok {
		p.stale = true
	}
}

/*
Refresh reloads key from the loader and replaces the cached entry, even if
it is still live. Concurrent misses on the key join the same backend call.
If the backend no longer has the key, the cached entry is removed.
*/
func (c *Cache[K, V]) Refresh(ctx context.Context, key K) error {
	if !c.engine.HasLoader() {
		return ErrNoLoader
	}
	if c.isClosed() {
		return ErrClosed
	}

	c.engine.Metrics.Refresh()
	_, _, err := c.fetch(ctx, key, true)
	return err
}

// refreshAhead is the reload run by the refresh-ahead hook.
// Failures are already logged by the engine.
func (c *Cache[K, V]) refreshAhead(key K) {
	c.engine.Metrics.Refresh()
	_, _, _ = c.fetch(c.ctx, key, true)
}

// flightKey maps a key to the string singleflight needs. The type prefix
// keeps e.g. int 1 and uint 1 apart.
func flightKey[K comparable](key K) string {
	if s, ok := any(key).(string); ok {
		return s
	}
	return fmt.Sprintf("%T/%#v", key, key)
}

// ================= WRITES =================

// Put stores value under key with the default TTL.
func (c *Cache[K, V]) Put(ctx context.Context, key K, value V) error {
	return c.PutWithTTL(ctx, key, value, c.defaultTTL)
}

/*
PutWithTTL stores value under key for ttl. A ttl <= 0 stores an entry that
is already expired.

With write-through the backend is written first; if that fails the error is
returned and the cache keeps its previous state. With write-back the write
is queued. Concurrent Puts of one key reach the backend and the cache in
the same order. A load of key that is in flight is not cached.
*/
func (c *Cache[K, V]) PutWithTTL(ctx context.Context, key K, value V, ttl time.Duration) error {
	if c.isClosed() {
		return ErrClosed
	}

	l := c.writeLock(key)
	l.Lock()
	err := c.engine.OnWrite(ctx, key, value)
	var events []event[K, V]
	if err == nil {
		ent := c.engine.NewEntry(key, value, ttl)
		c.mu.Lock()
		c.markStaleLocked(key)
		events = c.insertLocked(key, ent)
		c.mu.Unlock()
	}
	l.Unlock()

	if err != nil {
		return err
	}
	c.dispatch(events)
	return nil
}

func (c *Cache[K, V]) writeLock(key K) *sync.Mutex {
	return &c.writeLocks[maphash.Comparable(c.writeSeed, key)%writeStripes]
}

// insertLocked stores ent, evicting first if a new key would overflow the
// capacity. c.mu must be held for writing.
func (c *Cache[K, V]) insertLocked(key K, ent *types.CacheEntry[K, V]) []event[K, V] {
	var events []event[K, V]

	if _, exists := c.store.Lookup(key); !exists && c.maxCapacity > 0 {
		for c.store.Len() >= c.maxCapacity {
			victim, ok := c.store.EvictOldest()
			if !ok {
				break
			}
			events = append(events, event[K, V]{entry: victim, reason: EvictCapacity})
		}
	}

	c.store.Insert(key, ent)

	// A zero-capacity cache never retains anything.
	if c.maxCapacity == 0 {
		c.store.Delete(key)
		events = append(events, event[K, V]{entry: ent, reason: EvictCapacity})
	}
	return events
}

// Remove deletes key. It reports true only if a live entry was deleted;
// an expired entry is dropped and counted as an expiration instead.
// A load of key that is in flight is not cached.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	c.markStaleLocked(key)
	ev, ok := c.deleteLocked(key, EvictRemoved)
	c.mu.Unlock()

	if !ok {
		return false
	}
	c.dispatch([]event[K, V]{ev})
	return ev.reason != EvictExpired
}

// deleteLocked removes key. An entry that had already expired is reported
// with EvictExpired instead of reason. c.mu must be held for writing.
func (c *Cache[K, V]) deleteLocked(key K, reason Reason) (event[K, V], bool) {
	ent, ok := c.store.Delete(key)
	if !ok {
		return event[K, V]{}, false
	}
	if c.engine.IsExpired(ent) {
		reason = EvictExpired
	}
	return event[K, V]{entry: ent, reason: reason}, true
}

/*
Expire changes the remaining lifetime of a live entry to ttl from now.
It returns false if key is absent or already expired. A ttl <= 0 expires
the entry immediately.
*/
func (c *Cache[K, V]) Expire(key K, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.store.Lookup(key)
	if !ok || c.engine.IsExpired(ent) {
		return false
	}
	ent.TTL = ent.TTL - c.engine.Remaining(ent) + ttl
	return true
}

// CleanupExpired removes every expired entry and returns how many it removed.
// It holds the store lock for the whole scan.
func (c *Cache[K, V]) CleanupExpired() int {
	c.mu.Lock()
	removed := c.store.DeleteFunc(c.engine.IsExpired)
	c.mu.Unlock()

	if len(removed) == 0 {
		return 0
	}

	events := make([]event[K, V], len(removed))
	for i, ent := range removed {
		events[i] = event[K, V]{entry: ent, reason: EvictExpired}
	}
	c.dispatch(events)

	c.log.V(1).Info("swept expired entries", "count", len(removed))
	return len(removed)
}

// Clear removes every entry. Lifetime counters are kept and loads in
// flight are not cached.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	for _, p := range c.pending {
		p.stale = true
	}
	removed := c.store.Reset()
	c.mu.Unlock()

	events := make([]event[K, V], len(removed))
	for i, ent := range removed {
		events[i] = event[K, V]{entry: ent, reason: EvictCleared}
	}
	c.dispatch(events)
}

// ================= INSPECTION =================

/*
TTL returns the remaining time-to-live for key.

RETURN VALUES:
--------------
> 0         : time left before expiration
TTLNotFound : key does not exist or is already expired
*/
func (c *Cache[K, V]) TTL(key K) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ent, ok := c.store.Lookup(key)
	if !ok || c.engine.IsExpired(ent) {
		return TTLNotFound
	}
	return c.engine.Remaining(ent)
}

// Len returns the number of stored entries, including expired ones that
// have not been removed yet.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Len()
}

// Keys returns the live keys, most recently used first.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := c.store.Keys()
	live := keys[:0]
	for _, k := range keys {
		if ent, ok := c.store.Lookup(k); ok && !c.engine.IsExpired(ent) {
			live = append(live, k)
		}
	}
	return live
}

// Capacity returns the max capacity the cache was built with.
func (c *Cache[K, V]) Capacity() int {
	return c.maxCapacity
}

// IsFull reports whether the entry count equals the max capacity.
func (c *Cache[K, V]) IsFull() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Len() == c.maxCapacity
}

// ================= LIFECYCLE =================

/*
Close gracefully shuts down the cache.

BEHAVIOR:
---------
- Stops the janitor and waits for refresh goroutines
- Flushes pending write-back operations
- Later Put, PutWithTTL, Refresh and loads return ErrClosed

Cached values stay readable. Close is safe to call more than once.
*/
func (c *Cache[K, V]) Close() error {
	c.bgMu.Lock()
	if c.closed {
		c.bgMu.Unlock()
		return nil
	}
	c.closed = true
	c.bgMu.Unlock()

	c.cancel()
	c.wg.Wait()
	return c.engine.Close()
}
