package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/cachemanager"
	"github.com/krisalay/cachemanager/eviction"
	"github.com/krisalay/cachemanager/expiration"
	"github.com/krisalay/cachemanager/types"
)

//
// ================= TEST BACKING STORE =================
//

type testStore struct {
	mu      sync.Mutex
	data    map[string]int
	loadErr error
	putErr  error
	delay   time.Duration
	puts    []string

	loads atomic.Int64
}

func newTestStore() *testStore {
	return &testStore{data: make(map[string]int)}
}

func (s *testStore) Load(_ context.Context, key string) (int, error) {
	s.loads.Add(1)

	s.mu.Lock()
	delay, loadErr := s.delay, s.loadErr
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if loadErr != nil {
		return 0, loadErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return 0, types.ErrNotFound
	}
	return v, nil
}

func (s *testStore) Put(_ context.Context, key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.data[key] = value
	s.puts = append(s.puts, key)
	return nil
}

func (s *testStore) set(key string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *testStore) get(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *testStore) setLoadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

//
// ================= TEST CLOCK =================
//

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

//
// ================= HELPERS =================
//

func newCache(t *testing.T, ttl time.Duration, capacity int, opts ...cache.Option) *cache.Cache[string, int] {
	t.Helper()
	c, err := cache.New[string, int](ttl, capacity, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newLoadingCache(t *testing.T, ttl time.Duration, capacity int, store types.Loader[string, int], opts ...cache.Option) *cache.Cache[string, int] {
	t.Helper()
	c, err := cache.NewWithLoader[string, int](ttl, capacity, store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

//
// ================= BASIC OPERATIONS =================
//

func TestPutThenGetCachedOnly(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	c := newCache(t, time.Minute, 10)

	for i, k := range []string{"a", "b", "c"} {
		r.NoError(c.Put(ctx, k, i))
	}
	for i, k := range []string{"a", "b", "c"} {
		v, ok := c.GetCachedOnly(k)
		r.True(ok)
		r.Equal(i, v)
	}
}

func TestGetWithoutLoaderIsPlainMiss(t *testing.T) {
	r := require.New(t)
	c := newCache(t, time.Minute, 10)

	v, ok, err := c.Get(t.Context(), "missing")
	r.NoError(err)
	r.False(ok)
	r.Zero(v)
	r.Equal(uint64(1), c.Stats().Misses)
}

func TestUpdateExistingKey(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	c := newCache(t, time.Minute, 2)

	r.NoError(c.Put(ctx, "a", 1))
	r.NoError(c.Put(ctx, "b", 2))
	r.NoError(c.Put(ctx, "a", 10))

	v, ok := c.GetCachedOnly("a")
	r.True(ok)
	r.Equal(10, v)

	st := c.Stats()
	r.Zero(st.Evictions)
	r.Equal(2, st.EntriesCount)
}

func TestRemove(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	clock := newFakeClock()
	c := newCache(t, time.Second, 10, cache.WithClock(clock.Now))

	r.NoError(c.Put(ctx, "a", 1))
	r.True(c.Remove("a"))
	r.False(c.Remove("a"))
	r.False(c.Remove("never"))

	_, ok := c.GetCachedOnly("a")
	r.False(ok)

	// An expired entry is dropped but does not count as removed.
	r.NoError(c.Put(ctx, "b", 2))
	clock.Advance(time.Second)
	r.False(c.Remove("b"))
	r.Zero(c.Len())
	r.Equal(uint64(1), c.Stats().Expirations)
}

func TestPeekDoesNotTouchRecencyOrStats(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	c := newCache(t, time.Minute, 2)

	r.NoError(c.Put(ctx, "a", 1))
	r.NoError(c.Put(ctx, "b", 2))

	v, ok := c.Peek("a")
	r.True(ok)
	r.Equal(1, v)
	r.True(c.Contains("a"))

	// "a" is still least recently used.
	r.NoError(c.Put(ctx, "c", 3))
	r.False(c.Contains("a"))

	st := c.Stats()
	r.Zero(st.Hits)
	r.Zero(st.Misses)
}

func TestKeysMostRecentFirst(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	c := newCache(t, time.Minute, 10)

	for i, k := range []string{"a", "b", "c"} {
		r.NoError(c.Put(ctx, k, i))
	}
	c.GetCachedOnly("a")

	r.Equal([]string{"a", "c", "b"}, c.Keys())
}

//
// ================= EXPIRATION =================
//

func TestTTLExpiryCountsMiss(t *testing.T) {
	r := require.New(t)
	clock := newFakeClock()
	c := newCache(t, 100*time.Millisecond, 10, cache.WithClock(clock.Now))

	r.NoError(c.Put(t.Context(), "a", 1))
	_, ok := c.GetCachedOnly("a")
	r.True(ok)

	clock.Advance(100 * time.Millisecond)

	_, ok = c.GetCachedOnly("a")
	r.False(ok)

	st := c.Stats()
	r.Equal(uint64(1), st.Hits)
	r.Equal(uint64(1), st.Misses)
	r.Equal(uint64(1), st.Expirations)
	r.Zero(st.Evictions)
	r.Zero(st.EntriesCount)
}

func TestPutWithTTLOverridesDefault(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	clock := newFakeClock()
	c := newCache(t, time.Minute, 10, cache.WithClock(clock.Now))

	r.NoError(c.PutWithTTL(ctx, "short", 1, 10*time.Millisecond))
	r.NoError(c.Put(ctx, "long", 2))
	r.NoError(c.PutWithTTL(ctx, "dead", 3, 0))

	r.False(c.Contains("dead"))

	clock.Advance(10 * time.Millisecond)
	r.False(c.Contains("short"))
	r.True(c.Contains("long"))

	// Expired entries count until removed.
	r.Equal(3, c.Stats().EntriesCount)
}

func TestCleanupExpired(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	clock := newFakeClock()
	c := newCache(t, time.Minute, 10, cache.WithClock(clock.Now))

	r.NoError(c.PutWithTTL(ctx, "a", 1, time.Second))
	r.NoError(c.PutWithTTL(ctx, "b", 2, time.Second))
	r.NoError(c.Put(ctx, "c", 3))

	r.Zero(c.CleanupExpired())

	clock.Advance(2 * time.Second)
	r.Equal(2, c.CleanupExpired())
	r.Zero(c.CleanupExpired())

	st := c.Stats()
	r.Equal(1, st.EntriesCount)
	r.Equal(uint64(2), st.Expirations)
	r.Equal([]string{"c"}, c.Keys())
}

func TestTTLAndExpire(t *testing.T) {
	r := require.New(t)
	clock := newFakeClock()
	c := newCache(t, time.Second, 10, cache.WithClock(clock.Now))

	r.Equal(cache.TTLNotFound, c.TTL("a"))
	r.False(c.Expire("a", time.Minute))

	r.NoError(c.Put(t.Context(), "a", 1))
	clock.Advance(300 * time.Millisecond)
	r.Equal(700*time.Millisecond, c.TTL("a"))

	r.True(c.Expire("a", 5*time.Second))
	r.Equal(5*time.Second, c.TTL("a"))

	clock.Advance(5 * time.Second)
	r.Equal(cache.TTLNotFound, c.TTL("a"))
	r.False(c.Expire("a", time.Minute))
}

func TestExpireAfterAccessSlides(t *testing.T) {
	r := require.New(t)
	clock := newFakeClock()
	c := newCache(t, time.Second, 10,
		cache.WithClock(clock.Now),
		cache.WithExpiration(expiration.ExpireAfterAccess{}),
	)

	r.NoError(c.Put(t.Context(), "a", 1))
	for range 5 {
		clock.Advance(800 * time.Millisecond)
		_, ok := c.GetCachedOnly("a")
		r.True(ok)
	}

	clock.Advance(time.Second)
	_, ok := c.GetCachedOnly("a")
	r.False(ok)
}

//
// ================= CAPACITY & EVICTION =================
//

func TestScenario_CapacityTwo(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	c := newCache(t, 100*time.Millisecond, 2)

	r.NoError(c.Put(ctx, "a", 1))
	r.NoError(c.Put(ctx, "b", 2))
	r.NoError(c.Put(ctx, "c", 3))

	_, ok := c.GetCachedOnly("a")
	r.False(ok)

	v, ok := c.GetCachedOnly("b")
	r.True(ok)
	r.Equal(2, v)

	v, ok = c.GetCachedOnly("c")
	r.True(ok)
	r.Equal(3, v)
}

func TestEvictsLeastRecentlyAccessed(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	c := newCache(t, time.Minute, 3)

	for i, k := range []string{"a", "b", "c"} {
		r.NoError(c.Put(ctx, k, i))
	}
	c.GetCachedOnly("a")

	r.NoError(c.Put(ctx, "d", 4))

	r.False(c.Contains("b"))
	for _, k := range []string{"a", "c", "d"} {
		r.True(c.Contains(k), k)
	}
	r.Equal(uint64(1), c.Stats().Evictions)
}

func TestEvictionPolicies(t *testing.T) {
	tests := []struct {
		name    string
		policy  eviction.PolicyType
		evicted string
	}{
		{"LRU", eviction.LRU, "b"},
		{"FIFO", eviction.FIFO, "a"},
		{"LFU", eviction.LFU, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			ctx := t.Context()
			c := newCache(t, time.Minute, 2, cache.WithEvictionPolicy(tt.policy))

			r.NoError(c.Put(ctx, "a", 1))
			r.NoError(c.Put(ctx, "b", 2))
			c.GetCachedOnly("a")
			r.NoError(c.Put(ctx, "c", 3))

			r.False(c.Contains(tt.evicted))
			r.True(c.Contains("c"))
			r.Equal(2, c.Len())
		})
	}
}

func TestUnknownEvictionPolicy(t *testing.T) {
	_, err := cache.New[string, int](time.Minute, 2, cache.WithEvictionPolicy("MRU"))
	require.ErrorIs(t, err, cache.ErrInvalidOption)
}

func TestZeroCapacityRetainsNothing(t *testing.T) {
	r := require.New(t)
	c := newCache(t, time.Minute, 0)

	r.True(c.IsFull())
	r.NoError(c.Put(t.Context(), "a", 1))

	_, ok := c.GetCachedOnly("a")
	r.False(ok)

	st := c.Stats()
	r.Zero(st.EntriesCount)
	r.Equal(uint64(1), st.Evictions)
}

func TestNegativeCapacityRejected(t *testing.T) {
	_, err := cache.New[string, int](time.Minute, -1)
	require.ErrorIs(t, err, cache.ErrCapacityMisconfiguration)

	require.Panics(t, func() {
		cache.MustNew[string, int](time.Minute, -1)
	})
}

func TestIsFull(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	c := newCache(t, time.Minute, 2)

	steps := []struct {
		op   func()
		full bool
	}{
		{func() {}, false},
		{func() { _ = c.Put(ctx, "a", 1) }, false},
		{func() { _ = c.Put(ctx, "b", 2) }, true},
		{func() { _ = c.Put(ctx, "c", 3) }, true},
		{func() { c.Remove("c") }, false},
		{func() { _ = c.Put(ctx, "b", 20) }, false},
		{func() { _ = c.Put(ctx, "d", 4) }, true},
		{func() { c.Clear() }, false},
	}

	for i, s := range steps {
		s.op()
		r.Equal(s.full, c.IsFull(), "step %d", i)
		r.Equal(c.Len() == c.Capacity(), c.IsFull(), "step %d", i)
	}
}

//
// ================= STATS =================
//

func TestHitsPlusMissesEqualsReads(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	store := newTestStore()
	store.set("x", 1)
	c := newLoadingCache(t, time.Minute, 10, store)

	reads := 0
	get := func(k string) {
		reads++
		_, _, _ = c.Get(ctx, k)
	}
	cached := func(k string) {
		reads++
		c.GetCachedOnly(k)
	}

	get("x")       // miss, loaded
	get("x")       // hit
	cached("x")    // hit
	cached("y")    // miss
	get("missing") // miss, backend has nothing
	store.setLoadErr(errors.New("down"))
	get("z") // miss, load fails

	st := c.Stats()
	r.Equal(uint64(reads), st.Hits+st.Misses)
	r.Equal(uint64(2), st.Hits)
	r.Equal(uint64(4), st.Misses)
	r.InDelta(2.0/6.0, st.HitRatio(), 1e-9)
}

func TestClearKeepsCounters(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	c := newCache(t, time.Minute, 2)

	r.NoError(c.Put(ctx, "a", 1))
	r.NoError(c.Put(ctx, "b", 2))
	r.NoError(c.Put(ctx, "c", 3))
	c.GetCachedOnly("b")
	c.GetCachedOnly("a")

	before := c.Stats()
	c.Clear()
	after := c.Stats()

	r.Zero(after.EntriesCount)
	r.Empty(c.Keys())
	r.Equal(before.Hits, after.Hits)
	r.Equal(before.Misses, after.Misses)
	r.Equal(before.Evictions, after.Evictions)

	r.NoError(c.Put(ctx, "a", 1))
	r.True(c.Contains("a"))
}

type countingMetrics struct {
	hits, misses, evictions, expires, refreshes, loadFailures atomic.Int64
}

func (m *countingMetrics) Hit()         { m.hits.Add(1) }
func (m *countingMetrics) Miss()        { m.misses.Add(1) }
func (m *countingMetrics) Eviction()    { m.evictions.Add(1) }
func (m *countingMetrics) Expire()      { m.expires.Add(1) }
func (m *countingMetrics) Refresh()     { m.refreshes.Add(1) }
func (m *countingMetrics) LoadFailure() { m.loadFailures.Add(1) }

func TestMetricsHookMirrorsStats(t *testing.T) {
	r := require.New(t)
	ctx := t.Context()
	clock := newFakeClock()
	m := &countingMetrics{}
	store := newTestStore()
	c := newLoadingCache(t, time.Second, 1, store, cache.WithMetrics(m), cache.WithClock(clock.Now))

	r.NoError(c.Put(ctx, "a", 1))
	c.GetCachedOnly("a")
	r.NoError(c.Put(ctx, "b", 2))
	clock.Advance(time.Second)
	c.GetCachedOnly("b")
	store.setLoadErr(errors.New("down"))
	_, _, err := c.Get(ctx, "c")
	r.Error(err)

	st := c.Stats()
	r.Equal(int64(st.Hits), m.hits.Load())
	r.Equal(int64(st.Misses), m.misses.Load())
	r.Equal(int64(st.Evictions), m.evictions.Load())
	r.Equal(int64(st.Expirations), m.expires.Load())
	r.Equal(int64(1), m.loadFailures.Load())
}
