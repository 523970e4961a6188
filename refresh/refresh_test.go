package refresh

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/cachemanager/expiration"
	"github.com/krisalay/cachemanager/types"
)

type reloadRecorder struct {
	mu    sync.Mutex
	keys  []string
	block chan struct{}
	wg    sync.WaitGroup
}

func (r *reloadRecorder) reload(k string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.keys = append(r.keys, k)
	r.mu.Unlock()
}

func (r *reloadRecorder) spawn(fn func()) bool {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
	return true
}

func TestAhead_TriggersInsideWindow(t *testing.T) {
	now := time.Now()
	rec := &reloadRecorder{}
	a := NewAhead[string, int](20*time.Millisecond, expiration.ExpireAfterWrite{},
		func() time.Time { return now }, rec.reload, rec.spawn)

	fresh := types.NewEntry("fresh", 1, time.Second, now)
	a.OnRead("fresh", fresh)

	stale := types.NewEntry("stale", 2, time.Second, now.Add(-990*time.Millisecond))
	a.OnRead("stale", stale)

	rec.wg.Wait()
	require.Equal(t, []string{"stale"}, rec.keys)
}

func TestAhead_OnePendingReloadPerKey(t *testing.T) {
	now := time.Now()
	rec := &reloadRecorder{block: make(chan struct{})}
	a := NewAhead[string, int](time.Second, expiration.ExpireAfterWrite{},
		func() time.Time { return now }, rec.reload, rec.spawn)

	ent := types.NewEntry("k", 1, time.Second, now)
	for range 5 {
		a.OnRead("k", ent)
	}
	close(rec.block)
	rec.wg.Wait()
	require.Equal(t, []string{"k"}, rec.keys)

	// Once the reload finished the key can be scheduled again.
	a.OnRead("k", ent)
	rec.wg.Wait()
	require.Equal(t, []string{"k", "k"}, rec.keys)
}

func TestAhead_SpawnRefused(t *testing.T) {
	now := time.Now()
	calls := 0
	a := NewAhead[string, int](time.Second, expiration.ExpireAfterWrite{},
		func() time.Time { return now },
		func(string) { calls++ },
		func(func()) bool { return false })

	ent := types.NewEntry("k", 1, time.Second, now)
	a.OnRead("k", ent)
	a.OnRead("k", ent)

	require.Zero(t, calls)
	_, pending := a.pending.Load("k")
	require.False(t, pending)
}
