package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/cachemanager"
	"github.com/krisalay/cachemanager/types"
)

func newStore(t *testing.T) *Store[string] {
	t.Helper()
	s, err := New[string](1000)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestStore_PutLoadDelete(t *testing.T) {
	r := require.New(t)
	s := newStore(t)
	ctx := t.Context()

	_, err := s.Load(ctx, "k1")
	r.ErrorIs(err, types.ErrNotFound)

	r.NoError(s.Put(ctx, "k1", "v1"))
	v, err := s.Load(ctx, "k1")
	r.NoError(err)
	r.Equal("v1", v)

	s.Delete("k1")
	_, err = s.Load(ctx, "k1")
	r.ErrorIs(err, types.ErrNotFound)
}

func TestStore_BacksCache(t *testing.T) {
	r := require.New(t)
	s := newStore(t)
	ctx := t.Context()
	r.NoError(s.Put(ctx, "user:1", "ada"))

	c, err := cache.NewWithLoader[string, string](time.Minute, 10, s, cache.WithWriteThrough())
	r.NoError(err)
	defer c.Close()

	v, ok, err := c.Get(ctx, "user:1")
	r.NoError(err)
	r.True(ok)
	r.Equal("ada", v)

	_, ok, err = c.Get(ctx, "user:2")
	r.NoError(err)
	r.False(ok)

	r.NoError(c.Put(ctx, "user:2", "grace"))
	v, err = s.Load(ctx, "user:2")
	r.NoError(err)
	r.Equal("grace", v)
}
