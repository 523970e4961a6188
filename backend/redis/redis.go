// Package redis is a backing store on top of Redis. Values are stored as
// plain strings under an optional key prefix.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/krisalay/cachemanager/types"
)

var _ types.Store[string, string] = (*Store)(nil)

// Store loads and writes string values in Redis. Unlike the cache in front
// of it, Store surfaces connection errors so the cache can report them as
// loader failures.
type Store struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// New connects to addr. Keys are stored as prefix+key; ttl is the Redis
// expiry used by Put (zero means none).
func New(addr, password string, db int, prefix string, ttl time.Duration) *Store {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, prefix, ttl)
}

// NewFromClient wraps an existing client. Close closes it.
func NewFromClient(rdb *goredis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Load returns the value for key. A missing key is types.ErrNotFound.
func (s *Store) Load(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", types.ErrNotFound
	}
	return val, err
}

// Put stores value under key.
func (s *Store) Put(ctx context.Context, key string, value string) error {
	return s.rdb.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
