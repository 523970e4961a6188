package cache

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/krisalay/cachemanager/eviction"
	"github.com/krisalay/cachemanager/expiration"
	"github.com/krisalay/cachemanager/types"
)

const defaultWriteBackBuffer = 1024

type writeMode int

const (
	writeNone writeMode = iota
	writeThrough
	writeBack
)

// options holds everything New and NewWithLoader accept besides the
// default TTL and the capacity.
type options struct {
	expiration      expiration.Strategy
	policy          eviction.PolicyType
	metrics         types.Metrics
	logger          logr.Logger
	now             func() time.Time
	cleanupInterval time.Duration
	refreshWindow   time.Duration
	writeMode       writeMode
	writeBuffer     int
}

func defaultOptions() options {
	return options{
		expiration:  expiration.ExpireAfterWrite{},
		policy:      eviction.LRU,
		metrics:     types.NoopMetrics{},
		logger:      logr.Discard(),
		now:         time.Now,
		writeBuffer: defaultWriteBackBuffer,
	}
}

// Option configures a Cache.
type Option func(*options)

// WithExpiration replaces the default expire-after-write strategy.
func WithExpiration(s expiration.Strategy) Option {
	return func(o *options) {
		if s != nil {
			o.expiration = s
		}
	}
}

// WithEvictionPolicy selects which entry goes when the cache is full.
// LRU is the default.
func WithEvictionPolicy(p eviction.PolicyType) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithMetrics mirrors every hit, miss, eviction, expiration, refresh and
// load failure to m.
func WithMetrics(m types.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the logger. Evictions and sweeps are logged at V(1),
// loader and write-back failures as errors.
func WithLogger(l logr.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock replaces time.Now. Mostly useful in tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCleanupInterval starts a janitor that calls CleanupExpired every d
// until Close. Zero disables it.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = d
	}
}

// WithRefreshAhead reloads an entry in the background when a read finds it
// within window of its expiry. It requires a loader.
func WithRefreshAhead(window time.Duration) Option {
	return func(o *options) {
		o.refreshWindow = window
	}
}

// WithWriteThrough makes Put write to the backend before updating the cache.
// The loader must implement types.Writer.
func WithWriteThrough() Option {
	return func(o *options) {
		o.writeMode = writeThrough
	}
}

// WithWriteBack makes Put queue backend writes for a background worker.
// A non-positive buffer uses the default queue size. The loader must
// implement types.Writer.
func WithWriteBack(buffer int) Option {
	return func(o *options) {
		o.writeMode = writeBack
		if buffer > 0 {
			o.writeBuffer = buffer
		} else {
			o.writeBuffer = defaultWriteBackBuffer
		}
	}
}
