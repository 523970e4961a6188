package loader

import (
	"context"
	"errors"
	"time"

	"github.com/krisalay/cachemanager/types"
)

/*
RetryConfig tunes Retrying.

- MaxAttempts counts every call to the wrapped loader. 0 and 1 both mean a single try.
- BaseDelay is the first wait; each later wait is twice the previous one.
- MaxDelay bounds a single wait. 0 leaves it unbounded.
- Jitter spreads each wait by up to that fraction either way (0.25 → ±25%).
- Retryable filters errors. nil retries all of them, except types.ErrNotFound
  and context errors, which are final.
*/
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
	Retryable   func(error) bool
}

func (c RetryConfig) retryable(err error) bool {
	if errors.Is(err, types.ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return c.Retryable == nil || c.Retryable(err)
}

// Retrying retries failed loads with exponential back-off.
type Retrying[K comparable, V any] struct {
	next types.Loader[K, V]
	cfg  RetryConfig
}

func NewRetrying[K comparable, V any](next types.Loader[K, V], cfg RetryConfig) *Retrying[K, V] {
	return &Retrying[K, V]{next: next, cfg: cfg}
}

// Load calls the wrapped loader up to MaxAttempts times. The error of the
// last attempt is returned as is. The context is checked while waiting
// between attempts; if it ends, the context error is returned.
func (r *Retrying[K, V]) Load(ctx context.Context, key K) (V, error) {
	var zero V
	attempts := max(r.cfg.MaxAttempts, 1)

	for i := range attempts {
		v, err := r.next.Load(ctx, key)
		if err == nil {
			return v, nil
		}
		if i == attempts-1 || !r.cfg.retryable(err) {
			return zero, err
		}

		timer := time.NewTimer(backoff(r.cfg, i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, nil
}
