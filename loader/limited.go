package loader

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/krisalay/cachemanager/types"
)

// RateLimited caps how fast backend loads are issued. Callers wait for a
// token rather than being rejected.
type RateLimited[K comparable, V any] struct {
	next types.Loader[K, V]
	lim  *rate.Limiter
}

// NewRateLimited permits rps loads per second with the given burst size.
func NewRateLimited[K comparable, V any](next types.Loader[K, V], rps float64, burst int) *RateLimited[K, V] {
	return &RateLimited[K, V]{next: next, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Load waits for a token, then calls the wrapped loader. It returns the
// limiter's error if ctx ends (or would end) before a token is available.
func (l *RateLimited[K, V]) Load(ctx context.Context, key K) (V, error) {
	if err := l.lim.Wait(ctx); err != nil {
		var zero V
		return zero, err
	}
	return l.next.Load(ctx, key)
}
