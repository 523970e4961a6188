package loader

import (
	"math"
	"math/rand/v2"
	"time"
)

// backoff is the wait before retry number attempt, counting from 0.
// The base doubles per attempt and stops growing at MaxDelay.
func backoff(cfg RetryConfig, attempt int) time.Duration {
	d := cfg.BaseDelay
	for range attempt {
		if d > math.MaxInt64/2 || (cfg.MaxDelay > 0 && d >= cfg.MaxDelay) {
			break
		}
		d *= 2
	}
	if cfg.MaxDelay > 0 {
		d = min(d, cfg.MaxDelay)
	}

	if cfg.Jitter <= 0 || d <= 0 {
		return d
	}
	spread := time.Duration(float64(d) * cfg.Jitter)
	d += time.Duration(rand.Int64N(int64(2*spread)+1)) - spread
	return max(d, 0)
}
