package expiration

import (
	"time"

	"github.com/krisalay/cachemanager/types"
)

/*
ExpireAfterAccess implements a very common cache behavior called "expire after access" or "sliding TTL".
Every time someone reads the data, the expiration timer is pushed forward. As long as the data keeps
getting used, it stays alive. If nobody touches it for TTL, it expires.

The TTL itself still comes from the entry (default TTL or PutWithTTL).
*/
type ExpireAfterAccess struct{}

// IsExpired checks whether the entry has been idle for its whole TTL.
func (ExpireAfterAccess) IsExpired(m *types.Meta, now time.Time) bool {
	return now.Sub(m.LastAccessedAt) >= m.TTL
}

func (ExpireAfterAccess) Remaining(m *types.Meta, now time.Time) time.Duration {
	return m.TTL - now.Sub(m.LastAccessedAt)
}

// OnAccess pushes the idle deadline forward.
func (ExpireAfterAccess) OnAccess(m *types.Meta, now time.Time) {
	m.LastAccessedAt = now
}

// OnWrite records when the entry was created and starts the idle clock.
func (ExpireAfterAccess) OnWrite(m *types.Meta, now time.Time) {
	m.CreatedAt = now
	m.LastAccessedAt = now
}
