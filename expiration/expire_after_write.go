package expiration

import (
	"time"

	"github.com/krisalay/cachemanager/types"
)

/*
ExpireAfterWrite is the default strategy: an entry lives for exactly its TTL
measured from the moment it was written. Reads do not extend it.

	live(entry, now) = now - CreatedAt < TTL
*/
type ExpireAfterWrite struct{}

func (ExpireAfterWrite) IsExpired(m *types.Meta, now time.Time) bool {
	return now.Sub(m.CreatedAt) >= m.TTL
}

func (ExpireAfterWrite) Remaining(m *types.Meta, now time.Time) time.Duration {
	return m.TTL - now.Sub(m.CreatedAt)
}

// OnAccess only records the access time.
func (ExpireAfterWrite) OnAccess(m *types.Meta, now time.Time) {
	m.LastAccessedAt = now
}

// OnWrite stamps both timestamps; the TTL was chosen by the writer.
func (ExpireAfterWrite) OnWrite(m *types.Meta, now time.Time) {
	m.CreatedAt = now
	m.LastAccessedAt = now
}
