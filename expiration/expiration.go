// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/cachemanager/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
expiration logic into the cache, we define a strategy so expiration behavior can be swapped easily.

Strategies are pure decision logic over an entry's Meta and "now"; they never
delete anything themselves. The cache uses them both on the read path (lazy
expiry) and during sweeps.
*/
type Strategy interface {

	// IsExpired checks if the entry is expired at now.
	IsExpired(*types.Meta, time.Time) bool

	// Remaining returns how long the entry has left to live at now.
	// It is zero or negative once the entry is expired.
	Remaining(*types.Meta, time.Time) time.Duration

	// OnAccess is called whenever a cache entry is read successfully.
	OnAccess(*types.Meta, time.Time)

	// OnWrite is called whenever a cache entry is written or replaced.
	OnWrite(*types.Meta, time.Time)
}
