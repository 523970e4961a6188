package writepolicy

import "context"

/*
This file defines what a "write policy" is.

Different systems have different needs:
- Some want strong consistency (write-through)
- Some want high performance (write-back)

Instead of hard-coding one behavior, we define an interface so we can plug in different strategies.
*/

/*
WritePolicy is the contract that all write policies must follow.
The cache engine does not care which policy is used. It simply calls these methods.
*/
type WritePolicy[K comparable, V any] interface {

	/*
		OnWrite is called whenever Put/PutWithTTL writes a key. Values filled by
		the loader are never passed here, they already came from the backend.

		A non-nil error means the write must not be applied to the cache.
	*/
	OnWrite(ctx context.Context, key K, value V) error

	/*
		Close is called when the cache is shutting down.
	*/
	Close() error
}
