package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrLoaderFailure matches every error produced by a failed backend load.
	// Use errors.As with *LoaderError to get the key and the backend error.
	ErrLoaderFailure = errors.New("cache: loader failed")

	// ErrCapacityMisconfiguration is returned for a negative max capacity.
	ErrCapacityMisconfiguration = errors.New("cache: invalid max capacity")

	// ErrClosed is returned by writes and loads after Close.
	ErrClosed = errors.New("cache: closed")

	// ErrNoLoader is returned by Refresh on a cache built without a loader.
	ErrNoLoader = errors.New("cache: no loader configured")

	// ErrInvalidOption is returned when options cannot be applied together.
	ErrInvalidOption = errors.New("cache: invalid option")
)

// LoaderError is returned to every caller that waited on a failed load.
type LoaderError struct {
	Key any
	Err error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("cache: loading key %v: %v", e.Key, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoaderFailure) hold for any LoaderError.
func (e *LoaderError) Is(target error) bool {
	return target == ErrLoaderFailure
}
