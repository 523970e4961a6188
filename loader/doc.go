// Package loader provides decorators for types.Loader. Each one wraps
// another loader and is a loader itself, so they stack:
//
//	l := loader.NewTraced(loader.NewRetrying(backend, cfg), nil)
//
// None of them are installed by the cache automatically.
package loader
