package cache

import "errors"

var (
	// ErrSearcherRequired is returned when a CachedSearcher has nothing to wrap.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrCacheRequired is returned when a CachedSearcher is created without a cache.
	ErrCacheRequired = errors.New("result cache required")
)
