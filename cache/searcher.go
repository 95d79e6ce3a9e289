package cache

import (
	"context"
	"log/slog"

	"github.com/poiesic/treerag/core"
)

// Searcher runs a traversal. *navigator.Navigator implements it.
type Searcher interface {
	Search(ctx context.Context, tree *core.DocumentTree, query string, maxDepth, maxBranches int) (*core.TraversalResult, error)
}

// CachedSearcher memoizes a Searcher's complete results.
// Failed and cancelled searches are never cached.
type CachedSearcher struct {
	searcher Searcher
	cache    *ResultCache
	logger   *slog.Logger
}

var _ Searcher = (*CachedSearcher)(nil)

// NewCachedSearcher wraps searcher with cache.
func NewCachedSearcher(searcher Searcher, cache *ResultCache) (*CachedSearcher, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}
	return &CachedSearcher{
		searcher: searcher,
		cache:    cache,
		logger:   slog.Default().With("component", "cached-searcher"),
	}, nil
}

// Search returns a cached result when one exists for the tree's document,
// the normalized query and the limits; otherwise it delegates and caches.
func (s *CachedSearcher) Search(ctx context.Context, tree *core.DocumentTree, query string, maxDepth, maxBranches int) (*core.TraversalResult, error) {
	if tree == nil {
		return s.searcher.Search(ctx, tree, query, maxDepth, maxBranches)
	}
	return s.SearchAt(ctx, s.cache.Generation(tree.DocumentName), tree, query, maxDepth, maxBranches)
}

// SearchAt is Search for a tree loaded at the given document generation.
// If the document is invalidated while the search runs, the result is
// returned but not cached.
func (s *CachedSearcher) SearchAt(ctx context.Context, generation uint64, tree *core.DocumentTree, query string, maxDepth, maxBranches int) (*core.TraversalResult, error) {
	if tree == nil {
		return s.searcher.Search(ctx, tree, query, maxDepth, maxBranches)
	}

	key := NewKey(tree.DocumentName, query, maxDepth, maxBranches)
	key.Generation = generation
	if result, ok := s.cache.Get(key); ok {
		s.logger.Debug("cache hit", "document", tree.DocumentName, "query", query)
		return result, nil
	}

	result, err := s.searcher.Search(ctx, tree, query, maxDepth, maxBranches)
	if err != nil || result == nil || result.Stats.Cancelled {
		return result, err
	}
	s.cache.Put(key, result)
	return result, nil
}

// Cache returns the underlying result cache.
func (s *CachedSearcher) Cache() *ResultCache {
	return s.cache
}
