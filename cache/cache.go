package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/poiesic/treerag/core"
)

const (
	// DefaultMaxEntries bounds the number of cached results.
	DefaultMaxEntries = 100
	// DefaultTTL is how long a cached result stays valid.
	DefaultTTL = time.Hour
)

// Stats reports cache effectiveness.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ResultCache memoizes traversal results keyed by document, query
// fingerprint and traversal limits. It is owned by the caller of the
// navigator and is safe for concurrent use.
//
// Cached results are shared: callers must treat them as read-only.
type ResultCache struct {
	store       *ristretto.Cache[string, *core.TraversalResult]
	ttl         time.Duration
	maxEntries  int64
	mu          sync.Mutex
	generations map[string]uint64
	hits        atomic.Uint64
	misses      atomic.Uint64
	logger      *slog.Logger
}

// Option configures a ResultCache.
type Option func(*ResultCache) error

// WithMaxEntries sets the maximum number of cached results.
func WithMaxEntries(n int) Option {
	return func(c *ResultCache) error {
		if n < 1 {
			return fmt.Errorf("max entries must be positive, got %d", n)
		}
		c.maxEntries = int64(n)
		return nil
	}
}

// WithTTL sets how long results stay cached. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResultCache) error {
		if ttl < 0 {
			return fmt.Errorf("ttl cannot be negative, got %s", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *ResultCache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "result-cache")
		return nil
	}
}

// New creates a result cache.
// Call Close when the cache is no longer needed.
func New(opts ...Option) (*ResultCache, error) {
	c := &ResultCache{
		ttl:         DefaultTTL,
		maxEntries:  DefaultMaxEntries,
		generations: make(map[string]uint64),
		logger:      slog.Default().With("component", "result-cache"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	store, err := ristretto.NewCache(&ristretto.Config[string, *core.TraversalResult]{
		NumCounters:        c.maxEntries * 10,
		MaxCost:            c.maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	c.store = store
	return c, nil
}

// Generation returns the current generation of documentID. Invalidate
// advances it. Read it before loading the tree a search will run on.
func (c *ResultCache) Generation(documentID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[documentID]
}

// Get returns the cached result for key. Entries stored under an older
// generation are unreachable.
func (c *ResultCache) Get(key Key) (*core.TraversalResult, bool) {
	if key.Generation != c.Generation(key.DocumentID) {
		c.misses.Add(1)
		return nil, false
	}
	result, ok := c.store.Get(key.String())
	if !ok || result == nil {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return result, true
}

// Put stores result under key. The write is visible to Get when Put returns.
// It reports whether the cache admitted the entry. Results computed against
// a generation that has since been invalidated are dropped.
func (c *ResultCache) Put(key Key, result *core.TraversalResult) bool {
	if result == nil {
		return false
	}
	if key.Generation != c.Generation(key.DocumentID) {
		c.logger.Debug("dropped stale result",
			"document", key.DocumentID,
			"generation", key.Generation)
		return false
	}
	ok := c.store.SetWithTTL(key.String(), result, 1, c.ttl)
	c.store.Wait()
	if !ok {
		c.logger.Debug("cache rejected result", "document", key.DocumentID)
	}
	return ok
}

// Invalidate drops every cached result for documentID.
func (c *ResultCache) Invalidate(documentID string) {
	c.mu.Lock()
	c.generations[documentID]++
	c.mu.Unlock()
	c.logger.Debug("invalidated cached results", "document", documentID)
}

// Clear drops every cached result.
func (c *ResultCache) Clear() {
	c.store.Clear()
}

// Stats returns hit and miss counts since the cache was created.
func (c *ResultCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Close stops the cache's background goroutines.
func (c *ResultCache) Close() {
	c.store.Close()
}
