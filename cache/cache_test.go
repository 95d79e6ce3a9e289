package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/treerag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, opts ...Option) *ResultCache {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "what are the hazard steps?", NormalizeQuery("  What  are the\tHazard steps? "))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("What is X?"), Fingerprint("  what   is x? "))
	assert.NotEqual(t, Fingerprint("what is x?"), Fingerprint("what is y?"))
}

func TestKey_String(t *testing.T) {
	a := NewKey("doc", "q", 5, 3)
	b := NewKey("doc", "q", 5, 4)
	c := NewKey("other", "q", 5, 3)

	assert.NotEqual(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
	assert.Equal(t, a.String(), NewKey("doc", " Q ", 5, 3).String())

	d := a
	d.Generation = 1
	assert.NotEqual(t, a.String(), d.String())
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithMaxEntries(0))
	assert.Error(t, err)

	_, err = New(WithTTL(-time.Second))
	assert.Error(t, err)
}

func TestResultCache_GetPut(t *testing.T) {
	c := newCache(t)
	key := NewKey("doc", "query", 5, 3)
	result := &core.TraversalResult{DocumentName: "doc", Query: "query"}

	_, ok := c.Get(key)
	assert.False(t, ok)

	require.True(t, c.Put(key, result))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Same(t, result, got)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate())
}

func TestResultCache_PutNil(t *testing.T) {
	c := newCache(t)
	assert.False(t, c.Put(NewKey("doc", "q", 1, 1), nil))
}

func TestResultCache_TTL(t *testing.T) {
	c := newCache(t, WithTTL(20*time.Millisecond))
	key := NewKey("doc", "query", 5, 3)

	require.True(t, c.Put(key, &core.TraversalResult{}))
	_, ok := c.Get(key)
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestResultCache_Invalidate(t *testing.T) {
	c := newCache(t)
	key := NewKey("doc", "query", 5, 3)
	other := NewKey("other", "query", 5, 3)

	require.True(t, c.Put(key, &core.TraversalResult{}))
	require.True(t, c.Put(other, &core.TraversalResult{}))

	c.Invalidate("doc")

	_, ok := c.Get(key)
	assert.False(t, ok)
	_, ok = c.Get(other)
	assert.True(t, ok)
}

func TestResultCache_PutAfterInvalidate(t *testing.T) {
	c := newCache(t)
	key := NewKey("doc", "query", 5, 3)
	key.Generation = c.Generation("doc")

	c.Invalidate("doc")
	assert.False(t, c.Put(key, &core.TraversalResult{}), "result of an invalidated generation")

	fresh := NewKey("doc", "query", 5, 3)
	fresh.Generation = c.Generation("doc")
	assert.Equal(t, uint64(1), fresh.Generation)
	_, ok := c.Get(fresh)
	assert.False(t, ok)

	require.True(t, c.Put(fresh, &core.TraversalResult{}))
	_, ok = c.Get(fresh)
	assert.True(t, ok)
}

func TestResultCache_Clear(t *testing.T) {
	c := newCache(t)
	key := NewKey("doc", "query", 5, 3)
	require.True(t, c.Put(key, &core.TraversalResult{}))

	c.Clear()
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestStats_HitRateEmpty(t *testing.T) {
	assert.Zero(t, Stats{}.HitRate())
}

// countingSearcher returns a fresh result per call and counts calls.
type countingSearcher struct {
	calls     atomic.Int32
	err       error
	cancelled bool
}

func (s *countingSearcher) Search(_ context.Context, tree *core.DocumentTree, query string, _, _ int) (*core.TraversalResult, error) {
	s.calls.Add(1)
	result := &core.TraversalResult{DocumentName: tree.DocumentName, Query: query}
	result.Stats.Cancelled = s.cancelled
	return result, s.err
}

func testTree(t *testing.T) *core.DocumentTree {
	t.Helper()
	tree, err := core.Build(&core.DocumentNode{ID: "r", Title: "Doc"}, "Doc")
	require.NoError(t, err)
	return tree
}

func TestNewCachedSearcher(t *testing.T) {
	_, err := NewCachedSearcher(nil, newCache(t))
	assert.ErrorIs(t, err, ErrSearcherRequired)

	_, err = NewCachedSearcher(&countingSearcher{}, nil)
	assert.ErrorIs(t, err, ErrCacheRequired)
}

func TestCachedSearcher_Search(t *testing.T) {
	inner := &countingSearcher{}
	searcher, err := NewCachedSearcher(inner, newCache(t))
	require.NoError(t, err)
	tree := testTree(t)

	first, err := searcher.Search(context.Background(), tree, "What is X?", 5, 3)
	require.NoError(t, err)
	second, err := searcher.Search(context.Background(), tree, "what is x?", 5, 3)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())

	_, err = searcher.Search(context.Background(), tree, "what is x?", 4, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load(), "different limits are a different entry")
	assert.Equal(t, uint64(1), searcher.Cache().Stats().Hits)
}

func TestCachedSearcher_DoesNotCacheFailures(t *testing.T) {
	tests := []struct {
		name  string
		inner *countingSearcher
	}{
		{name: "error", inner: &countingSearcher{err: errors.New("boom")}},
		{name: "cancelled", inner: &countingSearcher{cancelled: true, err: context.Canceled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher, err := NewCachedSearcher(tt.inner, newCache(t))
			require.NoError(t, err)
			tree := testTree(t)

			_, _ = searcher.Search(context.Background(), tree, "q", 5, 3)
			_, _ = searcher.Search(context.Background(), tree, "q", 5, 3)
			assert.Equal(t, int32(2), tt.inner.calls.Load())
		})
	}
}

// blockingSearcher holds the first search until release is closed.
type blockingSearcher struct {
	started chan struct{}
	release chan struct{}
	once    atomic.Bool
}

func (s *blockingSearcher) Search(_ context.Context, tree *core.DocumentTree, query string, _, _ int) (*core.TraversalResult, error) {
	if s.once.CompareAndSwap(false, true) {
		close(s.started)
		<-s.release
	}
	return &core.TraversalResult{DocumentName: tree.DocumentName, Query: query}, nil
}

func TestCachedSearcher_InvalidatedDuringSearch(t *testing.T) {
	inner := &blockingSearcher{started: make(chan struct{}), release: make(chan struct{})}
	c := newCache(t)
	searcher, err := NewCachedSearcher(inner, c)
	require.NoError(t, err)
	tree := testTree(t)

	done := make(chan *core.TraversalResult)
	go func() {
		result, _ := searcher.Search(context.Background(), tree, "q", 5, 3)
		done <- result
	}()
	<-inner.started
	c.Invalidate(tree.DocumentName)
	close(inner.release)
	require.NotNil(t, <-done)

	key := NewKey(tree.DocumentName, "q", 5, 3)
	key.Generation = c.Generation(tree.DocumentName)
	_, ok := c.Get(key)
	assert.False(t, ok, "a search that straddled invalidation must not be cached")
}
