// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package treerag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/treerag/ai"
	"github.com/poiesic/treerag/ai/openai"
	"github.com/poiesic/treerag/cache"
	"github.com/poiesic/treerag/config"
	"github.com/poiesic/treerag/core"
	"github.com/poiesic/treerag/navigator"
	"github.com/poiesic/treerag/storage"
	"github.com/poiesic/treerag/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
)

// Library is a store of document trees that can be queried.
// It is safe for concurrent use.
type Library struct {
	backend     *badger.Backend
	trees       storage.TreeRepository
	provider    ai.AIProvider
	navigator   *navigator.Navigator
	cached      *cache.CachedSearcher
	results     *cache.ResultCache
	maxDepth    int
	maxBranches int
	logger      *slog.Logger

	mu       sync.RWMutex
	loaded   map[string]*core.DocumentTree
	versions map[string]uint64
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	oracle       ai.RelevanceOracle
	inMemory     bool
	cacheEnabled bool
	cacheOpts    []cache.Option
	navOpts      []navigator.Option
	registerer   prometheus.Registerer
	maxDepth     int
	maxBranches  int
}

// WithAIConfig sets the configuration of the LLM oracle.
func WithAIConfig(config *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses an existing AI provider. The Library closes it.
func WithProvider(provider ai.AIProvider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// WithOracle uses oracle directly, bypassing any provider.
func WithOracle(oracle ai.RelevanceOracle) LibraryOption {
	return func(o *libraryOptions) {
		o.oracle = oracle
	}
}

// WithInMemory keeps all trees in memory. The path passed to Open is ignored.
func WithInMemory() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// WithCacheOptions configures the query result cache.
func WithCacheOptions(opts ...cache.Option) LibraryOption {
	return func(o *libraryOptions) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// WithoutCache disables the query result cache.
func WithoutCache() LibraryOption {
	return func(o *libraryOptions) {
		o.cacheEnabled = false
	}
}

// WithNavigatorOptions passes options to the navigator.
func WithNavigatorOptions(opts ...navigator.Option) LibraryOption {
	return func(o *libraryOptions) {
		o.navOpts = append(o.navOpts, opts...)
	}
}

// WithMetricsRegisterer records search metrics in reg.
func WithMetricsRegisterer(reg prometheus.Registerer) LibraryOption {
	return func(o *libraryOptions) {
		o.registerer = reg
	}
}

// WithSearchLimits sets the limits used by Query.
func WithSearchLimits(maxDepth, maxBranches int) LibraryOption {
	return func(o *libraryOptions) {
		o.maxDepth = maxDepth
		o.maxBranches = maxBranches
	}
}

// Open opens or creates a library stored at path.
func Open(path string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		aiConfig:     ai.DefaultConfig(),
		cacheEnabled: true,
		maxDepth:     navigator.DefaultMaxDepth,
		maxBranches:  navigator.DefaultMaxBranches,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		return nil, err
	}

	trees, err := badger.NewTreeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	l := &Library{
		backend:     backend,
		trees:       trees,
		maxDepth:    options.maxDepth,
		maxBranches: options.maxBranches,
		logger:      slog.Default().With("component", "library"),
		loaded:      make(map[string]*core.DocumentTree),
		versions:    make(map[string]uint64),
	}

	oracle := options.oracle
	if oracle == nil {
		provider := options.provider
		if provider == nil {
			provider, err = openai.NewProvider(options.aiConfig)
			if err != nil {
				l.Close()
				return nil, err
			}
		}
		l.provider = provider
		oracle = provider.Oracle()
	}

	navOpts := options.navOpts
	if options.registerer != nil {
		metrics, err := navigator.NewMetrics(options.registerer)
		if err != nil {
			l.Close()
			return nil, err
		}
		navOpts = append(navOpts, navigator.WithMetrics(metrics))
	}
	l.navigator, err = navigator.New(oracle, navOpts...)
	if err != nil {
		l.Close()
		return nil, err
	}
	if options.cacheEnabled {
		l.results, err = cache.New(options.cacheOpts...)
		if err != nil {
			l.Close()
			return nil, err
		}
		l.cached, err = cache.NewCachedSearcher(l.navigator, l.results)
		if err != nil {
			l.Close()
			return nil, err
		}
	}

	return l, nil
}

// OpenFromConfig opens a library configured by cfg. opts are applied after
// the settings derived from cfg.
func OpenFromConfig(cfg *config.Config, opts ...LibraryOption) (*Library, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []LibraryOption{
		WithAIConfig(cfg.AI.ToAI()),
		WithNavigatorOptions(cfg.Traversal.NavigatorOptions()...),
		WithSearchLimits(cfg.Traversal.MaxDepth, cfg.Traversal.MaxBranches),
	}
	if cfg.Database.InMemory {
		base = append(base, WithInMemory())
	}
	if cfg.Cache.Disabled {
		base = append(base, WithoutCache())
	} else {
		base = append(base, WithCacheOptions(cfg.Cache.CacheOptions()...))
	}
	return Open(cfg.Database.Path, append(base, opts...)...)
}

// Close releases every resource held by the library.
func (l *Library) Close() error {
	if l.navigator != nil {
		l.navigator.Release()
	}
	if l.results != nil {
		l.results.Close()
	}
	if l.provider != nil {
		if err := l.provider.Close(); err != nil {
			l.logger.Error("error closing AI provider", "err", err)
		}
	}
	if err := l.trees.Close(); err != nil {
		l.logger.Error("error closing tree repository", "err", err)
		return err
	}
	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Import stores tree, replacing any tree with the same document name.
// Cached results for that document are discarded.
func (l *Library) Import(ctx context.Context, tree *core.DocumentTree) (*storage.TreeInfo, error) {
	info, err := l.trees.SaveTree(ctx, tree)
	if err != nil {
		return nil, err
	}
	l.forget(tree.DocumentName)
	l.logger.Info("imported tree", "document", info.DocumentName, "nodes", info.Nodes)
	return info, nil
}

// ImportJSON parses a tree in its persisted JSON form and stores it.
// A non-empty name overrides the document name found in data.
func (l *Library) ImportJSON(ctx context.Context, data []byte, name string) (*storage.TreeInfo, error) {
	tree, err := core.ParseTree(data)
	if err != nil {
		return nil, err
	}
	if name != "" {
		tree.DocumentName = name
	}
	return l.Import(ctx, tree)
}

// Tree returns the stored tree for a document.
// Loaded trees are kept in memory and shared between queries.
func (l *Library) Tree(ctx context.Context, name string) (*core.DocumentTree, error) {
	l.mu.RLock()
	tree, ok := l.loaded[name]
	version := l.versions[name]
	l.mu.RUnlock()
	if ok {
		return tree, nil
	}

	tree, err := l.trees.GetTree(ctx, name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.loaded[name]; ok {
		return existing, nil
	}
	// The document was replaced or deleted while loading.
	if l.versions[name] != version {
		return tree, nil
	}
	l.loaded[name] = tree
	return tree, nil
}

// List describes every stored tree.
func (l *Library) List(ctx context.Context) ([]*storage.TreeInfo, error) {
	return l.trees.ListTrees(ctx)
}

// Delete removes a stored tree.
func (l *Library) Delete(ctx context.Context, name string) error {
	if err := l.trees.DeleteTree(ctx, name); err != nil {
		return err
	}
	l.forget(name)
	return nil
}

func (l *Library) forget(name string) {
	l.mu.Lock()
	delete(l.loaded, name)
	l.versions[name]++
	l.mu.Unlock()
	if l.results != nil {
		l.results.Invalidate(name)
	}
}

// Query searches a stored document using the library's search limits.
func (l *Library) Query(ctx context.Context, document, query string) (*core.TraversalResult, error) {
	return l.QueryWithLimits(ctx, document, query, l.maxDepth, l.maxBranches)
}

// QueryWithLimits searches a stored document with explicit limits.
func (l *Library) QueryWithLimits(ctx context.Context, document, query string, maxDepth, maxBranches int) (*core.TraversalResult, error) {
	var generation uint64
	if l.results != nil {
		generation = l.results.Generation(document)
	}

	tree, err := l.Tree(ctx, document)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("document %q: %w", document, err)
		}
		return nil, err
	}
	if l.cached != nil {
		return l.cached.SearchAt(ctx, generation, tree, query, maxDepth, maxBranches)
	}
	return l.navigator.Search(ctx, tree, query, maxDepth, maxBranches)
}

// CacheStats reports result cache hits and misses. It is zero when the
// cache is disabled.
func (l *Library) CacheStats() cache.Stats {
	if l.results == nil {
		return cache.Stats{}
	}
	return l.results.Stats()
}
