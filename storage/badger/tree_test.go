package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/poiesic/treerag/core"
	"github.com/poiesic/treerag/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manual(t *testing.T, name string) *core.DocumentTree {
	t.Helper()
	root := &core.DocumentNode{
		ID:    "root",
		Title: name,
		Children: []*core.DocumentNode{
			{ID: "1", Title: "Introduction", Summary: "background", PageRef: "1"},
			{ID: "2", Title: "Risk Management", Summary: "hazard analysis procedures", PageRef: "12-15"},
		},
	}
	tree, err := core.Build(root, name)
	require.NoError(t, err)
	return tree
}

func newRepo(t *testing.T) storage.TreeRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestTreeBasics(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	info, err := repo.SaveTree(ctx, manual(t, "Safety Manual"))
	if err != nil {
		t.Fatalf("Failed to save tree: %v", err)
	}
	if info.Nodes != 3 {
		t.Fatalf("Expected 3 nodes, got %d", info.Nodes)
	}
	if info.SavedAt.IsZero() {
		t.Fatal("Expected SavedAt to be set")
	}

	tree, err := repo.GetTree(ctx, "Safety Manual")
	if err != nil {
		t.Fatalf("Failed to get tree: %v", err)
	}
	if tree.DocumentName != "Safety Manual" {
		t.Fatalf("Expected 'Safety Manual', got '%s'", tree.DocumentName)
	}

	node, ok := tree.FindByID("2")
	if !ok {
		t.Fatal("Expected node 2 to be indexed")
	}
	if node.PageRef != "12-15" {
		t.Fatalf("Expected page ref '12-15', got '%s'", node.PageRef)
	}
}

func TestSaveTree_Replaces(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.SaveTree(ctx, manual(t, "Manual"))
	require.NoError(t, err)

	replacement, err := core.Build(&core.DocumentNode{ID: "only", Title: "Rewritten"}, "Manual")
	require.NoError(t, err)
	info, err := repo.SaveTree(ctx, replacement)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Nodes)

	tree, err := repo.GetTree(ctx, "Manual")
	require.NoError(t, err)
	assert.Equal(t, "Rewritten", tree.Root.Title)
	assert.Equal(t, 1, tree.Len())

	infos, err := repo.ListTrees(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestSaveTree_Invalid(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	unnamed, err := core.Build(&core.DocumentNode{ID: "root"}, "")
	require.NoError(t, err)
	_, err = repo.SaveTree(ctx, unnamed)
	assert.ErrorIs(t, err, core.ErrInvalidTree)

	blank, err := core.Build(&core.DocumentNode{ID: "root"}, "   ")
	require.NoError(t, err)
	_, err = repo.SaveTree(ctx, blank)
	assert.ErrorIs(t, err, storage.ErrInvalidName)

	_, err = repo.SaveTree(ctx, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTree)
}

func TestGetTree_NotFound(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.GetTree(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.GetTree(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidName)
}

func TestListTrees_SortedByName(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	empty, err := repo.ListTrees(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"Zeta", "Alpha", "Mu"} {
		_, err := repo.SaveTree(ctx, manual(t, name))
		require.NoError(t, err)
	}

	infos, err := repo.ListTrees(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.DocumentName)
	}
	assert.Equal(t, []string{"Alpha", "Mu", "Zeta"}, names)
}

func TestDeleteTree(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.SaveTree(ctx, manual(t, "Manual"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTree(ctx, "Manual"))

	_, err = repo.GetTree(ctx, "Manual")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	infos, err := repo.ListTrees(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	assert.ErrorIs(t, repo.DeleteTree(ctx, "Manual"), storage.ErrNotFound)
}

func TestTreeRepository_ClosedBackend(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	repo, err := NewTreeRepository(backend)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	ctx := context.Background()
	_, err = repo.SaveTree(ctx, manual(t, "Manual"))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = repo.GetTree(ctx, "Manual")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = repo.ListTrees(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, repo.DeleteTree(ctx, "Manual"), storage.ErrStorageClosed)
}

func TestTreeRepository_CancelledContext(t *testing.T) {
	repo := newRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetTree(ctx, "Manual")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTreeRepository_NilBackend(t *testing.T) {
	_, err := NewTreeRepository(nil)
	assert.Error(t, err)
}

func TestTreeRepository_Persists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repo, err := NewTreeRepository(backend)
	require.NoError(t, err)
	_, err = repo.SaveTree(ctx, manual(t, "Manual"))
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	repo, err = NewTreeRepository(backend)
	require.NoError(t, err)

	tree, err := repo.GetTree(ctx, "Manual")
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Len())
}

func TestTreeRepository_Concurrent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	trees := make([]*core.DocumentTree, 8)
	for i := range trees {
		trees[i] = manual(t, fmt.Sprintf("doc-%d", i))
	}

	var wg sync.WaitGroup
	for _, tree := range trees {
		wg.Add(1)
		go func(tree *core.DocumentTree) {
			defer wg.Done()
			_, err := repo.SaveTree(ctx, tree)
			assert.NoError(t, err)
			_, err = repo.GetTree(ctx, tree.DocumentName)
			assert.NoError(t, err)
		}(tree)
	}
	wg.Wait()

	infos, err := repo.ListTrees(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 8)
}
