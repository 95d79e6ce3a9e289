package storage

import (
	"context"
	"time"

	"github.com/poiesic/treerag/core"
)

// TreeInfo describes a stored tree without loading it.
type TreeInfo struct {
	DocumentName string    `json:"document_name"`
	Nodes        int       `json:"nodes"`
	SavedAt      time.Time `json:"saved_at"`
}

// TreeRepository persists document trees by document name.
// Implementations must be thread-safe and support concurrent access.
type TreeRepository interface {
	// SaveTree stores the tree under its DocumentName, replacing any
	// previous tree with the same name.
	SaveTree(ctx context.Context, tree *core.DocumentTree) (*TreeInfo, error)

	// GetTree loads a tree by document name.
	// Returns ErrNotFound if no such tree exists.
	GetTree(ctx context.Context, name string) (*core.DocumentTree, error)

	// ListTrees returns every stored tree ordered by document name.
	ListTrees(ctx context.Context) ([]*TreeInfo, error)

	// DeleteTree removes a tree.
	// Returns ErrNotFound if no such tree exists.
	DeleteTree(ctx context.Context, name string) error

	// Close releases resources held by the repository.
	Close() error
}
