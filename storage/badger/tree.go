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

package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/treerag/core"
	"github.com/poiesic/treerag/storage"
)

// TreeRepository implements storage.TreeRepository for BadgerDB.
type TreeRepository struct {
	backend *Backend
}

var _ storage.TreeRepository = (*TreeRepository)(nil)

// newTreeRepository returns the concrete type for use inside this package.
func newTreeRepository(backend *Backend) (*TreeRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &TreeRepository{backend: backend}, nil
}

// NewTreeRepository creates a tree repository on top of an open backend.
// The backend is owned by the caller.
//
// Returns storage.TreeRepository interface to enforce abstraction.
func NewTreeRepository(backend *Backend) (storage.TreeRepository, error) {
	return newTreeRepository(backend)
}

// Close releases resources. TreeRepository has no resources to release.
func (r *TreeRepository) Close() error {
	return nil
}

func (r *TreeRepository) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return storage.ErrInvalidName
	}
	return nil
}

// SaveTree stores the tree and its metadata in one transaction.
func (r *TreeRepository) SaveTree(ctx context.Context, tree *core.DocumentTree) (*storage.TreeInfo, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	if err := validateName(tree.DocumentName); err != nil {
		return nil, err
	}

	value, err := storage.MarshalTree(tree)
	if err != nil {
		return nil, err
	}
	info := &storage.TreeInfo{
		DocumentName: tree.DocumentName,
		Nodes:        tree.Len(),
		SavedAt:      time.Now().UTC(),
	}
	infoValue, err := storage.MarshalTreeInfo(info)
	if err != nil {
		return nil, err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeTreeKey(tree.DocumentName), value); err != nil {
			return err
		}
		if err := tx.Set(makeTreeInfoKey(tree.DocumentName), infoValue); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	r.backend.logger.Debug("saved tree", "document", tree.DocumentName, "nodes", info.Nodes, "bytes", len(value))
	return info, nil
}

// GetTree loads and decodes a tree by document name.
func (r *TreeRepository) GetTree(ctx context.Context, name string) (*core.DocumentTree, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	var tree *core.DocumentTree
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTreeKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			tree, err = storage.UnmarshalTree(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	// The stored name is authoritative even if the JSON was edited by hand.
	tree.DocumentName = name
	return tree, nil
}

// ListTrees iterates the metadata prefix. Badger iterates keys in byte
// order, so results are sorted by document name.
func (r *TreeRepository) ListTrees(ctx context.Context) ([]*storage.TreeInfo, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	infos := []*storage.TreeInfo{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(treeInfoPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				info, err := storage.UnmarshalTreeInfo(val)
				if err != nil {
					return err
				}
				infos = append(infos, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// DeleteTree removes a tree and its metadata.
func (r *TreeRepository) DeleteTree(ctx context.Context, name string) error {
	if err := r.check(ctx); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTreeKey(name)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeTreeInfoKey(name)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
