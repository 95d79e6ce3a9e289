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

// Package storage provides persistence for document trees.
//
// Trees are stored in the same JSON shape tree producers emit:
//
//	{"document_name": "...", "tree": {"id": ..., "title": ..., "children": [...]}}
//
// so a stored tree can be exported and re-imported without transformation.
// Tree metadata (TreeInfo) is an internal record encoded with TreeInfoMUS.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the TreeRepository
// interface:
//
//	repo, err := badger.NewTreeRepository(backend)  // returns storage.TreeRepository
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewTreeRepository(backend)
//	info, err := repo.SaveTree(ctx, tree)
//	tree, err = repo.GetTree(ctx, "Safety Manual")
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Trees returned by
// GetTree are freshly decoded and not shared with other callers.
package storage
