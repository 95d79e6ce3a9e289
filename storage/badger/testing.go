package badger

import "github.com/poiesic/treerag/storage"

// NewMemoryRepository creates an in-memory tree repository for testing.
// Caller must close both the repository and the backend when done.
func NewMemoryRepository() (storage.TreeRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	repo, err := NewTreeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}
