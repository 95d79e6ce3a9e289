package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/treerag/core"
)

// MarshalTree serializes a tree to its persisted JSON form
// ({"document_name": ..., "tree": {...}}).
func MarshalTree(tree *core.DocumentTree) ([]byte, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalTree deserializes a tree from its persisted JSON form.
func UnmarshalTree(data []byte) (*core.DocumentTree, error) {
	tree, err := core.ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return tree, nil
}

// MarshalTreeInfo serializes tree metadata with TreeInfoMUS.
func MarshalTreeInfo(info *TreeInfo) ([]byte, error) {
	if info == nil {
		return nil, fmt.Errorf("%w: nil tree info", ErrSerializationFailed)
	}
	buf := make([]byte, TreeInfoMUS.Size(*info))
	TreeInfoMUS.Marshal(*info, buf)
	return buf, nil
}

// UnmarshalTreeInfo deserializes tree metadata.
func UnmarshalTreeInfo(data []byte) (*TreeInfo, error) {
	info, _, err := TreeInfoMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &info, nil
}
