package core

import (
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
)

// syntheticIDPrefix marks index keys given to nodes that arrived without an ID.
const syntheticIDPrefix = "#"

// DocumentTree is a named document hierarchy.
// It is read-only after construction and safe to share between goroutines.
type DocumentTree struct {
	DocumentName string
	Root         *DocumentNode

	index      map[string]*DocumentNode
	synthetic  map[*DocumentNode]string
	nodes      []*DocumentNode // level order, each distinct node once
	duplicates int
}

// Build constructs a tree from a pre-built node graph.
//
// The graph is walked once, iteratively, to build the ID index. Each distinct
// node is indexed once even if the graph contains cycles or shared subtrees.
// Nodes are not modified. A node without an ID is indexed under a synthetic
// key ("#<n>", see IDOf) that never shadows an ID present in the graph. When
// several nodes share an ID the first one in level order wins.
func Build(root *DocumentNode, documentName string) (*DocumentTree, error) {
	if root == nil {
		return nil, ErrNilRoot
	}

	t := &DocumentTree{
		DocumentName: documentName,
		Root:         root,
	}
	t.reindex()
	return t, nil
}

func (t *DocumentTree) reindex() {
	t.index = make(map[string]*DocumentNode)
	t.synthetic = make(map[*DocumentNode]string)
	t.nodes = t.nodes[:0]
	t.duplicates = 0

	seen := map[*DocumentNode]struct{}{t.Root: {}}
	queue := []*DocumentNode{t.Root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		t.nodes = append(t.nodes, node)
		if node.ID != "" {
			if _, exists := t.index[node.ID]; exists {
				t.duplicates++
			} else {
				t.index[node.ID] = node
			}
		}

		for _, child := range node.Children {
			if child == nil {
				continue
			}
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	// Real IDs are all indexed before any synthetic key is chosen.
	for pos, node := range t.nodes {
		if node.ID != "" {
			continue
		}
		key := syntheticIDPrefix + strconv.Itoa(pos)
		for {
			if _, taken := t.index[key]; !taken {
				break
			}
			key += syntheticIDPrefix
		}
		t.index[key] = node
		t.synthetic[node] = key
	}
}

// FindByID returns the node with the given ID.
func (t *DocumentTree) FindByID(id string) (*DocumentNode, bool) {
	node, ok := t.index[id]
	return node, ok
}

// IDOf returns the key under which node is indexed: its own ID, or the
// synthetic key assigned by Build. It returns "" for nodes not in the tree.
func (t *DocumentTree) IDOf(node *DocumentNode) string {
	if node == nil {
		return ""
	}
	if key, ok := t.synthetic[node]; ok {
		return key
	}
	return node.ID
}

// Len returns the number of distinct nodes reachable from the root.
func (t *DocumentTree) Len() int {
	return len(t.nodes)
}

// DuplicateIDs returns how many reachable nodes reuse an ID already taken
// by another node.
func (t *DocumentTree) DuplicateIDs() int {
	return t.duplicates
}

// All iterates over every distinct node in level order.
func (t *DocumentTree) All() iter.Seq[*DocumentNode] {
	return func(yield func(*DocumentNode) bool) {
		for _, node := range t.nodes {
			if !yield(node) {
				return
			}
		}
	}
}

// Validate checks that the tree can be persisted.
func (t *DocumentTree) Validate() error {
	if t == nil || t.Root == nil {
		return fmt.Errorf("%w: %w", ErrInvalidTree, ErrNilRoot)
	}
	if t.DocumentName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTree, ErrEmptyDocumentName)
	}
	return nil
}

// persistedTree is the on-disk JSON shape of a DocumentTree.
type persistedTree struct {
	DocumentName string        `json:"document_name"`
	Tree         *DocumentNode `json:"tree"`
}

func (t *DocumentTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(persistedTree{
		DocumentName: t.DocumentName,
		Tree:         t.Root,
	})
}

func (t *DocumentTree) UnmarshalJSON(data []byte) error {
	var p persistedTree
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedTree, err)
	}
	if p.Tree == nil {
		return fmt.Errorf("%w: %w", ErrMalformedTree, ErrNilRoot)
	}
	t.DocumentName = p.DocumentName
	t.Root = p.Tree
	t.reindex()
	return nil
}

// ParseTree decodes a tree from its persisted JSON form.
// If the document has no name the root title is used instead.
func ParseTree(data []byte) (*DocumentTree, error) {
	t := &DocumentTree{}
	if err := t.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	if t.DocumentName == "" {
		t.DocumentName = t.Root.Title
	}
	return t, nil
}
