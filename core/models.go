package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentNode is one section of a document.
type DocumentNode struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Summary  string          `json:"summary,omitempty"`
	Content  string          `json:"text,omitempty"` // Full section text, may be absent
	PageRef  PageRef         `json:"page_ref,omitempty"`
	Children []*DocumentNode `json:"children,omitempty"`
}

// UnmarshalJSON accepts the section text under either "text" or "content".
// "text" wins when both are present.
func (n *DocumentNode) UnmarshalJSON(data []byte) error {
	type plain DocumentNode
	var aux struct {
		*plain
		AltContent string `json:"content"`
	}
	aux.plain = (*plain)(n)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if n.Content == "" {
		n.Content = aux.AltContent
	}
	return nil
}

// IsLeaf reports whether the node has no children.
func (n *DocumentNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// PageRef is a page or page-range label such as "12" or "12-15".
//
// Generated trees are inconsistent about the JSON type of this field, so
// numbers and arrays of numbers are accepted and normalized to text.
type PageRef string

func (p *PageRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = ""
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("%w: page_ref: %w", ErrMalformedTree, err)
		}
		*p = PageRef(strings.TrimSpace(s))
		return nil
	case '[':
		var parts []PageRef
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return fmt.Errorf("%w: page_ref: %w", ErrMalformedTree, err)
		}
		labels := make([]string, 0, len(parts))
		for _, part := range parts {
			if part != "" {
				labels = append(labels, string(part))
			}
		}
		*p = PageRef(strings.Join(labels, "-"))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("%w: page_ref %s", ErrMalformedTree, trimmed)
	}
	*p = PageRef(n.String())
	return nil
}

func (p PageRef) String() string {
	return string(p)
}
