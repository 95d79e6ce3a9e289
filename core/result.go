package core

import "encoding/json"

// SelectedNode is a node chosen by a traversal.
// Node is a shared reference into the tree, not a copy.
type SelectedNode struct {
	ID         string // Index key of Node; see DocumentTree.IDOf
	Node       *DocumentNode
	Path       []string // Titles from the root down to and including Node
	Depth      int      // Root is depth 0
	Confidence float64  // Confidence assigned by the oracle when Node was chosen
}

// MarshalJSON emits the node's metadata without its subtree.
func (s SelectedNode) MarshalJSON() ([]byte, error) {
	type selectedJSON struct {
		ID         string   `json:"id"`
		Title      string   `json:"title"`
		Summary    string   `json:"summary,omitempty"`
		PageRef    PageRef  `json:"page_ref,omitempty"`
		Path       []string `json:"path"`
		Depth      int      `json:"depth"`
		Confidence float64  `json:"confidence"`
	}
	out := selectedJSON{
		ID:         s.ID,
		Path:       s.Path,
		Depth:      s.Depth,
		Confidence: s.Confidence,
	}
	if s.Node != nil {
		if out.ID == "" {
			out.ID = s.Node.ID
		}
		out.Title = s.Node.Title
		out.Summary = s.Node.Summary
		out.PageRef = s.Node.PageRef
	}
	return json.Marshal(out)
}

// Stats describes how a traversal went.
type Stats struct {
	NodesVisited         int      `json:"nodes_visited"`
	NodesSelected        int      `json:"nodes_selected"`
	MaxDepthReached      int      `json:"max_depth_reached"`
	MaxDepth             int      `json:"max_depth"`    // After clamping
	MaxBranches          int      `json:"max_branches"` // After clamping
	NodeBudget           int      `json:"node_budget"`
	OracleCalls          int      `json:"oracle_calls"`
	OracleFailures       int      `json:"oracle_failures"`
	CyclesSkipped        int      `json:"cycles_skipped"`
	HallucinatedChildren int      `json:"hallucinated_children"`
	Truncated            bool     `json:"truncated"` // Node budget was exhausted
	Cancelled            bool     `json:"cancelled"`
	VisitedTitles        []string `json:"visited_titles,omitempty"`
}

// TraversalResult is the output of one navigator run.
type TraversalResult struct {
	DocumentName string         `json:"document_name"`
	Query        string         `json:"query"`
	Selected     []SelectedNode `json:"selected"`
	Stats        Stats          `json:"stats"`
}

// Nodes returns the selected nodes in selection order.
func (r *TraversalResult) Nodes() []*DocumentNode {
	nodes := make([]*DocumentNode, len(r.Selected))
	for i, s := range r.Selected {
		nodes[i] = s.Node
	}
	return nodes
}

// IDs returns the IDs of the selected nodes in selection order.
func (r *TraversalResult) IDs() []string {
	ids := make([]string, len(r.Selected))
	for i, s := range r.Selected {
		switch {
		case s.ID != "":
			ids[i] = s.ID
		case s.Node != nil:
			ids[i] = s.Node.ID
		}
	}
	return ids
}
