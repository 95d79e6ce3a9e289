package core

import (
	"fmt"
	"strconv"
)

// MaxSyntheticNodes bounds the size of trees produced by Synthetic.
const MaxSyntheticNodes = 2_000_000

var syntheticTopics = []string{
	"Scope", "Definitions", "Responsibilities", "Risk Assessment", "Hazard Analysis",
	"Controls", "Inspection", "Maintenance", "Training", "Emergency Response",
	"Reporting", "Audit", "Records", "Procurement", "Change Management",
	"Incident Investigation", "Permits", "Equipment", "Chemicals", "Review",
}

var syntheticSummaries = []string{
	"describes the requirements that apply to this area",
	"lists the roles involved and what each one approves",
	"explains the step by step procedure and its checkpoints",
	"gives the acceptance criteria and measurement methods",
	"summarizes exceptions and how they are escalated",
	"covers documentation that must be kept and for how long",
	"sets out the schedule and frequency of the activity",
}

// Synthetic generates a balanced tree in which every internal node has
// branching children and leaves sit at the given depth (the root is depth 0).
// Node IDs are dotted positions such as "2.1.3"; leaves are numbered pages
// and internal nodes carry the page range they span.
func Synthetic(documentName string, branching, depth int) (*DocumentTree, error) {
	if branching < 1 || depth < 0 {
		return nil, fmt.Errorf("%w: branching %d, depth %d", ErrInvalidShape, branching, depth)
	}
	total, level := 1, 1
	for range depth {
		level *= branching
		total += level
		if total > MaxSyntheticNodes {
			return nil, fmt.Errorf("%w: more than %d nodes", ErrInvalidShape, MaxSyntheticNodes)
		}
	}

	type pending struct {
		node  *DocumentNode
		depth int
	}

	root := &DocumentNode{ID: "root", Title: documentName, Summary: "Synthetic document " + documentName}
	queue := []pending{{node: root}}
	leaves := []*DocumentNode{}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p.depth == depth {
			leaves = append(leaves, p.node)
			continue
		}
		p.node.Children = make([]*DocumentNode, branching)
		for i := range branching {
			id := strconv.Itoa(i + 1)
			if p.node != root {
				id = p.node.ID + "." + id
			}
			n := len(syntheticTopics)
			topic := syntheticTopics[(i+p.depth*7+len(id))%n]
			child := &DocumentNode{
				ID:      id,
				Title:   topic + " " + id,
				Summary: topic + " " + syntheticSummaries[(i+p.depth)%len(syntheticSummaries)],
			}
			p.node.Children[i] = child
			queue = append(queue, pending{node: child, depth: p.depth + 1})
		}
	}

	for i, leaf := range leaves {
		leaf.PageRef = PageRef(strconv.Itoa(i + 1))
		leaf.Content = leaf.Title + ": " + leaf.Summary + "."
	}
	assignRanges(root)

	return Build(root, documentName)
}

// assignRanges gives every internal node the page span of its first and last
// leaf. Children are visited after their parent, so parents are filled in
// reverse level order.
func assignRanges(root *DocumentNode) {
	order := []*DocumentNode{root}
	for i := 0; i < len(order); i++ {
		order = append(order, order[i].Children...)
	}
	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		if node.IsLeaf() {
			continue
		}
		first := firstPage(node.Children[0].PageRef)
		last := lastPage(node.Children[len(node.Children)-1].PageRef)
		if first == last {
			node.PageRef = PageRef(first)
		} else {
			node.PageRef = PageRef(first + "-" + last)
		}
	}
}

func firstPage(ref PageRef) string {
	s := string(ref)
	for i := range len(s) {
		if s[i] == '-' {
			return s[:i]
		}
	}
	return s
}

func lastPage(ref PageRef) string {
	s := string(ref)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '-' {
			return s[i+1:]
		}
	}
	return s
}
