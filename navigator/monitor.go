package navigator

import (
	"time"

	"github.com/poiesic/treerag/core"
)

// TraversalMonitor provides hooks to observe a traversal.
// Hooks are called from the goroutine running Search, never concurrently
// for a single traversal. A monitor shared between concurrent searches must
// synchronize its own state.
type TraversalMonitor interface {
	Start(tree *core.DocumentTree, query string)
	NodeVisited(node *core.DocumentNode, depth int)
	CycleSkipped(node *core.DocumentNode)
	OracleCompleted(parent *core.DocumentNode, elapsed time.Duration, err error)
	HallucinatedChild(parent *core.DocumentNode, childID string)
	ChildrenSelected(parent *core.DocumentNode, children []*core.DocumentNode)
	NodeSelected(selected core.SelectedNode)
	BudgetExhausted(stats core.Stats)
	Finish(result *core.TraversalResult, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of TraversalMonitor
type noopMonitor struct{}

var _ TraversalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.DocumentTree, _ string)                           {}
func (n *noopMonitor) NodeVisited(_ *core.DocumentNode, _ int)                        {}
func (n *noopMonitor) CycleSkipped(_ *core.DocumentNode)                              {}
func (n *noopMonitor) OracleCompleted(_ *core.DocumentNode, _ time.Duration, _ error) {}
func (n *noopMonitor) HallucinatedChild(_ *core.DocumentNode, _ string)               {}
func (n *noopMonitor) ChildrenSelected(_ *core.DocumentNode, _ []*core.DocumentNode)  {}
func (n *noopMonitor) NodeSelected(_ core.SelectedNode)                               {}
func (n *noopMonitor) BudgetExhausted(_ core.Stats)                                   {}
func (n *noopMonitor) Finish(_ *core.TraversalResult, _ time.Duration)                {}

// multiMonitor fans every hook out to several monitors in order.
type multiMonitor []TraversalMonitor

var _ TraversalMonitor = multiMonitor(nil)

// combineMonitors drops nil monitors and returns a single monitor.
func combineMonitors(monitors ...TraversalMonitor) TraversalMonitor {
	var out multiMonitor
	for _, m := range monitors {
		if m != nil {
			out = append(out, m)
		}
	}
	switch len(out) {
	case 0:
		return &noopMonitor{}
	case 1:
		return out[0]
	default:
		return out
	}
}

func (m multiMonitor) Start(tree *core.DocumentTree, query string) {
	for _, mon := range m {
		mon.Start(tree, query)
	}
}

func (m multiMonitor) NodeVisited(node *core.DocumentNode, depth int) {
	for _, mon := range m {
		mon.NodeVisited(node, depth)
	}
}

func (m multiMonitor) CycleSkipped(node *core.DocumentNode) {
	for _, mon := range m {
		mon.CycleSkipped(node)
	}
}

func (m multiMonitor) OracleCompleted(parent *core.DocumentNode, elapsed time.Duration, err error) {
	for _, mon := range m {
		mon.OracleCompleted(parent, elapsed, err)
	}
}

func (m multiMonitor) HallucinatedChild(parent *core.DocumentNode, childID string) {
	for _, mon := range m {
		mon.HallucinatedChild(parent, childID)
	}
}

func (m multiMonitor) ChildrenSelected(parent *core.DocumentNode, children []*core.DocumentNode) {
	for _, mon := range m {
		mon.ChildrenSelected(parent, children)
	}
}

func (m multiMonitor) NodeSelected(selected core.SelectedNode) {
	for _, mon := range m {
		mon.NodeSelected(selected)
	}
}

func (m multiMonitor) BudgetExhausted(stats core.Stats) {
	for _, mon := range m {
		mon.BudgetExhausted(stats)
	}
}

func (m multiMonitor) Finish(result *core.TraversalResult, elapsed time.Duration) {
	for _, mon := range m {
		mon.Finish(result, elapsed)
	}
}
