package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/treerag/ai"
	"github.com/poiesic/treerag/core"
)

const (
	// DefaultMaxDepth is the recommended traversal depth.
	DefaultMaxDepth = 5
	// MaxDepthLimit caps maxDepth. Larger values are clamped.
	MaxDepthLimit = 10
	// DefaultMaxBranches is the recommended number of children explored per node.
	DefaultMaxBranches = 3
	// MaxBranchesLimit caps maxBranches. Larger values are clamped.
	MaxBranchesLimit = 10
	// DefaultNodeBudget bounds the nodes visited by a single search.
	DefaultNodeBudget = 1000
	// DefaultPoolSize is the default number of concurrent oracle calls.
	DefaultPoolSize = 3
)

// Navigator finds the nodes of a document tree most relevant to a query
// by asking a relevance oracle to choose children level by level.
//
// A Navigator is safe for concurrent use. Every search keeps its own
// traversal state; only the oracle worker pool is shared.
type Navigator struct {
	oracle        ai.RelevanceOracle
	pool          *ants.Pool
	poolSize      int
	nodeBudget    int
	policy        Policy
	oracleTimeout time.Duration
	monitor       TraversalMonitor
	metrics       *Metrics
	logger        *slog.Logger
}

// New creates a navigator around oracle.
// Call Release when the navigator is no longer needed.
func New(oracle ai.RelevanceOracle, opts ...Option) (*Navigator, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}

	n := &Navigator{
		oracle:     oracle,
		poolSize:   DefaultPoolSize,
		nodeBudget: DefaultNodeBudget,
		policy:     DefaultPolicy(),
		logger:     slog.Default().With("component", "navigator"),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(n.poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle pool: %w", err)
	}
	n.pool = pool

	return n, nil
}

// Release stops the oracle worker pool.
// The navigator should not be used after calling Release.
func (n *Navigator) Release() {
	if n.pool != nil {
		n.pool.Release()
	}
}

// Search traverses tree looking for the sections that answer query.
//
// maxDepth and maxBranches must be positive; values above MaxDepthLimit and
// MaxBranchesLimit are clamped. Invalid input is reported before any oracle
// call is made. Oracle failures never fail the search: the affected node is
// treated as having no relevant children.
//
// If ctx is cancelled the traversal stops issuing oracle calls and returns
// the partial result together with the context error.
func (n *Navigator) Search(ctx context.Context, tree *core.DocumentTree, query string, maxDepth, maxBranches int) (*core.TraversalResult, error) {
	return n.SearchWithMonitor(ctx, tree, query, maxDepth, maxBranches, nil)
}

// SearchWithMonitor is Search with an additional monitor for this search only.
func (n *Navigator) SearchWithMonitor(ctx context.Context, tree *core.DocumentTree, query string, maxDepth, maxBranches int, monitor TraversalMonitor) (*core.TraversalResult, error) {
	if tree == nil || tree.Root == nil {
		return nil, ErrTreeRequired
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxDepth, maxDepth)
	}
	if maxBranches <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxBranches, maxBranches)
	}
	maxDepth = min(maxDepth, MaxDepthLimit)
	maxBranches = min(maxBranches, MaxBranchesLimit)

	var metricsMonitor TraversalMonitor
	if n.metrics != nil {
		metricsMonitor = n.metrics
	}

	t := &traversal{
		nav:         n,
		tree:        tree,
		query:       query,
		maxDepth:    maxDepth,
		maxBranches: maxBranches,
		visited:     make(map[any]struct{}),
		monitor:     combineMonitors(n.monitor, metricsMonitor, monitor),
		logger:      n.logger.With("document", tree.DocumentName),
	}
	t.stats.MaxDepth = maxDepth
	t.stats.MaxBranches = maxBranches
	t.stats.NodeBudget = n.nodeBudget

	start := time.Now()
	t.monitor.Start(tree, query)
	err := t.run(ctx)

	result := &core.TraversalResult{
		DocumentName: tree.DocumentName,
		Query:        query,
		Selected:     t.selected,
		Stats:        t.stats,
	}
	if result.Selected == nil {
		result.Selected = []core.SelectedNode{}
	}
	result.Stats.NodesSelected = len(result.Selected)

	elapsed := time.Since(start)
	t.monitor.Finish(result, elapsed)
	t.logger.Debug("search finished",
		"query", query,
		"visited", result.Stats.NodesVisited,
		"selected", result.Stats.NodesSelected,
		"oracleCalls", result.Stats.OracleCalls,
		"oracleFailures", result.Stats.OracleFailures,
		"truncated", result.Stats.Truncated,
		"elapsed", elapsed)

	return result, err
}

// evaluate runs one oracle call, bounded by the oracle timeout.
// A panicking oracle is reported as an error.
func (n *Navigator) evaluate(ctx context.Context, req ai.EvaluationRequest) (judgements []ai.Judgement, err error) {
	if n.oracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.oracleTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			judgements = nil
			err = fmt.Errorf("%w: %v", ErrOraclePanic, r)
		}
	}()
	return n.oracle.Evaluate(ctx, req)
}

// frontierEntry is a node waiting to be expanded or selected.
type frontierEntry struct {
	node       *core.DocumentNode
	depth      int
	confidence float64
	path       []string
}

// expansion holds one frontier entry's oracle call and its outcome.
type expansion struct {
	entry      frontierEntry
	terminal   bool
	candidates map[string]*core.DocumentNode
	request    ai.EvaluationRequest
	called     bool
	judgements []ai.Judgement
	err        error
	elapsed    time.Duration
}

// traversal is the private state of one search.
type traversal struct {
	nav         *Navigator
	tree        *core.DocumentTree
	query       string
	maxDepth    int
	maxBranches int
	visited     map[any]struct{}
	stats       core.Stats
	selected    []core.SelectedNode
	monitor     TraversalMonitor
	logger      *slog.Logger
}

// run walks the tree in level order. Each level is prepared sequentially,
// its oracle calls run in parallel, and the answers are merged in frontier
// order so the outcome does not depend on call completion order.
func (t *traversal) run(ctx context.Context) error {
	root := t.tree.Root
	t.visit(root, 0)

	frontier := []frontierEntry{{
		node:       root,
		depth:      0,
		confidence: 1.0,
		path:       []string{root.Title},
	}}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return t.cancel(err)
		}

		expansions := make([]*expansion, len(frontier))
		for i, entry := range frontier {
			expansions[i] = t.prepare(entry)
		}

		t.evaluateAll(ctx, expansions)
		if err := ctx.Err(); err != nil {
			return t.cancel(err)
		}

		var next []frontierEntry
		for _, e := range expansions {
			next = append(next, t.merge(e)...)
		}
		frontier = next
	}
	return nil
}

func (t *traversal) cancel(err error) error {
	t.stats.Cancelled = true
	t.logger.Info("search cancelled", "visited", t.stats.NodesVisited, "err", err)
	return err
}

// visitKey identifies a node in the visited set. Nodes sharing an ID share
// a key. Nodes the tree has no key for are tracked by identity.
func (t *traversal) visitKey(node *core.DocumentNode) any {
	if id := t.tree.IDOf(node); id != "" {
		return id
	}
	return node
}

func (t *traversal) visit(node *core.DocumentNode, depth int) {
	t.visited[t.visitKey(node)] = struct{}{}
	t.stats.NodesVisited++
	t.stats.VisitedTitles = append(t.stats.VisitedTitles, node.Title)
	t.stats.MaxDepthReached = max(t.stats.MaxDepthReached, depth)
	t.monitor.NodeVisited(node, depth)
}

// prepare decides whether entry is expanded and, if so, visits its children
// and builds the oracle request. Children beyond the node budget are not
// visited.
func (t *traversal) prepare(entry frontierEntry) *expansion {
	e := &expansion{entry: entry}
	if entry.depth >= t.maxDepth || entry.node.IsLeaf() {
		e.terminal = true
		return e
	}

	e.candidates = make(map[string]*core.DocumentNode)
	var candidates []ai.Candidate
	for i, child := range entry.node.Children {
		if child == nil {
			continue
		}
		if _, seen := t.visited[t.visitKey(child)]; seen {
			t.stats.CyclesSkipped++
			t.monitor.CycleSkipped(child)
			t.logger.Debug("skipping visited node", "id", child.ID, "parent", entry.node.ID)
			continue
		}
		if t.stats.NodesVisited >= t.nav.nodeBudget {
			t.exhaust()
			break
		}

		t.visit(child, entry.depth+1)
		id := t.tree.IDOf(child)
		if id == "" {
			id = "~" + strconv.Itoa(i)
		}
		e.candidates[id] = child
		candidates = append(candidates, ai.Candidate{
			ID:      id,
			Title:   child.Title,
			Summary: ai.TruncateSummary(child.Summary),
			PageRef: string(child.PageRef),
		})
	}

	if len(candidates) == 0 {
		e.terminal = true
		return e
	}

	e.request = ai.EvaluationRequest{
		Query: t.query,
		Parent: ai.Candidate{
			ID:      t.tree.IDOf(entry.node),
			Title:   entry.node.Title,
			Summary: entry.node.Summary,
			PageRef: string(entry.node.PageRef),
		},
		Path:        entry.path,
		Candidates:  candidates,
		MaxBranches: t.maxBranches,
	}
	return e
}

func (t *traversal) exhaust() {
	if t.stats.Truncated {
		return
	}
	t.stats.Truncated = true
	t.monitor.BudgetExhausted(t.stats)
	t.logger.Info("node budget exhausted, returning partial result",
		"budget", t.nav.nodeBudget,
		"query", t.query)
}

// evaluateAll submits the oracle calls of one level to the worker pool and
// waits for all of them. No call is submitted once ctx is done.
func (t *traversal) evaluateAll(ctx context.Context, expansions []*expansion) {
	var wg sync.WaitGroup
	for _, e := range expansions {
		if e.terminal {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		e.called = true
		t.stats.OracleCalls++
		wg.Add(1)
		err := t.nav.pool.Submit(func() {
			defer wg.Done()
			start := time.Now()
			e.judgements, e.err = t.nav.evaluate(ctx, e.request)
			e.elapsed = time.Since(start)
		})
		if err != nil {
			wg.Done()
			e.err = fmt.Errorf("failed to submit oracle call: %w", err)
		}
	}
	wg.Wait()
}

// merge applies the outcome of one expansion and returns the children to
// explore at the next level.
func (t *traversal) merge(e *expansion) []frontierEntry {
	if e.terminal {
		t.maybeSelect(e.entry)
		return nil
	}
	if !e.called {
		return nil
	}

	parent := e.entry.node
	var chosen []*core.DocumentNode
	var confidences []float64
	if e.err == nil {
		chosen, confidences, e.err = t.choose(e)
	}
	t.monitor.OracleCompleted(parent, e.elapsed, e.err)

	if e.err != nil {
		t.stats.OracleFailures++
		t.logger.Warn("oracle call failed, treating node as dead end",
			"id", parent.ID,
			"title", parent.Title,
			"err", e.err)
		t.maybeSelect(e.entry)
		return nil
	}
	if len(chosen) == 0 {
		t.maybeSelect(e.entry)
		return nil
	}

	t.monitor.ChildrenSelected(parent, chosen)
	next := make([]frontierEntry, len(chosen))
	for i, child := range chosen {
		next[i] = frontierEntry{
			node:       child,
			depth:      e.entry.depth + 1,
			confidence: confidences[i],
			path:       append(slices.Clip(e.entry.path), child.Title),
		}
	}
	return next
}

// choose filters the oracle's judgements down to the children to explore.
// Unknown and repeated IDs are dropped; an answer naming only unknown IDs is
// a malformed response.
func (t *traversal) choose(e *expansion) ([]*core.DocumentNode, []float64, error) {
	policy := t.nav.policy
	seen := make(map[string]struct{}, len(e.judgements))
	hallucinated := 0

	var chosen []*core.DocumentNode
	var confidences []float64
	top := 0.0
	for _, j := range e.judgements {
		child, ok := e.candidates[j.ChildID]
		if !ok {
			hallucinated++
			t.stats.HallucinatedChildren++
			t.monitor.HallucinatedChild(e.entry.node, j.ChildID)
			continue
		}
		if _, dup := seen[j.ChildID]; dup {
			continue
		}
		seen[j.ChildID] = struct{}{}

		confidence := clampConfidence(j.Confidence)
		if confidence < policy.ExploreThreshold {
			continue
		}
		chosen = append(chosen, child)
		confidences = append(confidences, confidence)
		top = max(top, confidence)
	}

	if hallucinated > 0 && len(seen) == 0 {
		return nil, nil, fmt.Errorf("%w: %d unknown ids", ErrMalformedResponse, hallucinated)
	}

	limit := policy.BranchLimit(top, t.maxBranches)
	if len(chosen) > limit {
		chosen = chosen[:limit]
		confidences = confidences[:limit]
	}
	return chosen, confidences, nil
}

// maybeSelect adds a node that will not be expanded further to the result
// when its confidence is high enough. The root is only selected when it has
// no children.
func (t *traversal) maybeSelect(entry frontierEntry) {
	if entry.node == t.tree.Root && !entry.node.IsLeaf() {
		return
	}
	if entry.confidence < t.nav.policy.SelectThreshold {
		return
	}

	selected := core.SelectedNode{
		ID:         t.tree.IDOf(entry.node),
		Node:       entry.node,
		Path:       entry.path,
		Depth:      entry.depth,
		Confidence: entry.confidence,
	}
	t.selected = append(t.selected, selected)
	t.monitor.NodeSelected(selected)
	t.logger.Debug("selected node",
		"id", entry.node.ID,
		"title", entry.node.Title,
		"depth", entry.depth,
		"confidence", entry.confidence)
}
