package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/treerag/ai"
	"github.com/poiesic/treerag/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records traversals as Prometheus metrics.
// It implements TraversalMonitor and is safe to share between searches.
type Metrics struct {
	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	nodesVisited   prometheus.Counter
	nodesSelected  prometheus.Histogram
	depthReached   prometheus.Histogram
	oracleCalls    *prometheus.CounterVec
	oracleLatency  prometheus.Histogram
	cyclesSkipped  prometheus.Counter
	hallucinations prometheus.Counter
}

var _ TraversalMonitor = (*Metrics)(nil)

// NewMetrics creates the navigator metrics and registers them with reg.
// A nil reg leaves the collectors unregistered. Collectors already
// registered with reg by an earlier call are reused, so several navigators
// can report into one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treerag",
			Subsystem: "navigator",
			Name:      "searches_total",
			Help:      "Completed searches by outcome (complete, truncated, cancelled)",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treerag",
			Subsystem: "navigator",
			Name:      "search_duration_seconds",
			Help:      "Wall time of a search in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		nodesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treerag",
			Subsystem: "navigator",
			Name:      "nodes_visited_total",
			Help:      "Document nodes visited across all searches",
		}),
		nodesSelected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treerag",
			Subsystem: "navigator",
			Name:      "nodes_selected",
			Help:      "Nodes selected per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 50},
		}),
		depthReached: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treerag",
			Subsystem: "navigator",
			Name:      "depth_reached",
			Help:      "Deepest level visited per search",
			Buckets:   prometheus.LinearBuckets(0, 1, MaxDepthLimit+1),
		}),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treerag",
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Oracle calls by status (success, error, timeout, malformed)",
		}, []string{"status"}),
		oracleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treerag",
			Subsystem: "oracle",
			Name:      "latency_seconds",
			Help:      "Oracle call latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		cyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treerag",
			Subsystem: "navigator",
			Name:      "cycles_skipped_total",
			Help:      "Already visited nodes skipped during traversal",
		}),
		hallucinations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treerag",
			Subsystem: "oracle",
			Name:      "hallucinated_children_total",
			Help:      "Judgements naming a child that was not a candidate",
		}),
	}

	var err error
	if m.searches, err = register(reg, m.searches); err != nil {
		return nil, err
	}
	if m.searchDuration, err = register(reg, m.searchDuration); err != nil {
		return nil, err
	}
	if m.nodesVisited, err = register(reg, m.nodesVisited); err != nil {
		return nil, err
	}
	if m.nodesSelected, err = register(reg, m.nodesSelected); err != nil {
		return nil, err
	}
	if m.depthReached, err = register(reg, m.depthReached); err != nil {
		return nil, err
	}
	if m.oracleCalls, err = register(reg, m.oracleCalls); err != nil {
		return nil, err
	}
	if m.oracleLatency, err = register(reg, m.oracleLatency); err != nil {
		return nil, err
	}
	if m.cyclesSkipped, err = register(reg, m.cyclesSkipped); err != nil {
		return nil, err
	}
	if m.hallucinations, err = register(reg, m.hallucinations); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg. If an equal collector is already registered the
// existing one is returned instead.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if reg == nil {
		return c, nil
	}
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("failed to register navigator metrics: %w", err)
}

func (m *Metrics) Start(_ *core.DocumentTree, _ string) {}

func (m *Metrics) NodeVisited(_ *core.DocumentNode, _ int) {
	m.nodesVisited.Inc()
}

func (m *Metrics) CycleSkipped(_ *core.DocumentNode) {
	m.cyclesSkipped.Inc()
}

func (m *Metrics) OracleCompleted(_ *core.DocumentNode, elapsed time.Duration, err error) {
	m.oracleLatency.Observe(elapsed.Seconds())
	m.oracleCalls.WithLabelValues(oracleStatus(err)).Inc()
}

func (m *Metrics) HallucinatedChild(_ *core.DocumentNode, _ string) {
	m.hallucinations.Inc()
}

func (m *Metrics) ChildrenSelected(_ *core.DocumentNode, _ []*core.DocumentNode) {}

func (m *Metrics) NodeSelected(_ core.SelectedNode) {}

func (m *Metrics) BudgetExhausted(_ core.Stats) {}

func (m *Metrics) Finish(result *core.TraversalResult, elapsed time.Duration) {
	outcome := "complete"
	switch {
	case result.Stats.Cancelled:
		outcome = "cancelled"
	case result.Stats.Truncated:
		outcome = "truncated"
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.searchDuration.Observe(elapsed.Seconds())
	m.nodesSelected.Observe(float64(result.Stats.NodesSelected))
	m.depthReached.Observe(float64(result.Stats.MaxDepthReached))
}

// oracleStatus classifies an oracle call outcome for the status label.
func oracleStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse), errors.Is(err, ai.ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
