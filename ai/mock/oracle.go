package mock

import (
	"context"
	"sync"

	"github.com/poiesic/treerag/ai"
)

// MockOracle is a test double for ai.RelevanceOracle.
// It allows custom behavior injection via function fields and is safe
// for concurrent use.
type MockOracle struct {
	// EvaluateFunc is called by Evaluate if set.
	// If nil, the first MaxBranches candidates are returned with confidence 1.0.
	EvaluateFunc func(ctx context.Context, req ai.EvaluationRequest) ([]ai.Judgement, error)

	mu       sync.Mutex
	requests []ai.EvaluationRequest
}

// NewMockOracle creates a mock oracle with default behavior.
// Note: Returns concrete type to allow test assertions via CallCount() and Requests().
func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

// WithEvaluateFunc sets custom behavior and returns the oracle for chaining.
func (m *MockOracle) WithEvaluateFunc(fn func(ctx context.Context, req ai.EvaluationRequest) ([]ai.Judgement, error)) *MockOracle {
	m.EvaluateFunc = fn
	return m
}

// Evaluate records the request and returns a judgement.
func (m *MockOracle) Evaluate(ctx context.Context, req ai.EvaluationRequest) ([]ai.Judgement, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.EvaluateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	limit := min(req.MaxBranches, len(req.Candidates))
	judgements := make([]ai.Judgement, 0, max(limit, 0))
	for i := 0; i < limit; i++ {
		judgements = append(judgements, ai.Judgement{
			ChildID:    req.Candidates[i].ID,
			Confidence: 1.0,
		})
	}
	return judgements, nil
}

// CallCount returns the number of times Evaluate was called.
func (m *MockOracle) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received, in arrival order.
func (m *MockOracle) Requests() []ai.EvaluationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.EvaluationRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset clears the recorded requests and custom functions.
func (m *MockOracle) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.EvaluateFunc = nil
}

// SelectByID returns an EvaluateFunc that picks candidates whose ID has an
// entry in scores, in candidate order, with the mapped confidence.
func SelectByID(scores map[string]float64) func(context.Context, ai.EvaluationRequest) ([]ai.Judgement, error) {
	return func(_ context.Context, req ai.EvaluationRequest) ([]ai.Judgement, error) {
		var judgements []ai.Judgement
		for _, c := range req.Candidates {
			if conf, ok := scores[c.ID]; ok {
				judgements = append(judgements, ai.Judgement{ChildID: c.ID, Confidence: conf})
			}
		}
		return judgements, nil
	}
}
