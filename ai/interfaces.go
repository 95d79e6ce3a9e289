package ai

import "context"

// RelevanceOracle judges which children of a document node are relevant
// to a query. In production this is a generative language model.
//
// Implementations must be thread-safe for concurrent use: the navigator
// evaluates sibling nodes in parallel.
type RelevanceOracle interface {
	// Evaluate returns an ordered subset of req.Candidates, most promising
	// first, with at most req.MaxBranches entries. An empty slice means no
	// candidate is relevant.
	//
	// Callers must treat the output as untrusted: it may reference IDs that
	// are not in the candidate set, repeat IDs, or carry out-of-range
	// confidence values.
	Evaluate(ctx context.Context, req EvaluationRequest) ([]Judgement, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Oracle returns the relevance oracle.
	// The returned oracle is safe for concurrent use.
	Oracle() RelevanceOracle

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
