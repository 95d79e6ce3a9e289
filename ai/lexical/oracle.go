package lexical

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/treerag/ai"
)

// Oracle is an offline ai.RelevanceOracle that scores candidates by word
// overlap between the query and each candidate's title and summary.
// It is safe for concurrent use.
type Oracle struct {
	logger *slog.Logger
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "lexical-oracle")
	}
}

// NewOracle creates a lexical oracle.
func NewOracle(opts ...Option) ai.RelevanceOracle {
	return newOracle(opts...)
}

func newOracle(opts ...Option) *Oracle {
	o := &Oracle{logger: slog.Default().With("component", "lexical-oracle")}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate returns the candidates sharing at least one word with the query,
// best first. Ties keep candidate order.
func (o *Oracle) Evaluate(ctx context.Context, req ai.EvaluationRequest) ([]ai.Judgement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryWords := tokenizeAndFilter(req.Query)
	judgements := make([]ai.Judgement, 0, len(req.Candidates))
	if len(queryWords) == 0 || req.MaxBranches <= 0 {
		return judgements, nil
	}

	for _, c := range req.Candidates {
		score := overlap(queryWords, wordSet(c.Title+" "+ai.TruncateSummary(c.Summary)))
		if score == 0 {
			continue
		}
		judgements = append(judgements, ai.Judgement{
			ChildID:    c.ID,
			Confidence: score,
			Reason:     "matched query terms in " + c.Title,
		})
	}

	slices.SortStableFunc(judgements, func(a, b ai.Judgement) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	if len(judgements) > req.MaxBranches {
		judgements = judgements[:req.MaxBranches]
	}

	o.logger.Debug("scored candidates",
		"parent", req.Parent.ID,
		"candidates", len(req.Candidates),
		"selected", len(judgements))
	return judgements, nil
}
