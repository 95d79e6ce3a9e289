package ai

// Candidate is a child node reduced to what the oracle needs to judge it.
// Full section content is never included.
type Candidate struct {
	ID      string
	Title   string
	Summary string
	PageRef string
}

// EvaluationRequest asks an oracle to choose among the children of Parent.
type EvaluationRequest struct {
	Query       string
	Parent      Candidate
	Path        []string // Titles from the root down to and including Parent
	Candidates  []Candidate
	MaxBranches int
}

// Judgement is the oracle's verdict on one candidate.
type Judgement struct {
	// ChildID is the Candidate.ID being judged.
	ChildID string

	// Confidence in [0, 1] that the candidate or its descendants answer the query.
	Confidence float64

	// Reason is an optional short explanation.
	Reason string
}

// MaxSummaryRunes bounds the summary length sent to an oracle per candidate.
const MaxSummaryRunes = 200

// TruncateSummary shortens s to MaxSummaryRunes runes.
func TruncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxSummaryRunes {
		return s
	}
	return string(runes[:MaxSummaryRunes])
}
