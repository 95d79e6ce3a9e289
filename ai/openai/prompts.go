package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/treerag/ai"
)

const selectionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "selected": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "reason": {"type": "string"}
        },
        "required": ["id", "confidence"],
        "additionalProperties": false
      }
    }
  },
  "required": ["selected"],
  "additionalProperties": false
}`

const selectionSystemPrompt = `You are a document navigation expert. You are exploring the table of contents
of a long document, one level at a time, looking for the sections that answer a user's question.

You will be given the path to the current section, the candidate subsections beneath it, and the question.
Choose the subsections most likely to contain the answer, directly or in their own subsections.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Use only ids from the candidate list. Never invent ids.
- Order the selection from most to least promising.
- Confidence is a number from 0.0 (unrelated) to 1.0 (certainly contains the answer).
- Select at most the requested number of subsections. Fewer is fine; none is fine.
- If no candidate is relevant, return "selected": [].
- Keep each reason to one short sentence.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Question: "What are the hazard analysis steps?"
Candidates: [{"id":"1","title":"Introduction","summary":"background"},{"id":"2","title":"Risk Management","summary":"hazard analysis procedures"}]
Output:
{
  "selected": [
    {"id":"2","confidence":0.92,"reason":"Covers hazard analysis procedures."}
  ]
}`

// promptCandidate is the JSON shape of a candidate shown to the model.
type promptCandidate struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	PageRef string `json:"page_ref,omitempty"`
}

// buildSystemPrompt creates the system prompt with the response schema embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(selectionSystemPrompt, selectionResponseSchema)
}

// buildUserPrompt renders the evaluation request for the model.
func buildUserPrompt(req ai.EvaluationRequest) (string, error) {
	candidates := make([]promptCandidate, len(req.Candidates))
	for i, c := range req.Candidates {
		candidates[i] = promptCandidate{
			ID:      c.ID,
			Title:   c.Title,
			Summary: ai.TruncateSummary(c.Summary),
			PageRef: c.PageRef,
		}
	}
	listing, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", err
	}

	path := strings.Join(req.Path, " > ")
	if path == "" {
		path = req.Parent.Title
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Current section\n%s\n", path)
	if req.Parent.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", ai.TruncateSummary(req.Parent.Summary))
	}
	fmt.Fprintf(&b, "\n### Candidate subsections\n%s\n", listing)
	fmt.Fprintf(&b, "\n### Question\n%s\n", req.Query)
	fmt.Fprintf(&b, "\nSelect at most %d subsections.", req.MaxBranches)
	return b.String(), nil
}
