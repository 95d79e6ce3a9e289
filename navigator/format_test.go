package navigator

import (
	"strings"
	"testing"

	"github.com/poiesic/treerag/core"
	"github.com/stretchr/testify/assert"
)

func TestCitation(t *testing.T) {
	assert.Equal(t, "Safety Manual, p.12", Citation("Safety Manual", &core.DocumentNode{PageRef: "12"}))
	assert.Equal(t, "Safety Manual, p.12-15", Citation("Safety Manual", &core.DocumentNode{PageRef: "12-15"}))
	assert.Equal(t, "Safety Manual", Citation("Safety Manual", &core.DocumentNode{}))
	assert.Equal(t, "Safety Manual", Citation("Safety Manual", nil))
}

func TestFormatContext(t *testing.T) {
	node := &core.DocumentNode{
		ID:      "2",
		Title:   "Risk Management",
		Summary: "hazard analysis procedures",
		Content: "Step 1: identify hazards.",
		PageRef: "12",
	}
	result := &core.TraversalResult{
		DocumentName: "Safety Manual",
		Selected: []core.SelectedNode{{
			Node:  node,
			Path:  []string{"Safety Manual", "Risk Management"},
			Depth: 1,
		}},
	}

	out := FormatContext(result)
	assert.Contains(t, out, "### Safety Manual (1 relevant sections)")
	assert.Contains(t, out, "**[1] Safety Manual > Risk Management**")
	assert.Contains(t, out, "- Source: Safety Manual, p.12")
	assert.Contains(t, out, "- Depth: 1")
	assert.Contains(t, out, "- Summary: hazard analysis procedures")
	assert.Contains(t, out, "Step 1: identify hazards.")
}

func TestFormatContext_Empty(t *testing.T) {
	assert.Equal(t, "No relevant sections found in Manual.",
		FormatContext(&core.TraversalResult{DocumentName: "Manual"}))
}

func budgetResult() *core.TraversalResult {
	section := func(id, title string, confidence float64, words int) core.SelectedNode {
		return core.SelectedNode{
			ID:         id,
			Node:       &core.DocumentNode{ID: id, Title: title, PageRef: core.PageRef(id), Content: strings.Repeat("hazard ", words)},
			Path:       []string{"Manual", title},
			Depth:      1,
			Confidence: confidence,
		}
	}
	return &core.TraversalResult{
		DocumentName: "Manual",
		Selected: []core.SelectedNode{
			section("3", "Appendix", 0.55, 40),
			section("1", "Hazards", 0.95, 40),
			section("2", "Controls", 0.8, 40),
		},
	}
}

// sectionCost is the estimated cost of rendering sel whole at position n.
func sectionCost(sel core.SelectedNode, n int) int {
	return EstimateTokens(sectionHeader("Manual", n, sel)) + EstimateTokens(sectionText(sel.Node.Content))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcd"))
	assert.Equal(t, 1, EstimateTokens("äöü"))
}

func TestBuildContext_Unlimited(t *testing.T) {
	out, report := BuildContext(budgetResult())

	assert.Equal(t, []string{"1", "2", "3"}, report.Included, "most confident first")
	assert.Empty(t, report.Truncated)
	assert.Empty(t, report.Dropped)
	assert.Contains(t, out, "**[1] Manual > Hazards**")
	assert.Contains(t, out, "**[3] Manual > Appendix**")
	assert.NotContains(t, out, "omitted")
}

func TestBuildContext_Budget(t *testing.T) {
	result := budgetResult()
	hazards, controls := result.Selected[1], result.Selected[2]
	twoWhole := sectionCost(hazards, 1) + sectionCost(controls, 2)
	controlsHeader := EstimateTokens(sectionHeader("Manual", 2, controls))

	tests := []struct {
		name          string
		budget        int
		wantIncluded  []string
		wantTruncated string
		wantDropped   []string
	}{
		{
			name:         "exact fit drops the rest",
			budget:       twoWhole,
			wantIncluded: []string{"1", "2"},
			wantDropped:  []string{"3"},
		},
		{
			name:          "one token short truncates the second",
			budget:        twoWhole - 1,
			wantIncluded:  []string{"1", "2"},
			wantTruncated: "2",
			wantDropped:   []string{"3"},
		},
		{
			name:         "no room after a header drops the section",
			budget:       sectionCost(hazards, 1) + controlsHeader,
			wantIncluded: []string{"1"},
			wantDropped:  []string{"2", "3"},
		},
		{
			name:          "tiny budget keeps the best header",
			budget:        1,
			wantIncluded:  []string{"1"},
			wantTruncated: "1",
			wantDropped:   []string{"2", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, report := BuildContext(result, WithTokenBudget(tt.budget))

			assert.Equal(t, tt.wantIncluded, report.Included)
			assert.Equal(t, tt.wantTruncated, report.Truncated)
			assert.Equal(t, tt.wantDropped, report.Dropped)
			if tt.budget > 1 {
				assert.LessOrEqual(t, report.Tokens, tt.budget)
			}
			if tt.wantTruncated != "" && tt.budget > 1 {
				assert.Contains(t, out, "[truncated]")
			}
			assert.Contains(t, out, "omitted to fit the context budget")
			assert.Equal(t, out, FormatContext(result, WithTokenBudget(tt.budget)))
		})
	}
}
