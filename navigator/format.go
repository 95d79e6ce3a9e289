package navigator

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/treerag/core"
)

// DefaultContextTokens is the context budget used by the CLI.
const DefaultContextTokens = 4000

// charsPerToken is the rough ratio used by EstimateTokens.
const charsPerToken = 3

const truncationMarker = " [truncated]"

// Citation formats a source reference such as "Safety Manual, p.12".
// Without a page reference only the document name is returned.
func Citation(documentName string, node *core.DocumentNode) string {
	if node == nil || node.PageRef == "" {
		return documentName
	}
	return fmt.Sprintf("%s, p.%s", documentName, node.PageRef)
}

// EstimateTokens approximates the token count of text at three characters
// per token, rounded up.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + charsPerToken - 1) / charsPerToken
}

// ContextOption configures FormatContext and BuildContext.
type ContextOption func(*contextOptions)

type contextOptions struct {
	maxTokens int
}

// WithTokenBudget limits the section blocks to roughly maxTokens tokens.
// Zero or less means no limit.
func WithTokenBudget(maxTokens int) ContextOption {
	return func(o *contextOptions) {
		o.maxTokens = maxTokens
	}
}

// ContextReport describes what BuildContext kept.
type ContextReport struct {
	Included  []string // Section IDs rendered, in output order
	Truncated string   // ID of the section whose text was cut, if any
	Dropped   []string // Section IDs left out to fit the budget
	Tokens    int      // Estimated tokens of the rendered sections
}

// FormatContext renders the selected sections of result as a markdown
// block for an answer-generation prompt. See BuildContext.
func FormatContext(result *core.TraversalResult, opts ...ContextOption) string {
	text, _ := BuildContext(result, opts...)
	return text
}

// BuildContext renders the selected sections of result, most confident
// first. Each section carries its path, citation, depth, summary and full
// text when present.
//
// With a token budget, whole sections are added while they fit. The first
// section that does not fit has its text cut to the remaining budget and
// every later section is dropped. The most confident section is always
// rendered, if need be without its text.
func BuildContext(result *core.TraversalResult, opts ...ContextOption) (string, ContextReport) {
	var report ContextReport
	if result == nil || len(result.Selected) == 0 {
		name := ""
		if result != nil {
			name = result.DocumentName
		}
		return fmt.Sprintf("No relevant sections found in %s.", name), report
	}

	options := &contextOptions{}
	for _, opt := range opts {
		opt(options)
	}

	sections := make([]core.SelectedNode, 0, len(result.Selected))
	for _, sel := range result.Selected {
		if sel.Node != nil {
			sections = append(sections, sel)
		}
	}
	slices.SortStableFunc(sections, func(a, b core.SelectedNode) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	var body strings.Builder
	for i, sel := range sections {
		id := sectionID(sel)
		header := sectionHeader(result.DocumentName, len(report.Included)+1, sel)
		text := sectionText(sel.Node.Content)
		cost := EstimateTokens(header) + EstimateTokens(text)

		if options.maxTokens <= 0 || report.Tokens+cost <= options.maxTokens {
			body.WriteString(header)
			body.WriteString(text)
			report.Tokens += cost
			report.Included = append(report.Included, id)
			continue
		}

		remaining := options.maxTokens - report.Tokens - EstimateTokens(header)
		if remaining > 0 || len(report.Included) == 0 {
			body.WriteString(header)
			report.Tokens += EstimateTokens(header)
			if remaining > 0 && text != "" {
				cut := truncateText(sel.Node.Content, remaining)
				body.WriteString(cut)
				report.Tokens += EstimateTokens(cut)
			}
			report.Included = append(report.Included, id)
			report.Truncated = id
		}
		for _, rest := range sections[i+1:] {
			report.Dropped = append(report.Dropped, sectionID(rest))
		}
		if report.Truncated != id {
			report.Dropped = append([]string{id}, report.Dropped...)
		}
		break
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s (%d relevant sections)\n", result.DocumentName, len(report.Included))
	b.WriteString(body.String())
	if len(report.Dropped) > 0 {
		fmt.Fprintf(&b, "\n_%d less relevant sections omitted to fit the context budget._\n", len(report.Dropped))
	}
	return b.String(), report
}

func sectionID(sel core.SelectedNode) string {
	if sel.ID != "" {
		return sel.ID
	}
	return sel.Node.ID
}

func sectionHeader(documentName string, n int, sel core.SelectedNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n**[%d] %s**\n", n, strings.Join(sel.Path, " > "))
	fmt.Fprintf(&b, "- Source: %s\n", Citation(documentName, sel.Node))
	fmt.Fprintf(&b, "- Depth: %d\n", sel.Depth)
	if sel.Node.Summary != "" {
		fmt.Fprintf(&b, "- Summary: %s\n", sel.Node.Summary)
	}
	return b.String()
}

func sectionText(content string) string {
	if content == "" {
		return ""
	}
	return "- Text:\n" + content + "\n"
}

// truncateText renders content cut to about maxTokens tokens, marker included.
func truncateText(content string, maxTokens int) string {
	prefix := "- Text:\n"
	budget := maxTokens*charsPerToken - utf8.RuneCountInString(prefix+truncationMarker+"\n")
	if budget <= 0 {
		return ""
	}
	runes := []rune(content)
	if len(runes) > budget {
		runes = runes[:budget]
	}
	return prefix + strings.TrimRightFunc(string(runes), unicode.IsSpace) + truncationMarker + "\n"
}
