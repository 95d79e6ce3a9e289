package lexical

import "strings"

// Stop words ignored on both sides of a comparison
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "which": true, "where": true,
	"when": true, "who": true, "does": true, "or": true, "can": true, "i": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation,
// removes stop words and folds simple plurals.
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned == "" || stopWords[cleaned] {
			continue
		}
		filtered = append(filtered, stem(cleaned))
	}

	return filtered
}

// stem strips a trailing plural "s" from words long enough to carry one.
func stem(word string) string {
	if len(word) <= 3 || !strings.HasSuffix(word, "s") {
		return word
	}
	if strings.HasSuffix(word, "ss") || strings.HasSuffix(word, "is") || strings.HasSuffix(word, "us") {
		return word
	}
	return word[:len(word)-1]
}

// wordSet builds a membership set over the filtered tokens of text.
func wordSet(text string) map[string]bool {
	words := tokenizeAndFilter(text)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// overlap returns the fraction of distinct query words present in set.
func overlap(queryWords []string, set map[string]bool) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(queryWords))
	total, hits := 0, 0
	for _, q := range queryWords {
		if seen[q] {
			continue
		}
		seen[q] = true
		total++
		if set[q] {
			hits++
		}
	}
	return float64(hits) / float64(total)
}
