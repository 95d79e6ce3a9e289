// Package lexical provides a relevance oracle that needs no language model.
//
// Candidates are scored by the fraction of the query's content words found
// in their title and summary. Stop words are ignored and simple plurals are
// folded. The oracle is deterministic and suited to offline use, demos and
// tests where a model server is not available.
package lexical
