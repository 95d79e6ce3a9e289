// Package cache memoizes navigator results.
//
// Entries are keyed by (document, query fingerprint, maxDepth, maxBranches).
// The fingerprint is a 64-bit BLAKE2b hash of the query after it has been
// trimmed, lowercased and had its whitespace collapsed, so "What is X?" and
// "  what is x? " share an entry. Storage is a bounded ristretto cache with
// a time-to-live per entry.
//
// The cache belongs to the caller, not to the navigator: wrap a navigator
// in a CachedSearcher, or use ResultCache directly. Invalidate a document
// when its tree is replaced.
package cache
