package cache

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Key identifies one memoized search.
// Generation is the document generation observed before the tree was
// loaded; see ResultCache.Generation.
type Key struct {
	DocumentID  string
	Fingerprint uint64
	MaxDepth    int
	MaxBranches int
	Generation  uint64
}

// NewKey builds the key for a search of documentID.
func NewKey(documentID, query string, maxDepth, maxBranches int) Key {
	return Key{
		DocumentID:  documentID,
		Fingerprint: Fingerprint(query),
		MaxDepth:    maxDepth,
		MaxBranches: maxBranches,
	}
}

// String renders the key in the form used inside the cache.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(k.Generation, 10))
	b.WriteByte('/')
	b.WriteString(k.DocumentID)
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(k.Fingerprint, 16))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.MaxDepth))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.MaxBranches))
	return b.String()
}

// NormalizeQuery trims, lowercases and collapses whitespace so that trivially
// different spellings of a question share a cache entry.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Fingerprint hashes the normalized query using 64-bit BLAKE2b.
func Fingerprint(query string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(NormalizeQuery(query)))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}
