package badger

// Key prefixes for different data types
const (
	treePrefix     = "doctree:"
	treeInfoPrefix = "treeinfo:"
)

// makeTreeKey generates the key holding a tree's persisted JSON.
func makeTreeKey(name string) []byte {
	return []byte(treePrefix + name)
}

// makeTreeInfoKey generates the key holding a tree's metadata.
func makeTreeInfoKey(name string) []byte {
	return []byte(treeInfoPrefix + name)
}
