// Package importer bulk-loads persisted document trees from JSON files.
//
// Files are parsed and stored concurrently on an ants worker pool. Storing
// is retried with exponential backoff, progress is written to a
// caller-supplied writer, and a bad file is reported in the Summary
// without aborting the rest of the run.
package importer
