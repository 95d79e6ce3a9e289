package importer

import "errors"

var (
	// ErrNoFiles is returned when the given paths contain no tree files.
	ErrNoFiles = errors.New("no tree files found")

	// ErrSinkRequired is returned when an importer is created without a sink.
	ErrSinkRequired = errors.New("import sink is required")
)
