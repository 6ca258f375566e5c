package storage

import "errors"

var (
	// ErrNotFound is returned when an identifier does not resolve to any
	// asset or thumbnail. Callers turn it into an absent result; it is
	// never an internal failure.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for disallowed file extensions and for
	// sub-paths that try to escape a model directory. Always raised before
	// any filesystem mutation.
	ErrInvalidInput = errors.New("invalid input")
)
