package placerepo

import "errors"

var (
	// ErrNotFound indicates the requested place does not exist.
	ErrNotFound = errors.New("place not found")
)
