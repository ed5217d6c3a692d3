package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrKOutOfRange is returned when a search asks for fewer than 1 or more than Size() neighbours.
	ErrKOutOfRange = errors.New("k out of range")
	// ErrArtifactMismatch is returned when an index blob and its id sidecar are missing,
	// unreadable, or do not belong together.
	ErrArtifactMismatch = errors.New("index artifacts do not match")
	// ErrDuplicateID is returned when an id is added twice.
	ErrDuplicateID = errors.New("duplicate id")
)
