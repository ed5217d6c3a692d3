package search

import "errors"

var (
	// ErrUnknownUser is returned when a user id is not in the similarity index.
	ErrUnknownUser = errors.New("unknown user")
	// ErrNoIndex is returned by neighbour lookups when no similarity index is loaded.
	ErrNoIndex = errors.New("similarity index not loaded")
)
