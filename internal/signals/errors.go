package signals

import "errors"

// Sentinel errors for input loading. Callers match them with errors.Is.
var (
	// ErrInputMissing means a required input file is absent or unreadable.
	ErrInputMissing = errors.New("input missing")
	// ErrInputMalformed means an input file could not be decoded as a whole.
	ErrInputMalformed = errors.New("input malformed")
)
