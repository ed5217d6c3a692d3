package ranking

import "errors"

// ErrInvalidWeights is returned when expertise weights are negative or do not sum to 1.
var ErrInvalidWeights = errors.New("invalid expertise weights")
