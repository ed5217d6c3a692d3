package indexer

import "errors"

// ErrRunInProgress is returned when a trigger arrives while another run holds the pipeline.
var ErrRunInProgress = errors.New("a run is already in progress")
