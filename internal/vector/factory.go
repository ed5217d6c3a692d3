package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeFlat uses exact brute-force Euclidean search.
	IndexTypeFlat IndexType = "flat"
)

// NewIndex creates a vector index of the specified type.
// Supported types: "flat" (default).
func NewIndex(indexType string, dimensions int) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		return NewFlatIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat)", indexType)
	}
}
