// Package vector provides an exact nearest-neighbour index over user feature vectors.
package vector

import (
	"context"

	"github.com/google/uuid"
)

// VectorIndex defines vector storage and nearest-neighbour search. Positions are assigned in
// insertion order and id i always belongs to vector i.
type VectorIndex interface {
	Add(ctx context.Context, ids []int64, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Vector(id int64) ([]float32, bool)
	Type() string
	Save(indexPath, idsPath string) error
	Load(indexPath, idsPath string) error
	RunID() uuid.UUID
	SetRunID(id uuid.UUID)
	Size() int
	Dimensions() int
	Close() error
}

// VectorResult is a single search hit.
type VectorResult struct {
	ID       int64
	Distance float64 // Euclidean
	Position int     // insertion position
}
