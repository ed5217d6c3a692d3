package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hyperjump/kenja/internal/models"
)

// FlatIndex is an in-memory vector index using exact brute-force Euclidean search.
type FlatIndex struct {
	dimensions int
	runID      uuid.UUID
	ids        []int64
	vectors    [][]float32
	positions  map[int64]int
	mu         sync.RWMutex
}

// NewFlatIndex creates an empty flat index with the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{
		dimensions: dimensions,
		ids:        make([]int64, 0),
		vectors:    make([][]float32, 0),
		positions:  make(map[int64]int),
	}, nil
}

// Build creates a flat index holding vectors in the given order.
func Build(dimensions int, vectors []models.UserVector) (*FlatIndex, error) {
	idx, err := NewFlatIndex(dimensions)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(vectors))
	vecs := make([][]float32, len(vectors))
	for i, v := range vectors {
		ids[i] = v.UserID
		vecs[i] = v.Features
	}
	if err := idx.Add(context.Background(), ids, vecs); err != nil {
		return nil, err
	}
	return idx, nil
}

// Type returns the index type identifier.
func (m *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Add appends vectors with the given ids. Either every vector is added or none is.
func (m *FlatIndex) Add(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]struct{}, len(ids))
	for i, id := range ids {
		if len(vectors[i]) != m.dimensions {
			return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vectors[i]), m.dimensions)
		}
		if _, ok := m.positions[id]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	for i, id := range ids {
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.positions[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns the k vectors nearest to query by Euclidean distance, nearest first.
// Equal distances keep insertion order.
func (m *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index expects %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k < 1 || k > len(m.ids) {
		return nil, fmt.Errorf("%w: k=%d, size=%d", ErrKOutOfRange, k, len(m.ids))
	}
	results := make([]*VectorResult, len(m.ids))
	for i, vec := range m.vectors {
		results[i] = &VectorResult{ID: m.ids[i], Distance: Distance(query, vec), Position: i}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	return results[:k], nil
}

// Vector returns a copy of the stored vector for id.
func (m *FlatIndex) Vector(id int64) ([]float32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[id]
	if !ok {
		return nil, false
	}
	out := make([]float32, m.dimensions)
	copy(out, m.vectors[pos])
	return out, true
}

// RunID returns the run id stamped into saved artifacts.
func (m *FlatIndex) RunID() uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID
}

// SetRunID sets the run id stamped into saved artifacts.
func (m *FlatIndex) SetRunID(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = id
}

// Save writes the index blob to indexPath and the id sidecar to idsPath. A run id is
// generated if none is set.
func (m *FlatIndex) Save(indexPath, idsPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runID == uuid.Nil {
		m.runID = uuid.New()
	}
	a := &artifact{
		runID:      m.runID,
		dimensions: m.dimensions,
		ids:        m.ids,
		vectors:    m.vectors,
	}
	return a.save(indexPath, idsPath)
}

// Load replaces the contents of the index with the artifacts at indexPath and idsPath.
// The artifacts must agree with each other and with the index dimension.
func (m *FlatIndex) Load(indexPath, idsPath string) error {
	a, err := loadArtifact(indexPath, idsPath)
	if err != nil {
		return err
	}
	if a.dimensions != m.dimensions {
		return fmt.Errorf("%w: file has %d, index expects %d", ErrDimensionMismatch, a.dimensions, m.dimensions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.install(a)
	return nil
}

// LoadFlat reads a flat index from disk, taking the dimension from the artifacts.
func LoadFlat(indexPath, idsPath string) (*FlatIndex, error) {
	a, err := loadArtifact(indexPath, idsPath)
	if err != nil {
		return nil, err
	}
	idx := &FlatIndex{dimensions: a.dimensions}
	idx.install(a)
	return idx, nil
}

func (m *FlatIndex) install(a *artifact) {
	m.runID = a.runID
	m.ids = a.ids
	m.vectors = a.vectors
	m.positions = make(map[int64]int, len(a.ids))
	for i, id := range a.ids {
		m.positions[id] = i
	}
}

// Size returns the number of vectors in the index.
func (m *FlatIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Dimensions returns the vector length.
func (m *FlatIndex) Dimensions() int {
	return m.dimensions
}

// Close is a no-op for FlatIndex.
func (m *FlatIndex) Close() error {
	return nil
}
