package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/kenja/internal/keyword"
	"github.com/hyperjump/kenja/internal/models"
	"github.com/hyperjump/kenja/internal/storage"
	"github.com/hyperjump/kenja/internal/vector"
)

// Engine answers lookups against a loaded similarity index, the score store and the tag directory.
// Any of them may be nil; lookups that need a missing one fail.
type Engine struct {
	storage     storage.Storage
	vectorIndex vector.VectorIndex
	tags        keyword.TagDirectory
}

// NewEngine creates a query engine with the given dependencies.
func NewEngine(
	storage storage.Storage,
	vectorIndex vector.VectorIndex,
	tags keyword.TagDirectory,
) *Engine {
	return &Engine{
		storage:     storage,
		vectorIndex: vectorIndex,
		tags:        tags,
	}
}

// Nearest returns the k users nearest to vec, nearest first.
func (e *Engine) Nearest(ctx context.Context, vec []float32, k int) ([]*models.Neighbor, error) {
	if e.vectorIndex == nil {
		return nil, ErrNoIndex
	}
	hits, err := e.vectorIndex.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	return toNeighbors(hits, k, nil), nil
}

// Similar returns the k users nearest to userID, excluding userID itself.
func (e *Engine) Similar(ctx context.Context, userID int64, k int) ([]*models.Neighbor, error) {
	if e.vectorIndex == nil {
		return nil, ErrNoIndex
	}
	vec, ok := e.vectorIndex.Vector(userID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	if k < 1 || k >= e.vectorIndex.Size() {
		return nil, fmt.Errorf("%w: k=%d, other users=%d", vector.ErrKOutOfRange, k, e.vectorIndex.Size()-1)
	}
	hits, err := e.vectorIndex.Search(ctx, vec, k+1)
	if err != nil {
		return nil, err
	}
	return toNeighbors(hits, k, map[int64]bool{userID: true}), nil
}

// Neighbors dispatches q to Similar or Nearest.
func (e *Engine) Neighbors(ctx context.Context, q *models.NeighborQuery) (*models.NeighborResponse, error) {
	start := time.Now()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var (
		neighbors []*models.Neighbor
		err       error
	)
	if q.UserID != nil {
		neighbors, err = e.Similar(ctx, *q.UserID, q.K)
	} else {
		neighbors, err = e.Nearest(ctx, q.Vector, q.K)
	}
	if err != nil {
		return nil, err
	}
	return &models.NeighborResponse{
		UserID:    q.UserID,
		Neighbors: neighbors,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// Experts resolves the query text to tags and returns the strongest users across them.
func (e *Engine) Experts(ctx context.Context, q *models.ExpertQuery) (*models.ExpertResponse, error) {
	start := time.Now()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if e.tags == nil || e.storage == nil {
		return nil, fmt.Errorf("expert lookup needs the tag directory and the score store")
	}
	matches, err := e.tags.Resolve(ctx, q.Text, q.Tags, &keyword.ResolveOptions{FuzzyEnabled: q.Fuzzy})
	if err != nil {
		return nil, fmt.Errorf("tag resolution failed: %w", err)
	}

	var (
		lists   = make([][]models.ExpertiseScore, len(matches))
		errChan = make(chan error, len(matches))
		wg      sync.WaitGroup
	)
	for i, m := range matches {
		wg.Add(1)
		go func(i int, tag string) {
			defer wg.Done()
			top, err := e.storage.TopExperts(ctx, tag, q.Limit)
			if err != nil {
				errChan <- fmt.Errorf("top experts for %q: %w", tag, err)
				return
			}
			lists[i] = top
		}(i, m.Tag)
	}
	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	tags := make([]string, len(matches))
	for i, m := range matches {
		tags[i] = m.Tag
	}
	return &models.ExpertResponse{
		Query:     q.Text,
		Tags:      tags,
		Experts:   FuseExperts(lists, q.Limit),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// Profile returns the stored expertise scores of userID, strongest first.
func (e *Engine) Profile(ctx context.Context, userID int64) ([]models.ExpertiseScore, error) {
	if e.storage == nil {
		return nil, fmt.Errorf("profile lookup needs the score store")
	}
	return e.storage.UserScores(ctx, userID)
}

// IndexSize returns the number of indexed users, or 0 when no index is loaded.
func (e *Engine) IndexSize() int {
	if e.vectorIndex == nil {
		return 0
	}
	return e.vectorIndex.Size()
}
