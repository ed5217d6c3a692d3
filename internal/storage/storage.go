// Package storage defines the persistence interface for expertise scores and run history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kenja/internal/models"
)

// ErrNoRuns is returned by LatestRun when no run has been recorded.
var ErrNoRuns = errors.New("no runs recorded")

// Storage defines score and run persistence operations.
type Storage interface {
	// ReplaceScores swaps every stored score for scores and records run, atomically.
	ReplaceScores(ctx context.Context, run *models.Run, scores []models.ExpertiseScore) error

	// Score queries
	UserScores(ctx context.Context, userID int64) ([]models.ExpertiseScore, error)
	TopExperts(ctx context.Context, tag string, limit int) ([]models.ExpertiseScore, error)

	// Runs
	LatestRun(ctx context.Context) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)

	// Stats
	CountScores(ctx context.Context) (int64, error)

	Close() error
}
