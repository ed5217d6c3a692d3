package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kenja/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		users INTEGER NOT NULL,
		records INTEGER NOT NULL,
		dimensions INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);

	CREATE TABLE IF NOT EXISTS expertise_scores (
		user_id INTEGER NOT NULL,
		tag TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (user_id, tag)
	);

	CREATE INDEX IF NOT EXISTS idx_scores_tag_score ON expertise_scores(tag, score DESC, user_id);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceScores deletes all stored scores, inserts scores and records run in one transaction.
func (s *SQLiteStorage) ReplaceScores(ctx context.Context, run *models.Run, scores []models.ExpertiseScore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expertise_scores`); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expertise_scores (user_id, tag, score) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sc := range scores {
		if _, err := stmt.ExecContext(ctx, sc.UserID, sc.Tag, sc.Score); err != nil {
			return fmt.Errorf("failed to insert score (%d, %s): %w", sc.UserID, sc.Tag, err)
		}
	}

	if run != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO runs (id, started_at, finished_at, users, records, dimensions)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID.String(), run.StartedAt, run.FinishedAt, run.Users, run.Records, run.Dimensions,
		)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}
	return tx.Commit()
}

// UserScores returns the scores of a user, highest first.
func (s *SQLiteStorage) UserScores(ctx context.Context, userID int64) ([]models.ExpertiseScore, error) {
	return s.queryScores(ctx,
		`SELECT user_id, tag, score FROM expertise_scores
		 WHERE user_id = ? ORDER BY score DESC, tag`,
		userID,
	)
}

// TopExperts returns up to limit users for tag ordered by score descending, then user id.
func (s *SQLiteStorage) TopExperts(ctx context.Context, tag string, limit int) ([]models.ExpertiseScore, error) {
	return s.queryScores(ctx,
		`SELECT user_id, tag, score FROM expertise_scores
		 WHERE tag = ? ORDER BY score DESC, user_id LIMIT ?`,
		tag, limit,
	)
}

func (s *SQLiteStorage) queryScores(ctx context.Context, query string, args ...any) ([]models.ExpertiseScore, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ExpertiseScore
	for rows.Next() {
		var sc models.ExpertiseScore
		if err := rows.Scan(&sc.UserID, &sc.Tag, &sc.Score); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// LatestRun returns the most recently finished run.
func (s *SQLiteStorage) LatestRun(ctx context.Context) (*models.Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return runs[0], nil
}

// ListRuns returns up to limit runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, users, records, dimensions
		 FROM runs ORDER BY finished_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		var id string
		if err := rows.Scan(&id, &run.StartedAt, &run.FinishedAt, &run.Users, &run.Records, &run.Dimensions); err != nil {
			return nil, err
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// CountScores returns the total number of stored scores.
func (s *SQLiteStorage) CountScores(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expertise_scores`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
