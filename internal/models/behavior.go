package models

import (
	"time"

	"github.com/google/uuid"
)

// Behavior holds the coarse behavioral aggregates of a user.
type Behavior struct {
	UserID                int64     `json:"user_id"`
	Reputation            float64   `json:"reputation"`
	GoldBadges            float64   `json:"gold_badges"`
	SilverBadges          float64   `json:"silver_badges"`
	BronzeBadges          float64   `json:"bronze_badges"`
	AcceptedAnswersCount  float64   `json:"accepted_answers_count"`
	TotalAnswersCount     float64   `json:"total_answers_count"`
	AnswerAcceptanceRatio float64   `json:"answer_acceptance_ratio"`
	CommentCount          float64   `json:"comment_count"`
	QuestionScores        []float64 `json:"question_scores"`
	AnswerScores          []float64 `json:"answer_scores"`
}

// UserVector is the fixed-length feature vector of a user.
type UserVector struct {
	UserID   int64     `json:"user_id"`
	Features []float32 `json:"features"`
}

// Run describes one full pipeline execution.
type Run struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Users      int       `json:"users"`
	Records    int       `json:"records"`
	Dimensions int       `json:"dimensions"`
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
