package models

import "fmt"

// ExpertQuery asks for the strongest users on the tags matching Text.
type ExpertQuery struct {
	Text  string `json:"text"`
	Limit int    `json:"limit,omitempty"`
	Fuzzy bool   `json:"fuzzy,omitempty"` // typo-tolerant tag matching
	Tags  int    `json:"tags,omitempty"`  // max tags resolved from Text
}

// Validate ensures the query has text and normalizes limits.
func (q *ExpertQuery) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Tags <= 0 {
		q.Tags = 3
	}
	return nil
}

// NeighborQuery asks for the K nearest users to a vector or to an indexed user.
// UserID is a pointer so that user 0 can be queried.
type NeighborQuery struct {
	UserID *int64    `json:"user_id,omitempty"`
	Vector []float32 `json:"vector,omitempty"`
	K      int       `json:"k"`
}

// Validate requires exactly one of UserID or Vector and a positive K.
func (q *NeighborQuery) Validate() error {
	if q.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", q.K)
	}
	if (q.UserID == nil) == (len(q.Vector) == 0) {
		return fmt.Errorf("exactly one of user id or vector must be set")
	}
	return nil
}

// NeighborsOf returns a query for the k users nearest to userID.
func NeighborsOf(userID int64, k int) *NeighborQuery {
	return &NeighborQuery{UserID: &userID, K: k}
}
