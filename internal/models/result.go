package models

// Neighbor is a single nearest-neighbor hit.
type Neighbor struct {
	UserID   int64   `json:"user_id"`
	Distance float64 `json:"distance"`
	Rank     int     `json:"rank"`
}

// Expert is a user ranked by expertise on a tag.
type Expert struct {
	UserID int64   `json:"user_id"`
	Tag    string  `json:"tag"`
	Score  float64 `json:"expertise_score"`
	Rank   int     `json:"rank"`
}

// ExpertResponse is the response for an expert lookup.
type ExpertResponse struct {
	Query     string    `json:"query"`
	Tags      []string  `json:"tags"` // tags the query text resolved to
	Experts   []*Expert `json:"experts"`
	QueryTime int64     `json:"query_time_ms"`
}

// NeighborResponse is the response for a nearest-neighbor lookup.
type NeighborResponse struct {
	UserID    *int64      `json:"user_id,omitempty"` // nil for vector queries
	Neighbors []*Neighbor `json:"neighbors"`
	QueryTime int64       `json:"query_time_ms"`
}
