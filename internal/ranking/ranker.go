package ranking

import (
	"github.com/hyperjump/kenja/internal/models"
)

// Scorer combines normalized signal columns into expertise scores.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer. The weights are validated.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Weights returns the weights in use.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the weighted sum of r's normalized columns:
// Score = (Wa * accepted) + (Wn * answers) + (Wc * comments) + (Wq * questions) + (Wb * badge).
func (s *Scorer) Score(r *models.NormalizedRecord) float64 {
	var score float64
	for _, c := range models.Columns {
		score += s.weights.Of(c) * r.Value(c)
	}
	// Float error can push a perfect record a hair past 1.
	if score > 1 {
		score = 1
	}
	return score
}

// ScoreAll scores every record, keeping input order. Scores are not rounded.
func (s *Scorer) ScoreAll(records []models.NormalizedRecord) []models.ExpertiseScore {
	out := make([]models.ExpertiseScore, len(records))
	for i := range records {
		out[i] = models.ExpertiseScore{
			UserID: records[i].UserID,
			Tag:    records[i].Tag,
			Score:  s.Score(&records[i]),
		}
	}
	return out
}

// ByUser groups scores by user id, preserving input order within a user.
func ByUser(scores []models.ExpertiseScore) map[int64][]models.ExpertiseScore {
	out := make(map[int64][]models.ExpertiseScore)
	for _, s := range scores {
		out[s.UserID] = append(out[s.UserID], s)
	}
	return out
}
