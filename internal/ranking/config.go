package ranking

import (
	"fmt"
	"math"

	"github.com/hyperjump/kenja/internal/config"
	"github.com/hyperjump/kenja/internal/models"
)

// weightTolerance is how far the weight sum may drift from 1.
const weightTolerance = 1e-9

// Weights holds the per-column expertise weights.
type Weights struct {
	Accepted   float64 `yaml:"accepted"`    // default: 0.4
	Answers    float64 `yaml:"answers"`     // default: 0.3
	Comments   float64 `yaml:"comments"`    // default: 0.1
	Questions  float64 `yaml:"questions"`   // default: 0.1
	BadgeScore float64 `yaml:"badge_score"` // default: 0.1
}

// DefaultWeights returns the default expertise weights.
func DefaultWeights() Weights {
	return Weights{
		Accepted:   config.DefaultAcceptedWeight,
		Answers:    config.DefaultAnswersWeight,
		Comments:   config.DefaultCommentsWeight,
		Questions:  config.DefaultQuestionsWeight,
		BadgeScore: config.DefaultBadgeScoreWeight,
	}
}

// WeightsFromConfig converts configured weights; unset values take their default.
func WeightsFromConfig(c config.WeightsConfig) Weights {
	w := DefaultWeights()
	pick := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	pick(&w.Accepted, c.Accepted)
	pick(&w.Answers, c.Answers)
	pick(&w.Comments, c.Comments)
	pick(&w.Questions, c.Questions)
	pick(&w.BadgeScore, c.BadgeScore)
	return w
}

// Of returns the weight of column c.
func (w Weights) Of(c models.Column) float64 {
	switch c {
	case models.ColumnAccepted:
		return w.Accepted
	case models.ColumnAnswers:
		return w.Answers
	case models.ColumnComments:
		return w.Comments
	case models.ColumnQuestions:
		return w.Questions
	case models.ColumnBadgeScore:
		return w.BadgeScore
	}
	return 0
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var s float64
	for _, c := range models.Columns {
		s += w.Of(c)
	}
	return s
}

// Validate checks that every weight is finite and non-negative and that they sum to 1.
func (w Weights) Validate() error {
	for _, c := range models.Columns {
		v := w.Of(c)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s weight is %v", ErrInvalidWeights, c, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}
