// Package profile builds fixed-length user feature vectors from behavioral aggregates and
// expertise scores.
package profile

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hyperjump/kenja/internal/models"
	"github.com/hyperjump/kenja/internal/ranking"
)

// BehaviorSlots is the number of behavioral features at the head of every vector.
const BehaviorSlots = 10

// summarySlots is the number of topical aggregates at the tail of every vector.
const summarySlots = 2

// Dimensions returns the vector length for a given top-K.
func Dimensions(topK int) int {
	return BehaviorSlots + topK + summarySlots
}

// Builder turns behaviors and expertise scores into user vectors.
//
// Layout:
//
//	[0:10]        reputation, gold, silver, bronze, accepted answers, total answers,
//	              acceptance ratio, comments, mean question score, mean answer score
//	[10:10+K]     top-K expertise scores, descending (ties by tag), zero padded
//	[10+K:12+K]   number of scored tags, mean expertise score
type Builder struct {
	topK int
}

// NewBuilder creates a Builder. A negative topK is treated as 0.
func NewBuilder(topK int) *Builder {
	if topK < 0 {
		topK = 0
	}
	return &Builder{topK: topK}
}

// Dimensions returns the length of every vector this builder produces.
func (b *Builder) Dimensions() int {
	return Dimensions(b.topK)
}

// Build returns one vector per user in the union of behaviors and scores, ordered by user id.
func (b *Builder) Build(behaviors map[int64]*models.Behavior, scores []models.ExpertiseScore) []models.UserVector {
	byUser := ranking.ByUser(scores)

	ids := make([]int64, 0, len(behaviors)+len(byUser))
	for id := range behaviors {
		ids = append(ids, id)
	}
	for id := range byUser {
		if _, ok := behaviors[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.UserVector, len(ids))
	for i, id := range ids {
		out[i] = models.UserVector{UserID: id, Features: b.Vector(behaviors[id], byUser[id])}
	}
	return out
}

// Vector builds the features of a single user. beh may be nil.
func (b *Builder) Vector(beh *models.Behavior, scores []models.ExpertiseScore) []float32 {
	v := make([]float32, b.Dimensions())
	if beh != nil {
		head := []float64{
			beh.Reputation,
			beh.GoldBadges,
			beh.SilverBadges,
			beh.BronzeBadges,
			beh.AcceptedAnswersCount,
			beh.TotalAnswersCount,
			beh.AnswerAcceptanceRatio,
			beh.CommentCount,
			mean(beh.QuestionScores),
			mean(beh.AnswerScores),
		}
		for i, x := range head {
			v[i] = float32(x)
		}
	}

	ranked := make([]models.ExpertiseScore, len(scores))
	copy(ranked, scores)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Tag < ranked[j].Tag
	})
	for i := 0; i < b.topK && i < len(ranked); i++ {
		v[BehaviorSlots+i] = float32(ranked[i].Score)
	}

	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = s.Score
	}
	tail := BehaviorSlots + b.topK
	v[tail] = float32(len(scores))
	v[tail+1] = float32(mean(values))
	return v
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}
