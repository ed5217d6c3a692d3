// Package search answers nearest-neighbour and expert lookups over the committed artifacts.
package search

import (
	"sort"

	"github.com/hyperjump/kenja/internal/models"
	"github.com/hyperjump/kenja/internal/vector"
)

// FuseExperts merges per-tag expert lists into one ranking. A user listed under several tags
// keeps only their best score; ties between tags go to the earlier list. The result is
// ordered by score descending, then user id ascending, and cut to limit.
func FuseExperts(lists [][]models.ExpertiseScore, limit int) []*models.Expert {
	best := make(map[int64]*models.Expert)
	for _, list := range lists {
		for _, s := range list {
			if cur, ok := best[s.UserID]; ok && cur.Score >= s.Score {
				continue
			}
			best[s.UserID] = &models.Expert{UserID: s.UserID, Tag: s.Tag, Score: s.Score}
		}
	}
	out := make([]*models.Expert, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i, e := range out {
		e.Rank = i + 1
	}
	return out
}

// toNeighbors converts index hits to at most k ranked neighbours, dropping ids in skip.
func toNeighbors(hits []*vector.VectorResult, k int, skip map[int64]bool) []*models.Neighbor {
	out := make([]*models.Neighbor, 0, k)
	for _, h := range hits {
		if skip[h.ID] {
			continue
		}
		if len(out) == k {
			break
		}
		out = append(out, &models.Neighbor{UserID: h.ID, Distance: h.Distance, Rank: len(out) + 1})
	}
	return out
}
