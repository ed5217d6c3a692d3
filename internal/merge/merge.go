// Package merge joins the per-signal tuple sets into one record per (user, tag) pair.
package merge

import (
	"sort"

	"github.com/hyperjump/kenja/internal/models"
)

var signalColumns = map[models.Signal]models.Column{
	models.SignalAccepted:  models.ColumnAccepted,
	models.SignalAnswers:   models.ColumnAnswers,
	models.SignalComments:  models.ColumnComments,
	models.SignalQuestions: models.ColumnQuestions,
}

// Merge performs a full outer join of the four tag signals and the badge scores on (user, tag).
// A pair missing from a signal gets 0 for that column. The result is sorted by user id, then tag,
// so it does not depend on the order of the inputs.
func Merge(tags map[models.Signal][]models.TagSignal, badges []models.BadgeSignal) []models.MergedRecord {
	byKey := make(map[models.PairKey]*models.MergedRecord)
	get := func(uid int64, tag string) *models.MergedRecord {
		k := models.PairKey{UserID: uid, Tag: tag}
		r, ok := byKey[k]
		if !ok {
			r = &models.MergedRecord{UserID: uid, Tag: tag}
			byKey[k] = r
		}
		return r
	}

	for sig, col := range signalColumns {
		for _, t := range tags[sig] {
			r := get(t.UserID, t.Tag)
			r.SetValue(col, r.Value(col)+float64(t.Count))
		}
	}
	for _, b := range badges {
		r := get(b.UserID, b.Tag)
		r.BadgeScore += b.BadgeScore
	}

	out := make([]models.MergedRecord, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out
}

// Users returns the distinct user ids of records in ascending order.
func Users(records []models.MergedRecord) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for i := range records {
		if _, ok := seen[records[i].UserID]; ok {
			continue
		}
		seen[records[i].UserID] = struct{}{}
		ids = append(ids, records[i].UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
