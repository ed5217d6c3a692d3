// Package signals loads per-user activity signals and aggregates them into (user, tag) tuples.
package signals

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/kenja/internal/models"
)

// Stats counts what an aggregation kept and skipped.
type Stats struct {
	Users          int // users that contributed at least one key
	Tuples         int
	SkippedUsers   int // non-integer user id keys
	SkippedEntries int // malformed badge entries
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Users += o.Users
	s.Tuples += o.Tuples
	s.SkippedUsers += o.SkippedUsers
	s.SkippedEntries += o.SkippedEntries
}

// BadgeRanks maps a lower-case badge rank to its weight. Unknown ranks weigh 0.
type BadgeRanks map[string]float64

// NewBadgeRanks builds BadgeRanks from configured weights, lower-casing the rank names.
func NewBadgeRanks(weights map[string]float64) BadgeRanks {
	r := make(BadgeRanks, len(weights))
	for rank, w := range weights {
		r[strings.ToLower(strings.TrimSpace(rank))] = w
	}
	return r
}

// Weight returns the weight of rank, matched case-insensitively.
func (r BadgeRanks) Weight(rank string) float64 {
	return r[strings.ToLower(strings.TrimSpace(rank))]
}

// ParseUserID parses a user id key. Surrounding whitespace is ignored.
func ParseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// AggregateTags counts tag occurrences per user. Keys that are not integers are skipped.
// Output is sorted by user id, then tag.
func AggregateTags(data map[string][]string) ([]models.TagSignal, Stats) {
	var stats Stats
	counts := make(map[models.PairKey]int)
	for key, tags := range data {
		uid, ok := ParseUserID(key)
		if !ok {
			stats.SkippedUsers++
			continue
		}
		stats.Users++
		for _, tag := range tags {
			counts[models.PairKey{UserID: uid, Tag: tag}]++
		}
	}

	out := make([]models.TagSignal, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.TagSignal{UserID: k.UserID, Tag: k.Tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return models.PairKey{UserID: out[i].UserID, Tag: out[i].Tag}.Less(models.PairKey{UserID: out[j].UserID, Tag: out[j].Tag})
	})
	stats.Tuples = len(out)
	return out, stats
}

// AggregateBadges computes rank weight x award count per badge entry and sums entries that share
// a (user, tag) pair. Entries that are not a [tag, rank, count] triple, or whose count is not an
// integer, are dropped. Output is sorted by user id, then tag.
func AggregateBadges(data map[string][]any, ranks BadgeRanks) ([]models.BadgeSignal, Stats) {
	var stats Stats
	scores := make(map[models.PairKey]float64)
	for key, entries := range data {
		uid, ok := ParseUserID(key)
		if !ok {
			stats.SkippedUsers++
			continue
		}
		stats.Users++
		for _, entry := range entries {
			tag, rank, count, ok := parseBadge(entry)
			if !ok {
				stats.SkippedEntries++
				continue
			}
			scores[models.PairKey{UserID: uid, Tag: tag}] += ranks.Weight(rank) * float64(count)
		}
	}

	out := make([]models.BadgeSignal, 0, len(scores))
	for k, score := range scores {
		out = append(out, models.BadgeSignal{UserID: k.UserID, Tag: k.Tag, BadgeScore: score})
	}
	sort.Slice(out, func(i, j int) bool {
		return models.PairKey{UserID: out[i].UserID, Tag: out[i].Tag}.Less(models.PairKey{UserID: out[j].UserID, Tag: out[j].Tag})
	})
	stats.Tuples = len(out)
	return out, stats
}

func parseBadge(entry any) (tag, rank string, count int64, ok bool) {
	triple, isList := entry.([]any)
	if !isList || len(triple) != 3 {
		return "", "", 0, false
	}
	if tag, ok = triple[0].(string); !ok {
		return "", "", 0, false
	}
	if rank, ok = triple[1].(string); !ok {
		return "", "", 0, false
	}
	if count, ok = parseCount(triple[2]); !ok {
		return "", "", 0, false
	}
	return tag, rank, count, true
}

// parseCount accepts a JSON integer, an integral JSON number, or a base-10 integer string.
func parseCount(v any) (int64, bool) {
	switch c := v.(type) {
	case json.Number:
		if n, err := c.Int64(); err == nil {
			return n, true
		}
		f, err := c.Float64()
		if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case float64:
		if math.IsInf(c, 0) || math.IsNaN(c) || c != math.Trunc(c) {
			return 0, false
		}
		return int64(c), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
