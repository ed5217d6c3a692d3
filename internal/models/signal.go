// Package models defines core data structures for activity signals, expertise scores, and user vectors.
package models

// Signal identifies one category of user activity.
type Signal string

const (
	SignalAccepted  Signal = "accepted"
	SignalAnswers   Signal = "answers"
	SignalComments  Signal = "comments"
	SignalQuestions Signal = "questions"
	SignalBadges    Signal = "badges"
)

// TagSignals lists the list-valued signals in merge order.
var TagSignals = []Signal{SignalAccepted, SignalAnswers, SignalComments, SignalQuestions}

// TagSignal is the number of times a user touched a tag within one signal.
type TagSignal struct {
	UserID int64  `json:"user_id"`
	Tag    string `json:"tag"`
	Count  int    `json:"count"`
}

// BadgeSignal is the rank-weighted badge score of a user for a tag.
type BadgeSignal struct {
	UserID     int64   `json:"user_id"`
	Tag        string  `json:"tag"`
	BadgeScore float64 `json:"badge_score"`
}

// PairKey identifies a (user, tag) pair.
type PairKey struct {
	UserID int64
	Tag    string
}

// Less orders keys by user id, then tag.
func (k PairKey) Less(o PairKey) bool {
	if k.UserID != o.UserID {
		return k.UserID < o.UserID
	}
	return k.Tag < o.Tag
}
