package models

// Column is one of the five numeric signal columns of a merged record.
type Column int

const (
	ColumnAccepted Column = iota
	ColumnAnswers
	ColumnComments
	ColumnQuestions
	ColumnBadgeScore
)

// Columns lists every signal column in table order.
var Columns = []Column{ColumnAccepted, ColumnAnswers, ColumnComments, ColumnQuestions, ColumnBadgeScore}

// String returns the column name used in configuration and output.
func (c Column) String() string {
	switch c {
	case ColumnAccepted:
		return "accepted"
	case ColumnAnswers:
		return "answers"
	case ColumnComments:
		return "comments"
	case ColumnQuestions:
		return "questions"
	case ColumnBadgeScore:
		return "badge_score"
	default:
		return "unknown"
	}
}

// MergedRecord joins all five signals for one (user, tag) pair. Absent signals are 0.
type MergedRecord struct {
	UserID     int64   `json:"user_id"`
	Tag        string  `json:"tag"`
	Accepted   float64 `json:"accepted"`
	Answers    float64 `json:"answers"`
	Comments   float64 `json:"comments"`
	Questions  float64 `json:"questions"`
	BadgeScore float64 `json:"badge_score"`
}

// Key returns the (user, tag) key of the record.
func (r *MergedRecord) Key() PairKey {
	return PairKey{UserID: r.UserID, Tag: r.Tag}
}

// Value returns the value of column c.
func (r *MergedRecord) Value(c Column) float64 {
	switch c {
	case ColumnAccepted:
		return r.Accepted
	case ColumnAnswers:
		return r.Answers
	case ColumnComments:
		return r.Comments
	case ColumnQuestions:
		return r.Questions
	case ColumnBadgeScore:
		return r.BadgeScore
	}
	return 0
}

// SetValue sets column c to v.
func (r *MergedRecord) SetValue(c Column, v float64) {
	switch c {
	case ColumnAccepted:
		r.Accepted = v
	case ColumnAnswers:
		r.Answers = v
	case ColumnComments:
		r.Comments = v
	case ColumnQuestions:
		r.Questions = v
	case ColumnBadgeScore:
		r.BadgeScore = v
	}
}

// NormalizedRecord is a MergedRecord whose columns have been min-max scaled to [0, 1].
type NormalizedRecord struct {
	MergedRecord
}

// ExpertiseScore is the weighted expertise of a user for one tag, in [0, 1].
type ExpertiseScore struct {
	UserID int64   `json:"user_id"`
	Tag    string  `json:"tag"`
	Score  float64 `json:"expertise_score"`
}
