package config

import "strings"

// Default signal weights. They sum to 1.
const (
	DefaultAcceptedWeight   = 0.4
	DefaultAnswersWeight    = 0.3
	DefaultCommentsWeight   = 0.1
	DefaultQuestionsWeight  = 0.1
	DefaultBadgeScoreWeight = 0.1
)

// DefaultBadgeRanks maps lower-case badge ranks to their weight. Unknown ranks weigh 0.
func DefaultBadgeRanks() map[string]float64 {
	return map[string]float64{"gold": 3, "silver": 2, "bronze": 1}
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	in := &cfg.Inputs
	if in.FeaturesDir == "" {
		in.FeaturesDir = "output/features"
	}
	if in.AcceptedAnswers == "" {
		in.AcceptedAnswers = "users_accepted_answers_tags.json"
	}
	if in.Answers == "" {
		in.Answers = "users_answers_tags.json"
	}
	if in.Comments == "" {
		in.Comments = "users_comments_tags.json"
	}
	if in.Questions == "" {
		in.Questions = "users_questions_tags.json"
	}
	if in.TagBadges == "" {
		in.TagBadges = "users_tag_badges.json"
	}

	out := &cfg.Outputs
	if out.ScoresPath == "" {
		out.ScoresPath = "output/topic_expertise_scores.json"
	}
	if out.IndexPath == "" {
		out.IndexPath = "output/index/user_index.knjx"
	}
	if out.IDsPath == "" {
		out.IDsPath = "output/index/user_ids.cbor"
	}
	if out.DatabasePath == "" {
		out.DatabasePath = "output/db/expertise.db"
	}
	if out.TagIndexPath == "" {
		out.TagIndexPath = "output/index/tags.bleve"
	}

	w := &cfg.Scoring.Weights
	setDefault(&w.Accepted, DefaultAcceptedWeight)
	setDefault(&w.Answers, DefaultAnswersWeight)
	setDefault(&w.Comments, DefaultCommentsWeight)
	setDefault(&w.Questions, DefaultQuestionsWeight)
	setDefault(&w.BadgeScore, DefaultBadgeScoreWeight)
	if len(cfg.Scoring.BadgeRanks) == 0 {
		cfg.Scoring.BadgeRanks = DefaultBadgeRanks()
	} else {
		cfg.Scoring.BadgeRanks = lowerKeys(cfg.Scoring.BadgeRanks)
	}

	if cfg.Vectors.TopK == 0 {
		cfg.Vectors.TopK = 8
	}
	if cfg.Vectors.IndexType == "" {
		cfg.Vectors.IndexType = "flat"
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "UTC"
	}
	if cfg.Publish.Prefix == "" {
		cfg.Publish.Prefix = "kenja"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "kenja"
	}
}

// lowerKeys returns m with trimmed, lower-case keys, matching how ranks are looked up.
func lowerKeys(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func setDefault(p **float64, v float64) {
	if *p == nil {
		val := v
		*p = &val
	}
}
