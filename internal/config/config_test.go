package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
inputs:
  features_dir: "/data/features"
  answers: "answers.json"
vectors:
  top_k: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Inputs.Answers != "/data/features/answers.json" {
		t.Errorf("answers path = %s", cfg.Inputs.Answers)
	}
	if cfg.Inputs.AcceptedAnswers != "/data/features/users_accepted_answers_tags.json" {
		t.Errorf("accepted answers path = %s", cfg.Inputs.AcceptedAnswers)
	}
	if cfg.Vectors.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Vectors.TopK)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Inputs.UsersTable != "" {
		t.Errorf("users table should stay empty, got %s", cfg.Inputs.UsersTable)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_relativePathsResolveAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
inputs:
  features_dir: "./features"
  users_table: "api/users.csv"
outputs:
  scores_path: "./out/scores.json"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "features", "users_tag_badges.json"); cfg.Inputs.TagBadges != want {
		t.Errorf("tag badges = %s, want %s", cfg.Inputs.TagBadges, want)
	}
	if want := filepath.Join(dir, "api", "users.csv"); cfg.Inputs.UsersTable != want {
		t.Errorf("users table = %s, want %s", cfg.Inputs.UsersTable, want)
	}
	if want := filepath.Join(dir, "out", "scores.json"); cfg.Outputs.ScoresPath != want {
		t.Errorf("scores path = %s, want %s", cfg.Outputs.ScoresPath, want)
	}
	if want := filepath.Join(dir, "output", "index", "user_ids.cbor"); cfg.Outputs.IDsPath != want {
		t.Errorf("ids path = %s, want %s", cfg.Outputs.IDsPath, want)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	w := cfg.Scoring.Weights
	if *w.Accepted != 0.4 || *w.Answers != 0.3 || *w.Comments != 0.1 || *w.Questions != 0.1 || *w.BadgeScore != 0.1 {
		t.Errorf("unexpected default weights: %v %v %v %v %v", *w.Accepted, *w.Answers, *w.Comments, *w.Questions, *w.BadgeScore)
	}
	if cfg.Scoring.BadgeRanks["gold"] != 3 || cfg.Scoring.BadgeRanks["silver"] != 2 || cfg.Scoring.BadgeRanks["bronze"] != 1 {
		t.Errorf("badge ranks: got %v", cfg.Scoring.BadgeRanks)
	}
	if cfg.Vectors.TopK != 8 {
		t.Errorf("default top_k: got %d", cfg.Vectors.TopK)
	}
	if cfg.Vectors.IndexType != "flat" {
		t.Errorf("default index type: got %s", cfg.Vectors.IndexType)
	}
	if cfg.Watch.DebounceMS != 400 {
		t.Errorf("default debounce: got %d", cfg.Watch.DebounceMS)
	}
	if cfg.Publish.Enabled() {
		t.Error("publishing should be disabled by default")
	}
}

func TestApplyDefaults_explicitZeroWeightKept(t *testing.T) {
	zero := 0.0
	cfg := &Config{Scoring: ScoringConfig{Weights: WeightsConfig{Comments: &zero}}}
	ApplyDefaults(cfg)
	if *cfg.Scoring.Weights.Comments != 0 {
		t.Errorf("explicit zero weight overwritten: %v", *cfg.Scoring.Weights.Comments)
	}
}

func TestLoad_badgeRankKeysLowerCased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scoring:
  badge_ranks:
    Gold: 5
    " SILVER ": 2
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	ranks := cfg.Scoring.BadgeRanks
	if len(ranks) != 2 || ranks["gold"] != 5 || ranks["silver"] != 2 {
		t.Errorf("badge ranks = %v, want gold=5 silver=2", ranks)
	}
}

func TestValidate(t *testing.T) {
	t.Run("defaults_valid", func(t *testing.T) {
		cfg := &Config{}
		ApplyDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
	t.Run("publish_without_region", func(t *testing.T) {
		cfg := &Config{Publish: PublishConfig{Bucket: "artifacts"}}
		ApplyDefaults(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
		}
	})
	t.Run("negative_badge_rank", func(t *testing.T) {
		cfg := &Config{Scoring: ScoringConfig{BadgeRanks: map[string]float64{"gold": -1}}}
		ApplyDefaults(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{Vectors: VectorConfig{TopK: 4}}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Vectors.TopK != 4 {
		t.Errorf("loaded top_k: got %d", loaded.Vectors.TopK)
	}
}
