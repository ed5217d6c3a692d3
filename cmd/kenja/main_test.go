package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kenja/internal/config"
	"github.com/hyperjump/kenja/internal/keyword"
	"github.com/hyperjump/kenja/pkg/metrics"
)

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
vectors:
  top_k: 3
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug || cfg.Vectors.TopK != 3 {
		t.Errorf("unexpected config: debug=%v top_k=%d", cfg.Debug, cfg.Vectors.TopK)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "kenja.yaml")
	content := `
outputs:
  database_path: "db/test.db"
schedule:
  cron: "0 3 * * *"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if want := filepath.Join(dir, "db", "test.db"); cfg.Outputs.DatabasePath != want {
		t.Errorf("database path = %s, want %s", cfg.Outputs.DatabasePath, want)
	}
	if cfg.Schedule.Cron != "0 3 * * *" {
		t.Errorf("cron = %q", cfg.Schedule.Cron)
	}
}

func TestLoadConfig_rejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("publish:\n  bucket: artifacts\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadConfig(configPath); err == nil {
		t.Error("expected validation error for publish bucket without region")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")
	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatal(err)
	}
	if err := writeDefaultConfig(path, false); err == nil {
		t.Error("expected error when the file exists without force")
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Fatalf("force overwrite: %v", err)
	}

	cfg, _, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vectors.TopK != 8 || cfg.Vectors.IndexType != "flat" {
		t.Errorf("vectors = %+v, want defaults", cfg.Vectors)
	}
	if want := filepath.Join(filepath.Dir(path), "output", "features", "users_answers_tags.json"); cfg.Inputs.Answers != want {
		t.Errorf("answers path = %s, want %s", cfg.Inputs.Answers, want)
	}
}

func TestWatchedInputs(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if got := watchedInputs(cfg); !reflect.DeepEqual(got, cfg.Inputs.SignalPaths()) {
		t.Errorf("watchedInputs() = %v, want the five signal files", got)
	}
	cfg.Inputs.UsersTable = "users.csv"
	got := watchedInputs(cfg)
	if len(got) != 6 || got[5] != "users.csv" {
		t.Errorf("watchedInputs() with users table = %v", got)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	features := filepath.Join(dir, "features")
	if err := os.MkdirAll(features, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"users_accepted_answers_tags.json": `{"1": ["go"]}`,
		"users_answers_tags.json":          `{"1": ["go"], "2": ["rust"]}`,
		"users_comments_tags.json":         `{}`,
		"users_questions_tags.json":        `{"2": ["go"]}`,
		"users_tag_badges.json":            `{"1": [["go", "bronze", 2]]}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(features, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := &config.Config{Inputs: config.InputConfig{FeaturesDir: "features"}}
	config.ApplyDefaults(cfg)
	config.ExpandPaths(cfg, dir)
	return cfg
}

func TestInitializeComponents_andStatus(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	c, err := initializeComponents(cfg, zap.NewNop(), needIndex)
	if err != nil {
		t.Fatal(err)
	}
	status, err := collectStatus(ctx, cfg, c, 5)
	if err != nil {
		t.Fatal(err)
	}
	if status.Scores != 0 || status.VectorIndexSize != 0 || status.LastRun != nil || status.Tags != nil {
		t.Errorf("fresh status = %+v", status)
	}
	if c.Tags != nil {
		t.Error("status should not hold the tag directory")
	}
	if _, err := c.Indexer.Run(ctx, metrics.TriggerManual); err != nil {
		t.Fatalf("Run: %v", err)
	}
	c.Close()

	c, err = initializeComponents(cfg, zap.NewNop(), needIndex)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.VectorIndex == nil {
		t.Fatal("committed index should load")
	}
	status, err = collectStatus(ctx, cfg, c, 5)
	if err != nil {
		t.Fatal(err)
	}
	if status.Scores != 3 || status.VectorIndexSize != 2 || status.VectorIndexType != "flat" {
		t.Errorf("status after run = scores %d, index %d (%s); want 3, 2 (flat)", status.Scores, status.VectorIndexSize, status.VectorIndexType)
	}
	if status.Tags == nil || *status.Tags != 2 {
		t.Errorf("status tags = %v, want 2", status.Tags)
	}
	if status.LastRun == nil || len(status.RecentRuns) != 1 {
		t.Errorf("expected one recorded run, got last=%v recent=%d", status.LastRun, len(status.RecentRuns))
	}
	if status.DiskUsageBytes == nil || *status.DiskUsageBytes == 0 {
		t.Error("expected non-zero disk usage after a run")
	}
	if status.Dimensions != 20 {
		t.Errorf("dimensions = %d, want 20 for the default top_k", status.Dimensions)
	}
}

func TestCollectStatus_tagDirectoryHeldElsewhere(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	runner, err := initializeComponents(cfg, zap.NewNop(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := runner.Indexer.Run(ctx, metrics.TriggerManual); err != nil {
		t.Fatalf("Run: %v", err)
	}
	runner.Close()

	experts, err := initializeComponents(cfg, zap.NewNop(), needTags)
	if err != nil {
		t.Fatal(err)
	}
	defer experts.Close()
	if experts.Tags == nil {
		t.Fatal("experts components should hold the tag directory")
	}

	query, err := initializeComponents(cfg, zap.NewNop(), needIndex)
	if err != nil {
		t.Fatalf("query components while the tag directory is held: %v", err)
	}
	defer query.Close()

	done := make(chan *statusResponse, 1)
	go func() {
		status, err := collectStatus(ctx, cfg, query, 1)
		if err != nil {
			t.Errorf("collectStatus: %v", err)
		}
		done <- status
	}()
	select {
	case status := <-done:
		if status != nil && status.Tags != nil {
			t.Errorf("tags = %d, want unknown while another holder has the directory", *status.Tags)
		}
		if status != nil && status.VectorIndexSize != 2 {
			t.Errorf("index size = %d, want 2", status.VectorIndexSize)
		}
	case <-time.After(keyword.LockTimeout + 5*time.Second):
		t.Fatal("status blocked on the held tag directory")
	}
}
