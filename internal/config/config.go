// Package config provides configuration loading and structs for the kenja pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Inputs   InputConfig    `yaml:"inputs"`
	Outputs  OutputConfig   `yaml:"outputs"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Vectors  VectorConfig   `yaml:"vectors"`
	Watch    WatchConfig    `yaml:"watch"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Publish  PublishConfig  `yaml:"publish"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InputConfig holds the paths of the per-signal tag mappings and the users table.
// Signal file names are resolved against FeaturesDir unless absolute.
type InputConfig struct {
	FeaturesDir     string `yaml:"features_dir"`
	AcceptedAnswers string `yaml:"accepted_answers"`
	Answers         string `yaml:"answers"`
	Comments        string `yaml:"comments"`
	Questions       string `yaml:"questions"`
	TagBadges       string `yaml:"tag_badges"`
	// UsersTable is optional; .json, .csv and .xlsx are supported.
	UsersTable string `yaml:"users_table"`
}

// SignalPaths returns the five signal file paths in load order.
func (in *InputConfig) SignalPaths() []string {
	return []string{in.AcceptedAnswers, in.Answers, in.Comments, in.Questions, in.TagBadges}
}

// OutputConfig holds artifact paths.
type OutputConfig struct {
	ScoresPath   string `yaml:"scores_path"`
	IndexPath    string `yaml:"index_path"`
	IDsPath      string `yaml:"ids_path"`
	DatabasePath string `yaml:"database_path"`
	TagIndexPath string `yaml:"tag_index_path"`
	ReportPath   string `yaml:"report_path"` // optional xlsx report
}

// ScoringConfig holds expertise weights and badge rank weights.
type ScoringConfig struct {
	Weights    WeightsConfig      `yaml:"weights"`
	BadgeRanks map[string]float64 `yaml:"badge_ranks"`
}

// WeightsConfig holds the per-signal expertise weights; they must sum to 1.
// Pointers distinguish an explicit 0 from an unset value.
type WeightsConfig struct {
	Accepted   *float64 `yaml:"accepted"`
	Answers    *float64 `yaml:"answers"`
	Comments   *float64 `yaml:"comments"`
	Questions  *float64 `yaml:"questions"`
	BadgeScore *float64 `yaml:"badge_score"`
}

// VectorConfig holds vector builder and index settings.
type VectorConfig struct {
	TopK      int    `yaml:"top_k"`
	IndexType string `yaml:"index_type"`
}

// WatchConfig holds input watch settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// ScheduleConfig holds the cron trigger settings.
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// PublishConfig holds S3-compatible artifact publishing settings. Publishing is off when Bucket is empty.
type PublishConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// Enabled reports whether publishing is configured.
func (p *PublishConfig) Enabled() bool {
	return p.Bucket != ""
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Textfile  string `yaml:"textfile"` // node_exporter textfile path; empty disables
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ExpandPaths(&cfg, filepath.Dir(path))

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ExpandPaths makes every configured path absolute. Relative paths are resolved against
// configDir; signal files are resolved against the features directory.
func ExpandPaths(cfg *Config, configDir string) {
	in := &cfg.Inputs
	in.FeaturesDir = expandPath(in.FeaturesDir, configDir)
	for _, p := range []*string{&in.AcceptedAnswers, &in.Answers, &in.Comments, &in.Questions, &in.TagBadges} {
		*p = expandPath(*p, in.FeaturesDir)
	}
	in.UsersTable = expandPath(in.UsersTable, configDir)

	out := &cfg.Outputs
	for _, p := range []*string{&out.ScoresPath, &out.IndexPath, &out.IDsPath, &out.DatabasePath, &out.TagIndexPath, &out.ReportPath} {
		*p = expandPath(*p, configDir)
	}
	cfg.Metrics.Textfile = expandPath(cfg.Metrics.Textfile, configDir)
}

// Validate checks settings that have no sensible default.
func (c *Config) Validate() error {
	if c.Vectors.TopK < 0 {
		return fmt.Errorf("%w: vectors.top_k must not be negative", ErrInvalidConfig)
	}
	for rank, w := range c.Scoring.BadgeRanks {
		if w < 0 {
			return fmt.Errorf("%w: badge rank %q has negative weight", ErrInvalidConfig, rank)
		}
	}
	if c.Publish.Enabled() && c.Publish.Region == "" {
		return fmt.Errorf("%w: publish.region is required when publish.bucket is set", ErrInvalidConfig)
	}
	return nil
}

// expandPath converts a path to absolute. "~/" is relative to the home directory;
// other relative paths are relative to baseDir. Empty paths stay empty.
func expandPath(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(baseDir, path)
}
