// Package main is the kenja CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kenja/internal/cli"
	"github.com/hyperjump/kenja/internal/config"
	"github.com/hyperjump/kenja/internal/indexer"
	"github.com/hyperjump/kenja/internal/keyword"
	"github.com/hyperjump/kenja/internal/models"
	"github.com/hyperjump/kenja/internal/publish"
	"github.com/hyperjump/kenja/internal/scheduler"
	"github.com/hyperjump/kenja/internal/search"
	"github.com/hyperjump/kenja/internal/storage"
	"github.com/hyperjump/kenja/internal/vector"
	"github.com/hyperjump/kenja/internal/watcher"
	"github.com/hyperjump/kenja/pkg/metrics"
	"github.com/hyperjump/kenja/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kenja/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory is preferred if it exists. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "run":
		runPipeline(false)
	case "score":
		runPipeline(true)
	case "query":
		runQuery()
	case "similar":
		runSimilar()
	case "experts":
		runExperts()
	case "watch":
		runWatch()
	case "schedule":
		runSchedule()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("kenja version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and builds the logger. It exits the process on failure.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runPipeline(scoreOnly bool) {
	name := "run"
	if scoreOnly {
		name = "score"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (skipped records, per-signal loads, uploads)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, 0)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	var res *indexer.Result
	if scoreOnly {
		res, err = components.Indexer.ScoreOnly(ctx)
	} else {
		res, err = components.Indexer.Run(ctx, metrics.TriggerManual)
	}
	if err != nil {
		logger.Fatal("Run failed", zap.Error(err))
	}
	printRunSummary(res)
}

func printRunSummary(res *indexer.Result) {
	fmt.Printf("Run %s finished in %s\n", res.Run.ID, res.Run.Duration().Round(time.Millisecond))
	fmt.Printf("  records:    %d\n", res.Run.Records)
	if res.Run.Users > 0 {
		fmt.Printf("  users:      %d\n", res.Run.Users)
		fmt.Printf("  dimensions: %d\n", res.Run.Dimensions)
	}
	if n := res.Stats.SkippedUsers + res.Stats.SkippedEntries; n > 0 {
		fmt.Printf("  skipped:    %d (%d user ids, %d badge entries)\n", n, res.Stats.SkippedUsers, res.Stats.SkippedEntries)
	}
	for _, p := range res.Artifacts {
		fmt.Printf("  wrote %s\n", p)
	}
	for _, k := range res.Published {
		fmt.Printf("  published %s\n", k)
	}
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	k := fs.Int("k", 10, "number of neighbours")
	vec := fs.String("vector", "", "query vector, comma separated")
	userID := fs.Int64("user", 0, "query by indexed user id instead of a vector")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	q := &models.NeighborQuery{K: *k}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "user" {
			q.UserID = userID
		}
	})
	if *vec != "" {
		v, err := cli.ParseVector(*vec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid vector: %v\n", err)
			os.Exit(1)
		}
		q.Vector = v
	}
	if err := q.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid query: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: kenja query [-k n] (-vector 1,2,... | -user id)")
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, needIndex)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	response, err := components.Engine.Neighbors(context.Background(), q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteNeighbors(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSimilar() {
	args := cli.ReorderArgs(os.Args[2:])
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	k := fs.Int("k", 10, "number of similar users")
	showProfile := fs.Bool("profile", false, "also print the user's expertise scores")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(args)
	format := parseFormat(*outputFormat)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: kenja similar [flags] <user-id>")
		os.Exit(1)
	}
	userID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user id %q\n", fs.Arg(0))
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, needIndex)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	response, err := components.Engine.Neighbors(ctx, models.NeighborsOf(userID, *k))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if *showProfile {
		scores, err := components.Engine.Profile(ctx, userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Profile lookup failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteProfile(os.Stdout, userID, scores, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteNeighbors(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExperts() {
	args := cli.ReorderArgs(os.Args[2:])
	fs := flag.NewFlagSet("experts", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of experts")
	tags := fs.Int("tags", 3, "maximum number of tags the text may resolve to")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy tag matching for typo tolerance")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(args)
	format := parseFormat(*outputFormat)

	text := cli.JoinArgs(fs.Args())
	if text == "" {
		fmt.Fprintln(os.Stderr, "Usage: kenja experts [flags] <tag or text>")
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, needTags)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	q := &models.ExpertQuery{Text: text, Limit: *limit, Tags: *tags, Fuzzy: *fuzzy}
	response, err := components.Engine.Experts(ctx, q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		os.Exit(1)
	}
	// Retry with fuzzy matching when nothing resolved.
	if !q.Fuzzy && len(response.Tags) == 0 {
		q.Fuzzy = true
		if fuzzyResponse, err := components.Engine.Experts(ctx, q); err == nil && len(fuzzyResponse.Tags) > 0 {
			response = fuzzyResponse
		}
	}
	if err := cli.WriteExperts(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// watchedInputs returns every input file whose change should trigger a run.
func watchedInputs(cfg *config.Config) []string {
	files := cfg.Inputs.SignalPaths()
	if cfg.Inputs.UsersTable != "" {
		files = append(files, cfg.Inputs.UsersTable)
	}
	return files
}

// triggerRun runs the pipeline for a trigger and logs the outcome. Overlapping triggers are
// logged by the indexer and dropped.
func triggerRun(ctx context.Context, idx *indexer.Indexer, logger *zap.Logger, trigger string) {
	res, err := idx.Run(ctx, trigger)
	if errors.Is(err, indexer.ErrRunInProgress) {
		return
	}
	if err != nil {
		logger.Error("triggered run failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	logger.Info("triggered run committed",
		zap.String("trigger", trigger),
		zap.String("run_id", res.Run.ID.String()),
		zap.Int("records", res.Run.Records),
		zap.Int("users", res.Run.Users),
	)
}

func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, skipped records)")
	initial := fs.Bool("initial", true, "run once at startup before watching")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, 0)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *initial {
		triggerRun(ctx, components.Indexer, logger, metrics.TriggerManual)
	}

	w := watcher.NewWatcher(
		watchedInputs(cfg),
		func(paths []string) {
			logger.Info("inputs changed", zap.Strings("paths", paths))
			triggerRun(ctx, components.Indexer, logger, metrics.TriggerWatch)
		},
		watcher.WithLogger(logger),
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
	)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	logger.Info("watching inputs", zap.Strings("dirs", w.Dirs()))

	waitForSignal()
	logger.Info("Shutting down...")
	w.Stop()
	cancel()
}

func runSchedule() {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	cronExpr := fs.String("cron", "", "cron expression (default from schedule.cron in config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *cronExpr == "" {
		*cronExpr = cfg.Schedule.Cron
	}
	if *cronExpr == "" {
		logger.Fatal("No cron expression: set schedule.cron or pass -cron")
	}

	components, err := initializeComponents(cfg, logger, 0)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched, err := scheduler.NewScheduler(cfg.Schedule.Timezone, scheduler.WithLogger(logger))
	if err != nil {
		logger.Fatal("Failed to create scheduler", zap.Error(err))
	}
	if err := sched.Schedule(*cronExpr, func() {
		triggerRun(ctx, components.Indexer, logger, metrics.TriggerSchedule)
	}); err != nil {
		logger.Fatal("Invalid schedule", zap.String("cron", *cronExpr), zap.Error(err))
	}
	sched.Start()
	logger.Info("scheduler started", zap.String("cron", *cronExpr), zap.Time("next", sched.Next()))

	waitForSignal()
	logger.Info("Shutting down...")
	cancel()
	sched.Stop()
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	TopK         int    `json:"top_k"`
	IndexType    string `json:"index_type"`
	ScoresPath   string `json:"scores_path"`
	IndexPath    string `json:"index_path"`
	DatabasePath string `json:"database_path"`
	TagIndexPath string `json:"tag_index_path"`
	Schedule     string `json:"schedule,omitempty"`
	PublishTo    string `json:"publish_to,omitempty"`
}

// statusResponse is the shape of the status output.
type statusResponse struct {
	Scores          int64                 `json:"scores"`
	Tags            *uint64               `json:"tags,omitempty"` // nil while another process holds the directory
	VectorIndexSize int                   `json:"vector_index_size"`
	VectorIndexType string                `json:"vector_index_type,omitempty"`
	Dimensions      int                   `json:"dimensions,omitempty"`
	LastRun         *models.Run           `json:"last_run,omitempty"`
	RecentRuns      []*models.Run         `json:"recent_runs,omitempty"`
	DiskUsageBytes  *int64                `json:"disk_usage_bytes,omitempty"`
	Config          *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	runs := fs.Int("runs", 5, "number of recent runs to list")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, needIndex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	status, err := collectStatus(context.Background(), cfg, components, *runs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printStatus(status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func collectStatus(ctx context.Context, cfg *config.Config, c *Components, runs int) (*statusResponse, error) {
	scoreCount, err := c.Storage.CountScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("count scores: %w", err)
	}
	status := &statusResponse{
		Scores:          scoreCount,
		Tags:            countTags(c.Tags, cfg.Outputs.TagIndexPath),
		VectorIndexSize: c.Engine.IndexSize(),
		Config: &statusConfigResponse{
			TopK:         cfg.Vectors.TopK,
			IndexType:    cfg.Vectors.IndexType,
			ScoresPath:   cfg.Outputs.ScoresPath,
			IndexPath:    cfg.Outputs.IndexPath,
			DatabasePath: cfg.Outputs.DatabasePath,
			TagIndexPath: cfg.Outputs.TagIndexPath,
			Schedule:     cfg.Schedule.Cron,
		},
	}
	if c.VectorIndex != nil {
		status.Dimensions = c.VectorIndex.Dimensions()
		status.VectorIndexType = c.VectorIndex.Type()
	}
	if cfg.Publish.Enabled() {
		status.Config.PublishTo = "s3://" + cfg.Publish.Bucket + "/" + cfg.Publish.Prefix
	}
	last, err := c.Storage.LatestRun(ctx)
	switch {
	case err == nil:
		status.LastRun = last
	case !errors.Is(err, storage.ErrNoRuns):
		return nil, fmt.Errorf("latest run: %w", err)
	}
	if runs > 0 {
		if status.RecentRuns, err = c.Storage.ListRuns(ctx, runs); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
	}
	diskBytes, err := storage.DiskUsageBytes(
		cfg.Outputs.ScoresPath, cfg.Outputs.IndexPath, cfg.Outputs.IDsPath,
		cfg.Outputs.DatabasePath, cfg.Outputs.TagIndexPath, cfg.Outputs.ReportPath,
	)
	if err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

// countTags counts the tags in the directory. An unopened directory is opened briefly; nil
// means it does not exist yet or another process holds it.
func countTags(tags keyword.TagDirectory, path string) *uint64 {
	if tags == nil {
		if _, err := os.Stat(path); err != nil {
			return nil
		}
		opened, err := keyword.NewBleveIndex(path)
		if err != nil {
			return nil
		}
		defer opened.Close()
		tags = opened
	}
	n, err := tags.DocCount()
	if err != nil {
		return nil
	}
	return &n
}

func printStatus(status *statusResponse) {
	fmt.Printf("scores:             %d   # stored (user, tag) expertise scores\n", status.Scores)
	if status.Tags != nil {
		fmt.Printf("tags:               %d   # tags in the tag directory\n", *status.Tags)
	} else {
		fmt.Println("tags:               -   # tag directory missing or held by another process")
	}
	fmt.Printf("vector_index_size:  %d   # users in the similarity index\n", status.VectorIndexSize)
	if status.VectorIndexType != "" {
		fmt.Printf("vector_index_type:  %s\n", status.VectorIndexType)
	}
	if status.Dimensions > 0 {
		fmt.Printf("dimensions:         %d\n", status.Dimensions)
	}
	if status.DiskUsageBytes != nil {
		fmt.Printf("disk_usage_bytes:   %d   # artifacts, store and tag directory on disk\n", *status.DiskUsageBytes)
	}
	if status.LastRun != nil {
		fmt.Printf("last_run:           %s at %s (%s)\n", status.LastRun.ID,
			status.LastRun.FinishedAt.Format(time.RFC3339), status.LastRun.Duration().Round(time.Millisecond))
	}
	if len(status.RecentRuns) > 1 {
		fmt.Println()
		fmt.Println("# recent runs")
		for _, r := range status.RecentRuns {
			fmt.Printf("%s  %s  records=%d users=%d\n", r.ID, r.FinishedAt.Format(time.RFC3339), r.Records, r.Users)
		}
	}
	if c := status.Config; c != nil {
		fmt.Println()
		fmt.Println("# configuration")
		fmt.Printf("top_k:              %d\n", c.TopK)
		fmt.Printf("index_type:         %s\n", c.IndexType)
		fmt.Printf("scores_path:        %s\n", c.ScoresPath)
		fmt.Printf("index_path:         %s\n", c.IndexPath)
		fmt.Printf("database_path:      %s\n", c.DatabasePath)
		fmt.Printf("tag_index_path:     %s\n", c.TagIndexPath)
		if c.Schedule != "" {
			fmt.Printf("schedule:           %s\n", c.Schedule)
		}
		if c.PublishTo != "" {
			fmt.Printf("publish_to:         %s\n", c.PublishTo)
		}
	}
}

// Components holds initialized services.
type Components struct {
	Storage     storage.Storage
	VectorIndex vector.VectorIndex // nil when no committed index could be loaded
	Tags        keyword.TagDirectory
	Metrics     *metrics.Registry
	Engine      *search.Engine
	Indexer     *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Tags != nil {
		_ = c.Tags.Close()
	}
}

// need selects the optional components a command opens.
type need uint8

const (
	// needIndex loads the committed similarity index.
	needIndex need = 1 << iota
	// needTags opens the tag directory for the life of the process. Only lookups set it;
	// the indexer opens the directory itself for each refresh.
	needTags
)

// initializeComponents opens the score store and wires the indexer and query engine, plus the
// optional components selected by needs.
func initializeComponents(cfg *config.Config, logger *zap.Logger, needs need) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Outputs.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	if needs&needTags != 0 {
		tags, err := keyword.NewBleveIndex(cfg.Outputs.TagIndexPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize tag directory: %w", err)
		}
		c.Tags = tags
	}

	if needs&needIndex != 0 {
		index, err := vector.LoadFlat(cfg.Outputs.IndexPath, cfg.Outputs.IDsPath)
		if err != nil {
			logger.Warn("similarity index not loaded (run `kenja run` first)",
				zap.String("path", cfg.Outputs.IndexPath), zap.Error(err))
		} else {
			c.VectorIndex = index
			logger.Debug("similarity index loaded",
				zap.String("run_id", index.RunID().String()),
				zap.Int("users", index.Size()),
				zap.Int("dimensions", index.Dimensions()))
		}
	}

	reg, err := metrics.NewRegistry(cfg.Metrics.Namespace)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Metrics = reg

	idxOpts := []indexer.IndexerOption{
		indexer.WithLogger(logger),
		indexer.WithStorage(store),
		indexer.WithTagDirectory(keyword.PathOpener(cfg.Outputs.TagIndexPath)),
		indexer.WithMetrics(reg),
	}
	if cfg.Publish.Enabled() {
		pub, err := publish.NewPublisher(cfg.Publish, publish.WithLogger(logger))
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize publisher: %w", err)
		}
		idxOpts = append(idxOpts, indexer.WithPublisher(pub))
	}
	c.Indexer = indexer.NewIndexer(cfg, idxOpts...)

	c.Engine = search.NewEngine(store, c.VectorIndex, c.Tags)
	return c, nil
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file path to write")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*configPath, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

// writeDefaultConfig saves a config holding every default to path. Paths stay relative so the
// file can be moved next to the data it describes.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func printUsage() {
	fmt.Println(`kenja - Topic expertise scoring and similar-user search

Usage:
  kenja run [flags]                  Run the full pipeline and commit all artifacts
  kenja score [flags]                Score only; commit the expertise-score file
  kenja query [flags]                Nearest users to a vector or an indexed user
  kenja similar [flags] <user-id>    Users most similar to a user
  kenja experts [flags] <text>       Strongest users on the tags matching text
  kenja watch [flags]                Re-run whenever an input file changes
  kenja schedule [flags]             Re-run on a cron schedule
  kenja status [flags]               Show store, index and run status
  kenja init [flags]                 Write a config file with every default filled in
  kenja version                      Show version
  kenja help                         Show this help

Common Flags:
  --config string    Config file path (default: ./config.yaml if present, else /usr/local/etc/kenja/config.yaml)
  --debug            Enable debug logging (run, score, watch, schedule)

Query Flags:
  --k int            Number of neighbours (default: 10)
  --vector string    Query vector, comma separated
  --user int         Query by indexed user id
  --output string    Output format: text, compact, or json (default: text)

Similar Flags:
  --k int            Number of similar users (default: 10)
  --profile          Also print the user's expertise scores
  --output string    Output format: text, compact, or json (default: text)

Experts Flags:
  --limit int        Number of experts (default: 10)
  --tags int         Maximum tags the text may resolve to (default: 3)
  --fuzzy            Enable fuzzy tag matching (retried automatically when nothing matches)
  --output string    Output format: text, compact, or json (default: text)

Watch Flags:
  --initial          Run once at startup (default: true)

Schedule Flags:
  --cron string      Cron expression (default: schedule.cron from config)

Status Flags:
  --runs int         Number of recent runs to list (default: 5)
  --output string    Output format: text or json (default: text)

Init Flags:
  --config string    Path to write (default: ./config.yaml)
  --force            Overwrite an existing file

Examples:
  kenja init
  kenja run
  kenja experts python
  kenja experts --fuzzy --limit 5 "pyhton pandas"
  kenja similar --k 5 22656
  kenja query --k 3 --vector 1200,1,4,10,30,120,0.25,40,2.5,3.1,0.9,0.4,0,0,0,0,0,0,2,0.65
  kenja schedule --cron "0 3 * * *"
  kenja status --output json`)
}
