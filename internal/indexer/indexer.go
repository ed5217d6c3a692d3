// Package indexer runs the expertise pipeline: it loads signals, scores every (user, tag) pair,
// builds user vectors and the similarity index, and commits the resulting artifacts.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kenja/internal/config"
	"github.com/hyperjump/kenja/internal/keyword"
	"github.com/hyperjump/kenja/internal/merge"
	"github.com/hyperjump/kenja/internal/models"
	"github.com/hyperjump/kenja/internal/profile"
	"github.com/hyperjump/kenja/internal/publish"
	"github.com/hyperjump/kenja/internal/ranking"
	"github.com/hyperjump/kenja/internal/report"
	"github.com/hyperjump/kenja/internal/signals"
	"github.com/hyperjump/kenja/internal/storage"
	"github.com/hyperjump/kenja/internal/vector"
	"github.com/hyperjump/kenja/pkg/metrics"
)

// Indexer runs the pipeline. Runs are serialized; a run requested while another is in
// progress fails fast with ErrRunInProgress.
type Indexer struct {
	cfg    *config.Config
	loader *signals.Loader
	logger *zap.Logger
	now    func() time.Time

	// Optional collaborators; nil disables the step.
	storage   storage.Storage
	tags      keyword.Opener
	publisher *publish.Publisher
	metrics   *metrics.Registry

	mu sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for run progress and skipped records.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithStorage sets the score store refreshed after every full run.
func WithStorage(s storage.Storage) IndexerOption {
	return func(idx *Indexer) { idx.storage = s }
}

// WithTagDirectory sets how the tag directory is opened. It is opened, rebuilt and closed
// after every full run, so it is held only while a run refreshes it.
func WithTagDirectory(open keyword.Opener) IndexerOption {
	return func(idx *Indexer) { idx.tags = open }
}

// WithPublisher sets the publisher that uploads committed artifacts.
func WithPublisher(p *publish.Publisher) IndexerOption {
	return func(idx *Indexer) { idx.publisher = p }
}

// WithMetrics sets the registry that records run metrics.
func WithMetrics(r *metrics.Registry) IndexerOption {
	return func(idx *Indexer) { idx.metrics = r }
}

// NewIndexer creates an indexer for cfg.
func NewIndexer(cfg *config.Config, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.loader = signals.NewLoader(signals.WithLogger(idx.logger))
	return idx
}

// Result describes a committed run.
type Result struct {
	Run       models.Run
	Stats     signals.Stats
	Artifacts []string // committed paths
	Published []string // object keys, when publishing is enabled
}

// scored is the output of the scoring half of the pipeline.
type scored struct {
	inputs *signals.Inputs
	stats  signals.Stats
	scores []models.ExpertiseScore
}

// Run executes the full pipeline and commits every artifact. trigger labels the run in metrics.
func (idx *Indexer) Run(ctx context.Context, trigger string) (*Result, error) {
	return idx.locked(trigger, func() (*Result, error) { return idx.run(ctx, true) })
}

// ScoreOnly runs the pipeline through scoring and commits only the expertise-score file.
func (idx *Indexer) ScoreOnly(ctx context.Context) (*Result, error) {
	return idx.locked(metrics.TriggerManual, func() (*Result, error) { return idx.run(ctx, false) })
}

func (idx *Indexer) locked(trigger string, fn func() (*Result, error)) (*Result, error) {
	if !idx.mu.TryLock() {
		idx.logger.Info("run skipped, another run is in progress", zap.String("trigger", trigger))
		if idx.metrics != nil {
			idx.metrics.Metrics.IncRuns(trigger, metrics.StatusSkipped)
		}
		return nil, ErrRunInProgress
	}
	defer idx.mu.Unlock()

	res, err := fn()
	idx.record(trigger, res, err)
	return res, err
}

func (idx *Indexer) run(ctx context.Context, full bool) (*Result, error) {
	started := idx.now()
	runID := uuid.New()
	log := idx.logger.With(zap.String("run_id", runID.String()))
	log.Info("run started", zap.Bool("full", full))

	sc, err := idx.score(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Run: models.Run{
			ID:        runID,
			StartedAt: started,
			Records:   len(sc.scores),
		},
		Stats: sc.stats,
	}

	st := newStage(runID.String())
	if err := idx.stageArtifacts(ctx, st, sc, full, res); err != nil {
		if derr := st.discard(); derr != nil {
			log.Warn("failed to remove staged artifacts", zap.Error(derr))
		}
		return nil, err
	}
	res.Artifacts = st.destinations()
	if err := st.commit(); err != nil {
		return nil, err
	}
	res.Run.FinishedAt = idx.now()
	log.Info("artifacts committed",
		zap.Strings("paths", res.Artifacts),
		zap.Int("records", res.Run.Records),
		zap.Int("users", res.Run.Users),
	)

	if full {
		if err := idx.refresh(ctx, res, sc.scores); err != nil {
			return res, err
		}
	}

	if idx.publisher != nil {
		keys, err := idx.publisher.Publish(ctx, runID, res.Artifacts)
		res.Published = keys
		if err != nil {
			return res, fmt.Errorf("publish artifacts: %w", err)
		}
	}

	log.Info("run finished", zap.Duration("duration", res.Run.Duration()))
	return res, nil
}

// score loads and aggregates every signal, merges, normalizes and scores.
func (idx *Indexer) score(ctx context.Context) (*scored, error) {
	weights := ranking.WeightsFromConfig(idx.cfg.Scoring.Weights)
	scorer, err := ranking.NewScorer(weights)
	if err != nil {
		return nil, err
	}

	inputs, err := idx.loader.Load(ctx, idx.cfg.Inputs)
	if err != nil {
		return nil, err
	}
	agg := idx.loader.Aggregate(inputs, signals.NewBadgeRanks(idx.cfg.Scoring.BadgeRanks))

	records := merge.Merge(agg.Tags, agg.Badges)
	scores := scorer.ScoreAll(ranking.Normalize(records))
	idx.logger.Debug("scores computed",
		zap.Int("records", len(records)),
		zap.Int("users", len(merge.Users(records))),
		zap.Int("skipped_user_ids", agg.Stats.SkippedUsers),
		zap.Int("skipped_badge_entries", agg.Stats.SkippedEntries),
	)
	return &scored{inputs: inputs, stats: agg.Stats, scores: scores}, nil
}

// stageArtifacts writes every artifact of the run to staging paths.
func (idx *Indexer) stageArtifacts(ctx context.Context, st *stage, sc *scored, full bool, res *Result) error {
	out := idx.cfg.Outputs
	tmp, err := st.path(out.ScoresPath)
	if err != nil {
		return err
	}
	if err := writeScores(tmp, sc.scores); err != nil {
		return err
	}
	if !full {
		return nil
	}

	index, err := idx.buildIndex(ctx, sc)
	if err != nil {
		return err
	}
	defer index.Close()
	index.SetRunID(res.Run.ID)
	res.Run.Users = index.Size()
	res.Run.Dimensions = index.Dimensions()

	indexTmp, err := st.path(out.IndexPath)
	if err != nil {
		return err
	}
	idsTmp, err := st.path(out.IDsPath)
	if err != nil {
		return err
	}
	if err := index.Save(indexTmp, idsTmp); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	if out.ReportPath != "" {
		reportTmp, err := st.path(out.ReportPath)
		if err != nil {
			return err
		}
		if err := report.WriteFile(reportTmp, sc.scores); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// buildIndex builds one vector per user and loads them into a fresh index.
func (idx *Indexer) buildIndex(ctx context.Context, sc *scored) (vector.VectorIndex, error) {
	var behaviors map[int64]*models.Behavior
	if path := idx.cfg.Inputs.UsersTable; path != "" {
		b, err := signals.LoadBehaviors(ctx, path)
		if err != nil {
			return nil, err
		}
		behaviors = b
	}
	behaviors = signals.DeriveBehaviors(behaviors, sc.inputs)

	builder := profile.NewBuilder(idx.cfg.Vectors.TopK)
	vectors := builder.Build(behaviors, sc.scores)

	index, err := vector.NewIndex(idx.cfg.Vectors.IndexType, builder.Dimensions())
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(vectors))
	vecs := make([][]float32, len(vectors))
	for i, v := range vectors {
		ids[i] = v.UserID
		vecs[i] = v.Features
	}
	if err := index.Add(ctx, ids, vecs); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("build index: %w", err)
	}
	return index, nil
}

// refresh replaces the score store contents and rebuilds the tag directory. Artifacts are
// already committed at this point, so a failure here does not roll them back.
func (idx *Indexer) refresh(ctx context.Context, res *Result, scores []models.ExpertiseScore) error {
	if idx.storage != nil {
		if err := idx.storage.ReplaceScores(ctx, &res.Run, scores); err != nil {
			return fmt.Errorf("update score store: %w", err)
		}
	}
	if idx.tags != nil {
		tags, err := idx.tags()
		if err != nil {
			return fmt.Errorf("open tag directory: %w", err)
		}
		rebuildErr := tags.Rebuild(ctx, scores)
		closeErr := tags.Close()
		if rebuildErr != nil {
			return fmt.Errorf("rebuild tag directory: %w", rebuildErr)
		}
		if closeErr != nil {
			return fmt.Errorf("close tag directory: %w", closeErr)
		}
	}
	return nil
}

// record updates metrics for a finished run and writes the textfile, if configured.
func (idx *Indexer) record(trigger string, res *Result, runErr error) {
	if runErr != nil {
		idx.logger.Error("run failed", zap.String("trigger", trigger), zap.Error(runErr))
	}
	if idx.metrics == nil {
		return
	}
	m := idx.metrics.Metrics
	if runErr != nil {
		m.IncRuns(trigger, metrics.StatusFailure)
	} else {
		m.IncRuns(trigger, metrics.StatusSuccess)
		m.ObserveSuccess(res.Run.Duration(), res.Run.Records, res.Run.Users, res.Run.Dimensions, res.Run.FinishedAt)
	}
	if res != nil {
		m.AddSkipped(metrics.SkipUserID, res.Stats.SkippedUsers)
		m.AddSkipped(metrics.SkipBadgeEntry, res.Stats.SkippedEntries)
		if n, err := storage.DiskUsageBytes(res.Artifacts...); err == nil {
			m.SetArtifactBytes(n)
		}
	}
	if err := idx.metrics.WriteTextfile(idx.cfg.Metrics.Textfile); err != nil {
		idx.logger.Warn("failed to write metrics textfile", zap.Error(err))
	}
}
