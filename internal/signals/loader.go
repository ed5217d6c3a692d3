package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/kenja/internal/config"
	"github.com/hyperjump/kenja/internal/models"
)

// Inputs holds the raw per-signal mappings read from disk.
type Inputs struct {
	Tags   map[models.Signal]map[string][]string
	Badges map[string][]any
}

// Loader reads signal mappings from JSON files.
type Loader struct {
	logger *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for skipped-record reports.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads all five signal files named by in. Every file is required; the first missing or
// undecodable file aborts the load.
func (l *Loader) Load(ctx context.Context, in config.InputConfig) (*Inputs, error) {
	paths := map[models.Signal]string{
		models.SignalAccepted:  in.AcceptedAnswers,
		models.SignalAnswers:   in.Answers,
		models.SignalComments:  in.Comments,
		models.SignalQuestions: in.Questions,
	}
	inputs := &Inputs{Tags: make(map[models.Signal]map[string][]string, len(paths))}
	for _, sig := range models.TagSignals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := LoadTagMap(paths[sig])
		if err != nil {
			return nil, err
		}
		l.logger.Debug("signal loaded", zap.String("signal", string(sig)), zap.String("path", paths[sig]), zap.Int("users", len(m)))
		inputs.Tags[sig] = m
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	badges, err := LoadBadgeMap(in.TagBadges)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("signal loaded", zap.String("signal", string(models.SignalBadges)), zap.String("path", in.TagBadges), zap.Int("users", len(badges)))
	inputs.Badges = badges
	return inputs, nil
}

// Aggregated holds the tuple sets of all five signals.
type Aggregated struct {
	Tags   map[models.Signal][]models.TagSignal
	Badges []models.BadgeSignal
	Stats  Stats
}

// Aggregate converts raw inputs into tuple sets, logging skipped keys and entries.
func (l *Loader) Aggregate(inputs *Inputs, ranks BadgeRanks) *Aggregated {
	agg := &Aggregated{Tags: make(map[models.Signal][]models.TagSignal, len(inputs.Tags))}
	for _, sig := range models.TagSignals {
		tuples, st := AggregateTags(inputs.Tags[sig])
		if st.SkippedUsers > 0 {
			l.logger.Debug("skipped non-integer user ids", zap.String("signal", string(sig)), zap.Int("count", st.SkippedUsers))
		}
		agg.Tags[sig] = tuples
		agg.Stats.Add(st)
	}
	badges, st := AggregateBadges(inputs.Badges, ranks)
	if st.SkippedUsers > 0 || st.SkippedEntries > 0 {
		l.logger.Debug("skipped malformed badge records",
			zap.Int("user_ids", st.SkippedUsers),
			zap.Int("entries", st.SkippedEntries),
		)
	}
	agg.Badges = badges
	agg.Stats.Add(st)
	return agg
}

// LoadTagMap reads a user id -> tag list mapping.
func LoadTagMap(path string) (map[string][]string, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputMalformed, path, err)
	}
	return m, nil
}

// LoadBadgeMap reads a user id -> badge entry list mapping. Entries are left undecoded so that
// malformed ones can be skipped individually; numbers are kept as json.Number.
func LoadBadgeMap(path string) (map[string][]any, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string][]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputMalformed, path, err)
	}
	return m, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no path configured", ErrInputMissing)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputMissing, err)
	}
	return data, nil
}
