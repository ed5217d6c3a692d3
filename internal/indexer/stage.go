package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/kenja/internal/models"
	"github.com/hyperjump/kenja/pkg/utils"
)

// stagedFile is an artifact written next to its destination, waiting to be renamed into place.
type stagedFile struct {
	tmp  string
	dest string
}

// stage collects the artifacts of one run. Nothing is visible at a destination path until commit.
type stage struct {
	suffix string
	files  []stagedFile
}

func newStage(runID string) *stage {
	return &stage{suffix: ".staging-" + runID}
}

// path registers dest and returns the temporary path to write it to. The destination
// directory is created if needed.
func (s *stage) path(dest string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	tmp := dest + s.suffix
	s.files = append(s.files, stagedFile{tmp: tmp, dest: dest})
	return tmp, nil
}

// destinations returns the committed paths in staging order.
func (s *stage) destinations() []string {
	out := make([]string, len(s.files))
	for i, f := range s.files {
		out[i] = f.dest
	}
	return out
}

// commit renames every staged file onto its destination.
func (s *stage) commit() error {
	for i, f := range s.files {
		if err := os.Rename(f.tmp, f.dest); err != nil {
			rest := &stage{files: s.files[i:]}
			return errors.Join(fmt.Errorf("commit %s: %w", f.dest, err), rest.discard())
		}
	}
	s.files = nil
	return nil
}

// discard removes every staged file that still exists.
func (s *stage) discard() error {
	var errs []error
	for _, f := range s.files {
		if err := os.Remove(f.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	s.files = nil
	return errors.Join(errs...)
}

type scoreEntry struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"expertise_score"`
}

// writeScores writes the expertise-score file: user id string -> tag scores rounded to 4 places.
func writeScores(path string, scores []models.ExpertiseScore) error {
	out := make(map[string][]scoreEntry)
	for _, s := range scores {
		key := strconv.FormatInt(s.UserID, 10)
		out[key] = append(out[key], scoreEntry{Tag: s.Tag, Score: utils.Round(s.Score, 4)})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}
