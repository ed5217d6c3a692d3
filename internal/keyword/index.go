// Package keyword provides the tag directory: a Bleve index over the scored tag vocabulary
// used to resolve free text to tags.
package keyword

import (
	"context"
	"errors"

	"github.com/hyperjump/kenja/internal/models"
)

// ErrEmptyQuery is returned when Resolve is called with blank text.
var ErrEmptyQuery = errors.New("empty tag query")

// ResolveOptions optional parameters for tag resolution. Nil means use defaults.
type ResolveOptions struct {
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance (1 or 2). When 0, terms shorter
	// than 5 characters use 1 and longer terms use 2.
	Fuzziness int
}

// TagDirectory defines tag indexing and lookup.
type TagDirectory interface {
	// Rebuild replaces the whole directory with the tags found in scores.
	Rebuild(ctx context.Context, scores []models.ExpertiseScore) error
	Resolve(ctx context.Context, text string, limit int, opts *ResolveOptions) ([]*TagMatch, error)
	DocCount() (uint64, error)
	Close() error
}

// Opener opens a tag directory. The caller closes what it opens.
type Opener func() (TagDirectory, error)

// PathOpener returns an Opener for the Bleve tag directory at path.
func PathOpener(path string) Opener {
	return func() (TagDirectory, error) {
		index, err := NewBleveIndex(path)
		if err != nil {
			return nil, err
		}
		return index, nil
	}
}

// TagMatch is a single resolved tag.
type TagMatch struct {
	Tag   string
	Users int
	Score float64
}
