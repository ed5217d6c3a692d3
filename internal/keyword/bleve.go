package keyword

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/kenja/internal/models"
)

// LockTimeout bounds how long opening an on-disk directory waits for another process that
// holds it.
const LockTimeout = time.Second

// ErrClosed is returned by lookups after a failed rebuild left no usable index.
var ErrClosed = errors.New("tag directory is closed")

// exactTagBoost lifts a verbatim tag match above partial name matches.
const exactTagBoost = 5.0

// tagDoc is the indexed form of a tag.
type tagDoc struct {
	Tag      string  `json:"tag"`
	Name     string  `json:"name"` // tag with separators replaced by spaces
	Users    int     `json:"users"`
	MaxScore float64 `json:"max_score"`
}

// BleveIndex implements TagDirectory using Bleve.
type BleveIndex struct {
	path  string
	mu    sync.RWMutex
	index bleve.Index
}

func newTagMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	nameFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so "testing" does not resolve to "test".
	nameFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)
	docMapping.AddFieldMappingsAt("tag", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("users", bleve.NewNumericFieldMapping())
	docMapping.AddFieldMappingsAt("max_score", bleve.NewNumericFieldMapping())
	im.AddDocumentMapping("tag", docMapping)
	im.DefaultType = "tag"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a tag directory at path. An empty path keeps the index in memory.
func NewBleveIndex(path string) (*BleveIndex, error) {
	index, err := openOrCreate(path)
	if err != nil {
		return nil, err
	}
	return &BleveIndex{path: path, index: index}, nil
}

func openOrCreate(path string) (bleve.Index, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newTagMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return index, nil
	}
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.OpenUsing(path, lockConfig())
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return index, nil
	}
	index, err := bleve.NewUsing(path, newTagMapping(), bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, lockConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return index, nil
}

// lockConfig makes the bolt file lock fail after LockTimeout instead of waiting forever.
func lockConfig() map[string]interface{} {
	return map[string]interface{}{"bolt_timeout": LockTimeout.String()}
}

// Rebuild indexes one document per distinct tag in scores into a fresh index and swaps it in.
// The live index keeps serving until the new one is complete.
func (b *BleveIndex) Rebuild(ctx context.Context, scores []models.ExpertiseScore) error {
	docs := make(map[string]*tagDoc)
	for _, s := range scores {
		d, ok := docs[s.Tag]
		if !ok {
			d = &tagDoc{Tag: s.Tag, Name: tagName(s.Tag)}
			docs[s.Tag] = d
		}
		d.Users++
		if s.Score > d.MaxScore {
			d.MaxScore = s.Score
		}
	}

	if b.path == "" {
		index, err := openOrCreate("")
		if err != nil {
			return err
		}
		if err := fill(ctx, index, docs); err != nil {
			_ = index.Close()
			return err
		}
		b.mu.Lock()
		old := b.index
		b.index = index
		b.mu.Unlock()
		if old != nil {
			_ = old.Close()
		}
		return nil
	}

	// Build next to the live directory, then swap it in by rename.
	next := b.path + ".rebuild"
	if err := os.RemoveAll(next); err != nil {
		return fmt.Errorf("failed to remove Bleve index: %w", err)
	}
	index, err := openOrCreate(next)
	if err != nil {
		return err
	}
	if err := fill(ctx, index, docs); err != nil {
		_ = index.Close()
		_ = os.RemoveAll(next)
		return err
	}
	if err := index.Close(); err != nil {
		_ = os.RemoveAll(next)
		return fmt.Errorf("failed to close Bleve index: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index != nil {
		if err := b.index.Close(); err != nil {
			_ = os.RemoveAll(next)
			return fmt.Errorf("failed to close Bleve index: %w", err)
		}
		b.index = nil
	}
	swapErr := os.RemoveAll(b.path)
	if swapErr == nil {
		swapErr = os.Rename(next, b.path)
	}
	// Reopen whatever is at path so lookups keep working after a failed swap.
	index, err = openOrCreate(b.path)
	if err != nil {
		return errors.Join(swapErr, err)
	}
	b.index = index
	if swapErr != nil {
		return fmt.Errorf("failed to replace Bleve index: %w", swapErr)
	}
	return nil
}

func fill(ctx context.Context, index bleve.Index, docs map[string]*tagDoc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := index.NewBatch()
	for tag, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(tag, d); err != nil {
			return fmt.Errorf("failed to index tag %q: %w", tag, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return fmt.Errorf("failed to write tag batch: %w", err)
	}
	return nil
}

// Resolve returns up to limit tags matching text, best first. A verbatim tag match always
// ranks above partial matches. Equal scores are ordered by tag.
func (b *BleveIndex) Resolve(ctx context.Context, text string, limit int, opts *ResolveOptions) ([]*TagMatch, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}
	fuzzyEnabled, fuzziness := false, 0
	if opts != nil {
		fuzzyEnabled = opts.FuzzyEnabled
		fuzziness = opts.Fuzziness
	}

	exact := bleve.NewTermQuery(text)
	exact.SetField("tag")
	exact.SetBoost(exactTagBoost)

	queries := []blevequery.Query{exact}
	if fuzzyEnabled {
		queries = append(queries, buildFuzzyQuery(tagName(text), fuzziness)...)
	} else {
		mq := bleve.NewMatchQuery(tagName(text))
		mq.SetField("name")
		queries = append(queries, mq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = limit
	req.Fields = []string{"users"}

	b.mu.RLock()
	if b.index == nil {
		b.mu.RUnlock()
		return nil, ErrClosed
	}
	results, err := b.index.SearchInContext(ctx, req)
	b.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*TagMatch, 0, len(results.Hits))
	for _, hit := range results.Hits {
		m := &TagMatch{Tag: hit.ID, Score: hit.Score}
		if users, ok := hit.Fields["users"].(float64); ok {
			m.Users = int(users)
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// buildFuzzyQuery creates one FuzzyQuery per term of name against the name field.
func buildFuzzyQuery(name string, fuzziness int) []blevequery.Query {
	terms := strings.Fields(name)
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		f := fuzziness
		if f <= 0 {
			f = 1
			if len(term) >= 5 {
				f = 2
			}
		}
		fq.SetFuzziness(f)
		fq.SetField("name")
		queries = append(queries, fq)
	}
	return queries
}

// tagName turns tag separators into spaces so that "machine-learning" is searchable by word.
func tagName(tag string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(tag), func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == '/' || r == ' '
	}), " ")
}

// DocCount returns the number of indexed tags.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return 0, ErrClosed
	}
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return nil
	}
	err := b.index.Close()
	b.index = nil
	return err
}
