package keyword

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kenja/internal/models"
)

func testScores() []models.ExpertiseScore {
	return []models.ExpertiseScore{
		{UserID: 1, Tag: "python", Score: 0.9},
		{UserID: 2, Tag: "python", Score: 0.4},
		{UserID: 1, Tag: "python-3.x", Score: 0.3},
		{UserID: 3, Tag: "javascript", Score: 0.7},
		{UserID: 3, Tag: "machine-learning", Score: 0.2},
	}
}

func newTestIndex(t *testing.T, path string) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.Rebuild(context.Background(), testScores()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return idx
}

func TestBleveIndex_ResolveExactFirst(t *testing.T) {
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "tags.bleve"))

	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("DocCount = %d, want 4", n)
	}

	got, err := idx.Resolve(context.Background(), "Python", 5, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected python and python-3.x, got %+v", got)
	}
	if got[0].Tag != "python" {
		t.Errorf("first tag = %q, want python", got[0].Tag)
	}
	if got[0].Users != 2 {
		t.Errorf("python users = %d, want 2", got[0].Users)
	}
}

func TestBleveIndex_ResolveWord(t *testing.T) {
	idx := newTestIndex(t, "")
	got, err := idx.Resolve(context.Background(), "learning", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Tag != "machine-learning" {
		t.Errorf("Resolve(learning) = %+v", got)
	}
}

func TestBleveIndex_ResolveFuzzy(t *testing.T) {
	idx := newTestIndex(t, "")
	ctx := context.Background()

	plain, err := idx.Resolve(ctx, "javascrpt", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(plain) != 0 {
		t.Errorf("non-fuzzy typo matched %+v", plain)
	}

	got, err := idx.Resolve(ctx, "javascrpt", 5, &ResolveOptions{FuzzyEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].Tag != "javascript" {
		t.Errorf("fuzzy Resolve = %+v, want javascript first", got)
	}
}

func TestBleveIndex_RebuildReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := idx.Rebuild(ctx, testScores()); err != nil {
		t.Fatal(err)
	}
	if err := idx.Rebuild(ctx, []models.ExpertiseScore{{UserID: 1, Tag: "rust", Score: 1}}); err != nil {
		t.Fatal(err)
	}
	n, _ := idx.DocCount()
	if n != 1 {
		t.Errorf("DocCount after rebuild = %d, want 1", n)
	}
	got, _ := idx.Resolve(ctx, "python", 5, nil)
	if len(got) != 0 {
		t.Errorf("old tags survived rebuild: %+v", got)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err = reopened.Resolve(ctx, "rust", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Tag != "rust" {
		t.Errorf("reopened Resolve = %+v", got)
	}
}

func TestBleveIndex_openWhileHeldTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.bleve")
	holder := newTestIndex(t, path)

	done := make(chan error, 1)
	go func() {
		second, err := NewBleveIndex(path)
		if err == nil {
			_ = second.Close()
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Error("second open of a held directory should fail")
		}
	case <-time.After(LockTimeout + 5*time.Second):
		t.Fatal("second open did not return while the directory was held")
	}

	if err := holder.Close(); err != nil {
		t.Fatal(err)
	}
	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("open after release: %v", err)
	}
	_ = reopened.Close()
}

func TestBleveIndex_failedRebuildKeepsServing(t *testing.T) {
	for name, path := range map[string]string{
		"memory": "",
		"disk":   filepath.Join(t.TempDir(), "tags.bleve"),
	} {
		t.Run(name, func(t *testing.T) {
			idx := newTestIndex(t, path)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := idx.Rebuild(ctx, []models.ExpertiseScore{{UserID: 1, Tag: "rust", Score: 1}})
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Rebuild(canceled) = %v, want context.Canceled", err)
			}
			if n, err := idx.DocCount(); err != nil || n != 4 {
				t.Errorf("DocCount after failed rebuild = %d, %v; want 4", n, err)
			}
			got, err := idx.Resolve(context.Background(), "python", 5, nil)
			if err != nil || len(got) == 0 {
				t.Errorf("Resolve after failed rebuild = %+v, %v", got, err)
			}
			if path != "" {
				if _, err := os.Stat(path + ".rebuild"); !os.IsNotExist(err) {
					t.Errorf("rebuild directory left behind: %v", err)
				}
			}
		})
	}
}

func TestPathOpener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.bleve")
	open := PathOpener(path)
	for i := 0; i < 2; i++ {
		dir, err := open()
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := dir.Rebuild(context.Background(), testScores()); err != nil {
			t.Fatal(err)
		}
		if err := dir.Close(); err != nil {
			t.Fatal(err)
		}
	}
	dir, err := open()
	if err != nil {
		t.Fatal(err)
	}
	defer dir.Close()
	if n, err := dir.DocCount(); err != nil || n != 4 {
		t.Errorf("DocCount = %d, %v; want 4", n, err)
	}
}

func TestBleveIndex_ResolveEmpty(t *testing.T) {
	idx := newTestIndex(t, "")
	if _, err := idx.Resolve(context.Background(), "   ", 5, nil); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Resolve(blank) = %v, want ErrEmptyQuery", err)
	}
}

func TestTagName(t *testing.T) {
	tests := map[string]string{
		"python-3.x":       "python 3 x",
		"Machine_Learning": "machine learning",
		"c++":              "c++",
		"go":               "go",
	}
	for in, want := range tests {
		if got := tagName(in); got != want {
			t.Errorf("tagName(%q) = %q, want %q", in, got, want)
		}
	}
}
