package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kenja/internal/models"
)

func TestStage_CommitAndDiscard(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "a.json")

	st := newStage("r1")
	tmp, err := st.path(dest)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tmp, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("destination should not exist before commit")
	}
	if err := st.commit(); err != nil {
		t.Fatal(err)
	}
	if data, err := os.ReadFile(dest); err != nil || string(data) != "new" {
		t.Fatalf("committed content = %q (%v)", data, err)
	}

	st = newStage("r2")
	tmp, err = st.path(dest)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tmp, []byte("discarded"), 0644); err != nil {
		t.Fatal(err)
	}
	// A registered but never written file must not make discard fail.
	if _, err := st.path(filepath.Join(dir, "never-written")); err != nil {
		t.Fatal(err)
	}
	if err := st.discard(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("staged file should be removed by discard")
	}
	if data, _ := os.ReadFile(dest); string(data) != "new" {
		t.Errorf("discard touched the committed file: %q", data)
	}
}

func TestWriteScores_rounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	err := writeScores(path, []models.ExpertiseScore{
		{UserID: 7, Tag: "go", Score: 0.123456},
		{UserID: 7, Tag: "rust", Score: 1},
		{UserID: 12, Tag: "go", Score: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := readScores(t, path)
	if len(m["7"]) != 2 || len(m["12"]) != 1 {
		t.Fatalf("scores = %v", m)
	}
	if got := scoreOf(m["7"], "go"); got != 0.1235 {
		t.Errorf("rounded score = %v, want 0.1235", got)
	}
}
