package ranking

import (
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/kenja/internal/config"
	"github.com/hyperjump/kenja/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalize(t *testing.T) {
	records := []models.MergedRecord{
		{UserID: 1, Tag: "go", Accepted: 2, Answers: 10, Comments: 5},
		{UserID: 2, Tag: "go", Accepted: 4, Answers: 0, Comments: 5},
		{UserID: 3, Tag: "go", Accepted: 0, Answers: 5, Comments: 5},
	}
	got := Normalize(records)
	if len(got) != 3 {
		t.Fatalf("got %d records", len(got))
	}
	wantAccepted := []float64{0.5, 1, 0}
	wantAnswers := []float64{1, 0, 0.5}
	for i := range got {
		if !almostEqual(got[i].Accepted, wantAccepted[i]) {
			t.Errorf("record %d accepted = %v, want %v", i, got[i].Accepted, wantAccepted[i])
		}
		if !almostEqual(got[i].Answers, wantAnswers[i]) {
			t.Errorf("record %d answers = %v, want %v", i, got[i].Answers, wantAnswers[i])
		}
		// constant columns collapse to 0
		if got[i].Comments != 0 || got[i].Questions != 0 || got[i].BadgeScore != 0 {
			t.Errorf("record %d constant column not zero: %+v", i, got[i])
		}
	}
	if records[0].Accepted != 2 {
		t.Error("Normalize modified its input")
	}
}

func TestNormalize_singleRecord(t *testing.T) {
	got := Normalize([]models.MergedRecord{{UserID: 1, Tag: "go", Accepted: 7, BadgeScore: 3}})
	if got[0].Accepted != 0 || got[0].BadgeScore != 0 {
		t.Errorf("single record should normalize to zeros, got %+v", got[0])
	}
}

func TestNormalize_empty(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) = %+v", got)
	}
}

func TestNormalize_range(t *testing.T) {
	records := []models.MergedRecord{
		{UserID: 1, Tag: "a", Accepted: -3, Answers: 1e6, BadgeScore: 0.5},
		{UserID: 1, Tag: "b", Accepted: 9, Answers: 2, BadgeScore: 12},
		{UserID: 2, Tag: "a", Accepted: 1, Answers: 77, BadgeScore: 0},
	}
	for _, r := range Normalize(records) {
		for _, c := range models.Columns {
			if v := r.Value(c); v < 0 || v > 1 {
				t.Errorf("%s = %v out of [0,1]", c, v)
			}
		}
	}
}

func TestScorer_threeUsers(t *testing.T) {
	merged := []models.MergedRecord{
		{UserID: 1, Tag: "python", Accepted: 10},
		{UserID: 2, Tag: "python", Accepted: 5},
		{UserID: 3, Tag: "python", Accepted: 0},
	}
	s, err := NewScorer(DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}
	scores := s.ScoreAll(Normalize(merged))
	want := []float64{0.4, 0.2, 0.0}
	for i, sc := range scores {
		if !almostEqual(sc.Score, want[i]) {
			t.Errorf("user %d score = %v, want %v", sc.UserID, sc.Score, want[i])
		}
	}
}

func TestScorer_acceptedCountsTwoZeroOne(t *testing.T) {
	merged := []models.MergedRecord{
		{UserID: 1, Tag: "x", Accepted: 2},
		{UserID: 2, Tag: "x", Accepted: 0},
		{UserID: 3, Tag: "x", Accepted: 1},
	}
	normalized := Normalize(merged)
	wantAccepted := []float64{1, 0, 0.5}
	for i, r := range normalized {
		if !almostEqual(r.Accepted, wantAccepted[i]) {
			t.Errorf("user %d accepted_n = %v, want %v", r.UserID, r.Accepted, wantAccepted[i])
		}
	}

	s, err := NewScorer(DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.4, 0.0, 0.2}
	for i, sc := range s.ScoreAll(normalized) {
		if !almostEqual(sc.Score, want[i]) {
			t.Errorf("user %d score = %v, want %v", sc.UserID, sc.Score, want[i])
		}
	}
}

func TestScorer_maxRecordScoresOne(t *testing.T) {
	s, _ := NewScorer(DefaultWeights())
	r := &models.NormalizedRecord{MergedRecord: models.MergedRecord{Accepted: 1, Answers: 1, Comments: 1, Questions: 1, BadgeScore: 1}}
	if got := s.Score(r); !almostEqual(got, 1) || got > 1 {
		t.Errorf("Score() = %v, want 1", got)
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"defaults", DefaultWeights(), false},
		{"single column", Weights{Answers: 1}, false},
		{"sum too low", Weights{Accepted: 0.4, Answers: 0.3}, true},
		{"sum too high", Weights{Accepted: 0.9, Answers: 0.3}, true},
		{"negative", Weights{Accepted: 1.2, Answers: -0.2}, true},
		{"nan", Weights{Accepted: math.NaN(), Answers: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidWeights) {
				t.Errorf("Validate() = %v, want ErrInvalidWeights", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
	if _, err := NewScorer(Weights{}); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("NewScorer(zero) = %v", err)
	}
}

func TestWeightsFromConfig(t *testing.T) {
	half, zero := 0.5, 0.0
	w := WeightsFromConfig(config.WeightsConfig{Accepted: &half, Comments: &zero})
	if w.Accepted != 0.5 || w.Comments != 0 || w.Answers != 0.3 {
		t.Errorf("WeightsFromConfig() = %+v", w)
	}
	if err := w.Validate(); err == nil {
		t.Error("0.5+0.3+0+0.1+0.1 should not validate")
	}
}

func TestByUser(t *testing.T) {
	scores := []models.ExpertiseScore{{UserID: 2, Tag: "a"}, {UserID: 1, Tag: "b"}, {UserID: 2, Tag: "c"}}
	got := ByUser(scores)
	if len(got[2]) != 2 || got[2][1].Tag != "c" || len(got[1]) != 1 {
		t.Errorf("ByUser() = %+v", got)
	}
}
