package models

import (
	"testing"
)

func TestExpertQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *ExpertQuery
		wantErr bool
	}{
		{"empty query", &ExpertQuery{Text: ""}, true},
		{"valid query", &ExpertQuery{Text: "python"}, false},
		{"sets default limit", &ExpertQuery{Text: "x", Limit: 0}, false},
		{"caps limit at 100", &ExpertQuery{Text: "x", Limit: 200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if tt.query.Limit == 0 {
					t.Error("expected default limit to be set")
				}
				if tt.query.Limit > 100 {
					t.Errorf("expected limit capped at 100, got %d", tt.query.Limit)
				}
				if tt.query.Tags != 3 {
					t.Errorf("expected default tag fan-out 3, got %d", tt.query.Tags)
				}
			}
		})
	}
}

func TestNeighborQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *NeighborQuery
		wantErr bool
	}{
		{"by user", NeighborsOf(7, 3), false},
		{"user zero", NeighborsOf(0, 1), false},
		{"by vector", &NeighborQuery{Vector: []float32{1, 2}, K: 1}, false},
		{"zero k", NeighborsOf(7, 0), true},
		{"neither set", &NeighborQuery{K: 2}, true},
		{"both set", &NeighborQuery{UserID: NeighborsOf(7, 2).UserID, Vector: []float32{1}, K: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.query.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergedRecord_ValueRoundTrip(t *testing.T) {
	var r MergedRecord
	for i, c := range Columns {
		r.SetValue(c, float64(i+1))
	}
	for i, c := range Columns {
		if got := r.Value(c); got != float64(i+1) {
			t.Errorf("%s = %v, want %v", c, got, i+1)
		}
	}
	if r.BadgeScore != 5 || r.Accepted != 1 {
		t.Errorf("unexpected record %+v", r)
	}
}

func TestPairKey_Less(t *testing.T) {
	a := PairKey{UserID: 1, Tag: "z"}
	b := PairKey{UserID: 2, Tag: "a"}
	c := PairKey{UserID: 2, Tag: "b"}
	if !a.Less(b) || !b.Less(c) || c.Less(b) || a.Less(a) {
		t.Error("PairKey ordering should be user id then tag")
	}
}
