package merge

import (
	"reflect"
	"testing"

	"github.com/hyperjump/kenja/internal/models"
)

func TestMerge_outerJoinZeroFilled(t *testing.T) {
	tags := map[models.Signal][]models.TagSignal{
		models.SignalAccepted:  {{UserID: 1, Tag: "go", Count: 2}},
		models.SignalAnswers:   {{UserID: 1, Tag: "go", Count: 5}, {UserID: 2, Tag: "python", Count: 1}},
		models.SignalQuestions: {{UserID: 3, Tag: "rust", Count: 4}},
	}
	badges := []models.BadgeSignal{{UserID: 2, Tag: "python", BadgeScore: 3}, {UserID: 4, Tag: "c", BadgeScore: 1}}

	got := Merge(tags, badges)
	want := []models.MergedRecord{
		{UserID: 1, Tag: "go", Accepted: 2, Answers: 5},
		{UserID: 2, Tag: "python", Answers: 1, BadgeScore: 3},
		{UserID: 3, Tag: "rust", Questions: 4},
		{UserID: 4, Tag: "c", BadgeScore: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestMerge_orderIndependent(t *testing.T) {
	a := map[models.Signal][]models.TagSignal{
		models.SignalComments: {{UserID: 9, Tag: "b", Count: 1}, {UserID: 1, Tag: "z", Count: 2}, {UserID: 1, Tag: "a", Count: 3}},
	}
	b := map[models.Signal][]models.TagSignal{
		models.SignalComments: {{UserID: 1, Tag: "a", Count: 3}, {UserID: 9, Tag: "b", Count: 1}, {UserID: 1, Tag: "z", Count: 2}},
	}
	if !reflect.DeepEqual(Merge(a, nil), Merge(b, nil)) {
		t.Error("merge result depends on input order")
	}
	got := Merge(a, nil)
	if got[0].Tag != "a" || got[1].Tag != "z" || got[2].UserID != 9 {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestMerge_empty(t *testing.T) {
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("Merge(nil, nil) = %+v", got)
	}
}

func TestUsers(t *testing.T) {
	records := []models.MergedRecord{{UserID: 5}, {UserID: 2}, {UserID: 5}, {UserID: 1}}
	if got := Users(records); !reflect.DeepEqual(got, []int64{1, 2, 5}) {
		t.Errorf("Users() = %v", got)
	}
}
