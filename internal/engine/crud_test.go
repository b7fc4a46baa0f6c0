package engine

import (
	"testing"

	"github.com/sceneindex/markerd/internal/models"
)

func TestValidateInterval(t *testing.T) {
	cases := []struct {
		name               string
		start, end, duration int64
		wantErr            bool
	}{
		{"clean", 0, 1000, 600000, false},
		{"start equals end is bad request", 1000, 1000, 600000, true},
		{"flipped interval is bad request", 1000, 0, 600000, true},
		{"negative start is bad request", -1, 1000, 600000, true},
		{"end equals duration is allowed", 0, 600000, 600000, false},
		{"end past duration is bad request", 0, 600001, 600000, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateInterval(tc.start, tc.end, tc.duration)
			if (err != nil) != tc.wantErr {
				t.Fatalf("validateInterval(%d,%d,%d) error = %v, wantErr %v", tc.start, tc.end, tc.duration, err, tc.wantErr)
			}
			if err != nil && models.KindOf(err) != models.ErrBadRequest {
				t.Fatalf("error kind = %v, want ErrBadRequest", models.KindOf(err))
			}
		})
	}
}

func TestReindexAssignsContiguousOrder(t *testing.T) {
	markers := []models.Marker{
		{ID: 3, Start: 60000},
		{ID: 1, Start: 0},
		{ID: 2, Start: 30000},
	}
	ordered := reindex(markers)

	wantOrder := []int64{1, 2, 3}
	for i, m := range ordered {
		if m.Index != i {
			t.Fatalf("marker %d has index %d, want %d", m.ID, m.Index, i)
		}
		if m.ID != wantOrder[i] {
			t.Fatalf("ordered[%d].ID = %d, want %d", i, m.ID, wantOrder[i])
		}
	}
}

func TestCountBucket(t *testing.T) {
	markers := []models.Marker{
		{Type: models.MarkerIntro},
		{Type: models.MarkerIntro},
		{Type: models.MarkerCredits},
		{Type: models.MarkerCommercial},
	}
	intros, credits := countBucket(markers)
	if intros != 2 || credits != 1 {
		t.Fatalf("countBucket() = (%d,%d), want (2,1)", intros, credits)
	}
}

func TestIndexOf(t *testing.T) {
	markers := []models.Marker{{ID: 1, Index: 0}, {ID: 2, Index: 1}}
	if got := indexOf(markers, 2); got != 1 {
		t.Fatalf("indexOf(2) = %d, want 1", got)
	}
	if got := indexOf(markers, 99); got != -1 {
		t.Fatalf("indexOf(99) = %d, want -1", got)
	}
}
