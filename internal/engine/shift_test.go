package engine

import (
	"testing"

	"github.com/sceneindex/markerd/internal/models"
)

func TestClassify(t *testing.T) {
	const duration = int64(600000)

	cases := []struct {
		name           string
		start, end     int64
		dStart, dEnd   int64
		want           models.ShiftClass
	}{
		{"clean shift", 15000, 45000, 3000, 3000, models.ShiftClean},
		{"cutoff clamps to zero", 15000, 45000, -16000, -16000, models.ShiftCutoff},
		{"cutoff past duration", duration - 10000, duration - 1000, 0, 20000, models.ShiftCutoff},
		{"error end below zero", 1000, 5000, -10000, -10000, models.ShiftError},
		{"error start past duration", duration - 5000, duration - 1000, 20000, 20000, models.ShiftError},
		{"error collapsed interval", 15000, 45000, 40000, -40000, models.ShiftError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := models.Marker{Start: tc.start, End: tc.end}
			class, _, _ := classify(m, tc.dStart, tc.dEnd, duration)
			if class != tc.want {
				t.Fatalf("classify() = %v, want %v", class, tc.want)
			}
		})
	}
}

func TestClassifyScenario4CutoffClamp(t *testing.T) {
	const duration = int64(600000)
	m := models.Marker{Start: 15000, End: 45000}
	class, newStart, newEnd := classify(m, -16000, -16000, duration)
	if class != models.ShiftCutoff {
		t.Fatalf("class = %v, want Cutoff", class)
	}
	start := clamp(newStart, 0, duration)
	end := clamp(newEnd, 0, duration)
	if start != 0 || end != 29000 {
		t.Fatalf("clamped interval = [%d,%d), want [0,29000)", start, end)
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(-5000, 0, 100); got != 0 {
		t.Fatalf("clamp(-5000,0,100) = %d, want 0", got)
	}
	if got := clamp(5000, 0, 100); got != 100 {
		t.Fatalf("clamp(5000,0,100) = %d, want 100", got)
	}
	if got := clamp(50, 0, 100); got != 50 {
		t.Fatalf("clamp(50,0,100) = %d, want 50", got)
	}
}

func TestClassOf(t *testing.T) {
	results := []classifiedMarker{
		{marker: models.Marker{ID: 1}, class: models.ShiftCutoff},
		{marker: models.Marker{ID: 2}, class: models.ShiftClean},
	}
	if got := classOf(results, 1); got != models.ShiftCutoff {
		t.Fatalf("classOf(1) = %v, want Cutoff", got)
	}
	if got := classOf(results, 99); got != models.ShiftClean {
		t.Fatalf("classOf(99) = %v, want default Clean", got)
	}
}
