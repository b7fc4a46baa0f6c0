package models

import (
	"errors"
	"testing"
)

func TestMarkerOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Marker
		want bool
	}{
		{"disjoint", Marker{Start: 0, End: 1000}, Marker{Start: 2000, End: 3000}, false},
		{"touching endpoints", Marker{Start: 0, End: 1000}, Marker{Start: 1000, End: 2000}, false},
		{"overlapping", Marker{Start: 0, End: 1000}, Marker{Start: 500, End: 1500}, true},
		{"nested", Marker{Start: 0, End: 3000}, Marker{Start: 1000, End: 2000}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Overlaps(c.b); got != c.want {
				t.Errorf("Overlaps() = %v, want %v", got, c.want)
			}
			if got := c.b.Overlaps(c.a); got != c.want {
				t.Errorf("Overlaps() symmetric = %v, want %v", got, c.want)
			}
		})
	}
}

func TestMarkerNormalizeFinal(t *testing.T) {
	m := Marker{Type: MarkerIntro, Final: true}
	m.NormalizeFinal()
	if m.Final {
		t.Error("NormalizeFinal should clear Final on a non-credits marker")
	}

	m = Marker{Type: MarkerCredits, Final: true}
	m.NormalizeFinal()
	if !m.Final {
		t.Error("NormalizeFinal should preserve Final on a credits marker")
	}
}

func TestSortByStart(t *testing.T) {
	in := []Marker{
		{ID: 3, Start: 3000},
		{ID: 1, Start: 1000},
		{ID: 2, Start: 2000},
	}
	out := SortByStart(in)
	if out[0].ID != 1 || out[1].ID != 2 || out[2].ID != 3 {
		t.Fatalf("SortByStart did not sort ascending: %+v", out)
	}
	if in[0].ID != 3 {
		t.Fatal("SortByStart mutated its input")
	}
}

func TestServiceErrorKindOf(t *testing.T) {
	err := NewError(ErrOverlap, "interval intersects marker %d", 7)
	if KindOf(err) != ErrOverlap {
		t.Fatalf("KindOf() = %v, want %v", KindOf(err), ErrOverlap)
	}

	wrapped := WrapError(ErrInternal, errors.New("duckdb: closed"), "insert failed")
	if KindOf(wrapped) != ErrInternal {
		t.Fatalf("KindOf() = %v, want %v", KindOf(wrapped), ErrInternal)
	}
	if KindOf(errors.New("plain error")) != ErrInternal {
		t.Fatal("KindOf() should default unclassified errors to ErrInternal")
	}

	a := &ServiceError{Kind: ErrNotFound}
	b := NewError(ErrNotFound, "marker 5 not found")
	if !errors.Is(b, a) {
		t.Fatal("errors.Is should match on Kind alone")
	}
}
