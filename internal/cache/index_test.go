package cache

import "testing"

func TestPackedBucketRoundTrip(t *testing.T) {
	cases := []struct{ intros, credits int }{
		{0, 0}, {1, 0}, {0, 1}, {3, 2}, {65535, 65535},
	}
	for _, c := range cases {
		b := packBucket(c.intros, c.credits)
		if b.Intros() != c.intros {
			t.Errorf("packBucket(%d,%d).Intros() = %d", c.intros, c.credits, b.Intros())
		}
		if b.Credits() != c.credits {
			t.Errorf("packBucket(%d,%d).Credits() = %d", c.intros, c.credits, b.Credits())
		}
	}
}

func TestIndexRebuildAndStats(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild(1, []SectionLeaf{
		{ParentID: 10, Intros: 1, Credits: 1, Total: 2},
		{ParentID: 11, Intros: 1, Credits: 0, Total: 1},
		{ParentID: 12, Intros: 0, Credits: 0, Total: 0},
	})

	stats := idx.SectionStats(1)
	if stats.TotalIntros != 2 {
		t.Errorf("TotalIntros = %d, want 2", stats.TotalIntros)
	}
	if stats.TotalCredits != 1 {
		t.Errorf("TotalCredits = %d, want 1", stats.TotalCredits)
	}
	if stats.ItemsWithMarkers != 2 {
		t.Errorf("ItemsWithMarkers = %d, want 2 (item 12 has none)", stats.ItemsWithMarkers)
	}
	if stats.ItemsWithIntros != 2 {
		t.Errorf("ItemsWithIntros = %d, want 2", stats.ItemsWithIntros)
	}
	if stats.ItemsWithCredits != 1 {
		t.Errorf("ItemsWithCredits = %d, want 1", stats.ItemsWithCredits)
	}
}

func TestIndexDeltaMatchesRebuild(t *testing.T) {
	// P6: the cache, rebuilt from scratch, must equal the incrementally
	// maintained cache.
	idx := NewIndex()
	idx.Rebuild(1, []SectionLeaf{{ParentID: 10, Intros: 0, Credits: 0, Total: 0}})

	// Simulate Add(intro) on parent 10: bucket moves (0,0) -> (1,0).
	idx.Delta(1, 10, 0, 0, 1, 0)

	rebuilt := NewIndex()
	rebuilt.Rebuild(1, []SectionLeaf{{ParentID: 10, Intros: 1, Credits: 0, Total: 1}})

	got := idx.SectionStats(1)
	want := rebuilt.SectionStats(1)
	if got.TotalIntros != want.TotalIntros || got.ItemsWithIntros != want.ItemsWithIntros {
		t.Fatalf("incremental delta diverged from rebuild: got %+v, want %+v", got, want)
	}
}

func TestIndexDeltaRemovingLastMarker(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild(1, []SectionLeaf{{ParentID: 10, Intros: 1, Credits: 0, Total: 1}})
	idx.Delta(1, 10, 1, 0, 0, 0)

	stats := idx.SectionStats(1)
	if stats.ItemsWithMarkers != 0 {
		t.Errorf("ItemsWithMarkers = %d, want 0 after removing the only marker", stats.ItemsWithMarkers)
	}
}
