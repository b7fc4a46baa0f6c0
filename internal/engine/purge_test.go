package engine

import (
	"testing"

	"github.com/sceneindex/markerd/internal/models"
)

func TestPurgeIndexSetAndForSection(t *testing.T) {
	idx := newPurgeIndex()
	idx.setSection(10, map[int64][]models.PurgedMarker{
		100: {{RestoreKey: "a", OldMarkerID: 1, SectionID: 10, ParentID: 100}},
		200: {{RestoreKey: "b", OldMarkerID: 2, SectionID: 10, ParentID: 200}},
	})

	got := idx.forSection(10)
	if len(got.ByParent) != 2 {
		t.Fatalf("forSection returned %d parents, want 2", len(got.ByParent))
	}
	if len(got.ByParent[100]) != 1 || got.ByParent[100][0].OldMarkerID != 1 {
		t.Fatalf("unexpected candidates for parent 100: %+v", got.ByParent[100])
	}

	if empty := idx.forSection(999); len(empty.ByParent) != 0 {
		t.Fatalf("forSection(999) = %+v, want empty", empty)
	}
}

func TestPurgeIndexForSectionReturnsCopy(t *testing.T) {
	idx := newPurgeIndex()
	idx.setSection(1, map[int64][]models.PurgedMarker{
		5: {{RestoreKey: "a", OldMarkerID: 1}},
	})

	got := idx.forSection(1)
	got.ByParent[5][0].OldMarkerID = 999

	fresh := idx.forSection(1)
	if fresh.ByParent[5][0].OldMarkerID != 1 {
		t.Fatalf("mutating forSection's result leaked into the index: got %d, want 1", fresh.ByParent[5][0].OldMarkerID)
	}
}

func TestPurgeIndexFind(t *testing.T) {
	idx := newPurgeIndex()
	idx.setSection(1, map[int64][]models.PurgedMarker{
		5: {{RestoreKey: "key-a", OldMarkerID: 42, SectionID: 1, ParentID: 5}},
	})

	pm, ok := idx.find(1, 42)
	if !ok {
		t.Fatal("find(1, 42) = not found, want found")
	}
	if pm.RestoreKey != "key-a" {
		t.Fatalf("found wrong candidate: %+v", pm)
	}

	if _, ok := idx.find(1, 999); ok {
		t.Fatal("find(1, 999) = found, want not found")
	}
}

func TestPurgeIndexRemove(t *testing.T) {
	idx := newPurgeIndex()
	idx.setSection(1, map[int64][]models.PurgedMarker{
		5: {
			{RestoreKey: "a", OldMarkerID: 1, ParentID: 5},
			{RestoreKey: "b", OldMarkerID: 2, ParentID: 5},
		},
	})

	idx.remove(1, 5, "a")
	got := idx.forSection(1)
	if len(got.ByParent[5]) != 1 || got.ByParent[5][0].RestoreKey != "b" {
		t.Fatalf("after remove, ByParent[5] = %+v, want only candidate b", got.ByParent[5])
	}

	idx.remove(1, 5, "b")
	got = idx.forSection(1)
	if _, ok := got.ByParent[5]; ok {
		t.Fatal("parent entry should be deleted once its last candidate is removed")
	}
}

func TestCountCandidates(t *testing.T) {
	byParent := map[int64][]models.PurgedMarker{
		1: {{}, {}},
		2: {{}},
	}
	if got := countCandidates(byParent); got != 3 {
		t.Fatalf("countCandidates() = %d, want 3", got)
	}
}

func TestPurgeIndexSectionIDs(t *testing.T) {
	idx := newPurgeIndex()
	idx.setSection(1, map[int64][]models.PurgedMarker{5: {{OldMarkerID: 1}}})
	idx.setSection(2, map[int64][]models.PurgedMarker{6: {{OldMarkerID: 2}}})

	ids := idx.sectionIDs()
	if len(ids) != 2 {
		t.Fatalf("sectionIDs() = %v, want 2 entries", ids)
	}
}

func TestPurgeIndexSetSectionClearsToEmpty(t *testing.T) {
	idx := newPurgeIndex()
	idx.setSection(1, map[int64][]models.PurgedMarker{
		5: {{RestoreKey: "a", OldMarkerID: 1}},
	})

	// Simulates a reconciliation pass where every candidate of section 1
	// has disappeared: the section must be replaced with an empty map, not
	// left holding its stale candidates.
	idx.setSection(1, map[int64][]models.PurgedMarker{})

	got := idx.forSection(1)
	if len(got.ByParent) != 0 {
		t.Fatalf("forSection(1) after clearing = %+v, want empty", got.ByParent)
	}
}
