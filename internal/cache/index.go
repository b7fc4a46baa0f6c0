package cache

import (
	"strconv"
	"sync"

	"github.com/sceneindex/markerd/internal/metrics"
	"github.com/sceneindex/markerd/internal/models"
)

// entry is one parent's cached counts. Commercial is tracked separately
// from the packed bucket: it is counted for per-item totals but excluded
// from the intro/credits breakdown (spec §4.C, Open Question 3).
type entry struct {
	bucket     PackedBucket
	commercial int
}

// Index is the in-memory Marker Cache: per section, a mapping
// parentId -> packed bucket. It never evicts; it must always equal what a
// full Rebuild from the library DB would produce.
type Index struct {
	mu       sync.RWMutex
	sections map[int64]map[int64]entry
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{sections: make(map[int64]map[int64]entry)}
}

// SectionLeaf is the minimal shape Rebuild needs from a full library scan:
// the count fields of library.SectionLeaf (without its item Type), which
// callers copy over field by field.
type SectionLeaf struct {
	ParentID int64
	Intros   int
	Credits  int
	Total    int
}

// Rebuild replaces a section's entries wholesale from a single-pass scan
// (spec §4.C: "on startup, the cache is populated by SectionOverview in a
// single pass per section").
func (idx *Index) Rebuild(sectionID int64, leaves []SectionLeaf) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	section := make(map[int64]entry, len(leaves))
	for _, leaf := range leaves {
		commercial := leaf.Total - leaf.Intros - leaf.Credits
		if commercial < 0 {
			commercial = 0
		}
		section[leaf.ParentID] = entry{
			bucket:     packBucket(leaf.Intros, leaf.Credits),
			commercial: commercial,
		}
	}
	idx.sections[sectionID] = section

	metrics.CacheSize.WithLabelValues(strconv.FormatInt(sectionID, 10)).Set(float64(len(section)))
}

// Delta applies an incremental update to one parent's bucket. Every
// committed Add/Edit/Delete/Restore whose type change touches intro/credits
// emits exactly one Delta call (spec §4.C mutation protocol; P5).
func (idx *Index) Delta(sectionID, parentID int64, oldIntros, oldCredits, newIntros, newCredits int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	section, ok := idx.sections[sectionID]
	if !ok {
		section = make(map[int64]entry)
		idx.sections[sectionID] = section
	}

	e := section[parentID]
	intros := e.bucket.Intros() - oldIntros + newIntros
	credits := e.bucket.Credits() - oldCredits + newCredits
	if intros < 0 {
		intros = 0
	}
	if credits < 0 {
		credits = 0
	}
	e.bucket = packBucket(intros, credits)
	section[parentID] = e

	metrics.CacheSize.WithLabelValues(strconv.FormatInt(sectionID, 10)).Set(float64(len(section)))
}

// DeltaCommercial adjusts a parent's commercial-marker count without
// touching its packed intro/credits bucket.
func (idx *Index) DeltaCommercial(sectionID, parentID int64, delta int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	section, ok := idx.sections[sectionID]
	if !ok {
		section = make(map[int64]entry)
		idx.sections[sectionID] = section
	}
	e := section[parentID]
	e.commercial += delta
	if e.commercial < 0 {
		e.commercial = 0
	}
	section[parentID] = e
}

// SectionStats computes the aggregate Breakdown for a section in
// O(parents in scope) (spec §4.C derivations).
func (idx *Index) SectionStats(sectionID int64) models.Breakdown {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	b := models.Breakdown{
		SectionID:        sectionID,
		Buckets:          make(map[string]int),
		CollapsedBuckets: make(map[int]int),
	}

	for _, e := range idx.sections[sectionID] {
		intros, credits := e.bucket.Intros(), e.bucket.Credits()
		total := intros + credits + e.commercial

		b.TotalIntros += intros
		b.TotalCredits += credits
		b.TotalMarkers += total

		if total > 0 {
			b.ItemsWithMarkers++
		}
		if intros > 0 {
			b.ItemsWithIntros++
		}
		if credits > 0 {
			b.ItemsWithCredits++
		}

		b.Buckets[e.bucket.key()]++
		b.CollapsedBuckets[total]++
	}

	return b
}

// Buckets returns the number of distinct (intros, credits) combinations
// present in a section.
func (idx *Index) Buckets(sectionID int64) int {
	return len(idx.SectionStats(sectionID).Buckets)
}
