package models

// Breakdown is the aggregate view the Marker Cache answers `get_stats`
// with: counts over a section's items by how many intro/credits markers
// each has (spec §4.C).
type Breakdown struct {
	SectionID int64 `json:"sectionId"`

	TotalMarkers     int `json:"totalMarkers"`
	TotalIntros      int `json:"totalIntros"`
	TotalCredits     int `json:"totalCredits"`
	ItemsWithMarkers int `json:"itemsWithMarkers"`
	ItemsWithIntros  int `json:"itemsWithIntros"`
	ItemsWithCredits int `json:"itemsWithCredits"`

	// Buckets maps a packed (intros,credits) combination, rendered as
	// "intros:credits", to the number of items sharing it.
	Buckets map[string]int `json:"buckets"`

	// CollapsedBuckets maps total marker count per item to the number of
	// items with that total, regardless of type split.
	CollapsedBuckets map[int]int `json:"collapsedBuckets"`
}
