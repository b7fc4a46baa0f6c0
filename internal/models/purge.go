package models

// PurgedMarker is a marker the Purge Reconciler knows about from the action
// log but that no longer exists in the live library DB, along with the
// last known state the log recorded for it.
type PurgedMarker struct {
	RestoreKey  string `json:"restoreKey"`
	OldMarkerID int64  `json:"oldMarkerId"`

	ParentID  int64      `json:"parentId"`
	SectionID int64      `json:"sectionId"`
	Start     int64      `json:"start"`
	End       int64      `json:"end"`
	Type      MarkerType `json:"type"`
	Final     bool       `json:"final"`
}

// SectionPurges groups every purge candidate of a section by parent item,
// the shape `all_purges` returns over the wire.
type SectionPurges struct {
	SectionID int64                    `json:"sectionId"`
	ByParent  map[int64][]PurgedMarker `json:"byParent"`
}
