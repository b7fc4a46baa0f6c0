package models

// ShiftClass is the per-marker classification the Shift Engine computes
// against a candidate delta (spec §4.E).
type ShiftClass string

const (
	ShiftClean  ShiftClass = "clean"
	ShiftCutoff ShiftClass = "cutoff"
	ShiftError  ShiftClass = "error"
)

// ShiftCandidate is one marker under consideration for a shift, alongside
// its computed classification. Classification is empty ("") for CheckShift
// results, which enumerate without applying a delta.
type ShiftCandidate struct {
	Marker Marker     `json:"marker"`
	Class  ShiftClass `json:"class,omitempty"`
	Linked bool       `json:"linked"`
}

// ShiftResult is returned by both CheckShift (always Applied=false) and
// Shift.
type ShiftResult struct {
	Applied    bool             `json:"applied"`
	Conflict   bool             `json:"conflict"`
	Overflow   bool             `json:"overflow"`
	AllMarkers []ShiftCandidate `json:"allMarkers"`
}
