package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/sceneindex/markerd/internal/library"
	"github.com/sceneindex/markerd/internal/models"
)

// shiftLimiter bounds how many markers Shift will rewrite per second
// across the whole service, so a shift over a large show does not starve
// unrelated per-parent writers waiting on the same library DB connection
// pool (spec §5: "must not hold any lock that would stall unrelated
// requests beyond the duration of one database transaction" — the limiter
// keeps the string of per-parent transactions from running back-to-back
// without yielding).
var shiftLimiter = rate.NewLimiter(rate.Limit(200), 200)

// classify implements the Error/Cutoff/Clean classification of spec §4.E.
func classify(m models.Marker, dStart, dEnd, duration int64) (models.ShiftClass, int64, int64) {
	newStart := m.Start + dStart
	newEnd := m.End + dEnd

	if newEnd <= 0 || newStart >= duration || newEnd <= newStart {
		return models.ShiftError, newStart, newEnd
	}
	if newStart < 0 || newEnd > duration {
		return models.ShiftCutoff, newStart, newEnd
	}
	return models.ShiftClean, newStart, newEnd
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// enumerateSubtree loads every marker of the subtree, removes ignored ids,
// and reports which parents are "linked" (more than one retained marker).
func (s *Service) enumerateSubtree(ctx context.Context, rootID int64, ignoreIDs map[int64]bool) ([]models.Marker, map[int64]bool, error) {
	markers, err := s.lib.ListMarkersForSubtree(ctx, rootID)
	if err != nil {
		return nil, nil, models.WrapError(models.ErrInternal, err, "list markers under %d", rootID)
	}

	retained := make([]models.Marker, 0, len(markers))
	counts := make(map[int64]int)
	for _, m := range markers {
		if ignoreIDs[m.ID] {
			continue
		}
		retained = append(retained, m)
		counts[m.ParentID]++
	}

	linked := make(map[int64]bool, len(counts))
	for parentID, n := range counts {
		if n > 1 {
			linked[parentID] = true
		}
	}
	return retained, linked, nil
}

// CheckShift implements spec §4.E CheckShift: enumerate only, never
// classify against a delta, never mutate.
func (s *Service) CheckShift(ctx context.Context, rootID int64) (models.ShiftResult, error) {
	defer observeOp("check_shift")()

	if err := s.requireRunning(); err != nil {
		return models.ShiftResult{}, err
	}

	if _, err := s.lib.GetItem(ctx, rootID); err != nil {
		if err == library.ErrNotFound {
			return models.ShiftResult{}, opError("check_shift", models.NewError(models.ErrBadTarget, "subtree root %d does not exist", rootID))
		}
		return models.ShiftResult{}, opError("check_shift", models.WrapError(models.ErrInternal, err, "load subtree root %d", rootID))
	}

	markers, linked, err := s.enumerateSubtree(ctx, rootID, nil)
	if err != nil {
		return models.ShiftResult{}, opError("check_shift", err)
	}

	candidates := make([]models.ShiftCandidate, len(markers))
	for i, m := range markers {
		candidates[i] = models.ShiftCandidate{Marker: m, Linked: linked[m.ParentID]}
	}
	return models.ShiftResult{Applied: false, AllMarkers: candidates}, nil
}

// Shift implements spec §4.E Shift.
func (s *Service) Shift(ctx context.Context, rootID, dStart, dEnd int64, force bool, ignoreIDs []int64) (models.ShiftResult, error) {
	defer observeOp("shift")()

	if err := s.requireRunning(); err != nil {
		return models.ShiftResult{}, err
	}
	if dStart == 0 && dEnd == 0 {
		return models.ShiftResult{}, opError("shift", models.NewError(models.ErrBadRequest, "shift delta (0,0) is invalid"))
	}
	if _, err := s.lib.GetItem(ctx, rootID); err != nil {
		if err == library.ErrNotFound {
			return models.ShiftResult{}, opError("shift", models.NewError(models.ErrBadTarget, "subtree root %d does not exist", rootID))
		}
		return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "load subtree root %d", rootID))
	}

	ignore := make(map[int64]bool, len(ignoreIDs))
	for _, id := range ignoreIDs {
		ignore[id] = true
	}

	markers, linked, err := s.enumerateSubtree(ctx, rootID, ignore)
	if err != nil {
		return models.ShiftResult{}, opError("shift", err)
	}

	parentIDs := make([]int64, 0, len(markers))
	seen := make(map[int64]bool)
	for _, m := range markers {
		if !seen[m.ParentID] {
			seen[m.ParentID] = true
			parentIDs = append(parentIDs, m.ParentID)
		}
	}
	unlock := s.locks.lockParents(parentIDs)
	defer unlock()

	anyLinked := len(linked) > 0
	if anyLinked && !force {
		candidates := make([]models.ShiftCandidate, len(markers))
		for i, m := range markers {
			candidates[i] = models.ShiftCandidate{Marker: m, Linked: linked[m.ParentID]}
		}
		return models.ShiftResult{Applied: false, Conflict: true, AllMarkers: candidates}, nil
	}

	durationByParent := make(map[int64]int64, len(parentIDs))
	for _, pid := range parentIDs {
		item, err := s.lib.GetItem(ctx, pid)
		if err != nil {
			return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "load parent %d", pid))
		}
		durationByParent[pid] = item.Duration
	}

	results := make([]classifiedMarker, len(markers))
	anyError := false
	for i, m := range markers {
		class, newStart, newEnd := classify(m, dStart, dEnd, durationByParent[m.ParentID])
		results[i] = classifiedMarker{marker: m, class: class, newStart: newStart, newEnd: newEnd}
		if class == models.ShiftError {
			anyError = true
		}
	}

	if anyError && !force {
		candidates := make([]models.ShiftCandidate, len(markers))
		for i, r := range results {
			candidates[i] = models.ShiftCandidate{Marker: r.marker, Class: r.class, Linked: linked[r.marker.ParentID]}
		}
		return models.ShiftResult{Applied: false, Overflow: true, AllMarkers: candidates}, nil
	}

	byParent := make(map[int64][]classifiedMarker)
	for _, r := range results {
		if r.class == models.ShiftError {
			continue // never written, force cannot rescue an Error marker
		}
		byParent[r.marker.ParentID] = append(byParent[r.marker.ParentID], r)
	}

	var shifted []models.ShiftCandidate
	now := time.Now().UTC()
	for parentID, group := range byParent {
		duration := durationByParent[parentID]
		item, err := s.lib.GetItem(ctx, parentID)
		if err != nil {
			return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "load parent %d", parentID))
		}

		_ = shiftLimiter.WaitN(ctx, len(group))

		shiftedByID := make(map[int64]classifiedMarker, len(group))
		for _, r := range group {
			shiftedByID[r.marker.ID] = r
		}

		// Reindex over the parent's *full* marker set, not just the shifted
		// group: ignored and Error-retained siblings still occupy this
		// parent's index space and must stay contiguous (I2).
		siblings, err := s.lib.ListMarkers(ctx, parentID)
		if err != nil {
			return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "list markers of %d", parentID))
		}
		updated := make([]models.Marker, len(siblings))
		for i, sib := range siblings {
			if r, ok := shiftedByID[sib.ID]; ok {
				m := sib
				m.Start = clamp(r.newStart, 0, duration)
				m.End = clamp(r.newEnd, 0, duration)
				updated[i] = m
			} else {
				updated[i] = sib
			}
		}
		ordered := reindex(updated)

		tx, err := s.lib.BeginTx(ctx)
		if err != nil {
			return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "begin transaction"))
		}
		for _, m := range ordered {
			if _, wasShifted := shiftedByID[m.ID]; wasShifted {
				if err := tx.UpdateMarker(m.ID, library.MarkerWrite{
					ParentID: parentID, Start: m.Start, End: m.End, Index: m.Index,
					Type: m.Type, Final: m.Final, CreatedByUser: m.CreatedByUser, At: now,
				}); err != nil {
					_ = tx.Rollback()
					return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "update shifted marker %d", m.ID))
				}
			} else if m.Index != indexOf(siblings, m.ID) {
				if err := tx.UpdateMarkerIndex(m.ID, m.Index); err != nil {
					_ = tx.Rollback()
					return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "reindex sibling %d", m.ID))
				}
			}
		}
		if err := tx.Commit(); err != nil {
			return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "commit shift for parent %d", parentID))
		}

		if s.actionLog != nil {
			for _, m := range ordered {
				r, wasShifted := shiftedByID[m.ID]
				if !wasShifted {
					continue
				}
				_, err := s.actionLog.Append(models.ActionLogEntry{
					RestoreKey: s.restoreKeyFor(m.ID),
					Op:         models.OpEdit,
					MarkerID:   m.ID,
					ParentID:   parentID,
					SectionID:  item.SectionID,
					Start:      m.Start, End: m.End,
					Type: m.Type, Final: m.Final,
					OldStart: r.marker.Start, OldEnd: r.marker.End,
					At: now,
				})
				if err != nil {
					return models.ShiftResult{}, opError("shift", models.WrapError(models.ErrInternal, err, "append shift log entry"))
				}
			}
		}

		for _, m := range ordered {
			if _, wasShifted := shiftedByID[m.ID]; !wasShifted {
				continue
			}
			shifted = append(shifted, models.ShiftCandidate{Marker: m, Class: classOf(results, m.ID), Linked: linked[parentID]})
		}
	}

	return models.ShiftResult{Applied: true, AllMarkers: shifted}, nil
}

// classifiedMarker pairs a candidate marker with its Error/Cutoff/Clean
// classification and the pre-clamp post-shift endpoints.
type classifiedMarker struct {
	marker           models.Marker
	class            models.ShiftClass
	newStart, newEnd int64
}

func classOf(results []classifiedMarker, id int64) models.ShiftClass {
	for _, r := range results {
		if r.marker.ID == id {
			return r.class
		}
	}
	return models.ShiftClean
}
