package engine

import (
	"context"
	"time"

	"github.com/sceneindex/markerd/internal/actionlog"
	"github.com/sceneindex/markerd/internal/library"
	"github.com/sceneindex/markerd/internal/logging"
	"github.com/sceneindex/markerd/internal/metrics"
	"github.com/sceneindex/markerd/internal/models"
)

// validateInterval checks the Add/Edit validation rules common to both
// operations (spec §4.D steps 2-3, boundary behaviors B1-B2).
func validateInterval(start, end, duration int64) error {
	if start < 0 {
		return models.NewError(models.ErrBadRequest, "start %d must be non-negative", start)
	}
	if start >= end {
		return models.NewError(models.ErrBadRequest, "start %d must be before end %d", start, end)
	}
	if end > duration {
		return models.NewError(models.ErrBadRequest, "end %d exceeds parent duration %d", end, duration)
	}
	return nil
}

// resolveMarkerableParent loads item and fails BadTarget unless it can own
// markers.
func resolveMarkerableParent(ctx context.Context, lib *library.DB, parentID int64) (models.Item, error) {
	item, err := lib.GetItem(ctx, parentID)
	if err != nil {
		if err == library.ErrNotFound {
			return models.Item{}, models.NewError(models.ErrBadTarget, "item %d does not exist", parentID)
		}
		return models.Item{}, models.WrapError(models.ErrInternal, err, "load item %d", parentID)
	}
	if !item.Type.Markerable() {
		return models.Item{}, models.NewError(models.ErrBadTarget, "item %d of type %s cannot own markers", parentID, item.Type)
	}
	return item, nil
}

// reindex sorts markers by Start and returns them with Index set to their
// rank, the ordering invariant I2 requires.
func reindex(markers []models.Marker) []models.Marker {
	sorted := models.SortByStart(markers)
	for i := range sorted {
		sorted[i].Index = i
	}
	return sorted
}

// Add implements spec §4.D Add.
func (s *Service) Add(ctx context.Context, parentID, start, end int64, markerType models.MarkerType, final bool) (models.Marker, error) {
	defer observeOp("add")()

	if err := s.requireRunning(); err != nil {
		return models.Marker{}, err
	}
	if !markerType.Valid() {
		return models.Marker{}, opError("add", models.NewError(models.ErrBadRequest, "invalid marker type %q", markerType))
	}
	if final && markerType != models.MarkerCredits {
		// Add is strict: Edit clears an inconsistent final, Add rejects it (spec §4.D step 2, spec §9 open question).
		return models.Marker{}, opError("add", models.NewError(models.ErrBadRequest, "final is only valid on credits markers"))
	}

	unlock := s.locks.lockParent(parentID)
	defer unlock()

	marker, err := s.addInternal(ctx, parentID, start, end, markerType, final, newRestoreKeyIfEnabled(s.actionLog), models.OpAdd)
	if err != nil {
		return models.Marker{}, opError("add", err)
	}
	return marker, nil
}

func newRestoreKeyIfEnabled(al *actionlog.Store) string {
	if al == nil {
		return ""
	}
	return actionlog.NewRestoreKey()
}

// addInternal is the shared Add/Restore path: both mint (or reuse) a
// restore key, validate against the parent, reject overlaps, insert, and
// append a log entry tagged with op.
func (s *Service) addInternal(ctx context.Context, parentID, start, end int64, markerType models.MarkerType, final bool, restoreKey string, op models.Op) (models.Marker, error) {
	item, err := resolveMarkerableParent(ctx, s.lib, parentID)
	if err != nil {
		return models.Marker{}, err
	}
	if err := validateInterval(start, end, item.Duration); err != nil {
		return models.Marker{}, err
	}

	siblings, err := s.lib.ListMarkers(ctx, parentID)
	if err != nil {
		return models.Marker{}, models.WrapError(models.ErrInternal, err, "list markers of %d", parentID)
	}

	candidate := models.Marker{ParentID: parentID, Start: start, End: end, Type: markerType, Final: final}
	candidate.NormalizeFinal()
	for _, sib := range siblings {
		if candidate.Overlaps(sib) {
			return models.Marker{}, models.NewError(models.ErrOverlap, "interval [%d,%d) overlaps marker %d", start, end, sib.ID)
		}
	}

	oldIntros, oldCredits := countBucket(siblings)
	ordered := reindex(append(siblings, candidate))

	var newIndex int
	for i, m := range ordered {
		if m.ID == 0 && m.Start == start && m.End == end {
			newIndex = i
			break
		}
	}

	now := time.Now().UTC()
	tx, err := s.lib.BeginTx(ctx)
	if err != nil {
		return models.Marker{}, models.WrapError(models.ErrInternal, err, "begin transaction")
	}

	id, err := tx.InsertMarker(library.MarkerWrite{
		ParentID: parentID, Start: start, End: end, Index: newIndex,
		Type: candidate.Type, Final: candidate.Final, CreatedByUser: true, At: now,
	})
	if err != nil {
		_ = tx.Rollback()
		return models.Marker{}, models.WrapError(models.ErrInternal, err, "insert marker")
	}
	candidate.ID = id
	candidate.Index = newIndex
	candidate.CreatedByUser = true
	candidate.CreatedAt, candidate.ModifiedAt = now, now

	for _, m := range ordered {
		if m.ID != 0 && m.ID != candidate.ID && m.Index != indexOf(siblings, m.ID) {
			if err := tx.UpdateMarkerIndex(m.ID, m.Index); err != nil {
				_ = tx.Rollback()
				return models.Marker{}, models.WrapError(models.ErrInternal, err, "reindex sibling %d", m.ID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Marker{}, models.WrapError(models.ErrInternal, err, "commit add")
	}

	newIntros, newCredits := countBucket(append(siblings, candidate))
	if s.cacheIdx != nil {
		s.cacheIdx.Delta(item.SectionID, parentID, oldIntros, oldCredits, newIntros, newCredits)
	}

	if s.actionLog != nil {
		_, err := s.actionLog.Append(models.ActionLogEntry{
			RestoreKey: restoreKey,
			Op:         op,
			MarkerID:   candidate.ID,
			ParentID:   parentID,
			SectionID:  item.SectionID,
			Start:      start, End: end,
			Type: candidate.Type, Final: candidate.Final,
			At: now,
		})
		if err != nil {
			return models.Marker{}, models.WrapError(models.ErrInternal, err, "append action log entry")
		}
	}

	candidate.SectionID = item.SectionID
	return candidate, nil
}

// indexOf returns the Index an id had in the pre-mutation sibling slice, or
// -1 if it wasn't present (the id is new).
func indexOf(markers []models.Marker, id int64) int {
	for _, m := range markers {
		if m.ID == id {
			return m.Index
		}
	}
	return -1
}

// countBucket tallies intro and credits markers, the (oldIntros,
// oldCredits)/(newIntros, newCredits) pair every cache Delta call needs.
func countBucket(markers []models.Marker) (intros, credits int) {
	for _, m := range markers {
		switch m.Type {
		case models.MarkerIntro:
			intros++
		case models.MarkerCredits:
			credits++
		}
	}
	return intros, credits
}

// Edit implements spec §4.D Edit.
func (s *Service) Edit(ctx context.Context, markerID, start, end int64, markerType models.MarkerType, final bool) (models.Marker, error) {
	defer observeOp("edit")()

	if err := s.requireRunning(); err != nil {
		return models.Marker{}, err
	}

	existing, parentID, err := s.findMarker(ctx, markerID)
	if err != nil {
		return models.Marker{}, opError("edit", err)
	}

	unlock := s.locks.lockParent(parentID)
	defer unlock()

	marker, err := s.editInternal(ctx, existing, start, end, markerType, final)
	if err != nil {
		return models.Marker{}, opError("edit", err)
	}
	return marker, nil
}

func (s *Service) editInternal(ctx context.Context, existing models.Marker, start, end int64, markerType models.MarkerType, final bool) (models.Marker, error) {
	parentID := existing.ParentID
	item, err := resolveMarkerableParent(ctx, s.lib, parentID)
	if err != nil {
		return models.Marker{}, err
	}

	updated := existing
	updated.Start, updated.End, updated.Type, updated.Final = start, end, markerType, final
	if updated.Final && updated.Type != models.MarkerCredits {
		// Edit is lenient: clear final with a warning rather than reject
		// (spec §4.D step 2).
		logging.Warn().Int64("marker_id", existing.ID).Str("type", string(markerType)).
			Msg("final is only valid on credits markers, clearing it")
		updated.NormalizeFinal()
	}

	if err := validateInterval(start, end, item.Duration); err != nil {
		return models.Marker{}, err
	}

	siblings, err := s.lib.ListMarkers(ctx, parentID)
	if err != nil {
		return models.Marker{}, models.WrapError(models.ErrInternal, err, "list markers of %d", parentID)
	}
	replaced := make([]models.Marker, 0, len(siblings))
	for _, m := range siblings {
		if m.ID == existing.ID {
			replaced = append(replaced, updated)
		} else {
			replaced = append(replaced, m)
		}
	}
	for i, a := range replaced {
		for j, b := range replaced {
			if i != j && a.Overlaps(b) {
				return models.Marker{}, models.NewError(models.ErrOverlap, "interval [%d,%d) overlaps marker %d", start, end, b.ID)
			}
		}
	}

	oldIntros, oldCredits := countBucket(siblings)
	ordered := reindex(replaced)
	indexByID := make(map[int64]int, len(ordered))
	var newUpdated models.Marker
	for _, m := range ordered {
		indexByID[m.ID] = m.Index
		if m.ID == existing.ID {
			newUpdated = m
		}
	}

	now := time.Now().UTC()
	newUpdated.ModifiedAt = now

	tx, err := s.lib.BeginTx(ctx)
	if err != nil {
		return models.Marker{}, models.WrapError(models.ErrInternal, err, "begin transaction")
	}

	if err := tx.UpdateMarker(newUpdated.ID, library.MarkerWrite{
		ParentID: parentID, Start: newUpdated.Start, End: newUpdated.End, Index: newUpdated.Index,
		Type: newUpdated.Type, Final: newUpdated.Final, CreatedByUser: existing.CreatedByUser, At: now,
	}); err != nil {
		_ = tx.Rollback()
		return models.Marker{}, models.WrapError(models.ErrInternal, err, "update marker %d", newUpdated.ID)
	}
	for _, m := range siblings {
		if m.ID == existing.ID {
			continue
		}
		if newIdx, ok := indexByID[m.ID]; ok && newIdx != m.Index {
			if err := tx.UpdateMarkerIndex(m.ID, newIdx); err != nil {
				_ = tx.Rollback()
				return models.Marker{}, models.WrapError(models.ErrInternal, err, "reindex sibling %d", m.ID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Marker{}, models.WrapError(models.ErrInternal, err, "commit edit")
	}

	if existing.Type != newUpdated.Type {
		newIntros, newCredits := countBucket(ordered)
		if s.cacheIdx != nil {
			s.cacheIdx.Delta(item.SectionID, parentID, oldIntros, oldCredits, newIntros, newCredits)
		}
	}

	if s.actionLog != nil {
		_, err := s.actionLog.Append(models.ActionLogEntry{
			RestoreKey: s.restoreKeyFor(existing.ID),
			Op:         models.OpEdit,
			MarkerID:   newUpdated.ID,
			ParentID:   parentID,
			SectionID:  item.SectionID,
			Start:      newUpdated.Start, End: newUpdated.End,
			Type: newUpdated.Type, Final: newUpdated.Final,
			OldStart: existing.Start, OldEnd: existing.End,
			At: now,
		})
		if err != nil {
			return models.Marker{}, models.WrapError(models.ErrInternal, err, "append action log entry")
		}
	}

	newUpdated.SectionID = item.SectionID
	return newUpdated, nil
}

// Delete implements spec §4.D Delete.
func (s *Service) Delete(ctx context.Context, markerID int64) (models.Marker, error) {
	defer observeOp("delete")()

	if err := s.requireRunning(); err != nil {
		return models.Marker{}, err
	}

	existing, parentID, err := s.findMarker(ctx, markerID)
	if err != nil {
		return models.Marker{}, opError("delete", err)
	}

	unlock := s.locks.lockParent(parentID)
	defer unlock()

	item, err := s.lib.GetItem(ctx, parentID)
	if err != nil {
		return models.Marker{}, opError("delete", models.WrapError(models.ErrInternal, err, "load parent %d", parentID))
	}

	siblings, err := s.lib.ListMarkers(ctx, parentID)
	if err != nil {
		return models.Marker{}, opError("delete", models.WrapError(models.ErrInternal, err, "list markers of %d", parentID))
	}
	oldIntros, oldCredits := countBucket(siblings)

	tx, err := s.lib.BeginTx(ctx)
	if err != nil {
		return models.Marker{}, opError("delete", models.WrapError(models.ErrInternal, err, "begin transaction"))
	}
	if err := tx.DeleteMarker(existing.ID); err != nil {
		_ = tx.Rollback()
		return models.Marker{}, opError("delete", models.WrapError(models.ErrInternal, err, "delete marker %d", existing.ID))
	}
	var remaining []models.Marker
	for _, m := range siblings {
		if m.ID == existing.ID {
			continue
		}
		if m.Index > existing.Index {
			m.Index--
			if err := tx.UpdateMarkerIndex(m.ID, m.Index); err != nil {
				_ = tx.Rollback()
				return models.Marker{}, opError("delete", models.WrapError(models.ErrInternal, err, "reindex sibling %d", m.ID))
			}
		}
		remaining = append(remaining, m)
	}
	if err := tx.Commit(); err != nil {
		return models.Marker{}, opError("delete", models.WrapError(models.ErrInternal, err, "commit delete"))
	}

	newIntros, newCredits := countBucket(remaining)
	if s.cacheIdx != nil {
		s.cacheIdx.Delta(item.SectionID, parentID, oldIntros, oldCredits, newIntros, newCredits)
	}

	if s.actionLog != nil {
		_, err := s.actionLog.Append(models.ActionLogEntry{
			RestoreKey: s.restoreKeyFor(existing.ID),
			Op:         models.OpDelete,
			MarkerID:   existing.ID,
			ParentID:   parentID,
			SectionID:  item.SectionID,
			Start:      existing.Start, End: existing.End,
			Type: existing.Type, Final: existing.Final,
			At: time.Now().UTC(),
		})
		if err != nil {
			return models.Marker{}, opError("delete", models.WrapError(models.ErrInternal, err, "append action log entry"))
		}
	}

	return existing, nil
}

// findMarker resolves a marker by id via the Library DB Adapter.
func (s *Service) findMarker(ctx context.Context, markerID int64) (models.Marker, int64, error) {
	m, err := s.lib.GetMarker(ctx, markerID)
	if err != nil {
		if err == library.ErrNotFound {
			return models.Marker{}, 0, models.NewError(models.ErrNotFound, "marker %d not found", markerID)
		}
		return models.Marker{}, 0, models.WrapError(models.ErrInternal, err, "load marker %d", markerID)
	}
	return m, m.ParentID, nil
}

// restoreKeyFor looks up the restore key a marker id was last logged
// under, or "" if the action log is disabled or has no record.
func (s *Service) restoreKeyFor(markerID int64) string {
	if s.actionLog == nil {
		return ""
	}
	entries, err := s.actionLog.All()
	if err != nil {
		return ""
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].MarkerID == markerID {
			return entries[i].RestoreKey
		}
	}
	return ""
}

func observeOp(op string) func() {
	metrics.EngineOpTotal.WithLabelValues(op).Inc()
	timer := metrics.EngineOpDuration.WithLabelValues(op)
	start := time.Now()
	return func() {
		timer.Observe(time.Since(start).Seconds())
	}
}

func opError(op string, err error) error {
	if err != nil {
		metrics.EngineOpErrors.WithLabelValues(op, string(models.KindOf(err))).Inc()
	}
	return err
}
