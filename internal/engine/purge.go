package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sceneindex/markerd/internal/metrics"
	"github.com/sceneindex/markerd/internal/models"
)

// purgeIndex is the in-memory result of the most recent reconciliation
// pass: sectionId -> parentId -> purge candidates (spec §4.F step 3).
type purgeIndex struct {
	mu        sync.RWMutex
	bySection map[int64]map[int64][]models.PurgedMarker
}

func newPurgeIndex() *purgeIndex {
	return &purgeIndex{bySection: make(map[int64]map[int64][]models.PurgedMarker)}
}

func (p *purgeIndex) setSection(sectionID int64, byParent map[int64][]models.PurgedMarker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bySection[sectionID] = byParent
	metrics.PurgeCandidates.WithLabelValues(fmt.Sprint(sectionID)).Set(float64(countCandidates(byParent)))
}

// sectionIDs reports every section currently tracked, so a reconciliation
// pass can tell which sections need clearing once their candidates vanish.
func (p *purgeIndex) sectionIDs() []int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]int64, 0, len(p.bySection))
	for id := range p.bySection {
		ids = append(ids, id)
	}
	return ids
}

func countCandidates(byParent map[int64][]models.PurgedMarker) int {
	n := 0
	for _, list := range byParent {
		n += len(list)
	}
	return n
}

func (p *purgeIndex) forSection(sectionID int64) models.SectionPurges {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := models.SectionPurges{SectionID: sectionID, ByParent: make(map[int64][]models.PurgedMarker)}
	for parentID, list := range p.bySection[sectionID] {
		out.ByParent[parentID] = append([]models.PurgedMarker(nil), list...)
	}
	return out
}

func (p *purgeIndex) find(sectionID int64, oldMarkerID int64) (models.PurgedMarker, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, list := range p.bySection[sectionID] {
		for _, pm := range list {
			if pm.OldMarkerID == oldMarkerID {
				return pm, true
			}
		}
	}
	return models.PurgedMarker{}, false
}

// remove drops one candidate after it has been restored or ignored.
func (p *purgeIndex) remove(sectionID, parentID int64, restoreKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.bySection[sectionID][parentID]
	out := list[:0]
	for _, pm := range list {
		if pm.RestoreKey != restoreKey {
			out = append(out, pm)
		}
	}
	if len(out) == 0 {
		delete(p.bySection[sectionID], parentID)
	} else {
		p.bySection[sectionID][parentID] = out
	}
}

// reconcile is the supervisor.ReconcileFunc: it re-diffs the whole action
// log against the live library DB and replaces the purge index wholesale
// (spec §4.F step 1-3). Run at startup and on every supervised tick.
func (s *Service) reconcile(ctx context.Context) error {
	if !s.cfg.BackupActions {
		return nil
	}

	entries, err := s.actionLog.All()
	if err != nil {
		return fmt.Errorf("walk action log: %w", err)
	}

	// Keep the most recent entry per restore key, and whether that key's
	// marker is still "known alive" (born or edited, not deleted/ignored).
	// Entries arrive in commit order, so the last entry for a key wins.
	last := make(map[string]models.ActionLogEntry)
	for _, e := range entries {
		last[e.RestoreKey] = e
	}

	bySection := make(map[int64]map[int64][]models.PurgedMarker)
	for restoreKey, e := range last {
		if !e.Alive() {
			continue // deleted or ignored: not a purge candidate
		}

		exists, err := s.lib.MarkerExists(ctx, e.MarkerID)
		if err != nil {
			return fmt.Errorf("check marker %d: %w", e.MarkerID, err)
		}
		if !exists {
			exists, err = s.lib.MarkerFingerprintExists(ctx, e.ParentID, e.Start, e.End, e.Type)
			if err != nil {
				return fmt.Errorf("check marker fingerprint for %s: %w", restoreKey, err)
			}
		}
		if exists {
			continue // still live, not a purge
		}

		candidate := models.PurgedMarker{
			RestoreKey:  restoreKey,
			OldMarkerID: e.MarkerID,
			ParentID:    e.ParentID,
			SectionID:   e.SectionID,
			Start:       e.Start,
			End:         e.End,
			Type:        e.Type,
			Final:       e.Final,
		}

		if bySection[e.SectionID] == nil {
			bySection[e.SectionID] = make(map[int64][]models.PurgedMarker)
		}
		bySection[e.SectionID][e.ParentID] = append(bySection[e.SectionID][e.ParentID], candidate)
	}

	// Replace every previously-populated section wholesale, including ones
	// whose candidates all disappeared since the last pass (e.g. a marker
	// the library DB re-materialized) — those must be cleared, not left
	// stale, to actually live up to "replaces the purge index wholesale".
	known := s.purge.sectionIDs()
	for sectionID, byParent := range bySection {
		s.purge.setSection(sectionID, byParent)
	}
	for _, sectionID := range known {
		if _, stillPresent := bySection[sectionID]; !stillPresent {
			s.purge.setSection(sectionID, map[int64][]models.PurgedMarker{})
		}
	}
	return nil
}

// PurgesForSection returns every purge candidate of a section.
func (s *Service) PurgesForSection(ctx context.Context, sectionID int64) (models.SectionPurges, error) {
	if err := s.requireRunning(); err != nil {
		return models.SectionPurges{}, err
	}
	if !s.cfg.BackupActions {
		return models.SectionPurges{}, models.NewError(models.ErrFeatureDisabled, "backup_actions is disabled")
	}
	return s.purge.forSection(sectionID), nil
}

// PurgeCheck filters the purge index to markers under subtreeRootID.
func (s *Service) PurgeCheck(ctx context.Context, subtreeRootID int64) ([]models.PurgedMarker, error) {
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	if !s.cfg.BackupActions {
		return nil, models.NewError(models.ErrFeatureDisabled, "backup_actions is disabled")
	}

	root, err := s.lib.GetItem(ctx, subtreeRootID)
	if err != nil {
		return nil, models.WrapError(models.ErrNotFound, err, "subtree root %d not found", subtreeRootID)
	}

	ids, err := s.lib.SubtreeItemIDs(ctx, subtreeRootID)
	if err != nil {
		return nil, models.WrapError(models.ErrInternal, err, "enumerate subtree of %d", subtreeRootID)
	}
	inSubtree := make(map[int64]bool, len(ids))
	for _, id := range ids {
		inSubtree[id] = true
	}

	section := s.purge.forSection(root.SectionID)
	var out []models.PurgedMarker
	for parentID, list := range section.ByParent {
		if inSubtree[parentID] {
			out = append(out, list...)
		}
	}
	return out, nil
}

// Restore re-adds a purged marker via the CRUD Add path and links the new
// marker's history to the original restore key (spec §4.F).
func (s *Service) Restore(ctx context.Context, oldMarkerID, sectionID int64) (models.Marker, error) {
	if err := s.requireRunning(); err != nil {
		return models.Marker{}, err
	}
	if !s.cfg.BackupActions {
		return models.Marker{}, models.NewError(models.ErrFeatureDisabled, "backup_actions is disabled")
	}

	candidate, ok := s.purge.find(sectionID, oldMarkerID)
	if !ok {
		return models.Marker{}, models.NewError(models.ErrNotFound, "no purge candidate for marker %d in section %d", oldMarkerID, sectionID)
	}

	marker, err := s.addInternal(ctx, candidate.ParentID, candidate.Start, candidate.End, candidate.Type, candidate.Final, candidate.RestoreKey, models.OpRestore)
	if err != nil {
		// Partial restore failure: the purged index is left intact so the
		// user can retry (spec §4.F failure semantics).
		return models.Marker{}, err
	}

	s.purge.remove(sectionID, candidate.ParentID, candidate.RestoreKey)
	return marker, nil
}

// Ignore marks a purge candidate as dismissed: the action log keeps the
// history, but the candidate drops out of the in-memory purge index.
func (s *Service) Ignore(ctx context.Context, oldMarkerID, sectionID int64) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	if !s.cfg.BackupActions {
		return models.NewError(models.ErrFeatureDisabled, "backup_actions is disabled")
	}

	candidate, ok := s.purge.find(sectionID, oldMarkerID)
	if !ok {
		return models.NewError(models.ErrNotFound, "no purge candidate for marker %d in section %d", oldMarkerID, sectionID)
	}

	_, err := s.actionLog.Append(models.ActionLogEntry{
		RestoreKey: candidate.RestoreKey,
		Op:         models.OpIgnore,
		MarkerID:   candidate.OldMarkerID,
		ParentID:   candidate.ParentID,
		SectionID:  candidate.SectionID,
		Start:      candidate.Start,
		End:        candidate.End,
		Type:       candidate.Type,
		Final:      candidate.Final,
		Ignored:    true,
		At:         time.Now().UTC(),
	})
	if err != nil {
		return models.WrapError(models.ErrInternal, err, "append ignore entry")
	}

	s.purge.remove(sectionID, candidate.ParentID, candidate.RestoreKey)
	return nil
}
