package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sceneindex/markerd/internal/models"
)

const markerColumns = `id, item_id, start_ms, end_ms, marker_type, marker_index, final, created_by_user, created_at, modified_at`

func scanMarker(rows interface {
	Scan(dest ...interface{}) error
}) (models.Marker, error) {
	var m models.Marker
	var markerType string
	if err := rows.Scan(&m.ID, &m.ParentID, &m.Start, &m.End, &markerType, &m.Index, &m.Final,
		&m.CreatedByUser, &m.CreatedAt, &m.ModifiedAt); err != nil {
		return models.Marker{}, err
	}
	m.Type = models.MarkerType(markerType)
	return m, nil
}

// GetMarker resolves a single marker by id, independent of knowing its
// parent (the only lookup CRUD's Edit/Delete have available when the
// action log is disabled).
func (db *DB) GetMarker(ctx context.Context, id int64) (models.Marker, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+markerColumns+` FROM lib.markers WHERE id = ?`, id)
	m, err := scanMarker(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Marker{}, ErrNotFound
		}
		return models.Marker{}, fmt.Errorf("query marker %d: %w", id, err)
	}
	m.SectionID, m.ShowID, m.SeasonID = db.ancestorsOf(ctx, m.ParentID)
	return m, nil
}

// ListMarkers returns every marker of parentID, sorted by Start.
func (db *DB) ListMarkers(ctx context.Context, parentID int64) ([]models.Marker, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+markerColumns+` FROM lib.markers WHERE item_id = ? ORDER BY start_ms`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query markers of %d: %w", parentID, err)
	}
	defer rows.Close()

	var out []models.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		m.SectionID, m.ShowID, m.SeasonID = db.ancestorsOf(ctx, m.ParentID)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMarkersForParents batches ListMarkers over many parents in one
// round trip.
func (db *DB) ListMarkersForParents(ctx context.Context, parentIDs []int64) (map[int64][]models.Marker, error) {
	out := make(map[int64][]models.Marker, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(parentIDs))
	args := make([]interface{}, len(parentIDs))
	for i, id := range parentIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT ` + markerColumns + ` FROM lib.markers WHERE item_id IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY item_id, start_ms`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query markers for parents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		out[m.ParentID] = append(out[m.ParentID], m)
	}
	return out, rows.Err()
}

// ListMarkersForSubtree recursively descends from the item rootID (show,
// season, episode or movie) and returns every marker owned by it or a
// descendant item, via a recursive CTE over items.parent_id. A section id
// is not a root: sections are not rows of the item hierarchy, so a section
// id yields no section-wide markers.
func (db *DB) ListMarkersForSubtree(ctx context.Context, rootID int64) ([]models.Marker, error) {
	rows, err := db.conn.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM lib.items WHERE id = ?
			UNION ALL
			SELECT i.id FROM lib.items i JOIN subtree s ON i.parent_id = s.id
		)
		SELECT `+markerColumns+`
		FROM lib.markers m JOIN subtree s ON m.item_id = s.id
		ORDER BY m.item_id, m.start_ms`, rootID)
	if err != nil {
		return nil, fmt.Errorf("query subtree markers of %d: %w", rootID, err)
	}
	defer rows.Close()

	var out []models.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		m.SectionID, m.ShowID, m.SeasonID = db.ancestorsOf(ctx, m.ParentID)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ancestorsOf walks up an item's parent chain to denormalize sectionID,
// showID and seasonID onto a marker, per the Marker data model (spec §3).
// Errors are swallowed to zero values: ancestor denormalization is a
// convenience for callers, not required for correctness of the core
// invariants, and a lookup failure here should not fail the whole query.
func (db *DB) ancestorsOf(ctx context.Context, parentID int64) (sectionID, showID, seasonID int64) {
	item, err := db.GetItem(ctx, parentID)
	if err != nil {
		return 0, 0, 0
	}
	sectionID = item.SectionID

	switch item.Type {
	case models.ItemEpisode:
		if item.ParentID != 0 {
			season, err := db.GetItem(ctx, item.ParentID)
			if err == nil {
				seasonID = season.ID
				showID = season.ParentID
			}
		}
	case models.ItemMovie:
		// movies have no season/show ancestors
	}
	return sectionID, showID, seasonID
}

// SectionLeaf is one markerable item enumerated by SectionOverview, used
// only to rebuild the Marker Cache.
type SectionLeaf struct {
	ParentID int64
	Type     models.ItemType
	Intros   int
	Credits  int
	Total    int
}

// SectionOverview enumerates every markerable leaf of a section with a
// tagged per-type marker count, the single pass the cache rebuilds from
// at startup (spec §4.C).
func (db *DB) SectionOverview(ctx context.Context, sectionID int64) ([]SectionLeaf, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT i.id, i.item_type,
			SUM(CASE WHEN m.marker_type = 'intro' THEN 1 ELSE 0 END) AS intros,
			SUM(CASE WHEN m.marker_type = 'credits' THEN 1 ELSE 0 END) AS credits,
			COUNT(m.id) AS total
		FROM lib.items i
		LEFT JOIN lib.markers m ON m.item_id = i.id
		WHERE i.section_id = ? AND i.item_type IN ('episode', 'movie')
		GROUP BY i.id, i.item_type
		ORDER BY i.id`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("query section overview %d: %w", sectionID, err)
	}
	defer rows.Close()

	var out []SectionLeaf
	for rows.Next() {
		var leaf SectionLeaf
		var itemType string
		if err := rows.Scan(&leaf.ParentID, &itemType, &leaf.Intros, &leaf.Credits, &leaf.Total); err != nil {
			return nil, fmt.Errorf("scan section leaf: %w", err)
		}
		leaf.Type = models.ItemType(itemType)
		out = append(out, leaf)
	}
	return out, rows.Err()
}

// MarkerExists reports whether a marker id still has a live row, the first
// of the Purge Reconciler's two lookups (spec §4.F step 1).
func (db *DB) MarkerExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM lib.markers WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check marker exists %d: %w", id, err)
	}
	return exists, nil
}

// MarkerFingerprintExists reports whether a marker matching
// (parentID, start, end, type) still has a live row, the Purge
// Reconciler's fallback lookup for when the library database renumbered
// the marker's id.
func (db *DB) MarkerFingerprintExists(ctx context.Context, parentID, start, end int64, markerType models.MarkerType) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM lib.markers
			WHERE item_id = ? AND start_ms = ? AND end_ms = ? AND marker_type = ?
		)`, parentID, start, end, string(markerType)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check marker fingerprint: %w", err)
	}
	return exists, nil
}

// SubtreeItemIDs recursively descends from rootID and returns every
// descendant item id (rootID included), the scope PurgeCheck filters its
// section-wide purge index by.
func (db *DB) SubtreeItemIDs(ctx context.Context, rootID int64) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM lib.items WHERE id = ?
			UNION ALL
			SELECT i.id FROM lib.items i JOIN subtree s ON i.parent_id = s.id
		)
		SELECT id FROM subtree`, rootID)
	if err != nil {
		return nil, fmt.Errorf("query subtree of %d: %w", rootID, err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subtree id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
