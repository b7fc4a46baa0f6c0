package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sceneindex/markerd/internal/models"
)

// ErrNotFound is returned by read operations that find no matching row.
// The engine classifies it into models.ErrNotFound / models.ErrBadTarget
// depending on which lookup failed.
var ErrNotFound = errors.New("library: not found")

// Libraries enumerates every top-level section.
func (db *DB) Libraries(ctx context.Context) ([]models.Section, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, section_type FROM lib.sections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var out []models.Section
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.Type); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetItem resolves a single item's type, parent chain, and duration.
func (db *DB) GetItem(ctx context.Context, id int64) (models.Item, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, section_id, parent_id, item_type, title, duration
		FROM lib.items WHERE id = ?`, id)

	var item models.Item
	var parentID sql.NullInt64
	var duration sql.NullInt64
	if err := row.Scan(&item.ID, &item.SectionID, &parentID, &item.Type, &item.Title, &duration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, ErrNotFound
		}
		return models.Item{}, fmt.Errorf("query item %d: %w", id, err)
	}
	item.ParentID = parentID.Int64
	item.Duration = duration.Int64
	return item, nil
}

// ListChildren returns every item whose parent is parentID, optionally
// filtered to a single item type.
func (db *DB) ListChildren(ctx context.Context, parentID int64, childType models.ItemType) ([]models.Item, error) {
	query := `SELECT id, section_id, parent_id, item_type, title, duration
		FROM lib.items WHERE parent_id = ?`
	args := []interface{}{parentID}
	if childType != "" {
		query += ` AND item_type = ?`
		args = append(args, string(childType))
	}
	query += ` ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query children of %d: %w", parentID, err)
	}
	defer rows.Close()

	var out []models.Item
	for rows.Next() {
		var item models.Item
		var parent sql.NullInt64
		var duration sql.NullInt64
		if err := rows.Scan(&item.ID, &item.SectionID, &parent, &item.Type, &item.Title, &duration); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.ParentID = parent.Int64
		item.Duration = duration.Int64
		out = append(out, item)
	}
	return out, rows.Err()
}

// Items enumerates the shows or movies of a section, the leaves `get_section`
// reports, optionally filtered to one item type.
func (db *DB) Items(ctx context.Context, sectionID int64, filter models.ItemType) ([]models.Item, error) {
	query := `SELECT id, section_id, parent_id, item_type, title, duration
		FROM lib.items WHERE section_id = ? AND parent_id IS NULL`
	args := []interface{}{sectionID}
	if filter != "" {
		query += ` AND item_type = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items of section %d: %w", sectionID, err)
	}
	defer rows.Close()

	var out []models.Item
	for rows.Next() {
		var item models.Item
		var parent sql.NullInt64
		var duration sql.NullInt64
		if err := rows.Scan(&item.ID, &item.SectionID, &parent, &item.Type, &item.Title, &duration); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.ParentID = parent.Int64
		item.Duration = duration.Int64
		out = append(out, item)
	}
	return out, rows.Err()
}
