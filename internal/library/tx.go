package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sceneindex/markerd/internal/models"
)

// Tx groups the writes of one logical mutation (spec §4.A). Callers must
// call Commit or Rollback; BeginTx never auto-commits.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// BeginTx starts a transaction against the attached library catalog.
func (db *DB) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, ctx: ctx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. It is safe to call after a failed
// Commit or alongside a deferred rollback-on-error guard; rolling back an
// already-committed transaction returns sql.ErrTxDone, which callers
// following the rollback-on-error pattern ignore.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// InsertMarker inserts a new marker and returns it with its assigned id.
// The caller is responsible for having already computed Index against the
// sibling set (spec §4.D Add step 5).
func (t *Tx) InsertMarker(m MarkerWrite) (int64, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		INSERT INTO lib.markers
			(item_id, start_ms, end_ms, marker_type, marker_index, final, created_by_user, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		m.ParentID, m.Start, m.End, string(m.Type), m.Index, m.Final, m.CreatedByUser, m.At, m.At)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert marker: %w", err)
	}
	return id, nil
}

// UpdateMarker rewrites a marker's full mutable state: interval, type,
// final, and index.
func (t *Tx) UpdateMarker(id int64, m MarkerWrite) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE lib.markers
		SET start_ms = ?, end_ms = ?, marker_type = ?, marker_index = ?, final = ?, modified_at = ?
		WHERE id = ?`,
		m.Start, m.End, string(m.Type), m.Index, m.Final, m.At, id)
	if err != nil {
		return fmt.Errorf("update marker %d: %w", id, err)
	}
	return nil
}

// UpdateMarkerIndex rewrites only a marker's Index, the narrow write the
// CRUD and Shift engines issue for re-indexed siblings that did not
// otherwise change.
func (t *Tx) UpdateMarkerIndex(id int64, index int) error {
	_, err := t.tx.ExecContext(t.ctx, `UPDATE lib.markers SET marker_index = ? WHERE id = ?`, index, id)
	if err != nil {
		return fmt.Errorf("update marker index %d: %w", id, err)
	}
	return nil
}

// DeleteMarker removes a marker row.
func (t *Tx) DeleteMarker(id int64) error {
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM lib.markers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete marker %d: %w", id, err)
	}
	return nil
}

// MarkerWrite is the subset of a Marker's fields a write actually sets;
// ID/SectionID/ShowID/SeasonID are derived or assigned by the database and
// not part of a write payload.
type MarkerWrite struct {
	ParentID      int64
	Start, End    int64
	Index         int
	Type          models.MarkerType
	Final         bool
	CreatedByUser bool
	At            time.Time
}
