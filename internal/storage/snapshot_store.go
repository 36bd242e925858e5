package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"drawr/internal/domain"
)

// DefaultMaxSnapshots bounds the persisted snapshots per drawing.
const DefaultMaxSnapshots = 40

// SnapshotStore keeps a bounded, ordered list of history snapshots per drawing.
// Ids are ULIDs so lexical order is creation order.
type SnapshotStore struct {
	db  *DB
	max int
}

func NewSnapshotStore(db *DB, max int) *SnapshotStore {
	if max < 1 {
		max = DefaultMaxSnapshots
	}
	return &SnapshotStore{db: db, max: max}
}

// PushSnapshot appends rec and prunes the oldest entries over the limit.
func (s *SnapshotStore) PushSnapshot(ctx context.Context, rec *domain.SnapshotRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	rec.CreatedAt = time.Now().UTC()
	shapes := rec.Shapes
	if shapes == nil {
		shapes = domain.Snapshot{}
	}
	b, err := json.Marshal(shapes)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO snapshots (id, drawing_id, layer_id, label, shapes_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.DrawingID, rec.LayerID, rec.Label, string(b), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return s.prune(ctx, rec.DrawingID)
}

// ListSnapshots returns the drawing's snapshots oldest first.
func (s *SnapshotStore) ListSnapshots(ctx context.Context, drawingID string) ([]domain.SnapshotRecord, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id, drawing_id, layer_id, label, shapes_json, created_at
		 FROM snapshots WHERE drawing_id = ? ORDER BY id ASC`), drawingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.SnapshotRecord
	for rows.Next() {
		var r domain.SnapshotRecord
		var shapes string
		if err := rows.Scan(&r.ID, &r.DrawingID, &r.LayerID, &r.Label, &shapes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(shapes), &r.Shapes); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClearSnapshots removes all snapshots of a drawing.
func (s *SnapshotStore) ClearSnapshots(ctx context.Context, drawingID string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM snapshots WHERE drawing_id = ?`), drawingID)
	return err
}

func (s *SnapshotStore) prune(ctx context.Context, drawingID string) error {
	var count int
	if err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT COUNT(*) FROM snapshots WHERE drawing_id = ?`), drawingID,
	).Scan(&count); err != nil {
		return fmt.Errorf("count snapshots: %w", err)
	}
	if count <= s.max {
		return nil
	}

	// Collect ids first; close the cursor before writing.
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id FROM snapshots WHERE drawing_id = ? ORDER BY id ASC LIMIT ?`), drawingID, count-s.max,
	)
	if err != nil {
		return fmt.Errorf("select stale snapshots: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM snapshots WHERE id = ?`), id); err != nil {
			return fmt.Errorf("prune snapshot %s: %w", id, err)
		}
	}
	s.db.log.WithField("drawing_id", drawingID).Debugf("pruned %d snapshots", len(ids))
	return nil
}
