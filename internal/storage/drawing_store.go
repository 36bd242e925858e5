package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"drawr/internal/domain"
)

// DrawingStore implements domain.DrawingStore on SQL.
type DrawingStore struct {
	db *DB
}

func NewDrawingStore(db *DB) *DrawingStore {
	return &DrawingStore{db: db}
}

func (s *DrawingStore) CreateDrawing(ctx context.Context, d *domain.Drawing) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	layers, err := marshalLayers(d.Layers)
	if err != nil {
		return err
	}
	_, err = s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO drawings (id, name, layers_json, active_layer, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
		d.ID, d.Name, layers, d.ActiveLayer, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create drawing: %w", err)
	}
	s.db.log.WithField("drawing_id", d.ID).Debug("drawing created")
	return nil
}

func (s *DrawingStore) GetDrawing(ctx context.Context, id string) (*domain.Drawing, error) {
	d := &domain.Drawing{}
	var layers string
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT id, name, layers_json, active_layer, created_at, updated_at FROM drawings WHERE id = ?`), id,
	).Scan(&d.ID, &d.Name, &layers, &d.ActiveLayer, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get drawing %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get drawing: %w", err)
	}
	if err := json.Unmarshal([]byte(layers), &d.Layers); err != nil {
		return nil, fmt.Errorf("decode layers of %s: %w", id, err)
	}
	return d, nil
}

func (s *DrawingStore) ListDrawings(ctx context.Context) ([]domain.DrawingSummary, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT id, name, updated_at FROM drawings ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	defer rows.Close()

	var out []domain.DrawingSummary
	for rows.Next() {
		var d domain.DrawingSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *DrawingStore) UpdateDrawing(ctx context.Context, d *domain.Drawing) error {
	d.UpdatedAt = time.Now().UTC()
	layers, err := marshalLayers(d.Layers)
	if err != nil {
		return err
	}
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`UPDATE drawings SET name = ?, layers_json = ?, active_layer = ?, updated_at = ? WHERE id = ?`),
		d.Name, layers, d.ActiveLayer, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update drawing: %w", err)
	}
	return expectRow(res, "update drawing", d.ID)
}

// DeleteDrawing removes the drawing and its snapshots.
func (s *DrawingStore) DeleteDrawing(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM snapshots WHERE drawing_id = ?`), id); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM drawings WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	if err := expectRow(res, "delete drawing", id); err != nil {
		return err
	}
	return tx.Commit()
}

func marshalLayers(layers []domain.LayerData) (string, error) {
	if layers == nil {
		layers = []domain.LayerData{}
	}
	b, err := json.Marshal(layers)
	if err != nil {
		return "", fmt.Errorf("encode layers: %w", err)
	}
	return string(b), nil
}

func expectRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}
