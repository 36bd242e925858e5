package domain

import (
	"context"
	"time"
)

// LayerData is the persisted content of one layer.
type LayerData struct {
	ID      string   `json:"id"`
	Visible bool     `json:"visible"`
	Shapes  Snapshot `json:"shapes"`
}

// Drawing is a saved editor state: every layer's shape list in layer order.
type Drawing struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Layers      []LayerData `json:"layers"`
	ActiveLayer string      `json:"activeLayer"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ShapeCount returns the number of shapes over all layers.
func (d *Drawing) ShapeCount() int {
	n := 0
	for _, l := range d.Layers {
		n += len(l.Shapes)
	}
	return n
}

// DrawingSummary is the listing view of a drawing.
type DrawingSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DrawingStore manages persisted drawings.
type DrawingStore interface {
	CreateDrawing(ctx context.Context, d *Drawing) error
	GetDrawing(ctx context.Context, id string) (*Drawing, error)
	ListDrawings(ctx context.Context) ([]DrawingSummary, error)
	UpdateDrawing(ctx context.Context, d *Drawing) error
	DeleteDrawing(ctx context.Context, id string) error
}

// SnapshotRecord is one history snapshot kept across sessions.
type SnapshotRecord struct {
	ID        string    `json:"id"`
	DrawingID string    `json:"drawingId"`
	LayerID   string    `json:"layerId"`
	Label     string    `json:"label"`
	Shapes    Snapshot  `json:"shapes"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotStore keeps a bounded list of snapshots per drawing.
type SnapshotStore interface {
	PushSnapshot(ctx context.Context, rec *SnapshotRecord) error
	ListSnapshots(ctx context.Context, drawingID string) ([]SnapshotRecord, error)
	ClearSnapshots(ctx context.Context, drawingID string) error
}
