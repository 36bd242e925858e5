package app

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"drawr/internal/domain"
)

// ============================================================
// Drawings
// ============================================================

func (a *App) ListDrawings() ([]domain.DrawingSummary, error) {
	return a.b.drawings.List(a.ctx)
}

func (a *App) NewDrawing(name string) (*domain.Drawing, error) {
	d, err := a.b.drawings.NewDrawing(a.ctx, name)
	if err != nil {
		return nil, err
	}
	a.watcher.SetDrawing(d)
	return d, nil
}

// CurrentDrawing returns the open drawing's metadata, or nil.
func (a *App) CurrentDrawing() *domain.Drawing {
	return a.b.drawings.Current()
}

func (a *App) SaveDrawing() (*domain.Drawing, error) {
	d, err := a.b.drawings.Save(a.ctx)
	if err != nil {
		return nil, err
	}
	a.watcher.SetDrawing(d)
	return d, nil
}

func (a *App) RenameDrawing(name string) error {
	if name == "" {
		return fmt.Errorf("rename: empty name")
	}
	if err := a.b.drawings.Rename(a.ctx, name); err != nil {
		return err
	}
	a.watcher.SetDrawing(a.b.drawings.Current())
	return nil
}

// LoadDrawing replaces the canvas with a stored drawing. The frontend also
// calls it after a drawing:external-change event.
func (a *App) LoadDrawing(id string) (*domain.Drawing, error) {
	d, err := a.b.drawings.Load(a.ctx, id)
	if err != nil {
		return nil, err
	}
	a.watcher.SetDrawing(d)
	return d, nil
}

func (a *App) DeleteDrawing(id string) error {
	return a.b.drawings.Delete(a.ctx, id)
}

// DrawingHistory lists the persisted snapshots of a drawing.
func (a *App) DrawingHistory(id string) ([]domain.SnapshotRecord, error) {
	return a.b.drawings.Snapshots(a.ctx, id)
}

// DrawingPreview renders a stored drawing as a data URL.
func (a *App) DrawingPreview(id string) (string, error) {
	var buf bytes.Buffer
	if err := a.b.drawings.RenderDrawingPNG(a.ctx, id, &buf); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
