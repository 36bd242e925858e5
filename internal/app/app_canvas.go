package app

import (
	"bytes"
	"encoding/base64"

	"drawr/internal/domain"
	"drawr/internal/editor"
	"drawr/internal/scene"
)

// ============================================================
// Pointer & key input
// ============================================================

// Modifiers mirrors the DOM event modifier flags.
type Modifiers struct {
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	Meta  bool `json:"meta"`
}

func (m Modifiers) scene() scene.Modifiers {
	return scene.Modifiers{Shift: m.Shift, Ctrl: m.Ctrl, Meta: m.Meta}
}

func (a *App) PointerDown(x, y float64, mods Modifiers) {
	a.input(func(st *scene.Stage) { st.PointerDown(x, y, mods.scene()) })
}

func (a *App) PointerMove(x, y float64, mods Modifiers) {
	a.input(func(st *scene.Stage) { st.PointerMove(x, y, mods.scene()) })
}

func (a *App) PointerUp(x, y float64, mods Modifiers) {
	a.input(func(st *scene.Stage) { st.PointerUp(x, y, mods.scene()) })
}

func (a *App) KeyDown(key string, mods Modifiers) {
	a.input(func(st *scene.Stage) { st.KeyDown(key, mods.scene()) })
}

func (a *App) input(fn func(*scene.Stage)) {
	a.b.drawings.Do(func(ed *editor.Editor) error {
		fn(ed.Stage())
		return nil
	})
}

// ============================================================
// Tools & modes
// ============================================================

// ChangeTool arms a drawing tool by type name (RECTANGLE, LINE, POLYGON).
func (a *App) ChangeTool(tool string) error {
	t, err := domain.ParseShapeType(tool)
	if err != nil {
		return err
	}
	return a.b.drawings.Do(func(ed *editor.Editor) error { return ed.ChangeTool(t) })
}

func (a *App) EnableSelection() error {
	return a.b.drawings.Do((*editor.Editor).EnableSelection)
}

func (a *App) DisableSelection() error {
	return a.b.drawings.Do((*editor.Editor).DisableSelection)
}

func (a *App) EnableDrag() error {
	return a.b.drawings.Do((*editor.Editor).EnableDrag)
}

func (a *App) DisableDrag() error {
	return a.b.drawings.Do((*editor.Editor).DisableDrag)
}

// EditorState is what the toolbar shows.
type EditorState struct {
	Tool      string             `json:"tool"`
	Selection bool               `json:"selection"`
	Drag      bool               `json:"drag"`
	Style     domain.ShapeConfig `json:"style"`
	CanUndo   bool               `json:"canUndo"`
	CanRedo   bool               `json:"canRedo"`
}

func (a *App) GetEditorState() EditorState {
	var st EditorState
	a.b.drawings.Do(func(ed *editor.Editor) error {
		if t, ok := ed.ActiveTool(); ok {
			st.Tool = string(t)
		}
		st.Selection = ed.IsSelectionEnabled()
		st.Drag = ed.IsDragEnabled()
		st.Style = ed.Style()
		st.CanUndo = ed.CanUndo()
		st.CanRedo = ed.CanRedo()
		return nil
	})
	return st
}

// ============================================================
// Style
// ============================================================

func (a *App) ChangeFill(color string) {
	a.b.drawings.Do(func(ed *editor.Editor) error { ed.ChangeFill(color); return nil })
}

func (a *App) ChangeStroke(color string) {
	a.b.drawings.Do(func(ed *editor.Editor) error { ed.ChangeStroke(color); return nil })
}

func (a *App) ChangeStrokeWidth(width float64) {
	a.b.drawings.Do(func(ed *editor.Editor) error { ed.ChangeStrokeWidth(width); return nil })
}

// UpdateShapeConfig patches the style of ids, or of the selection when ids is empty.
func (a *App) UpdateShapeConfig(patch domain.StylePatch, ids []string) error {
	return a.b.drawings.Do(func(ed *editor.Editor) error { return ed.UpdateShapeConfig(patch, ids...) })
}

// ============================================================
// Shapes & history
// ============================================================

func (a *App) DeleteSelected() error {
	return a.b.drawings.Do((*editor.Editor).DeleteSelected)
}

func (a *App) Clear() error {
	return a.b.drawings.Do((*editor.Editor).Clear)
}

// Export returns the active layer's shapes.
func (a *App) Export() (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := a.b.drawings.Do(func(ed *editor.Editor) error {
		var err error
		snap, err = ed.Export()
		return err
	})
	return snap, err
}

// Import appends shapes to the active layer.
func (a *App) Import(data []domain.ShapeData) error {
	return a.b.drawings.Do(func(ed *editor.Editor) error { return ed.Import(data) })
}

func (a *App) Undo() (bool, error) {
	var ok bool
	err := a.b.drawings.Do(func(ed *editor.Editor) error {
		var err error
		ok, err = ed.Undo()
		return err
	})
	return ok, err
}

func (a *App) Redo() (bool, error) {
	var ok bool
	err := a.b.drawings.Do(func(ed *editor.Editor) error {
		var err error
		ok, err = ed.Redo()
		return err
	})
	return ok, err
}

// ============================================================
// Layers
// ============================================================

func (a *App) AddLayer(activate bool) string {
	var id string
	a.b.drawings.Do(func(ed *editor.Editor) error {
		id = ed.AddLayer(activate)
		return nil
	})
	return id
}

func (a *App) ActivateLayer(id string) error {
	return a.b.drawings.Do(func(ed *editor.Editor) error { return ed.ActivateLayer(id) })
}

func (a *App) RemoveLayer(id string) error {
	return a.b.drawings.Do(func(ed *editor.Editor) error { return ed.RemoveLayer(id) })
}

func (a *App) HideLayer(id string) error {
	return a.b.drawings.Do(func(ed *editor.Editor) error { return ed.HideLayer(id) })
}

func (a *App) ShowLayer(id string) error {
	return a.b.drawings.Do(func(ed *editor.Editor) error { return ed.ShowLayer(id) })
}

func (a *App) GetLayers() []string {
	var ids []string
	a.b.drawings.Do(func(ed *editor.Editor) error {
		ids = ed.GetLayers()
		return nil
	})
	return ids
}

func (a *App) ActiveLayerID() string {
	var id string
	a.b.drawings.Do(func(ed *editor.Editor) error {
		id = ed.ActiveLayerID()
		return nil
	})
	return id
}

// ExportLayers returns every layer with its shapes, in stacking order.
func (a *App) ExportLayers() []domain.LayerData {
	var layers []domain.LayerData
	a.b.drawings.Do(func(ed *editor.Editor) error {
		layers = ed.ExportLayers()
		return nil
	})
	return layers
}

// ============================================================
// Preview
// ============================================================

// RenderPNG returns the canvas as a data URL.
func (a *App) RenderPNG() (string, error) {
	var buf bytes.Buffer
	if err := a.b.drawings.RenderPNG(&buf); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
