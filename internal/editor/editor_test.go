package editor_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"drawr/internal/domain"
	"drawr/internal/editor"
	"drawr/internal/scene"
	"drawr/internal/shape"
)

var none = scene.Modifiers{}

func newEditor(t *testing.T) *editor.Editor {
	t.Helper()
	e, err := editor.New(editor.DefaultOptions())
	if err != nil {
		t.Fatalf("editor.New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func drag(e *editor.Editor, x1, y1, x2, y2 float64) {
	st := e.Stage()
	st.PointerDown(x1, y1, none)
	st.PointerMove((x1+x2)/2, (y1+y2)/2, none)
	st.PointerMove(x2, y2, none)
	st.PointerUp(x2, y2, none)
}

func exported(t *testing.T, e *editor.Editor) domain.Snapshot {
	t.Helper()
	s, err := e.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	return s
}

func TestEditor_StartsWithRectangleTool(t *testing.T) {
	e := newEditor(t)
	if got := e.GetLayers(); !reflect.DeepEqual(got, []string{"layer-0"}) {
		t.Fatalf("expected one layer, got %v", got)
	}
	tool, armed := e.ActiveTool()
	if tool != domain.ShapeRectangle || !armed {
		t.Fatalf("expected armed RECTANGLE tool, got %s %v", tool, armed)
	}
	if e.CanUndo() || e.CanRedo() {
		t.Error("fresh editor should have no history")
	}
}

func TestEditor_DrawRectangleRecordsHistory(t *testing.T) {
	e := newEditor(t)
	drag(e, 10, 10, 50, 100)

	s := exported(t, e)
	if len(s) != 1 {
		t.Fatalf("expected 1 shape, got %d", len(s))
	}
	d := s[0]
	if d.Type != domain.ShapeRectangle || *d.Width != 40 || *d.Height != 90 {
		t.Errorf("unexpected rectangle %+v", d)
	}
	if d.Config() != editor.DefaultStyle {
		t.Errorf("expected default style, got %+v", d.Config())
	}
	if !e.CanUndo() {
		t.Fatal("creation should record one history entry")
	}

	if ok, err := e.Undo(); !ok || err != nil {
		t.Fatalf("Undo: %v %v", ok, err)
	}
	if len(exported(t, e)) != 0 {
		t.Fatal("undo should restore the empty layer")
	}
	if ok, err := e.Redo(); !ok || err != nil {
		t.Fatalf("Redo: %v %v", ok, err)
	}
	if got := exported(t, e); !reflect.DeepEqual(got, s) {
		t.Errorf("redo should restore the rectangle, got %+v", got)
	}
	if e.CanRedo() {
		t.Error("redo stack should now be empty")
	}
}

func TestEditor_UndoOnEmptyIsNoOp(t *testing.T) {
	e := newEditor(t)
	if ok, err := e.Undo(); ok || err != nil {
		t.Errorf("expected no-op undo, got %v %v", ok, err)
	}
	if ok, err := e.Redo(); ok || err != nil {
		t.Errorf("expected no-op redo, got %v %v", ok, err)
	}
}

func TestEditor_PolygonTool(t *testing.T) {
	e := newEditor(t)
	if err := e.ChangeTool(domain.ShapePolygon); err != nil {
		t.Fatalf("ChangeTool: %v", err)
	}
	st := e.Stage()
	for _, p := range [][2]float64{{0, 0}, {100, 0}, {100, 100}} {
		st.PointerDown(p[0], p[1], none)
		st.PointerUp(p[0], p[1], none)
	}
	if e.CanUndo() {
		t.Fatal("no history entry before the polygon is committed")
	}
	st.KeyDown("Enter", none)

	s := exported(t, e)
	if len(s) != 1 || s[0].Type != domain.ShapePolygon || !s[0].Closed {
		t.Fatalf("expected one closed polygon, got %+v", s)
	}
	if !reflect.DeepEqual(s[0].Points, []float64{0, 0, 100, 0, 100, 100}) {
		t.Errorf("unexpected points %v", s[0].Points)
	}
	if !e.CanUndo() {
		t.Error("commit should record history")
	}
}

func TestEditor_ChangeToolDiscardsHalfDrawnShape(t *testing.T) {
	e := newEditor(t)
	_ = e.ChangeTool(domain.ShapePolygon)
	e.Stage().PointerDown(5, 5, none)
	e.Stage().PointerDown(50, 5, none)

	if err := e.ChangeTool(domain.ShapeLine); err != nil {
		t.Fatalf("ChangeTool: %v", err)
	}
	if len(exported(t, e)) != 0 {
		t.Error("switching tools should discard the pending polygon")
	}
	if e.CanUndo() {
		t.Error("a discarded shape should not reach history")
	}
}

func TestEditor_ChangeToolUnknown(t *testing.T) {
	e := newEditor(t)
	if err := e.ChangeTool("CIRCLE"); !errors.Is(err, domain.ErrUnknownShapeType) {
		t.Fatalf("expected ErrUnknownShapeType, got %v", err)
	}
}

func TestEditor_SelectionModeDisarmsTool(t *testing.T) {
	e := newEditor(t)
	drag(e, 10, 10, 50, 50)

	var selected [][]string
	e.OnSelect(func(s []*shape.Shape) {
		ids := make([]string, 0, len(s))
		for _, sh := range s {
			ids = append(ids, sh.ID())
		}
		selected = append(selected, ids)
	})

	if err := e.EnableSelection(); err != nil {
		t.Fatalf("EnableSelection: %v", err)
	}
	if _, armed := e.ActiveTool(); armed {
		t.Error("tool should be disarmed in selection mode")
	}

	st := e.Stage()
	st.PointerDown(30, 30, none)
	st.PointerUp(30, 30, none)

	if len(exported(t, e)) != 1 {
		t.Fatal("clicking in selection mode must not draw")
	}
	if len(selected) == 0 || !reflect.DeepEqual(selected[len(selected)-1], []string{"drawr-0"}) {
		t.Fatalf("expected drawr-0 selected, got %v", selected)
	}

	if err := e.DeleteSelected(); err != nil {
		t.Fatalf("DeleteSelected: %v", err)
	}
	if len(exported(t, e)) != 0 {
		t.Error("selected shape should be deleted")
	}
	if ok, _ := e.Undo(); !ok || len(exported(t, e)) != 1 {
		t.Error("undo should bring the deleted shape back")
	}
}

func TestEditor_MarqueeSelect(t *testing.T) {
	e := newEditor(t)
	drag(e, 10, 10, 50, 50)
	drag(e, 200, 200, 250, 250)
	_ = e.EnableSelection()

	drag(e, 0, 0, 100, 100)
	sel := e.Selected()
	if len(sel) != 1 || sel[0].ID() != "drawr-0" {
		t.Fatalf("expected drawr-0 selected by marquee, got %d shapes", len(sel))
	}
}

func TestEditor_StyleChangesApplyToNewShapes(t *testing.T) {
	e := newEditor(t)
	e.ChangeFill("red")
	e.ChangeStroke("blue")
	e.ChangeStrokeWidth(1)
	drag(e, 0, 0, 10, 10)

	got := exported(t, e)[0].Config()
	want := domain.ShapeConfig{Fill: "red", Stroke: "blue", StrokeWidth: 1}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestEditor_UpdateShapeConfig(t *testing.T) {
	e := newEditor(t)
	drag(e, 0, 0, 10, 10)
	drag(e, 20, 20, 30, 30)

	if err := e.UpdateShapeConfig(domain.PatchFill("green"), "drawr-1"); err != nil {
		t.Fatalf("UpdateShapeConfig: %v", err)
	}
	s := exported(t, e)
	if s[0].Fill != editor.DefaultStyle.Fill || s[1].Fill != "green" || s[1].Stroke != "black" {
		t.Errorf("unexpected styles %+v / %+v", s[0].Config(), s[1].Config())
	}

	if _, err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if exported(t, e)[1].Fill != editor.DefaultStyle.Fill {
		t.Error("undo should revert the style change")
	}
}

func TestEditor_ImportAndClear(t *testing.T) {
	e := newEditor(t)
	data := []domain.ShapeData{
		domain.RectangleData(1, 2, 3, 4, editor.DefaultStyle),
		domain.PolygonData([]float64{0, 0, 5, 0, 5, 5}, editor.DefaultStyle),
	}
	if err := e.Import(data); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if err := e.ClearAndImport(data[:1]); err != nil {
		t.Fatalf("ClearAndImport: %v", err)
	}
	if got := exported(t, e); len(got) != 1 || got[0].Type != domain.ShapeRectangle {
		t.Fatalf("unexpected content %+v", got)
	}
	if err := e.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(exported(t, e)) != 0 {
		t.Fatal("clear should empty the layer")
	}

	_, _ = e.Undo()
	if len(exported(t, e)) != 1 {
		t.Error("undo clear should restore one shape")
	}
	_, _ = e.Undo()
	if len(exported(t, e)) != 2 {
		t.Error("undo clear-and-import should restore both imported shapes")
	}

	if err := e.ClearAndImport([]domain.ShapeData{{Type: "CIRCLE"}}); !errors.Is(err, domain.ErrUnknownShapeType) {
		t.Fatalf("expected ErrUnknownShapeType, got %v", err)
	}
	if len(exported(t, e)) != 2 {
		t.Error("invalid data must leave the layer untouched")
	}
}

func TestEditor_LayersHaveSeparateHistory(t *testing.T) {
	e := newEditor(t)
	drag(e, 0, 0, 10, 10)

	second := e.AddLayer(true)
	if e.ActiveLayerID() != second {
		t.Fatalf("expected %s active, got %s", second, e.ActiveLayerID())
	}
	if e.CanUndo() {
		t.Fatal("new layer should start without history")
	}
	drag(e, 100, 100, 150, 150)

	if got := exported(t, e); len(got) != 1 || *got[0].X != 100 {
		t.Fatalf("the tool should draw onto the new active layer, got %+v", got)
	}

	_, _ = e.Undo()
	if len(exported(t, e)) != 0 {
		t.Fatal("undo should empty the second layer")
	}
	if err := e.ActivateLayer("layer-0"); err != nil {
		t.Fatalf("ActivateLayer: %v", err)
	}
	if len(exported(t, e)) != 1 || !e.CanUndo() {
		t.Error("first layer should keep its shape and history")
	}
}

func TestEditor_RemoveOnlyLayer(t *testing.T) {
	e := newEditor(t)
	drag(e, 0, 0, 10, 10)
	if err := e.RemoveLayer(""); err != nil {
		t.Fatalf("RemoveLayer: %v", err)
	}
	if got := e.GetLayers(); len(got) != 1 || got[0] != "layer-1" {
		t.Fatalf("expected a fresh layer-1, got %v", got)
	}
	if len(exported(t, e)) != 0 || e.CanUndo() {
		t.Error("fresh layer should be empty with no history")
	}
	drag(e, 0, 0, 10, 10)
	if len(exported(t, e)) != 1 {
		t.Error("tool should keep drawing on the fresh layer")
	}
	if err := e.HideLayer("layer-0"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("removed layer should be unknown, got %v", err)
	}
}

func TestEditor_DragEndRecordsHistory(t *testing.T) {
	e := newEditor(t)
	drag(e, 0, 0, 20, 20)
	if err := e.EnableDrag(); err != nil {
		t.Fatalf("EnableDrag: %v", err)
	}

	changes := 0
	e.OnChange(func(string) { changes++ })
	drag(e, 10, 10, 60, 70)

	got := exported(t, e)[0]
	if *got.X != 50 || *got.Y != 60 {
		t.Fatalf("expected shape moved to 50,60, got %v,%v", *got.X, *got.Y)
	}
	if changes != 1 {
		t.Errorf("expected one change for the drag, got %d", changes)
	}
	_, _ = e.Undo()
	if got := exported(t, e)[0]; *got.X != 0 {
		t.Errorf("undo should move the shape back, got x=%v", *got.X)
	}
}

func TestEditor_LeftLayerStopsDragging(t *testing.T) {
	e := newEditor(t)
	drag(e, 10, 10, 50, 50)
	if err := e.EnableDrag(); err != nil {
		t.Fatalf("EnableDrag: %v", err)
	}
	e.AddLayer(true)
	if err := e.ChangeTool(domain.ShapeRectangle); err != nil {
		t.Fatalf("ChangeTool: %v", err)
	}

	// Starts over the layer-0 rectangle: must draw on layer-1, not move it.
	drag(e, 20, 20, 200, 200)

	layers := e.ExportLayers()
	if len(layers) != 2 {
		t.Fatalf("expected two layers, got %d", len(layers))
	}
	if got := layers[0].Shapes; len(got) != 1 || *got[0].X != 10 || *got[0].Y != 10 {
		t.Errorf("shape on the inactive layer should not move, got %+v", got)
	}
	if got := layers[1].Shapes; len(got) != 1 || *got[0].X != 20 {
		t.Errorf("expected the new rectangle on the active layer, got %+v", got)
	}
}

func TestEditor_SetModeRestoresSelectionAndDrag(t *testing.T) {
	e := newEditor(t)
	if err := e.EnableSelection(); err != nil {
		t.Fatal(err)
	}
	if err := e.EnableDrag(); err != nil {
		t.Fatal(err)
	}
	saved := e.Mode()
	if saved.ToolArmed || saved.Tool != domain.ShapeRectangle {
		t.Fatalf("unexpected mode %+v", saved)
	}

	if err := e.ChangeTool(domain.ShapeLine); err != nil {
		t.Fatal(err)
	}
	if err := e.SetMode(saved); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if got := e.Mode(); got != saved {
		t.Errorf("expected %+v after restore, got %+v", saved, got)
	}

	// Restoring an armed tool draws again.
	if err := e.SetMode(editor.Mode{Tool: domain.ShapeRectangle, ToolArmed: true}); err != nil {
		t.Fatal(err)
	}
	drag(e, 0, 0, 10, 10)
	if len(exported(t, e)) != 1 || e.IsSelectionEnabled() || e.IsDragEnabled() {
		t.Error("armed mode should draw with selection and drag off")
	}
}

func TestEditor_OnLogMessage(t *testing.T) {
	e := newEditor(t)
	var msgs []string
	e.OnLogMessage(func(m string) { msgs = append(msgs, m) })

	_ = e.ChangeTool(domain.ShapeLine)

	found := false
	for _, m := range msgs {
		if strings.HasPrefix(m, "[DrawingEditor]: tool changed to LINE") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected tool change log, got %v", msgs)
	}
}

func TestEditor_ExportRestoreLayers(t *testing.T) {
	src := newEditor(t)
	drag(src, 0, 0, 10, 10)
	src.AddLayer(true)
	drag(src, 50, 50, 70, 70)
	drag(src, 80, 80, 90, 90)
	_ = src.HideLayer("layer-0")
	layers := src.ExportLayers()

	dst := newEditor(t)
	drag(dst, 300, 300, 310, 310)
	if err := dst.RestoreLayers(layers, "layer-1"); err != nil {
		t.Fatalf("RestoreLayers: %v", err)
	}

	got := dst.ExportLayers()
	if len(got) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(got))
	}
	if got[0].Visible || !got[1].Visible {
		t.Error("visibility should survive the round trip")
	}
	if !reflect.DeepEqual(got[0].Shapes, layers[0].Shapes) || !reflect.DeepEqual(got[1].Shapes, layers[1].Shapes) {
		t.Error("shape data should survive the round trip")
	}
	if dst.ActiveLayerID() != got[1].ID {
		t.Errorf("expected the second layer active, got %s", dst.ActiveLayerID())
	}
	if dst.CanUndo() {
		t.Error("restored layers start with empty history")
	}
}
