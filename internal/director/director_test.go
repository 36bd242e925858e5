package director_test

import (
	"errors"
	"reflect"
	"testing"

	"drawr/internal/director"
	"drawr/internal/domain"
	"drawr/internal/drawer"
	"drawr/internal/idgen"
	"drawr/internal/scene"
)

// fakeTarget stands in for a layer facade.
type fakeTarget struct {
	layer   *scene.Layer
	deleted []string
}

func newFakeTarget(stage *scene.Stage) *fakeTarget {
	l := scene.NewLayer("layer-0")
	stage.Add(l)
	return &fakeTarget{layer: l}
}

func (f *fakeTarget) Add(nodes ...scene.Shape) error {
	f.layer.Add(nodes...)
	return nil
}

func (f *fakeTarget) Delete(ids ...string) error {
	for _, id := range ids {
		for _, n := range f.layer.Children() {
			if n.ID() == id {
				n.Destroy()
			}
		}
		f.deleted = append(f.deleted, id)
	}
	return nil
}

var cfg = domain.ShapeConfig{Fill: "#00D2FF", Stroke: "black", StrokeWidth: 4}

func newDirector(t *testing.T, stage *scene.Stage, target director.Target, d drawer.Drawer) director.Director {
	t.Helper()
	dir, err := director.New(director.Options{
		Stage:  stage,
		Drawer: d,
		Target: target,
		Config: func() domain.ShapeConfig { return cfg },
	})
	if err != nil {
		t.Fatalf("director.New: %v", err)
	}
	return dir
}

func TestMove_DrawsRectangle(t *testing.T) {
	stage := scene.NewStage(800, 600)
	target := newFakeTarget(stage)
	dir := newDirector(t, stage, target, drawer.NewRectangle(idgen.New()))
	dir.Setup()

	var finished []scene.Shape
	dir.OnFinished(func(s scene.Shape) { finished = append(finished, s) })

	stage.PointerDown(10, 10, scene.Modifiers{})
	if !dir.Drawing() {
		t.Fatal("should be drawing after pointer down")
	}
	if len(target.layer.Children()) != 1 {
		t.Fatal("in-progress shape should be on the layer immediately")
	}
	stage.PointerMove(30, 40, scene.Modifiers{})
	stage.PointerMove(50, 100, scene.Modifiers{})
	stage.PointerUp(50, 100, scene.Modifiers{})

	if dir.Drawing() {
		t.Error("should be idle after pointer up")
	}
	if len(finished) != 1 {
		t.Fatalf("expected 1 finished shape, got %d", len(finished))
	}
	r := finished[0].(*scene.Rect)
	if r.Width() != 40 || r.Height() != 90 {
		t.Errorf("expected 40x90, got %vx%v", r.Width(), r.Height())
	}
}

func TestMove_IgnoresMoveWhileIdle(t *testing.T) {
	stage := scene.NewStage(800, 600)
	target := newFakeTarget(stage)
	dir := newDirector(t, stage, target, drawer.NewPolyLine(idgen.New()))
	dir.Setup()

	stage.PointerMove(5, 5, scene.Modifiers{})
	stage.PointerUp(5, 5, scene.Modifiers{})
	if len(target.layer.Children()) != 0 {
		t.Error("no shape should be created without a press")
	}
}

func TestClick_DrawsPolygonAndCommitsOnEnter(t *testing.T) {
	stage := scene.NewStage(800, 600)
	target := newFakeTarget(stage)
	dir := newDirector(t, stage, target, drawer.NewPolygon(idgen.New()))
	dir.Setup()

	var finished []scene.Shape
	dir.OnFinished(func(s scene.Shape) { finished = append(finished, s) })

	for _, p := range [][2]float64{{0, 0}, {100, 0}, {100, 100}} {
		stage.PointerDown(p[0], p[1], scene.Modifiers{})
		stage.PointerUp(p[0], p[1], scene.Modifiers{})
	}
	stage.KeyDown("a", scene.Modifiers{})
	if len(finished) != 0 {
		t.Fatal("other keys must not commit")
	}
	stage.KeyDown("Enter", scene.Modifiers{})

	if len(finished) != 1 {
		t.Fatalf("expected 1 finished shape, got %d", len(finished))
	}
	l := finished[0].(*scene.Line)
	if !l.Closed() {
		t.Error("committed polygon should be closed")
	}
	if !reflect.DeepEqual(l.Points(), []float64{0, 0, 100, 0, 100, 100}) {
		t.Errorf("unexpected points %v", l.Points())
	}
	if dir.Drawing() {
		t.Error("director should reset after commit")
	}

	stage.PointerDown(5, 5, scene.Modifiers{})
	if len(target.layer.Children()) != 2 {
		t.Error("next press should start a new polygon")
	}
}

func TestClick_EscapeCancels(t *testing.T) {
	stage := scene.NewStage(800, 600)
	target := newFakeTarget(stage)
	dir := newDirector(t, stage, target, drawer.NewPolygon(idgen.New()))
	dir.Setup()

	finished := 0
	dir.OnFinished(func(scene.Shape) { finished++ })

	stage.PointerDown(0, 0, scene.Modifiers{})
	stage.PointerDown(10, 10, scene.Modifiers{})
	stage.KeyDown("Escape", scene.Modifiers{})

	if dir.Drawing() || finished != 0 {
		t.Errorf("escape should abandon the shape: drawing=%v finished=%d", dir.Drawing(), finished)
	}
	if len(target.deleted) != 1 || len(target.layer.Children()) != 0 {
		t.Errorf("abandoned shape should be removed, deleted=%v", target.deleted)
	}
}

func TestDirector_SetupDisposeIdempotent(t *testing.T) {
	stage := scene.NewStage(800, 600)
	target := newFakeTarget(stage)

	// a listener registered by someone else must survive Dispose
	stage.On(scene.EventPointerDown, func(scene.Event) {})

	dir := newDirector(t, stage, target, drawer.NewRectangle(idgen.New()))
	dir.Setup()
	dir.Setup()
	if got := stage.ListenerCount(scene.EventPointerDown); got != 2 {
		t.Fatalf("expected 2 pointerdown listeners, got %d", got)
	}
	dir.Dispose()
	dir.Dispose()
	if got := stage.ListenerCount(scene.EventPointerDown); got != 1 {
		t.Fatalf("expected foreign listener to survive, got %d", got)
	}
	if stage.ListenerCount(scene.EventPointerMove) != 0 || stage.ListenerCount(scene.EventPointerUp) != 0 {
		t.Error("move director listeners should be gone")
	}

	dir.Setup()
	stage.PointerDown(1, 1, scene.Modifiers{})
	if !dir.Drawing() {
		t.Error("director should work again after re-setup")
	}
}

func TestDirector_DisposeWhileDrawingDiscards(t *testing.T) {
	stage := scene.NewStage(800, 600)
	target := newFakeTarget(stage)
	dir := newDirector(t, stage, target, drawer.NewRectangle(idgen.New()))
	dir.Setup()

	stage.PointerDown(10, 10, scene.Modifiers{})
	stage.PointerMove(20, 20, scene.Modifiers{})
	dir.Dispose()

	if dir.Drawing() {
		t.Error("dispose should end the gesture")
	}
	if len(target.layer.Children()) != 0 {
		t.Error("half-drawn shape should be discarded")
	}
}

type unknownDrawer struct{ drawer.Drawer }

func (unknownDrawer) Interaction() drawer.Interaction { return "drag-and-drop" }
func (unknownDrawer) Type() domain.ShapeType          { return domain.ShapeRectangle }

func TestNew_UnknownInteraction(t *testing.T) {
	stage := scene.NewStage(10, 10)
	_, err := director.New(director.Options{
		Stage:  stage,
		Drawer: unknownDrawer{},
		Target: newFakeTarget(stage),
	})
	if !errors.Is(err, domain.ErrUnknownDrawingType) {
		t.Fatalf("expected ErrUnknownDrawingType, got %v", err)
	}
}
