package selection_test

import (
	"reflect"
	"testing"

	"drawr/internal/scene"
	"drawr/internal/selection"
)

type fixture struct {
	stage   *scene.Stage
	layer   *scene.Layer
	shapes  []scene.Shape
	handler *selection.Handler
	events  [][]string
}

// newFixture puts three 20x20 rectangles at x=0, 100 and 200.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{stage: scene.NewStage(800, 600), layer: scene.NewLayer("layer-0")}
	f.stage.Add(f.layer)
	for i, id := range []string{"drawr-0", "drawr-1", "drawr-2"} {
		r := scene.NewRect(scene.RectConfig{ID: id, Name: "RECTANGLE", X: float64(i * 100), Y: 0, Width: 20, Height: 20})
		f.layer.Add(r)
		f.shapes = append(f.shapes, r)
	}
	f.handler = selection.New(f.stage, f.layer, func() []scene.Shape { return f.shapes }, nil)
	f.handler.OnSelect(func(ids []string) { f.events = append(f.events, ids) })
	f.handler.Setup()
	return f
}

func (f *fixture) click(x, y float64, mods scene.Modifiers) {
	f.stage.PointerDown(x, y, mods)
	f.stage.PointerUp(x, y, mods)
}

func (f *fixture) last() []string {
	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

func TestHandler_MarqueeSelectsIntersecting(t *testing.T) {
	f := newFixture(t)

	f.stage.PointerDown(50, 50, scene.Modifiers{})
	f.stage.PointerMove(150, 10, scene.Modifiers{})
	if !f.handler.Marquee().Visible() {
		t.Fatal("marquee should be visible while dragging")
	}
	if got := f.handler.Marquee().Box(); got != (scene.Box{X: 50, Y: 10, Width: 100, Height: 40}) {
		t.Errorf("marquee should be anchored at the min corner, got %+v", got)
	}
	f.stage.PointerUp(150, 10, scene.Modifiers{})

	if f.handler.Marquee().Visible() {
		t.Error("marquee should be hidden after release")
	}
	if !reflect.DeepEqual(f.handler.SelectedIDs(), []string{"drawr-1"}) {
		t.Errorf("expected [drawr-1], got %v", f.handler.SelectedIDs())
	}
	if len(f.events) != 1 {
		t.Errorf("marquee release should notify once and the trailing click be ignored, got %d", len(f.events))
	}
}

func TestHandler_PressOnShapeDoesNotStartMarquee(t *testing.T) {
	f := newFixture(t)
	f.stage.PointerDown(10, 10, scene.Modifiers{})
	f.stage.PointerMove(300, 300, scene.Modifiers{})
	if f.handler.Marquee().Visible() {
		t.Error("press on a shape must not start a marquee")
	}
}

func TestHandler_ClickSelection(t *testing.T) {
	f := newFixture(t)

	f.click(10, 10, scene.Modifiers{})
	if !reflect.DeepEqual(f.last(), []string{"drawr-0"}) {
		t.Fatalf("plain click should select drawr-0, got %v", f.last())
	}

	f.click(110, 10, scene.Modifiers{})
	if !reflect.DeepEqual(f.last(), []string{"drawr-1"}) {
		t.Fatalf("plain click should replace selection, got %v", f.last())
	}

	f.click(210, 10, scene.Modifiers{Shift: true})
	if !reflect.DeepEqual(f.last(), []string{"drawr-1", "drawr-2"}) {
		t.Fatalf("shift click should add, got %v", f.last())
	}

	f.click(110, 10, scene.Modifiers{Ctrl: true})
	if !reflect.DeepEqual(f.last(), []string{"drawr-2"}) {
		t.Fatalf("ctrl click on selected should remove, got %v", f.last())
	}

	f.click(500, 500, scene.Modifiers{})
	if len(f.last()) != 0 || len(f.handler.SelectedIDs()) != 0 {
		t.Fatalf("click on empty stage should clear, got %v", f.last())
	}
}

func TestHandler_UpdateSelectionByID(t *testing.T) {
	f := newFixture(t)
	got := f.handler.UpdateSelectionByID("drawr-2", "missing", "drawr-0")
	if !reflect.DeepEqual(got, []string{"drawr-0", "drawr-2"}) {
		t.Errorf("expected candidates in layer order, got %v", got)
	}
	f.handler.ClearSelection()
	if len(f.handler.SelectedIDs()) != 0 {
		t.Error("ClearSelection should empty the widget")
	}
}

func TestHandler_SetupDisposeIdempotent(t *testing.T) {
	f := newFixture(t)
	f.handler.Setup()
	if got := f.stage.ListenerCount(scene.EventClick); got != 1 {
		t.Fatalf("expected 1 click listener, got %d", got)
	}
	if len(f.layer.Transformers()) != 1 {
		t.Fatal("transformer should be attached once")
	}

	f.handler.UpdateSelectionByID("drawr-0")
	f.handler.Dispose()
	f.handler.Dispose()

	for _, typ := range []scene.EventType{scene.EventPointerDown, scene.EventPointerMove, scene.EventPointerUp, scene.EventClick} {
		if n := f.stage.ListenerCount(typ); n != 0 {
			t.Errorf("%s listeners left: %d", typ, n)
		}
	}
	if len(f.handler.SelectedIDs()) != 0 {
		t.Error("dispose should clear the selection")
	}
	if len(f.layer.Transformers()) != 0 || len(f.layer.Children()) != 3 {
		t.Error("dispose should detach the marquee and the transformer")
	}

	f.click(10, 10, scene.Modifiers{})
	if len(f.handler.SelectedIDs()) != 0 {
		t.Error("disposed handler must not react to clicks")
	}
}

func TestHandler_MarqueeIsNotHitTested(t *testing.T) {
	f := newFixture(t)
	f.stage.PointerDown(400, 400, scene.Modifiers{})
	f.stage.PointerMove(500, 500, scene.Modifiers{})
	if hit := f.stage.HitTest(450, 450); hit != nil {
		t.Errorf("marquee should not be hit, got %s", hit.ID())
	}
}
