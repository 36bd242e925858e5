package layer_test

import (
	"errors"
	"reflect"
	"testing"

	"drawr/internal/domain"
	"drawr/internal/idgen"
	"drawr/internal/layer"
	"drawr/internal/logging"
	"drawr/internal/scene"
)

func newService() (*layer.Service, *scene.Stage) {
	stage := scene.NewStage(800, 600)
	return layer.NewService(stage, idgen.New(), logging.Discard()), stage
}

func TestService_NoActiveLayerIsAnError(t *testing.T) {
	s, _ := newService()
	if _, err := s.ActiveLayer(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := s.HideLayer(""); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestService_AddAndActivate(t *testing.T) {
	s, _ := newService()
	first := s.AddLayer(true)
	second := s.AddLayer(false)

	if first != "layer-0" || second != "layer-1" {
		t.Fatalf("unexpected ids %s %s", first, second)
	}
	if !reflect.DeepEqual(s.Layers(), []string{"layer-0", "layer-1"}) {
		t.Errorf("unexpected order %v", s.Layers())
	}
	if s.ActiveLayerID() != first {
		t.Errorf("expected %s active, got %s", first, s.ActiveLayerID())
	}
	if err := s.ActivateLayer("layer-9"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestService_ActivateDeactivatesPrevious(t *testing.T) {
	s, _ := newService()
	first := s.AddLayer(true)
	second := s.AddLayer(false)

	f, _ := s.ActiveLayer()
	f.EnableSelection()
	f.EnableDrag()

	var activated []string
	s.OnActivate(func(f *layer.Facade) { activated = append(activated, f.ID()) })

	if err := s.ActivateLayer(second); err != nil {
		t.Fatalf("ActivateLayer: %v", err)
	}
	prev, _ := s.Layer(first)
	if prev.SelectionEnabled() {
		t.Error("previous active layer should have selection disabled")
	}
	if prev.DragEnabled() {
		t.Error("previous active layer should have drag disabled")
	}
	if !reflect.DeepEqual(activated, []string{second}) {
		t.Errorf("unexpected activation hooks %v", activated)
	}
}

func TestService_RemoveLastLayerCreatesFreshOne(t *testing.T) {
	s, stage := newService()
	s.AddLayer(true)

	if err := s.RemoveLayer(""); err != nil {
		t.Fatalf("RemoveLayer: %v", err)
	}
	if len(s.Layers()) != 1 {
		t.Fatalf("expected 1 layer, got %v", s.Layers())
	}
	active, err := s.ActiveLayer()
	if err != nil {
		t.Fatalf("ActiveLayer: %v", err)
	}
	if active.ID() != "layer-1" {
		t.Errorf("expected fresh layer-1, got %s", active.ID())
	}
	if len(stage.Layers()) != 1 {
		t.Errorf("stage should hold exactly the fresh layer, got %d", len(stage.Layers()))
	}
}

func TestService_RemoveActiveFallsBackToFirst(t *testing.T) {
	s, _ := newService()
	s.AddLayer(false)
	s.AddLayer(false)
	third := s.AddLayer(true)

	if err := s.RemoveLayer(third); err != nil {
		t.Fatalf("RemoveLayer: %v", err)
	}
	if s.ActiveLayerID() != "layer-0" {
		t.Errorf("expected fallback to layer-0, got %s", s.ActiveLayerID())
	}
}

func TestService_RemoveInactiveKeepsActive(t *testing.T) {
	s, _ := newService()
	s.AddLayer(false)
	active := s.AddLayer(true)

	if err := s.RemoveLayers([]string{"layer-0"}); err != nil {
		t.Fatalf("RemoveLayers: %v", err)
	}
	if s.ActiveLayerID() != active {
		t.Errorf("active layer should stay %s, got %s", active, s.ActiveLayerID())
	}
}

func TestService_RemoveDeletesShapes(t *testing.T) {
	s, _ := newService()
	s.AddLayer(true)
	f, _ := s.ActiveLayer()
	shapes, err := f.Import(domain.RectangleData(0, 0, 10, 10, cfg))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if err := s.RemoveLayer(f.ID()); err != nil {
		t.Fatalf("RemoveLayer: %v", err)
	}
	if !shapes[0].Deleted() {
		t.Error("shapes of a removed layer should be deleted")
	}
}

func TestService_HideShow(t *testing.T) {
	s, _ := newService()
	a := s.AddLayer(true)
	b := s.AddLayer(false)

	s.Hide()
	for _, id := range []string{a, b} {
		f, _ := s.Layer(id)
		if f.Visible() {
			t.Errorf("%s should be hidden", id)
		}
	}
	if err := s.ShowLayer(""); err != nil {
		t.Fatalf("ShowLayer: %v", err)
	}
	fa, _ := s.Layer(a)
	fb, _ := s.Layer(b)
	if !fa.Visible() || fb.Visible() {
		t.Error("only the active layer should be shown")
	}
	if err := s.ShowLayers([]string{b}); err != nil {
		t.Fatalf("ShowLayers: %v", err)
	}
	if err := s.HideLayers([]string{a, "nope"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
