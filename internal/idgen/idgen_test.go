package idgen_test

import (
	"testing"

	"drawr/internal/idgen"
)

func TestGenerator_ShapeIDsAreMonotonic(t *testing.T) {
	g := idgen.New()
	want := []string{"drawr-0", "drawr-1", "drawr-2"}
	for _, w := range want {
		if got := g.ShapeID(); got != w {
			t.Fatalf("expected %q, got %q", w, got)
		}
	}
}

func TestGenerator_LayerAndShapeCountersAreSeparate(t *testing.T) {
	g := idgen.New()
	g.ShapeID()
	g.ShapeID()
	if got := g.LayerID(); got != "layer-0" {
		t.Errorf("expected layer-0, got %q", got)
	}
}

func TestGenerator_InstancesDoNotShareState(t *testing.T) {
	a, b := idgen.New(), idgen.New()
	a.ShapeID()
	if got := b.ShapeID(); got != "drawr-0" {
		t.Errorf("second generator should start at drawr-0, got %q", got)
	}
}
