// Package drawer holds the per-shape-type geometry rules used while a shape is
// being drawn: how a primitive is created at the first pointer position and
// how later pointer positions reshape it.
package drawer

import (
	"drawr/internal/domain"
	"drawr/internal/idgen"
	"drawr/internal/scene"
)

// Interaction is the gesture family a drawer is driven by.
type Interaction string

const (
	// InteractionMove is press, drag to size, release.
	InteractionMove Interaction = "move"
	// InteractionClick is one press per vertex and a commit key to finish.
	InteractionClick Interaction = "click"
)

// Drawer creates and reshapes primitives of one shape type.
type Drawer interface {
	Type() domain.ShapeType
	Interaction() Interaction
	Create(x, y float64, cfg domain.ShapeConfig) scene.Shape
	Resize(node scene.Shape, x, y float64)
}

// ClickDrawer is a click-driven drawer whose shape must be finalized.
type ClickDrawer interface {
	Drawer
	Finalize(node scene.Shape)
}

// Catalogue returns the drawer for every shape type, sharing one id generator.
func Catalogue(ids *idgen.Generator) map[domain.ShapeType]Drawer {
	return map[domain.ShapeType]Drawer{
		domain.ShapeRectangle: NewRectangle(ids),
		domain.ShapeLine:      NewPolyLine(ids),
		domain.ShapePolygon:   NewPolygon(ids),
	}
}

func style(cfg domain.ShapeConfig) scene.Style {
	return scene.Style{Fill: cfg.Fill, Stroke: cfg.Stroke, StrokeWidth: cfg.StrokeWidth}
}

// ─────────────────────────────────────────────────────────────
// Rectangle
// ─────────────────────────────────────────────────────────────

// Rectangle anchors at the press point; the opposite corner follows the pointer.
type Rectangle struct {
	ids *idgen.Generator
}

func NewRectangle(ids *idgen.Generator) *Rectangle { return &Rectangle{ids: ids} }

func (d *Rectangle) Type() domain.ShapeType   { return domain.ShapeRectangle }
func (d *Rectangle) Interaction() Interaction { return InteractionMove }

func (d *Rectangle) Create(x, y float64, cfg domain.ShapeConfig) scene.Shape {
	return scene.NewRect(scene.RectConfig{
		ID:    d.ids.ShapeID(),
		Name:  string(domain.ShapeRectangle),
		X:     x,
		Y:     y,
		Style: style(cfg),
	})
}

// Resize sets width and height to the offset from the anchor. Either may be
// negative when the pointer is above or left of the anchor.
func (d *Rectangle) Resize(node scene.Shape, x, y float64) {
	r, ok := node.(*scene.Rect)
	if !ok {
		return
	}
	r.SetWidth(x - r.X())
	r.SetHeight(y - r.Y())
}

// ─────────────────────────────────────────────────────────────
// PolyLine
// ─────────────────────────────────────────────────────────────

// PolyLine records a freehand stroke: every pointer position becomes a vertex.
type PolyLine struct {
	ids *idgen.Generator
}

func NewPolyLine(ids *idgen.Generator) *PolyLine { return &PolyLine{ids: ids} }

func (d *PolyLine) Type() domain.ShapeType   { return domain.ShapeLine }
func (d *PolyLine) Interaction() Interaction { return InteractionMove }

func (d *PolyLine) Create(x, y float64, cfg domain.ShapeConfig) scene.Shape {
	return scene.NewLine(scene.LineConfig{
		ID:     d.ids.ShapeID(),
		Name:   string(domain.ShapeLine),
		Points: []float64{x, y},
		Style:  style(cfg),
	})
}

func (d *PolyLine) Resize(node scene.Shape, x, y float64) {
	if l, ok := node.(*scene.Line); ok {
		l.AppendPoint(x, y)
	}
}

// ─────────────────────────────────────────────────────────────
// Polygon
// ─────────────────────────────────────────────────────────────

// Polygon adds one vertex per click and closes the outline on Finalize.
type Polygon struct {
	ids *idgen.Generator
}

func NewPolygon(ids *idgen.Generator) *Polygon { return &Polygon{ids: ids} }

func (d *Polygon) Type() domain.ShapeType   { return domain.ShapePolygon }
func (d *Polygon) Interaction() Interaction { return InteractionClick }

func (d *Polygon) Create(x, y float64, cfg domain.ShapeConfig) scene.Shape {
	return scene.NewLine(scene.LineConfig{
		ID:     d.ids.ShapeID(),
		Name:   string(domain.ShapePolygon),
		Points: []float64{x, y},
		Closed: false,
		Style:  style(cfg),
	})
}

func (d *Polygon) Resize(node scene.Shape, x, y float64) {
	if l, ok := node.(*scene.Line); ok {
		l.AppendPoint(x, y)
	}
}

func (d *Polygon) Finalize(node scene.Shape) {
	if l, ok := node.(*scene.Line); ok {
		l.SetClosed(true)
	}
}
