// Package shape wraps scene primitives in editor-level shapes and keeps the
// per-layer registry of live shapes.
package shape

import (
	"fmt"

	"drawr/internal/domain"
	"drawr/internal/idgen"
	"drawr/internal/scene"
)

// Shape is the editor's handle on exactly one scene primitive. Every mutation
// goes straight to the primitive; the proxy itself only adds the selection
// flag and lifecycle observers.
type Shape struct {
	node     scene.Shape
	typ      domain.ShapeType
	selected bool
	deleted  bool

	onDelete    []func(*Shape)
	onSelection []func(*Shape)
}

// New wraps a primitive. The shape type is read from the primitive's name tag.
func New(node scene.Shape, selected bool) (*Shape, error) {
	if node == nil {
		return nil, fmt.Errorf("wrap shape: %w: nil primitive", domain.ErrInvalidState)
	}
	typ, err := domain.ParseShapeType(node.Name())
	if err != nil {
		return nil, fmt.Errorf("wrap shape %s: %w", node.ID(), err)
	}
	switch node.(type) {
	case *scene.Rect:
		if typ != domain.ShapeRectangle {
			return nil, fmt.Errorf("wrap shape %s: %w: %s on a rectangle primitive", node.ID(), domain.ErrInvalidShapeData, typ)
		}
	case *scene.Line:
		if typ == domain.ShapeRectangle {
			return nil, fmt.Errorf("wrap shape %s: %w: rectangle on a line primitive", node.ID(), domain.ErrInvalidShapeData)
		}
	}
	return &Shape{node: node, typ: typ, selected: selected}, nil
}

func (s *Shape) ID() string             { return s.node.ID() }
func (s *Shape) Type() domain.ShapeType { return s.typ }
func (s *Shape) Node() scene.Shape      { return s.node }
func (s *Shape) Selected() bool         { return s.selected }
func (s *Shape) Deleted() bool          { return s.deleted }

func (s *Shape) X() float64 { return s.node.X() }
func (s *Shape) Y() float64 { return s.node.Y() }

// Width is the rectangle width, or the bounding width for lines and polygons.
func (s *Shape) Width() float64 {
	if r, ok := s.node.(*scene.Rect); ok {
		return r.Width()
	}
	return s.node.ClientRect().Width
}

// Height is the rectangle height, or the bounding height for lines and polygons.
func (s *Shape) Height() float64 {
	if r, ok := s.node.(*scene.Rect); ok {
		return r.Height()
	}
	return s.node.ClientRect().Height
}

// Points returns the flat vertex list of a line or polygon, nil for rectangles.
func (s *Shape) Points() []float64 {
	if l, ok := s.node.(*scene.Line); ok {
		return l.Points()
	}
	return nil
}

// Closed reports whether a polygon has been finalized.
func (s *Shape) Closed() bool {
	if l, ok := s.node.(*scene.Line); ok {
		return l.Closed()
	}
	return false
}

func (s *Shape) ClientRect() scene.Box { return s.node.ClientRect() }

func (s *Shape) Fill() string             { return s.node.Fill() }
func (s *Shape) SetFill(fill string)      { s.node.SetFill(fill) }
func (s *Shape) Stroke() string           { return s.node.Stroke() }
func (s *Shape) SetStroke(stroke string)  { s.node.SetStroke(stroke) }
func (s *Shape) StrokeWidth() float64     { return s.node.StrokeWidth() }
func (s *Shape) SetStrokeWidth(w float64) { s.node.SetStrokeWidth(w) }
func (s *Shape) Visible() bool            { return s.node.Visible() }
func (s *Shape) SetVisible(v bool)        { s.node.SetVisible(v) }
func (s *Shape) Draggable() bool          { return s.node.Draggable() }
func (s *Shape) SetDraggable(d bool)      { s.node.SetDraggable(d) }

// Config returns the current style.
func (s *Shape) Config() domain.ShapeConfig {
	return domain.ShapeConfig{Fill: s.Fill(), Stroke: s.Stroke(), StrokeWidth: s.StrokeWidth()}
}

// UpdateConfig applies every set field of the patch; unset fields keep their value.
func (s *Shape) UpdateConfig(p domain.StylePatch) {
	if p.Fill != nil {
		s.node.SetFill(*p.Fill)
	}
	if p.Stroke != nil {
		s.node.SetStroke(*p.Stroke)
	}
	if p.StrokeWidth != nil {
		s.node.SetStrokeWidth(*p.StrokeWidth)
	}
}

// ── Observers ────────────────────────────────────────────

// OnDelete registers fn to run after the shape is deleted.
func (s *Shape) OnDelete(fn func(*Shape)) {
	s.onDelete = append(s.onDelete, fn)
}

// OnSelectionChange registers fn to run after every Select or Deselect.
func (s *Shape) OnSelectionChange(fn func(*Shape)) {
	s.onSelection = append(s.onSelection, fn)
}

func (s *Shape) Select() {
	s.selected = true
	s.notifySelection()
}

func (s *Shape) Deselect() {
	s.selected = false
	s.notifySelection()
}

func (s *Shape) notifySelection() {
	for _, fn := range s.onSelection {
		fn(s)
	}
}

// Delete destroys the primitive, drops the selection and notifies delete
// observers. A shape can only be deleted once.
func (s *Shape) Delete() error {
	if s.deleted {
		return fmt.Errorf("delete shape %s: %w: already deleted", s.ID(), domain.ErrInvalidState)
	}
	s.deleted = true
	s.node.Destroy()
	s.Deselect()
	for _, fn := range s.onDelete {
		fn(s)
	}
	return nil
}

// ToData returns the serializable form of the shape.
func (s *Shape) ToData() domain.ShapeData {
	cfg := s.Config()
	switch n := s.node.(type) {
	case *scene.Rect:
		return domain.RectangleData(n.X(), n.Y(), n.Width(), n.Height(), cfg)
	case *scene.Line:
		if s.typ == domain.ShapePolygon {
			d := domain.PolygonData(n.Points(), cfg)
			d.Closed = n.Closed()
			return d
		}
		return domain.LineData(n.Points(), cfg)
	}
	x, y := s.X(), s.Y()
	return domain.ShapeData{
		Type: s.typ, Fill: cfg.Fill, Stroke: cfg.Stroke, StrokeWidth: cfg.StrokeWidth,
		X: &x, Y: &y,
	}
}

// NewNode builds a detached primitive from serialized data under a fresh id.
func NewNode(ids *idgen.Generator, data domain.ShapeData) (scene.Shape, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	style := scene.Style{Fill: data.Fill, Stroke: data.Stroke, StrokeWidth: data.StrokeWidth}
	switch data.Type {
	case domain.ShapeRectangle:
		cfg := scene.RectConfig{
			ID:    ids.ShapeID(),
			Name:  string(domain.ShapeRectangle),
			X:     *data.X,
			Y:     *data.Y,
			Style: style,
		}
		if data.Width != nil {
			cfg.Width = *data.Width
		}
		if data.Height != nil {
			cfg.Height = *data.Height
		}
		return scene.NewRect(cfg), nil
	default:
		return scene.NewLine(scene.LineConfig{
			ID:     ids.ShapeID(),
			Name:   string(data.Type),
			Points: data.Points,
			Closed: data.Type == domain.ShapePolygon && data.Closed,
			Style:  style,
		}), nil
	}
}
