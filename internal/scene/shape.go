package scene

import "math"

// Style holds the paint attributes shared by every primitive.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// Shape is a drawable primitive owned by at most one Layer.
type Shape interface {
	ID() string
	// Name is the type tag used to reconstruct the proxy that wraps the primitive.
	Name() string

	X() float64
	SetX(x float64)
	Y() float64
	SetY(y float64)

	Fill() string
	SetFill(fill string)
	Stroke() string
	SetStroke(stroke string)
	StrokeWidth() float64
	SetStrokeWidth(w float64)

	Visible() bool
	SetVisible(v bool)
	Draggable() bool
	SetDraggable(d bool)
	// Listening reports whether the primitive takes part in hit testing.
	Listening() bool
	SetListening(l bool)

	// ClientRect is the bounding box including half the stroke width.
	ClientRect() Box
	Translate(dx, dy float64)

	Layer() *Layer
	setLayer(l *Layer)

	Destroy()
	Destroyed() bool
}

// node carries the attributes common to every primitive.
type node struct {
	id        string
	name      string
	x, y      float64
	style     Style
	visible   bool
	draggable bool
	listening bool
	destroyed bool
	layer     *Layer
}

func newNode(id, name string, x, y float64, style Style) node {
	return node{id: id, name: name, x: x, y: y, style: style, visible: true, listening: true}
}

func (n *node) ID() string               { return n.id }
func (n *node) Name() string             { return n.name }
func (n *node) X() float64               { return n.x }
func (n *node) SetX(x float64)           { n.x = x }
func (n *node) Y() float64               { return n.y }
func (n *node) SetY(y float64)           { n.y = y }
func (n *node) Fill() string             { return n.style.Fill }
func (n *node) SetFill(fill string)      { n.style.Fill = fill }
func (n *node) Stroke() string           { return n.style.Stroke }
func (n *node) SetStroke(stroke string)  { n.style.Stroke = stroke }
func (n *node) StrokeWidth() float64     { return n.style.StrokeWidth }
func (n *node) SetStrokeWidth(w float64) { n.style.StrokeWidth = w }
func (n *node) Visible() bool            { return n.visible }
func (n *node) SetVisible(v bool)        { n.visible = v }
func (n *node) Draggable() bool          { return n.draggable }
func (n *node) SetDraggable(d bool)      { n.draggable = d }
func (n *node) Listening() bool          { return n.listening }
func (n *node) SetListening(l bool)      { n.listening = l }
func (n *node) Layer() *Layer            { return n.layer }
func (n *node) setLayer(l *Layer)        { n.layer = l }
func (n *node) Destroyed() bool          { return n.destroyed }

// ─────────────────────────────────────────────────────────────
// Rect
// ─────────────────────────────────────────────────────────────

// RectConfig describes a new rectangle primitive.
type RectConfig struct {
	ID     string
	Name   string
	X, Y   float64
	Width  float64
	Height float64
	Style  Style
}

// Rect is a rectangle anchored at (x, y). Width and height may be negative while
// the rectangle is being dragged out towards the top-left.
type Rect struct {
	node
	width, height float64
}

// NewRect creates a detached rectangle primitive.
func NewRect(cfg RectConfig) *Rect {
	return &Rect{
		node:   newNode(cfg.ID, cfg.Name, cfg.X, cfg.Y, cfg.Style),
		width:  cfg.Width,
		height: cfg.Height,
	}
}

func (r *Rect) Width() float64      { return r.width }
func (r *Rect) SetWidth(w float64)  { r.width = w }
func (r *Rect) Height() float64     { return r.height }
func (r *Rect) SetHeight(h float64) { r.height = h }

// Box returns the normalized geometry without the stroke.
func (r *Rect) Box() Box {
	return BoxFromPoints(r.x, r.y, r.x+r.width, r.y+r.height)
}

func (r *Rect) ClientRect() Box {
	return r.Box().Grow(r.style.StrokeWidth / 2)
}

func (r *Rect) Translate(dx, dy float64) {
	r.x += dx
	r.y += dy
}

func (r *Rect) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	if r.layer != nil {
		r.layer.detach(r)
	}
}

// ─────────────────────────────────────────────────────────────
// Line
// ─────────────────────────────────────────────────────────────

// LineConfig describes a new polyline or polygon primitive.
type LineConfig struct {
	ID     string
	Name   string
	Points []float64
	Closed bool
	Style  Style
}

// Line is an open polyline or, when closed, a polygon. Points are absolute
// stage coordinates stored as a flat x,y sequence.
type Line struct {
	node
	points []float64
	closed bool
}

// NewLine creates a detached line primitive.
func NewLine(cfg LineConfig) *Line {
	pts := make([]float64, len(cfg.Points))
	copy(pts, cfg.Points)
	var x, y float64
	if len(pts) >= 2 {
		x, y = pts[0], pts[1]
	}
	return &Line{
		node:   newNode(cfg.ID, cfg.Name, x, y, cfg.Style),
		points: pts,
		closed: cfg.Closed,
	}
}

// Points returns a copy of the flat point list.
func (l *Line) Points() []float64 {
	out := make([]float64, len(l.points))
	copy(out, l.points)
	return out
}

// SetPoints replaces the point list. The anchor follows the first point.
func (l *Line) SetPoints(pts []float64) {
	l.points = make([]float64, len(pts))
	copy(l.points, pts)
	if len(pts) >= 2 {
		l.x, l.y = pts[0], pts[1]
	}
}

// AppendPoint adds one vertex at the end of the line.
func (l *Line) AppendPoint(x, y float64) {
	l.points = append(l.points, x, y)
	if len(l.points) == 2 {
		l.x, l.y = x, y
	}
}

func (l *Line) Closed() bool     { return l.closed }
func (l *Line) SetClosed(c bool) { l.closed = c }

func (l *Line) ClientRect() Box {
	if len(l.points) < 2 {
		return Box{X: l.x, Y: l.y}.Grow(l.style.StrokeWidth / 2)
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i+1 < len(l.points); i += 2 {
		px, py := l.points[i], l.points[i+1]
		minX, maxX = math.Min(minX, px), math.Max(maxX, px)
		minY, maxY = math.Min(minY, py), math.Max(maxY, py)
	}
	return BoxFromPoints(minX, minY, maxX, maxY).Grow(l.style.StrokeWidth / 2)
}

func (l *Line) Translate(dx, dy float64) {
	for i := 0; i+1 < len(l.points); i += 2 {
		l.points[i] += dx
		l.points[i+1] += dy
	}
	l.x += dx
	l.y += dy
}

func (l *Line) Destroy() {
	if l.destroyed {
		return
	}
	l.destroyed = true
	if l.layer != nil {
		l.layer.detach(l)
	}
}
