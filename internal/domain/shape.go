package domain

import "fmt"

// ShapeType is the closed set of drawable shape kinds.
type ShapeType string

const (
	ShapeRectangle ShapeType = "RECTANGLE"
	ShapeLine      ShapeType = "LINE"
	ShapePolygon   ShapeType = "POLYGON"
)

// ShapeTypes lists every known shape type in a stable order.
var ShapeTypes = []ShapeType{ShapeRectangle, ShapeLine, ShapePolygon}

// ParseShapeType validates a shape type name.
func ParseShapeType(s string) (ShapeType, error) {
	for _, t := range ShapeTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShapeType, s)
}

// ShapeConfig is the style shared by every shape.
type ShapeConfig struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// StylePatch is a partial ShapeConfig: nil fields keep the existing value.
type StylePatch struct {
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
}

func PatchFill(fill string) StylePatch      { return StylePatch{Fill: &fill} }
func PatchStroke(stroke string) StylePatch  { return StylePatch{Stroke: &stroke} }
func PatchStrokeWidth(w float64) StylePatch { return StylePatch{StrokeWidth: &w} }

// IsEmpty reports whether the patch changes nothing.
func (p StylePatch) IsEmpty() bool {
	return p.Fill == nil && p.Stroke == nil && p.StrokeWidth == nil
}

// Apply returns c with every set field of p applied.
func (p StylePatch) Apply(c ShapeConfig) ShapeConfig {
	if p.Fill != nil {
		c.Fill = *p.Fill
	}
	if p.Stroke != nil {
		c.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		c.StrokeWidth = *p.StrokeWidth
	}
	return c
}

// ShapeData is the serializable form of a shape. Which geometry fields are
// meaningful depends on Type:
//
//	RECTANGLE: X, Y, Width, Height
//	LINE:      Points
//	POLYGON:   Points, Closed
type ShapeData struct {
	Type        ShapeType `json:"type"`
	Fill        string    `json:"fill"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"strokeWidth"`

	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`

	Points []float64 `json:"points,omitempty"`
	Closed bool      `json:"closed,omitempty"`
}

// Config returns the style part of the data.
func (d ShapeData) Config() ShapeConfig {
	return ShapeConfig{Fill: d.Fill, Stroke: d.Stroke, StrokeWidth: d.StrokeWidth}
}

// Clone returns a deep copy.
func (d ShapeData) Clone() ShapeData {
	out := d
	out.X = cloneFloat(d.X)
	out.Y = cloneFloat(d.Y)
	out.Width = cloneFloat(d.Width)
	out.Height = cloneFloat(d.Height)
	if d.Points != nil {
		out.Points = append([]float64(nil), d.Points...)
	}
	return out
}

// Validate checks that the geometry fields required by Type are present.
func (d ShapeData) Validate() error {
	switch d.Type {
	case ShapeRectangle:
		if d.X == nil || d.Y == nil {
			return fmt.Errorf("%w: rectangle needs x and y", ErrInvalidShapeData)
		}
	case ShapeLine, ShapePolygon:
		if len(d.Points)%2 != 0 {
			return fmt.Errorf("%w: %s has an odd number of coordinates", ErrInvalidShapeData, d.Type)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownShapeType, d.Type)
	}
	return nil
}

// RectangleData builds the data of a rectangle.
func RectangleData(x, y, width, height float64, cfg ShapeConfig) ShapeData {
	return ShapeData{
		Type: ShapeRectangle, Fill: cfg.Fill, Stroke: cfg.Stroke, StrokeWidth: cfg.StrokeWidth,
		X: &x, Y: &y, Width: &width, Height: &height,
	}
}

// LineData builds the data of an open polyline.
func LineData(points []float64, cfg ShapeConfig) ShapeData {
	return ShapeData{
		Type: ShapeLine, Fill: cfg.Fill, Stroke: cfg.Stroke, StrokeWidth: cfg.StrokeWidth,
		Points: append([]float64(nil), points...),
	}
}

// PolygonData builds the data of a finalized polygon.
func PolygonData(points []float64, cfg ShapeConfig) ShapeData {
	return ShapeData{
		Type: ShapePolygon, Fill: cfg.Fill, Stroke: cfg.Stroke, StrokeWidth: cfg.StrokeWidth,
		Points: append([]float64(nil), points...), Closed: true,
	}
}

// Snapshot is one layer's full content at a point in time.
type Snapshot []ShapeData

// Clone returns a deep copy of the snapshot. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for i, d := range s {
		out[i] = d.Clone()
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
