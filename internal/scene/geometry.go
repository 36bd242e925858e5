package scene

import "math"

// Box is an axis-aligned bounding box in stage coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BoxFromPoints returns the box spanning two corners in any order.
func BoxFromPoints(x1, y1, x2, y2 float64) Box {
	return Box{
		X:      math.Min(x1, x2),
		Y:      math.Min(y1, y2),
		Width:  math.Abs(x2 - x1),
		Height: math.Abs(y2 - y1),
	}
}

// Contains reports whether the point lies inside the box (edges included).
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}

// Intersects reports whether two boxes overlap or touch.
func (b Box) Intersects(o Box) bool {
	return !(o.X > b.X+b.Width ||
		o.X+o.Width < b.X ||
		o.Y > b.Y+b.Height ||
		o.Y+o.Height < b.Y)
}

// Grow expands the box by d on every side.
func (b Box) Grow(d float64) Box {
	return Box{X: b.X - d, Y: b.Y - d, Width: b.Width + 2*d, Height: b.Height + 2*d}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	minX := math.Min(b.X, o.X)
	minY := math.Min(b.Y, o.Y)
	maxX := math.Max(b.X+b.Width, o.X+o.Width)
	maxY := math.Max(b.Y+b.Height, o.Y+o.Height)
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
