package domain

import "errors"

var (
	// ErrInvalidState covers wiring bugs: deleting a deleted shape, unknown layer
	// ids, or asking for the active layer when none is set.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnknownDrawingType is returned when no director handles a drawer's interaction kind.
	ErrUnknownDrawingType = errors.New("unknown drawing type")
	// ErrUnknownShapeType is returned for a type tag outside ShapeTypes.
	ErrUnknownShapeType = errors.New("unknown shape type")
	// ErrInvalidShapeData is returned when ShapeData lacks required geometry.
	ErrInvalidShapeData = errors.New("invalid shape data")
	// ErrNotFound is returned by stores for missing records.
	ErrNotFound = errors.New("not found")
)
