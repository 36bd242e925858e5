// Package idgen allocates shape and layer ids for one editor instance.
package idgen

import (
	"fmt"
	"sync/atomic"
)

const (
	ShapePrefix = "drawr"
	LayerPrefix = "layer"
)

// Generator hands out monotonic ids. Ids are never reused by the same
// Generator; two Generators are independent, so two editors in one process do
// not collide in their own scope.
type Generator struct {
	shapes atomic.Uint64
	layers atomic.Uint64
}

// New returns a Generator whose first ids are drawr-0 and layer-0.
func New() *Generator {
	return &Generator{}
}

// ShapeID returns the next id of the form drawr-<n>.
func (g *Generator) ShapeID() string {
	return fmt.Sprintf("%s-%d", ShapePrefix, g.shapes.Add(1)-1)
}

// LayerID returns the next id of the form layer-<n>.
func (g *Generator) LayerID() string {
	return fmt.Sprintf("%s-%d", LayerPrefix, g.layers.Add(1)-1)
}
