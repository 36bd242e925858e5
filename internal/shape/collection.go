package shape

import (
	"fmt"

	"drawr/internal/domain"
)

// Collection is the ordered registry of live shapes on one layer. Ids are unique.
type Collection struct {
	shapes   []*Shape
	index    map[string]*Shape
	onChange []func()
}

func NewCollection() *Collection {
	return &Collection{index: make(map[string]*Shape)}
}

// OnChange registers fn to run after every add, remove or clear.
func (c *Collection) OnChange(fn func()) {
	c.onChange = append(c.onChange, fn)
}

func (c *Collection) changed() {
	for _, fn := range c.onChange {
		fn()
	}
}

// Add appends shapes in order. It fails without adding anything if any id is
// already registered or repeated in the call.
func (c *Collection) Add(shapes ...*Shape) error {
	seen := make(map[string]struct{}, len(shapes))
	for _, s := range shapes {
		if _, dup := c.index[s.ID()]; dup {
			return fmt.Errorf("add shape %s: %w: duplicate id", s.ID(), domain.ErrInvalidState)
		}
		if _, dup := seen[s.ID()]; dup {
			return fmt.Errorf("add shape %s: %w: duplicate id", s.ID(), domain.ErrInvalidState)
		}
		seen[s.ID()] = struct{}{}
	}
	if len(shapes) == 0 {
		return nil
	}
	for _, s := range shapes {
		c.shapes = append(c.shapes, s)
		c.index[s.ID()] = s
	}
	c.changed()
	return nil
}

// Remove drops the shape with the given id and reports whether it was present.
// The shape itself is left untouched.
func (c *Collection) Remove(id string) bool {
	if _, ok := c.index[id]; !ok {
		return false
	}
	delete(c.index, id)
	for i, s := range c.shapes {
		if s.ID() == id {
			c.shapes = append(c.shapes[:i], c.shapes[i+1:]...)
			break
		}
	}
	c.changed()
	return true
}

// Get returns the shape with the given id.
func (c *Collection) Get(id string) (*Shape, bool) {
	s, ok := c.index[id]
	return s, ok
}

// All returns the shapes in insertion order.
func (c *Collection) All() []*Shape {
	out := make([]*Shape, len(c.shapes))
	copy(out, c.shapes)
	return out
}

// Filter returns the shapes matching pred, in insertion order.
func (c *Collection) Filter(pred func(*Shape) bool) []*Shape {
	var out []*Shape
	for _, s := range c.shapes {
		if pred(s) {
			out = append(out, s)
		}
	}
	return out
}

// ForEach calls fn on a snapshot of the shapes, so fn may mutate the collection.
func (c *Collection) ForEach(fn func(*Shape)) {
	for _, s := range c.All() {
		fn(s)
	}
}

func (c *Collection) Len() int { return len(c.shapes) }

// Clear empties the registry and returns what it held.
func (c *Collection) Clear() []*Shape {
	out := c.shapes
	c.shapes = nil
	c.index = make(map[string]*Shape)
	if len(out) > 0 {
		c.changed()
	}
	return out
}
