package scene

// Layer is an ordered container of primitives that can be shown or hidden as a
// whole. Painter's order is insertion order.
type Layer struct {
	id           string
	stage        *Stage
	children     []Shape
	transformers []*Transformer
	visible      bool
	destroyed    bool
}

// NewLayer creates a detached, visible layer.
func NewLayer(id string) *Layer {
	return &Layer{id: id, visible: true}
}

// ID returns the layer id.
func (l *Layer) ID() string { return l.id }

// Stage returns the stage the layer is attached to, or nil.
func (l *Layer) Stage() *Stage { return l.stage }

// Add attaches primitives to the layer. A primitive already owned by another
// layer is moved; one already on this layer is left in place.
func (l *Layer) Add(shapes ...Shape) {
	for _, s := range shapes {
		if s == nil || s.Destroyed() {
			continue
		}
		if owner := s.Layer(); owner != nil {
			if owner == l {
				continue
			}
			owner.detach(s)
		}
		s.setLayer(l)
		l.children = append(l.children, s)
	}
}

// Remove detaches a primitive without destroying it.
func (l *Layer) Remove(s Shape) {
	l.detach(s)
}

func (l *Layer) detach(s Shape) {
	for i, c := range l.children {
		if c == s {
			l.children = append(l.children[:i], l.children[i+1:]...)
			break
		}
	}
	if s.Layer() == l {
		s.setLayer(nil)
	}
	for _, t := range l.transformers {
		t.drop(s)
	}
}

// Children returns the primitives in painter's order.
func (l *Layer) Children() []Shape {
	out := make([]Shape, len(l.children))
	copy(out, l.children)
	return out
}

// AddTransformer attaches a transform-handle widget to the layer.
func (l *Layer) AddTransformer(t *Transformer) {
	for _, existing := range l.transformers {
		if existing == t {
			return
		}
	}
	l.transformers = append(l.transformers, t)
}

// RemoveTransformer detaches a transform-handle widget.
func (l *Layer) RemoveTransformer(t *Transformer) {
	for i, existing := range l.transformers {
		if existing == t {
			l.transformers = append(l.transformers[:i], l.transformers[i+1:]...)
			return
		}
	}
}

// Transformers returns the widgets attached to the layer.
func (l *Layer) Transformers() []*Transformer {
	out := make([]*Transformer, len(l.transformers))
	copy(out, l.transformers)
	return out
}

func (l *Layer) Visible() bool { return l.visible }

func (l *Layer) Hide() { l.visible = false }

func (l *Layer) Show() { l.visible = true }

// Destroy destroys every child and detaches the layer from its stage.
func (l *Layer) Destroy() {
	if l.destroyed {
		return
	}
	l.destroyed = true
	for _, c := range l.Children() {
		c.Destroy()
	}
	l.transformers = nil
	if l.stage != nil {
		l.stage.removeLayer(l)
	}
}

// Destroyed reports whether Destroy has been called.
func (l *Layer) Destroyed() bool { return l.destroyed }
