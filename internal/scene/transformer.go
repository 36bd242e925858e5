package scene

// Transformer is the transform-handle widget. It only tracks its target set;
// drawing the handles is left to the renderer.
type Transformer struct {
	name  string
	nodes []Shape
}

// NewTransformer creates a widget with an empty target set.
func NewTransformer(name string) *Transformer {
	return &Transformer{name: name}
}

func (t *Transformer) Name() string { return t.name }

// Nodes returns a copy of the current target set.
func (t *Transformer) Nodes() []Shape {
	out := make([]Shape, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// SetNodes replaces the target set. Destroyed and duplicate primitives are skipped.
func (t *Transformer) SetNodes(nodes []Shape) {
	out := make([]Shape, 0, len(nodes))
	seen := make(map[Shape]struct{}, len(nodes))
	for _, n := range nodes {
		if n == nil || n.Destroyed() {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	t.nodes = out
}

// Has reports whether s is in the target set.
func (t *Transformer) Has(s Shape) bool {
	for _, n := range t.nodes {
		if n == s {
			return true
		}
	}
	return false
}

// Bounds returns the union of the targets' client rects.
func (t *Transformer) Bounds() (Box, bool) {
	if len(t.nodes) == 0 {
		return Box{}, false
	}
	b := t.nodes[0].ClientRect()
	for _, n := range t.nodes[1:] {
		b = b.Union(n.ClientRect())
	}
	return b, true
}

func (t *Transformer) drop(s Shape) {
	for i, n := range t.nodes {
		if n == s {
			t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
			return
		}
	}
}
