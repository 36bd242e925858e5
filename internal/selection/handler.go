// Package selection implements marquee and click selection on one layer,
// backed by the scene's transform-handle widget.
package selection

import (
	"github.com/sirupsen/logrus"

	"drawr/internal/logging"
	"drawr/internal/scene"
)

const (
	RectangleName   = "selectionRectangle"
	TransformerName = "selectionTransformer"

	rectangleFill = "#0000ff80"
)

// Handler selects primitives of one layer. Candidates supplies the primitives
// that may be selected; the marquee rectangle itself never is.
type Handler struct {
	stage       *scene.Stage
	layer       *scene.Layer
	candidates  func() []scene.Shape
	rect        *scene.Rect
	transformer *scene.Transformer
	log         *logrus.Entry

	listeners []scene.ListenerID
	bound     bool

	selecting    bool
	x1, y1       float64
	marqueeEnded bool

	onSelect []func(ids []string)
}

// New creates an unbound handler for the layer. Call Setup to start listening.
func New(stage *scene.Stage, layer *scene.Layer, candidates func() []scene.Shape, log *logrus.Entry) *Handler {
	if log == nil {
		log = logging.Component(nil, "SelectionHandler")
	}
	rect := scene.NewRect(scene.RectConfig{
		ID:    layer.ID() + "-" + RectangleName,
		Name:  RectangleName,
		Style: scene.Style{Fill: rectangleFill},
	})
	rect.SetVisible(false)
	rect.SetListening(false)
	return &Handler{
		stage:       stage,
		layer:       layer,
		candidates:  candidates,
		rect:        rect,
		transformer: scene.NewTransformer(TransformerName),
		log:         log,
	}
}

// OnSelect registers fn to receive the selected ids after every selection change.
func (h *Handler) OnSelect(fn func(ids []string)) {
	h.onSelect = append(h.onSelect, fn)
}

func (h *Handler) Active() bool { return h.bound }

// Transformer returns the widget holding the current selection.
func (h *Handler) Transformer() *scene.Transformer { return h.transformer }

// Marquee returns the selection rectangle primitive.
func (h *Handler) Marquee() *scene.Rect { return h.rect }

// Setup attaches the marquee and the widget to the layer and binds the stage listeners.
func (h *Handler) Setup() {
	if h.bound {
		return
	}
	h.bound = true
	if h.rect.Destroyed() {
		h.rect = scene.NewRect(scene.RectConfig{
			ID:    h.layer.ID() + "-" + RectangleName,
			Name:  RectangleName,
			Style: scene.Style{Fill: rectangleFill},
		})
		h.rect.SetListening(false)
	}
	h.rect.SetVisible(false)
	h.layer.Add(h.rect)
	h.layer.AddTransformer(h.transformer)

	h.on(scene.EventPointerDown, h.pointerDown)
	h.on(scene.EventPointerMove, h.pointerMove)
	h.on(scene.EventPointerUp, h.pointerUp)
	h.on(scene.EventClick, h.click)
	h.log.Debug("selection enabled")
}

// Dispose clears the selection, detaches the marquee and the widget and
// unbinds exactly the listeners Setup bound.
func (h *Handler) Dispose() {
	if !h.bound {
		return
	}
	h.bound = false
	h.UpdateSelection(nil)
	h.layer.Remove(h.rect)
	h.layer.RemoveTransformer(h.transformer)
	h.stage.Off(h.listeners...)
	h.listeners = nil
	h.selecting = false
	h.marqueeEnded = false
	h.log.Debug("selection disabled")
}

func (h *Handler) on(t scene.EventType, fn scene.Handler) {
	h.listeners = append(h.listeners, h.stage.On(t, fn))
}

// ── Programmatic selection ───────────────────────────────

// UpdateSelection replaces the widget targets and notifies. It returns the
// selected ids.
func (h *Handler) UpdateSelection(nodes []scene.Shape) []string {
	h.transformer.SetNodes(nodes)
	ids := h.SelectedIDs()
	h.fire(ids)
	return ids
}

// UpdateSelectionByID selects the candidates with the given ids. Unknown ids
// are ignored.
func (h *Handler) UpdateSelectionByID(ids ...string) []string {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var nodes []scene.Shape
	for _, c := range h.candidates() {
		if _, ok := want[c.ID()]; ok {
			nodes = append(nodes, c)
		}
	}
	return h.UpdateSelection(nodes)
}

// ClearSelection empties the widget and notifies.
func (h *Handler) ClearSelection() {
	h.UpdateSelection(nil)
}

// SelectedIDs returns the ids of the widget targets.
func (h *Handler) SelectedIDs() []string {
	nodes := h.transformer.Nodes()
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID())
	}
	return ids
}

func (h *Handler) fire(ids []string) {
	for _, fn := range h.onSelect {
		out := make([]string, len(ids))
		copy(out, ids)
		fn(out)
	}
}

// ── Pointer handling ─────────────────────────────────────

func (h *Handler) pointerDown(ev scene.Event) {
	h.marqueeEnded = false
	if !ev.OnStage() {
		return
	}
	h.x1, h.y1 = ev.X, ev.Y
	h.rect.SetX(ev.X)
	h.rect.SetY(ev.Y)
	h.rect.SetWidth(0)
	h.rect.SetHeight(0)
	h.selecting = true
}

func (h *Handler) pointerMove(ev scene.Event) {
	if !h.selecting {
		return
	}
	b := scene.BoxFromPoints(h.x1, h.y1, ev.X, ev.Y)
	h.rect.SetX(b.X)
	h.rect.SetY(b.Y)
	h.rect.SetWidth(b.Width)
	h.rect.SetHeight(b.Height)
	h.rect.SetVisible(true)
}

func (h *Handler) pointerUp(scene.Event) {
	h.selecting = false
	if !h.rect.Visible() {
		return
	}
	h.rect.SetVisible(false)
	h.marqueeEnded = true

	box := h.rect.Box()
	var hit []scene.Shape
	for _, c := range h.candidates() {
		if c.Visible() && box.Intersects(c.ClientRect()) {
			hit = append(hit, c)
		}
	}
	h.log.Debugf("marquee selected %d shapes", len(hit))
	h.UpdateSelection(hit)
}

func (h *Handler) click(ev scene.Event) {
	if h.marqueeEnded {
		h.marqueeEnded = false
		return
	}
	if ev.OnStage() {
		h.UpdateSelection(nil)
		return
	}
	if !h.isCandidate(ev.Target) {
		return
	}

	selected := h.transformer.Has(ev.Target)
	switch mod := ev.Modifiers.Any(); {
	case !mod:
		h.UpdateSelection([]scene.Shape{ev.Target})
	case selected:
		nodes := h.transformer.Nodes()
		out := nodes[:0]
		for _, n := range nodes {
			if n != ev.Target {
				out = append(out, n)
			}
		}
		h.UpdateSelection(out)
	default:
		h.UpdateSelection(append(h.transformer.Nodes(), ev.Target))
	}
}

func (h *Handler) isCandidate(s scene.Shape) bool {
	for _, c := range h.candidates() {
		if c == s {
			return true
		}
	}
	return false
}
