package scene

// EventType names a stage event.
type EventType string

const (
	EventPointerDown EventType = "pointerdown"
	EventPointerMove EventType = "pointermove"
	EventPointerUp   EventType = "pointerup"
	EventClick       EventType = "click"
	EventKeyDown     EventType = "keydown"
	EventDragEnd     EventType = "dragend"
)

// Modifiers is the keyboard modifier state carried by pointer and key events.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Meta  bool
}

// Any reports whether any modifier is held.
func (m Modifiers) Any() bool { return m.Shift || m.Ctrl || m.Meta }

// Event is delivered to stage listeners.
type Event struct {
	Type EventType
	X, Y float64
	// Target is the topmost primitive under the pointer, nil for empty stage.
	Target Shape
	Key    string
	Modifiers
}

// OnStage reports whether the event hit empty stage rather than a primitive.
func (e Event) OnStage() bool { return e.Target == nil }

// Handler receives stage events.
type Handler func(Event)

// ListenerID identifies one registration made with Stage.On.
type ListenerID uint64

type listener struct {
	id ListenerID
	fn Handler
}

// Stage is the root of the scene: an ordered list of layers plus the pointer
// and keyboard event hub. It is not safe for concurrent use.
type Stage struct {
	width, height float64
	layers        []*Layer
	listeners     map[EventType][]listener
	nextID        ListenerID

	pointerX, pointerY float64
	pressed            bool
	pressTarget        Shape
	dragging           Shape
	dragMoved          bool
}

// NewStage creates an empty stage of the given size.
func NewStage(width, height float64) *Stage {
	return &Stage{
		width:     width,
		height:    height,
		listeners: make(map[EventType][]listener),
	}
}

func (s *Stage) Width() float64  { return s.width }
func (s *Stage) Height() float64 { return s.height }

// Add attaches a layer on top of the existing ones.
func (s *Stage) Add(l *Layer) {
	if l.stage == s {
		return
	}
	if l.stage != nil {
		l.stage.removeLayer(l)
	}
	l.stage = s
	s.layers = append(s.layers, l)
}

func (s *Stage) removeLayer(l *Layer) {
	for i, existing := range s.layers {
		if existing == l {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			break
		}
	}
	l.stage = nil
}

// Layers returns the attached layers bottom to top.
func (s *Stage) Layers() []*Layer {
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// PointerPosition returns the last pointer position seen by the stage.
func (s *Stage) PointerPosition() (float64, float64) {
	return s.pointerX, s.pointerY
}

// ── Listeners ────────────────────────────────────────────

// On registers fn for events of type t and returns a handle for Off.
func (s *Stage) On(t EventType, fn Handler) ListenerID {
	s.nextID++
	id := s.nextID
	s.listeners[t] = append(s.listeners[t], listener{id: id, fn: fn})
	return id
}

// Off removes the given registrations. Unknown ids are ignored.
func (s *Stage) Off(ids ...ListenerID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[ListenerID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	for t, ls := range s.listeners {
		kept := ls[:0]
		for _, l := range ls {
			if _, ok := drop[l.id]; !ok {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			delete(s.listeners, t)
		} else {
			s.listeners[t] = kept
		}
	}
}

// ListenerCount returns the number of registrations for t.
func (s *Stage) ListenerCount(t EventType) int {
	return len(s.listeners[t])
}

// Dispatch delivers ev to every listener registered for its type. Listeners
// added or removed during delivery take effect for the next event.
func (s *Stage) Dispatch(ev Event) {
	ls := make([]listener, len(s.listeners[ev.Type]))
	copy(ls, s.listeners[ev.Type])
	for _, l := range ls {
		l.fn(ev)
	}
}

// ── Input ────────────────────────────────────────────────

// HitTest returns the topmost visible, listening primitive whose client rect
// contains the point, searching visible layers from top to bottom.
func (s *Stage) HitTest(x, y float64) Shape {
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if !l.visible {
			continue
		}
		for j := len(l.children) - 1; j >= 0; j-- {
			c := l.children[j]
			if c.Visible() && c.Listening() && c.ClientRect().Contains(x, y) {
				return c
			}
		}
	}
	return nil
}

// PointerDown feeds a press at (x, y). Pressing a draggable primitive starts a drag.
func (s *Stage) PointerDown(x, y float64, mods Modifiers) {
	s.pointerX, s.pointerY = x, y
	target := s.HitTest(x, y)
	s.pressed = true
	s.pressTarget = target
	s.dragMoved = false
	s.dragging = nil
	if target != nil && target.Draggable() {
		s.dragging = target
	}
	s.Dispatch(Event{Type: EventPointerDown, X: x, Y: y, Target: target, Modifiers: mods})
}

// PointerMove feeds a pointer move, translating the dragged primitive if any.
func (s *Stage) PointerMove(x, y float64, mods Modifiers) {
	dx, dy := x-s.pointerX, y-s.pointerY
	s.pointerX, s.pointerY = x, y
	if s.dragging != nil && !s.dragging.Destroyed() && (dx != 0 || dy != 0) {
		s.dragging.Translate(dx, dy)
		s.dragMoved = true
	}
	s.Dispatch(Event{Type: EventPointerMove, X: x, Y: y, Target: s.HitTest(x, y), Modifiers: mods})
}

// PointerUp feeds a release. It is followed by a drag-end event when a
// primitive was moved, otherwise by a click when press and release hit the
// same target.
func (s *Stage) PointerUp(x, y float64, mods Modifiers) {
	s.pointerX, s.pointerY = x, y
	target := s.HitTest(x, y)
	s.Dispatch(Event{Type: EventPointerUp, X: x, Y: y, Target: target, Modifiers: mods})

	pressed, pressTarget := s.pressed, s.pressTarget
	dragging, moved := s.dragging, s.dragMoved
	s.pressed, s.pressTarget, s.dragging, s.dragMoved = false, nil, nil, false

	switch {
	case dragging != nil && moved:
		s.Dispatch(Event{Type: EventDragEnd, X: x, Y: y, Target: dragging, Modifiers: mods})
	case pressed && pressTarget == target:
		s.Dispatch(Event{Type: EventClick, X: x, Y: y, Target: target, Modifiers: mods})
	}
}

// KeyDown feeds a key press; key uses DOM key names such as "Enter".
func (s *Stage) KeyDown(key string, mods Modifiers) {
	s.Dispatch(Event{Type: EventKeyDown, X: s.pointerX, Y: s.pointerY, Key: key, Modifiers: mods})
}
