// Package director turns raw stage pointer and key events into shape-creation
// gestures, driving one Drawer at a time.
package director

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"drawr/internal/domain"
	"drawr/internal/drawer"
	"drawr/internal/logging"
	"drawr/internal/scene"
)

// DefaultCommitKey finishes a click-driven shape.
const DefaultCommitKey = "Enter"

// CancelKey abandons a click-driven shape that is still being drawn.
const CancelKey = "Escape"

// Target receives the in-progress primitive as soon as it is created and
// removes it again when a gesture is abandoned.
type Target interface {
	Add(nodes ...scene.Shape) error
	Delete(ids ...string) error
}

// Director is the gesture state machine bound to a stage while a tool is active.
type Director interface {
	// Setup binds the stage listeners. Calling it twice binds them once.
	Setup()
	// Dispose unbinds exactly the listeners Setup bound and discards a shape
	// that is still being drawn.
	Dispose()
	// OnFinished registers fn to receive every completed primitive.
	OnFinished(fn func(scene.Shape))
	// Drawing reports whether a gesture is in progress.
	Drawing() bool
	Drawer() drawer.Drawer
}

// Options configures a director.
type Options struct {
	Stage  *scene.Stage
	Drawer drawer.Drawer
	Target Target
	// Config is read at the start of every gesture so style changes made
	// between gestures apply to the next shape.
	Config func() domain.ShapeConfig
	// CommitKey finishes click-driven shapes. Empty means DefaultCommitKey.
	CommitKey string
	Log       *logrus.Entry
}

// New picks the director for the drawer's interaction kind.
func New(opts Options) (Director, error) {
	if opts.Stage == nil || opts.Drawer == nil || opts.Target == nil {
		return nil, fmt.Errorf("new director: %w: stage, drawer and target are required", domain.ErrInvalidState)
	}
	if opts.Config == nil {
		opts.Config = func() domain.ShapeConfig { return domain.ShapeConfig{} }
	}
	if opts.Log == nil {
		opts.Log = logging.Component(nil, "DrawingDirector")
	}

	switch opts.Drawer.Interaction() {
	case drawer.InteractionMove:
		return &Move{base: newBase(opts)}, nil
	case drawer.InteractionClick:
		cd, ok := opts.Drawer.(drawer.ClickDrawer)
		if !ok {
			return nil, fmt.Errorf("new director for %s: %w: click interaction without Finalize", opts.Drawer.Type(), domain.ErrUnknownDrawingType)
		}
		key := opts.CommitKey
		if key == "" {
			key = DefaultCommitKey
		}
		return &Click{base: newBase(opts), drawer: cd, commitKey: key}, nil
	default:
		return nil, fmt.Errorf("new director: %w: %q", domain.ErrUnknownDrawingType, opts.Drawer.Interaction())
	}
}

// ─────────────────────────────────────────────────────────────
// base: lifecycle shared by both directors
// ─────────────────────────────────────────────────────────────

type base struct {
	stage  *scene.Stage
	drawer drawer.Drawer
	target Target
	config func() domain.ShapeConfig
	log    *logrus.Entry

	listeners  []scene.ListenerID
	bound      bool
	drawing    bool
	current    scene.Shape
	onFinished []func(scene.Shape)
}

func newBase(opts Options) base {
	return base{
		stage:  opts.Stage,
		drawer: opts.Drawer,
		target: opts.Target,
		config: opts.Config,
		log:    opts.Log,
	}
}

func (b *base) Drawer() drawer.Drawer { return b.drawer }
func (b *base) Drawing() bool         { return b.drawing }

func (b *base) OnFinished(fn func(scene.Shape)) {
	b.onFinished = append(b.onFinished, fn)
}

func (b *base) on(t scene.EventType, fn scene.Handler) {
	b.listeners = append(b.listeners, b.stage.On(t, fn))
}

func (b *base) Dispose() {
	if !b.bound {
		return
	}
	b.stage.Off(b.listeners...)
	b.listeners = nil
	b.bound = false
	if b.drawing {
		b.discard()
	}
}

// start creates the primitive at (x, y) and hands it to the target.
func (b *base) start(x, y float64) {
	node := b.drawer.Create(x, y, b.config())
	if err := b.target.Add(node); err != nil {
		b.log.WithError(err).Error("could not add new shape to layer")
		return
	}
	b.log.Debugf("started %s %s at %.1f,%.1f", b.drawer.Type(), node.ID(), x, y)
	b.current = node
	b.drawing = true
}

func (b *base) finish() {
	node := b.current
	b.current = nil
	b.drawing = false
	if node == nil {
		return
	}
	b.log.Debugf("finished %s %s", b.drawer.Type(), node.ID())
	for _, fn := range b.onFinished {
		fn(node)
	}
}

func (b *base) discard() {
	node := b.current
	b.current = nil
	b.drawing = false
	if node == nil {
		return
	}
	b.log.Debugf("discarded %s %s", b.drawer.Type(), node.ID())
	if err := b.target.Delete(node.ID()); err != nil {
		b.log.WithError(err).Warn("could not remove abandoned shape")
	}
}

// ─────────────────────────────────────────────────────────────
// Move: press, drag, release
// ─────────────────────────────────────────────────────────────

// Move drives move-interaction drawers.
type Move struct {
	base
}

func (d *Move) Setup() {
	if d.bound {
		return
	}
	d.bound = true
	d.on(scene.EventPointerDown, d.pointerDown)
	d.on(scene.EventPointerMove, d.pointerMove)
	d.on(scene.EventPointerUp, d.pointerUp)
}

func (d *Move) pointerDown(ev scene.Event) {
	if d.drawing {
		return
	}
	d.start(ev.X, ev.Y)
}

func (d *Move) pointerMove(ev scene.Event) {
	if !d.drawing || d.current == nil {
		return
	}
	d.drawer.Resize(d.current, ev.X, ev.Y)
}

func (d *Move) pointerUp(scene.Event) {
	if !d.drawing {
		return
	}
	d.finish()
}

// ─────────────────────────────────────────────────────────────
// Click: one press per vertex, commit key to finish
// ─────────────────────────────────────────────────────────────

// Click drives click-interaction drawers.
type Click struct {
	base
	drawer    drawer.ClickDrawer
	commitKey string
}

func (d *Click) Setup() {
	if d.bound {
		return
	}
	d.bound = true
	d.on(scene.EventPointerDown, d.pointerDown)
	d.on(scene.EventKeyDown, d.keyDown)
}

func (d *Click) pointerDown(ev scene.Event) {
	if !d.drawing {
		d.start(ev.X, ev.Y)
		return
	}
	d.drawer.Resize(d.current, ev.X, ev.Y)
}

func (d *Click) keyDown(ev scene.Event) {
	if !d.drawing {
		return
	}
	switch ev.Key {
	case d.commitKey:
		d.drawer.Finalize(d.current)
		d.finish()
	case CancelKey:
		d.discard()
	}
}
