// Package editor is the drawing editor the host application talks to. It owns
// the stage, the layers, the active drawing tool and one undo history per layer.
package editor

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"drawr/internal/director"
	"drawr/internal/domain"
	"drawr/internal/drawer"
	"drawr/internal/history"
	"drawr/internal/idgen"
	"drawr/internal/layer"
	"drawr/internal/logging"
	"drawr/internal/scene"
	"drawr/internal/shape"
)

// Options configures a new editor.
type Options struct {
	Width, Height   float64
	Style           domain.ShapeConfig
	HistoryCapacity int
	CommitKey       string
	Logger          *logrus.Logger
}

// DefaultStyle is applied to new shapes until the host changes it.
var DefaultStyle = domain.ShapeConfig{Fill: "#00D2FF", Stroke: "black", StrokeWidth: 4}

// DefaultOptions returns a 1280x800 editor with the default style.
func DefaultOptions() Options {
	return Options{
		Width:           1280,
		Height:          800,
		Style:           DefaultStyle,
		HistoryCapacity: history.DefaultCapacity,
		CommitKey:       director.DefaultCommitKey,
	}
}

// Editor orchestrates tools, layers, selection and history. It is not safe for
// concurrent use; hosts serialize access.
type Editor struct {
	stage   *scene.Stage
	ids     *idgen.Generator
	layers  *layer.Service
	drawers map[domain.ShapeType]drawer.Drawer
	history map[string]*history.StateManager

	director   director.Director
	tool       domain.ShapeType
	toolActive bool

	style     domain.ShapeConfig
	capacity  int
	commitKey string

	selectActive bool
	dragActive   bool

	logger  *logrus.Logger
	log     *logrus.Entry
	logHook *logging.CallbackHook
	dragEnd scene.ListenerID

	onSelect []func([]*shape.Shape)
	onChange []func(layerID string)
}

// New creates an editor with one active layer and the rectangle tool armed.
func New(opts Options) (*Editor, error) {
	def := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Style == (domain.ShapeConfig{}) {
		opts.Style = def.Style
	}
	if opts.CommitKey == "" {
		opts.CommitKey = def.CommitKey
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	ids := idgen.New()
	stage := scene.NewStage(opts.Width, opts.Height)
	e := &Editor{
		stage:     stage,
		ids:       ids,
		layers:    layer.NewService(stage, ids, opts.Logger),
		drawers:   drawer.Catalogue(ids),
		history:   make(map[string]*history.StateManager),
		style:     opts.Style,
		capacity:  opts.HistoryCapacity,
		commitKey: opts.CommitKey,
		logger:    opts.Logger,
		log:       logging.Component(opts.Logger, "DrawingEditor"),
		logHook:   logging.NewCallbackHook(),
	}
	opts.Logger.AddHook(e.logHook)

	e.layers.OnLayerAdded(e.layerAdded)
	e.layers.OnActivate(e.layerActivated)
	e.layers.AddLayer(true)
	e.dragEnd = stage.On(scene.EventDragEnd, e.onDragEnd)

	if err := e.ChangeTool(domain.ShapeRectangle); err != nil {
		return nil, err
	}
	return e, nil
}

// Stage returns the render surface. Hosts feed pointer and key input into it.
func (e *Editor) Stage() *scene.Stage { return e.stage }

// CommitKey is the key that finishes a click-drawn shape.
func (e *Editor) CommitKey() string { return e.commitKey }

// Close unbinds every listener the editor holds on the stage.
func (e *Editor) Close() {
	e.disposeDirector()
	if f, err := e.layers.ActiveLayer(); err == nil {
		f.DisableSelection()
	}
	e.stage.Off(e.dragEnd)
	e.logHook.Set(nil)
}

// ── Hooks ────────────────────────────────────────────────

// OnSelect registers fn to receive the selected shapes of the active layer.
func (e *Editor) OnSelect(fn func([]*shape.Shape)) {
	e.onSelect = append(e.onSelect, fn)
}

// OnLogMessage forwards every log line as "[component]: message". It replaces
// any previous callback; nil turns forwarding off.
func (e *Editor) OnLogMessage(fn func(string)) {
	e.logHook.Set(fn)
}

// OnChange registers fn to run after any change to a layer's content.
func (e *Editor) OnChange(fn func(layerID string)) {
	e.onChange = append(e.onChange, fn)
}

func (e *Editor) changed(layerID string) {
	for _, fn := range e.onChange {
		fn(layerID)
	}
}

func (e *Editor) layerAdded(f *layer.Facade) {
	e.history[f.ID()] = history.New(e.capacity)
	f.OnSelect(func(selected []*shape.Shape) {
		if f.ID() != e.layers.ActiveLayerID() {
			return
		}
		for _, fn := range e.onSelect {
			fn(selected)
		}
	})
}

// layerActivated carries the current mode over to the newly active layer.
func (e *Editor) layerActivated(f *layer.Facade) {
	if e.selectActive {
		f.EnableSelection()
	}
	if e.dragActive {
		f.EnableDrag()
	}
	if e.toolActive {
		if err := e.armTool(e.tool); err != nil {
			e.log.WithError(err).Error("could not rebind drawing tool")
		}
	}
}

// ── Tools & modes ────────────────────────────────────────

// ChangeTool disposes the current tool, turns off selection and drag, and
// arms the drawer for t on the active layer.
func (e *Editor) ChangeTool(t domain.ShapeType) error {
	if _, ok := e.drawers[t]; !ok {
		return fmt.Errorf("change tool: %w: %q", domain.ErrUnknownShapeType, t)
	}
	e.disposeDirector()
	if err := e.DisableSelection(); err != nil {
		return fmt.Errorf("change tool: %w", err)
	}
	if err := e.DisableDrag(); err != nil {
		return fmt.Errorf("change tool: %w", err)
	}
	if err := e.armTool(t); err != nil {
		return fmt.Errorf("change tool: %w", err)
	}
	e.log.Infof("tool changed to %s", t)
	return nil
}

func (e *Editor) armTool(t domain.ShapeType) error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return err
	}
	d, err := director.New(director.Options{
		Stage:     e.stage,
		Drawer:    e.drawers[t],
		Target:    f,
		Config:    func() domain.ShapeConfig { return e.style },
		CommitKey: e.commitKey,
		Log:       logging.Component(e.logger, "DrawingDirector").WithField("tool", t),
	})
	if err != nil {
		return err
	}
	e.disposeDirector()
	d.OnFinished(e.shapeCreated)
	d.Setup()
	e.director = d
	e.tool = t
	e.toolActive = true
	return nil
}

func (e *Editor) disposeDirector() {
	if e.director != nil {
		e.director.Dispose()
	}
	e.toolActive = false
}

// ActiveTool returns the armed tool. ok is false while selection or drag mode
// has disarmed it.
func (e *Editor) ActiveTool() (domain.ShapeType, bool) {
	return e.tool, e.toolActive
}

// EnableSelection disarms the drawing tool and starts selection on the active layer.
func (e *Editor) EnableSelection() error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("enable selection: %w", err)
	}
	e.selectActive = true
	e.disposeDirector()
	f.EnableSelection()
	return nil
}

func (e *Editor) DisableSelection() error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("disable selection: %w", err)
	}
	e.selectActive = false
	f.DisableSelection()
	return nil
}

// EnableDrag disarms the drawing tool and makes the active layer's shapes draggable.
func (e *Editor) EnableDrag() error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("enable drag: %w", err)
	}
	e.dragActive = true
	e.disposeDirector()
	f.EnableDrag()
	return nil
}

func (e *Editor) DisableDrag() error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("disable drag: %w", err)
	}
	e.dragActive = false
	f.DisableDrag()
	return nil
}

func (e *Editor) IsSelectionEnabled() bool { return e.selectActive }
func (e *Editor) IsDragEnabled() bool      { return e.dragActive }

// Mode is the interaction state a host mirrors in its toolbar.
type Mode struct {
	Tool      domain.ShapeType
	ToolArmed bool
	Selection bool
	Drag      bool
}

func (e *Editor) Mode() Mode {
	return Mode{Tool: e.tool, ToolArmed: e.toolActive, Selection: e.selectActive, Drag: e.dragActive}
}

// SetMode restores a mode captured with Mode.
func (e *Editor) SetMode(m Mode) error {
	if err := e.ChangeTool(m.Tool); err != nil {
		return err
	}
	if !m.ToolArmed {
		e.disposeDirector()
	}
	if m.Selection {
		if err := e.EnableSelection(); err != nil {
			return err
		}
	}
	if m.Drag {
		return e.EnableDrag()
	}
	return nil
}

// ── Style ────────────────────────────────────────────────

// ChangeFill sets the fill used for shapes created from now on.
func (e *Editor) ChangeFill(color string) { e.style.Fill = color }

// ChangeStroke sets the stroke used for shapes created from now on.
func (e *Editor) ChangeStroke(color string) { e.style.Stroke = color }

// ChangeStrokeWidth sets the stroke width used for shapes created from now on.
func (e *Editor) ChangeStrokeWidth(w float64) { e.style.StrokeWidth = w }

// Style returns the style used for new shapes.
func (e *Editor) Style() domain.ShapeConfig { return e.style }

// UpdateShapeConfig applies the patch to the active layer's shapes with the
// given ids. A history entry is recorded when any shape changed.
func (e *Editor) UpdateShapeConfig(p domain.StylePatch, ids ...string) error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("update shape config: %w", err)
	}
	updated := f.UpdateConfig(p, ids...)
	if len(updated) == 0 || p.IsEmpty() {
		return nil
	}
	e.record(f)
	return nil
}

// ── Content ──────────────────────────────────────────────

// DeleteSelected deletes the active layer's selected shapes.
func (e *Editor) DeleteSelected() error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("delete selected: %w", err)
	}
	deleted, err := f.DeleteSelected()
	if err != nil {
		return fmt.Errorf("delete selected: %w", err)
	}
	if len(deleted) > 0 {
		e.record(f)
	}
	return nil
}

// Clear deletes every shape on the active layer.
func (e *Editor) Clear() error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := f.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	e.record(f)
	return nil
}

// Export returns the data of every shape on the active layer.
func (e *Editor) Export() (domain.Snapshot, error) {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return f.Export(), nil
}

// Import adds shapes to the active layer under fresh ids.
func (e *Editor) Import(data []domain.ShapeData) error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if _, err := f.Import(data...); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	e.record(f)
	return nil
}

// ClearAndImport replaces the active layer's content in one history step.
func (e *Editor) ClearAndImport(data []domain.ShapeData) error {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return fmt.Errorf("clear and import: %w", err)
	}
	for i, d := range data {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("clear and import: shape %d: %w", i, err)
		}
	}
	if err := f.Clear(); err != nil {
		return fmt.Errorf("clear and import: %w", err)
	}
	if _, err := f.Import(data...); err != nil {
		return fmt.Errorf("clear and import: %w", err)
	}
	e.record(f)
	return nil
}

// Select selects exactly the active layer's shapes with the given ids.
func (e *Editor) Select(ids ...string) ([]*shape.Shape, error) {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return f.UpdateSelection(ids...), nil
}

// Selected returns the active layer's selected shapes.
func (e *Editor) Selected() []*shape.Shape {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return nil
	}
	return f.FindSelected()
}

// Shapes returns every shape on the active layer.
func (e *Editor) Shapes() []*shape.Shape {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return nil
	}
	return f.FindAll()
}

func (e *Editor) shapeCreated(node scene.Shape) {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		e.log.WithError(err).Error("shape finished without an active layer")
		return
	}
	e.log.Debugf("shape %s created", node.ID())
	e.record(f)
}

func (e *Editor) onDragEnd(ev scene.Event) {
	if ev.Target == nil || ev.Target.Layer() == nil {
		return
	}
	f, err := e.layers.Layer(ev.Target.Layer().ID())
	if err != nil {
		return
	}
	if _, ok := f.Get(ev.Target.ID()); !ok {
		return
	}
	e.record(f)
}

// record pushes the layer's content onto its history.
func (e *Editor) record(f *layer.Facade) {
	h, ok := e.history[f.ID()]
	if !ok {
		return
	}
	h.Save(f.Export())
	e.changed(f.ID())
}

// ── History ──────────────────────────────────────────────

// Undo restores the active layer's previous snapshot. It reports false when
// there was nothing to undo.
func (e *Editor) Undo() (bool, error) {
	return e.step("undo", (*history.StateManager).Undo)
}

// Redo re-applies the active layer's last undone snapshot. It reports false
// when there was nothing to redo.
func (e *Editor) Redo() (bool, error) {
	return e.step("redo", (*history.StateManager).Redo)
}

func (e *Editor) step(op string, move func(*history.StateManager) (domain.Snapshot, bool)) (bool, error) {
	f, err := e.layers.ActiveLayer()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s, ok := move(e.history[f.ID()])
	if !ok {
		return false, nil
	}
	if err := f.Clear(); err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.Import(s...); err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}
	e.log.Debugf("%s restored %d shapes", op, len(s))
	e.changed(f.ID())
	return true, nil
}

func (e *Editor) CanUndo() bool {
	h := e.activeHistory()
	return h != nil && h.CanUndo()
}

func (e *Editor) CanRedo() bool {
	h := e.activeHistory()
	return h != nil && h.CanRedo()
}

func (e *Editor) activeHistory() *history.StateManager {
	return e.history[e.layers.ActiveLayerID()]
}

// ── Layers ───────────────────────────────────────────────

// AddLayer creates a layer and returns its id.
func (e *Editor) AddLayer(active bool) string {
	return e.layers.AddLayer(active)
}

func (e *Editor) ActivateLayer(id string) error {
	return e.layers.ActivateLayer(id)
}

func (e *Editor) ActiveLayerID() string { return e.layers.ActiveLayerID() }

// GetLayers returns the layer ids in creation order.
func (e *Editor) GetLayers() []string { return e.layers.Layers() }

// Layer returns the facade with the given id.
func (e *Editor) Layer(id string) (*layer.Facade, error) { return e.layers.Layer(id) }

func (e *Editor) Hide() { e.layers.Hide() }
func (e *Editor) Show() { e.layers.Show() }

// HideLayer hides the given layer, or the active one for "".
func (e *Editor) HideLayer(id string) error { return e.layers.HideLayer(id) }

// ShowLayer shows the given layer, or the active one for "".
func (e *Editor) ShowLayer(id string) error { return e.layers.ShowLayer(id) }

func (e *Editor) HideLayers(ids []string) error { return e.layers.HideLayers(ids) }
func (e *Editor) ShowLayers(ids []string) error { return e.layers.ShowLayers(ids) }

// RemoveLayer removes the given layer, or the active one for "", together
// with its history.
func (e *Editor) RemoveLayer(id string) error {
	if id == "" {
		id = e.layers.ActiveLayerID()
	}
	if err := e.layers.RemoveLayer(id); err != nil {
		return err
	}
	delete(e.history, id)
	return nil
}

func (e *Editor) RemoveLayers(ids []string) error {
	for _, id := range ids {
		if err := e.RemoveLayer(id); err != nil {
			return err
		}
	}
	return nil
}

// ── Persistence ──────────────────────────────────────────

// ExportLayers returns every layer's content in layer order.
func (e *Editor) ExportLayers() []domain.LayerData {
	ids := e.layers.Layers()
	out := make([]domain.LayerData, 0, len(ids))
	for _, id := range ids {
		f, err := e.layers.Layer(id)
		if err != nil {
			continue
		}
		out = append(out, domain.LayerData{ID: id, Visible: f.Visible(), Shapes: f.Export()})
	}
	return out
}

// RestoreLayers replaces every layer with the given ones. Layers get fresh ids;
// the layer that was saved as activeID becomes active, otherwise the first.
// Each restored layer starts with an empty history.
func (e *Editor) RestoreLayers(data []domain.LayerData, activeID string) error {
	for _, l := range data {
		for i, d := range l.Shapes {
			if err := d.Validate(); err != nil {
				return fmt.Errorf("restore layer %s: shape %d: %w", l.ID, i, err)
			}
		}
	}

	old := e.layers.Layers()
	var activate string
	for i, l := range data {
		id := e.layers.AddLayer(false)
		f, err := e.layers.Layer(id)
		if err != nil {
			return fmt.Errorf("restore layers: %w", err)
		}
		if _, err := f.Import(l.Shapes...); err != nil {
			return fmt.Errorf("restore layer %s: %w", l.ID, err)
		}
		if !l.Visible {
			f.Hide()
		}
		e.history[id].Reset(f.Export())
		if l.ID == activeID || (i == 0 && activate == "") {
			activate = id
		}
	}
	if err := e.RemoveLayers(old); err != nil {
		return fmt.Errorf("restore layers: %w", err)
	}
	if activate != "" {
		if err := e.layers.ActivateLayer(activate); err != nil {
			return fmt.Errorf("restore layers: %w", err)
		}
	}
	e.log.Infof("restored %d layers", len(data))
	e.changed(e.layers.ActiveLayerID())
	return nil
}
