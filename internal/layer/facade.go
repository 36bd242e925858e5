// Package layer owns the editor's layers: one Facade per scene layer holding
// its shapes and selection, and the Service that tracks the active one.
package layer

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"drawr/internal/domain"
	"drawr/internal/idgen"
	"drawr/internal/logging"
	"drawr/internal/scene"
	"drawr/internal/selection"
	"drawr/internal/shape"
)

// Facade is the aggregate owning one layer's shapes and selection behaviour.
// The shape flags, the selection widget and the collection are kept in sync
// through the shape observers registered in Add.
type Facade struct {
	layer     *scene.Layer
	shapes    *shape.Collection
	selection *selection.Handler
	ids       *idgen.Generator
	log       *logrus.Entry

	dragEnabled bool
	// syncing suppresses widget resyncs while the facade itself is changing
	// shape selection flags.
	syncing bool

	onSelect []func([]*shape.Shape)
}

// NewFacade attaches a new scene layer with the given id to the stage.
func NewFacade(stage *scene.Stage, id string, ids *idgen.Generator, log *logrus.Logger) *Facade {
	sl := scene.NewLayer(id)
	stage.Add(sl)

	f := &Facade{
		layer:  sl,
		shapes: shape.NewCollection(),
		ids:    ids,
		log:    logging.Component(log, "LayerFacade").WithField("layer", id),
	}
	f.selection = selection.New(stage, sl, f.nodes, logging.Component(log, "SelectionHandler").WithField("layer", id))
	f.selection.OnSelect(func(ids []string) {
		f.log.Debugf("selection changed: %v", ids)
		f.applySelection(ids)
		f.fireSelect()
	})
	return f
}

func (f *Facade) ID() string { return f.layer.ID() }

// Scene returns the underlying scene layer.
func (f *Facade) Scene() *scene.Layer { return f.layer }

func (f *Facade) Selection() *selection.Handler { return f.selection }

// OnSelect registers fn to receive the selected shapes after every selection change.
func (f *Facade) OnSelect(fn func([]*shape.Shape)) {
	f.onSelect = append(f.onSelect, fn)
}

func (f *Facade) fireSelect() {
	selected := f.FindSelected()
	for _, fn := range f.onSelect {
		fn(selected)
	}
}

func (f *Facade) nodes() []scene.Shape {
	all := f.shapes.All()
	out := make([]scene.Shape, 0, len(all))
	for _, s := range all {
		out = append(out, s.Node())
	}
	return out
}

// ── Adding & removing ────────────────────────────────────

// Add wraps the primitives in shapes, registers them and puts them on the
// layer. Nothing is added when any primitive fails to wrap or its id is taken.
func (f *Facade) Add(nodes ...scene.Shape) error {
	wrapped := make([]*shape.Shape, 0, len(nodes))
	for _, n := range nodes {
		s, err := shape.New(n, false)
		if err != nil {
			return fmt.Errorf("add to layer %s: %w", f.ID(), err)
		}
		wrapped = append(wrapped, s)
	}
	if err := f.shapes.Add(wrapped...); err != nil {
		return fmt.Errorf("add to layer %s: %w", f.ID(), err)
	}
	for _, s := range wrapped {
		s.SetDraggable(f.dragEnabled)
		s.OnDelete(func(s *shape.Shape) {
			f.shapes.Remove(s.ID())
		})
		s.OnSelectionChange(func(*shape.Shape) {
			if !f.syncing {
				f.syncWidget()
			}
		})
		f.layer.Add(s.Node())
	}
	f.log.Debugf("Adding %d shape(s) to stage", len(wrapped))
	return nil
}

// Import reconstructs shapes from data under fresh ids and adds them.
func (f *Facade) Import(data ...domain.ShapeData) ([]*shape.Shape, error) {
	nodes := make([]scene.Shape, 0, len(data))
	for i, d := range data {
		n, err := shape.NewNode(f.ids, d)
		if err != nil {
			return nil, fmt.Errorf("import shape %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	if err := f.Add(nodes...); err != nil {
		return nil, err
	}
	out := make([]*shape.Shape, 0, len(nodes))
	for _, n := range nodes {
		if s, ok := f.shapes.Get(n.ID()); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Export returns the data of every shape in layer order.
func (f *Facade) Export() domain.Snapshot {
	all := f.shapes.All()
	out := make(domain.Snapshot, 0, len(all))
	for _, s := range all {
		out = append(out, s.ToData())
	}
	return out
}

// Delete deletes the shapes with the given ids.
func (f *Facade) Delete(ids ...string) error {
	var targets []*shape.Shape
	for _, id := range ids {
		s, ok := f.shapes.Get(id)
		if !ok {
			return fmt.Errorf("delete %s from layer %s: %w: no such shape", id, f.ID(), domain.ErrInvalidState)
		}
		targets = append(targets, s)
	}
	return f.deleteShapes(targets)
}

// DeleteSelected deletes every selected shape and returns their ids.
func (f *Facade) DeleteSelected() ([]string, error) {
	selected := f.FindSelected()
	ids := make([]string, 0, len(selected))
	for _, s := range selected {
		ids = append(ids, s.ID())
	}
	f.log.Debugf("deleting selected %v", ids)
	return ids, f.deleteShapes(selected)
}

// Clear deletes every shape and resets the selection.
func (f *Facade) Clear() error {
	err := f.deleteShapes(f.shapes.All())
	f.selection.ClearSelection()
	return err
}

func (f *Facade) deleteShapes(shapes []*shape.Shape) error {
	if len(shapes) == 0 {
		return nil
	}
	prev := f.syncing
	f.syncing = true
	var errs []error
	for _, s := range shapes {
		if err := s.Delete(); err != nil {
			errs = append(errs, err)
		}
	}
	f.syncing = prev
	f.syncWidget()
	return errors.Join(errs...)
}

// ── Selection ────────────────────────────────────────────

// UpdateSelection selects exactly the shapes with the given ids and returns them.
func (f *Facade) UpdateSelection(ids ...string) []*shape.Shape {
	f.selection.UpdateSelectionByID(ids...)
	return f.FindSelected()
}

func (f *Facade) applySelection(ids []string) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	prev := f.syncing
	f.syncing = true
	f.shapes.ForEach(func(s *shape.Shape) {
		_, sel := want[s.ID()]
		switch {
		case sel && !s.Selected():
			s.Select()
		case !sel && s.Selected():
			s.Deselect()
		}
	})
	f.syncing = prev
}

// syncWidget pushes the shapes' selection flags to the selection widget.
func (f *Facade) syncWidget() {
	selected := f.FindSelected()
	ids := make([]string, 0, len(selected))
	for _, s := range selected {
		ids = append(ids, s.ID())
	}
	prev := f.syncing
	f.syncing = true
	f.selection.UpdateSelectionByID(ids...)
	f.syncing = prev
}

func (f *Facade) EnableSelection()       { f.selection.Setup() }
func (f *Facade) DisableSelection()      { f.selection.Dispose() }
func (f *Facade) SelectionEnabled() bool { return f.selection.Active() }

// ── Style & drag ─────────────────────────────────────────

// UpdateConfig applies the patch to the shapes with the given ids and returns
// the shapes that were updated. Unknown ids are skipped.
func (f *Facade) UpdateConfig(p domain.StylePatch, ids ...string) []*shape.Shape {
	shapes := f.FindByID(ids...)
	for _, s := range shapes {
		s.UpdateConfig(p)
	}
	return shapes
}

// EnableDrag makes every shape, present and future, draggable.
func (f *Facade) EnableDrag() {
	f.dragEnabled = true
	f.shapes.ForEach(func(s *shape.Shape) { s.SetDraggable(true) })
}

func (f *Facade) DisableDrag() {
	f.dragEnabled = false
	f.shapes.ForEach(func(s *shape.Shape) { s.SetDraggable(false) })
}

func (f *Facade) DragEnabled() bool { return f.dragEnabled }

// ── Queries ──────────────────────────────────────────────

func (f *Facade) FindAll() []*shape.Shape { return f.shapes.All() }

// FindByID returns the shapes with the given ids in layer order.
func (f *Facade) FindByID(ids ...string) []*shape.Shape {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return f.shapes.Filter(func(s *shape.Shape) bool {
		_, ok := want[s.ID()]
		return ok
	})
}

func (f *Facade) FindSelected() []*shape.Shape {
	return f.shapes.Filter((*shape.Shape).Selected)
}

func (f *Facade) Get(id string) (*shape.Shape, bool) { return f.shapes.Get(id) }

func (f *Facade) Len() int { return f.shapes.Len() }

// ── Visibility & lifecycle ───────────────────────────────

func (f *Facade) Hide()         { f.layer.Hide() }
func (f *Facade) Show()         { f.layer.Show() }
func (f *Facade) Visible() bool { return f.layer.Visible() }

// Deactivate stops selection and dragging on the layer.
func (f *Facade) Deactivate() {
	f.DisableSelection()
	f.DisableDrag()
}

// Destroy deletes every shape, stops selection and removes the layer from the stage.
func (f *Facade) Destroy() error {
	err := f.Clear()
	f.Deactivate()
	f.layer.Destroy()
	f.log.Debug("layer destroyed")
	return err
}
