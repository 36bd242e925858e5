package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"drawr/internal/domain"
	"drawr/internal/editor"
	"drawr/internal/render"
	"drawr/internal/shape"
)

// ─────────────────────────────────────────────────────────────
// Drawing Service: one editor shared by every host
// ─────────────────────────────────────────────────────────────

// ChangedEvent is the payload of EventChanged.
type ChangedEvent struct {
	DrawingID string `json:"drawingId"`
	LayerID   string `json:"layerId"`
}

// DrawingService owns the editor and the currently open drawing. The editor
// is single-threaded; every access goes through the service mutex.
type DrawingService struct {
	mu       sync.Mutex
	ctx      atomic.Pointer[ctxHolder] // read by editor hooks with and without mu held
	editor   *editor.Editor
	opts     editor.Options
	drawings domain.DrawingStore
	snaps    domain.SnapshotStore
	renderer *render.Renderer
	emitter  EventEmitter
	log      *logrus.Entry

	current *domain.Drawing
	dirty   bool
}

// NewDrawingService creates the editor from opts and wires its hooks to the
// emitter. snaps may be nil when the backend keeps no snapshots.
func NewDrawingService(
	opts editor.Options,
	drawings domain.DrawingStore,
	snaps domain.SnapshotStore,
	emitter EventEmitter,
	log *logrus.Entry,
) (*DrawingService, error) {
	ed, err := editor.New(opts)
	if err != nil {
		return nil, fmt.Errorf("create editor: %w", err)
	}
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &DrawingService{
		editor:   ed,
		opts:     opts,
		drawings: drawings,
		snaps:    snaps,
		renderer: render.New(log.WithField("component", "Renderer")),
		emitter:  emitter,
		log:      log,
	}
	s.SetContext(context.Background())

	ed.OnSelect(func(selected []*shape.Shape) {
		ids := make([]string, 0, len(selected))
		for _, sh := range selected {
			ids = append(ids, sh.ID())
		}
		s.emitter.Emit(s.emitCtx(), EventSelection, ids)
	})
	ed.OnLogMessage(func(msg string) {
		s.emitter.Emit(s.emitCtx(), EventLog, msg)
	})
	ed.OnChange(s.onChange)
	return s, nil
}

// SetContext sets the context passed to the emitter.
func (s *DrawingService) SetContext(ctx context.Context) {
	s.ctx.Store(&ctxHolder{ctx})
}

type ctxHolder struct{ ctx context.Context }

func (s *DrawingService) emitCtx() context.Context {
	return s.ctx.Load().ctx
}

// Close releases the editor.
func (s *DrawingService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Close()
}

// Do runs fn with exclusive access to the editor.
func (s *DrawingService) Do(fn func(*editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

// onChange runs with the mutex held, inside an editor call.
func (s *DrawingService) onChange(layerID string) {
	s.dirty = true
	ev := ChangedEvent{LayerID: layerID}
	if s.current != nil {
		ev.DrawingID = s.current.ID
		s.pushSnapshot(layerID)
	}
	s.emitter.Emit(s.emitCtx(), EventChanged, ev)
}

func (s *DrawingService) pushSnapshot(layerID string) {
	if s.snaps == nil {
		return
	}
	f, err := s.editor.Layer(layerID)
	if err != nil {
		return
	}
	rec := &domain.SnapshotRecord{
		DrawingID: s.current.ID,
		LayerID:   layerID,
		Label:     "edit",
		Shapes:    f.Export(),
	}
	if err := s.snaps.PushSnapshot(s.emitCtx(), rec); err != nil {
		s.log.WithError(err).Warn("could not persist snapshot")
	}
}

// ── Drawings ───────────────────────────────────────────────

// Current returns a copy of the open drawing's metadata, or nil.
func (s *DrawingService) Current() *domain.Drawing {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	d := *s.current
	d.Layers = nil
	return &d
}

// Dirty reports whether the editor changed since the last save or load.
func (s *DrawingService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// NewDrawing empties the editor and creates a stored drawing for it.
func (s *DrawingService) NewDrawing(ctx context.Context, name string) (*domain.Drawing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.editor.RestoreLayers(nil, ""); err != nil {
		return nil, fmt.Errorf("new drawing: %w", err)
	}
	if name == "" {
		name = "Untitled"
	}
	d := &domain.Drawing{
		Name:        name,
		Layers:      s.editor.ExportLayers(),
		ActiveLayer: s.editor.ActiveLayerID(),
	}
	if err := s.drawings.CreateDrawing(ctx, d); err != nil {
		return nil, fmt.Errorf("new drawing: %w", err)
	}
	s.current = d
	s.dirty = false
	s.log.WithField("drawing_id", d.ID).Info("drawing created")
	out := *d
	return &out, nil
}

// Save writes the editor's layers to the open drawing, creating one named
// "Untitled" when nothing is open.
func (s *DrawingService) Save(ctx context.Context) (*domain.Drawing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// SaveIfDirty saves only when a drawing is open and has unsaved changes.
func (s *DrawingService) SaveIfDirty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || !s.dirty {
		return false, nil
	}
	_, err := s.saveLocked(ctx)
	return err == nil, err
}

func (s *DrawingService) saveLocked(ctx context.Context) (*domain.Drawing, error) {
	layers := s.editor.ExportLayers()
	active := s.editor.ActiveLayerID()

	if s.current == nil {
		d := &domain.Drawing{Name: "Untitled", Layers: layers, ActiveLayer: active}
		if err := s.drawings.CreateDrawing(ctx, d); err != nil {
			return nil, fmt.Errorf("save drawing: %w", err)
		}
		s.current = d
	} else {
		s.current.Layers = layers
		s.current.ActiveLayer = active
		if err := s.drawings.UpdateDrawing(ctx, s.current); err != nil {
			return nil, fmt.Errorf("save drawing: %w", err)
		}
	}
	s.dirty = false
	s.emitter.Emit(s.emitCtx(), EventSaved, s.current.ID)
	s.log.WithField("drawing_id", s.current.ID).Debug("drawing saved")
	d := *s.current
	return &d, nil
}

// Rename changes the open drawing's name and saves it.
func (s *DrawingService) Rename(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return fmt.Errorf("rename: no open drawing: %w", domain.ErrInvalidState)
	}
	s.current.Name = name
	_, err := s.saveLocked(ctx)
	return err
}

// Load replaces the editor content with a stored drawing.
func (s *DrawingService) Load(ctx context.Context, id string) (*domain.Drawing, error) {
	d, err := s.drawings.GetDrawing(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := s.editor.RestoreLayers(d.Layers, d.ActiveLayer); err != nil {
		return nil, fmt.Errorf("load drawing %s: %w", id, err)
	}
	s.current = d
	s.dirty = false
	s.emitter.Emit(s.emitCtx(), EventLoaded, d.ID)
	s.log.WithField("drawing_id", d.ID).Info("drawing loaded")
	out := *d
	return &out, nil
}

func (s *DrawingService) List(ctx context.Context) ([]domain.DrawingSummary, error) {
	return s.drawings.ListDrawings(ctx)
}

func (s *DrawingService) Get(ctx context.Context, id string) (*domain.Drawing, error) {
	return s.drawings.GetDrawing(ctx, id)
}

// Create stores a drawing without opening it.
func (s *DrawingService) Create(ctx context.Context, d *domain.Drawing) error {
	if err := validateLayers(d.Layers); err != nil {
		return err
	}
	return s.drawings.CreateDrawing(ctx, d)
}

// Update overwrites a stored drawing. When it is the open one, the editor is
// reloaded with the new content.
func (s *DrawingService) Update(ctx context.Context, d *domain.Drawing) error {
	if err := validateLayers(d.Layers); err != nil {
		return err
	}
	if err := s.drawings.UpdateDrawing(ctx, d); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != d.ID {
		return nil
	}
	s.current = nil
	if err := s.editor.RestoreLayers(d.Layers, d.ActiveLayer); err != nil {
		return fmt.Errorf("reload drawing %s: %w", d.ID, err)
	}
	cur := *d
	s.current = &cur
	s.dirty = false
	return nil
}

// Delete removes a stored drawing. Deleting the open drawing detaches the
// editor from it; the content stays on screen.
func (s *DrawingService) Delete(ctx context.Context, id string) error {
	if err := s.drawings.DeleteDrawing(ctx, id); err != nil {
		return err
	}
	if s.snaps != nil {
		if err := s.snaps.ClearSnapshots(ctx, id); err != nil {
			s.log.WithError(err).Warn("could not clear snapshots")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.dirty = true
	}
	return nil
}

// Snapshots lists the persisted history of a drawing.
func (s *DrawingService) Snapshots(ctx context.Context, id string) ([]domain.SnapshotRecord, error) {
	if s.snaps == nil {
		return nil, nil
	}
	return s.snaps.ListSnapshots(ctx, id)
}

// ── Import & render ────────────────────────────────────────

// ImportJSON replaces the active layer's content with a JSON shape list.
func (s *DrawingService) ImportJSON(r io.Reader) (int, error) {
	var data []domain.ShapeData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return 0, fmt.Errorf("decode shapes: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editor.ClearAndImport(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// RenderPNG writes the editor's current stage as PNG.
func (s *DrawingService) RenderPNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.EncodePNG(w, s.editor.Stage())
}

// RenderDrawingPNG renders a stored drawing on a scratch editor.
func (s *DrawingService) RenderDrawingPNG(ctx context.Context, id string, w io.Writer) error {
	d, err := s.drawings.GetDrawing(ctx, id)
	if err != nil {
		return err
	}
	opts := s.opts
	opts.Logger = nil
	scratch, err := editor.New(opts)
	if err != nil {
		return err
	}
	defer scratch.Close()
	if err := scratch.RestoreLayers(d.Layers, d.ActiveLayer); err != nil {
		return fmt.Errorf("render drawing %s: %w", id, err)
	}
	return s.renderer.EncodePNG(w, scratch.Stage())
}

func validateLayers(layers []domain.LayerData) error {
	for _, l := range layers {
		for i, d := range l.Shapes {
			if err := d.Validate(); err != nil {
				return fmt.Errorf("layer %s: shape %d: %w", l.ID, i, err)
			}
		}
	}
	return nil
}
