package service_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"drawr/internal/domain"
	"drawr/internal/editor"
	"drawr/internal/logging"
	"drawr/internal/scene"
	"drawr/internal/service"
	"drawr/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// DrawingService tests (SQLite in a temp dir)
// ─────────────────────────────────────────────────────────────

func newService(t *testing.T) (*service.DrawingService, *service.MockEmitter) {
	t.Helper()
	log := logging.Component(logging.Discard(), "DrawingService")
	db, err := storage.New(filepath.Join(t.TempDir(), "drawr.db"), log)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	opts := editor.DefaultOptions()
	opts.Width, opts.Height = 200, 100
	em := &service.MockEmitter{}
	svc, err := service.NewDrawingService(opts, storage.NewDrawingStore(db), storage.NewSnapshotStore(db, 0), em, log)
	if err != nil {
		t.Fatalf("NewDrawingService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, em
}

func drawRect(t *testing.T, svc *service.DrawingService, x1, y1, x2, y2 float64) {
	t.Helper()
	err := svc.Do(func(ed *editor.Editor) error {
		st := ed.Stage()
		st.PointerDown(x1, y1, scene.Modifiers{})
		st.PointerMove(x2, y2, scene.Modifiers{})
		st.PointerUp(x2, y2, scene.Modifiers{})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func shapeCount(t *testing.T, svc *service.DrawingService) int {
	t.Helper()
	var n int
	svc.Do(func(ed *editor.Editor) error {
		n = len(ed.Shapes())
		return nil
	})
	return n
}

func TestDrawingService_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, em := newService(t)

	d, err := svc.NewDrawing(ctx, "plan")
	if err != nil {
		t.Fatalf("NewDrawing: %v", err)
	}
	if svc.Dirty() {
		t.Fatal("a new drawing should be clean")
	}

	drawRect(t, svc, 10, 10, 60, 40)
	if !svc.Dirty() {
		t.Fatal("drawing should mark the service dirty")
	}
	changed := em.Named(service.EventChanged)
	if len(changed) == 0 {
		t.Fatal("expected a change event")
	}
	if ev := changed[len(changed)-1].Data.(service.ChangedEvent); ev.DrawingID != d.ID {
		t.Errorf("change event should carry the drawing id, got %+v", ev)
	}

	if _, err := svc.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(em.Named(service.EventSaved)) != 1 {
		t.Error("expected a saved event")
	}

	if _, err := svc.NewDrawing(ctx, "other"); err != nil {
		t.Fatal(err)
	}
	if n := shapeCount(t, svc); n != 0 {
		t.Fatalf("new drawing should start empty, got %d shapes", n)
	}

	loaded, err := svc.Load(ctx, d.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "plan" || shapeCount(t, svc) != 1 {
		t.Fatalf("unexpected loaded drawing %+v", loaded)
	}
	if cur := svc.Current(); cur == nil || cur.ID != d.ID {
		t.Errorf("current should be the loaded drawing, got %+v", cur)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("List: %v %+v", err, list)
	}
}

func TestDrawingService_SnapshotsFollowEdits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	d, _ := svc.NewDrawing(ctx, "")
	drawRect(t, svc, 10, 10, 60, 40)
	drawRect(t, svc, 70, 10, 90, 40)

	recs, err := svc.Snapshots(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || len(recs[1].Shapes) != 2 {
		t.Fatalf("expected two snapshots, the last with two shapes, got %+v", recs)
	}
}

func TestDrawingService_SaveWithoutDrawingCreatesOne(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	drawRect(t, svc, 10, 10, 60, 40)
	d, err := svc.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if d.Name != "Untitled" || d.ShapeCount() != 1 {
		t.Errorf("unexpected saved drawing %+v", d)
	}
}

func TestDrawingService_SaveIfDirty(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if saved, err := svc.SaveIfDirty(ctx); saved || err != nil {
		t.Fatalf("nothing open: got %v %v", saved, err)
	}
	svc.NewDrawing(ctx, "x")
	if saved, _ := svc.SaveIfDirty(ctx); saved {
		t.Fatal("clean drawing should not be saved")
	}
	drawRect(t, svc, 10, 10, 60, 40)
	if saved, err := svc.SaveIfDirty(ctx); !saved || err != nil {
		t.Fatalf("dirty drawing should be saved: %v %v", saved, err)
	}
	if svc.Dirty() {
		t.Error("save should clear the dirty flag")
	}
}

func TestDrawingService_DeleteOpenDrawing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	d, _ := svc.NewDrawing(ctx, "gone")
	if err := svc.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if svc.Current() != nil {
		t.Error("deleting the open drawing should detach it")
	}
	if _, err := svc.Get(ctx, d.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Rename(ctx, "x"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("rename without a drawing: expected ErrInvalidState, got %v", err)
	}
}

func TestDrawingService_UpdateReloadsOpenDrawing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	d, _ := svc.NewDrawing(ctx, "live")
	style := domain.ShapeConfig{Fill: "red", Stroke: "black", StrokeWidth: 1}
	d.Layers = []domain.LayerData{{ID: "a", Visible: true, Shapes: domain.Snapshot{
		domain.RectangleData(0, 0, 5, 5, style),
		domain.LineData([]float64{0, 0, 9, 9}, style),
	}}}
	if err := svc.Update(ctx, d); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n := shapeCount(t, svc); n != 2 {
		t.Fatalf("editor should be reloaded, got %d shapes", n)
	}

	bad := &domain.Drawing{ID: d.ID, Layers: []domain.LayerData{{Shapes: domain.Snapshot{{Type: "CIRCLE"}}}}}
	if err := svc.Update(ctx, bad); !errors.Is(err, domain.ErrUnknownShapeType) {
		t.Errorf("expected ErrUnknownShapeType, got %v", err)
	}
}

func TestDrawingService_EmitsSelectionAndLog(t *testing.T) {
	svc, em := newService(t)
	drawRect(t, svc, 10, 10, 60, 40)

	err := svc.Do(func(ed *editor.Editor) error {
		if err := ed.EnableSelection(); err != nil {
			return err
		}
		_, err := ed.Select(ed.Shapes()[0].ID())
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	sel := em.Named(service.EventSelection)
	if len(sel) == 0 {
		t.Fatal("expected a selection event")
	}
	if ids := sel[len(sel)-1].Data.([]string); len(ids) != 1 || !strings.HasPrefix(ids[0], "drawr-") {
		t.Errorf("unexpected selection payload %v", ids)
	}

	svc.Do(func(ed *editor.Editor) error { return ed.ChangeTool(domain.ShapeLine) })
	var found bool
	for _, ev := range em.Named(service.EventLog) {
		if ev.Data == "[DrawingEditor]: tool changed to LINE" {
			found = true
		}
	}
	if !found {
		t.Error("expected the tool change to be forwarded as a log event")
	}
}

type ctxKey struct{}

// ctxEmitter records the context value each log event was emitted with.
type ctxEmitter struct {
	mu   sync.Mutex
	seen []any
}

func (e *ctxEmitter) Emit(ctx context.Context, event string, _ any) {
	if event != service.EventLog {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, ctx.Value(ctxKey{}))
}

func (e *ctxEmitter) last() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.seen) == 0 {
		return nil
	}
	return e.seen[len(e.seen)-1]
}

func TestDrawingService_SetContextWhileLogging(t *testing.T) {
	em := &ctxEmitter{}
	svc, err := service.NewDrawingService(editor.DefaultOptions(), nil, nil, em, logging.Component(logging.Discard(), "DrawingService"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Close)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			svc.SetContext(context.WithValue(context.Background(), ctxKey{}, i))
		}
	}()
	tools := []domain.ShapeType{domain.ShapeLine, domain.ShapeRectangle}
	for i := 0; i < 200; i++ {
		svc.Do(func(ed *editor.Editor) error { return ed.ChangeTool(tools[i%2]) })
	}
	wg.Wait()

	svc.SetContext(context.WithValue(context.Background(), ctxKey{}, "final"))
	svc.Do(func(ed *editor.Editor) error { return ed.ChangeTool(domain.ShapePolygon) })
	if got := em.last(); got != "final" {
		t.Errorf("log event should carry the latest context, got %v", got)
	}
}

func TestDrawingService_ImportJSONAndRender(t *testing.T) {
	svc, _ := newService(t)

	n, err := svc.ImportJSON(strings.NewReader(`[{"type":"RECTANGLE","x":1,"y":2,"width":10,"height":10,"fill":"red","stroke":"black","strokeWidth":1}]`))
	if err != nil || n != 1 {
		t.Fatalf("ImportJSON: %d %v", n, err)
	}
	if _, err := svc.ImportJSON(strings.NewReader(`{`)); err == nil {
		t.Error("expected a decode error")
	}

	var buf bytes.Buffer
	if err := svc.RenderPNG(&buf); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("unexpected size %v", b)
	}
}

func TestDrawingService_RenderStoredDrawing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	d := &domain.Drawing{Name: "stored", Layers: []domain.LayerData{{ID: "l", Visible: true, Shapes: domain.Snapshot{
		domain.PolygonData([]float64{0, 0, 50, 0, 50, 50}, domain.ShapeConfig{Fill: "blue"}),
	}}}}
	if err := svc.Create(ctx, d); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := svc.RenderDrawingPNG(ctx, d.ID, &buf); err != nil {
		t.Fatalf("RenderDrawingPNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected PNG bytes")
	}
	if err := svc.RenderDrawingPNG(ctx, "missing", &buf); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────
// Autosave & watcher
// ─────────────────────────────────────────────────────────────

func TestAutosave_InvalidSchedule(t *testing.T) {
	svc, _ := newService(t)
	if _, err := service.StartAutosave(context.Background(), svc, "not a schedule", nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAutosave_SavesDirtyDrawing(t *testing.T) {
	ctx := context.Background()
	svc, em := newService(t)
	svc.NewDrawing(ctx, "auto")
	drawRect(t, svc, 10, 10, 60, 40)

	a, err := service.StartAutosave(ctx, svc, "@every 1s", logging.Component(logging.Discard(), "Autosave"))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Stop(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for svc.Dirty() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if svc.Dirty() {
		t.Fatal("autosave did not run")
	}
	if len(em.Named(service.EventSaved)) == 0 {
		t.Error("expected a saved event")
	}
}

func TestWatcher_ImportsOnWrite(t *testing.T) {
	svc, _ := newService(t)
	path := filepath.Join(t.TempDir(), "shapes.json")

	w, err := service.StartWatcher(svc, path, logging.Component(logging.Discard(), "Watcher"))
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}
	defer w.Stop(context.Background())

	body := `[{"type":"LINE","points":[0,0,10,10],"stroke":"black","strokeWidth":2},` +
		`{"type":"POLYGON","points":[0,0,10,0,10,10],"closed":true,"fill":"red"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for shapeCount(t, svc) != 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if n := shapeCount(t, svc); n != 2 {
		t.Fatalf("expected 2 imported shapes, got %d", n)
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	svc, _ := newService(t)
	if _, err := service.StartWatcher(svc, filepath.Join(t.TempDir(), "nope", "x.json"), nil); err == nil {
		t.Fatal("expected an error")
	}
}
