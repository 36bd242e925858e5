package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"drawr/internal/domain"
	"drawr/internal/editor"
	"drawr/internal/logging"
	mcpserver "drawr/internal/mcp"
	"drawr/internal/service"
	"drawr/internal/storage"
)

type watcherFixture struct {
	w         *drawingWatcher
	svc       *service.DrawingService
	drawings  *storage.DrawingStore
	approvals *storage.ApprovalStore
	em        *service.MockEmitter
}

func newTestWatcher(t *testing.T) watcherFixture {
	t.Helper()
	log := logging.Component(logging.Discard(), "Test")
	db, err := storage.New(filepath.Join(t.TempDir(), "drawr.db"), log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	opts := editor.DefaultOptions()
	opts.Width, opts.Height = 100, 100
	drawings := storage.NewDrawingStore(db)
	svc, err := service.NewDrawingService(opts, drawings, nil, nil, log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Close)

	approvals := storage.NewApprovalStore(db)
	em := &service.MockEmitter{}
	return watcherFixture{
		w:         newDrawingWatcher(context.Background(), svc, approvals, em, log),
		svc:       svc,
		drawings:  drawings,
		approvals: approvals,
		em:        em,
	}
}

func TestDrawingWatcher_ExternalChange(t *testing.T) {
	f := newTestWatcher(t)
	ctx := context.Background()

	d, err := f.svc.NewDrawing(ctx, "shared")
	if err != nil {
		t.Fatal(err)
	}
	f.w.SetDrawing(d)

	f.w.check()
	if n := len(f.em.Named(EventExternalChange)); n != 0 {
		t.Fatalf("no change yet, got %d events", n)
	}

	// Another process rewrites the drawing behind the service's back.
	stored, err := f.drawings.GetDrawing(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored.Name = "renamed elsewhere"
	if err := f.drawings.UpdateDrawing(ctx, stored); err != nil {
		t.Fatal(err)
	}

	f.w.check()
	f.w.check()
	events := f.em.Named(EventExternalChange)
	if len(events) != 1 {
		t.Fatalf("expected one external change event, got %d", len(events))
	}
	if got := events[0].Data.(map[string]string)["drawingId"]; got != d.ID {
		t.Errorf("unexpected drawing id %q", got)
	}

	// Reloading and saving from the app is not an external change.
	loaded, err := f.svc.Load(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	f.w.SetDrawing(loaded)
	if _, err := f.svc.Save(ctx); err != nil {
		t.Fatal(err)
	}
	f.w.check()
	if n := len(f.em.Named(EventExternalChange)); n != 1 {
		t.Errorf("own save should not be reported, got %d events", n)
	}
}

func TestDrawingWatcher_Approvals(t *testing.T) {
	f := newTestWatcher(t)
	w, approvals, em := f.w, f.approvals, f.em
	ctx := context.Background()

	a := &domain.PendingAction{Tool: "clear_layer", Description: "Clear layer-0"}
	if err := approvals.CreateApproval(ctx, a); err != nil {
		t.Fatal(err)
	}

	w.check()
	w.check()
	required := em.Named(mcpserver.EventApprovalRequired)
	if len(required) != 1 {
		t.Fatalf("expected the approval once, got %d", len(required))
	}
	if got := required[0].Data.(domain.PendingAction); got.ID != a.ID || got.Tool != "clear_layer" {
		t.Errorf("unexpected payload %+v", got)
	}

	if err := approvals.ResolveApproval(ctx, a.ID, false); err != nil {
		t.Fatal(err)
	}
	w.check()
	if n := len(em.Named(mcpserver.EventApprovalDismissed)); n != 1 {
		t.Errorf("expected a dismissal after resolution, got %d", n)
	}
}

func TestDrawingWatcher_StopEndsLoop(t *testing.T) {
	f := newTestWatcher(t)
	f.w.interval = time.Millisecond

	for i := 0; i < 50; i++ {
		f.w.Start()
		stopped := make(chan struct{})
		go func() {
			f.w.Stop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Fatalf("Stop did not end the poll loop (round %d)", i)
		}
	}
	f.w.Stop()

	// Nothing polls once stopped.
	a := &domain.PendingAction{Tool: "delete_shapes", Description: "Delete 1 shape(s)"}
	if err := f.approvals.CreateApproval(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if n := len(f.em.Named(mcpserver.EventApprovalRequired)); n != 0 {
		t.Errorf("stopped watcher still polled, got %d events", n)
	}
}
