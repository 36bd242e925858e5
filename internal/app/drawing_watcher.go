package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"drawr/internal/domain"
	mcpserver "drawr/internal/mcp"
	"drawr/internal/service"
)

// EventExternalChange tells the frontend the open drawing was rewritten by
// another process (standalone MCP, HTTP API) and should be reloaded.
const EventExternalChange = "drawing:external-change"

// drawingWatcher polls the store for changes made outside this process:
// newer versions of the open drawing and pending MCP approvals.
type drawingWatcher struct {
	ctx       context.Context
	drawings  *service.DrawingService
	approvals domain.ApprovalStore // nil disables approval polling
	emitter   service.EventEmitter
	log       *logrus.Entry
	interval  time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
	// Emit each approval once; forget ids once they leave the pending list.
	emittedApprovals map[string]bool
	lastSeen         time.Time
}

func newDrawingWatcher(ctx context.Context, drawings *service.DrawingService, approvals domain.ApprovalStore,
	emitter service.EventEmitter, log *logrus.Entry) *drawingWatcher {
	return &drawingWatcher{
		ctx:              ctx,
		drawings:         drawings,
		approvals:        approvals,
		emitter:          emitter,
		log:              log,
		interval:         2 * time.Second,
		emittedApprovals: map[string]bool{},
	}
}

// SetDrawing resets change tracking after the app opens or saves d.
func (w *drawingWatcher) SetDrawing(d *domain.Drawing) {
	if w == nil || d == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = d.UpdatedAt
}

// Start begins the polling loop. Should be called once on app startup.
func (w *drawingWatcher) Start() {
	stop, done := make(chan struct{}), make(chan struct{})
	w.mu.Lock()
	w.stopCh, w.done = stop, done
	w.mu.Unlock()
	go w.pollLoop(stop, done)
}

// Stop terminates the polling loop and waits for it to return.
func (w *drawingWatcher) Stop() {
	w.mu.Lock()
	stop, done := w.stopCh, w.done
	w.stopCh, w.done = nil, nil
	w.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (w *drawingWatcher) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *drawingWatcher) check() {
	w.checkDrawing()
	if w.approvals != nil {
		w.checkApprovals()
	}
}

// ── Open drawing ───────────────────────────────────────────

func (w *drawingWatcher) checkDrawing() {
	cur := w.drawings.Current()
	if cur == nil {
		return
	}
	stored, err := w.drawings.Get(w.ctx, cur.ID)
	if err != nil {
		return
	}

	w.mu.Lock()
	changed := stored.UpdatedAt.After(cur.UpdatedAt) && stored.UpdatedAt.After(w.lastSeen)
	if changed {
		w.lastSeen = stored.UpdatedAt
	}
	w.mu.Unlock()

	if changed {
		w.log.WithField("drawing_id", cur.ID).Info("drawing changed outside the app")
		w.emitter.Emit(w.ctx, EventExternalChange, map[string]string{"drawingId": cur.ID})
	}
}

// ── Pending MCP approvals (cross-process IPC) ──────────────

func (w *drawingWatcher) checkApprovals() {
	pending, err := w.approvals.ListPendingApprovals(w.ctx)
	if err != nil {
		w.log.WithError(err).Debug("list approvals")
		return
	}

	live := make(map[string]bool, len(pending))
	var fresh []domain.PendingAction
	w.mu.Lock()
	for _, a := range pending {
		live[a.ID] = true
		if !w.emittedApprovals[a.ID] {
			w.emittedApprovals[a.ID] = true
			fresh = append(fresh, a)
		}
	}
	for id := range w.emittedApprovals {
		if !live[id] {
			delete(w.emittedApprovals, id)
			w.emitter.Emit(w.ctx, mcpserver.EventApprovalDismissed, map[string]string{"id": id})
		}
	}
	w.mu.Unlock()

	for _, a := range fresh {
		w.emitter.Emit(w.ctx, mcpserver.EventApprovalRequired, a)
	}
}
