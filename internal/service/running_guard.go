package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard is an exported alias so _test packages can test the guard.
type ExportedRunningGuard = runningGuard

// ─────────────────────────────────────────────────────────────
// runningGuard: prevents overlapping background tasks
// ─────────────────────────────────────────────────────────────

// runningGuard ensures only one instance of a named task (autosave, file
// import) runs at a time, and lets shutdown wait for the ones in flight.
type runningGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks task as running. It returns false if it already is.
func (g *runningGuard) TryLock(task string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[task]; ok {
		return false
	}
	g.running[task] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock marks task as finished. Must follow a successful TryLock.
func (g *runningGuard) Unlock(task string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, task)
	g.wg.Done()
}

// WaitAll blocks until every running task completes or ctx is cancelled.
func (g *runningGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
