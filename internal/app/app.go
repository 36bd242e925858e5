package app

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"drawr/internal/config"
	"drawr/internal/domain"
	"drawr/internal/logging"
	mcpserver "drawr/internal/mcp"
)

// wailsEmitter forwards service events to the frontend.
type wailsEmitter struct {
	ctx context.Context
}

func (e wailsEmitter) Emit(_ context.Context, event string, data any) {
	wailsRuntime.EventsEmit(e.ctx, event, data)
}

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	log *logrus.Entry
	b   *backend

	watcher  *drawingWatcher
	approval *mcpserver.ApprovalQueue
	mcpHTTP  *server.StreamableHTTPServer
}

// New creates a new App.
func New() *App {
	return &App{}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load()
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)
	a.log = logging.Component(logger, "App")

	emitter := wailsEmitter{ctx: ctx}
	b, err := openBackend(cfg, logger, emitter)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open storage: %v", err)
		return
	}
	a.b = b
	b.drawings.SetContext(ctx)
	if err := b.startJobs(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start background jobs: %v", err)
	}

	// Poll for edits and approval requests from a standalone MCP process.
	a.watcher = newDrawingWatcher(ctx, b.drawings, b.approvals, emitter, logging.Component(logger, "DrawingWatcher"))
	a.watcher.Start()

	if cfg.MCPAddr != "" {
		a.startMCP(cfg, emitter, logger)
	}
}

// startMCP hosts the MCP server over streamable HTTP inside the app, so
// agents share the canvas the user is looking at.
func (a *App) startMCP(cfg *config.Config, emitter wailsEmitter, logger *logrus.Logger) {
	if cfg.MCPApproval {
		a.approval = mcpserver.NewApprovalQueue(emitter, logging.Component(logger, "Approval"))
	}
	srv := mcpserver.New(mcpserver.Deps{
		Drawings: a.b.drawings,
		Approval: a.approval,
		Log:      logging.Component(logger, "MCP"),
	})
	a.mcpHTTP = server.NewStreamableHTTPServer(srv.MCP())
	go func() {
		a.log.WithField("addr", cfg.MCPAddr).Info("mcp listening")
		if err := a.mcpHTTP.Start(cfg.MCPAddr); err != nil {
			a.log.WithError(err).Warn("mcp server stopped")
		}
	}()
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.mcpHTTP != nil {
		a.mcpHTTP.Shutdown(ctx)
	}
	if a.b != nil {
		if err := a.b.close(ctx); err != nil {
			a.log.WithError(err).Error("shutdown")
		}
	}
}

// ============================================================
// MCP approvals
// ============================================================

// ApproveAction lets a pending destructive MCP tool run.
func (a *App) ApproveAction(actionID string) error {
	return a.resolveAction(actionID, true)
}

// RejectAction makes a pending destructive MCP tool fail.
func (a *App) RejectAction(actionID string) error {
	return a.resolveAction(actionID, false)
}

func (a *App) resolveAction(id string, approved bool) error {
	if approved && a.approval.Approve(id) || !approved && a.approval.Reject(id) {
		return nil
	}
	if a.b.approvals == nil {
		return domain.ErrNotFound
	}
	return a.b.approvals.ResolveApproval(a.ctx, id, approved)
}

// ListPendingApprovals returns the requests written by a standalone MCP process.
func (a *App) ListPendingApprovals() ([]domain.PendingAction, error) {
	if a.b.approvals == nil {
		return nil, nil
	}
	return a.b.approvals.ListPendingApprovals(a.ctx)
}
