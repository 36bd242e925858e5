package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"drawr/internal/config"
	"drawr/internal/logging"
	mcpserver "drawr/internal/mcp"
	"drawr/internal/service"
)

// ServeMCP runs drawr as a standalone MCP server on stdin/stdout with no GUI.
// Logs go to stderr since stdout carries the protocol.
func ServeMCP() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	b, err := openBackend(cfg, logger, service.NopEmitter{})
	if err != nil {
		return err
	}
	defer b.close(context.Background())
	b.drawings.SetContext(ctx)
	if err := b.startJobs(ctx); err != nil {
		return err
	}

	// Destructive tools wait for the desktop app, which polls the shared table.
	var approval *mcpserver.ApprovalQueue
	if cfg.MCPApproval && b.approvals != nil {
		approval = mcpserver.NewStoreApprovalQueue(b.approvals, logging.Component(logger, "Approval"))
	}

	srv := mcpserver.New(mcpserver.Deps{
		Drawings: b.drawings,
		Approval: approval,
		Log:      logging.Component(logger, "MCP"),
	})
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
