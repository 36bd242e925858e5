package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"drawr/internal/config"
	"drawr/internal/httpapi"
	"drawr/internal/logging"
	"drawr/internal/service"
)

// ServeHTTP runs the REST API for stored drawings until interrupted.
func ServeHTTP() error {
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

	return httpapi.NewServer(cfg.HTTPAddr, b.drawings, logging.Component(logger, "HTTP")).ListenAndServe(ctx)
}
