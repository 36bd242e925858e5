package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"drawr/internal/config"
	"drawr/internal/domain"
	"drawr/internal/logging"
	"drawr/internal/service"
	"drawr/internal/storage"
	"drawr/internal/storage/mongostore"
)

// backend is everything a host needs: the stores picked by the config, the
// drawing service and its optional background jobs.
type backend struct {
	cfg    *config.Config
	logger *logrus.Logger
	log    *logrus.Entry

	db    *storage.DB       // nil with the mongodb driver
	mongo *mongostore.Store // nil with SQL drivers

	drawings  *service.DrawingService
	approvals domain.ApprovalStore // nil with the mongodb driver

	autosave *service.Autosave
	watcher  *service.Watcher
}

// openBackend opens the configured store and builds the drawing service.
// Background jobs are started separately with startJobs.
func openBackend(cfg *config.Config, logger *logrus.Logger, emitter service.EventEmitter) (*backend, error) {
	b := &backend{cfg: cfg, logger: logger, log: logging.Component(logger, "App")}
	storeLog := logging.Component(logger, "Storage")

	var drawings domain.DrawingStore
	var snaps domain.SnapshotStore
	switch cfg.DBDriver {
	case config.DriverMongo:
		m, err := mongostore.Connect(cfg.DBDSN, cfg.MongoDB, storeLog)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		b.mongo = m
		drawings = m
	case config.DriverSQLite:
		db, err := storage.New(cfg.SQLitePath(), storeLog)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		b.db = db
	default:
		db, err := storage.Open(cfg.DBDriver, cfg.DBDSN, storeLog)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		b.db = db
	}
	if b.db != nil {
		drawings = storage.NewDrawingStore(b.db)
		snaps = storage.NewSnapshotStore(b.db, storage.DefaultMaxSnapshots)
		b.approvals = storage.NewApprovalStore(b.db)
	}

	opts := cfg.EditorOptions()
	opts.Logger = logger
	svc, err := service.NewDrawingService(opts, drawings, snaps, emitter, logging.Component(logger, "DrawingService"))
	if err != nil {
		b.closeStores(context.Background())
		return nil, err
	}
	b.drawings = svc
	b.log.WithField("driver", cfg.DBDriver).Info("backend ready")
	return b, nil
}

// startJobs starts autosave and the import watcher when they are configured.
func (b *backend) startJobs(ctx context.Context) error {
	if b.cfg.Autosave != "" {
		a, err := service.StartAutosave(ctx, b.drawings, b.cfg.Autosave, logging.Component(b.logger, "Autosave"))
		if err != nil {
			return err
		}
		b.autosave = a
	}
	if b.cfg.WatchFile != "" {
		w, err := service.StartWatcher(b.drawings, b.cfg.WatchFile, logging.Component(b.logger, "Watcher"))
		if err != nil {
			return err
		}
		b.watcher = w
	}
	return nil
}

// close stops the jobs, saves pending edits and closes the stores.
func (b *backend) close(ctx context.Context) error {
	if b.autosave != nil {
		b.autosave.Stop(ctx)
	}
	if b.watcher != nil {
		b.watcher.Stop(ctx)
	}

	var errs []error
	if b.drawings.Current() != nil {
		if _, err := b.drawings.SaveIfDirty(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final save: %w", err))
		}
	}
	b.drawings.Close()
	if err := b.closeStores(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *backend) closeStores(ctx context.Context) error {
	if b.mongo != nil {
		return b.mongo.Close(ctx)
	}
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
