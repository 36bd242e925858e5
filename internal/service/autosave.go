package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const autosaveTask = "autosave"

// Autosave periodically saves the open drawing when it has unsaved changes.
type Autosave struct {
	svc     *DrawingService
	sched   *cron.Cron
	running runningGuard
	log     *logrus.Entry
}

// StartAutosave schedules saves on a cron spec ("@every 30s", "*/5 * * * *").
func StartAutosave(ctx context.Context, svc *DrawingService, spec string, log *logrus.Entry) (*Autosave, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	a := &Autosave{svc: svc, sched: cron.New(), log: log}
	if _, err := a.sched.AddFunc(spec, func() { a.run(ctx) }); err != nil {
		return nil, fmt.Errorf("autosave: invalid schedule %q: %w", spec, err)
	}
	a.sched.Start()
	log.WithField("schedule", spec).Info("autosave scheduled")
	return a, nil
}

func (a *Autosave) run(ctx context.Context) {
	if !a.running.TryLock(autosaveTask) {
		return
	}
	defer a.running.Unlock(autosaveTask)

	saved, err := a.svc.SaveIfDirty(ctx)
	if err != nil {
		a.log.WithError(err).Error("autosave failed")
		return
	}
	if saved {
		a.log.Debug("autosaved")
	}
}

// Stop halts the schedule and waits for a save in flight.
func (a *Autosave) Stop(ctx context.Context) {
	<-a.sched.Stop().Done()
	a.running.WaitAll(ctx)
}
