package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const (
	importTask    = "import"
	watchDebounce = 500 * time.Millisecond
)

// Watcher re-imports a JSON shape list into the active layer whenever the
// file is written.
type Watcher struct {
	svc     *DrawingService
	path    string
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
	running runningGuard
	log     *logrus.Entry

	mu    sync.Mutex
	timer *time.Timer
}

// StartWatcher watches path. The file need not exist yet; its directory must.
func StartWatcher(svc *DrawingService, path string, log *logrus.Entry) (*Watcher, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %q: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory; editors often replace files rather than write them.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch dir of %q: %w", abs, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		svc:    svc,
		path:   abs,
		fsw:    fsw,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log.WithField("file", abs),
	}
	go w.loop(ctx)
	w.log.Info("watching file")
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != w.path {
				continue
			}
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.importFile)
}

func (w *Watcher) importFile() {
	if !w.running.TryLock(importTask) {
		return
	}
	defer w.running.Unlock(importTask)

	f, err := os.Open(w.path)
	if err != nil {
		w.log.WithError(err).Warn("could not open watched file")
		return
	}
	defer f.Close()

	n, err := w.svc.ImportJSON(f)
	if err != nil {
		w.log.WithError(err).Warn("import failed")
		return
	}
	w.log.Infof("imported %d shapes", n)
}

// Stop closes the watcher and waits for an import in flight.
func (w *Watcher) Stop(ctx context.Context) {
	w.cancel()
	w.fsw.Close()
	<-w.done

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.running.WaitAll(ctx)
}
