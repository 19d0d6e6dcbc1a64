package watcher

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/shared/observability"
)

// Watcher reacts to external writes to the database file. SQLite in WAL
// mode touches sidecar files next to the database, so the whole file
// family is matched and collapsed into one reload per debounce window.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	patterns  []glob.Glob
	onReload  func()
	logger    *slog.Logger

	mu      sync.Mutex
	pending bool
	timer   *time.Timer

	closeOnce sync.Once
	done      chan struct{}
}

// New builds a watcher for dbPath. onReload fires once per burst of
// changes, after the debounce window closes.
func New(dbPath string, debounce time.Duration, logger *slog.Logger, onReload func()) (*Watcher, error) {
	if dbPath == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "watcher requires a database file path")
	}
	if onReload == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "watcher requires a reload callback")
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create filesystem watcher")
	}

	base := filepath.Base(dbPath)
	patterns := make([]glob.Glob, 0, 2)
	for _, pattern := range []string{base, base + "-*"} {
		g, err := glob.Compile(pattern)
		if err != nil {
			_ = fsw.Close()
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to compile watch pattern")
		}
		patterns = append(patterns, g)
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		patterns:  patterns,
		onReload:  onReload,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

// Watch begins observing the database directory and dispatching reload
// callbacks in the background.
func (w *Watcher) Watch(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to watch database directory")
	}
	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			observability.WatcherEventsTotal.Inc()
			w.schedule()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.patterns {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	w.logger.Debug("database changed on disk, reloading")
	w.onReload()
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.fsWatcher.Close()
	})
	return err
}
