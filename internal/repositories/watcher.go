package repositories

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads the cached profile so a process sees session changes made by another one.
//
// Polling at a bounded interval is the baseline; when the database is a file, write events on its
// directory trigger an early re-read. Only changes to the serialized profile are emitted, and a
// nil profile is emitted when the session was cleared elsewhere.
type Watcher struct {
	store    *SessionStore
	interval time.Duration
	dbPath   string
	logger   *log.Logger

	mu   sync.Mutex
	last string
}

// NewWatcher creates a [Watcher]. dbPath may be empty or in-memory, which disables file notifications.
func NewWatcher(store *SessionStore, dbPath string, interval time.Duration, logger *log.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	w := &Watcher{store: store, interval: interval, dbPath: dbPath, logger: logger}
	w.last = w.snapshot(context.Background())
	return w
}

func (w *Watcher) snapshot(ctx context.Context) string {
	p := w.store.GetUser(ctx)
	if p == nil {
		return ""
	}
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}

// Check re-reads the profile and reports whether it differs from the last observed value.
func (w *Watcher) Check(ctx context.Context) (*models.Profile, bool) {
	current := w.snapshot(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if current == w.last {
		return nil, false
	}
	w.last = current
	return w.store.GetUser(ctx), true
}

// Watch emits profile changes until ctx is done. The returned channel is closed on exit.
func (w *Watcher) Watch(ctx context.Context) <-chan *models.Profile {
	out := make(chan *models.Profile, 1)

	go func() {
		defer close(out)

		var events <-chan fsnotify.Event
		var errs <-chan error
		if fw := w.startFileWatch(); fw != nil {
			defer fw.Close()
			events, errs = fw.Events, fw.Errors
		}

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if !w.relevant(ev) {
					continue
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				w.logger.Debug("fsnotify error", "error", err)
				continue
			}

			if p, changed := w.Check(ctx); changed {
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func (w *Watcher) startFileWatch() *fsnotify.Watcher {
	if w.dbPath == "" || strings.HasPrefix(w.dbPath, ":memory:") {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("file notifications unavailable, polling only", "error", err)
		return nil
	}
	if err := fw.Add(filepath.Dir(w.dbPath)); err != nil {
		w.logger.Warn("failed to watch database directory, polling only", "error", err)
		fw.Close()
		return nil
	}
	return fw
}

// relevant reports whether ev touches the database file or its WAL/journal siblings.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	return strings.HasPrefix(filepath.Base(ev.Name), filepath.Base(w.dbPath))
}
