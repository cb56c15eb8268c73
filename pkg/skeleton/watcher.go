package skeleton

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/teslashibe/liftviz/internal/log"
	"github.com/teslashibe/liftviz/pkg/metrics"
)

// Watcher reloads custom skeleton files into a Registry when they change on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	registry *Registry
	dir      string
	logger   *slog.Logger

	mu       sync.Mutex
	onReload func(lift string)
	done     chan struct{}
	closed   bool
}

// NewWatcher starts watching dir for *.yaml / *.yml changes.
func NewWatcher(registry *Registry, dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create skeleton watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		watcher:  fw,
		registry: registry,
		dir:      dir,
		logger:   log.With("component", "skeleton-watcher", "dir", dir),
		done:     make(chan struct{}),
	}

	go w.watchLoop()

	return w, nil
}

// OnReload sets a callback invoked after a lift has been reloaded.
func (w *Watcher) OnReload(cb func(lift string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = cb
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isDefinitionFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) reload(path string) {
	def, err := LoadFromFile(path)
	if err != nil {
		// Editors often write partial files; the next write event retries.
		w.logger.Warn("skeleton reload failed", "file", path, "error", err)
		return
	}

	w.registry.Register(def)
	metrics.SkeletonReloads.Inc()
	w.logger.Info("skeleton reloaded", "lift", def.Name, "file", filepath.Base(path))

	w.mu.Lock()
	cb := w.onReload
	w.mu.Unlock()
	if cb != nil {
		cb(def.Name)
	}
}

// Close stops watching and waits for the watch loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	return err
}

func isDefinitionFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
