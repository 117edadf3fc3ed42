package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ptyglass/ptyglass/internal/tuilog"
)

// reloadDebounce coalesces the multiple events editors fire per save.
const reloadDebounce = 500 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	mu      sync.Mutex
	timer   *time.Timer
}

// Watch starts watching path and invokes onChange with the freshly
// loaded config after each change. The callback runs on the watcher
// goroutine; receivers marshal onto their own loop.
func Watch(ctx context.Context, path string, onChange func(Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files on save,
	// which drops a file-level watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.loop(ctx, onChange)
	tuilog.Log.Info("watching config", "path", path)
	return w, nil
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context, onChange func(Config)) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload(ctx, onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			tuilog.Log.Error("config watcher error", "error", err)

		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// scheduleReload resets the debounce timer for the file.
func (w *Watcher) scheduleReload(ctx context.Context, onChange func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, func() {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		default:
		}
		cfg, err := LoadFrom(w.path)
		if err != nil {
			tuilog.Log.Warn("config reload failed", "error", err)
			return
		}
		tuilog.Log.Info("config reloaded", "path", w.path)
		onChange(cfg)
	})
}
