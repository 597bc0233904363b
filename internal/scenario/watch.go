package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the burst of events editors produce on save.
const debounce = 100 * time.Millisecond

// Watcher reloads a scenario file whenever it changes.
type Watcher struct {
	path   string
	logger *slog.Logger
}

// NewWatcher creates a watcher for the scenario at path.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, logger: logger.With("scenario", path)}
}

// Update is a reload result: either a parsed scenario or the reason it
// could not be loaded.
type Update struct {
	Scenario *Scenario
	Err      error
}

// Watch emits the scenario immediately and again after every write. The
// parent directory is watched so that editors which save by renaming a
// temporary file are still seen. The channel closes when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan Update, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	abs, err := filepath.Abs(w.path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan Update)

	go func() {
		defer close(out)
		defer watcher.Close()

		send := func() bool {
			s, err := Load(w.path)
			select {
			case out <- Update{Scenario: s, Err: err}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}

		var timer <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer = time.After(debounce)

			case <-timer:
				timer = nil
				w.logger.Debug("scenario changed")
				if !send() {
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "error", err)
			}
		}
	}()

	return out, nil
}
