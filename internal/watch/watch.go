// Package watch rescans component manifests when they change on disk,
// backing the deps scan --watch mode used during development. Filesystem
// events are debounced so an editor save burst triggers one rescan.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the settle window between the last event and a rescan.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a callback when any watched directory changes.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
	onChange func() error
}

// New builds a watcher over the given directories. onChange runs after each
// debounced change burst; its error is logged, not fatal, so a transient
// scan failure does not stop watching.
func New(dirs []string, debounce time.Duration, logger *slog.Logger, onChange func() error) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return &Watcher{fs: fsw, debounce: debounce, logger: logger, onChange: onChange}, nil
}

// Run watches until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var timer *time.Timer
	var timerCh <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("manifest change", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)

		case <-timerCh:
			timer = nil
			timerCh = nil
			if err := w.onChange(); err != nil {
				w.logger.Error("rescan failed", "error", err)
			}
		}
	}
}
