// Package watch reports changes to a fixed set of files.
//
// The parent directory of every file is watched rather than the file
// itself, so editors that save by writing a new file and renaming it over
// the old one are still noticed. Bursts of events are collapsed into one
// callback after a quiet period.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultInterval is the quiet period used when none is given.
const DefaultInterval = 150 * time.Millisecond

// Watcher watches files for content changes.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *zap.Logger
	files    map[string]struct{}
	interval time.Duration
}

// New creates a watcher for paths. Empty paths are ignored.
func New(paths []string, interval time.Duration, logger *zap.Logger) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fs:       fw,
		logger:   logger,
		files:    make(map[string]struct{}),
		interval: interval,
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %q: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %q: %w", dir, err)
		}
	}
	return w, nil
}

// Files returns the absolute paths being watched.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

// Run blocks until ctx is done, calling onChange with the last changed
// file once events have been quiet for the watcher's interval. onChange
// runs on the calling goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	timer := time.NewTimer(w.interval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var pending string
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("file event", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			pending = ev.Name
			timer.Reset(w.interval)

		case <-timer.C:
			if pending != "" {
				w.logger.Info("file changed", zap.String("path", pending))
				onChange(pending)
				pending = ""
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
