package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/doxbuilder/internal/metrics"
)

// SourceWatcher monitors the documentation source tree and triggers a build
// when files change. Bursts of events within the debounce window coalesce
// into a single trigger.
type SourceWatcher struct {
	sourceDir string
	ignore    []string // absolute path prefixes never watched (output dir)
	debounce  time.Duration
	trigger   func(reason string)
	recorder  metrics.Recorder

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
}

// NewSourceWatcher creates a watcher over sourceDir. Paths under any ignore
// directory (and .git) are excluded so generated output never retriggers a
// build.
func NewSourceWatcher(sourceDir string, ignore []string, debounce time.Duration, trigger func(reason string), recorder metrics.Recorder) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}

	absIgnore := make([]string, 0, len(ignore))
	for _, dir := range ignore {
		if abs, aerr := filepath.Abs(dir); aerr == nil {
			absIgnore = append(absIgnore, abs)
		}
	}

	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	return &SourceWatcher{
		sourceDir: absSource,
		ignore:    absIgnore,
		debounce:  debounce,
		trigger:   trigger,
		recorder:  recorder,
		watcher:   watcher,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins watching.
func (w *SourceWatcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.sourceDir); err != nil {
		return fmt.Errorf("failed to watch source tree %s: %w", w.sourceDir, err)
	}

	slog.Info("Starting source watcher", "path", w.sourceDir, "debounce", w.debounce)
	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher.
func (w *SourceWatcher) Stop(ctx context.Context) error {
	close(w.stopChan)
	return w.watcher.Close()
}

func (w *SourceWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *SourceWatcher) ignored(path string) bool {
	if base := filepath.Base(path); base == ".git" {
		return true
	}
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func (w *SourceWatcher) watchLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}
			w.recorder.IncWatchEvent()
			slog.Debug("Source change detected", "path", event.Name, "op", event.Op.String())

			// New directories must be registered to keep the watch recursive.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		case <-timerC:
			timer = nil
			timerC = nil
			w.trigger("source change")
		}
	}
}
