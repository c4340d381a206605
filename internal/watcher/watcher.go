// Package watcher turns file system changes under the project root into
// debounced reload notifications.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/fsnotify/fsnotify"

	"github.com/mtlprog/slidekit/internal/metrics"
)

// DefaultPatterns are the sources whose changes reload the browser.
var DefaultPatterns = []string{
	"index.html",
	"css/**/*.css",
	"js/**/*.js",
	"images/**/*",
}

// DefaultDebounce batches editor save bursts into one reload.
const DefaultDebounce = 100 * time.Millisecond

// ignoredNames are directory names never watched at any depth.
var ignoredNames = map[string]struct{}{
	".git":         {},
	"node_modules": {},
}

// Notify receives the slash-separated relative path of the last change in a burst.
type Notify func(path string)

// Watcher watches the project tree recursively.
type Watcher struct {
	root     string
	patterns []string
	debounce time.Duration
	notify   Notify
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	ignored  map[string]struct{}
}

// New creates a Watcher and registers every directory under root. Watches are
// in place when New returns; events are delivered once Run is called.
// Ignore lists directories (absolute or relative to root, typically the
// output directory) that are never watched.
func New(root string, patterns []string, debounce time.Duration, notify Notify, logger *slog.Logger, ignore ...string) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		patterns: patterns,
		debounce: debounce,
		notify:   notify,
		logger:   logger,
		fsw:      fsw,
		ignored:  make(map[string]struct{}, len(ignore)),
	}
	for _, dir := range ignore {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		if abs, err := filepath.Abs(dir); err == nil {
			w.ignored[abs] = struct{}{}
		}
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Match reports whether a slash-separated relative path triggers a reload.
func (w *Watcher) Match(rel string) bool {
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Run delivers notifications until ctx is cancelled, then releases the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.logger.Info("watching files for changes", "root", w.root, "patterns", w.patterns)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending string

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, matched := w.handle(event)
			if !matched {
				continue
			}
			pending = rel
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timer.C:
			w.logger.Info("file change detected, reloading browser", "path", pending)
			w.notify(pending)
			pending = ""
		}
	}
}

// handle registers new directories and reports whether event matches a pattern.
func (w *Watcher) handle(event fsnotify.Event) (string, bool) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return "", false
	}

	if w.skipped(event.Name) {
		return "", false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if !w.Match(rel) {
		w.logger.Debug("ignoring change", "path", rel, "op", event.Op.String())
		return "", false
	}

	metrics.RecordWatchEvent(opName(event.Op))
	return rel, true
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipped(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// skipped reports whether path is, or lies under, an ignored directory.
func (w *Watcher) skipped(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	current := w.root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "." || part == "" {
			continue
		}
		if _, ok := ignoredNames[part]; ok {
			return true
		}
		current = filepath.Join(current, part)
		if len(w.ignored) == 0 {
			continue
		}
		if abs, err := filepath.Abs(current); err == nil {
			if _, ok := w.ignored[abs]; ok {
				return true
			}
		}
	}
	return false
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "modify"
	case op.Has(fsnotify.Remove):
		return "delete"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "other"
	}
}
