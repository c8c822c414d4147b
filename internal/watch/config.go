package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/codanna-go/internal/broadcast"
	"github.com/standardbeagle/codanna-go/internal/config"
	"github.com/standardbeagle/codanna-go/internal/errs"
	"github.com/standardbeagle/codanna-go/internal/indexer"
)

// settleDelay is how long the config watcher waits after seeing a
// modify/create event on the config file before reading it, so it
// doesn't read a half-written file (spec.md §4.J: "wait ~100ms for
// the write to settle").
const settleDelay = 100 * time.Millisecond

// ConfigWatcher watches the parent directory of the settings file and
// reacts only to modify/create events on that exact path, diffing
// indexing.indexed_paths against the last-known set (spec.md §4.J).
type ConfigWatcher struct {
	path    string
	root    string
	indexer *indexer.Indexer
	notify  *broadcast.Broadcaster
	log     *slog.Logger

	fs   *fsnotify.Watcher
	last map[string]bool
}

// NewConfigWatcher builds a ConfigWatcher for the settings file at
// path, seeded with cfg's current indexed_paths as the last-known set.
func NewConfigWatcher(path, workspaceRoot string, cfg *config.Config, ix *indexer.Indexer, notify *broadcast.Broadcaster, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.NewWatchError(path, err)
	}
	dir := filepath.Dir(path)
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, errs.NewWatchError(dir, err)
	}
	return &ConfigWatcher{
		path: path, root: workspaceRoot, indexer: ix, notify: notify, log: logger,
		fs: fs, last: toSet(cfg.Indexing.IndexedPaths),
	}, nil
}

func toSet(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}

// Run drives the config file's watch loop until ctx is cancelled.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.isOurFile(ev) {
				continue
			}
			w.onConfigChanged(ctx)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

func (w *ConfigWatcher) isOurFile(ev fsnotify.Event) bool {
	if ev.Name != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (w *ConfigWatcher) onConfigChanged(ctx context.Context) {
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		return
	}

	cfg, err := config.Load(w.path, w.root)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous settings", "path", w.path, "error", err)
		return
	}

	next := toSet(cfg.Indexing.IndexedPaths)
	var added, removed []string
	for p := range next {
		if !w.last[p] {
			added = append(added, p)
		}
	}
	for p := range w.last {
		if !next[p] {
			removed = append(removed, p)
		}
	}
	w.last = next

	for _, p := range removed {
		// Cleanup happens on the next explicit command, not here
		// (spec.md §4.J): the config watcher only logs the removal.
		w.log.Info("path removed from indexing.indexed_paths, run a reindex command to clean up", "path", p)
	}
	for _, p := range added {
		w.indexAddedPath(ctx, p)
	}

	if w.notify != nil {
		w.notify.Publish(broadcast.Event{Kind: broadcast.IndexReloaded})
	}
}

func (w *ConfigWatcher) indexAddedPath(ctx context.Context, relRoot string) {
	walker := indexer.NewWalker(filepath.Join(w.root, relRoot), w.indexer.ParserExtensions(), nil)
	err := walker.Walk(func(rel string) error {
		joined := filepath.ToSlash(filepath.Join(relRoot, rel))
		if _, err := w.indexer.IndexFile(ctx, w.root, joined); err != nil {
			w.log.Warn("index added path failed for file", "path", joined, "error", err)
		}
		return nil
	})
	if err != nil {
		w.log.Warn("index added path failed", "path", relRoot, "error", err)
	}
}

// Close releases the underlying fsnotify watcher.
func (w *ConfigWatcher) Close() error {
	return w.fs.Close()
}
