// Package watch implements the two watchers of spec.md §4.J:
// SourceWatcher ("watch only what you indexed") and ConfigWatcher,
// both built on github.com/fsnotify/fsnotify, following the debounce
// and dispatch shape of the teacher's internal/indexing/watcher.go
// but re-scoped to watch the minimal set of already-indexed parent
// directories non-recursively instead of the teacher's full recursive
// source-tree walk.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/codanna-go/internal/broadcast"
	"github.com/standardbeagle/codanna-go/internal/errs"
	"github.com/standardbeagle/codanna-go/internal/indexer"
	"github.com/standardbeagle/codanna-go/internal/semantic"
	"github.com/standardbeagle/codanna-go/internal/store"
)

// TickInterval bounds how often the debounce timer is checked, per
// spec.md §4.J's "periodic tick (<=100ms)".
const TickInterval = 100 * time.Millisecond

// pathState is one watched path's debounce state machine: Idle ->
// Modify -> Pending(last=now) -> Modify -> Pending(last=now) ->
// tick(elapsed>=debounce) -> reindex -> Idle.
type pathState struct {
	pending bool
	last    time.Time
}

// SourceWatcher watches only the parent directories of files the
// store has already indexed, debounces per-path modify events, and
// reindexes or removes on settle. Created files are ignored: nothing
// is auto-indexed that wasn't indexed at least once already (spec.md
// §4.J).
type SourceWatcher struct {
	root      string
	indexPath string
	indexer   *indexer.Indexer
	store     *store.Store
	semantic  *semantic.Store // optional; Save is best-effort after a successful reindex
	notify    *broadcast.Broadcaster
	debounce  time.Duration
	log       *slog.Logger

	fs *fsnotify.Watcher

	mu      sync.Mutex
	dirs    map[string]bool
	pending map[string]*pathState
}

// New builds a SourceWatcher. debounceMs <= 0 uses 500ms, matching
// config.Default's file_watch.debounce_ms.
func New(root, indexPath string, ix *indexer.Indexer, st *store.Store, sem *semantic.Store, notify *broadcast.Broadcaster, debounceMs int, logger *slog.Logger) (*SourceWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounceMs <= 0 {
		debounceMs = 500
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.NewWatchError(root, err)
	}
	return &SourceWatcher{
		root: root, indexPath: indexPath, indexer: ix, store: st, semantic: sem, notify: notify,
		debounce: time.Duration(debounceMs) * time.Millisecond, log: logger,
		fs: fs, dirs: make(map[string]bool), pending: make(map[string]*pathState),
	}, nil
}

// Start computes the minimal parent-directory set of every indexed
// path and registers a non-recursive watch on each (spec.md §4.J: "on
// start, query the store for all indexed paths").
func (w *SourceWatcher) Start(ctx context.Context) error {
	paths, err := w.store.IndexedPaths(ctx)
	if err != nil {
		return errs.NewWatchError(w.root, err)
	}
	w.addWatchesFor(paths)
	return nil
}

// parentDirs computes the set of distinct parent directories (as
// absolute filesystem paths) for a list of workspace-relative paths.
func (w *SourceWatcher) parentDirs(relPaths []string) map[string]bool {
	out := make(map[string]bool)
	for _, rel := range relPaths {
		dir := filepath.Dir(filepath.FromSlash(rel))
		out[filepath.Join(w.root, dir)] = true
	}
	return out
}

// addWatchesFor adds a watch for every new parent directory of
// relPaths. A per-directory failure is logged and skipped; the
// watcher continues for every other directory (spec.md §7's watcher
// error policy).
func (w *SourceWatcher) addWatchesFor(relPaths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for dir := range w.parentDirs(relPaths) {
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			w.log.Warn("watch setup failed, skipping directory", "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
	}
}

// removeStaleDirs drops the watch on any directory no longer among
// keepRelPaths's parents, used after an IndexReloaded that removed
// indexed paths.
func (w *SourceWatcher) removeStaleDirs(keepRelPaths []string) {
	keep := w.parentDirs(keepRelPaths)
	w.mu.Lock()
	defer w.mu.Unlock()
	for dir := range w.dirs {
		if keep[dir] {
			continue
		}
		_ = w.fs.Remove(dir)
		delete(w.dirs, dir)
	}
}

// Run drives the fsnotify event loop, the debounce ticker, and the
// IndexReloaded subscription until ctx is cancelled (spec.md §5's
// process-wide cancellation token: the current in-flight operation
// finishes, then Run returns).
func (w *SourceWatcher) Run(ctx context.Context) error {
	var sub *broadcast.Subscription
	if w.notify != nil {
		sub = w.notify.Subscribe()
		defer w.notify.Unsubscribe(sub)
	}

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("source watcher error", "error", err)
		case <-ticker.C:
			w.tick(ctx)
		case ev := <-subChan(sub):
			if ev.Kind == broadcast.IndexReloaded {
				w.onIndexReloaded(ctx)
			}
		}
	}
}

// subChan returns sub's channel, or a nil channel (which blocks
// forever in a select) when sub is nil, so Run's select works whether
// or not a broadcaster was supplied.
func subChan(sub *broadcast.Subscription) <-chan broadcast.Event {
	if sub == nil {
		return nil
	}
	return sub.C
}

func (w *SourceWatcher) onIndexReloaded(ctx context.Context) {
	paths, err := w.store.IndexedPaths(ctx)
	if err != nil {
		w.log.Warn("source watcher: re-query indexed paths failed", "error", err)
		return
	}
	w.addWatchesFor(paths)
	w.removeStaleDirs(paths)
}

// relPath converts an fsnotify absolute event path back into a
// workspace-relative, slash-separated path. Returns ok=false for
// paths outside the watched root.
func (w *SourceWatcher) relPath(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	if rel == "." || filepath.IsAbs(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *SourceWatcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	rel, ok := w.relPath(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		w.mu.Lock()
		delete(w.pending, rel)
		w.mu.Unlock()
		if err := w.indexer.RemoveFile(ctx, rel); err != nil {
			w.log.Warn("remove on watch event failed", "path", rel, "error", err)
			return
		}
		w.log.Info("file removed", "path", rel)

	case ev.Op&fsnotify.Write != 0:
		// Only a previously-indexed path is tracked at all; an
		// untracked write is either a Created file (ignored per
		// spec.md §4.J) or a path this watcher never learned about.
		if _, found, err := w.store.FileInfoByPath(ctx, rel); err != nil || !found {
			return
		}
		w.markPending(rel)

	default:
		// Create and other ops are ignored: created files are never
		// auto-indexed (spec.md §4.J).
	}
}

func (w *SourceWatcher) markPending(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, ok := w.pending[rel]
	if !ok {
		st = &pathState{}
		w.pending[rel] = st
	}
	st.pending = true
	st.last = time.Now()
}

// tick walks every pending path and reindexes those whose quiet
// interval has exceeded the debounce window.
func (w *SourceWatcher) tick(ctx context.Context) {
	var due []string
	w.mu.Lock()
	now := time.Now()
	for path, st := range w.pending {
		if st.pending && now.Sub(st.last) >= w.debounce {
			due = append(due, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, rel := range due {
		if _, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(rel))); os.IsNotExist(err) {
			continue // removed between the write event and the tick; the Remove event handles it
		}
		res, err := w.indexer.IndexFile(ctx, w.root, rel)
		if err != nil {
			w.log.Warn("reindex on watch event failed", "path", rel, "error", err)
			continue
		}
		if res.Cached {
			continue
		}
		if w.semantic != nil {
			if err := w.semantic.Save(w.indexPath); err != nil {
				w.log.Warn("semantic save after watch reindex failed", "error", err)
			}
		}
		w.log.Info("file reindexed", "path", rel, "symbols", res.Symbols)
	}
	// Note: the indexer's own broadcast.Publish(FileReindexed) inside
	// IndexFile already covers the notification spec.md §4.J asks for
	// here; this watcher doesn't publish a second time.
}

// Close releases the underlying fsnotify watcher.
func (w *SourceWatcher) Close() error {
	return w.fs.Close()
}
