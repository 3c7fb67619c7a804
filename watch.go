package arbor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for events to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watch keeps the index of root current until ctx is cancelled. Changed or
// created files are reindexed and removed files are dropped from the index,
// in batches once events have been quiet for debounce. onBatch, when not
// nil, is called after every batch with the paths handled and the batch's
// error; indexing errors do not stop the watch.
func (e *Engine) Watch(ctx context.Context, root string, debounce time.Duration, onBatch func(paths []string, err error)) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("arbor: watch: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("arbor: watch: %w", err)
	}
	defer w.Close()

	if err := e.addWatches(w, root); err != nil {
		return err
	}
	e.logger.Info("watching", "root", root)

	pending := make(map[string]bool)
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if paths := e.handleEvent(w, root, event); len(paths) > 0 {
				for _, p := range paths {
					pending[p] = true
				}
				fire = time.After(debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watch error", "err", err)

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)
			err := e.reindex(ctx, paths)
			if err != nil {
				e.logger.Warn("reindex failed", "files", len(paths), "err", err)
			}
			if onBatch != nil {
				onBatch(paths, err)
			}
		}
	}
}

// addWatches watches root and every directory under it that the fallback
// walk would descend into.
func (e *Engine) addWatches(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || skipDirs[d.Name()]) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("arbor: watch %s: %w", path, err)
		}
		return nil
	})
}

// handleEvent returns the paths event makes stale: the file itself when the
// Engine indexes it, or every indexed file under a directory that was
// removed or renamed away. New directories are watched as they appear.
func (e *Engine) handleEvent(w *fsnotify.Watcher, root string, event fsnotify.Event) []string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return nil
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := e.addWatches(w, event.Name); err != nil {
				e.logger.Warn("watch new directory", "path", event.Name, "err", err)
			}
		}
		return nil
	}
	if _, ok := e.language(event.Name); !ok {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			return e.indexedUnder(event.Name)
		}
		return nil
	}
	return e.filterExcluded(root, []string{event.Name})
}

// indexedUnder lists the indexed files below dir.
func (e *Engine) indexedUnder(dir string) []string {
	files, err := e.store.FilesUnder(dir)
	if err != nil {
		e.logger.Warn("list indexed files", "dir", dir, "err", err)
		return nil
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// reindex indexes the paths that still exist and drops the rest.
func (e *Engine) reindex(ctx context.Context, paths []string) error {
	var present []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
			continue
		}
		f, err := e.store.FileByPath(p)
		if err != nil {
			return err
		}
		if f != nil {
			if err := e.store.DeleteFile(f.ID); err != nil {
				return err
			}
		}
	}
	if len(present) == 0 {
		return nil
	}
	return e.IndexFiles(ctx, present)
}
