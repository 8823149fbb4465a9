// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package moduleresolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// Watcher drops cached package.json entries when the files change on disk.
//
// Description:
//
//	Watch registers directories; any create, write, remove or rename of
//	a package.json directly inside one of them deletes that path from the
//	cache, so the next lookup probes the file system again. OnInvalidate,
//	when set, is called after each deletion.
//
// Thread Safety: Watch and Close are safe for concurrent use. Run must be
// called once.
type Watcher struct {
	fs     *fsnotify.Watcher
	cache  Invalidator
	logger *slog.Logger

	// OnInvalidate is called with the package.json path after its entry
	// was removed. Set before Run.
	OnInvalidate func(packageJSONPath string)

	mu      sync.Mutex
	watched map[string]struct{}
}

// NewWatcher creates a watcher that invalidates entries of cache.
func NewWatcher(cache Invalidator, logger *slog.Logger) (*Watcher, error) {
	if cache == nil {
		return nil, errors.New("watcher: cache must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		fs:      fw,
		cache:   cache,
		logger:  logger,
		watched: make(map[string]struct{}),
	}, nil
}

// Watch adds dir to the watched set. Watching a directory twice is a
// no-op.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[dir]; ok {
		return nil
	}
	if err := w.fs.Add(filepath.FromSlash(dir)); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watched[dir] = struct{}{}
	return nil
}

// WatchLocations watches the directories of the given package.json paths,
// skipping directories that do not exist.
func (w *Watcher) WatchLocations(packageJSONPaths []string) {
	for _, p := range packageJSONPaths {
		dir := tspath.GetDirectoryPath(p)
		if err := w.Watch(dir); err != nil {
			w.logger.Debug("package.json directory not watched",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
		}
	}
}

// Run processes events until ctx is cancelled or the watcher is closed.
// It returns nil in both cases.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	w.handleName(ev.Name)
}

// handleName drops the cache entry for name if it is a package.json.
func (w *Watcher) handleName(name string) {
	if filepath.Base(name) != "package.json" {
		return
	}
	path := tspath.NormalizePath(filepath.ToSlash(name))
	w.cache.Delete(path)
	watcherInvalidationsTotal.Inc()
	w.logger.Debug("package.json changed, cache entry dropped", slog.String("path", path))
	if w.OnInvalidate != nil {
		w.OnInvalidate(path)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
