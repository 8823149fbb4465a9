// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/moduleresolution"
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

const (
	// watchDebounce coalesces the burst of events an editor save produces.
	watchDebounce = 150 * time.Millisecond

	// watchMinInterval is the shortest time between two rebuilds.
	watchMinInterval = 500 * time.Millisecond
)

// discardInvalidator is the watcher target when programs do not share a
// cache.
type discardInvalidator struct{}

func (discardInvalidator) Delete(string) {}

// sourceWatcher reports changes to TypeScript and JavaScript sources in
// the directories of a program's files.
type sourceWatcher struct {
	fs      *fsnotify.Watcher
	logger  *slog.Logger
	changed func(name string)

	mu      sync.Mutex
	watched map[string]bool
}

func newSourceWatcher(logger *slog.Logger, changed func(string)) (*sourceWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create source watcher: %w", err)
	}
	return &sourceWatcher{fs: fw, logger: logger, changed: changed, watched: make(map[string]bool)}, nil
}

// watchFiles watches the directory of every file outside node_modules.
func (w *sourceWatcher) watchFiles(fileNames []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, name := range fileNames {
		if tspath.ContainsNodeModules(name) {
			continue
		}
		dir := tspath.GetDirectoryPath(name)
		if w.watched[dir] {
			continue
		}
		if err := w.fs.Add(filepath.FromSlash(dir)); err != nil {
			w.logger.Debug("source directory not watched",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		w.watched[dir] = true
	}
}

func (w *sourceWatcher) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || !options.IsSourceFileName(ev.Name) {
				continue
			}
			w.changed(tspath.NormalizePath(filepath.ToSlash(ev.Name)))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("source watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *sourceWatcher) close() error { return w.fs.Close() }

// watch checks once, then rebuilds whenever a source file or a consulted
// package.json changes, until ctx is cancelled.
//
// Description:
//
//	Changed package.json files are dropped from the shared cache by a
//	moduleresolution.Watcher before the rebuild is triggered, so the
//	rebuild sees the new contents. Events are debounced and rebuilds are
//	rate limited. With --metrics-addr a status server exposes /metrics
//	and the latest diagnostics.
func (c *cli) watch(ctx context.Context, s *checkSession) error {
	trigger := make(chan string, 1)
	notify := func(name string) {
		select {
		case trigger <- name:
		default:
		}
	}

	var invalidator moduleresolution.Invalidator = discardInvalidator{}
	if inv, ok := s.cache.cache.(moduleresolution.Invalidator); ok {
		invalidator = inv
	}
	pkgWatcher, err := moduleresolution.NewWatcher(invalidator, s.logger)
	if err != nil {
		return err
	}
	defer func() { _ = pkgWatcher.Close() }()
	pkgWatcher.OnInvalidate = notify

	srcWatcher, err := newSourceWatcher(s.logger, notify)
	if err != nil {
		return err
	}
	defer func() { _ = srcWatcher.close() }()

	state := &watchState{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pkgWatcher.Run(gctx) })
	g.Go(func() error { return srcWatcher.run(gctx) })
	if checkFlags.metricsAddr != "" && c.telemetry != nil {
		srv := newStatusServer(checkFlags.metricsAddr, c.telemetry, state)
		g.Go(func() error {
			s.logger.Info("status server listening", slog.String("addr", checkFlags.metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	rebuild := func() error {
		result, err := c.check(gctx, s)
		if err != nil {
			if gctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(c.stderr, "tsfront: %v\n", err)
			return nil
		}
		state.update(result)
		pkgWatcher.WatchLocations(result.program.PackageJSONLocations())
		var names []string
		for _, f := range result.program.SourceFiles() {
			names = append(names, f.FileName)
		}
		srcWatcher.watchFiles(names)
		fmt.Fprintf(c.stdout, "\nFound %d %s. Watching for file changes.\n",
			state.errorCount(), plural(state.errorCount(), "error", "errors"))
		return nil
	}

	g.Go(func() error {
		limiter := rate.NewLimiter(rate.Every(watchMinInterval), 1)
		if err := rebuild(); err != nil {
			return err
		}
		timer := time.NewTimer(watchDebounce)
		timer.Stop()
		var pending []string
		for {
			select {
			case <-gctx.Done():
				return nil
			case name := <-trigger:
				pending = append(pending, name)
				timer.Reset(watchDebounce)
			case <-timer.C:
				if err := limiter.Wait(gctx); err != nil {
					return nil
				}
				s.logger.Debug("rebuilding", slog.String("changed", strings.Join(pending, ",")))
				pending = pending[:0]
				fmt.Fprintln(c.stdout, "\nFile change detected. Starting incremental compilation...")
				if err := rebuild(); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

// watchState is the latest build, shared with the status server.
type watchState struct {
	mu     sync.RWMutex
	latest *checkResult
	builds int
}

func (w *watchState) update(r *checkResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.latest = r
	w.builds++
}

func (w *watchState) snapshot() (*checkResult, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest, w.builds
}

func (w *watchState) errorCount() int {
	latest, _ := w.snapshot()
	if latest == nil {
		return 0
	}
	return diagnostics.CountByCategory(latest.diagnostics, diagnostics.CategoryError)
}
