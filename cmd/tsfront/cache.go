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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsfront/services/tsc/moduleresolution"
	"github.com/AleutianAI/tsfront/services/tsc/options"
)

// cacheHandle is an opened package.json cache and how to release it.
type cacheHandle struct {
	cache moduleresolution.Cache
	close func() error
}

// openCache opens the cache selected by mode. Badger directories are
// relative to projectRoot. Mode none returns a nil cache, which gives every
// program a private memory cache.
func openCache(mode, dir, projectRoot string, readOnly bool) (*cacheHandle, error) {
	switch mode {
	case "", options.CacheModeMemory:
		return &cacheHandle{cache: moduleresolution.NewMemoryCache(), close: func() error { return nil }}, nil
	case options.CacheModeNone:
		return &cacheHandle{close: func() error { return nil }}, nil
	case options.CacheModeBadger:
		bc, db, err := openBadgerCache(dir, projectRoot, readOnly)
		if err != nil {
			return nil, err
		}
		return &cacheHandle{cache: bc, close: db.Close}, nil
	}
	return nil, fmt.Errorf("unknown cache mode %q", mode)
}

func cacheDirectory(dir, projectRoot string) string {
	if dir == "" {
		dir = options.DefaultCacheDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}
	return dir
}

func openBadgerCache(dir, projectRoot string, readOnly bool) (*moduleresolution.BadgerCache, *badger.DB, error) {
	path := cacheDirectory(dir, projectRoot)
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithReadOnly(readOnly)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache at %s: %w", path, err)
	}
	var cacheOpts []moduleresolution.BadgerCacheOption
	if readOnly {
		cacheOpts = append(cacheOpts, moduleresolution.WithBadgerReadonly())
	}
	bc, err := moduleresolution.NewBadgerCache(db, slog.Default(), cacheOpts...)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return bc, db, nil
}

var cacheDirFlag string

func newCacheCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the persistent package.json cache",
	}
	cmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "badger cache directory (default "+options.DefaultCacheDir+" in the project)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached package.json entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := filepath.Abs(projectDir)
			if err != nil {
				return err
			}
			bc, db, err := openBadgerCache(cacheDirFlag, root, false)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			n, err := bc.Len()
			if err != nil {
				return err
			}
			if err := bc.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Removed %d cached %s from %s\n",
				n, plural(n, "entry", "entries"), cacheDirectory(cacheDirFlag, root))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the cached package.json entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := filepath.Abs(projectDir)
			if err != nil {
				return err
			}
			path := cacheDirectory(cacheDirFlag, root)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(c.stdout, "No cache at %s\n", path)
				return nil
			}
			bc, db, err := openBadgerCache(cacheDirFlag, root, true)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return dumpCache(c.stdout, bc, path)
		},
	})
	return cmd
}

// dumpRow is one printed cache entry.
type dumpRow struct {
	path    string
	state   string
	name    string
	typ     string
	size    int
	problem string
}

// dumpCache prints one row per cached package.json.
func dumpCache(w io.Writer, bc *moduleresolution.BadgerCache, path string) error {
	var rows []dumpRow
	err := bc.Each(func(p string, entry moduleresolution.CacheEntry, size int, decodeErr error) bool {
		row := dumpRow{path: p, size: size}
		switch e := entry.(type) {
		case nil:
			row.state = "corrupt"
			if decodeErr != nil {
				row.problem = decodeErr.Error()
			}
		case *moduleresolution.MissingPackageJSONInfo:
			row.state = "missing"
			if !e.DirectoryExists {
				row.state = "no-dir"
			}
		case *moduleresolution.PackageJSONInfo:
			row.state = "found"
			row.typ = e.Type()
			if e.Contents != nil {
				row.name = e.Contents.Fields.Name
			}
		}
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Cache path: %s\n", path)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No cached package.json entries.")
		return nil
	}

	width := len("Path")
	for _, r := range rows {
		width = max(width, len(r.path))
	}
	fmt.Fprintf(w, "\n%-*s  %-7s  %-8s  %-20s  %s\n", width, "Path", "State", "Type", "Name", "Size")
	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		strings.Repeat("─", width), strings.Repeat("─", 7), strings.Repeat("─", 8),
		strings.Repeat("─", 20), strings.Repeat("─", 10))
	for _, r := range rows {
		fmt.Fprintf(w, "%-*s  %-7s  %-8s  %-20s  %s\n", width, r.path, r.state, r.typ, r.name, formatBytes(r.size))
		if r.problem != "" {
			fmt.Fprintf(w, "%*s  ! %s\n", width, "", r.problem)
		}
	}
	fmt.Fprintf(w, "\nSummary: %d %s\n", len(rows), plural(len(rows), "entry", "entries"))
	return nil
}

// formatBytes formats a byte count for humans.
func formatBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/1024/1024)
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
