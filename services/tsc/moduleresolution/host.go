// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package moduleresolution locates package.json scopes, decides the module
// format a source file is implied to use, and resolves import specifiers
// to files.
//
// Lookups go through a Host so the file system can be replaced in tests,
// and through a Cache so negative and positive package.json probes are
// shared between files of one compilation (MemoryCache) or across runs
// (BadgerCache).
package moduleresolution

import (
	"os"
	"path/filepath"
	"runtime"
)

// Host is the file system the resolver reads through.
//
// Thread Safety: Implementations must be safe for concurrent use when the
// resolver is shared across goroutines.
type Host interface {
	// FileExists reports whether path names an existing regular file.
	FileExists(path string) bool

	// ReadFile returns the contents of path. The second result is false
	// when the file cannot be read.
	ReadFile(path string) ([]byte, bool)
}

// DirectoryExister is an optional Host capability. Hosts without it are
// assumed to have every directory.
type DirectoryExister interface {
	DirectoryExists(path string) bool
}

// Realpather is an optional Host capability resolving symlinks.
type Realpather interface {
	Realpath(path string) string
}

// CurrentDirectoryGetter is an optional Host capability.
type CurrentDirectoryGetter interface {
	GetCurrentDirectory() string
}

// DirectoriesGetter is an optional Host capability listing the immediate
// subdirectories of a directory.
type DirectoriesGetter interface {
	GetDirectories(path string) []string
}

// CaseSensitivityReporter is an optional Host capability. Hosts without it
// are treated as case sensitive.
type CaseSensitivityReporter interface {
	UseCaseSensitiveFileNames() bool
}

func directoryExists(host Host, dir string) bool {
	if d, ok := host.(DirectoryExister); ok {
		return d.DirectoryExists(dir)
	}
	return true
}

func useCaseSensitiveFileNames(host Host) bool {
	if c, ok := host.(CaseSensitivityReporter); ok {
		return c.UseCaseSensitiveFileNames()
	}
	return true
}

func realpath(host Host, path string) string {
	if r, ok := host.(Realpather); ok {
		return r.Realpath(path)
	}
	return path
}

// OSHost is a Host over the local file system. I/O errors read as "does
// not exist".
type OSHost struct {
	// CurrentDirectory overrides os.Getwd when non-empty.
	CurrentDirectory string
}

// NewOSHost returns a host rooted at the process working directory.
func NewOSHost() *OSHost {
	return &OSHost{}
}

func (h *OSHost) FileExists(path string) bool {
	info, err := os.Stat(filepath.FromSlash(path))
	return err == nil && info.Mode().IsRegular()
}

func (h *OSHost) ReadFile(path string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (h *OSHost) DirectoryExists(path string) bool {
	info, err := os.Stat(filepath.FromSlash(path))
	return err == nil && info.IsDir()
}

func (h *OSHost) Realpath(path string) string {
	resolved, err := filepath.EvalSymlinks(filepath.FromSlash(path))
	if err != nil {
		return path
	}
	return filepath.ToSlash(resolved)
}

func (h *OSHost) GetCurrentDirectory() string {
	if h.CurrentDirectory != "" {
		return h.CurrentDirectory
	}
	wd, err := os.Getwd()
	if err != nil {
		return "/"
	}
	return filepath.ToSlash(wd)
}

func (h *OSHost) GetDirectories(path string) []string {
	entries, err := os.ReadDir(filepath.FromSlash(path))
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}

func (h *OSHost) UseCaseSensitiveFileNames() bool {
	return runtime.GOOS != "windows" && runtime.GOOS != "darwin"
}

var (
	_ Host                    = (*OSHost)(nil)
	_ DirectoryExister        = (*OSHost)(nil)
	_ Realpather              = (*OSHost)(nil)
	_ CurrentDirectoryGetter  = (*OSHost)(nil)
	_ DirectoriesGetter       = (*OSHost)(nil)
	_ CaseSensitivityReporter = (*OSHost)(nil)
)
