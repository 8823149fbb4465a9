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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// memHost is an in-memory Host that counts file system calls.
type memHost struct {
	mu            sync.Mutex
	files         map[string]string
	caseSensitive bool

	reads       atomic.Int64
	existsCalls atomic.Int64

	// readGate, when set, blocks ReadFile until it is closed.
	readGate chan struct{}
}

func newMemHost(files map[string]string) *memHost {
	h := &memHost{files: make(map[string]string), caseSensitive: true}
	for k, v := range files {
		h.files[k] = v
	}
	return h
}

func (h *memHost) key(p string) string {
	if h.caseSensitive {
		return p
	}
	return strings.ToLower(p)
}

func (h *memHost) lookup(p string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, content := range h.files {
		if h.key(name) == h.key(p) {
			return content, true
		}
	}
	return "", false
}

func (h *memHost) FileExists(p string) bool {
	h.existsCalls.Add(1)
	_, ok := h.lookup(p)
	return ok
}

func (h *memHost) ReadFile(p string) ([]byte, bool) {
	if h.readGate != nil {
		<-h.readGate
	}
	h.reads.Add(1)
	content, ok := h.lookup(p)
	return []byte(content), ok
}

func (h *memHost) DirectoryExists(dir string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	prefix := h.key(tspath.EnsureTrailingDirectorySeparator(dir))
	for name := range h.files {
		if strings.HasPrefix(h.key(name), prefix) {
			return true
		}
	}
	return false
}

func (h *memHost) UseCaseSensitiveFileNames() bool {
	return h.caseSensitive
}

func (h *memHost) set(p, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[p] = content
}

func TestOSHost(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.ts"), []byte("export {}"), 0o644))

	host := NewOSHost()
	root := filepath.ToSlash(dir)

	assert.True(t, host.FileExists(root+"/src/a.ts"))
	assert.False(t, host.FileExists(root+"/src"), "directories are not files")
	assert.False(t, host.FileExists(root+"/src/missing.ts"))

	data, ok := host.ReadFile(root + "/src/a.ts")
	require.True(t, ok)
	assert.Equal(t, "export {}", string(data))
	_, ok = host.ReadFile(root + "/src/missing.ts")
	assert.False(t, ok)

	assert.True(t, host.DirectoryExists(root+"/src"))
	assert.False(t, host.DirectoryExists(root+"/src/a.ts"))
	assert.Equal(t, []string{"lib"}, host.GetDirectories(root+"/src"))

	host.CurrentDirectory = "/work"
	assert.Equal(t, "/work", host.GetCurrentDirectory())
}

func TestHostCapabilityDefaults(t *testing.T) {
	type plainHost struct{ Host }
	h := plainHost{}

	assert.True(t, directoryExists(h, "/anything"), "hosts without DirectoryExists assume directories exist")
	assert.True(t, useCaseSensitiveFileNames(h))
	assert.Equal(t, "/a/b", realpath(h, "/a/b"))
}
