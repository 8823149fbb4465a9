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
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InvalidatesChangedPackageJSON(t *testing.T) {
	dir := t.TempDir()
	pkgPath := filepath.Join(dir, "package.json")
	require.NoError(t, os.WriteFile(pkgPath, []byte(`{"type":"commonjs"}`), 0o644))

	host := NewOSHost()
	cache := NewMemoryCache(WithCaseSensitivity(host.UseCaseSensitiveFileNames()))
	root := filepath.ToSlash(dir)
	state := NewState(context.Background(), host, nil, cache, RecordLocations())

	info := GetPackageScopeForPath(root, state)
	require.NotNil(t, info)
	require.Equal(t, "commonjs", info.Type())

	w, err := NewWatcher(cache, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	invalidated := make(chan string, 8)
	w.OnInvalidate = func(p string) { invalidated <- p }
	w.WatchLocations(state.AffectingLocations)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(pkgPath, []byte(`{"type":"module"}`), 0o644))

	select {
	case p := <-invalidated:
		assert.Equal(t, "package.json", filepath.Base(p))
	case <-time.After(5 * time.Second):
		t.Fatal("no invalidation after package.json was rewritten")
	}

	info = GetPackageScopeForPath(root, NewState(context.Background(), host, nil, cache))
	require.NotNil(t, info)
	assert.Equal(t, "module", info.Type())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	cache := NewMemoryCache()
	cache.Set("/p/package.json", &MissingPackageJSONInfo{PackageDirectory: "/p"})
	w, err := NewWatcher(cache, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	w.handleName("/p/index.ts")
	assert.Equal(t, 1, cache.Len())

	w.handleName("/p/package.json")
	assert.Zero(t, cache.Len())
}

func TestNewWatcher_RejectsNilCache(t *testing.T) {
	_, err := NewWatcher(nil, nil)
	assert.Error(t, err)
}
