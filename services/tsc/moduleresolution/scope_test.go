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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsfront/services/tsc/options"
)

func newTestState(host Host, cache Cache) *State {
	return NewState(context.Background(), host, &options.CompilerOptions{}, cache, RecordLocations())
}

func TestGetPackageScopeForPath_SiblingsShareOneRead(t *testing.T) {
	host := newMemHost(map[string]string{
		"/repo/package.json": `{"name":"repo","type":"module"}`,
		"/repo/src/a/x.ts":   "",
		"/repo/src/b/y.ts":   "",
	})
	cache := NewMemoryCache()

	first := GetPackageScopeForPath("/repo/src/a", newTestState(host, cache))
	second := GetPackageScopeForPath("/repo/src/b", newTestState(host, cache))

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Same(t, first.Contents, second.Contents)
	assert.Equal(t, "/repo", first.PackageDirectory)
	assert.Equal(t, "/repo", second.PackageDirectory)
	assert.Equal(t, "module", second.Type())
	assert.EqualValues(t, 1, host.reads.Load(), "second walk must be served from the cache")
}

func TestGetPackageScopeForPath_NegativeResultsAreCached(t *testing.T) {
	host := newMemHost(map[string]string{
		"/repo/package.json":       `{"name":"repo"}`,
		"/repo/src/deep/file.ts":   "",
		"/repo/src/deeper/file.ts": "",
	})
	cache := NewMemoryCache()

	GetPackageScopeForPath("/repo/src/deep", newTestState(host, cache))
	calls := host.existsCalls.Load()

	state := newTestState(host, cache)
	info := GetPackageScopeForPath("/repo/src/deep", state)

	require.NotNil(t, info)
	assert.Equal(t, calls, host.existsCalls.Load(), "cached misses must not probe again")
	assert.Equal(t, []string{"/repo/src/deep/package.json", "/repo/src/package.json"}, state.FailedLookupLocations)
	assert.Equal(t, []string{"/repo/package.json"}, state.AffectingLocations)

	entry, ok := cache.Get("/repo/src/package.json")
	require.True(t, ok)
	missing, ok := entry.(*MissingPackageJSONInfo)
	require.True(t, ok)
	assert.True(t, missing.DirectoryExists)
}

func TestGetPackageScopeForPath_NoPackageJSON(t *testing.T) {
	host := newMemHost(map[string]string{"/a/b/c.ts": ""})
	cache := NewMemoryCache()

	assert.Nil(t, GetPackageScopeForPath("/a/b", newTestState(host, cache)))
	assert.Equal(t, 3, cache.Len(), "one negative entry per ancestor: /a/b, /a and /")
}

func TestGetPackageScopeForPath_MalformedStopsWalk(t *testing.T) {
	host := newMemHost(map[string]string{
		"/repo/package.json":     `{"type":"module"}`,
		"/repo/pkg/package.json": `{"name": `,
	})
	cache := NewMemoryCache()

	info := GetPackageScopeForPath("/repo/pkg/src", newTestState(host, cache))

	assert.Nil(t, info)
	_, cached := cache.Get("/repo/pkg/package.json")
	assert.False(t, cached, "malformed files are not cached")

	_, err := GetPackageJSONInfo("/repo/pkg", false, newTestState(host, cache))
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestGetPackageJSONInfo_CachedHitUsesQueriedDirectory(t *testing.T) {
	host := newMemHost(map[string]string{"/Repo/package.json": `{"name":"repo"}`})
	host.caseSensitive = false
	cache := NewMemoryCache(WithCaseSensitivity(false))

	upper, err := GetPackageJSONInfo("/Repo", false, newTestState(host, cache))
	require.NoError(t, err)
	lower, err := GetPackageJSONInfo("/repo", false, newTestState(host, cache))
	require.NoError(t, err)

	require.NotNil(t, upper)
	require.NotNil(t, lower)
	assert.Equal(t, "/Repo", upper.PackageDirectory)
	assert.Equal(t, "/repo", lower.PackageDirectory)
	assert.Same(t, upper.Contents, lower.Contents)
	assert.EqualValues(t, 1, host.reads.Load())
}

func TestGetPackageJSONInfo_OnlyRecordFailures(t *testing.T) {
	host := newMemHost(map[string]string{"/p/package.json": `{}`})
	state := newTestState(host, NewMemoryCache())

	info, err := GetPackageJSONInfo("/p", true, state)

	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Equal(t, []string{"/p/package.json"}, state.FailedLookupLocations)
	assert.Zero(t, host.existsCalls.Load())
}

func TestGetPackageJSONInfo_MissingDirectorySkipsFileProbe(t *testing.T) {
	host := newMemHost(map[string]string{"/p/package.json": `{}`})
	cache := NewMemoryCache()

	info, err := GetPackageJSONInfo("/q", false, newTestState(host, cache))

	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Zero(t, host.existsCalls.Load())
	entry, ok := cache.Get("/q/package.json")
	require.True(t, ok)
	assert.False(t, entry.(*MissingPackageJSONInfo).DirectoryExists)
}

func TestGetPackageJSONInfo_ReadonlyCacheIsNotWritten(t *testing.T) {
	host := newMemHost(map[string]string{"/p/package.json": `{"name":"p"}`})
	cache := NewMemoryCache(WithReadonly())

	info, err := GetPackageJSONInfo("/p", false, newTestState(host, cache))

	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "p", info.Contents.Fields.Name)
	assert.Zero(t, cache.Len())
}

func TestGetPackageJSONInfo_WithoutCache(t *testing.T) {
	host := newMemHost(map[string]string{"/p/package.json": `{"name":"p"}`})

	for range 2 {
		info, err := GetPackageJSONInfo("/p", false, newTestState(host, nil))
		require.NoError(t, err)
		require.NotNil(t, info)
	}
	assert.EqualValues(t, 2, host.reads.Load())
}

func TestGetPackageJSONInfo_ConcurrentProbesCoalesce(t *testing.T) {
	host := newMemHost(map[string]string{"/p/package.json": `{"name":"p"}`})
	host.readGate = make(chan struct{})
	cache := NewMemoryCache()

	const workers = 16
	var (
		wg      sync.WaitGroup
		results = make([]*PackageJSONInfo, workers)
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = GetPackageJSONInfo("/p", false, newTestState(host, cache))
		}()
	}
	close(host.readGate)
	wg.Wait()

	assert.EqualValues(t, 1, host.reads.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Same(t, results[0].Contents, r.Contents)
	}
}

func TestParsePackageJSON(t *testing.T) {
	fields, err := parsePackageJSON([]byte(`{
		"name": "pkg",
		"version": "1.2.3",
		"type": "module",
		"types": "./index.d.ts",
		"main": 42,
		"typesVersions": {">=5.0": {"*": ["ts5/*"]}, "*": {"*": ["old/*"]}},
		"dependencies": {"a": "^1"},
		"exports": {".": "./index.js"},
		"unknown": [1, 2, 3]
	}`))

	require.NoError(t, err)
	assert.Equal(t, "pkg", fields.Name)
	assert.Equal(t, "1.2.3", fields.Version)
	assert.Equal(t, "./index.d.ts", fields.Types)
	assert.Empty(t, fields.Main)
	assert.Equal(t, []string{"main"}, fields.Mistyped)
	assert.True(t, fields.HasExports)
	assert.False(t, fields.HasImports)
	assert.Equal(t, map[string]string{"a": "^1"}, fields.Dependencies)
	require.Len(t, fields.TypesVersions, 2)
	assert.Equal(t, ">=5.0", fields.TypesVersions[0].Range)
	assert.Equal(t, "*", fields.TypesVersions[1].Range)

	for _, bad := range []string{`[]`, `"str"`, `{`, `null`} {
		_, err := parsePackageJSON([]byte(bad))
		assert.ErrorIs(t, err, ErrMalformedPackageJSON, bad)
	}
}
