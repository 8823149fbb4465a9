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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsfront/services/tsc/options"
)

func TestGetImpliedNodeFormatForFile(t *testing.T) {
	esmHost := newMemHost(map[string]string{
		"/app/package.json":                     `{"type":"module"}`,
		"/app/node_modules/dep/package.json":    `{"type":"module"}`,
		"/app/node_modules/cjsdep/package.json": `{}`,
		"/app/src/x.ts":                         "",
	})
	node16 := &options.CompilerOptions{ModuleResolution: options.ModuleResolutionKindNode16}
	bundler := &options.CompilerOptions{ModuleResolution: options.ModuleResolutionKindBundler}
	classic := &options.CompilerOptions{ModuleResolution: options.ModuleResolutionKindClassic}

	tests := []struct {
		name string
		file string
		opts *options.CompilerOptions
		want options.ResolutionMode
	}{
		{"mts is ESM regardless of package.json", "/app/src/x.mts", classic, options.ResolutionModeESM},
		{"mjs is ESM", "/app/src/x.mjs", node16, options.ResolutionModeESM},
		{"d.mts is ESM", "/app/src/x.d.mts", nil, options.ResolutionModeESM},
		{"cts is CommonJS", "/app/src/x.cts", node16, options.ResolutionModeCommonJS},
		{"d.cts is CommonJS", "/app/src/x.d.cts", classic, options.ResolutionModeCommonJS},
		{"ts under node16 follows type module", "/app/src/x.ts", node16, options.ResolutionModeESM},
		{"tsx under bundler follows type module", "/app/src/x.tsx", bundler, options.ResolutionModeESM},
		{"ts under classic has no format", "/app/src/x.ts", classic, options.ResolutionModeNone},
		{"node_modules is consulted under classic", "/app/node_modules/dep/index.d.ts", classic, options.ResolutionModeESM},
		{"package without type is CommonJS", "/app/node_modules/cjsdep/index.js", classic, options.ResolutionModeCommonJS},
		{"json has no format", "/app/src/data.json", node16, options.ResolutionModeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetImpliedNodeFormatForFile(context.Background(), tt.file, NewMemoryCache(), esmHost, tt.opts)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetImpliedNodeFormatForFileWorker_Evidence(t *testing.T) {
	host := newMemHost(map[string]string{
		"/app/package.json":  `{"name":"app"}`,
		"/app/src/lib/a.ts": "",
	})
	opts := &options.CompilerOptions{ModuleResolution: options.ModuleResolutionKindNodeNext}

	result, ok := GetImpliedNodeFormatForFileWorker(context.Background(), "/app/src/lib/a.ts", nil, host, opts)

	require.True(t, ok)
	assert.Equal(t, options.ResolutionModeCommonJS, result.Format)
	require.NotNil(t, result.PackageJSONScope)
	assert.Equal(t, "/app", result.PackageJSONScope.PackageDirectory)
	assert.Equal(t, []string{
		"/app/src/lib/package.json",
		"/app/src/package.json",
		"/app/package.json",
	}, result.PackageJSONLocations)
}

func TestGetImpliedNodeFormatForFile_NoPackageJSONDefaultsToCommonJS(t *testing.T) {
	host := newMemHost(map[string]string{"/x/a.ts": ""})
	opts := &options.CompilerOptions{ModuleResolution: options.ModuleResolutionKindNode16}

	result, ok := GetImpliedNodeFormatForFileWorker(context.Background(), "/x/a.ts", nil, host, opts)

	require.True(t, ok)
	assert.Equal(t, options.ResolutionModeCommonJS, result.Format)
	assert.Nil(t, result.PackageJSONScope)
}

func TestGetImpliedNodeFormatForEmit(t *testing.T) {
	moduleScope := &PackageJSONInfo{PackageDirectory: "/p", Contents: NewPackageJSONContents(PackageJSONPathFields{Type: "module"})}
	cjsScope := &PackageJSONInfo{PackageDirectory: "/p", Contents: NewPackageJSONContents(PackageJSONPathFields{Type: "commonjs"})}
	untyped := &PackageJSONInfo{PackageDirectory: "/p", Contents: NewPackageJSONContents(PackageJSONPathFields{})}
	esnext := &options.CompilerOptions{Module: options.ModuleKindESNext}
	nodenext := &options.CompilerOptions{Module: options.ModuleKindNodeNext}

	tests := []struct {
		name    string
		file    string
		implied options.ResolutionMode
		scope   *PackageJSONInfo
		opts    *options.CompilerOptions
		want    options.ResolutionMode
	}{
		{"node modules use the implied format", "/p/a.ts", options.ResolutionModeCommonJS, untyped, nodenext, options.ResolutionModeCommonJS},
		{"explicit type module", "/p/a.ts", options.ResolutionModeESM, moduleScope, esnext, options.ResolutionModeESM},
		{"explicit type commonjs", "/p/a.ts", options.ResolutionModeCommonJS, cjsScope, esnext, options.ResolutionModeCommonJS},
		{"defaulted CommonJS is not explicit", "/p/a.ts", options.ResolutionModeCommonJS, untyped, esnext, options.ResolutionModeNone},
		{"cts extension is explicit", "/p/a.cts", options.ResolutionModeCommonJS, nil, esnext, options.ResolutionModeCommonJS},
		{"mts extension is explicit", "/p/a.mts", options.ResolutionModeESM, nil, esnext, options.ResolutionModeESM},
		{"no implied format", "/p/a.ts", options.ResolutionModeNone, moduleScope, esnext, options.ResolutionModeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetImpliedNodeFormatForEmit(tt.file, tt.implied, tt.scope, tt.opts))
		})
	}
}
