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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTypesVersions(t *testing.T) {
	tv := TypesVersions{
		{Range: "not a range", Paths: map[string][]string{"*": {"bad/*"}}},
		{Range: "<4.0", Paths: map[string][]string{"*": {"ts3/*"}}},
		{Range: ">=4.0, <5.0", Paths: map[string][]string{"*": {"ts4/*"}}},
		{Range: ">=5.0", Paths: map[string][]string{"*": {"ts5/*"}}},
		{Range: "*", Paths: map[string][]string{"*": {"any/*"}}},
	}

	tests := []struct {
		version string
		want    string
	}{
		{"3.9.0", "<4.0"},
		{"4.5.2", ">=4.0, <5.0"},
		{"5.7.0", ">=5.0"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			vp, err := SelectTypesVersions(tv, tt.version)
			require.NoError(t, err)
			require.NotNil(t, vp)
			assert.Equal(t, tt.want, vp.Version)
		})
	}

	vp, err := SelectTypesVersions(TypesVersions{{Range: "<1.0", Paths: map[string][]string{}}}, "5.0.0")
	require.NoError(t, err)
	assert.Nil(t, vp)

	_, err = SelectTypesVersions(tv, "five")
	assert.Error(t, err)
}

func TestPackageJSONContents_VersionPathsIsLazy(t *testing.T) {
	c := NewPackageJSONContents(PackageJSONPathFields{
		TypesVersions: TypesVersions{{Range: "*", Paths: map[string][]string{"*": {"types/*"}}}},
	})

	first := c.VersionPaths()
	require.NotNil(t, first)
	assert.Same(t, first, c.VersionPaths())
	assert.Nil(t, NewPackageJSONContents(PackageJSONPathFields{}).VersionPaths())
}

func TestBestPatternMatch(t *testing.T) {
	paths := map[string][]string{
		"*":         {"a"},
		"lib/*":     {"b"},
		"lib/fp/*":  {"c"},
		"exact":     {"d"},
		"*.d.ts":    {"e"},
		"lib/*.css": {"f"},
	}

	tests := []struct {
		name, want, captured string
	}{
		{"exact", "exact", ""},
		{"lib/fp/map", "lib/fp/*", "map"},
		{"lib/x", "lib/*", "x"},
		{"lib/x.css", "lib/*.css", "x"},
		{"other", "*", "other"},
	}
	for _, tt := range tests {
		pattern, captured, ok := bestPatternMatch(paths, tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.want, pattern, tt.name)
		assert.Equal(t, tt.captured, captured, tt.name)
	}

	_, _, ok := bestPatternMatch(map[string][]string{"lib/*": nil}, "src/x")
	assert.False(t, ok)
}
