// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tspath

import (
	"strings"
	"testing"
)

func TestGetRootLength(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"", 0},
		{"a", 0},
		{"a/b", 0},
		{"/", 1},
		{"/a/b", 1},
		{"c:", 2},
		{"c:d", 0},
		{"c:/", 3},
		{"C:/a", 3},
		{"c:\\", 3},
		{"//server", 8},
		{"//server/share", 9},
		{"\\\\server\\share", 9},
		{"file:///path", 8},
		{"file:///c:", 10},
		{"file:///c:d", 8},
		{"file:///c:/path", 11},
		{"file:///c:/x", 11},
		{"file:///c%3a/x", 13},
		{"file://localhost/c:/x", 20},
		{"file://server", 13},
		{"file://server/path", 14},
		{"http://server", 13},
		{"http://server/path", 14},
		{"http://host/x", 12},
		{"/x://y", 1},
	}
	for _, tt := range tests {
		if got := GetRootLength(tt.path); got != tt.want {
			t.Errorf("GetRootLength(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestGetEncodedRootLength_URLsAreNegative(t *testing.T) {
	if got := GetEncodedRootLength("http://server/path"); got >= 0 {
		t.Errorf("GetEncodedRootLength(url) = %d, want negative", got)
	}
	if !IsURL("file:///c:/x") || IsURL("/a/b") {
		t.Error("IsURL classification is wrong")
	}
	if !IsRootedDiskPath("c:/x") || IsRootedDiskPath("x") {
		t.Error("IsRootedDiskPath classification is wrong")
	}
	if !IsDiskPathRoot("c:/") || IsDiskPathRoot("c:/x") {
		t.Error("IsDiskPathRoot classification is wrong")
	}
}

func TestGetDirectoryPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/a/b/c.ts", "/a/b"},
		{"/a/b/", "/a"},
		{"/a", "/"},
		{"/", "/"},
		{"c:/", "c:/"},
		{"c:/a", "c:/"},
		{"a", ""},
		{"a/b", "a"},
		{"a\\b\\c", "a/b"},
		{"http://server/a", "http://server/"},
		{"//server/share/x", "//server/share"},
	}
	for _, tt := range tests {
		if got := GetDirectoryPath(tt.path); got != tt.want {
			t.Errorf("GetDirectoryPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGetDirectoryPath_ReachesFixedPoint(t *testing.T) {
	for _, p := range []string{"/a/b/c", "c:/x/y/z", "a/b/c", "file:///c:/a/b", "//server/share/a/b"} {
		root := p[:GetRootLength(p)]
		current := p
		for i := 0; i < 32; i++ {
			next := GetDirectoryPath(current)
			if next == current {
				break
			}
			current = next
		}
		if current != root {
			t.Errorf("fixed point of %q = %q, want root %q", p, current, root)
		}
	}
}

func TestForEachAncestorDirectory(t *testing.T) {
	var visited []string
	_, found := ForEachAncestorDirectory("/a/b/c", func(dir string) (struct{}, bool) {
		visited = append(visited, dir)
		return struct{}{}, false
	})
	if found {
		t.Fatal("expected walk to exhaust ancestors")
	}
	want := []string{"/a/b/c", "/a/b", "/a", "/"}
	if strings.Join(visited, ",") != strings.Join(want, ",") {
		t.Errorf("visited = %v, want %v", visited, want)
	}
	if segments := 3; len(visited) > segments+1 {
		t.Errorf("walk took %d steps, want at most %d", len(visited), segments+1)
	}

	got, found := ForEachAncestorDirectory("/a/b/c", func(dir string) (string, bool) {
		return dir, dir == "/a"
	})
	if !found || got != "/a" {
		t.Errorf("stopping walk = (%q, %v), want (\"/a\", true)", got, found)
	}
}

func TestCombinePaths(t *testing.T) {
	tests := []struct {
		base       string
		components []string
		want       string
	}{
		{"/a", []string{"b", "c"}, "/a/b/c"},
		{"/a/", []string{"b"}, "/a/b"},
		{"/a", []string{"/b", "c"}, "/b/c"},
		{"/a", []string{"c:/x"}, "c:/x"},
		{"", []string{"b"}, "b"},
		{"a", []string{"", "b"}, "a/b"},
		{"a\\b", []string{"c\\d"}, "a/b/c/d"},
		{"/a", []string{"http://x/y"}, "http://x/y"},
	}
	for _, tt := range tests {
		if got := CombinePaths(tt.base, tt.components...); got != tt.want {
			t.Errorf("CombinePaths(%q, %v) = %q, want %q", tt.base, tt.components, got, tt.want)
		}
	}
}

func TestCombinePaths_RoundTrip(t *testing.T) {
	for _, p := range []string{"/a/b/c.ts", "a/b", "x", "c:/x/y", "//server/share/f", "file:///c:/x", "a\\b\\c.d.ts", "/a"} {
		got := CombinePaths(GetDirectoryPath(p), GetBaseFileName(p))
		if want := NormalizeSlashes(p); got != want {
			t.Errorf("round trip of %q = %q, want %q", p, got, want)
		}
	}
}

func TestGetBaseFileName(t *testing.T) {
	tests := map[string]string{
		"/a/b/c.ts": "c.ts",
		"/a/b/":     "b",
		"/":         "",
		"c:/":       "",
		"x":         "x",
	}
	for in, want := range tests {
		if got := GetBaseFileName(in); got != want {
			t.Errorf("GetBaseFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/a/./b/../c":   "/a/c",
		"a/../../b":     "../b",
		"/a/b/":         "/a/b/",
		"/../a":         "/a",
		"c:\\x\\..\\y":  "c:/y",
		"/a//b":         "/a/b",
		"already/clean": "already/clean",
	}
	for in, want := range tests {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToPath(t *testing.T) {
	if got := ToPath("src/../lib/A.ts", "/Proj", true); got != "/Proj/lib/A.ts" {
		t.Errorf("ToPath case-sensitive = %q", got)
	}
	if got := ToPath("/Proj/Lib/A.ts", "/", false); got != "/proj/lib/a.ts" {
		t.Errorf("ToPath case-insensitive = %q", got)
	}
}

func TestPathIsRelative(t *testing.T) {
	for _, p := range []string{".", "..", "./a", "../a"} {
		if !PathIsRelative(p) {
			t.Errorf("PathIsRelative(%q) = false", p)
		}
	}
	for _, p := range []string{"a", "/a", ".a"} {
		if PathIsRelative(p) {
			t.Errorf("PathIsRelative(%q) = true", p)
		}
	}
}
