// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tspath implements the path algorithms module resolution relies
// on: root classification of POSIX, UNC, DOS and URL paths, combining,
// normalizing and walking ancestor directories.
//
// All functions are pure and safe for concurrent use. Paths are handled as
// strings with '/' separators; backslashes are normalized on entry.
package tspath

import (
	"strings"
)

const (
	// DirectorySeparator is the canonical separator.
	DirectorySeparator = '/'

	altDirectorySeparator = '\\'
	urlSchemeSeparator    = "://"
)

// NormalizeSlashes replaces every backslash with a forward slash.
func NormalizeSlashes(path string) string {
	if !strings.ContainsRune(path, altDirectorySeparator) {
		return path
	}
	return strings.ReplaceAll(path, "\\", "/")
}

func isVolumeCharacter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func charAt(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

// getFileURLVolumeSeparatorEnd returns the offset just past a DOS volume
// separator (":" or "%3A") at start, or -1.
func getFileURLVolumeSeparatorEnd(url string, start int) int {
	ch0 := charAt(url, start)
	if ch0 == ':' {
		return start + 1
	}
	if ch0 == '%' && charAt(url, start+1) == '3' {
		ch2 := charAt(url, start+2)
		if ch2 == 'a' || ch2 == 'A' {
			return start + 3
		}
	}
	return -1
}

// GetEncodedRootLength returns the length of the root of path.
//
// Description:
//
//	POSIX and UNC roots are checked first, then DOS volumes, then URLs.
//	A path beginning with '/' is therefore never treated as a URL. For URLs
//	the result is encoded as the bitwise complement of the length (always
//	negative) so callers can distinguish them; file URLs fold a DOS volume
//	directly after the authority into the root, including "%3A" colons.
//
// Outputs:
//
//	int - 0 for relative paths, n > 0 for disk roots, ^n for URL roots.
func GetEncodedRootLength(path string) int {
	if path == "" {
		return 0
	}
	ch0 := path[0]

	// POSIX or UNC
	if ch0 == '/' || ch0 == '\\' {
		if charAt(path, 1) != ch0 {
			return 1 // POSIX: "/" (or non-normalized "\")
		}
		sep := "/"
		if ch0 == '\\' {
			sep = "\\"
		}
		p1 := strings.Index(path[2:], sep)
		if p1 < 0 {
			return len(path) // UNC: "//server" or "\\server"
		}
		return p1 + 2 + 1 // UNC: "//server/" or "\\server\"
	}

	// DOS
	if isVolumeCharacter(ch0) && charAt(path, 1) == ':' {
		ch2 := charAt(path, 2)
		if ch2 == '/' || ch2 == '\\' {
			return 3 // DOS: "c:/" or "c:\"
		}
		if len(path) == 2 {
			return 2 // DOS: "c:" (but not "c:d")
		}
	}

	// URL
	schemeEnd := strings.Index(path, urlSchemeSeparator)
	if schemeEnd != -1 {
		authorityStart := schemeEnd + len(urlSchemeSeparator)
		authorityEnd := strings.IndexByte(path[authorityStart:], '/')
		if authorityEnd != -1 {
			authorityEnd += authorityStart
			// URL: "file:///", "file://server/", "file://server/path"
			scheme := path[:schemeEnd]
			authority := path[authorityStart:authorityEnd]
			if scheme == "file" && (authority == "" || authority == "localhost") &&
				isVolumeCharacter(charAt(path, authorityEnd+1)) {
				volumeSeparatorEnd := getFileURLVolumeSeparatorEnd(path, authorityEnd+2)
				if volumeSeparatorEnd != -1 {
					if charAt(path, volumeSeparatorEnd) == '/' {
						// URL: "file:///c:/", "file://localhost/c:/", "file:///c%3a/"
						return ^(volumeSeparatorEnd + 1)
					}
					if volumeSeparatorEnd == len(path) {
						// URL: "file:///c:", "file://localhost/c%3a", but not "file:///c:d"
						return ^volumeSeparatorEnd
					}
				}
			}
			return ^(authorityEnd + 1) // URL: "file://server/", "http://server/"
		}
		return ^len(path) // URL: "file://server", "http://server"
	}

	// relative
	return 0
}

// GetRootLength returns the length of the root of path, decoding URL roots.
//
// For example:
//
//	GetRootLength("a") == 0                   // ""
//	GetRootLength("/") == 1                   // "/"
//	GetRootLength("c:") == 2                  // "c:"
//	GetRootLength("c:d") == 0                 // ""
//	GetRootLength("c:/") == 3                 // "c:/"
//	GetRootLength("//server") == 8            // "//server"
//	GetRootLength("//server/share") == 9      // "//server/"
//	GetRootLength("file:///path") == 8        // "file:///"
//	GetRootLength("file:///c:") == 10         // "file:///c:"
//	GetRootLength("file:///c:d") == 8         // "file:///"
//	GetRootLength("file:///c:/path") == 11    // "file:///c:/"
//	GetRootLength("file://server") == 13      // "file://server"
//	GetRootLength("file://server/path") == 14 // "file://server/"
//	GetRootLength("http://server") == 13      // "http://server"
//	GetRootLength("http://server/path") == 14 // "http://server/"
func GetRootLength(path string) int {
	rootLength := GetEncodedRootLength(path)
	if rootLength < 0 {
		return ^rootLength
	}
	return rootLength
}

// IsURL reports whether path has a URL root.
func IsURL(path string) bool {
	return GetEncodedRootLength(path) < 0
}

// IsRootedDiskPath reports whether path has a POSIX, UNC or DOS root.
func IsRootedDiskPath(path string) bool {
	return GetEncodedRootLength(path) > 0
}

// IsDiskPathRoot reports whether path consists of nothing but a disk root.
func IsDiskPathRoot(path string) bool {
	rootLength := GetEncodedRootLength(path)
	return rootLength > 0 && rootLength == len(path)
}

// PathIsAbsolute reports whether path has any root (disk or URL).
func PathIsAbsolute(path string) bool {
	return GetEncodedRootLength(path) != 0
}

// PathIsRelative reports whether path starts with "./" or "../" (or is "." or "..").
func PathIsRelative(path string) bool {
	return path == "." || path == ".." ||
		strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") ||
		strings.HasPrefix(path, ".\\") || strings.HasPrefix(path, "..\\")
}

// HasTrailingDirectorySeparator reports whether path ends with a separator.
func HasTrailingDirectorySeparator(path string) bool {
	if path == "" {
		return false
	}
	last := path[len(path)-1]
	return last == '/' || last == '\\'
}

// RemoveTrailingDirectorySeparator drops one trailing separator unless the
// path is a single character.
func RemoveTrailingDirectorySeparator(path string) string {
	if HasTrailingDirectorySeparator(path) && len(path) > 1 {
		return path[:len(path)-1]
	}
	return path
}

// EnsureTrailingDirectorySeparator appends '/' when path does not end
// with a separator.
func EnsureTrailingDirectorySeparator(path string) string {
	if !HasTrailingDirectorySeparator(path) {
		return path + "/"
	}
	return path
}

// GetDirectoryPath returns the path without its last segment.
//
// Description:
//
//	A bare root is returned unchanged, so repeated application converges
//	on the root and ancestor walks terminate. Relative single-segment paths
//	return "".
func GetDirectoryPath(path string) string {
	path = NormalizeSlashes(path)

	rootLength := GetRootLength(path)
	if rootLength == len(path) {
		return path
	}

	path = RemoveTrailingDirectorySeparator(path)
	end := strings.LastIndexByte(path, DirectorySeparator)
	if end < rootLength {
		end = rootLength
	}
	return path[:end]
}

// GetBaseFileName returns the last segment of path, or "" for a bare root.
func GetBaseFileName(path string) string {
	path = NormalizeSlashes(path)

	rootLength := GetRootLength(path)
	if rootLength == len(path) {
		return ""
	}

	path = RemoveTrailingDirectorySeparator(path)
	start := strings.LastIndexByte(path, DirectorySeparator) + 1
	if r := GetRootLength(path); r > start {
		start = r
	}
	return path[start:]
}

// CombinePaths joins path with each component in turn.
//
// Description:
//
//	Components are normalized. An absolute component replaces the whole
//	accumulated result; a relative one is appended after exactly one
//	separator. Empty components are skipped. No "." or ".." reduction is
//	performed (see NormalizePath).
func CombinePaths(path string, components ...string) string {
	if path != "" {
		path = NormalizeSlashes(path)
	}
	for _, component := range components {
		if component == "" {
			continue
		}
		component = NormalizeSlashes(component)
		if path == "" || GetRootLength(component) != 0 {
			path = component
		} else {
			path = EnsureTrailingDirectorySeparator(path) + component
		}
	}
	return path
}

// ForEachAncestorDirectory calls callback with directory and then each of
// its ancestors, stopping at the first callback that reports ok, or after
// the root has been visited.
//
// Outputs:
//
//	T - The value returned by the stopping callback, or the zero value.
//	bool - True if a callback stopped the walk.
func ForEachAncestorDirectory[T any](directory string, callback func(dir string) (T, bool)) (T, bool) {
	for {
		if result, ok := callback(directory); ok {
			return result, true
		}
		parent := GetDirectoryPath(directory)
		if parent == directory {
			var zero T
			return zero, false
		}
		directory = parent
	}
}

// GetPathComponents splits path into its root followed by its segments.
// The root is always the first element, possibly "".
func GetPathComponents(path, currentDirectory string) []string {
	path = CombinePaths(currentDirectory, path)
	return pathComponents(path, GetRootLength(path))
}

func pathComponents(path string, rootLength int) []string {
	root := path[:rootLength]
	rest := strings.Split(path[rootLength:], "/")
	if len(rest) > 0 && rest[len(rest)-1] == "" {
		rest = rest[:len(rest)-1]
	}
	return append([]string{root}, rest...)
}

// ReducePathComponents removes "." and empty segments and folds ".." into
// the preceding segment where one exists.
func ReducePathComponents(components []string) []string {
	if len(components) == 0 {
		return nil
	}
	reduced := []string{components[0]}
	for _, component := range components[1:] {
		if component == "" || component == "." {
			continue
		}
		if component == ".." {
			if len(reduced) > 1 {
				if reduced[len(reduced)-1] != ".." {
					reduced = reduced[:len(reduced)-1]
					continue
				}
			} else if reduced[0] != "" {
				continue
			}
		}
		reduced = append(reduced, component)
	}
	return reduced
}

// GetPathFromPathComponents joins components produced by GetPathComponents.
func GetPathFromPathComponents(components []string) string {
	if len(components) == 0 {
		return ""
	}
	root := components[0]
	if root != "" {
		root = EnsureTrailingDirectorySeparator(root)
	}
	return root + strings.Join(components[1:], "/")
}

// GetNormalizedAbsolutePath resolves fileName against currentDirectory and
// reduces "." and ".." segments.
func GetNormalizedAbsolutePath(fileName, currentDirectory string) string {
	return GetPathFromPathComponents(ReducePathComponents(GetPathComponents(fileName, currentDirectory)))
}

// NormalizePath normalizes slashes and reduces "." and ".." segments while
// preserving a trailing separator.
func NormalizePath(path string) string {
	path = NormalizeSlashes(path)
	if !strings.Contains(path, "./") && !strings.Contains(path, "//") &&
		!strings.HasSuffix(path, "/.") && !strings.HasSuffix(path, "/..") && path != "." && path != ".." {
		return path
	}
	normalized := GetPathFromPathComponents(ReducePathComponents(pathComponents(path, GetRootLength(path))))
	if normalized != "" && HasTrailingDirectorySeparator(path) {
		return EnsureTrailingDirectorySeparator(normalized)
	}
	return normalized
}

// ToPath converts fileName into a canonical, absolute cache key.
// Case-insensitive hosts fold the result to lower case.
func ToPath(fileName, currentDirectory string, useCaseSensitiveFileNames bool) string {
	var p string
	if IsRootedDiskPath(fileName) || IsURL(fileName) {
		p = NormalizePath(fileName)
	} else {
		p = GetNormalizedAbsolutePath(fileName, currentDirectory)
	}
	if !useCaseSensitiveFileNames {
		p = strings.ToLower(p)
	}
	return p
}
