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

import "strings"

// File extensions recognized by the front end.
const (
	ExtensionTs          = ".ts"
	ExtensionTsx         = ".tsx"
	ExtensionDts         = ".d.ts"
	ExtensionJs          = ".js"
	ExtensionJsx         = ".jsx"
	ExtensionJSON        = ".json"
	ExtensionTsBuildInfo = ".tsbuildinfo"
	ExtensionMjs         = ".mjs"
	ExtensionMts         = ".mts"
	ExtensionDmts        = ".d.mts"
	ExtensionCjs         = ".cjs"
	ExtensionCts         = ".cts"
	ExtensionDcts        = ".d.cts"
)

// supportedExtensions lists extensions longest-first so ".d.ts" wins over ".ts".
var supportedExtensions = []string{
	ExtensionDmts, ExtensionDcts, ExtensionDts,
	ExtensionTsBuildInfo,
	ExtensionTsx, ExtensionJsx, ExtensionJSON,
	ExtensionMts, ExtensionCts, ExtensionMjs, ExtensionCjs,
	ExtensionTs, ExtensionJs,
}

const nodeModulesPathPart = "/node_modules/"

// FileExtensionIs reports whether path ends with extension and has at least
// one character before it.
func FileExtensionIs(path, extension string) bool {
	return len(path) > len(extension) && strings.HasSuffix(path, extension)
}

// FileExtensionIsOneOf reports whether path ends with any of extensions.
func FileExtensionIsOneOf(path string, extensions ...string) bool {
	for _, ext := range extensions {
		if FileExtensionIs(path, ext) {
			return true
		}
	}
	return false
}

// TryGetExtensionFromPath returns the recognized extension of path, or "".
func TryGetExtensionFromPath(path string) string {
	for _, ext := range supportedExtensions {
		if FileExtensionIs(path, ext) {
			return ext
		}
	}
	return ""
}

// RemoveFileExtension strips a recognized extension from path.
func RemoveFileExtension(path string) string {
	if ext := TryGetExtensionFromPath(path); ext != "" {
		return path[:len(path)-len(ext)]
	}
	return path
}

// IsDeclarationFileName reports whether fileName is a .d.ts, .d.mts or .d.cts file.
func IsDeclarationFileName(fileName string) bool {
	return FileExtensionIsOneOf(fileName, ExtensionDts, ExtensionDmts, ExtensionDcts)
}

// ContainsNodeModules reports whether path has a node_modules segment.
func ContainsNodeModules(path string) bool {
	return strings.Contains(NormalizeSlashes(path), nodeModulesPathPart)
}

// IsNodeModulesDirectory reports whether dirPath itself is a node_modules folder.
func IsNodeModulesDirectory(dirPath string) bool {
	return strings.HasSuffix(RemoveTrailingDirectorySeparator(NormalizeSlashes(dirPath)), "/node_modules")
}
