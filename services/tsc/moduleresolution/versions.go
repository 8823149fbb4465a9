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
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// TypeScriptVersion is the compiler version typesVersions ranges are
// matched against.
const TypeScriptVersion = "5.7.0"

// VersionPaths is the typesVersions entry chosen for the running compiler.
type VersionPaths struct {
	// Version is the range key that matched.
	Version string
	Paths   map[string][]string
}

// SelectTypesVersions picks the first entry of typesVersions whose range
// matches compilerVersion.
//
// Description:
//
//	Ranges use npm semver syntax ("*", ">=4.2", "~3.1 || >=5"). Keys that
//	do not parse are skipped, as are entries whose paths are not a map.
//
// Inputs:
//
//	typesVersions - Entries in document order.
//	compilerVersion - A semver version string.
//
// Outputs:
//
//	*VersionPaths - The matching entry, or nil.
//	error - Non-nil when compilerVersion is not a valid version.
func SelectTypesVersions(typesVersions TypesVersions, compilerVersion string) (*VersionPaths, error) {
	version, err := semver.NewVersion(compilerVersion)
	if err != nil {
		return nil, fmt.Errorf("compiler version %q: %w", compilerVersion, err)
	}
	for _, entry := range typesVersions {
		if entry.Paths == nil {
			continue
		}
		constraint, err := semver.NewConstraint(entry.Range)
		if err != nil {
			continue
		}
		if constraint.Check(version) {
			return &VersionPaths{Version: entry.Range, Paths: entry.Paths}, nil
		}
	}
	return nil, nil
}

// matchPattern matches name against a path pattern with at most one "*".
// It returns the text the star captured.
func matchPattern(pattern, name string) (string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return "", pattern == name
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if len(name) < len(prefix)+len(suffix) || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	return name[len(prefix) : len(name)-len(suffix)], true
}

// bestPatternMatch returns the key of paths that matches name with the
// longest prefix before its star. Exact keys win over patterns.
func bestPatternMatch(paths map[string][]string, name string) (string, string, bool) {
	if _, ok := paths[name]; ok {
		return name, "", true
	}
	var (
		best      string
		captured  string
		bestLen   = -1
		foundStar bool
	)
	for pattern := range paths {
		star := strings.IndexByte(pattern, '*')
		if star < 0 {
			continue
		}
		text, ok := matchPattern(pattern, name)
		if !ok {
			continue
		}
		if star > bestLen || (star == bestLen && morePrecise(pattern, best)) {
			best, captured, bestLen, foundStar = pattern, text, star, true
		}
	}
	return best, captured, foundStar
}

// morePrecise orders patterns with equal prefixes: longer first, then
// lexically.
func morePrecise(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}
