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
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

var tracer = otel.Tracer("tsfront.moduleresolution")

// GetPackageScopeForPath returns the nearest package.json at or above
// directory.
//
// Description:
//
//	Walks ancestors of directory from the directory itself to the root,
//	probing each with GetPackageJSONInfo. The walk stops at the first
//	package.json found. A package.json that exists but cannot be parsed
//	also stops the walk, and the result is nil; diagnosing that is left
//	to the caller.
//
// Inputs:
//
//	directory - Absolute normalized directory path.
//	state - Request state. Must not be nil.
//
// Outputs:
//
//	*PackageJSONInfo - The scope, or nil. Its PackageDirectory is the
//	  ancestor that was probed, even when the entry came from a cache
//	  populated under a differently spelled key.
func GetPackageScopeForPath(directory string, state *State) *PackageJSONInfo {
	_, span := tracer.Start(state.Context(), "moduleresolution.GetPackageScopeForPath",
		trace.WithAttributes(attribute.String("directory", directory)))
	defer span.End()

	info, _ := tspath.ForEachAncestorDirectory(directory, func(dir string) (*PackageJSONInfo, bool) {
		info, err := GetPackageJSONInfo(dir, false, state)
		if err != nil {
			return nil, true
		}
		return info, info != nil
	})
	if info != nil {
		span.SetAttributes(attribute.String("package_directory", info.PackageDirectory))
	}
	return info
}

// GetPackageJSONInfo probes packageDirectory for a package.json.
//
// Description:
//
//	With onlyRecordFailures the file system is not consulted: the path is
//	recorded as a failed lookup and nil is returned. Otherwise the cache
//	is consulted first; a cached hit is returned with its directory set
//	to packageDirectory. On a miss the directory and file are probed,
//	the result (found or missing) is written to the cache unless it is
//	readonly, and the lookup locations are recorded. Concurrent probes of
//	the same path through a Coalescer cache read the file once.
//
// Outputs:
//
//	*PackageJSONInfo - The parsed package.json, or nil when absent.
//	error - Wraps ErrMalformedPackageJSON when the file exists but does
//	  not parse. Malformed files are not cached.
func GetPackageJSONInfo(packageDirectory string, onlyRecordFailures bool, state *State) (*PackageJSONInfo, error) {
	packageJSONPath := tspath.CombinePaths(packageDirectory, "package.json")
	if onlyRecordFailures {
		state.addFailed(packageJSONPath)
		return nil, nil
	}

	if entry, ok := cacheGet(state.Cache, packageJSONPath); ok {
		return fromCachedEntry(entry, packageDirectory, packageJSONPath, state), nil
	}

	probe := func() (CacheEntry, error) {
		// A probe that finished between the lookup above and this call
		// has already populated the cache.
		if entry, ok := cacheGet(state.Cache, packageJSONPath); ok {
			return entry, nil
		}
		entry, err := probePackageJSON(packageDirectory, packageJSONPath, state)
		if err != nil {
			return nil, err
		}
		if state.Cache != nil && !state.Cache.IsReadonly() {
			state.Cache.Set(packageJSONPath, entry)
		}
		return entry, nil
	}

	var (
		entry CacheEntry
		err   error
	)
	if c, ok := state.Cache.(Coalescer); ok {
		entry, err = c.Coalesce(packageJSONPath, probe)
	} else {
		entry, err = probe()
	}
	if err != nil {
		recordLookup(lookupMalformed)
		state.addAffecting(packageJSONPath)
		state.trace("package.json is malformed",
			slog.String("path", packageJSONPath),
			slog.String("error", err.Error()))
		return nil, err
	}

	recordLookup(lookupMiss)
	switch e := entry.(type) {
	case *PackageJSONInfo:
		state.trace(fmt.Sprintf("Found 'package.json' at '%s'.", packageJSONPath))
		state.addAffecting(packageJSONPath)
		return e.withDirectory(packageDirectory), nil
	case *MissingPackageJSONInfo:
		if e.DirectoryExists {
			state.trace(fmt.Sprintf("File '%s' does not exist.", packageJSONPath))
		}
		state.addFailed(packageJSONPath)
	}
	return nil, nil
}

func cacheGet(cache Cache, packageJSONPath string) (CacheEntry, bool) {
	if cache == nil {
		return nil, false
	}
	return cache.Get(packageJSONPath)
}

func fromCachedEntry(entry CacheEntry, packageDirectory, packageJSONPath string, state *State) *PackageJSONInfo {
	switch e := entry.(type) {
	case *PackageJSONInfo:
		recordLookup(lookupHit)
		state.trace(fmt.Sprintf("File '%s' exists according to earlier cached lookups.", packageJSONPath))
		state.addAffecting(packageJSONPath)
		return e.withDirectory(packageDirectory)
	case *MissingPackageJSONInfo:
		recordLookup(lookupNegativeHit)
		if e.DirectoryExists {
			state.trace(fmt.Sprintf("File '%s' does not exist according to earlier cached lookups.", packageJSONPath))
		}
		state.addFailed(packageJSONPath)
	}
	return nil
}

// probePackageJSON reads packageJSONPath from the host.
func probePackageJSON(packageDirectory, packageJSONPath string, state *State) (CacheEntry, error) {
	dirExists := directoryExists(state.Host, packageDirectory)
	if !dirExists || !state.Host.FileExists(packageJSONPath) {
		return &MissingPackageJSONInfo{PackageDirectory: packageDirectory, DirectoryExists: dirExists}, nil
	}
	data, ok := state.Host.ReadFile(packageJSONPath)
	if !ok {
		return &MissingPackageJSONInfo{PackageDirectory: packageDirectory, DirectoryExists: dirExists}, nil
	}
	fields, err := parsePackageJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", packageJSONPath, err)
	}
	for _, name := range fields.Mistyped {
		state.trace(fmt.Sprintf("Expected type of '%s' field in 'package.json' to be a different type; ignoring.", name),
			slog.String("path", packageJSONPath))
	}
	return &PackageJSONInfo{PackageDirectory: packageDirectory, Contents: NewPackageJSONContents(fields)}, nil
}

// IsMalformed reports whether err came from an unparsable package.json.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedPackageJSON)
}
