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
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// ResolvedModule is a successful resolution.
type ResolvedModule struct {
	// ResolvedFileName is the absolute path of the file found.
	ResolvedFileName string

	// Extension is the recognized extension of ResolvedFileName.
	Extension string

	// IsExternalLibraryImport is true when the file was found through a
	// node_modules directory.
	IsExternalLibraryImport bool

	// PackageName is set for node_modules resolutions.
	PackageName string

	FailedLookupLocations []string
	AffectingLocations    []string
}

// Resolver resolves import specifiers to files.
//
// Description:
//
//	Relative and absolute specifiers are tried as a file (probing
//	extensions) and then as a directory (package.json types, typings and
//	main fields, then index). Bare specifiers walk node_modules and
//	node_modules/@types in each ancestor directory. typesVersions path
//	maps are applied to package subpaths. The exports and imports maps
//	of package.json are not interpreted.
//
// Thread Safety: Safe for concurrent use when the Host and Cache are.
type Resolver struct {
	host    Host
	options *options.CompilerOptions
	cache   Cache
	logger  *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger for resolution traces.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver.
//
// Inputs:
//
//	host - File system. Must not be nil.
//	compilerOptions - Nil means defaults.
//	cache - Shared package.json cache. Nil means a fresh MemoryCache.
//	opts - Optional settings.
func NewResolver(host Host, compilerOptions *options.CompilerOptions, cache Cache, opts ...ResolverOption) (*Resolver, error) {
	if host == nil {
		return nil, errors.New("resolver: host must not be nil")
	}
	if compilerOptions == nil {
		compilerOptions = &options.CompilerOptions{}
	}
	if cache == nil {
		cache = NewMemoryCache(WithCaseSensitivity(useCaseSensitiveFileNames(host)))
	}
	r := &Resolver{host: host, options: compilerOptions, cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Cache returns the package.json cache the resolver reads through.
func (r *Resolver) Cache() Cache {
	return r.cache
}

// resolution is the per-call state of ResolveModuleName.
type resolution struct {
	*State
	extensions []string
}

// ResolveModuleName resolves specifier as imported from containingFile.
//
// Inputs:
//
//	ctx - Request context.
//	specifier - The import string, e.g. "./util" or "lodash/fp".
//	containingFile - Absolute path of the importing file.
//	mode - The importing file's format. ESM imports of relative paths do
//	  not probe extensions under node16 and nodenext.
//
// Outputs:
//
//	*ResolvedModule - The result, or nil when nothing was found.
//	error - ctx.Err() when cancelled.
func (r *Resolver) ResolveModuleName(ctx context.Context, specifier, containingFile string, mode options.ResolutionMode) (*ResolvedModule, error) {
	ctx, span := tracer.Start(ctx, "moduleresolution.ResolveModuleName",
		trace.WithAttributes(
			attribute.String("specifier", specifier),
			attribute.String("containing_file", containingFile)))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := NewState(ctx, r.host, r.options, r.cache, RecordLocations(), WithStateLogger(r.logger))
	res := &resolution{State: state, extensions: r.extensions()}
	state.trace("======== Resolving module ========",
		slog.String("specifier", specifier),
		slog.String("from", containingFile))

	containingDir := tspath.GetDirectoryPath(containingFile)
	var (
		resolved    string
		packageName string
		external    bool
	)
	if tspath.PathIsRelative(specifier) || tspath.IsRootedDiskPath(specifier) {
		candidate := tspath.NormalizePath(tspath.CombinePaths(containingDir, specifier))
		exactOnly := mode == options.ResolutionModeESM && r.strictESMExtensions()
		resolved = res.loadModuleFromFile(candidate, exactOnly)
		if resolved == "" && !exactOnly {
			resolved = res.loadAsDirectory(candidate, !directoryExists(r.host, candidate))
		}
	} else {
		resolved, packageName = res.loadFromNodeModules(containingDir, specifier)
		external = resolved != ""
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recordResolution(resolved != "")
	if resolved == "" {
		state.trace("======== Module name was not resolved ========", slog.String("specifier", specifier))
		span.SetAttributes(attribute.Bool("resolved", false))
		return nil, nil
	}
	resolved = r.realpath(resolved, external)
	state.trace("======== Module name was successfully resolved ========",
		slog.String("specifier", specifier),
		slog.String("resolved", resolved))
	span.SetAttributes(attribute.Bool("resolved", true), attribute.String("resolved_file", resolved))
	return &ResolvedModule{
		ResolvedFileName:        resolved,
		Extension:               tspath.TryGetExtensionFromPath(resolved),
		IsExternalLibraryImport: external,
		PackageName:             packageName,
		FailedLookupLocations:   state.FailedLookupLocations,
		AffectingLocations:      state.AffectingLocations,
	}, nil
}

func (r *Resolver) realpath(path string, external bool) string {
	if !external || r.options.PreserveSymlinks.IsTrue() {
		return path
	}
	return realpath(r.host, path)
}

func (r *Resolver) strictESMExtensions() bool {
	kind := r.options.GetModuleResolutionKind()
	return kind == options.ModuleResolutionKindNode16 || kind == options.ModuleResolutionKindNodeNext
}

// extensions lists the probed extensions in priority order.
func (r *Resolver) extensions() []string {
	exts := []string{tspath.ExtensionTs, tspath.ExtensionTsx, tspath.ExtensionDts}
	if r.options.AllowJs.IsTrue() {
		exts = append(exts, tspath.ExtensionJs, tspath.ExtensionJsx)
	}
	if r.options.GetResolveJSONModule() {
		exts = append(exts, tspath.ExtensionJSON)
	}
	return exts
}

// jsToTS maps a JavaScript extension written in a specifier to the source
// extensions that produce it.
var jsToTS = []struct {
	js  string
	tsx []string
}{
	{tspath.ExtensionMjs, []string{tspath.ExtensionMts, tspath.ExtensionDmts}},
	{tspath.ExtensionCjs, []string{tspath.ExtensionCts, tspath.ExtensionDcts}},
	{tspath.ExtensionJsx, []string{tspath.ExtensionTsx, tspath.ExtensionDts}},
	{tspath.ExtensionJs, []string{tspath.ExtensionTs, tspath.ExtensionTsx, tspath.ExtensionDts}},
}

// loadModuleFromFile tries candidate with each extension. A specifier
// that already ends in a JavaScript extension is mapped to its sources
// first. exactOnly skips appending extensions.
func (res *resolution) loadModuleFromFile(candidate string, exactOnly bool) string {
	for _, m := range jsToTS {
		if !tspath.FileExtensionIs(candidate, m.js) {
			continue
		}
		base := strings.TrimSuffix(candidate, m.js)
		for _, ext := range m.tsx {
			if found := res.tryFile(base + ext); found != "" {
				return found
			}
		}
		if res.Options.AllowJs.IsTrue() {
			if found := res.tryFile(candidate); found != "" {
				return found
			}
		}
		return ""
	}
	if ext := tspath.TryGetExtensionFromPath(candidate); ext != "" {
		if ext == tspath.ExtensionJSON && !res.Options.GetResolveJSONModule() {
			return ""
		}
		if found := res.tryFile(candidate); found != "" {
			return found
		}
		if ext == tspath.ExtensionJSON {
			return ""
		}
	}
	if exactOnly {
		return ""
	}
	for _, ext := range res.extensions {
		if found := res.tryFile(candidate + ext); found != "" {
			return found
		}
	}
	return ""
}

func (res *resolution) tryFile(path string) string {
	if res.Host.FileExists(path) {
		res.trace("File exists - use it as a name resolution result.", slog.String("path", path))
		return path
	}
	res.trace("File does not exist.", slog.String("path", path))
	res.addFailed(path)
	return ""
}

// loadAsDirectory resolves dir through its package.json entry fields and
// then its index file.
func (res *resolution) loadAsDirectory(dir string, onlyRecordFailures bool) string {
	info, err := GetPackageJSONInfo(dir, onlyRecordFailures, res.State)
	if err == nil && info != nil {
		if found := res.loadFromPackageEntry(dir, info); found != "" {
			return found
		}
	}
	if onlyRecordFailures {
		return ""
	}
	return res.loadModuleFromFile(tspath.CombinePaths(dir, "index"), false)
}

// loadFromPackageEntry follows types, typings and then main. The entry
// path is remapped through typesVersions when a pattern matches it.
func (res *resolution) loadFromPackageEntry(dir string, info *PackageJSONInfo) string {
	fields := info.Contents.Fields
	for _, entry := range []string{fields.Types, fields.Typings, fields.Main} {
		if entry == "" {
			continue
		}
		rel := strings.TrimPrefix(tspath.NormalizePath(entry), "./")
		if vp := info.Contents.VersionPaths(); vp != nil {
			if found := res.loadFromVersionPaths(dir, rel, vp); found != "" {
				return found
			}
		}
		path := tspath.NormalizePath(tspath.CombinePaths(dir, entry))
		if found := res.loadModuleFromFile(path, false); found != "" {
			return found
		}
		if directoryExists(res.Host, path) {
			if found := res.loadModuleFromFile(tspath.CombinePaths(path, "index"), false); found != "" {
				return found
			}
		}
	}
	return ""
}

// loadFromVersionPaths maps subpath through the selected typesVersions
// patterns and probes each substitution in order.
func (res *resolution) loadFromVersionPaths(dir, subpath string, vp *VersionPaths) string {
	pattern, captured, ok := bestPatternMatch(vp.Paths, subpath)
	if !ok {
		return ""
	}
	res.trace("Resolving through typesVersions.",
		slog.String("version", vp.Version),
		slog.String("pattern", pattern),
		slog.String("subpath", subpath))
	for _, substitution := range vp.Paths[pattern] {
		target := strings.Replace(substitution, "*", captured, 1)
		path := tspath.NormalizePath(tspath.CombinePaths(dir, target))
		if tspath.TryGetExtensionFromPath(path) != "" {
			if found := res.tryFile(path); found != "" {
				return found
			}
		}
		if found := res.loadModuleFromFile(path, false); found != "" {
			return found
		}
		if directoryExists(res.Host, path) {
			if found := res.loadAsDirectory(path, false); found != "" {
				return found
			}
		}
	}
	return ""
}

// loadFromNodeModules walks ancestors of dir looking in node_modules and
// then node_modules/@types.
func (res *resolution) loadFromNodeModules(dir, specifier string) (string, string) {
	packageName, rest := parsePackageName(specifier)
	found, _ := tspath.ForEachAncestorDirectory(dir, func(ancestor string) (string, bool) {
		if err := res.Context().Err(); err != nil {
			return "", true
		}
		if tspath.GetBaseFileName(ancestor) == "node_modules" {
			return "", false
		}
		nodeModules := tspath.CombinePaths(ancestor, "node_modules")
		if !directoryExists(res.Host, nodeModules) {
			res.addFailed(nodeModules)
			return "", false
		}
		if found := res.loadFromPackage(tspath.CombinePaths(nodeModules, packageName), rest); found != "" {
			return found, true
		}
		typesDir := tspath.CombinePaths(nodeModules, "@types", mangleScopedPackageName(packageName))
		if found := res.loadFromPackage(typesDir, rest); found != "" {
			return found, true
		}
		return "", false
	})
	if found == "" {
		return "", ""
	}
	return found, packageName
}

func (res *resolution) loadFromPackage(packageDir, rest string) string {
	exists := directoryExists(res.Host, packageDir)
	if rest == "" {
		return res.loadAsDirectory(packageDir, !exists)
	}
	info, err := GetPackageJSONInfo(packageDir, !exists, res.State)
	if !exists {
		return ""
	}
	if err == nil && info != nil {
		if vp := info.Contents.VersionPaths(); vp != nil {
			if found := res.loadFromVersionPaths(packageDir, rest, vp); found != "" {
				return found
			}
		}
	}
	candidate := tspath.CombinePaths(packageDir, rest)
	if found := res.loadModuleFromFile(candidate, false); found != "" {
		return found
	}
	return res.loadAsDirectory(candidate, !directoryExists(res.Host, candidate))
}

// parsePackageName splits "pkg/sub" or "@scope/pkg/sub" into the package
// name and the subpath.
func parsePackageName(specifier string) (string, string) {
	parts := strings.Split(specifier, "/")
	n := 1
	if strings.HasPrefix(specifier, "@") && len(parts) > 1 {
		n = 2
	}
	if n > len(parts) {
		n = len(parts)
	}
	return strings.Join(parts[:n], "/"), strings.Join(parts[n:], "/")
}

// mangleScopedPackageName maps "@scope/pkg" to its @types name
// "scope__pkg".
func mangleScopedPackageName(name string) string {
	if strings.HasPrefix(name, "@") {
		if scope, pkg, ok := strings.Cut(name[1:], "/"); ok {
			return scope + "__" + pkg
		}
	}
	return name
}
