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

	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// ImpliedFormat is the module format decided for a file, with the
// package.json evidence behind it.
type ImpliedFormat struct {
	Format options.ResolutionMode

	// PackageJSONLocations are every package.json path consulted, found
	// or not. A change to any of them can change Format.
	PackageJSONLocations []string

	// PackageJSONScope is the nearest package.json, when one was
	// consulted and found.
	PackageJSONScope *PackageJSONInfo
}

// GetImpliedNodeFormatForFile returns the module format fileName is
// implied to use, or ResolutionModeNone.
func GetImpliedNodeFormatForFile(ctx context.Context, fileName string, cache Cache, host Host, compilerOptions *options.CompilerOptions) options.ResolutionMode {
	result, ok := GetImpliedNodeFormatForFileWorker(ctx, fileName, cache, host, compilerOptions)
	if !ok {
		return options.ResolutionModeNone
	}
	return result.Format
}

// GetImpliedNodeFormatForFileWorker decides a file's module format.
//
// Description:
//
//	The extension decides first and unconditionally: .mts, .mjs and .d.mts
//	are ESM; .cts, .cjs and .d.cts are CommonJS. For .ts, .tsx, .d.ts, .js
//	and .jsx the nearest package.json's "type" field decides ("module" is
//	ESM, anything else CommonJS), but only under the node16, nodenext and
//	bundler resolution modes or when the file is inside node_modules.
//	Every other case has no implied format.
//
// Inputs:
//
//	ctx - Request context, used for tracing.
//	fileName - Absolute normalized path. The file need not exist.
//	cache - Shared package.json cache, or nil.
//	host - File system.
//	compilerOptions - Consulted for moduleResolution and traceResolution.
//
// Outputs:
//
//	ImpliedFormat - The decision and its evidence.
//	bool - False when the file has no implied format.
func GetImpliedNodeFormatForFileWorker(ctx context.Context, fileName string, cache Cache, host Host, compilerOptions *options.CompilerOptions) (ImpliedFormat, bool) {
	if compilerOptions == nil {
		compilerOptions = &options.CompilerOptions{}
	}
	switch {
	case tspath.FileExtensionIsOneOf(fileName, tspath.ExtensionDmts, tspath.ExtensionMts, tspath.ExtensionMjs):
		return ImpliedFormat{Format: options.ResolutionModeESM}, true
	case tspath.FileExtensionIsOneOf(fileName, tspath.ExtensionDcts, tspath.ExtensionCts, tspath.ExtensionCjs):
		return ImpliedFormat{Format: options.ResolutionModeCommonJS}, true
	}

	lookup := compilerOptions.GetModuleResolutionKind().UsesPackageJSONType() || tspath.ContainsNodeModules(fileName)
	if !lookup || !tspath.FileExtensionIsOneOf(fileName,
		tspath.ExtensionDts, tspath.ExtensionTs, tspath.ExtensionTsx, tspath.ExtensionJs, tspath.ExtensionJsx) {
		return ImpliedFormat{}, false
	}

	state := NewState(ctx, host, compilerOptions, cache, RecordLocations())
	scope := GetPackageScopeForPath(tspath.GetDirectoryPath(fileName), state)
	format := options.ResolutionModeCommonJS
	if scope.Type() == "module" {
		format = options.ResolutionModeESM
	}
	locations := make([]string, 0, len(state.FailedLookupLocations)+len(state.AffectingLocations))
	locations = append(locations, state.FailedLookupLocations...)
	locations = append(locations, state.AffectingLocations...)
	return ImpliedFormat{
		Format:               format,
		PackageJSONLocations: locations,
		PackageJSONScope:     scope,
	}, true
}

// GetImpliedNodeFormatForEmit returns the format a file is emitted in.
//
// Under module node16 through nodenext the implied format is used as is.
// Otherwise a format is reported only when it is explicit: a CommonJS
// file whose package.json says "commonjs" or whose extension is .cjs or
// .cts, or an ESM file whose package.json says "module" or whose
// extension is .mjs or .mts.
func GetImpliedNodeFormatForEmit(fileName string, implied options.ResolutionMode, scope *PackageJSONInfo, compilerOptions *options.CompilerOptions) options.ResolutionMode {
	moduleKind := compilerOptions.GetEmitModuleKind()
	if moduleKind >= options.ModuleKindNode16 && moduleKind <= options.ModuleKindNodeNext {
		return implied
	}
	packageType := scope.Type()
	switch {
	case implied == options.ResolutionModeCommonJS &&
		(packageType == "commonjs" || tspath.FileExtensionIsOneOf(fileName, tspath.ExtensionCjs, tspath.ExtensionCts)):
		return options.ResolutionModeCommonJS
	case implied == options.ResolutionModeESM &&
		(packageType == "module" || tspath.FileExtensionIsOneOf(fileName, tspath.ExtensionMjs, tspath.ExtensionMts)):
		return options.ResolutionModeESM
	}
	return options.ResolutionModeNone
}
