// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package options defines CompilerOptions, the flat configuration record
// consulted by every front-end component, and the project config loader.
package options

import "errors"

// ErrInvalidConfig is returned for malformed or out-of-range configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// CompilerOptions is the flat record of optional compiler settings.
//
// Description:
//
//	Every field is independently optional: booleans are Tristate, enums use
//	their zero value for "not set", strings and slices are empty. Derived
//	values (effective target, module kind, resolution kind) are computed by
//	the Get* methods, never stored.
//
// Thread Safety: Read-only after construction; share by pointer.
type CompilerOptions struct {
	AllowArbitraryExtensions           Tristate `yaml:"allowArbitraryExtensions"`
	AllowImportingTsExtensions         Tristate `yaml:"allowImportingTsExtensions"`
	AllowJs                            Tristate `yaml:"allowJs"`
	AllowSyntheticDefaultImports       Tristate `yaml:"allowSyntheticDefaultImports"`
	AllowUmdGlobalAccess               Tristate `yaml:"allowUmdGlobalAccess"`
	AllowUnreachableCode               Tristate `yaml:"allowUnreachableCode"`
	AllowUnusedLabels                  Tristate `yaml:"allowUnusedLabels"`
	AlwaysStrict                       Tristate `yaml:"alwaysStrict"`
	CheckJs                            Tristate `yaml:"checkJs"`
	Composite                          Tristate `yaml:"composite"`
	Declaration                        Tristate `yaml:"declaration"`
	DeclarationMap                     Tristate `yaml:"declarationMap"`
	DownlevelIteration                 Tristate `yaml:"downlevelIteration"`
	EmitDeclarationOnly                Tristate `yaml:"emitDeclarationOnly"`
	ESModuleInterop                    Tristate `yaml:"esModuleInterop"`
	ExactOptionalPropertyTypes         Tristate `yaml:"exactOptionalPropertyTypes"`
	ExperimentalDecorators             Tristate `yaml:"experimentalDecorators"`
	ForceConsistentCasingInFileNames   Tristate `yaml:"forceConsistentCasingInFileNames"`
	ImportHelpers                      Tristate `yaml:"importHelpers"`
	Incremental                        Tristate `yaml:"incremental"`
	IsolatedDeclarations               Tristate `yaml:"isolatedDeclarations"`
	IsolatedModules                    Tristate `yaml:"isolatedModules"`
	NoEmit                             Tristate `yaml:"noEmit"`
	NoFallthroughCasesInSwitch         Tristate `yaml:"noFallthroughCasesInSwitch"`
	NoImplicitAny                      Tristate `yaml:"noImplicitAny"`
	NoImplicitOverride                 Tristate `yaml:"noImplicitOverride"`
	NoImplicitReturns                  Tristate `yaml:"noImplicitReturns"`
	NoImplicitThis                     Tristate `yaml:"noImplicitThis"`
	NoPropertyAccessFromIndexSignature Tristate `yaml:"noPropertyAccessFromIndexSignature"`
	NoUncheckedIndexedAccess           Tristate `yaml:"noUncheckedIndexedAccess"`
	NoUnusedLocals                     Tristate `yaml:"noUnusedLocals"`
	NoUnusedParameters                 Tristate `yaml:"noUnusedParameters"`
	PreserveConstEnums                 Tristate `yaml:"preserveConstEnums"`
	PreserveSymlinks                   Tristate `yaml:"preserveSymlinks"`
	RemoveComments                     Tristate `yaml:"removeComments"`
	ResolveJSONModule                  Tristate `yaml:"resolveJsonModule"`
	ResolvePackageJSONExports          Tristate `yaml:"resolvePackageJsonExports"`
	ResolvePackageJSONImports          Tristate `yaml:"resolvePackageJsonImports"`
	SkipLibCheck                       Tristate `yaml:"skipLibCheck"`
	SourceMap                          Tristate `yaml:"sourceMap"`
	Strict                             Tristate `yaml:"strict"`
	StrictBindCallApply                Tristate `yaml:"strictBindCallApply"`
	StrictFunctionTypes                Tristate `yaml:"strictFunctionTypes"`
	StrictNullChecks                   Tristate `yaml:"strictNullChecks"`
	StrictPropertyInitialization       Tristate `yaml:"strictPropertyInitialization"`
	TraceResolution                    Tristate `yaml:"traceResolution"`
	UseDefineForClassFields            Tristate `yaml:"useDefineForClassFields"`
	UseUnknownInCatchVariables         Tristate `yaml:"useUnknownInCatchVariables"`
	VerbatimModuleSyntax               Tristate `yaml:"verbatimModuleSyntax"`

	Jsx              JsxEmit              `yaml:"jsx"`
	Module           ModuleKind           `yaml:"module"`
	ModuleDetection  ModuleDetectionKind  `yaml:"moduleDetection"`
	ModuleResolution ModuleResolutionKind `yaml:"moduleResolution"`
	NewLine          NewLineKind          `yaml:"newLine"`
	Target           ScriptTarget         `yaml:"target"`

	BaseURL            string              `yaml:"baseUrl"`
	ConfigFilePath     string              `yaml:"-"`
	CustomConditions   []string            `yaml:"customConditions"`
	DeclarationDir     string              `yaml:"declarationDir"`
	JsxFactory         string              `yaml:"jsxFactory"`
	JsxFragmentFactory string              `yaml:"jsxFragmentFactory"`
	JsxImportSource    string              `yaml:"jsxImportSource"`
	Lib                []string            `yaml:"lib"`
	ModuleSuffixes     []string            `yaml:"moduleSuffixes"`
	OutDir             string              `yaml:"outDir"`
	OutFile            string              `yaml:"outFile"`
	Paths              map[string][]string `yaml:"paths"`
	RootDir            string              `yaml:"rootDir"`
	RootDirs           []string            `yaml:"rootDirs"`
	TypeRoots          []string            `yaml:"typeRoots"`
	Types              []string            `yaml:"types"`
}

// GetEmitScriptTarget returns the effective target. ES3 is treated as
// unset; an unset target follows the module kind.
func (o *CompilerOptions) GetEmitScriptTarget() ScriptTarget {
	if o.Target != ScriptTargetNone && o.Target != ScriptTargetES3 {
		return o.Target
	}
	switch o.Module {
	case ModuleKindNode16, ModuleKindNode18:
		return ScriptTargetES2022
	case ModuleKindNodeNext:
		return ScriptTargetESNext
	default:
		return ScriptTargetES5
	}
}

// GetEmitModuleKind returns the effective module kind.
func (o *CompilerOptions) GetEmitModuleKind() ModuleKind {
	if o.Module != ModuleKindNone {
		return o.Module
	}
	if o.GetEmitScriptTarget() >= ScriptTargetES2015 {
		return ModuleKindES2015
	}
	return ModuleKindCommonJS
}

// GetModuleResolutionKind returns the effective resolution strategy,
// derived from the module kind when unset.
func (o *CompilerOptions) GetModuleResolutionKind() ModuleResolutionKind {
	if o.ModuleResolution != ModuleResolutionKindUnknown {
		return o.ModuleResolution
	}
	switch o.GetEmitModuleKind() {
	case ModuleKindCommonJS:
		return ModuleResolutionKindNode10
	case ModuleKindNode16, ModuleKindNode18:
		return ModuleResolutionKindNode16
	case ModuleKindNodeNext:
		return ModuleResolutionKindNodeNext
	case ModuleKindPreserve:
		return ModuleResolutionKindBundler
	default:
		return ModuleResolutionKindClassic
	}
}

// GetEmitModuleDetectionKind returns the effective module detection mode.
func (o *CompilerOptions) GetEmitModuleDetectionKind() ModuleDetectionKind {
	if o.ModuleDetection != ModuleDetectionKindNone {
		return o.ModuleDetection
	}
	switch o.GetEmitModuleKind() {
	case ModuleKindNode16, ModuleKindNode18, ModuleKindNodeNext:
		return ModuleDetectionKindForce
	default:
		return ModuleDetectionKindAuto
	}
}

// GetStrictOptionValue resolves a strict-family flag: an explicit value
// wins, otherwise the umbrella Strict flag decides.
func (o *CompilerOptions) GetStrictOptionValue(value Tristate) bool {
	if value != TSUnknown {
		return value == TSTrue
	}
	return o.Strict == TSTrue
}

// GetAlwaysStrict reports whether every file is parsed in strict mode.
func (o *CompilerOptions) GetAlwaysStrict() bool {
	return o.GetStrictOptionValue(o.AlwaysStrict)
}

// GetIsolatedModules reports isolatedModules or verbatimModuleSyntax.
func (o *CompilerOptions) GetIsolatedModules() bool {
	return o.IsolatedModules.IsTrue() || o.VerbatimModuleSyntax.IsTrue()
}

// GetESModuleInterop defaults to true for the node and preserve module kinds.
func (o *CompilerOptions) GetESModuleInterop() bool {
	if o.ESModuleInterop != TSUnknown {
		return o.ESModuleInterop.IsTrue()
	}
	switch o.GetEmitModuleKind() {
	case ModuleKindNode16, ModuleKindNode18, ModuleKindNodeNext, ModuleKindPreserve:
		return true
	}
	return false
}

// GetAllowSyntheticDefaultImports follows esModuleInterop, System modules
// and bundler resolution when unset.
func (o *CompilerOptions) GetAllowSyntheticDefaultImports() bool {
	if o.AllowSyntheticDefaultImports != TSUnknown {
		return o.AllowSyntheticDefaultImports.IsTrue()
	}
	return o.GetESModuleInterop() ||
		o.GetEmitModuleKind() == ModuleKindSystem ||
		o.GetModuleResolutionKind() == ModuleResolutionKindBundler
}

// SupportsPackageJSONExportsAndImports reports whether the resolution
// kind understands package.json "exports" and "imports".
func (k ModuleResolutionKind) SupportsPackageJSONExportsAndImports() bool {
	return k >= ModuleResolutionKindNode16 && k <= ModuleResolutionKindBundler
}

// UsesPackageJSONType reports whether implied file formats consult the
// nearest package.json "type" field under this resolution kind.
func (k ModuleResolutionKind) UsesPackageJSONType() bool {
	return k == ModuleResolutionKindNode16 || k == ModuleResolutionKindNodeNext || k == ModuleResolutionKindBundler
}

// GetResolvePackageJSONExports reports whether "exports" maps are honoured.
func (o *CompilerOptions) GetResolvePackageJSONExports() bool {
	kind := o.GetModuleResolutionKind()
	if !kind.SupportsPackageJSONExportsAndImports() {
		return false
	}
	if o.ResolvePackageJSONExports != TSUnknown {
		return o.ResolvePackageJSONExports.IsTrue()
	}
	return true
}

// GetResolveJSONModule defaults to true under bundler resolution.
func (o *CompilerOptions) GetResolveJSONModule() bool {
	if o.ResolveJSONModule != TSUnknown {
		return o.ResolveJSONModule.IsTrue()
	}
	return o.GetModuleResolutionKind() == ModuleResolutionKindBundler
}
