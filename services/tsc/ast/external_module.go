// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// IsFileProbablyExternalModule returns the first top-level import or
// export, or an import.meta use, or nil.
func IsFileProbablyExternalModule(file *SourceFile) *Node {
	for _, s := range file.Statements() {
		if isAnExternalModuleIndicatorNode(s) {
			return s
		}
	}
	var meta *Node
	Walk(file.Root, func(n *Node) bool {
		if meta != nil {
			return false
		}
		if n.Kind == KindMetaProperty && n.Text == "import.meta" {
			meta = n
			return false
		}
		return true
	})
	return meta
}

func isAnExternalModuleIndicatorNode(n *Node) bool {
	if n.Modifiers&ModifierFlagsExport != 0 {
		return true
	}
	switch n.Kind {
	case KindImportDeclaration, KindExportAssignment, KindExportDeclaration:
		return true
	case KindImportEqualsDeclaration:
		return n.Expression != nil && n.Expression.Kind == KindExternalModuleReference
	}
	return false
}

// IsFileForcedToBeModuleByFormat reports non-declaration files whose
// extension or implied format makes them ES or CommonJS modules.
func IsFileForcedToBeModuleByFormat(file *SourceFile, impliedFormat options.ResolutionMode) bool {
	if file.IsDeclarationFile {
		return false
	}
	return impliedFormat == options.ResolutionModeESM ||
		tspath.FileExtensionIsOneOf(file.FileName, tspath.ExtensionCjs, tspath.ExtensionCts, tspath.ExtensionMjs, tspath.ExtensionMts)
}

func isFileModuleFromUsingJSXTag(file *SourceFile) *Node {
	if file.IsDeclarationFile {
		return nil
	}
	var tag *Node
	Walk(file.Root, func(n *Node) bool {
		if tag != nil {
			return false
		}
		if n.Kind == KindJsxElement {
			tag = n
			return false
		}
		return true
	})
	return tag
}

// ComputeExternalModuleIndicator decides whether file is a module.
//
// Description:
//
//	Returns the node that makes the file a module, or nil for a script.
//	Under moduleDetection "force" every non-declaration file is a module
//	(the root node is returned). Under "legacy" only imports, exports and
//	import.meta count. Under "auto" the react-jsx runtimes add JSX tags
//	and the implied format forces ESM files and .mts/.cts/.mjs/.cjs.
//
// Inputs:
//
//	file - Parsed source file.
//	opts - Compiler options. Must not be nil.
//	impliedFormat - Implied node format of the file.
//
// Outputs:
//
//	*Node - The indicator node or nil.
func ComputeExternalModuleIndicator(file *SourceFile, opts *options.CompilerOptions, impliedFormat options.ResolutionMode) *Node {
	probable := IsFileProbablyExternalModule(file)
	switch opts.GetEmitModuleDetectionKind() {
	case options.ModuleDetectionKindForce:
		if probable != nil {
			return probable
		}
		if !file.IsDeclarationFile {
			return file.Root
		}
		return nil
	case options.ModuleDetectionKindLegacy:
		return probable
	default:
		if probable != nil {
			return probable
		}
		if opts.Jsx == options.JsxEmitReactJSX || opts.Jsx == options.JsxEmitReactJSXDev {
			if tag := isFileModuleFromUsingJSXTag(file); tag != nil {
				return tag
			}
		}
		if IsFileForcedToBeModuleByFormat(file, impliedFormat) {
			return file.Root
		}
		return nil
	}
}
