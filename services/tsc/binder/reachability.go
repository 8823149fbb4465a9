// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package binder

import (
	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/flow"
)

// ModuleInstanceState classifies a namespace by what it emits.
type ModuleInstanceState int

const (
	// ModuleInstanceStateNonInstantiated namespaces contain only types.
	ModuleInstanceStateNonInstantiated ModuleInstanceState = iota
	// ModuleInstanceStateInstantiated namespaces contain values.
	ModuleInstanceStateInstantiated
	// ModuleInstanceStateConstEnumOnly namespaces contain only types and
	// const enums.
	ModuleInstanceStateConstEnumOnly
)

func (s ModuleInstanceState) String() string {
	switch s {
	case ModuleInstanceStateNonInstantiated:
		return "NonInstantiated"
	case ModuleInstanceStateInstantiated:
		return "Instantiated"
	case ModuleInstanceStateConstEnumOnly:
		return "ConstEnumOnly"
	}
	return "Unknown"
}

// GetModuleInstanceState returns the instance state of a module
// declaration, or of any statement inside one.
func GetModuleInstanceState(node *ast.Node) ModuleInstanceState {
	if node == nil {
		return ModuleInstanceStateInstantiated
	}
	if node.Kind == ast.KindModuleDeclaration {
		if node.Body == nil {
			return ModuleInstanceStateInstantiated
		}
		return GetModuleInstanceState(node.Body)
	}
	return moduleInstanceStateWorker(node)
}

func moduleInstanceStateWorker(node *ast.Node) ModuleInstanceState {
	switch node.Kind {
	case ast.KindInterfaceDeclaration, ast.KindTypeAliasDeclaration:
		return ModuleInstanceStateNonInstantiated
	case ast.KindEnumDeclaration:
		if ast.IsEnumConst(node) {
			return ModuleInstanceStateConstEnumOnly
		}
	case ast.KindImportDeclaration, ast.KindImportEqualsDeclaration:
		if !node.HasModifier(ast.ModifierFlagsExport) {
			return ModuleInstanceStateNonInstantiated
		}
	case ast.KindExportDeclaration:
		if node.Flags&ast.NodeFlagsTypeOnly != 0 {
			return ModuleInstanceStateNonInstantiated
		}
		if node.ModuleSpecifier == nil && node.Clause != nil && node.Clause.Kind == ast.KindNamedExports {
			state := ModuleInstanceStateNonInstantiated
			for _, specifier := range node.Clause.Elements {
				specifierState := exportSpecifierState(specifier)
				if specifierState > state {
					state = specifierState
				}
				if state == ModuleInstanceStateInstantiated {
					return state
				}
			}
			return state
		}
	case ast.KindModuleBlock:
		state := ModuleInstanceStateNonInstantiated
		for _, statement := range node.Statements {
			switch childState := moduleInstanceStateWorker(statement); childState {
			case ModuleInstanceStateInstantiated:
				return childState
			case ModuleInstanceStateConstEnumOnly:
				state = childState
			}
		}
		return state
	case ast.KindModuleDeclaration:
		return GetModuleInstanceState(node)
	}
	return ModuleInstanceStateInstantiated
}

// exportSpecifierState resolves "export { x }" inside a namespace to the
// state of the local declaration of x.
func exportSpecifierState(specifier *ast.Node) ModuleInstanceState {
	name := specifier.PropertyName
	if name == nil {
		name = specifier.Name
	}
	if name == nil || name.Kind != ast.KindIdentifier || specifier.Flags&ast.NodeFlagsTypeOnly != 0 {
		return ModuleInstanceStateNonInstantiated
	}
	for p := specifier.Parent(); p != nil; p = p.Parent() {
		if p.Kind != ast.KindModuleBlock && p.Kind != ast.KindSourceFile {
			continue
		}
		found := ModuleInstanceStateNonInstantiated
		matched := false
		for _, statement := range p.Statements {
			if declaresName(statement, name.Text) {
				matched = true
				if state := moduleInstanceStateWorker(statement); state > found {
					found = state
				}
			}
		}
		if matched {
			return found
		}
	}
	return ModuleInstanceStateInstantiated
}

func declaresName(statement *ast.Node, name string) bool {
	if statement.Name != nil && statement.Name.Kind == ast.KindIdentifier {
		return statement.Name.Text == name
	}
	return false
}

func (b *binder) shouldPreserveConstEnums() bool {
	return b.opts.PreserveConstEnums.IsTrue() || b.opts.GetIsolatedModules()
}

func (b *binder) isEnumDeclarationWithPreservedEmit(node *ast.Node) bool {
	return node.Kind == ast.KindEnumDeclaration && (!ast.IsEnumConst(node) || b.shouldPreserveConstEnums())
}

func (b *binder) shouldReportErrorOnModuleDeclaration(node *ast.Node) bool {
	state := GetModuleInstanceState(node)
	return state == ModuleInstanceStateInstantiated ||
		(state == ModuleInstanceStateConstEnumOnly && b.shouldPreserveConstEnums())
}

// checkUnreachable reports whether node is in unreachable code, and
// reports the first unreachable statement of each region.
//
// Description:
//
//	Only the Unreachable sentinel triggers a report; the current flow is
//	then switched to ReportedUnreachable so the rest of the region stays
//	silent. Severity follows allowUnreachableCode: false is an error,
//	unset a suggestion, true suppresses the report.
func (b *binder) checkUnreachable(node *ast.Node) bool {
	if !flow.IsUnreachable(b.currentFlow) {
		return false
	}
	if b.currentFlow != flow.Unreachable {
		return true
	}
	reportError := (ast.IsStatementButNotDeclaration(node) && node.Kind != ast.KindEmptyStatement) ||
		node.Kind == ast.KindClassDeclaration ||
		b.isEnumDeclarationWithPreservedEmit(node) ||
		(node.Kind == ast.KindModuleDeclaration && b.shouldReportErrorOnModuleDeclaration(node))
	if !reportError {
		return true
	}
	b.currentFlow = flow.ReportedUnreachable
	if b.opts.AllowUnreachableCode.IsTrue() {
		return true
	}
	isError := b.opts.AllowUnreachableCode.IsFalse() && !ast.IsInAmbientContext(node) &&
		(node.Kind != ast.KindVariableStatement || isBlockScopedOrInitialized(node))
	b.eachUnreachableRange(node, func(first, last *ast.Node) {
		b.errorOrSuggestionOnRange(isError, first, last, diagnostics.UnreachableCodeDetected)
	})
	return true
}

// isBlockScopedOrInitialized reports variable statements that are not
// plain "var" declarations without initializers.
func isBlockScopedOrInitialized(statement *ast.Node) bool {
	list := statement.DeclarationList
	if list == nil {
		return true
	}
	if list.Flags&ast.NodeFlagsBlockScoped != 0 {
		return true
	}
	for _, d := range list.Declarations {
		if d.Initializer != nil {
			return true
		}
	}
	return false
}

// eachUnreachableRange calls report once per run of consecutive
// executable statements starting at node.
func (b *binder) eachUnreachableRange(node *ast.Node, report func(first, last *ast.Node)) {
	parent := node.Parent()
	if !ast.IsStatement(node) || !b.isExecutableStatement(node) || parent == nil ||
		(parent.Kind != ast.KindBlock && parent.Kind != ast.KindModuleBlock && parent.Kind != ast.KindSourceFile &&
			parent.Kind != ast.KindCaseClause && parent.Kind != ast.KindDefaultClause) {
		report(node, node)
		return
	}
	statements := parent.Statements
	index := -1
	for i, s := range statements {
		if s == node {
			index = i
			break
		}
	}
	if index < 0 {
		report(node, node)
		return
	}
	rest := statements[index:]
	for i := 0; i < len(rest); i++ {
		if !b.isExecutableStatement(rest[i]) {
			continue
		}
		start := i
		for i+1 < len(rest) && b.isExecutableStatement(rest[i+1]) {
			i++
		}
		report(rest[start], rest[i])
	}
}

func (b *binder) isExecutableStatement(s *ast.Node) bool {
	return s.Kind != ast.KindFunctionDeclaration && !b.isPurelyTypeDeclaration(s) && !hasUninitializedVar(s)
}

// hasUninitializedVar reports "var" statements with at least one
// declaration lacking an initializer; they only hoist a name.
func hasUninitializedVar(s *ast.Node) bool {
	list := s.DeclarationList
	if s.Kind != ast.KindVariableStatement || list == nil || list.Flags&ast.NodeFlagsBlockScoped != 0 {
		return false
	}
	for _, d := range list.Declarations {
		if d.Initializer == nil {
			return true
		}
	}
	return false
}

func (b *binder) isPurelyTypeDeclaration(s *ast.Node) bool {
	switch s.Kind {
	case ast.KindInterfaceDeclaration, ast.KindTypeAliasDeclaration:
		return true
	case ast.KindModuleDeclaration:
		return GetModuleInstanceState(s) != ModuleInstanceStateInstantiated
	case ast.KindEnumDeclaration:
		return !b.isEnumDeclarationWithPreservedEmit(s)
	}
	return false
}
