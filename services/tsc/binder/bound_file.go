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
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// FunctionFacts records what binding learned about a function body.
type FunctionFacts struct {
	// HasImplicitReturn is set when the end of the body is reachable.
	HasImplicitReturn bool

	// HasExplicitReturn is set when the body contains a reachable return
	// statement.
	HasExplicitReturn bool
}

// BoundFile is the result of binding one source file.
//
// Description:
//
//	Symbols, locals and flow nodes are attached to the syntax tree through
//	side-tables keyed by node identity, so the tree itself is never
//	mutated by binding. Every accessor returns the zero value for nodes
//	the binder did not annotate.
//
// Thread Safety: A BoundFile is read-only once Bind returns and may be
// shared across goroutines.
type BoundFile struct {
	// File is the bound source file.
	File *ast.SourceFile

	// Symbol is the module symbol when the file is an external module.
	Symbol *symbols.Symbol

	// Locals holds the file's top-level declarations.
	Locals *symbols.Table

	// ExternalModuleIndicator is the node that makes the file a module, or
	// nil for scripts.
	ExternalModuleIndicator *ast.Node

	// Diagnostics are the binder's own diagnostics, in report order.
	Diagnostics []*diagnostics.Diagnostic

	// SymbolCount is the number of symbols created for the file.
	SymbolCount int

	// ClassifiableNames holds names declared as classes, enums, type
	// aliases, interfaces, type parameters, modules or aliases.
	ClassifiableNames map[string]struct{}

	symbolOf        ast.SideTable[*symbols.Symbol]
	localSymbolOf   ast.SideTable[*symbols.Symbol]
	localsOf        ast.SideTable[*symbols.Table]
	flowNodeOf      ast.SideTable[*flow.Node]
	endFlowOf       ast.SideTable[*flow.Node]
	returnFlowOf    ast.SideTable[*flow.Node]
	functionFacts   ast.SideTable[FunctionFacts]
	exhaustive      ast.SideTable[bool]
	fallthroughFlow ast.SideTable[*flow.Node]
}

// IsExternalModule reports whether the file has module syntax or was
// forced to be a module.
func (f *BoundFile) IsExternalModule() bool {
	return f.ExternalModuleIndicator != nil
}

// SymbolOf returns the symbol declared by node.
func (f *BoundFile) SymbolOf(node *ast.Node) *symbols.Symbol {
	return f.symbolOf.Lookup(node)
}

// LocalSymbolOf returns the module-local twin of an exported
// declaration.
func (f *BoundFile) LocalSymbolOf(node *ast.Node) *symbols.Symbol {
	return f.localSymbolOf.Lookup(node)
}

// LocalsOf returns the locals table of a container or block scope.
func (f *BoundFile) LocalsOf(node *ast.Node) *symbols.Table {
	return f.localsOf.Lookup(node)
}

// FlowNodeOf returns the flow node current when node was bound. It is
// recorded for statements and for references in expression position.
func (f *BoundFile) FlowNodeOf(node *ast.Node) *flow.Node {
	return f.flowNodeOf.Lookup(node)
}

// EndFlowNodeOf returns the flow at the end of a function body or source
// file, or nil when the end is unreachable.
func (f *BoundFile) EndFlowNodeOf(node *ast.Node) *flow.Node {
	return f.endFlowOf.Lookup(node)
}

// ReturnFlowNodeOf returns the join of all return paths of a constructor
// or class static block.
func (f *BoundFile) ReturnFlowNodeOf(node *ast.Node) *flow.Node {
	return f.returnFlowOf.Lookup(node)
}

// FunctionFactsOf returns the return facts of a function-like node.
func (f *BoundFile) FunctionFactsOf(node *ast.Node) FunctionFacts {
	return f.functionFacts.Lookup(node)
}

// IsPossiblyExhaustive reports whether a switch statement has no default
// clause and no clause completes normally, so its end is reachable only
// when no clause matches.
func (f *BoundFile) IsPossiblyExhaustive(switchStatement *ast.Node) bool {
	return f.exhaustive.Lookup(switchStatement)
}

// FallthroughFlowOf returns the flow at the end of a clause that falls
// into the next one. It is recorded only under noFallthroughCasesInSwitch.
func (f *BoundFile) FallthroughFlowOf(clause *ast.Node) *flow.Node {
	return f.fallthroughFlow.Lookup(clause)
}
