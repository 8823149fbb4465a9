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
	"github.com/AleutianAI/tsfront/services/tsc/flow"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// containerFlags classify how a node scopes declarations and flow.
type containerFlags uint16

const (
	containerFlagsNone containerFlags = 0

	// containerFlagsIsContainer marks nodes that own a symbol table for
	// their declarations.
	containerFlagsIsContainer containerFlags = 1 << iota

	// containerFlagsIsBlockScopedContainer marks nodes that scope let,
	// const and class declarations.
	containerFlagsIsBlockScopedContainer

	// containerFlagsIsControlFlowContainer marks nodes that start a new
	// control-flow graph.
	containerFlagsIsControlFlowContainer

	containerFlagsIsFunctionLike
	containerFlagsIsFunctionExpression
	containerFlagsHasLocals
	containerFlagsIsInterface
	containerFlagsIsObjectLiteralOrClassExpressionMethodOrAccessor
)

func getContainerFlags(node *ast.Node) containerFlags {
	switch node.Kind {
	case ast.KindClassExpression, ast.KindClassDeclaration, ast.KindEnumDeclaration,
		ast.KindObjectLiteralExpression, ast.KindTypeLiteral:
		return containerFlagsIsContainer

	case ast.KindInterfaceDeclaration:
		return containerFlagsIsContainer | containerFlagsIsInterface

	case ast.KindModuleDeclaration, ast.KindTypeAliasDeclaration, ast.KindMappedType, ast.KindIndexSignature:
		return containerFlagsIsContainer | containerFlagsHasLocals

	case ast.KindSourceFile:
		return containerFlagsIsContainer | containerFlagsIsControlFlowContainer | containerFlagsHasLocals

	case ast.KindGetAccessor, ast.KindSetAccessor, ast.KindMethodDeclaration:
		if ast.IsObjectLiteralOrClassExpressionMethodOrAccessor(node) {
			return containerFlagsIsContainer | containerFlagsIsControlFlowContainer | containerFlagsHasLocals |
				containerFlagsIsFunctionLike | containerFlagsIsObjectLiteralOrClassExpressionMethodOrAccessor
		}
		return containerFlagsIsContainer | containerFlagsIsControlFlowContainer | containerFlagsHasLocals |
			containerFlagsIsFunctionLike

	case ast.KindConstructor, ast.KindFunctionDeclaration, ast.KindMethodSignature, ast.KindCallSignature,
		ast.KindConstructSignature, ast.KindFunctionType, ast.KindConstructorType,
		ast.KindClassStaticBlockDeclaration:
		return containerFlagsIsContainer | containerFlagsIsControlFlowContainer | containerFlagsHasLocals |
			containerFlagsIsFunctionLike

	case ast.KindFunctionExpression, ast.KindArrowFunction:
		return containerFlagsIsContainer | containerFlagsIsControlFlowContainer | containerFlagsHasLocals |
			containerFlagsIsFunctionLike | containerFlagsIsFunctionExpression

	case ast.KindModuleBlock:
		return containerFlagsIsControlFlowContainer

	case ast.KindPropertyDeclaration:
		if node.Initializer != nil {
			return containerFlagsIsControlFlowContainer
		}
		return containerFlagsNone

	case ast.KindCatchClause, ast.KindForStatement, ast.KindForInStatement, ast.KindForOfStatement,
		ast.KindCaseBlock:
		return containerFlagsIsBlockScopedContainer | containerFlagsHasLocals

	case ast.KindBlock:
		if p := node.Parent(); ast.IsFunctionLike(p) || (p != nil && p.Kind == ast.KindClassStaticBlockDeclaration) {
			return containerFlagsNone
		}
		return containerFlagsIsBlockScopedContainer | containerFlagsHasLocals
	}
	return containerFlagsNone
}

// bindContainer binds a node that opens a declaration or flow scope.
//
// Description:
//
//	Containers and block scopes get fresh locals. Control-flow containers
//	start a new graph (unless they are immediately invoked, in which case
//	they continue the caller's flow), reset jump targets and, for
//	function-like nodes, record the end flow and return facts.
func (b *binder) bindContainer(node *ast.Node, flags containerFlags) {
	saveContainer := b.container
	saveThisParentContainer := b.thisParentContainer
	saveBlockScopeContainer := b.blockScopeContainer

	if flags&containerFlagsIsContainer != 0 {
		if node.Kind != ast.KindArrowFunction {
			b.thisParentContainer = b.container
		}
		b.container = node
		b.blockScopeContainer = node
		if flags&containerFlagsHasLocals != 0 {
			b.bound.localsOf.Set(node, symbols.NewTable())
		}
	} else if flags&containerFlagsIsBlockScopedContainer != 0 {
		b.blockScopeContainer = node
		b.bound.localsOf.Delete(node)
	}

	switch {
	case flags&containerFlagsIsControlFlowContainer != 0:
		b.bindControlFlowContainer(node, flags)
	case flags&containerFlagsIsInterface != 0:
		saveSeenThisKeyword := b.seenThisKeyword
		b.seenThisKeyword = false
		b.bindChildren(node)
		b.seenThisKeyword = saveSeenThisKeyword
	default:
		b.bindChildren(node)
	}

	b.container = saveContainer
	b.thisParentContainer = saveThisParentContainer
	b.blockScopeContainer = saveBlockScopeContainer
}

func (b *binder) bindControlFlowContainer(node *ast.Node, flags containerFlags) {
	saveCurrentFlow := b.currentFlow
	saveBreakTarget := b.currentBreakTarget
	saveContinueTarget := b.currentContinueTarget
	saveReturnTarget := b.currentReturnTarget
	saveExceptionTarget := b.currentExceptionTarget
	saveActiveLabels := b.activeLabels
	saveHasExplicitReturn := b.hasExplicitReturn

	isImmediatelyInvoked := (flags&containerFlagsIsFunctionExpression != 0 &&
		!node.HasModifier(ast.ModifierFlagsAsync) &&
		node.Flags&ast.NodeFlagsGenerator == 0 &&
		ast.GetImmediatelyInvokedFunctionExpression(node) != nil) ||
		node.Kind == ast.KindClassStaticBlockDeclaration

	if !isImmediatelyInvoked {
		var startNode *ast.Node
		if flags&(containerFlagsIsFunctionExpression|containerFlagsIsObjectLiteralOrClassExpressionMethodOrAccessor) != 0 {
			startNode = node
		}
		b.currentFlow = flow.NewStart(startNode)
	}

	b.currentReturnTarget = nil
	if isImmediatelyInvoked || node.Kind == ast.KindConstructor || b.isJSFunction(node) {
		b.currentReturnTarget = flow.NewBranchLabel()
	}
	b.currentExceptionTarget = nil
	b.currentBreakTarget = nil
	b.currentContinueTarget = nil
	b.activeLabels = nil
	b.hasExplicitReturn = false

	b.bindChildren(node)

	if flags&containerFlagsIsFunctionLike != 0 && node.Body != nil {
		facts := FunctionFacts{HasExplicitReturn: b.hasExplicitReturn}
		if !flow.IsUnreachable(b.currentFlow) {
			facts.HasImplicitReturn = true
			b.bound.endFlowOf.Set(node, b.currentFlow)
		}
		b.bound.functionFacts.Set(node, facts)
	}
	if node.Kind == ast.KindSourceFile && !flow.IsUnreachable(b.currentFlow) {
		b.bound.endFlowOf.Set(node, b.currentFlow)
	}

	if b.currentReturnTarget != nil {
		flow.AddAntecedent(b.currentReturnTarget, b.currentFlow)
		b.currentFlow = flow.FinishLabel(b.currentReturnTarget)
		if node.Kind == ast.KindConstructor || node.Kind == ast.KindClassStaticBlockDeclaration || b.isJSFunction(node) {
			b.bound.returnFlowOf.Set(node, b.currentFlow)
		}
	}
	if !isImmediatelyInvoked {
		b.currentFlow = saveCurrentFlow
	}

	b.currentBreakTarget = saveBreakTarget
	b.currentContinueTarget = saveContinueTarget
	b.currentReturnTarget = saveReturnTarget
	b.currentExceptionTarget = saveExceptionTarget
	b.activeLabels = saveActiveLabels
	b.hasExplicitReturn = saveHasExplicitReturn
}

// isJSFunction reports function declarations and expressions in
// JavaScript files, whose return flow feeds constructor-function
// analysis.
func (b *binder) isJSFunction(node *ast.Node) bool {
	return b.file.IsJavaScript() &&
		(node.Kind == ast.KindFunctionDeclaration || node.Kind == ast.KindFunctionExpression)
}

// locals returns the locals of container, creating them on first use for
// block scopes.
func (b *binder) locals(container *ast.Node) *symbols.Table {
	if t := b.bound.localsOf.Lookup(container); t != nil {
		return t
	}
	t := symbols.NewTable()
	b.bound.localsOf.Set(container, t)
	return t
}
