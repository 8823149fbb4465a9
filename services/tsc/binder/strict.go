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
	"github.com/AleutianAI/tsfront/services/tsc/options"
)

var futureReservedWords = map[string]bool{
	"implements": true,
	"interface":  true,
	"let":        true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"static":     true,
	"yield":      true,
}

// updateStrictModeStatementList turns on strict mode when the prologue of
// statements contains "use strict".
func (b *binder) updateStrictModeStatementList(statements []*ast.Node) {
	if b.inStrictMode {
		return
	}
	for _, statement := range statements {
		if !ast.IsPrologueDirective(statement) {
			return
		}
		if b.isUseStrictPrologueDirective(statement) {
			b.inStrictMode = true
			return
		}
	}
}

// isUseStrictPrologueDirective checks the quoted source text, so escaped
// spellings of the directive do not count.
func (b *binder) isUseStrictPrologueDirective(statement *ast.Node) bool {
	expr := statement.Expression
	start := ast.GetTokenPosOfNode(expr, b.file.Text)
	if start < 0 || expr.End > len(b.file.Text) || start > expr.End {
		return expr.Text == "use strict"
	}
	text := b.file.Text[start:expr.End]
	return text == `"use strict"` || text == `'use strict'`
}

// isIdentifierName reports identifiers used as property names, which may
// be reserved words.
func isIdentifierName(node *ast.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind {
	case ast.KindPropertyDeclaration, ast.KindPropertySignature, ast.KindMethodDeclaration, ast.KindMethodSignature,
		ast.KindGetAccessor, ast.KindSetAccessor, ast.KindEnumMember, ast.KindPropertyAssignment,
		ast.KindPropertyAccessExpression:
		return parent.Name == node
	case ast.KindQualifiedName:
		return parent.Right == node
	case ast.KindBindingElement, ast.KindImportSpecifier:
		return parent.PropertyName == node
	case ast.KindExportSpecifier:
		return true
	}
	return false
}

// checkContextualIdentifier reports future reserved words used as
// identifiers in strict mode code.
func (b *binder) checkContextualIdentifier(node *ast.Node) {
	if !b.inStrictMode || !futureReservedWords[node.Text] || len(b.file.ParseDiagnostics) > 0 ||
		isIdentifierName(node) || ast.IsInAmbientContext(node) {
		return
	}
	b.errorOnNode(node, diagnostics.ReservedWordInStrictMode, node.Text)
}

func isEvalOrArgumentsIdentifier(node *ast.Node) bool {
	return node != nil && node.Kind == ast.KindIdentifier && (node.Text == "eval" || node.Text == "arguments")
}

// checkStrictModeEvalOrArguments reports eval or arguments used as a
// binding or assignment target.
func (b *binder) checkStrictModeEvalOrArguments(contextNode, name *ast.Node) {
	if !isEvalOrArgumentsIdentifier(name) {
		return
	}
	msg := diagnostics.InvalidUseInStrictMode
	if b.bound.IsExternalModule() {
		msg = diagnostics.InvalidUseInModule
	}
	b.errorOnNode(name, msg, name.Text)
}

func (b *binder) checkStrictModeBinaryExpression(node *ast.Node) {
	if b.inStrictMode && ast.IsAssignmentOperator(node.Operator) {
		b.checkStrictModeEvalOrArguments(node, node.Left)
	}
}

func (b *binder) checkStrictModeCatchClause(node *ast.Node) {
	if b.inStrictMode && node.VariableDeclaration != nil {
		b.checkStrictModeEvalOrArguments(node, node.VariableDeclaration.Name)
	}
}

func (b *binder) checkStrictModeDeleteExpression(node *ast.Node) {
	if b.inStrictMode && node.Expression != nil && node.Expression.Kind == ast.KindIdentifier {
		b.errorOnNode(node.Expression, diagnostics.DeleteIdentifierInStrictMode)
	}
}

func (b *binder) checkStrictModeUnaryExpression(node *ast.Node) {
	if b.inStrictMode && (node.Operator == "++" || node.Operator == "--") {
		b.checkStrictModeEvalOrArguments(node, node.Expression)
	}
}

func (b *binder) checkStrictModeWithStatement(node *ast.Node) {
	if b.inStrictMode {
		b.errorOnFirstToken(node, diagnostics.WithStatementInStrictMode)
	}
}

func (b *binder) checkStrictModeFunctionName(node *ast.Node) {
	if b.inStrictMode && !ast.IsInAmbientContext(node) {
		b.checkStrictModeEvalOrArguments(node, node.Name)
	}
}

// checkStrictModeFunctionDeclaration reports block-level function
// declarations, which ES5 strict mode forbids.
func (b *binder) checkStrictModeFunctionDeclaration(node *ast.Node) {
	if b.languageVersion >= options.ScriptTargetES2015 {
		return
	}
	scope := b.blockScopeContainer
	if scope == nil || scope.Kind == ast.KindSourceFile || scope.Kind == ast.KindModuleDeclaration ||
		ast.IsFunctionLikeOrClassStaticBlock(scope) {
		return
	}
	b.errorOnNode(node, diagnostics.FunctionDeclarationInBlockES5)
}

// checkBreakOrContinueTarget reports a break or continue without a valid
// target. It runs during declaration binding so that jumps in
// unreachable code are checked too.
func (b *binder) checkBreakOrContinueTarget(node *ast.Node) {
	isBreak := node.Kind == ast.KindBreakStatement
	for current := node; current != nil; current = current.Parent() {
		if ast.IsFunctionLikeOrClassStaticBlock(current) {
			b.errorOnNode(node, diagnostics.JumpTargetCrossesFunctionBoundary)
			return
		}
		switch current.Kind {
		case ast.KindLabeledStatement:
			if node.Label != nil && current.Label != nil && current.Label.Text == node.Label.Text {
				if !isBreak && !ast.IsIterationStatement(current.Statement, true) {
					b.errorOnNode(node, diagnostics.ContinueLabelNotIteration)
				}
				return
			}
		case ast.KindSwitchStatement:
			if isBreak && node.Label == nil {
				return
			}
		default:
			if ast.IsIterationStatement(current, false) && node.Label == nil {
				return
			}
		}
	}

	switch {
	case node.Label != nil && isBreak:
		b.errorOnNode(node, diagnostics.BreakLabelNotEnclosing)
	case node.Label != nil:
		b.errorOnNode(node, diagnostics.ContinueLabelNotIteration)
	case isBreak:
		b.errorOnNode(node, diagnostics.BreakOutsideIterationOrSwitch)
	default:
		b.errorOnNode(node, diagnostics.ContinueOutsideIteration)
	}
}

// checkDuplicateLabel reports a label that shadows an enclosing label of
// the same function.
func (b *binder) checkDuplicateLabel(node *ast.Node) {
	if node.Label == nil {
		return
	}
	for current := node.Parent(); current != nil; current = current.Parent() {
		if ast.IsFunctionLike(current) {
			return
		}
		if current.Kind == ast.KindLabeledStatement && current.Label != nil && current.Label.Text == node.Label.Text {
			b.errorOnNode(node.Label, diagnostics.DuplicateLabel, node.Label.Text)
			return
		}
	}
}

// errorOnFirstToken reports msg on the keyword that starts node.
func (b *binder) errorOnFirstToken(node *ast.Node, msg *diagnostics.Message) {
	start, _ := ast.GetSpanOfNode(node, b.file.Text)
	end := start
	for end < len(b.file.Text) && isWordByte(b.file.Text[end]) {
		end++
	}
	b.diags = append(b.diags, diagnostics.New(b.file.FileName, start, end-start, msg))
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
