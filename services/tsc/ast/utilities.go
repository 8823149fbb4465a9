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

import "github.com/AleutianAI/tsfront/services/tsc/scanner"

// IsFunctionLikeDeclaration reports kinds that declare a function with a
// body.
func IsFunctionLikeDeclaration(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindFunctionDeclaration, KindFunctionExpression, KindArrowFunction, KindMethodDeclaration,
		KindConstructor, KindGetAccessor, KindSetAccessor:
		return true
	}
	return false
}

// IsFunctionLike reports function declarations plus signatures and
// function types.
func IsFunctionLike(n *Node) bool {
	if n == nil {
		return false
	}
	if IsFunctionLikeDeclaration(n) {
		return true
	}
	switch n.Kind {
	case KindMethodSignature, KindCallSignature, KindConstructSignature, KindIndexSignature,
		KindFunctionType, KindConstructorType:
		return true
	}
	return false
}

// IsFunctionLikeOrClassStaticBlock adds static blocks to IsFunctionLike.
func IsFunctionLikeOrClassStaticBlock(n *Node) bool {
	return n != nil && (IsFunctionLike(n) || n.Kind == KindClassStaticBlockDeclaration)
}

// IsFunctionExpressionOrArrow reports function expressions and arrows.
func IsFunctionExpressionOrArrow(n *Node) bool {
	return n != nil && (n.Kind == KindFunctionExpression || n.Kind == KindArrowFunction)
}

// IsClassLike reports class declarations and expressions.
func IsClassLike(n *Node) bool {
	return n != nil && (n.Kind == KindClassDeclaration || n.Kind == KindClassExpression)
}

// IsDeclarationStatement reports statements that are declarations.
func IsDeclarationStatement(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindFunctionDeclaration, KindClassDeclaration, KindInterfaceDeclaration, KindTypeAliasDeclaration,
		KindEnumDeclaration, KindModuleDeclaration, KindImportDeclaration, KindImportEqualsDeclaration,
		KindExportDeclaration, KindExportAssignment, KindNamespaceExportDeclaration:
		return true
	}
	return false
}

// IsStatementButNotDeclaration reports executable statement kinds.
func IsStatementButNotDeclaration(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindBreakStatement, KindContinueStatement, KindDebuggerStatement, KindDoStatement,
		KindExpressionStatement, KindEmptyStatement, KindForInStatement, KindForOfStatement,
		KindForStatement, KindIfStatement, KindLabeledStatement, KindReturnStatement,
		KindSwitchStatement, KindThrowStatement, KindTryStatement, KindVariableStatement,
		KindWhileStatement, KindWithStatement:
		return true
	}
	return false
}

// IsStatement reports any statement, including blocks and declarations.
func IsStatement(n *Node) bool {
	return IsStatementButNotDeclaration(n) || IsDeclarationStatement(n) || (n != nil && n.Kind == KindBlock)
}

// IsIterationStatement reports loops. With lookInLabeled, a labeled
// statement wrapping a loop also counts.
func IsIterationStatement(n *Node, lookInLabeled bool) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindForStatement, KindForInStatement, KindForOfStatement, KindDoStatement, KindWhileStatement:
		return true
	case KindLabeledStatement:
		return lookInLabeled && IsIterationStatement(n.Statement, lookInLabeled)
	}
	return false
}

// IsLogicalOrCoalescingOperator reports "&&", "||" and "??".
func IsLogicalOrCoalescingOperator(op string) bool {
	return op == "&&" || op == "||" || op == "??"
}

// IsLogicalOrCoalescingAssignmentOperator reports "&&=", "||=" and "??=".
func IsLogicalOrCoalescingAssignmentOperator(op string) bool {
	return op == "&&=" || op == "||=" || op == "??="
}

// IsAssignmentOperator reports "=" and every compound assignment.
func IsAssignmentOperator(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "**=", "/=", "%=", "<<=", ">>=", ">>>=", "&=", "|=", "^=",
		"&&=", "||=", "??=":
		return true
	}
	return false
}

// IsLogicalExpression reports a binary "&&"/"||"/"??" or "!" expression,
// looking through parentheses.
func IsLogicalExpression(n *Node) bool {
	for n != nil {
		switch n.Kind {
		case KindParenthesizedExpression:
			n = n.Expression
		case KindPrefixUnaryExpression:
			if n.Operator != "!" {
				return false
			}
			n = n.Expression
		case KindBinaryExpression:
			return IsLogicalOrCoalescingOperator(n.Operator)
		default:
			return false
		}
	}
	return false
}

// SkipParentheses returns the first non-parenthesized expression.
func SkipParentheses(n *Node) *Node {
	for n != nil && n.Kind == KindParenthesizedExpression {
		n = n.Expression
	}
	return n
}

// SkipOuterExpressions looks through parentheses, type assertions,
// "as"/"satisfies" and non-null assertions.
func SkipOuterExpressions(n *Node) *Node {
	for n != nil {
		switch n.Kind {
		case KindParenthesizedExpression, KindTypeAssertionExpression, KindAsExpression,
			KindSatisfiesExpression, KindNonNullExpression:
			n = n.Expression
		default:
			return n
		}
	}
	return n
}

// GetImmediatelyInvokedFunctionExpression returns the call expression
// that invokes fn directly, as in (function () {})() or (() => x)().
func GetImmediatelyInvokedFunctionExpression(fn *Node) *Node {
	if !IsFunctionExpressionOrArrow(fn) {
		return nil
	}
	prev := fn
	parent := fn.parent
	for parent != nil && parent.Kind == KindParenthesizedExpression {
		prev = parent
		parent = parent.parent
	}
	if parent != nil && parent.Kind == KindCallExpression && parent.Expression == prev {
		return parent
	}
	return nil
}

// IsInAmbientContext reports whether n is inside a declare context or a
// declaration file.
func IsInAmbientContext(n *Node) bool {
	for ; n != nil; n = n.parent {
		if n.Flags&NodeFlagsAmbient != 0 || n.Modifiers&ModifierFlagsAmbient != 0 {
			return true
		}
	}
	return false
}

// IsEnumConst reports a "const enum".
func IsEnumConst(n *Node) bool {
	return n != nil && n.Kind == KindEnumDeclaration && n.Modifiers&ModifierFlagsConst != 0
}

// HasSyntacticModifier reports whether n carries any of flags.
func HasSyntacticModifier(n *Node, flags ModifierFlags) bool {
	return n.HasModifier(flags)
}

// IsBlockOrCatchScoped reports let/const declarations and catch variables.
func IsBlockOrCatchScoped(n *Node) bool {
	if n == nil {
		return false
	}
	if n.Kind == KindVariableDeclaration {
		if list := n.parent; list != nil && list.Kind == KindVariableDeclarationList && list.Flags&NodeFlagsBlockScoped != 0 {
			return true
		}
		return n.parent != nil && n.parent.Kind == KindCatchClause
	}
	return false
}

// GetCombinedNodeFlags merges the flags of a variable declaration with
// its declaration list.
func GetCombinedNodeFlags(n *Node) NodeFlags {
	flags := n.Flags
	if n.Kind == KindVariableDeclaration || n.Kind == KindBindingElement {
		p := n.parent
		for p != nil && (p.Kind == KindBindingElement || p.Kind == KindObjectBindingPattern || p.Kind == KindArrayBindingPattern ||
			p.Kind == KindVariableDeclaration) {
			p = p.parent
		}
		if p != nil && p.Kind == KindVariableDeclarationList {
			flags |= p.Flags
		}
	}
	return flags
}

// IsAmbientModule reports "declare module 'x'" and "declare global".
func IsAmbientModule(n *Node) bool {
	return n != nil && n.Kind == KindModuleDeclaration &&
		(n.Name != nil && n.Name.Kind == KindStringLiteral || n.Flags&NodeFlagsGlobalAugmentation != 0)
}

// IsGlobalScopeAugmentation reports "declare global { }".
func IsGlobalScopeAugmentation(n *Node) bool {
	return n != nil && n.Kind == KindModuleDeclaration && n.Flags&NodeFlagsGlobalAugmentation != 0
}

// IsExternalModuleAugmentation reports an ambient module declared inside
// an external module.
func IsExternalModuleAugmentation(n *Node, fileIsExternalModule bool) bool {
	if !IsAmbientModule(n) || n.parent == nil {
		return false
	}
	switch n.parent.Kind {
	case KindSourceFile:
		return fileIsExternalModule
	case KindModuleBlock:
		return IsAmbientModule(n.parent.parent) && n.parent.parent.parent != nil &&
			n.parent.parent.parent.Kind == KindSourceFile && !fileIsExternalModule
	}
	return false
}

// IsParameterPropertyDeclaration reports a constructor parameter with an
// accessibility or readonly modifier.
func IsParameterPropertyDeclaration(n *Node) bool {
	return n != nil && n.Kind == KindParameter && n.Modifiers&ModifierFlagsParameterProperty != 0 &&
		n.parent != nil && n.parent.Kind == KindConstructor
}

// IsObjectLiteralOrClassExpressionMethodOrAccessor reports methods and
// accessors whose container is an object literal or class expression.
func IsObjectLiteralOrClassExpressionMethodOrAccessor(n *Node) bool {
	if n == nil || n.parent == nil {
		return false
	}
	switch n.Kind {
	case KindMethodDeclaration, KindGetAccessor, KindSetAccessor:
		return n.parent.Kind == KindObjectLiteralExpression || n.parent.Kind == KindClassExpression
	}
	return false
}

// IsStringOrNumericLiteralLike reports literals usable as property names.
func IsStringOrNumericLiteralLike(n *Node) bool {
	return n != nil && (n.Kind == KindStringLiteral || n.Kind == KindNumericLiteral ||
		n.Kind == KindNoSubstitutionTemplateLiteral)
}

// IsBindingPattern reports object and array binding patterns.
func IsBindingPattern(n *Node) bool {
	return n != nil && (n.Kind == KindObjectBindingPattern || n.Kind == KindArrayBindingPattern)
}

// DeclarationNameText returns the text of a declaration name: identifier,
// private name, string or numeric literal, or a computed name whose
// expression is a literal. Other names yield "".
func DeclarationNameText(name *Node) string {
	if name == nil {
		return ""
	}
	switch name.Kind {
	case KindIdentifier, KindPrivateIdentifier, KindStringLiteral, KindNumericLiteral,
		KindNoSubstitutionTemplateLiteral, KindBigIntLiteral:
		return name.Text
	case KindComputedPropertyName:
		if IsStringOrNumericLiteralLike(name.Expression) {
			return name.Expression.Text
		}
	}
	return ""
}

// GetTokenPosOfNode returns the start of n's first token, skipping
// leading trivia in text.
func GetTokenPosOfNode(n *Node, text string) int {
	if n == nil || n.IsSynthesized() {
		return -1
	}
	if n.Kind == KindSourceFile && len(n.Statements) > 0 {
		return GetTokenPosOfNode(n.Statements[0], text)
	}
	if n.Pos >= len(text) {
		return n.Pos
	}
	return scanner.SkipTrivia(text, n.Pos, scanner.TriviaOptions{})
}

// GetSpanOfNode returns (start, length) of n without leading trivia.
func GetSpanOfNode(n *Node, text string) (int, int) {
	start := GetTokenPosOfNode(n, text)
	if start < 0 {
		return 0, 0
	}
	if n.End < start {
		return start, 0
	}
	return start, n.End - start
}

// GetErrorNode picks the node a declaration diagnostic points at: its
// name when present.
func GetErrorNode(n *Node) *Node {
	if n != nil && n.Name != nil {
		return n.Name
	}
	return n
}

// GetContainingFunction returns the nearest function-like ancestor.
func GetContainingFunction(n *Node) *Node {
	for p := n.Parent(); p != nil; p = p.parent {
		if IsFunctionLike(p) {
			return p
		}
	}
	return nil
}

// GetSourceFileNode returns the KindSourceFile ancestor of n.
func GetSourceFileNode(n *Node) *Node {
	for n != nil && n.Kind != KindSourceFile {
		n = n.parent
	}
	return n
}

// IsPrologueDirective reports an expression statement consisting only
// of a string literal.
func IsPrologueDirective(n *Node) bool {
	return n != nil && n.Kind == KindExpressionStatement && n.Expression != nil &&
		n.Expression.Kind == KindStringLiteral
}

// IsStringLiteralLike reports string literals and template literals
// without substitutions.
func IsStringLiteralLike(n *Node) bool {
	return n != nil && (n.Kind == KindStringLiteral || n.Kind == KindNoSubstitutionTemplateLiteral)
}

// IsRequireCall reports require("x") calls.
func IsRequireCall(n *Node) bool {
	return n != nil && n.Kind == KindCallExpression && n.Expression != nil &&
		n.Expression.Kind == KindIdentifier && n.Expression.Text == "require" &&
		len(n.Arguments) == 1 && IsStringLiteralLike(n.Arguments[0])
}

// ModuleSpecifierText returns the module name of an import, export,
// import-equals or import type, or "".
func ModuleSpecifierText(n *Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindImportDeclaration, KindExportDeclaration:
		if IsStringLiteralLike(n.ModuleSpecifier) {
			return n.ModuleSpecifier.Text
		}
	case KindImportEqualsDeclaration:
		if ref := n.Expression; ref != nil && ref.Kind == KindExternalModuleReference && IsStringLiteralLike(ref.Expression) {
			return ref.Expression.Text
		}
	case KindCallExpression:
		if IsRequireCall(n) {
			return n.Arguments[0].Text
		}
	}
	return ""
}

// IsNullishCoalesce reports a "??" binary expression.
func IsNullishCoalesce(n *Node) bool {
	return n != nil && n.Kind == KindBinaryExpression && n.Operator == "??"
}

// IsOptionalChain reports property accesses, element accesses and calls
// flagged as part of an optional chain.
func IsOptionalChain(n *Node) bool {
	if n == nil || n.Flags&NodeFlagsOptionalChain == 0 {
		return false
	}
	switch n.Kind {
	case KindPropertyAccessExpression, KindElementAccessExpression, KindCallExpression, KindNonNullExpression:
		return true
	}
	return false
}

// IsEntityNameExpression reports identifiers and dotted chains of
// property accesses rooted at an identifier.
func IsEntityNameExpression(n *Node) bool {
	for n != nil {
		switch n.Kind {
		case KindIdentifier:
			return true
		case KindPropertyAccessExpression:
			if n.Name == nil || n.Name.Kind != KindIdentifier {
				return false
			}
			n = n.Expression
		default:
			return false
		}
	}
	return false
}
