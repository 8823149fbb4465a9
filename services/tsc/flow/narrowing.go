// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import "github.com/AleutianAI/tsfront/services/tsc/ast"

// IsNarrowingExpression reports whether expr, used as a condition, can
// narrow the type of some reference. Conditions that cannot are not
// given their own flow node.
func IsNarrowingExpression(expr *ast.Node) bool {
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case ast.KindIdentifier, ast.KindThisKeyword, ast.KindSuperKeyword, ast.KindPropertyAccessExpression,
		ast.KindElementAccessExpression, ast.KindMetaProperty:
		return ContainsNarrowableReference(expr)
	case ast.KindCallExpression:
		return hasNarrowableArgument(expr)
	case ast.KindParenthesizedExpression, ast.KindNonNullExpression, ast.KindTypeOfExpression:
		return IsNarrowingExpression(expr.Expression)
	case ast.KindBinaryExpression:
		return isNarrowingBinaryExpression(expr)
	case ast.KindPrefixUnaryExpression:
		return expr.Operator == "!" && IsNarrowingExpression(expr.Expression)
	}
	return false
}

// IsNarrowableReference reports references whose type can be narrowed:
// identifiers, this, super, import.meta, and property or literal-keyed
// element accesses on those.
func IsNarrowableReference(expr *ast.Node) bool {
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case ast.KindIdentifier, ast.KindThisKeyword, ast.KindSuperKeyword, ast.KindMetaProperty:
		return true
	case ast.KindPropertyAccessExpression, ast.KindParenthesizedExpression, ast.KindNonNullExpression:
		return IsNarrowableReference(expr.Expression)
	case ast.KindElementAccessExpression:
		return (ast.IsStringOrNumericLiteralLike(expr.Argument) || ast.IsEntityNameExpression(expr.Argument)) &&
			IsNarrowableReference(expr.Expression)
	case ast.KindBinaryExpression:
		switch expr.Operator {
		case ",":
			return IsNarrowableReference(expr.Right)
		case "=":
			return isLeftHandSideExpression(expr.Left)
		}
	}
	return false
}

// ContainsNarrowableReference extends IsNarrowableReference through
// optional chains.
func ContainsNarrowableReference(expr *ast.Node) bool {
	if IsNarrowableReference(expr) {
		return true
	}
	if ast.IsOptionalChain(expr) {
		return ContainsNarrowableReference(expr.Expression)
	}
	return false
}

func hasNarrowableArgument(call *ast.Node) bool {
	for _, arg := range call.Arguments {
		if ContainsNarrowableReference(arg) {
			return true
		}
	}
	callee := call.Expression
	return callee != nil && callee.Kind == ast.KindPropertyAccessExpression &&
		ContainsNarrowableReference(callee.Expression)
}

func isNarrowingTypeofOperands(typeOf, literal *ast.Node) bool {
	return typeOf != nil && typeOf.Kind == ast.KindTypeOfExpression &&
		IsNarrowableOperand(typeOf.Expression) && ast.IsStringLiteralLike(literal)
}

func isNarrowingBinaryExpression(expr *ast.Node) bool {
	switch expr.Operator {
	case "=", "||=", "&&=", "??=":
		return ContainsNarrowableReference(expr.Left)
	case "==", "!=", "===", "!==":
		return IsNarrowableOperand(expr.Left) || IsNarrowableOperand(expr.Right) ||
			isNarrowingTypeofOperands(expr.Right, expr.Left) || isNarrowingTypeofOperands(expr.Left, expr.Right) ||
			isBooleanLiteral(expr.Right) && IsNarrowingExpression(expr.Left) ||
			isBooleanLiteral(expr.Left) && IsNarrowingExpression(expr.Right)
	case "instanceof":
		return IsNarrowableOperand(expr.Left)
	case "in":
		return IsNarrowingExpression(expr.Right)
	case ",":
		return IsNarrowingExpression(expr.Right)
	}
	return false
}

// IsNarrowableOperand reports whether expr, looking through parentheses,
// assignments and comma expressions, contains a narrowable reference.
func IsNarrowableOperand(expr *ast.Node) bool {
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case ast.KindParenthesizedExpression:
		return IsNarrowableOperand(expr.Expression)
	case ast.KindBinaryExpression:
		switch expr.Operator {
		case "=":
			return IsNarrowableOperand(expr.Left)
		case ",":
			return IsNarrowableOperand(expr.Right)
		}
	}
	return ContainsNarrowableReference(expr)
}

func isBooleanLiteral(n *ast.Node) bool {
	return n != nil && (n.Kind == ast.KindTrueKeyword || n.Kind == ast.KindFalseKeyword)
}

func isLeftHandSideExpression(n *ast.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case ast.KindIdentifier, ast.KindThisKeyword, ast.KindSuperKeyword, ast.KindPropertyAccessExpression,
		ast.KindElementAccessExpression, ast.KindCallExpression, ast.KindNewExpression,
		ast.KindParenthesizedExpression, ast.KindNonNullExpression, ast.KindMetaProperty,
		ast.KindObjectLiteralExpression, ast.KindArrayLiteralExpression:
		return true
	}
	return false
}
