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
)

// bindCondition binds node as a condition whose true and false outcomes
// flow to trueTarget and falseTarget.
func (b *binder) bindCondition(node *ast.Node, trueTarget, falseTarget *flow.Node) {
	b.doWithConditionalBranches(b.bind, node, trueTarget, falseTarget)
	if node == nil || !isLogicalAssignmentExpression(node) && !ast.IsLogicalExpression(node) &&
		!(isOptionalChain(node) && isOutermostOptionalChain(node)) {
		flow.AddAntecedent(trueTarget, flow.NewCondition(flow.FlagsTrueCondition, b.currentFlow, node))
		flow.AddAntecedent(falseTarget, flow.NewCondition(flow.FlagsFalseCondition, b.currentFlow, node))
	}
}

func (b *binder) doWithConditionalBranches(action func(*ast.Node), node *ast.Node, trueTarget, falseTarget *flow.Node) {
	saveTrueTarget := b.currentTrueTarget
	saveFalseTarget := b.currentFalseTarget
	b.currentTrueTarget = trueTarget
	b.currentFalseTarget = falseTarget
	action(node)
	b.currentTrueTarget = saveTrueTarget
	b.currentFalseTarget = saveFalseTarget
}

func isLogicalAssignmentExpression(node *ast.Node) bool {
	node = ast.SkipParentheses(node)
	return node != nil && node.Kind == ast.KindBinaryExpression && ast.IsLogicalOrCoalescingAssignmentOperator(node.Operator)
}

// isStatementCondition reports whether node is the condition of an if,
// loop or conditional expression.
func isStatementCondition(node *ast.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind {
	case ast.KindIfStatement, ast.KindWhileStatement, ast.KindDoStatement:
		return parent.Expression == node
	case ast.KindForStatement, ast.KindConditionalExpression:
		return parent.Condition == node
	}
	return false
}

// isTopLevelLogicalExpression reports logical expressions and optional
// chains whose outcome is not itself consumed as a condition.
func isTopLevelLogicalExpression(node *ast.Node) bool {
	for {
		parent := node.Parent()
		if parent == nil {
			return true
		}
		if parent.Kind != ast.KindParenthesizedExpression &&
			!(parent.Kind == ast.KindPrefixUnaryExpression && parent.Operator == "!") {
			break
		}
		node = parent
	}
	parent := node.Parent()
	return !isStatementCondition(node) && !isLogicalAssignmentExpression(parent) && !ast.IsLogicalExpression(parent) &&
		!(isOptionalChain(parent) && parent.Expression == node)
}

// isOptionalChain reports whether node is part of an optional chain: it
// carries "?." itself or sits above a member that does without an
// intervening parenthesis.
func isOptionalChain(node *ast.Node) bool {
	for node != nil {
		switch node.Kind {
		case ast.KindPropertyAccessExpression, ast.KindElementAccessExpression, ast.KindCallExpression,
			ast.KindNonNullExpression:
			if node.Flags&ast.NodeFlagsOptionalChain != 0 {
				return true
			}
			node = node.Expression
		default:
			return false
		}
	}
	return false
}

func isOptionalChainRoot(node *ast.Node) bool {
	return ast.IsOptionalChain(node) && node.Kind != ast.KindNonNullExpression
}

// isOutermostOptionalChain reports whether node ends its optional chain.
func isOutermostOptionalChain(node *ast.Node) bool {
	parent := node.Parent()
	return !isOptionalChain(parent) || isOptionalChainRoot(parent) || parent.Expression != node
}

func (b *binder) bindLogicalLikeExpression(node *ast.Node, trueTarget, falseTarget *flow.Node) {
	preRightLabel := flow.NewBranchLabel()
	if node.Operator == "&&" || node.Operator == "&&=" {
		b.bindCondition(node.Left, preRightLabel, falseTarget)
	} else {
		b.bindCondition(node.Left, trueTarget, preRightLabel)
	}
	b.currentFlow = flow.FinishLabel(preRightLabel)
	if ast.IsLogicalOrCoalescingAssignmentOperator(node.Operator) {
		b.doWithConditionalBranches(b.bind, node.Right, trueTarget, falseTarget)
		b.bindAssignmentTargetFlow(node.Left)
		flow.AddAntecedent(trueTarget, flow.NewCondition(flow.FlagsTrueCondition, b.currentFlow, node))
		flow.AddAntecedent(falseTarget, flow.NewCondition(flow.FlagsFalseCondition, b.currentFlow, node))
		return
	}
	b.bindCondition(node.Right, trueTarget, falseTarget)
}

// bindTopLevel binds a logical expression or optional chain against a
// private join label. The label replaces the current flow only when the
// expression had flow effects.
func (b *binder) bindTopLevel(node *ast.Node, bindWith func(node *ast.Node, trueTarget, falseTarget *flow.Node)) {
	postExpressionLabel := flow.NewBranchLabel()
	saveCurrentFlow := b.currentFlow
	saveHasFlowEffects := b.hasFlowEffects
	b.hasFlowEffects = false
	bindWith(node, postExpressionLabel, postExpressionLabel)
	if b.hasFlowEffects {
		b.currentFlow = flow.FinishLabel(postExpressionLabel)
	} else {
		b.currentFlow = saveCurrentFlow
	}
	b.hasFlowEffects = b.hasFlowEffects || saveHasFlowEffects
}

func (b *binder) bindBinaryExpressionFlow(node *ast.Node) {
	op := node.Operator
	if ast.IsLogicalOrCoalescingOperator(op) || ast.IsLogicalOrCoalescingAssignmentOperator(op) {
		if isTopLevelLogicalExpression(node) || b.currentTrueTarget == nil {
			b.bindTopLevel(node, b.bindLogicalLikeExpression)
		} else {
			b.bindLogicalLikeExpression(node, b.currentTrueTarget, b.currentFalseTarget)
		}
		return
	}

	b.bind(node.Left)
	if op == "," {
		b.maybeBindExpressionFlowIfCall(node.Left)
	}
	b.bind(node.Right)
	if ast.IsAssignmentOperator(op) && !isAssignmentTarget(node) {
		b.bindAssignmentTargetFlow(node.Left)
		if op == "=" && node.Left != nil && node.Left.Kind == ast.KindElementAccessExpression &&
			flow.IsNarrowableOperand(node.Left.Expression) {
			b.currentFlow = b.createFlowMutation(flow.FlagsArrayMutation, node)
		}
	}
}

// isAssignmentTarget reports whether node is itself the target of an
// enclosing assignment, as in (a = b) = c.
func isAssignmentTarget(node *ast.Node) bool {
	child := node
	parent := node.Parent()
	for parent != nil && parent.Kind == ast.KindParenthesizedExpression {
		child = parent
		parent = parent.Parent()
	}
	return parent != nil && parent.Kind == ast.KindBinaryExpression && ast.IsAssignmentOperator(parent.Operator) &&
		parent.Left == child
}

// isDestructuringAssignment reports "=" with an object or array literal
// (or binding pattern) on the left.
func isDestructuringAssignment(node *ast.Node) bool {
	if node.Operator != "=" || node.Left == nil {
		return false
	}
	switch node.Left.Kind {
	case ast.KindObjectLiteralExpression, ast.KindArrayLiteralExpression,
		ast.KindObjectBindingPattern, ast.KindArrayBindingPattern:
		return true
	}
	return false
}

func (b *binder) bindDestructuringAssignmentFlow(node *ast.Node) {
	if b.inAssignmentPattern {
		b.inAssignmentPattern = false
		b.bind(node.Right)
		b.inAssignmentPattern = true
		b.bind(node.Left)
	} else {
		b.inAssignmentPattern = true
		b.bind(node.Left)
		b.inAssignmentPattern = false
		b.bind(node.Right)
	}
	b.bindAssignmentTargetFlow(node.Left)
}

// bindAssignmentTargetFlow records an Assignment for every narrowable
// reference written by an assignment to node.
func (b *binder) bindAssignmentTargetFlow(node *ast.Node) {
	if node == nil {
		return
	}
	switch {
	case flow.IsNarrowableReference(node):
		b.currentFlow = b.createFlowMutation(flow.FlagsAssignment, node)
	case node.Kind == ast.KindArrayLiteralExpression:
		for _, e := range node.Elements {
			if e.Kind == ast.KindSpreadElement {
				b.bindAssignmentTargetFlow(e.Expression)
			} else {
				b.bindDestructuringTargetFlow(e)
			}
		}
	case node.Kind == ast.KindObjectLiteralExpression:
		for _, p := range node.Members {
			switch p.Kind {
			case ast.KindPropertyAssignment:
				b.bindDestructuringTargetFlow(p.Initializer)
			case ast.KindShorthandPropertyAssignment:
				b.bindAssignmentTargetFlow(p.Name)
			case ast.KindSpreadAssignment:
				b.bindAssignmentTargetFlow(p.Expression)
			}
		}
	case ast.IsBindingPattern(node):
		for _, e := range node.Elements {
			b.bindAssignmentTargetFlow(e.Name)
		}
	}
}

func (b *binder) bindDestructuringTargetFlow(node *ast.Node) {
	if node != nil && node.Kind == ast.KindBinaryExpression && node.Operator == "=" {
		b.bindAssignmentTargetFlow(node.Left)
		return
	}
	b.bindAssignmentTargetFlow(node)
}

func (b *binder) bindPrefixUnaryExpressionFlow(node *ast.Node) {
	if node.Operator == "!" {
		saveTrueTarget := b.currentTrueTarget
		b.currentTrueTarget = b.currentFalseTarget
		b.currentFalseTarget = saveTrueTarget
		b.bindEachChild(node)
		b.currentFalseTarget = b.currentTrueTarget
		b.currentTrueTarget = saveTrueTarget
		return
	}
	b.bindEachChild(node)
	if node.Operator == "++" || node.Operator == "--" {
		b.bindAssignmentTargetFlow(node.Expression)
	}
}

func (b *binder) bindPostfixUnaryExpressionFlow(node *ast.Node) {
	b.bindEachChild(node)
	if node.Operator == "++" || node.Operator == "--" {
		b.bindAssignmentTargetFlow(node.Expression)
	}
}

func (b *binder) bindDeleteExpressionFlow(node *ast.Node) {
	b.bindEachChild(node)
	if node.Expression != nil && node.Expression.Kind == ast.KindPropertyAccessExpression {
		b.bindAssignmentTargetFlow(node.Expression)
	}
}

func (b *binder) bindConditionalExpressionFlow(node *ast.Node) {
	trueLabel := flow.NewBranchLabel()
	falseLabel := flow.NewBranchLabel()
	postExpressionLabel := flow.NewBranchLabel()
	saveCurrentFlow := b.currentFlow
	saveHasFlowEffects := b.hasFlowEffects
	b.hasFlowEffects = false
	b.bindCondition(node.Condition, trueLabel, falseLabel)
	b.currentFlow = flow.FinishLabel(trueLabel)
	b.bind(node.Then)
	flow.AddAntecedent(postExpressionLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(falseLabel)
	b.bind(node.Else)
	flow.AddAntecedent(postExpressionLabel, b.currentFlow)
	if b.hasFlowEffects {
		b.currentFlow = flow.FinishLabel(postExpressionLabel)
	} else {
		b.currentFlow = saveCurrentFlow
		b.hasFlowEffects = saveHasFlowEffects
	}
}

func (b *binder) bindVariableDeclarationFlow(node *ast.Node) {
	b.bindEachChild(node)
	if node.Initializer != nil || isForInOrOfDeclaration(node) {
		b.bindInitializedVariableFlow(node)
	}
}

func isForInOrOfDeclaration(node *ast.Node) bool {
	list := node.Parent()
	if list == nil || list.Parent() == nil {
		return false
	}
	kind := list.Parent().Kind
	return kind == ast.KindForInStatement || kind == ast.KindForOfStatement
}

func (b *binder) bindInitializedVariableFlow(node *ast.Node) {
	if node.Kind == ast.KindOmittedExpression {
		return
	}
	if ast.IsBindingPattern(node.Name) {
		for _, child := range node.Name.Elements {
			b.bindInitializedVariableFlow(child)
		}
		return
	}
	b.currentFlow = b.createFlowMutation(flow.FlagsAssignment, node)
}

// bindInitializer binds a default value, which runs only when the bound
// value is undefined; both paths join afterwards.
func (b *binder) bindInitializer(node *ast.Node) {
	if node == nil {
		return
	}
	entryFlow := b.currentFlow
	b.bind(node)
	if entryFlow == flow.Unreachable || entryFlow == b.currentFlow {
		return
	}
	exitFlow := flow.NewBranchLabel()
	flow.AddAntecedent(exitFlow, entryFlow)
	flow.AddAntecedent(exitFlow, b.currentFlow)
	b.currentFlow = flow.FinishLabel(exitFlow)
}

// bindBindingElementFlow binds the initializer before the name it
// defaults.
func (b *binder) bindBindingElementFlow(node *ast.Node) {
	b.bind(node.PropertyName)
	b.bindInitializer(node.Initializer)
	b.bind(node.Name)
}

func (b *binder) bindParameterFlow(node *ast.Node) {
	b.bind(node.Type)
	b.bindInitializer(node.Initializer)
	b.bind(node.Name)
}

func (b *binder) bindAccessExpressionFlow(node *ast.Node) {
	if isOptionalChain(node) {
		b.bindOptionalChainFlow(node)
		return
	}
	b.bindEachChild(node)
}

func (b *binder) bindNonNullExpressionFlow(node *ast.Node) {
	if isOptionalChain(node) {
		b.bindOptionalChainFlow(node)
		return
	}
	b.bindEachChild(node)
}

func (b *binder) bindCallExpressionFlow(node *ast.Node) {
	switch {
	case isOptionalChain(node):
		b.bindOptionalChainFlow(node)
	case ast.IsFunctionExpressionOrArrow(ast.SkipParentheses(node.Expression)):
		// The arguments of an immediately invoked function are evaluated
		// before its body runs.
		b.bindEach(node.TypeArguments)
		b.bindEach(node.Arguments)
		b.bind(node.Expression)
	default:
		b.bindEachChild(node)
		if node.Expression != nil && node.Expression.Kind == ast.KindSuperKeyword {
			b.currentFlow = b.createFlowCall(node)
		}
	}

	if callee := node.Expression; callee != nil && callee.Kind == ast.KindPropertyAccessExpression {
		if name := callee.Name; name != nil && name.Kind == ast.KindIdentifier &&
			(name.Text == "push" || name.Text == "unshift") && flow.IsNarrowableOperand(callee.Expression) {
			b.currentFlow = b.createFlowMutation(flow.FlagsArrayMutation, node)
		}
	}
}

func (b *binder) bindOptionalChainFlow(node *ast.Node) {
	if isTopLevelLogicalExpression(node) || b.currentTrueTarget == nil {
		b.bindTopLevel(node, b.bindOptionalChain)
		return
	}
	b.bindOptionalChain(node, b.currentTrueTarget, b.currentFalseTarget)
}

func (b *binder) bindOptionalChain(node *ast.Node, trueTarget, falseTarget *flow.Node) {
	var preChainLabel *flow.Node
	if isOptionalChainRoot(node) {
		preChainLabel = flow.NewBranchLabel()
	}
	expressionTrueTarget := trueTarget
	if preChainLabel != nil {
		expressionTrueTarget = preChainLabel
	}
	b.bindOptionalExpression(node.Expression, expressionTrueTarget, falseTarget)
	if preChainLabel != nil {
		b.currentFlow = flow.FinishLabel(preChainLabel)
	}
	b.doWithConditionalBranches(b.bindOptionalChainRest, node, trueTarget, falseTarget)
	if isOutermostOptionalChain(node) {
		flow.AddAntecedent(trueTarget, flow.NewCondition(flow.FlagsTrueCondition, b.currentFlow, node))
		flow.AddAntecedent(falseTarget, flow.NewCondition(flow.FlagsFalseCondition, b.currentFlow, node))
	}
}

func (b *binder) bindOptionalExpression(node *ast.Node, trueTarget, falseTarget *flow.Node) {
	b.doWithConditionalBranches(b.bind, node, trueTarget, falseTarget)
	if !isOptionalChain(node) || isOutermostOptionalChain(node) {
		flow.AddAntecedent(trueTarget, flow.NewCondition(flow.FlagsTrueCondition, b.currentFlow, node))
		flow.AddAntecedent(falseTarget, flow.NewCondition(flow.FlagsFalseCondition, b.currentFlow, node))
	}
}

// bindOptionalChainRest binds the part of a chain member after its
// object expression.
func (b *binder) bindOptionalChainRest(node *ast.Node) {
	switch node.Kind {
	case ast.KindPropertyAccessExpression:
		b.bind(node.Name)
	case ast.KindElementAccessExpression:
		b.bind(node.Argument)
	case ast.KindCallExpression:
		b.bindEach(node.TypeArguments)
		b.bindEach(node.Arguments)
	}
}

// createFlowMutation records an assignment or array mutation of node.
// Mutations inside a try block also flow to its exception label.
func (b *binder) createFlowMutation(flags flow.Flags, node *ast.Node) *flow.Node {
	b.hasFlowEffects = true
	result := flow.NewMutation(flags, b.currentFlow, node)
	if b.currentExceptionTarget != nil {
		flow.AddAntecedent(b.currentExceptionTarget, result)
	}
	return result
}

func (b *binder) createFlowCall(node *ast.Node) *flow.Node {
	b.hasFlowEffects = true
	return flow.NewCall(b.currentFlow, node)
}
