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
	"slices"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/flow"
)

// setContinueTarget makes target the continue target of every label
// directly wrapping node.
func (b *binder) setContinueTarget(node *ast.Node, target *flow.Node) *flow.Node {
	label := b.activeLabels
	for label != nil && node.Parent() != nil && node.Parent().Kind == ast.KindLabeledStatement {
		label.continueTarget = target
		label = label.next
		node = node.Parent()
	}
	return target
}

func (b *binder) bindIterativeStatement(node *ast.Node, breakTarget, continueTarget *flow.Node) {
	saveBreakTarget := b.currentBreakTarget
	saveContinueTarget := b.currentContinueTarget
	b.currentBreakTarget = breakTarget
	b.currentContinueTarget = continueTarget
	b.bind(node)
	b.currentBreakTarget = saveBreakTarget
	b.currentContinueTarget = saveContinueTarget
}

func (b *binder) bindWhileStatement(node *ast.Node) {
	preWhileLabel := b.setContinueTarget(node, flow.NewLoopLabel())
	preBodyLabel := flow.NewBranchLabel()
	postWhileLabel := flow.NewBranchLabel()
	flow.AddAntecedent(preWhileLabel, b.currentFlow)
	b.currentFlow = preWhileLabel
	b.bindCondition(node.Expression, preBodyLabel, postWhileLabel)
	b.currentFlow = flow.FinishLabel(preBodyLabel)
	b.bindIterativeStatement(node.Statement, postWhileLabel, preWhileLabel)
	flow.AddAntecedent(preWhileLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(postWhileLabel)
}

func (b *binder) bindDoStatement(node *ast.Node) {
	preDoLabel := flow.NewLoopLabel()
	preConditionLabel := b.setContinueTarget(node, flow.NewBranchLabel())
	postDoLabel := flow.NewBranchLabel()
	flow.AddAntecedent(preDoLabel, b.currentFlow)
	b.currentFlow = preDoLabel
	b.bindIterativeStatement(node.Statement, postDoLabel, preConditionLabel)
	flow.AddAntecedent(preConditionLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(preConditionLabel)
	b.bindCondition(node.Expression, preDoLabel, postDoLabel)
	b.currentFlow = flow.FinishLabel(postDoLabel)
}

func (b *binder) bindForStatement(node *ast.Node) {
	preLoopLabel := b.setContinueTarget(node, flow.NewLoopLabel())
	preBodyLabel := flow.NewBranchLabel()
	preIncrementorLabel := flow.NewBranchLabel()
	postLoopLabel := flow.NewBranchLabel()
	b.bind(node.Initializer)
	flow.AddAntecedent(preLoopLabel, b.currentFlow)
	b.currentFlow = preLoopLabel
	b.bindCondition(node.Condition, preBodyLabel, postLoopLabel)
	b.currentFlow = flow.FinishLabel(preBodyLabel)
	b.bindIterativeStatement(node.Statement, postLoopLabel, preIncrementorLabel)
	flow.AddAntecedent(preIncrementorLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(preIncrementorLabel)
	b.bind(node.Incrementor)
	flow.AddAntecedent(preLoopLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(postLoopLabel)
}

func (b *binder) bindForInOrForOfStatement(node *ast.Node) {
	preLoopLabel := b.setContinueTarget(node, flow.NewLoopLabel())
	postLoopLabel := flow.NewBranchLabel()
	b.bind(node.Expression)
	flow.AddAntecedent(preLoopLabel, b.currentFlow)
	b.currentFlow = preLoopLabel
	flow.AddAntecedent(postLoopLabel, b.currentFlow)
	b.bind(node.Initializer)
	if node.Initializer != nil && node.Initializer.Kind != ast.KindVariableDeclarationList {
		b.bindAssignmentTargetFlow(node.Initializer)
	}
	b.bindIterativeStatement(node.Statement, postLoopLabel, preLoopLabel)
	flow.AddAntecedent(preLoopLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(postLoopLabel)
}

func (b *binder) bindIfStatement(node *ast.Node) {
	thenLabel := flow.NewBranchLabel()
	elseLabel := flow.NewBranchLabel()
	postIfLabel := flow.NewBranchLabel()
	b.bindCondition(node.Expression, thenLabel, elseLabel)
	b.currentFlow = flow.FinishLabel(thenLabel)
	b.bind(node.Then)
	flow.AddAntecedent(postIfLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(elseLabel)
	b.bind(node.Else)
	flow.AddAntecedent(postIfLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(postIfLabel)
}

func (b *binder) bindReturnOrThrow(node *ast.Node) {
	b.bind(node.Expression)
	if node.Kind == ast.KindReturnStatement {
		b.hasExplicitReturn = true
		if b.currentReturnTarget != nil {
			flow.AddAntecedent(b.currentReturnTarget, b.currentFlow)
		}
	}
	b.currentFlow = flow.Unreachable
	b.hasFlowEffects = true
}

func (b *binder) findActiveLabel(name string) *activeLabel {
	for label := b.activeLabels; label != nil; label = label.next {
		if label.name == name {
			return label
		}
	}
	return nil
}

func (b *binder) bindBreakOrContinueFlow(node *ast.Node, breakTarget, continueTarget *flow.Node) {
	target := continueTarget
	if node.Kind == ast.KindBreakStatement {
		target = breakTarget
	}
	if target != nil {
		flow.AddAntecedent(target, b.currentFlow)
		b.currentFlow = flow.Unreachable
		b.hasFlowEffects = true
	}
}

func (b *binder) bindBreakOrContinueStatement(node *ast.Node) {
	b.bind(node.Label)
	if node.Label == nil {
		b.bindBreakOrContinueFlow(node, b.currentBreakTarget, b.currentContinueTarget)
		return
	}
	if label := b.findActiveLabel(node.Label.Text); label != nil {
		label.referenced = true
		b.bindBreakOrContinueFlow(node, label.breakTarget, label.continueTarget)
	}
}

// bindTryStatement binds try/catch/finally.
//
// Description:
//
//	The exception label collects the flow at entry to the try block,
//	before each of its statements and after each mutation in it. With a
//	finally block, the finally entry joins the normal exits, the
//	exception flows and the returns; the flows leaving the finally block
//	are reduce labels that replay only the relevant subset.
func (b *binder) bindTryStatement(node *ast.Node) {
	saveReturnTarget := b.currentReturnTarget
	saveExceptionTarget := b.currentExceptionTarget
	normalExitLabel := flow.NewBranchLabel()
	returnLabel := flow.NewBranchLabel()
	exceptionLabel := flow.NewBranchLabel()
	if node.FinallyBlock != nil {
		b.currentReturnTarget = returnLabel
	}
	flow.AddAntecedent(exceptionLabel, b.currentFlow)
	b.currentExceptionTarget = exceptionLabel
	b.bind(node.TryBlock)
	flow.AddAntecedent(normalExitLabel, b.currentFlow)
	if node.CatchClause != nil {
		b.currentFlow = flow.FinishLabel(exceptionLabel)
		exceptionLabel = flow.NewBranchLabel()
		flow.AddAntecedent(exceptionLabel, b.currentFlow)
		b.currentExceptionTarget = exceptionLabel
		b.bind(node.CatchClause)
		flow.AddAntecedent(normalExitLabel, b.currentFlow)
	}
	b.currentReturnTarget = saveReturnTarget
	b.currentExceptionTarget = saveExceptionTarget

	if node.FinallyBlock == nil {
		b.currentFlow = flow.FinishLabel(normalExitLabel)
		return
	}

	finallyLabel := flow.NewBranchLabel()
	finallyLabel.Antecedents = slices.Concat(normalExitLabel.Antecedents, exceptionLabel.Antecedents, returnLabel.Antecedents)
	b.currentFlow = finallyLabel
	b.bind(node.FinallyBlock)
	if flow.IsUnreachable(b.currentFlow) {
		b.currentFlow = flow.Unreachable
		return
	}
	if b.currentReturnTarget != nil && len(returnLabel.Antecedents) > 0 {
		flow.AddAntecedent(b.currentReturnTarget, flow.NewReduceLabel(finallyLabel, returnLabel.Antecedents, b.currentFlow))
	}
	if b.currentExceptionTarget != nil && len(exceptionLabel.Antecedents) > 0 {
		flow.AddAntecedent(b.currentExceptionTarget, flow.NewReduceLabel(finallyLabel, exceptionLabel.Antecedents, b.currentFlow))
	}
	if len(normalExitLabel.Antecedents) > 0 {
		b.currentFlow = flow.NewReduceLabel(finallyLabel, normalExitLabel.Antecedents, b.currentFlow)
	} else {
		b.currentFlow = flow.Unreachable
	}
}

func (b *binder) bindSwitchStatement(node *ast.Node) {
	postSwitchLabel := flow.NewBranchLabel()
	b.bind(node.Expression)
	saveBreakTarget := b.currentBreakTarget
	savePreSwitchCaseFlow := b.preSwitchCaseFlow
	b.currentBreakTarget = postSwitchLabel
	b.preSwitchCaseFlow = b.currentFlow
	b.bind(node.Body)
	flow.AddAntecedent(postSwitchLabel, b.currentFlow)

	hasDefault := false
	if node.Body != nil {
		hasDefault = slices.ContainsFunc(node.Body.Clauses, func(c *ast.Node) bool {
			return c.Kind == ast.KindDefaultClause
		})
	}
	// Without a default, a switch whose clauses all exit can still be
	// exhaustive over the discriminant's type.
	b.bound.exhaustive.Set(node, !hasDefault && len(postSwitchLabel.Antecedents) == 0)
	if !hasDefault {
		flow.AddAntecedent(postSwitchLabel, flow.NewSwitchClause(b.preSwitchCaseFlow, node, 0, 0))
	}
	b.currentBreakTarget = saveBreakTarget
	b.preSwitchCaseFlow = savePreSwitchCaseFlow
	b.currentFlow = flow.FinishLabel(postSwitchLabel)
}

func (b *binder) bindCaseBlock(node *ast.Node) {
	switchStatement := node.Parent()
	clauses := node.Clauses
	isNarrowingSwitch := switchStatement != nil && switchStatement.Expression != nil &&
		(switchStatement.Expression.Kind == ast.KindTrueKeyword || flow.IsNarrowingExpression(switchStatement.Expression))
	reportFallthrough := b.opts.NoFallthroughCasesInSwitch.IsTrue()

	fallthroughFlow := flow.Unreachable
	for i := 0; i < len(clauses); i++ {
		clauseStart := i
		for len(clauses[i].Statements) == 0 && i+1 < len(clauses) {
			if fallthroughFlow == flow.Unreachable {
				b.currentFlow = b.preSwitchCaseFlow
			}
			b.bind(clauses[i])
			i++
		}
		preCaseLabel := flow.NewBranchLabel()
		if isNarrowingSwitch {
			flow.AddAntecedent(preCaseLabel, flow.NewSwitchClause(b.preSwitchCaseFlow, switchStatement, clauseStart, i+1))
		} else {
			flow.AddAntecedent(preCaseLabel, b.preSwitchCaseFlow)
		}
		flow.AddAntecedent(preCaseLabel, fallthroughFlow)
		b.currentFlow = flow.FinishLabel(preCaseLabel)

		clause := clauses[i]
		b.bind(clause)
		fallthroughFlow = b.currentFlow
		if reportFallthrough && i != len(clauses)-1 && !flow.IsUnreachable(b.currentFlow) {
			b.bound.fallthroughFlow.Set(clause, b.currentFlow)
			if flow.IsReachable(b.currentFlow) {
				b.reportFallthrough(clause)
			}
		}
	}
}

// reportFallthrough reports 7029 on the "case x:" head of clause.
func (b *binder) reportFallthrough(clause *ast.Node) {
	start, _ := ast.GetSpanOfNode(clause, b.file.Text)
	end := clause.End
	if len(clause.Statements) > 0 {
		end = clause.Statements[0].Pos
	}
	b.diags = append(b.diags, diagnostics.New(b.file.FileName, start, max(end-start, 0), diagnostics.FallthroughCaseInSwitch))
}

func (b *binder) bindCaseOrDefaultClause(node *ast.Node) {
	saveCurrentFlow := b.currentFlow
	b.currentFlow = b.preSwitchCaseFlow
	b.bind(node.Expression)
	b.currentFlow = saveCurrentFlow
	b.bindEach(node.Statements)
}

func (b *binder) bindExpressionStatement(node *ast.Node) {
	b.bind(node.Expression)
	b.maybeBindExpressionFlowIfCall(node.Expression)
}

// maybeBindExpressionFlowIfCall gives calls of dotted names a Call node,
// since such a call may be an assertion function.
func (b *binder) maybeBindExpressionFlowIfCall(node *ast.Node) {
	if node == nil || node.Kind != ast.KindCallExpression {
		return
	}
	callee := node.Expression
	if callee != nil && callee.Kind != ast.KindSuperKeyword && isDottedName(callee) {
		b.currentFlow = b.createFlowCall(node)
	}
}

func isDottedName(node *ast.Node) bool {
	switch node.Kind {
	case ast.KindIdentifier, ast.KindThisKeyword, ast.KindSuperKeyword, ast.KindMetaProperty:
		return true
	case ast.KindPropertyAccessExpression, ast.KindParenthesizedExpression:
		return node.Expression != nil && isDottedName(node.Expression)
	}
	return false
}

func (b *binder) bindLabeledStatement(node *ast.Node) {
	postStatementLabel := flow.NewBranchLabel()
	name := ""
	if node.Label != nil {
		name = node.Label.Text
	}
	b.activeLabels = &activeLabel{
		next:        b.activeLabels,
		name:        name,
		breakTarget: postStatementLabel,
	}
	b.bind(node.Label)
	b.bind(node.Statement)
	if !b.activeLabels.referenced && !b.opts.AllowUnusedLabels.IsTrue() && node.Label != nil {
		b.errorOrSuggestionOnRange(b.opts.AllowUnusedLabels.IsFalse(), node.Label, node.Label, diagnostics.UnusedLabel)
	}
	b.activeLabels = b.activeLabels.next
	flow.AddAntecedent(postStatementLabel, b.currentFlow)
	b.currentFlow = flow.FinishLabel(postStatementLabel)
}
