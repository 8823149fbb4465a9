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

import (
	"slices"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
)

// NewStart creates the entry node of a control-flow container. container
// is nil for source files and function declarations, and the function
// for function expressions, arrows and object or class expression
// methods.
func NewStart(container *ast.Node) *Node {
	return &Node{Flags: FlagsStart, Node: container}
}

// NewBranchLabel creates a join point.
func NewBranchLabel() *Node {
	return &Node{Flags: FlagsBranchLabel}
}

// NewLoopLabel creates a loop head. Its back-edge is added once the loop
// body has been bound.
func NewLoopLabel() *Node {
	return &Node{Flags: FlagsLoopLabel}
}

// NewReduceLabel creates a node that continues from antecedent while
// target's antecedents are narrowed to antecedents.
func NewReduceLabel(target *Node, antecedents []*Node, antecedent *Node) *Node {
	return &Node{
		Flags:      FlagsReduceLabel,
		Antecedent: antecedent,
		Reduce:     &ReduceData{Target: target, Antecedents: antecedents},
	}
}

// AddAntecedent appends antecedent to label. Unreachable antecedents and
// duplicates are skipped.
func AddAntecedent(label, antecedent *Node) {
	if IsUnreachable(antecedent) || slices.Contains(label.Antecedents, antecedent) {
		return
	}
	label.Antecedents = append(label.Antecedents, antecedent)
	SetReferenced(antecedent)
}

// FinishLabel returns the flow after label: Unreachable with no
// antecedents, the lone antecedent when there is one, else the label.
func FinishLabel(label *Node) *Node {
	switch len(label.Antecedents) {
	case 0:
		return Unreachable
	case 1:
		return label.Antecedents[0]
	default:
		return label
	}
}

// NewCondition creates the flow for one arm of a condition.
//
// Description:
//
//	flags is FlagsTrueCondition or FlagsFalseCondition. Unreachable input
//	stays unreachable. A literal true on the false arm (or false on the
//	true arm) is unreachable. A nil expression or one that narrows
//	nothing yields the antecedent itself.
func NewCondition(flags Flags, antecedent *Node, expr *ast.Node) *Node {
	if IsUnreachable(antecedent) {
		return antecedent
	}
	if expr == nil {
		if flags&FlagsTrueCondition != 0 {
			return antecedent
		}
		return Unreachable
	}
	if (expr.Kind == ast.KindTrueKeyword && flags&FlagsFalseCondition != 0 ||
		expr.Kind == ast.KindFalseKeyword && flags&FlagsTrueCondition != 0) &&
		!ast.IsNullishCoalesce(expr.Parent()) {
		return Unreachable
	}
	if !IsNarrowingExpression(expr) {
		return antecedent
	}
	SetReferenced(antecedent)
	return &Node{Flags: flags, Antecedent: antecedent, Node: expr}
}

// NewSwitchClause creates the flow entering clauses [start, end) of
// switchStatement.
func NewSwitchClause(antecedent *Node, switchStatement *ast.Node, start, end int) *Node {
	SetReferenced(antecedent)
	return &Node{
		Flags:      FlagsSwitchClause,
		Antecedent: antecedent,
		Switch:     &SwitchClauseData{Statement: switchStatement, ClauseStart: start, ClauseEnd: end},
	}
}

// NewMutation creates an Assignment or ArrayMutation node for node.
func NewMutation(flags Flags, antecedent *Node, node *ast.Node) *Node {
	SetReferenced(antecedent)
	return &Node{Flags: flags, Antecedent: antecedent, Node: node}
}

// NewCall creates a Call node for a call that may narrow by assertion.
func NewCall(antecedent *Node, call *ast.Node) *Node {
	SetReferenced(antecedent)
	return &Node{Flags: FlagsCall, Antecedent: antecedent, Node: call}
}
