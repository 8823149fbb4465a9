// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package flow models the control-flow graph threaded through a bound
// source file.
//
// Nodes point backwards at their antecedents. Labels join several
// predecessors and loop labels gain their back-edges after the loop body
// is bound, so the graph may contain cycles. Identity is pointer
// identity; the sentinels Unreachable and ReportedUnreachable are shared
// by every file and never mutated.
package flow

import (
	"strings"
	"sync/atomic"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
)

// Flags is the node kind plus extra bits.
type Flags uint32

const (
	FlagsUnreachable Flags = 1 << iota
	FlagsStart
	FlagsBranchLabel
	FlagsLoopLabel
	FlagsAssignment
	FlagsTrueCondition
	FlagsFalseCondition
	FlagsSwitchClause
	FlagsArrayMutation
	FlagsCall
	FlagsReduceLabel
	FlagsReferenced
	FlagsShared

	FlagsLabel     = FlagsBranchLabel | FlagsLoopLabel
	FlagsCondition = FlagsTrueCondition | FlagsFalseCondition
)

var flagNames = []string{
	"Unreachable", "Start", "BranchLabel", "LoopLabel", "Assignment", "TrueCondition",
	"FalseCondition", "SwitchClause", "ArrayMutation", "Call", "ReduceLabel", "Referenced", "Shared",
}

func (f Flags) String() string {
	if f == 0 {
		return "None"
	}
	var names []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// SwitchClauseData describes the clause range [ClauseStart, ClauseEnd)
// of Statement's case block that a SwitchClause node was taken for.
type SwitchClauseData struct {
	Statement   *ast.Node
	ClauseStart int
	ClauseEnd   int
}

// ReduceData describes a ReduceLabel: while Antecedent is analyzed,
// Target's antecedents are temporarily replaced with Antecedents.
type ReduceData struct {
	Target      *Node
	Antecedents []*Node
}

// Node is one program point.
type Node struct {
	Flags Flags

	// Node is the AST node associated with the flow node: the assigned
	// target, the condition, the call, or the container for Start.
	Node *ast.Node

	// Antecedent is the single predecessor of non-label nodes.
	Antecedent *Node

	// Antecedents are the predecessors of a label.
	Antecedents []*Node

	Switch *SwitchClauseData
	Reduce *ReduceData

	id atomic.Uint64
}

var nextID atomic.Uint64

// ID returns the node's id, assigning one on first call.
func (n *Node) ID() uint64 {
	if id := n.id.Load(); id != 0 {
		return id
	}
	candidate := nextID.Add(1)
	if n.id.CompareAndSwap(0, candidate) {
		return candidate
	}
	return n.id.Load()
}

// Is reports whether any of flags are set on n.
func (n *Node) Is(flags Flags) bool {
	return n != nil && n.Flags&flags != 0
}

func newSentinel() *Node {
	n := &Node{Flags: FlagsUnreachable}
	n.ID()
	return n
}

var (
	// Unreachable is the flow after a statement that does not complete.
	Unreachable = newSentinel()

	// ReportedUnreachable replaces Unreachable once a diagnostic has been
	// issued for the region, so it is reported only once.
	ReportedUnreachable = newSentinel()
)

// IsUnreachable reports whether n is one of the sentinels.
func IsUnreachable(n *Node) bool {
	return n == nil || n.Flags&FlagsUnreachable != 0
}

// SetReferenced marks n as referenced, or shared when it already was.
// Sentinels are left untouched.
func SetReferenced(n *Node) {
	if IsUnreachable(n) {
		return
	}
	if n.Flags&FlagsReferenced != 0 {
		n.Flags |= FlagsShared
	} else {
		n.Flags |= FlagsReferenced
	}
}
