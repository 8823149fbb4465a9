// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast is the syntax tree consumed by the binder: a node-kind
// taxonomy, a single node type with kind-specific slots, parent and child
// navigation, node identities and side-tables keyed by them.
package ast

import "sync/atomic"

// NodeFlags are syntactic facts recorded by the parser.
type NodeFlags uint32

const (
	NodeFlagsNone NodeFlags = 0
	NodeFlagsLet  NodeFlags = 1 << iota
	NodeFlagsConst
	NodeFlagsUsing
	NodeFlagsAwaitUsing
	NodeFlagsNestedNamespace
	NodeFlagsSynthesized
	NodeFlagsNamespace
	NodeFlagsOptionalChain
	NodeFlagsGlobalAugmentation
	NodeFlagsAmbient
	NodeFlagsThisNodeHasError
	NodeFlagsJavaScriptFile
	// NodeFlagsOptional marks a "?" on a member, parameter or property.
	NodeFlagsOptional
	// NodeFlagsGenerator marks a "*" on a function or method.
	NodeFlagsGenerator
	// NodeFlagsAwait marks "for await".
	NodeFlagsAwait
	// NodeFlagsTypeOnly marks "import type" and "export type".
	NodeFlagsTypeOnly

	NodeFlagsBlockScoped = NodeFlagsLet | NodeFlagsConst | NodeFlagsUsing | NodeFlagsAwaitUsing
)

// ModifierFlags are the modifiers written on a declaration.
type ModifierFlags uint32

const (
	ModifierFlagsNone   ModifierFlags = 0
	ModifierFlagsExport ModifierFlags = 1 << iota
	ModifierFlagsAmbient
	ModifierFlagsDefault
	ModifierFlagsConst
	ModifierFlagsAbstract
	ModifierFlagsStatic
	ModifierFlagsReadonly
	ModifierFlagsPublic
	ModifierFlagsPrivate
	ModifierFlagsProtected
	ModifierFlagsAsync
	ModifierFlagsAccessor
	ModifierFlagsOverride
	ModifierFlagsIn
	ModifierFlagsOut

	ModifierFlagsAccessibility     = ModifierFlagsPublic | ModifierFlagsPrivate | ModifierFlagsProtected
	ModifierFlagsParameterProperty = ModifierFlagsAccessibility | ModifierFlagsReadonly | ModifierFlagsOverride
)

// NodeID is a process-unique node identity, assigned on first use.
type NodeID uint64

var nextNodeID atomic.Uint64

// Node is one syntax tree node.
//
// Description:
//
//	A single struct serves every kind; each kind uses the subset of slots
//	that its syntax has (an IfStatement uses Expression, Then and Else; a
//	ForStatement uses Initializer, Condition, Incrementor and Statement).
//	Unused slots stay nil. Pos and End are byte offsets into the source
//	text, with Pos including leading trivia. Synthesized nodes have
//	negative positions.
//
// Thread Safety: A tree is immutable once SetParentPointers has run; ID
// may be called concurrently.
type Node struct {
	Kind      Kind
	Flags     NodeFlags
	Modifiers ModifierFlags
	Pos       int
	End       int

	// Text is the identifier name, literal value, keyword or type keyword.
	Text     string
	// Operator is the operator token text of unary and binary expressions
	// and type operators.
	Operator string

	Label               *Node
	PropertyName        *Node
	Name                *Node
	TypeParameters      []*Node
	Parameters          []*Node
	Type                *Node
	Initializer         *Node
	// DeclarationList is the VariableDeclarationList of a VariableStatement.
	DeclarationList     *Node
	Condition           *Node
	Incrementor         *Node
	Expression          *Node
	TypeArguments       []*Node
	// Argument is the index of an element access or the template of a
	// tagged template.
	Argument            *Node
	Arguments           []*Node
	Left                *Node
	Right               *Node
	Then                *Node
	Else                *Node
	TryBlock            *Node
	CatchClause         *Node
	VariableDeclaration *Node
	FinallyBlock        *Node
	Elements            []*Node
	// Types holds heritage clauses, union/intersection constituents and
	// heritage clause types.
	Types               []*Node
	Members             []*Node
	Statements          []*Node
	Clauses             []*Node
	Declarations        []*Node
	Statement           *Node
	Body                *Node
	// Clause is the import clause, named bindings or export clause.
	Clause              *Node
	ModuleSpecifier     *Node

	parent *Node
	id     atomic.Uint64
}

// ID returns the node's identity, assigning one on first call.
func (n *Node) ID() NodeID {
	if id := n.id.Load(); id != 0 {
		return NodeID(id)
	}
	candidate := nextNodeID.Add(1)
	if n.id.CompareAndSwap(0, candidate) {
		return NodeID(candidate)
	}
	return NodeID(n.id.Load())
}

// Parent returns the parent attached by SetParentPointers.
func (n *Node) Parent() *Node {
	return n.parent
}

// Loc returns the [Pos, End) span including leading trivia.
func (n *Node) Loc() (pos, end int) {
	return n.Pos, n.End
}

// IsSynthesized reports whether the node has no source position.
func (n *Node) IsSynthesized() bool {
	return n.Pos < 0 || n.Flags&NodeFlagsSynthesized != 0
}

// HasModifier reports whether any of the given modifier flags are set.
func (n *Node) HasModifier(flags ModifierFlags) bool {
	return n != nil && n.Modifiers&flags != 0
}

// Visitor is called for each child; returning true stops the walk.
type Visitor func(child *Node) bool

func visitNode(n *Node, v Visitor) bool {
	return n != nil && v(n)
}

func visitNodes(nodes []*Node, v Visitor) bool {
	for _, n := range nodes {
		if n != nil && v(n) {
			return true
		}
	}
	return false
}

// ForEachChild calls v for each direct child of n in source order and
// reports whether v stopped the walk.
func ForEachChild(n *Node, v Visitor) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindDoStatement:
		return visitNode(n.Statement, v) || visitNode(n.Expression, v)
	case KindPropertyAccessExpression:
		return visitNode(n.Expression, v) || visitNode(n.Name, v)
	case KindAsExpression, KindSatisfiesExpression:
		return visitNode(n.Expression, v) || visitNode(n.Type, v)
	}
	return visitNode(n.Label, v) ||
		visitNode(n.PropertyName, v) ||
		visitNode(n.Name, v) ||
		visitNodes(n.TypeParameters, v) ||
		visitNodes(n.Parameters, v) ||
		visitNode(n.Type, v) ||
		visitNode(n.Initializer, v) ||
		visitNode(n.DeclarationList, v) ||
		visitNode(n.Condition, v) ||
		visitNode(n.Incrementor, v) ||
		visitNode(n.Expression, v) ||
		visitNodes(n.TypeArguments, v) ||
		visitNode(n.Argument, v) ||
		visitNodes(n.Arguments, v) ||
		visitNode(n.Left, v) ||
		visitNode(n.Right, v) ||
		visitNode(n.Then, v) ||
		visitNode(n.Else, v) ||
		visitNode(n.TryBlock, v) ||
		visitNode(n.CatchClause, v) ||
		visitNode(n.VariableDeclaration, v) ||
		visitNode(n.FinallyBlock, v) ||
		visitNodes(n.Elements, v) ||
		visitNodes(n.Types, v) ||
		visitNodes(n.Members, v) ||
		visitNodes(n.Statements, v) ||
		visitNodes(n.Clauses, v) ||
		visitNodes(n.Declarations, v) ||
		visitNode(n.Statement, v) ||
		visitNode(n.Body, v) ||
		visitNode(n.Clause, v) ||
		visitNode(n.ModuleSpecifier, v)
}

// Children returns the direct children of n in source order.
func Children(n *Node) []*Node {
	var out []*Node
	ForEachChild(n, func(child *Node) bool {
		out = append(out, child)
		return false
	})
	return out
}

// SetParentPointers attaches parent links throughout the tree rooted at
// root. It is idempotent.
func SetParentPointers(root *Node) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ForEachChild(n, func(child *Node) bool {
			child.parent = n
			stack = append(stack, child)
			return false
		})
	}
}

// Walk visits root and all descendants in pre-order. Returning false from
// fn skips the node's subtree.
func Walk(root *Node, fn func(n *Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	ForEachChild(root, func(child *Node) bool {
		Walk(child, fn)
		return false
	})
}
