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

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(nodes []*Node) []Kind {
	out := make([]Kind, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Kind)
	}
	return out
}

func TestForEachChild_Order(t *testing.T) {
	f := NewFactory()

	t.Run("do statement visits body before condition", func(t *testing.T) {
		do := f.Do(f.Block(), f.Identifier("c"))
		assert.Equal(t, []Kind{KindBlock, KindIdentifier}, kinds(Children(do)))
	})

	t.Run("property access visits object before name", func(t *testing.T) {
		pa := f.PropertyAccess(f.Identifier("a"), "b")
		children := Children(pa)
		require.Len(t, children, 2)
		assert.Equal(t, "a", children[0].Text)
		assert.Equal(t, "b", children[1].Text)
	})

	t.Run("for statement visits header then body", func(t *testing.T) {
		loop := f.For(f.DeclarationList(NodeFlagsLet, f.VariableDeclaration("i", f.NumericLiteral("0"))),
			f.Identifier("c"), f.Postfix(f.Identifier("i"), "++"), f.Block())
		assert.Equal(t,
			[]Kind{KindVariableDeclarationList, KindIdentifier, KindPostfixUnaryExpression, KindBlock},
			kinds(Children(loop)))
	})

	t.Run("visitor can stop early", func(t *testing.T) {
		block := f.Block(f.Empty(), f.Debugger(), f.Empty())
		var seen int
		stopped := ForEachChild(block, func(child *Node) bool {
			seen++
			return child.Kind == KindDebuggerStatement
		})
		assert.True(t, stopped)
		assert.Equal(t, 2, seen)
	})
}

func TestWalk_SkipsSubtree(t *testing.T) {
	f := NewFactory()
	file := f.SourceFile("a.ts",
		f.Function("g", nil, f.Block(f.Return(f.Identifier("inner")))),
		f.ExpressionStatement(f.Identifier("outer")),
	)

	var names []string
	Walk(file.Root, func(n *Node) bool {
		if n.Kind == KindIdentifier {
			names = append(names, n.Text)
		}
		return n.Kind != KindBlock
	})
	assert.Equal(t, []string{"g", "outer"}, names)
}

func TestSetParentPointers(t *testing.T) {
	f := NewFactory()
	decl := f.VariableDeclaration("x", f.NumericLiteral("1"))
	stmt := f.VariableStatement(NodeFlagsConst, decl)
	file := f.SourceFile("a.ts", stmt)

	assert.Same(t, file.Root, stmt.Parent())
	assert.Same(t, stmt, stmt.DeclarationList.Parent())
	assert.Same(t, stmt.DeclarationList, decl.Parent())
	assert.Same(t, decl, decl.Initializer.Parent())
	assert.Nil(t, file.Root.Parent())
}

func TestNodeID_UniqueAndStable(t *testing.T) {
	a := &Node{Kind: KindIdentifier}
	b := &Node{Kind: KindIdentifier}

	var wg sync.WaitGroup
	ids := make([]NodeID, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = a.ID()
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotZero(t, b.ID())
}

func TestSideTable(t *testing.T) {
	var table SideTable[string]
	n := &Node{Kind: KindIdentifier}
	other := &Node{Kind: KindIdentifier}

	_, ok := table.Get(n)
	assert.False(t, ok)
	assert.Equal(t, "", table.Lookup(n))

	table.Set(n, "value")
	v, ok := table.Get(n)
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.True(t, table.Has(n))
	assert.False(t, table.Has(other))
	assert.Equal(t, 1, table.Len())

	table.Delete(n)
	assert.False(t, table.Has(n))
	assert.Equal(t, 0, table.Len())

	_, ok = table.Get(nil)
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "IfStatement", KindIfStatement.String())
	assert.Equal(t, "SourceFile", KindSourceFile.String())
}
