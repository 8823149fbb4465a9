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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsfront/services/tsc/options"
)

func TestFactoryLayout_NestedSpans(t *testing.T) {
	f := NewFactory()
	ret := f.Return(f.Identifier("x"))
	fn := f.Function("g", nil, f.Block(ret))
	file := f.SourceFile("a.ts", fn)

	assert.Equal(t, 0, file.Root.Pos)
	Walk(file.Root, func(n *Node) bool {
		assert.Less(t, n.Pos, n.End, n.Kind.String())
		if p := n.Parent(); p != nil {
			assert.Greater(t, n.Pos, p.Pos)
			assert.Less(t, n.End, p.End)
		}
		return true
	})
	assert.Less(t, fn.Name.End, fn.Body.Pos)

	start, length := GetSpanOfNode(ret, file.Text)
	assert.Equal(t, ret.Pos, start)
	assert.Equal(t, ret.End-ret.Pos, length)
}

func TestGetImmediatelyInvokedFunctionExpression(t *testing.T) {
	f := NewFactory()
	fn := f.FunctionExpression("", nil, f.Block())
	call := f.Call(f.Paren(fn))
	other := f.Arrow(nil, f.Block())
	f.SourceFile("a.ts", f.ExpressionStatement(call), f.ExpressionStatement(f.Call(f.Identifier("h"), other)))

	assert.Same(t, call, GetImmediatelyInvokedFunctionExpression(fn))
	assert.Nil(t, GetImmediatelyInvokedFunctionExpression(other))
}

func TestIsBlockOrCatchScoped(t *testing.T) {
	f := NewFactory()
	letDecl := f.VariableDeclaration("a", nil)
	varDecl := f.VariableDeclaration("b", nil)
	catch := f.Catch("e", f.Block())
	f.SourceFile("a.ts",
		f.VariableStatement(NodeFlagsLet, letDecl),
		f.VariableStatement(0, varDecl),
		f.Try(f.Block(), catch, nil),
	)

	assert.True(t, IsBlockOrCatchScoped(letDecl))
	assert.False(t, IsBlockOrCatchScoped(varDecl))
	assert.True(t, IsBlockOrCatchScoped(catch.VariableDeclaration))
	assert.Equal(t, NodeFlagsLet, GetCombinedNodeFlags(letDecl)&NodeFlagsBlockScoped)
}

func TestIsLogicalExpression(t *testing.T) {
	f := NewFactory()
	a, b := f.Identifier("a"), f.Identifier("b")

	assert.True(t, IsLogicalExpression(f.Binary(a, "&&", b)))
	assert.True(t, IsLogicalExpression(f.Prefix("!", f.Paren(f.Binary(a, "??", b)))))
	assert.False(t, IsLogicalExpression(f.Binary(a, "+", b)))
	assert.False(t, IsLogicalExpression(f.Prefix("-", f.Binary(a, "||", b))))
}

func TestIsIterationStatement(t *testing.T) {
	f := NewFactory()
	loop := f.While(f.True(), f.Block())
	labeled := f.Labeled("outer", loop)

	assert.True(t, IsIterationStatement(loop, false))
	assert.False(t, IsIterationStatement(labeled, false))
	assert.True(t, IsIterationStatement(labeled, true))
}

func TestDeclarationNameText(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, "x", DeclarationNameText(f.Identifier("x")))
	assert.Equal(t, "k", DeclarationNameText(f.ComputedName(f.StringLiteral("k"))))
	assert.Equal(t, "", DeclarationNameText(f.ComputedName(f.Identifier("sym"))))
	assert.Equal(t, "", DeclarationNameText(nil))
}

func TestIsInAmbientContext(t *testing.T) {
	f := NewFactory()
	inner := f.VariableDeclaration("v", nil)
	f.SourceFile("a.ts", f.AmbientModule("m", f.VariableStatement(0, inner)))
	assert.True(t, IsInAmbientContext(inner))

	plain := f.VariableDeclaration("w", nil)
	f.SourceFile("b.ts", f.VariableStatement(0, plain))
	assert.False(t, IsInAmbientContext(plain))

	decl := f.VariableDeclaration("d", nil)
	f.SourceFile("lib.d.ts", f.VariableStatement(0, decl))
	assert.True(t, IsInAmbientContext(decl))
}

func TestComputeExternalModuleIndicator(t *testing.T) {
	f := NewFactory()

	t.Run("import makes a module", func(t *testing.T) {
		imp := f.Import("", []string{"a"}, "./a")
		file := f.SourceFile("a.ts", imp)
		assert.Same(t, imp, ComputeExternalModuleIndicator(file, &options.CompilerOptions{}, options.ResolutionModeNone))
	})

	t.Run("export modifier makes a module", func(t *testing.T) {
		stmt := f.VariableStatement(NodeFlagsConst, f.VariableDeclaration("x", nil)).WithModifiers(ModifierFlagsExport)
		file := f.SourceFile("a.ts", stmt)
		assert.Same(t, stmt, IsFileProbablyExternalModule(file))
	})

	t.Run("plain script", func(t *testing.T) {
		file := f.SourceFile("a.ts", f.ExpressionStatement(f.Identifier("x")))
		assert.Nil(t, ComputeExternalModuleIndicator(file, &options.CompilerOptions{}, options.ResolutionModeNone))
	})

	t.Run("force detection", func(t *testing.T) {
		file := f.SourceFile("a.ts", f.ExpressionStatement(f.Identifier("x")))
		opts := &options.CompilerOptions{ModuleDetection: options.ModuleDetectionKindForce}
		assert.Same(t, file.Root, ComputeExternalModuleIndicator(file, opts, options.ResolutionModeNone))

		decl := f.SourceFile("a.d.ts", f.ExpressionStatement(f.Identifier("x")))
		assert.Nil(t, ComputeExternalModuleIndicator(decl, opts, options.ResolutionModeNone))
	})

	t.Run("implied ESM format", func(t *testing.T) {
		file := f.SourceFile("a.ts", f.ExpressionStatement(f.Identifier("x")))
		assert.Same(t, file.Root, ComputeExternalModuleIndicator(file, &options.CompilerOptions{}, options.ResolutionModeESM))

		mts := f.SourceFile("a.mts", f.ExpressionStatement(f.Identifier("x")))
		assert.Same(t, mts.Root, ComputeExternalModuleIndicator(mts, &options.CompilerOptions{}, options.ResolutionModeNone))

		legacy := &options.CompilerOptions{ModuleDetection: options.ModuleDetectionKindLegacy}
		assert.Nil(t, ComputeExternalModuleIndicator(mts, legacy, options.ResolutionModeNone))
	})

	t.Run("import equals needs an external reference", func(t *testing.T) {
		eq := f.ImportEquals("fs", "fs")
		file := f.SourceFile("a.ts", eq)
		require.NotNil(t, IsFileProbablyExternalModule(file))
	})
}

func TestModuleSpecifierText(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, "./a", ModuleSpecifierText(f.Import("d", nil, "./a")))
	assert.Equal(t, "fs", ModuleSpecifierText(f.ImportEquals("fs", "fs")))
}
