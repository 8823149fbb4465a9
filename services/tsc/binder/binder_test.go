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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/flow"
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

func codes(diags []*diagnostics.Diagnostic) []int {
	out := make([]int, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func num(f *ast.Factory, v string) *ast.Node { return f.NumericLiteral(v) }

func TestBind_ForLoopWithConditionalBreak(t *testing.T) {
	f := ast.NewFactory()
	cond := f.Identifier("c")
	after := f.ExpressionStatement(f.Identifier("x"))
	file := f.SourceFile("loop.ts",
		f.For(nil, nil, nil, f.Block(f.If(cond, f.Break(""), nil))),
		after,
	)

	bound := Bind(file, nil)
	require.Empty(t, bound.Diagnostics)

	post := bound.FlowNodeOf(after)
	require.NotNil(t, post)
	assert.True(t, post.Is(flow.FlagsTrueCondition), "flow after loop: %s", post.Flags)
	assert.Same(t, cond, post.Node)

	loop := post.Antecedent
	require.NotNil(t, loop)
	require.True(t, loop.Is(flow.FlagsLoopLabel))
	require.Len(t, loop.Antecedents, 2)
	assert.True(t, loop.Antecedents[0].Is(flow.FlagsStart))
	assert.True(t, loop.Antecedents[1].Is(flow.FlagsFalseCondition))
	assert.Same(t, cond, loop.Antecedents[1].Node)
}

func TestBind_UnreachableCodeSeverity(t *testing.T) {
	tests := []struct {
		name     string
		allow    options.Tristate
		wantDiag bool
		category diagnostics.Category
	}{
		{"disallowed is an error", options.TSFalse, true, diagnostics.CategoryError},
		{"unset is a suggestion", options.TSUnknown, true, diagnostics.CategorySuggestion},
		{"allowed is silent", options.TSTrue, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ast.NewFactory()
			first := f.VariableStatement(ast.NodeFlagsLet, f.VariableDeclaration("x", num(f, "2")))
			last := f.ExpressionStatement(f.Identifier("x"))
			fn := f.Function("f", nil, f.Block(f.Return(num(f, "1")), first, last))
			file := f.SourceFile("unreachable.ts", fn)

			bound := Bind(file, &options.CompilerOptions{AllowUnreachableCode: tt.allow})
			if !tt.wantDiag {
				assert.Empty(t, bound.Diagnostics)
				return
			}
			require.Len(t, bound.Diagnostics, 1)
			d := bound.Diagnostics[0]
			assert.Equal(t, 7027, d.Code)
			assert.Equal(t, tt.category, d.Category)
			assert.Equal(t, first.Pos, d.Start)
			assert.Equal(t, last.End, d.End())
			assert.False(t, bound.FunctionFactsOf(fn).HasImplicitReturn)
			assert.True(t, bound.FunctionFactsOf(fn).HasExplicitReturn)
		})
	}
}

func TestBind_UninitializedVarAfterReturnIsSuggestion(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("var.ts", f.Function("f", nil, f.Block(
		f.Return(nil),
		f.VariableStatement(ast.NodeFlagsNone, f.VariableDeclaration("v", nil)),
	)))

	bound := Bind(file, &options.CompilerOptions{AllowUnreachableCode: options.TSFalse})

	require.Len(t, bound.Diagnostics, 1)
	assert.Equal(t, diagnostics.CategorySuggestion, bound.Diagnostics[0].Category)
}

func TestBind_DuplicateLet(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("dup.ts",
		f.VariableStatement(ast.NodeFlagsLet, f.VariableDeclaration("a", num(f, "1"))),
		f.VariableStatement(ast.NodeFlagsLet, f.VariableDeclaration("a", num(f, "2"))),
	)

	bound := Bind(file, nil)

	assert.Equal(t, []int{2451, 2451}, codes(bound.Diagnostics))
	sym := bound.Locals.Get("a")
	require.NotNil(t, sym)
	assert.Len(t, sym.Declarations, 2)
	assert.True(t, sym.Has(symbols.KindBlockScopedVariable))
}

func TestBind_FunctionOverloadsMerge(t *testing.T) {
	f := ast.NewFactory()
	overload := f.Function("f", []*ast.Node{f.Parameter("a", nil)}, nil)
	impl := f.Function("f", []*ast.Node{f.Parameter("a", nil)}, f.Block())
	file := f.SourceFile("overloads.ts", overload, impl)

	bound := Bind(file, nil)

	assert.Empty(t, bound.Diagnostics)
	sym := bound.Locals.Get("f")
	require.NotNil(t, sym)
	assert.Equal(t, []*ast.Node{overload, impl}, sym.Declarations)
	assert.Same(t, sym, bound.SymbolOf(overload))
	assert.Same(t, sym, bound.SymbolOf(impl))
	assert.NotNil(t, bound.LocalsOf(impl).Get("a"))
}

func TestBind_FunctionAndClassConflict(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("conflict.ts",
		f.Function("C", nil, f.Block()),
		f.Class("C"),
	)

	bound := Bind(file, nil)

	assert.Equal(t, []int{2300, 2300}, codes(bound.Diagnostics))
	assert.Len(t, bound.Locals.Get("C").Declarations, 2)
}

func TestBind_MultipleDefaultExports(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("defaults.ts",
		f.ExportDefault(num(f, "1")),
		f.ExportDefault(num(f, "2")),
	)

	bound := Bind(file, nil)

	require.True(t, bound.IsExternalModule())
	assert.Equal(t, []int{2528, 2528}, codes(bound.Diagnostics))
	require.NotNil(t, bound.Symbol)
	assert.Equal(t, `"defaults"`, bound.Symbol.EscapedName)
	assert.Len(t, bound.Symbol.Exports.Get(symbols.InternalNameDefault).Declarations, 2)
}

func TestBind_ExportedVariableHasLocalTwin(t *testing.T) {
	f := ast.NewFactory()
	decl := f.VariableDeclaration("a", num(f, "1"))
	stmt := f.VariableStatement(ast.NodeFlagsConst, decl).WithModifiers(ast.ModifierFlagsExport)
	file := f.SourceFile("exports.ts", stmt)

	bound := Bind(file, nil)

	require.Empty(t, bound.Diagnostics)
	require.NotNil(t, bound.Symbol)
	exported := bound.Symbol.Exports.Get("a")
	require.NotNil(t, exported)
	assert.True(t, exported.Has(symbols.KindBlockScopedVariable))
	assert.Same(t, bound.Symbol, exported.Parent)

	local := bound.Locals.Get("a")
	require.NotNil(t, local)
	assert.True(t, local.Has(symbols.KindExportValue))
	assert.Same(t, exported, local.ExportSymbol)
	assert.Same(t, local, bound.LocalSymbolOf(decl))
}

func TestBind_UnusedLabelSeverity(t *testing.T) {
	tests := []struct {
		name  string
		allow options.Tristate
		want  []diagnostics.Category
	}{
		{"disallowed", options.TSFalse, []diagnostics.Category{diagnostics.CategoryError}},
		{"unset", options.TSUnknown, []diagnostics.Category{diagnostics.CategorySuggestion}},
		{"allowed", options.TSTrue, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ast.NewFactory()
			file := f.SourceFile("label.ts", f.Labeled("l", f.ExpressionStatement(f.Identifier("x"))))

			bound := Bind(file, &options.CompilerOptions{AllowUnusedLabels: tt.allow})

			var got []diagnostics.Category
			for _, d := range bound.Diagnostics {
				assert.Equal(t, 7028, d.Code)
				got = append(got, d.Category)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBind_ReferencedLabelIsNotReported(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("label.ts",
		f.Labeled("outer", f.While(f.Identifier("c"), f.Block(f.Break("outer")))),
	)

	bound := Bind(file, nil)

	assert.Empty(t, bound.Diagnostics)
}

func TestBind_JumpTargets(t *testing.T) {
	tests := []struct {
		name string
		stmt func(f *ast.Factory) *ast.Node
		want []int
	}{
		{"break outside loop", func(f *ast.Factory) *ast.Node { return f.Break("") }, []int{1105}},
		{"continue outside loop", func(f *ast.Factory) *ast.Node { return f.Continue("") }, []int{1104}},
		{"break inside function", func(f *ast.Factory) *ast.Node {
			return f.While(f.True(), f.Block(f.ExpressionStatement(
				f.FunctionExpression("", nil, f.Block(f.Break(""))))))
		}, []int{1107}},
		{"continue to block label", func(f *ast.Factory) *ast.Node {
			return f.Labeled("l", f.Block(f.Continue("l")))
		}, []int{1115}},
		{"break to missing label", func(f *ast.Factory) *ast.Node { return f.Break("m") }, []int{1116}},
		{"break in switch", func(f *ast.Factory) *ast.Node {
			return f.Switch(f.Identifier("x"), f.Case(num(f, "1"), f.Break("")))
		}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ast.NewFactory()
			file := f.SourceFile("jumps.ts", tt.stmt(f))

			bound := Bind(file, &options.CompilerOptions{AllowUnusedLabels: options.TSTrue})

			assert.Equal(t, tt.want, codes(bound.Diagnostics))
		})
	}
}

func TestBind_DuplicateLabel(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("labels.ts",
		f.Labeled("l", f.Labeled("l", f.ExpressionStatement(f.Identifier("x")))),
	)

	bound := Bind(file, &options.CompilerOptions{AllowUnusedLabels: options.TSTrue})

	assert.Equal(t, []int{1114}, codes(bound.Diagnostics))
}

func TestBind_StrictModeChecks(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("strict.ts",
		f.ExpressionStatement(f.StringLiteral("use strict")),
		f.VariableStatement(ast.NodeFlagsNone, f.VariableDeclaration("eval", nil)),
		f.ExpressionStatement(f.Delete(f.Identifier("x"))),
		f.With(f.Identifier("o"), f.Block()),
		f.VariableStatement(ast.NodeFlagsNone, f.VariableDeclaration("interface", nil)),
	)

	bound := Bind(file, nil)

	assert.Equal(t, []int{1100, 1102, 1101, 1212}, codes(bound.Diagnostics))
}

func TestBind_SloppyScriptHasNoStrictDiagnostics(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("sloppy.ts",
		f.VariableStatement(ast.NodeFlagsNone, f.VariableDeclaration("eval", nil)),
		f.ExpressionStatement(f.Delete(f.Identifier("x"))),
	)

	bound := Bind(file, nil)

	assert.Empty(t, bound.Diagnostics)
}

func TestBind_EvalInModuleUsesModuleMessage(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("module.ts",
		f.ExpressionStatement(f.Assign(f.Identifier("arguments"), num(f, "1"))),
		f.ExportDefault(num(f, "0")),
	)

	bound := Bind(file, nil)

	assert.Equal(t, []int{1215}, codes(bound.Diagnostics))
}

func TestBind_BlockFunctionInStrictES5(t *testing.T) {
	f := ast.NewFactory()
	inner := f.Function("g", nil, f.Block())
	file := f.SourceFile("es5.ts",
		f.ExpressionStatement(f.StringLiteral("use strict")),
		f.If(f.Identifier("c"), f.Block(inner), nil),
	)

	assert.Equal(t, []int{1250}, codes(Bind(file, &options.CompilerOptions{Target: options.ScriptTargetES5}).Diagnostics))
	assert.Empty(t, Bind(file, &options.CompilerOptions{Target: options.ScriptTargetES2015}).Diagnostics)
}

func TestBind_ClassPrototype(t *testing.T) {
	f := ast.NewFactory()
	static := f.Property("prototype", num(f, "1")).WithModifiers(ast.ModifierFlagsStatic)
	class := f.Class("C", f.Property("p", nil), static)
	file := f.SourceFile("class.ts", class)

	bound := Bind(file, nil)

	assert.Equal(t, []int{2699}, codes(bound.Diagnostics))
	sym := bound.SymbolOf(class)
	require.NotNil(t, sym)
	prototype := sym.Exports.Get(symbols.InternalNamePrototype)
	require.NotNil(t, prototype)
	assert.True(t, prototype.Has(symbols.KindPrototype))
	assert.Same(t, sym, prototype.Parent)
	assert.NotNil(t, sym.Members.Get("p"))
}

func TestBind_SwitchExhaustiveness(t *testing.T) {
	f := ast.NewFactory()
	withoutDefault := f.Switch(f.Identifier("x"),
		f.Case(num(f, "1"), f.Return(nil)),
		f.Case(num(f, "2"), f.Return(nil)),
	)
	withDefault := f.Switch(f.Identifier("x"),
		f.Case(num(f, "1"), f.Return(nil)),
		f.Default(f.Return(nil)),
	)
	file := f.SourceFile("switch.ts",
		f.Function("a", nil, f.Block(withoutDefault)),
		f.Function("b", nil, f.Block(withDefault)),
	)

	bound := Bind(file, nil)

	assert.True(t, bound.IsPossiblyExhaustive(withoutDefault))
	assert.False(t, bound.IsPossiblyExhaustive(withDefault))
}

func TestBind_FallthroughCase(t *testing.T) {
	f := ast.NewFactory()
	first := f.Case(num(f, "1"), f.ExpressionStatement(f.Identifier("y")))
	second := f.Case(num(f, "2"), f.Break(""))
	file := f.SourceFile("fallthrough.ts", f.Switch(f.Identifier("x"), first, second))

	bound := Bind(file, &options.CompilerOptions{NoFallthroughCasesInSwitch: options.TSTrue})
	assert.Equal(t, []int{7029}, codes(bound.Diagnostics))
	assert.NotNil(t, bound.FallthroughFlowOf(first))
	assert.Nil(t, bound.FallthroughFlowOf(second))

	bound = Bind(file, nil)
	assert.Empty(t, bound.Diagnostics)
	assert.Nil(t, bound.FallthroughFlowOf(first))
}

func TestBind_TryFinallyReducesNormalExit(t *testing.T) {
	f := ast.NewFactory()
	after := f.ExpressionStatement(f.Identifier("z"))
	try := f.Try(
		f.Block(f.ExpressionStatement(f.Assign(f.Identifier("x"), num(f, "1")))),
		nil,
		f.Block(f.ExpressionStatement(f.Identifier("y"))),
	)
	file := f.SourceFile("try.ts", f.Function("f", nil, f.Block(try, after)))

	bound := Bind(file, nil)
	require.Empty(t, bound.Diagnostics)

	post := bound.FlowNodeOf(after)
	require.NotNil(t, post)
	require.True(t, post.Is(flow.FlagsReduceLabel), "flow after try: %s", post.Flags)
	require.NotNil(t, post.Reduce)
	finally := post.Reduce.Target
	assert.True(t, finally.Is(flow.FlagsBranchLabel))
	require.Len(t, post.Reduce.Antecedents, 1)
	assert.True(t, post.Reduce.Antecedents[0].Is(flow.FlagsAssignment))

	// The finally block is entered from the normal exit and from every
	// point the try block could have thrown.
	assert.Greater(t, len(finally.Antecedents), len(post.Reduce.Antecedents))
}

func TestBind_NamespaceInstanceState(t *testing.T) {
	f := ast.NewFactory()
	types := f.Namespace("T", f.Interface("I"))
	constEnums := f.Namespace("C", f.Enum("E", f.EnumMember("A", nil)).WithModifiers(ast.ModifierFlagsConst))
	values := f.Namespace("V", f.VariableStatement(ast.NodeFlagsNone, f.VariableDeclaration("v", num(f, "1"))))
	file := f.SourceFile("namespaces.ts", types, constEnums, values)

	assert.Equal(t, ModuleInstanceStateNonInstantiated, GetModuleInstanceState(types))
	assert.Equal(t, ModuleInstanceStateConstEnumOnly, GetModuleInstanceState(constEnums))
	assert.Equal(t, ModuleInstanceStateInstantiated, GetModuleInstanceState(values))

	bound := Bind(file, nil)
	require.Empty(t, bound.Diagnostics)
	assert.True(t, bound.SymbolOf(types).Has(symbols.KindNamespaceModule))
	assert.True(t, bound.SymbolOf(constEnums).Has(symbols.KindValueModule))
	assert.True(t, bound.SymbolOf(constEnums).ConstEnumOnlyModule)
	assert.True(t, bound.SymbolOf(values).Has(symbols.KindValueModule))
	assert.False(t, bound.SymbolOf(values).ConstEnumOnlyModule)
}

func TestBind_MissingNamesDoNotPanic(t *testing.T) {
	f := ast.NewFactory()
	anonymous := f.Class("")
	file := f.SourceFile("broken.ts",
		anonymous,
		f.Unknown(f.Identifier("x"), f.Function("", nil, f.Block())),
		f.VariableStatement(ast.NodeFlagsLet, f.VariableDeclarationOf(nil, nil)),
	)

	require.NotPanics(t, func() { Bind(file, nil) })
	bound := Bind(file, nil)
	sym := bound.SymbolOf(anonymous)
	require.NotNil(t, sym)
	assert.Equal(t, symbols.InternalNameMissing, sym.EscapedName)
}

func TestBind_ParsedSource(t *testing.T) {
	src := `function pick(a: number | undefined) {
    if (a === undefined) {
        return 0;
    }
    return a;
}
const total = pick(1) ?? 2;
`
	file, err := ast.NewTypeScriptParser().Parse(context.Background(), "pick.ts", []byte(src))
	require.NoError(t, err)
	require.Empty(t, file.ParseDiagnostics)

	bound := Bind(file, nil)

	assert.Empty(t, bound.Diagnostics)
	assert.False(t, bound.IsExternalModule())
	require.NotNil(t, bound.Locals.Get("pick"))
	require.NotNil(t, bound.Locals.Get("total"))

	fn := bound.Locals.Get("pick").Declarations[0]
	facts := bound.FunctionFactsOf(fn)
	assert.True(t, facts.HasExplicitReturn)
	assert.False(t, facts.HasImplicitReturn)
	assert.Nil(t, bound.EndFlowNodeOf(fn))
	assert.NotNil(t, bound.LocalsOf(fn).Get("a"))
	assert.NotNil(t, bound.EndFlowNodeOf(file.Root))
	assert.Positive(t, bound.SymbolCount)
}
