// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/binder"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
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

func names(syms []*symbols.Symbol) []string {
	out := make([]string, 0, len(syms))
	for _, s := range syms {
		out = append(out, s.Name())
	}
	return out
}

func bind(files ...*ast.SourceFile) []*binder.BoundFile {
	out := make([]*binder.BoundFile, 0, len(files))
	for _, f := range files {
		out = append(out, binder.Bind(f, nil))
	}
	return out
}

// resolverFor maps specifiers to bound files by exact name.
func resolverFor(targets map[string]*binder.BoundFile) ImportResolver {
	return func(specifier string, _ *ast.SourceFile) *binder.BoundFile {
		return targets[specifier]
	}
}

func unionNode(types ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindUnionType, Pos: -1, End: -1, Types: types}
}

func TestChecker_ScriptInterfacesMergeAcrossFiles(t *testing.T) {
	f := ast.NewFactory()
	a := f.SourceFile("a.ts", f.Interface("Shape", f.PropertySignature("area", f.KeywordType("number"))))
	b := f.SourceFile("b.ts", f.Interface("Shape", f.PropertySignature("name", f.KeywordType("string"))))

	c := New(bind(a, b), nil)

	diags, err := c.GetDiagnostics(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	shape := c.Globals().Get("Shape")
	require.NotNil(t, shape)
	assert.Len(t, shape.Declarations, 2)
	assert.NotZero(t, shape.Facets&symbols.FacetTransient)
	assert.True(t, shape.Members.Has("area"))
	assert.True(t, shape.Members.Has("name"))

	local := c.Files()[1].Locals.Get("Shape")
	merged, err := c.GetMergedSymbol(context.Background(), local)
	require.NoError(t, err)
	assert.Same(t, shape, merged)
}

func TestChecker_CrossFileRedeclaration(t *testing.T) {
	tests := []struct {
		name  string
		flags ast.NodeFlags
		want  int
	}{
		{"let is block scoped", ast.NodeFlagsLet, 2451},
		{"var against function", ast.NodeFlagsNone, 2300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ast.NewFactory()
			a := f.SourceFile("a.ts", f.VariableStatement(tt.flags, f.VariableDeclaration("x", f.NumericLiteral("1"))))
			var second *ast.Node
			if tt.flags == ast.NodeFlagsNone {
				second = f.Function("x", nil, f.Block())
			} else {
				second = f.VariableStatement(tt.flags, f.VariableDeclaration("x", f.NumericLiteral("2")))
			}
			b := f.SourceFile("b.ts", second)

			c := New(bind(a, b), nil)

			diags, err := c.GetDiagnostics(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.want, tt.want}, codes(diags))
			assert.Equal(t, "a.ts", diags[0].File)
			assert.Equal(t, "b.ts", diags[1].File)

			onlyB, err := c.GetDiagnostics(context.Background(), b)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.want}, codes(onlyB))
		})
	}
}

func TestChecker_ImportAliasResolution(t *testing.T) {
	f := ast.NewFactory()
	valueDecl := f.VariableDeclaration("value", f.NumericLiteral("1"))
	lib := f.SourceFile("lib.ts",
		f.VariableStatement(ast.NodeFlagsConst, valueDecl).WithModifiers(ast.ModifierFlagsExport),
	)
	use := f.Identifier("value")
	main := f.SourceFile("main.ts",
		f.Import("", []string{"value"}, "./lib"),
		f.ExpressionStatement(use),
	)
	bound := bind(lib, main)
	c := New(bound, nil, WithImportResolver(resolverFor(map[string]*binder.BoundFile{"./lib": bound[0]})))
	ctx := context.Background()

	alias, err := c.GetSymbolAtLocation(ctx, use)
	require.NoError(t, err)
	require.NotNil(t, alias)
	assert.True(t, alias.Has(symbols.KindAlias))

	target, err := c.GetAliasedSymbol(ctx, alias)
	require.NoError(t, err)
	assert.Same(t, bound[0].Symbol.Exports.Get("value"), target)

	typ, err := c.GetTypeOfSymbol(ctx, alias)
	require.NoError(t, err)
	assert.Equal(t, "1", c.TypeToString(typ))

	exports, err := c.GetExportsOfModule(ctx, bound[0].Symbol)
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, names(exports))

	name, err := c.GetFullyQualifiedName(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, `"lib".value`, name)
}

func TestChecker_UnresolvedImportYieldsNoTarget(t *testing.T) {
	f := ast.NewFactory()
	use := f.Identifier("missing")
	main := f.SourceFile("main.ts",
		f.Import("", []string{"missing"}, "./nowhere"),
		f.ExpressionStatement(use),
	)
	c := New(bind(main), nil)
	ctx := context.Background()

	alias, err := c.GetSymbolAtLocation(ctx, use)
	require.NoError(t, err)
	require.NotNil(t, alias)

	target, err := c.GetAliasedSymbol(ctx, alias)
	require.NoError(t, err)
	assert.Nil(t, target)

	typ, err := c.GetTypeOfSymbol(ctx, alias)
	require.NoError(t, err)
	assert.Same(t, c.GetErrorType(), typ)
}

func TestChecker_CyclicReExportsTerminate(t *testing.T) {
	f := ast.NewFactory()
	a := f.SourceFile("a.ts", f.ExportStar("./b"))
	b := f.SourceFile("b.ts", f.ExportStar("./a"))
	bound := bind(a, b)
	c := New(bound, nil, WithImportResolver(resolverFor(map[string]*binder.BoundFile{
		"./a": bound[0],
		"./b": bound[1],
	})))
	ctx := context.Background()

	sym, err := c.TryGetMemberInModuleExports(ctx, "nothing", bound[0].Symbol)
	require.NoError(t, err)
	assert.Nil(t, sym)

	exports, err := c.GetExportsOfModule(ctx, bound[0].Symbol)
	require.NoError(t, err)
	assert.Empty(t, exports)
}

func TestChecker_GetSymbolsInScope(t *testing.T) {
	f := ast.NewFactory()
	inner := f.ExpressionStatement(f.Identifier("p"))
	fn := f.Function("outer", []*ast.Node{f.Parameter("p", nil)}, f.Block(
		f.VariableStatement(ast.NodeFlagsLet, f.VariableDeclaration("local", nil)),
		inner,
	))
	file := f.SourceFile("scope.ts",
		f.VariableStatement(ast.NodeFlagsNone, f.VariableDeclaration("top", nil)),
		fn,
	)
	c := New(bind(file), nil)

	syms, err := c.GetSymbolsInScope(context.Background(), inner, symbols.ValueKinds)
	require.NoError(t, err)
	got := names(syms)
	for _, want := range []string{"local", "p", "top", "outer"} {
		assert.Contains(t, got, want)
	}
	assert.Less(t, indexOf(got, "p"), indexOf(got, "top"), "inner scopes come first")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestChecker_TypeOfAnnotatedDeclarations(t *testing.T) {
	f := ast.NewFactory()
	union := f.VariableDeclaration("u", nil)
	union.Type = unionNode(f.KeywordType("string"), f.KeywordType("number"))
	point := f.VariableDeclaration("pt", nil)
	point.Type = f.TypeReference("Point")
	widened := f.VariableDeclaration("w", f.StringLiteral("hi"))
	constant := f.VariableDeclaration("k", f.StringLiteral("hi"))

	file := f.SourceFile("types.ts",
		f.Interface("Point",
			f.PropertySignature("x", f.KeywordType("number")),
			f.PropertySignature("y", f.KeywordType("number")),
		),
		f.VariableStatement(ast.NodeFlagsLet, union, point, widened),
		f.VariableStatement(ast.NodeFlagsConst, constant),
	)
	bound := bind(file)
	c := New(bound, nil)
	ctx := context.Background()

	typeOf := func(decl *ast.Node) *Type {
		t.Helper()
		typ, err := c.GetTypeAtLocation(ctx, decl.Name)
		require.NoError(t, err)
		return typ
	}

	assert.Equal(t, "string | number", c.TypeToString(typeOf(union)))
	assert.Equal(t, "string", c.TypeToString(typeOf(widened)))
	assert.Equal(t, `"hi"`, c.TypeToString(typeOf(constant)))

	pt := typeOf(point)
	assert.Equal(t, "Point", c.TypeToString(pt))
	assert.NotZero(t, pt.ObjectFlags&ObjectFlagsInterface)

	props, err := c.GetPropertiesOfType(ctx, pt)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, names(props))

	x, err := c.GetPropertyOfType(ctx, pt, "x")
	require.NoError(t, err)
	require.NotNil(t, x)
	xType, err := c.GetTypeOfSymbol(ctx, x)
	require.NoError(t, err)
	assert.Same(t, c.GetNumberType(), xType)

	missing, err := c.GetPropertyOfType(ctx, pt, "z")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChecker_Signatures(t *testing.T) {
	f := ast.NewFactory()
	rest := f.Parameter("rest", nil)
	rest.Operator = "..."
	params := []*ast.Node{f.Parameter("a", nil), f.Parameter("b", f.NumericLiteral("1")), rest}
	fn := f.Function("h", params, f.Block())
	file := f.SourceFile("sig.ts", fn)
	c := New(bind(file), nil)
	ctx := context.Background()

	typ, err := c.GetTypeAtLocation(ctx, fn.Name)
	require.NoError(t, err)
	assert.Equal(t, "typeof h", c.TypeToString(typ))

	sigs, err := c.GetSignaturesOfType(ctx, typ, SignatureKindCall)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, 1, sigs[0].MinArgumentCount)
	assert.True(t, sigs[0].HasRestParameter)
	assert.Len(t, sigs[0].Parameters, 3)

	ret, err := c.GetReturnTypeOfSignature(ctx, sigs[0])
	require.NoError(t, err)
	assert.Same(t, c.GetVoidType(), ret)

	ctors, err := c.GetSignaturesOfType(ctx, typ, SignatureKindConstruct)
	require.NoError(t, err)
	assert.Empty(t, ctors)
}

func TestChecker_GetUnionType(t *testing.T) {
	c := New(nil, nil)

	assert.Same(t, c.GetBooleanType(), c.GetUnionType(c.GetTrueType(), c.GetFalseType()))
	assert.Same(t, c.GetStringType(), c.GetUnionType(c.GetStringType(), c.GetNeverType()))
	assert.Same(t, c.GetAnyType(), c.GetUnionType(c.GetStringType(), c.GetAnyType()))
	assert.Same(t, c.GetNeverType(), c.GetUnionType())

	sn := c.GetUnionType(c.GetStringType(), c.GetNumberType())
	assert.Same(t, sn, c.GetUnionType(c.GetNumberType(), c.GetStringType(), c.GetStringType()))
	assert.Equal(t, "string | number", c.TypeToString(sn))

	nested := c.GetUnionType(sn, c.GetBooleanType())
	assert.Equal(t, "string | number | boolean", c.TypeToString(nested))
}

func TestChecker_LiteralWidening(t *testing.T) {
	c := New(nil, nil)
	hi := c.literalType(TypeFlagsStringLiteral, "hi")

	assert.Same(t, hi, c.literalType(TypeFlagsStringLiteral, "hi"))
	assert.Same(t, c.GetStringType(), c.GetBaseTypeOfLiteralType(hi))
	assert.Same(t, c.GetBooleanType(), c.GetBaseTypeOfLiteralType(c.GetTrueType()))
	assert.Same(t, c.GetAnyType(), c.GetWidenedType(c.GetNullType()))

	strict := New(nil, &options.CompilerOptions{StrictNullChecks: options.TSTrue})
	assert.Same(t, strict.GetNullType(), strict.GetWidenedType(strict.GetNullType()))

	maybe := c.GetUnionType(c.GetStringType(), c.GetUndefinedType())
	assert.True(t, c.IsNullableType(maybe))
	assert.False(t, c.IsNullableType(c.GetStringType()))
	assert.Same(t, c.GetStringType(), c.GetNonNullableType(maybe))
}

func TestChecker_IsTypeAssignableTo(t *testing.T) {
	loose := New(nil, nil)
	strict := New(nil, &options.CompilerOptions{StrictNullChecks: options.TSTrue})

	tests := []struct {
		name   string
		c      *Checker
		source func(c *Checker) *Type
		target func(c *Checker) *Type
		want   bool
	}{
		{"literal to its base", loose,
			func(c *Checker) *Type { return c.literalType(TypeFlagsStringLiteral, "a") },
			(*Checker).GetStringType, true},
		{"base to literal", loose,
			(*Checker).GetStringType,
			func(c *Checker) *Type { return c.literalType(TypeFlagsStringLiteral, "a") }, false},
		{"member to union", loose,
			(*Checker).GetNumberType,
			func(c *Checker) *Type { return c.GetUnionType(c.GetStringType(), c.GetNumberType()) }, true},
		{"union to member", loose,
			func(c *Checker) *Type { return c.GetUnionType(c.GetStringType(), c.GetNumberType()) },
			(*Checker).GetNumberType, false},
		{"boolean to true", loose, (*Checker).GetBooleanType, (*Checker).GetTrueType, false},
		{"true to boolean", loose, (*Checker).GetTrueType, (*Checker).GetBooleanType, true},
		{"undefined to number without strict", loose, (*Checker).GetUndefinedType, (*Checker).GetNumberType, true},
		{"undefined to number with strict", strict, (*Checker).GetUndefinedType, (*Checker).GetNumberType, false},
		{"undefined to void with strict", strict, (*Checker).GetUndefinedType, (*Checker).GetVoidType, true},
		{"anything to unknown", strict, (*Checker).GetESSymbolType, (*Checker).GetUnknownType, true},
		{"unknown to string", strict, (*Checker).GetUnknownType, (*Checker).GetStringType, false},
		{"never to anything", strict, (*Checker).GetNeverType, (*Checker).GetBigIntType, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.c.IsTypeAssignableTo(context.Background(), tt.source(tt.c), tt.target(tt.c))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecker_NamespaceQualifiedNames(t *testing.T) {
	f := ast.NewFactory()
	member := f.VariableDeclaration("x", f.NumericLiteral("1"))
	ns := f.Namespace("N", f.VariableStatement(ast.NodeFlagsConst, member).WithModifiers(ast.ModifierFlagsExport))
	access := f.PropertyAccess(f.Identifier("N"), "x")
	file := f.SourceFile("ns.ts", ns, f.ExpressionStatement(access))
	c := New(bind(file), nil)
	ctx := context.Background()

	sym, err := c.GetSymbolAtLocation(ctx, access.Name)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "N.x", c.SymbolToString(sym))

	name, err := c.GetFullyQualifiedName(ctx, sym)
	require.NoError(t, err)
	assert.Equal(t, "N.x", name)

	typ, err := c.GetTypeAtLocation(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, "1", c.TypeToString(typ))

	nsType, err := c.GetTypeAtLocation(ctx, ns.Name)
	require.NoError(t, err)
	assert.Equal(t, "typeof N", c.TypeToString(nsType))
}

func TestChecker_AmbientModules(t *testing.T) {
	f := ast.NewFactory()
	decl := f.AmbientModule("fs",
		f.Function("readFile", nil, nil).WithModifiers(ast.ModifierFlagsExport))
	file := f.SourceFile("ambient.d.ts", decl)
	c := New(bind(file), nil)
	ctx := context.Background()

	mods, err := c.GetAmbientModules(ctx)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, `"fs"`, mods[0].EscapedName)

	read, err := c.TryGetMemberInModuleExports(ctx, "readFile", mods[0])
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.True(t, read.Has(symbols.KindFunction))
}

func TestChecker_CancelledContext(t *testing.T) {
	f := ast.NewFactory()
	id := f.Identifier("x")
	file := f.SourceFile("c.ts", f.ExpressionStatement(id))
	c := New(bind(file), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetSymbolAtLocation(ctx, id)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = c.GetTypeAtLocation(ctx, id)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = c.GetDiagnostics(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChecker_ForeignNode(t *testing.T) {
	f := ast.NewFactory()
	file := f.SourceFile("known.ts", f.ExpressionStatement(f.Identifier("x")))
	c := New(bind(file), nil)
	stray := f.SourceFile("stray.ts", f.ExpressionStatement(f.Identifier("y")))

	_, err := c.GetSymbolAtLocation(context.Background(), stray.Root.Statements[0].Expression)
	assert.ErrorIs(t, err, ErrForeignNode)
	_, err = c.GetDiagnostics(context.Background(), stray)
	assert.ErrorIs(t, err, ErrForeignNode)
}

func TestChecker_UninferableExpression(t *testing.T) {
	f := ast.NewFactory()
	call := f.Call(f.Identifier("g"))
	file := f.SourceFile("call.ts", f.ExpressionStatement(call))
	c := New(bind(file), nil)

	_, err := c.GetTypeAtLocation(context.Background(), call)
	assert.ErrorIs(t, err, ErrNotImplemented)
}
