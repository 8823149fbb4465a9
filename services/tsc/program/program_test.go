// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package program

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/moduleresolution"
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// memHost serves files from a map rooted at /src.
type memHost struct {
	files map[string]string
}

func (h *memHost) FileExists(path string) bool {
	_, ok := h.files[path]
	return ok
}

func (h *memHost) ReadFile(path string) ([]byte, bool) {
	content, ok := h.files[path]
	if !ok {
		return nil, false
	}
	return []byte(content), true
}

func (h *memHost) GetCurrentDirectory() string { return "/src" }

// builder produces the statements of one file.
type builder func(f *ast.Factory) []*ast.Node

// fakeParser builds files with the AST factory instead of parsing text.
// Files without a builder parse to an empty file.
type fakeParser struct {
	mu       sync.Mutex
	builders map[string]builder
	failures map[string]error
	calls    atomic.Int64
}

func (p *fakeParser) Parse(ctx context.Context, fileName string, _ []byte) (*ast.SourceFile, error) {
	p.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures[fileName]; err != nil {
		return nil, err
	}
	f := ast.NewFactory()
	var statements []*ast.Node
	if build := p.builders[fileName]; build != nil {
		statements = build(f)
	}
	return f.SourceFile(fileName, statements...), nil
}

type fixture struct {
	host   *memHost
	parser *fakeParser
}

func newFixture() *fixture {
	return &fixture{
		host:   &memHost{files: make(map[string]string)},
		parser: &fakeParser{builders: make(map[string]builder), failures: make(map[string]error)},
	}
}

func (fx *fixture) add(name string, build builder) {
	fx.host.files[name] = "// " + name
	fx.parser.builders[name] = build
}

func (fx *fixture) build(t *testing.T, roots []string, opts ...Option) *Program {
	t.Helper()
	opts = append([]Option{WithHost(fx.host), WithParser(fx.parser)}, opts...)
	p, err := New(context.Background(), roots, opts...)
	require.NoError(t, err)
	return p
}

func fileNames(p *Program) []string {
	var out []string
	for _, f := range p.SourceFiles() {
		out = append(out, f.FileName)
	}
	return out
}

func diagCodes(diags []*diagnostics.Diagnostic) []int {
	out := make([]int, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func exportConst(name, value string) builder {
	return func(f *ast.Factory) []*ast.Node {
		decl := f.VariableDeclaration(name, f.NumericLiteral(value))
		return []*ast.Node{f.VariableStatement(ast.NodeFlagsConst, decl).WithModifiers(ast.ModifierFlagsExport)}
	}
}

func TestNew_NoInputFiles(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoInputFiles)
}

func TestNew_FollowsRelativeImports(t *testing.T) {
	fx := newFixture()
	var use *ast.Node
	fx.add("/src/main.ts", func(f *ast.Factory) []*ast.Node {
		use = f.Identifier("value")
		return []*ast.Node{
			f.Import("", []string{"value"}, "./lib"),
			f.ExpressionStatement(use),
		}
	})
	fx.add("/src/lib.ts", func(f *ast.Factory) []*ast.Node {
		return append(exportConst("value", "1")(f), f.ExportStar("./deep"))
	})
	fx.add("/src/deep.ts", exportConst("other", "2"))

	p := fx.build(t, []string{"main.ts"})

	assert.Equal(t, []string{"/src/main.ts"}, p.RootFileNames())
	assert.Equal(t, []string{"/src/main.ts", "/src/lib.ts", "/src/deep.ts"}, fileNames(p))
	assert.Empty(t, p.Diagnostics())
	assert.False(t, p.HasErrors())
	assert.Equal(t, map[string]string{"./lib": "/src/lib.ts"}, p.ResolvedModules("main.ts"))
	assert.NotEmpty(t, p.ID())

	ctx := context.Background()
	tc := p.TypeChecker()
	alias, err := tc.GetSymbolAtLocation(ctx, use)
	require.NoError(t, err)
	require.NotNil(t, alias)
	target, err := tc.GetAliasedSymbol(ctx, alias)
	require.NoError(t, err)
	require.NotNil(t, target)

	lib := p.GetBoundFile("/src/lib.ts")
	require.NotNil(t, lib)
	assert.Same(t, lib.Symbol.Exports.Get("value"), target)

	exports, err := tc.GetExportsOfModule(ctx, lib.Symbol)
	require.NoError(t, err)
	var got []string
	for _, s := range exports {
		got = append(got, s.Name())
	}
	assert.ElementsMatch(t, []string{"value", "other"}, got)
}

func TestNew_WithoutFollowingImports(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", func(f *ast.Factory) []*ast.Node {
		return []*ast.Node{f.Import("", []string{"value"}, "./lib")}
	})
	fx.add("/src/lib.ts", exportConst("value", "1"))

	p := fx.build(t, []string{"/src/main.ts"}, WithFollowImports(false))

	assert.Equal(t, []string{"/src/main.ts"}, fileNames(p))
	assert.Empty(t, p.Diagnostics())
	assert.Equal(t, "/src/lib.ts", p.ResolvedModules("/src/main.ts")["./lib"])
}

func TestNew_ReportsUnresolvedImports(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", func(f *ast.Factory) []*ast.Node {
		return []*ast.Node{
			f.Import("", []string{"a"}, "./missing"),
			f.Import("", []string{"b"}, "declared"),
		}
	})
	fx.add("/src/types.d.ts", func(f *ast.Factory) []*ast.Node {
		return []*ast.Node{f.AmbientModule("declared", exportConst("b", "1")(f)...)}
	})

	p := fx.build(t, []string{"/src/main.ts", "/src/types.d.ts"})

	diags := p.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.CannotFindModule.Code, diags[0].Code)
	assert.Equal(t, "/src/main.ts", diags[0].File)
	assert.Contains(t, diags[0].Text, "./missing")
	assert.True(t, p.HasErrors())
}

func TestNew_MissingRootFile(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", exportConst("a", "1"))

	p := fx.build(t, []string{"/src/main.ts", "/src/gone.ts"})

	assert.Equal(t, []string{"/src/main.ts"}, fileNames(p))
	assert.Equal(t, []int{diagnostics.FileNotFound.Code}, diagCodes(p.Diagnostics()))
	assert.Contains(t, p.Diagnostics()[0].Text, "/src/gone.ts")
}

func TestNew_RejectedFileBecomesDiagnostic(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", exportConst("a", "1"))
	fx.add("/src/huge.ts", nil)
	fx.parser.failures["/src/huge.ts"] = fmt.Errorf("huge.ts: %w", ast.ErrFileTooLarge)

	p := fx.build(t, []string{"/src/main.ts", "/src/huge.ts"})

	assert.Equal(t, []string{"/src/main.ts"}, fileNames(p))
	assert.Equal(t, []int{diagnostics.CannotReadFile.Code}, diagCodes(p.Diagnostics()))
}

func TestNew_ParserFailureIsAnError(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", nil)
	fx.parser.failures["/src/main.ts"] = fmt.Errorf("parser crashed")

	_, err := New(context.Background(), []string{"/src/main.ts"}, WithHost(fx.host), WithParser(fx.parser))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parser crashed")
}

func TestNew_MergeDiagnosticsAcrossScripts(t *testing.T) {
	fx := newFixture()
	letX := func(f *ast.Factory) []*ast.Node {
		return []*ast.Node{f.VariableStatement(ast.NodeFlagsLet, f.VariableDeclaration("x", nil))}
	}
	fx.add("/src/a.ts", letX)
	fx.add("/src/b.ts", letX)

	p := fx.build(t, []string{"/src/a.ts", "/src/b.ts"})

	diags := p.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, "/src/a.ts", diags[0].File)
	assert.Equal(t, "/src/b.ts", diags[1].File)
	for _, d := range diags {
		assert.Equal(t, 2451, d.Code)
	}
}

func TestNew_Metadata(t *testing.T) {
	fx := newFixture()
	fx.add("/src/mod.ts", exportConst("a", "1"))
	fx.add("/src/script.ts", func(f *ast.Factory) []*ast.Node {
		return []*ast.Node{f.VariableStatement(ast.NodeFlagsLet, f.VariableDeclaration("y", nil))}
	})

	p := fx.build(t, []string{"/src/mod.ts", "/src/script.ts"})

	mod, ok := p.Metadata(p.GetBoundFile("/src/mod.ts").File)
	require.True(t, ok)
	assert.NotNil(t, mod.ExternalModuleIndicator)
	assert.Equal(t, options.ResolutionModeNone, mod.ImpliedNodeFormat)

	script, ok := p.Metadata(p.GetBoundFile("/src/script.ts").File)
	require.True(t, ok)
	assert.Nil(t, script.ExternalModuleIndicator)

	_, ok = p.Metadata(nil)
	assert.False(t, ok)
}

func TestNew_ImpliedFormatFromPackageJSON(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", exportConst("a", "1"))
	fx.host.files["/src/package.json"] = `{"type": "module"}`

	p := fx.build(t, []string{"/src/main.ts"},
		WithCompilerOptions(&options.CompilerOptions{ModuleResolution: options.ModuleResolutionKindNodeNext}))

	md, ok := p.Metadata(p.GetBoundFile("/src/main.ts").File)
	require.True(t, ok)
	assert.Equal(t, options.ResolutionModeESM, md.ImpliedNodeFormat)
	require.NotNil(t, md.PackageJSONScope)
	assert.Equal(t, "module", md.PackageJSONScope.Type())
	assert.Contains(t, p.PackageJSONLocations(), "/src/package.json")
}

func TestNew_Cancelled(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", exportConst("a", "1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, []string{"/src/main.ts"}, WithHost(fx.host), WithParser(fx.parser))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_DeterministicUnderConcurrency(t *testing.T) {
	fx := newFixture()
	var roots []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("/src/f%02d.ts", i)
		roots = append(roots, name)
		dep := fmt.Sprintf("./shared%d", i%3)
		fx.add(name, func(f *ast.Factory) []*ast.Node {
			return []*ast.Node{f.Import("", []string{"s"}, dep)}
		})
	}
	for i := 0; i < 3; i++ {
		fx.add(fmt.Sprintf("/src/shared%d.ts", i), exportConst("s", fmt.Sprint(i)))
	}

	serial := fx.build(t, roots, WithConcurrency(1))
	parallel := fx.build(t, roots, WithConcurrency(8))

	assert.Equal(t, fileNames(serial), fileNames(parallel))
	assert.Len(t, fileNames(parallel), 15)
	assert.Equal(t, "/src/shared0.ts", fileNames(parallel)[12])
	assert.NotEqual(t, serial.ID(), parallel.ID())
}

func TestNew_DuplicateRootsAreParsedOnce(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", exportConst("a", "1"))

	p := fx.build(t, []string{"main.ts", "/src/main.ts", "./main.ts"})

	assert.Equal(t, []string{"/src/main.ts"}, p.RootFileNames())
	assert.Equal(t, int64(1), fx.parser.calls.Load())
}

func TestNew_SharesCacheAcrossPrograms(t *testing.T) {
	fx := newFixture()
	fx.add("/src/main.ts", exportConst("a", "1"))
	cache := moduleresolution.NewMemoryCache()

	p := fx.build(t, []string{"/src/main.ts"}, WithCache(cache))
	assert.Same(t, cache, p.Cache())
}

func TestNew_GlobalsVisibleAcrossScripts(t *testing.T) {
	fx := newFixture()
	fx.add("/src/a.ts", func(f *ast.Factory) []*ast.Node {
		return []*ast.Node{f.Interface("Shape", f.PropertySignature("area", f.KeywordType("number")))}
	})
	fx.add("/src/b.ts", func(f *ast.Factory) []*ast.Node {
		return []*ast.Node{f.Interface("Shape", f.PropertySignature("name", f.KeywordType("string")))}
	})

	p := fx.build(t, []string{"/src/a.ts", "/src/b.ts"})

	shape := p.Checker().Globals().Get("Shape")
	require.NotNil(t, shape)
	assert.True(t, shape.Has(symbols.KindInterface))
	assert.Len(t, shape.Declarations, 2)
	assert.Empty(t, p.Diagnostics())
}
