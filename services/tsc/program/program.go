// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package program builds a compilation unit: it reads, parses and binds a
// set of root files and the files they import, and exposes the bound files,
// their metadata, the aggregated diagnostics and a type checker over them.
package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/binder"
	"github.com/AleutianAI/tsfront/services/tsc/checker"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/moduleresolution"
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// ErrNoInputFiles is returned by New when no root files are given.
var ErrNoInputFiles = errors.New("program: no input files")

var tracer = otel.Tracer("tsfront.program")

// FileMetadata is what the program learned about a file besides its
// symbols.
type FileMetadata struct {
	// ExternalModuleIndicator is the node that made the file a module, or
	// nil for scripts.
	ExternalModuleIndicator *ast.Node

	// ImpliedNodeFormat is the format implied by extension and
	// package.json, or ResolutionModeNone.
	ImpliedNodeFormat options.ResolutionMode

	// PackageJSONScope is the nearest package.json consulted for the
	// implied format, when one was found.
	PackageJSONScope *moduleresolution.PackageJSONInfo

	// PackageJSONLocations are the package.json paths the implied format
	// depends on.
	PackageJSONLocations []string
}

// Option configures a Program.
type Option func(*Program)

// WithHost sets the file system. Defaults to an OSHost.
func WithHost(host moduleresolution.Host) Option {
	return func(p *Program) {
		if host != nil {
			p.host = host
		}
	}
}

// WithParser sets the parser. Defaults to the tree-sitter TypeScript
// parser.
func WithParser(parser ast.Parser) Option {
	return func(p *Program) {
		if parser != nil {
			p.parser = parser
		}
	}
}

// WithCompilerOptions sets the compiler options.
func WithCompilerOptions(compilerOptions *options.CompilerOptions) Option {
	return func(p *Program) {
		if compilerOptions != nil {
			p.compilerOptions = compilerOptions
		}
	}
}

// WithCache sets the package.json cache shared by every file. Defaults to
// a fresh MemoryCache.
func WithCache(cache moduleresolution.Cache) Option {
	return func(p *Program) {
		if cache != nil {
			p.cache = cache
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Program) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency bounds the files processed in parallel. Values below 1
// mean GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(p *Program) {
		p.concurrency = n
	}
}

// WithFollowImports controls whether resolved imports are added to the
// program. Defaults to true.
func WithFollowImports(follow bool) Option {
	return func(p *Program) {
		p.followImports = follow
	}
}

// Program is a built compilation unit.
//
// Description:
//
//	New processes files in waves. Each wave reads, parses and binds its
//	files in parallel, each file with its own binder, then resolves their
//	imports; resolved source files not seen before form the next wave.
//	Files are kept in discovery order: roots as given, then imports wave
//	by wave in resolved-name order.
//
// Thread Safety: Immutable after New; safe for concurrent use.
type Program struct {
	id              string
	host            moduleresolution.Host
	parser          ast.Parser
	compilerOptions *options.CompilerOptions
	cache           moduleresolution.Cache
	resolver        *moduleresolution.Resolver
	logger          *slog.Logger
	concurrency     int
	followImports   bool

	rootNames []string
	files     []*binder.BoundFile
	byName    map[string]*binder.BoundFile
	metadata  ast.SideTable[FileMetadata]

	// resolved maps a file name to its specifiers' resolved file names.
	resolved map[string]map[string]string

	diagnostics []*diagnostics.Diagnostic
	checker     *checker.Checker

	locationsOnce sync.Once
	locations     []string
}

// importRef is a module specifier written in a file.
type importRef struct {
	specifier string
	node      *ast.Node
}

// fileResult is the outcome of processing one file.
type fileResult struct {
	name       string
	bound      *binder.BoundFile
	metadata   FileMetadata
	imports    []importRef
	resolved   map[string]*moduleresolution.ResolvedModule
	diagnostic *diagnostics.Diagnostic
}

// New builds a program from rootFiles.
//
// Description:
//
//	Root names are made absolute against the host's current directory.
//	A root that cannot be read yields a "File not found" diagnostic, not
//	an error. Import specifiers that resolve to nothing and name no
//	ambient module yield "Cannot find module" diagnostics.
//
// Inputs:
//
//	ctx - Cancels the build. Must not be nil.
//	rootFiles - File names to compile. At least one.
//	opts - Optional settings.
//
// Outputs:
//
//	*Program - The program.
//	error - ErrNoInputFiles, ctx.Err(), or a collaborator failure.
func New(ctx context.Context, rootFiles []string, opts ...Option) (*Program, error) {
	if ctx == nil {
		return nil, errors.New("program: ctx must not be nil")
	}
	if len(rootFiles) == 0 {
		return nil, ErrNoInputFiles
	}
	start := time.Now()

	p := &Program{
		id:              uuid.NewString(),
		logger:          slog.Default(),
		compilerOptions: &options.CompilerOptions{},
		followImports:   true,
		byName:          make(map[string]*binder.BoundFile),
		resolved:        make(map[string]map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.host == nil {
		p.host = moduleresolution.NewOSHost()
	}
	if p.parser == nil {
		p.parser = ast.NewTypeScriptParser(ast.WithParserLogger(p.logger))
	}
	if p.cache == nil {
		p.cache = moduleresolution.NewMemoryCache()
	}
	if p.concurrency < 1 {
		p.concurrency = runtime.GOMAXPROCS(0)
	}
	p.logger = p.logger.With(slog.String("program_id", p.id))

	resolver, err := moduleresolution.NewResolver(p.host, p.compilerOptions, p.cache,
		moduleresolution.WithResolverLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	p.resolver = resolver

	ctx, span := tracer.Start(ctx, "program.New",
		trace.WithAttributes(
			attribute.String("program.id", p.id),
			attribute.Int("root_files", len(rootFiles)),
			attribute.Int("concurrency", p.concurrency)))
	defer span.End()

	if err := p.build(ctx, rootFiles); err != nil {
		status := "error"
		if ctx.Err() != nil {
			status = "canceled"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordBuild(status, time.Since(start))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("files", len(p.files)),
		attribute.Int("diagnostics", len(p.diagnostics)))
	recordBuild("ok", time.Since(start))
	p.logger.Info("program built",
		slog.Int("root_files", len(p.rootNames)),
		slog.Int("files", len(p.files)),
		slog.Int("diagnostics", len(p.diagnostics)),
		slog.Duration("duration", time.Since(start)))
	return p, nil
}

func (p *Program) currentDirectory() string {
	if g, ok := p.host.(moduleresolution.CurrentDirectoryGetter); ok {
		return g.GetCurrentDirectory()
	}
	return ""
}

func (p *Program) build(ctx context.Context, rootFiles []string) error {
	cwd := p.currentDirectory()
	seen := make(map[string]bool, len(rootFiles))
	var queue []string
	for _, name := range rootFiles {
		abs := tspath.GetNormalizedAbsolutePath(name, cwd)
		if seen[abs] {
			continue
		}
		seen[abs] = true
		queue = append(queue, abs)
	}
	p.rootNames = append([]string(nil), queue...)

	var fileDiags []*diagnostics.Diagnostic
	var unresolved []unresolvedImport
	origin := "root"
	for wave := 0; len(queue) > 0; wave++ {
		results, err := p.processWave(ctx, queue, origin)
		if err != nil {
			return err
		}
		var next []string
		for _, r := range results {
			if r.diagnostic != nil {
				fileDiags = append(fileDiags, r.diagnostic)
			}
			if r.bound == nil {
				continue
			}
			p.files = append(p.files, r.bound)
			p.byName[r.name] = r.bound
			p.metadata.Set(r.bound.File.Root, r.metadata)
			if len(r.bound.File.ParseDiagnostics) > 0 {
				fileDiags = append(fileDiags, r.bound.File.ParseDiagnostics...)
			}

			targets := make(map[string]string, len(r.resolved))
			for _, ref := range r.imports {
				mod := r.resolved[ref.specifier]
				if mod == nil {
					unresolved = append(unresolved, unresolvedImport{file: r.bound.File, ref: ref})
					continue
				}
				targets[ref.specifier] = mod.ResolvedFileName
				if p.followImports && shouldFollow(mod) && !seen[mod.ResolvedFileName] {
					seen[mod.ResolvedFileName] = true
					next = append(next, mod.ResolvedFileName)
				}
			}
			p.resolved[r.name] = targets
		}
		sort.Strings(next)
		p.logger.Debug("program wave complete",
			slog.Int("wave", wave),
			slog.Int("files", len(results)),
			slog.Int("discovered", len(next)))
		queue = next
		origin = "import"
	}

	p.checker = checker.New(p.files, p.compilerOptions,
		checker.WithLogger(p.logger),
		checker.WithImportResolver(p.importedFile))

	for _, u := range unresolved {
		if p.checker.Globals().Has(strconv.Quote(u.ref.specifier)) {
			continue
		}
		programUnresolvedImportsTotal.Inc()
		start, length := ast.GetSpanOfNode(u.ref.node, u.file.Text)
		fileDiags = append(fileDiags, diagnostics.New(u.file.FileName, start, length,
			diagnostics.CannotFindModule, u.ref.specifier))
	}

	checked, err := p.checker.GetDiagnostics(ctx, nil)
	if err != nil {
		return err
	}
	p.diagnostics = diagnostics.SortAndDeduplicate(append(fileDiags, checked...))
	return nil
}

type unresolvedImport struct {
	file *ast.SourceFile
	ref  importRef
}

// shouldFollow reports whether a resolved module becomes part of the
// program. JavaScript inside node_modules is left out; its declarations
// are expected to come from .d.ts files.
func shouldFollow(mod *moduleresolution.ResolvedModule) bool {
	if !options.IsSourceFileName(mod.ResolvedFileName) {
		return false
	}
	if mod.IsExternalLibraryImport && !tspath.IsDeclarationFileName(mod.ResolvedFileName) {
		return false
	}
	return true
}

// processWave processes names in parallel, bounded by the concurrency
// setting. Results are in input order.
func (p *Program) processWave(ctx context.Context, names []string, origin string) ([]*fileResult, error) {
	results := make([]*fileResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, name := range names {
		g.Go(func() error {
			r, err := p.processFile(gctx, name, origin)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	return results, nil
}

// processFile reads, parses and binds one file and resolves its imports.
func (p *Program) processFile(ctx context.Context, name, origin string) (*fileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "program.processFile",
		trace.WithAttributes(
			attribute.String("file", name),
			attribute.String("origin", origin)))
	defer span.End()

	result := &fileResult{name: name}
	content, ok := p.host.ReadFile(name)
	if !ok {
		programFilesTotal.WithLabelValues(origin, "missing").Inc()
		result.diagnostic = diagnostics.New("", 0, 0, diagnostics.FileNotFound, name)
		return result, nil
	}

	sf, err := p.parser.Parse(ctx, name, content)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ast.ErrFileTooLarge) || errors.Is(err, ast.ErrInvalidContent) {
			programFilesTotal.WithLabelValues(origin, "rejected").Inc()
			p.logger.Warn("file rejected by parser",
				slog.String("file", name),
				slog.String("error", err.Error()))
			result.diagnostic = diagnostics.New("", 0, 0, diagnostics.CannotReadFile, name, err.Error())
			return result, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	implied, _ := moduleresolution.GetImpliedNodeFormatForFileWorker(ctx, sf.FileName, p.cache, p.host, p.compilerOptions)
	bound := binder.Bind(sf, p.compilerOptions,
		binder.WithImpliedNodeFormat(implied.Format),
		binder.WithLogger(p.logger))

	result.bound = bound
	result.metadata = FileMetadata{
		ExternalModuleIndicator: bound.ExternalModuleIndicator,
		ImpliedNodeFormat:       implied.Format,
		PackageJSONScope:        implied.PackageJSONScope,
		PackageJSONLocations:    implied.PackageJSONLocations,
	}
	result.imports = collectImports(bound)
	result.resolved = make(map[string]*moduleresolution.ResolvedModule, len(result.imports))
	for _, ref := range result.imports {
		if _, done := result.resolved[ref.specifier]; done {
			continue
		}
		mod, err := p.resolver.ResolveModuleName(ctx, ref.specifier, sf.FileName, implied.Format)
		if err != nil {
			return nil, fmt.Errorf("resolve %q from %s: %w", ref.specifier, name, err)
		}
		result.resolved[ref.specifier] = mod
	}

	programFilesTotal.WithLabelValues(origin, "ok").Inc()
	span.SetAttributes(
		attribute.Int("imports", len(result.imports)),
		attribute.Bool("external_module", bound.IsExternalModule()))
	return result, nil
}

// collectImports returns the module specifiers of a file's imports,
// re-exports and import-equals declarations, including those inside
// ambient module declarations, and the names of module augmentations.
func collectImports(bound *binder.BoundFile) []importRef {
	var refs []importRef
	var visit func(statements []*ast.Node, inAmbientModule bool)
	visit = func(statements []*ast.Node, inAmbientModule bool) {
		for _, stmt := range statements {
			switch stmt.Kind {
			case ast.KindImportDeclaration, ast.KindExportDeclaration:
				if spec := ast.ModuleSpecifierText(stmt); spec != "" {
					refs = append(refs, importRef{specifier: spec, node: stmt.ModuleSpecifier})
				}
			case ast.KindImportEqualsDeclaration:
				if spec := ast.ModuleSpecifierText(stmt); spec != "" {
					refs = append(refs, importRef{specifier: spec, node: stmt.Expression.Expression})
				}
			case ast.KindModuleDeclaration:
				if inAmbientModule || !ast.IsAmbientModule(stmt) || ast.IsGlobalScopeAugmentation(stmt) {
					continue
				}
				if ast.IsExternalModuleAugmentation(stmt, bound.IsExternalModule()) && ast.IsStringLiteralLike(stmt.Name) {
					refs = append(refs, importRef{specifier: stmt.Name.Text, node: stmt.Name})
				}
				if stmt.Body != nil {
					visit(stmt.Body.Statements, true)
				}
			}
		}
	}
	visit(bound.File.Statements(), false)
	return refs
}

// importedFile is the checker's view of the resolution table.
func (p *Program) importedFile(specifier string, from *ast.SourceFile) *binder.BoundFile {
	if from == nil {
		return nil
	}
	target, ok := p.resolved[from.FileName][specifier]
	if !ok {
		return nil
	}
	return p.byName[target]
}

// ID returns the program's unique id, attached to its logs and spans.
func (p *Program) ID() string { return p.id }

// RootFileNames returns the normalized root file names.
func (p *Program) RootFileNames() []string {
	return append([]string(nil), p.rootNames...)
}

// Files returns the bound files in discovery order.
func (p *Program) Files() []*binder.BoundFile {
	return append([]*binder.BoundFile(nil), p.files...)
}

// SourceFiles returns the parsed files in discovery order.
func (p *Program) SourceFiles() []*ast.SourceFile {
	out := make([]*ast.SourceFile, len(p.files))
	for i, f := range p.files {
		out[i] = f.File
	}
	return out
}

// GetBoundFile returns the bound file named fileName, or nil.
func (p *Program) GetBoundFile(fileName string) *binder.BoundFile {
	return p.byName[tspath.GetNormalizedAbsolutePath(fileName, p.currentDirectory())]
}

// Metadata returns what the program recorded for file.
func (p *Program) Metadata(file *ast.SourceFile) (FileMetadata, bool) {
	if file == nil {
		return FileMetadata{}, false
	}
	return p.metadata.Get(file.Root)
}

// ResolvedModules returns the resolved file name of each import specifier
// written in fileName.
func (p *Program) ResolvedModules(fileName string) map[string]string {
	src := p.resolved[tspath.GetNormalizedAbsolutePath(fileName, p.currentDirectory())]
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// PackageJSONLocations returns every package.json path any file's
// implied format depends on, sorted and deduplicated. A watcher over
// these paths knows when the program is stale.
func (p *Program) PackageJSONLocations() []string {
	p.locationsOnce.Do(func() {
		seen := make(map[string]bool)
		for _, f := range p.files {
			md, _ := p.metadata.Get(f.File.Root)
			for _, loc := range md.PackageJSONLocations {
				if !seen[loc] {
					seen[loc] = true
					p.locations = append(p.locations, loc)
				}
			}
		}
		sort.Strings(p.locations)
	})
	return append([]string(nil), p.locations...)
}

// Diagnostics returns the parse, bind, resolution and merge diagnostics
// of every file, sorted and deduplicated.
func (p *Program) Diagnostics() []*diagnostics.Diagnostic {
	return append([]*diagnostics.Diagnostic(nil), p.diagnostics...)
}

// HasErrors reports whether any diagnostic is an error.
func (p *Program) HasErrors() bool {
	return diagnostics.CountByCategory(p.diagnostics, diagnostics.CategoryError) > 0
}

// TypeChecker returns the checker over the program's files.
func (p *Program) TypeChecker() checker.TypeChecker { return p.checker }

// Checker returns the concrete checker, for callers that need its
// globals table.
func (p *Program) Checker() *checker.Checker { return p.checker }

// CompilerOptions returns the options the program was built with.
func (p *Program) CompilerOptions() *options.CompilerOptions { return p.compilerOptions }

// Cache returns the package.json cache shared by the program's files.
func (p *Program) Cache() moduleresolution.Cache { return p.cache }
