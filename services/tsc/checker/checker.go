// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package checker defines the type checker query surface and a checker
// that answers it from binder output.
//
// The Checker resolves names through the locals, members and exports the
// binder recorded, merges the global declarations of script files, and
// follows import aliases across files. Types are produced for keyword
// types, literals, declared classes, interfaces, enums and type
// parameters, and for annotations built from those. Anything that needs
// inference, instantiation or structural comparison of object types
// reports ErrNotImplemented.
package checker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/binder"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

var (
	// ErrNotImplemented is returned by queries that need the inference
	// engine.
	ErrNotImplemented = errors.New("checker: not implemented")

	// ErrForeignNode is returned when a node does not belong to any file
	// the checker was built from.
	ErrForeignNode = errors.New("checker: node is not part of the program")
)

var tracer = otel.Tracer("tsfront.checker")

// TypeChecker is the query surface consumed by language services and
// emitters.
//
// Every query takes a context and returns ctx.Err() once the context is
// done. Queries never modify the bound files.
type TypeChecker interface {
	// Symbols.
	GetSymbolAtLocation(ctx context.Context, node *ast.Node) (*symbols.Symbol, error)
	GetSymbolsInScope(ctx context.Context, location *ast.Node, meaning symbols.KindSet) ([]*symbols.Symbol, error)
	GetExportsOfModule(ctx context.Context, moduleSymbol *symbols.Symbol) ([]*symbols.Symbol, error)
	TryGetMemberInModuleExports(ctx context.Context, name string, moduleSymbol *symbols.Symbol) (*symbols.Symbol, error)
	GetAliasedSymbol(ctx context.Context, alias *symbols.Symbol) (*symbols.Symbol, error)
	GetImmediateAliasedSymbol(ctx context.Context, alias *symbols.Symbol) (*symbols.Symbol, error)
	GetMergedSymbol(ctx context.Context, sym *symbols.Symbol) (*symbols.Symbol, error)
	GetExportSymbolOfSymbol(ctx context.Context, sym *symbols.Symbol) (*symbols.Symbol, error)
	GetAmbientModules(ctx context.Context) ([]*symbols.Symbol, error)
	GetFullyQualifiedName(ctx context.Context, sym *symbols.Symbol) (string, error)

	// Types.
	GetTypeAtLocation(ctx context.Context, node *ast.Node) (*Type, error)
	GetTypeOfSymbol(ctx context.Context, sym *symbols.Symbol) (*Type, error)
	GetTypeOfSymbolAtLocation(ctx context.Context, sym *symbols.Symbol, location *ast.Node) (*Type, error)
	GetDeclaredTypeOfSymbol(ctx context.Context, sym *symbols.Symbol) (*Type, error)
	GetTypeFromTypeNode(ctx context.Context, node *ast.Node) (*Type, error)
	GetPropertiesOfType(ctx context.Context, t *Type) ([]*symbols.Symbol, error)
	GetPropertyOfType(ctx context.Context, t *Type, name string) (*symbols.Symbol, error)
	GetSignaturesOfType(ctx context.Context, t *Type, kind SignatureKind) ([]*Signature, error)
	GetReturnTypeOfSignature(ctx context.Context, sig *Signature) (*Type, error)
	GetIndexTypeOfType(ctx context.Context, t *Type, kind IndexKind) (*Type, error)
	GetBaseTypeOfLiteralType(t *Type) *Type
	GetWidenedType(t *Type) *Type
	GetNonNullableType(t *Type) *Type
	IsNullableType(t *Type) bool
	GetUnionType(types ...*Type) *Type
	IsTypeAssignableTo(ctx context.Context, source, target *Type) (bool, error)

	// Intrinsics.
	GetAnyType() *Type
	GetErrorType() *Type
	GetUnknownType() *Type
	GetStringType() *Type
	GetNumberType() *Type
	GetBigIntType() *Type
	GetBooleanType() *Type
	GetTrueType() *Type
	GetFalseType() *Type
	GetVoidType() *Type
	GetUndefinedType() *Type
	GetNullType() *Type
	GetNeverType() *Type
	GetESSymbolType() *Type
	GetNonPrimitiveType() *Type

	// Rendering.
	TypeToString(t *Type) string
	SymbolToString(sym *symbols.Symbol) string

	// Diagnostics returns the binder and checker diagnostics of file, or of
	// every file when file is nil, sorted and deduplicated.
	GetDiagnostics(ctx context.Context, file *ast.SourceFile) ([]*diagnostics.Diagnostic, error)
}

// ImportResolver maps a module specifier written in from to the bound file
// it resolves to, or nil.
type ImportResolver func(specifier string, from *ast.SourceFile) *binder.BoundFile

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithImportResolver sets how import aliases find their target file.
// Without one, only ambient module declarations are found.
func WithImportResolver(resolve ImportResolver) Option {
	return func(c *Checker) {
		c.resolveImport = resolve
	}
}

// Checker answers TypeChecker queries from bound files.
//
// Description:
//
//	New merges the top-level declarations of every script file (and every
//	"declare global" block) into one globals table, reporting conflicting
//	redeclarations across files. Queries then resolve names lexically
//	through the binder's tables and fall back to the globals.
//
// Thread Safety: Safe for concurrent queries. Type caches are guarded by
// a mutex.
type Checker struct {
	compilerOptions *options.CompilerOptions
	logger          *slog.Logger
	resolveImport   ImportResolver

	files  []*binder.BoundFile
	byRoot map[*ast.Node]*binder.BoundFile

	globals    *symbols.Table
	merged     map[*symbols.Symbol]*symbols.Symbol
	mergeDiags []*diagnostics.Diagnostic

	intrinsics

	mu            sync.Mutex
	nextTypeID    uint32
	valueTypes    map[*symbols.Symbol]*Type
	declaredTypes map[*symbols.Symbol]*Type
	literalTypes  map[literalKey]*Type
}

type literalKey struct {
	flags TypeFlags
	value string
}

// Compile-time interface check.
var _ TypeChecker = (*Checker)(nil)

// New builds a checker over files.
//
// Inputs:
//
//	files - Bound files. Nil entries are skipped.
//	compilerOptions - Options of the program. Nil means defaults.
//	opts - Optional settings.
//
// Outputs:
//
//	*Checker - The checker. Never nil.
func New(files []*binder.BoundFile, compilerOptions *options.CompilerOptions, opts ...Option) *Checker {
	if compilerOptions == nil {
		compilerOptions = &options.CompilerOptions{}
	}
	c := &Checker{
		compilerOptions: compilerOptions,
		logger:          slog.Default(),
		byRoot:          make(map[*ast.Node]*binder.BoundFile, len(files)),
		globals:         symbols.NewTable(),
		merged:          make(map[*symbols.Symbol]*symbols.Symbol),
		valueTypes:      make(map[*symbols.Symbol]*Type),
		declaredTypes:   make(map[*symbols.Symbol]*Type),
		literalTypes:    make(map[literalKey]*Type),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, f := range files {
		if f == nil || f.File == nil {
			continue
		}
		c.files = append(c.files, f)
		c.byRoot[f.File.Root] = f
	}
	c.initIntrinsics()
	c.mergeGlobals()
	c.logger.Debug("checker initialized",
		slog.Int("files", len(c.files)),
		slog.Int("globals", c.globals.Len()),
		slog.Int("merge_diagnostics", len(c.mergeDiags)))
	return c
}

func (c *Checker) newType(flags TypeFlags) *Type {
	c.nextTypeID++
	return &Type{ID: c.nextTypeID, Flags: flags}
}

func (c *Checker) newIntrinsic(flags TypeFlags, name string) *Type {
	t := c.newType(flags)
	t.IntrinsicName = name
	return t
}

func (c *Checker) initIntrinsics() {
	c.any = c.newIntrinsic(TypeFlagsAny, "any")
	c.errorType = c.newIntrinsic(TypeFlagsAny, "error")
	c.unknown = c.newIntrinsic(TypeFlagsUnknown, "unknown")
	c.undefined = c.newIntrinsic(TypeFlagsUndefined, "undefined")
	c.null = c.newIntrinsic(TypeFlagsNull, "null")
	c.str = c.newIntrinsic(TypeFlagsString, "string")
	c.number = c.newIntrinsic(TypeFlagsNumber, "number")
	c.bigint = c.newIntrinsic(TypeFlagsBigInt, "bigint")
	c.falseType = c.newIntrinsic(TypeFlagsBooleanLiteral, "false")
	c.trueType = c.newIntrinsic(TypeFlagsBooleanLiteral, "true")
	c.boolean = c.newIntrinsic(TypeFlagsBoolean|TypeFlagsUnion, "boolean")
	c.boolean.Types = []*Type{c.falseType, c.trueType}
	c.void = c.newIntrinsic(TypeFlagsVoid, "void")
	c.never = c.newIntrinsic(TypeFlagsNever, "never")
	c.esSymbol = c.newIntrinsic(TypeFlagsESSymbol, "symbol")
	c.nonPrimitive = c.newIntrinsic(TypeFlagsNonPrimitive, "object")

	c.byKeyword = map[string]*Type{
		"any":       c.any,
		"unknown":   c.unknown,
		"undefined": c.undefined,
		"null":      c.null,
		"string":    c.str,
		"number":    c.number,
		"bigint":    c.bigint,
		"boolean":   c.boolean,
		"true":      c.trueType,
		"false":     c.falseType,
		"void":      c.void,
		"never":     c.never,
		"symbol":    c.esSymbol,
		"object":    c.nonPrimitive,
	}
}

// GetAnyType returns any.
func (c *Checker) GetAnyType() *Type { return c.any }

// GetErrorType returns the any-like type produced for unresolvable
// references.
func (c *Checker) GetErrorType() *Type { return c.errorType }
func (c *Checker) GetUnknownType() *Type { return c.unknown }
func (c *Checker) GetStringType() *Type { return c.str }
func (c *Checker) GetNumberType() *Type { return c.number }
func (c *Checker) GetBigIntType() *Type { return c.bigint }
func (c *Checker) GetBooleanType() *Type { return c.boolean }
func (c *Checker) GetTrueType() *Type { return c.trueType }
func (c *Checker) GetFalseType() *Type { return c.falseType }
func (c *Checker) GetVoidType() *Type { return c.void }
func (c *Checker) GetUndefinedType() *Type { return c.undefined }
func (c *Checker) GetNullType() *Type { return c.null }
func (c *Checker) GetNeverType() *Type { return c.never }
func (c *Checker) GetESSymbolType() *Type { return c.esSymbol }
func (c *Checker) GetNonPrimitiveType() *Type { return c.nonPrimitive }

// Files returns the bound files in construction order.
func (c *Checker) Files() []*binder.BoundFile {
	out := make([]*binder.BoundFile, len(c.files))
	copy(out, c.files)
	return out
}

// Globals returns the merged global symbol table.
func (c *Checker) Globals() *symbols.Table {
	return c.globals
}

// fileOf returns the bound file containing node.
func (c *Checker) fileOf(node *ast.Node) *binder.BoundFile {
	if node == nil {
		return nil
	}
	return c.byRoot[ast.GetSourceFileNode(node)]
}

// startQuery checks ctx and opens a span for a query.
func (c *Checker) startQuery(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, error) {
	if err := ctx.Err(); err != nil {
		return ctx, nil, err
	}
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span, nil
}

// GetDiagnostics returns the diagnostics of file, or of every file when
// file is nil.
//
// Description:
//
//	Combines the binder's diagnostics with the redeclaration conflicts
//	found while merging globals. Results are sorted by file and position
//	and deduplicated.
//
// Inputs:
//
//	ctx - Checked between files.
//	file - The file, or nil for all files.
//
// Outputs:
//
//	[]*diagnostics.Diagnostic - The diagnostics.
//	error - ctx.Err(), or ErrForeignNode for a file the checker does not
//	  know.
func (c *Checker) GetDiagnostics(ctx context.Context, file *ast.SourceFile) ([]*diagnostics.Diagnostic, error) {
	ctx, span, err := c.startQuery(ctx, "checker.GetDiagnostics")
	if err != nil {
		return nil, err
	}
	defer span.End()

	var out []*diagnostics.Diagnostic
	if file != nil {
		bf := c.byRoot[file.Root]
		if bf == nil {
			return nil, ErrForeignNode
		}
		out = append(out, bf.Diagnostics...)
		for _, d := range c.mergeDiags {
			if d.File == file.FileName {
				out = append(out, d)
			}
		}
		span.SetAttributes(attribute.String("file", file.FileName))
	} else {
		for _, bf := range c.files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out = append(out, bf.Diagnostics...)
		}
		out = append(out, c.mergeDiags...)
	}
	out = diagnostics.SortAndDeduplicate(out)
	span.SetAttributes(attribute.Int("diagnostics", len(out)))
	return out, nil
}
