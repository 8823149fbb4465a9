// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package binder creates symbols and the control-flow graph for a parsed
// source file.
//
// Bind walks the syntax tree once. Declarations are merged into symbol
// tables on their containers, statements and references are annotated
// with the flow node current at that point, and structural diagnostics
// (duplicate declarations, bad jump targets, strict-mode violations,
// unreachable code) are reported. Results live in a BoundFile; the tree
// is not modified.
package binder

import (
	"log/slog"
	"time"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/flow"
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// Option configures Bind.
type Option func(*config)

type config struct {
	impliedFormat options.ResolutionMode
	logger        *slog.Logger
}

// WithImpliedNodeFormat sets the module format implied by the file's
// extension and nearest package.json, used to decide whether the file is
// an external module.
func WithImpliedNodeFormat(mode options.ResolutionMode) Option {
	return func(c *config) {
		c.impliedFormat = mode
	}
}

// WithLogger sets the logger for bind summaries. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Bind binds file under compilerOptions.
//
// Description:
//
//	Computes the external module indicator, then walks the tree creating
//	symbols, locals tables and flow nodes. Malformed trees (missing names,
//	Unknown nodes) are bound as far as their structure allows; Bind never
//	fails.
//
// Inputs:
//
//	file - A parsed source file with parent pointers attached.
//	compilerOptions - Options consulted for strictness, reachability
//	  severities and module detection. Nil means all defaults.
//	opts - Optional settings.
//
// Outputs:
//
//	*BoundFile - Symbols, flow annotations and binder diagnostics.
//
// Thread Safety: Files may be bound concurrently; each call owns its
// state.
func Bind(file *ast.SourceFile, compilerOptions *options.CompilerOptions, opts ...Option) *BoundFile {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if compilerOptions == nil {
		compilerOptions = &options.CompilerOptions{}
	}

	start := time.Now()
	b := newBinder(file, compilerOptions)
	b.bound.ExternalModuleIndicator = ast.ComputeExternalModuleIndicator(file, compilerOptions, cfg.impliedFormat)
	b.inStrictMode = (compilerOptions.GetAlwaysStrict() && !file.IsDeclarationFile) || b.bound.IsExternalModule()
	b.bind(file.Root)
	b.bound.Locals = b.bound.LocalsOf(file.Root)
	b.bound.SymbolCount = b.symbolCount
	b.bound.Diagnostics = b.diags

	elapsed := time.Since(start)
	recordBindMetrics(b.bound.IsExternalModule(), elapsed, b.symbolCount, b.diags)
	cfg.logger.Debug("bound source file",
		slog.String("file", file.FileName),
		slog.Bool("external_module", b.bound.IsExternalModule()),
		slog.Int("symbols", b.symbolCount),
		slog.Int("diagnostics", len(b.diags)),
		slog.Duration("duration", elapsed))
	return b.bound
}

// activeLabel is one entry of the enclosing label list.
type activeLabel struct {
	next           *activeLabel
	name           string
	breakTarget    *flow.Node
	continueTarget *flow.Node
	referenced     bool
}

type binder struct {
	file  *ast.SourceFile
	opts  *options.CompilerOptions
	bound *BoundFile

	languageVersion options.ScriptTarget

	parent              *ast.Node
	container           *ast.Node
	thisParentContainer *ast.Node
	blockScopeContainer *ast.Node

	currentFlow            *flow.Node
	currentBreakTarget     *flow.Node
	currentContinueTarget  *flow.Node
	currentReturnTarget    *flow.Node
	currentTrueTarget      *flow.Node
	currentFalseTarget     *flow.Node
	currentExceptionTarget *flow.Node
	preSwitchCaseFlow      *flow.Node
	activeLabels           *activeLabel

	hasExplicitReturn   bool
	hasFlowEffects      bool
	inStrictMode        bool
	inAssignmentPattern bool
	seenThisKeyword     bool

	// exportContext marks ambient namespaces without export declarations,
	// where every declaration is implicitly exported.
	exportContext map[*ast.Node]bool

	reportedDuplicates map[duplicateKey]bool

	symbolCount int
	diags       []*diagnostics.Diagnostic
}

func newBinder(file *ast.SourceFile, opts *options.CompilerOptions) *binder {
	return &binder{
		file:            file,
		opts:            opts,
		languageVersion: opts.GetEmitScriptTarget(),
		bound: &BoundFile{
			File:              file,
			ClassifiableNames: make(map[string]struct{}),
		},
		exportContext:      make(map[*ast.Node]bool),
		reportedDuplicates: make(map[duplicateKey]bool),
	}
}

// bind binds node and its subtree.
func (b *binder) bind(node *ast.Node) {
	if node == nil {
		return
	}
	saveInStrictMode := b.inStrictMode

	b.bindWorker(node)

	saveParent := b.parent
	b.parent = node
	if flags := getContainerFlags(node); flags == containerFlagsNone {
		b.bindChildren(node)
	} else {
		b.bindContainer(node, flags)
	}
	b.parent = saveParent
	b.inStrictMode = saveInStrictMode
}

func (b *binder) bindEach(nodes []*ast.Node) {
	for _, n := range nodes {
		b.bind(n)
	}
}

func (b *binder) bindEachChild(node *ast.Node) {
	ast.ForEachChild(node, func(child *ast.Node) bool {
		b.bind(child)
		return false
	})
}

// bindEachFunctionsFirst binds hoisted function declarations before the
// remaining statements, so they are bound with the entry flow.
func (b *binder) bindEachFunctionsFirst(statements []*ast.Node) {
	for _, s := range statements {
		if s.Kind == ast.KindFunctionDeclaration {
			b.bind(s)
		}
	}
	for _, s := range statements {
		if s.Kind != ast.KindFunctionDeclaration {
			b.bind(s)
		}
	}
}

// bindChildren binds the children of node while threading control flow.
func (b *binder) bindChildren(node *ast.Node) {
	saveInAssignmentPattern := b.inAssignmentPattern
	b.inAssignmentPattern = false
	if b.checkUnreachable(node) {
		b.bound.flowNodeOf.Delete(node)
		b.bindEachChild(node)
		b.inAssignmentPattern = saveInAssignmentPattern
		return
	}
	if ast.IsStatement(node) {
		b.bound.flowNodeOf.Set(node, b.currentFlow)
		if b.currentExceptionTarget != nil {
			flow.AddAntecedent(b.currentExceptionTarget, b.currentFlow)
		}
	}

	switch node.Kind {
	case ast.KindWhileStatement:
		b.bindWhileStatement(node)
	case ast.KindDoStatement:
		b.bindDoStatement(node)
	case ast.KindForStatement:
		b.bindForStatement(node)
	case ast.KindForInStatement, ast.KindForOfStatement:
		b.bindForInOrForOfStatement(node)
	case ast.KindIfStatement:
		b.bindIfStatement(node)
	case ast.KindReturnStatement, ast.KindThrowStatement:
		b.bindReturnOrThrow(node)
	case ast.KindBreakStatement, ast.KindContinueStatement:
		b.bindBreakOrContinueStatement(node)
	case ast.KindTryStatement:
		b.bindTryStatement(node)
	case ast.KindSwitchStatement:
		b.bindSwitchStatement(node)
	case ast.KindCaseBlock:
		b.bindCaseBlock(node)
	case ast.KindCaseClause, ast.KindDefaultClause:
		b.bindCaseOrDefaultClause(node)
	case ast.KindExpressionStatement:
		b.bindExpressionStatement(node)
	case ast.KindLabeledStatement:
		b.bindLabeledStatement(node)
	case ast.KindPrefixUnaryExpression:
		b.bindPrefixUnaryExpressionFlow(node)
	case ast.KindPostfixUnaryExpression:
		b.bindPostfixUnaryExpressionFlow(node)
	case ast.KindBinaryExpression:
		if isDestructuringAssignment(node) {
			b.inAssignmentPattern = saveInAssignmentPattern
			b.bindDestructuringAssignmentFlow(node)
			return
		}
		b.bindBinaryExpressionFlow(node)
	case ast.KindDeleteExpression:
		b.bindDeleteExpressionFlow(node)
	case ast.KindConditionalExpression:
		b.bindConditionalExpressionFlow(node)
	case ast.KindVariableDeclaration:
		b.bindVariableDeclarationFlow(node)
	case ast.KindPropertyAccessExpression, ast.KindElementAccessExpression:
		b.bindAccessExpressionFlow(node)
	case ast.KindCallExpression:
		b.bindCallExpressionFlow(node)
	case ast.KindNonNullExpression:
		b.bindNonNullExpressionFlow(node)
	case ast.KindSourceFile:
		b.bindEachFunctionsFirst(node.Statements)
	case ast.KindBlock, ast.KindModuleBlock:
		b.bindEachFunctionsFirst(node.Statements)
	case ast.KindBindingElement:
		b.bindBindingElementFlow(node)
	case ast.KindParameter:
		b.bindParameterFlow(node)
	case ast.KindObjectLiteralExpression, ast.KindArrayLiteralExpression, ast.KindPropertyAssignment,
		ast.KindSpreadElement:
		b.inAssignmentPattern = saveInAssignmentPattern
		b.bindEachChild(node)
	default:
		b.bindEachChild(node)
	}
	b.inAssignmentPattern = saveInAssignmentPattern
}

// errorOnNode reports msg at the span of node.
func (b *binder) errorOnNode(node *ast.Node, msg *diagnostics.Message, args ...any) {
	start, length := ast.GetSpanOfNode(node, b.file.Text)
	b.diags = append(b.diags, diagnostics.New(b.file.FileName, start, length, msg, args...))
}

// errorOrSuggestionOnRange reports msg from the first token of first to
// the end of last, as an error or a suggestion.
func (b *binder) errorOrSuggestionOnRange(isError bool, first, last *ast.Node, msg *diagnostics.Message) {
	start, _ := ast.GetSpanOfNode(first, b.file.Text)
	length := last.End - start
	if length < 0 {
		length = 0
	}
	category := diagnostics.CategorySuggestion
	if isError {
		category = diagnostics.CategoryError
	}
	b.diags = append(b.diags, diagnostics.NewWithCategory(b.file.FileName, start, length, category, msg))
}

// newSymbol creates a symbol and counts it.
func (b *binder) newSymbol(name string, kinds ...symbols.Kind) *symbols.Symbol {
	b.symbolCount++
	return symbols.New(name, kinds...)
}
