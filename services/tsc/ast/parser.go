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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

const (
	// DefaultMaxFileSize is the largest file the parser accepts by default.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize logs a warning for files above this size.
	WarnFileSize = 1024 * 1024
)

var (
	// ErrFileTooLarge is returned when content exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent is returned when content is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")
)

var tracer = otel.Tracer("tsfront.ast")

// Parser produces a SourceFile from source text.
type Parser interface {
	Parse(ctx context.Context, fileName string, content []byte) (*SourceFile, error)
}

// TypeScriptParserOption configures a TypeScriptParser.
type TypeScriptParserOption func(*TypeScriptParser)

// WithMaxFileSize sets the maximum accepted file size in bytes. Values
// that are not positive are ignored.
func WithMaxFileSize(bytes int64) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithParserLogger sets the logger used for size warnings.
func WithParserLogger(logger *slog.Logger) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// TypeScriptParser parses TypeScript and JavaScript with tree-sitter and
// converts the concrete syntax tree into the node taxonomy of this package.
//
// Description:
//
//	.tsx and .jsx files use the TSX grammar, everything else the
//	TypeScript grammar. Conversion is best effort: grammar nodes without
//	a counterpart become KindUnknown nodes whose children are still
//	converted, so declarations nested in unfamiliar syntax are bound.
//	Syntax errors become parse diagnostics; parsing never panics on bad
//	input. Node positions are token starts (no leading trivia).
//
// Thread Safety: Safe for concurrent use; each Parse call creates its own
// tree-sitter parser.
type TypeScriptParser struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewTypeScriptParser creates a parser with the given options.
func NewTypeScriptParser(opts ...TypeScriptParserOption) *TypeScriptParser {
	p := &TypeScriptParser{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses content as the file fileName.
//
// Description:
//
//	Validates size and encoding, runs tree-sitter, converts the tree and
//	collects syntax errors into SourceFile.ParseDiagnostics. Parent
//	pointers are attached before returning.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing. Checked before and after
//	      the tree-sitter run.
//	fileName - File name; its extension selects the grammar.
//	content - Source bytes. Must be valid UTF-8.
//
// Outputs:
//
//	*SourceFile - The parsed file. Never nil on success.
//	error - ErrFileTooLarge, ErrInvalidContent, or a context error.
//
// Thread Safety: Safe for concurrent use.
func (p *TypeScriptParser) Parse(ctx context.Context, fileName string, content []byte) (*SourceFile, error) {
	language := grammarName(fileName)
	ctx, span := tracer.Start(ctx, "TypeScriptParser.Parse", trace.WithAttributes(
		attribute.String("file", fileName),
		attribute.String("language", language),
		attribute.Int("size_bytes", len(content)),
	))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(language, "canceled", time.Since(start), 0)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(language, "rejected", time.Since(start), 0)
		span.SetStatus(codes.Error, "file too large")
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		p.logger.Warn("Parsing large file",
			slog.String("file", fileName),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(language, "rejected", time.Since(start), 0)
		span.SetStatus(codes.Error, "invalid utf-8")
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	if language == "tsx" {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(language, "error", time.Since(start), 0)
		span.RecordError(err)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(language, "canceled", time.Since(start), 0)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	c := newConverter(fileName, content)
	rootNode := tree.RootNode()
	root := c.sourceFile(rootNode)
	if rootNode.HasError() {
		c.collectSyntaxErrors(rootNode)
	}

	file := NewSourceFile(fileName, string(content), root)
	file.ParseDiagnostics = c.diags

	status := "ok"
	if len(c.diags) > 0 {
		status = "syntax_error"
	}
	span.SetAttributes(attribute.Int("parse.diagnostics", len(c.diags)))
	recordParseMetrics(language, status, time.Since(start), len(c.diags))
	return file, nil
}

// Extensions returns the file extensions this parser handles.
func (p *TypeScriptParser) Extensions() []string {
	return []string{
		tspath.ExtensionTs, tspath.ExtensionTsx, tspath.ExtensionMts, tspath.ExtensionCts,
		tspath.ExtensionJs, tspath.ExtensionJsx, tspath.ExtensionMjs, tspath.ExtensionCjs,
	}
}

func grammarName(fileName string) string {
	lower := strings.ToLower(fileName)
	if strings.HasSuffix(lower, ".tsx") || strings.HasSuffix(lower, ".jsx") {
		return "tsx"
	}
	return "typescript"
}
