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
	"strings"
	"sync"

	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/scanner"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// ScriptKind is the source language of a file.
type ScriptKind int

const (
	ScriptKindUnknown ScriptKind = iota
	ScriptKindJS
	ScriptKindJSX
	ScriptKindTS
	ScriptKindTSX
	ScriptKindExternal
	ScriptKindJSON
	ScriptKindDeferred
)

func (k ScriptKind) String() string {
	switch k {
	case ScriptKindJS:
		return "js"
	case ScriptKindJSX:
		return "jsx"
	case ScriptKindTS:
		return "ts"
	case ScriptKindTSX:
		return "tsx"
	case ScriptKindExternal:
		return "external"
	case ScriptKindJSON:
		return "json"
	case ScriptKindDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// GetScriptKindFromFileName maps a file extension to its ScriptKind.
func GetScriptKindFromFileName(fileName string) ScriptKind {
	ext := fileName[strings.LastIndexByte(fileName, '.')+1:]
	switch strings.ToLower(ext) {
	case "js", "cjs", "mjs":
		return ScriptKindJS
	case "jsx":
		return ScriptKindJSX
	case "ts", "cts", "mts":
		return ScriptKindTS
	case "tsx":
		return ScriptKindTSX
	case "json":
		return ScriptKindJSON
	default:
		return ScriptKindUnknown
	}
}

// LanguageVariant is Standard, or JSX when the file may contain JSX.
type LanguageVariant int

const (
	LanguageVariantStandard LanguageVariant = iota
	LanguageVariantJSX
)

// LanguageVariantOf returns JSX for .tsx, .jsx and .js files.
func LanguageVariantOf(kind ScriptKind) LanguageVariant {
	switch kind {
	case ScriptKindTSX, ScriptKindJSX, ScriptKindJS, ScriptKindJSON:
		return LanguageVariantJSX
	default:
		return LanguageVariantStandard
	}
}

// SourceFile is a parsed file: its root node plus file-level facts.
//
// Thread Safety: Immutable after parsing except for the lazily computed
// line map, which is guarded.
type SourceFile struct {
	// Root is the KindSourceFile node.
	Root *Node

	FileName          string
	Path              string
	Text              string
	ScriptKind        ScriptKind
	LanguageVariant   LanguageVariant
	IsDeclarationFile bool

	// ParseDiagnostics are syntax errors reported by the parser.
	ParseDiagnostics []*diagnostics.Diagnostic

	lineStartsOnce sync.Once
	lineStarts     []int
}

// NewSourceFile wraps root in a SourceFile and attaches parent pointers.
func NewSourceFile(fileName, text string, root *Node) *SourceFile {
	name := tspath.NormalizeSlashes(fileName)
	kind := GetScriptKindFromFileName(name)
	f := &SourceFile{
		Root:              root,
		FileName:          name,
		Path:              name,
		Text:              text,
		ScriptKind:        kind,
		LanguageVariant:   LanguageVariantOf(kind),
		IsDeclarationFile: tspath.IsDeclarationFileName(name),
	}
	if f.IsDeclarationFile {
		root.Flags |= NodeFlagsAmbient
	}
	if kind == ScriptKindJS || kind == ScriptKindJSX {
		root.Flags |= NodeFlagsJavaScriptFile
	}
	SetParentPointers(root)
	return f
}

// Statements returns the top-level statements.
func (f *SourceFile) Statements() []*Node {
	return f.Root.Statements
}

// LineStarts returns the byte offsets at which each line begins.
func (f *SourceFile) LineStarts() []int {
	f.lineStartsOnce.Do(func() {
		f.lineStarts = scanner.ComputeLineStarts(f.Text)
	})
	return f.lineStarts
}

// LineAndCharacterOf converts a byte offset into a zero-based line and
// byte column.
func (f *SourceFile) LineAndCharacterOf(pos int) scanner.LineAndCharacter {
	return scanner.ComputeLineAndCharacterOfPosition(f.LineStarts(), pos)
}

// IsJavaScript reports whether the file is a JavaScript source.
func (f *SourceFile) IsJavaScript() bool {
	return f.Root.Flags&NodeFlagsJavaScriptFile != 0
}
