// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/scanner"
)

// renderer prints diagnostics in the "file(line,col): error TS1234: text"
// format, styled when the output is a terminal.
type renderer struct {
	w       io.Writer
	baseDir string
	styled  bool

	file     lipgloss.Style
	position lipgloss.Style
	code     lipgloss.Style
	category map[diagnostics.Category]lipgloss.Style

	lineStarts map[string][]int
}

// isTerminal reports whether w is a terminal. NO_COLOR turns styling off.
func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newRenderer creates a renderer. File names under baseDir are printed
// relative to it.
func newRenderer(w io.Writer, baseDir string) *renderer {
	r := &renderer{
		w:          w,
		baseDir:    baseDir,
		styled:     isTerminal(w),
		lineStarts: make(map[string][]int),
	}
	lr := lipgloss.NewRenderer(w)
	r.file = lr.NewStyle().Foreground(lipgloss.Color("6"))
	r.position = lr.NewStyle().Foreground(lipgloss.Color("3"))
	r.code = lr.NewStyle().Foreground(lipgloss.Color("8"))
	r.category = map[diagnostics.Category]lipgloss.Style{
		diagnostics.CategoryError:      lr.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		diagnostics.CategoryWarning:    lr.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		diagnostics.CategorySuggestion: lr.NewStyle().Foreground(lipgloss.Color("4")),
		diagnostics.CategoryMessage:    lr.NewStyle().Foreground(lipgloss.Color("4")),
	}
	return r
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// addSource registers the text of fileName so positions can be mapped to
// lines and columns.
func (r *renderer) addSource(fileName, text string) {
	r.lineStarts[fileName] = scanner.ComputeLineStarts(text)
}

func (r *renderer) displayName(fileName string) string {
	if r.baseDir == "" {
		return fileName
	}
	rel, err := filepath.Rel(r.baseDir, filepath.FromSlash(fileName))
	if err != nil || strings.HasPrefix(rel, "..") {
		return fileName
	}
	return filepath.ToSlash(rel)
}

// format renders one diagnostic without a trailing newline.
func (r *renderer) format(d *diagnostics.Diagnostic) string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(r.style(r.file, r.displayName(d.File)))
		if starts, ok := r.lineStarts[d.File]; ok {
			lc := scanner.ComputeLineAndCharacterOfPosition(starts, d.Start)
			b.WriteString(r.style(r.position, fmt.Sprintf("(%d,%d)", lc.Line+1, lc.Character+1)))
		}
		b.WriteString(": ")
	}
	b.WriteString(r.style(r.category[d.Category], d.Category.String()))
	b.WriteString(" ")
	b.WriteString(r.style(r.code, fmt.Sprintf("TS%d", d.Code)))
	b.WriteString(": ")
	b.WriteString(d.Text)
	return b.String()
}

// render prints diags followed by an error summary, and returns the
// number of diagnostics per category name.
func (r *renderer) render(diags []*diagnostics.Diagnostic) map[string]int {
	counts := make(map[string]int)
	files := make(map[string]bool)
	for _, d := range diags {
		fmt.Fprintln(r.w, r.format(d))
		counts[d.Category.String()]++
		if d.Category == diagnostics.CategoryError {
			files[d.File] = true
		}
	}
	if n := counts[diagnostics.CategoryError.String()]; n > 0 {
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, r.style(r.category[diagnostics.CategoryError], summary(n, len(files))))
	}
	return counts
}

func summary(errs, files int) string {
	noun := "errors"
	if errs == 1 {
		noun = "error"
	}
	if files <= 1 {
		return fmt.Sprintf("Found %d %s.", errs, noun)
	}
	return fmt.Sprintf("Found %d %s in %d files.", errs, noun, files)
}
