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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsfront/services/tsc/binder"
	"github.com/AleutianAI/tsfront/services/tsc/program"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// maxSymbolDepth bounds nesting when printing member and export tables.
const maxSymbolDepth = 4

func newSymbolsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols <file>",
		Short: "Print the symbol tables the binder builds for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			name := tspath.NormalizePath(filepath.ToSlash(abs))
			p, err := program.New(cmd.Context(), []string{name}, program.WithFollowImports(false))
			if err != nil {
				return err
			}
			bound := p.GetBoundFile(name)
			if bound == nil {
				newRenderer(c.stdout, "").render(p.Diagnostics())
				return errDiagnostics
			}
			printSymbols(c.stdout, bound)

			if len(bound.Diagnostics) > 0 {
				fmt.Fprintln(c.stdout)
				r := newRenderer(c.stdout, "")
				r.addSource(bound.File.FileName, bound.File.Text)
				r.render(bound.Diagnostics)
			}
			return nil
		},
	}
}

// printSymbols writes the file's locals and, for modules, its exports.
func printSymbols(w io.Writer, bound *binder.BoundFile) {
	kind := "script"
	if bound.IsExternalModule() {
		kind = "module"
	}
	fmt.Fprintf(w, "%s (%s, %d symbols)\n", bound.File.FileName, kind, bound.SymbolCount)
	printTable(w, "locals", bound.Locals, 1)
	if bound.Symbol != nil {
		printTable(w, "exports", bound.Symbol.Exports, 1)
	}
}

func printTable(w io.Writer, title string, table *symbols.Table, depth int) {
	if table.Len() == 0 {
		return
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s:\n", indent, title)
	table.Each(func(_ string, sym *symbols.Symbol) bool {
		fmt.Fprintf(w, "%s  %s  %s", indent, sym.Name(), sym.Kinds())
		if n := len(sym.Declarations); n > 1 {
			fmt.Fprintf(w, "  (%d declarations)", n)
		}
		fmt.Fprintln(w)
		if depth < maxSymbolDepth {
			printTable(w, "members", sym.Members, depth+2)
			printTable(w, "exports", sym.Exports, depth+2)
		}
		return true
	})
}
