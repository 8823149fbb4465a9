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
	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// mergeGlobals builds the globals table from script locals, global
// augmentations and UMD namespace exports, in file order.
func (c *Checker) mergeGlobals() {
	for _, f := range c.files {
		if !f.IsExternalModule() {
			c.mergeTable(f.Locals)
			continue
		}
		if global := f.Locals.Get(symbols.InternalNameGlobal); global != nil {
			c.mergeTable(global.Exports)
		}
		if f.Symbol != nil {
			c.mergeTable(f.Symbol.GlobalExports)
		}
	}
}

func (c *Checker) mergeTable(source *symbols.Table) {
	source.Each(func(name string, sym *symbols.Symbol) bool {
		c.mergeGlobal(name, sym)
		return true
	})
}

// mergeGlobal adds sym to the globals. A second declaration of a name in
// another file merges into a transient symbol unless the kinds conflict,
// in which case both sides are reported and the first symbol is kept.
func (c *Checker) mergeGlobal(name string, sym *symbols.Symbol) {
	existing := c.globals.Get(name)
	if existing == nil {
		c.globals.Set(name, sym)
		return
	}
	if existing.Conflicts(excludesOf(sym.Kinds())) {
		c.reportRedeclaration(existing, sym)
		return
	}
	target := existing
	if existing.Facets&symbols.FacetTransient == 0 {
		target = c.cloneForMerge(existing)
		c.globals.Set(name, target)
	}
	c.mergeInto(target, sym)
}

func excludesOf(kinds symbols.KindSet) symbols.KindSet {
	var out symbols.KindSet
	for _, k := range kinds.Kinds() {
		out |= symbols.ExcludesOf(k)
	}
	return out
}

func (c *Checker) cloneForMerge(s *symbols.Symbol) *symbols.Symbol {
	m := symbols.New(s.EscapedName)
	m.Facets = s.Facets | symbols.FacetTransient
	m.ConstEnumOnlyModule = s.ConstEnumOnlyModule
	c.mergeInto(m, s)
	return m
}

func (c *Checker) mergeInto(target, source *symbols.Symbol) {
	for i, decl := range source.Declarations {
		target.AddDeclaration(decl, source.DeclarationKinds(i), decl.Body != nil || decl.Initializer != nil)
	}
	for _, k := range source.Kinds().Kinds() {
		target.AddKind(k)
	}
	if source.Members != nil {
		mergeMemberTable(target.EnsureMembers(), source.Members)
	}
	if source.Exports != nil {
		mergeMemberTable(target.EnsureExports(), source.Exports)
	}
	if !source.ConstEnumOnlyModule {
		target.ConstEnumOnlyModule = false
	}
	c.merged[source] = target
}

// mergeMemberTable copies entries of source missing from target.
func mergeMemberTable(target, source *symbols.Table) {
	source.Each(func(name string, sym *symbols.Symbol) bool {
		if !target.Has(name) {
			target.Set(name, sym)
		}
		return true
	})
}

func (c *Checker) reportRedeclaration(existing, added *symbols.Symbol) {
	msg := diagnostics.DuplicateIdentifier
	if existing.Has(symbols.KindBlockScopedVariable) || added.Has(symbols.KindBlockScopedVariable) {
		msg = diagnostics.CannotRedeclareBlockScopedVariable
	}
	for _, sym := range []*symbols.Symbol{existing, added} {
		for _, decl := range sym.Declarations {
			bf := c.fileOf(decl)
			if bf == nil {
				continue
			}
			start, length := ast.GetSpanOfNode(ast.GetErrorNode(decl), bf.File.Text)
			c.mergeDiags = append(c.mergeDiags, diagnostics.New(bf.File.FileName, start, length, msg, added.Name()))
		}
	}
}

// mergedSymbol returns the global merge of sym, or sym itself.
func (c *Checker) mergedSymbol(sym *symbols.Symbol) *symbols.Symbol {
	if sym == nil {
		return nil
	}
	if m, ok := c.merged[sym]; ok {
		return m
	}
	return sym
}
