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
	"strconv"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// maxAliasSteps bounds the work of one alias resolution so cyclic
// re-exports terminate.
const maxAliasSteps = 256

// aliasWalk carries the step budget of one resolution.
type aliasWalk struct {
	c     *Checker
	steps int
}

func (c *Checker) newAliasWalk() *aliasWalk {
	return &aliasWalk{c: c}
}

func (w *aliasWalk) step() bool {
	w.steps++
	return w.steps <= maxAliasSteps
}

// resolveAlias follows alias until it reaches a non-alias symbol. It
// returns nil for unresolvable or cyclic chains.
func (c *Checker) resolveAlias(alias *symbols.Symbol) *symbols.Symbol {
	return c.newAliasWalk().resolve(alias)
}

// immediateTarget resolves one step of an alias.
func (c *Checker) immediateTarget(alias *symbols.Symbol) *symbols.Symbol {
	return c.newAliasWalk().immediate(alias)
}

// exportOfModule returns the export name of container, following
// "export *" declarations and "export =" targets.
func (c *Checker) exportOfModule(container *symbols.Symbol, name string) *symbols.Symbol {
	return c.newAliasWalk().exportOf(container, symbols.EscapeLeadingUnderscores(name))
}

// aliasTarget resolves sym when it is an alias.
func (c *Checker) aliasTarget(sym *symbols.Symbol) *symbols.Symbol {
	return c.newAliasWalk().target(sym)
}

// resolveExternalModuleSymbol replaces a module with its "export ="
// target when it has one.
func (c *Checker) resolveExternalModuleSymbol(mod *symbols.Symbol) *symbols.Symbol {
	return c.newAliasWalk().externalModule(mod)
}

// moduleSymbolFor returns the module symbol that specifier, written in
// the file of node, refers to: a resolved external module or an ambient
// module declaration.
func (c *Checker) moduleSymbolFor(node *ast.Node, specifier string) *symbols.Symbol {
	if specifier == "" {
		return nil
	}
	from := c.fileOf(node)
	if c.resolveImport != nil && from != nil {
		if target := c.resolveImport(specifier, from.File); target != nil && target.Symbol != nil {
			return target.Symbol
		}
	}
	return c.globals.Get(strconv.Quote(specifier))
}

func (w *aliasWalk) resolve(alias *symbols.Symbol) *symbols.Symbol {
	sym := alias
	for sym != nil && sym.Has(symbols.KindAlias) {
		if !w.step() {
			return nil
		}
		sym = w.immediate(sym)
	}
	return sym
}

func (w *aliasWalk) target(sym *symbols.Symbol) *symbols.Symbol {
	if sym != nil && sym.Has(symbols.KindAlias) {
		return w.resolve(sym)
	}
	return sym
}

func (w *aliasWalk) immediate(alias *symbols.Symbol) *symbols.Symbol {
	if alias == nil {
		return nil
	}
	for _, decl := range alias.Declarations {
		if target, ok := w.declarationTarget(decl); ok {
			return target
		}
	}
	return nil
}

// declarationTarget resolves the symbol an alias declaration points at.
// ok is false for nodes that do not declare aliases.
func (w *aliasWalk) declarationTarget(decl *ast.Node) (target *symbols.Symbol, ok bool) {
	c := w.c
	switch decl.Kind {
	case ast.KindImportEqualsDeclaration:
		ref := decl.Expression
		if ref != nil && ref.Kind == ast.KindExternalModuleReference {
			return w.externalModule(c.moduleSymbolFor(decl, ast.ModuleSpecifierText(decl))), true
		}
		return w.entityName(ref, anyMeaning), true
	case ast.KindImportClause:
		importDecl := decl.Parent()
		mod := c.moduleSymbolFor(importDecl, ast.ModuleSpecifierText(importDecl))
		if sym := w.exportOf(mod, symbols.InternalNameDefault); sym != nil {
			return sym, true
		}
		return w.externalModule(mod), true
	case ast.KindNamespaceImport:
		importDecl := ancestor(decl, ast.KindImportDeclaration)
		return w.externalModule(c.moduleSymbolFor(importDecl, ast.ModuleSpecifierText(importDecl))), true
	case ast.KindNamespaceExport:
		exportDecl := decl.Parent()
		return c.moduleSymbolFor(exportDecl, ast.ModuleSpecifierText(exportDecl)), true
	case ast.KindImportSpecifier:
		importDecl := ancestor(decl, ast.KindImportDeclaration)
		mod := c.moduleSymbolFor(importDecl, ast.ModuleSpecifierText(importDecl))
		return w.exportOf(mod, symbols.EscapeLeadingUnderscores(specifierTargetName(decl))), true
	case ast.KindExportSpecifier:
		exportDecl := ancestor(decl, ast.KindExportDeclaration)
		if spec := ast.ModuleSpecifierText(exportDecl); spec != "" {
			return w.exportOf(c.moduleSymbolFor(exportDecl, spec), symbols.EscapeLeadingUnderscores(specifierTargetName(decl))), true
		}
		return c.resolveName(decl, specifierTargetName(decl), anyMeaning), true
	case ast.KindExportAssignment:
		if decl.Expression != nil && decl.Expression.Kind == ast.KindClassExpression {
			if bf := c.fileOf(decl); bf != nil {
				return bf.SymbolOf(decl.Expression), true
			}
		}
		return w.entityName(decl.Expression, anyMeaning), true
	case ast.KindNamespaceExportDeclaration:
		if bf := c.fileOf(decl); bf != nil {
			return bf.Symbol, true
		}
	}
	return nil, false
}

func (w *aliasWalk) exportOf(container *symbols.Symbol, escaped string) *symbols.Symbol {
	if container == nil || !w.step() {
		return nil
	}
	c := w.c
	container = c.mergedSymbol(container)
	if sym := container.Exports.Get(escaped); sym != nil {
		return c.mergedSymbol(sym)
	}
	if exportEquals := container.Exports.Get(symbols.InternalNameExportEquals); exportEquals != nil {
		if target := w.target(exportEquals); target != nil && target != container {
			return w.exportOf(target, escaped)
		}
	}
	if escaped == symbols.InternalNameDefault {
		return nil
	}
	if star := container.Exports.Get(symbols.InternalNameExportStar); star != nil {
		for _, decl := range star.Declarations {
			if sym := w.exportOf(c.moduleSymbolFor(decl, ast.ModuleSpecifierText(decl)), escaped); sym != nil {
				return sym
			}
		}
	}
	return nil
}

func (w *aliasWalk) externalModule(mod *symbols.Symbol) *symbols.Symbol {
	if mod == nil {
		return nil
	}
	if exportEquals := mod.Exports.Get(symbols.InternalNameExportEquals); exportEquals != nil {
		return w.target(exportEquals)
	}
	return mod
}

// entityName resolves an identifier, qualified name or property access
// chain.
func (w *aliasWalk) entityName(n *ast.Node, meaning symbols.KindSet) *symbols.Symbol {
	if n == nil || !w.step() {
		return nil
	}
	switch n.Kind {
	case ast.KindIdentifier:
		return w.c.resolveName(n, n.Text, meaning)
	case ast.KindQualifiedName:
		if n.Right == nil {
			return nil
		}
		return w.exportOf(w.target(w.entityName(n.Left, namespaceMeaning)), symbols.EscapeLeadingUnderscores(n.Right.Text))
	case ast.KindPropertyAccessExpression:
		if n.Name == nil {
			return nil
		}
		left := w.target(w.entityName(n.Expression, namespaceMeaning|valueMeaning))
		return w.exportOf(left, symbols.EscapeLeadingUnderscores(n.Name.Text))
	case ast.KindParenthesizedExpression:
		return w.entityName(n.Expression, meaning)
	}
	return nil
}

func specifierTargetName(spec *ast.Node) string {
	if spec.PropertyName != nil {
		return spec.PropertyName.Text
	}
	return ast.DeclarationNameText(spec.Name)
}

func ancestor(n *ast.Node, kind ast.Kind) *ast.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}
