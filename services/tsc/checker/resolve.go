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
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/binder"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

var (
	valueMeaning     = symbols.ValueKinds
	typeMeaning      = symbols.TypeKinds | symbols.NamespaceKinds
	namespaceMeaning = symbols.NamespaceKinds
	anyMeaning       = symbols.ValueKinds | symbols.TypeKinds | symbols.NamespaceKinds
)

// GetSymbolAtLocation returns the symbol a name or declaration refers to.
//
// Description:
//
//	Declaration names yield the declared symbol. Identifiers are resolved
//	lexically with a value or type meaning depending on their position;
//	the right side of a property access or qualified name is looked up in
//	the exports of the left side. Module specifiers yield the module
//	symbol of the resolved file. Exported locals are reported as their
//	export symbol, and script globals as their merged symbol.
//
// Inputs:
//
//	ctx - Checked before resolving.
//	node - Any node of a file the checker knows.
//
// Outputs:
//
//	*symbols.Symbol - The symbol, or nil when the name is unresolved.
//	error - ctx.Err() or ErrForeignNode.
func (c *Checker) GetSymbolAtLocation(ctx context.Context, node *ast.Node) (*symbols.Symbol, error) {
	if node == nil {
		return nil, ctx.Err()
	}
	_, span, err := c.startQuery(ctx, "checker.GetSymbolAtLocation",
		attribute.String("kind", node.Kind.String()))
	if err != nil {
		return nil, err
	}
	defer span.End()

	bf := c.fileOf(node)
	if bf == nil {
		return nil, ErrForeignNode
	}
	return c.symbolAtLocation(bf, node), nil
}

func (c *Checker) symbolAtLocation(bf *binder.BoundFile, node *ast.Node) *symbols.Symbol {
	parent := node.Parent()
	if parent != nil {
		switch {
		case parent.Kind == ast.KindPropertyAccessExpression && parent.Name == node:
			return c.memberOfEntity(bf, parent.Expression, node.Text)
		case parent.Kind == ast.KindQualifiedName && parent.Right == node:
			return c.memberOfEntity(bf, parent.Left, node.Text)
		case (parent.Kind == ast.KindImportSpecifier || parent.Kind == ast.KindExportSpecifier) &&
			parent.PropertyName == node:
			alias := bf.SymbolOf(parent)
			if alias == nil {
				return nil
			}
			return c.resolveAlias(alias)
		case parent.Name == node:
			if sym := bf.SymbolOf(parent); sym != nil {
				return c.mergedSymbol(sym)
			}
		case ast.IsStringLiteralLike(node) && isModuleSpecifier(parent, node):
			return c.moduleSymbolFor(parent, node.Text)
		}
	}
	switch node.Kind {
	case ast.KindIdentifier:
		meaning := valueMeaning
		if isTypePosition(node) {
			meaning = typeMeaning
		}
		return c.resolveName(node, node.Text, meaning)
	case ast.KindQualifiedName:
		return c.symbolAtLocation(bf, node.Right)
	case ast.KindPropertyAccessExpression:
		if node.Name != nil {
			return c.symbolAtLocation(bf, node.Name)
		}
		return nil
	}
	return c.mergedSymbol(bf.SymbolOf(node))
}

func isModuleSpecifier(parent, node *ast.Node) bool {
	switch parent.Kind {
	case ast.KindImportDeclaration, ast.KindExportDeclaration:
		return parent.ModuleSpecifier == node
	case ast.KindExternalModuleReference:
		return parent.Expression == node
	}
	return false
}

// isTypePosition reports whether an identifier names a type.
func isTypePosition(n *ast.Node) bool {
	p := n.Parent()
	for p != nil && p.Kind == ast.KindQualifiedName {
		n, p = p, p.Parent()
	}
	if p == nil {
		return false
	}
	if p.Kind >= ast.KindTypeReference && p.Kind <= ast.KindThisType {
		return p.Kind != ast.KindTypeQuery
	}
	return p.Type == n
}

// hasMeaning reports whether sym or its export twin has a kind in
// meaning. Aliases always match; their targets are resolved on use.
func (c *Checker) hasMeaning(sym *symbols.Symbol, meaning symbols.KindSet) bool {
	kinds := sym.Kinds()
	if sym.ExportSymbol != nil {
		kinds |= sym.ExportSymbol.Kinds()
	}
	return kinds.Intersects(meaning|symbols.KindsOf(symbols.KindAlias))
}

// resolved maps a symbol found in a table to the one queries report.
func (c *Checker) resolved(sym *symbols.Symbol) *symbols.Symbol {
	if sym.ExportSymbol != nil {
		sym = sym.ExportSymbol
	}
	return c.mergedSymbol(sym)
}

// resolveName looks name up lexically from location, then in globals.
func (c *Checker) resolveName(location *ast.Node, name string, meaning symbols.KindSet) *symbols.Symbol {
	escaped := symbols.EscapeLeadingUnderscores(name)
	bf := c.fileOf(location)
	var found *symbols.Symbol
	c.walkScopes(bf, location, meaning, func(key string, sym *symbols.Symbol) bool {
		if key == escaped {
			found = sym
			return false
		}
		return true
	})
	return found
}

// walkScopes visits every symbol visible from location with a kind in
// meaning, innermost scope first, until visit returns false. Shadowed
// names are visited too; callers keep the first hit.
func (c *Checker) walkScopes(bf *binder.BoundFile, location *ast.Node, meaning symbols.KindSet,
	visit func(name string, sym *symbols.Symbol) bool) {
	stop := false
	each := func(table *symbols.Table, filter func(*symbols.Symbol) bool) {
		table.Each(func(name string, sym *symbols.Symbol) bool {
			if isHiddenName(name) || !c.hasMeaning(sym, meaning) || (filter != nil && !filter(sym)) {
				return true
			}
			if !visit(name, c.resolved(sym)) {
				stop = true
			}
			return !stop
		})
	}

	for n := location; n != nil && bf != nil && !stop; n = n.Parent() {
		each(bf.LocalsOf(n), nil)
		if stop {
			return
		}
		switch n.Kind {
		case ast.KindModuleDeclaration, ast.KindEnumDeclaration:
			if sym := bf.SymbolOf(n); sym != nil {
				each(sym.Exports, nil)
			}
		case ast.KindClassDeclaration, ast.KindClassExpression, ast.KindInterfaceDeclaration:
			if sym := bf.SymbolOf(n); sym != nil && meaning.Intersects(symbols.TypeKinds) {
				each(sym.Members, func(s *symbols.Symbol) bool { return s.Has(symbols.KindTypeParameter) })
			}
			if n.Kind == ast.KindClassExpression && n.Name != nil && meaning.Has(symbols.KindClass) {
				if sym := bf.SymbolOf(n); sym != nil && !visit(sym.EscapedName, sym) {
					return
				}
			}
		case ast.KindFunctionExpression:
			if n.Name != nil && meaning.Has(symbols.KindFunction) {
				if sym := bf.SymbolOf(n); sym != nil && !visit(sym.EscapedName, sym) {
					return
				}
			}
		}
	}
	if !stop {
		each(c.globals, nil)
	}
}

// isHiddenName reports synthetic names and ambient module names, which
// are never in scope as identifiers.
func isHiddenName(name string) bool {
	return symbols.IsInternalName(name) || strings.HasPrefix(name, `"`)
}

// GetSymbolsInScope returns the symbols visible at location with a kind
// in meaning, innermost first. Each name appears once.
func (c *Checker) GetSymbolsInScope(ctx context.Context, location *ast.Node, meaning symbols.KindSet) ([]*symbols.Symbol, error) {
	_, span, err := c.startQuery(ctx, "checker.GetSymbolsInScope")
	if err != nil {
		return nil, err
	}
	defer span.End()

	bf := c.fileOf(location)
	if bf == nil {
		return nil, ErrForeignNode
	}
	seen := make(map[string]bool)
	var out []*symbols.Symbol
	c.walkScopes(bf, location, meaning, func(name string, sym *symbols.Symbol) bool {
		if !seen[name] {
			seen[name] = true
			out = append(out, sym)
		}
		return true
	})
	span.SetAttributes(attribute.Int("symbols", len(out)))
	return out, nil
}

// memberOfEntity resolves left as an entity and looks name up in its
// exports.
func (c *Checker) memberOfEntity(bf *binder.BoundFile, left *ast.Node, name string) *symbols.Symbol {
	container := c.symbolAtLocation(bf, left)
	if container == nil {
		return nil
	}
	if container.Has(symbols.KindAlias) {
		container = c.resolveAlias(container)
	}
	return c.exportOfModule(container, name)
}

// GetAliasedSymbol follows an alias chain to its final target.
func (c *Checker) GetAliasedSymbol(ctx context.Context, alias *symbols.Symbol) (*symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.resolveAlias(alias), nil
}

// GetImmediateAliasedSymbol resolves one step of an alias.
func (c *Checker) GetImmediateAliasedSymbol(ctx context.Context, alias *symbols.Symbol) (*symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if alias == nil || !alias.Has(symbols.KindAlias) {
		return nil, nil
	}
	return c.immediateTarget(alias), nil
}

// GetMergedSymbol returns the cross-file merge of a global symbol.
func (c *Checker) GetMergedSymbol(ctx context.Context, sym *symbols.Symbol) (*symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.mergedSymbol(sym), nil
}

// GetExportSymbolOfSymbol returns the exported twin of a module-local
// symbol, or the symbol itself.
func (c *Checker) GetExportSymbolOfSymbol(ctx context.Context, sym *symbols.Symbol) (*symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sym == nil {
		return nil, nil
	}
	return c.resolved(sym), nil
}

// GetExportsOfModule lists the exports of a module or namespace symbol,
// including names re-exported through "export *", in declaration order.
func (c *Checker) GetExportsOfModule(ctx context.Context, moduleSymbol *symbols.Symbol) ([]*symbols.Symbol, error) {
	_, span, err := c.startQuery(ctx, "checker.GetExportsOfModule")
	if err != nil {
		return nil, err
	}
	defer span.End()

	e := exportCollector{c: c, seen: make(map[string]bool), visited: make(map[*symbols.Symbol]bool)}
	e.collect(c.resolveExternalModuleSymbol(c.aliasTarget(moduleSymbol)), false)
	return e.out, nil
}

type exportCollector struct {
	c       *Checker
	seen    map[string]bool
	visited map[*symbols.Symbol]bool
	out     []*symbols.Symbol
}

func (e *exportCollector) collect(mod *symbols.Symbol, viaStar bool) {
	mod = e.c.mergedSymbol(mod)
	if mod == nil || e.visited[mod] {
		return
	}
	e.visited[mod] = true
	mod.Exports.Each(func(name string, sym *symbols.Symbol) bool {
		if symbols.IsInternalName(name) || e.seen[name] {
			return true
		}
		if viaStar && name == symbols.InternalNameDefault {
			return true
		}
		e.seen[name] = true
		e.out = append(e.out, e.c.mergedSymbol(sym))
		return true
	})
	if star := mod.Exports.Get(symbols.InternalNameExportStar); star != nil {
		for _, decl := range star.Declarations {
			e.collect(e.c.moduleSymbolFor(decl, ast.ModuleSpecifierText(decl)), true)
		}
	}
}

// TryGetMemberInModuleExports looks name up in the exports of a module.
func (c *Checker) TryGetMemberInModuleExports(ctx context.Context, name string, moduleSymbol *symbols.Symbol) (*symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.exportOfModule(c.aliasTarget(moduleSymbol), name), nil
}

// GetAmbientModules returns the global "declare module" symbols.
func (c *Checker) GetAmbientModules(ctx context.Context) ([]*symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*symbols.Symbol
	c.globals.Each(func(name string, sym *symbols.Symbol) bool {
		if len(name) > 1 && name[0] == '"' && sym.Has(symbols.KindValueModule) {
			out = append(out, sym)
		}
		return true
	})
	return out, nil
}
