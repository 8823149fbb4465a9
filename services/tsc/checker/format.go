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
	"strconv"
	"strings"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// maxRenderDepth bounds nested type literals in TypeToString.
const maxRenderDepth = 3

// TypeToString renders t the way it would be written in source.
func (c *Checker) TypeToString(t *Type) string {
	var b strings.Builder
	c.writeType(&b, t, 0)
	return b.String()
}

func (c *Checker) writeType(b *strings.Builder, t *Type, depth int) {
	switch {
	case t == nil:
		b.WriteString("?")
	case t.IntrinsicName != "":
		b.WriteString(t.IntrinsicName)
	case t.Flags&TypeFlagsStringLiteral != 0:
		b.WriteString(strconv.Quote(t.Value))
	case t.Flags&TypeFlagsNumberLiteral != 0:
		b.WriteString(t.Value)
	case t.Flags&TypeFlagsBigIntLiteral != 0:
		b.WriteString(t.Value)
		b.WriteByte('n')
	case t.Flags&TypeFlagsUnion != 0:
		for i, member := range t.Types {
			if i > 0 {
				b.WriteString(" | ")
			}
			c.writeType(b, member, depth)
		}
	case t.Flags&(TypeFlagsEnum|TypeFlagsTypeParameter) != 0 && t.Symbol != nil:
		b.WriteString(c.SymbolToString(t.Symbol))
	case t.Flags&TypeFlagsObject != 0 && t.Symbol != nil:
		c.writeObjectType(b, t, depth)
	default:
		b.WriteString(t.Flags.String())
	}
}

func (c *Checker) writeObjectType(b *strings.Builder, t *Type, depth int) {
	sym := t.Symbol
	if t.ObjectFlags&ObjectFlagsAnonymous == 0 {
		b.WriteString(c.SymbolToString(sym))
		return
	}
	if sym.Has(symbols.KindTypeLiteral) {
		c.writeTypeLiteral(b, sym, depth)
		return
	}
	if sym.HasAny(symbols.KindsOf(symbols.KindClass, symbols.KindValueModule) | symbols.EnumKinds) ||
		!symbols.IsInternalName(sym.EscapedName) {
		b.WriteString("typeof ")
		b.WriteString(c.SymbolToString(sym))
		return
	}
	// Anonymous function or arrow expressions.
	if decl := sym.ValueDeclaration; decl != nil && ast.IsFunctionLike(decl) {
		c.writeSignature(b, decl, depth)
		return
	}
	b.WriteString("{}")
}

func (c *Checker) writeTypeLiteral(b *strings.Builder, sym *symbols.Symbol, depth int) {
	var decl *ast.Node
	if len(sym.Declarations) > 0 {
		decl = sym.Declarations[0]
	}
	if decl != nil && (decl.Kind == ast.KindFunctionType || decl.Kind == ast.KindConstructorType) {
		if decl.Kind == ast.KindConstructorType {
			b.WriteString("new ")
		}
		c.writeSignature(b, decl, depth)
		return
	}
	if sym.Members.Len() == 0 {
		b.WriteString("{}")
		return
	}
	if depth >= maxRenderDepth {
		b.WriteString("{ ...; }")
		return
	}
	b.WriteString("{ ")
	sym.Members.Each(func(name string, member *symbols.Symbol) bool {
		b.WriteString(symbols.UnescapeLeadingUnderscores(name))
		if member.Facets&symbols.FacetOptional != 0 {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		c.writeAnnotation(b, member.ValueDeclaration, depth+1)
		b.WriteString("; ")
		return true
	})
	b.WriteString("}")
}

func (c *Checker) writeSignature(b *strings.Builder, decl *ast.Node, depth int) {
	if depth >= maxRenderDepth {
		b.WriteString("(...) => ...")
		return
	}
	b.WriteByte('(')
	for i, param := range decl.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		if param.Operator == "..." {
			b.WriteString("...")
		}
		b.WriteString(ast.DeclarationNameText(param.Name))
		if param.Flags&ast.NodeFlagsOptional != 0 || param.Initializer != nil {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		c.writeAnnotation(b, param, depth+1)
	}
	b.WriteString(") => ")
	if decl.Type == nil {
		b.WriteString("any")
		return
	}
	c.writeAnnotation(b, decl, depth+1)
}

// writeAnnotation renders the declared type of decl, or any.
func (c *Checker) writeAnnotation(b *strings.Builder, decl *ast.Node, depth int) {
	if decl == nil || decl.Type == nil {
		b.WriteString("any")
		return
	}
	t, err := c.typeFromTypeNode(context.Background(), decl.Type)
	if err != nil {
		b.WriteString("any")
		return
	}
	c.writeType(b, t, depth)
}

// SymbolToString renders sym qualified by its enclosing namespaces,
// stopping at the containing module.
func (c *Checker) SymbolToString(sym *symbols.Symbol) string {
	if sym == nil {
		return ""
	}
	parts := []string{displayName(sym)}
	for p := sym.Parent; p != nil; p = p.Parent {
		if isModuleSymbol(p) || !p.HasAny(symbols.NamespaceKinds|symbols.KindsOf(symbols.KindClass, symbols.KindInterface)) {
			break
		}
		parts = append(parts, displayName(p))
	}
	reverse(parts)
	return strings.Join(parts, ".")
}

// GetFullyQualifiedName returns the name of sym joined to every parent,
// including the quoted name of the containing module.
func (c *Checker) GetFullyQualifiedName(ctx context.Context, sym *symbols.Symbol) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if sym == nil {
		return "", nil
	}
	parts := []string{displayName(sym)}
	for p := sym.Parent; p != nil; p = p.Parent {
		parts = append(parts, displayName(p))
	}
	reverse(parts)
	return strings.Join(parts, "."), nil
}

// isModuleSymbol reports whether sym is a file or ambient external module,
// whose name is quoted.
func isModuleSymbol(sym *symbols.Symbol) bool {
	return strings.HasPrefix(sym.EscapedName, `"`)
}

func displayName(sym *symbols.Symbol) string {
	switch sym.EscapedName {
	case symbols.InternalNameDefault, symbols.InternalNameExportEquals:
		for _, decl := range sym.Declarations {
			if decl.Name != nil {
				return ast.DeclarationNameText(decl.Name)
			}
		}
		return sym.EscapedName
	case symbols.InternalNameClass, symbols.InternalNameFunction:
		return "(Anonymous " + strings.TrimPrefix(sym.EscapedName, "__") + ")"
	case symbols.InternalNameType, symbols.InternalNameObject:
		return "__type"
	}
	return sym.Name()
}

func reverse(parts []string) {
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
}
