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
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// GetTypeAtLocation returns the type of an expression, type node or
// declaration name.
//
// Description:
//
//	Literals map to literal types, "typeof" and template expressions to
//	string, "void" to undefined, and identifiers to the type of the symbol
//	they resolve to. Type nodes are converted with GetTypeFromTypeNode.
//	Other expressions need inference and return ErrNotImplemented.
//
// Inputs:
//
//	ctx - Checked before the query.
//	node - A node of a file the checker knows.
//
// Outputs:
//
//	*Type - The type. Unresolved identifiers yield the error type.
//	error - ctx.Err(), ErrForeignNode or ErrNotImplemented.
func (c *Checker) GetTypeAtLocation(ctx context.Context, node *ast.Node) (*Type, error) {
	if node == nil {
		return c.errorType, ctx.Err()
	}
	ctx, span, err := c.startQuery(ctx, "checker.GetTypeAtLocation",
		attribute.String("kind", node.Kind.String()))
	if err != nil {
		return nil, err
	}
	defer span.End()

	bf := c.fileOf(node)
	if bf == nil {
		return nil, ErrForeignNode
	}
	if isTypeNode(node) || isTypePosition(node) {
		return c.typeFromTypeNode(ctx, node)
	}
	if p := node.Parent(); p != nil && p.Kind == ast.KindPropertyAccessExpression && p.Name == node {
		return c.typeOfExpression(ctx, p)
	}
	if p := node.Parent(); p != nil && p.Name == node {
		if sym := bf.SymbolOf(p); sym != nil {
			return c.typeOfSymbol(ctx, c.mergedSymbol(sym))
		}
	}
	return c.typeOfExpression(ctx, node)
}

func isTypeNode(n *ast.Node) bool {
	return n.Kind >= ast.KindTypeReference && n.Kind <= ast.KindThisType
}

func (c *Checker) typeOfExpression(ctx context.Context, n *ast.Node) (*Type, error) {
	switch n.Kind {
	case ast.KindStringLiteral, ast.KindNoSubstitutionTemplateLiteral:
		return c.literalType(TypeFlagsStringLiteral, n.Text), nil
	case ast.KindNumericLiteral:
		return c.literalType(TypeFlagsNumberLiteral, normalizeNumber(n.Text)), nil
	case ast.KindBigIntLiteral:
		return c.literalType(TypeFlagsBigIntLiteral, strings.TrimSuffix(n.Text, "n")), nil
	case ast.KindTrueKeyword:
		return c.trueType, nil
	case ast.KindFalseKeyword:
		return c.falseType, nil
	case ast.KindNullKeyword:
		return c.null, nil
	case ast.KindTemplateExpression, ast.KindTypeOfExpression:
		return c.str, nil
	case ast.KindVoidExpression:
		return c.undefined, nil
	case ast.KindDeleteExpression:
		return c.boolean, nil
	case ast.KindParenthesizedExpression:
		return c.typeOfExpression(ctx, n.Expression)
	case ast.KindAsExpression, ast.KindTypeAssertionExpression:
		if n.Type != nil {
			return c.typeFromTypeNode(ctx, n.Type)
		}
	case ast.KindIdentifier:
		sym := c.resolveName(n, n.Text, valueMeaning)
		if sym == nil {
			if n.Text == "undefined" {
				return c.undefined, nil
			}
			return c.errorType, nil
		}
		return c.typeOfSymbol(ctx, sym)
	case ast.KindPropertyAccessExpression, ast.KindQualifiedName:
		bf := c.fileOf(n)
		sym := c.symbolAtLocation(bf, n)
		if sym == nil {
			return nil, fmt.Errorf("property access: %w", ErrNotImplemented)
		}
		return c.typeOfSymbol(ctx, sym)
	case ast.KindFunctionExpression, ast.KindArrowFunction, ast.KindClassExpression:
		if sym := c.fileOf(n).SymbolOf(n); sym != nil {
			return c.anonymousType(sym), nil
		}
	}
	return nil, fmt.Errorf("type of %s: %w", n.Kind, ErrNotImplemented)
}

// normalizeNumber canonicalizes the spelling of a numeric literal type.
func normalizeNumber(text string) string {
	return strings.ReplaceAll(text, "_", "")
}

// literalType returns the unique literal type for value.
func (c *Checker) literalType(flags TypeFlags, value string) *Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := literalKey{flags: flags, value: value}
	if t, ok := c.literalTypes[key]; ok {
		return t
	}
	t := c.newType(flags)
	t.Value = value
	c.literalTypes[key] = t
	return t
}

// anonymousType returns the object type of a function, class, enum or
// namespace value.
func (c *Checker) anonymousType(sym *symbols.Symbol) *Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.valueTypes[sym]; ok {
		return t
	}
	t := c.newType(TypeFlagsObject)
	t.ObjectFlags = ObjectFlagsAnonymous
	t.Symbol = sym
	c.valueTypes[sym] = t
	return t
}

// declaredType returns the cached declared type of sym, creating it with
// flags on first use.
func (c *Checker) declaredType(sym *symbols.Symbol, flags TypeFlags, objectFlags ObjectFlags) *Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.declaredTypes[sym]; ok {
		return t
	}
	t := c.newType(flags)
	t.ObjectFlags = objectFlags
	t.Symbol = sym
	c.declaredTypes[sym] = t
	return t
}

// GetTypeOfSymbol returns the value type of sym.
//
// Description:
//
//	Functions, methods, classes, enums and namespaces have an anonymous
//	object type. Variables, parameters and properties use their type
//	annotation, or the widened type of a literal initializer; const
//	declarations keep the literal type. A declaration with neither is
//	any. Enum members have the enum's type. Aliases are followed.
//
// Outputs:
//
//	*Type - The type. The error type for symbols without a value side.
//	error - ctx.Err() or ErrNotImplemented.
func (c *Checker) GetTypeOfSymbol(ctx context.Context, sym *symbols.Symbol) (*Type, error) {
	ctx, span, err := c.startQuery(ctx, "checker.GetTypeOfSymbol")
	if err != nil {
		return nil, err
	}
	defer span.End()
	if sym == nil {
		return c.errorType, nil
	}
	span.SetAttributes(attribute.String("symbol", sym.Name()))
	return c.typeOfSymbol(ctx, c.mergedSymbol(sym))
}

// GetTypeOfSymbolAtLocation returns the type of sym at location. Flow
// narrowing is not applied, so this equals GetTypeOfSymbol.
func (c *Checker) GetTypeOfSymbolAtLocation(ctx context.Context, sym *symbols.Symbol, location *ast.Node) (*Type, error) {
	if location != nil && c.fileOf(location) == nil {
		return nil, ErrForeignNode
	}
	return c.GetTypeOfSymbol(ctx, sym)
}

func (c *Checker) typeOfSymbol(ctx context.Context, sym *symbols.Symbol) (*Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sym.ExportSymbol != nil {
		sym = sym.ExportSymbol
	}
	switch {
	case sym.Has(symbols.KindAlias):
		target := c.resolveAlias(sym)
		if target == nil {
			return c.errorType, nil
		}
		return c.typeOfSymbol(ctx, target)
	case sym.HasAny(symbols.KindsOf(symbols.KindFunction, symbols.KindMethod, symbols.KindClass,
		symbols.KindValueModule) | symbols.EnumKinds):
		return c.anonymousType(sym), nil
	case sym.Has(symbols.KindEnumMember):
		if sym.Parent != nil {
			return c.declaredTypeOfSymbol(ctx, sym.Parent)
		}
		return c.number, nil
	case sym.Has(symbols.KindPrototype):
		if sym.Parent != nil {
			return c.declaredTypeOfSymbol(ctx, sym.Parent)
		}
	case sym.HasAny(symbols.VariableKinds | symbols.KindsOf(symbols.KindProperty)):
		return c.typeOfVariable(ctx, sym)
	case sym.HasAny(symbols.AccessorKinds):
		return c.typeOfAccessor(ctx, sym)
	}
	if sym.IsValue() {
		return nil, fmt.Errorf("type of %s: %w", sym.Kinds(), ErrNotImplemented)
	}
	return c.errorType, nil
}

func (c *Checker) typeOfVariable(ctx context.Context, sym *symbols.Symbol) (*Type, error) {
	decl := sym.ValueDeclaration
	if decl == nil {
		return c.any, nil
	}
	if decl.Type != nil {
		t, err := c.typeFromTypeNode(ctx, decl.Type)
		if err != nil {
			return nil, err
		}
		if decl.Flags&ast.NodeFlagsOptional != 0 && c.strictNullChecks() {
			return c.GetUnionType(t, c.undefined), nil
		}
		return t, nil
	}
	if decl.Initializer == nil {
		if decl.Kind == ast.KindBindingElement {
			return nil, fmt.Errorf("binding element: %w", ErrNotImplemented)
		}
		return c.any, nil
	}
	t, err := c.typeOfExpression(ctx, decl.Initializer)
	if err != nil {
		return nil, err
	}
	if isConstDeclaration(decl) {
		return t, nil
	}
	return c.GetWidenedType(c.GetBaseTypeOfLiteralType(t)), nil
}

func isConstDeclaration(decl *ast.Node) bool {
	if decl.Kind != ast.KindVariableDeclaration {
		return false
	}
	return ast.GetCombinedNodeFlags(decl)&ast.NodeFlagsConst != 0
}

func (c *Checker) typeOfAccessor(ctx context.Context, sym *symbols.Symbol) (*Type, error) {
	for _, decl := range sym.Declarations {
		if decl.Kind == ast.KindGetAccessor && decl.Type != nil {
			return c.typeFromTypeNode(ctx, decl.Type)
		}
	}
	for _, decl := range sym.Declarations {
		if decl.Kind == ast.KindSetAccessor && len(decl.Parameters) == 1 && decl.Parameters[0].Type != nil {
			return c.typeFromTypeNode(ctx, decl.Parameters[0].Type)
		}
	}
	return nil, fmt.Errorf("accessor without annotation: %w", ErrNotImplemented)
}

// GetDeclaredTypeOfSymbol returns the type a type-meaning symbol
// declares: the instance type of a class or interface, an enum type, a
// type parameter, or the aliased type of a type alias.
func (c *Checker) GetDeclaredTypeOfSymbol(ctx context.Context, sym *symbols.Symbol) (*Type, error) {
	ctx, span, err := c.startQuery(ctx, "checker.GetDeclaredTypeOfSymbol")
	if err != nil {
		return nil, err
	}
	defer span.End()
	if sym == nil {
		return c.errorType, nil
	}
	return c.declaredTypeOfSymbol(ctx, c.mergedSymbol(sym))
}

func (c *Checker) declaredTypeOfSymbol(ctx context.Context, sym *symbols.Symbol) (*Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sym.ExportSymbol != nil {
		sym = sym.ExportSymbol
	}
	switch {
	case sym.Has(symbols.KindAlias):
		target := c.resolveAlias(sym)
		if target == nil {
			return c.errorType, nil
		}
		return c.declaredTypeOfSymbol(ctx, target)
	case sym.Has(symbols.KindClass):
		return c.declaredType(sym, TypeFlagsObject, ObjectFlagsClass), nil
	case sym.Has(symbols.KindInterface):
		return c.declaredType(sym, TypeFlagsObject, ObjectFlagsInterface), nil
	case sym.HasAny(symbols.EnumKinds):
		return c.declaredType(sym, TypeFlagsEnum, ObjectFlagsNone), nil
	case sym.Has(symbols.KindTypeParameter):
		return c.declaredType(sym, TypeFlagsTypeParameter, ObjectFlagsNone), nil
	case sym.Has(symbols.KindTypeAlias):
		for _, decl := range sym.Declarations {
			if decl.Kind == ast.KindTypeAliasDeclaration && decl.Type != nil {
				return c.typeFromTypeNode(ctx, decl.Type)
			}
		}
		return c.errorType, nil
	case sym.Has(symbols.KindTypeLiteral):
		return c.anonymousType(sym), nil
	}
	return c.errorType, nil
}

// GetTypeFromTypeNode converts a type annotation into a type.
func (c *Checker) GetTypeFromTypeNode(ctx context.Context, node *ast.Node) (*Type, error) {
	if node == nil {
		return c.errorType, ctx.Err()
	}
	ctx, span, err := c.startQuery(ctx, "checker.GetTypeFromTypeNode",
		attribute.String("kind", node.Kind.String()))
	if err != nil {
		return nil, err
	}
	defer span.End()
	if c.fileOf(node) == nil {
		return nil, ErrForeignNode
	}
	return c.typeFromTypeNode(ctx, node)
}

func (c *Checker) typeFromTypeNode(ctx context.Context, n *ast.Node) (*Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch n.Kind {
	case ast.KindKeywordType:
		if t, ok := c.byKeyword[n.Text]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("keyword type %q: %w", n.Text, ErrNotImplemented)
	case ast.KindParenthesizedType:
		if n.Type == nil {
			return c.errorType, nil
		}
		return c.typeFromTypeNode(ctx, n.Type)
	case ast.KindLiteralType:
		if n.Expression == nil {
			return c.errorType, nil
		}
		if n.Expression.Kind == ast.KindPrefixUnaryExpression && n.Expression.Operator == "-" &&
			n.Expression.Expression != nil && n.Expression.Expression.Kind == ast.KindNumericLiteral {
			return c.literalType(TypeFlagsNumberLiteral, "-"+normalizeNumber(n.Expression.Expression.Text)), nil
		}
		return c.typeOfExpression(ctx, n.Expression)
	case ast.KindUnionType:
		types := make([]*Type, 0, len(n.Types))
		for _, member := range n.Types {
			t, err := c.typeFromTypeNode(ctx, member)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		return c.GetUnionType(types...), nil
	case ast.KindTypeReference:
		if len(n.TypeArguments) > 0 {
			return nil, fmt.Errorf("generic type reference: %w", ErrNotImplemented)
		}
		return c.typeOfEntityName(ctx, n.Name)
	case ast.KindIdentifier, ast.KindQualifiedName:
		return c.typeOfEntityName(ctx, n)
	case ast.KindTypeLiteral, ast.KindFunctionType, ast.KindConstructorType, ast.KindMappedType:
		if bf := c.fileOf(n); bf != nil {
			if sym := bf.SymbolOf(n); sym != nil {
				return c.anonymousType(sym), nil
			}
		}
	case ast.KindTypeQuery:
		return c.typeOfExpression(ctx, n.Expression)
	}
	return nil, fmt.Errorf("type node %s: %w", n.Kind, ErrNotImplemented)
}

// typeOfEntityName resolves a type name to its declared type.
func (c *Checker) typeOfEntityName(ctx context.Context, name *ast.Node) (*Type, error) {
	if name == nil {
		return c.errorType, nil
	}
	var sym *symbols.Symbol
	switch name.Kind {
	case ast.KindIdentifier:
		sym = c.resolveName(name, name.Text, typeMeaning)
		if sym == nil {
			if t, ok := c.byKeyword[name.Text]; ok {
				return t, nil
			}
		}
	default:
		sym = c.newAliasWalk().entityName(name, typeMeaning)
	}
	if sym == nil {
		return c.errorType, nil
	}
	return c.declaredTypeOfSymbol(ctx, sym)
}

// GetPropertiesOfType returns the properties of an object type: instance
// members of classes, interfaces and type literals, or the exports of a
// function, class, enum or namespace value.
func (c *Checker) GetPropertiesOfType(ctx context.Context, t *Type) ([]*symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := c.propertyTable(t)
	if err != nil {
		return nil, err
	}
	var out []*symbols.Symbol
	table.Each(func(name string, sym *symbols.Symbol) bool {
		if isProperty(name, sym) {
			out = append(out, sym)
		}
		return true
	})
	return out, nil
}

// GetPropertyOfType returns the named property of t, or nil.
func (c *Checker) GetPropertyOfType(ctx context.Context, t *Type, name string) (*symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := c.propertyTable(t)
	if err != nil {
		return nil, err
	}
	escaped := symbols.EscapeLeadingUnderscores(name)
	if sym := table.Get(escaped); sym != nil && isProperty(escaped, sym) {
		return sym, nil
	}
	return nil, nil
}

// isProperty filters synthetic entries and type parameters out of member
// tables. "prototype" is kept; it is a real property of classes.
func isProperty(name string, sym *symbols.Symbol) bool {
	if sym.Has(symbols.KindTypeParameter) || sym.Has(symbols.KindExportStar) {
		return false
	}
	return name == symbols.InternalNamePrototype || !symbols.IsInternalName(name)
}

func (c *Checker) propertyTable(t *Type) (*symbols.Table, error) {
	switch {
	case t == nil:
		return nil, nil
	case t.Flags&TypeFlagsObject != 0 && t.Symbol != nil:
		if t.ObjectFlags&ObjectFlagsAnonymous != 0 && !t.Symbol.Has(symbols.KindTypeLiteral) {
			return t.Symbol.Exports, nil
		}
		return t.Symbol.Members, nil
	case t.Flags&TypeFlagsEnum != 0 && t.Symbol != nil:
		return nil, nil
	case t.Flags&(TypeFlagsAnyOrUnknown|TypeFlagsNever|TypeFlagsNullable|TypeFlagsVoid) != 0:
		return nil, nil
	}
	return nil, fmt.Errorf("properties of %s: %w", c.TypeToString(t), ErrNotImplemented)
}

// GetSignaturesOfType returns the call or construct signatures of t,
// read from the declarations of its symbol.
func (c *Checker) GetSignaturesOfType(ctx context.Context, t *Type, kind SignatureKind) ([]*Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t == nil || t.Symbol == nil || t.Flags&TypeFlagsObject == 0 {
		return nil, nil
	}
	sym := t.Symbol
	var decls []*ast.Node
	switch {
	case kind == SignatureKindCall && t.ObjectFlags&ObjectFlagsAnonymous != 0 &&
		sym.HasAny(symbols.KindsOf(symbols.KindFunction, symbols.KindMethod)):
		decls = sym.Declarations
	case kind == SignatureKindConstruct && t.ObjectFlags&ObjectFlagsAnonymous != 0 && sym.Has(symbols.KindClass):
		if ctor := sym.Members.Get(symbols.InternalNameConstructor); ctor != nil {
			decls = ctor.Declarations
		} else {
			return []*Signature{{Declaration: classDeclarationOf(sym)}}, nil
		}
	default:
		name := symbols.InternalNameCall
		if kind == SignatureKindConstruct {
			name = symbols.InternalNameNew
		}
		if member := sym.Members.Get(name); member != nil {
			decls = member.Declarations
		}
	}
	return c.signaturesFromDeclarations(decls), nil
}

func classDeclarationOf(sym *symbols.Symbol) *ast.Node {
	for _, decl := range sym.Declarations {
		if ast.IsClassLike(decl) {
			return decl
		}
	}
	return nil
}

// signaturesFromDeclarations builds one signature per overload. When a
// function has overloads the implementation signature is hidden.
func (c *Checker) signaturesFromDeclarations(decls []*ast.Node) []*Signature {
	var out []*Signature
	hasOverloads := false
	for _, decl := range decls {
		if ast.IsFunctionLike(decl) && decl.Body == nil {
			hasOverloads = true
		}
	}
	for _, decl := range decls {
		if !ast.IsFunctionLike(decl) {
			continue
		}
		if hasOverloads && decl.Body != nil {
			continue
		}
		out = append(out, c.signatureOf(decl))
	}
	return out
}

func (c *Checker) signatureOf(decl *ast.Node) *Signature {
	sig := &Signature{Declaration: decl}
	bf := c.fileOf(decl)
	for _, tp := range decl.TypeParameters {
		if sym := bf.SymbolOf(tp); sym != nil {
			sig.TypeParameters = append(sig.TypeParameters, sym)
		}
	}
	required := true
	for _, param := range decl.Parameters {
		if sym := bf.SymbolOf(param); sym != nil {
			sig.Parameters = append(sig.Parameters, sym)
		}
		isRest := param.Operator == "..."
		if isRest {
			sig.HasRestParameter = true
		}
		if param.Initializer != nil || param.Flags&ast.NodeFlagsOptional != 0 || isRest {
			required = false
		}
		if required {
			sig.MinArgumentCount++
		}
	}
	return sig
}

// GetReturnTypeOfSignature returns the annotated return type, or void for
// a body the binder saw return no value.
func (c *Checker) GetReturnTypeOfSignature(ctx context.Context, sig *Signature) (*Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sig == nil || sig.Declaration == nil {
		return c.errorType, nil
	}
	decl := sig.Declaration
	if ast.IsClassLike(decl) || decl.Kind == ast.KindConstructor {
		classDecl := decl
		if decl.Kind == ast.KindConstructor {
			classDecl = decl.Parent()
		}
		if bf := c.fileOf(classDecl); bf != nil {
			if sym := bf.SymbolOf(classDecl); sym != nil {
				return c.declaredTypeOfSymbol(ctx, c.mergedSymbol(sym))
			}
		}
		return c.errorType, nil
	}
	if decl.Type != nil {
		return c.typeFromTypeNode(ctx, decl.Type)
	}
	if decl.Body == nil {
		return c.any, nil
	}
	bf := c.fileOf(decl)
	if bf == nil {
		return nil, ErrForeignNode
	}
	facts := bf.FunctionFactsOf(decl)
	if !facts.HasExplicitReturn && decl.Body.Kind == ast.KindBlock {
		if facts.HasImplicitReturn {
			return c.void, nil
		}
		return c.never, nil
	}
	return nil, fmt.Errorf("inferred return type: %w", ErrNotImplemented)
}

// GetIndexTypeOfType returns the value type of the string or number index
// signature of an object type.
func (c *Checker) GetIndexTypeOfType(ctx context.Context, t *Type, kind IndexKind) (*Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t == nil || t.Symbol == nil || t.Flags&TypeFlagsObject == 0 {
		return nil, nil
	}
	index := t.Symbol.Members.Get(symbols.InternalNameIndex)
	if index == nil {
		return nil, nil
	}
	want := "string"
	if kind == IndexKindNumber {
		want = "number"
	}
	for _, decl := range index.Declarations {
		if len(decl.Parameters) != 1 || decl.Type == nil {
			continue
		}
		keyType := decl.Parameters[0].Type
		if keyType != nil && keyType.Kind == ast.KindKeywordType && keyType.Text == want {
			return c.typeFromTypeNode(ctx, decl.Type)
		}
	}
	return nil, nil
}
