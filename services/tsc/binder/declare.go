// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package binder

import (
	"strconv"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// classifiableKinds are the kinds whose names go into ClassifiableNames.
var classifiableKinds = symbols.KindsOf(
	symbols.KindClass,
	symbols.KindInterface,
	symbols.KindConstEnum,
	symbols.KindRegularEnum,
	symbols.KindTypeAlias,
	symbols.KindTypeParameter,
	symbols.KindValueModule,
	symbols.KindNamespaceModule,
	symbols.KindAlias,
)

var (
	exportsTableKinds = symbols.KindsOf(
		symbols.KindClass,
		symbols.KindConstEnum,
		symbols.KindRegularEnum,
		symbols.KindValueModule,
		symbols.KindNamespaceModule,
		symbols.KindFunctionScopedVariable,
		symbols.KindBlockScopedVariable,
	)
	membersTableKinds = symbols.KindsOf(
		symbols.KindClass,
		symbols.KindInterface,
		symbols.KindTypeLiteral,
		symbols.KindObjectLiteral,
	)
	notConstEnumOnlyKinds = symbols.KindsOf(symbols.KindFunction, symbols.KindClass, symbols.KindRegularEnum)
)

// declareSymbol merges node into table under its declaration name.
//
// Description:
//
//	A missing name yields a fresh "__missing" symbol that is not entered
//	in the table. A name already bound to a symbol whose kinds intersect
//	excludes is reported as a duplicate (2300, 2451 or 2528); the
//	declaration is still appended to the existing symbol so no
//	declaration is lost.
//
// Inputs:
//
//	table - The symbol table to declare into. Must be non-nil.
//	parent - The owning container symbol, or nil for locals.
//	node - The declaration.
//	kinds - The kinds the declaration introduces.
//	excludes - Kinds the declaration may not merge with.
//
// Outputs:
//
//	*symbols.Symbol - The merged or newly created symbol.
func (b *binder) declareSymbol(table *symbols.Table, parent *symbols.Symbol, node *ast.Node, kinds, excludes symbols.KindSet) *symbols.Symbol {
	return b.declareSymbolEx(table, parent, node, kinds, excludes, false, false)
}

func (b *binder) declareSymbolEx(table *symbols.Table, parent *symbols.Symbol, node *ast.Node, kinds, excludes symbols.KindSet,
	isReplaceableByMethod, isComputedName bool) *symbols.Symbol {
	isDefaultExport := node.HasModifier(ast.ModifierFlagsDefault) ||
		(node.Kind == ast.KindExportSpecifier && node.Name != nil && node.Name.Text == symbols.InternalNameDefault)

	var (
		name    string
		hasName = true
	)
	switch {
	case isComputedName:
		name = symbols.InternalNameComputed
	case isDefaultExport && parent != nil:
		name = symbols.InternalNameDefault
	default:
		name, hasName = b.getDeclarationName(node)
	}

	var sym *symbols.Symbol
	if !hasName {
		sym = b.newSymbol(symbols.InternalNameMissing)
	} else {
		if kinds.Intersects(classifiableKinds) {
			b.bound.ClassifiableNames[name] = struct{}{}
		}
		sym = table.Get(name)
		switch {
		case sym == nil:
			sym = b.newSymbol(name)
			sym.IsReplaceableByMethod = isReplaceableByMethod
			table.Set(name, sym)
		case isReplaceableByMethod && !sym.IsReplaceableByMethod:
			return sym
		case sym.Conflicts(excludes):
			if sym.IsReplaceableByMethod {
				sym = b.newSymbol(name)
				table.Set(name, sym)
			} else if !(kinds.Intersects(symbols.VariableKinds) && sym.Facets&symbols.FacetAssignment != 0) {
				b.reportDuplicateDeclaration(sym, node, kinds, isDefaultExport)
			}
		}
	}

	b.addDeclarationToSymbol(sym, node, kinds)
	if sym.Parent == nil {
		sym.Parent = parent
	}
	return sym
}

// reportDuplicateDeclaration reports a conflict on every declaration of
// sym and on node. Each declaration is reported at most once per message.
func (b *binder) reportDuplicateDeclaration(sym *symbols.Symbol, node *ast.Node, kinds symbols.KindSet, isDefaultExport bool) {
	msg := diagnostics.DuplicateIdentifier
	if sym.Has(symbols.KindBlockScopedVariable) || kinds.Has(symbols.KindBlockScopedVariable) {
		msg = diagnostics.CannotRedeclareBlockScopedVariable
	}
	needsName := true
	if len(sym.Declarations) > 0 &&
		(isDefaultExport || (node.Kind == ast.KindExportAssignment && !ast.IsExportEquals(node))) {
		msg = diagnostics.MultipleDefaultExports
		needsName = false
	}

	report := func(decl *ast.Node) {
		key := duplicateKey{node: decl, code: msg.Code}
		if b.reportedDuplicates[key] {
			return
		}
		b.reportedDuplicates[key] = true
		errorNode := ast.GetErrorNode(decl)
		if needsName {
			b.errorOnNode(errorNode, msg, b.displayName(decl, sym))
		} else {
			b.errorOnNode(errorNode, msg)
		}
	}
	for _, decl := range sym.Declarations {
		report(decl)
	}
	report(node)
}

type duplicateKey struct {
	node *ast.Node
	code int
}

// displayName renders a declaration's name for diagnostics.
func (b *binder) displayName(decl *ast.Node, sym *symbols.Symbol) string {
	if text := ast.DeclarationNameText(decl.Name); text != "" {
		return text
	}
	return sym.Name()
}

func (b *binder) addDeclarationToSymbol(sym *symbols.Symbol, node *ast.Node, kinds symbols.KindSet) {
	sym.AddDeclaration(node, kinds, hasValueBody(node))
	b.bound.symbolOf.Set(node, sym)
	if kinds.Intersects(exportsTableKinds) {
		sym.EnsureExports()
	}
	if kinds.Intersects(membersTableKinds) {
		sym.EnsureMembers()
	}
	if sym.ConstEnumOnlyModule && sym.HasAny(notConstEnumOnlyKinds) {
		sym.ConstEnumOnlyModule = false
	}
}

// hasValueBody reports whether a value declaration carries its value: an
// initializer for variables and properties, a body for functions.
func hasValueBody(node *ast.Node) bool {
	switch node.Kind {
	case ast.KindVariableDeclaration, ast.KindParameter, ast.KindBindingElement, ast.KindPropertyDeclaration,
		ast.KindPropertyAssignment, ast.KindEnumMember:
		return node.Initializer != nil
	case ast.KindClassDeclaration, ast.KindClassExpression, ast.KindEnumDeclaration,
		ast.KindShorthandPropertyAssignment, ast.KindExportAssignment:
		return true
	}
	return node.Body != nil
}

// getDeclarationName returns the escaped table key for node, or false
// when the declaration has no usable name.
func (b *binder) getDeclarationName(node *ast.Node) (string, bool) {
	if node.Kind == ast.KindExportAssignment {
		if ast.IsExportEquals(node) {
			return symbols.InternalNameExportEquals, true
		}
		return symbols.InternalNameDefault, true
	}
	if name := node.Name; name != nil {
		if ast.IsAmbientModule(node) {
			if ast.IsGlobalScopeAugmentation(node) {
				return symbols.InternalNameGlobal, true
			}
			return strconv.Quote(name.Text), true
		}
		switch name.Kind {
		case ast.KindIdentifier, ast.KindStringLiteral, ast.KindNumericLiteral, ast.KindNoSubstitutionTemplateLiteral,
			ast.KindBigIntLiteral:
			return symbols.EscapeLeadingUnderscores(name.Text), true
		case ast.KindComputedPropertyName:
			expr := name.Expression
			if ast.IsStringOrNumericLiteralLike(expr) {
				return symbols.EscapeLeadingUnderscores(expr.Text), true
			}
			if isSignedNumericLiteral(expr) {
				return expr.Operator + expr.Expression.Text, true
			}
		case ast.KindPrivateIdentifier:
			class := containingClass(node)
			if class == nil {
				return "", false
			}
			classSymbol := b.bound.SymbolOf(class)
			if classSymbol == nil {
				return "", false
			}
			return "__#" + strconv.FormatUint(classSymbol.ID(), 10) + "@" + name.Text, true
		}
		return "", false
	}
	switch node.Kind {
	case ast.KindConstructor:
		return symbols.InternalNameConstructor, true
	case ast.KindFunctionType, ast.KindCallSignature:
		return symbols.InternalNameCall, true
	case ast.KindConstructorType, ast.KindConstructSignature:
		return symbols.InternalNameNew, true
	case ast.KindIndexSignature:
		return symbols.InternalNameIndex, true
	case ast.KindExportDeclaration:
		return symbols.InternalNameExportStar, true
	case ast.KindSourceFile:
		return symbols.InternalNameExportEquals, true
	}
	return "", false
}

func isSignedNumericLiteral(n *ast.Node) bool {
	return n != nil && n.Kind == ast.KindPrefixUnaryExpression && (n.Operator == "+" || n.Operator == "-") &&
		n.Expression != nil && n.Expression.Kind == ast.KindNumericLiteral
}

// hasDynamicName reports a computed member name that is not a literal.
func hasDynamicName(node *ast.Node) bool {
	name := node.Name
	if name == nil || name.Kind != ast.KindComputedPropertyName {
		return false
	}
	return !ast.IsStringOrNumericLiteralLike(name.Expression) && !isSignedNumericLiteral(name.Expression)
}

func containingClass(node *ast.Node) *ast.Node {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if ast.IsClassLike(p) {
			return p
		}
	}
	return nil
}

// containerSymbol returns the symbol of the current container, creating
// a placeholder for containers whose declaration could not be named.
func (b *binder) containerSymbol() *symbols.Symbol {
	if sym := b.bound.SymbolOf(b.container); sym != nil {
		return sym
	}
	sym := b.newSymbol(symbols.InternalNameMissing)
	b.bound.symbolOf.Set(b.container, sym)
	return sym
}

// declareSymbolAndAddToSymbolTable declares node in the table its
// current container keeps for it.
func (b *binder) declareSymbolAndAddToSymbolTable(node *ast.Node, kinds, excludes symbols.KindSet) *symbols.Symbol {
	switch b.container.Kind {
	case ast.KindModuleDeclaration:
		return b.declareModuleMember(node, kinds, excludes)
	case ast.KindSourceFile:
		return b.declareSourceFileMember(node, kinds, excludes)
	case ast.KindClassExpression, ast.KindClassDeclaration:
		return b.declareClassMember(node, kinds, excludes)
	case ast.KindEnumDeclaration:
		sym := b.containerSymbol()
		return b.declareSymbol(sym.EnsureExports(), sym, node, kinds, excludes)
	case ast.KindTypeLiteral, ast.KindObjectLiteralExpression, ast.KindInterfaceDeclaration:
		sym := b.containerSymbol()
		return b.declareSymbol(sym.EnsureMembers(), sym, node, kinds, excludes)
	}
	return b.declareSymbol(b.locals(b.container), nil, node, kinds, excludes)
}

func (b *binder) declareClassMember(node *ast.Node, kinds, excludes symbols.KindSet) *symbols.Symbol {
	sym := b.containerSymbol()
	if node.HasModifier(ast.ModifierFlagsStatic) {
		if ast.DeclarationNameText(node.Name) == symbols.InternalNamePrototype {
			b.errorOnNode(node.Name, diagnostics.StaticPropertyConflictsWithFunction,
				symbols.InternalNamePrototype, sym.Name())
		}
		return b.declareSymbol(sym.EnsureExports(), sym, node, kinds, excludes)
	}
	return b.declareSymbol(sym.EnsureMembers(), sym, node, kinds, excludes)
}

func (b *binder) declareSourceFileMember(node *ast.Node, kinds, excludes symbols.KindSet) *symbols.Symbol {
	if b.bound.IsExternalModule() {
		return b.declareModuleMember(node, kinds, excludes)
	}
	return b.declareSymbol(b.locals(b.file.Root), nil, node, kinds, excludes)
}

// declareModuleMember declares a member of a namespace or external
// module.
//
// Description:
//
//	Exported declarations get two symbols: the exported symbol in the
//	container's exports and a local twin (kind ExportValue for values,
//	no kind for types) in its locals, linked through ExportSymbol.
//	Unnamed default exports have no local twin. Aliases go to exports
//	only for export specifiers and exported import-equals declarations.
func (b *binder) declareModuleMember(node *ast.Node, kinds, excludes symbols.KindSet) *symbols.Symbol {
	hasExportModifier := combinedModifierFlags(node)&ast.ModifierFlagsExport != 0
	if kinds.Has(symbols.KindAlias) {
		if node.Kind == ast.KindExportSpecifier || (node.Kind == ast.KindImportEqualsDeclaration && hasExportModifier) {
			sym := b.containerSymbol()
			return b.declareSymbol(sym.EnsureExports(), sym, node, kinds, excludes)
		}
		return b.declareSymbol(b.locals(b.container), nil, node, kinds, excludes)
	}

	if ast.IsAmbientModule(node) || !(hasExportModifier || b.exportContext[b.container]) {
		return b.declareSymbol(b.locals(b.container), nil, node, kinds, excludes)
	}

	containerSym := b.containerSymbol()
	locals := b.bound.LocalsOf(b.container)
	if _, named := b.getDeclarationName(node); locals == nil || (node.HasModifier(ast.ModifierFlagsDefault) && !named) {
		return b.declareSymbol(containerSym.EnsureExports(), containerSym, node, kinds, excludes)
	}
	var exportKinds symbols.KindSet
	if kinds.Intersects(symbols.ValueKinds) {
		exportKinds = symbols.KindsOf(symbols.KindExportValue)
	}
	local := b.declareSymbol(locals, nil, node, exportKinds, excludes)
	local.ExportSymbol = b.declareSymbol(containerSym.EnsureExports(), containerSym, node, kinds, excludes)
	b.bound.localSymbolOf.Set(node, local)
	return local
}

// bindBlockScopedDeclaration declares node in the nearest block scope.
func (b *binder) bindBlockScopedDeclaration(node *ast.Node, kinds, excludes symbols.KindSet) *symbols.Symbol {
	switch b.blockScopeContainer.Kind {
	case ast.KindModuleDeclaration:
		return b.declareModuleMember(node, kinds, excludes)
	case ast.KindSourceFile:
		if b.bound.IsExternalModule() {
			return b.declareModuleMember(node, kinds, excludes)
		}
	}
	return b.declareSymbol(b.locals(b.blockScopeContainer), nil, node, kinds, excludes)
}

// bindAnonymousDeclaration gives node a symbol that is not entered in any
// table.
func (b *binder) bindAnonymousDeclaration(node *ast.Node, kinds symbols.KindSet, name string) *symbols.Symbol {
	sym := b.newSymbol(name)
	if kinds.Intersects(classMemberKinds) || kinds.Has(symbols.KindEnumMember) {
		sym.Parent = b.bound.SymbolOf(b.container)
	}
	b.addDeclarationToSymbol(sym, node, kinds)
	return sym
}

var classMemberKinds = symbols.KindsOf(
	symbols.KindProperty,
	symbols.KindMethod,
	symbols.KindConstructor,
	symbols.KindGetAccessor,
	symbols.KindSetAccessor,
)

// combinedModifierFlags merges a variable declaration's modifiers with
// those of its variable statement.
func combinedModifierFlags(node *ast.Node) ast.ModifierFlags {
	flags := node.Modifiers
	if node.Kind != ast.KindVariableDeclaration && node.Kind != ast.KindBindingElement {
		return flags
	}
	p := node.Parent()
	for p != nil && (p.Kind == ast.KindBindingElement || ast.IsBindingPattern(p) || p.Kind == ast.KindVariableDeclaration) {
		flags |= p.Modifiers
		p = p.Parent()
	}
	if p != nil && p.Kind == ast.KindVariableDeclarationList {
		flags |= p.Modifiers
		if stmt := p.Parent(); stmt != nil && stmt.Kind == ast.KindVariableStatement {
			flags |= stmt.Modifiers
		}
	}
	return flags
}
