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
	"github.com/AleutianAI/tsfront/services/tsc/flow"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// bindWorker creates the symbols node declares and runs the checks that
// apply to node itself. It runs before node's children are bound.
func (b *binder) bindWorker(node *ast.Node) {
	switch node.Kind {
	case ast.KindIdentifier:
		b.setFlowNode(node)
		b.checkContextualIdentifier(node)
	case ast.KindThisKeyword, ast.KindSuperKeyword, ast.KindMetaProperty:
		b.setFlowNode(node)
	case ast.KindPropertyAccessExpression, ast.KindElementAccessExpression:
		if flow.IsNarrowableReference(node) {
			b.setFlowNode(node)
		}
	case ast.KindBinaryExpression:
		b.checkStrictModeBinaryExpression(node)
	case ast.KindCatchClause:
		b.checkStrictModeCatchClause(node)
	case ast.KindDeleteExpression:
		b.checkStrictModeDeleteExpression(node)
	case ast.KindPrefixUnaryExpression, ast.KindPostfixUnaryExpression:
		b.checkStrictModeUnaryExpression(node)
	case ast.KindWithStatement:
		b.checkStrictModeWithStatement(node)
	case ast.KindBreakStatement, ast.KindContinueStatement:
		b.checkBreakOrContinueTarget(node)
	case ast.KindLabeledStatement:
		b.checkDuplicateLabel(node)
	case ast.KindThisType:
		b.seenThisKeyword = true

	case ast.KindTypeParameter:
		b.bindTypeParameter(node)
	case ast.KindParameter:
		b.bindParameter(node)
	case ast.KindVariableDeclaration:
		b.bindVariableDeclarationOrBindingElement(node)
	case ast.KindBindingElement:
		b.setFlowNode(node)
		if isDeclarationBindingElement(node) {
			b.bindVariableDeclarationOrBindingElement(node)
		}
	case ast.KindPropertyDeclaration, ast.KindPropertySignature:
		b.bindPropertyWorker(node)
	case ast.KindPropertyAssignment, ast.KindShorthandPropertyAssignment:
		b.bindPropertyOrMethodOrAccessor(node, symbols.KindsOf(symbols.KindProperty), symbols.ExcludesOf(symbols.KindProperty))
	case ast.KindEnumMember:
		b.bindPropertyOrMethodOrAccessor(node, symbols.KindsOf(symbols.KindEnumMember), symbols.ExcludesOf(symbols.KindEnumMember))
	case ast.KindCallSignature, ast.KindConstructSignature, ast.KindIndexSignature:
		b.declareSymbolAndAddToSymbolTable(node, symbols.KindsOf(symbols.KindSignature), 0)
	case ast.KindMethodDeclaration, ast.KindMethodSignature:
		excludes := symbols.ExcludesOf(symbols.KindMethod)
		if node.Parent() != nil && node.Parent().Kind == ast.KindObjectLiteralExpression {
			excludes = symbols.ExcludesOf(symbols.KindProperty)
		}
		sym := b.bindPropertyOrMethodOrAccessor(node, symbols.KindsOf(symbols.KindMethod), excludes)
		markOptional(sym, node)
	case ast.KindFunctionDeclaration:
		b.bindFunctionDeclaration(node)
	case ast.KindConstructor:
		b.declareSymbolAndAddToSymbolTable(node, symbols.KindsOf(symbols.KindConstructor), 0)
	case ast.KindGetAccessor:
		b.bindPropertyOrMethodOrAccessor(node, symbols.KindsOf(symbols.KindGetAccessor), symbols.ExcludesOf(symbols.KindGetAccessor))
	case ast.KindSetAccessor:
		b.bindPropertyOrMethodOrAccessor(node, symbols.KindsOf(symbols.KindSetAccessor), symbols.ExcludesOf(symbols.KindSetAccessor))
	case ast.KindFunctionType, ast.KindConstructorType:
		b.bindFunctionOrConstructorType(node)
	case ast.KindTypeLiteral, ast.KindMappedType:
		b.bindAnonymousDeclaration(node, symbols.KindsOf(symbols.KindTypeLiteral), symbols.InternalNameType)
	case ast.KindObjectLiteralExpression:
		b.bindAnonymousDeclaration(node, symbols.KindsOf(symbols.KindObjectLiteral), symbols.InternalNameObject)
	case ast.KindFunctionExpression, ast.KindArrowFunction:
		b.bindFunctionExpression(node)
	case ast.KindClassExpression, ast.KindClassDeclaration:
		b.inStrictMode = true
		b.bindClassLikeDeclaration(node)
	case ast.KindInterfaceDeclaration:
		b.bindBlockScopedDeclaration(node, symbols.KindsOf(symbols.KindInterface), symbols.ExcludesOf(symbols.KindInterface))
	case ast.KindTypeAliasDeclaration:
		b.bindBlockScopedDeclaration(node, symbols.KindsOf(symbols.KindTypeAlias), symbols.ExcludesOf(symbols.KindTypeAlias))
	case ast.KindEnumDeclaration:
		b.bindEnumDeclaration(node)
	case ast.KindModuleDeclaration:
		b.bindModuleDeclaration(node)

	case ast.KindImportEqualsDeclaration, ast.KindNamespaceImport, ast.KindImportSpecifier, ast.KindExportSpecifier:
		b.declareSymbolAndAddToSymbolTable(node, symbols.KindsOf(symbols.KindAlias), symbols.ExcludesOf(symbols.KindAlias))
	case ast.KindImportClause:
		if node.Name != nil {
			b.declareSymbolAndAddToSymbolTable(node, symbols.KindsOf(symbols.KindAlias), symbols.ExcludesOf(symbols.KindAlias))
		}
	case ast.KindNamespaceExportDeclaration:
		b.bindNamespaceExportDeclaration(node)
	case ast.KindExportDeclaration:
		b.bindExportDeclaration(node)
	case ast.KindExportAssignment:
		b.bindExportAssignment(node)

	case ast.KindSourceFile:
		b.updateStrictModeStatementList(node.Statements)
		b.bindSourceFileIfExternalModule()
	case ast.KindBlock:
		if ast.IsFunctionLikeOrClassStaticBlock(node.Parent()) {
			b.updateStrictModeStatementList(node.Statements)
		}
	case ast.KindModuleBlock:
		b.updateStrictModeStatementList(node.Statements)
	}
}

// setFlowNode records the current flow for a reference.
func (b *binder) setFlowNode(node *ast.Node) {
	if b.currentFlow != nil {
		b.bound.flowNodeOf.Set(node, b.currentFlow)
	}
}

func markOptional(sym *symbols.Symbol, node *ast.Node) {
	if sym != nil && node.Flags&ast.NodeFlagsOptional != 0 {
		sym.Facets |= symbols.FacetOptional
	}
}

func (b *binder) bindSourceFileIfExternalModule() {
	root := b.file.Root
	b.setExportContextFlag(root)
	if b.bound.IsExternalModule() {
		name := strconv.Quote(tspath.RemoveFileExtension(b.file.FileName))
		b.bound.Symbol = b.bindAnonymousDeclaration(root, symbols.KindsOf(symbols.KindValueModule), name)
	}
}

// setExportContextFlag marks ambient namespaces and declaration files
// without export declarations; everything they declare is exported.
func (b *binder) setExportContextFlag(node *ast.Node) {
	if ast.IsInAmbientContext(node) && !hasExportDeclarations(node) {
		b.exportContext[node] = true
	} else {
		delete(b.exportContext, node)
	}
}

func hasExportDeclarations(node *ast.Node) bool {
	body := node
	if node.Kind == ast.KindModuleDeclaration {
		body = node.Body
	}
	if body == nil || (body.Kind != ast.KindSourceFile && body.Kind != ast.KindModuleBlock) {
		return false
	}
	for _, s := range body.Statements {
		if s.Kind == ast.KindExportDeclaration || s.Kind == ast.KindExportAssignment {
			return true
		}
	}
	return false
}

func (b *binder) bindTypeParameter(node *ast.Node) {
	kinds := symbols.KindsOf(symbols.KindTypeParameter)
	excludes := symbols.ExcludesOf(symbols.KindTypeParameter)
	if p := node.Parent(); p != nil && p.Kind == ast.KindInferType {
		if container := inferTypeContainer(p); container != nil {
			b.declareSymbol(b.locals(container), nil, node, kinds, excludes)
			return
		}
		b.bindAnonymousDeclaration(node, kinds, ast.DeclarationNameText(node.Name))
		return
	}
	b.declareSymbolAndAddToSymbolTable(node, kinds, excludes)
}

// inferTypeContainer returns the conditional type whose extends clause
// contains the infer type.
func inferTypeContainer(infer *ast.Node) *ast.Node {
	for n := infer; n != nil; n = n.Parent() {
		p := n.Parent()
		if p != nil && p.Kind == ast.KindConditionalType && len(p.Elements) > 1 && p.Elements[1] == n {
			return p
		}
	}
	return nil
}

func (b *binder) bindParameter(node *ast.Node) {
	if b.inStrictMode && !ast.IsInAmbientContext(node) {
		b.checkStrictModeEvalOrArguments(node, node.Name)
	}
	kinds := symbols.KindsOf(symbols.KindFunctionScopedVariable)
	if ast.IsBindingPattern(node.Name) {
		b.bindAnonymousDeclaration(node, kinds, "__"+strconv.Itoa(parameterIndex(node)))
	} else {
		b.declareSymbolAndAddToSymbolTable(node, kinds, symbols.ParameterExcludes)
	}

	if ast.IsParameterPropertyDeclaration(node) {
		class := node.Parent().Parent()
		if classSymbol := b.bound.SymbolOf(class); classSymbol != nil {
			sym := b.declareSymbol(classSymbol.EnsureMembers(), classSymbol, node,
				symbols.KindsOf(symbols.KindProperty), symbols.ExcludesOf(symbols.KindProperty))
			markOptional(sym, node)
		}
	}
}

func parameterIndex(node *ast.Node) int {
	if p := node.Parent(); p != nil {
		for i, param := range p.Parameters {
			if param == node {
				return i
			}
		}
	}
	return 0
}

func (b *binder) bindVariableDeclarationOrBindingElement(node *ast.Node) {
	if b.inStrictMode {
		b.checkStrictModeEvalOrArguments(node, node.Name)
	}
	if node.Name == nil || ast.IsBindingPattern(node.Name) {
		return
	}
	kinds := symbols.KindsOf(symbols.KindFunctionScopedVariable)
	switch {
	case isBlockOrCatchScoped(node):
		b.bindBlockScopedDeclaration(node, symbols.KindsOf(symbols.KindBlockScopedVariable),
			symbols.ExcludesOf(symbols.KindBlockScopedVariable))
	case rootDeclaration(node).Kind == ast.KindParameter:
		b.declareSymbolAndAddToSymbolTable(node, kinds, symbols.ParameterExcludes)
	default:
		b.declareSymbolAndAddToSymbolTable(node, kinds, symbols.ExcludesOf(symbols.KindFunctionScopedVariable))
	}
}

// rootDeclaration walks from a binding element up to the variable
// declaration or parameter that owns its pattern.
func rootDeclaration(node *ast.Node) *ast.Node {
	for node.Kind == ast.KindBindingElement {
		pattern := node.Parent()
		if pattern == nil || pattern.Parent() == nil {
			return node
		}
		node = pattern.Parent()
	}
	return node
}

// isDeclarationBindingElement reports binding elements that declare
// names, as opposed to patterns on the left of an assignment.
func isDeclarationBindingElement(node *ast.Node) bool {
	switch rootDeclaration(node).Kind {
	case ast.KindVariableDeclaration, ast.KindParameter:
		return true
	}
	return false
}

func isBlockOrCatchScoped(node *ast.Node) bool {
	if ast.GetCombinedNodeFlags(node)&ast.NodeFlagsBlockScoped != 0 || ast.IsBlockOrCatchScoped(node) {
		return true
	}
	root := rootDeclaration(node)
	return root.Kind == ast.KindVariableDeclaration && root.Parent() != nil &&
		root.Parent().Kind == ast.KindCatchClause
}

func (b *binder) bindPropertyWorker(node *ast.Node) {
	kinds := symbols.KindsOf(symbols.KindProperty)
	excludes := symbols.ExcludesOf(symbols.KindProperty)
	if node.HasModifier(ast.ModifierFlagsAccessor) {
		kinds = symbols.KindsOf(symbols.KindGetAccessor, symbols.KindSetAccessor)
		excludes = symbols.ValueKinds
	}
	markOptional(b.bindPropertyOrMethodOrAccessor(node, kinds, excludes), node)
}

func (b *binder) bindPropertyOrMethodOrAccessor(node *ast.Node, kinds, excludes symbols.KindSet) *symbols.Symbol {
	if ast.IsObjectLiteralOrClassExpressionMethodOrAccessor(node) {
		b.setFlowNode(node)
	}
	if hasDynamicName(node) {
		return b.bindAnonymousDeclaration(node, kinds, symbols.InternalNameComputed)
	}
	return b.declareSymbolAndAddToSymbolTable(node, kinds, excludes)
}

func (b *binder) bindFunctionDeclaration(node *ast.Node) {
	b.checkStrictModeFunctionName(node)
	kinds := symbols.KindsOf(symbols.KindFunction)
	excludes := symbols.ExcludesOf(symbols.KindFunction)
	if b.inStrictMode {
		b.checkStrictModeFunctionDeclaration(node)
		b.bindBlockScopedDeclaration(node, kinds, excludes)
		return
	}
	b.declareSymbolAndAddToSymbolTable(node, kinds, excludes)
}

func (b *binder) bindFunctionExpression(node *ast.Node) {
	b.setFlowNode(node)
	b.checkStrictModeFunctionName(node)
	name := symbols.InternalNameFunction
	if node.Name != nil {
		name = symbols.EscapeLeadingUnderscores(node.Name.Text)
	}
	b.bindAnonymousDeclaration(node, symbols.KindsOf(symbols.KindFunction), name)
}

// bindFunctionOrConstructorType gives a function type a signature symbol
// wrapped in an anonymous type literal.
func (b *binder) bindFunctionOrConstructorType(node *ast.Node) {
	name, _ := b.getDeclarationName(node)
	signature := b.newSymbol(name)
	b.addDeclarationToSymbol(signature, node, symbols.KindsOf(symbols.KindSignature))

	typeLiteral := b.newSymbol(symbols.InternalNameType)
	b.addDeclarationToSymbol(typeLiteral, node, symbols.KindsOf(symbols.KindTypeLiteral))
	typeLiteral.EnsureMembers().Set(signature.EscapedName, signature)
}

func (b *binder) bindClassLikeDeclaration(node *ast.Node) {
	kinds := symbols.KindsOf(symbols.KindClass)
	if node.Kind == ast.KindClassDeclaration {
		b.bindBlockScopedDeclaration(node, kinds, symbols.ExcludesOf(symbols.KindClass))
	} else {
		name := symbols.InternalNameClass
		if node.Name != nil {
			name = symbols.EscapeLeadingUnderscores(node.Name.Text)
			b.bound.ClassifiableNames[name] = struct{}{}
		}
		b.bindAnonymousDeclaration(node, kinds, name)
	}

	sym := b.bound.SymbolOf(node)
	if sym == nil {
		return
	}
	exports := sym.EnsureExports()
	if existing := exports.Get(symbols.InternalNamePrototype); existing != nil && len(existing.Declarations) > 0 {
		b.errorOnNode(ast.GetErrorNode(existing.Declarations[0]), diagnostics.DuplicateIdentifier, symbols.InternalNamePrototype)
	}
	prototype := b.newSymbol(symbols.InternalNamePrototype, symbols.KindProperty, symbols.KindPrototype)
	prototype.Parent = sym
	exports.Set(symbols.InternalNamePrototype, prototype)
}

func (b *binder) bindEnumDeclaration(node *ast.Node) {
	if ast.IsEnumConst(node) {
		b.bindBlockScopedDeclaration(node, symbols.KindsOf(symbols.KindConstEnum), symbols.ExcludesOf(symbols.KindConstEnum))
		return
	}
	b.bindBlockScopedDeclaration(node, symbols.KindsOf(symbols.KindRegularEnum), symbols.ExcludesOf(symbols.KindRegularEnum))
}

func (b *binder) bindModuleDeclaration(node *ast.Node) {
	b.setExportContextFlag(node)
	if ast.IsAmbientModule(node) {
		if node.HasModifier(ast.ModifierFlagsExport) {
			b.errorOnFirstToken(node, diagnostics.ExportOnAmbientModule)
		}
		if ast.IsExternalModuleAugmentation(node, b.bound.IsExternalModule()) {
			b.declareModuleSymbol(node)
			return
		}
		b.declareSymbolAndAddToSymbolTable(node, symbols.KindsOf(symbols.KindValueModule),
			symbols.ExcludesOf(symbols.KindValueModule))
		return
	}

	state := b.declareModuleSymbol(node)
	if state == ModuleInstanceStateNonInstantiated {
		return
	}
	sym := b.bound.SymbolOf(node)
	if sym == nil {
		return
	}
	// A namespace stays const-enum-only until any declaration says otherwise.
	constEnumOnly := !sym.HasAny(notConstEnumOnlyKinds) && state == ModuleInstanceStateConstEnumOnly
	if len(sym.Declarations) > 1 {
		constEnumOnly = constEnumOnly && sym.ConstEnumOnlyModule
	}
	sym.ConstEnumOnlyModule = constEnumOnly
}

func (b *binder) declareModuleSymbol(node *ast.Node) ModuleInstanceState {
	state := GetModuleInstanceState(node)
	if state != ModuleInstanceStateNonInstantiated {
		b.declareSymbolAndAddToSymbolTable(node, symbols.KindsOf(symbols.KindValueModule),
			symbols.ExcludesOf(symbols.KindValueModule))
	} else {
		b.declareSymbolAndAddToSymbolTable(node, symbols.KindsOf(symbols.KindNamespaceModule),
			symbols.ExcludesOf(symbols.KindNamespaceModule))
	}
	return state
}

// bindNamespaceExportDeclaration binds "export as namespace X" into the
// file's global exports.
func (b *binder) bindNamespaceExportDeclaration(node *ast.Node) {
	fileSymbol := b.bound.Symbol
	if fileSymbol == nil || node.Parent() != b.file.Root {
		return
	}
	if fileSymbol.GlobalExports == nil {
		fileSymbol.GlobalExports = symbols.NewTable()
	}
	b.declareSymbol(fileSymbol.GlobalExports, fileSymbol, node, symbols.KindsOf(symbols.KindAlias),
		symbols.ExcludesOf(symbols.KindAlias))
}

func (b *binder) bindExportDeclaration(node *ast.Node) {
	containerSym := b.bound.SymbolOf(b.container)
	switch {
	case containerSym == nil || containerSym.Exports == nil:
		b.bindAnonymousDeclaration(node, symbols.KindsOf(symbols.KindExportStar), symbols.InternalNameExportStar)
	case node.Clause == nil:
		b.declareSymbol(containerSym.Exports, containerSym, node, symbols.KindsOf(symbols.KindExportStar), 0)
	case node.Clause.Kind == ast.KindNamespaceExport:
		b.declareSymbol(containerSym.Exports, containerSym, node.Clause, symbols.KindsOf(symbols.KindAlias),
			symbols.ExcludesOf(symbols.KindAlias))
	}
}

func (b *binder) bindExportAssignment(node *ast.Node) {
	containerSym := b.bound.SymbolOf(b.container)
	if containerSym == nil || containerSym.Exports == nil {
		name, _ := b.getDeclarationName(node)
		b.bindAnonymousDeclaration(node, symbols.KindsOf(symbols.KindProperty), name)
		return
	}
	kinds := symbols.KindsOf(symbols.KindProperty)
	if isAliasableExpression(node.Expression) {
		kinds = symbols.KindsOf(symbols.KindAlias)
	}
	b.declareSymbol(containerSym.Exports, containerSym, node, kinds, symbols.AllKinds)
}

// isAliasableExpression reports export assignments that re-export an
// entity rather than a computed value.
func isAliasableExpression(expr *ast.Node) bool {
	return ast.IsEntityNameExpression(expr) || (expr != nil && expr.Kind == ast.KindClassExpression)
}
