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

import "strings"

// Factory builds trees programmatically.
//
// Description:
//
//	Nodes are created without positions. SourceFile lays the finished
//	tree out with distinct, properly nested synthetic offsets so that
//	spans and diagnostics stay distinguishable, then attaches parents.
//
// Thread Safety: Stateless; safe for concurrent use.
type Factory struct{}

// NewFactory returns a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) node(kind Kind) *Node {
	return &Node{Kind: kind, Pos: -1, End: -1}
}

// WithModifiers adds modifier flags to n and returns it.
func (n *Node) WithModifiers(m ModifierFlags) *Node {
	n.Modifiers |= m
	return n
}

// WithFlags adds node flags to n and returns it.
func (n *Node) WithFlags(flags NodeFlags) *Node {
	n.Flags |= flags
	return n
}

// IsExportEquals reports "export = x" (as opposed to "export default x").
func IsExportEquals(n *Node) bool {
	return n != nil && n.Kind == KindExportAssignment && n.Operator == "="
}

// SourceFile assembles statements into a laid-out SourceFile.
func (f *Factory) SourceFile(fileName string, statements ...*Node) *SourceFile {
	root := f.node(KindSourceFile)
	root.Statements = statements
	layout(root, new(int))
	return NewSourceFile(fileName, "", root)
}

func layout(n *Node, next *int) {
	n.Pos = *next
	*next++
	ForEachChild(n, func(child *Node) bool {
		layout(child, next)
		return false
	})
	n.End = *next
	*next++
}

func (f *Factory) Identifier(name string) *Node {
	n := f.node(KindIdentifier)
	n.Text = name
	return n
}

func (f *Factory) PrivateIdentifier(name string) *Node {
	n := f.node(KindPrivateIdentifier)
	n.Text = name
	return n
}

func (f *Factory) StringLiteral(value string) *Node {
	n := f.node(KindStringLiteral)
	n.Text = value
	return n
}

func (f *Factory) NumericLiteral(value string) *Node {
	n := f.node(KindNumericLiteral)
	n.Text = value
	return n
}

func (f *Factory) True() *Node  { return f.node(KindTrueKeyword) }
func (f *Factory) False() *Node { return f.node(KindFalseKeyword) }
func (f *Factory) Null() *Node  { return f.node(KindNullKeyword) }
func (f *Factory) This() *Node  { return f.node(KindThisKeyword) }

// ComputedName wraps an expression as [expr].
func (f *Factory) ComputedName(expr *Node) *Node {
	n := f.node(KindComputedPropertyName)
	n.Expression = expr
	return n
}

// Unknown is a placeholder for syntax the tree does not model.
func (f *Factory) Unknown(children ...*Node) *Node {
	n := f.node(KindUnknown)
	n.Elements = children
	return n
}

// Statements.

func (f *Factory) Block(statements ...*Node) *Node {
	n := f.node(KindBlock)
	n.Statements = statements
	return n
}

func (f *Factory) Empty() *Node    { return f.node(KindEmptyStatement) }
func (f *Factory) Debugger() *Node { return f.node(KindDebuggerStatement) }

// DeclarationList builds a var/let/const list; flags carries Let or Const.
func (f *Factory) DeclarationList(flags NodeFlags, declarations ...*Node) *Node {
	n := f.node(KindVariableDeclarationList)
	n.Flags = flags
	n.Declarations = declarations
	return n
}

// VariableStatement builds "var|let|const a = ..., b".
func (f *Factory) VariableStatement(flags NodeFlags, declarations ...*Node) *Node {
	n := f.node(KindVariableStatement)
	n.DeclarationList = f.DeclarationList(flags, declarations...)
	return n
}

// VariableDeclaration declares an identifier with an optional initializer.
func (f *Factory) VariableDeclaration(name string, initializer *Node) *Node {
	return f.VariableDeclarationOf(f.Identifier(name), initializer)
}

// VariableDeclarationOf declares a name node (identifier or binding pattern).
func (f *Factory) VariableDeclarationOf(name, initializer *Node) *Node {
	n := f.node(KindVariableDeclaration)
	n.Name = name
	n.Initializer = initializer
	return n
}

func (f *Factory) ObjectBindingPattern(elements ...*Node) *Node {
	n := f.node(KindObjectBindingPattern)
	n.Elements = elements
	return n
}

func (f *Factory) ArrayBindingPattern(elements ...*Node) *Node {
	n := f.node(KindArrayBindingPattern)
	n.Elements = elements
	return n
}

func (f *Factory) BindingElement(name string, initializer *Node) *Node {
	n := f.node(KindBindingElement)
	n.Name = f.Identifier(name)
	n.Initializer = initializer
	return n
}

func (f *Factory) ExpressionStatement(expr *Node) *Node {
	n := f.node(KindExpressionStatement)
	n.Expression = expr
	return n
}

func (f *Factory) If(cond, then, els *Node) *Node {
	n := f.node(KindIfStatement)
	n.Expression = cond
	n.Then = then
	n.Else = els
	return n
}

func (f *Factory) While(cond, body *Node) *Node {
	n := f.node(KindWhileStatement)
	n.Expression = cond
	n.Statement = body
	return n
}

func (f *Factory) Do(body, cond *Node) *Node {
	n := f.node(KindDoStatement)
	n.Statement = body
	n.Expression = cond
	return n
}

// For builds for (init; cond; incr) body. Any header part may be nil.
func (f *Factory) For(init, cond, incr, body *Node) *Node {
	n := f.node(KindForStatement)
	n.Initializer = init
	n.Condition = cond
	n.Incrementor = incr
	n.Statement = body
	return n
}

func (f *Factory) ForIn(init, expr, body *Node) *Node {
	n := f.node(KindForInStatement)
	n.Initializer = init
	n.Expression = expr
	n.Statement = body
	return n
}

func (f *Factory) ForOf(init, expr, body *Node) *Node {
	n := f.node(KindForOfStatement)
	n.Initializer = init
	n.Expression = expr
	n.Statement = body
	return n
}

func (f *Factory) jump(kind Kind, label string) *Node {
	n := f.node(kind)
	if label != "" {
		n.Label = f.Identifier(label)
	}
	return n
}

// Break builds "break" or "break label".
func (f *Factory) Break(label string) *Node { return f.jump(KindBreakStatement, label) }

// Continue builds "continue" or "continue label".
func (f *Factory) Continue(label string) *Node { return f.jump(KindContinueStatement, label) }

func (f *Factory) Return(expr *Node) *Node {
	n := f.node(KindReturnStatement)
	n.Expression = expr
	return n
}

func (f *Factory) Throw(expr *Node) *Node {
	n := f.node(KindThrowStatement)
	n.Expression = expr
	return n
}

// Try builds try/catch/finally; catchClause or finallyBlock may be nil.
func (f *Factory) Try(tryBlock, catchClause, finallyBlock *Node) *Node {
	n := f.node(KindTryStatement)
	n.TryBlock = tryBlock
	n.CatchClause = catchClause
	n.FinallyBlock = finallyBlock
	return n
}

// Catch builds "catch (name) block"; an empty name omits the binding.
func (f *Factory) Catch(name string, block *Node) *Node {
	n := f.node(KindCatchClause)
	if name != "" {
		n.VariableDeclaration = f.VariableDeclaration(name, nil)
	}
	n.Body = block
	return n
}

func (f *Factory) Switch(expr *Node, clauses ...*Node) *Node {
	n := f.node(KindSwitchStatement)
	n.Expression = expr
	cb := f.node(KindCaseBlock)
	cb.Clauses = clauses
	n.Body = cb
	return n
}

func (f *Factory) Case(expr *Node, statements ...*Node) *Node {
	n := f.node(KindCaseClause)
	n.Expression = expr
	n.Statements = statements
	return n
}

func (f *Factory) Default(statements ...*Node) *Node {
	n := f.node(KindDefaultClause)
	n.Statements = statements
	return n
}

func (f *Factory) Labeled(label string, stmt *Node) *Node {
	n := f.node(KindLabeledStatement)
	n.Label = f.Identifier(label)
	n.Statement = stmt
	return n
}

func (f *Factory) With(expr, stmt *Node) *Node {
	n := f.node(KindWithStatement)
	n.Expression = expr
	n.Statement = stmt
	return n
}

// Functions and classes.

func (f *Factory) Parameter(name string, initializer *Node) *Node {
	n := f.node(KindParameter)
	n.Name = f.Identifier(name)
	n.Initializer = initializer
	return n
}

func (f *Factory) functionLike(kind Kind, name string, params []*Node, body *Node) *Node {
	n := f.node(kind)
	if name != "" {
		n.Name = f.Identifier(name)
	}
	n.Parameters = params
	n.Body = body
	return n
}

// Function builds a function declaration; a nil body is an overload.
func (f *Factory) Function(name string, params []*Node, body *Node) *Node {
	return f.functionLike(KindFunctionDeclaration, name, params, body)
}

func (f *Factory) FunctionExpression(name string, params []*Node, body *Node) *Node {
	return f.functionLike(KindFunctionExpression, name, params, body)
}

// Arrow builds an arrow function; body is a block or an expression.
func (f *Factory) Arrow(params []*Node, body *Node) *Node {
	return f.functionLike(KindArrowFunction, "", params, body)
}

func (f *Factory) Class(name string, members ...*Node) *Node {
	n := f.node(KindClassDeclaration)
	if name != "" {
		n.Name = f.Identifier(name)
	}
	n.Members = members
	return n
}

func (f *Factory) ClassExpression(name string, members ...*Node) *Node {
	n := f.Class(name, members...)
	n.Kind = KindClassExpression
	return n
}

func (f *Factory) Property(name string, initializer *Node) *Node {
	n := f.node(KindPropertyDeclaration)
	n.Name = f.Identifier(name)
	n.Initializer = initializer
	return n
}

func (f *Factory) Method(name string, params []*Node, body *Node) *Node {
	return f.functionLike(KindMethodDeclaration, name, params, body)
}

func (f *Factory) Constructor(params []*Node, body *Node) *Node {
	return f.functionLike(KindConstructor, "", params, body)
}

func (f *Factory) GetAccessor(name string, body *Node) *Node {
	return f.functionLike(KindGetAccessor, name, nil, body)
}

func (f *Factory) SetAccessor(name string, param, body *Node) *Node {
	return f.functionLike(KindSetAccessor, name, []*Node{param}, body)
}

func (f *Factory) StaticBlock(body *Node) *Node {
	n := f.node(KindClassStaticBlockDeclaration)
	n.Body = body
	return n
}

// Types.

func (f *Factory) Interface(name string, members ...*Node) *Node {
	n := f.node(KindInterfaceDeclaration)
	n.Name = f.Identifier(name)
	n.Members = members
	return n
}

func (f *Factory) PropertySignature(name string, typ *Node) *Node {
	n := f.node(KindPropertySignature)
	n.Name = f.Identifier(name)
	n.Type = typ
	return n
}

func (f *Factory) MethodSignature(name string, params ...*Node) *Node {
	return f.functionLike(KindMethodSignature, name, params, nil)
}

func (f *Factory) CallSignature(params ...*Node) *Node {
	return f.functionLike(KindCallSignature, "", params, nil)
}

func (f *Factory) TypeAlias(name string, typ *Node) *Node {
	n := f.node(KindTypeAliasDeclaration)
	n.Name = f.Identifier(name)
	n.Type = typ
	return n
}

func (f *Factory) TypeParameter(name string) *Node {
	n := f.node(KindTypeParameter)
	n.Name = f.Identifier(name)
	return n
}

func (f *Factory) TypeReference(name string) *Node {
	n := f.node(KindTypeReference)
	n.Name = f.Identifier(name)
	return n
}

func (f *Factory) KeywordType(keyword string) *Node {
	n := f.node(KindKeywordType)
	n.Text = keyword
	return n
}

func (f *Factory) TypeLiteral(members ...*Node) *Node {
	n := f.node(KindTypeLiteral)
	n.Members = members
	return n
}

// Enums and modules.

func (f *Factory) Enum(name string, members ...*Node) *Node {
	n := f.node(KindEnumDeclaration)
	n.Name = f.Identifier(name)
	n.Members = members
	return n
}

func (f *Factory) EnumMember(name string, initializer *Node) *Node {
	n := f.node(KindEnumMember)
	n.Name = f.Identifier(name)
	n.Initializer = initializer
	return n
}

// Namespace builds "namespace name { statements }".
func (f *Factory) Namespace(name string, statements ...*Node) *Node {
	n := f.node(KindModuleDeclaration)
	n.Flags |= NodeFlagsNamespace
	n.Name = f.Identifier(name)
	block := f.node(KindModuleBlock)
	block.Statements = statements
	n.Body = block
	return n
}

// AmbientModule builds "declare module 'name' { statements }".
func (f *Factory) AmbientModule(name string, statements ...*Node) *Node {
	n := f.node(KindModuleDeclaration)
	n.Modifiers |= ModifierFlagsAmbient
	n.Name = f.StringLiteral(name)
	block := f.node(KindModuleBlock)
	block.Statements = statements
	n.Body = block
	return n
}

// Import builds import d, { a, b as c } from "spec". Named entries use
// "a" or "a as c".
func (f *Factory) Import(defaultName string, named []string, specifier string) *Node {
	n := f.node(KindImportDeclaration)
	clause := f.node(KindImportClause)
	if defaultName != "" {
		clause.Name = f.Identifier(defaultName)
	}
	if len(named) > 0 {
		bindings := f.node(KindNamedImports)
		for _, entry := range named {
			bindings.Elements = append(bindings.Elements, f.specifier(KindImportSpecifier, entry))
		}
		clause.Clause = bindings
	}
	if defaultName != "" || len(named) > 0 {
		n.Clause = clause
	}
	n.ModuleSpecifier = f.StringLiteral(specifier)
	return n
}

// ImportNamespace builds import * as name from "spec".
func (f *Factory) ImportNamespace(name, specifier string) *Node {
	n := f.node(KindImportDeclaration)
	clause := f.node(KindImportClause)
	ns := f.node(KindNamespaceImport)
	ns.Name = f.Identifier(name)
	clause.Clause = ns
	n.Clause = clause
	n.ModuleSpecifier = f.StringLiteral(specifier)
	return n
}

// ImportEquals builds import name = require("spec").
func (f *Factory) ImportEquals(name, specifier string) *Node {
	n := f.node(KindImportEqualsDeclaration)
	n.Name = f.Identifier(name)
	ref := f.node(KindExternalModuleReference)
	ref.Expression = f.StringLiteral(specifier)
	n.Expression = ref
	return n
}

func (f *Factory) specifier(kind Kind, entry string) *Node {
	n := f.node(kind)
	if i := strings.Index(entry, " as "); i >= 0 {
		n.PropertyName = f.Identifier(entry[:i])
		n.Name = f.Identifier(entry[i+4:])
	} else {
		n.Name = f.Identifier(entry)
	}
	return n
}

// ExportNamed builds export { a, b as c } [from "spec"].
func (f *Factory) ExportNamed(named []string, specifier string) *Node {
	n := f.node(KindExportDeclaration)
	exports := f.node(KindNamedExports)
	for _, entry := range named {
		exports.Elements = append(exports.Elements, f.specifier(KindExportSpecifier, entry))
	}
	n.Clause = exports
	if specifier != "" {
		n.ModuleSpecifier = f.StringLiteral(specifier)
	}
	return n
}

// ExportStar builds export * from "spec".
func (f *Factory) ExportStar(specifier string) *Node {
	n := f.node(KindExportDeclaration)
	n.ModuleSpecifier = f.StringLiteral(specifier)
	return n
}

// ExportDefault builds export default expr.
func (f *Factory) ExportDefault(expr *Node) *Node {
	n := f.node(KindExportAssignment)
	n.Expression = expr
	return n
}

// ExportEquals builds export = expr.
func (f *Factory) ExportEquals(expr *Node) *Node {
	n := f.ExportDefault(expr)
	n.Operator = "="
	return n
}

// Expressions.

func (f *Factory) Binary(left *Node, op string, right *Node) *Node {
	n := f.node(KindBinaryExpression)
	n.Left = left
	n.Operator = op
	n.Right = right
	return n
}

// Assign builds left = right.
func (f *Factory) Assign(left, right *Node) *Node {
	return f.Binary(left, "=", right)
}

func (f *Factory) Prefix(op string, operand *Node) *Node {
	n := f.node(KindPrefixUnaryExpression)
	n.Operator = op
	n.Expression = operand
	return n
}

func (f *Factory) Postfix(operand *Node, op string) *Node {
	n := f.node(KindPostfixUnaryExpression)
	n.Operator = op
	n.Expression = operand
	return n
}

func (f *Factory) Paren(expr *Node) *Node {
	n := f.node(KindParenthesizedExpression)
	n.Expression = expr
	return n
}

func (f *Factory) Call(callee *Node, args ...*Node) *Node {
	n := f.node(KindCallExpression)
	n.Expression = callee
	n.Arguments = args
	return n
}

func (f *Factory) New(callee *Node, args ...*Node) *Node {
	n := f.Call(callee, args...)
	n.Kind = KindNewExpression
	return n
}

// PropertyAccess builds expr.name.
func (f *Factory) PropertyAccess(expr *Node, name string) *Node {
	n := f.node(KindPropertyAccessExpression)
	n.Expression = expr
	n.Name = f.Identifier(name)
	return n
}

// ElementAccess builds expr[index].
func (f *Factory) ElementAccess(expr, index *Node) *Node {
	n := f.node(KindElementAccessExpression)
	n.Expression = expr
	n.Argument = index
	return n
}

// Conditional builds cond ? whenTrue : whenFalse.
func (f *Factory) Conditional(cond, whenTrue, whenFalse *Node) *Node {
	n := f.node(KindConditionalExpression)
	n.Condition = cond
	n.Then = whenTrue
	n.Else = whenFalse
	return n
}

func (f *Factory) ObjectLiteral(properties ...*Node) *Node {
	n := f.node(KindObjectLiteralExpression)
	n.Members = properties
	return n
}

func (f *Factory) PropertyAssignment(name string, initializer *Node) *Node {
	n := f.node(KindPropertyAssignment)
	n.Name = f.Identifier(name)
	n.Initializer = initializer
	return n
}

func (f *Factory) ArrayLiteral(elements ...*Node) *Node {
	n := f.node(KindArrayLiteralExpression)
	n.Elements = elements
	return n
}

func (f *Factory) unary(kind Kind, expr *Node) *Node {
	n := f.node(kind)
	n.Expression = expr
	return n
}

func (f *Factory) TypeOf(expr *Node) *Node { return f.unary(KindTypeOfExpression, expr) }
func (f *Factory) Delete(expr *Node) *Node { return f.unary(KindDeleteExpression, expr) }
func (f *Factory) Void(expr *Node) *Node   { return f.unary(KindVoidExpression, expr) }
func (f *Factory) Await(expr *Node) *Node  { return f.unary(KindAwaitExpression, expr) }
func (f *Factory) Spread(expr *Node) *Node { return f.unary(KindSpreadElement, expr) }
