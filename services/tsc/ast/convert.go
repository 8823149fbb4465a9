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

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
)

// converter turns a tree-sitter tree into Nodes.
type converter struct {
	fileName string
	src      []byte
	diags    []*diagnostics.Diagnostic
}

func newConverter(fileName string, src []byte) *converter {
	return &converter{fileName: fileName, src: src}
}

func (c *converter) node(kind Kind, n *sitter.Node) *Node {
	return &Node{Kind: kind, Pos: int(n.StartByte()), End: int(n.EndByte())}
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

// named returns the named children of n, without comments.
func (c *converter) named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		ch := n.NamedChild(i)
		if ch == nil || ch.Type() == "comment" {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func (c *converter) firstNamed(n *sitter.Node) *sitter.Node {
	if kids := c.named(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// hasToken reports whether n has a direct anonymous child of type tok.
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch != nil && !ch.IsNamed() && ch.Type() == tok {
			return true
		}
	}
	return false
}

func field(n *sitter.Node, name string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(name)
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (c *converter) list(nodes []*sitter.Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if conv := c.convert(n); conv != nil {
			out = append(out, conv)
		}
	}
	return out
}

// modifiers collects modifier keywords and "?"/"*" markers written as
// direct children of n.
func (c *converter) modifiers(n *sitter.Node) (ModifierFlags, NodeFlags) {
	var mods ModifierFlags
	var flags NodeFlags
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch == nil {
			continue
		}
		switch ch.Type() {
		case "export":
			mods |= ModifierFlagsExport
		case "default":
			mods |= ModifierFlagsDefault
		case "declare":
			mods |= ModifierFlagsAmbient
		case "abstract":
			mods |= ModifierFlagsAbstract
		case "static":
			mods |= ModifierFlagsStatic
		case "readonly":
			mods |= ModifierFlagsReadonly
		case "async":
			mods |= ModifierFlagsAsync
		case "override", "override_modifier":
			mods |= ModifierFlagsOverride
		case "accessor":
			mods |= ModifierFlagsAccessor
		case "accessibility_modifier":
			switch c.text(ch) {
			case "public":
				mods |= ModifierFlagsPublic
			case "private":
				mods |= ModifierFlagsPrivate
			case "protected":
				mods |= ModifierFlagsProtected
			}
		case "?":
			flags |= NodeFlagsOptional
		case "*":
			flags |= NodeFlagsGenerator
		}
	}
	return mods, flags
}

func (c *converter) sourceFile(root *sitter.Node) *Node {
	n := c.node(KindSourceFile, root)
	n.Pos = 0
	n.End = len(c.src)
	n.Statements = c.list(c.named(root))
	return n
}

func (c *converter) block(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}
	if n.Type() != "statement_block" {
		return c.convert(n)
	}
	b := c.node(KindBlock, n)
	b.Statements = c.list(c.named(n))
	return b
}

// unparen converts the expression inside a statement header's
// parentheses, as in "if (x)".
func (c *converter) unparen(n *sitter.Node) *Node {
	if n != nil && n.Type() == "parenthesized_expression" {
		if inner := c.firstNamed(n); inner != nil {
			return c.convert(inner)
		}
	}
	return c.convert(n)
}

func (c *converter) identifier(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}
	id := c.node(KindIdentifier, n)
	id.Text = c.text(n)
	return id
}

// convert dispatches on the grammar node type. It returns nil for nodes
// that carry no syntax (comments, shebangs).
func (c *converter) convert(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "comment", "hash_bang_line", ";":
		return nil

	// Names and literals.
	case "identifier", "property_identifier", "shorthand_property_identifier", "type_identifier",
		"statement_identifier", "shorthand_property_identifier_pattern", "undefined":
		return c.identifier(n)
	case "private_property_identifier":
		id := c.node(KindPrivateIdentifier, n)
		id.Text = c.text(n)
		return id
	case "nested_identifier", "nested_type_identifier":
		return c.qualifiedName(n)
	case "this":
		return c.node(KindThisKeyword, n)
	case "super":
		return c.node(KindSuperKeyword, n)
	case "true":
		return c.node(KindTrueKeyword, n)
	case "false":
		return c.node(KindFalseKeyword, n)
	case "null":
		return c.node(KindNullKeyword, n)
	case "number":
		lit := c.node(KindNumericLiteral, n)
		lit.Text = c.text(n)
		if strings.HasSuffix(lit.Text, "n") {
			lit.Kind = KindBigIntLiteral
		}
		return lit
	case "string":
		lit := c.node(KindStringLiteral, n)
		lit.Text = unquote(c.text(n))
		return lit
	case "template_string":
		return c.templateString(n)
	case "regex":
		lit := c.node(KindRegularExpressionLiteral, n)
		lit.Text = c.text(n)
		return lit
	case "computed_property_name":
		cn := c.node(KindComputedPropertyName, n)
		cn.Expression = c.convert(c.firstNamed(n))
		return cn

	// Statements.
	case "expression_statement":
		// The grammar accepts "namespace X {}" as an expression.
		if kids := c.named(n); len(kids) == 1 && kids[0].Type() == "internal_module" {
			return c.convert(kids[0])
		}
		s := c.node(KindExpressionStatement, n)
		s.Expression = c.expressionList(c.named(n), n)
		return s
	case "lexical_declaration", "variable_declaration":
		s := c.node(KindVariableStatement, n)
		s.DeclarationList = c.declarationList(n)
		return s
	case "statement_block":
		return c.block(n)
	case "empty_statement":
		return c.node(KindEmptyStatement, n)
	case "debugger_statement":
		return c.node(KindDebuggerStatement, n)
	case "if_statement":
		s := c.node(KindIfStatement, n)
		s.Expression = c.unparen(field(n, "condition"))
		s.Then = c.convert(field(n, "consequence"))
		if alt := field(n, "alternative"); alt != nil {
			if alt.Type() == "else_clause" {
				s.Else = c.convert(c.firstNamed(alt))
			} else {
				s.Else = c.convert(alt)
			}
		}
		return s
	case "while_statement":
		s := c.node(KindWhileStatement, n)
		s.Expression = c.unparen(field(n, "condition"))
		s.Statement = c.convert(field(n, "body"))
		return s
	case "do_statement":
		s := c.node(KindDoStatement, n)
		s.Statement = c.convert(field(n, "body"))
		s.Expression = c.unparen(field(n, "condition"))
		return s
	case "for_statement":
		return c.forStatement(n)
	case "for_in_statement":
		return c.forInStatement(n)
	case "break_statement", "continue_statement":
		kind := KindBreakStatement
		if n.Type() == "continue_statement" {
			kind = KindContinueStatement
		}
		s := c.node(kind, n)
		label := field(n, "label")
		if label == nil {
			label = c.firstNamed(n)
		}
		s.Label = c.identifier(label)
		return s
	case "return_statement", "throw_statement":
		kind := KindReturnStatement
		if n.Type() == "throw_statement" {
			kind = KindThrowStatement
		}
		s := c.node(kind, n)
		s.Expression = c.expressionList(c.named(n), n)
		return s
	case "labeled_statement":
		s := c.node(KindLabeledStatement, n)
		s.Label = c.identifier(field(n, "label"))
		s.Statement = c.convert(field(n, "body"))
		return s
	case "with_statement":
		s := c.node(KindWithStatement, n)
		s.Expression = c.unparen(field(n, "object"))
		s.Statement = c.convert(field(n, "body"))
		return s
	case "switch_statement":
		return c.switchStatement(n)
	case "try_statement":
		return c.tryStatement(n)

	// Declarations.
	case "function_declaration", "generator_function_declaration", "function_signature":
		return c.function(KindFunctionDeclaration, n)
	case "function_expression", "function", "generator_function":
		return c.function(KindFunctionExpression, n)
	case "arrow_function":
		return c.arrowFunction(n)
	case "class_declaration", "abstract_class_declaration":
		return c.class(KindClassDeclaration, n)
	case "class":
		return c.class(KindClassExpression, n)
	case "interface_declaration":
		return c.interfaceDeclaration(n)
	case "type_alias_declaration":
		d := c.node(KindTypeAliasDeclaration, n)
		d.Name = c.identifier(field(n, "name"))
		d.TypeParameters = c.typeParameters(field(n, "type_parameters"))
		d.Type = c.convert(field(n, "value"))
		return d
	case "enum_declaration":
		return c.enumDeclaration(n)
	case "internal_module", "module":
		return c.moduleDeclaration(n)
	case "ambient_declaration":
		return c.ambientDeclaration(n)
	case "import_statement":
		return c.importStatement(n)
	case "import_alias":
		d := c.node(KindImportEqualsDeclaration, n)
		kids := c.named(n)
		if len(kids) > 0 {
			d.Name = c.identifier(kids[0])
		}
		if len(kids) > 1 {
			d.Expression = c.convert(kids[1])
		}
		return d
	case "export_statement":
		return c.exportStatement(n)

	// Expressions.
	case "parenthesized_expression":
		e := c.node(KindParenthesizedExpression, n)
		e.Expression = c.expressionList(c.named(n), n)
		return e
	case "binary_expression":
		e := c.node(KindBinaryExpression, n)
		e.Left = c.convert(field(n, "left"))
		if op := field(n, "operator"); op != nil {
			e.Operator = c.text(op)
		}
		e.Right = c.convert(field(n, "right"))
		return e
	case "assignment_expression":
		e := c.node(KindBinaryExpression, n)
		e.Left = c.convert(field(n, "left"))
		e.Operator = "="
		e.Right = c.convert(field(n, "right"))
		return e
	case "augmented_assignment_expression":
		e := c.node(KindBinaryExpression, n)
		e.Left = c.convert(field(n, "left"))
		if op := field(n, "operator"); op != nil {
			e.Operator = c.text(op)
		}
		e.Right = c.convert(field(n, "right"))
		return e
	case "sequence_expression":
		return c.expressionList(c.named(n), n)
	case "unary_expression":
		return c.unaryExpression(n)
	case "update_expression":
		kind := KindPostfixUnaryExpression
		if first := n.Child(0); first != nil && !first.IsNamed() {
			kind = KindPrefixUnaryExpression
		}
		e := c.node(kind, n)
		if op := field(n, "operator"); op != nil {
			e.Operator = c.text(op)
		}
		e.Expression = c.convert(field(n, "argument"))
		return e
	case "ternary_expression":
		e := c.node(KindConditionalExpression, n)
		e.Condition = c.convert(field(n, "condition"))
		e.Then = c.convert(field(n, "consequence"))
		e.Else = c.convert(field(n, "alternative"))
		return e
	case "call_expression":
		return c.callExpression(n)
	case "new_expression":
		e := c.node(KindNewExpression, n)
		e.Expression = c.convert(field(n, "constructor"))
		e.TypeArguments = c.list(c.named(field(n, "type_arguments")))
		e.Arguments = c.list(c.named(field(n, "arguments")))
		return e
	case "member_expression":
		e := c.node(KindPropertyAccessExpression, n)
		e.Expression = c.convert(field(n, "object"))
		e.Name = c.convert(field(n, "property"))
		if field(n, "optional_chain") != nil || hasToken(n, "?.") {
			e.Flags |= NodeFlagsOptionalChain
		}
		return e
	case "subscript_expression":
		e := c.node(KindElementAccessExpression, n)
		e.Expression = c.convert(field(n, "object"))
		e.Argument = c.convert(field(n, "index"))
		return e
	case "meta_property", "import_meta":
		e := c.node(KindMetaProperty, n)
		e.Text = strings.Join(strings.Fields(c.text(n)), "")
		return e
	case "object":
		e := c.node(KindObjectLiteralExpression, n)
		for _, ch := range c.named(n) {
			if m := c.objectMember(ch); m != nil {
				e.Members = append(e.Members, m)
			}
		}
		return e
	case "array":
		e := c.node(KindArrayLiteralExpression, n)
		e.Elements = c.list(c.named(n))
		return e
	case "await_expression":
		return c.unary(KindAwaitExpression, n)
	case "yield_expression":
		return c.unary(KindYieldExpression, n)
	case "spread_element":
		return c.unary(KindSpreadElement, n)
	case "non_null_expression":
		return c.unary(KindNonNullExpression, n)
	case "as_expression", "satisfies_expression":
		kind := KindAsExpression
		if n.Type() == "satisfies_expression" {
			kind = KindSatisfiesExpression
		}
		e := c.node(kind, n)
		kids := c.named(n)
		if len(kids) > 0 {
			e.Expression = c.convert(kids[0])
		}
		if len(kids) > 1 {
			e.Type = c.convert(kids[1])
		}
		return e
	case "type_assertion":
		e := c.node(KindTypeAssertionExpression, n)
		kids := c.named(n)
		if len(kids) > 0 {
			e.Type = c.convert(c.firstNamed(kids[0]))
		}
		if len(kids) > 1 {
			e.Expression = c.convert(kids[1])
		}
		return e
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		e := c.node(KindJsxElement, n)
		e.Elements = c.list(c.named(n))
		return e
	case "object_pattern":
		return c.objectBindingPattern(n)
	case "array_pattern":
		return c.arrayBindingPattern(n)
	case "assignment_pattern", "object_assignment_pattern":
		el := c.node(KindBindingElement, n)
		el.Name = c.convert(field(n, "left"))
		el.Initializer = c.convert(field(n, "right"))
		return el
	case "rest_pattern":
		el := c.node(KindBindingElement, n)
		el.Operator = "..."
		el.Name = c.convert(c.firstNamed(n))
		return el

	// Types.
	case "type_annotation", "type_arguments", "asserts_annotation", "omitting_type_annotation",
		"opting_type_annotation":
		if kids := c.named(n); len(kids) == 1 {
			return c.convert(kids[0])
		}
		return c.unknown(n)
	case "predefined_type":
		t := c.node(KindKeywordType, n)
		t.Text = c.text(n)
		return t
	case "generic_type":
		t := c.node(KindTypeReference, n)
		t.Name = c.convert(field(n, "name"))
		t.TypeArguments = c.list(c.named(field(n, "type_arguments")))
		return t
	case "object_type":
		t := c.node(KindTypeLiteral, n)
		t.Members = c.typeMembers(n)
		return t
	case "function_type", "constructor_type":
		kind := KindFunctionType
		if n.Type() == "constructor_type" {
			kind = KindConstructorType
		}
		t := c.node(kind, n)
		t.TypeParameters = c.typeParameters(field(n, "type_parameters"))
		t.Parameters = c.parameters(field(n, "parameters"))
		t.Type = c.convert(field(n, "return_type"))
		return t
	case "union_type", "intersection_type":
		kind := KindUnionType
		if n.Type() == "intersection_type" {
			kind = KindIntersectionType
		}
		t := c.node(kind, n)
		t.Types = c.list(c.named(n))
		return t
	case "array_type":
		t := c.node(KindArrayType, n)
		t.Type = c.convert(c.firstNamed(n))
		return t
	case "tuple_type":
		t := c.node(KindTupleType, n)
		t.Elements = c.list(c.named(n))
		return t
	case "literal_type":
		t := c.node(KindLiteralType, n)
		t.Expression = c.convert(c.firstNamed(n))
		return t
	case "parenthesized_type":
		t := c.node(KindParenthesizedType, n)
		t.Type = c.convert(c.firstNamed(n))
		return t
	case "type_query":
		t := c.node(KindTypeQuery, n)
		t.Expression = c.convert(c.firstNamed(n))
		return t
	case "index_type_query", "readonly_type":
		t := c.node(KindTypeOperator, n)
		t.Operator = "keyof"
		if n.Type() == "readonly_type" {
			t.Operator = "readonly"
		}
		t.Type = c.convert(c.firstNamed(n))
		return t
	case "lookup_type":
		t := c.node(KindIndexedAccessType, n)
		t.Elements = c.list(c.named(n))
		return t
	case "conditional_type":
		t := c.node(KindConditionalType, n)
		t.Elements = c.list(c.named(n))
		return t
	case "infer_type":
		t := c.node(KindInferType, n)
		tp := c.node(KindTypeParameter, n)
		kids := c.named(n)
		if len(kids) > 0 {
			tp.Name = c.identifier(kids[0])
		}
		if len(kids) > 1 {
			tp.Type = c.convert(kids[1])
		}
		t.TypeParameters = []*Node{tp}
		return t
	case "template_literal_type":
		t := c.node(KindTemplateLiteralType, n)
		t.Elements = c.list(c.named(n))
		return t
	case "type_predicate", "type_predicate_annotation":
		if n.Type() == "type_predicate_annotation" {
			return c.convert(c.firstNamed(n))
		}
		t := c.node(KindTypePredicate, n)
		t.Name = c.convert(field(n, "name"))
		t.Type = c.convert(field(n, "type"))
		return t
	case "this_type":
		return c.node(KindThisType, n)
	case "optional_type", "rest_type":
		kind := KindOptionalType
		if n.Type() == "rest_type" {
			kind = KindRestType
		}
		t := c.node(kind, n)
		t.Type = c.convert(c.firstNamed(n))
		return t

	case "ERROR":
		u := c.unknown(n)
		u.Flags |= NodeFlagsThisNodeHasError
		return u
	}
	return c.unknown(n)
}

// unknown keeps unrecognized syntax as a KindUnknown node over its
// converted children.
func (c *converter) unknown(n *sitter.Node) *Node {
	u := c.node(KindUnknown, n)
	u.Text = n.Type()
	u.Elements = c.list(c.named(n))
	return u
}

func (c *converter) unary(kind Kind, n *sitter.Node) *Node {
	e := c.node(kind, n)
	e.Expression = c.convert(c.firstNamed(n))
	return e
}

func (c *converter) unaryExpression(n *sitter.Node) *Node {
	op := ""
	if o := field(n, "operator"); o != nil {
		op = c.text(o)
	}
	var kind Kind
	switch op {
	case "typeof":
		kind = KindTypeOfExpression
	case "void":
		kind = KindVoidExpression
	case "delete":
		kind = KindDeleteExpression
	default:
		kind = KindPrefixUnaryExpression
	}
	e := c.node(kind, n)
	if kind == KindPrefixUnaryExpression {
		e.Operator = op
	}
	arg := field(n, "argument")
	if arg == nil {
		arg = c.firstNamed(n)
	}
	e.Expression = c.convert(arg)
	return e
}

// expressionList folds comma-separated expressions into left-associated
// "," binary expressions.
func (c *converter) expressionList(kids []*sitter.Node, parent *sitter.Node) *Node {
	var result *Node
	for _, k := range kids {
		e := c.convert(k)
		if e == nil {
			continue
		}
		if result == nil {
			result = e
			continue
		}
		comma := &Node{Kind: KindBinaryExpression, Pos: result.Pos, End: e.End, Operator: ",", Left: result, Right: e}
		result = comma
	}
	return result
}

func (c *converter) qualifiedName(n *sitter.Node) *Node {
	parts := strings.Split(c.text(n), ".")
	pos := int(n.StartByte())
	var result *Node
	for _, part := range parts {
		part = strings.TrimSpace(part)
		id := &Node{Kind: KindIdentifier, Pos: pos, End: pos + len(part), Text: part}
		pos += len(part) + 1
		if result == nil {
			result = id
			continue
		}
		result = &Node{Kind: KindQualifiedName, Pos: result.Pos, End: id.End, Left: result, Right: id}
	}
	return result
}

func (c *converter) templateString(n *sitter.Node) *Node {
	var subs []*sitter.Node
	for _, ch := range c.named(n) {
		if ch.Type() == "template_substitution" {
			subs = append(subs, ch)
		}
	}
	if len(subs) == 0 {
		lit := c.node(KindNoSubstitutionTemplateLiteral, n)
		text := c.text(n)
		if len(text) >= 2 {
			text = text[1 : len(text)-1]
		}
		lit.Text = text
		return lit
	}
	t := c.node(KindTemplateExpression, n)
	for _, s := range subs {
		span := c.node(KindTemplateSpan, s)
		span.Expression = c.expressionList(c.named(s), s)
		t.Elements = append(t.Elements, span)
	}
	return t
}

func (c *converter) declarationList(n *sitter.Node) *Node {
	list := c.node(KindVariableDeclarationList, n)
	if n.Type() == "lexical_declaration" {
		kind := ""
		if k := field(n, "kind"); k != nil {
			kind = c.text(k)
		} else if first := n.Child(0); first != nil {
			kind = c.text(first)
		}
		switch kind {
		case "let":
			list.Flags |= NodeFlagsLet
		case "const":
			list.Flags |= NodeFlagsConst
		case "using":
			list.Flags |= NodeFlagsUsing
		}
	}
	for _, ch := range c.named(n) {
		if ch.Type() != "variable_declarator" {
			continue
		}
		d := c.node(KindVariableDeclaration, ch)
		d.Name = c.convert(field(ch, "name"))
		d.Type = c.convert(field(ch, "type"))
		d.Initializer = c.convert(field(ch, "value"))
		list.Declarations = append(list.Declarations, d)
	}
	return list
}

func (c *converter) forStatement(n *sitter.Node) *Node {
	s := c.node(KindForStatement, n)
	if init := field(n, "initializer"); init != nil {
		switch init.Type() {
		case "lexical_declaration", "variable_declaration":
			s.Initializer = c.declarationList(init)
		case "expression_statement":
			s.Initializer = c.expressionList(c.named(init), init)
		case "empty_statement", ";":
		default:
			s.Initializer = c.convert(init)
		}
	}
	if cond := field(n, "condition"); cond != nil {
		switch cond.Type() {
		case "expression_statement":
			s.Condition = c.expressionList(c.named(cond), cond)
		case "empty_statement", ";":
		default:
			s.Condition = c.convert(cond)
		}
	}
	s.Incrementor = c.convert(field(n, "increment"))
	s.Statement = c.convert(field(n, "body"))
	return s
}

func (c *converter) forInStatement(n *sitter.Node) *Node {
	kind := KindForInStatement
	if op := field(n, "operator"); op != nil && c.text(op) == "of" {
		kind = KindForOfStatement
	} else if op == nil && hasToken(n, "of") {
		kind = KindForOfStatement
	}
	s := c.node(kind, n)
	if hasToken(n, "await") {
		s.Flags |= NodeFlagsAwait
	}
	left := field(n, "left")
	if k := field(n, "kind"); k != nil {
		list := c.node(KindVariableDeclarationList, k)
		switch c.text(k) {
		case "let":
			list.Flags |= NodeFlagsLet
		case "const":
			list.Flags |= NodeFlagsConst
		case "using":
			list.Flags |= NodeFlagsUsing
		}
		d := c.node(KindVariableDeclaration, left)
		d.Name = c.convert(left)
		list.Declarations = []*Node{d}
		if left != nil {
			list.End = int(left.EndByte())
		}
		s.Initializer = list
	} else {
		s.Initializer = c.convert(left)
	}
	s.Expression = c.unparen(field(n, "right"))
	s.Statement = c.convert(field(n, "body"))
	return s
}

func (c *converter) switchStatement(n *sitter.Node) *Node {
	s := c.node(KindSwitchStatement, n)
	s.Expression = c.unparen(field(n, "value"))
	body := field(n, "body")
	if body == nil {
		return s
	}
	block := c.node(KindCaseBlock, body)
	for _, ch := range c.named(body) {
		switch ch.Type() {
		case "switch_case":
			clause := c.node(KindCaseClause, ch)
			value := field(ch, "value")
			clause.Expression = c.convert(value)
			for _, st := range c.named(ch) {
				if sameNode(st, value) {
					continue
				}
				if conv := c.convert(st); conv != nil {
					clause.Statements = append(clause.Statements, conv)
				}
			}
			block.Clauses = append(block.Clauses, clause)
		case "switch_default":
			clause := c.node(KindDefaultClause, ch)
			clause.Statements = c.list(c.named(ch))
			block.Clauses = append(block.Clauses, clause)
		}
	}
	s.Body = block
	return s
}

func (c *converter) tryStatement(n *sitter.Node) *Node {
	s := c.node(KindTryStatement, n)
	s.TryBlock = c.block(field(n, "body"))
	if handler := field(n, "handler"); handler != nil {
		clause := c.node(KindCatchClause, handler)
		if param := field(handler, "parameter"); param != nil {
			d := c.node(KindVariableDeclaration, param)
			d.Name = c.convert(param)
			d.Type = c.convert(field(handler, "type"))
			clause.VariableDeclaration = d
		}
		clause.Body = c.block(field(handler, "body"))
		s.CatchClause = clause
	}
	if finalizer := field(n, "finalizer"); finalizer != nil {
		s.FinallyBlock = c.block(field(finalizer, "body"))
	}
	return s
}

func (c *converter) function(kind Kind, n *sitter.Node) *Node {
	f := c.node(kind, n)
	f.Modifiers, f.Flags = c.modifiers(n)
	if strings.HasPrefix(n.Type(), "generator_") {
		f.Flags |= NodeFlagsGenerator
	}
	f.Name = c.convert(field(n, "name"))
	f.TypeParameters = c.typeParameters(field(n, "type_parameters"))
	f.Parameters = c.parameters(field(n, "parameters"))
	f.Type = c.convert(field(n, "return_type"))
	f.Body = c.block(field(n, "body"))
	return f
}

func (c *converter) arrowFunction(n *sitter.Node) *Node {
	f := c.node(KindArrowFunction, n)
	f.Modifiers, _ = c.modifiers(n)
	f.TypeParameters = c.typeParameters(field(n, "type_parameters"))
	if params := field(n, "parameters"); params != nil {
		f.Parameters = c.parameters(params)
	} else if param := field(n, "parameter"); param != nil {
		p := c.node(KindParameter, param)
		p.Name = c.identifier(param)
		f.Parameters = []*Node{p}
	}
	f.Type = c.convert(field(n, "return_type"))
	f.Body = c.block(field(n, "body"))
	return f
}

func (c *converter) parameters(n *sitter.Node) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "required_parameter", "optional_parameter":
			p := c.node(KindParameter, ch)
			p.Modifiers, p.Flags = c.modifiers(ch)
			if ch.Type() == "optional_parameter" {
				p.Flags |= NodeFlagsOptional
			}
			pattern := field(ch, "pattern")
			if pattern != nil && pattern.Type() == "rest_pattern" {
				p.Operator = "..."
				pattern = c.firstNamed(pattern)
			}
			p.Name = c.convert(pattern)
			p.Type = c.convert(field(ch, "type"))
			p.Initializer = c.convert(field(ch, "value"))
			out = append(out, p)
		case "identifier", "this":
			p := c.node(KindParameter, ch)
			p.Name = c.convert(ch)
			out = append(out, p)
		default:
			p := c.node(KindParameter, ch)
			p.Name = c.convert(ch)
			out = append(out, p)
		}
	}
	return out
}

func (c *converter) typeParameters(n *sitter.Node) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, ch := range c.named(n) {
		if ch.Type() != "type_parameter" {
			continue
		}
		tp := c.node(KindTypeParameter, ch)
		tp.Name = c.convert(field(ch, "name"))
		tp.Type = c.convert(field(ch, "constraint"))
		tp.Initializer = c.convert(field(ch, "value"))
		out = append(out, tp)
	}
	return out
}

func (c *converter) class(kind Kind, n *sitter.Node) *Node {
	cls := c.node(kind, n)
	cls.Modifiers, _ = c.modifiers(n)
	cls.Name = c.convert(field(n, "name"))
	cls.TypeParameters = c.typeParameters(field(n, "type_parameters"))
	for _, ch := range c.named(n) {
		if ch.Type() == "class_heritage" {
			cls.Types = c.heritage(ch)
		}
	}
	if body := field(n, "body"); body != nil {
		for _, m := range c.named(body) {
			if member := c.classMember(m); member != nil {
				cls.Members = append(cls.Members, member)
			}
		}
	}
	return cls
}

func (c *converter) heritage(n *sitter.Node) []*Node {
	var out []*Node
	for _, clause := range c.named(n) {
		switch clause.Type() {
		case "extends_clause", "implements_clause", "extends_type_clause":
			h := c.node(KindHeritageClause, clause)
			h.Operator = "extends"
			if clause.Type() == "implements_clause" {
				h.Operator = "implements"
			}
			for _, t := range c.named(clause) {
				if t.Type() == "type_arguments" {
					continue
				}
				e := c.node(KindExpressionWithTypeArguments, t)
				e.Expression = c.convert(t)
				h.Types = append(h.Types, e)
			}
			out = append(out, h)
		}
	}
	return out
}

func (c *converter) classMember(n *sitter.Node) *Node {
	switch n.Type() {
	case "method_definition", "method_signature", "abstract_method_signature":
		return c.method(n)
	case "public_field_definition", "property_signature":
		p := c.node(KindPropertyDeclaration, n)
		p.Modifiers, p.Flags = c.modifiers(n)
		p.Name = c.convert(field(n, "name"))
		p.Type = c.convert(field(n, "type"))
		p.Initializer = c.convert(field(n, "value"))
		return p
	case "class_static_block":
		b := c.node(KindClassStaticBlockDeclaration, n)
		b.Body = c.block(field(n, "body"))
		if b.Body == nil {
			b.Body = c.block(c.firstNamed(n))
		}
		return b
	case "index_signature":
		return c.indexSignature(n)
	case "decorator", "comment":
		return nil
	}
	return c.convert(n)
}

func (c *converter) method(n *sitter.Node) *Node {
	m := c.node(KindMethodDeclaration, n)
	m.Modifiers, m.Flags = c.modifiers(n)
	if n.Type() == "abstract_method_signature" {
		m.Modifiers |= ModifierFlagsAbstract
	}
	switch {
	case hasToken(n, "get"):
		m.Kind = KindGetAccessor
	case hasToken(n, "set"):
		m.Kind = KindSetAccessor
	}
	m.Name = c.convert(field(n, "name"))
	if m.Kind == KindMethodDeclaration && m.Name != nil && m.Name.Kind == KindIdentifier && m.Name.Text == "constructor" {
		m.Kind = KindConstructor
		m.Name = nil
	}
	m.TypeParameters = c.typeParameters(field(n, "type_parameters"))
	m.Parameters = c.parameters(field(n, "parameters"))
	m.Type = c.convert(field(n, "return_type"))
	m.Body = c.block(field(n, "body"))
	return m
}

func (c *converter) indexSignature(n *sitter.Node) *Node {
	s := c.node(KindIndexSignature, n)
	s.Modifiers, _ = c.modifiers(n)
	p := c.node(KindParameter, n)
	p.Name = c.convert(field(n, "name"))
	if p.Name != nil {
		s.Parameters = []*Node{p}
	}
	s.Type = c.convert(field(n, "type"))
	return s
}

func (c *converter) typeMembers(body *sitter.Node) []*Node {
	var out []*Node
	for _, m := range c.named(body) {
		var member *Node
		switch m.Type() {
		case "property_signature":
			member = c.node(KindPropertySignature, m)
			member.Modifiers, member.Flags = c.modifiers(m)
			member.Name = c.convert(field(m, "name"))
			member.Type = c.convert(field(m, "type"))
		case "method_signature":
			member = c.method(m)
			member.Kind = KindMethodSignature
		case "call_signature", "construct_signature":
			kind := KindCallSignature
			if m.Type() == "construct_signature" {
				kind = KindConstructSignature
			}
			member = c.node(kind, m)
			member.TypeParameters = c.typeParameters(field(m, "type_parameters"))
			member.Parameters = c.parameters(field(m, "parameters"))
			member.Type = c.convert(field(m, "type"))
			if member.Type == nil {
				member.Type = c.convert(field(m, "return_type"))
			}
		case "index_signature":
			member = c.indexSignature(m)
		default:
			member = c.convert(m)
		}
		if member != nil {
			out = append(out, member)
		}
	}
	return out
}

func (c *converter) interfaceDeclaration(n *sitter.Node) *Node {
	d := c.node(KindInterfaceDeclaration, n)
	d.Name = c.convert(field(n, "name"))
	d.TypeParameters = c.typeParameters(field(n, "type_parameters"))
	for _, ch := range c.named(n) {
		if ch.Type() == "extends_type_clause" {
			d.Types = c.heritage(n)
			break
		}
	}
	d.Members = c.typeMembers(field(n, "body"))
	return d
}

func (c *converter) enumDeclaration(n *sitter.Node) *Node {
	d := c.node(KindEnumDeclaration, n)
	d.Modifiers, _ = c.modifiers(n)
	if hasToken(n, "const") {
		d.Modifiers |= ModifierFlagsConst
	}
	d.Name = c.convert(field(n, "name"))
	for _, m := range c.named(field(n, "body")) {
		member := c.node(KindEnumMember, m)
		if m.Type() == "enum_assignment" {
			member.Name = c.convert(field(m, "name"))
			member.Initializer = c.convert(field(m, "value"))
		} else {
			member.Name = c.convert(m)
		}
		d.Members = append(d.Members, member)
	}
	return d
}

// moduleDeclaration converts "namespace A.B { }" and "module 'x' { }".
// Dotted names become nested declarations, the inner ones flagged
// NestedNamespace.
func (c *converter) moduleDeclaration(n *sitter.Node) *Node {
	nameNode := field(n, "name")
	var body *Node
	if b := field(n, "body"); b != nil {
		body = c.node(KindModuleBlock, b)
		body.Statements = c.list(c.named(b))
	}
	var flags NodeFlags
	if n.Type() == "internal_module" {
		flags |= NodeFlagsNamespace
	}

	var names []*Node
	if nameNode != nil && nameNode.Type() == "nested_identifier" {
		q := c.qualifiedName(nameNode)
		for q != nil && q.Kind == KindQualifiedName {
			names = append([]*Node{q.Right}, names...)
			q = q.Left
		}
		names = append([]*Node{q}, names...)
	} else {
		names = []*Node{c.convert(nameNode)}
	}

	inner := body
	for i := len(names) - 1; i >= 0; i-- {
		d := c.node(KindModuleDeclaration, n)
		d.Flags = flags
		if i > 0 {
			d.Flags |= NodeFlagsNestedNamespace
			d.Pos = names[i].Pos
		}
		d.Name = names[i]
		d.Body = inner
		inner = d
	}
	return inner
}

func (c *converter) ambientDeclaration(n *sitter.Node) *Node {
	if hasToken(n, "global") {
		d := c.node(KindModuleDeclaration, n)
		d.Flags |= NodeFlagsGlobalAugmentation | NodeFlagsAmbient
		d.Modifiers |= ModifierFlagsAmbient
		d.Name = &Node{Kind: KindIdentifier, Pos: d.Pos, End: d.Pos, Text: "global"}
		if b := c.firstNamed(n); b != nil {
			body := c.node(KindModuleBlock, b)
			body.Statements = c.list(c.named(b))
			d.Body = body
		}
		return d
	}
	inner := c.convert(c.firstNamed(n))
	if inner == nil {
		return c.unknown(n)
	}
	inner.Pos = int(n.StartByte())
	inner.Modifiers |= ModifierFlagsAmbient
	inner.Flags |= NodeFlagsAmbient
	return inner
}

func (c *converter) importStatement(n *sitter.Node) *Node {
	d := c.node(KindImportDeclaration, n)
	if hasToken(n, "type") {
		d.Flags |= NodeFlagsTypeOnly
	}
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "import_clause":
			d.Clause = c.importClause(ch)
		case "import_require_clause":
			eq := c.node(KindImportEqualsDeclaration, n)
			eq.Name = c.identifier(c.firstNamed(ch))
			ref := c.node(KindExternalModuleReference, ch)
			ref.Expression = c.convert(field(ch, "source"))
			eq.Expression = ref
			return eq
		}
	}
	d.ModuleSpecifier = c.convert(field(n, "source"))
	return d
}

func (c *converter) importClause(n *sitter.Node) *Node {
	clause := c.node(KindImportClause, n)
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "identifier":
			clause.Name = c.identifier(ch)
		case "namespace_import":
			ns := c.node(KindNamespaceImport, ch)
			ns.Name = c.identifier(c.firstNamed(ch))
			clause.Clause = ns
		case "named_imports":
			named := c.node(KindNamedImports, ch)
			for _, spec := range c.named(ch) {
				if spec.Type() == "import_specifier" {
					named.Elements = append(named.Elements, c.specifier(KindImportSpecifier, spec))
				}
			}
			clause.Clause = named
		}
	}
	return clause
}

func (c *converter) specifier(kind Kind, n *sitter.Node) *Node {
	s := c.node(kind, n)
	name := c.convert(field(n, "name"))
	if alias := field(n, "alias"); alias != nil {
		s.PropertyName = name
		s.Name = c.convert(alias)
	} else {
		s.Name = name
	}
	if hasToken(n, "type") {
		s.Flags |= NodeFlagsTypeOnly
	}
	return s
}

func (c *converter) exportStatement(n *sitter.Node) *Node {
	mods := ModifierFlagsExport
	if hasToken(n, "default") {
		mods |= ModifierFlagsDefault
	}
	if decl := field(n, "declaration"); decl != nil {
		inner := c.convert(decl)
		if inner == nil {
			return c.unknown(n)
		}
		inner.Pos = int(n.StartByte())
		inner.Modifiers |= mods
		return inner
	}

	if hasToken(n, "as") && hasToken(n, "namespace") {
		d := c.node(KindNamespaceExportDeclaration, n)
		d.Name = c.identifier(c.firstNamed(n))
		return d
	}

	value := field(n, "value")
	if hasToken(n, "=") {
		a := c.node(KindExportAssignment, n)
		a.Operator = "="
		if value == nil {
			value = c.firstNamed(n)
		}
		a.Expression = c.convert(value)
		return a
	}
	if value != nil || mods&ModifierFlagsDefault != 0 {
		a := c.node(KindExportAssignment, n)
		if value == nil {
			value = c.firstNamed(n)
		}
		a.Expression = c.convert(value)
		return a
	}

	d := c.node(KindExportDeclaration, n)
	if hasToken(n, "type") {
		d.Flags |= NodeFlagsTypeOnly
	}
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "export_clause":
			named := c.node(KindNamedExports, ch)
			for _, spec := range c.named(ch) {
				if spec.Type() == "export_specifier" {
					named.Elements = append(named.Elements, c.specifier(KindExportSpecifier, spec))
				}
			}
			d.Clause = named
		case "namespace_export":
			ns := c.node(KindNamespaceExport, ch)
			ns.Name = c.convert(c.firstNamed(ch))
			d.Clause = ns
		}
	}
	d.ModuleSpecifier = c.convert(field(n, "source"))
	return d
}

func (c *converter) callExpression(n *sitter.Node) *Node {
	callee := c.convert(field(n, "function"))
	args := field(n, "arguments")
	if args != nil && args.Type() == "template_string" {
		e := c.node(KindTaggedTemplateExpression, n)
		e.Expression = callee
		e.Argument = c.convert(args)
		return e
	}
	e := c.node(KindCallExpression, n)
	e.Expression = callee
	e.TypeArguments = c.list(c.named(field(n, "type_arguments")))
	e.Arguments = c.list(c.named(args))
	if hasToken(n, "?.") || field(n, "optional_chain") != nil {
		e.Flags |= NodeFlagsOptionalChain
	}
	return e
}

func (c *converter) objectMember(n *sitter.Node) *Node {
	switch n.Type() {
	case "pair":
		p := c.node(KindPropertyAssignment, n)
		p.Name = c.convert(field(n, "key"))
		p.Initializer = c.convert(field(n, "value"))
		return p
	case "shorthand_property_identifier":
		p := c.node(KindShorthandPropertyAssignment, n)
		p.Name = c.identifier(n)
		return p
	case "method_definition":
		return c.method(n)
	case "spread_element":
		return c.unary(KindSpreadAssignment, n)
	}
	return c.convert(n)
}

func (c *converter) objectBindingPattern(n *sitter.Node) *Node {
	p := c.node(KindObjectBindingPattern, n)
	for _, ch := range c.named(n) {
		var el *Node
		switch ch.Type() {
		case "pair_pattern":
			el = c.node(KindBindingElement, ch)
			el.PropertyName = c.convert(field(ch, "key"))
			value := field(ch, "value")
			if value != nil && value.Type() == "assignment_pattern" {
				el.Name = c.convert(field(value, "left"))
				el.Initializer = c.convert(field(value, "right"))
			} else {
				el.Name = c.convert(value)
			}
		case "shorthand_property_identifier_pattern", "identifier":
			el = c.node(KindBindingElement, ch)
			el.Name = c.identifier(ch)
		default:
			el = c.convert(ch)
		}
		if el != nil {
			p.Elements = append(p.Elements, el)
		}
	}
	return p
}

func (c *converter) arrayBindingPattern(n *sitter.Node) *Node {
	p := c.node(KindArrayBindingPattern, n)
	for _, ch := range c.named(n) {
		var el *Node
		switch ch.Type() {
		case "identifier", "object_pattern", "array_pattern":
			el = c.node(KindBindingElement, ch)
			el.Name = c.convert(ch)
		default:
			el = c.convert(ch)
		}
		if el != nil {
			p.Elements = append(p.Elements, el)
		}
	}
	return p
}

// collectSyntaxErrors reports ERROR and missing nodes as diagnostics.
func (c *converter) collectSyntaxErrors(root *sitter.Node) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		start := int(n.StartByte())
		length := int(n.EndByte()) - start
		switch {
		case n.IsMissing():
			c.diags = append(c.diags, diagnostics.New(c.fileName, start, length, diagnostics.TokenExpected, n.Type()))
			continue
		case n.Type() == "ERROR":
			c.diags = append(c.diags, diagnostics.New(c.fileName, start, length, diagnostics.DeclarationOrStatementExpected))
		}
		if !n.HasError() {
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if ch := n.Child(i); ch != nil {
				stack = append(stack, ch)
			}
		}
	}
}

// unquote strips the quotes of a string literal and decodes escapes.
// Invalid escapes are kept verbatim.
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	if s, err := strconv.Unquote(`"` + strings.ReplaceAll(body, `"`, `\"`) + `"`); err == nil {
		return s
	}
	return body
}
