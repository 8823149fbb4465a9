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

import "strconv"

// Kind discriminates AST nodes.
type Kind int

const (
	KindUnknown Kind = iota

	// Tokens and names.
	KindIdentifier
	KindPrivateIdentifier
	KindQualifiedName
	KindComputedPropertyName
	KindStringLiteral
	KindNumericLiteral
	KindBigIntLiteral
	KindRegularExpressionLiteral
	KindNoSubstitutionTemplateLiteral
	KindTemplateExpression
	KindTemplateSpan
	KindTrueKeyword
	KindFalseKeyword
	KindNullKeyword
	KindThisKeyword
	KindSuperKeyword

	// Source file and statements.
	KindSourceFile
	KindBlock
	KindEmptyStatement
	KindVariableStatement
	KindVariableDeclarationList
	KindVariableDeclaration
	KindExpressionStatement
	KindIfStatement
	KindDoStatement
	KindWhileStatement
	KindForStatement
	KindForInStatement
	KindForOfStatement
	KindContinueStatement
	KindBreakStatement
	KindReturnStatement
	KindWithStatement
	KindSwitchStatement
	KindCaseBlock
	KindCaseClause
	KindDefaultClause
	KindLabeledStatement
	KindThrowStatement
	KindTryStatement
	KindCatchClause
	KindDebuggerStatement

	// Declarations.
	KindFunctionDeclaration
	KindClassDeclaration
	KindInterfaceDeclaration
	KindTypeAliasDeclaration
	KindEnumDeclaration
	KindEnumMember
	KindModuleDeclaration
	KindModuleBlock
	KindImportDeclaration
	KindImportEqualsDeclaration
	KindImportClause
	KindNamespaceImport
	KindNamedImports
	KindImportSpecifier
	KindExternalModuleReference
	KindExportDeclaration
	KindNamedExports
	KindNamespaceExport
	KindExportSpecifier
	KindExportAssignment
	KindNamespaceExportDeclaration
	KindHeritageClause
	KindExpressionWithTypeArguments
	KindDecorator

	// Class and type members.
	KindParameter
	KindTypeParameter
	KindPropertyDeclaration
	KindPropertySignature
	KindMethodDeclaration
	KindMethodSignature
	KindConstructor
	KindGetAccessor
	KindSetAccessor
	KindCallSignature
	KindConstructSignature
	KindIndexSignature
	KindClassStaticBlockDeclaration

	// Expressions.
	KindObjectBindingPattern
	KindArrayBindingPattern
	KindBindingElement
	KindArrayLiteralExpression
	KindObjectLiteralExpression
	KindPropertyAssignment
	KindShorthandPropertyAssignment
	KindSpreadAssignment
	KindPropertyAccessExpression
	KindElementAccessExpression
	KindCallExpression
	KindNewExpression
	KindTaggedTemplateExpression
	KindTypeAssertionExpression
	KindParenthesizedExpression
	KindFunctionExpression
	KindArrowFunction
	KindClassExpression
	KindDeleteExpression
	KindTypeOfExpression
	KindVoidExpression
	KindAwaitExpression
	KindPrefixUnaryExpression
	KindPostfixUnaryExpression
	KindBinaryExpression
	KindConditionalExpression
	KindYieldExpression
	KindSpreadElement
	KindOmittedExpression
	KindAsExpression
	KindSatisfiesExpression
	KindNonNullExpression
	KindMetaProperty
	KindJsxElement

	// Types.
	KindTypeReference
	KindKeywordType
	KindFunctionType
	KindConstructorType
	KindTypeQuery
	KindTypeLiteral
	KindArrayType
	KindTupleType
	KindOptionalType
	KindRestType
	KindUnionType
	KindIntersectionType
	KindConditionalType
	KindInferType
	KindParenthesizedType
	KindTypeOperator
	KindIndexedAccessType
	KindMappedType
	KindLiteralType
	KindTemplateLiteralType
	KindImportType
	KindTypePredicate
	KindThisType

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:                       "Unknown",
	KindIdentifier:                    "Identifier",
	KindPrivateIdentifier:             "PrivateIdentifier",
	KindQualifiedName:                 "QualifiedName",
	KindComputedPropertyName:          "ComputedPropertyName",
	KindStringLiteral:                 "StringLiteral",
	KindNumericLiteral:                "NumericLiteral",
	KindBigIntLiteral:                 "BigIntLiteral",
	KindRegularExpressionLiteral:      "RegularExpressionLiteral",
	KindNoSubstitutionTemplateLiteral: "NoSubstitutionTemplateLiteral",
	KindTemplateExpression:            "TemplateExpression",
	KindTemplateSpan:                  "TemplateSpan",
	KindTrueKeyword:                   "TrueKeyword",
	KindFalseKeyword:                  "FalseKeyword",
	KindNullKeyword:                   "NullKeyword",
	KindThisKeyword:                   "ThisKeyword",
	KindSuperKeyword:                  "SuperKeyword",
	KindSourceFile:                    "SourceFile",
	KindBlock:                         "Block",
	KindEmptyStatement:                "EmptyStatement",
	KindVariableStatement:             "VariableStatement",
	KindVariableDeclarationList:       "VariableDeclarationList",
	KindVariableDeclaration:           "VariableDeclaration",
	KindExpressionStatement:           "ExpressionStatement",
	KindIfStatement:                   "IfStatement",
	KindDoStatement:                   "DoStatement",
	KindWhileStatement:                "WhileStatement",
	KindForStatement:                  "ForStatement",
	KindForInStatement:                "ForInStatement",
	KindForOfStatement:                "ForOfStatement",
	KindContinueStatement:             "ContinueStatement",
	KindBreakStatement:                "BreakStatement",
	KindReturnStatement:               "ReturnStatement",
	KindWithStatement:                 "WithStatement",
	KindSwitchStatement:               "SwitchStatement",
	KindCaseBlock:                     "CaseBlock",
	KindCaseClause:                    "CaseClause",
	KindDefaultClause:                 "DefaultClause",
	KindLabeledStatement:              "LabeledStatement",
	KindThrowStatement:                "ThrowStatement",
	KindTryStatement:                  "TryStatement",
	KindCatchClause:                   "CatchClause",
	KindDebuggerStatement:             "DebuggerStatement",
	KindFunctionDeclaration:           "FunctionDeclaration",
	KindClassDeclaration:              "ClassDeclaration",
	KindInterfaceDeclaration:          "InterfaceDeclaration",
	KindTypeAliasDeclaration:          "TypeAliasDeclaration",
	KindEnumDeclaration:               "EnumDeclaration",
	KindEnumMember:                    "EnumMember",
	KindModuleDeclaration:             "ModuleDeclaration",
	KindModuleBlock:                   "ModuleBlock",
	KindImportDeclaration:             "ImportDeclaration",
	KindImportEqualsDeclaration:       "ImportEqualsDeclaration",
	KindImportClause:                  "ImportClause",
	KindNamespaceImport:               "NamespaceImport",
	KindNamedImports:                  "NamedImports",
	KindImportSpecifier:               "ImportSpecifier",
	KindExternalModuleReference:       "ExternalModuleReference",
	KindExportDeclaration:             "ExportDeclaration",
	KindNamedExports:                  "NamedExports",
	KindNamespaceExport:               "NamespaceExport",
	KindExportSpecifier:               "ExportSpecifier",
	KindExportAssignment:              "ExportAssignment",
	KindNamespaceExportDeclaration:    "NamespaceExportDeclaration",
	KindHeritageClause:                "HeritageClause",
	KindExpressionWithTypeArguments:   "ExpressionWithTypeArguments",
	KindDecorator:                     "Decorator",
	KindParameter:                     "Parameter",
	KindTypeParameter:                 "TypeParameter",
	KindPropertyDeclaration:           "PropertyDeclaration",
	KindPropertySignature:             "PropertySignature",
	KindMethodDeclaration:             "MethodDeclaration",
	KindMethodSignature:               "MethodSignature",
	KindConstructor:                   "Constructor",
	KindGetAccessor:                   "GetAccessor",
	KindSetAccessor:                   "SetAccessor",
	KindCallSignature:                 "CallSignature",
	KindConstructSignature:            "ConstructSignature",
	KindIndexSignature:                "IndexSignature",
	KindClassStaticBlockDeclaration:   "ClassStaticBlockDeclaration",
	KindObjectBindingPattern:          "ObjectBindingPattern",
	KindArrayBindingPattern:           "ArrayBindingPattern",
	KindBindingElement:                "BindingElement",
	KindArrayLiteralExpression:        "ArrayLiteralExpression",
	KindObjectLiteralExpression:       "ObjectLiteralExpression",
	KindPropertyAssignment:            "PropertyAssignment",
	KindShorthandPropertyAssignment:   "ShorthandPropertyAssignment",
	KindSpreadAssignment:              "SpreadAssignment",
	KindPropertyAccessExpression:      "PropertyAccessExpression",
	KindElementAccessExpression:       "ElementAccessExpression",
	KindCallExpression:                "CallExpression",
	KindNewExpression:                 "NewExpression",
	KindTaggedTemplateExpression:      "TaggedTemplateExpression",
	KindTypeAssertionExpression:       "TypeAssertionExpression",
	KindParenthesizedExpression:       "ParenthesizedExpression",
	KindFunctionExpression:            "FunctionExpression",
	KindArrowFunction:                 "ArrowFunction",
	KindClassExpression:               "ClassExpression",
	KindDeleteExpression:              "DeleteExpression",
	KindTypeOfExpression:              "TypeOfExpression",
	KindVoidExpression:                "VoidExpression",
	KindAwaitExpression:               "AwaitExpression",
	KindPrefixUnaryExpression:         "PrefixUnaryExpression",
	KindPostfixUnaryExpression:        "PostfixUnaryExpression",
	KindBinaryExpression:              "BinaryExpression",
	KindConditionalExpression:         "ConditionalExpression",
	KindYieldExpression:               "YieldExpression",
	KindSpreadElement:                 "SpreadElement",
	KindOmittedExpression:             "OmittedExpression",
	KindAsExpression:                  "AsExpression",
	KindSatisfiesExpression:           "SatisfiesExpression",
	KindNonNullExpression:             "NonNullExpression",
	KindMetaProperty:                  "MetaProperty",
	KindJsxElement:                    "JsxElement",
	KindTypeReference:                 "TypeReference",
	KindKeywordType:                   "KeywordType",
	KindFunctionType:                  "FunctionType",
	KindConstructorType:               "ConstructorType",
	KindTypeQuery:                     "TypeQuery",
	KindTypeLiteral:                   "TypeLiteral",
	KindArrayType:                     "ArrayType",
	KindTupleType:                     "TupleType",
	KindOptionalType:                  "OptionalType",
	KindRestType:                      "RestType",
	KindUnionType:                     "UnionType",
	KindIntersectionType:              "IntersectionType",
	KindConditionalType:               "ConditionalType",
	KindInferType:                     "InferType",
	KindParenthesizedType:             "ParenthesizedType",
	KindTypeOperator:                  "TypeOperator",
	KindIndexedAccessType:             "IndexedAccessType",
	KindMappedType:                    "MappedType",
	KindLiteralType:                   "LiteralType",
	KindTemplateLiteralType:           "TemplateLiteralType",
	KindImportType:                    "ImportType",
	KindTypePredicate:                 "TypePredicate",
	KindThisType:                      "ThisType",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}
