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
	"strings"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
	"github.com/AleutianAI/tsfront/services/tsc/symbols"
)

// TypeFlags classify a type. Exactly one primitive or structural flag is
// set on every type; the composite masks below group them.
type TypeFlags uint32

const (
	TypeFlagsAny TypeFlags = 1 << iota
	TypeFlagsUnknown
	TypeFlagsString
	TypeFlagsNumber
	TypeFlagsBoolean
	TypeFlagsEnum
	TypeFlagsBigInt
	TypeFlagsStringLiteral
	TypeFlagsNumberLiteral
	TypeFlagsBooleanLiteral
	TypeFlagsEnumLiteral
	TypeFlagsBigIntLiteral
	TypeFlagsESSymbol
	TypeFlagsUniqueESSymbol
	TypeFlagsVoid
	TypeFlagsUndefined
	TypeFlagsNull
	TypeFlagsNever
	TypeFlagsTypeParameter
	TypeFlagsObject
	TypeFlagsUnion
	TypeFlagsIntersection
	TypeFlagsIndex
	TypeFlagsIndexedAccess
	TypeFlagsConditional
	TypeFlagsSubstitution
	TypeFlagsNonPrimitive
	TypeFlagsTemplateLiteral
	TypeFlagsStringMapping

	TypeFlagsNone TypeFlags = 0
)

// Composite masks.
const (
	TypeFlagsAnyOrUnknown        = TypeFlagsAny | TypeFlagsUnknown
	TypeFlagsNullable            = TypeFlagsUndefined | TypeFlagsNull
	TypeFlagsLiteral             = TypeFlagsStringLiteral | TypeFlagsNumberLiteral | TypeFlagsBigIntLiteral | TypeFlagsBooleanLiteral
	TypeFlagsUnit                = TypeFlagsLiteral | TypeFlagsUniqueESSymbol | TypeFlagsNullable
	TypeFlagsStringLike          = TypeFlagsString | TypeFlagsStringLiteral | TypeFlagsTemplateLiteral | TypeFlagsStringMapping
	TypeFlagsNumberLike          = TypeFlagsNumber | TypeFlagsNumberLiteral | TypeFlagsEnum
	TypeFlagsBigIntLike          = TypeFlagsBigInt | TypeFlagsBigIntLiteral
	TypeFlagsBooleanLike         = TypeFlagsBoolean | TypeFlagsBooleanLiteral
	TypeFlagsESSymbolLike        = TypeFlagsESSymbol | TypeFlagsUniqueESSymbol
	TypeFlagsVoidLike            = TypeFlagsVoid | TypeFlagsUndefined
	TypeFlagsUnionOrIntersection = TypeFlagsUnion | TypeFlagsIntersection
	TypeFlagsStructuredType      = TypeFlagsObject | TypeFlagsUnionOrIntersection
	TypeFlagsInstantiable        = TypeFlagsTypeParameter | TypeFlagsIndex | TypeFlagsIndexedAccess | TypeFlagsConditional | TypeFlagsSubstitution | TypeFlagsTemplateLiteral | TypeFlagsStringMapping
	TypeFlagsPrimitive           = TypeFlagsStringLike | TypeFlagsNumberLike | TypeFlagsBigIntLike | TypeFlagsBooleanLike | TypeFlagsEnumLiteral | TypeFlagsESSymbolLike | TypeFlagsVoidLike | TypeFlagsNull
)

var typeFlagNames = []string{
	"Any", "Unknown", "String", "Number", "Boolean", "Enum", "BigInt", "StringLiteral",
	"NumberLiteral", "BooleanLiteral", "EnumLiteral", "BigIntLiteral", "ESSymbol", "UniqueESSymbol",
	"Void", "Undefined", "Null", "Never", "TypeParameter", "Object", "Union", "Intersection", "Index",
	"IndexedAccess", "Conditional", "Substitution", "NonPrimitive", "TemplateLiteral", "StringMapping",
}

func (f TypeFlags) String() string {
	if f == 0 {
		return "None"
	}
	var names []string
	for i, name := range typeFlagNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// ObjectFlags refine TypeFlagsObject types.
type ObjectFlags uint32

const (
	ObjectFlagsClass ObjectFlags = 1 << iota
	ObjectFlagsInterface
	ObjectFlagsReference
	ObjectFlagsTuple
	ObjectFlagsAnonymous
	ObjectFlagsMapped
	ObjectFlagsInstantiated
	ObjectFlagsObjectLiteral
	ObjectFlagsEvolvingArray
	ObjectFlagsContainsWideningType
	ObjectFlagsFreshLiteral
	ObjectFlagsPrimitiveUnion

	ObjectFlagsNone ObjectFlags = 0

	ObjectFlagsClassOrInterface = ObjectFlagsClass | ObjectFlagsInterface
)

// CheckMode modifies how an expression is checked.
type CheckMode uint8

const (
	CheckModeNormal CheckMode = 0
	// CheckModeContextual checks with a contextual type.
	CheckModeContextual CheckMode = 1 << (iota - 1)
	// CheckModeInferential checks during type argument inference.
	CheckModeInferential
	// CheckModeSkipContextSensitive skips context sensitive function
	// expressions.
	CheckModeSkipContextSensitive
	// CheckModeSkipGenericFunctions skips generic functions.
	CheckModeSkipGenericFunctions
	// CheckModeIsForSignatureHelp is set for signature help requests.
	CheckModeIsForSignatureHelp
	// CheckModeRestBindingElement checks the rest element of a binding
	// pattern.
	CheckModeRestBindingElement
	// CheckModeTypeOnly is set when only the type of an expression is
	// needed, not its diagnostics.
	CheckModeTypeOnly
)

// Type is a checker type.
//
// Intrinsic types are singletons owned by a Checker. Object, enum and
// type parameter types are created once per symbol and cached.
type Type struct {
	// ID is unique within one Checker.
	ID          uint32
	Flags       TypeFlags
	ObjectFlags ObjectFlags

	// IntrinsicName is the keyword of an intrinsic type.
	IntrinsicName string

	// Value is the normalized text of a string, number or bigint literal
	// type.
	Value string

	// Symbol is the declaring symbol of object, enum and type parameter
	// types.
	Symbol *symbols.Symbol

	// Types are the constituents of a union or intersection.
	Types []*Type
}

// IsIntrinsic reports whether t is one of the checker's keyword types.
func (t *Type) IsIntrinsic() bool {
	return t != nil && t.IntrinsicName != ""
}

// Is reports whether t has any of flags.
func (t *Type) Is(flags TypeFlags) bool {
	return t != nil && t.Flags&flags != 0
}

// SignatureKind selects call or construct signatures.
type SignatureKind int

const (
	SignatureKindCall SignatureKind = iota
	SignatureKindConstruct
)

// Signature is a call or construct signature read from a declaration.
type Signature struct {
	Declaration    *ast.Node
	TypeParameters []*symbols.Symbol
	Parameters     []*symbols.Symbol

	// MinArgumentCount counts leading parameters without initializer,
	// question mark or rest.
	MinArgumentCount int
	HasRestParameter bool
}

// IndexKind selects a string or number index signature.
type IndexKind int

const (
	IndexKindString IndexKind = iota
	IndexKindNumber
)

// intrinsics holds the keyword types of one Checker.
type intrinsics struct {
	any          *Type
	errorType    *Type
	unknown      *Type
	undefined    *Type
	null         *Type
	str          *Type
	number       *Type
	bigint       *Type
	falseType    *Type
	trueType     *Type
	boolean      *Type
	void         *Type
	never        *Type
	esSymbol     *Type
	nonPrimitive *Type

	byKeyword map[string]*Type
}
