// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symbols defines the symbol model produced by the binder: the
// declaration kind taxonomy, the merge compatibility matrix, symbols and
// insertion-ordered symbol tables.
//
// A symbol's primary discriminant is the set of declaration Kinds merged
// into it. Orthogonal boolean facets (optional, exported, ambient...) are
// kept in a separate Facets bitset.
package symbols

import (
	"math/bits"
	"strconv"
	"strings"
)

// Kind is the concrete declaration kind that introduced a symbol.
type Kind uint8

const (
	KindFunctionScopedVariable Kind = iota
	KindBlockScopedVariable
	KindProperty
	KindEnumMember
	KindFunction
	KindClass
	KindInterface
	KindConstEnum
	KindRegularEnum
	KindValueModule
	KindNamespaceModule
	KindTypeLiteral
	KindObjectLiteral
	KindMethod
	KindConstructor
	KindGetAccessor
	KindSetAccessor
	KindSignature
	KindTypeParameter
	KindTypeAlias
	KindExportValue
	KindAlias
	KindPrototype
	KindExportStar

	kindCount
)

var kindNames = [kindCount]string{
	KindFunctionScopedVariable: "FunctionScopedVariable",
	KindBlockScopedVariable:    "BlockScopedVariable",
	KindProperty:               "Property",
	KindEnumMember:             "EnumMember",
	KindFunction:               "Function",
	KindClass:                  "Class",
	KindInterface:              "Interface",
	KindConstEnum:              "ConstEnum",
	KindRegularEnum:            "RegularEnum",
	KindValueModule:            "ValueModule",
	KindNamespaceModule:        "NamespaceModule",
	KindTypeLiteral:            "TypeLiteral",
	KindObjectLiteral:          "ObjectLiteral",
	KindMethod:                 "Method",
	KindConstructor:            "Constructor",
	KindGetAccessor:            "GetAccessor",
	KindSetAccessor:            "SetAccessor",
	KindSignature:              "Signature",
	KindTypeParameter:          "TypeParameter",
	KindTypeAlias:              "TypeAlias",
	KindExportValue:            "ExportValue",
	KindAlias:                  "Alias",
	KindPrototype:              "Prototype",
	KindExportStar:             "ExportStar",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// KindSet is a set of Kinds.
type KindSet uint32

// KindsOf returns the set containing kinds.
func KindsOf(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// Has reports whether k is in s.
func (s KindSet) Has(k Kind) bool { return s&(1<<k) != 0 }

// Intersects reports whether s and other share a kind.
func (s KindSet) Intersects(other KindSet) bool { return s&other != 0 }

// With returns s plus k.
func (s KindSet) With(k Kind) KindSet { return s | 1<<k }

// Without returns s minus other.
func (s KindSet) Without(other KindSet) KindSet { return s &^ other }

// Len returns the number of kinds in s.
func (s KindSet) Len() int { return bits.OnesCount32(uint32(s)) }

// Kinds returns the members of s in declaration order of the constants.
func (s KindSet) Kinds() []Kind {
	out := make([]Kind, 0, s.Len())
	for k := Kind(0); k < kindCount; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	if s == 0 {
		return "None"
	}
	names := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, "|")
}

// Category sets.
var (
	VariableKinds = KindsOf(KindFunctionScopedVariable, KindBlockScopedVariable)
	EnumKinds     = KindsOf(KindRegularEnum, KindConstEnum)
	ModuleKinds   = KindsOf(KindValueModule, KindNamespaceModule)
	AccessorKinds = KindsOf(KindGetAccessor, KindSetAccessor)

	ValueKinds = VariableKinds | EnumKinds | KindsOf(KindProperty, KindEnumMember, KindObjectLiteral,
		KindFunction, KindClass, KindValueModule, KindMethod, KindGetAccessor, KindSetAccessor)
	TypeKinds = EnumKinds | KindsOf(KindClass, KindInterface, KindEnumMember, KindTypeLiteral,
		KindTypeParameter, KindTypeAlias)
	NamespaceKinds = EnumKinds | ModuleKinds

	AllKinds = KindSet(1<<kindCount - 1)
)

// Facets are boolean properties of a symbol independent of its kinds.
type Facets uint8

const (
	FacetOptional Facets = 1 << iota
	FacetTransient
	FacetAssignment
	FacetModuleExports
	FacetExported
	FacetAmbient
)

var facetNames = []string{"Optional", "Transient", "Assignment", "ModuleExports", "Exported", "Ambient"}

func (f Facets) String() string {
	if f == 0 {
		return "None"
	}
	var names []string
	for i, name := range facetNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}
