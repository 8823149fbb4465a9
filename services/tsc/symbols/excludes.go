// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symbols

// excludes[k] is the set of existing kinds a new declaration of kind k
// cannot merge with in the same table.
var excludes = [kindCount]KindSet{
	KindFunctionScopedVariable: ValueKinds.Without(KindsOf(KindFunctionScopedVariable)),
	KindBlockScopedVariable:    ValueKinds,
	KindProperty:               0,
	KindEnumMember:             ValueKinds | TypeKinds,
	KindFunction:               ValueKinds.Without(KindsOf(KindFunction, KindValueModule)),
	KindClass:                  (ValueKinds | TypeKinds).Without(KindsOf(KindValueModule, KindInterface)),
	KindInterface:              TypeKinds.Without(KindsOf(KindInterface, KindClass)),
	KindConstEnum:              (ValueKinds | TypeKinds).Without(KindsOf(KindConstEnum)),
	KindRegularEnum:            (ValueKinds | TypeKinds).Without(KindsOf(KindRegularEnum, KindValueModule)),
	KindValueModule:            ValueKinds.Without(KindsOf(KindFunction, KindClass, KindRegularEnum, KindValueModule)),
	KindNamespaceModule:        0,
	KindTypeLiteral:            0,
	KindObjectLiteral:          0,
	KindMethod:                 ValueKinds.Without(KindsOf(KindMethod)),
	KindConstructor:            0,
	KindGetAccessor:            ValueKinds.Without(KindsOf(KindSetAccessor)),
	KindSetAccessor:            ValueKinds.Without(KindsOf(KindGetAccessor)),
	KindSignature:              0,
	KindTypeParameter:          TypeKinds.Without(KindsOf(KindTypeParameter)),
	KindTypeAlias:              TypeKinds,
	KindExportValue:            0,
	KindAlias:                  KindsOf(KindAlias),
	KindPrototype:              0,
	KindExportStar:             0,
}

// ParameterExcludes applies to parameter declarations, which are
// function-scoped variables that may not merge with any value.
var ParameterExcludes = ValueKinds

// ExcludesOf returns the kinds a new declaration of kind k conflicts with.
func ExcludesOf(k Kind) KindSet {
	if k >= kindCount {
		return 0
	}
	return excludes[k]
}

// Excludes reports whether a new declaration of kind newKind conflicts
// with an existing symbol that already has kind existing.
func Excludes(newKind, existing Kind) bool {
	return ExcludesOf(newKind).Has(existing)
}
