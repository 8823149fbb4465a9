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
	"sort"
)

func (c *Checker) strictNullChecks() bool {
	if c.compilerOptions == nil {
		return false
	}
	return c.compilerOptions.GetStrictOptionValue(c.compilerOptions.StrictNullChecks)
}

// GetUnionType returns the union of types.
//
// Description:
//
//	Nested unions are flattened and duplicates removed. never is dropped,
//	any and unknown absorb everything else, and a union containing both
//	boolean literals is rewritten to use boolean. A union of one type is
//	that type; an empty union is never.
//
// Thread Safety: Safe for concurrent use.
func (c *Checker) GetUnionType(types ...*Type) *Type {
	var flat []*Type
	seen := make(map[uint32]bool)
	var includes TypeFlags
	var add func(t *Type)
	add = func(t *Type) {
		if t == nil {
			return
		}
		if t.Flags&TypeFlagsUnion != 0 && t != c.boolean {
			for _, member := range t.Types {
				add(member)
			}
			return
		}
		if t == c.boolean {
			add(c.falseType)
			add(c.trueType)
			return
		}
		includes |= t.Flags
		if t.Flags&TypeFlagsNever != 0 || seen[t.ID] {
			return
		}
		seen[t.ID] = true
		flat = append(flat, t)
	}
	for _, t := range types {
		add(t)
	}

	switch {
	case includes&TypeFlagsAny != 0:
		for _, t := range flat {
			if t == c.errorType {
				return c.errorType
			}
		}
		return c.any
	case includes&TypeFlagsUnknown != 0:
		return c.unknown
	}
	if seen[c.falseType.ID] && seen[c.trueType.ID] {
		kept := flat[:0]
		inserted := false
		for _, t := range flat {
			if t == c.falseType || t == c.trueType {
				if !inserted {
					kept = append(kept, c.boolean)
					inserted = true
				}
				continue
			}
			kept = append(kept, t)
		}
		flat = kept
	}
	switch len(flat) {
	case 0:
		return c.never
	case 1:
		return flat[0]
	}
	return c.unionOf(flat)
}

// unionOf returns the cached union type with exactly members.
func (c *Checker) unionOf(members []*Type) *Type {
	sorted := make([]*Type, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	key := literalKey{flags: TypeFlagsUnion, value: unionKey(sorted)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.literalTypes[key]; ok {
		return t
	}
	t := c.newType(TypeFlagsUnion)
	t.Types = members
	c.literalTypes[key] = t
	return t
}

func unionKey(members []*Type) string {
	buf := make([]byte, 0, len(members)*6)
	for _, m := range members {
		buf = fmt.Appendf(buf, "%d,", m.ID)
	}
	return string(buf)
}

// GetBaseTypeOfLiteralType maps a literal type to its primitive: "a" to
// string, 1 to number, true to boolean. Unions map member-wise.
func (c *Checker) GetBaseTypeOfLiteralType(t *Type) *Type {
	switch {
	case t == nil:
		return nil
	case t.Flags&TypeFlagsStringLiteral != 0:
		return c.str
	case t.Flags&TypeFlagsNumberLiteral != 0:
		return c.number
	case t.Flags&TypeFlagsBigIntLiteral != 0:
		return c.bigint
	case t.Flags&TypeFlagsBooleanLiteral != 0:
		return c.boolean
	case t.Flags&TypeFlagsUnion != 0 && t != c.boolean:
		bases := make([]*Type, len(t.Types))
		for i, member := range t.Types {
			bases[i] = c.GetBaseTypeOfLiteralType(member)
		}
		return c.GetUnionType(bases...)
	}
	return t
}

// GetWidenedType returns the type a mutable location infers from t.
// Without strictNullChecks, null and undefined widen to any.
func (c *Checker) GetWidenedType(t *Type) *Type {
	if t == nil || c.strictNullChecks() {
		return t
	}
	if t.Flags&TypeFlagsNullable != 0 {
		return c.any
	}
	if t.Flags&TypeFlagsUnion != 0 && t != c.boolean {
		widened := make([]*Type, 0, len(t.Types))
		for _, member := range t.Types {
			if member.Flags&TypeFlagsNullable == 0 {
				widened = append(widened, member)
			}
		}
		if len(widened) == 0 {
			return c.any
		}
		return c.GetUnionType(widened...)
	}
	return t
}

// IsNullableType reports whether t admits null or undefined.
func (c *Checker) IsNullableType(t *Type) bool {
	if t == nil {
		return false
	}
	if t.Flags&(TypeFlagsNullable|TypeFlagsAnyOrUnknown|TypeFlagsVoid) != 0 {
		return true
	}
	if t.Flags&TypeFlagsUnion != 0 {
		for _, member := range t.Types {
			if c.IsNullableType(member) {
				return true
			}
		}
	}
	return false
}

// GetNonNullableType removes null and undefined from t.
func (c *Checker) GetNonNullableType(t *Type) *Type {
	switch {
	case t == nil:
		return nil
	case t.Flags&TypeFlagsNullable != 0:
		return c.never
	case t.Flags&TypeFlagsUnion != 0 && t != c.boolean:
		kept := make([]*Type, 0, len(t.Types))
		for _, member := range t.Types {
			if member.Flags&TypeFlagsNullable == 0 {
				kept = append(kept, member)
			}
		}
		return c.GetUnionType(kept...)
	}
	return t
}

// IsTypeAssignableTo reports whether a value of source may be assigned to
// a location of target.
//
// Description:
//
//	Decides the relation for intrinsic, literal, enum and union types.
//	Structural comparison of two distinct object types is not performed
//	and returns ErrNotImplemented.
//
// Inputs:
//
//	ctx - Checked before the comparison.
//	source, target - Types produced by this checker.
//
// Outputs:
//
//	bool - True when assignable.
//	error - ctx.Err() or ErrNotImplemented.
func (c *Checker) IsTypeAssignableTo(ctx context.Context, source, target *Type) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if source == nil || target == nil {
		return false, nil
	}
	return c.isAssignable(source, target)
}

func (c *Checker) isAssignable(s, t *Type) (bool, error) {
	if s == t {
		return true, nil
	}
	switch {
	case t.Flags&TypeFlagsAnyOrUnknown != 0:
		return true, nil
	case s.Flags&TypeFlagsNever != 0:
		return true, nil
	case s.Flags&TypeFlagsAny != 0:
		return t.Flags&TypeFlagsNever == 0, nil
	case s.Flags&TypeFlagsUnknown != 0:
		return false, nil
	}

	if s.Flags&TypeFlagsUnion != 0 {
		for _, member := range s.Types {
			ok, err := c.isAssignable(member, t)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	if t.Flags&TypeFlagsUnion != 0 {
		var pending error
		for _, member := range t.Types {
			ok, err := c.isAssignable(s, member)
			if err != nil {
				pending = err
				continue
			}
			if ok {
				return true, nil
			}
		}
		return false, pending
	}

	if s.Flags&TypeFlagsNullable != 0 {
		if !c.strictNullChecks() {
			return true, nil
		}
		if s.Flags&TypeFlagsUndefined != 0 && t.Flags&TypeFlagsVoid != 0 {
			return true, nil
		}
		return false, nil
	}

	switch {
	case s.Flags&TypeFlagsStringLike != 0:
		return t.Flags&TypeFlagsString != 0, nil
	case s.Flags&TypeFlagsNumberLike != 0 && s.Flags&TypeFlagsEnum == 0:
		return t.Flags&TypeFlagsNumber != 0, nil
	case s.Flags&TypeFlagsBigIntLike != 0:
		return t.Flags&TypeFlagsBigInt != 0, nil
	case s.Flags&TypeFlagsBooleanLike != 0:
		return t.Flags&TypeFlagsBoolean != 0, nil
	case s.Flags&TypeFlagsESSymbolLike != 0:
		return t.Flags&TypeFlagsESSymbol != 0, nil
	case s.Flags&TypeFlagsEnum != 0:
		return t.Flags&TypeFlagsNumber != 0, nil
	case s.Flags&TypeFlagsVoid != 0:
		return false, nil
	}

	if s.Flags&(TypeFlagsObject|TypeFlagsNonPrimitive) != 0 {
		if t.Flags&TypeFlagsNonPrimitive != 0 {
			return true, nil
		}
		if t.Flags&TypeFlagsObject == 0 {
			return false, nil
		}
		if s.Symbol != nil && s.Symbol == t.Symbol && s.ObjectFlags == t.ObjectFlags {
			return true, nil
		}
		return false, fmt.Errorf("structural comparison of %s and %s: %w",
			c.TypeToString(s), c.TypeToString(t), ErrNotImplemented)
	}
	if s.Flags&TypeFlagsTypeParameter != 0 {
		return false, nil
	}
	return false, fmt.Errorf("assignability of %s: %w", s.Flags, ErrNotImplemented)
}
