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

import (
	"slices"
	"sync/atomic"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
)

var nextSymbolID atomic.Uint64

// Symbol is a named or synthetic entity merged from one or more
// declarations.
//
// Symbols are created and mutated by a single binder pass over one file.
// After binding completes they are read-only and may be shared across
// goroutines.
type Symbol struct {
	// EscapedName is the table key; see EscapeLeadingUnderscores.
	EscapedName string

	// Facets holds orthogonal boolean properties.
	Facets Facets

	// Declarations lists declaring nodes in source order.
	Declarations []*ast.Node

	// ValueDeclaration is the declaration chosen to represent the value
	// side of the symbol, if any.
	ValueDeclaration *ast.Node

	Members       *Table
	Exports       *Table
	GlobalExports *Table

	// Parent is the enclosing container symbol. It is a back-reference,
	// never an ownership edge.
	Parent *Symbol

	// ExportSymbol links a module-local symbol to its exported twin.
	ExportSymbol *Symbol

	// ConstEnumOnlyModule is set for namespaces containing only const
	// enums and types.
	ConstEnumOnlyModule bool

	// IsReplaceableByMethod marks JS property assignments a later method
	// declaration may replace.
	IsReplaceableByMethod bool

	id               uint64
	kinds            KindSet
	valueHasBody     bool
	valueIsModule    bool
	declarationKinds []KindSet
}

// New creates a symbol with the given kinds and a fresh process-unique
// id.
func New(escapedName string, kinds ...Kind) *Symbol {
	return &Symbol{
		EscapedName: escapedName,
		kinds:       KindsOf(kinds...),
		id:          nextSymbolID.Add(1),
	}
}

// ID returns the symbol's process-unique id.
func (s *Symbol) ID() uint64 { return s.id }

// Kinds returns every kind merged into the symbol.
func (s *Symbol) Kinds() KindSet { return s.kinds }

// Has reports whether the symbol has kind k.
func (s *Symbol) Has(k Kind) bool { return s != nil && s.kinds.Has(k) }

// HasAny reports whether the symbol has any kind in set.
func (s *Symbol) HasAny(set KindSet) bool { return s != nil && s.kinds.Intersects(set) }

// AddKind merges k into the symbol without adding a declaration.
func (s *Symbol) AddKind(k Kind) { s.kinds = s.kinds.With(k) }

// IsValue reports whether the symbol has a value meaning.
func (s *Symbol) IsValue() bool { return s.HasAny(ValueKinds) }

// IsType reports whether the symbol has a type meaning.
func (s *Symbol) IsType() bool { return s.HasAny(TypeKinds) }

// IsNamespace reports whether the symbol has a namespace meaning.
func (s *Symbol) IsNamespace() bool { return s.HasAny(NamespaceKinds) }

// Name returns the unescaped display name.
func (s *Symbol) Name() string { return UnescapeLeadingUnderscores(s.EscapedName) }

// DeclarationKinds returns the kinds the i-th declaration was added
// with.
func (s *Symbol) DeclarationKinds(i int) KindSet {
	return s.declarationKinds[i]
}

// Conflicts reports whether a new declaration with the given excludes
// set collides with the kinds already merged into s.
func (s *Symbol) Conflicts(excludes KindSet) bool {
	return s.kinds.Intersects(excludes)
}

// AddDeclaration merges kinds into the symbol and appends node to its
// declarations.
//
// Description:
//
//	kinds may be empty for declarations that only name a symbol, such as
//	the module-local twin of an exported type. A node already in the
//	declaration list is not added twice. For value kinds the value
//	declaration is updated: the first value declaration wins unless a
//	later one has an initializer or body and the current one does not,
//	or the current one is a namespace and the new one is a function,
//	class or enum.
//
// Inputs:
//
//	node - The declaring node. Nil nodes only merge kinds.
//	kinds - The kinds this declaration introduces.
//	hasBody - Whether node carries an initializer or body.
func (s *Symbol) AddDeclaration(node *ast.Node, kinds KindSet, hasBody bool) {
	s.kinds |= kinds
	if node == nil || slices.Contains(s.Declarations, node) {
		return
	}
	s.Declarations = append(s.Declarations, node)
	s.declarationKinds = append(s.declarationKinds, kinds)

	if !kinds.Intersects(ValueKinds) {
		return
	}
	isModule := kinds.Has(KindValueModule)
	switch {
	case s.ValueDeclaration == nil:
	case s.valueIsModule && !isModule:
	case !s.valueHasBody && hasBody && s.valueIsModule == isModule:
	default:
		return
	}
	s.ValueDeclaration = node
	s.valueHasBody = hasBody
	s.valueIsModule = isModule
}

// EnsureMembers returns the member table, creating it on first use.
func (s *Symbol) EnsureMembers() *Table {
	if s.Members == nil {
		s.Members = NewTable()
	}
	return s.Members
}

// EnsureExports returns the export table, creating it on first use.
func (s *Symbol) EnsureExports() *Table {
	if s.Exports == nil {
		s.Exports = NewTable()
	}
	return s.Exports
}
