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

// Table maps escaped names to symbols, preserving insertion order. It
// never holds two entries for one name. A nil *Table reads as empty.
type Table struct {
	names   []string
	symbols map[string]*Symbol
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{symbols: make(map[string]*Symbol)}
}

// Get returns the symbol for name or nil.
func (t *Table) Get(name string) *Symbol {
	if t == nil {
		return nil
	}
	return t.symbols[name]
}

// Lookup returns the symbol for name and whether it exists.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	if t == nil {
		return nil, false
	}
	s, ok := t.symbols[name]
	return s, ok
}

// Has reports whether name is present.
func (t *Table) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Set stores s under name. Replacing an entry keeps its position.
func (t *Table) Set(name string, s *Symbol) {
	if t.symbols == nil {
		t.symbols = make(map[string]*Symbol)
	}
	if _, ok := t.symbols[name]; !ok {
		t.names = append(t.names, name)
	}
	t.symbols[name] = s
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the escaped names in insertion order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Symbols returns the symbols in insertion order.
func (t *Table) Symbols() []*Symbol {
	if t == nil {
		return nil
	}
	out := make([]*Symbol, 0, len(t.names))
	for _, name := range t.names {
		out = append(out, t.symbols[name])
	}
	return out
}

// Each calls fn for every entry in insertion order until fn returns
// false.
func (t *Table) Each(fn func(name string, s *Symbol) bool) {
	if t == nil {
		return
	}
	for _, name := range t.names {
		if !fn(name, t.symbols[name]) {
			return
		}
	}
}
