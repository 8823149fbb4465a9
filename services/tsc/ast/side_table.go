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

import "sync"

// SideTable attaches out-of-band data of type T to nodes by identity.
//
// Description:
//
//	Passes keep their per-node results in side-tables instead of adding
//	fields to Node, so each pass pays only for its own data. The zero
//	value is ready to use.
//
// Thread Safety: Safe for concurrent use.
type SideTable[T any] struct {
	mu sync.RWMutex
	m  map[NodeID]T
}

// Get returns the value for n and whether it was present.
func (t *SideTable[T]) Get(n *Node) (T, bool) {
	var zero T
	if n == nil {
		return zero, false
	}
	id := n.ID()
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.m[id]
	if !ok {
		return zero, false
	}
	return v, true
}

// Lookup returns the value for n, or the zero value.
func (t *SideTable[T]) Lookup(n *Node) T {
	v, _ := t.Get(n)
	return v
}

// Set stores v for n.
func (t *SideTable[T]) Set(n *Node, v T) {
	id := n.ID()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m == nil {
		t.m = make(map[NodeID]T)
	}
	t.m[id] = v
}

// Has reports whether n has a value.
func (t *SideTable[T]) Has(n *Node) bool {
	_, ok := t.Get(n)
	return ok
}

// Delete removes n's value.
func (t *SideTable[T]) Delete(n *Node) {
	if n == nil {
		return
	}
	id := n.ID()
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, id)
}

// Len returns the number of nodes with a value.
func (t *SideTable[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}
