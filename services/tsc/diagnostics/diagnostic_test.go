// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diagnostics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFormat(t *testing.T) {
	assert.Equal(t, "Duplicate identifier 'x'.", DuplicateIdentifier.Format("x"))
	assert.Equal(t, "Unreachable code detected.", UnreachableCodeDetected.Format())
	assert.Equal(t,
		"Static property 'name' conflicts with built-in property 'Function.name' of constructor function 'C'.",
		StaticPropertyConflictsWithFunction.Format("name", "C"))
}

func TestNew(t *testing.T) {
	d := New("a.ts", 4, 3, UnusedLabel)
	assert.Equal(t, 7028, d.Code)
	assert.Equal(t, CategoryError, d.Category)
	assert.Equal(t, 7, d.End())
	assert.Equal(t, "a.ts(4): error TS7028: Unused label.", d.String())

	s := NewWithCategory("a.ts", 0, 1, CategorySuggestion, UnreachableCodeDetected)
	assert.Equal(t, CategorySuggestion, s.Category)
}

func TestSortAndDeduplicate(t *testing.T) {
	diags := []*Diagnostic{
		New("b.ts", 0, 1, UnusedLabel),
		New("a.ts", 10, 1, UnusedLabel),
		New("a.ts", 2, 1, DuplicateIdentifier, "x"),
		New("a.ts", 10, 1, UnusedLabel),
	}
	out := SortAndDeduplicate(diags)
	require.Len(t, out, 3)
	assert.Equal(t, "a.ts", out[0].File)
	assert.Equal(t, 2, out[0].Start)
	assert.Equal(t, 10, out[1].Start)
	assert.Equal(t, "b.ts", out[2].File)
}

func TestCollection_ConcurrentAdd(t *testing.T) {
	var c Collection
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Add(New("f.ts", i, 1, UnusedLabel))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, c.Len())
	sorted := c.Sorted()
	require.Len(t, sorted, 8)
	for i, d := range sorted {
		assert.Equal(t, i, d.Start)
	}
	assert.Equal(t, 8, CountByCategory(sorted, CategoryError))
}
