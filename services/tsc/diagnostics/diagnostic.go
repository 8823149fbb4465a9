// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diagnostics defines compiler messages and the diagnostics the
// front end reports against a (file, span).
package diagnostics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Category classifies a diagnostic's severity.
type Category int

const (
	CategoryWarning Category = iota
	CategoryError
	CategorySuggestion
	CategoryMessage
)

// String returns the lower-case category name used in rendered output.
func (c Category) String() string {
	switch c {
	case CategoryWarning:
		return "warning"
	case CategoryError:
		return "error"
	case CategorySuggestion:
		return "suggestion"
	case CategoryMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Message is a catalog entry: a stable code, default category and a text
// template with {0}-style placeholders.
type Message struct {
	Code     int
	Category Category
	Key      string
	Text     string
}

// Format substitutes args into the message template.
func (m *Message) Format(args ...any) string {
	if len(args) == 0 {
		return m.Text
	}
	text := m.Text
	for i, arg := range args {
		text = strings.ReplaceAll(text, "{"+strconv.Itoa(i)+"}", fmt.Sprint(arg))
	}
	return text
}

// Diagnostic is one reported problem located by file and byte span.
type Diagnostic struct {
	File     string
	Start    int
	Length   int
	Code     int
	Category Category
	Text     string
}

// New creates a diagnostic for msg at [start, start+length) in file using
// the message's default category.
func New(file string, start, length int, msg *Message, args ...any) *Diagnostic {
	return &Diagnostic{
		File:     file,
		Start:    start,
		Length:   length,
		Code:     msg.Code,
		Category: msg.Category,
		Text:     msg.Format(args...),
	}
}

// NewWithCategory is New with an explicit category, for configuration-
// dependent severities (error vs suggestion).
func NewWithCategory(file string, start, length int, category Category, msg *Message, args ...any) *Diagnostic {
	d := New(file, start, length, msg, args...)
	d.Category = category
	return d
}

// End returns the exclusive end offset of the span.
func (d *Diagnostic) End() int {
	return d.Start + d.Length
}

// String renders "file(start): error TS1234: text".
func (d *Diagnostic) String() string {
	var b strings.Builder
	if d.File != "" {
		fmt.Fprintf(&b, "%s(%d): ", d.File, d.Start)
	}
	fmt.Fprintf(&b, "%s TS%d: %s", d.Category, d.Code, d.Text)
	return b.String()
}

// Compare orders diagnostics by file, start, length, code and text.
func Compare(a, b *Diagnostic) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	}
	if a.Start != b.Start {
		return cmpInt(a.Start, b.Start)
	}
	if a.Length != b.Length {
		return cmpInt(a.Length, b.Length)
	}
	if a.Code != b.Code {
		return cmpInt(a.Code, b.Code)
	}
	return strings.Compare(a.Text, b.Text)
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	return 1
}

// Sort orders diagnostics in place by Compare.
func Sort(diags []*Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool { return Compare(diags[i], diags[j]) < 0 })
}

// Deduplicate drops adjacent duplicates from a sorted slice, reusing its
// backing array.
func Deduplicate(diags []*Diagnostic) []*Diagnostic {
	if len(diags) < 2 {
		return diags
	}
	out := diags[:1]
	for _, d := range diags[1:] {
		if Compare(out[len(out)-1], d) != 0 {
			out = append(out, d)
		}
	}
	return out
}

// SortAndDeduplicate sorts diagnostics and drops exact duplicates.
func SortAndDeduplicate(diags []*Diagnostic) []*Diagnostic {
	Sort(diags)
	return Deduplicate(diags)
}

// CountByCategory returns how many diagnostics have the given category.
func CountByCategory(diags []*Diagnostic, category Category) int {
	n := 0
	for _, d := range diags {
		if d.Category == category {
			n++
		}
	}
	return n
}

// Collection accumulates diagnostics from concurrent producers.
//
// Thread Safety: Safe for concurrent use.
type Collection struct {
	mu    sync.Mutex
	diags []*Diagnostic
}

// Add appends diagnostics to the collection.
func (c *Collection) Add(diags ...*Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, diags...)
}

// Len returns the number of collected diagnostics.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}

// Sorted returns a sorted, deduplicated copy of the collected diagnostics.
func (c *Collection) Sorted() []*Diagnostic {
	c.mu.Lock()
	out := make([]*Diagnostic, len(c.diags))
	copy(out, c.diags)
	c.mu.Unlock()
	return SortAndDeduplicate(out)
}
