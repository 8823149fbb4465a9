// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scanner

import "testing"

func TestIsWhiteSpaceSingleLine(t *testing.T) {
	yes := []rune{' ', '\t', 0x0B, 0x0C, 0x00A0, 0x0085, 0x1680, 0x2000, 0x2005, 0x200B, 0x202F, 0x205F, 0x3000, 0xFEFF}
	for _, ch := range yes {
		if !IsWhiteSpaceSingleLine(ch) {
			t.Errorf("IsWhiteSpaceSingleLine(%U) = false, want true", ch)
		}
	}
	no := []rune{'\n', '\r', 0x2028, 0x2029, 'a', 0x200C}
	for _, ch := range no {
		if IsWhiteSpaceSingleLine(ch) {
			t.Errorf("IsWhiteSpaceSingleLine(%U) = true, want false", ch)
		}
	}
}

func TestIsLineBreak(t *testing.T) {
	for _, ch := range []rune{'\n', '\r', 0x2028, 0x2029} {
		if !IsLineBreak(ch) {
			t.Errorf("IsLineBreak(%U) = false, want true", ch)
		}
	}
	if IsLineBreak(0x0085) {
		t.Error("next-line is whitespace, not a line break")
	}
}

func TestIdentifierClassification(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"x", true},
		{"_private", true},
		{"$el", true},
		{"caf\u00e9", true},
		{"\u0915\u094d", true}, // devanagari letter followed by a combining mark
		{"a\u200cb", true},
		{"1abc", false},
		{"a-b", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsIdentifierText(tt.text); got != tt.want {
			t.Errorf("IsIdentifierText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDigits(t *testing.T) {
	if !IsHexDigit('f') || !IsHexDigit('A') || IsHexDigit('g') {
		t.Error("hex digit classification is wrong")
	}
	if !IsOctalDigit('7') || IsOctalDigit('8') {
		t.Error("octal digit classification is wrong")
	}
}

func TestLineStarts(t *testing.T) {
	text := "a\r\nbc\nd\u2028e"
	starts := ComputeLineStarts(text)
	want := []int{0, 3, 6, 10}
	if len(starts) != len(want) {
		t.Fatalf("len(starts) = %d, want %d (%v)", len(starts), len(want), starts)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("starts[%d] = %d, want %d", i, starts[i], want[i])
		}
	}

	lc := ComputeLineAndCharacterOfPosition(starts, 4)
	if lc.Line != 1 || lc.Character != 1 {
		t.Errorf("position 4 = %d:%d, want 1:1", lc.Line, lc.Character)
	}
}
