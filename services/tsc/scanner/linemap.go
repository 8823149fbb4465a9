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

import "sort"

// LineAndCharacter is a zero-based line and byte column.
type LineAndCharacter struct {
	Line      int
	Character int
}

// ComputeLineStarts returns the byte offset of the start of every line.
// CR LF counts as a single terminator; LS and PS terminate lines too.
func ComputeLineStarts(text string) []int {
	starts := []int{0}
	pos := 0
	for pos < len(text) {
		ch, size := runeAt(text, pos)
		pos += size
		switch ch {
		case chCarriageReturn:
			if byteAt(text, pos) == '\n' {
				pos++
			}
			starts = append(starts, pos)
		case chLineFeed, chLineSeparator, chParagraphSeparator:
			starts = append(starts, pos)
		}
	}
	return starts
}

// ComputeLineAndCharacterOfPosition maps pos to its line and column using
// line starts from ComputeLineStarts. Positions before the text map to 0:0.
func ComputeLineAndCharacterOfPosition(lineStarts []int, pos int) LineAndCharacter {
	if pos < 0 || len(lineStarts) == 0 {
		return LineAndCharacter{}
	}
	line := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > pos }) - 1
	if line < 0 {
		line = 0
	}
	return LineAndCharacter{Line: line, Character: pos - lineStarts[line]}
}
