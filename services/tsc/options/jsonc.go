// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package options

import (
	"strings"

	"github.com/AleutianAI/tsfront/services/tsc/scanner"
)

// StripJSONComments turns tsconfig-style JSON (comments, trailing commas,
// tabs) into plain JSON that the YAML decoder accepts. Byte offsets and
// line numbers are preserved: removed text is replaced by spaces.
func StripJSONComments(text string) string {
	out := []byte(text)
	inString := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '\t':
			out[i] = ' '
		case '/':
			if i+1 < len(text) && (text[i+1] == '/' || text[i+1] == '*') {
				end := scanner.SkipTrivia(text, i, scanner.TriviaOptions{})
				blank(out, i, end)
				i = end - 1
			}
		case ',':
			next := scanner.SkipTrivia(text, i+1, scanner.TriviaOptions{})
			if next < len(text) && (text[next] == '}' || text[next] == ']') {
				out[i] = ' '
			}
		}
	}
	return string(out)
}

func blank(b []byte, start, end int) {
	for i := start; i < end && i < len(b); i++ {
		if b[i] != '\n' && b[i] != '\r' {
			b[i] = ' '
		}
	}
}

func isJSONConfig(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".json")
}
