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

import (
	"testing"
)

func TestSkipTrivia(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  int
		opts TriviaOptions
		want int
	}{
		{name: "no trivia", text: "a", pos: 0, want: 0},
		{name: "spaces and tabs", text: " \t x", pos: 0, want: 3},
		{name: "single-line comment", text: "// c\nx", pos: 0, want: 5},
		{name: "multi-line comment", text: "/* a */x", pos: 0, want: 7},
		{name: "unterminated multi-line comment", text: "/* open", pos: 0, want: 7},
		{name: "crlf counts once", text: "\r\nx", pos: 0, opts: TriviaOptions{StopAfterLineBreak: true}, want: 2},
		{name: "stop after first line break", text: "  \n  x", pos: 0, opts: TriviaOptions{StopAfterLineBreak: true}, want: 3},
		{name: "stop at comments", text: "//c\nx", pos: 0, opts: TriviaOptions{StopAtComments: true}, want: 0},
		{name: "lone slash is a token", text: "/x", pos: 0, want: 0},
		{name: "jsdoc star consumed", text: "\n * foo", pos: 0, opts: TriviaOptions{InJSDoc: true}, want: 4},
		{name: "star is a token outside jsdoc", text: "\n * foo", pos: 0, want: 3},
		{name: "only one jsdoc star per line", text: "\n ** x", pos: 0, opts: TriviaOptions{InJSDoc: true}, want: 3},
		{name: "jsdoc star not allowed after comment", text: "\n/**/*", pos: 0, opts: TriviaOptions{InJSDoc: true}, want: 5},
		{name: "shebang at start", text: "#!/usr/bin/env node\nx", pos: 0, want: 20},
		{name: "hash not at start", text: "x #!", pos: 2, want: 2},
		{name: "unicode whitespace", text: "\u00a0\u2028x", pos: 0, want: 5},
		{name: "synthesized position", text: "  x", pos: -1, want: -1},
		{name: "past end", text: "ab", pos: 5, want: 5},
		{name: "empty trailing content", text: "x  ", pos: 1, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SkipTrivia(tt.text, tt.pos, tt.opts); got != tt.want {
				t.Errorf("SkipTrivia(%q, %d) = %d, want %d", tt.text, tt.pos, got, tt.want)
			}
		})
	}
}

func TestSkipTrivia_ConflictMarkers(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  int
		want int
	}{
		{name: "ours marker skips line", text: "<<<<<<< HEAD\nx", pos: 0, want: 13},
		{name: "equals marker needs no space and skips other side", text: "=======\nfoo\n>>>>>>> branch\nx", pos: 0, want: 27},
		{name: "diff3 base marker", text: "||||||| base\nold\n=======\nx", pos: 0, want: 26},
		{name: "angle marker requires trailing space", text: "<<<<<<<x", pos: 0, want: 0},
		{name: "marker must start a line", text: " <<<<<<< a", pos: 1, want: 1},
		{name: "six characters is not a marker", text: "<<<<<< a", pos: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SkipTrivia(tt.text, tt.pos, TriviaOptions{}); got != tt.want {
				t.Errorf("SkipTrivia(%q, %d) = %d, want %d", tt.text, tt.pos, got, tt.want)
			}
		})
	}
}

func TestIsConflictMarkerTrivia(t *testing.T) {
	if !IsConflictMarkerTrivia("a\n>>>>>>> b", 2) {
		t.Error("expected marker after line break")
	}
	if IsConflictMarkerTrivia("=======", 0) {
		t.Error("marker flush with end of text must not match")
	}
	if IsConflictMarkerTrivia("", 0) {
		t.Error("empty text must not match")
	}
}

func TestGetShebang(t *testing.T) {
	if got := GetShebang("#!/bin/node\r\nlet x"); got != "#!/bin/node" {
		t.Errorf("GetShebang = %q, want %q", got, "#!/bin/node")
	}
	if got := GetShebang("let x"); got != "" {
		t.Errorf("GetShebang = %q, want empty", got)
	}
}

func TestCouldStartTrivia(t *testing.T) {
	for _, text := range []string{" ", "\n", "/", "<", "=", "\u3000"} {
		if !CouldStartTrivia(text, 0) {
			t.Errorf("CouldStartTrivia(%q) = false, want true", text)
		}
	}
	if CouldStartTrivia("a#", 1) {
		t.Error("'#' after position 0 cannot start trivia")
	}
}
