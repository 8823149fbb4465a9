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
	"strings"
)

// mergeConflictMarkerLength is the run length of a version-control
// conflict marker ("<<<<<<<", "|||||||", "=======", ">>>>>>>").
const mergeConflictMarkerLength = 7

// TriviaOptions tunes SkipTrivia.
type TriviaOptions struct {
	// StopAfterLineBreak returns right after the first line terminator.
	StopAfterLineBreak bool

	// StopAtComments treats '/' as the end of trivia instead of a comment start.
	StopAtComments bool

	// InJSDoc allows one '*' following each line break to be skipped as
	// a JSDoc continuation star.
	InJSDoc bool
}

// SkipTrivia returns the position of the first non-trivia character at or
// after pos.
//
// Description:
//
//	Skips whitespace, line breaks, single-line and multi-line comments,
//	a shebang at position 0, and version-control conflict markers that
//	start a line. Synthesized positions (negative) are returned unchanged.
//	Reading past the end of text stops the scan; an unterminated block
//	comment consumes the rest of the text.
//
// Inputs:
//
//	text - Source text.
//	pos - Starting byte offset.
//	opts - Scan modifiers. The zero value skips all trivia.
//
// Outputs:
//
//	int - Offset of the next token start, or len(text) if only trivia remains.
//
// Thread Safety: Safe for concurrent use (pure function).
func SkipTrivia(text string, pos int, opts TriviaOptions) int {
	if pos < 0 {
		return pos
	}

	canConsumeStar := false
	for {
		ch, size := runeAt(text, pos)
		switch ch {
		case chCarriageReturn, chLineFeed:
			if ch == chCarriageReturn && byteAt(text, pos+1) == '\n' {
				pos++
			}
			pos++
			if opts.StopAfterLineBreak {
				return pos
			}
			canConsumeStar = opts.InJSDoc
			continue

		case chTab, chVerticalTab, chFormFeed, chSpace:
			pos++
			continue

		case '/':
			if opts.StopAtComments {
				return pos
			}
			next := byteAt(text, pos+1)
			if next == '/' {
				pos = skipSingleLineComment(text, pos+2)
				canConsumeStar = false
				continue
			}
			if next == '*' {
				pos = skipMultiLineComment(text, pos+2)
				canConsumeStar = false
				continue
			}
			return pos

		case '<', '|', '=', '>':
			if IsConflictMarkerTrivia(text, pos) {
				pos = ScanConflictMarkerTrivia(text, pos)
				canConsumeStar = false
				continue
			}
			return pos

		case '#':
			if pos == 0 && IsShebangTrivia(text, pos) {
				pos = ScanShebangTrivia(text, pos)
				canConsumeStar = false
				continue
			}
			return pos

		case '*':
			if canConsumeStar {
				pos++
				canConsumeStar = false
				continue
			}
			return pos

		default:
			if ch > maxASCIICharacter && IsWhiteSpaceLike(ch) {
				pos += size
				continue
			}
			return pos
		}
	}
}

// skipSingleLineComment advances from the first character after "//" to
// the line terminator that ends the comment.
func skipSingleLineComment(text string, pos int) int {
	for pos < len(text) {
		ch, size := runeAt(text, pos)
		if IsLineBreak(ch) {
			break
		}
		pos += size
	}
	return pos
}

// skipMultiLineComment advances from the first character after "/*" past
// the closing "*/", or to the end of text if the comment is unterminated.
func skipMultiLineComment(text string, pos int) int {
	end := strings.Index(text[pos:], "*/")
	if end < 0 {
		return len(text)
	}
	return pos + end + 2
}

// CouldStartTrivia reports whether the character at pos may begin trivia.
// Keep in sync with SkipTrivia.
func CouldStartTrivia(text string, pos int) bool {
	ch, _ := runeAt(text, pos)
	switch ch {
	case chCarriageReturn, chLineFeed, chTab, chVerticalTab, chFormFeed, chSpace,
		'/', '<', '|', '=', '>':
		return true
	case '#':
		return pos == 0
	default:
		return ch > maxASCIICharacter && IsWhiteSpaceLike(ch)
	}
}

// IsConflictMarkerTrivia reports whether a conflict marker starts at pos.
//
// The marker must start a line, consist of seven identical '<', '|', '='
// or '>' characters, and (except for '=') be followed by a space.
func IsConflictMarkerTrivia(text string, pos int) bool {
	if pos < 0 || pos >= len(text) {
		return false
	}
	if pos != 0 {
		prev, _ := lastRuneBefore(text, pos)
		if !IsLineBreak(prev) {
			return false
		}
	}
	ch := text[pos]
	if pos+mergeConflictMarkerLength >= len(text) {
		return false
	}
	for i := 0; i < mergeConflictMarkerLength; i++ {
		if text[pos+i] != ch {
			return false
		}
	}
	return ch == '=' || text[pos+mergeConflictMarkerLength] == ' '
}

// ScanConflictMarkerTrivia skips a conflict marker starting at pos.
//
// Description:
//
//	'<' and '>' markers consume the rest of their line. '|' and '=' markers
//	consume everything up to the next '=' or '>' marker, which covers the
//	"other side" of the conflict so it is not scanned as code.
func ScanConflictMarkerTrivia(text string, pos int) int {
	ch := text[pos]
	if ch == '<' || ch == '>' {
		for pos < len(text) {
			r, size := runeAt(text, pos)
			if IsLineBreak(r) {
				break
			}
			pos += size
		}
		return pos
	}

	for pos < len(text) {
		current := text[pos]
		if (current == '=' || current == '>') && current != ch && IsConflictMarkerTrivia(text, pos) {
			break
		}
		pos++
	}
	return pos
}

// IsShebangTrivia reports whether a "#!" sequence starts at pos.
func IsShebangTrivia(text string, pos int) bool {
	return pos == 0 && strings.HasPrefix(text, "#!")
}

// ScanShebangTrivia skips the shebang line starting at pos.
func ScanShebangTrivia(text string, pos int) int {
	return skipSingleLineComment(text, pos+2)
}

// GetShebang returns the shebang line of text without its terminator, or
// the empty string when text does not start with one.
func GetShebang(text string) string {
	if !IsShebangTrivia(text, 0) {
		return ""
	}
	return text[:ScanShebangTrivia(text, 0)]
}

// lastRuneBefore decodes the character that ends right before pos.
func lastRuneBefore(text string, pos int) (rune, int) {
	b := text[pos-1]
	if b < 0x80 {
		return rune(b), 1
	}
	start := pos - 1
	for start > 0 && pos-start < 4 && !isRuneStart(text[start]) {
		start--
	}
	r, size := runeAt(text, start)
	return r, size
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
