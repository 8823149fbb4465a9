// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scanner holds the character classifier and the trivia scanner
// used ahead of every token.
//
// Positions are byte offsets into UTF-8 source text. Non-ASCII characters
// are decoded with unicode/utf8 and advance the cursor by their encoded width.
package scanner

import (
	"unicode"
	"unicode/utf8"
)

// Character codes referenced by the classifier and the trivia scanner.
const (
	chLineFeed           rune = '\n'
	chCarriageReturn     rune = '\r'
	chTab                rune = '\t'
	chVerticalTab        rune = 0x0B
	chFormFeed           rune = 0x0C
	chSpace              rune = ' '
	chNonBreakingSpace   rune = 0x00A0
	chNextLine           rune = 0x0085
	chOgham              rune = 0x1680
	chEnQuad             rune = 0x2000
	chZeroWidthSpace     rune = 0x200B
	chNarrowNoBreakSpace rune = 0x202F
	chMathematicalSpace  rune = 0x205F
	chIdeographicSpace   rune = 0x3000
	chByteOrderMark      rune = 0xFEFF
	chLineSeparator      rune = 0x2028
	chParagraphSeparator rune = 0x2029
	chZeroWidthNonJoiner rune = 0x200C
	chZeroWidthJoiner    rune = 0x200D

	maxASCIICharacter rune = 0x7F

	// eof is returned by runeAt for positions outside the text.
	eof rune = -1
)

// IsWhiteSpaceLike reports whether ch is any whitespace, including line breaks.
func IsWhiteSpaceLike(ch rune) bool {
	return IsWhiteSpaceSingleLine(ch) || IsLineBreak(ch)
}

// IsWhiteSpaceSingleLine reports whether ch is whitespace that does not
// terminate a line.
//
// Note: nextLine is in the Zs space, and should be considered to be a
// whitespace. It is explicitly not a line-break as it isn't in the exact
// set specified by ECMAScript.
func IsWhiteSpaceSingleLine(ch rune) bool {
	switch {
	case ch == chSpace,
		ch == chTab,
		ch == chVerticalTab,
		ch == chFormFeed,
		ch == chNonBreakingSpace,
		ch == chNextLine,
		ch == chOgham,
		ch >= chEnQuad && ch <= chZeroWidthSpace,
		ch == chNarrowNoBreakSpace,
		ch == chMathematicalSpace,
		ch == chIdeographicSpace,
		ch == chByteOrderMark:
		return true
	}
	return false
}

// IsLineBreak reports whether ch terminates a line: LF, CR, LS or PS.
//
// Other new line or line breaking characters are treated as white space
// but are not considered line terminators.
func IsLineBreak(ch rune) bool {
	return ch == chLineFeed ||
		ch == chCarriageReturn ||
		ch == chLineSeparator ||
		ch == chParagraphSeparator
}

// IsDigit reports whether ch is an ASCII decimal digit.
func IsDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// IsOctalDigit reports whether ch is an ASCII octal digit.
func IsOctalDigit(ch rune) bool {
	return ch >= '0' && ch <= '7'
}

// IsHexDigit reports whether ch is an ASCII hexadecimal digit.
func IsHexDigit(ch rune) bool {
	return IsDigit(ch) || (ch >= 'A' && ch <= 'F') || (ch >= 'a' && ch <= 'f')
}

// IsASCIILetter reports whether ch is in [A-Za-z].
func IsASCIILetter(ch rune) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

// IsWordCharacter reports whether ch matches the regular expression class \w.
func IsWordCharacter(ch rune) bool {
	return IsASCIILetter(ch) || IsDigit(ch) || ch == '_'
}

// IsIdentifierStart reports whether ch may begin an identifier.
func IsIdentifierStart(ch rune) bool {
	if ch <= maxASCIICharacter {
		return IsASCIILetter(ch) || ch == '$' || ch == '_'
	}
	return unicode.IsLetter(ch) || unicode.Is(unicode.Nl, ch) ||
		unicode.Is(unicode.Other_ID_Start, ch)
}

// IsIdentifierPart reports whether ch may continue an identifier.
func IsIdentifierPart(ch rune) bool {
	if ch <= maxASCIICharacter {
		return IsWordCharacter(ch) || ch == '$'
	}
	if ch == chZeroWidthNonJoiner || ch == chZeroWidthJoiner {
		return true
	}
	return IsIdentifierStart(ch) ||
		unicode.In(ch, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc) ||
		unicode.Is(unicode.Other_ID_Continue, ch)
}

// IsIdentifierText reports whether name is a single, complete identifier.
func IsIdentifierText(name string) bool {
	if name == "" {
		return false
	}
	for i, ch := range name {
		if i == 0 {
			if !IsIdentifierStart(ch) {
				return false
			}
			continue
		}
		if !IsIdentifierPart(ch) {
			return false
		}
	}
	return true
}

// runeAt decodes the character at byte offset pos.
//
// Outputs:
//
//	rune - The decoded character, or eof when pos is outside the text.
//	int - The encoded width in bytes (0 at eof).
func runeAt(text string, pos int) (rune, int) {
	if pos < 0 || pos >= len(text) {
		return eof, 0
	}
	b := text[pos]
	if b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRuneInString(text[pos:])
}

// byteAt returns the byte at pos, or 0 when pos is outside the text.
func byteAt(text string, pos int) byte {
	if pos < 0 || pos >= len(text) {
		return 0
	}
	return text[pos]
}
