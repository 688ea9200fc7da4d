// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package markdown renders the fixed markdown subset produced by the analysis
// model into HTML.
//
// Logic Flow:
//  1. Scan splits the input into typed block tokens: fenced code blocks,
//     headings, list items, text lines and newlines. Fences are found first,
//     so nothing inside a fence is ever interpreted.
//  2. Parse turns the tokens into a Document. Inline content (code spans,
//     strong, emphasis) is parsed per line, and runs of list items separated
//     only by newlines are grouped into a single List.
//  3. RenderHTML walks the Document and writes escaped HTML.
//
// Supported constructs: ``` fences, `code`, "# " to "### " headings,
// **strong**, *emphasis*, "- " and "N. " list items, and line breaks.
// Everything else is text.
package markdown

import (
	"strings"
)

// TokenKind is the type of a block token.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenHeading
	TokenListItem
	TokenCodeBlock
	TokenNewline
)

// Token is one unit produced by Scan.
type Token struct {
	Kind    TokenKind
	Text    string // Line content without its marker, or the code of a block.
	Level   int    // Heading level, 1 to 3.
	Ordered bool   // List item written as "N. ".
	Lang    string // Info string of a fenced block.
}

const fence = "```"

// Scan tokenizes md. It never fails; unterminated fences are text.
func Scan(md string) []Token {
	var out []Token
	rest := md
	lineStart := true
	for len(rest) > 0 {
		open := strings.Index(rest, fence)
		if open < 0 {
			out = scanLines(out, rest, lineStart)
			break
		}
		closing := strings.Index(rest[open+len(fence):], fence)
		if closing < 0 {
			out = scanLines(out, rest, lineStart)
			break
		}
		if open > 0 {
			out = scanLines(out, rest[:open], lineStart)
		}
		body := rest[open+len(fence) : open+len(fence)+closing]
		lang, code := splitInfo(body)
		out = append(out, Token{Kind: TokenCodeBlock, Text: code, Lang: lang})
		rest = rest[open+len(fence)+closing+len(fence):]
		lineStart = false
	}
	return out
}

// scanLines classifies the lines of a fence-free segment. The first line is
// only classified when it begins a line of the input.
func scanLines(out []Token, seg string, lineStart bool) []Token {
	for i, line := range strings.Split(seg, "\n") {
		if i > 0 {
			out = append(out, Token{Kind: TokenNewline})
		}
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if i == 0 && !lineStart {
			out = append(out, Token{Kind: TokenText, Text: line})
			continue
		}
		out = append(out, classify(line))
	}
	return out
}

func classify(line string) Token {
	for level := 3; level >= 1; level-- {
		marker := strings.Repeat("#", level) + " "
		if strings.HasPrefix(line, marker) {
			return Token{Kind: TokenHeading, Level: level, Text: line[len(marker):]}
		}
	}
	if strings.HasPrefix(line, "- ") {
		return Token{Kind: TokenListItem, Text: line[2:]}
	}
	if n := orderedMarker(line); n > 0 {
		return Token{Kind: TokenListItem, Ordered: true, Text: line[n:]}
	}
	return Token{Kind: TokenText, Text: line}
}

// orderedMarker returns the length of a leading "N. " marker, or 0.
func orderedMarker(line string) int {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || !strings.HasPrefix(line[i:], ". ") {
		return 0
	}
	return i + 2
}

// splitInfo separates an optional language word on the first line of a
// fenced block from its code, and drops the newlines that only frame it.
func splitInfo(body string) (lang, code string) {
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		first := strings.TrimSpace(body[:nl])
		if first == "" || isInfoWord(first) {
			lang, body = first, body[nl+1:]
		}
	}
	body = strings.TrimSuffix(body, "\n")
	return lang, body
}

func isInfoWord(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("+-#._", r):
		default:
			return false
		}
	}
	return true
}
