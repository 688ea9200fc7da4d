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

package markdown

import "strings"

// Block is a node at document level.
type Block interface {
	block()
}

// Inline is a node inside a line.
type Inline interface {
	inline()
}

// Document is the parsed form of a report.
type Document struct {
	Blocks []Block
}

// Paragraph is a line of text (or the part of a line around a code block).
type Paragraph struct {
	Content []Inline
}

// Heading is a "#", "##" or "###" line.
type Heading struct {
	Level   int
	Content []Inline
}

// List is a run of adjacent list items.
type List struct {
	Ordered bool // All items were written as "N. ".
	Items   [][]Inline
}

// CodeBlock is a fenced block. Code is kept verbatim.
type CodeBlock struct {
	Lang string
	Code string
}

// LineBreak is a newline outside of lists and code blocks.
type LineBreak struct{}

func (*Paragraph) block() {}
func (*Heading) block()   {}
func (*List) block()      {}
func (*CodeBlock) block() {}
func (*LineBreak) block() {}

// Text is literal text.
type Text struct {
	Value string
}

// CodeSpan is `code`.
type CodeSpan struct {
	Code string
}

// Strong is **content**.
type Strong struct {
	Children []Inline
}

// Emphasis is *content*.
type Emphasis struct {
	Children []Inline
}

func (*Text) inline()     {}
func (*CodeSpan) inline() {}
func (*Strong) inline()   {}
func (*Emphasis) inline() {}

// Parse scans md and builds its Document.
func Parse(md string) *Document {
	return build(Scan(md))
}

func build(tokens []Token) *Document {
	doc := &Document{}
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.Kind {
		case TokenText:
			doc.Blocks = append(doc.Blocks, &Paragraph{Content: parseInline(t.Text)})
		case TokenHeading:
			doc.Blocks = append(doc.Blocks, &Heading{Level: t.Level, Content: parseInline(t.Text)})
		case TokenCodeBlock:
			doc.Blocks = append(doc.Blocks, &CodeBlock{Lang: t.Lang, Code: t.Text})
		case TokenNewline:
			doc.Blocks = append(doc.Blocks, &LineBreak{})
		case TokenListItem:
			var list *List
			list, i = buildList(tokens, i)
			doc.Blocks = append(doc.Blocks, list)
		}
	}
	return doc
}

// buildList consumes the list run starting at tokens[start] together with the
// newlines between and after its items. It returns the index of the last
// token consumed.
func buildList(tokens []Token, start int) (*List, int) {
	list := &List{Ordered: true}
	last := start
	for i := start; i < len(tokens); i++ {
		switch tokens[i].Kind {
		case TokenListItem:
			list.Items = append(list.Items, parseInline(tokens[i].Text))
			list.Ordered = list.Ordered && tokens[i].Ordered
			last = i
		case TokenNewline:
			last = i
		default:
			return list, last
		}
	}
	return list, last
}

// parseInline parses code spans, strong and emphasis within one line.
// Delimiters without a partner are literal.
func parseInline(s string) []Inline {
	var out []Inline
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, &Text{Value: text.String()})
			text.Reset()
		}
	}
	for i := 0; i < len(s); {
		switch {
		case s[i] == '`':
			if end := strings.IndexByte(s[i+1:], '`'); end > 0 {
				flush()
				out = append(out, &CodeSpan{Code: s[i+1 : i+1+end]})
				i += end + 2
				continue
			}
		case strings.HasPrefix(s[i:], "**"):
			if end := findCloser(s, i+2, true); end >= 0 {
				flush()
				out = append(out, &Strong{Children: parseInline(s[i+2 : end])})
				i = end + 2
				continue
			}
		case s[i] == '*':
			if end := findCloser(s, i+1, false); end >= 0 {
				flush()
				out = append(out, &Emphasis{Children: parseInline(s[i+1 : end])})
				i = end + 1
				continue
			}
		}
		text.WriteByte(s[i])
		i++
	}
	flush()
	return out
}

// findCloser locates the delimiter closing a strong (double) or emphasis
// (single) span opened before from. Code spans are skipped, and for emphasis
// nested "**" pairs are skipped. It returns -1 when there is none.
func findCloser(s string, from int, double bool) int {
	for k := from; k < len(s); {
		switch {
		case s[k] == '`':
			if end := strings.IndexByte(s[k+1:], '`'); end > 0 {
				k += end + 2
				continue
			}
			k++
		case double && strings.HasPrefix(s[k:], "**"):
			return k
		case !double && strings.HasPrefix(s[k:], "**"):
			if end := strings.Index(s[k+2:], "**"); end >= 0 {
				k += end + 4
				continue
			}
			k += 2
		case !double && s[k] == '*':
			return k
		default:
			k++
		}
	}
	return -1
}
