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

import (
	"html"
	"strconv"
	"strings"
)

// Render converts md to HTML. Empty input yields "".
func Render(md string) string {
	if md == "" {
		return ""
	}
	return RenderHTML(Parse(md))
}

// RenderPtr is Render for an optional value; nil yields "".
func RenderPtr(md *string) string {
	if md == nil {
		return ""
	}
	return Render(*md)
}

// RenderHTML writes doc as HTML. Text and code are escaped.
func RenderHTML(doc *Document) string {
	var b strings.Builder
	for _, blk := range doc.Blocks {
		switch n := blk.(type) {
		case *Paragraph:
			writeInlines(&b, n.Content)
		case *Heading:
			tag := "h" + strconv.Itoa(n.Level)
			b.WriteString("<" + tag + ">")
			writeInlines(&b, n.Content)
			b.WriteString("</" + tag + ">")
		case *List:
			tag := "ul"
			if n.Ordered {
				tag = "ol"
			}
			b.WriteString("<" + tag + ">")
			for _, item := range n.Items {
				b.WriteString("<li>")
				writeInlines(&b, item)
				b.WriteString("</li>")
			}
			b.WriteString("</" + tag + ">")
		case *CodeBlock:
			if n.Lang != "" {
				b.WriteString(`<pre><code class="language-` + html.EscapeString(n.Lang) + `">`)
			} else {
				b.WriteString("<pre><code>")
			}
			b.WriteString(html.EscapeString(n.Code))
			b.WriteString("</code></pre>")
		case *LineBreak:
			b.WriteString("<br>")
		}
	}
	return b.String()
}

func writeInlines(b *strings.Builder, nodes []Inline) {
	for _, in := range nodes {
		switch n := in.(type) {
		case *Text:
			b.WriteString(html.EscapeString(n.Value))
		case *CodeSpan:
			b.WriteString("<code>")
			b.WriteString(html.EscapeString(n.Code))
			b.WriteString("</code>")
		case *Strong:
			b.WriteString("<strong>")
			writeInlines(b, n.Children)
			b.WriteString("</strong>")
		case *Emphasis:
			b.WriteString("<em>")
			writeInlines(b, n.Children)
			b.WriteString("</em>")
		}
	}
}

// PlainText flattens inline nodes to their text, dropping formatting.
func PlainText(nodes []Inline) string {
	var b strings.Builder
	var walk func([]Inline)
	walk = func(nodes []Inline) {
		for _, in := range nodes {
			switch n := in.(type) {
			case *Text:
				b.WriteString(n.Value)
			case *CodeSpan:
				b.WriteString(n.Code)
			case *Strong:
				walk(n.Children)
			case *Emphasis:
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	return b.String()
}
