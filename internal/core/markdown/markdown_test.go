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

package markdown_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-video-analysis/internal/core/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", markdown.Render(""))
	assert.Equal(t, "", markdown.RenderPtr(nil))
	s := "x"
	assert.Equal(t, "x", markdown.RenderPtr(&s))
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"**a**", "<strong>a</strong>"},
		{"*a*", "<em>a</em>"},
		{"`a`", "<code>a</code>"},
		{"**bold *and italic* text**", "<strong>bold <em>and italic</em> text</strong>"},
		{"*x **y** z*", "<em>x <strong>y</strong> z</em>"},
		{"`**not bold**`", "<code>**not bold**</code>"},
		{"**a `*` b**", "<strong>a <code>*</code> b</strong>"},
		{"2 * 3 = 6", "2 * 3 = 6"},
		{"``", "``"},
		{"a < b & c", "a &lt; b &amp; c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, markdown.Render(tt.in))
		})
	}
}

func TestRenderHeadings(t *testing.T) {
	assert.Equal(t, "<h1>One</h1><br><h2>Two</h2><br><h3>Three</h3>", markdown.Render("# One\n## Two\n### Three"))
	assert.Equal(t, "#### Four", markdown.Render("#### Four"))
	assert.Equal(t, "#NoSpace", markdown.Render("#NoSpace"))
	assert.Equal(t, "<h2>A <strong>b</strong></h2>", markdown.Render("## A **b**"))
}

func TestRenderListGrouping(t *testing.T) {
	got := markdown.Render("- x\n- y\n- z")
	assert.Equal(t, "<ul><li>x</li><li>y</li><li>z</li></ul>", got)
	assert.Equal(t, 1, strings.Count(got, "<ul>"))
	assert.Equal(t, 3, strings.Count(got, "<li>"))

	assert.Equal(t, "Intro<br><ul><li>a</li><li>b</li></ul>End", markdown.Render("Intro\n- a\n- b\nEnd"))
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", markdown.Render("- a\n\n- b"))
	assert.Equal(t, "<ol><li>first</li><li>second</li></ol>", markdown.Render("1. first\n2. second"))
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", markdown.Render("- a\n1. b"))
	assert.Equal(t, "<ul><li>a</li></ul><h1>T</h1><br><ul><li>b</li></ul>", markdown.Render("- a\n# T\n- b"))
}

func TestRenderCodeBlocks(t *testing.T) {
	assert.Equal(t, "<pre><code>x := 1\ny := 2</code></pre>", markdown.Render("```\nx := 1\ny := 2\n```"))
	assert.Equal(t, `<pre><code class="language-go">fmt.Println(&#34;*hi*&#34;)</code></pre>`, markdown.Render("```go\nfmt.Println(\"*hi*\")\n```"))
	assert.Equal(t, "see <pre><code>inline</code></pre> here", markdown.Render("see ```inline``` here"))
	assert.Equal(t, "<pre><code># not a heading\n- not a list</code></pre>", markdown.Render("```\n# not a heading\n- not a list\n```"))
	assert.Equal(t, "```open <em>x</em>", markdown.Render("```open *x*"))
}

func TestRenderLineBreaks(t *testing.T) {
	assert.Equal(t, "a<br>b", markdown.Render("a\nb"))
	assert.Equal(t, "a<br><br>b", markdown.Render("a\n\nb"))
	assert.Equal(t, "a<br>b", markdown.Render("a\r\nb"))
}

func TestRenderReport(t *testing.T) {
	report := "## 摘要\n這是一段**重點**說明。\n\n### 步驟\n1. 開啟 `設定`\n2. 儲存\n\n*完成*"
	want := "<h2>摘要</h2><br>這是一段<strong>重點</strong>說明。<br><br><h3>步驟</h3><br>" +
		"<ol><li>開啟 <code>設定</code></li><li>儲存</li></ol><em>完成</em>"
	assert.Equal(t, want, markdown.Render(report))
}

func TestRenderIsDeterministic(t *testing.T) {
	in := "# T\n- **a**\n- `b`\ntext *c*"
	assert.Equal(t, markdown.Render(in), markdown.Render(in))
}

func TestRenderNeverPanics(t *testing.T) {
	alphabet := []string{"*", "**", "`", "```", "#", "# ", "- ", "1. ", "\n", "a", " ", "<", "中"}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 3000; i++ {
		var b strings.Builder
		for j := rng.Intn(20); j >= 0; j-- {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		in := b.String()
		require.NotPanics(t, func() { markdown.Render(in) }, "input %q", in)
	}
}

func TestParseTree(t *testing.T) {
	doc := markdown.Parse("# Title\n- one\n- two")
	require.Len(t, doc.Blocks, 3)
	h, ok := doc.Blocks[0].(*markdown.Heading)
	require.True(t, ok)
	assert.Equal(t, 1, h.Level)
	assert.Equal(t, "Title", markdown.PlainText(h.Content))
	_, ok = doc.Blocks[1].(*markdown.LineBreak)
	assert.True(t, ok)
	l, ok := doc.Blocks[2].(*markdown.List)
	require.True(t, ok)
	assert.False(t, l.Ordered)
	assert.Len(t, l.Items, 2)
}

func TestScanTokens(t *testing.T) {
	tokens := markdown.Scan("## H\n3. item\n```sh\nls\n```")
	kinds := make([]markdown.TokenKind, 0, len(tokens))
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []markdown.TokenKind{
		markdown.TokenHeading, markdown.TokenNewline, markdown.TokenListItem, markdown.TokenNewline, markdown.TokenCodeBlock,
	}, kinds)
	assert.Equal(t, 2, tokens[0].Level)
	assert.True(t, tokens[2].Ordered)
	assert.Equal(t, "item", tokens[2].Text)
	assert.Equal(t, "sh", tokens[4].Lang)
	assert.Equal(t, "ls", tokens[4].Text)
}
