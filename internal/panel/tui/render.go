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

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/markdown"
)

// RenderTerminal draws a parsed report for the terminal, wrapped to width.
func RenderTerminal(doc *markdown.Document, width int) string {
	if width < 1 {
		width = 1
	}
	wrap := lipgloss.NewStyle().Width(width)

	var lines []string
	for _, blk := range doc.Blocks {
		switch n := blk.(type) {
		case *markdown.Paragraph:
			lines = append(lines, wrap.Render(renderInlines(n.Content)))
		case *markdown.Heading:
			style := h3Style
			switch n.Level {
			case 1:
				style = h1Style
			case 2:
				style = h2Style
			}
			lines = append(lines, style.Width(width).Render(markdown.PlainText(n.Content)))
		case *markdown.List:
			for i, item := range n.Items {
				bullet := "• "
				if n.Ordered {
					bullet = fmt.Sprintf("%d. ", i+1)
				}
				body := lipgloss.NewStyle().Width(max(width-len(bullet), 1)).Render(renderInlines(item))
				lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, bullet, body))
			}
		case *markdown.CodeBlock:
			lines = append(lines, codeBlockStyle.Render(strings.TrimRight(n.Code, "\n")))
		case *markdown.LineBreak:
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

func renderInlines(nodes []markdown.Inline) string {
	var b strings.Builder
	for _, in := range nodes {
		switch n := in.(type) {
		case *markdown.Text:
			b.WriteString(n.Value)
		case *markdown.CodeSpan:
			b.WriteString(codeSpanStyle.Render(n.Code))
		case *markdown.Strong:
			b.WriteString(strongStyle.Render(markdown.PlainText(n.Children)))
		case *markdown.Emphasis:
			b.WriteString(emphasisStyle.Render(markdown.PlainText(n.Children)))
		}
	}
	return b.String()
}
