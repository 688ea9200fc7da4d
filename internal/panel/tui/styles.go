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

import "github.com/charmbracelet/lipgloss"

var (
	accentPrimary   = lipgloss.Color("#4285F4")
	accentSecondary = lipgloss.Color("#FBBC05")
	mutedText       = lipgloss.Color("#8CA1AE")
	warningText     = lipgloss.Color("#EA4335")
	okText          = lipgloss.Color("#34A853")
	panelBorder     = lipgloss.Color("#3C4F5C")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentPrimary).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedText).
			Width(12)

	focusedLabelStyle = labelStyle.
				Foreground(accentPrimary).
				Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(accentSecondary)

	errorStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	tokensOKStyle = lipgloss.NewStyle().
			Foreground(okText)

	trackStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	fillStyle = lipgloss.NewStyle().
			Foreground(accentPrimary)

	activeHandleStyle = lipgloss.NewStyle().
				Foreground(accentSecondary).
				Bold(true)

	resultsStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedText)
)

// Styles used for the terminal rendering of a report.
var (
	h1Style = lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Foreground(accentPrimary)

	h2Style = lipgloss.NewStyle().
		Bold(true).
		Foreground(accentPrimary)

	h3Style = lipgloss.NewStyle().
		Bold(true)

	strongStyle   = lipgloss.NewStyle().Bold(true)
	emphasisStyle = lipgloss.NewStyle().Italic(true)
	codeSpanStyle = lipgloss.NewStyle().Foreground(accentSecondary)

	codeBlockStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(panelBorder).
			PaddingLeft(1).
			Foreground(accentSecondary)
)
