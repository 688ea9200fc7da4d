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

// Package tui draws the analysis panel in a terminal with bubbletea. All
// state lives in the panel.Controller; the model only owns the widgets and
// turns key presses into controller calls.
//
// Logic Flow:
//  1. Init opens the controller in a command and seeds the inputs from it.
//  2. Key presses edit the focused field. Range, fps, resolution and prompt
//     edits reach the controller at once; URL edits wait 500ms for typing to
//     stop.
//  3. Enter submits in a command while a spinner runs; the answer is drawn
//     into the results viewport. In the multi-line prompt enter starts a new
//     line and alt+enter submits.
//  4. A URL still waiting for its debounce is applied before the gate is
//     checked. A changed URL resets the range, so that submit stops there
//     and the user confirms the new range first.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/estimator"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/markdown"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/rangesel"
	"github.com/jaycherian/gcp-go-video-analysis/internal/panel"
)

// URLDebounce is how long URL typing must pause before the URL is applied.
const URLDebounce = 500 * time.Millisecond

const (
	promptHeight = 4
	trackWidth   = 40
	nudgeSmall   = 1.0
	nudgeLarge   = 10.0
)

var errNoReport = errors.New("there is no report to write yet")

type field int

const (
	fieldURL field = iota
	fieldRange
	fieldFPS
	fieldResolution
	fieldPrompt
	fieldAPIKey
	fieldCount
)

func (f field) label() string {
	switch f {
	case fieldURL:
		return "URL"
	case fieldRange:
		return "Range"
	case fieldFPS:
		return "FPS"
	case fieldResolution:
		return "Resolution"
	case fieldPrompt:
		return "Prompt"
	case fieldAPIKey:
		return "API key"
	default:
		return ""
	}
}

type openedMsg struct{ err error }

type refreshedMsg struct{ err error }

type urlDebounceMsg struct{ seq int }

type urlAppliedMsg struct{}

type savedMsg struct{ err error }

type submittedMsg struct{ err error }

type reportWrittenMsg struct {
	path string
	err  error
}

// Model is the bubbletea model of the panel.
type Model struct {
	ctx        context.Context
	ctrl       *panel.Controller
	reportFile string

	url     textinput.Model
	prompt  textarea.Model
	fps     textinput.Model
	apiKey  textinput.Model
	spinner spinner.Model
	results viewport.Model
	help    help.Model

	focus       field
	handle      rangesel.Handle
	urlSeq      int
	urlDirty    bool
	urlApplying bool
	submitting  bool
	notice      string
	width       int
}

// New returns the panel model. ctx bounds every controller call.
func New(ctx context.Context, ctrl *panel.Controller, reportFile string) Model {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholder
		ti.CharLimit = 0
		ti.Width = 60
		return ti
	}

	m := Model{
		ctx:        ctx,
		ctrl:       ctrl,
		reportFile: reportFile,
		url:        newInput("https://www.youtube.com/watch?v=..."),
		fps:        newInput("1.0"),
		apiKey:     newInput("Gemini API key"),
		results:    viewport.New(80, 12),
		help:       help.New(),
		handle:     rangesel.HandleStart,
		width:      84,
	}
	m.apiKey.EchoMode = textinput.EchoPassword
	m.fps.Width = 8

	m.prompt = textarea.New()
	m.prompt.Prompt = ""
	m.prompt.Placeholder = "What should the analysis cover?"
	m.prompt.ShowLineNumbers = false
	m.prompt.CharLimit = 0
	m.prompt.SetWidth(60)
	m.prompt.SetHeight(promptHeight)

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.spinner.Style = statusStyle

	m.url.Focus()
	m.results.SetContent(helpStyle.Render("Press enter to analyze the selected range."))
	return m
}

// Init opens the controller.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.open(), textinput.Blink, textarea.Blink)
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.results.Width = max(msg.Width-4, 10)
		m.results.Height = max(msg.Height-22-promptHeight, 3)
		m.refreshResults()
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("could not open the panel: %v", msg.err)
		}
		st := m.ctrl.State()
		m.url.SetValue(st.URL)
		m.prompt.SetValue(st.Prompt)
		m.fps.SetValue(st.FPSText)
		m.apiKey.SetValue(st.APIKey)
		m.refreshResults()
		return m, nil

	case refreshedMsg:
		if msg.err == nil {
			m.url.SetValue(m.ctrl.State().URL)
			m.urlDirty = false
		}
		return m, nil

	case urlDebounceMsg:
		if msg.seq != m.urlSeq || !m.urlDirty {
			return m, nil
		}
		m.urlDirty = false
		m.urlApplying = true
		return m, m.applyURL(m.url.Value())

	case urlAppliedMsg:
		m.urlApplying = false
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("saving settings failed: %v", msg.err)
		} else {
			m.notice = "settings saved"
		}
		return m, nil

	case submittedMsg:
		m.submitting = false
		m.notice = ""
		m.refreshResults()
		m.results.GotoTop()
		return m, nil

	case reportWrittenMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("writing the report failed: %v", msg.err)
		} else {
			m.notice = "report written to " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == fieldPrompt && m.promptOwns(msg) {
		return m.updateInput(msg)
	}
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, keys.Save):
		m.ctrl.SetAPIKey(m.apiKey.Value())
		return m, m.save()
	case key.Matches(msg, keys.Write):
		return m, m.writeReport(m.ctrl.State().ResultHTML)
	case key.Matches(msg, keys.Submit):
		return m.startSubmit()
	case key.Matches(msg, keys.Scroll):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	case key.Matches(msg, keys.Next):
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, keys.Prev):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case key.Matches(msg, keys.SwapHandle):
		if m.focus == fieldRange {
			m.handle = otherHandle(m.handle)
			return m, nil
		}
		return m, m.setFocus((m.focus + 1) % fieldCount)
	}

	switch m.focus {
	case fieldRange:
		if key.Matches(msg, keys.Nudge) {
			m.nudge(msg.String())
		}
		return m, nil
	case fieldResolution:
		switch msg.String() {
		case "left", "right", " ":
			res := model.MediaResolutionLow
			if m.ctrl.State().Resolution == model.MediaResolutionLow {
				res = model.MediaResolutionDefault
			}
			m.ctrl.SetResolution(res)
		}
		return m, nil
	}
	return m.updateInput(msg)
}

// promptOwns reports whether a key edits the prompt rather than acting on
// the panel: plain enter, and up/down while the cursor has a line to move to.
func (m Model) promptOwns(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "enter":
		return true
	case "up":
		return m.prompt.Line() > 0
	case "down":
		return m.prompt.Line() < m.prompt.LineCount()-1
	}
	return false
}

// updateInput forwards a key to the focused text input and applies the edit.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldURL:
		before := m.url.Value()
		m.url, cmd = m.url.Update(msg)
		if m.url.Value() != before {
			m.urlSeq++
			m.urlDirty = true
			seq := m.urlSeq
			return m, tea.Batch(cmd, tea.Tick(URLDebounce, func(time.Time) tea.Msg {
				return urlDebounceMsg{seq: seq}
			}))
		}
	case fieldPrompt:
		m.prompt, cmd = m.prompt.Update(msg)
		m.ctrl.SetPrompt(m.prompt.Value())
	case fieldFPS:
		m.fps, cmd = m.fps.Update(msg)
		m.ctrl.SetFPS(m.fps.Value())
	case fieldAPIKey:
		m.apiKey, cmd = m.apiKey.Update(msg)
		m.ctrl.SetAPIKey(m.apiKey.Value())
	}
	return m, cmd
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	inputs := map[field]interface {
		Focus() tea.Cmd
		Blur()
	}{
		fieldURL:    &m.url,
		fieldPrompt: &m.prompt,
		fieldFPS:    &m.fps,
		fieldAPIKey: &m.apiKey,
	}
	var cmd tea.Cmd
	for k, in := range inputs {
		if k == f {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

func (m *Model) nudge(keyName string) {
	step := nudgeSmall
	if strings.HasPrefix(keyName, "shift+") {
		step = nudgeLarge
	}
	if strings.HasSuffix(keyName, "left") {
		step = -step
	}
	sel := m.ctrl.State().Selection
	cur := sel.Start
	if m.handle == rangesel.HandleEnd {
		cur = sel.End
	}
	m.ctrl.EditRange(m.handle, cur+step)
}

func (m Model) startSubmit() (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	if m.urlDirty {
		m.urlDirty = false
		m.urlSeq++
		if pending := m.url.Value(); pending != m.ctrl.State().URL {
			m.urlApplying = true
			m.notice = "URL updated, check the range and press enter again"
			return m, m.applyURL(pending)
		}
	}
	if m.urlApplying {
		m.notice = "still loading the video, try again in a moment"
		return m, nil
	}
	if !m.ctrl.State().CanSubmit() {
		m.notice = "analysis is disabled for the current settings"
		return m, nil
	}
	m.submitting = true
	m.notice = ""

	ctx, ctrl := m.ctx, m.ctrl
	submit := func() tea.Msg {
		return submittedMsg{err: ctrl.Submit(ctx)}
	}
	return m, tea.Batch(submit, m.spinner.Tick)
}

func (m Model) open() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return openedMsg{err: ctrl.Open(ctx)}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return refreshedMsg{err: ctrl.Refresh(ctx)}
	}
}

func (m Model) applyURL(url string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		ctrl.SetURL(ctx, url)
		return urlAppliedMsg{}
	}
}

func (m Model) save() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return savedMsg{err: ctrl.SaveSettings(ctx)}
	}
}

func (m Model) writeReport(body string) tea.Cmd {
	path := m.reportFile
	return func() tea.Msg {
		return reportWrittenMsg{path: path, err: WriteReport(path, body)}
	}
}

// WriteReport stores an HTML report body as a standalone page.
func WriteReport(path, body string) error {
	if body == "" {
		return errNoReport
	}
	page := "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Video analysis</title></head><body>\n" +
		body + "\n</body></html>\n"
	return os.WriteFile(path, []byte(page), 0o644)
}

func (m *Model) refreshResults() {
	st := m.ctrl.State()
	switch {
	case st.ErrorMessage != "":
		m.results.SetContent(errorStyle.Width(m.results.Width).Render(st.ErrorMessage))
	case st.ResultMarkdown != "":
		m.results.SetContent(RenderTerminal(markdown.Parse(st.ResultMarkdown), m.results.Width))
	}
}

// View draws the panel.
func (m Model) View() string {
	st := m.ctrl.State()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Video analysis"))
	b.WriteString("\n\n")
	m.row(&b, fieldURL, m.url.View())
	m.row(&b, fieldRange, m.renderRange(st))
	m.row(&b, fieldFPS, m.fps.View())
	m.row(&b, fieldResolution, renderResolution(st.Resolution))
	m.row(&b, fieldPrompt, m.prompt.View())
	m.row(&b, fieldAPIKey, m.apiKey.View())

	b.WriteString("\n")
	b.WriteString(renderTokens(st.Assessment))
	b.WriteString("\n")

	switch {
	case st.InFlight || m.submitting:
		b.WriteString(m.spinner.View() + statusStyle.Render(" analyzing, please wait..."))
	case st.CanSubmit():
		b.WriteString(statusStyle.Render("press enter to analyze"))
	default:
		b.WriteString(helpStyle.Render("analysis disabled"))
	}
	b.WriteString("\n")

	for _, line := range []string{st.Status, m.notice} {
		if line != "" {
			b.WriteString(statusStyle.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString(resultsStyle.Render(m.results.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) row(b *strings.Builder, f field, body string) {
	label := labelStyle
	if m.focus == f {
		label = focusedLabelStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label.Render(f.label()), body))
	b.WriteString("\n")
}

func (m Model) renderRange(st panel.State) string {
	startPos := int(st.View.StartFill*float64(trackWidth-1) + 0.5)
	endPos := int(st.View.EndFill*float64(trackWidth-1) + 0.5)

	var track strings.Builder
	for i := 0; i < trackWidth; i++ {
		switch {
		case i == startPos && m.handle == rangesel.HandleStart,
			i == endPos && m.handle == rangesel.HandleEnd:
			track.WriteString(activeHandleStyle.Render("●"))
		case i == startPos || i == endPos:
			track.WriteString(fillStyle.Render("●"))
		case i > startPos && i < endPos:
			track.WriteString(fillStyle.Render("━"))
		default:
			track.WriteString(trackStyle.Render("─"))
		}
	}
	return fmt.Sprintf("%s  %s  (%s)", track.String(), st.View.RangeLabel, m.handle)
}

func renderResolution(r model.MediaResolution) string {
	opts := []model.MediaResolution{model.MediaResolutionDefault, model.MediaResolutionLow}
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		if o == r {
			parts = append(parts, activeHandleStyle.Render("["+string(o)+"]"))
		} else {
			parts = append(parts, helpStyle.Render(" "+string(o)+" "))
		}
	}
	return strings.Join(parts, " ")
}

func renderTokens(a estimator.Assessment) string {
	line := fmt.Sprintf("Estimated tokens: %s / %s", groupDigits(a.Tokens), groupDigits(estimator.Cap))
	if a.OverCap {
		return errorStyle.Render(line + "  over the limit, shorten the range or lower the fps")
	}
	return tokensOKStyle.Render(line)
}

func groupDigits(n int) string {
	if n < 0 {
		return "-" + groupDigits(-n)
	}
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func otherHandle(h rangesel.Handle) rangesel.Handle {
	if h == rangesel.HandleStart {
		return rangesel.HandleEnd
	}
	return rangesel.HandleStart
}
