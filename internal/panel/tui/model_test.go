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
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/markdown"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/rangesel"
	"github.com/jaycherian/gcp-go-video-analysis/internal/panel"
	"github.com/jaycherian/gcp-go-video-analysis/internal/settings"
	test "github.com/jaycherian/gcp-go-video-analysis/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessenger struct {
	url      string
	duration float64
	result   model.AnalysisResult

	metadataCalls atomic.Int32
	submitCalls   atomic.Int32
	lastRequest   model.AnalysisRequest
}

func (s *stubMessenger) FetchActiveContext(context.Context) (model.ActiveContext, error) {
	if s.url == "" {
		return model.ActiveContext{}, nil
	}
	u := s.url
	return model.ActiveContext{URL: &u}, nil
}

func (s *stubMessenger) FetchVideoMetadata(context.Context) (model.VideoMetadata, error) {
	s.metadataCalls.Add(1)
	d := s.duration
	return model.NewVideoMetadata(&d), nil
}

func (s *stubMessenger) SubmitAnalysis(_ context.Context, req model.AnalysisRequest) (model.AnalysisResult, error) {
	s.submitCalls.Add(1)
	s.lastRequest = req
	return s.result, nil
}

func newOpenedModel(t *testing.T, m *stubMessenger, s model.Settings) (Model, *panel.Controller) {
	t.Helper()
	repo := settings.NewMemoryRepository()
	require.NoError(t, repo.Save(context.Background(), s))
	ctrl := panel.NewController(m, repo, "summarize")

	tm := New(context.Background(), ctrl, filepath.Join(t.TempDir(), "report.html"))
	tm = update(t, tm, tm.open()())
	return tm, ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestOpenSeedsInputs(t *testing.T) {
	tm, _ := newOpenedModel(t, &stubMessenger{url: test.WatchURL, duration: 120}, model.Settings{APIKey: "k", FPS: 2})

	assert.Equal(t, test.WatchURL, tm.url.Value())
	assert.Equal(t, "summarize", tm.prompt.Value())
	assert.Equal(t, "2.0", tm.fps.Value())
	assert.Equal(t, "k", tm.apiKey.Value())
	assert.Contains(t, tm.View(), "00:00 - 02:00")
}

func TestRangeNudgeAndHandleSwitch(t *testing.T) {
	tm, ctrl := newOpenedModel(t, &stubMessenger{url: test.WatchURL, duration: 120}, model.DefaultSettings())

	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, fieldRange, tm.focus)

	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyRight})
	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyShiftRight})
	assert.Equal(t, 11.0, ctrl.State().Selection.Start)

	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, rangesel.HandleEnd, tm.handle)
	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 119.0, ctrl.State().Selection.End)

	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyTab})
	for i := 0; i < 20; i++ {
		tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyShiftRight})
	}
	assert.Equal(t, rangesel.Selection{Min: 0, Max: 120, Start: 120, End: 120}, ctrl.State().Selection)
	assert.False(t, ctrl.State().CanSubmit())
}

func TestResolutionToggle(t *testing.T) {
	tm, ctrl := newOpenedModel(t, &stubMessenger{}, model.DefaultSettings())
	_ = tm.setFocus(fieldResolution)

	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, model.MediaResolutionLow, ctrl.State().Resolution)
	_, _ = press(t, tm, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, model.MediaResolutionDefault, ctrl.State().Resolution)
}

func TestURLEditsAreDebounced(t *testing.T) {
	stub := &stubMessenger{duration: 90}
	tm, ctrl := newOpenedModel(t, stub, model.DefaultSettings())
	calls := stub.metadataCalls.Load()

	for _, r := range test.WatchURL {
		var cmd tea.Cmd
		tm, cmd = press(t, tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		require.NotNil(t, cmd)
	}
	assert.Equal(t, "", ctrl.State().URL)

	next, cmd := tm.Update(urlDebounceMsg{seq: tm.urlSeq - 1})
	tm = next.(Model)
	assert.Nil(t, cmd)

	next, cmd = tm.Update(urlDebounceMsg{seq: tm.urlSeq})
	tm = next.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, urlAppliedMsg{}, cmd())

	assert.Equal(t, test.WatchURL, ctrl.State().URL)
	assert.Equal(t, calls+1, stub.metadataCalls.Load())
	assert.Equal(t, 90.0, ctrl.State().Selection.End)

	_, cmd = tm.Update(urlDebounceMsg{seq: tm.urlSeq})
	assert.Nil(t, cmd)
}

func TestSubmitRendersReport(t *testing.T) {
	stub := &stubMessenger{url: test.WatchURL, duration: 60, result: model.ResultFromText("# Done\n- **a**\n- b")}
	tm, ctrl := newOpenedModel(t, stub, model.Settings{APIKey: "k", FPS: 1})

	tm, cmd := press(t, tm, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, tm.submitting)

	var done bool
	for _, msg := range collect(cmd) {
		if _, ok := msg.(submittedMsg); ok {
			done = true
		}
		tm = update(t, tm, msg)
	}
	require.True(t, done)
	assert.False(t, tm.submitting)
	assert.Equal(t, int32(1), stub.submitCalls.Load())
	assert.Equal(t, "<h1>Done</h1><br><ul><li><strong>a</strong></li><li>b</li></ul>", ctrl.State().ResultHTML)
	assert.Contains(t, tm.results.View(), "Done")

	_, cmd = press(t, tm, tea.KeyMsg{Type: tea.KeyCtrlW})
	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	written := msgs[0].(reportWrittenMsg)
	require.NoError(t, written.err)
	data, err := os.ReadFile(written.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Done</h1>")
}

func TestSubmitDisabledWhenGated(t *testing.T) {
	stub := &stubMessenger{url: test.WatchURL, duration: 60}
	tm, ctrl := newOpenedModel(t, stub, model.Settings{APIKey: "k", FPS: 1})
	ctrl.SetFPS("0")

	tm, cmd := press(t, tm, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, tm.submitting)
	assert.Equal(t, int32(0), stub.submitCalls.Load())
	assert.Contains(t, tm.View(), "analysis disabled")
}

func runAll(t *testing.T, tm Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		tm = update(t, tm, msg)
	}
	return tm
}

func TestPromptKeepsNewlines(t *testing.T) {
	const prompt = "Summarize the clip.\n- topics\n- speakers"
	stub := &stubMessenger{url: test.WatchURL, duration: 60, result: model.ResultFromText("ok")}
	repo := settings.NewMemoryRepository()
	require.NoError(t, repo.Save(context.Background(), model.Settings{APIKey: "k", FPS: 1}))
	ctrl := panel.NewController(stub, repo, prompt)
	tm := New(context.Background(), ctrl, filepath.Join(t.TempDir(), "report.html"))
	tm = update(t, tm, tm.open()())
	assert.Equal(t, prompt, tm.prompt.Value())

	_ = tm.setFocus(fieldPrompt)
	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyEnter})
	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.False(t, tm.submitting)
	assert.Equal(t, int32(0), stub.submitCalls.Load())
	assert.Equal(t, prompt+"\nx", ctrl.State().Prompt)

	for i := 0; i < 3; i++ {
		tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyUp})
		require.Equal(t, fieldPrompt, tm.focus)
	}
	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, fieldResolution, tm.focus)

	_ = tm.setFocus(fieldPrompt)
	tm, cmd := press(t, tm, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	require.True(t, tm.submitting)
	runAll(t, tm, cmd)
	assert.Equal(t, int32(1), stub.submitCalls.Load())
	assert.Equal(t, prompt+"\nx", stub.lastRequest.Prompt)
}

func TestSubmitAppliesPendingURLFirst(t *testing.T) {
	stub := &stubMessenger{duration: 90, result: model.ResultFromText("ok")}
	tm, ctrl := newOpenedModel(t, stub, model.Settings{APIKey: "k", FPS: 1})

	for _, r := range test.WatchURL {
		tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	require.True(t, tm.urlDirty)

	tm, apply := press(t, tm, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, apply)
	assert.False(t, tm.submitting)
	assert.Contains(t, tm.notice, "check the range")

	tm, cmd := press(t, tm, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, tm.notice, "still loading")

	tm = runAll(t, tm, apply)
	assert.Equal(t, test.WatchURL, ctrl.State().URL)
	assert.Equal(t, 90.0, ctrl.State().Selection.End)
	assert.Equal(t, int32(0), stub.submitCalls.Load())

	ctrl.EditRange(rangesel.HandleStart, 30)
	tm, cmd = press(t, tm, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, tm.submitting)
	runAll(t, tm, cmd)
	assert.Equal(t, int32(1), stub.submitCalls.Load())
	assert.Equal(t, model.AnalysisRequest{SourceURL: test.WatchURL, Prompt: "summarize", StartSec: 30, EndSec: 90, FPS: 1}, stub.lastRequest)
}

func TestSubmitKeepsRangeWhenURLUnchanged(t *testing.T) {
	stub := &stubMessenger{url: test.WatchURL, duration: 120, result: model.ResultFromText("ok")}
	tm, ctrl := newOpenedModel(t, stub, model.Settings{APIKey: "k", FPS: 1})
	calls := stub.metadataCalls.Load()
	ctrl.EditRange(rangesel.HandleStart, 10)

	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	tm, _ = press(t, tm, tea.KeyMsg{Type: tea.KeyBackspace})
	require.True(t, tm.urlDirty)

	tm, cmd := press(t, tm, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, tm.submitting)
	runAll(t, tm, cmd)
	assert.Equal(t, calls, stub.metadataCalls.Load())
	assert.Equal(t, 10.0, stub.lastRequest.StartSec)
	assert.Equal(t, 120.0, stub.lastRequest.EndSec)
}

func TestWriteReportWithoutResult(t *testing.T) {
	assert.ErrorIs(t, WriteReport(filepath.Join(t.TempDir(), "r.html"), ""), errNoReport)
}

func TestRenderTerminal(t *testing.T) {
	out := RenderTerminal(markdown.Parse("## Steps\n1. open\n2. `run`\n```go\nx := 1\n```"), 40)
	assert.Contains(t, out, "Steps")
	assert.Contains(t, out, "1. open")
	assert.Contains(t, out, "2. run")
	assert.Contains(t, out, "x := 1")
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "0", groupDigits(0))
	assert.Equal(t, "999", groupDigits(999))
	assert.Equal(t, "1,048,576", groupDigits(1048576))
	assert.Equal(t, "-12,345", groupDigits(-12345))
}
