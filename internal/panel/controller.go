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

// Package panel holds the state and behavior of the analysis panel,
// independent of how it is drawn.
//
// Logic Flow:
//  1. Open loads the saved settings, seeds the URL from the active tab and
//     sizes the range from the video duration (60s when unknown).
//  2. Every edit (range, fps, resolution, prompt) recomputes the token
//     estimate synchronously; the estimate gates submission.
//  3. Submit validates in a fixed order without touching the transport, then
//     sends exactly one SubmitAnalysis and renders the answer.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jaycherian/gcp-go-video-analysis/internal/core/estimator"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/markdown"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/rangesel"
	"github.com/jaycherian/gcp-go-video-analysis/internal/settings"
)

// NoContent is shown when the analysis succeeded with an empty report.
const NoContent = "No content"

// ErrSubmitInFlight is returned by Submit while another submission is running.
var ErrSubmitInFlight = errors.New("an analysis is already running")

// Messenger is the panel's view of the transport.
type Messenger interface {
	FetchActiveContext(ctx context.Context) (model.ActiveContext, error)
	FetchVideoMetadata(ctx context.Context) (model.VideoMetadata, error)
	SubmitAnalysis(ctx context.Context, req model.AnalysisRequest) (model.AnalysisResult, error)
}

// State is a snapshot of everything the panel shows.
type State struct {
	URL        string
	Prompt     string
	FPSText    string
	Resolution model.MediaResolution
	APIKey     string // Draft value of the settings field; saved by SaveSettings.

	Selection  rangesel.Selection
	View       rangesel.View
	Assessment estimator.Assessment

	InFlight       bool
	Status         string
	ResultMarkdown string
	ResultHTML     string
	ErrorMessage   string
}

// CanSubmit reports whether the submit action is enabled.
func (s State) CanSubmit() bool {
	return s.Assessment.Enabled && !s.InFlight
}

// Controller owns the panel state. It is safe for concurrent use.
type Controller struct {
	messenger Messenger
	repo      settings.Repository

	mu    sync.Mutex
	state State
	saved model.Settings
}

// NewController returns a controller with the default prompt filled in and a
// fallback range. Call Open before use.
func NewController(messenger Messenger, repo settings.Repository, defaultPrompt string) *Controller {
	c := &Controller{messenger: messenger, repo: repo, saved: model.DefaultSettings()}
	c.state.Prompt = defaultPrompt
	c.applySettings(c.saved)
	c.setSelection(rangesel.New(nil))
	return c
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Saved returns the settings as last loaded or saved.
func (c *Controller) Saved() model.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved
}

// Open loads the settings and initializes the URL and the range.
func (c *Controller) Open(ctx context.Context) error {
	s, err := c.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	c.mu.Lock()
	c.saved = s
	c.applySettings(s)
	c.mu.Unlock()

	if active, err := c.messenger.FetchActiveContext(ctx); err != nil {
		slog.WarnContext(ctx, "could not read the active tab", "error", err)
	} else if active.URL != nil {
		c.mu.Lock()
		c.state.URL = *active.URL
		c.mu.Unlock()
	}

	c.initDuration(ctx)
	return nil
}

// Refresh re-reads the active tab. A watch page also resets the range.
func (c *Controller) Refresh(ctx context.Context) error {
	active, err := c.messenger.FetchActiveContext(ctx)
	if err != nil {
		c.setStatus(fmt.Sprintf("refresh failed: %v", err))
		return err
	}
	if active.URL == nil {
		c.recompute()
		return nil
	}

	c.mu.Lock()
	c.state.URL = *active.URL
	c.mu.Unlock()

	if model.IsWatchPage(*active.URL) {
		c.initDuration(ctx)
		return nil
	}
	c.recompute()
	return nil
}

// SetURL replaces the URL. A watch page also resets the range.
func (c *Controller) SetURL(ctx context.Context, url string) {
	c.mu.Lock()
	c.state.URL = url
	c.mu.Unlock()
	c.recompute()

	if model.IsWatchPage(url) {
		c.initDuration(ctx)
	}
}

// EditRange moves one handle.
func (c *Controller) EditRange(h rangesel.Handle, v float64) {
	c.mu.Lock()
	c.state.Selection = rangesel.Edit(c.state.Selection, h, v)
	c.state.View = rangesel.Display(c.state.Selection)
	c.mu.Unlock()
	c.recompute()
}

// SetFPS replaces the fps field text.
func (c *Controller) SetFPS(text string) {
	c.mu.Lock()
	c.state.FPSText = text
	c.mu.Unlock()
	c.recompute()
}

// SetResolution replaces the resolution choice.
func (c *Controller) SetResolution(r model.MediaResolution) {
	c.mu.Lock()
	c.state.Resolution = model.ParseMediaResolution(string(r))
	c.mu.Unlock()
	c.recompute()
}

// SetPrompt replaces the prompt.
func (c *Controller) SetPrompt(p string) {
	c.mu.Lock()
	c.state.Prompt = p
	c.mu.Unlock()
	c.recompute()
}

// SetAPIKey replaces the draft API key. It takes effect on SaveSettings.
func (c *Controller) SetAPIKey(k string) {
	c.mu.Lock()
	c.state.APIKey = k
	c.mu.Unlock()
}

// SaveSettings writes the key, fps and resolution fields as one record.
func (c *Controller) SaveSettings(ctx context.Context) error {
	c.mu.Lock()
	s := model.Settings{
		APIKey:          c.state.APIKey,
		FPS:             model.ParseFPS(c.state.FPSText),
		MediaResolution: c.state.Resolution,
	}.Normalize()
	c.mu.Unlock()

	if err := c.repo.Save(ctx, s); err != nil {
		c.setStatus(fmt.Sprintf("saving settings failed: %v", err))
		return err
	}

	c.mu.Lock()
	c.saved = s
	c.state.Status = "settings saved"
	c.mu.Unlock()
	c.recompute()
	return nil
}

// Submit validates the form and sends one analysis request. Validation
// failures and transport failures are returned and shown; a delivered result,
// successful or not, is shown and nil is returned.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state.InFlight {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	c.recomputeLocked()
	req, err := c.validateLocked()
	if err != nil {
		c.state.ErrorMessage = model.UserMessage(err)
		c.state.ResultMarkdown, c.state.ResultHTML = "", ""
		c.mu.Unlock()
		return err
	}
	c.state.InFlight = true
	c.state.ErrorMessage, c.state.ResultMarkdown, c.state.ResultHTML = "", "", ""
	c.state.Status = "analyzing, please wait..."
	c.mu.Unlock()

	result, err := c.messenger.SubmitAnalysis(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.InFlight = false
	c.state.Status = ""
	switch {
	case err != nil:
		c.state.ErrorMessage = err.Error()
		return err
	case result.Failed():
		c.state.ErrorMessage = result.ErrorMessage
	default:
		text := result.Text
		if text == "" {
			text = NoContent
		}
		c.state.ResultMarkdown = text
		c.state.ResultHTML = markdown.Render(text)
	}
	return nil
}

// validateLocked applies the submit checks in order: token cap, url, range,
// prompt, fps, gate, saved key. A disabled gate never sends.
func (c *Controller) validateLocked() (model.AnalysisRequest, error) {
	if c.state.Assessment.OverCap {
		return model.AnalysisRequest{}, model.NewTokenBudgetExceeded(c.state.Assessment.Tokens, estimator.Cap)
	}
	req := model.AnalysisRequest{
		SourceURL: c.state.URL,
		Prompt:    c.state.Prompt,
		StartSec:  c.state.Selection.Start,
		EndSec:    c.state.Selection.End,
		FPS:       model.ParseFPS(c.state.FPSText),
	}
	if err := req.Validate(); err != nil {
		return model.AnalysisRequest{}, err
	}
	if !c.state.Assessment.Enabled {
		return model.AnalysisRequest{}, model.NewInvalidInput("")
	}
	if c.saved.APIKey == "" {
		return model.AnalysisRequest{}, model.NewMissingCredential()
	}
	return req, nil
}

func (c *Controller) initDuration(ctx context.Context) {
	md, err := c.messenger.FetchVideoMetadata(ctx)
	if err != nil {
		slog.WarnContext(ctx, "could not read the video duration", "error", err)
		md = model.VideoMetadata{}
	}
	sel := rangesel.New(md.DurationSec)

	c.mu.Lock()
	c.setSelection(sel)
	if rangesel.UsesFallback(md.DurationSec) {
		c.state.Status = fmt.Sprintf("duration unknown, using %gs", rangesel.FallbackDuration)
	}
	c.recomputeLocked()
	c.mu.Unlock()
}

func (c *Controller) applySettings(s model.Settings) {
	c.state.APIKey = s.APIKey
	c.state.FPSText = model.FormatFPS(s.FPS)
	c.state.Resolution = s.MediaResolution
}

func (c *Controller) setSelection(sel rangesel.Selection) {
	c.state.Selection = sel
	c.state.View = rangesel.Display(sel)
	c.recomputeLocked()
}

func (c *Controller) setStatus(status string) {
	c.mu.Lock()
	c.state.Status = status
	c.mu.Unlock()
}

func (c *Controller) recompute() {
	c.mu.Lock()
	c.recomputeLocked()
	c.mu.Unlock()
}

func (c *Controller) recomputeLocked() {
	c.state.Assessment = estimator.Gate(
		c.state.Selection.Start,
		c.state.Selection.End,
		model.ParseFPS(c.state.FPSText),
		c.state.Resolution,
		estimator.PromptLength(c.state.Prompt),
	)
}
