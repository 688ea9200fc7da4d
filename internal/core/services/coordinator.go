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

// Package services contains the coordinator: the side that owns the saved
// settings, talks to the model, and answers the panel's messages.
//
// Logic Flow:
//  1. FetchActiveContext and FetchVideoMetadata read the last tab reported by
//     the browser side and only answer for watch pages.
//  2. SubmitAnalysis loads the saved settings and runs the AnalysisWorkflow,
//     which makes at most one model call.
//  3. Every outcome, success or classified failure, becomes an AnalysisResult.
//     Usage counters are updated along the way.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/workflow"
	"github.com/jaycherian/gcp-go-video-analysis/internal/settings"
	"github.com/jaycherian/gcp-go-video-analysis/internal/transport"
)

// Coordinator serves the three message kinds.
type Coordinator struct {
	Workflow *workflow.AnalysisWorkflow
	Settings settings.Repository
	Tabs     TabSource
	stats    *Stats
}

// NewCoordinator wires a coordinator. tabs may be nil, in which case no tab is
// ever active.
func NewCoordinator(w *workflow.AnalysisWorkflow, repo settings.Repository, tabs TabSource) *Coordinator {
	return &Coordinator{Workflow: w, Settings: repo, Tabs: tabs, stats: NewStats()}
}

// Stats returns the usage counters.
func (c *Coordinator) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

func (c *Coordinator) activeWatchPage(ctx context.Context) (TabState, bool) {
	if c.Tabs == nil {
		return TabState{}, false
	}
	state, ok := c.Tabs.ActiveTab(ctx)
	if !ok || !model.IsWatchPage(state.URL) {
		return TabState{}, false
	}
	return state, true
}

// FetchActiveContext returns the active URL when it is a watch page.
func (c *Coordinator) FetchActiveContext(ctx context.Context) model.ActiveContext {
	c.stats.recordContextFetch(ctx)
	state, ok := c.activeWatchPage(ctx)
	if !ok {
		return model.ActiveContext{}
	}
	url := state.URL
	return model.ActiveContext{URL: &url}
}

// FetchVideoMetadata returns the floored duration of the active video, if known.
func (c *Coordinator) FetchVideoMetadata(ctx context.Context) model.VideoMetadata {
	c.stats.recordMetadataFetch(ctx)
	state, ok := c.activeWatchPage(ctx)
	if !ok {
		return model.VideoMetadata{}
	}
	return model.NewVideoMetadata(state.DurationSec)
}

// SubmitAnalysis loads the saved settings and submits req.
func (c *Coordinator) SubmitAnalysis(ctx context.Context, req *model.AnalysisRequest) model.AnalysisResult {
	s, err := c.Settings.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load settings", "error", err)
		c.stats.recordSubmission(ctx, err)
		return model.ResultFromError(fmt.Errorf("failed to load settings: %w", err))
	}
	return c.Submit(ctx, req, s)
}

// Submit runs one analysis attempt with the given settings. It never retries.
func (c *Coordinator) Submit(ctx context.Context, req *model.AnalysisRequest, s model.Settings) model.AnalysisResult {
	out := c.Workflow.Run(ctx, req, s)

	if out.Response != nil && out.Response.UsageMetadata != nil {
		c.stats.recordTokens(int64(out.Response.UsageMetadata.PromptTokenCount), int64(out.Response.UsageMetadata.CandidatesTokenCount))
	}
	c.stats.recordSubmission(ctx, out.Err)

	if out.Err != nil {
		slog.InfoContext(ctx, "analysis failed", "type", model.TypeOf(out.Err), "error", out.Err)
		return model.ResultFromError(out.Err)
	}
	slog.InfoContext(ctx, "analysis completed", "url", req.SourceURL, "chars", len(out.Report))
	return model.ResultFromText(out.Report)
}

// HandleMessage implements transport.Handler.
func (c *Coordinator) HandleMessage(ctx context.Context, req *transport.Request) (any, error) {
	switch req.Type {
	case transport.KindFetchActiveContext:
		return c.FetchActiveContext(ctx), nil
	case transport.KindFetchVideoMetadata:
		return c.FetchVideoMetadata(ctx), nil
	case transport.KindSubmitAnalysis:
		var ar model.AnalysisRequest
		if err := req.Decode(&ar); err != nil {
			return nil, err
		}
		return c.SubmitAnalysis(ctx, &ar), nil
	default:
		return nil, fmt.Errorf("%w: %q", transport.ErrUnknownKind, req.Type)
	}
}
