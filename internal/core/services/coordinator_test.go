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

package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/services"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/workflow"
	"github.com/jaycherian/gcp-go-video-analysis/internal/settings"
	test "github.com/jaycherian/gcp-go-video-analysis/internal/testutil"
	"github.com/jaycherian/gcp-go-video-analysis/internal/transport"
	"github.com/zeebo/assert"
)

func newCoordinator(t *testing.T, factory cloud.GeneratorFactory, s model.Settings) (*services.Coordinator, *services.TabTracker) {
	t.Helper()
	config := test.GetConfig()
	clients := &cloud.ServiceClients{Generators: factory, AnalysisModel: cloud.NewAnalysisModel(config)}
	repo := settings.NewMemoryRepository()
	test.HandleErr(repo.Save(context.Background(), s), t)
	tabs := services.NewTabTracker()
	return services.NewCoordinator(workflow.NewAnalysisWorkflow(clients), repo, tabs), tabs
}

func request() *model.AnalysisRequest {
	return &model.AnalysisRequest{SourceURL: test.WatchURL, Prompt: "summarize", StartSec: 0, EndSec: 120, FPS: 1}
}

func TestFetchActiveContextOnlyForWatchPages(t *testing.T) {
	c, tabs := newCoordinator(t, &test.FakeFactory{}, model.Settings{})
	ctx := context.Background()

	assert.Nil(t, c.FetchActiveContext(ctx).URL)

	tabs.Report(services.TabState{URL: "https://www.youtube.com/feed/subscriptions"})
	assert.Nil(t, c.FetchActiveContext(ctx).URL)
	assert.Nil(t, c.FetchVideoMetadata(ctx).DurationSec)

	d := 754.9
	tabs.Report(services.TabState{URL: test.WatchURL, DurationSec: &d})
	active := c.FetchActiveContext(ctx)
	assert.NotNil(t, active.URL)
	assert.Equal(t, test.WatchURL, *active.URL)
	meta := c.FetchVideoMetadata(ctx)
	assert.NotNil(t, meta.DurationSec)
	assert.Equal(t, 754.0, *meta.DurationSec)

	snap := c.Stats()
	assert.Equal(t, int64(3), snap.ContextFetches)
	assert.Equal(t, int64(2), snap.MetadataFetches)
}

func TestSubmitMissingCredential(t *testing.T) {
	factory := &test.FakeFactory{Generator: &test.FakeGenerator{}}
	c, _ := newCoordinator(t, factory, model.Settings{})

	result := c.SubmitAnalysis(context.Background(), request())
	assert.Equal(t, model.NewMissingCredential().Message, result.ErrorMessage)
	assert.Equal(t, "", result.Text)
	assert.Equal(t, 0, len(factory.Keys()))
	assert.Equal(t, int64(1), c.Stats().Failures[string(model.ErrorTypeMissingCredential)])
}

func TestSubmitSuccessCountsTokens(t *testing.T) {
	gen := &test.FakeGenerator{Response: test.NewTextResponse("## Report")}
	c, _ := newCoordinator(t, &test.FakeFactory{Generator: gen}, model.Settings{APIKey: "k"})

	result := c.SubmitAnalysis(context.Background(), request())
	assert.Equal(t, "## Report", result.Text)
	assert.False(t, result.Failed())

	snap := c.Stats()
	assert.Equal(t, int64(1), snap.Submissions)
	assert.Equal(t, int64(1), snap.Successes)
	assert.Equal(t, int64(1200), snap.PromptTokens)
	assert.Equal(t, int64(300), snap.CandidatesTokens)
}

func TestSubmitNetworkFailureIsNotRetried(t *testing.T) {
	gen := &test.FakeGenerator{Err: errors.New("dial tcp: i/o timeout")}
	c, _ := newCoordinator(t, &test.FakeFactory{Generator: gen}, model.Settings{APIKey: "k"})

	result := c.SubmitAnalysis(context.Background(), request())
	assert.Equal(t, "dial tcp: i/o timeout", result.ErrorMessage)
	assert.Equal(t, 1, len(gen.Calls()))
}

func TestHandleMessageProtocolErrors(t *testing.T) {
	c, _ := newCoordinator(t, &test.FakeFactory{}, model.Settings{})
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, &transport.Request{Type: "GET_TAB_URL"})
	assert.True(t, errors.Is(err, transport.ErrUnknownKind))

	_, err = c.HandleMessage(ctx, &transport.Request{Type: transport.KindSubmitAnalysis, Data: json.RawMessage(`{"url":`)})
	assert.True(t, errors.Is(err, transport.ErrMalformedPayload))

	_, err = c.HandleMessage(ctx, &transport.Request{Type: transport.KindSubmitAnalysis})
	assert.True(t, errors.Is(err, transport.ErrMalformedPayload))
}

// geminiStub serves generateContent the way the Gemini API does.
type geminiStub struct {
	status int
	body   string

	calls    atomic.Int32
	apiKey   atomic.Value
	lastBody atomic.Value
}

func (g *geminiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.calls.Add(1)
	g.apiKey.Store(r.Header.Get("x-goog-api-key"))
	raw, _ := io.ReadAll(r.Body)
	g.lastBody.Store(string(raw))
	if !strings.HasSuffix(r.URL.Path, ":generateContent") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(g.status)
	_, _ = io.WriteString(w, g.body)
}

func stubFactory(srv *httptest.Server) *cloud.GeminiGeneratorFactory {
	return &cloud.GeminiGeneratorFactory{BaseURL: srv.URL + "/", APIVersion: "v1beta", HTTPClient: srv.Client()}
}

func TestSubmitAgainstGeminiStub(t *testing.T) {
	stub := &geminiStub{status: http.StatusOK, body: `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "# 摘要\n- 重點"}]}}],
		"usageMetadata": {"promptTokenCount": 31000, "candidatesTokenCount": 420}
	}`}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	c, _ := newCoordinator(t, stubFactory(srv), model.Settings{APIKey: "secret-key"})
	result := c.SubmitAnalysis(context.Background(), request())

	assert.Equal(t, "# 摘要\n- 重點", result.Text)
	assert.Equal(t, int32(1), stub.calls.Load())
	assert.Equal(t, "secret-key", stub.apiKey.Load())

	body := stub.lastBody.Load().(string)
	assert.True(t, strings.Contains(body, test.WatchURL))
	assert.True(t, strings.Contains(body, "systemInstruction"))
	assert.True(t, strings.Contains(body, "endOffset"))
	assert.False(t, strings.Contains(body, "startOffset"))
	assert.Equal(t, int64(31000), c.Stats().PromptTokens)
}

// sentVideoMetadata decodes the videoMetadata of the video part the stub
// received.
func sentVideoMetadata(t *testing.T, stub *geminiStub) map[string]any {
	t.Helper()
	var sent struct {
		Contents []struct {
			Parts []struct {
				VideoMetadata map[string]any `json:"videoMetadata"`
			} `json:"parts"`
		} `json:"contents"`
	}
	test.HandleErr(json.Unmarshal([]byte(stub.lastBody.Load().(string)), &sent), t)
	assert.Equal(t, 1, len(sent.Contents))
	assert.Equal(t, 2, len(sent.Contents[0].Parts))
	return sent.Contents[0].Parts[0].VideoMetadata
}

func TestSubmitSendsExactOffsets(t *testing.T) {
	stub := &geminiStub{status: http.StatusOK, body: `{"candidates": [{"content": {"role": "model", "parts": [{"text": "ok"}]}}]}`}
	srv := httptest.NewServer(stub)
	defer srv.Close()
	c, _ := newCoordinator(t, stubFactory(srv), model.Settings{APIKey: "k"})
	ctx := context.Background()

	req := request()
	req.StartSec, req.EndSec = 1.5, 2.4
	assert.Equal(t, "ok", c.SubmitAnalysis(ctx, req).Text)
	md := sentVideoMetadata(t, stub)
	assert.Equal(t, "1.5s", md["startOffset"])
	assert.Equal(t, "2.4s", md["endOffset"])
	assert.Equal(t, 1.0, md["fps"])

	req.StartSec, req.EndSec, req.FPS = 0, 90.25, 0.5
	assert.Equal(t, "ok", c.SubmitAnalysis(ctx, req).Text)
	md = sentVideoMetadata(t, stub)
	_, hasStart := md["startOffset"]
	assert.False(t, hasStart)
	assert.Equal(t, "90.25s", md["endOffset"])
	assert.Equal(t, 0.5, md["fps"])
}

func TestSubmitMapsAPIErrorStatus(t *testing.T) {
	stub := &geminiStub{status: http.StatusForbidden, body: `{"error": {"code": 403, "message": "API key not valid. Please pass a valid API key.", "status": "PERMISSION_DENIED"}}`}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	c, _ := newCoordinator(t, stubFactory(srv), model.Settings{APIKey: "bad"})
	result := c.SubmitAnalysis(context.Background(), request())

	assert.Equal(t, "API request failed with status 403. API key not valid. Please pass a valid API key.", result.ErrorMessage)
	assert.Equal(t, int32(1), stub.calls.Load())
	assert.Equal(t, int64(1), c.Stats().Failures[string(model.ErrorTypeNetworkOrAPIFailure)])
}

func TestSubmitEmptyCandidates(t *testing.T) {
	stub := &geminiStub{status: http.StatusOK, body: `{"candidates": []}`}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	c, _ := newCoordinator(t, stubFactory(srv), model.Settings{APIKey: "k"})
	result := c.SubmitAnalysis(context.Background(), request())
	assert.Equal(t, model.NewEmptyResponse().Message, result.ErrorMessage)
}
