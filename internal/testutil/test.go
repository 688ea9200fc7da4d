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

// Package test provides helpers shared by the test suites: the cached test
// configuration and fakes for the remote model.
package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"google.golang.org/genai"
)

// WatchURL is a video page accepted by the watch page check.
const WatchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// StateManager caches the configuration for the whole test run.
type StateManager struct {
	once   sync.Once
	config *cloud.Config
	err    error
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// repoRoot walks up from the working directory to the directory holding go.mod.
func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above working directory")
		}
		dir = parent
	}
}

// SetupOS points the configuration loader at the repository's configs
// directory and selects the "test" runtime overlay.
func SetupOS() error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	if err = os.Setenv(cloud.EnvConfigFilePrefix, filepath.Join(root, "configs")); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig returns the test configuration, loading it on first use. A load
// failure panics: no test can run without configuration.
func GetConfig() *cloud.Config {
	state.once.Do(func() {
		if state.err = SetupOS(); state.err != nil {
			return
		}
		config := cloud.NewConfig()
		state.err = cloud.LoadConfig(config)
		state.config = config
	})
	if state.err != nil {
		panic(fmt.Errorf("failed to load test configuration: %w", state.err))
	}
	return state.config
}

// FakeCall is one recorded GenerateContent invocation.
type FakeCall struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// FakeGenerator is a cloud.ContentGenerator returning a canned answer.
type FakeGenerator struct {
	Response *genai.GenerateContentResponse
	Err      error

	mu    sync.Mutex
	calls []FakeCall
}

// GenerateContent records the call and returns the canned answer.
func (f *FakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, FakeCall{Model: model, Contents: contents, Config: config})
	return f.Response, f.Err
}

// Calls returns the recorded calls.
func (f *FakeGenerator) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// FakeFactory hands out Generator for every key and records the keys asked for.
type FakeFactory struct {
	Generator cloud.ContentGenerator
	Err       error

	mu   sync.Mutex
	keys []string
}

// ForKey implements cloud.GeneratorFactory.
func (f *FakeFactory) ForKey(_ context.Context, apiKey string) (cloud.ContentGenerator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, apiKey)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Generator, nil
}

// Keys returns the keys requested so far.
func (f *FakeFactory) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

// NewTextResponse builds a response with one candidate per text.
func NewTextResponse(texts ...string) *genai.GenerateContentResponse {
	resp := &genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 1200, CandidatesTokenCount: 300},
	}
	for _, text := range texts {
		resp.Candidates = append(resp.Candidates, &genai.Candidate{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		})
	}
	return resp
}
