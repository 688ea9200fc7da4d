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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains the values that only live for the
// duration of a single exchange between the panel and the coordinator. None
// of them is persisted: a request is built at submit time and consumed once,
// and a result is held only in the panel's display state.
package model

import (
	"math"
	"strings"
)

// WatchPagePattern is the substring a source URL must contain to be analyzed.
const WatchPagePattern = "youtube.com/watch"

// IsWatchPage reports whether url points at a video watch page.
func IsWatchPage(url string) bool {
	return strings.Contains(url, WatchPagePattern)
}

// AnalysisRequest is what the panel submits for analysis. The JSON names match
// the message payload the browser side already speaks.
type AnalysisRequest struct {
	SourceURL string  `json:"url"`       // The watch page of the video.
	Prompt    string  `json:"prompt"`    // The literal prompt text.
	StartSec  float64 `json:"startTime"` // Inclusive start of the analyzed range.
	EndSec    float64 `json:"endTime"`   // End of the analyzed range; must exceed StartSec.
	FPS       float64 `json:"fps"`       // Sampling rate in frames per second.
}

// Validate checks the request invariants in the order the panel reports them:
// url, then range, then prompt, then fps. The first violation is returned.
func (r *AnalysisRequest) Validate() error {
	if !IsWatchPage(r.SourceURL) {
		return NewInvalidInput(ReasonURL)
	}
	if r.StartSec < 0 || r.EndSec <= r.StartSec {
		return NewInvalidInput(ReasonRange)
	}
	if r.Prompt == "" {
		return NewInvalidInput(ReasonPrompt)
	}
	if !(r.FPS > 0 && r.FPS <= MaxFPS) {
		return NewInvalidInput(ReasonFPS)
	}
	return nil
}

// ActiveContext is the answer to FetchActiveContext. URL is nil when the active
// tab is not a watch page.
type ActiveContext struct {
	URL *string `json:"url"`
}

// VideoMetadata is the answer to FetchVideoMetadata. DurationSec is nil when
// the page has no video element or its duration is not yet known.
type VideoMetadata struct {
	DurationSec *float64 `json:"durationSec"`
}

// NewVideoMetadata floors a raw player duration. Non-finite or non-positive
// durations are reported as absent.
func NewVideoMetadata(raw *float64) VideoMetadata {
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) || *raw <= 0 {
		return VideoMetadata{}
	}
	d := math.Floor(*raw)
	return VideoMetadata{DurationSec: &d}
}

// AnalysisResult is the discriminated answer to SubmitAnalysis: exactly one
// of Text or ErrorMessage is set.
type AnalysisResult struct {
	Text         string `json:"text,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Failed reports whether the result carries an error message.
func (r AnalysisResult) Failed() bool {
	return r.ErrorMessage != ""
}

// ResultFromText builds a successful result.
func ResultFromText(text string) AnalysisResult {
	return AnalysisResult{Text: text}
}

// ResultFromError builds a failed result carrying the user-facing message of err.
func ResultFromError(err error) AnalysisResult {
	return AnalysisResult{ErrorMessage: UserMessage(err)}
}
