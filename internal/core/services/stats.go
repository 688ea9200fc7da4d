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

package services

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-video-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
)

var failureTypes = []model.ErrorType{
	model.ErrorTypeMissingCredential,
	model.ErrorTypeInvalidInput,
	model.ErrorTypeTokenBudgetExceeded,
	model.ErrorTypeNetworkOrAPIFailure,
	model.ErrorTypeEmptyResponse,
}

// unclassified counts failures outside the taxonomy, such as a settings read error.
const unclassified = "OTHER"

// Stats counts coordinator activity in memory and mirrors it to otel counters.
type Stats struct {
	submissions      atomic.Int64
	successes        atomic.Int64
	failures         map[string]*atomic.Int64
	promptTokens     atomic.Int64
	candidatesTokens atomic.Int64
	contextFetches   atomic.Int64
	metadataFetches  atomic.Int64

	submissionCounter metric.Int64Counter
	messageCounter    metric.Int64Counter
}

// StatsSnapshot is the JSON view served on /api/v1/stats.
type StatsSnapshot struct {
	Submissions      int64            `json:"submissions"`
	Successes        int64            `json:"successes"`
	Failures         map[string]int64 `json:"failures"`
	PromptTokens     int64            `json:"promptTokens"`
	CandidatesTokens int64            `json:"candidatesTokens"`
	ContextFetches   int64            `json:"contextFetches"`
	MetadataFetches  int64            `json:"metadataFetches"`
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	s := &Stats{failures: make(map[string]*atomic.Int64, len(failureTypes)+1)}
	for _, t := range failureTypes {
		s.failures[string(t)] = &atomic.Int64{}
	}
	s.failures[unclassified] = &atomic.Int64{}

	meter := otel.Meter(cor.MeterName)
	var err error
	if s.submissionCounter, err = meter.Int64Counter("coordinator.submissions"); err != nil {
		slog.Warn("error creating submissions counter", "error", err)
	}
	if s.messageCounter, err = meter.Int64Counter("coordinator.messages"); err != nil {
		slog.Warn("error creating messages counter", "error", err)
	}
	return s
}

func (s *Stats) recordMessage(ctx context.Context, kind string) {
	if s.messageCounter != nil {
		s.messageCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", kind)))
	}
}

func (s *Stats) recordContextFetch(ctx context.Context) {
	s.contextFetches.Add(1)
	s.recordMessage(ctx, "FETCH_ACTIVE_CONTEXT")
}

func (s *Stats) recordMetadataFetch(ctx context.Context) {
	s.metadataFetches.Add(1)
	s.recordMessage(ctx, "FETCH_VIDEO_METADATA")
}

// recordSubmission counts one finished submission. err is nil on success.
func (s *Stats) recordSubmission(ctx context.Context, err error) {
	s.submissions.Add(1)
	s.recordMessage(ctx, "SUBMIT_ANALYSIS")

	outcome := "success"
	if err == nil {
		s.successes.Add(1)
	} else {
		outcome = string(model.TypeOf(err))
		counter, ok := s.failures[outcome]
		if !ok {
			outcome = unclassified
			counter = s.failures[unclassified]
		}
		counter.Add(1)
	}
	if s.submissionCounter != nil {
		s.submissionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (s *Stats) recordTokens(prompt, candidates int64) {
	s.promptTokens.Add(prompt)
	s.candidatesTokens.Add(candidates)
}

// Snapshot returns the current values.
func (s *Stats) Snapshot() StatsSnapshot {
	out := StatsSnapshot{
		Submissions:      s.submissions.Load(),
		Successes:        s.successes.Load(),
		Failures:         make(map[string]int64, len(s.failures)),
		PromptTokens:     s.promptTokens.Load(),
		CandidatesTokens: s.candidatesTokens.Load(),
		ContextFetches:   s.contextFetches.Load(),
		MetadataFetches:  s.metadataFetches.Load(),
	}
	for k, v := range s.failures {
		out.Failures[k] = v.Load()
	}
	return out
}
