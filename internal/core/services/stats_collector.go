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
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "video_analysis"

var (
	submissionsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "coordinator", "submissions_total"),
		"Finished analysis submissions by outcome.",
		[]string{"outcome"}, nil,
	)
	messagesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "coordinator", "fetches_total"),
		"Fetch messages served by kind.",
		[]string{"type"}, nil,
	)
	tokensDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "gemini", "tokens_total"),
		"Tokens reported by the model.",
		[]string{"direction"}, nil,
	)
)

// Describe implements prometheus.Collector.
func (s *Stats) Describe(ch chan<- *prometheus.Desc) {
	ch <- submissionsDesc
	ch <- messagesDesc
	ch <- tokensDesc
}

// Collect implements prometheus.Collector. Values are read from the same
// counters that back Snapshot.
func (s *Stats) Collect(ch chan<- prometheus.Metric) {
	snap := s.Snapshot()

	ch <- prometheus.MustNewConstMetric(submissionsDesc, prometheus.CounterValue, float64(snap.Successes), "success")
	for outcome, n := range snap.Failures {
		ch <- prometheus.MustNewConstMetric(submissionsDesc, prometheus.CounterValue, float64(n), outcome)
	}

	ch <- prometheus.MustNewConstMetric(messagesDesc, prometheus.CounterValue, float64(snap.ContextFetches), "FETCH_ACTIVE_CONTEXT")
	ch <- prometheus.MustNewConstMetric(messagesDesc, prometheus.CounterValue, float64(snap.MetadataFetches), "FETCH_VIDEO_METADATA")

	ch <- prometheus.MustNewConstMetric(tokensDesc, prometheus.CounterValue, float64(snap.PromptTokens), "input")
	ch <- prometheus.MustNewConstMetric(tokensDesc, prometheus.CounterValue, float64(snap.CandidatesTokens), "output")
}

// Collector exposes the coordinator counters to a Prometheus registry.
func (c *Coordinator) Collector() prometheus.Collector {
	return c.stats
}
