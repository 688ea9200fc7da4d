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

// Package commands provides the concrete Command implementations that make up
// the analysis workflow. Each step reads its input from a well-known context
// key, records failures as *model.AnalysisError values, and publishes its
// output under its own key for the steps that follow.
//
// Logic Flow:
//  1. CredentialCheck turns the saved settings into a credential-bound
//     generator, or fails with MissingCredential before any network call.
//  2. PayloadBuilder turns the AnalysisRequest into genai contents.
//  3. ContentGenerator makes the single rate-limited model call.
//  4. ResponseTextExtractor picks the report text out of the response.
package commands

import "go.opentelemetry.io/contrib/bridges/otelslog"

// Context keys shared by the analysis commands and the workflow.
const (
	ParamRequest   = "analysis.request"   // *model.AnalysisRequest
	ParamSettings  = "analysis.settings"  // model.Settings
	ParamGenerator = "analysis.generator" // cloud.ContentGenerator
	ParamContents  = "analysis.contents"  // []*genai.Content
	ParamResponse  = "analysis.response"  // *genai.GenerateContentResponse
	ParamReport    = "analysis.report"    // string
)

var logger = otelslog.NewLogger("github.com/jaycherian/gcp-go-video-analysis/internal/core/commands")
