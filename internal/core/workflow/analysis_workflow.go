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

// Package workflow defines the high-level orchestrations that combine commands
// into pipelines. This file implements the video analysis workflow run for
// every SubmitAnalysis message.
package workflow

import (
	"context"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"google.golang.org/genai"
)

// AnalysisWorkflow turns one AnalysisRequest and the saved settings into a
// report. It makes at most one model call and never retries.
type AnalysisWorkflow struct {
	cor.BaseCommand
	generators cloud.GeneratorFactory
	genaiModel *cloud.QuotaAwareGenerativeAIModel
	chain      *cor.BaseChain
}

// Execute runs the chain against a context holding commands.ParamRequest and
// commands.ParamSettings.
func (w *AnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// IsExecutable requires a request; missing settings are reported by the
// credential check.
func (w *AnalysisWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(commands.ParamRequest) != nil
}

// Steps returns the command names in execution order.
func (w *AnalysisWorkflow) Steps() []string {
	return w.chain.Commands()
}

func (w *AnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// No credential, no network call.
	out.AddCommand(commands.NewCredentialCheck("credential-check", w.generators))
	out.AddCommand(commands.NewPayloadBuilder("payload-builder"))
	out.AddCommand(commands.NewContentGenerator("content-generator", w.genaiModel))
	out.AddCommand(commands.NewResponseTextExtractor("response-text-extractor"))

	w.chain = out
}

// NewAnalysisWorkflow builds the workflow from the shared service clients.
//
// Inputs:
//   - serviceClients: Supplies the generator factory and the rate-limited model.
//
// Returns:
//   - A pointer to a fully initialized AnalysisWorkflow.
func NewAnalysisWorkflow(serviceClients *cloud.ServiceClients) *AnalysisWorkflow {
	w := &AnalysisWorkflow{
		BaseCommand: *cor.NewBaseCommand("analysis-workflow"),
		generators:  serviceClients.Generators,
		genaiModel:  serviceClients.AnalysisModel,
	}
	w.initializeChain()
	return w
}

// Outcome is what one run of the workflow produced. Response is set whenever
// the model answered, even if no text could be extracted.
type Outcome struct {
	Report   string
	Response *genai.GenerateContentResponse
	Err      error
}

// Run executes the workflow for req. It blocks until the chain is done or ctx
// is cancelled.
func (w *AnalysisWorkflow) Run(ctx context.Context, req *model.AnalysisRequest, settings model.Settings) Outcome {
	chCtx := cor.NewBaseContext(ctx)
	chCtx.Add(commands.ParamRequest, req)
	chCtx.Add(commands.ParamSettings, settings)

	w.Execute(chCtx)

	out := Outcome{}
	out.Response, _ = chCtx.Get(commands.ParamResponse).(*genai.GenerateContentResponse)
	if err := chCtx.FirstError(); err != nil {
		out.Err = err
		return out
	}
	out.Report, _ = chCtx.Get(commands.ParamReport).(string)
	return out
}
