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

package commands

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"google.golang.org/genai"
)

// ContentGenerator sends the prepared contents to the model. It makes exactly
// one call; a failure is classified and recorded, never retried.
type ContentGenerator struct {
	cor.BaseCommand
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
}

// NewContentGenerator returns a ContentGenerator reading ParamContents and
// ParamGenerator and writing ParamResponse.
func NewContentGenerator(name string, generativeAIModel *cloud.QuotaAwareGenerativeAIModel) *ContentGenerator {
	out := &ContentGenerator{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
	}
	out.InputParamName = ParamContents
	out.OutputParamName = ParamResponse

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	return out
}

// Execute performs the model call.
func (g *ContentGenerator) Execute(context cor.Context) {
	contents, _ := context.Get(g.GetInputParam()).([]*genai.Content)
	handle, ok := context.Get(ParamGenerator).(cloud.ContentGenerator)
	if !ok || handle == nil {
		g.Fail(context, model.NewMissingCredential())
		return
	}

	ctx := context.GetContext()
	resp, err := g.generativeAIModel.GenerateContent(ctx, handle, contents)
	if err != nil {
		classified := ClassifyError(err)
		logger.WarnContext(ctx, "gemini request failed", "model", g.generativeAIModel.ModelName, "status", classified.Status, "error", err)
		g.Fail(context, classified)
		return
	}

	if resp.UsageMetadata != nil {
		g.geminiInputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		g.geminiOutputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}
	logger.DebugContext(ctx, "gemini request completed", "model", g.generativeAIModel.ModelName, "candidates", len(resp.Candidates))
	g.Succeed(context, resp)
}

// ClassifyError maps a model call error to the user-facing taxonomy. Provider
// responses keep their status code; everything else is a network failure.
func ClassifyError(err error) *model.AnalysisError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return model.NewAPIFailure(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return model.NewAPIFailure(apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return model.NewNetworkFailure(err)
}
