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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a wrapper around the Generative AI model handle. The
// wrapper uses the Decorator design pattern to add rate limiting in front of
// the model call without altering the genai client.
//
// Each call is a single attempt. A failed generation is reported to the
// caller as-is; the user decides whether to resubmit.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Pairs a model name and its generation config
//     with a rate limiter.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: Waits for the limiter, then issues exactly one call with
//     the video offsets of the prompt written out exactly.
package cloud

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the subset of *genai.Models used for analysis. It lets
// tests substitute a fake for the remote model.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel is a decorator that adds a rate limiter in front
// of a ContentGenerator. The generator itself is supplied per call, because the
// credential it carries belongs to the user settings rather than to the
// service configuration.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Base generation config; SystemInstruction lives here.
	ModelName               string
	RateLimit               *rate.Limiter
}

// NewQuotaAwareModel is a constructor function that creates a new
// QuotaAwareGenerativeAIModel.
//
// Inputs:
//   - config: The generation config applied to every call.
//   - name: The model name, e.g. "gemini-2.5-flash".
//   - requestsPerSecond: The sustained request rate and burst size. Values
//     below one are treated as one.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second/time.Duration(requestsPerSecond)), requestsPerSecond),
	}
}

// GenerateContent waits for a limiter token and then performs exactly one
// model call.
//
// Inputs:
//   - ctx: Controls cancellation while waiting and during the call.
//   - handle: The generator bound to the caller's credential.
//   - content: The multimodal prompt.
//
// Outputs:
//   - *genai.GenerateContentResponse: The response from the model.
//   - error: The limiter or model error.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, handle ContentGenerator, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return handle.GenerateContent(ctx, q.ModelName, content, q.callConfig(content))
}

// callConfig copies the base config for one call and attaches the offset
// hook for content. The SDK writes into HTTPOptions, so the base config is
// never handed out.
func (q *QuotaAwareGenerativeAIModel) callConfig(content []*genai.Content) *genai.GenerateContentConfig {
	config := genai.GenerateContentConfig{}
	if q.GenerativeContentConfig != nil {
		config = *q.GenerativeContentConfig
	}
	options := genai.HTTPOptions{}
	if config.HTTPOptions != nil {
		options = *config.HTTPOptions
	}
	options.Headers = options.Headers.Clone()
	if options.Headers == nil {
		options.Headers = http.Header{}
	}

	exact := ExactVideoOffsets(content)
	if base := options.ExtrasRequestProvider; base != nil {
		options.ExtrasRequestProvider = func(body map[string]any) map[string]any {
			return exact(base(body))
		}
	} else {
		options.ExtrasRequestProvider = exact
	}
	config.HTTPOptions = &options
	return &config
}
