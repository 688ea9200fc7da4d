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
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"google.golang.org/genai"
)

// ResponseTextExtractor turns the model response into the report text.
type ResponseTextExtractor struct {
	cor.BaseCommand
}

// NewResponseTextExtractor returns an extractor reading ParamResponse and
// writing ParamReport.
func NewResponseTextExtractor(name string) *ResponseTextExtractor {
	out := &ResponseTextExtractor{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamResponse
	out.OutputParamName = ParamReport
	return out
}

// Execute fails with EmptyResponse when no candidate carries text.
func (r *ResponseTextExtractor) Execute(context cor.Context) {
	resp, ok := context.Get(r.GetInputParam()).(*genai.GenerateContentResponse)
	if !ok {
		r.Fail(context, fmt.Errorf("response extractor: missing %s", r.GetInputParam()))
		return
	}
	text, found := FirstText(resp)
	if !found {
		r.Fail(context, model.NewEmptyResponse())
		return
	}
	r.Succeed(context, text)
}

// FirstText returns the first non-blank text part, scanning candidates in
// order and the parts of each in order. The text is returned as sent.
func FirstText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && strings.TrimSpace(part.Text) != "" {
				return part.Text, true
			}
		}
	}
	return "", false
}
