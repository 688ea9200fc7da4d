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
	"math"
	"time"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"google.golang.org/genai"
)

// PayloadBuilder converts the AnalysisRequest into the multimodal prompt: the
// video reference first, then the prompt text.
type PayloadBuilder struct {
	cor.BaseCommand
}

// NewPayloadBuilder returns a PayloadBuilder reading ParamRequest and writing
// ParamContents.
func NewPayloadBuilder(name string) *PayloadBuilder {
	out := &PayloadBuilder{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamRequest
	out.OutputParamName = ParamContents
	return out
}

// Execute builds the contents.
func (p *PayloadBuilder) Execute(context cor.Context) {
	req, ok := context.Get(p.GetInputParam()).(*model.AnalysisRequest)
	if !ok || req == nil {
		p.Fail(context, fmt.Errorf("payload builder: missing %s", p.GetInputParam()))
		return
	}
	p.Succeed(context, BuildContents(req))
}

// BuildContents returns a single user content holding the video part and the
// prompt part.
func BuildContents(req *model.AnalysisRequest) []*genai.Content {
	video := &genai.Part{
		FileData:      cloud.NewFileData(req.SourceURL, ""),
		VideoMetadata: BuildVideoMetadata(req.StartSec, req.EndSec, req.FPS),
	}
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{video, cloud.NewTextPart(req.Prompt)},
	}}
}

// BuildVideoMetadata returns the clipping and sampling hints for the video
// part. A start of zero, an end that does not exceed the start, and a
// non-positive fps are all left out. It returns nil when nothing applies.
func BuildVideoMetadata(startSec, endSec, fps float64) *genai.VideoMetadata {
	if math.IsNaN(startSec) || startSec < 0 {
		startSec = 0
	}

	md := &genai.VideoMetadata{}
	set := false
	if startSec > 0 {
		md.StartOffset = seconds(startSec)
		set = true
	}
	if endSec > startSec {
		md.EndOffset = seconds(endSec)
		set = true
	}
	if fps > 0 && !math.IsInf(fps, 0) {
		md.FPS = genai.Ptr(fps)
		set = true
	}
	if !set {
		return nil
	}
	return md
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}
