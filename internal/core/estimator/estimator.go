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

// Package estimator predicts the input token cost of a video analysis request
// and decides whether the request may be submitted.
//
// Logic Flow:
//  1. Each sampled frame costs a fixed number of tokens that depends on the
//     media resolution mode (258 by default, 66 in low resolution).
//  2. Audio costs a fixed 32 tokens per second regardless of the frame rate.
//  3. Prompt text costs 1.5 tokens per character, rounded up.
//  4. The sum is rounded to the nearest integer and compared against Cap.
//     Sums too large for an int saturate at math.MaxInt.
package estimator

import (
	"math"
	"unicode/utf16"

	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
)

// Token rates used by the estimate.
const (
	TokensPerFrameDefault = 258
	TokensPerFrameLow     = 66
	AudioTokensPerSecond  = 32
	TextTokensPerChar     = 1.5

	// Cap is the largest estimate that may be submitted.
	Cap = 1_048_576
)

// TokensPerFrame returns the per-frame cost for a resolution mode.
func TokensPerFrame(res model.MediaResolution) int {
	if res == model.MediaResolutionLow {
		return TokensPerFrameLow
	}
	return TokensPerFrameDefault
}

// PromptLength counts prompt characters as UTF-16 code units, the unit the
// browser panel measured with.
func PromptLength(prompt string) int {
	n := 0
	for _, r := range prompt {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Estimate returns the predicted input tokens for analyzing durationSec
// seconds of video at fps frames per second with a prompt of promptLength
// characters. A non-positive duration always estimates to zero.
func Estimate(durationSec, fps float64, res model.MediaResolution, promptLength int) int {
	return toTokens(estimate(durationSec, fps, res, promptLength))
}

func estimate(durationSec, fps float64, res model.MediaResolution, promptLength int) float64 {
	if !(durationSec > 0) {
		return 0
	}
	if fps < 0 || math.IsNaN(fps) {
		fps = 0
	}
	mediaPerSecond := float64(TokensPerFrame(res))*fps + AudioTokensPerSecond
	mediaTotal := durationSec * mediaPerSecond
	textTotal := math.Ceil(float64(promptLength) * TextTokensPerChar)
	return math.Round(mediaTotal + textTotal)
}

func toTokens(total float64) int {
	if total >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(total)
}

// Assessment is the gating decision for the current panel state.
type Assessment struct {
	Tokens  int  // The estimate shown to the user; zero when the inputs are unusable.
	Enabled bool // Whether the submit control is enabled.
	OverCap bool // Whether the over-budget warning is raised.
}

// Gate estimates the range [startSec, endSec] and applies the submission
// policy. Unusable inputs force the estimate to zero and disable submission;
// an estimate above Cap disables submission and raises the warning.
func Gate(startSec, endSec, fps float64, res model.MediaResolution, promptLength int) Assessment {
	if startSec < 0 || !(endSec > startSec) || !(fps > 0) {
		return Assessment{}
	}
	total := estimate(endSec-startSec, fps, res, promptLength)
	if total > Cap {
		return Assessment{Tokens: toTokens(total), OverCap: true}
	}
	return Assessment{Tokens: toTokens(total), Enabled: true}
}
