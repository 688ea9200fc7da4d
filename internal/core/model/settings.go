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

package model

import (
	"strconv"
	"strings"
)

// MediaResolution is the per-frame quality mode requested from the model.
type MediaResolution string

const (
	MediaResolutionDefault MediaResolution = "default"
	MediaResolutionLow     MediaResolution = "low"
)

// DefaultFPS is the sampling rate used when none has been saved.
const DefaultFPS = 1.0

// MaxFPS is the highest sampling rate Gemini accepts for video input.
const MaxFPS = 24.0

// ParseMediaResolution maps free text to a resolution mode. Anything other
// than "low" is the default mode.
func ParseMediaResolution(in string) MediaResolution {
	if strings.EqualFold(strings.TrimSpace(in), string(MediaResolutionLow)) {
		return MediaResolutionLow
	}
	return MediaResolutionDefault
}

// Settings is the flat, persisted user record.
type Settings struct {
	APIKey          string          `json:"apiKey" toml:"apiKey" redis:"apiKey"`
	FPS             float64         `json:"fps" toml:"fps" redis:"fps"`
	MediaResolution MediaResolution `json:"mediaResolution" toml:"mediaResolution" redis:"mediaResolution"`
}

// DefaultSettings is the record a fresh installation starts with.
func DefaultSettings() Settings {
	return Settings{FPS: DefaultFPS, MediaResolution: MediaResolutionDefault}
}

// Normalize applies the save rules: the key is trimmed, an fps outside
// (0, MaxFPS] becomes DefaultFPS, and an unknown resolution becomes the
// default mode.
func (s Settings) Normalize() Settings {
	out := Settings{
		APIKey:          strings.TrimSpace(s.APIKey),
		FPS:             s.FPS,
		MediaResolution: ParseMediaResolution(string(s.MediaResolution)),
	}
	if !(out.FPS > 0 && out.FPS <= MaxFPS) {
		out.FPS = DefaultFPS
	}
	return out
}

// ParseFPS reads an fps field the way the panel does: unparsable text and
// values outside (0, MaxFPS] yield 0, which the estimator treats as
// "disabled".
func ParseFPS(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || !(v > 0 && v <= MaxFPS) {
		return 0
	}
	return v
}

// FormatFPS renders an fps value for an input field.
func FormatFPS(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
