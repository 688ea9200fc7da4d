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

// Package rangesel implements the two-handle time range selector as a pure
// state machine.
//
// Logic Flow:
//  1. New builds a selection spanning the whole video, or FallbackDuration
//     when the duration is unknown.
//  2. Edit moves one handle. The value is clamped to [Min, Max]; if the
//     handles cross, the handle that was not edited is snapped onto the one
//     that was. An edit is never rejected.
//  3. Display derives the labels and fill fractions a view draws.
//
// The invariant Min <= Start <= End <= Max holds for every Selection
// returned by New and Edit.
package rangesel

import (
	"fmt"
	"math"
)

// FallbackDuration is the range length, in seconds, used when the video
// duration cannot be determined.
const FallbackDuration = 60.0

// Handle identifies one end of the range.
type Handle int

const (
	HandleStart Handle = iota
	HandleEnd
)

// String returns the handle name.
func (h Handle) String() string {
	if h == HandleEnd {
		return "end"
	}
	return "start"
}

// Selection is the state of the selector in seconds.
type Selection struct {
	Min   float64
	Max   float64
	Start float64
	End   float64
}

// New initializes a selection covering [0, duration]. A nil, non-finite or
// non-positive duration selects FallbackDuration.
func New(duration *float64) Selection {
	d := FallbackDuration
	if duration != nil && *duration > 0 && !math.IsInf(*duration, 0) {
		d = *duration
	}
	return Selection{Min: 0, Max: d, Start: 0, End: d}
}

// UsesFallback reports whether New would fall back for duration.
func UsesFallback(duration *float64) bool {
	return duration == nil || !(*duration > 0) || math.IsInf(*duration, 0)
}

// Edit returns the selection after moving handle h to v.
func Edit(s Selection, h Handle, v float64) Selection {
	v = clamp(v, s.Min, s.Max)
	switch h {
	case HandleStart:
		s.Start = v
		if s.Start > s.End {
			s.End = s.Start
		}
	case HandleEnd:
		s.End = v
		if s.Start > s.End {
			s.Start = s.End
		}
	}
	return s
}

// Duration is the length of the selected range.
func (s Selection) Duration() float64 {
	return s.End - s.Start
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// View is the derived display state of a Selection.
type View struct {
	StartLabel string  // mm:ss of Start.
	EndLabel   string  // mm:ss of End.
	RangeLabel string  // "mm:ss - mm:ss".
	StartFill  float64 // Fraction of the track before the start handle.
	EndFill    float64 // Fraction of the track before the end handle.
}

// Display derives labels and fill fractions. Both fractions are 0 when the
// track has no length.
func Display(s Selection) View {
	v := View{
		StartLabel: FormatMMSS(s.Start),
		EndLabel:   FormatMMSS(s.End),
	}
	v.RangeLabel = v.StartLabel + " - " + v.EndLabel
	if span := s.Max - s.Min; span > 0 {
		v.StartFill = (s.Start - s.Min) / span
		v.EndFill = (s.End - s.Min) / span
	}
	return v
}

// FormatMMSS renders whole seconds as zero-padded minutes and seconds.
// Fractions are floored and negative or invalid values render as 00:00.
func FormatMMSS(sec float64) string {
	if math.IsNaN(sec) || sec < 0 {
		sec = 0
	}
	s := int64(math.Floor(sec))
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
