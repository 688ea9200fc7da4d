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

package cloud

import (
	"strconv"
	"time"

	"google.golang.org/genai"
)

// ExactVideoOffsets returns a request body hook that rewrites the
// videoMetadata of every part in contents. The SDK encodes clip offsets in
// whole seconds and always sends a startOffset once an endOffset is set; the
// hook replaces both with the exact values and leaves a zero start out.
//
// The body parts are matched to contents by position.
func ExactVideoOffsets(contents []*genai.Content) genai.ExtrasRequestProvider {
	return func(body map[string]any) map[string]any {
		for i, c := range objectList(body["contents"]) {
			if i >= len(contents) || contents[i] == nil {
				break
			}
			for j, p := range objectList(c["parts"]) {
				if j >= len(contents[i].Parts) {
					break
				}
				src := contents[i].Parts[j]
				md, ok := p["videoMetadata"].(map[string]any)
				if src == nil || src.VideoMetadata == nil || !ok {
					continue
				}
				delete(md, "startOffset")
				delete(md, "endOffset")
				if src.VideoMetadata.StartOffset > 0 {
					md["startOffset"] = FormatOffset(src.VideoMetadata.StartOffset)
				}
				if src.VideoMetadata.EndOffset > 0 {
					md["endOffset"] = FormatOffset(src.VideoMetadata.EndOffset)
				}
			}
		}
		return body
	}
}

// FormatOffset renders d in the protobuf Duration JSON form, e.g. "1.5s".
func FormatOffset(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}

// objectList accepts both slice shapes the SDK converters produce.
func objectList(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			m, _ := item.(map[string]any)
			out = append(out, m)
		}
		return out
	}
	return nil
}
