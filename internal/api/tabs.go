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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/services"
)

// tabReport is the body sent by the browser shim.
type tabReport struct {
	URL         string   `json:"url" binding:"required"`
	DurationSec *float64 `json:"durationSec"`
}

// Tabs registers PUT and GET /tabs/active under r.
func Tabs(r *gin.RouterGroup, tracker *services.TabTracker) {
	tabs := r.Group("/tabs")
	{
		tabs.PUT("/active", func(c *gin.Context) {
			var in tabReport
			if err := c.ShouldBindJSON(&in); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			state := tracker.Report(services.TabState{URL: in.URL, DurationSec: in.DurationSec})
			c.JSON(http.StatusOK, state)
		})
		tabs.GET("/active", func(c *gin.Context) {
			state, ok := tracker.ActiveTab(c.Request.Context())
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "no active tab reported"})
				return
			}
			c.JSON(http.StatusOK, state)
		})
	}
}
