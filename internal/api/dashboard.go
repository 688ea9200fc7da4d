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

// Package api defines the coordinator's gin route groups: the message
// endpoint used by the panel, the tab endpoint fed by the browser shim, and
// the usage statistics as JSON and in the Prometheus text format.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/services"
)

// StatsSource supplies the usage counters.
type StatsSource interface {
	Stats() services.StatsSnapshot
}

// Dashboard registers GET /stats under r.
func Dashboard(r *gin.RouterGroup, source StatsSource) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, source.Stats())
		})
	}
}

// Health registers GET /healthz on the engine root.
func Health(r gin.IRoutes) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
