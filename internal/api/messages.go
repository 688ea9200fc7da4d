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
	"github.com/jaycherian/gcp-go-video-analysis/internal/transport"
)

// Messages registers POST /messages under r. Every well-formed envelope gets
// a 200 with a response envelope, including protocol errors; only an
// undecodable envelope is a 400.
func Messages(r *gin.RouterGroup, handler transport.Handler) {
	r.POST("/messages", func(c *gin.Context) {
		var req transport.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, &transport.Response{Error: "invalid envelope: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, transport.Dispatch(c.Request.Context(), handler, &req))
	})
}
