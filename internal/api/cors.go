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
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ExtensionOriginPrefix is the origin scheme of browser extension pages.
const ExtensionOriginPrefix = "chrome-extension://"

// AllowExtensionOrigin reports whether origin belongs to an extension. Web
// pages and other hosts are refused, since the coordinator spends the saved
// API key on their behalf.
func AllowExtensionOrigin(origin string) bool {
	return strings.HasPrefix(origin, ExtensionOriginPrefix) && len(origin) > len(ExtensionOriginPrefix)
}

// ExtensionCORS answers cross-origin requests from extension origins only.
// Requests without an Origin header, such as the panel's own HTTP client,
// pass through untouched.
func ExtensionCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: AllowExtensionOrigin,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders:    []string{"Content-Type", "traceparent", "tracestate"},
		MaxAge:          12 * time.Hour,
	})
}
