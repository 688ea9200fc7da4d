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

package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupLoggingUsesCloudLoggingKeys(t *testing.T) {
	var buf bytes.Buffer
	defer slog.SetDefault(slog.Default())
	logger := telemetry.SetupLogging(&buf, "debug")

	logger.Warn("watch out", "component", "test")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "watch out", entry["message"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, "test", entry["component"])
}

func TestSetupLoggingAddsSpanContext(t *testing.T) {
	var buf bytes.Buffer
	defer slog.SetDefault(slog.Default())

	config := cloud.NewConfig()
	shutdown, err := telemetry.SetupOpenTelemetry(context.Background(), config)
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	logger := telemetry.SetupLogging(&buf, "info").With("scope", "span")
	ctx, span := otel.Tracer("telemetry-test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "inside span")
	span.End()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["logging.googleapis.com/trace"])
	assert.Equal(t, "span", entry["scope"])
}

func TestSetupLoggingFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	defer slog.SetDefault(slog.Default())
	logger := telemetry.SetupLogging(&buf, "error")
	logger.Info("ignored")
	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, telemetry.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, telemetry.ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, telemetry.ParseLevel("verbose"))
}

func TestSetupOpenTelemetryRejectsUnknownExporter(t *testing.T) {
	config := cloud.NewConfig()
	config.Telemetry.Exporter = "jaeger"
	_, err := telemetry.SetupOpenTelemetry(context.Background(), config)
	assert.Error(t, err)
}
