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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/natefinch/lumberjack"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/services"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/workflow"
	"github.com/jaycherian/gcp-go-video-analysis/internal/panel"
	"github.com/jaycherian/gcp-go-video-analysis/internal/panel/tui"
	"github.com/jaycherian/gcp-go-video-analysis/internal/settings"
	"github.com/jaycherian/gcp-go-video-analysis/internal/telemetry"
	"github.com/jaycherian/gcp-go-video-analysis/internal/transport"
)

func main() {
	if err := cloud.SetupOS(); err != nil {
		log.Fatalf("failed to setup os: %v\n", err)
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		log.Fatalf("failed to load config: %v\n", err)
	}

	// The terminal belongs to the UI, so logs go to a rotated file.
	logFile := &lumberjack.Logger{
		Filename:   config.Panel.LogFile,
		MaxSize:    config.Panel.LogMaxSizeMB,
		MaxBackups: config.Panel.LogMaxBackups,
	}
	defer logFile.Close()
	telemetry.SetupLogging(logFile, config.Application.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		log.Fatalf("failed to setup OpenTelemetry: %v\n", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		log.Fatalf("failed to create clients: %v\n", err)
	}
	defer clients.Close()

	repo, err := settings.New(config, clients)
	if err != nil {
		log.Fatalf("failed to open the settings store: %v\n", err)
	}

	t, closeTransport := newTransport(config, clients, repo)
	defer closeTransport()
	client := transport.NewClient(t, config.Transport.RequestTimeout.Duration, config.Transport.SubmitTimeout.Duration)

	prompt := config.Panel.DefaultPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = cloud.DefaultPrompt
	}
	ctrl := panel.NewController(client, repo, prompt)

	p := tea.NewProgram(tui.New(ctx, ctrl, config.Panel.ReportFile), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		slog.Error("panel exited with an error", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newTransport connects to the configured coordinator. An empty
// coordinator_url runs a coordinator in this process over the loopback.
func newTransport(config *cloud.Config, clients *cloud.ServiceClients, repo settings.Repository) (transport.Transport, func()) {
	if config.Transport.CoordinatorURL != "" {
		slog.Info("using remote coordinator", "url", config.Transport.CoordinatorURL)
		return transport.NewHTTPTransport(config.Transport.CoordinatorURL, nil), func() {}
	}

	slog.Info("using in-process coordinator")
	coordinator := services.NewCoordinator(workflow.NewAnalysisWorkflow(clients), repo, services.NewTabTracker())
	lb := transport.NewLoopback(coordinator)
	return lb, func() { _ = lb.Close() }
}
