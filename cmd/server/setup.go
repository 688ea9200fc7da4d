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

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/services"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/workflow"
	"github.com/jaycherian/gcp-go-video-analysis/internal/settings"
)

type StateManager struct {
	config      *cloud.Config
	cloud       *cloud.ServiceClients
	tabs        *services.TabTracker
	coordinator *services.Coordinator
}

var state = &StateManager{}

func GetConfig() *cloud.Config {
	if state.config == nil {
		err := cloud.SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load config: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	repo, err := settings.New(config, cloudClients)
	if err != nil {
		cloudClients.Close()
		return fmt.Errorf("failed to open the settings store: %w", err)
	}

	state.tabs = services.NewTabTracker()
	state.coordinator = services.NewCoordinator(workflow.NewAnalysisWorkflow(cloudClients), repo, state.tabs)
	return nil
}
