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

// Package cloud provides components for interacting with Google Cloud services.
// This file holds the clients the coordinator needs to talk to external
// services. It acts as a dependency injection container, creating a single,
// shared `ServiceClients` struct that is passed to the coordinator.
//
// Logic Flow:
//  1. `NewCloudServiceClients` is called at application startup with the config.
//  2. It builds the rate-limited analysis model from the [analysis] section.
//  3. It builds a GeneratorFactory that creates genai clients on demand. The
//     API key is part of the user settings, so no client can be created
//     until a request arrives carrying one.
//  4. If the settings backend is Redis, it opens the Redis client.
//
// Structs:
//   - ServiceClients: A container struct holding all initialized clients.
//   - GeminiGeneratorFactory: Creates and caches genai clients keyed by credential.
package cloud

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
)

// GeneratorFactory returns a ContentGenerator that authenticates with apiKey.
type GeneratorFactory interface {
	ForKey(ctx context.Context, apiKey string) (ContentGenerator, error)
}

// GeneratorFactoryFunc adapts a function to GeneratorFactory.
type GeneratorFactoryFunc func(ctx context.Context, apiKey string) (ContentGenerator, error)

// ForKey calls f.
func (f GeneratorFactoryFunc) ForKey(ctx context.Context, apiKey string) (ContentGenerator, error) {
	return f(ctx, apiKey)
}

// GeminiGeneratorFactory creates genai clients for the Gemini API backend.
// The client for the most recent key is cached; settings rarely change.
type GeminiGeneratorFactory struct {
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client

	mu      sync.Mutex
	lastKey string
	models  *genai.Models
}

// ForKey returns the Models handle of a client bound to apiKey.
func (f *GeminiGeneratorFactory) ForKey(ctx context.Context, apiKey string) (ContentGenerator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.models != nil && f.lastKey == apiKey {
		return f.models, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: f.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    f.BaseURL,
			APIVersion: f.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}
	f.lastKey = apiKey
	f.models = gc.Models
	return f.models, nil
}

// ServiceClients is a struct that acts as a central container for all the clients
// that interact with external services.
type ServiceClients struct {
	Generators    GeneratorFactory             // Creates credential-bound model handles.
	AnalysisModel *QuotaAwareGenerativeAIModel // The rate-limited analysis model.
	RedisClient   *redis.Client                // Set only when the settings backend is "redis".
}

// Close releases the client connections.
func (c *ServiceClients) Close() {
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
}

// NewAnalysisModel builds the rate-limited model described by the [analysis]
// configuration section.
func NewAnalysisModel(config *Config) *QuotaAwareGenerativeAIModel {
	genConfig := &genai.GenerateContentConfig{}
	if config.Analysis.SystemInstructions != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{NewTextPart(config.Analysis.SystemInstructions)}}
	}
	return NewQuotaAwareModel(genConfig, config.Analysis.Model, config.Analysis.RateLimit)
}

// NewCloudServiceClients is a factory function that initializes all required
// clients based on the provided configuration.
//
// Inputs:
//   - ctx: The root context.Context for the application.
//   - config: A pointer to the loaded application configuration (`Config`).
//
// Outputs:
//   - *ServiceClients: A pointer to the fully initialized ServiceClients struct.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	clients := &ServiceClients{
		Generators: &GeminiGeneratorFactory{
			BaseURL:    config.Analysis.BaseURL,
			APIVersion: config.Analysis.APIVersion,
		},
		AnalysisModel: NewAnalysisModel(config),
	}

	if config.Settings.Backend == "redis" {
		rc := redis.NewClient(&redis.Options{Addr: config.Settings.RedisAddr})
		if err := rc.Ping(ctx).Err(); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Settings.RedisAddr, err)
		}
		clients.RedisClient = rc
	}
	return clients, nil
}
