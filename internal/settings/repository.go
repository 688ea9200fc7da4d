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

// Package settings persists the user record: the API key, the sampling rate
// and the media resolution. Three backends share one interface: a TOML file
// for a single workstation, a Redis hash for a shared coordinator, and an
// in-memory record for tests.
//
// Every backend applies the same rules. Load returns the defaults for fields
// that were never saved, and Save normalizes the record and writes it once,
// with the last writer winning.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
)

// Backend names accepted in the [settings] section.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Repository loads and stores the settings record.
type Repository interface {
	Load(ctx context.Context) (model.Settings, error)
	Save(ctx context.Context, s model.Settings) error
}

// New returns the repository selected by config. The Redis backend reuses the
// client opened by cloud.NewCloudServiceClients.
func New(config *cloud.Config, clients *cloud.ServiceClients) (Repository, error) {
	switch config.Settings.Backend {
	case BackendFile, "":
		return NewFileRepository(config.Settings.Path), nil
	case BackendRedis:
		if clients == nil || clients.RedisClient == nil {
			return nil, fmt.Errorf("settings backend %q requires a redis client", BackendRedis)
		}
		return NewRedisRepository(clients.RedisClient, config.Settings.RedisKey), nil
	case BackendMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown settings backend %q", config.Settings.Backend)
	}
}

// MemoryRepository keeps the record in process memory.
type MemoryRepository struct {
	mu       sync.Mutex
	settings model.Settings
	saves    int
}

// NewMemoryRepository returns a repository holding the defaults.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{settings: model.DefaultSettings()}
}

// Load returns the stored record.
func (m *MemoryRepository) Load(_ context.Context) (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

// Save normalizes and stores s.
func (m *MemoryRepository) Save(_ context.Context, s model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s.Normalize()
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryRepository) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
