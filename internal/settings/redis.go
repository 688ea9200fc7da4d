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

package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	"github.com/redis/go-redis/v9"
)

// Hash fields of the Redis record.
const (
	fieldAPIKey          = "apiKey"
	fieldFPS             = "fps"
	fieldMediaResolution = "mediaResolution"
)

// RedisRepository stores the record as a hash under one key.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository returns a repository using the hash at key.
func NewRedisRepository(client *redis.Client, key string) *RedisRepository {
	return &RedisRepository{client: client, key: key}
}

// Load reads the hash. Missing fields take their defaults.
func (r *RedisRepository) Load(ctx context.Context) (model.Settings, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to read settings hash %s: %w", r.key, err)
	}

	s := model.Settings{
		APIKey:          values[fieldAPIKey],
		MediaResolution: model.MediaResolution(values[fieldMediaResolution]),
	}
	if raw, ok := values[fieldFPS]; ok {
		if fps, err := strconv.ParseFloat(raw, 64); err == nil {
			s.FPS = fps
		}
	}
	return s.Normalize(), nil
}

// Save writes every field with a single HSET.
func (r *RedisRepository) Save(ctx context.Context, s model.Settings) error {
	s = s.Normalize()
	err := r.client.HSet(ctx, r.key,
		fieldAPIKey, s.APIKey,
		fieldFPS, strconv.FormatFloat(s.FPS, 'f', -1, 64),
		fieldMediaResolution, string(s.MediaResolution),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write settings hash %s: %w", r.key, err)
	}
	return nil
}
