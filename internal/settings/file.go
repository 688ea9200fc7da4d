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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
)

// FileRepository stores the record as a TOML document.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository returns a repository backed by path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path returns the backing file.
func (f *FileRepository) Path() string {
	return f.path
}

// Load reads the record. A missing file yields the defaults.
func (f *FileRepository) Load(_ context.Context) (model.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var s model.Settings
	if _, err := toml.DecodeFile(f.path, &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.DefaultSettings(), nil
		}
		return model.Settings{}, fmt.Errorf("failed to read settings from %s: %w", f.path, err)
	}
	return s.Normalize(), nil
}

// Save writes the normalized record to a temporary file in the same directory
// and renames it over the old one.
func (f *FileRepository) Save(_ context.Context, s model.Settings) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict settings file: %w", err)
	}
	if err = toml.NewEncoder(tmp).Encode(s.Normalize()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync settings: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err = os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
