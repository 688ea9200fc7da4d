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
// This file contains general-purpose utility functions that support the cloud package.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - SetupOS: Fills in the config directory and runtime environment variables
//     that the caller has not set.
//   - LoadConfig: Implements a hierarchical configuration loader. It first reads a base
//     configuration file and then overwrites values with a second, environment-specific
//     file (e.g., .env.local.toml, .env.test.toml). The environment is determined by
//     an environment variable.
//   - NewFileData, NewTextPart: Factory functions for the genai.Part values that make
//     up a multimodal prompt.
package cloud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

// Cloud Constants define key strings used for configuration loading.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
)

// Defaults applied by SetupOS.
const (
	DefaultConfigDir = "configs"
	DefaultRuntime   = "local"
)

// SetupOS points the config loader at DefaultConfigDir with the
// DefaultRuntime overlay, unless the environment already says otherwise.
func SetupOS() error {
	if os.Getenv(EnvConfigFilePrefix) == "" {
		if err := os.Setenv(EnvConfigFilePrefix, DefaultConfigDir); err != nil {
			return err
		}
	}
	if os.Getenv(EnvConfigRuntime) == "" {
		return os.Setenv(EnvConfigRuntime, DefaultRuntime)
	}
	return nil
}

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime-specific configuration paths that
// LoadConfig reads, in the order they are applied.
func ConfigFiles() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}
	base = filepath.Join(prefix, ConfigFileBaseName+ConfigFileExtension)
	runtime = filepath.Join(prefix, ConfigFileBaseName+ConfigSeparator+runtimeEnvironment+ConfigFileExtension)
	return base, runtime
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then merges or overwrites its values with an environment-specific
// configuration file. Missing files are skipped; malformed files are an error.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct that will be populated
//     from the TOML files.
//
// Outputs:
//   - error: The first decode failure, if any.
func LoadConfig(baseConfig interface{}) error {
	baseConfigFileName, envConfigFileName := ConfigFiles()
	slog.Debug("loading configuration", "base", baseConfigFileName, "runtime", envConfigFileName)

	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
	}
	return nil
}

// NewTextPart creates a text part for a multimodal prompt.
func NewTextPart(in string) *genai.Part {
	return &genai.Part{Text: in}
}

// NewFileData creates a file reference for a multimodal prompt. The MIME type
// may be empty for hosted video pages, which the service resolves itself.
//
// Inputs:
//   - in: The URI of the file (e.g., a watch page URL).
//   - mimeType: The MIME type of the file, or "".
func NewFileData(in string, mimeType string) *genai.FileData {
	return &genai.FileData{FileURI: in, MIMEType: mimeType}
}
