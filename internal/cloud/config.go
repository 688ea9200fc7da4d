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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the coordinator service, the generative model, the message transport,
// the settings store, and the terminal panel.
//
// Structs:
//   - Analysis: Configuration for the Gemini model used for video analysis.
//   - Transport: Timeouts and endpoint for the panel/coordinator round-trip.
//   - SettingsStore: Which backend persists the user settings.
//   - Panel: Defaults for the interactive panel.
//   - Telemetry: Exporter selection for traces and metrics.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that returns a Config populated with defaults.
package cloud

import "time"

// DefaultSystemInstructions forces the response language of every analysis.
const DefaultSystemInstructions = "請以繁體中文回覆。"

// DefaultPrompt is the prompt the panel starts with.
const DefaultPrompt = "請提供：\n1. 影片主要內容摘要\n2. 關鍵觀點和重要資訊\n3. 主要結論或要點\n4. 如果有教學內容，請列出主要步驟\n\n請用繁體中文回答，並保持內容簡潔明瞭。"

// Duration wraps time.Duration so it can be decoded from TOML strings such as
// "10s" or "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Analysis represents the configuration for the generative model.
type Analysis struct {
	Model              string `toml:"model"`               // The Gemini model name, e.g. "gemini-2.5-flash".
	SystemInstructions string `toml:"system_instructions"` // Sent once per request as the system instruction.
	BaseURL            string `toml:"base_url"`            // Optional API endpoint override.
	APIVersion         string `toml:"api_version"`         // Optional API version override, e.g. "v1beta".
	RateLimit          int    `toml:"rate_limit"`          // Requests per second allowed towards the model.
}

// Transport represents the message transport settings shared by both sides.
type Transport struct {
	CoordinatorURL string   `toml:"coordinator_url"` // Base URL of the coordinator, used by the panel.
	RequestTimeout Duration `toml:"request_timeout"` // Bound for FetchActiveContext and FetchVideoMetadata.
	SubmitTimeout  Duration `toml:"submit_timeout"`  // Bound for SubmitAnalysis.
}

// SettingsStore selects and configures the persisted settings backend.
type SettingsStore struct {
	Backend   string `toml:"backend"`    // "file", "redis" or "memory".
	Path      string `toml:"path"`       // File backend location.
	RedisAddr string `toml:"redis_addr"` // Redis backend address.
	RedisKey  string `toml:"redis_key"`  // Redis hash key holding the record.
}

// Panel holds defaults for the interactive panel.
type Panel struct {
	DefaultPrompt string `toml:"default_prompt"`  // Prompt shown when the panel opens.
	LogFile       string `toml:"log_file"`        // Where the panel writes its structured logs.
	LogMaxSizeMB  int    `toml:"log_max_size_mb"` // Size at which the log file is rotated.
	LogMaxBackups int    `toml:"log_max_backups"` // Rotated log files kept.
	ReportFile    string `toml:"report_file"`     // Where the last HTML report is written on request.
}

// Telemetry selects the OpenTelemetry exporter.
type Telemetry struct {
	Exporter string `toml:"exporter"` // "gcp" or "none".
}

// Config represents the overall configuration for the application, loaded from TOML files.
// It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID, used by the telemetry exporters.
		ListenAddr      string `toml:"listen_addr"`       // Address the coordinator listens on.
		LogLevel        string `toml:"log_level"`         // "debug", "info", "warn" or "error".
	} `toml:"application"`
	Analysis  Analysis      `toml:"analysis"`
	Transport Transport     `toml:"transport"`
	Settings  SettingsStore `toml:"settings"`
	Panel     Panel         `toml:"panel"`
	Telemetry Telemetry     `toml:"telemetry"`
}

// NewConfig is a constructor function that creates a new Config instance
// with every default applied. Values decoded from TOML overwrite these.
//
// Outputs:
//   - *Config: A pointer to a new Config struct.
func NewConfig() *Config {
	c := &Config{}
	c.Application.Name = "video-analysis"
	c.Application.ListenAddr = "127.0.0.1:8080"
	c.Application.LogLevel = "info"
	c.Analysis = Analysis{
		Model:              "gemini-2.5-flash",
		SystemInstructions: DefaultSystemInstructions,
		RateLimit:          1,
	}
	c.Transport = Transport{
		CoordinatorURL: "http://127.0.0.1:8080",
		RequestTimeout: Duration{10 * time.Second},
		SubmitTimeout:  Duration{5 * time.Minute},
	}
	c.Settings = SettingsStore{
		Backend:  "file",
		Path:     "settings.toml",
		RedisKey: "video-analysis:settings",
	}
	c.Panel = Panel{
		DefaultPrompt: DefaultPrompt,
		LogFile:       "panel.log",
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
		ReportFile:    "report.html",
	}
	c.Telemetry = Telemetry{Exporter: "none"}
	return c
}
