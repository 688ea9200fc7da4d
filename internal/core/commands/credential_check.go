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

package commands

import (
	"strings"

	"github.com/jaycherian/gcp-go-video-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
)

// CredentialCheck resolves the model handle for the saved API key.
type CredentialCheck struct {
	cor.BaseCommand
	generators cloud.GeneratorFactory
}

// NewCredentialCheck returns a CredentialCheck reading settings from
// ParamSettings and writing the generator to ParamGenerator.
func NewCredentialCheck(name string, generators cloud.GeneratorFactory) *CredentialCheck {
	out := &CredentialCheck{BaseCommand: *cor.NewBaseCommand(name), generators: generators}
	out.InputParamName = ParamSettings
	out.OutputParamName = ParamGenerator
	return out
}

// IsExecutable always runs the check, so missing settings surface as a
// missing credential instead of a silent skip.
func (c *CredentialCheck) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute fails with MissingCredential when no key is saved.
func (c *CredentialCheck) Execute(context cor.Context) {
	settings, _ := context.Get(c.GetInputParam()).(model.Settings)
	apiKey := strings.TrimSpace(settings.APIKey)
	if apiKey == "" {
		c.Fail(context, model.NewMissingCredential())
		return
	}

	generator, err := c.generators.ForKey(context.GetContext(), apiKey)
	if err != nil {
		c.Fail(context, model.NewNetworkFailure(err))
		return
	}
	c.Succeed(context, generator)
}
