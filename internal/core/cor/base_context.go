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

package cor

import (
	"context"
)

// BaseContext is the default Context. It is used by one execution at a time
// and is not safe for concurrent use.
type BaseContext struct {
	data       map[string]interface{}
	errors     map[string]error
	errorOrder []string // Command names in the order their errors were recorded.
	errorCount int      // AddError calls, including replacements.
	context    context.Context
}

// NewBaseContext returns an empty context bound to ctx.
func NewBaseContext(ctx context.Context) Context {
	return &BaseContext{
		data:    make(map[string]interface{}),
		errors:  make(map[string]error),
		context: ctx,
	}
}

// SetContext sets the Go context.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext returns the Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Add stores value under key.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddError records err for the command named key. A later error for the same
// command replaces the earlier one but keeps its position.
func (c *BaseContext) AddError(key string, err error) {
	if _, seen := c.errors[key]; !seen {
		c.errorOrder = append(c.errorOrder, key)
	}
	c.errors[key] = err
	c.errorCount++
}

// ErrorCount returns how many errors were recorded, replacements included.
func (c *BaseContext) ErrorCount() int {
	return c.errorCount
}

// GetErrors returns all recorded errors.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// FirstError returns the earliest recorded error.
func (c *BaseContext) FirstError() error {
	if len(c.errorOrder) == 0 {
		return nil
	}
	return c.errors[c.errorOrder[0]]
}

// Get returns the value stored under key.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes key.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether an error has been recorded.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
