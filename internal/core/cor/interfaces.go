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

// Package cor (Chain of Responsibility) provides the building blocks the
// coordinator uses to run an analysis as a sequence of small, traced steps.
// This file defines the interfaces; base_*.go hold the default implementations.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe data between the commands of a
// BaseChain.
const (
	// CtxIn holds the primary input of the running command. The chain fills
	// it with the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the property bag shared by the commands of one execution. It
// carries data, the errors raised so far, and the Go context used for
// cancellation and tracing.
type Context interface {
	// SetContext sets the Go context for the next command.
	SetContext(context context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error raised by the command named key.
	AddError(key string, err error)

	// ErrorCount returns the number of AddError calls so far. Unlike
	// len(GetErrors()) it grows when a key is recorded again.
	ErrorCount() int

	// GetErrors returns every recorded error keyed by command name.
	GetErrors() map[string]error

	// FirstError returns the earliest recorded error, or nil.
	FirstError() error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// HasErrors reports whether any error has been recorded.
	HasErrors() bool
}

// Executable is anything with an Execute step.
type Executable interface {
	// Execute reads its inputs from the context and writes its outputs back.
	Execute(context Context)
}

// Command is an atomic, testable unit of work.
type Command interface {
	Executable

	// GetName returns the command name used for spans and metrics.
	GetName() string

	// GetInputParam returns the context key of the primary input.
	GetInputParam() string

	// GetOutputParam returns the context key of the primary output.
	GetOutputParam() string

	// IsExecutable reports whether the context holds what Execute needs.
	IsExecutable(context Context) bool

	// GetTracer returns the command's tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's meter.
	GetMeter() metric.Meter

	// GetSuccessCounter counts successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter counts failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command made of other commands, executed in order.
type Chain interface {
	Command

	// ContinueOnFailure controls whether later commands still run after one
	// records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
