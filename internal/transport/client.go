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

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
)

// Client is the typed side of the transport used by the panel. Every call is
// bounded by a timeout. Fetches are retried once after a transport failure;
// submissions are sent exactly once.
type Client struct {
	transport      Transport
	requestTimeout time.Duration
	submitTimeout  time.Duration
}

// NewClient wraps t. Non-positive timeouts fall back to 10s and 5m.
func NewClient(t Transport, requestTimeout, submitTimeout time.Duration) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	if submitTimeout <= 0 {
		submitTimeout = 5 * time.Minute
	}
	return &Client{transport: t, requestTimeout: requestTimeout, submitTimeout: submitTimeout}
}

// FetchActiveContext asks for the URL of the active watch page.
func (c *Client) FetchActiveContext(ctx context.Context) (model.ActiveContext, error) {
	var out model.ActiveContext
	err := c.call(ctx, KindFetchActiveContext, nil, &out)
	return out, err
}

// FetchVideoMetadata asks for the duration of the active video.
func (c *Client) FetchVideoMetadata(ctx context.Context) (model.VideoMetadata, error) {
	var out model.VideoMetadata
	err := c.call(ctx, KindFetchVideoMetadata, nil, &out)
	return out, err
}

// SubmitAnalysis sends req for analysis. Domain failures come back inside the
// result; the error is set only when no result arrived.
func (c *Client) SubmitAnalysis(ctx context.Context, req model.AnalysisRequest) (model.AnalysisResult, error) {
	var out model.AnalysisResult
	err := c.call(ctx, KindSubmitAnalysis, req, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, kind Kind, payload any, out any) error {
	timeout := c.requestTimeout
	attempts := 2
	if !kind.Idempotent() {
		timeout = c.submitTimeout
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = c.attempt(ctx, kind, payload, timeout, out)
		var protocolErr *ProtocolError
		if err == nil || errors.As(err, &protocolErr) || ctx.Err() != nil {
			return err
		}
		if attempt < attempts {
			slog.WarnContext(ctx, "retrying message after transport failure", "type", kind, "error", err)
		}
	}
	return err
}

func (c *Client) attempt(ctx context.Context, kind Kind, payload any, timeout time.Duration, out any) error {
	req, err := NewRequest(kind, payload)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.transport.RoundTrip(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %s after %s: %w", ErrTimeout, kind, timeout, err)
		}
		return err
	}
	if resp.ID != req.ID {
		return &ProtocolError{Kind: kind, Message: fmt.Sprintf("response id %s does not match request %s", resp.ID, req.ID)}
	}
	return resp.Decode(kind, out)
}
