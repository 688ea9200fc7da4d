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
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Handler serves messages. The returned value is encoded as the response
// data; a non-nil error becomes a protocol error.
type Handler interface {
	HandleMessage(ctx context.Context, req *Request) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) (any, error)

// HandleMessage calls f.
func (f HandlerFunc) HandleMessage(ctx context.Context, req *Request) (any, error) {
	return f(ctx, req)
}

// Transport delivers one request and returns its response.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// Dispatch runs handler for req and always returns a response. A panicking
// handler yields a protocol error.
func Dispatch(ctx context.Context, handler Handler, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "message handler panicked", "id", req.ID, "type", req.Type, "panic", r, "stack", string(debug.Stack()))
			resp = NewResponse(req.ID, nil, fmt.Errorf("handler failed for %s", req.Type))
		}
	}()
	result, err := handler.HandleMessage(ctx, req)
	return NewResponse(req.ID, result, err)
}
