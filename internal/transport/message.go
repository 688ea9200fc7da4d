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

// Package transport carries the three panel messages to the coordinator and
// brings back exactly one response for each. The envelope is the same for
// every implementation: an in-process loopback and JSON over HTTP.
//
// Logic Flow:
//  1. The panel builds a Request with a fresh uuid and a kind-specific payload.
//  2. A Transport delivers it to a Handler (the coordinator) and waits.
//  3. Dispatch runs the handler, recovers panics, and turns the result or the
//     protocol error into a Response with the same id.
//  4. Client decodes the Response into the typed answer for the kind.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind names a message type on the wire.
type Kind string

const (
	KindFetchActiveContext Kind = "FETCH_ACTIVE_CONTEXT"
	KindFetchVideoMetadata Kind = "FETCH_VIDEO_METADATA"
	KindSubmitAnalysis     Kind = "SUBMIT_ANALYSIS"
)

// Idempotent reports whether a request of this kind may be sent again after a
// transport failure.
func (k Kind) Idempotent() bool {
	return k == KindFetchActiveContext || k == KindFetchVideoMetadata
}

var (
	// ErrUnknownKind is returned by handlers for a kind they do not serve.
	ErrUnknownKind = errors.New("unknown message kind")
	// ErrMalformedPayload is returned by handlers for a payload that does not decode.
	ErrMalformedPayload = errors.New("malformed message payload")
	// ErrTransportClosed is returned once a transport has been closed.
	ErrTransportClosed = errors.New("transport closed")
	// ErrTimeout is returned when no response arrived within the call's bound.
	ErrTimeout = errors.New("no response before timeout")
)

// ProtocolError is a failure reported by the receiving side in Response.Error.
type ProtocolError struct {
	Kind    Kind
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Request is the envelope sent for every message.
type Request struct {
	ID   uuid.UUID       `json:"id"`
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewRequest wraps payload in a new envelope. A nil payload sends no data.
func NewRequest(kind Kind, payload any) (*Request, error) {
	req := &Request{ID: uuid.New(), Type: kind}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", kind, err)
		}
		req.Data = data
	}
	return req, nil
}

// Decode unmarshals the payload into v. A missing payload is malformed.
func (r *Request) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("%w: %s carries no data", ErrMalformedPayload, r.Type)
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// Response is the envelope returned for every request. Error is set only for
// protocol failures; domain failures travel inside Data.
type Response struct {
	ID    uuid.UUID       `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// NewResponse builds the response to request id from a handler's return values.
func NewResponse(id uuid.UUID, result any, err error) *Response {
	resp := &Response{ID: id}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = fmt.Sprintf("failed to encode response: %v", err)
		return resp
	}
	resp.Data = data
	return resp
}

// Decode unmarshals Data into v, or returns the protocol error it carries.
func (r *Response) Decode(kind Kind, v any) error {
	if r.Error != "" {
		return &ProtocolError{Kind: kind, Message: r.Error}
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return &ProtocolError{Kind: kind, Message: fmt.Sprintf("undecodable response: %v", err)}
	}
	return nil
}
