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
	"sync"
)

// pending is one request in flight through a Loopback.
type pending struct {
	ctx   context.Context
	req   *Request
	reply chan *Response
	once  sync.Once
}

func newPending(ctx context.Context, req *Request) *pending {
	return &pending{ctx: ctx, req: req, reply: make(chan *Response, 1)}
}

// complete delivers resp unless a response was already delivered. It reports
// whether resp was the one delivered.
func (p *pending) complete(resp *Response) bool {
	delivered := false
	p.once.Do(func() {
		p.reply <- resp
		delivered = true
	})
	if !delivered {
		slog.Warn("ignoring second completion", "id", p.req.ID, "type", p.req.Type)
	}
	return delivered
}

// Loopback is an in-process Transport. A dispatcher goroutine hands each
// request to its own handler goroutine, so a slow submission never holds up
// the fetches.
type Loopback struct {
	handler  Handler
	requests chan *pending
	done     chan struct{}
	close    sync.Once
}

// NewLoopback starts a loopback delivering to handler. Call Close to stop it.
func NewLoopback(handler Handler) *Loopback {
	l := &Loopback{
		handler:  handler,
		requests: make(chan *pending),
		done:     make(chan struct{}),
	}
	go l.dispatch()
	return l
}

func (l *Loopback) dispatch() {
	for {
		select {
		case <-l.done:
			return
		case p := <-l.requests:
			go l.serve(p)
		}
	}
}

func (l *Loopback) serve(p *pending) {
	p.complete(Dispatch(p.ctx, l.handler, p.req))
}

// RoundTrip delivers req and waits for its response, for ctx to end, or for
// the loopback to close.
func (l *Loopback) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	p := newPending(ctx, req)

	select {
	case <-l.done:
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("%s %s not delivered: %w", req.Type, req.ID, ctx.Err())
	case l.requests <- p:
	}

	select {
	case resp := <-p.reply:
		return resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s %s unanswered: %w", req.Type, req.ID, ctx.Err())
	case <-l.done:
		return nil, ErrTransportClosed
	}
}

// Close stops the dispatcher. Callers still waiting get ErrTransportClosed.
func (l *Loopback) Close() error {
	l.close.Do(func() { close(l.done) })
	return nil
}
