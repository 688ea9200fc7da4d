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

package transport_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-analysis/internal/api"
	"github.com/jaycherian/gcp-go-video-analysis/internal/core/model"
	test "github.com/jaycherian/gcp-go-video-analysis/internal/testutil"
	"github.com/jaycherian/gcp-go-video-analysis/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCoordinator answers like the coordinator with canned values.
type fakeCoordinator struct {
	submitGate chan struct{}
	submits    atomic.Int32
}

func (f *fakeCoordinator) HandleMessage(ctx context.Context, req *transport.Request) (any, error) {
	switch req.Type {
	case transport.KindFetchActiveContext:
		url := test.WatchURL
		return model.ActiveContext{URL: &url}, nil
	case transport.KindFetchVideoMetadata:
		d := 212.7
		return model.NewVideoMetadata(&d), nil
	case transport.KindSubmitAnalysis:
		var ar model.AnalysisRequest
		if err := req.Decode(&ar); err != nil {
			return nil, err
		}
		f.submits.Add(1)
		if f.submitGate != nil {
			select {
			case <-f.submitGate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return model.ResultFromText("report for " + ar.Prompt), nil
	case "PANIC":
		panic("boom")
	default:
		return nil, transport.ErrUnknownKind
	}
}

func TestLoopbackRoundTrip(t *testing.T) {
	lb := transport.NewLoopback(&fakeCoordinator{})
	defer lb.Close()
	client := transport.NewClient(lb, time.Second, time.Second)
	ctx := context.Background()

	active, err := client.FetchActiveContext(ctx)
	require.NoError(t, err)
	require.NotNil(t, active.URL)
	assert.Equal(t, test.WatchURL, *active.URL)

	meta, err := client.FetchVideoMetadata(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta.DurationSec)
	assert.Equal(t, 212.0, *meta.DurationSec)

	result, err := client.SubmitAnalysis(ctx, model.AnalysisRequest{SourceURL: test.WatchURL, Prompt: "p", EndSec: 10, FPS: 1})
	require.NoError(t, err)
	assert.Equal(t, "report for p", result.Text)
}

func TestLoopbackSlowSubmitDoesNotBlockFetches(t *testing.T) {
	coordinator := &fakeCoordinator{submitGate: make(chan struct{})}
	lb := transport.NewLoopback(coordinator)
	defer lb.Close()
	client := transport.NewClient(lb, time.Second, 5*time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := client.SubmitAnalysis(context.Background(), model.AnalysisRequest{Prompt: "slow"})
		assert.NoError(t, err)
		assert.Equal(t, "report for slow", result.Text)
	}()

	require.Eventually(t, func() bool { return coordinator.submits.Load() == 1 }, time.Second, 5*time.Millisecond)
	_, err := client.FetchActiveContext(context.Background())
	assert.NoError(t, err)

	close(coordinator.submitGate)
	wg.Wait()
}

func TestLoopbackRecoversHandlerPanic(t *testing.T) {
	lb := transport.NewLoopback(&fakeCoordinator{})
	defer lb.Close()

	req, err := transport.NewRequest("PANIC", nil)
	require.NoError(t, err)
	resp, err := lb.RoundTrip(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.ID, resp.ID)
	assert.NotEmpty(t, resp.Error)
}

func TestLoopbackUnknownKindIsProtocolError(t *testing.T) {
	lb := transport.NewLoopback(&fakeCoordinator{})
	defer lb.Close()

	req, err := transport.NewRequest("GET_TAB_URL", nil)
	require.NoError(t, err)
	resp, err := lb.RoundTrip(context.Background(), req)
	require.NoError(t, err)

	var out model.ActiveContext
	var protocolErr *transport.ProtocolError
	assert.True(t, errors.As(resp.Decode(req.Type, &out), &protocolErr))
}

func TestClientTimesOutUnansweredSubmit(t *testing.T) {
	coordinator := &fakeCoordinator{submitGate: make(chan struct{})}
	lb := transport.NewLoopback(coordinator)
	defer lb.Close()
	client := transport.NewClient(lb, time.Second, 50*time.Millisecond)

	_, err := client.SubmitAnalysis(context.Background(), model.AnalysisRequest{Prompt: "never"})
	assert.True(t, errors.Is(err, transport.ErrTimeout))
	assert.Equal(t, int32(1), coordinator.submits.Load())
}

func TestLoopbackClosed(t *testing.T) {
	lb := transport.NewLoopback(&fakeCoordinator{})
	require.NoError(t, lb.Close())
	require.NoError(t, lb.Close())

	req, err := transport.NewRequest(transport.KindFetchActiveContext, nil)
	require.NoError(t, err)
	_, err = lb.RoundTrip(context.Background(), req)
	assert.ErrorIs(t, err, transport.ErrTransportClosed)
}

// flakyTransport fails the first failures calls, then delegates.
type flakyTransport struct {
	next     transport.Transport
	failures int32
	calls    atomic.Int32
}

func (f *flakyTransport) RoundTrip(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if f.calls.Add(1) <= f.failures {
		return nil, errors.New("connection reset")
	}
	return f.next.RoundTrip(ctx, req)
}

func TestClientRetriesFetchOnce(t *testing.T) {
	lb := transport.NewLoopback(&fakeCoordinator{})
	defer lb.Close()

	flaky := &flakyTransport{next: lb, failures: 1}
	_, err := transport.NewClient(flaky, time.Second, time.Second).FetchVideoMetadata(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int32(2), flaky.calls.Load())

	flaky = &flakyTransport{next: lb, failures: 2}
	_, err = transport.NewClient(flaky, time.Second, time.Second).FetchActiveContext(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), flaky.calls.Load())
}

func TestClientNeverRetriesSubmit(t *testing.T) {
	lb := transport.NewLoopback(&fakeCoordinator{})
	defer lb.Close()

	flaky := &flakyTransport{next: lb, failures: 1}
	_, err := transport.NewClient(flaky, time.Second, time.Second).SubmitAnalysis(context.Background(), model.AnalysisRequest{Prompt: "p"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), flaky.calls.Load())
}

func TestHTTPTransportThroughGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.Messages(r.Group("/api/v1"), &fakeCoordinator{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := transport.NewClient(transport.NewHTTPTransport(srv.URL+"/", srv.Client()), time.Second, time.Second)

	result, err := client.SubmitAnalysis(context.Background(), model.AnalysisRequest{SourceURL: test.WatchURL, Prompt: "http", EndSec: 5})
	require.NoError(t, err)
	assert.Equal(t, "report for http", result.Text)

	meta, err := client.FetchVideoMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 212.0, *meta.DurationSec)
}

func TestHTTPTransportUnreachable(t *testing.T) {
	srv := httptest.NewServer(gin.New())
	url := srv.URL
	srv.Close()

	client := transport.NewClient(transport.NewHTTPTransport(url, nil), 200*time.Millisecond, time.Second)
	_, err := client.FetchActiveContext(context.Background())
	assert.Error(t, err)
}
