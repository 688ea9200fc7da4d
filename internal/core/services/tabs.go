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

package services

import (
	"context"
	"sync"
	"time"
)

// TabState is what the browser side last reported about the active tab.
type TabState struct {
	URL         string    `json:"url"`
	DurationSec *float64  `json:"durationSec,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TabSource answers which tab is active. ok is false until something was
// reported.
type TabSource interface {
	ActiveTab(ctx context.Context) (state TabState, ok bool)
}

// TabTracker is a TabSource fed by reports from the extension shim.
type TabTracker struct {
	mu    sync.RWMutex
	state TabState
	set   bool
	now   func() time.Time
}

// NewTabTracker returns an empty tracker.
func NewTabTracker() *TabTracker {
	return &TabTracker{now: time.Now}
}

// Report replaces the active tab.
func (t *TabTracker) Report(state TabState) TabState {
	t.mu.Lock()
	defer t.mu.Unlock()
	state.UpdatedAt = t.now().UTC()
	t.state = state
	t.set = true
	return state
}

// ActiveTab returns the last reported tab.
func (t *TabTracker) ActiveTab(_ context.Context) (TabState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.set
}
