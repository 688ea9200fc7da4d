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

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next       key.Binding
	Prev       key.Binding
	SwapHandle key.Binding
	Nudge      key.Binding
	Submit     key.Binding
	Refresh    key.Binding
	Save       key.Binding
	Write      key.Binding
	Scroll     key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Next:       key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next field")),
	Prev:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "prev field")),
	SwapHandle: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch handle")),
	Nudge:      key.NewBinding(key.WithKeys("left", "right", "shift+left", "shift+right"), key.WithHelp("←/→", "move handle")),
	Submit:     key.NewBinding(key.WithKeys("enter", "alt+enter"), key.WithHelp("enter", "analyze (alt+enter in prompt)")),
	Refresh:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save settings")),
	Write:      key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "write report")),
	Scroll:     key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
	Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Refresh, k.Save, k.Write, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.SwapHandle, k.Nudge},
		{k.Submit, k.Refresh, k.Save, k.Write},
		{k.Scroll, k.Quit},
	}
}
