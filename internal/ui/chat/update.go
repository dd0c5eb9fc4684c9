// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), msg.String() == "esc", key.Matches(msg, m.keys.Submit):
			m.showHelp = false
			return m, nil
		case msg.String() == "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.Reset):
		return m.startReset()

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit sends the input line, or runs it when it is a slash command.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	if strings.TrimSpace(line) == "" {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(strings.TrimSpace(line), "/") {
		return m.handleCommand(line)
	}

	// The controller appends the local copy; the AppendMsg follows through
	// the bridge.
	if m.ctrl.Send(line) {
		m.clearStatus()
	}
	return m, nil
}

// startReset posts a session reset unless another request is in flight.
func (m Model) startReset() (tea.Model, tea.Cmd) {
	if m.busy != "" {
		m.setError("busy: " + m.busy + " in progress")
		return m, nil
	}
	wasSpinning := m.spinning()
	m.busy = "reset"
	m.setStatus("resetting session...")

	ctrl := m.ctrl
	timeout := m.cfg.TransportConfig().RequestTimeout
	reset := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ResetCompleteMsg{Err: ctrl.Reset(ctx)}
	}
	if wasSpinning {
		return m, reset
	}
	return m, tea.Batch(reset, m.spinner.Tick)
}
