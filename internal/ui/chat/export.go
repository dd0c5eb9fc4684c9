// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/stepchat/internal/export"
)

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// startExport validates the format and exports the conversation
// asynchronously. dir overrides ui.export_dir when non-empty.
func (m Model) startExport(format, dir string) (tea.Model, tea.Cmd) {
	if m.busy != "" {
		m.setError("busy: " + m.busy + " in progress")
		return m, nil
	}

	opts := m.cfg.ExportOptions(m.log)
	if dir != "" {
		opts.OutputDir = dir
	}
	if _, err := export.ExporterFor(format, opts); err != nil {
		m.setError(err.Error())
		return m, nil
	}

	wasSpinning := m.spinning()
	m.busy = "export"
	m.setStatus(fmt.Sprintf("exporting conversation to %s...", format))

	conv := m.ctrl.Conversation()
	backend := m.cfg.Server.BaseURL
	run := func() tea.Msg {
		path, err := export.ExportConversation(conv, backend, format, opts)
		return ExportCompleteMsg{Format: format, Path: path, Err: err}
	}
	if wasSpinning {
		return m, run
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

// handleExportComplete reports the export result in the status bar.
func (m Model) handleExportComplete(msg ExportCompleteMsg) (tea.Model, tea.Cmd) {
	m.busy = ""
	if msg.Err != nil {
		m.log.Warn().Err(msg.Err).Str("format", msg.Format).Msg("export failed")
		m.setError(fmt.Sprintf("export failed: %v", msg.Err))
		return m, nil
	}
	m.log.Info().Str("path", msg.Path).Msg("conversation exported")
	m.setStatus("exported to " + msg.Path)
	return m, nil
}
