// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/stepchat/internal/config"
	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/transport"
)

// =============================================================================
// BRIDGE MESSAGES
// =============================================================================

// AppendMsg reports a message the controller appended to the conversation.
type AppendMsg struct {
	Message model.DisplayMessage
}

// StateMsg reports a transport connection state change.
type StateMsg struct {
	State transport.State
}

// ErrorMsg reports a stream or request failure.
type ErrorMsg struct {
	Err error
}

// ConfigReloadedMsg carries a configuration re-read after the file changed.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// ExportCompleteMsg is sent when an export finishes.
type ExportCompleteMsg struct {
	Format string
	Path   string
	Err    error
}

// ResetCompleteMsg is sent when a session reset request returns.
type ResetCompleteMsg struct {
	Err error
}
