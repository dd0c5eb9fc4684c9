// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the transport, the
// renderer and the view.
//
// # Key Types
//
//   - ChatEvent: one step from the backend (role, content, tool calls)
//   - ToolCall: a function-invocation descriptor with JSON-encoded arguments
//   - DisplayMessage: a step after classification and rendering
//   - Conversation: the append-only list the view iterates
//
// # Usage
//
//	ev, err := model.DecodeEvent(frame)
//	if err != nil {
//	    return err
//	}
//	conv := model.NewConversation()
//	conv.Append(renderer.Render(ev))
package model
