// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who produced a step.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// TOOL CALLS
// =============================================================================

// FunctionCall names a function and carries its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// UnmarshalJSON accepts arguments either as a JSON string (the usual
// encoding) or as an inline object, which is kept as its raw JSON text.
func (f *FunctionCall) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	f.Name = wire.Name
	f.Arguments = ""

	raw := bytes.TrimSpace(wire.Arguments)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &f.Arguments); err != nil {
			return err
		}
	default:
		f.Arguments = string(raw)
	}
	return nil
}

// ToolCall is one function-invocation descriptor attached to an assistant
// step.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// =============================================================================
// CHAT EVENT
// =============================================================================

// ErrInvalidEvent is returned for frames that are not a usable step.
var ErrInvalidEvent = errors.New("invalid chat event")

// ChatEvent is one step received from the backend. It is not modified after
// decoding.
type ChatEvent struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// Name is the tool name on tool-result steps.
	Name string `json:"name,omitempty"`
}

// HasToolCalls reports whether the event carries any tool-call descriptors.
func (e ChatEvent) HasToolCalls() bool {
	return len(e.ToolCalls) > 0
}

// wireEvent covers the field spellings the backends in use emit: toolCalls,
// tool_calls, and the additional_kwargs envelope.
type wireEvent struct {
	Role           Role       `json:"role"`
	Content        *string    `json:"content"`
	ToolCalls      []ToolCall `json:"toolCalls"`
	ToolCallsSnake []ToolCall `json:"tool_calls"`
	Name           string     `json:"name"`

	AdditionalKwargs *struct {
		ToolCalls []ToolCall `json:"tool_calls"`
		Name      string     `json:"name"`
	} `json:"additional_kwargs"`
}

// DecodeEvent parses one websocket frame into a ChatEvent.
func DecodeEvent(data []byte) (ChatEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return ChatEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if !w.Role.Valid() {
		return ChatEvent{}, fmt.Errorf("%w: unknown role %q", ErrInvalidEvent, w.Role)
	}

	ev := ChatEvent{Role: w.Role, Name: w.Name}
	if w.Content != nil {
		ev.Content = *w.Content
	}

	switch {
	case len(w.ToolCalls) > 0:
		ev.ToolCalls = w.ToolCalls
	case len(w.ToolCallsSnake) > 0:
		ev.ToolCalls = w.ToolCallsSnake
	case w.AdditionalKwargs != nil:
		ev.ToolCalls = w.AdditionalKwargs.ToolCalls
	}
	if ev.Name == "" && w.AdditionalKwargs != nil {
		ev.Name = w.AdditionalKwargs.Name
	}

	return ev, nil
}
