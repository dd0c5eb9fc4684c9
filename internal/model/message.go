// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind tells the view how to present a message.
type Kind string

const (
	KindText Kind = "text"
	KindCode Kind = "code"
	KindInfo Kind = "info"
)

// =============================================================================
// DISPLAY MESSAGE
// =============================================================================

// DisplayMessage is a step after classification and rendering.
type DisplayMessage struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Kind Kind   `json:"kind"`

	// RenderedContent is ready for the output format the renderer was built
	// for: sanitised HTML, ANSI text, or the raw content for plain text.
	RenderedContent string `json:"rendered_content"`

	// Source is the text RenderedContent was produced from (markdown source,
	// the extracted code, or the plain content) so the message can be
	// re-rendered for another format.
	Source string `json:"source"`

	CreatedAt time.Time `json:"created_at"`

	// Local is set on messages the client appended itself when sending.
	Local bool `json:"local,omitempty"`
}

// NewDisplayMessage creates a message with a fresh ID and timestamp.
func NewDisplayMessage(role Role, kind Kind, rendered, source string) DisplayMessage {
	return DisplayMessage{
		ID:              uuid.NewString(),
		Role:            role,
		Kind:            kind,
		RenderedContent: rendered,
		Source:          source,
		CreatedAt:       time.Now(),
	}
}

// NewLocalUserMessage creates the message appended when the user sends text.
func NewLocalUserMessage(text string) DisplayMessage {
	msg := NewDisplayMessage(RoleUser, KindText, text, text)
	msg.Local = true
	return msg
}

// IsEmpty returns true if the message has nothing to show.
func (m DisplayMessage) IsEmpty() bool {
	return m.RenderedContent == "" && m.Source == ""
}
