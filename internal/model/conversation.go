// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"time"
)

// Conversation is the append-only, insertion-ordered list of display
// messages for the lifetime of the process. Messages are never removed or
// reordered.
//
// The transport delivers on its own goroutine while the view reads, so all
// access goes through the mutex.
type Conversation struct {
	mu        sync.RWMutex
	messages  []DisplayMessage
	createdAt time.Time
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		messages:  make([]DisplayMessage, 0, 64),
		createdAt: time.Now(),
	}
}

// Append adds msg at the end and returns its index.
func (c *Conversation) Append(msg DisplayMessage) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return len(c.messages) - 1
}

// Messages returns a copy of the messages in insertion order.
func (c *Conversation) Messages() []DisplayMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DisplayMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() (DisplayMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return DisplayMessage{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// CreatedAt returns when the conversation started.
func (c *Conversation) CreatedAt() time.Time {
	return c.createdAt
}
