// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller owns the conversation shown by a view. It renders
// inbound steps in arrival order and appends the user's own text as soon as
// it is sent.
package controller

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/transport"
	"github.com/jeranaias/stepchat/internal/util"
)

// maxPendingEchoes bounds the texts remembered for echo suppression.
const maxPendingEchoes = 32

// Transport is the part of *transport.Transport the controller uses.
type Transport interface {
	Connect()
	SendMessage(text string)
	Subscribe(onEvent func(model.ChatEvent), onError func(error), onComplete func()) *transport.Subscription
	Close() error
	Reset(ctx context.Context) error
}

// Options configures a Controller.
type Options struct {
	// ShowSystem appends system steps. When false they are dropped.
	ShowSystem bool

	// DedupeEcho suppresses a user step that echoes text this client sent
	// and already appended locally.
	DedupeEcho bool

	Logger zerolog.Logger
}

// DefaultOptions returns the default controller options.
func DefaultOptions() Options {
	return Options{ShowSystem: true, DedupeEcho: true}
}

// Controller connects a transport, a renderer and a conversation.
type Controller struct {
	tr   Transport
	conv *model.Conversation
	log  zerolog.Logger

	mu       sync.Mutex
	renderer *render.Renderer
	opts     Options
	pending  []string
	sub      *transport.Subscription
	onAppend []func(model.DisplayMessage)
	onError  []func(error)

	// appendMu keeps hook order identical to conversation order.
	appendMu sync.Mutex
}

// New creates a Controller. Nothing is connected until Start.
func New(tr Transport, r *render.Renderer, opts Options) *Controller {
	return &Controller{
		tr:       tr,
		conv:     model.NewConversation(),
		log:      opts.Logger,
		renderer: r,
		opts:     opts,
	}
}

// Conversation returns the conversation the controller appends to.
func (c *Controller) Conversation() *model.Conversation {
	return c.conv
}

// OnAppend registers fn to run after each message is appended.
func (c *Controller) OnAppend(fn func(model.DisplayMessage)) {
	c.mu.Lock()
	c.onAppend = append(c.onAppend, fn)
	c.mu.Unlock()
}

// OnError registers fn to receive transport errors.
func (c *Controller) OnError(fn func(error)) {
	c.mu.Lock()
	c.onError = append(c.onError, fn)
	c.mu.Unlock()
}

// SetRenderer replaces the renderer used for subsequent steps.
func (c *Controller) SetRenderer(r *render.Renderer) {
	c.mu.Lock()
	c.renderer = r
	c.mu.Unlock()
}

// Renderer returns the current renderer.
func (c *Controller) Renderer() *render.Renderer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer
}

// SetShowSystem toggles whether system steps are shown.
func (c *Controller) SetShowSystem(show bool) {
	c.mu.Lock()
	c.opts.ShowSystem = show
	c.mu.Unlock()
}

// Start subscribes to the transport and connects it.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.sub == nil {
		c.sub = c.tr.Subscribe(c.handleEvent, c.handleError, nil)
	}
	c.mu.Unlock()
	c.tr.Connect()
}

// Stop unsubscribes and closes the transport.
func (c *Controller) Stop() error {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	sub.Unsubscribe()
	return c.tr.Close()
}

// Send appends text as a local user message and hands it to the transport
// unchanged. It reports false, and does nothing, for blank text.
func (c *Controller) Send(text string) bool {
	key := util.NormalizeInput(text)
	if key == "" {
		return false
	}

	c.mu.Lock()
	if c.opts.DedupeEcho {
		c.pending = append(c.pending, key)
		if len(c.pending) > maxPendingEchoes {
			c.pending = c.pending[len(c.pending)-maxPendingEchoes:]
		}
	}
	c.mu.Unlock()

	c.append(model.NewLocalUserMessage(text))
	c.tr.SendMessage(text)
	return true
}

// Reset asks the transport to reset the backend session.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
	return c.tr.Reset(ctx)
}

// =============================================================================
// INBOUND
// =============================================================================

func (c *Controller) handleEvent(ev model.ChatEvent) {
	c.mu.Lock()
	if ev.Role == model.RoleSystem && !c.opts.ShowSystem {
		c.mu.Unlock()
		return
	}
	if ev.Role == model.RoleUser && c.consumeEcho(ev.Content) {
		c.mu.Unlock()
		c.log.Debug().Msg("suppressed echoed user message")
		return
	}
	r := c.renderer
	c.mu.Unlock()

	c.append(r.Render(ev))
}

// consumeEcho reports whether content echoes a pending send. Sends queued
// before the match were never echoed and are dropped. Requires mu.
func (c *Controller) consumeEcho(content string) bool {
	if !c.opts.DedupeEcho || len(c.pending) == 0 {
		return false
	}
	key := util.NormalizeInput(content)
	i := slices.Index(c.pending, key)
	if i < 0 {
		return false
	}
	c.pending = c.pending[i+1:]
	return true
}

func (c *Controller) handleError(err error) {
	c.mu.Lock()
	hooks := slices.Clone(c.onError)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(err)
	}
}

func (c *Controller) append(msg model.DisplayMessage) {
	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	c.conv.Append(msg)

	c.mu.Lock()
	hooks := slices.Clone(c.onAppend)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(msg)
	}
}
