// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/transport"
)

// =============================================================================
// FAKE TRANSPORT
// =============================================================================

type fakeTransport struct {
	mu       sync.Mutex
	onEvent  func(model.ChatEvent)
	onError  func(error)
	sent     []string
	connects int
	closes   int
	resets   int
	resetErr error
}

func (f *fakeTransport) Connect() {
	f.mu.Lock()
	f.connects++
	f.mu.Unlock()
}

func (f *fakeTransport) SendMessage(text string) {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()
}

func (f *fakeTransport) Subscribe(onEvent func(model.ChatEvent), onError func(error), _ func()) *transport.Subscription {
	f.mu.Lock()
	f.onEvent, f.onError = onEvent, onError
	f.mu.Unlock()
	return &transport.Subscription{}
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return f.resetErr
}

func (f *fakeTransport) emit(ev model.ChatEvent) {
	f.mu.Lock()
	fn := f.onEvent
	f.mu.Unlock()
	fn(ev)
}

func newTestController(t *testing.T, opts Options) (*Controller, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	c := New(ft, render.New(render.Options{}), opts)
	c.Start()
	t.Cleanup(func() { c.Stop() })
	return c, ft
}

// =============================================================================
// TESTS
// =============================================================================

func TestController_StartConnectsAndSubscribes(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())
	assert.Equal(t, 1, ft.connects)
	require.NotNil(t, ft.onEvent)

	require.NoError(t, c.Stop())
	assert.Equal(t, 1, ft.closes)
}

func TestController_SendAppendsLocallyFirst(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())

	var appended []model.DisplayMessage
	c.OnAppend(func(m model.DisplayMessage) { appended = append(appended, m) })

	require.True(t, c.Send("hello"))

	msgs := c.Conversation().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, model.KindText, msgs[0].Kind)
	assert.Equal(t, "hello", msgs[0].RenderedContent)
	assert.True(t, msgs[0].Local)
	assert.Equal(t, []string{"hello"}, ft.sent)
	assert.Len(t, appended, 1)
}

func TestController_SendPostsTextUnchanged(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())

	text := "  x = 1\r\n  print(x)\n"
	require.True(t, c.Send(text))
	assert.Equal(t, []string{text}, ft.sent)
	assert.Equal(t, text, c.Conversation().Messages()[0].RenderedContent)

	// The backend's normalised echo still matches.
	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "x = 1\n  print(x)"})
	assert.Equal(t, 1, c.Conversation().Len())
}

func TestController_SendIgnoresBlank(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())
	assert.False(t, c.Send("   \n\t"))
	assert.Equal(t, 0, c.Conversation().Len())
	assert.Empty(t, ft.sent)
}

func TestController_InboundOrderAndKinds(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())

	ft.emit(model.ChatEvent{Role: model.RoleSystem, Content: "# Hi"})
	ft.emit(model.ChatEvent{
		Role: model.RoleAssistant,
		ToolCalls: []model.ToolCall{{Function: model.FunctionCall{
			Name: "python", Arguments: `{"code":"print(1)\nprint(2)"}`,
		}}},
	})
	ft.emit(model.ChatEvent{Role: model.RoleAssistant, Content: "hello"})

	msgs := c.Conversation().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.KindInfo, msgs[0].Kind)
	assert.Contains(t, msgs[0].RenderedContent, "<h1>Hi</h1>")
	assert.Equal(t, model.KindCode, msgs[1].Kind)
	assert.Equal(t, model.KindText, msgs[2].Kind)
	assert.Equal(t, "hello", msgs[2].RenderedContent)
}

func TestController_HideSystem(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowSystem = false
	c, ft := newTestController(t, opts)

	ft.emit(model.ChatEvent{Role: model.RoleSystem, Content: "hidden"})
	ft.emit(model.ChatEvent{Role: model.RoleAssistant, Content: "shown"})

	msgs := c.Conversation().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "shown", msgs[0].RenderedContent)

	c.SetShowSystem(true)
	ft.emit(model.ChatEvent{Role: model.RoleSystem, Content: "now visible"})
	assert.Equal(t, 2, c.Conversation().Len())
}

func TestController_DedupeEcho(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())

	c.Send("first")
	c.Send("second")

	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "first"})
	ft.emit(model.ChatEvent{Role: model.RoleAssistant, Content: "reply"})
	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "second"})
	// Not pending any more, so a repeat is shown.
	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "second"})

	var contents []string
	for _, m := range c.Conversation().Messages() {
		contents = append(contents, m.RenderedContent)
	}
	assert.Equal(t, []string{"first", "second", "reply", "second"}, contents)
}

func TestController_DedupeSurvivesLostEcho(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())

	// "lost" never comes back, e.g. because its POST failed.
	c.Send("lost")
	c.Send("second")
	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "second"})
	c.Send("third")
	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "third"})

	var contents []string
	for _, m := range c.Conversation().Messages() {
		contents = append(contents, m.RenderedContent)
		assert.True(t, m.Local)
	}
	assert.Equal(t, []string{"lost", "second", "third"}, contents)

	// The skipped entry was dropped, so a late "lost" is shown.
	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "lost"})
	assert.Equal(t, 4, c.Conversation().Len())
}

func TestController_DedupeDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.DedupeEcho = false
	c, ft := newTestController(t, opts)

	c.Send("hello")
	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "hello"})
	assert.Equal(t, 2, c.Conversation().Len())
}

func TestController_ErrorsReachHooks(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())

	var got error
	c.OnError(func(err error) { got = err })

	boom := errors.New("boom")
	ft.onError(boom)
	assert.ErrorIs(t, got, boom)
}

func TestController_ResetDelegates(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())
	ft.resetErr = errors.New("unavailable")

	c.Send("pending")
	err := c.Reset(context.Background())
	assert.EqualError(t, err, "unavailable")
	assert.Equal(t, 1, ft.resets)

	// Pending echoes are forgotten by a reset.
	ft.emit(model.ChatEvent{Role: model.RoleUser, Content: "pending"})
	assert.Equal(t, 2, c.Conversation().Len())
}

func TestController_SetRenderer(t *testing.T) {
	c, ft := newTestController(t, DefaultOptions())
	c.SetRenderer(render.New(render.Options{Format: render.FormatTerminal, MarkdownStyle: "notty"}))

	ft.emit(model.ChatEvent{Role: model.RoleSystem, Content: "# Hi"})
	last, ok := c.Conversation().Last()
	require.True(t, ok)
	assert.NotContains(t, last.RenderedContent, "<h1>")
}
