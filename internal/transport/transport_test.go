// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/stepchat/internal/model"
)

const waitTimeout = 5 * time.Second

// =============================================================================
// FAKE BACKEND
// =============================================================================

// fakeBackend serves the stream, chat and reset endpoints. Accepted stream
// connections are handed to the test through conns.
type fakeBackend struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	conns    chan *websocket.Conn
	messages chan string
	connects atomic.Int32
	resets   atomic.Int32

	mu          sync.Mutex
	resetStatus int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		conns:       make(chan *websocket.Conn, 8),
		messages:    make(chan string, 16),
		resetStatus: http.StatusOK,
	}

	r := chi.NewRouter()
	r.Get("/ws/steps", b.handleStream)
	r.Post("/api/chat", b.handleChat)
	r.Get("/api/reset", b.handleReset)

	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.connects.Add(1)
	b.conns <- conn

	// Drain so close frames from the client are answered.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			conn.Close()
			return
		}
	}
}

func (b *fakeBackend) handleChat(w http.ResponseWriter, r *http.Request) {
	msg := r.URL.Query().Get("message")
	if msg == "fail" {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
		return
	}
	b.messages <- msg
	w.Write([]byte(`{"status":"ok"}`))
}

func (b *fakeBackend) handleReset(w http.ResponseWriter, r *http.Request) {
	b.resets.Add(1)
	b.mu.Lock()
	status := b.resetStatus
	b.mu.Unlock()
	w.WriteHeader(status)
	w.Write([]byte("reset"))
}

func (b *fakeBackend) setResetStatus(status int) {
	b.mu.Lock()
	b.resetStatus = status
	b.mu.Unlock()
}

func (b *fakeBackend) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-b.conns:
		return conn
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a stream connection")
		return nil
	}
}

func newTestTransport(t *testing.T, b *fakeBackend) *Transport {
	t.Helper()
	tr, err := NewWithConfig(&Config{BaseURL: b.srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// eventCollector subscribes and forwards everything to channels.
type eventCollector struct {
	events    chan model.ChatEvent
	errs      chan error
	completed atomic.Int32
	sub       *Subscription
}

func collect(tr *Transport) *eventCollector {
	c := &eventCollector{
		events: make(chan model.ChatEvent, 32),
		errs:   make(chan error, 32),
	}
	c.sub = tr.Subscribe(
		func(ev model.ChatEvent) { c.events <- ev },
		func(err error) {
			select {
			case c.errs <- err:
			default:
			}
		},
		func() { c.completed.Add(1) },
	)
	return c
}

func (c *eventCollector) next(t *testing.T) model.ChatEvent {
	t.Helper()
	select {
	case ev := <-c.events:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for an event")
		return model.ChatEvent{}
	}
}

// =============================================================================
// STREAM TESTS
// =============================================================================

func TestTransport_DeliversEventsInOrder(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)
	c := collect(tr)

	tr.Connect()
	conn := b.waitConn(t)

	writeFrame(t, conn, `{"role":"user","content":"one"}`)
	writeFrame(t, conn, `{"role":"assistant","content":"two"}`)
	writeFrame(t, conn, `{"role":"system","content":"three"}`)

	assert.Equal(t, "one", c.next(t).Content)
	assert.Equal(t, "two", c.next(t).Content)
	assert.Equal(t, "three", c.next(t).Content)
	assert.Equal(t, StateConnected, tr.State())
}

func TestTransport_ConnectIsIdempotent(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)

	tr.Connect()
	tr.Connect()
	b.waitConn(t)

	assert.Never(t, func() bool { return b.connects.Load() > 1 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestTransport_SkipsUndecodableFrames(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)
	c := collect(tr)

	tr.Connect()
	conn := b.waitConn(t)

	writeFrame(t, conn, `this is not json`)
	writeFrame(t, conn, `{"role":"martian","content":"?"}`)
	writeFrame(t, conn, `{"role":"assistant","content":"still here"}`)

	assert.Equal(t, "still here", c.next(t).Content)

	var streamErr *StreamError
	select {
	case err := <-c.errs:
		require.True(t, errors.As(err, &streamErr))
		assert.Equal(t, "decode", streamErr.Op)
		assert.ErrorIs(t, err, model.ErrInvalidEvent)
	case <-time.After(waitTimeout):
		t.Fatal("expected a decode error")
	}
	assert.Equal(t, int32(1), b.connects.Load())
}

func TestTransport_ReconnectsAfterServerClose(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)
	c := collect(tr)

	tr.Connect()
	first := b.waitConn(t)
	first.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	first.Close()

	second := b.waitConn(t)
	writeFrame(t, second, `{"role":"assistant","content":"after reconnect"}`)
	assert.Equal(t, "after reconnect", c.next(t).Content)
	assert.Equal(t, int32(0), c.completed.Load())
}

func TestTransport_ReconnectsAfterAbnormalClose(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)
	c := collect(tr)

	tr.Connect()
	b.waitConn(t).Close()

	b.waitConn(t)
	select {
	case err := <-c.errs:
		var streamErr *StreamError
		require.True(t, errors.As(err, &streamErr))
		assert.Equal(t, "read", streamErr.Op)
	case <-time.After(waitTimeout):
		t.Fatal("expected a read error")
	}
}

func TestTransport_NoReconnectAfterClose(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)
	c := collect(tr)

	tr.Connect()
	b.waitConn(t)

	require.NoError(t, tr.Close())
	assert.Equal(t, StateClosed, tr.State())
	assert.Equal(t, int32(1), c.completed.Load())

	assert.Never(t, func() bool { return b.connects.Load() > 1 }, 300*time.Millisecond, 20*time.Millisecond)

	// A second Close does not complete subscribers again.
	require.NoError(t, tr.Close())
	assert.Equal(t, int32(1), c.completed.Load())
}

func TestTransport_SharedConnection(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)
	first := collect(tr)
	second := collect(tr)

	tr.Connect()
	conn := b.waitConn(t)

	writeFrame(t, conn, `{"role":"assistant","content":"both"}`)
	assert.Equal(t, "both", first.next(t).Content)
	assert.Equal(t, "both", second.next(t).Content)

	first.sub.Unsubscribe()
	writeFrame(t, conn, `{"role":"assistant","content":"only second"}`)
	assert.Equal(t, "only second", second.next(t).Content)

	select {
	case ev := <-first.events:
		t.Fatalf("unsubscribed observer received %q", ev.Content)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, int32(1), b.connects.Load())
}

func TestTransport_StateTransitions(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)

	var mu sync.Mutex
	var seen []State
	tr.OnStateChange(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	assert.Equal(t, StateDisconnected, tr.State())
	tr.Connect()
	b.waitConn(t)
	require.Eventually(t, func() bool { return tr.State() == StateConnected }, waitTimeout, 10*time.Millisecond)
	require.NoError(t, tr.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateConnecting, StateConnected, StateClosed}, seen)
}

func TestSubscription_ZeroAndNilAreNoOps(t *testing.T) {
	var nilSub *Subscription
	assert.NotPanics(t, func() { nilSub.Unsubscribe() })
	assert.NotPanics(t, func() { (&Subscription{}).Unsubscribe() })
}

// =============================================================================
// SEND AND RESET TESTS
// =============================================================================

func TestTransport_SendEncodesMessage(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)

	text := `what is 2 + 2? & "quotes" / slashes`
	body, err := tr.Send(context.Background(), text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.Equal(t, text, <-b.messages)
}

func TestTransport_SendMessageIsAsync(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)

	tr.SendMessage("fire and forget")

	select {
	case msg := <-b.messages:
		assert.Equal(t, "fire and forget", msg)
	case <-time.After(waitTimeout):
		t.Fatal("message never reached the backend")
	}
}

func TestTransport_SendErrorStatus(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)

	_, err := tr.Send(context.Background(), "fail")
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "send", reqErr.Op)
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
	assert.Contains(t, reqErr.Body, "backend exploded")
}

func TestTransport_SendMessageFailureReachesOnError(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)
	c := collect(tr)

	tr.SendMessage("fail")

	select {
	case err := <-c.errs:
		var reqErr *RequestError
		assert.True(t, errors.As(err, &reqErr))
	case <-time.After(waitTimeout):
		t.Fatal("expected the send failure to be reported")
	}
}

func TestTransport_ResetReconnects(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)
	c := collect(tr)

	tr.Connect()
	b.waitConn(t)

	require.NoError(t, tr.Reset(context.Background()))
	assert.Equal(t, int32(1), b.resets.Load())

	second := b.waitConn(t)
	writeFrame(t, second, `{"role":"system","content":"fresh session"}`)
	assert.Equal(t, "fresh session", c.next(t).Content)
	assert.Equal(t, int32(0), c.completed.Load())
}

func TestTransport_ResetFailureStillReconnects(t *testing.T) {
	b := newFakeBackend(t)
	b.setResetStatus(http.StatusServiceUnavailable)
	tr := newTestTransport(t, b)

	tr.Connect()
	b.waitConn(t)

	err := tr.Reset(context.Background())
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.Status)

	b.waitConn(t)
	assert.Equal(t, int32(2), b.connects.Load())
}

func TestTransport_ResetSessionLeavesStreamAlone(t *testing.T) {
	b := newFakeBackend(t)
	tr := newTestTransport(t, b)

	body, err := tr.ResetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "reset", string(body))
	assert.Equal(t, int32(1), b.resets.Load())
	assert.Equal(t, StateDisconnected, tr.State())
	assert.Zero(t, b.connects.Load())
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestResolveEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		stream string
		chat   string
		reset  string
	}{
		{
			name:   "defaults",
			cfg:    Config{},
			stream: "ws://localhost:8000/ws/steps",
			chat:   "http://localhost:8000/api/chat",
			reset:  "http://localhost:8000/api/reset",
		},
		{
			name:   "tls with prefix",
			cfg:    Config{BaseURL: "https://agent.example.com/v1/"},
			stream: "wss://agent.example.com/v1/ws/steps",
			chat:   "https://agent.example.com/v1/api/chat",
			reset:  "https://agent.example.com/v1/api/reset",
		},
		{
			name:   "custom paths",
			cfg:    Config{BaseURL: "http://10.0.0.2:9000", StreamPath: "stream", ChatPath: "/chat", ResetPath: "/reset"},
			stream: "ws://10.0.0.2:9000/stream",
			chat:   "http://10.0.0.2:9000/chat",
			reset:  "http://10.0.0.2:9000/reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := ResolveEndpoints(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.stream, ep.Stream)
			assert.Equal(t, tt.chat, ep.Chat)
			assert.Equal(t, tt.reset, ep.Reset)
		})
	}
}

func TestResolveEndpoints_Invalid(t *testing.T) {
	for _, base := range []string{"ftp://host", "localhost:8000/path", "://nope"} {
		_, err := ResolveEndpoints(Config{BaseURL: base})
		assert.ErrorIs(t, err, ErrInvalidURL, base)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
