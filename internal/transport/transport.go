// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/stepchat/internal/model"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the backend endpoints and connection limits.
type Config struct {
	// BaseURL is the backend origin (default: http://localhost:8000).
	// The stream URL uses ws:// or wss:// to match.
	BaseURL string

	StreamPath string // default: /ws/steps
	ChatPath   string // default: /api/chat
	ResetPath  string // default: /api/reset

	// RequestTimeout bounds send and reset requests (default: 30s).
	RequestTimeout time.Duration

	// HandshakeTimeout bounds the websocket handshake (default: 10s).
	HandshakeTimeout time.Duration

	// ReconnectRate caps stream dial attempts per second. Zero means no
	// limit: a closed stream is re-dialled immediately.
	ReconnectRate float64

	// MaxMessageBytes limits a single inbound frame. Zero means no limit.
	MaxMessageBytes int64
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "http://localhost:8000",
		StreamPath:       "/ws/steps",
		ChatPath:         "/api/chat",
		ResetPath:        "/api/reset",
		RequestTimeout:   30 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.StreamPath == "" {
		c.StreamPath = def.StreamPath
	}
	if c.ChatPath == "" {
		c.ChatPath = def.ChatPath
	}
	if c.ResetPath == "" {
		c.ResetPath = def.ResetPath
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
}

// Endpoints are the absolute URLs derived from a Config.
type Endpoints struct {
	Stream string
	Chat   string
	Reset  string
}

// ResolveEndpoints derives the stream, chat and reset URLs from cfg.
func ResolveEndpoints(cfg Config) (Endpoints, error) {
	cfg.fillDefaults()

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return Endpoints{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if base.Host == "" {
		return Endpoints{}, fmt.Errorf("%w: %q has no host", ErrInvalidURL, cfg.BaseURL)
	}

	var wsScheme string
	switch base.Scheme {
	case "http", "ws":
		wsScheme = "ws"
	case "https", "wss":
		wsScheme = "wss"
	default:
		return Endpoints{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, base.Scheme)
	}
	httpScheme := strings.Replace(wsScheme, "ws", "http", 1)

	join := func(scheme, path string) string {
		u := *base
		u.Scheme = scheme
		u.Path = base.Path + "/" + strings.TrimLeft(path, "/")
		return u.String()
	}

	return Endpoints{
		Stream: join(wsScheme, cfg.StreamPath),
		Chat:   join(httpScheme, cfg.ChatPath),
		Reset:  join(httpScheme, cfg.ResetPath),
	}, nil
}

// =============================================================================
// CONNECTION STATE
// =============================================================================

// State is the lifecycle state of the step stream.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscription is a registered observer of the step stream.
type Subscription struct {
	t          *Transport
	onEvent    func(model.ChatEvent)
	onError    func(error)
	onComplete func()
}

// Unsubscribe detaches the observer. It is safe to call more than once, and
// on a nil or zero Subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.t == nil {
		return
	}
	s.t.removeSubscription(s)
}

// =============================================================================
// TRANSPORT
// =============================================================================

// Transport owns the step stream and the HTTP send and reset calls.
type Transport struct {
	cfg       Config
	endpoints Endpoints
	client    *http.Client
	dialer    *websocket.Dialer
	limiter   *rate.Limiter
	log       zerolog.Logger

	// opMu serialises Connect, Close and Reset.
	opMu sync.Mutex

	mu     sync.Mutex
	conn   *websocket.Conn
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	hooks  []func(State)

	subMu sync.RWMutex
	subs  []*Subscription
}

// New creates a Transport with the default configuration.
func New(log zerolog.Logger) (*Transport, error) {
	return NewWithConfig(DefaultConfig(), log)
}

// NewWithConfig creates a Transport. Nothing is dialled until Connect.
func NewWithConfig(cfg *Config, log zerolog.Logger) (*Transport, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	c.fillDefaults()

	endpoints, err := ResolveEndpoints(c)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if c.ReconnectRate > 0 {
		limit = rate.Limit(c.ReconnectRate)
	}

	return &Transport{
		cfg:       c,
		endpoints: endpoints,
		client:    &http.Client{Timeout: c.RequestTimeout},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: c.HandshakeTimeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		state:   StateDisconnected,
	}, nil
}

// Endpoints returns the URLs the transport talks to.
func (t *Transport) Endpoints() Endpoints {
	return t.endpoints
}

// State returns the current stream state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// OnStateChange registers fn to be called on every state transition. It
// runs on the goroutine making the transition.
func (t *Transport) OnStateChange(fn func(State)) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	t.hooks = append(t.hooks, fn)
	t.mu.Unlock()
}

// Subscribe registers an observer of the shared stream. Any callback may be
// nil. onError receives stream failures and failed sends; onComplete runs
// once the stream is closed with Close.
func (t *Transport) Subscribe(onEvent func(model.ChatEvent), onError func(error), onComplete func()) *Subscription {
	sub := &Subscription{t: t, onEvent: onEvent, onError: onError, onComplete: onComplete}
	t.subMu.Lock()
	t.subs = append(t.subs, sub)
	t.subMu.Unlock()
	return sub
}

// Connect starts the stream loop if it is not already running.
func (t *Transport) Connect() {
	t.opMu.Lock()
	defer t.opMu.Unlock()
	t.connectLocked()
}

// Close stops the stream loop, sends a normal close frame on the live
// connection and waits for the loop to exit. Subscribers are completed.
// No reconnect follows until Connect or Reset.
func (t *Transport) Close() error {
	t.opMu.Lock()
	defer t.opMu.Unlock()
	if t.closeLocked() {
		t.notifyComplete()
	}
	return nil
}

// connectLocked requires opMu.
func (t *Transport) connectLocked() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	t.log.Debug().Str("url", t.endpoints.Stream).Str("reconnect", t.reconnectLimit()).Msg("stream loop starting")
	go t.run(ctx, done)
}

// closeLocked requires opMu. It reports whether a loop was running.
func (t *Transport) closeLocked() bool {
	t.mu.Lock()
	cancel, done, conn := t.cancel, t.done, t.conn
	if cancel != nil {
		// Cancelled under mu so the loop cannot attach a new connection
		// after conn was read.
		cancel()
	}
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		t.setState(StateClosed)
		return false
	}

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			t.log.Debug().Err(err).Msg("close frame not sent")
		}
		conn.Close()
	}
	<-done

	t.setState(StateClosed)
	t.log.Info().Str("url", t.endpoints.Stream).Msg("stream closed")
	return true
}

// =============================================================================
// STREAM LOOP
// =============================================================================

func (t *Transport) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if err := t.limiter.Wait(ctx); err != nil {
			return
		}
		t.setState(StateConnecting)

		conn, _, err := t.dialer.DialContext(ctx, t.endpoints.Stream, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Warn().Err(err).Str("url", t.endpoints.Stream).Msg("stream dial failed")
			t.notifyError(&StreamError{Op: "dial", URL: t.endpoints.Stream, Err: err})
			t.setState(StateDisconnected)
			continue
		}
		if t.cfg.MaxMessageBytes > 0 {
			conn.SetReadLimit(t.cfg.MaxMessageBytes)
		}

		if !t.attach(ctx, conn) {
			conn.Close()
			return
		}
		t.log.Info().Str("url", t.endpoints.Stream).Msg("stream connected")
		t.setState(StateConnected)

		err = t.readLoop(conn)
		t.detach(conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			t.log.Info().Str("url", t.endpoints.Stream).Msg("stream closed by server, reconnecting")
		} else {
			t.log.Warn().Err(err).Str("url", t.endpoints.Stream).Msg("stream lost, reconnecting")
			t.notifyError(&StreamError{Op: "read", URL: t.endpoints.Stream, Err: err})
		}
		t.setState(StateDisconnected)
	}
}

// readLoop delivers frames until the connection fails.
func (t *Transport) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		ev, err := model.DecodeEvent(data)
		if err != nil {
			t.log.Warn().Err(err).Int("bytes", len(data)).Msg("skipping undecodable frame")
			t.notifyError(&StreamError{Op: "decode", URL: t.endpoints.Stream, Err: err})
			continue
		}
		t.notifyEvent(ev)
	}
}

// attach publishes conn as the live connection unless the loop was
// cancelled.
func (t *Transport) attach(ctx context.Context, conn *websocket.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	t.conn = conn
	return true
}

func (t *Transport) detach(conn *websocket.Conn) {
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.mu.Unlock()
}

func (t *Transport) setState(s State) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	hooks := make([]func(State), len(t.hooks))
	copy(hooks, t.hooks)
	t.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
}

// =============================================================================
// FAN-OUT
// =============================================================================

func (t *Transport) snapshot() []*Subscription {
	t.subMu.RLock()
	defer t.subMu.RUnlock()
	out := make([]*Subscription, len(t.subs))
	copy(out, t.subs)
	return out
}

func (t *Transport) removeSubscription(sub *Subscription) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	for i, s := range t.subs {
		if s == sub {
			t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
			return
		}
	}
}

func (t *Transport) notifyEvent(ev model.ChatEvent) {
	for _, s := range t.snapshot() {
		if s.onEvent != nil {
			s.onEvent(ev)
		}
	}
}

func (t *Transport) notifyError(err error) {
	for _, s := range t.snapshot() {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

func (t *Transport) notifyComplete() {
	for _, s := range t.snapshot() {
		if s.onComplete != nil {
			s.onComplete()
		}
	}
}

// reconnectLimit reports the effective dial rate, for logging.
func (t *Transport) reconnectLimit() string {
	if l := t.limiter.Limit(); l != rate.Inf {
		return fmt.Sprintf("%.2f/s", float64(l))
	}
	return "unlimited"
}
