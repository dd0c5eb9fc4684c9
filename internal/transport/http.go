// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseBytes caps how much of a send or reset response is read.
const maxResponseBytes = 64 * 1024

// =============================================================================
// SEND
// =============================================================================

// SendMessage posts text to the chat endpoint on its own goroutine and
// returns immediately. The outcome is logged; a failure is also passed to
// subscribers' onError.
func (t *Transport) SendMessage(text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.RequestTimeout)
		defer cancel()

		body, err := t.Send(ctx, text)
		if err != nil {
			t.log.Warn().Err(err).Int("chars", len(text)).Msg("send failed")
			t.notifyError(err)
			return
		}
		t.log.Info().
			Int("chars", len(text)).
			Str("response", strings.TrimSpace(string(body))).
			Msg("message sent")
	}()
}

// Send posts text to the chat endpoint as the "message" query parameter and
// returns the response body. A non-2xx status is a *RequestError carrying
// the status and body.
func (t *Transport) Send(ctx context.Context, text string) ([]byte, error) {
	u, err := url.Parse(t.endpoints.Chat)
	if err != nil {
		return nil, &RequestError{Op: "send", Err: err}
	}
	q := u.Query()
	q.Set("message", text)
	u.RawQuery = q.Encode()

	return t.do(ctx, "send", http.MethodPost, u.String())
}

// =============================================================================
// RESET
// =============================================================================

// Reset closes the stream, asks the backend to reset its session, then
// reconnects. The stream is reconnected even if the reset request fails;
// that error is returned. Subscribers stay attached and are not completed.
func (t *Transport) Reset(ctx context.Context) error {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	t.closeLocked()

	body, err := t.ResetSession(ctx)
	if err != nil {
		t.log.Warn().Err(err).Msg("reset failed")
	} else {
		t.log.Info().Str("response", strings.TrimSpace(string(body))).Msg("session reset")
	}

	t.connectLocked()
	return err
}

// ResetSession sends the reset request alone and returns the response body.
// The stream is left as it is.
func (t *Transport) ResetSession(ctx context.Context) ([]byte, error) {
	return t.do(ctx, "reset", http.MethodGet, t.endpoints.Reset)
}

// =============================================================================
// HELPERS
// =============================================================================

func (t *Transport) do(ctx context.Context, op, method, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RequestError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &RequestError{
			Op:     op,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}
