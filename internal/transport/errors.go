// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrInvalidURL is returned when the configured base URL cannot be used.
var ErrInvalidURL = errors.New("invalid backend URL")

// RequestError describes a failed HTTP request to the backend.
type RequestError struct {
	// Op is the operation: "send" or "reset".
	Op string
	// Status is the HTTP status code, or 0 if no response arrived.
	Status int
	// Body is the (truncated) response body for non-2xx responses.
	Body string
	Err  error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s request failed: HTTP %d: %s", e.Op, e.Status, e.Body)
	default:
		return fmt.Sprintf("%s request failed: HTTP %d", e.Op, e.Status)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StreamError describes a failure of the step stream: a dial failure, an
// abnormal close, or a frame that could not be decoded.
type StreamError struct {
	// Op is "dial", "read" or "decode".
	Op  string
	URL string
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
