// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport connects stepchat to the agent backend.
//
// Outbound text is POSTed to the chat endpoint with the message in the query
// string. Steps come back over a single long-lived websocket which is
// re-dialled whenever it closes, until Close is called. Every subscriber
// shares that one connection.
//
// # Usage
//
//	tr, err := transport.NewWithConfig(cfg, log)
//	if err != nil {
//	    return err
//	}
//	sub := tr.Subscribe(onEvent, onError, nil)
//	defer sub.Unsubscribe()
//	tr.Connect()
//	tr.SendMessage("hello")
//
// # Thread Safety
//
// All methods are safe for concurrent use. Subscriber callbacks run on the
// reader goroutine, one event at a time, in arrival order.
package transport
