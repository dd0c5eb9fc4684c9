// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// send.go - One-shot send and reset commands.
//
// Command: send MESSAGE
// Short:   Post one message to the chat endpoint
//
// Command: reset
// Short:   Reset the backend session
//
// Examples:
//   stepchat send "plot a sine wave"
//   stepchat --json send hello
//   stepchat reset

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/stepchat/internal/util"
)

// HandleSend posts args.Message and prints the backend's response.
func HandleSend(ctx context.Context, args Args) error {
	message := util.NormalizeInput(args.Message)
	if message == "" {
		return ErrMissingArgument("message", `stepchat send "plot a sine wave"`)
	}

	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	log, closeLog, err := SetupLogger(cfg, args, "")
	if err != nil {
		return &ConfigError{Err: err}
	}
	defer closeLog()

	tr, err := newTransport(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.TransportConfig().RequestTimeout)
	defer cancel()

	return OutputJSON(args.JSON, "send", func() (interface{}, error) {
		body, err := tr.Send(ctx, message)
		if err != nil {
			return nil, err
		}
		response := strings.TrimSpace(string(body))
		if !args.JSON && !args.Quiet {
			fmt.Printf("%s %s\n", RenderConditional(SuccessStyle, "[sent]"), util.TruncateWidth(message, 60))
			if response != "" {
				fmt.Println(response)
			}
		}
		return SendData{
			Message:  message,
			Endpoint: tr.Endpoints().Chat,
			Response: response,
		}, nil
	})
}

// HandleReset asks the backend to reset its session.
func HandleReset(ctx context.Context, args Args) error {
	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	log, closeLog, err := SetupLogger(cfg, args, "")
	if err != nil {
		return &ConfigError{Err: err}
	}
	defer closeLog()

	tr, err := newTransport(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.TransportConfig().RequestTimeout)
	defer cancel()

	return OutputJSON(args.JSON, "reset", func() (interface{}, error) {
		body, err := tr.ResetSession(ctx)
		if err != nil {
			return nil, err
		}
		response := strings.TrimSpace(string(body))
		if !args.JSON && !args.Quiet {
			fmt.Println(RenderConditional(SuccessStyle, "[reset]") + " session reset")
			if response != "" {
				fmt.Println(response)
			}
		}
		return ResetData{Endpoint: tr.Endpoints().Reset, Response: response}, nil
	})
}
