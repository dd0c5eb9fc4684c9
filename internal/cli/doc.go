// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// stepchat.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdListen:
//	    err = cli.HandleListen(ctx, args)
//	case cli.CmdSend:
//	    err = cli.HandleSend(ctx, args)
//	// ... other commands
//	}
//	cli.HandleErrorAndExit(err, args.JSON)
//
// # Commands Overview
//
//   - tui: full-screen chat (the default, run by main)
//   - chat: line-mode chat with history
//   - listen: log every step, optionally recording a notebook
//   - send, reset: one-shot requests
//   - config: show and edit the configuration
//
// The one-shot commands support --json.
package cli
