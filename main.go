// stepchat - terminal client for a streaming agent backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/cli"
	"github.com/jeranaias/stepchat/internal/config"
	"github.com/jeranaias/stepchat/internal/controller"
	"github.com/jeranaias/stepchat/internal/logging"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/transport"
	"github.com/jeranaias/stepchat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, args)
	case cli.CmdChat:
		err = cli.HandleChatCommand(ctx, args)
	case cli.CmdListen:
		err = cli.HandleListen(ctx, args)
	case cli.CmdSend:
		err = cli.HandleSend(ctx, args)
	case cli.CmdReset:
		err = cli.HandleReset(ctx, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		err = cli.HandleUnknown(args)
	}

	if err != nil {
		stop()
		cli.HandleErrorAndExit(err, args.JSON)
	}
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(ctx context.Context, args cli.Args) error {
	if !cli.IsTTY() {
		return &cli.TTYRequiredError{Command: "tui"}
	}

	cfg, cfgPath, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal; logs go to a file.
	logPath, _ := config.DefaultLogPath()
	log, closeLog, err := cli.SetupLogger(cfg, args, logPath)
	if err != nil {
		return &cli.ConfigError{Err: err}
	}
	defer closeLog()

	tr, err := transport.NewWithConfig(cfg.TransportConfig(), logging.Component(log, "transport"))
	if err != nil {
		return &cli.ConfigError{Err: err}
	}
	renderer := render.New(cfg.RenderOptions(render.FormatTerminal, logging.Component(log, "render")))
	ctrl := controller.New(tr, renderer, cfg.ControllerOptions(logging.Component(log, "controller")))

	m := chat.New(ctrl, cfg, logging.Component(log, "ui"))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	chat.Bind(p.Send, ctrl, tr)

	if w := startWatcher(ctx, cfgPath, args, p, log); w != nil {
		defer w.Close()
	}

	log.Info().Str("backend", cfg.Server.BaseURL).Msg("starting tui")
	ctrl.Start()
	defer func() {
		if err := ctrl.Stop(); err != nil {
			log.Warn().Err(err).Msg("closing stream")
		}
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// startWatcher reloads render and UI settings when the config file changes.
// A watcher that cannot start is logged and skipped.
func startWatcher(ctx context.Context, path string, args cli.Args, p *tea.Program, log zerolog.Logger) *config.Watcher {
	if path == "" {
		return nil
	}
	if args.ConfigPath == "" {
		if err := config.EnsureConfigDir(); err != nil {
			log.Warn().Err(err).Msg("config watch disabled")
			return nil
		}
	}

	forward := chat.ReloadFunc(p.Send)
	onChange := func(cfg *config.Config) {
		// Command line overrides outlive file edits.
		if args.URL != "" {
			cfg.Server.BaseURL = args.URL
		}
		forward(cfg)
	}

	w, err := config.NewWatcher(path, config.DefaultWatchDebounce, onChange, logging.Component(log, "config"))
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watch disabled")
		return nil
	}
	w.Start(ctx)
	return w
}
