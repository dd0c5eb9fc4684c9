// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for stepchat.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ServerConfig: backend URL, endpoint paths, timeouts, reconnect rate
//   - RenderConfig: tool policy, interpreter tool, code and markdown styles
//   - UIConfig: system step visibility, echo dedupe, theme
//   - LogConfig: log level, format, file
//   - Watcher: reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (STEPCHAT_*)
//   - ~/.stepchat/config.toml
//   - ~/.stepchat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	tr := transport.NewWithConfig(cfg.TransportConfig(), log)
package config
