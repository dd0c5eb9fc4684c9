// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Config and logger setup shared by the commands.

package cli

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/config"
	"github.com/jeranaias/stepchat/internal/logging"
	"github.com/jeranaias/stepchat/internal/transport"
)

// LoadConfig loads the configuration the command line asks for: --config
// when given, the default locations otherwise. --url overrides the base URL
// and the result is validated again. It also returns the file the config
// came from, or the default TOML path when none exists.
func LoadConfig(args Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)

	if args.ConfigPath != "" {
		path = args.ConfigPath
		cfg, err = config.LoadFromPath(path)
	} else {
		path = defaultConfigPath()
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}

	if args.URL != "" {
		cfg.Server.BaseURL = args.URL
		if err := cfg.Validate(); err != nil {
			return nil, path, &ConfigError{Path: path, Err: err}
		}
	}

	config.SetGlobal(cfg)
	return cfg, path, nil
}

// defaultConfigPath returns the config file Load would read.
func defaultConfigPath() string {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	if jsonPath, err := config.ConfigPathJSON(); err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath
		}
	}
	return tomlPath
}

// SetupLogger builds the root logger. -v forces debug and -q forces warn.
// fallbackFile is used when the config names no log file; "" logs to stderr.
func SetupLogger(cfg *config.Config, args Args, fallbackFile string) (zerolog.Logger, func() error, error) {
	opts := cfg.LoggingOptions(fallbackFile)
	switch {
	case args.Verbose:
		opts.Level = "debug"
	case args.Quiet:
		opts.Level = "warn"
	}
	opts.NoColor = os.Getenv("NO_COLOR") != ""
	return logging.Setup(opts)
}

// newTransport builds a transport from cfg.
func newTransport(cfg *config.Config, log zerolog.Logger) (*transport.Transport, error) {
	tr, err := transport.NewWithConfig(cfg.TransportConfig(), logging.Component(log, "transport"))
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return tr, nil
}
