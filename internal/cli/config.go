// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init                Write a default configuration file
//   keys                List configuration keys
//   get <key>           Show one value
//   set <key> <value>   Change one value and save
//
// Examples:
//   stepchat config
//   stepchat config show --json
//   stepchat config set server.base_url http://gpu-box:8000
//   stepchat config set render.tool_policy keep-all
//   stepchat config get ui.show_system

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/stepchat/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	return handleConfig(os.Stdout, args)
}

func handleConfig(w io.Writer, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(w, args)
	case "path":
		return handleConfigPath(w, args)
	case "init":
		return handleConfigInit(w, args)
	case "keys":
		return handleConfigKeys(w, args)
	case "get":
		return handleConfigGet(w, args)
	case "set":
		return handleConfigSet(w, args)
	default:
		return NewValidationErrorWithExample("subcommand", args.Subcommand, "unknown config subcommand",
			"stepchat config show|path|init|keys|get KEY|set KEY VALUE")
	}
}

// configFilePath returns the file config commands read and write.
func configFilePath(args Args) string {
	if args.ConfigPath != "" {
		return args.ConfigPath
	}
	return defaultConfigPath()
}

// handleConfigShow displays the effective configuration, env and flag
// overrides included.
func handleConfigShow(w io.Writer, args Args) error {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return err
	}

	safe := cfg.Redacted()
	if args.JSON {
		return NewJSONResponse("config show", safe).Encode(w)
	}

	fmt.Fprintln(w, RenderConditional(TitleStyle, "stepchat configuration"))

	section := ""
	for _, key := range config.GetAllKeys() {
		value, err := safe.Get(key)
		if err != nil {
			continue
		}
		if head, _, ok := strings.Cut(key, "."); ok && head != section {
			section = head
			fmt.Fprintf(w, "\n[%s]\n", section)
		}
		fmt.Fprintf(w, "  %s%s\n", RenderLabel(key), RenderConditional(ValueStyle, fmt.Sprint(value)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderSeparator(41))
	fmt.Fprintf(w, "Config file: %s\n", RenderConditional(DimStyle, path))
	return nil
}

func handleConfigPath(w io.Writer, args Args) error {
	path := configFilePath(args)
	_, err := os.Stat(path)
	exists := err == nil

	if args.JSON {
		return NewJSONResponse("config path", ConfigPathData{Path: path, Exists: exists}).Encode(w)
	}
	if exists {
		fmt.Fprintln(w, path)
	} else {
		fmt.Fprintf(w, "%s %s\n", path, RenderConditional(DimStyle, "(not created yet)"))
	}
	return nil
}

// handleConfigInit writes the defaults to the config file unless it exists.
func handleConfigInit(w io.Writer, args Args) error {
	path := configFilePath(args)
	if _, err := os.Stat(path); err == nil {
		return NewCommandError("config", "init", "config file already exists", errors.New(path))
	}
	if err := saveConfigFile(config.Default(), path); err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	if args.JSON {
		return NewJSONResponse("config init", ConfigPathData{Path: path, Exists: true}).Encode(w)
	}
	fmt.Fprintf(w, "%s wrote %s\n", RenderConditional(SuccessStyle, "[OK]"), path)
	return nil
}

func handleConfigKeys(w io.Writer, args Args) error {
	keys := config.GetAllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Encode(w)
	}
	for _, key := range keys {
		fmt.Fprintln(w, key)
	}
	return nil
}

func handleConfigGet(w io.Writer, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "stepchat config get server.base_url")
	}
	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	value, err := cfg.Redacted().Get(args.ConfigKey)
	if err != nil {
		return NewValidationError("key", args.ConfigKey, err.Error())
	}

	if args.JSON {
		return NewJSONResponse("config get", ConfigValueData{Key: args.ConfigKey, Value: value}).Encode(w)
	}
	fmt.Fprintln(w, value)
	return nil
}

// handleConfigSet changes one key in the config file. Environment and flag
// overrides are not written back.
func handleConfigSet(w io.Writer, args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return ErrMissingArgument("key and value", "stepchat config set render.tool_policy keep-all")
	}

	path := configFilePath(args)
	cfg, err := readConfigFile(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return NewValidationError(args.ConfigKey, args.ConfigVal, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	if err := saveConfigFile(cfg, path); err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	value, _ := cfg.Get(args.ConfigKey)
	if args.JSON {
		return NewJSONResponse("config set", ConfigValueData{Key: args.ConfigKey, Value: value}).Encode(w)
	}
	fmt.Fprintf(w, "%s %s = %v\n", RenderConditional(SuccessStyle, "[OK]"), args.ConfigKey, value)
	return nil
}

// readConfigFile decodes path over the defaults without env overrides. A
// missing file yields the defaults.
func readConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if strings.HasSuffix(path, ".json") {
		return cfg, config.LoadJSON(cfg, path)
	}
	return cfg, config.LoadTOML(cfg, path)
}

func saveConfigFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
