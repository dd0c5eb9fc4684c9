// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and usage for stepchat.

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdListen
	CmdSend
	CmdReset
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string // --config PATH
	URL        string // --url BASE, overrides server.base_url
	Quiet      bool
	Verbose    bool
	JSON       bool

	// Command-specific
	Subcommand string
	Message    string // send
	ConfigKey  string
	ConfigVal  string
	Notebook   string // listen --notebook FILE
	Render     bool   // listen --render
	ResetFirst bool   // listen --reset

	// Unknown holds the command name when Parse returns CmdUnknown.
	Unknown string

	// Raw args (remaining after the command name)
	Raw []string
}

const usageText = `stepchat - terminal client for a streaming agent backend

stepchat connects to an agent backend's step stream, renders every step
(markdown notes, highlighted interpreter code, plain text) and posts your
messages to it.

Usage:
  stepchat                       Start the TUI (default)
  stepchat tui                   Start the TUI
  stepchat chat                  Line-mode chat
  stepchat listen [flags]        Log every step until interrupted
  stepchat send MESSAGE          Post one message and print the response
  stepchat reset                 Reset the backend session
  stepchat config [subcommand]   Configuration
  stepchat version               Show version
  stepchat help                  Show this help

Listen Flags:
  --notebook FILE                Record steps into a Jupyter notebook
  --render                       Also print rendered steps to stdout
  --reset                        Reset the backend session before listening

Config Commands:
  stepchat config show           Show the effective configuration
  stepchat config path           Show the config file path
  stepchat config init           Write a default config file
  stepchat config keys           List configuration keys
  stepchat config get KEY        Show one value (e.g. server.base_url)
  stepchat config set KEY VALUE  Change one value and save

Chat Commands (chat and TUI):
  /export html|md|json|ipynb [dir]  Export the conversation
  /reset                            Reset the backend session
  /help                             Show commands
  /quit                             Exit

Global Flags:
  --config PATH   Use this config file
  --url BASE      Backend base URL (default http://localhost:8000)
  -q, --quiet     Minimal output
  -v, --verbose   Debug logging
  --json          Output in JSON format

Environment:
  STEPCHAT_URL, STEPCHAT_LOG_LEVEL, STEPCHAT_TOOL_POLICY,
  STEPCHAT_RECONNECT_RATE override the matching config keys.

Examples:
  stepchat --url http://gpu-box:8000
  stepchat listen --notebook session.ipynb
  stepchat send "plot a sine wave"
  stepchat config set render.tool_policy keep-all

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("stepchat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments (without the program name).
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "chat", "repl":
		return CmdChat, parsedArgs

	case "listen", "watch":
		parseListenArgs(&parsedArgs, remaining)
		return CmdListen, parsedArgs

	case "send":
		parsedArgs.Message = JoinPositionalArgs(NewArgParser(remaining), 0)
		return CmdSend, parsedArgs

	case "reset":
		return CmdReset, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Unknown = cmd
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining
// args. Flags after a "--" are left alone.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--":
			return append(remaining, args[i:]...), parsedArgs
		case arg == "-q" || arg == "--quiet":
			parsedArgs.Quiet = true
		case arg == "-v" || arg == "--verbose":
			parsedArgs.Verbose = true
		case arg == "--json":
			parsedArgs.JSON = true
		case arg == "--config" || arg == "--url":
			if i+1 < len(args) {
				i++
				if arg == "--config" {
					parsedArgs.ConfigPath = args[i]
				} else {
					parsedArgs.URL = args[i]
				}
			}
		case strings.HasPrefix(arg, "--config="):
			parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--url="):
			parsedArgs.URL = strings.TrimPrefix(arg, "--url=")
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsedArgs
}

// parseListenArgs parses listen command specific arguments.
func parseListenArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining, "render", "reset")
	args.Notebook = p.Flag("notebook")
	args.Render = p.BoolFlag("render")
	args.ResetFirst = p.BoolFlag("reset")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	args.ConfigKey = p.Positional(1)
	args.ConfigVal = JoinPositionalArgs(p, 2)
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		NewJSONResponse("version", data).Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}

// HandleUnknown reports an unknown command with a suggestion when one is
// close.
func HandleUnknown(args Args) error {
	err := NewValidationError("command", args.Unknown, "unknown command")
	if suggestion := SuggestCommand(args.Unknown); suggestion != "" {
		err = NewValidationErrorWithExample("command", args.Unknown, "unknown command",
			fmt.Sprintf("did you mean 'stepchat %s'?", suggestion))
	}
	return err
}
