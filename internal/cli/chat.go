// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat command.
//
// Command: chat
// Short:   Chat with the backend without the full-screen TUI
// Aliases: repl
//
// Steps are printed as they arrive on the stream; messages typed at the
// prompt are posted to the chat endpoint.
//
// Interactive Commands (during chat):
//   /help, /h                      Show available commands
//   /export html|md|json|ipynb [dir]  Export the conversation
//   /reset                         Reset the backend session
//   /system on|off                 Show or hide system notes
//   /status, /s                    Show connection and message counts
//   /quit, /q                      Exit chat
//   Ctrl+C, Ctrl+D                 Exit chat

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/config"
	"github.com/jeranaias/stepchat/internal/controller"
	"github.com/jeranaias/stepchat/internal/export"
	"github.com/jeranaias/stepchat/internal/logging"
	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/transport"
	"github.com/jeranaias/stepchat/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history, readable only by the owner.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for a line-mode chat session.
type ChatSession struct {
	Config     *config.Config
	Transport  *transport.Transport
	Controller *controller.Controller
	Log        zerolog.Logger
	Quiet      bool
	StartTime  time.Time

	// outMu serialises writes from the stream goroutine and the prompt.
	outMu sync.Mutex
	out   io.Writer
}

// NewChatSession wires a transport, terminal renderer and controller from
// cfg. Nothing is connected until Start.
func NewChatSession(cfg *config.Config, log zerolog.Logger, out io.Writer, quiet bool) (*ChatSession, error) {
	tr, err := newTransport(cfg, log)
	if err != nil {
		return nil, err
	}
	renderer := render.New(cfg.RenderOptions(render.FormatTerminal, logging.Component(log, "render")))
	ctrl := controller.New(tr, renderer, cfg.ControllerOptions(logging.Component(log, "controller")))

	s := &ChatSession{
		Config:     cfg,
		Transport:  tr,
		Controller: ctrl,
		Log:        log,
		Quiet:      quiet,
		StartTime:  time.Now(),
		out:        out,
	}

	ctrl.OnAppend(func(msg model.DisplayMessage) {
		// Local user messages are already on screen as typed input.
		if msg.Local {
			return
		}
		s.outMu.Lock()
		defer s.outMu.Unlock()
		fmt.Fprintln(s.out)
		PrintMessage(s.out, msg)
	})
	ctrl.OnError(func(err error) {
		s.printf("%s %v\n", RenderConditional(ErrorStyle, "[error]"), err)
	})
	if !quiet {
		tr.OnStateChange(func(state transport.State) {
			s.printf("%s\n", RenderConditional(DimStyle, "["+state.String()+"]"))
		})
	}

	return s, nil
}

// Start connects the stream.
func (s *ChatSession) Start() {
	s.Controller.Start()
}

// Stop disconnects the stream.
func (s *ChatSession) Stop() error {
	return s.Controller.Stop()
}

func (s *ChatSession) printf(format string, args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the line-mode chat until /quit, Ctrl+C or Ctrl+D.
func HandleChatCommand(ctx context.Context, args Args) error {
	if !IsTTY() {
		return &TTYRequiredError{Command: "chat"}
	}

	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	// Log lines would tear the prompt; they go to a file.
	logPath, _ := config.DefaultLogPath()
	log, closeLog, err := SetupLogger(cfg, args, logPath)
	if err != nil {
		return &ConfigError{Err: err}
	}
	defer closeLog()

	session, err := NewChatSession(cfg, log, os.Stdout, args.Quiet)
	if err != nil {
		return err
	}

	input := NewChatCLI()
	defer input.Close()

	if !session.Quiet {
		printWelcome(session)
	}
	session.Start()
	defer session.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := input.ReadInput(RenderConditional(promptStyle, "stepchat> "))
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C), io.EOF (Ctrl+D) or a closed terminal
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := handleSlashCommand(ctx, line, session)
			if err != nil {
				session.printf("%s %v\n", RenderConditional(ErrorStyle, "[error]"), err)
			}
			if !keepGoing {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			printExitSummary(session)
			return nil
		}

		session.Controller.Send(line)
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs one slash command. It reports false when the
// session should end.
func handleSlashCommand(ctx context.Context, input string, session *ChatSession) (bool, error) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h", "/?":
		printHelp(session.out)
		return true, nil

	case "/export", "/e":
		path, err := exportConversation(session, args)
		if err != nil {
			return true, err
		}
		session.printf("%s exported to %s\n", RenderConditional(SuccessStyle, "[OK]"), path)
		return true, nil

	case "/reset", "/r":
		resetCtx, cancel := context.WithTimeout(ctx, session.Config.TransportConfig().RequestTimeout)
		defer cancel()
		if err := session.Controller.Reset(resetCtx); err != nil {
			return true, err
		}
		session.printf("%s session reset\n", RenderConditional(SuccessStyle, "[OK]"))
		return true, nil

	case "/system":
		if len(args) == 0 {
			return true, ErrMissingArgument("on|off", "/system off")
		}
		show, err := ParseBoolString(args[0])
		if err != nil {
			return true, NewValidationError("system", args[0], "expected on or off")
		}
		session.Controller.SetShowSystem(show)
		session.printf("system notes %s\n", map[bool]string{true: "shown", false: "hidden"}[show])
		return true, nil

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, NewValidationErrorWithExample("command", cmd, "unknown command", "/help")
	}
}

// exportConversation handles "/export FORMAT [DIR]".
func exportConversation(session *ChatSession, args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrMissingArgument("format", "/export html")
	}
	format := strings.ToLower(args[0])

	opts := session.Config.ExportOptions(logging.Component(session.Log, "export"))
	if len(args) > 1 {
		opts.OutputDir = args[1]
	}

	if _, err := export.ExporterFor(format, opts); err != nil {
		return "", ErrUnsupportedFormat(format, export.Formats)
	}
	return export.ExportConversation(session.Controller.Conversation(), session.Config.Server.BaseURL, format, opts)
}

// =============================================================================
// OUTPUT
// =============================================================================

func printWelcome(session *ChatSession) {
	endpoints := session.Transport.Endpoints()
	session.printf("\n%s\n", RenderConditional(welcomeStyle, "stepchat"))
	session.printf("%s\n", RenderConditional(infoStyle, strings.Repeat("-", 30)))
	session.printf("%s %s\n", RenderConditional(infoStyle, "Stream:"), RenderConditional(commandStyle, endpoints.Stream))
	session.printf("%s %s\n", RenderConditional(infoStyle, "Chat:  "), RenderConditional(commandStyle, endpoints.Chat))
	session.printf("\n%s\n\n", RenderConditional(infoStyle, "Type a message and press Enter. Commands: /help, /quit"))
}

func printHelp(w io.Writer) {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/export FORMAT [DIR]", "Export as html, md, json or ipynb"},
		{"/reset, /r", "Reset the backend session"},
		{"/system on|off", "Show or hide system notes"},
		{"/status, /s", "Show connection state"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %s  %s\n",
			RenderConditional(commandStyle, fmt.Sprintf("%-22s", c.cmd)),
			RenderConditional(infoStyle, c.desc))
	}
	fmt.Fprintln(w)
}

func printStatus(session *ChatSession) {
	session.printf("\n  %s %s\n", RenderConditional(infoStyle, "State:   "), session.Transport.State())
	session.printf("  %s %d\n", RenderConditional(infoStyle, "Messages:"), session.Controller.Conversation().Len())
	session.printf("  %s %s\n\n", RenderConditional(infoStyle, "Uptime:  "), formatDuration(time.Since(session.StartTime)))
}

func printExitSummary(session *ChatSession) {
	if session.Quiet {
		return
	}
	session.printf("%s %d messages in %s\n",
		RenderConditional(infoStyle, "Session:"),
		session.Controller.Conversation().Len(),
		formatDuration(time.Since(session.StartTime)))
}
