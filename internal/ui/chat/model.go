// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/config"
	"github.com/jeranaias/stepchat/internal/controller"
	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/transport"
	"github.com/jeranaias/stepchat/internal/ui/styles"
)

// Layout constants. They must match the heights rendered in view.go.
const (
	headerHeight    = 1
	inputAreaHeight = 2 // separator + input line
	statusBarHeight = 1
	promptLen       = 2 // "> "
	minInputWidth   = 10
	maxInputLength  = 8192
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat view. It is a value type; Update returns the updated
// copy.
type Model struct {
	ctrl  *controller.Controller
	cfg   *config.Config
	log   zerolog.Logger
	theme *styles.Theme
	keys  KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int

	state      transport.State
	showSystem bool
	showHelp   bool
	busy       string // name of the request in flight ("reset", "export")

	// restyler re-renders already appended messages after a config reload.
	// Nil until the first reload.
	restyler *render.Renderer
	restyled map[string]string

	status    string
	statusErr bool
}

// New creates the chat view for ctrl. cfg supplies the backend URL shown in
// the header, export options and the theme.
func New(ctrl *controller.Controller, cfg *config.Config, log zerolog.Logger) Model {
	if cfg == nil {
		cfg = config.Default()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Message the agent, or /help"
	ti.CharLimit = maxInputLength
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = styles.LineSpinner.Bubble()

	theme := styles.NewThemeNamed(cfg.UI.Theme)
	sp.Style = theme.Spinner

	return Model{
		ctrl:       ctrl,
		cfg:        cfg,
		log:        log,
		theme:      theme,
		keys:       DefaultKeyMap(),
		viewport:   vp,
		input:      ti,
		spinner:    sp,
		showSystem: cfg.UI.ShowSystem,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case AppendMsg:
		return m.handleAppend(msg)

	case StateMsg:
		return m.handleState(msg)

	case ErrorMsg:
		m.setError(msg.Err.Error())
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case ExportCompleteMsg:
		return m.handleExportComplete(msg)

	case ResetCompleteMsg:
		return m.handleResetComplete(msg)

	case spinner.TickMsg:
		if !m.spinning() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the connection state shown in the header.
func (m Model) State() transport.State {
	return m.state
}

// Status returns the current status line text.
func (m Model) Status() string {
	return m.status
}

// ShowSystem reports whether system messages are displayed.
func (m Model) ShowSystem() bool {
	return m.showSystem
}

// Config returns the configuration the view is using.
func (m Model) Config() *config.Config {
	return m.cfg
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-headerHeight-inputAreaHeight-statusBarHeight, 1)

	m.input.Width = max(m.width-promptLen-2, minInputWidth)
	m.theme.SetSize(m.width, m.height)

	m.updateViewport()
	return m, nil
}

func (m Model) handleAppend(msg AppendMsg) (tea.Model, tea.Cmd) {
	follow := m.viewport.AtBottom() || msg.Message.Local
	m.updateViewport()
	if follow {
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m Model) handleState(msg StateMsg) (tea.Model, tea.Cmd) {
	wasSpinning := m.spinning()
	m.state = msg.State
	if msg.State == transport.StateConnected && m.statusErr {
		m.clearStatus()
	}
	if m.spinning() && !wasSpinning {
		return m, m.spinner.Tick
	}
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}
	previous := m.cfg

	r := render.New(cfg.RenderOptions(render.FormatTerminal, m.log))
	m.ctrl.SetRenderer(r)
	m.restyler = r
	m.restyled = make(map[string]string)

	m.ctrl.SetShowSystem(cfg.UI.ShowSystem)
	m.showSystem = cfg.UI.ShowSystem

	if cfg.UI.Theme != previous.UI.Theme {
		m.theme = styles.NewThemeNamed(cfg.UI.Theme)
		m.theme.SetSize(m.width, m.height)
		m.spinner.Style = m.theme.Spinner
	}

	m.cfg = cfg
	if cfg.Server.BaseURL != previous.Server.BaseURL {
		m.setStatus("config reloaded; server changes apply after restart")
	} else {
		m.setStatus("config reloaded")
	}
	m.log.Info().Str("tool_policy", cfg.Render.ToolPolicy).Bool("show_system", cfg.UI.ShowSystem).Msg("config reloaded")

	m.updateViewport()
	return m, nil
}

func (m Model) handleResetComplete(msg ResetCompleteMsg) (tea.Model, tea.Cmd) {
	m.busy = ""
	if msg.Err != nil {
		m.setError("reset failed: " + msg.Err.Error())
		return m, nil
	}
	m.setStatus("session reset")
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (m Model) spinning() bool {
	return m.state == transport.StateConnecting || m.busy != ""
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

// updateViewport re-renders the conversation into the viewport.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderMessages())
}

// content returns the text to show for msg, restyled with the reloaded
// renderer when there is one.
func (m *Model) content(msg model.DisplayMessage) string {
	if m.restyler == nil || msg.Local {
		return msg.RenderedContent
	}
	if s, ok := m.restyled[msg.ID]; ok {
		return s
	}
	s := m.restyler.Restyle(msg).RenderedContent
	m.restyled[msg.ID] = s
	return s
}
