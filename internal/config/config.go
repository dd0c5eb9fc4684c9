// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/controller"
	"github.com/jeranaias/stepchat/internal/export"
	"github.com/jeranaias/stepchat/internal/logging"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/transport"
	"github.com/jeranaias/stepchat/internal/util"
)

// CurrentVersion is written to new config files.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the main configuration structure for stepchat.
type Config struct {
	Version string       `toml:"version" json:"version"`
	Server  ServerConfig `toml:"server" json:"server"`
	Render  RenderConfig `toml:"render" json:"render"`
	UI      UIConfig     `toml:"ui" json:"ui"`
	Log     LogConfig    `toml:"log" json:"log"`
}

// ServerConfig locates the chat backend.
type ServerConfig struct {
	// BaseURL is the backend origin, e.g. http://localhost:8000.
	BaseURL    string `toml:"base_url" json:"base_url"`
	StreamPath string `toml:"stream_path" json:"stream_path"`
	ChatPath   string `toml:"chat_path" json:"chat_path"`
	ResetPath  string `toml:"reset_path" json:"reset_path"`

	RequestTimeoutSecs   int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	HandshakeTimeoutSecs int `toml:"handshake_timeout_secs" json:"handshake_timeout_secs"`

	// ReconnectRate caps stream dials per second. 0 re-dials immediately.
	ReconnectRate float64 `toml:"reconnect_rate" json:"reconnect_rate"`

	// MaxMessageBytes limits one inbound frame. 0 is unlimited.
	MaxMessageBytes int64 `toml:"max_message_bytes" json:"max_message_bytes"`
}

// RenderConfig controls how steps are rendered.
type RenderConfig struct {
	// ToolPolicy is "keep-last" or "keep-all".
	ToolPolicy          string `toml:"tool_policy" json:"tool_policy"`
	InterpreterTool     string `toml:"interpreter_tool" json:"interpreter_tool"`
	InterpreterArgument string `toml:"interpreter_argument" json:"interpreter_argument"`
	Language            string `toml:"language" json:"language"`
	CodeStyle           string `toml:"code_style" json:"code_style"`
	MarkdownStyle       string `toml:"markdown_style" json:"markdown_style"`
	WrapWidth           int    `toml:"wrap_width" json:"wrap_width"`
}

// UIConfig contains user interface settings.
type UIConfig struct {
	ShowSystem bool   `toml:"show_system" json:"show_system"`
	DedupeEcho bool   `toml:"dedupe_echo" json:"dedupe_echo"`
	Theme      string `toml:"theme" json:"theme"` // "dark", "light", "auto"
	ExportDir  string `toml:"export_dir" json:"export_dir"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"` // "console" or "json"
	// File receives the log. Empty means stderr for commands and
	// ~/.stepchat/stepchat.log for the TUI.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible defaults.
func Default() *Config {
	tc := transport.DefaultConfig()
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			BaseURL:              tc.BaseURL,
			StreamPath:           tc.StreamPath,
			ChatPath:             tc.ChatPath,
			ResetPath:            tc.ResetPath,
			RequestTimeoutSecs:   int(tc.RequestTimeout / time.Second),
			HandshakeTimeoutSecs: int(tc.HandshakeTimeout / time.Second),
		},
		Render: RenderConfig{
			ToolPolicy:          string(render.KeepLast),
			InterpreterTool:     render.DefaultInterpreterTool,
			InterpreterArgument: render.DefaultInterpreterArgument,
			Language:            render.DefaultLanguage,
			CodeStyle:           render.DefaultCodeStyle,
			MarkdownStyle:       "auto",
			WrapWidth:           render.DefaultWrapWidth,
		},
		UI: UIConfig{
			ShowSystem: true,
			DedupeEcho: true,
			Theme:      "dark",
			ExportDir:  ".",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the stepchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".stepchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultLogPath is where the TUI logs when no log file is configured.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stepchat.log"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys missing from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The file is decoded over the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in values a file set to empty.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Server
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = defaults.Server.BaseURL
	}
	if cfg.Server.StreamPath == "" {
		cfg.Server.StreamPath = defaults.Server.StreamPath
	}
	if cfg.Server.ChatPath == "" {
		cfg.Server.ChatPath = defaults.Server.ChatPath
	}
	if cfg.Server.ResetPath == "" {
		cfg.Server.ResetPath = defaults.Server.ResetPath
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = defaults.Server.RequestTimeoutSecs
	}
	if cfg.Server.HandshakeTimeoutSecs == 0 {
		cfg.Server.HandshakeTimeoutSecs = defaults.Server.HandshakeTimeoutSecs
	}

	// Render
	if cfg.Render.ToolPolicy == "" {
		cfg.Render.ToolPolicy = defaults.Render.ToolPolicy
	}
	if cfg.Render.InterpreterTool == "" {
		cfg.Render.InterpreterTool = defaults.Render.InterpreterTool
	}
	if cfg.Render.InterpreterArgument == "" {
		cfg.Render.InterpreterArgument = defaults.Render.InterpreterArgument
	}
	if cfg.Render.Language == "" {
		cfg.Render.Language = defaults.Render.Language
	}
	if cfg.Render.CodeStyle == "" {
		cfg.Render.CodeStyle = defaults.Render.CodeStyle
	}
	if cfg.Render.MarkdownStyle == "" {
		cfg.Render.MarkdownStyle = defaults.Render.MarkdownStyle
	}
	if cfg.Render.WrapWidth == 0 {
		cfg.Render.WrapWidth = defaults.Render.WrapWidth
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.ExportDir == "" {
		cfg.UI.ExportDir = defaults.UI.ExportDir
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# stepchat configuration file\n")
	sb.WriteString("# Generated by stepchat - edit with care\n")
	sb.WriteString("#\n")
	sb.WriteString("# Environment overrides: STEPCHAT_URL, STEPCHAT_LOG_LEVEL,\n")
	sb.WriteString("# STEPCHAT_TOOL_POLICY, STEPCHAT_RECONNECT_RATE\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every validation failure.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// markdownStyles are the glamour standard style names plus "auto".
var markdownStyles = []string{"auto", "ascii", "dark", "dracula", "light", "notty", "pink", "tokyo-night"}

// Validate checks every setting and returns a ValidateErrors listing all
// failures, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Server
	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Host == "" {
		add("server.base_url", "must be an absolute URL, got %q", c.Server.BaseURL)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("server.base_url", "scheme must be http or https, got %q", u.Scheme)
	}
	for field, path := range map[string]string{
		"server.stream_path": c.Server.StreamPath,
		"server.chat_path":   c.Server.ChatPath,
		"server.reset_path":  c.Server.ResetPath,
	} {
		if !strings.HasPrefix(path, "/") {
			add(field, "must start with '/', got %q", path)
		}
	}
	if c.Server.RequestTimeoutSecs < 1 || c.Server.RequestTimeoutSecs > 600 {
		add("server.request_timeout_secs", "must be between 1 and 600, got %d", c.Server.RequestTimeoutSecs)
	}
	if c.Server.HandshakeTimeoutSecs < 1 || c.Server.HandshakeTimeoutSecs > 120 {
		add("server.handshake_timeout_secs", "must be between 1 and 120, got %d", c.Server.HandshakeTimeoutSecs)
	}
	if c.Server.ReconnectRate < 0 {
		add("server.reconnect_rate", "must not be negative, got %g", c.Server.ReconnectRate)
	}
	if c.Server.MaxMessageBytes < 0 {
		add("server.max_message_bytes", "must not be negative, got %d", c.Server.MaxMessageBytes)
	}

	// Render
	if _, err := render.ParseToolPolicy(c.Render.ToolPolicy); err != nil {
		add("render.tool_policy", "%v", err)
	}
	if strings.TrimSpace(c.Render.InterpreterTool) == "" {
		add("render.interpreter_tool", "must not be empty")
	}
	if strings.TrimSpace(c.Render.InterpreterArgument) == "" {
		add("render.interpreter_argument", "must not be empty")
	}
	if !slices.Contains(chromaStyles.Names(), c.Render.CodeStyle) {
		add("render.code_style", "unknown style %q", c.Render.CodeStyle)
	}
	if !slices.Contains(markdownStyles, c.Render.MarkdownStyle) {
		add("render.markdown_style", "must be one of %s, got %q", strings.Join(markdownStyles, ", "), c.Render.MarkdownStyle)
	}
	if c.Render.WrapWidth < 20 || c.Render.WrapWidth > 400 {
		add("render.wrap_width", "must be between 20 and 400, got %d", c.Render.WrapWidth)
	}

	// UI
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "must be dark, light or auto, got %q", c.UI.Theme)
	}

	// Log
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "%v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		add("log.format", "must be console or json, got %q", c.Log.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies STEPCHAT_* environment variables. Values that
// fail to parse are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("STEPCHAT_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("STEPCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("STEPCHAT_TOOL_POLICY"); v != "" {
		if p, err := render.ParseToolPolicy(v); err == nil {
			c.Render.ToolPolicy = string(p)
		}
	}
	if v := os.Getenv("STEPCHAT_RECONNECT_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Server.ReconnectRate = rate
		}
	}
}

// =============================================================================
// COMPONENT OPTIONS
// =============================================================================

// TransportConfig returns the transport settings.
func (c *Config) TransportConfig() *transport.Config {
	return &transport.Config{
		BaseURL:          c.Server.BaseURL,
		StreamPath:       c.Server.StreamPath,
		ChatPath:         c.Server.ChatPath,
		ResetPath:        c.Server.ResetPath,
		RequestTimeout:   time.Duration(c.Server.RequestTimeoutSecs) * time.Second,
		HandshakeTimeout: time.Duration(c.Server.HandshakeTimeoutSecs) * time.Second,
		ReconnectRate:    c.Server.ReconnectRate,
		MaxMessageBytes:  c.Server.MaxMessageBytes,
	}
}

// RenderOptions returns renderer options for the given output format.
func (c *Config) RenderOptions(format render.Format, log zerolog.Logger) render.Options {
	policy, err := render.ParseToolPolicy(c.Render.ToolPolicy)
	if err != nil {
		policy = render.KeepLast
	}
	return render.Options{
		Format:              format,
		Policy:              policy,
		InterpreterTool:     c.Render.InterpreterTool,
		InterpreterArgument: c.Render.InterpreterArgument,
		Language:            c.Render.Language,
		CodeStyle:           c.Render.CodeStyle,
		MarkdownStyle:       c.Render.MarkdownStyle,
		WrapWidth:           c.Render.WrapWidth,
		Logger:              log,
	}
}

// ControllerOptions returns the controller options.
func (c *Config) ControllerOptions(log zerolog.Logger) controller.Options {
	return controller.Options{
		ShowSystem: c.UI.ShowSystem,
		DedupeEcho: c.UI.DedupeEcho,
		Logger:     log,
	}
}

// ExportOptions returns export options writing to ui.export_dir. HTML
// exports follow ui.theme; "auto" exports dark.
func (c *Config) ExportOptions(log zerolog.Logger) *export.Options {
	opts := export.DefaultOptions()
	if c.UI.ExportDir != "" {
		opts.OutputDir = c.UI.ExportDir
	}
	if c.UI.Theme == "light" {
		opts.Theme = "light"
	}
	opts.Render = c.RenderOptions(render.FormatHTML, log)
	opts.Logger = log
	return opts
}

// LoggingOptions returns logger options. fallbackFile is used when no log
// file is configured; pass "" to log to stderr.
func (c *Config) LoggingOptions(fallbackFile string) logging.Options {
	file := c.Log.File
	if file == "" {
		file = fallbackFile
	}
	return logging.Options{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		File:   file,
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "render.tool_policy").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				switch strings.ToLower(strVal) {
				case "yes", "on":
					boolVal = true
				case "no", "off":
					boolVal = false
				default:
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	// Numeric conversions only; int to string would yield a rune.
	if val.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.base_url",
		"server.stream_path",
		"server.chat_path",
		"server.reset_path",
		"server.request_timeout_secs",
		"server.handshake_timeout_secs",
		"server.reconnect_rate",
		"server.max_message_bytes",
		"render.tool_policy",
		"render.interpreter_tool",
		"render.interpreter_argument",
		"render.language",
		"render.code_style",
		"render.markdown_style",
		"render.wrap_width",
		"ui.show_system",
		"ui.dedupe_echo",
		"ui.theme",
		"ui.export_dir",
		"log.level",
		"log.format",
		"log.file",
	}
}

// Clone returns a copy of the configuration. Config holds only value
// fields, so a struct copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy with credentials in the base URL replaced.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if u, err := url.Parse(safe.Server.BaseURL); err == nil && u.User != nil {
		u.User = url.User("REDACTED")
		safe.Server.BaseURL = u.String()
	}
	return safe
}

// String returns the redacted config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A config that fails to load is replaced by the defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
