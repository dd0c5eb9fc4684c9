// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog logger every stepchat component logs
// through.
//
// The TUI owns the terminal, so it logs to a file; the plain commands log to
// stderr. Components take a sub-logger tagged with their name:
//
//	log := logging.Component(root, "transport")
//	log.Warn().Err(err).Msg("stream dial failed")
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Empty means info.
	Level string
	// Format is "console" (human readable) or "json".
	Format string
	// File, when set, receives the log instead of Output.
	File string
	// Output is used when File is empty. Nil means stderr.
	Output io.Writer
	// NoColor disables ANSI colours in console format.
	NoColor bool
}

// Setup returns a logger for opts and a close function for any file it
// opened. The close function is always non-nil.
func Setup(opts Options) (zerolog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), func() error { return nil }, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	closeFn := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = f.Close
		// Files never get colour codes.
		opts.NoColor = true
	}

	if strings.EqualFold(opts.Format, "json") {
		return zerolog.New(out).Level(level).With().Timestamp().Logger(), closeFn, nil
	}

	console := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    opts.NoColor,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(console).Level(level).With().Timestamp().Logger(), closeFn, nil
}

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Component returns a child logger tagged with the component name.
func Component(root zerolog.Logger, name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}
