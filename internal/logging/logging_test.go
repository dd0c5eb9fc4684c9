// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	root, closeFn, err := Setup(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closeFn()

	log := Component(root, "transport")
	log.Info().Str("url", "ws://x/ws/steps").Msg("connected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "transport", entry["component"])
	assert.Equal(t, "connected", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	root, _, err := Setup(Options{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)

	root.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	root.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stepchat.log")
	root, closeFn, err := Setup(Options{File: path})
	require.NoError(t, err)

	root.Info().Msg("to file")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
