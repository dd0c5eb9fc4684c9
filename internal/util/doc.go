// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across stepchat.
//
//   - AtomicWriteFile: crash-safe file replacement used by exports and notebooks
//   - TruncateRunes, TruncateWidth, StringWidth: display-safe truncation
//   - NormalizeInput: NFC normalisation and control-character stripping for
//     outbound messages
package util
