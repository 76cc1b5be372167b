// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the wrapper's own structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// New creates a structured logger writing to stderr. When stderr is a
// terminal, uses slog.TextHandler for human-readable output. When
// stderr is piped or redirected (CI jobs, cron mail), uses
// slog.JSONHandler so the wrapper's lines can be told apart from the
// child's.
func New(level slog.Level) *slog.Logger {
	return NewWriter(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)
}

// NewWriter creates a logger writing to w, with a text handler when
// interactive is set and a JSON handler otherwise.
func NewWriter(w io.Writer, interactive bool, level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if interactive {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}
