// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP response helpers for talking to the
// error-tracking service.
//
// All body reads are bounded at MaxResponseSize. Ingest endpoints
// answer with a tiny JSON document (the accepted event ID) or a short
// error text; the bound keeps a misbehaving proxy in front of the
// service from making the wrapper buffer an arbitrary amount of data
// while the child's exit code is waiting to be relayed.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MaxResponseSize is the bound on response body reads: 1 MiB.
const MaxResponseSize int64 = 1 << 20

// maxErrorBody is how much of an error body is kept for messages.
const maxErrorBody = 512

// DecodeResponse reads a JSON response body (up to MaxResponseSize
// bytes) and JSON-decodes it into v. An empty body leaves v untouched.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// single trimmed line for diagnostic error messages, cut at a few
// hundred bytes. Read errors are silently ignored: a partial or
// empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	text := strings.Join(strings.Fields(string(data)), " ")
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
