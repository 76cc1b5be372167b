// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWriterJSON(t *testing.T) {
	var buffer bytes.Buffer
	logger := NewWriter(&buffer, false, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "stream", "stderr")

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buffer.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["msg"] != "shown" || record["stream"] != "stderr" {
		t.Errorf("record = %v", record)
	}
}

func TestNewWriterText(t *testing.T) {
	var buffer bytes.Buffer
	logger := NewWriter(&buffer, true, slog.LevelDebug)

	logger.Debug("state", "state", "draining")

	output := buffer.String()
	if !strings.Contains(output, "msg=state") || !strings.Contains(output, "state=draining") {
		t.Errorf("text output = %q", output)
	}
	if strings.HasPrefix(output, "{") {
		t.Errorf("interactive logger wrote JSON: %q", output)
	}
}
