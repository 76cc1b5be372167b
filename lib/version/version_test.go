// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	originalName, originalVersion := Name, Version
	t.Cleanup(func() { Name, Version = originalName, originalVersion })

	Name, Version = "sentry-process", "1.2.3"
	if got := UserAgent(); got != "sentry-process@1.2.3" {
		t.Errorf("UserAgent() = %q, want %q", got, "sentry-process@1.2.3")
	}

	Version = ""
	if got := UserAgent(); got != "sentry-process" {
		t.Errorf("UserAgent() without version = %q, want %q", got, "sentry-process")
	}
}

func TestInfoMarksDirtyBuilds(t *testing.T) {
	originalDirty := GitDirty
	t.Cleanup(func() { GitDirty = originalDirty })

	GitDirty = "true"
	if !strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, want -dirty marker", Info())
	}
	GitDirty = "false"
	if strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, want no -dirty marker", Info())
	}
}
