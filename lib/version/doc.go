// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the wrapper.
//
// Version information is injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/sentry-process/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// The same name and version identify the wrapper to the error-tracking
// service, both in the User-Agent header and in each event's SDK
// block.
package version
