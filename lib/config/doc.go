// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for sentry-process.
//
// Configuration comes from three layers, later layers winning:
//
//   - [Default] values,
//   - an optional file named by the --config flag or the
//     SENTRY_PROCESS_CONFIG environment variable,
//   - the SENTRY_DSN, SENTRY_ENVIRONMENT, and SENTRY_RELEASE
//     environment variables.
//
// Files ending in .json or .jsonc are parsed as JSON with comments and
// trailing commas allowed; anything else is parsed as YAML. There is no
// automatic file discovery.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded.
//
// This package depends only on lib/capture for line-ending and capture
// size rules.
package config
