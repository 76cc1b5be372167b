// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sentry-process runs a program, passes its output through untouched,
// and reports a failed run to Sentry with the tail of its stdout and
// stderr attached.
//
// Usage:
//
//	sentry-process [--config FILE] [--] <program> [args...]
//	sentry-process [--config FILE] --send-spooled
//	sentry-process --version
//
// Wrapper flags are only recognized before the program name; every
// argument after it belongs to the child. The wrapper exits with the
// child's exit code, or with 127 when no program was given or it could
// not be started, or with 1 for its own failures: missing DSN, invalid
// configuration, an event that could not be delivered, or a child
// terminated by a signal.
//
// The DSN comes from SENTRY_DSN or the configuration file. Signals
// SIGINT, SIGTERM, SIGHUP, and SIGQUIT received by the wrapper are
// forwarded to the child, and the wrapper keeps waiting for it.
//
// When a spool directory is configured, an event that cannot be
// delivered is stored there (optionally age-encrypted) and can be
// resent later with --send-spooled.
package main
