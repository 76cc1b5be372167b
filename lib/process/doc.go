// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers: the exit codes
// the wrapper uses for its own (local) failures, and the raw stderr
// reporting used before or instead of the structured logger.
//
// The wrapper's exit code normally mirrors the child's. The constants
// here cover the cases where no child exit code exists: the child
// could not be started, or the wrapper itself failed.
package process
