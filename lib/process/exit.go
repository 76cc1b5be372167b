// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
)

// Exit codes for failures of the wrapper itself.
const (
	// ExitSuccess is returned when the wrapper has nothing to relay
	// (e.g. --version).
	ExitSuccess = 0

	// ExitFailure covers local tooling errors: configuration, the
	// reporting client, waiting on the child, reading its output, and
	// children terminated by a signal.
	ExitFailure = 1

	// ExitCommandNotFound is returned when no program was given or it
	// could not be started. It matches the shell convention.
	ExitCommandNotFound = 127
)

// Report writes "name: err" to w. It is the single place raw error
// text reaches the parent's error stream.
func Report(w io.Writer, name string, err error) {
	fmt.Fprintf(w, "%s: %v\n", name, err)
}
