// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import "fmt"

// ExitStatus is how the child terminated.
type ExitStatus struct {
	// Success reports a zero exit code.
	Success bool

	// Exited reports that the child exited normally and Code is
	// meaningful. It is false when the child was killed by a signal.
	Exited bool

	// Code is the child's exit code when Exited is set.
	Code int

	// Signal names the terminating signal (e.g. "SIGKILL") when
	// Exited is false.
	Signal string
}

// String describes the status for logs and diagnostic events.
func (s ExitStatus) String() string {
	if s.Exited {
		return fmt.Sprintf("exit code %d", s.Code)
	}
	if s.Signal == "" {
		return "terminated by signal"
	}
	return "terminated by signal " + s.Signal
}
