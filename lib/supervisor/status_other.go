// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package supervisor

import "os"

// statusFromProcessState converts the wait status of a reaped child.
// Without POSIX wait statuses, a negative exit code is the only sign
// that no code was reported.
func statusFromProcessState(state *os.ProcessState) ExitStatus {
	code := state.ExitCode()
	if code < 0 {
		return ExitStatus{}
	}
	return ExitStatus{Success: state.Success(), Exited: true, Code: code}
}
