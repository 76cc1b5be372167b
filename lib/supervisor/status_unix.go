// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package supervisor

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// statusFromProcessState converts the wait status of a reaped child.
func statusFromProcessState(state *os.ProcessState) ExitStatus {
	if waitStatus, ok := state.Sys().(syscall.WaitStatus); ok && waitStatus.Signaled() {
		name := unix.SignalName(waitStatus.Signal())
		if name == "" {
			name = waitStatus.Signal().String()
		}
		return ExitStatus{Signal: name}
	}
	return ExitStatus{
		Success: state.Success(),
		Exited:  true,
		Code:    state.ExitCode(),
	}
}
