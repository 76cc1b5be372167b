// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor runs a child program with both output streams
// captured, and turns its termination into the wrapper's exit code.
//
// A run moves through five states:
//
//	Spawning → Running → Draining → Exited → Reported
//
// Spawning starts the child with inherited stdin and two pipes. A
// spawn failure is a local error ([SpawnError], exit 127) and nothing
// is reported. Running starts exactly three goroutines: one
// [capture.Pump] per stream and one waiting for the child. Draining
// joins all three; an exit status alone is not enough, the pumps must
// also have produced their final snapshots. Exited assembles the
// [Outcome]. Reported submits one fatal event to the [report.Reporter]
// when the child failed and closes the reporter synchronously, so a
// failure report is never silently dropped.
//
// There is no timeout: a child that never exits keeps the supervisor
// waiting. Signals delivered to the wrapper are forwarded to the child
// rather than terminating the wrapper, so the wrapper outlives the
// child and can still report.
package supervisor
