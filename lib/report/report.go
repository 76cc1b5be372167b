// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report defines the contract between the process supervisor
// and the error-tracking client that receives diagnostics for failed
// child runs.
//
// The supervisor knows nothing about transports or wire formats. It
// hands a Reporter one Event per failed run and then requires the
// Reporter to deliver it synchronously via Close. The Sentry client in
// lib/sentry is the production implementation; tests substitute
// [Recorder].
package report

import (
	"context"
	"fmt"
	"sync"
)

// Severity is the level attached to a diagnostic event.
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Well-known tag and extra keys.
const (
	TagProcess   = "process"
	TagArguments = "arguments"

	ExtraStdout     = "stdout"
	ExtraStderr     = "stderr"
	ExtraExitStatus = "exit_status"
)

// Event is a single diagnostic event.
type Event struct {
	// Message is the human-readable summary, e.g. "Process 'make' failed".
	Message string

	// Severity is the event level.
	Severity Severity

	// Tags are short indexed key/value pairs (process name, arguments).
	Tags map[string]string

	// Extra carries the bulky, unindexed context (captured stdout and
	// stderr tails).
	Extra map[string]string
}

// Reporter receives diagnostic events.
//
// Capture queues an event; it never blocks on the network. Close
// delivers everything queued and releases the client. A non-nil error
// from Close means at least one event was not delivered. Close must be
// safe to call more than once; calls after the first return nil.
type Reporter interface {
	Capture(event Event)
	Close(ctx context.Context) error
}

// Recorder is an in-memory Reporter for tests. It records captured
// events and returns CloseErr from the first Close.
type Recorder struct {
	mu       sync.Mutex
	events   []Event
	closes   int
	CloseErr error
}

// Capture records event.
func (r *Recorder) Capture(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Close counts the call and returns CloseErr on the first call.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
	if r.closes > 1 {
		return nil
	}
	return r.CloseErr
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Closes returns how many times Close was called.
func (r *Recorder) Closes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}

// FailureMessage returns the message used for a failed run of program.
func FailureMessage(program string) string {
	return fmt.Sprintf("Process '%s' failed", program)
}
