// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/sentry-process/lib/capture"
	"github.com/bureau-foundation/sentry-process/lib/process"
	"github.com/bureau-foundation/sentry-process/lib/report"
)

// State is a step of a supervised run.
type State int

const (
	StateSpawning State = iota
	StateRunning
	StateDraining
	StateExited
	StateReported
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateExited:
		return "exited"
	case StateReported:
		return "reported"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrReportUndelivered is returned by Run when the reporter could not
// deliver the failure event.
var ErrReportUndelivered = errors.New("could not send events to Sentry")

// SpawnError is returned when the child program could not be started.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("could not start the '%s' command: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// SignalError is returned by Run when the child was terminated by a
// signal and therefore has no exit code to relay.
type SignalError struct {
	Signal string
}

func (e *SignalError) Error() string {
	if e.Signal == "" {
		return "process terminated by signal"
	}
	return "process terminated by signal " + e.Signal
}

// Outcome is the joined result of a run: how the child terminated and
// the final tails of both streams.
type Outcome struct {
	Status ExitStatus
	Stdout capture.Snapshot
	Stderr capture.Snapshot
}

// Config configures a Supervisor.
type Config struct {
	// Program and Args are the child command line.
	Program string
	Args    []string

	// Capacity is the per-stream ring capacity in bytes.
	Capacity int

	// LineEnding is appended to every forwarded line.
	LineEnding string

	// Stdout and Stderr receive the child's forwarded output.
	Stdout io.Writer
	Stderr io.Writer

	// Spawner starts the child. Defaults to ExecSpawner{}.
	Spawner Spawner

	// Reporter receives the failure event. Required.
	Reporter report.Reporter

	// ReportTimeout bounds Reporter.Close. Zero means no bound beyond
	// the context passed to Run.
	ReportTimeout time.Duration

	// ForwardSignals relays SIGINT, SIGTERM, SIGHUP, and SIGQUIT
	// received by the wrapper to the child.
	ForwardSignals bool

	// Logger receives the supervisor's own diagnostics. Defaults to a
	// discarding logger.
	Logger *slog.Logger
}

// Supervisor runs one child program. A Supervisor is single-use.
type Supervisor struct {
	config Config
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New validates config and returns a Supervisor in StateSpawning.
func New(config Config) (*Supervisor, error) {
	if config.Program == "" {
		return nil, errors.New("supervisor: program is required")
	}
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("supervisor: capacity must be positive, got %d", config.Capacity)
	}
	if config.Reporter == nil {
		return nil, errors.New("supervisor: reporter is required")
	}
	if config.Spawner == nil {
		config.Spawner = ExecSpawner{}
	}
	if config.Stdout == nil {
		config.Stdout = io.Discard
	}
	if config.Stderr == nil {
		config.Stderr = io.Discard
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		config: config,
		logger: logger.With("process", config.Program),
		state:  StateSpawning,
	}, nil
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.logger.Debug("supervisor state", "state", state.String())
}

// Run drives the child through every state and returns the exit code
// the wrapper should exit with. A non-nil error explains a non-mirrored
// exit code and belongs on the parent's error stream; it is nil
// whenever the code is simply the child's own.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	outcome, err := s.Execute()
	if err != nil {
		var spawnErr *SpawnError
		if errors.As(err, &spawnErr) {
			return process.ExitCommandNotFound, err
		}
		return process.ExitFailure, err
	}

	reportErr := s.report(ctx, outcome)
	s.setState(StateReported)
	if reportErr != nil {
		return process.ExitFailure, reportErr
	}
	return ExitCode(outcome.Status)
}

// Execute spawns the child, drains both streams, and waits for it,
// stopping in StateExited. Errors are local failures: *SpawnError, a
// failed wait, or a failed read on either stream.
func (s *Supervisor) Execute() (Outcome, error) {
	s.setState(StateSpawning)
	child, err := s.config.Spawner.Spawn(s.config.Program, s.config.Args)
	if err != nil {
		return Outcome{}, &SpawnError{Program: s.config.Program, Err: err}
	}

	s.setState(StateRunning)
	if s.config.ForwardSignals {
		stop := forwardSignals(child)
		defer stop()
	}

	var (
		group          sync.WaitGroup
		stdout, stderr streamResult
		status         ExitStatus
		waitErr        error
	)
	group.Add(3)
	go func() {
		defer group.Done()
		stdout = s.drain("stdout", child.Stdout(), s.config.Stdout)
	}()
	go func() {
		defer group.Done()
		stderr = s.drain("stderr", child.Stderr(), s.config.Stderr)
	}()
	go func() {
		defer group.Done()
		status, waitErr = child.Wait()
	}()

	s.setState(StateDraining)
	group.Wait()
	s.setState(StateExited)

	if waitErr != nil {
		waitErr = fmt.Errorf("waiting for '%s': %w", s.config.Program, waitErr)
	}
	if err := errors.Join(waitErr, stdout.err, stderr.err); err != nil {
		return Outcome{}, err
	}

	s.logger.Debug("child exited", "status", status.String())
	return Outcome{
		Status: status,
		Stdout: stdout.snapshot,
		Stderr: stderr.snapshot,
	}, nil
}

type streamResult struct {
	snapshot capture.Snapshot
	err      error
}

// drain runs one pump to completion and releases the read end.
func (s *Supervisor) drain(stream string, source io.Reader, sink io.Writer) streamResult {
	pump := capture.NewPump(source, sink, s.config.Capacity, s.config.LineEnding)
	snapshot, err := pump.Run()
	if closer, ok := source.(io.Closer); ok {
		closer.Close()
	}
	if err != nil {
		return streamResult{err: fmt.Errorf("reading child %s: %w", stream, err)}
	}
	if forwardErr := pump.ForwardErr(); forwardErr != nil {
		s.logger.Warn("stopped forwarding child output",
			"stream", stream,
			"error", forwardErr,
		)
	}
	s.logger.Debug("stream drained",
		"stream", stream,
		"total", humanize.Bytes(snapshot.Total),
		"truncated", snapshot.Truncated,
	)
	return streamResult{snapshot: snapshot}
}

// report submits the failure event and closes the reporter. It does
// nothing for a successful child.
func (s *Supervisor) report(ctx context.Context, outcome Outcome) error {
	if outcome.Status.Success {
		return nil
	}

	s.config.Reporter.Capture(FailureEvent(s.config.Program, s.config.Args, outcome))

	if s.config.ReportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ReportTimeout)
		defer cancel()
	}
	if err := s.config.Reporter.Close(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrReportUndelivered, err)
	}
	return nil
}

// FailureEvent builds the diagnostic event for a failed run. The
// arguments tag is omitted when the program was run without arguments.
func FailureEvent(program string, args []string, outcome Outcome) report.Event {
	tags := map[string]string{report.TagProcess: program}
	if len(args) > 0 {
		tags[report.TagArguments] = strings.Join(args, " ")
	}
	return report.Event{
		Message:  report.FailureMessage(program),
		Severity: report.SeverityFatal,
		Tags:     tags,
		Extra: map[string]string{
			report.ExtraStdout:     outcome.Stdout.Text,
			report.ExtraStderr:     outcome.Stderr.Text,
			report.ExtraExitStatus: outcome.Status.String(),
		},
	}
}

// ExitCode translates a child's exit status into the wrapper's exit
// code: the child's own code when it has one, ExitFailure with a
// *SignalError otherwise.
func ExitCode(status ExitStatus) (int, error) {
	if !status.Exited {
		return process.ExitFailure, &SignalError{Signal: status.Signal}
	}
	return status.Code, nil
}
