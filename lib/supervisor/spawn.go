// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Child is a started child process.
type Child interface {
	// Stdout and Stderr return the read ends of the child's output
	// pipes. They reach EOF once every writer (the child and anything
	// that inherited its descriptors) has exited.
	Stdout() io.Reader
	Stderr() io.Reader

	// Wait blocks until the child terminates. It returns an error only
	// when the status could not be obtained; a failing child is a
	// status, not an error.
	Wait() (ExitStatus, error)

	// Signal delivers sig to the child.
	Signal(sig os.Signal) error
}

// Spawner starts child programs.
type Spawner interface {
	Spawn(program string, args []string) (Child, error)
}

// ExecSpawner starts children with os/exec. The child inherits Stdin
// (os.Stdin when nil) and writes to two fresh pipes.
type ExecSpawner struct {
	Stdin *os.File
}

// Spawn starts program with args.
//
// The pipes are created with os.Pipe instead of Cmd.StdoutPipe:
// Cmd.Wait closes the pipes it creates, which would race with the
// pumps still draining them. Owning the read ends lets Wait run
// concurrently with draining.
func (s ExecSpawner) Spawn(program string, args []string) (Child, error) {
	stdoutRead, stdoutWrite, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrRead, stderrWrite, err := os.Pipe()
	if err != nil {
		stdoutRead.Close()
		stdoutWrite.Close()
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	stdin := s.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	command := exec.Command(program, args...)
	command.Stdin = stdin
	command.Stdout = stdoutWrite
	command.Stderr = stderrWrite

	startErr := command.Start()

	// The child holds its own copies of the write ends. Closing ours
	// is what lets the pumps see EOF when the child exits.
	stdoutWrite.Close()
	stderrWrite.Close()

	if startErr != nil {
		stdoutRead.Close()
		stderrRead.Close()
		return nil, startErr
	}

	return &execChild{
		command: command,
		stdout:  stdoutRead,
		stderr:  stderrRead,
	}, nil
}

type execChild struct {
	command *exec.Cmd
	stdout  *os.File
	stderr  *os.File
}

func (c *execChild) Stdout() io.Reader { return c.stdout }

func (c *execChild) Stderr() io.Reader { return c.stderr }

func (c *execChild) Wait() (ExitStatus, error) {
	if err := c.command.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return ExitStatus{}, err
		}
	}
	return statusFromProcessState(c.command.ProcessState), nil
}

func (c *execChild) Signal(sig os.Signal) error {
	return c.command.Process.Signal(sig)
}
