// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sentry-process/lib/config"
	"github.com/bureau-foundation/sentry-process/lib/logging"
	"github.com/bureau-foundation/sentry-process/lib/process"
	"github.com/bureau-foundation/sentry-process/lib/report"
	"github.com/bureau-foundation/sentry-process/lib/sentry"
	"github.com/bureau-foundation/sentry-process/lib/spool"
	"github.com/bureau-foundation/sentry-process/lib/supervisor"
	"github.com/bureau-foundation/sentry-process/lib/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

var (
	errNoProgram = errors.New("you must specify at least one argument (the program to run)")
	errNoDSN     = errors.New("environment variable 'SENTRY_DSN' must be set in order for sentry-process to work")
)

// cliOptions is the parsed command line.
type cliOptions struct {
	configPath  string
	sendSpooled bool
	showVersion bool
	showHelp    bool
	usage       string
	command     []string
}

// parseArgs parses wrapper flags up to the program name:
//
//	sentry-process [--config FILE] [--send-spooled] [--version] [--] <command> [args...]
//
// Parsing stops at the first non-flag argument, so flags meant for the
// child are never consumed. A "--" separator is consumed and not passed
// to the child.
func parseArgs(args []string) (cliOptions, error) {
	var options cliOptions

	flagSet := pflag.NewFlagSet(version.Name, pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&options.configPath, "config", "", "configuration file (default: $"+config.EnvConfig+")")
	flagSet.BoolVar(&options.sendSpooled, "send-spooled", false, "deliver envelopes left in the spool directory and exit")
	flagSet.BoolVar(&options.showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return cliOptions{showHelp: true, usage: flagSet.FlagUsages()}, nil
		}
		return cliOptions{}, err
	}
	options.command = flagSet.Args()

	if options.sendSpooled && len(options.command) > 0 {
		return cliOptions{}, fmt.Errorf("--send-spooled does not run a program (got %q)", options.command[0])
	}
	return options, nil
}

// run executes the wrapper and returns its exit code.
func run(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	options, err := parseArgs(args)
	if err != nil {
		process.Report(stderr, version.Name, err)
		return process.ExitFailure
	}
	if options.showHelp {
		fmt.Fprintf(stdout, "usage: %s [flags] [--] <program> [args...]\n\n%s", version.Name, options.usage)
		return process.ExitSuccess
	}
	if options.showVersion {
		fmt.Fprintln(stdout, version.Full())
		return process.ExitSuccess
	}
	if !options.sendSpooled && len(options.command) == 0 {
		process.Report(stderr, version.Name, errNoProgram)
		return process.ExitCommandNotFound
	}

	cfg, err := config.Load(options.configPath, getenv)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		process.Report(stderr, version.Name, err)
		return process.ExitFailure
	}
	level, _ := cfg.Level()
	logger := logging.New(level)

	if cfg.DSN == "" {
		process.Report(stderr, version.Name, errNoDSN)
		return process.ExitFailure
	}

	var deadLetters *spool.Spool
	if cfg.Spool.Directory != "" {
		deadLetters, err = spool.Open(spool.Options{
			Directory:    cfg.Spool.Directory,
			Recipient:    cfg.Spool.Recipient,
			IdentityFile: cfg.Spool.IdentityFile,
			Logger:       logger,
		})
		if err != nil {
			process.Report(stderr, version.Name, err)
			return process.ExitFailure
		}
	}

	client, err := newClient(cfg, deadLetters, logger)
	if err != nil {
		process.Report(stderr, version.Name, fmt.Errorf("cannot enable Sentry integration: %w", err))
		return process.ExitFailure
	}
	timeout, _ := cfg.Timeout()
	defer closeReporter(client, timeout, logger)

	if options.sendSpooled {
		return sendSpooled(deadLetters, client, timeout, logger, stderr)
	}

	survivePipeErrors()

	capacity, _ := cfg.Capacity()
	lineEnding, _ := cfg.LineEndingFor(runtime.GOOS)
	runner, err := supervisor.New(supervisor.Config{
		Program:        options.command[0],
		Args:           options.command[1:],
		Capacity:       capacity,
		LineEnding:     lineEnding,
		Stdout:         stdout,
		Stderr:         stderr,
		Spawner:        supervisor.ExecSpawner{Stdin: os.Stdin},
		Reporter:       client,
		ReportTimeout:  timeout,
		ForwardSignals: true,
		Logger:         logger,
	})
	if err != nil {
		process.Report(stderr, version.Name, err)
		return process.ExitFailure
	}

	code, err := runner.Run(context.Background())
	if err != nil {
		process.Report(stderr, version.Name, err)
	}
	return code
}

// survivePipeErrors keeps a closed stdout or stderr from killing the
// wrapper with SIGPIPE. Writes to the broken stream fail with EPIPE
// instead and the pumps keep draining the child. The signal is caught,
// not ignored, so the child does not inherit SIG_IGN across exec.
func survivePipeErrors() {
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)
}

// closeReporter releases the reporter on exit paths that never reach the
// supervisor's own Close. A second Close is a no-op.
func closeReporter(reporter report.Reporter, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := reporter.Close(ctx); err != nil {
		logger.Warn("closing reporter", "error", err)
	}
}

// newClient builds the Sentry client. server_name defaults to the host
// name, matching the official SDKs.
func newClient(cfg *config.Config, deadLetters *spool.Spool, logger *slog.Logger) (*sentry.Client, error) {
	serverName := cfg.ServerName
	if serverName == "" {
		serverName, _ = os.Hostname()
	}
	options := sentry.Options{
		DSN:         cfg.DSN,
		Release:     cfg.Release,
		Environment: cfg.Environment,
		ServerName:  serverName,
		Compression: sentry.Compression(cfg.Compression),
		Logger:      logger,
	}
	if deadLetters != nil {
		options.Spool = deadLetters
	}
	return sentry.New(options)
}

// sendSpooled delivers every spooled envelope, stopping at the first
// failure.
func sendSpooled(deadLetters *spool.Spool, client *sentry.Client, timeout time.Duration, logger *slog.Logger, stderr io.Writer) int {
	if deadLetters == nil {
		process.Report(stderr, version.Name, errors.New("--send-spooled requires spool.directory to be configured"))
		return process.ExitFailure
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	delivered, err := deadLetters.Drain(ctx, client.SendEnvelope)
	logger.Info("spool drained", "directory", deadLetters.Directory(), "delivered", delivered)
	if err != nil {
		process.Report(stderr, version.Name, err)
		return process.ExitFailure
	}
	return process.ExitSuccess
}
