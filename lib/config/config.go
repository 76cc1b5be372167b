// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sentry-process/lib/capture"
)

// Environment variables consulted by Load.
const (
	EnvConfig      = "SENTRY_PROCESS_CONFIG"
	EnvDSN         = "SENTRY_DSN"
	EnvEnvironment = "SENTRY_ENVIRONMENT"
	EnvRelease     = "SENTRY_RELEASE"
)

// Config is the complete wrapper configuration.
type Config struct {
	// DSN is the Sentry data source name. Required to run a program.
	DSN string `yaml:"dsn" json:"dsn"`

	// Environment, Release, and ServerName are attached to every event.
	Environment string `yaml:"environment" json:"environment"`
	Release     string `yaml:"release" json:"release"`
	ServerName  string `yaml:"server_name" json:"server_name"`

	// MaxCaptureChars bounds each captured stream in the event, in
	// characters (runes), including the truncation notice. The byte
	// length can be larger since ill-formed bytes become U+FFFD.
	// Default: 16365
	MaxCaptureChars int `yaml:"max_capture_chars" json:"max_capture_chars"`

	// LineEnding is appended to every forwarded line: auto, lf, or crlf.
	// Default: auto
	LineEnding string `yaml:"line_ending" json:"line_ending"`

	// ShutdownTimeout bounds event delivery after the child exits.
	// Default: 10s
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Compression is the envelope body encoding: gzip or none.
	// Default: gzip
	Compression string `yaml:"compression" json:"compression"`

	// LogLevel is the wrapper's own diagnostic level.
	// Default: warn
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Spool configures the dead-letter spool. Disabled when
	// Spool.Directory is empty.
	Spool SpoolConfig `yaml:"spool" json:"spool"`
}

// SpoolConfig configures the dead-letter spool.
type SpoolConfig struct {
	// Directory holds undelivered envelopes.
	Directory string `yaml:"directory" json:"directory"`

	// Recipient is an age public key; when set, spooled envelopes are
	// encrypted to it.
	Recipient string `yaml:"recipient" json:"recipient"`

	// IdentityFile is the age identity used by --send-spooled to
	// decrypt envelopes.
	IdentityFile string `yaml:"identity_file" json:"identity_file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MaxCaptureChars: capture.DefaultMaxChars,
		LineEnding:      "auto",
		ShutdownTimeout: "10s",
		Compression:     "gzip",
		LogLevel:        "warn",
	}
}

// Load builds the configuration. path names the config file; when
// empty, the file named by SENTRY_PROCESS_CONFIG is used, and when that
// is unset too only defaults and environment variables apply. getenv
// is normally os.Getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvironment(getenv)
	cfg.expandVariables(getenv)
	return cfg, nil
}

// loadFile merges a configuration file into c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), c)
	default:
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnvironment overrides file values with the SENTRY_* variables.
func (c *Config) applyEnvironment(getenv func(string) string) {
	if value := getenv(EnvDSN); value != "" {
		c.DSN = value
	}
	if value := getenv(EnvEnvironment); value != "" {
		c.Environment = value
	}
	if value := getenv(EnvRelease); value != "" {
		c.Release = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables(getenv func(string) string) {
	c.Spool.Directory = expandVars(c.Spool.Directory, getenv)
	c.Spool.IdentityFile = expandVars(c.Spool.IdentityFile, getenv)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, getenv func(string) string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Capacity returns the per-stream ring capacity derived from
// MaxCaptureChars.
func (c *Config) Capacity() (int, error) {
	return capture.CapacityFor(c.MaxCaptureChars)
}

// LineEndingFor resolves LineEnding for the given GOOS.
func (c *Config) LineEndingFor(goos string) (string, error) {
	return capture.ResolveLineEnding(c.LineEnding, goos)
}

// Timeout parses ShutdownTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("shutdown_timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return timeout, nil
}

// Level parses LogLevel (debug, info, warn, error).
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Validate checks every field that has a fixed format. A missing DSN is
// not a validation error; the caller decides what running without one
// means.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Capacity(); err != nil {
		errs = append(errs, fmt.Errorf("max_capture_chars: %w", err))
	}
	if _, err := c.LineEndingFor(""); err != nil {
		errs = append(errs, fmt.Errorf("line_ending: %w", err))
	}
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Compression != "gzip" && c.Compression != "none" {
		errs = append(errs, fmt.Errorf("compression must be gzip or none, got %q", c.Compression))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Spool.Directory == "" && (c.Spool.Recipient != "" || c.Spool.IdentityFile != "") {
		errs = append(errs, errors.New("spool.directory is required when spool.recipient or spool.identity_file is set"))
	}

	return errors.Join(errs...)
}
