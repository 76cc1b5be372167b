// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sentry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"github.com/bureau-foundation/sentry-process/lib/clock"
	"github.com/bureau-foundation/sentry-process/lib/netutil"
	"github.com/bureau-foundation/sentry-process/lib/report"
	"github.com/bureau-foundation/sentry-process/lib/version"
)

// ErrDisabled is returned by New when no DSN is configured.
var ErrDisabled = errors.New("sentry: no DSN configured")

// ErrRateLimited matches an *APIError for a 429 response.
var ErrRateLimited = errors.New("sentry: rate limited")

// APIError is a non-2xx response from the ingestion endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("sentry: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("sentry: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Is reports a 429 response as ErrRateLimited.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// Compression selects how envelope bodies are encoded on the wire.
type Compression string

const (
	CompressionGzip Compression = "gzip"
	CompressionNone Compression = "none"
)

// Spooler stores envelopes that could not be delivered. It returns a
// name identifying the stored copy.
type Spooler interface {
	Store(envelope []byte) (string, error)
}

// Options configures a Client.
type Options struct {
	// DSN is the data source name. Empty means disabled.
	DSN string

	Release     string
	Environment string
	ServerName  string

	// UserAgent identifies the sender in the User-Agent and
	// X-Sentry-Auth headers. Defaults to version.UserAgent().
	UserAgent string

	// Compression defaults to CompressionGzip.
	Compression Compression

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client

	// Clock stamps events and envelopes. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Spool receives envelopes that fail to send at Close. Optional.
	Spool Spooler
}

// Client queues events and delivers them at Close.
type Client struct {
	dsn        *DSN
	options    Options
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
	sdk        SDKInfo

	mu         sync.Mutex
	queue      [][]byte
	captureErr error
	closed     bool
}

// New creates a Client. It returns ErrDisabled when options.DSN is
// empty and a descriptive error when the DSN does not parse.
func New(options Options) (*Client, error) {
	if options.DSN == "" {
		return nil, ErrDisabled
	}
	dsn, err := ParseDSN(options.DSN)
	if err != nil {
		return nil, err
	}

	switch options.Compression {
	case "":
		options.Compression = CompressionGzip
	case CompressionGzip, CompressionNone:
	default:
		return nil, fmt.Errorf("sentry: unknown compression %q", options.Compression)
	}
	if options.UserAgent == "" {
		options.UserAgent = version.UserAgent()
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		dsn:        dsn,
		options:    options,
		httpClient: httpClient,
		clock:      clk,
		logger:     logger,
		sdk:        SDKInfo{Name: version.Name, Version: version.Version},
	}, nil
}

// DSN returns the parsed DSN.
func (c *Client) DSN() *DSN { return c.dsn }

// NewEvent converts a report event into a Sentry event stamped with a
// fresh ID, the current time, and the client's release metadata.
func (c *Client) NewEvent(event report.Event) *Event {
	level := string(event.Severity)
	if level == "" {
		level = string(report.SeverityError)
	}
	return &Event{
		EventID:     NewEventID(),
		Timestamp:   c.clock.Now().UTC(),
		Level:       level,
		Platform:    platformOther,
		Message:     event.Message,
		Tags:        event.Tags,
		Extra:       event.Extra,
		SDK:         c.sdk,
		Release:     c.options.Release,
		Environment: c.options.Environment,
		ServerName:  c.options.ServerName,
	}
}

// Capture encodes event as an envelope and queues it for Close.
// Events captured after Close are dropped.
func (c *Client) Capture(event report.Event) {
	sentryEvent := c.NewEvent(event)
	envelope, err := EncodeEnvelope(sentryEvent, c.dsn, c.clock.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.logger.Warn("dropping event captured after close", "event_id", sentryEvent.EventID)
		return
	}
	if err != nil {
		c.captureErr = errors.Join(c.captureErr, err)
		return
	}
	c.queue = append(c.queue, envelope)
	c.logger.Debug("event queued",
		"event_id", sentryEvent.EventID,
		"size", humanize.Bytes(uint64(len(envelope))),
	)
}

// Close sends every queued envelope. Envelopes that fail are passed to
// the spool when one is configured; the send error is still returned.
// Calls after the first return nil.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	queue := c.queue
	c.queue = nil
	errs := []error{c.captureErr}
	c.mu.Unlock()

	for _, envelope := range queue {
		err := c.SendEnvelope(ctx, envelope)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if c.options.Spool == nil {
			continue
		}
		name, spoolErr := c.options.Spool.Store(envelope)
		if spoolErr != nil {
			errs = append(errs, fmt.Errorf("sentry: spooling undelivered envelope: %w", spoolErr))
			continue
		}
		c.logger.Warn("spooled undelivered envelope", "file", name, "error", err)
	}
	c.httpClient.CloseIdleConnections()
	return errors.Join(errs...)
}

// SendEnvelope POSTs an encoded envelope to the ingestion endpoint.
func (c *Client) SendEnvelope(ctx context.Context, envelope []byte) error {
	body, contentEncoding, err := c.encodeBody(envelope)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.dsn.EnvelopeURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sentry: failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-sentry-envelope")
	request.Header.Set("User-Agent", c.options.UserAgent)
	request.Header.Set("X-Sentry-Auth", c.dsn.AuthHeader(c.options.UserAgent))
	if contentEncoding != "" {
		request.Header.Set("Content-Encoding", contentEncoding)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("sentry: request to %s failed: %w", c.dsn.Host, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &APIError{
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}

	var accepted struct {
		ID string `json:"id"`
	}
	if err := netutil.DecodeResponse(response.Body, &accepted); err != nil {
		c.logger.Debug("unreadable ingestion response", "error", err)
	}
	c.logger.Debug("envelope delivered", "event_id", accepted.ID)
	return nil
}

func (c *Client) encodeBody(envelope []byte) ([]byte, string, error) {
	if c.options.Compression == CompressionNone {
		return envelope, "", nil
	}
	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	if _, err := writer.Write(envelope); err != nil {
		return nil, "", fmt.Errorf("sentry: compressing envelope: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("sentry: compressing envelope: %w", err)
	}
	return buffer.Bytes(), "gzip", nil
}
