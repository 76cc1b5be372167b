// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sentry

import (
	"fmt"
	"net/url"
	"strings"
)

// DSN is a parsed Sentry data source name.
type DSN struct {
	Scheme    string
	PublicKey string
	SecretKey string
	Host      string // host[:port]
	Path      string // prefix before the project ID, no trailing slash
	ProjectID string

	raw string
}

// ParseDSN parses and validates a DSN string.
func ParseDSN(raw string) (*DSN, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("sentry: invalid DSN: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("sentry: invalid DSN scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("sentry: DSN has no host")
	}
	if parsed.User == nil || parsed.User.Username() == "" {
		return nil, fmt.Errorf("sentry: DSN has no public key")
	}

	path := strings.TrimRight(parsed.Path, "/")
	slash := strings.LastIndex(path, "/")
	if slash < 0 {
		return nil, fmt.Errorf("sentry: DSN has no project ID")
	}
	projectID := path[slash+1:]
	if projectID == "" {
		return nil, fmt.Errorf("sentry: DSN has no project ID")
	}

	secret, _ := parsed.User.Password()
	return &DSN{
		Scheme:    parsed.Scheme,
		PublicKey: parsed.User.Username(),
		SecretKey: secret,
		Host:      parsed.Host,
		Path:      path[:slash],
		ProjectID: projectID,
		raw:       raw,
	}, nil
}

// String returns the DSN as it was given to ParseDSN.
func (d *DSN) String() string { return d.raw }

// EnvelopeURL returns the envelope ingestion endpoint for the project.
func (d *DSN) EnvelopeURL() string {
	return fmt.Sprintf("%s://%s%s/api/%s/envelope/", d.Scheme, d.Host, d.Path, d.ProjectID)
}

// AuthHeader returns the X-Sentry-Auth header value. client identifies
// the sender, e.g. "sentry-process@1.0.0".
func (d *DSN) AuthHeader(client string) string {
	var builder strings.Builder
	builder.WriteString("Sentry sentry_version=7")
	builder.WriteString(", sentry_client=" + client)
	builder.WriteString(", sentry_key=" + d.PublicKey)
	if d.SecretKey != "" {
		builder.WriteString(", sentry_secret=" + d.SecretKey)
	}
	return builder.String()
}
