// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sentry

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// platformOther is the platform value for events that do not come from
// one of Sentry's language SDKs.
const platformOther = "other"

// Event is the JSON payload of an event envelope item.
type Event struct {
	EventID     string            `json:"event_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Level       string            `json:"level"`
	Platform    string            `json:"platform"`
	Message     string            `json:"message"`
	Tags        map[string]string `json:"tags,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
	SDK         SDKInfo           `json:"sdk"`
	Release     string            `json:"release,omitempty"`
	Environment string            `json:"environment,omitempty"`
	ServerName  string            `json:"server_name,omitempty"`
}

// SDKInfo identifies the sender of an event.
type SDKInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NewEventID returns a random event ID: a version 4 UUID as 32
// lowercase hex characters without dashes.
func NewEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
