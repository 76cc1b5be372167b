// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sentry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// envelopeHeader is the first line of an envelope.
type envelopeHeader struct {
	EventID string    `json:"event_id"`
	SentAt  time.Time `json:"sent_at"`
	DSN     string    `json:"dsn"`
	SDK     SDKInfo   `json:"sdk"`
}

// itemHeader precedes each item payload. Length is the payload size in
// bytes, excluding the trailing newline.
type itemHeader struct {
	Type   string `json:"type"`
	Length int    `json:"length"`
}

// EncodeEnvelope serializes event as a single-item envelope:
//
//	{"event_id":...,"sent_at":...,"dsn":...,"sdk":...}\n
//	{"type":"event","length":N}\n
//	<N bytes of event JSON>\n
func EncodeEnvelope(event *Event, dsn *DSN, sentAt time.Time) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("sentry: encoding event: %w", err)
	}

	header, err := json.Marshal(envelopeHeader{
		EventID: event.EventID,
		SentAt:  sentAt.UTC(),
		DSN:     dsn.String(),
		SDK:     event.SDK,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry: encoding envelope header: %w", err)
	}

	item, err := json.Marshal(itemHeader{Type: "event", Length: len(payload)})
	if err != nil {
		return nil, fmt.Errorf("sentry: encoding item header: %w", err)
	}

	var buffer bytes.Buffer
	buffer.Grow(len(header) + len(item) + len(payload) + 3)
	buffer.Write(header)
	buffer.WriteByte('\n')
	buffer.Write(item)
	buffer.WriteByte('\n')
	buffer.Write(payload)
	buffer.WriteByte('\n')
	return buffer.Bytes(), nil
}
