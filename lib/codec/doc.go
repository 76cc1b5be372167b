// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared CBOR encoding configuration for
// on-disk records.
//
// JSON is used for everything that leaves the machine (events and
// envelopes sent to the error-tracking service). CBOR is used for data
// the wrapper writes for itself, currently the dead-letter spool. The
// encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes, which the spool relies
// on to derive content-addressed file names.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that are only ever stored as CBOR carry `cbor` struct tags.
package codec
