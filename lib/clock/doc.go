// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// Code that stamps times onto outgoing data (event timestamps, envelope
// sent_at headers, spool records) accepts a Clock instead of calling
// time.Now directly. In production, Real() provides the standard
// library behavior. In tests, Fake() returns a clock that stands still
// until advanced, so encoded payloads are byte-for-byte predictable.
package clock
