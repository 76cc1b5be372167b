// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture forwards a child process's output stream to the
// parent while retaining a bounded tail of it for diagnostics.
//
// The three pieces compose in a fixed order:
//
//	source ──► Pump ──► sink (forwarded immediately, line by line)
//	             │
//	             └────► Ring (last N bytes) ──► Format ──► Snapshot
//
// [Ring] is a fixed-capacity byte ring. Its memory footprint is set at
// construction and never grows, no matter how much the child writes.
// [Pump] drains one stream until EOF; one pump runs per stream, each
// owning its ring exclusively, so rings need no locking. [Format]
// renders a ring into an immutable [Snapshot], prefixing
// [TruncationNotice] when older bytes were evicted.
//
// The size policy reserves room for the notice: a snapshot's text never
// exceeds the configured maximum number of characters (runes, see
// [CapacityFor]). Its length in bytes can: each ill-formed byte in the
// retained tail becomes U+FFFD, which takes three bytes in UTF-8.
//
// The pump buffers at most [MaxLineChunk] bytes of a line. Longer lines
// are forwarded and retained in pieces as they arrive.
package capture
