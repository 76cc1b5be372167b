// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package spool keeps envelopes that could not be delivered to the
// error-tracking service so they can be sent later.
//
// Each envelope is stored in its own file. The on-disk pipeline is:
//
//	Record (CBOR, lib/codec) -> LZ4 frame -> age encryption (optional)
//
// Files are named by the hex BLAKE3 keyed hash of the encoded record
// plus ".spool", and are written to a temporary name and renamed into
// place so a crash never leaves a partial record under a real name.
//
// Encryption is enabled by configuring an age recipient. Draining an
// encrypted spool requires the matching identity file; plain records
// drain without one.
package spool
