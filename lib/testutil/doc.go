// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that a test
// waiting on a pump or a child process fails instead of hanging the
// whole suite.
//
// [WriteScript] materializes a /bin/sh script in the test's temporary
// directory. Supervisor tests use scripts as child programs because
// they control exactly what is written to which stream and how the
// process exits.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
