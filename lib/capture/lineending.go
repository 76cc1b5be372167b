// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import "fmt"

// Line endings used when re-emitting lines.
const (
	LineFeed = "\n"
	CRLF     = "\r\n"
)

// NativeLineEnding returns the conventional line ending for the given
// GOOS value.
func NativeLineEnding(goos string) string {
	if goos == "windows" {
		return CRLF
	}
	return LineFeed
}

// ResolveLineEnding maps a configured line-ending name ("auto", "lf",
// "crlf") to the byte sequence the pumps emit. "auto" and the empty
// string resolve to the native line ending for goos.
func ResolveLineEnding(name, goos string) (string, error) {
	switch name {
	case "", "auto":
		return NativeLineEnding(goos), nil
	case "lf":
		return LineFeed, nil
	case "crlf":
		return CRLF, nil
	default:
		return "", fmt.Errorf("unknown line ending %q (want auto, lf, or crlf)", name)
	}
}
