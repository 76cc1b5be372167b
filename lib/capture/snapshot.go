// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// TruncationNotice is prefixed to a snapshot whose ring evicted data.
const TruncationNotice = "[previous content removed because of size limits]\n"

// DefaultMaxChars is the default upper bound on a snapshot's text
// length in runes, chosen to fit a single diagnostic event extra.
const DefaultMaxChars = 16_365

// CapacityFor returns the ring capacity for a maximum snapshot size of
// maxChars runes: the notice is reserved out of the budget so that a
// full ring plus the notice never exceeds maxChars runes. Every retained
// byte renders as at most one rune.
func CapacityFor(maxChars int) (int, error) {
	capacity := maxChars - len(TruncationNotice)
	if capacity <= 0 {
		return 0, fmt.Errorf("maximum capture size %d leaves no room after the %d-byte truncation notice",
			maxChars, len(TruncationNotice))
	}
	return capacity, nil
}

// Snapshot is the final rendering of one stream's retained tail.
type Snapshot struct {
	// Text is the retained output, decoded as UTF-8 with every
	// ill-formed byte replaced by U+FFFD, and prefixed with
	// TruncationNotice when Truncated is set.
	Text string

	// Truncated reports that older output was evicted.
	Truncated bool

	// Total is the number of bytes the stream produced, including the
	// evicted ones.
	Total uint64
}

// Format renders the ring's current contents into a Snapshot. It does
// not modify the ring.
func Format(ring *Ring) Snapshot {
	text := decodeLossy(ring.Bytes())
	truncated := ring.Evicted()
	if truncated {
		text = TruncationNotice + text
	}
	return Snapshot{
		Text:      text,
		Truncated: truncated,
		Total:     ring.Total(),
	}
}

// decodeLossy converts untrusted bytes to a valid UTF-8 string. A ring
// may start in the middle of a multi-byte sequence; those leading bytes
// become replacement characters like any other malformed input.
func decodeLossy(data []byte) string {
	decoded, _, err := transform.Bytes(runes.ReplaceIllFormed(), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(decoded)
}
