// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCapacityFor(t *testing.T) {
	capacity, err := CapacityFor(DefaultMaxChars)
	if err != nil {
		t.Fatalf("CapacityFor(%d): %v", DefaultMaxChars, err)
	}
	if want := DefaultMaxChars - len(TruncationNotice); capacity != want {
		t.Errorf("CapacityFor(%d) = %d, want %d", DefaultMaxChars, capacity, want)
	}

	if _, err := CapacityFor(len(TruncationNotice)); err == nil {
		t.Error("CapacityFor(len(notice)) should fail")
	}
	if _, err := CapacityFor(0); err == nil {
		t.Error("CapacityFor(0) should fail")
	}
}

func TestFormatWithoutEviction(t *testing.T) {
	ring := NewRing(64)
	ring.Ingest([]byte("line one\n"))
	ring.Ingest([]byte("line two\n"))

	snapshot := Format(ring)
	if snapshot.Text != "line one\nline two\n" {
		t.Errorf("Text = %q", snapshot.Text)
	}
	if snapshot.Truncated {
		t.Error("Truncated = true without eviction")
	}
	if snapshot.Total != 18 {
		t.Errorf("Total = %d, want 18", snapshot.Total)
	}
}

func TestFormatEmptyRing(t *testing.T) {
	snapshot := Format(NewRing(10))
	if snapshot.Text != "" || snapshot.Truncated || snapshot.Total != 0 {
		t.Fatalf("Format(empty) = %+v, want zero snapshot", snapshot)
	}
}

func TestFormatWithEviction(t *testing.T) {
	ring := NewRing(6)
	ring.Ingest([]byte("abc\ndef\nghi\n"))

	snapshot := Format(ring)
	want := TruncationNotice + "f\nghi\n"
	if snapshot.Text != want {
		t.Errorf("Text = %q, want %q", snapshot.Text, want)
	}
	if !snapshot.Truncated {
		t.Error("Truncated = false after eviction")
	}
}

func TestFormatNeverExceedsMaximum(t *testing.T) {
	const maxChars = 200
	capacity, err := CapacityFor(maxChars)
	if err != nil {
		t.Fatalf("CapacityFor: %v", err)
	}
	ring := NewRing(capacity)
	for i := 0; i < 1000; i++ {
		ring.Ingest([]byte("x\n"))
	}
	snapshot := Format(ring)
	if len(snapshot.Text) != maxChars {
		t.Errorf("len(Text) = %d, want %d", len(snapshot.Text), maxChars)
	}
}

func TestFormatMaximumCountsRunes(t *testing.T) {
	const maxChars = 200
	capacity, err := CapacityFor(maxChars)
	if err != nil {
		t.Fatalf("CapacityFor: %v", err)
	}
	ring := NewRing(capacity)
	for i := 0; i < 1000; i++ {
		ring.Ingest([]byte{0xff})
	}
	snapshot := Format(ring)
	if !snapshot.Truncated {
		t.Fatal("Truncated = false after overfilling the ring")
	}
	if got := utf8.RuneCountInString(snapshot.Text); got != maxChars {
		t.Errorf("rune count = %d, want %d", got, maxChars)
	}
	// Every retained byte became a three-byte U+FFFD.
	if want := len(TruncationNotice) + 3*capacity; len(snapshot.Text) != want {
		t.Errorf("len(Text) = %d, want %d", len(snapshot.Text), want)
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	ring := NewRing(5)
	ring.Ingest([]byte("0123456789"))
	first := Format(ring)
	second := Format(ring)
	if first != second {
		t.Fatalf("Format not idempotent: %+v vs %+v", first, second)
	}
}

func TestFormatReplacesMalformedUTF8(t *testing.T) {
	ring := NewRing(32)
	ring.Ingest([]byte("ok \xff\xfe end\n"))

	snapshot := Format(ring)
	if !utf8.ValidString(snapshot.Text) {
		t.Fatalf("Text is not valid UTF-8: %q", snapshot.Text)
	}
	if want := "ok �� end\n"; snapshot.Text != want {
		t.Errorf("Text = %q, want %q", snapshot.Text, want)
	}
}

func TestFormatSplitMultibyteAtRingStart(t *testing.T) {
	// "é" is two bytes; a 4-byte ring over "aé\n" followed by "b" keeps
	// only the second byte of "é".
	ring := NewRing(4)
	ring.Ingest([]byte("aé\n"))
	ring.Ingest([]byte("bc"))

	snapshot := Format(ring)
	if !strings.HasPrefix(snapshot.Text, TruncationNotice+"�") {
		t.Errorf("Text = %q, want notice followed by replacement character", snapshot.Text)
	}
	if !strings.HasSuffix(snapshot.Text, "\nbc") {
		t.Errorf("Text = %q, want suffix %q", snapshot.Text, "\nbc")
	}
}

func TestResolveLineEnding(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		want    string
		wantErr bool
	}{
		{name: "", goos: "linux", want: "\n"},
		{name: "auto", goos: "linux", want: "\n"},
		{name: "auto", goos: "windows", want: "\r\n"},
		{name: "lf", goos: "windows", want: "\n"},
		{name: "crlf", goos: "darwin", want: "\r\n"},
		{name: "cr", goos: "linux", wantErr: true},
	}
	for _, test := range tests {
		got, err := ResolveLineEnding(test.name, test.goos)
		if test.wantErr {
			if err == nil {
				t.Errorf("ResolveLineEnding(%q, %q): expected error", test.name, test.goos)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveLineEnding(%q, %q): %v", test.name, test.goos, err)
			continue
		}
		if got != test.want {
			t.Errorf("ResolveLineEnding(%q, %q) = %q, want %q", test.name, test.goos, got, test.want)
		}
	}
}
