// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import "fmt"

// Ring is a fixed-capacity byte ring that retains the most recently
// ingested bytes. When ingesting would exceed the capacity, the oldest
// bytes are overwritten.
//
// A Ring has exactly one writer (the pump that owns it) and is read
// only after that writer has stopped, so it is not safe for concurrent
// use and does not need to be.
type Ring struct {
	data []byte

	// next is the index the next ingested byte is written to. Once the
	// ring has wrapped, it is also the index of the oldest byte.
	next int

	// total counts every byte ever passed to Ingest. It is never
	// clamped to the capacity: total > capacity is exactly the
	// condition "something was evicted".
	total uint64
}

// NewRing creates a Ring holding at most capacity bytes. The capacity
// must be positive.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic(fmt.Sprintf("capture: ring capacity must be positive, got %d", capacity))
	}
	return &Ring{data: make([]byte, capacity)}
}

// Ingest appends p, evicting the oldest bytes first when the retained
// length would exceed the capacity. It never fails.
func (r *Ring) Ingest(p []byte) {
	if len(p) == 0 {
		return
	}
	r.total += uint64(len(p))

	capacity := len(r.data)
	if len(p) >= capacity {
		// Only the tail of p survives; it fills the ring exactly.
		copy(r.data, p[len(p)-capacity:])
		r.next = 0
		return
	}

	written := copy(r.data[r.next:], p)
	if written < len(p) {
		copy(r.data, p[written:])
	}
	r.next = (r.next + len(p)) % capacity
}

// Bytes returns a copy of the retained bytes, oldest first. It does not
// modify the ring.
func (r *Ring) Bytes() []byte {
	if !r.wrapped() {
		out := make([]byte, r.next)
		copy(out, r.data[:r.next])
		return out
	}
	out := make([]byte, 0, len(r.data))
	out = append(out, r.data[r.next:]...)
	out = append(out, r.data[:r.next]...)
	return out
}

// Len returns the number of bytes currently retained.
func (r *Ring) Len() int {
	if r.wrapped() {
		return len(r.data)
	}
	return r.next
}

// Capacity returns the maximum number of bytes the ring retains.
func (r *Ring) Capacity() int { return len(r.data) }

// Total returns the number of bytes ever ingested, including evicted
// ones.
func (r *Ring) Total() uint64 { return r.total }

// Evicted reports whether any ingested byte has been overwritten.
func (r *Ring) Evicted() bool { return r.total > uint64(len(r.data)) }

// wrapped reports whether the ring is full, in which case next marks
// the oldest byte rather than the end of the data.
func (r *Ring) wrapped() bool { return r.total >= uint64(len(r.data)) }
