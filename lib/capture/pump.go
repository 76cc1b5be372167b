// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// flusher is implemented by sinks that buffer writes (bufio.Writer and
// friends). The pump flushes after every line so forwarded output shows
// up with no added latency.
type flusher interface {
	Flush() error
}

// MaxLineChunk bounds how much of a single line the pump buffers. A
// longer line is forwarded and captured in pieces of this size, without
// a line ending, as it arrives.
const MaxLineChunk = 64 * 1024

// Pump drains one output stream of a child process. Every line is
// written to the sink as soon as it is complete and then ingested into
// the pump's own Ring.
type Pump struct {
	source     *bufio.Reader
	sink       io.Writer
	ring       *Ring
	lineEnding []byte

	// pendingCR is set when a partial chunk ended in '\r' that was held
	// back in case the next byte is '\n'.
	pendingCR bool

	// forwardErr is the first sink failure. After it is set the pump
	// stops forwarding but keeps draining the source, so the child
	// never stalls on a full pipe because the parent's stream went
	// away.
	forwardErr error
}

// NewPump creates a Pump reading from source and forwarding to sink.
// The pump retains at most capacity bytes; lines are re-emitted with
// lineEnding in place of their original terminator.
func NewPump(source io.Reader, sink io.Writer, capacity int, lineEnding string) *Pump {
	if sink == nil {
		sink = io.Discard
	}
	return &Pump{
		source:     bufio.NewReaderSize(source, MaxLineChunk),
		sink:       sink,
		ring:       NewRing(capacity),
		lineEnding: []byte(lineEnding),
	}
}

// Run drains the source until EOF and returns the snapshot of the
// retained tail. A read error ends the pump and is returned; there is
// no partial-capture recovery.
func (p *Pump) Run() (Snapshot, error) {
	for {
		chunk, readErr := p.source.ReadSlice('\n')
		if errors.Is(readErr, bufio.ErrBufferFull) {
			p.emit(p.partial(chunk))
			continue
		}
		if len(chunk) > 0 || p.pendingCR {
			p.emit(p.normalize(chunk))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return Format(p.ring), nil
			}
			return Snapshot{}, fmt.Errorf("reading line: %w", readErr)
		}
	}
}

// ForwardErr returns the first error returned by the sink, or nil.
func (p *Pump) ForwardErr() error { return p.forwardErr }

func (p *Pump) emit(data []byte) {
	if len(data) == 0 {
		return
	}
	p.forward(data)
	p.ring.Ingest(data)
}

// partial copies the middle piece of an overlong line. A trailing '\r'
// is held back so a "\r\n" split across chunks is still normalized.
func (p *Pump) partial(chunk []byte) []byte {
	data := p.takePending(len(chunk))
	data = append(data, chunk...)
	if trimmed, found := bytes.CutSuffix(data, []byte{'\r'}); found {
		p.pendingCR = true
		return trimmed
	}
	return data
}

// normalize copies a complete line, replacing its terminator ("\n" or
// "\r\n") with the configured line ending. A final line without a
// terminator gets one too. chunk aliases the reader's buffer and is
// never modified.
func (p *Pump) normalize(chunk []byte) []byte {
	line := p.takePending(len(chunk) + len(p.lineEnding))
	line = append(line, chunk...)
	if trimmed, found := bytes.CutSuffix(line, []byte{'\n'}); found {
		line, _ = bytes.CutSuffix(trimmed, []byte{'\r'})
	}
	return append(line, p.lineEnding...)
}

// takePending returns a fresh buffer holding the held-back '\r', if
// any, with room for size more bytes.
func (p *Pump) takePending(size int) []byte {
	buffer := make([]byte, 0, size+1)
	if p.pendingCR {
		buffer = append(buffer, '\r')
		p.pendingCR = false
	}
	return buffer
}

func (p *Pump) forward(data []byte) {
	if p.forwardErr != nil {
		return
	}
	if _, err := p.sink.Write(data); err != nil {
		p.forwardErr = fmt.Errorf("forwarding line: %w", err)
		return
	}
	if f, ok := p.sink.(flusher); ok {
		if err := f.Flush(); err != nil {
			p.forwardErr = fmt.Errorf("flushing sink: %w", err)
		}
	}
}
