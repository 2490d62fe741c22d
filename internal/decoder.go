package internal

import (
	"bytes"
	"errors"
	"io"
)

const decoderChunkSize = 4096

// EventDecoder turns a newline-delimited JSON byte stream into StreamEvents.
// Records split across reads are reassembled; a trailing record without a
// newline when the stream ends is dropped.
type EventDecoder struct {
	r        io.Reader
	residual []byte
	lines    [][]byte
	chunk    []byte
	done     bool
	err      error
}

// NewEventDecoder creates a decoder reading from r
func NewEventDecoder(r io.Reader) *EventDecoder {
	return &EventDecoder{
		r:     r,
		chunk: make([]byte, decoderChunkSize),
	}
}

// Next returns the next decoded event. It returns io.EOF once the stream is
// exhausted, or a *TransportError if the underlying read failed.
func (d *EventDecoder) Next() (StreamEvent, error) {
	for {
		for len(d.lines) > 0 {
			line := d.lines[0]
			d.lines = d.lines[1:]

			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}

			ev, err := ParseStreamEvent(line)
			if err != nil {
				LogDebug("%v", &DecodeError{Line: string(line), Err: err})
				continue
			}
			return ev, nil
		}

		if d.done {
			return nil, d.err
		}
		d.fill()
	}
}

// fill performs one read and splits everything complete into lines
func (d *EventDecoder) fill() {
	n, err := d.r.Read(d.chunk)
	if n > 0 {
		d.residual = append(d.residual, d.chunk[:n]...)
		parts := bytes.Split(d.residual, []byte("\n"))
		last := len(parts) - 1
		for _, part := range parts[:last] {
			d.lines = append(d.lines, append([]byte(nil), part...))
		}
		d.residual = append([]byte(nil), parts[last]...)
	}

	if err == nil {
		return
	}
	d.done = true
	if errors.Is(err, io.EOF) {
		if len(bytes.TrimSpace(d.residual)) > 0 {
			LogDebug("discarding %d bytes of unterminated stream data", len(d.residual))
		}
		d.err = io.EOF
	} else {
		d.err = &TransportError{Op: "read", Err: err}
	}
	d.residual = nil
}

// DecodeAll reads r to the end and returns every decoded event
func DecodeAll(r io.Reader) ([]StreamEvent, error) {
	dec := NewEventDecoder(r)
	var events []StreamEvent
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
