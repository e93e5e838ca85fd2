// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package hdlc

import (
	"errors"
	"fmt"
)

// Decoder error sentinels. Both are local conditions: the link layer discards
// the frame and keeps polling, surfacing nothing to its caller.
var (
	ErrCRCMismatch   = errors.New("hdlc: CRC mismatch")
	ErrFrameTooLarge = errors.New("hdlc: frame exceeds size limit")
)

// DecoderStats is a snapshot of the decoder's diagnostic counters. Framing
// errors are never reported to callers directly (a bad frame is
// indistinguishable from no frame), so these counters are the only way to
// observe a noisy or desynchronized link.
type DecoderStats struct {
	Frames    uint64 // complete frames that passed the CRC check
	CRCErrors uint64 // candidate frames rejected by the CRC check
	Oversized uint64 // frames aborted for exceeding the size limit
	Discarded uint64 // bytes dropped while searching for a frame boundary
}

// Decoder reassembles frames from a raw byte stream one byte at a time.
//
// The decoder is a two-state machine: searching for an opening flag, or
// receiving and unstuffing frame contents. It tolerates back-to-back flag
// delimiters, resynchronizes on the delimiter that ends a malformed frame,
// and silently discards frames that fail the CRC check or exceed the size
// limit. State persists across calls, so a frame may arrive across any number
// of polls.
type Decoder struct {
	state int
	frame []byte // unstuffed contents accumulated so far
	last  byte   // previous raw byte, distinguishes escapes and doubled flags
	max   int
	stats DecoderStats
}

// NewDecoder creates a decoder with the default MaxFrameSize limit.
func NewDecoder() *Decoder {
	return NewDecoderSize(MaxFrameSize)
}

// NewDecoderSize creates a decoder whose unstuffed frame contents are bounded
// by max bytes (payload plus two CRC bytes).
func NewDecoderSize(max int) *Decoder {
	return &Decoder{
		state: stateSearching,
		frame: make([]byte, 0, max),
		max:   max,
	}
}

// Reset returns the decoder to the searching state, dropping any partially
// accumulated frame.
func (d *Decoder) Reset() {
	d.state = stateSearching
	d.frame = d.frame[:0]
	d.last = 0
}

// Stats returns a snapshot of the diagnostic counters.
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// DecodeByte runs one raw byte through the framing state machine.
//
// It returns the validated payload (CRC stripped) when this byte closed a
// complete, CRC-correct frame. A non-nil error means this byte concluded a
// candidate frame that had to be discarded: ErrCRCMismatch when the checksum
// failed, ErrFrameTooLarge when the accumulator would overflow. (nil, nil)
// means the byte was consumed without completing anything. The returned slice
// aliases the decoder's internal buffer and is valid only until the next call
// to DecodeByte or Reset.
func (d *Decoder) DecodeByte(b byte) ([]byte, error) {
	var (
		payload []byte
		err     error
	)

	switch d.state {
	case stateSearching:
		if b == Flag {
			d.state = stateReceiving
			d.frame = d.frame[:0]
		} else {
			d.stats.Discarded++
		}

	case stateReceiving:
		if b == Flag {
			switch {
			case d.last == Flag:
				// doubled delimiter, repeat the frame start
				d.frame = d.frame[:0]
			case len(d.frame) > crcSize:
				payload, err = d.finish()
			default:
				// too short to carry a payload and CRC, treat this
				// flag as the start of a new frame
				d.frame = d.frame[:0]
			}
		} else if len(d.frame) < d.max {
			if b != Escape {
				if d.last == Escape {
					d.frame = append(d.frame, b^EscapeMask)
				} else {
					d.frame = append(d.frame, b)
				}
			}
		} else {
			d.stats.Oversized++
			d.state = stateSearching
			d.frame = d.frame[:0]
			err = ErrFrameTooLarge
		}
	}

	d.last = b
	return payload, err
}

// finish validates an accumulated candidate frame. The terminating flag is
// treated as the opening flag of the next frame, so the decoder stays in the
// receiving state either way.
func (d *Decoder) finish() ([]byte, error) {
	n := len(d.frame)
	crc := uint16(crcInit)
	for _, b := range d.frame[:n-crcSize] {
		crc = CRCStep(crc, b)
	}
	crc = ^crc

	contents := d.frame
	d.frame = d.frame[:0]

	if byte(crc) != contents[n-2] || byte(crc>>8) != contents[n-1] {
		d.stats.CRCErrors++
		received := uint16(contents[n-2]) | uint16(contents[n-1])<<8
		return nil, fmt.Errorf("%w: computed 0x%04X, received 0x%04X", ErrCRCMismatch, crc, received)
	}
	d.stats.Frames++
	return contents[:n-crcSize], nil
}
