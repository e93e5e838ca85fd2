// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package hdlc

import (
	"bytes"
	"errors"
	"testing"
)

// feed runs a byte stream through a decoder and collects every completed
// payload (copied, since DecodeByte returns views into the decoder buffer).
func feed(d *Decoder, stream []byte) [][]byte {
	var frames [][]byte
	for _, b := range stream {
		if p, _ := d.DecodeByte(b); p != nil {
			frames = append(frames, append([]byte(nil), p...))
		}
	}
	return frames
}

// ============================================================
// Round-Trip Tests
// ============================================================

func TestDecoder_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"single byte", []byte{0x42}},
		{"plain payload", []byte{0x01, 0x02, 0x03, 0x04, 0x05}},
		{"reserved bytes", []byte{0x01, 0x7E, 0x7D, 0x02}},
		{"only flag bytes", []byte{0x7E, 0x7E, 0x7E}},
		{"only escape bytes", []byte{0x7D, 0x7D}},
		{"zero bytes", make([]byte, 32)},
		{"max payload", bytes.Repeat([]byte{0xA5}, MaxPayloadSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := feed(NewDecoder(), EncodeFrame(tt.payload))
			if len(frames) != 1 {
				t.Fatalf("expected 1 frame, got %d", len(frames))
			}
			if !bytes.Equal(frames[0], tt.payload) {
				t.Errorf("payload mismatch:\n  sent % 02X\n  got  % 02X", tt.payload, frames[0])
			}
		})
	}
}

// ============================================================
// Corruption Tests
// ============================================================

func TestDecoder_RejectsSingleBitErrors(t *testing.T) {
	// Flipping any single bit between the delimiters must make the frame
	// vanish, not surface corrupted data.
	wire := EncodeFrame([]byte{0x01, 0x7E, 0x7D, 0x02})

	for pos := 1; pos < len(wire)-1; pos++ {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), wire...)
			mutated[pos] ^= 1 << bit

			if frames := feed(NewDecoder(), mutated); len(frames) != 0 {
				t.Errorf("bit %d at offset %d: decoder returned % 02X", bit, pos, frames[0])
			}
		}
	}
}

func TestDecoder_CRCMismatchError(t *testing.T) {
	wire := EncodeFrame([]byte{0x01, 0x02, 0x03})
	wire[1] ^= 0x01 // corrupt the first payload byte

	d := NewDecoder()
	var lastErr error
	for _, b := range wire {
		if _, err := d.DecodeByte(b); err != nil {
			lastErr = err
		}
	}

	if !errors.Is(lastErr, ErrCRCMismatch) {
		t.Errorf("expected ErrCRCMismatch, got %v", lastErr)
	}
}

func TestDecoder_Resynchronization(t *testing.T) {
	good := []byte{0x09, 0x08, 0x07}

	corrupted := EncodeFrame([]byte{0x01, 0x02, 0x03, 0x04})
	corrupted[len(corrupted)-2] ^= 0xFF // trash a CRC byte

	// The corrupted frame's closing flag doubles as the next frame's
	// opening flag.
	stream := append(corrupted, EncodeFrame(good)[1:]...)

	frames := feed(NewDecoder(), stream)
	if len(frames) != 1 {
		t.Fatalf("expected 1 recovered frame, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], good) {
		t.Errorf("recovered wrong payload: % 02X", frames[0])
	}
}

func TestDecoder_RecoversAfterLineNoise(t *testing.T) {
	noise := []byte{0x00, 0x13, 0x37, 0x7D, 0x7D, 0x55}
	payload := []byte{0xCA, 0xFE}

	frames := feed(NewDecoder(), append(noise, EncodeFrame(payload)...))
	if len(frames) != 1 || !bytes.Equal(frames[0], payload) {
		t.Fatalf("expected payload after noise, got %v", frames)
	}
}

// ============================================================
// Edge Case Tests
// ============================================================

func TestDecoder_BackToBackDelimiters(t *testing.T) {
	payload := []byte{0x05, 0x06, 0x07}

	// FLAG FLAG <frame> must produce exactly one frame, not an empty
	// frame plus a real one.
	stream := append([]byte{Flag}, EncodeFrame(payload)...)

	frames := feed(NewDecoder(), stream)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], payload) {
		t.Errorf("payload mismatch: % 02X", frames[0])
	}
}

func TestDecoder_ShortCandidateStartsNewFrame(t *testing.T) {
	// Fewer than three unstuffed bytes between flags cannot hold a payload
	// and CRC; the closing flag restarts reception instead.
	payload := []byte{0x11, 0x22}
	stream := append([]byte{Flag, 0x01, 0x02}, EncodeFrame(payload)...)

	frames := feed(NewDecoder(), stream)
	if len(frames) != 1 || !bytes.Equal(frames[0], payload) {
		t.Fatalf("expected only the valid frame, got %v", frames)
	}
}

func TestDecoder_SharedDelimiterBetweenFrames(t *testing.T) {
	first := []byte{0x01, 0x02, 0x03}
	second := []byte{0x0A, 0x0B}

	stream := append(EncodeFrame(first), EncodeFrame(second)[1:]...)

	frames := feed(NewDecoder(), stream)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], first) || !bytes.Equal(frames[1], second) {
		t.Errorf("frames mismatch: %v", frames)
	}
}

func TestDecoder_OversizedFrameDiscarded(t *testing.T) {
	limit := 16
	d := NewDecoderSize(limit)

	big := bytes.Repeat([]byte{0x33}, limit) // contents exceed limit with CRC
	payload := []byte{0x01, 0x02, 0x03}
	stream := append(EncodeFrame(big), EncodeFrame(payload)...)

	frames := feed(d, stream)
	if len(frames) != 1 || !bytes.Equal(frames[0], payload) {
		t.Fatalf("expected only the small frame, got %v", frames)
	}
	if d.Stats().Oversized == 0 {
		t.Error("oversize abort not counted")
	}
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	d.DecodeByte(Flag)
	d.DecodeByte(0x01)
	d.Reset()

	// A fresh frame must decode normally after the reset.
	payload := []byte{0x55, 0x66, 0x77}
	frames := feed(d, EncodeFrame(payload))
	if len(frames) != 1 || !bytes.Equal(frames[0], payload) {
		t.Fatalf("decode after reset failed: %v", frames)
	}
}

func TestDecoder_Stats(t *testing.T) {
	d := NewDecoder()

	feed(d, []byte{0x01, 0x02}) // searching discards
	feed(d, EncodeFrame([]byte{0x10, 0x20}))
	bad := EncodeFrame([]byte{0x30, 0x40})
	bad[2] ^= 0x01
	feed(d, bad)

	stats := d.Stats()
	if stats.Frames != 1 {
		t.Errorf("Frames = %d, want 1", stats.Frames)
	}
	if stats.CRCErrors != 1 {
		t.Errorf("CRCErrors = %d, want 1", stats.CRCErrors)
	}
	if stats.Discarded != 2 {
		t.Errorf("Discarded = %d, want 2", stats.Discarded)
	}
}
