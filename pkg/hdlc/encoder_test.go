// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package hdlc

import (
	"bytes"
	"testing"
)

// ============================================================
// Encoder Tests
// ============================================================

func TestEncodeFrame_ConcreteWireBytes(t *testing.T) {
	// FrameCRC([01 7E 7D 02]) = 0x1308, so the trailing CRC bytes are
	// 0x08, 0x13 (little-endian), neither of which needs stuffing.
	payload := []byte{0x01, 0x7E, 0x7D, 0x02}
	expected := []byte{0x7E, 0x01, 0x7D, 0x5E, 0x7D, 0x5D, 0x02, 0x08, 0x13, 0x7E}

	encoded := EncodeFrame(payload)
	if !bytes.Equal(encoded, expected) {
		t.Errorf("wire bytes mismatch:\n  expected % 02X\n  got      % 02X", expected, encoded)
	}
}

func TestEncodeFrame_Delimiters(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"plain payload", []byte{0x10, 0x20, 0x30}},
		{"all flag bytes", []byte{0x7E, 0x7E, 0x7E}},
		{"all escape bytes", []byte{0x7D, 0x7D}},
		{"mixed reserved bytes", []byte{0x00, 0x7E, 0x7D, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeFrame(tt.payload)
			if encoded[0] != Flag || encoded[len(encoded)-1] != Flag {
				t.Fatalf("frame not flag-delimited: % 02X", encoded)
			}
			// No literal flag may appear between the delimiters.
			for i, b := range encoded[1 : len(encoded)-1] {
				if b == Flag {
					t.Errorf("literal flag byte inside frame at offset %d: % 02X", i+1, encoded)
				}
			}
		})
	}
}

func TestEncodeFrame_StuffingExpandsReservedBytes(t *testing.T) {
	// 3 reserved payload bytes stuff to 6; flags and CRC add 4 more.
	payload := []byte{0x7E, 0x7D, 0x7E}
	encoded := EncodeFrame(payload)

	minLen := 2 + 2*len(payload) + 2 // flags + stuffed payload + CRC
	if len(encoded) < minLen {
		t.Errorf("expected at least %d wire bytes, got %d", minLen, len(encoded))
	}
}

func TestAppendFrame_PreservesPrefix(t *testing.T) {
	prefix := []byte{0xDE, 0xAD}
	out := AppendFrame(append([]byte(nil), prefix...), []byte{0x01})
	if !bytes.Equal(out[:2], prefix) {
		t.Errorf("prefix clobbered: % 02X", out[:2])
	}
	if !bytes.Equal(out[2:], EncodeFrame([]byte{0x01})) {
		t.Errorf("appended frame differs from EncodeFrame output")
	}
}

func TestEmitFrame_MatchesEncodeFrame(t *testing.T) {
	payload := []byte{0x7E, 0x00, 0x7D, 0x42, 0xFF}

	var emitted []byte
	EmitFrame(func(b byte) { emitted = append(emitted, b) }, payload)

	if !bytes.Equal(emitted, EncodeFrame(payload)) {
		t.Errorf("streamed frame differs from buffered encoding:\n  emit % 02X\n  enc  % 02X",
			emitted, EncodeFrame(payload))
	}
}
