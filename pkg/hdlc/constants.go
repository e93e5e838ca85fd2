// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

// Package hdlc implements the HDLC-style framing used on the serial link
// between a mesh node and its border router.
//
// A frame on the wire is FLAG, stuffed payload, stuffed CRC (low byte first),
// FLAG. Payload and CRC bytes equal to the flag or escape byte are transmitted
// as ESCAPE followed by the byte XOR 0x20. The CRC is CRC-16/X-25 (poly 0x8408
// bit-reversed, init 0xFFFF, complemented), as used by HDLC and PPP, computed
// over the unstuffed payload only.
package hdlc

// Framing bytes
const (
	Flag       = 0x7E
	Escape     = 0x7D
	EscapeMask = 0x20
)

// Frame size limits. MaxFrameSize bounds the unstuffed contents of a frame
// (payload plus the two trailing CRC bytes); the decoder discards anything
// larger and resynchronizes.
const (
	MaxFrameSize   = 200
	MaxPayloadSize = MaxFrameSize - crcSize
	crcSize        = 2
)

// CRC-16/X-25 configuration
const (
	crcInit = 0xFFFF
	// crcGood is the residue left by folding a frame's payload and its own
	// complemented CRC through the engine.
	crcGood = 0xF0B8
)

// Decoder states (internal)
const (
	stateSearching = iota
	stateReceiving
)
