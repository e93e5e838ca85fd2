// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package hdlc

// EncodeFrame serializes a payload into a complete wire frame: opening flag,
// byte-stuffed payload, byte-stuffed complemented CRC (low byte first),
// closing flag. Flag bytes delimiting the frame are never escaped.
//
// Payload length is not validated here; callers must respect the maximum
// datagram size negotiated with the peer. Frames whose unstuffed contents
// exceed MaxFrameSize will be discarded on the receiving side.
func EncodeFrame(payload []byte) []byte {
	return AppendFrame(nil, payload)
}

// AppendFrame appends the wire encoding of payload to dst and returns the
// extended slice.
func AppendFrame(dst, payload []byte) []byte {
	// Worst case every byte stuffs to two, plus flags and CRC.
	if dst == nil {
		dst = make([]byte, 0, 2*len(payload)+6)
	}
	dst = append(dst, Flag)
	crc := uint16(crcInit)
	for _, b := range payload {
		crc = CRCStep(crc, b)
		dst = appendStuffed(dst, b)
	}
	crc = ^crc
	dst = appendStuffed(dst, byte(crc))
	dst = appendStuffed(dst, byte(crc>>8))
	return append(dst, Flag)
}

// EmitFrame streams the wire encoding of payload one byte at a time through
// emit. This form lets a link layer route each byte to its transmit path
// without materializing the stuffed frame.
func EmitFrame(emit func(byte), payload []byte) {
	emit(Flag)
	crc := uint16(crcInit)
	for _, b := range payload {
		crc = CRCStep(crc, b)
		emitStuffed(emit, b)
	}
	crc = ^crc
	emitStuffed(emit, byte(crc))
	emitStuffed(emit, byte(crc>>8))
	emit(Flag)
}

func appendStuffed(dst []byte, b byte) []byte {
	if b == Flag || b == Escape {
		return append(dst, Escape, b^EscapeMask)
	}
	return append(dst, b)
}

func emitStuffed(emit func(byte), b byte) {
	if b == Flag || b == Escape {
		emit(Escape)
		emit(b ^ EscapeMask)
		return
	}
	emit(b)
}
