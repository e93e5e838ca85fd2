// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

// Package beacon implements the node status messages carried as payloads over
// the border-router link.
//
// A beacon is CBOR-encoded as a 2-element array: [type, fields-map], where
// fields-map uses small integer keys and may be nil when a message carries no
// data. The link itself treats payloads as opaque; beacons are the
// diagnostic/bootstrap vocabulary the tooling speaks over it.
package beacon

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Beacon types
const (
	TypeHello  = 0x01 // node announces itself after boot
	TypeStatus = 0x02 // periodic health report
	TypeEcho   = 0x2F // echo request, peer mirrors it back
)

// Status field keys
const (
	FieldUptime    = 0 // milliseconds since boot, uint
	FieldRxDropped = 1 // inbound bytes lost to queue overflow, uint
	FieldTxDropped = 2 // outbound bytes lost to queue overflow, uint
	FieldCRCErrors = 3 // frames rejected by the CRC check, uint
)

// Beacon is a decoded status message.
type Beacon struct {
	Type   uint8
	Fields map[int]interface{}
}

// NewHello builds the boot announcement.
func NewHello() *Beacon {
	return &Beacon{Type: TypeHello}
}

// NewStatus builds a health report from the link's running counters.
func NewStatus(uptime time.Duration, rxDropped, txDropped, crcErrors uint64) *Beacon {
	return &Beacon{
		Type: TypeStatus,
		Fields: map[int]interface{}{
			FieldUptime:    uint64(uptime.Milliseconds()),
			FieldRxDropped: rxDropped,
			FieldTxDropped: txDropped,
			FieldCRCErrors: crcErrors,
		},
	}
}

// Encode serializes the beacon to its CBOR wire form.
func Encode(b *Beacon) ([]byte, error) {
	var msg interface{}
	if len(b.Fields) == 0 {
		msg = []interface{}{uint64(b.Type), nil}
	} else {
		msg = []interface{}{uint64(b.Type), b.Fields}
	}
	data, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode beacon: %w", err)
	}
	return data, nil
}

// Decode parses a CBOR payload as a beacon: [type, fields-map].
func Decode(data []byte) (*Beacon, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty beacon payload")
	}

	var msg []interface{}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	if len(msg) != 2 {
		return nil, fmt.Errorf("expected 2-element array, got %d elements", len(msg))
	}

	b := &Beacon{}
	switch v := msg[0].(type) {
	case uint64:
		if v > 255 {
			return nil, fmt.Errorf("beacon type out of range: %d", v)
		}
		b.Type = uint8(v)
	default:
		return nil, fmt.Errorf("expected uint for beacon type, got %T", msg[0])
	}

	if msg[1] == nil {
		return b, nil
	}
	switch v := msg[1].(type) {
	case map[interface{}]interface{}:
		b.Fields = make(map[int]interface{})
		for key, val := range v {
			switch k := key.(type) {
			case uint64:
				b.Fields[int(k)] = val
			case int64:
				b.Fields[int(k)] = val
			default:
				return nil, fmt.Errorf("expected integer map key, got %T", key)
			}
		}
	default:
		return nil, fmt.Errorf("expected map or nil for fields, got %T", msg[1])
	}
	return b, nil
}

// Uint extracts an unsigned field by key.
func (b *Beacon) Uint(key int) (uint64, bool) {
	if b.Fields == nil {
		return 0, false
	}
	v, ok := b.Fields[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case uint64:
		return val, true
	case int64:
		if val >= 0 {
			return uint64(val), true
		}
	}
	return 0, false
}

// TypeName returns a human-readable name for the beacon type.
func TypeName(t uint8) string {
	switch t {
	case TypeHello:
		return "HELLO"
	case TypeStatus:
		return "STATUS"
	case TypeEcho:
		return "ECHO"
	default:
		return "UNKNOWN"
	}
}

// String formats the beacon for log output.
func (b *Beacon) String() string {
	if b.Type == TypeStatus {
		uptime, _ := b.Uint(FieldUptime)
		rx, _ := b.Uint(FieldRxDropped)
		tx, _ := b.Uint(FieldTxDropped)
		crc, _ := b.Uint(FieldCRCErrors)
		return fmt.Sprintf("STATUS uptime=%dms rxDropped=%d txDropped=%d crcErrors=%d", uptime, rx, tx, crc)
	}
	if len(b.Fields) == 0 {
		return TypeName(b.Type)
	}
	return fmt.Sprintf("%s %v", TypeName(b.Type), b.Fields)
}
