// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package brt

import (
	"io"
	"sync"
)

// StreamDevice adapts an io.ReadWriter (serial port, WebSocket bridge, pipe)
// to the ByteDevice interface.
//
// A transmit goroutine writes scheduled bytes to the stream and fires the
// transmit-complete callback after each one; a receive goroutine reads the
// stream and fires the byte-received callback once per byte. The receive
// goroutine terminates when the underlying stream errors out, typically
// because it was closed.
type StreamDevice struct {
	rw io.ReadWriter

	mu      sync.Mutex
	txq     chan byte
	quit    chan struct{}
	running bool

	// latch holds the byte currently being delivered. It is written by the
	// receive goroutine and read back, via ReadByte, from within the
	// onByteReceived callback it invokes, so no lock is needed.
	latch byte
}

// txQueueDepth must cover at least the link's outbound queue so that the
// transmit-complete handler can reschedule without ever blocking WriteByte.
const txQueueDepth = 512

// NewStreamDevice wraps a byte stream as a ByteDevice.
func NewStreamDevice(rw io.ReadWriter) *StreamDevice {
	return &StreamDevice{rw: rw}
}

// Init starts the transmit and receive pumps.
func (d *StreamDevice) Init(onByteSent, onByteReceived func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}
	d.running = true
	d.txq = make(chan byte, txQueueDepth)
	d.quit = make(chan struct{})

	go d.txLoop(d.txq, d.quit, onByteSent)
	go d.rxLoop(d.quit, onByteReceived)
	return nil
}

// Deinit stops the transmit pump. The receive pump exits once the underlying
// stream is closed by its owner.
func (d *StreamDevice) Deinit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	d.running = false
	close(d.quit)
	return nil
}

// WriteByte schedules one byte, dropping it if the transmit pump has fallen
// impossibly far behind.
func (d *StreamDevice) WriteByte(b byte) {
	d.mu.Lock()
	txq := d.txq
	d.mu.Unlock()
	if txq == nil {
		return
	}
	select {
	case txq <- b:
	default:
	}
}

// ReadByte returns the byte currently being delivered.
func (d *StreamDevice) ReadByte() byte {
	return d.latch
}

func (d *StreamDevice) txLoop(txq chan byte, quit chan struct{}, onByteSent func()) {
	var one [1]byte
	for {
		select {
		case <-quit:
			return
		case b := <-txq:
			one[0] = b
			if _, err := d.rw.Write(one[:]); err != nil {
				return
			}
			if onByteSent != nil {
				onByteSent()
			}
		}
	}
}

func (d *StreamDevice) rxLoop(quit chan struct{}, onByteReceived func()) {
	buf := make([]byte, 256)
	for {
		n, err := d.rw.Read(buf)
		if err != nil {
			return
		}
		for _, b := range buf[:n] {
			d.latch = b
			if onByteReceived != nil {
				onByteReceived()
			}
		}
		select {
		case <-quit:
			return
		default:
		}
	}
}
