// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package brt

import (
	"github.com/sasha-s/go-deadlock"
)

// Loopback is an in-memory ByteDevice wired back on itself: every byte
// scheduled for transmission is delivered to the receive side of the same
// device. Delivery is explicit — each Pump call replays one transmit-complete
// interrupt — so tests and demos control exactly how the two execution
// contexts interleave.
type Loopback struct {
	mu     deadlock.Mutex
	onSent func()
	onRecv func()
	fifo   []byte
	latch  byte
}

// NewLoopback creates an idle loopback device.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Init binds the interrupt callbacks.
func (lb *Loopback) Init(onByteSent, onByteReceived func()) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.onSent = onByteSent
	lb.onRecv = onByteReceived
	lb.fifo = lb.fifo[:0]
	return nil
}

// Deinit unbinds the callbacks and drops any undelivered bytes.
func (lb *Loopback) Deinit() error {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.onSent = nil
	lb.onRecv = nil
	lb.fifo = lb.fifo[:0]
	return nil
}

// WriteByte schedules one byte. Nothing is delivered until Pump runs.
func (lb *Loopback) WriteByte(b byte) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.fifo = append(lb.fifo, b)
}

// ReadByte returns the byte most recently latched by Pump.
func (lb *Loopback) ReadByte() byte {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.latch
}

// Pending returns the number of scheduled but undelivered bytes.
func (lb *Loopback) Pending() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.fifo)
}

// Pump delivers the oldest scheduled byte: it latches the byte, fires the
// receive interrupt, then fires the transmit-complete interrupt. It reports
// false when there was nothing to deliver.
//
// The callbacks run outside the device lock, since the transmit-complete
// handler typically schedules the next byte through WriteByte.
func (lb *Loopback) Pump() bool {
	lb.mu.Lock()
	if len(lb.fifo) == 0 {
		lb.mu.Unlock()
		return false
	}
	b := lb.fifo[0]
	lb.fifo = lb.fifo[1:]
	lb.latch = b
	onRecv := lb.onRecv
	onSent := lb.onSent
	lb.mu.Unlock()

	if onRecv != nil {
		onRecv()
	}
	if onSent != nil {
		onSent()
	}
	return true
}

// PumpAll pumps until the device is idle and returns the number of bytes
// delivered.
func (lb *Loopback) PumpAll() int {
	n := 0
	for lb.Pump() {
		n++
	}
	return n
}
