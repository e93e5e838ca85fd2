// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

// Package ring provides the fixed-capacity byte queues that decouple the
// link's interrupt-driven byte pump from its main-context frame logic.
package ring

// Buffer is a fixed-capacity circular byte queue.
//
// Put rejects bytes once the buffer is full; the caller decides whether the
// loss matters. The buffer performs no locking of its own: it is meant to be
// shared between an interrupt-style producer and a main-context consumer with
// every access bracketed by the caller's critical section.
type Buffer struct {
	data  []byte
	read  int
	write int
	count int
}

// New creates an empty buffer with the given capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Reset empties the buffer, keeping its capacity.
func (b *Buffer) Reset() {
	b.read = 0
	b.write = 0
	b.count = 0
}

// Put appends one byte. It reports false, dropping the byte, when the buffer
// is full.
func (b *Buffer) Put(c byte) bool {
	if b.count == len(b.data) {
		return false
	}
	b.data[b.write] = c
	b.write++
	if b.write == len(b.data) {
		b.write = 0
	}
	b.count++
	return true
}

// Get removes and returns the oldest byte. The second return is false when
// the buffer is empty.
func (b *Buffer) Get() (byte, bool) {
	if b.count == 0 {
		return 0, false
	}
	c := b.data[b.read]
	b.read++
	if b.read == len(b.data) {
		b.read = 0
	}
	b.count--
	return c, true
}

// Len returns the number of queued bytes.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}
