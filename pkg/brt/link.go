// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

// Package brt implements the node side of the border-router transport: a
// fire-and-forget framed byte link over a UART-class device.
//
// The link speaks the framing defined in package hdlc. It owns two fixed
// circular byte queues that decouple the device's interrupt-style callbacks
// from the main-context Send and Receive paths, and a critical-section guard
// that brackets every queue access. There is no flow control, no
// retransmission and no acknowledgment at this layer; a queue that overflows
// loses data silently (observable only through Stats).
package brt

import (
	"errors"
	"time"

	"github.com/meshfoundry/brlink/internal/isrguard"
	"github.com/meshfoundry/brlink/internal/ring"
	"github.com/meshfoundry/brlink/pkg/hdlc"
)

// ByteDevice is the byte-level transport primitive the link runs over.
//
// Implementations invoke onByteSent after each byte scheduled with WriteByte
// has left the wire, and onByteReceived once per arrived byte. Both callbacks
// play the role of interrupt handlers: the link keeps them short and
// non-blocking, and implementations must not invoke them concurrently with
// themselves.
type ByteDevice interface {
	// Init binds the transmit-complete and byte-received callbacks and
	// starts the device.
	Init(onByteSent, onByteReceived func()) error
	// Deinit stops the device and unbinds the callbacks.
	Deinit() error
	// WriteByte schedules a single byte for transmission without blocking.
	WriteByte(b byte)
	// ReadByte returns the most recently received byte. It is only
	// meaningful from within the onByteReceived callback.
	ReadByte() byte
}

// Default queue sizes. Outbound is sized for a frame plus a status frame per
// slot; inbound is doubled to ride out slow polling.
const (
	DefaultOutboundCapacity = 256
	DefaultInboundCapacity  = 512

	defaultDrainDelay = 100 * time.Millisecond
)

// Stats is a snapshot of the link's diagnostic counters. The functional
// contract stays silent about every loss these count.
type Stats struct {
	FramesSent      uint64
	FramesReceived  uint64
	TruncatedFrames uint64 // valid frames dropped for undersized caller buffers
	TxDropped       uint64 // bytes lost to outbound queue overflow
	RxDropped       uint64 // bytes lost to inbound queue overflow
	Decoder         hdlc.DecoderStats
}

// Link is a border-router transport instance bound to one ByteDevice.
// All state lives here; creating several links over distinct devices is fine.
// A Link expects a single main-context caller for Send/Receive and the
// device's callback context as the only other entrant.
type Link struct {
	dev ByteDevice

	guard        isrguard.Guard
	in           *ring.Buffer
	out          *ring.Buffer
	transmitting bool

	dec   *hdlc.Decoder
	stats Stats

	drainDelay time.Duration
	resetFn    func()
}

// Option configures a Link.
type Option func(*Link)

// WithQueueCapacities sets the outbound and inbound queue sizes.
func WithQueueCapacities(outbound, inbound int) Option {
	return func(l *Link) {
		l.out = ring.New(outbound)
		l.in = ring.New(inbound)
	}
}

// WithMaxFrameSize bounds the unstuffed contents of received frames.
func WithMaxFrameSize(max int) Option {
	return func(l *Link) { l.dec = hdlc.NewDecoderSize(max) }
}

// WithResetFunc installs the platform hook Reset invokes after the drain
// delay. Without it, Reset only drains.
func WithResetFunc(fn func()) Option {
	return func(l *Link) { l.resetFn = fn }
}

// WithDrainDelay overrides how long Reset waits for in-flight bytes.
func WithDrainDelay(d time.Duration) Option {
	return func(l *Link) { l.drainDelay = d }
}

// New creates a link over the given device. Call Init before use.
func New(dev ByteDevice, opts ...Option) *Link {
	l := &Link{
		dev:        dev,
		out:        ring.New(DefaultOutboundCapacity),
		in:         ring.New(DefaultInboundCapacity),
		dec:        hdlc.NewDecoder(),
		drainDelay: defaultDrainDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init zeroes both queues, resets the decoder and binds the device callbacks.
func (l *Link) Init() error {
	l.guard.Enter()
	l.in.Reset()
	l.out.Reset()
	l.dec.Reset()
	l.transmitting = false
	l.guard.Exit()

	return l.dev.Init(l.onByteSent, l.onByteReceived)
}

// Deinit unbinds the device callbacks and resets the link state.
func (l *Link) Deinit() error {
	err := l.dev.Deinit()

	l.guard.Enter()
	l.in.Reset()
	l.out.Reset()
	l.dec.Reset()
	l.transmitting = false
	l.guard.Exit()

	return err
}

// Send transmits one framed payload.
//
// Bytes are written straight to the device while it is idle and queued behind
// the in-flight transmission otherwise. Send never blocks and never fails:
// if the outbound queue overflows the tail of the frame is lost silently
// (counted in Stats). Payload length is the caller's responsibility.
func (l *Link) Send(payload []byte) {
	hdlc.EmitFrame(l.writeByte, payload)

	l.guard.Enter()
	l.stats.FramesSent++
	l.guard.Exit()
}

// Receive drains the inbound queue through the frame decoder.
//
// It is non-blocking and meant to be polled: at most one frame is consumed
// per call, and 0 means "no complete, valid frame this time" regardless of
// cause. A valid frame larger than buf is dropped and 0 returned; callers
// needing that distinction must watch Stats.
func (l *Link) Receive(buf []byte) int {
	for l.queuedIn() > 0 {
		l.guard.Enter()
		b, ok := l.in.Get()
		l.guard.Exit()
		if !ok {
			break
		}

		payload, err := l.dec.DecodeByte(b)
		if err != nil {
			if errors.Is(err, hdlc.ErrFrameTooLarge) {
				// forced resync, keep draining
				continue
			}
			// one candidate per call, valid or not
			return 0
		}
		if payload == nil {
			continue
		}

		if len(buf) < len(payload) {
			l.guard.Enter()
			l.stats.TruncatedFrames++
			l.guard.Exit()
			return 0
		}
		n := copy(buf, payload)

		l.guard.Enter()
		l.stats.FramesReceived++
		l.guard.Exit()
		return n
	}
	return 0
}

// SendRaw writes bytes through the transmit path with no framing applied.
// Diagnostic and bootstrap use only; must not run concurrently with framed
// traffic.
func (l *Link) SendRaw(data []byte) {
	for _, b := range data {
		l.writeByte(b)
	}
}

// ReceiveRaw drains up to len(buf) bytes from the inbound queue with no
// framing interpretation and returns the count copied.
func (l *Link) ReceiveRaw(buf []byte) int {
	l.guard.Enter()
	defer l.guard.Exit()

	n := 0
	for n < len(buf) {
		b, ok := l.in.Get()
		if !ok {
			break
		}
		buf[n] = b
		n++
	}
	return n
}

// Reset waits out the drain delay and then invokes the platform reset hook,
// if one was installed.
func (l *Link) Reset() {
	time.Sleep(l.drainDelay)
	if l.resetFn != nil {
		l.resetFn()
	}
}

// IsBusy reports whether a transmission is in flight.
func (l *Link) IsBusy() bool {
	l.guard.Enter()
	defer l.guard.Exit()
	return l.transmitting
}

// Stats returns a snapshot of the diagnostic counters.
func (l *Link) Stats() Stats {
	l.guard.Enter()
	defer l.guard.Exit()
	s := l.stats
	s.Decoder = l.dec.Stats()
	return s
}

func (l *Link) queuedIn() int {
	l.guard.Enter()
	defer l.guard.Exit()
	return l.in.Len()
}

// writeByte routes one outgoing byte: straight to the device when idle
// (kicking off the hardware pump), queued behind the transmission otherwise.
func (l *Link) writeByte(b byte) {
	l.guard.Enter()
	defer l.guard.Exit()

	if l.transmitting {
		if !l.out.Put(b) {
			l.stats.TxDropped++
		}
	} else {
		l.transmitting = true
		l.dev.WriteByte(b)
	}
}

// onByteSent is the transmit-complete handler: continue draining the outbound
// queue or mark the link idle.
func (l *Link) onByteSent() {
	l.guard.Enter()
	defer l.guard.Exit()

	if b, ok := l.out.Get(); ok {
		l.dev.WriteByte(b)
	} else {
		l.transmitting = false
	}
}

// onByteReceived is the byte-received handler: latch the byte into the
// inbound queue for the main-context decoder.
func (l *Link) onByteReceived() {
	b := l.dev.ReadByte()

	l.guard.Enter()
	defer l.guard.Exit()
	if !l.in.Put(b) {
		l.stats.RxDropped++
	}
}
