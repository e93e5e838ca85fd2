// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

// Package isrguard provides the scoped mutual-exclusion bracket shared by the
// link's main-context and interrupt-context code paths.
package isrguard

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Guard is a reentrant critical-section lock.
//
// It plays the role of the interrupt-disable bracket on the original
// hardware: whichever context enters first excludes the other until the
// matching Exit. Entries nest, counter-style, because frame logic may call
// back into the byte-write path from within an already-guarded region. Every
// Enter must be paired with an Exit on the same goroutine, ideally via defer.
//
// The zero value is ready to use.
type Guard struct {
	mu    sync.Mutex
	owner atomic.Int64 // goroutine id holding mu, 0 when free
	depth int          // nesting count, touched only by the owner
}

// Enter acquires the guard, blocking while another goroutine holds it.
// Nested calls from the holding goroutine return immediately.
func (g *Guard) Enter() {
	gid := goid.Get()
	if g.owner.Load() == gid {
		g.depth++
		return
	}
	g.mu.Lock()
	g.owner.Store(gid)
	g.depth = 1
}

// Exit releases one level of nesting, unlocking the guard when the outermost
// bracket closes.
func (g *Guard) Exit() {
	if g.depth > 1 {
		g.depth--
		return
	}
	g.depth = 0
	g.owner.Store(0)
	g.mu.Unlock()
}
