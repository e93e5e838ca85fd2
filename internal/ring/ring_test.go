// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package ring

import "testing"

func TestBuffer_PutGet(t *testing.T) {
	b := New(4)

	for i, c := range []byte{0x01, 0x02, 0x03} {
		if !b.Put(c) {
			t.Fatalf("Put %d rejected with room available", i)
		}
	}
	if b.Len() != 3 {
		t.Errorf("Len = %d, want 3", b.Len())
	}

	for _, want := range []byte{0x01, 0x02, 0x03} {
		got, ok := b.Get()
		if !ok || got != want {
			t.Fatalf("Get = (0x%02X, %v), want (0x%02X, true)", got, ok, want)
		}
	}
	if _, ok := b.Get(); ok {
		t.Error("Get on empty buffer reported success")
	}
}

func TestBuffer_RejectsWhenFull(t *testing.T) {
	b := New(2)
	b.Put(0xAA)
	b.Put(0xBB)

	if b.Put(0xCC) {
		t.Error("Put on full buffer reported success")
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d after rejected Put, want 2", b.Len())
	}

	// The rejected byte must not have clobbered the oldest entry.
	if got, _ := b.Get(); got != 0xAA {
		t.Errorf("oldest byte = 0x%02X, want 0xAA", got)
	}
}

func TestBuffer_WrapsAround(t *testing.T) {
	b := New(3)

	// Drive the cursors past the end of the backing array several times.
	for i := 0; i < 10; i++ {
		c := byte(i)
		if !b.Put(c) {
			t.Fatalf("Put %d rejected", i)
		}
		got, ok := b.Get()
		if !ok || got != c {
			t.Fatalf("iteration %d: Get = (0x%02X, %v), want (0x%02X, true)", i, got, ok, c)
		}
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d after drain, want 0", b.Len())
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := New(4)
	b.Put(0x01)
	b.Put(0x02)
	b.Reset()

	if b.Len() != 0 {
		t.Errorf("Len = %d after Reset, want 0", b.Len())
	}
	if _, ok := b.Get(); ok {
		t.Error("Get after Reset reported success")
	}
	if b.Cap() != 4 {
		t.Errorf("Cap = %d after Reset, want 4", b.Cap())
	}
}

func TestBuffer_FillDrainFill(t *testing.T) {
	b := New(8)
	for round := 0; round < 3; round++ {
		for i := 0; i < b.Cap(); i++ {
			if !b.Put(byte(round*16 + i)) {
				t.Fatalf("round %d: Put %d rejected", round, i)
			}
		}
		if b.Len() != b.Cap() {
			t.Fatalf("round %d: Len = %d, want %d", round, b.Len(), b.Cap())
		}
		for i := 0; i < b.Cap(); i++ {
			got, ok := b.Get()
			if !ok || got != byte(round*16+i) {
				t.Fatalf("round %d: Get %d = (0x%02X, %v)", round, i, got, ok)
			}
		}
	}
}
