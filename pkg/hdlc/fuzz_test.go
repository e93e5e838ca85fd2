// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package hdlc

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func randomPayload(rng *rand.Rand) []byte {
	payload := make([]byte, 1+rng.Intn(MaxPayloadSize))
	rng.Read(payload)
	return payload
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzz_RoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	d := NewDecoder()
	for i := 0; i < rounds; i++ {
		payload := randomPayload(rng)
		frames := feed(d, EncodeFrame(payload))
		if len(frames) != 1 {
			t.Fatalf("round %d: expected 1 frame, got %d", i, len(frames))
		}
		if !bytes.Equal(frames[0], payload) {
			t.Fatalf("round %d: payload mismatch:\n  sent % 02X\n  got  % 02X", i, payload, frames[0])
		}
	}
}

func TestFuzz_InterleavedNoise(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	d := NewDecoder()
	for i := 0; i < rounds; i++ {
		payload := randomPayload(rng)

		// Garbage between frames must never prevent the next clean
		// frame from decoding. Prepending a flag terminates whatever
		// partial frame the noise may have opened.
		noise := make([]byte, rng.Intn(64))
		rng.Read(noise)

		stream := append(noise, Flag)
		stream = append(stream, EncodeFrame(payload)...)

		var got [][]byte
		for _, b := range stream {
			if p, _ := d.DecodeByte(b); p != nil {
				got = append(got, append([]byte(nil), p...))
			}
		}

		// Noise can in principle complete a frame of its own; the real
		// payload must always be the last one out.
		if len(got) == 0 {
			t.Fatalf("round %d: clean frame lost after noise % 02X", i, noise)
		}
		if !bytes.Equal(got[len(got)-1], payload) {
			t.Fatalf("round %d: wrong payload after noise:\n  sent % 02X\n  got  % 02X",
				i, payload, got[len(got)-1])
		}
	}
}

func TestFuzz_RandomBytesNeverPanic(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	d := NewDecoder()
	for i := 0; i < rounds; i++ {
		chunk := make([]byte, rng.Intn(512))
		rng.Read(chunk)
		for _, b := range chunk {
			d.DecodeByte(b)
		}
	}
}
