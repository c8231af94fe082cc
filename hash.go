// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package apbf

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// Probe answers, for a fixed input value and filter instance, the bit
// position to test in physical slice i.
//
// i ranges over physical slice indices, not logical ones: [APBF.Insert]
// and [APBF.Contains] pass the physical index a logical offset maps to
// for the filter's current head position. Binding the probe sequence
// to the physical index, not the logical one, is what makes the
// age-partitioning work: the bit written for physical slice j during
// insertion is still looked up at physical slice j during a later
// query, even after rotations have made j's logical index older.
type Probe interface {
	At(i uint64) uint64
}

// Family derives a [Probe] sequence for an input value. Implementations
// must be deterministic for a given (family instance, value) pair, and
// Derive must not retain the key slice passed to it.
type Family interface {
	Derive(key []byte) Probe
}

// kmProbe is the Kirsch-Mitzenmacher double-hash probe sequence
// h_i(v) = (x1 + i*x2) mod m.
type kmProbe struct {
	x1, x2, m uint64
}

func (p kmProbe) At(i uint64) uint64 {
	return (p.x1 + i*p.x2) % p.m
}

// KMFamily is the default [Family]: H1 is xxhash, H2 is murmur3, each
// seeded with an independent nonce fixed at construction so that every
// filter instance gets its own pair of hash functions.
type KMFamily struct {
	m     uint64
	seed1 uint64
	seed2 uint64
}

// NewKMFamily builds a KMFamily for a slice width of m bits, seeded
// from process randomness via crypto/rand. m must be >= 1.
func NewKMFamily(m uint64) *KMFamily {
	if m < 1 {
		panic("apbf: m must be >= 1")
	}

	var seedBuf [16]byte
	if _, err := rand.Read(seedBuf[:]); err != nil {
		// crypto/rand failing is a process-level problem, not one a
		// probabilistic set library can meaningfully recover from.
		panic("apbf: failed to read process randomness: " + err.Error())
	}

	return &KMFamily{
		m:     m,
		seed1: binary.LittleEndian.Uint64(seedBuf[0:8]),
		seed2: binary.LittleEndian.Uint64(seedBuf[8:16]),
	}
}

// NewKMFamilyWithSeeds builds a KMFamily with explicit seeds, e.g. for
// deterministic tests.
func NewKMFamilyWithSeeds(m, seed1, seed2 uint64) *KMFamily {
	if m < 1 {
		panic("apbf: m must be >= 1")
	}
	return &KMFamily{m: m, seed1: seed1, seed2: seed2}
}

// Derive implements [Family].
func (f *KMFamily) Derive(key []byte) Probe {
	x1 := hashSeeded(xxhash.Sum64, f.seed1, key) % f.m
	x2 := hashSeeded(murmur3.Sum64, f.seed2, key) % f.m

	// Mitigate the x2 == 0 degeneracy (every probe position would
	// collapse onto x1) by remapping x2 into [1, m).
	if f.m > 1 {
		x2 = x2%(f.m-1) + 1
	} else {
		x2 = 0
	}

	return kmProbe{x1: x1, x2: x2, m: f.m}
}

// hashSeeded mixes an 8-byte seed into key before delegating to sum, so
// that the same underlying hash function produces an independent
// output per filter instance.
func hashSeeded(sum func([]byte) uint64, seed uint64, key []byte) uint64 {
	buf := make([]byte, 8+len(key))
	binary.LittleEndian.PutUint64(buf, seed)
	copy(buf[8:], key)
	return sum(buf)
}
