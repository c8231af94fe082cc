// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package apbf

import (
	"encoding/binary"
	"math"

	"github.com/go-apbf/apbf/internal/ring"
)

// APBF is an age-partitioned Bloom filter.
//
// The zero value is not usable; construct with [New] or
// [NewWithHashFamily].
//
// APBF is safe for any number of concurrent [APBF.Contains] calls, but
// [APBF.Insert] requires exclusive access: it must not run concurrently
// with either another Insert or a Contains on the same instance.
// Callers who need multi-producer or reader-during-writer semantics
// must compose their own synchronization; APBF provides none.
//
// An APBF must not be copied after first use — the go vet -copylocks
// checker flags this via the embedded noCopy marker.
type APBF struct {
	_ noCopy

	bits    *ring.Ring
	hf      Family
	k       int
	l       int
	nSlices int

	g uint64 // generation capacity: insertions accepted per head
	n uint64 // insertions accepted into the current head generation
	p int    // physical index currently acting as logical slice 0
}

// New creates an empty APBF with k slices filled per insertion, l
// additional retention slices, and m bits per slice, using a default
// hash family seeded from process randomness. k, l, and m must all be
// >= 1; violating this is a programmer error and panics.
func New(k, l, m int) *APBF {
	return NewWithHashFamily(k, l, m, NewKMFamily(uint64(m)))
}

// NewWithHashFamily is like [New] but with an explicit hash family,
// e.g. for deterministic tests.
func NewWithHashFamily(k, l, m int, hf Family) *APBF {
	if k < 1 {
		panic("apbf: k must be >= 1")
	}
	if l < 1 {
		panic("apbf: l must be >= 1")
	}
	if m < 1 {
		panic("apbf: m must be >= 1")
	}

	nSlices := k + l
	g := uint64(math.Floor(float64(m) * math.Ln2 / float64(k)))

	return &APBF{
		bits:    ring.New(nSlices, m),
		hf:      hf,
		k:       k,
		l:       l,
		nSlices: nSlices,
		g:       g,
	}
}

// physical maps logical offset i to a physical slice index relative to
// the current head p. i need not be reduced mod nSlices beforehand.
func (f *APBF) physical(i int) int {
	n := i % f.nSlices
	if n < 0 {
		n += f.nSlices
	}
	phys := f.p + n
	if phys >= f.nSlices {
		phys -= f.nSlices
	}
	return phys
}

// rotate advances the head backward through the ring: the slice about
// to become the new head is the current oldest logical slice, and is
// cleared before the head pointer moves onto it.
func (f *APBF) rotate() {
	prev := f.p + f.nSlices - 1
	if prev >= f.nSlices {
		prev -= f.nSlices
	}
	f.bits.Clear(prev)
	f.p = prev
	f.n = 0
}

// Insert adds key to the filter.
func (f *APBF) Insert(key []byte) {
	if f.n >= f.g {
		f.rotate()
	}

	probe := f.hf.Derive(key)
	for offset := 0; offset < f.k; offset++ {
		phys := f.physical(offset)
		pos := probe.At(uint64(phys))
		f.bits.Set(phys, int(pos))
	}

	f.n++
}

// InsertString is Insert for a string key; s is converted to a []byte
// before hashing.
func (f *APBF) InsertString(s string) {
	f.Insert([]byte(s))
}

// InsertUint64 is Insert for a uint64 key.
func (f *APBF) InsertUint64(n uint64) {
	f.Insert(uint64ToBytes(n))
}

// Contains reports whether the filter has observed evidence consistent
// with a past insertion of key. False negatives are impossible for
// keys inserted within the last [APBF.Window] insertions; false
// positives are possible at a rate governed by k, m, and fill level.
func (f *APBF) Contains(key []byte) bool {
	probe := f.hf.Derive(key)

	i := f.l
	prevCount := 0
	count := 0

	for {
		phys := f.physical(i)
		hit := f.bits.Test(phys, int(probe.At(uint64(phys))))

		if hit {
			count++
			i++
			if prevCount+count == f.k {
				return true
			}
			continue
		}

		if i < f.k {
			return false
		}
		i -= f.k
		prevCount = count
		count = 0
	}
}

// ContainsString is Contains for a string key.
func (f *APBF) ContainsString(s string) bool {
	return f.Contains([]byte(s))
}

// ContainsUint64 is Contains for a uint64 key.
func (f *APBF) ContainsUint64(n uint64) bool {
	return f.Contains(uint64ToBytes(n))
}

// Window returns the number of trailing insertions over which recall
// is guaranteed: l * generation().
func (f *APBF) Window() uint64 {
	return uint64(f.l) * f.g
}

// Slack returns the size of the transition zone following the window
// during which a key may still be reported present but is not
// guaranteed to be: k * generation().
func (f *APBF) Slack() uint64 {
	return uint64(f.k) * f.g
}

// Generation returns the number of insertions absorbed per head before
// rotation: floor(m * ln 2 / k).
func (f *APBF) Generation() uint64 {
	return f.g
}

func uint64ToBytes(n uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, n)
	return buf
}

// noCopy may be embedded in structs which must not be copied after
// first use; go vet's -copylocks check flags any value or argument
// copy of such a struct. Adapted from the teacher's use of the same
// trick on Table.
//
// See https://golang.org/issues/8005#issuecomment-190753527 for
// details.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
