// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package ring implements the fixed-size bit array backing an
// age-partitioned Bloom filter: n_slices equal-width slices over one
// contiguous allocation, addressed by physical slice index.
//
// Adapted from the bit-twiddling core of [github.com/gaissmai/bart]'s
// internal bitset package, which is itself a stripped-down
// [github.com/bits-and-blooms/bitset]; this package trades the generic,
// growable bitset for one sized once at construction and never resized,
// since the APBF engine's slice count and slice width are fixed for the
// lifetime of the filter.
package ring

import "math/bits"

// the wordSize of the backing array
const wordSize = 64

// log2WordSize is lg(wordSize)
const log2WordSize = 6

// Ring owns one contiguous bit array of nSlices*width bits, partitioned
// into nSlices equal-width slices. Slice j occupies bit positions
// [j*width, (j+1)*width) of the array; there is no per-slice indirection.
//
// The zero value is not usable; construct with New.
type Ring struct {
	words   []uint64
	nSlices int
	width   int
}

// New allocates a Ring of nSlices slices, each width bits wide. Both
// must be >= 1.
func New(nSlices, width int) *Ring {
	if nSlices < 1 {
		panic("ring: nSlices must be >= 1")
	}
	if width < 1 {
		panic("ring: width must be >= 1")
	}

	total := uint(nSlices) * uint(width)
	return &Ring{
		words:   make([]uint64, wordsNeeded(total)),
		nSlices: nSlices,
		width:   width,
	}
}

// wordsNeeded calculates the number of words needed for i bits.
func wordsNeeded(i uint) int {
	return int(i+wordSize-1) >> log2WordSize
}

// bitsIndex calculates the index of i within a uint64.
func bitsIndex(i uint) uint {
	return i & (wordSize - 1) // (i % 64) but faster
}

// globalBit maps (slice, pos) to an absolute bit index, panicking if
// either is out of range. Test and Set funnel through it; Clear and
// PopCount check the slice index themselves.
func (r *Ring) globalBit(slice, pos int) uint {
	if slice < 0 || slice >= r.nSlices {
		panic("ring: slice index out of range")
	}
	if pos < 0 || pos >= r.width {
		panic("ring: bit position out of range")
	}
	return uint(slice)*uint(r.width) + uint(pos)
}

// Test reports whether bit pos of physical slice is set.
func (r *Ring) Test(slice, pos int) bool {
	i := r.globalBit(slice, pos)
	return r.words[i>>log2WordSize]&(1<<bitsIndex(i)) != 0
}

// Set sets bit pos of physical slice to 1. Idempotent.
func (r *Ring) Set(slice, pos int) {
	i := r.globalBit(slice, pos)
	r.words[i>>log2WordSize] |= 1 << bitsIndex(i)
}

// Clear zeroes every bit of physical slice.
func (r *Ring) Clear(slice int) {
	if slice < 0 || slice >= r.nSlices {
		panic("ring: slice index out of range")
	}

	lo := uint(slice) * uint(r.width)
	hi := lo + uint(r.width)

	loWord := int(lo >> log2WordSize)
	hiWord := int((hi - 1) >> log2WordSize)

	if loWord == hiWord {
		mask := wordMask(bitsIndex(lo), bitsIndex(hi-1))
		r.words[loWord] &^= mask
		return
	}

	r.words[loWord] &^= wordMask(bitsIndex(lo), wordSize-1)
	for w := loWord + 1; w < hiWord; w++ {
		r.words[w] = 0
	}
	r.words[hiWord] &^= wordMask(0, bitsIndex(hi-1))
}

// wordMask returns a mask with bits [lo, hi] (inclusive) set within a word.
func wordMask(lo, hi uint) uint64 {
	return (^uint64(0) >> (wordSize - 1 - hi)) &^ ((1 << lo) - 1)
}

// PopCount returns the number of set bits in physical slice.
func (r *Ring) PopCount(slice int) int {
	if slice < 0 || slice >= r.nSlices {
		panic("ring: slice index out of range")
	}

	lo := uint(slice) * uint(r.width)
	hi := lo + uint(r.width)

	loWord := int(lo >> log2WordSize)
	hiWord := int((hi - 1) >> log2WordSize)

	if loWord == hiWord {
		mask := wordMask(bitsIndex(lo), bitsIndex(hi-1))
		return bits.OnesCount64(r.words[loWord] & mask)
	}

	cnt := bits.OnesCount64(r.words[loWord] & wordMask(bitsIndex(lo), wordSize-1))
	for w := loWord + 1; w < hiWord; w++ {
		cnt += bits.OnesCount64(r.words[w])
	}
	cnt += bits.OnesCount64(r.words[hiWord] & wordMask(0, bitsIndex(hi-1)))
	return cnt
}

// NumSlices returns the number of physical slices the ring holds.
func (r *Ring) NumSlices() int { return r.nSlices }

// Width returns the bit width of every slice.
func (r *Ring) Width() int { return r.width }
