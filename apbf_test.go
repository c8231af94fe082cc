// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package apbf

import (
	"math/rand/v2"
	"testing"
)

// newDeterministic builds an APBF with a fixed, non-random hash family
// so that tests are reproducible.
func newDeterministic(k, l, m int, seed1, seed2 uint64) *APBF {
	return NewWithHashFamily(k, l, m, NewKMFamilyWithSeeds(uint64(m), seed1, seed2))
}

// S1 — fresh insert footprint: exactly k bits set, one per physical
// slice [0, k), zero bits in the remaining l slices.
func TestFreshInsertFootprint(t *testing.T) {
	const k, l, m = 10, 20, 256
	f := newDeterministic(k, l, m, 11, 17)
	f.InsertUint64(42)

	for i := 0; i < k; i++ {
		if got := f.bits.PopCount(i); got != 1 {
			t.Errorf("slice %d: popcount = %d, want 1", i, got)
		}
	}
	for i := k; i < k+l; i++ {
		if got := f.bits.PopCount(i); got != 0 {
			t.Errorf("slice %d: popcount = %d, want 0", i, got)
		}
	}
}

// S2 — rotation boundary: after exactly g insertions p has not moved;
// the (g+1)-th insertion triggers the rotation.
func TestRotationBoundary(t *testing.T) {
	const k, l, m = 10, 20, 256
	f := newDeterministic(k, l, m, 1, 2)

	prng := rand.New(rand.NewPCG(0, 0))
	for i := uint64(0); i < f.g; i++ {
		f.InsertUint64(prng.Uint64())
	}
	if f.p != 0 {
		t.Fatalf("after g insertions: p = %d, want 0", f.p)
	}
	if f.n != f.g {
		t.Fatalf("after g insertions: n = %d, want %d", f.n, f.g)
	}

	f.InsertUint64(prng.Uint64())
	if want := k + l - 1; f.p != want {
		t.Fatalf("after g+1 insertions: p = %d, want %d", f.p, want)
	}
	if f.n != 1 {
		t.Fatalf("after g+1 insertions: n = %d, want 1", f.n)
	}
}

// S3 — immediate recall.
func TestContainsImmediately(t *testing.T) {
	f := newDeterministic(10, 20, 64, 3, 5)
	f.InsertUint64(42)
	if !f.ContainsUint64(42) {
		t.Fatal("contains(42) = false immediately after insert")
	}
}

// S4 — window retention: a value inserted into an empty filter is
// still recalled after any number of insertions up to and including
// window() subsequent insertions.
func TestContainsWithinWindow(t *testing.T) {
	f := newDeterministic(10, 20, 64, 9, 13)
	f.InsertUint64(42)

	prng := rand.New(rand.NewPCG(1, 1))
	w := f.Window()
	for i := uint64(0); i < w; i++ {
		f.InsertUint64(prng.Uint64())
		if !f.ContainsUint64(42) {
			t.Fatalf("contains(42) = false after %d/%d window insertions", i+1, w)
		}
	}
}

// S5 — forgetting after window + slack.
func TestForgetsAfterWindowPlusSlack(t *testing.T) {
	f := newDeterministic(10, 20, 64, 21, 31)
	f.InsertUint64(42)

	prng := rand.New(rand.NewPCG(2, 2))
	total := f.Window() + f.Slack()
	for i := uint64(0); i < total; i++ {
		f.InsertUint64(prng.Uint64())
	}

	if f.ContainsUint64(42) {
		t.Fatal("contains(42) = true after window+slack insertions, want forgotten")
	}
}

// S6 — empty filter reports no false positives; a freshly constructed
// filter holds only zero bits, so the slice-walk can never assemble k
// consecutive hits.
func TestEmptyFilterAllNegative(t *testing.T) {
	f := newDeterministic(10, 20, 256, 42, 99)
	prng := rand.New(rand.NewPCG(3, 3))

	for i := 0; i < 200; i++ {
		v := prng.Uint64()
		if f.ContainsUint64(v) {
			t.Fatalf("empty filter reported contains(%d) = true", v)
		}
	}
}

// Insertion idempotence: inserting the same value twice within a
// generation sets no new bits the second time.
func TestInsertIdempotentOnBits(t *testing.T) {
	const k, l, m = 10, 20, 256
	f := newDeterministic(k, l, m, 123, 456)

	f.InsertUint64(42)
	var before [k]int
	for i := 0; i < k; i++ {
		before[i] = f.bits.PopCount(i)
	}

	f.InsertUint64(42)
	for i := 0; i < k; i++ {
		if got := f.bits.PopCount(i); got != before[i] {
			t.Errorf("slice %d: popcount changed from %d to %d on duplicate insert", i, before[i], got)
		}
	}
}

// Configuration identities: window() = l*generation(), slack() =
// k*generation(), generation() = floor(m*ln2/k).
func TestConfigurationIdentities(t *testing.T) {
	cases := []struct {
		k, l, m int
		g       uint64 // floor(m*ln2/k)
	}{
		{10, 20, 256, 17},
		{10, 20, 64, 4},
		{14, 11, 1024, 50},
		{1, 1, 1, 0},
	}

	for _, c := range cases {
		f := New(c.k, c.l, c.m)
		g := f.Generation()

		if g != c.g {
			t.Errorf("k=%d l=%d m=%d: Generation() = %d, want %d", c.k, c.l, c.m, g, c.g)
		}

		if want := uint64(c.l) * g; f.Window() != want {
			t.Errorf("k=%d l=%d m=%d: Window() = %d, want %d", c.k, c.l, c.m, f.Window(), want)
		}
		if want := uint64(c.k) * g; f.Slack() != want {
			t.Errorf("k=%d l=%d m=%d: Slack() = %d, want %d", c.k, c.l, c.m, f.Slack(), want)
		}
	}
}

func TestNewPanicsOnBadConfig(t *testing.T) {
	cases := []struct{ k, l, m int }{
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}

	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("k=%d l=%d m=%d: expected panic", c.k, c.l, c.m)
				}
			}()
			New(c.k, c.l, c.m)
		}()
	}
}

func TestStringAndByteKeysAgree(t *testing.T) {
	f := newDeterministic(10, 20, 64, 5, 7)
	f.InsertString("hello")
	if !f.Contains([]byte("hello")) {
		t.Fatal("InsertString then Contains([]byte) disagree")
	}
	if !f.ContainsString("hello") {
		t.Fatal("ContainsString disagrees with InsertString")
	}
}
