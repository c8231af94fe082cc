// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package apbf provides an Age-Partitioned Bloom Filter (APBF): a
// probabilistic set-membership structure that, unlike a classical Bloom
// filter, forgets old insertions implicitly while guaranteeing no false
// negatives for any value inserted within a bounded sliding window.
//
// An APBF is parameterized by three integers fixed at construction:
//
//   - k: number of slices touched per insertion, dominates the false
//     positive rate.
//   - l: number of additional slices forming the guaranteed retention
//     window.
//   - m: bit width of each slice.
//
// The backing storage is k+l equal-width bit slices over one contiguous
// array. Insertion fills k slices and advances a generation counter;
// once a generation fills up, the oldest slice is recycled as the
// newest one (the "rotation"), so memory use never grows with the
// number of insertions. Membership queries walk the slices from the
// retention boundary inward, looking for k consecutive hits.
//
// This makes APBF suited to streaming workloads where the live key set
// turns over continuously and a fixed memory footprint with
// time-indexed aging is required: deduplication of recent events,
// recent-request caches, sliding-window reachability checks.
//
// An APBF is not safe for concurrent mutation; see the [APBF] doc
// comment for the exact sharing rules. It never persists or serializes
// its state, never deletes individual keys, and never estimates
// cardinality or auto-tunes its false positive rate — callers who need
// those need a different structure.
package apbf
