// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command apbfdemo reads newline-delimited keys from stdin and reports,
// for each one, whether an age-partitioned Bloom filter recognizes it
// as a repeat within the configured retention window. It is a minimal
// driver for the streaming-dedup use case the apbf package targets:
// recent-event deduplication, recent-request caches, sliding-window
// reachability checks.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-apbf/apbf"
)

func main() {
	log.SetFlags(0)

	k := flag.Int("k", 10, "slices touched per insertion")
	l := flag.Int("l", 20, "additional retention slices")
	m := flag.Int("m", 1<<16, "bits per slice")
	quiet := flag.Bool("quiet", false, "suppress per-line output, print only the summary")
	flag.Parse()

	f := apbf.New(*k, *l, *m)
	log.Printf("apbf: k=%d l=%d m=%d window=%d slack=%d generation=%d",
		*k, *l, *m, f.Window(), f.Slack(), f.Generation())

	var total, repeats uint64
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		total++
		seen := f.ContainsString(line)
		if seen {
			repeats++
		}
		if !*quiet {
			fmt.Printf("%s\trepeat=%t\n", line, seen)
		}
		f.InsertString(line)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("apbf: reading stdin: %v", err)
	}

	log.Printf("apbf: %d lines, %d flagged as repeats within the window", total, repeats)
}
