// Command graphbench builds and queries an hnswcore graph from randomly
// generated vectors, for quick manual exercise and rough throughput
// numbers. It is a demo harness, not a benchmark suite with statistical
// rigor (see internal/graph's package tests for correctness coverage).
package main

import "github.com/riftborne/hnswcore/cmd/graphbench/cmd"

func main() {
	cmd.Execute()
}
