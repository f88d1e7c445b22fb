// Package memacct reports the in-memory footprint of a graph: how many
// bytes its neighbor sets occupy, broken down per node and summed across
// the whole structure. It is an accounting tool, not a memory manager —
// there is no paging, eviction, or mmap here (spec.md's memory-reclamation
// Non-goal: this module relies on the Go garbage collector, never hazard
// pointers or epoch-based reclamation, so there is nothing for this
// package to reclaim).
package memacct

import (
	"runtime"
	"unsafe"

	"github.com/riftborne/hnswcore/internal/graph/neighbor"
)

// PlatformConstants are the machine-dependent sizes neighbor.Set.Footprint
// needs. Probe() derives them from the running process rather than
// hardcoding them, so footprint reports stay accurate across 32/64-bit
// builds.
type PlatformConstants = neighbor.PlatformConstants

// Probe measures the platform constants for the running process using
// unsafe.Sizeof against representative values, the same technique the
// teacher's memory package uses to size its allocation arenas.
func Probe() PlatformConstants {
	var ref uintptr
	var header struct {
		data unsafe.Pointer
		len  int
		cap  int
	}
	return PlatformConstants{
		ReferenceWidth:   int64(unsafe.Sizeof(ref)),
		ArrayHeaderWidth: int64(unsafe.Sizeof(header)),
	}
}

// GraphSource is the minimal surface memacct needs from an outer graph,
// satisfied by *graph.Graph without this package importing it (graph
// already imports neighbor; importing graph here would cycle).
type GraphSource interface {
	Range(fn func(node neighbor.Node, set *neighbor.Set) bool)
	Size() int
}

// NodeFootprint is one node's reported memory usage.
type NodeFootprint struct {
	Node  neighbor.Node
	Bytes int64
}

// Report summarizes a graph's memory footprint: the total bytes its
// neighbor sets occupy, the per-node breakdown, and the platform constants
// the measurement used.
type Report struct {
	Constants  PlatformConstants
	TotalBytes int64
	PerNode    []NodeFootprint
	NodeCount  int
	GOARCH     string
}

// Measure walks every node in g and sums neighbor.Set.Footprint over each,
// using consts (pass Probe()'s result unless testing against a fixed
// platform).
func Measure(g GraphSource, consts PlatformConstants) Report {
	report := Report{Constants: consts, GOARCH: runtime.GOARCH}
	g.Range(func(node neighbor.Node, set *neighbor.Set) bool {
		bytes := set.Footprint(consts)
		report.PerNode = append(report.PerNode, NodeFootprint{Node: node, Bytes: bytes})
		report.TotalBytes += bytes
		report.NodeCount++
		return true
	})
	return report
}

// MeanBytesPerNode returns the average per-node footprint, or 0 if the
// report covers no nodes.
func (r Report) MeanBytesPerNode() float64 {
	if r.NodeCount == 0 {
		return 0
	}
	return float64(r.TotalBytes) / float64(r.NodeCount)
}
