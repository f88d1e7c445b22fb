package memacct

import (
	"testing"

	"github.com/riftborne/hnswcore/internal/graph/neighbor"
)

type fakeGraph struct {
	sets map[neighbor.Node]*neighbor.Set
}

func (f *fakeGraph) Range(fn func(node neighbor.Node, set *neighbor.Set) bool) {
	for n, s := range f.sets {
		if !fn(n, s) {
			return
		}
	}
}

func (f *fakeGraph) Size() int { return len(f.sets) }

func TestProbeReturnsPositiveConstants(t *testing.T) {
	consts := Probe()
	if consts.ReferenceWidth <= 0 || consts.ArrayHeaderWidth <= 0 {
		t.Fatalf("consts = %+v, want positive fields", consts)
	}
}

func TestMeasureSumsAcrossNodes(t *testing.T) {
	oracle := neighbor.OracleFunc(func(neighbor.Node) neighbor.Scorer {
		return func(neighbor.Node) (neighbor.Score, error) { return 0, nil }
	})
	g := &fakeGraph{sets: map[neighbor.Node]*neighbor.Set{
		1: neighbor.NewSet(1, 8, oracle),
		2: neighbor.NewSet(2, 8, oracle),
	}}
	consts := Probe()
	report := Measure(g, consts)

	if report.NodeCount != 2 {
		t.Fatalf("NodeCount = %d, want 2", report.NodeCount)
	}
	var sum int64
	for _, nf := range report.PerNode {
		sum += nf.Bytes
	}
	if sum != report.TotalBytes {
		t.Fatalf("per-node sum %d != TotalBytes %d", sum, report.TotalBytes)
	}
	if report.MeanBytesPerNode() != float64(report.TotalBytes)/2 {
		t.Fatalf("MeanBytesPerNode wrong")
	}
}

func TestMeasureEmptyGraph(t *testing.T) {
	g := &fakeGraph{sets: map[neighbor.Node]*neighbor.Set{}}
	report := Measure(g, Probe())
	if report.MeanBytesPerNode() != 0 {
		t.Fatalf("MeanBytesPerNode on empty graph = %v, want 0", report.MeanBytesPerNode())
	}
}
