package neighbor

import (
	"math/rand"
	"testing"
)

func buildArray(pairs [][2]int) *Array {
	a := NewArray(len(pairs))
	for _, p := range pairs {
		a.nodes = append(a.nodes, Node(p[0]))
		a.scores = append(a.scores, Score(p[1]))
	}
	return a
}

// Scenario 6 (spec §8): merge with ties and duplicates.
func TestMergeTiesAndDuplicates(t *testing.T) {
	l := buildArray([][2]int{{3, 3}, {2, 2}, {1, 1}})
	r := buildArray([][2]int{{4, 4}, {2, 2}, {1, 1}})
	m := Merge(l, r)

	want := []Node{4, 3, 2, 1}
	if m.Size() != len(want) {
		t.Fatalf("size = %d, want %d", m.Size(), len(want))
	}
	for i, w := range want {
		n, _ := m.NodeAt(i)
		if n != w {
			t.Fatalf("index %d = %d, want %d", i, n, w)
		}
	}
}

func TestMergeBoundary(t *testing.T) {
	l := buildArray([][2]int{{3, 3}, {2, 2}})
	r := buildArray([][2]int{{2, 2}})
	m := Merge(l, r)
	want := []Node{3, 2}
	if m.Size() != len(want) {
		t.Fatalf("size = %d, want %d", m.Size(), len(want))
	}
	for i, w := range want {
		n, _ := m.NodeAt(i)
		if n != w {
			t.Fatalf("index %d = %d, want %d", i, n, w)
		}
	}
}

func TestMergeLeftWins(t *testing.T) {
	l := buildArray([][2]int{{1, 100}})
	r := buildArray([][2]int{{1, 5}, {2, 50}})
	m := Merge(l, r)

	idx := m.IndexOf(1)
	if idx < 0 {
		t.Fatal("node 1 missing from merge result")
	}
	s, _ := m.ScoreAt(idx)
	if s != 100 {
		t.Fatalf("left-wins violated: node 1 score = %v, want 100 (L's score)", s)
	}
	if !m.Contains(2) {
		t.Fatal("node 2 from R missing from merge result")
	}
}

func isSortedDescending(a *Array) bool {
	for i := 0; i+1 < a.Size(); i++ {
		si, _ := a.ScoreAt(i)
		sj, _ := a.ScoreAt(i + 1)
		if si < sj {
			return false
		}
	}
	return true
}

func idSet(a *Array) map[Node]struct{} {
	set := make(map[Node]struct{}, a.Size())
	for i := 0; i < a.Size(); i++ {
		n, _ := a.NodeAt(i)
		set[n] = struct{}{}
	}
	return set
}

// randomUniqueArray builds a descending-sorted Array of up to maxSize
// entries, node ids drawn without repetition from universe, and heavy score
// ties drawn from a tiny bucket so collisions across L and R are common.
func randomUniqueArray(r *rand.Rand, universe []Node, maxSize int) *Array {
	n := r.Intn(maxSize + 1)
	perm := r.Perm(len(universe))
	a := NewArray(n)
	type pair struct {
		node  Node
		score Score
	}
	pairs := make([]pair, 0, n)
	for i := 0; i < n && i < len(perm); i++ {
		pairs = append(pairs, pair{universe[perm[i]], Score(r.Intn(4))})
	}
	// stable-sort descending by score, preserving draw order among ties
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].score > pairs[j-1].score; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	for _, p := range pairs {
		a.nodes = append(a.nodes, p.node)
		a.scores = append(a.scores, p.score)
	}
	return a
}

func TestMergeLawsRandomized(t *testing.T) {
	r := rand.New(rand.NewSource(20260730))
	universe := []Node{0, 1, 2, 3, 4, 5, 6, 7}

	for iter := 0; iter < 10000; iter++ {
		l := randomUniqueArray(r, universe, 5)
		rr := randomUniqueArray(r, universe, 5)
		m := Merge(l, rr)

		if !isSortedDescending(m) {
			t.Fatalf("iter %d: merge result not descending-sorted: %v", iter, m.scores)
		}

		seen := make(map[Node]bool, m.Size())
		for i := 0; i < m.Size(); i++ {
			n, _ := m.NodeAt(i)
			if seen[n] {
				t.Fatalf("iter %d: duplicate node %d in merge result", iter, n)
			}
			seen[n] = true
		}

		lSet, rSet := idSet(l), idSet(rr)
		for n := range lSet {
			if !seen[n] {
				t.Fatalf("iter %d: node %d from L missing in merge", iter, n)
			}
		}
		for n := range rSet {
			if !seen[n] {
				t.Fatalf("iter %d: node %d from R missing in merge", iter, n)
			}
		}

		maxSize := l.Size()
		if rr.Size() > maxSize {
			maxSize = rr.Size()
		}
		if m.Size() < maxSize || m.Size() > l.Size()+rr.Size() {
			t.Fatalf("iter %d: size bound violated: |L|=%d |R|=%d |M|=%d", iter, l.Size(), rr.Size(), m.Size())
		}

		idem := Merge(l, l)
		if len(idSet(idem)) != len(lSet) {
			t.Fatalf("iter %d: merge(L,L) id set size %d != |L| id set %d", iter, len(idSet(idem)), len(lSet))
		}
		for n := range lSet {
			if _, ok := idSet(idem)[n]; !ok {
				t.Fatalf("iter %d: merge(L,L) missing id %d present in L", iter, n)
			}
		}
	}
}
