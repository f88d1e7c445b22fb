package neighbor

import (
	"sync"
	"testing"
)

// Scenario 1 (spec §8): simple insert and cap.
func TestSetInsertAndCap(t *testing.T) {
	oracle := euclidean1D()
	s := NewSet(0, 2, oracle)

	if err := s.Insert(1, -1); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	if err := s.Insert(2, -2); err != nil {
		t.Fatalf("insert 2: %v", err)
	}
	if s.Size() != 2 {
		t.Fatalf("size after two inserts = %d, want 2", s.Size())
	}

	if err := s.Insert(3, -3); err != nil {
		t.Fatalf("insert 3: %v", err)
	}
	if s.Size() != 1 {
		t.Fatalf("size after eviction pass = %d, want 1", s.Size())
	}
	if !s.Contains(1) {
		t.Fatal("expected sole neighbor to be node 1")
	}
	assertUniversalInvariants(t, s)
}

// Scenario 2 (spec §8): insertDiverse on a ring.
func TestSetInsertDiverseRing(t *testing.T) {
	oracle := ringOracle()
	s := NewSet(7, 3, oracle)
	natural := descendingCandidates(7, oracle, []Node{0, 1, 2, 3, 4, 5, 6, 8, 9})

	if err := s.InsertDiverse(natural, NewArray(0)); err != nil {
		t.Fatalf("InsertDiverse: %v", err)
	}
	if s.Size() != 2 || !s.Contains(6) || !s.Contains(8) {
		t.Fatalf("final state = %v, want exactly {6,8}", snapshotNodes(s))
	}
	assertUniversalInvariants(t, s)
}

// Scenario 3 (spec §8): insertDiverse with a split candidate list.
func TestSetInsertDiverseSplitCandidates(t *testing.T) {
	oracle := ringOracle()
	s := NewSet(7, 3, oracle)
	natural := descendingCandidates(7, oracle, []Node{0, 1, 2, 3, 4, 5, 6})
	concurrent := descendingCandidates(7, oracle, []Node{8, 9})

	if err := s.InsertDiverse(natural, concurrent); err != nil {
		t.Fatalf("InsertDiverse: %v", err)
	}
	if s.Size() != 2 || !s.Contains(6) || !s.Contains(8) {
		t.Fatalf("final state = %v, want exactly {6,8}", snapshotNodes(s))
	}
	assertUniversalInvariants(t, s)
}

func TestSetInsertRejectsOwner(t *testing.T) {
	s := NewSet(0, 2, euclidean1D())
	if err := s.Insert(0, 1); err != ErrOwnerAsNeighbor {
		t.Fatalf("err = %v, want ErrOwnerAsNeighbor", err)
	}
}

func TestSetBacklinkForwardsToOther(t *testing.T) {
	oracle := euclidean1D()
	a := NewSet(0, 2, oracle)
	b := NewSet(1, 2, oracle)

	if err := a.Backlink(b, -1); err != nil {
		t.Fatalf("Backlink: %v", err)
	}
	if !b.Contains(0) {
		t.Fatal("expected b to contain owner of a after backlink")
	}
}

func TestSetIteratorSnapshotsDescending(t *testing.T) {
	oracle := euclidean1D()
	s := NewSet(0, 5, oracle)
	for _, n := range []Node{3, 1, 2} {
		if err := s.Insert(n, Score(-int(n))); err != nil {
			t.Fatalf("insert %d: %v", n, err)
		}
	}
	it := s.Iterator()
	var last Score = 1 << 30
	count := 0
	for {
		_, sc, ok := it.Next()
		if !ok {
			break
		}
		if sc > last {
			t.Fatalf("iterator not descending at position %d", count)
		}
		last = sc
		count++
	}
	if count != s.Size() {
		t.Fatalf("iterator yielded %d entries, want %d", count, s.Size())
	}
}

func snapshotNodes(s *Set) []Node {
	cur := s.GetCurrent()
	out := make([]Node, cur.Size())
	for i := range out {
		out[i], _ = cur.NodeAt(i)
	}
	return out
}

func assertUniversalInvariants(t *testing.T, s *Set) {
	t.Helper()
	cur := s.GetCurrent()
	if cur.Size() > s.MaxDegree() {
		t.Fatalf("degree cap violated: size %d > max %d", cur.Size(), s.MaxDegree())
	}
	seen := make(map[Node]bool, cur.Size())
	for i := 0; i < cur.Size(); i++ {
		n, _ := cur.NodeAt(i)
		if n == s.Owner() {
			t.Fatalf("owner-exclusion violated: owner %d present", n)
		}
		if seen[n] {
			t.Fatalf("uniqueness violated: node %d repeated", n)
		}
		seen[n] = true
		if i+1 < cur.Size() {
			si, _ := cur.ScoreAt(i)
			sj, _ := cur.ScoreAt(i + 1)
			if si < sj {
				t.Fatalf("sortedness violated at %d: %v < %v", i, si, sj)
			}
		}
	}
}

// Concurrency test (spec §8): N goroutines insert disjoint node ranges into
// the same Set; after quiescence every universal invariant must hold, and
// any proposed node missing from the final state must be explainable by the
// diversity rule against a neighbor that is present.
func TestSetConcurrentInsertMaintainsInvariants(t *testing.T) {
	oracle := euclidean1D()
	s := NewSet(1000, 4, oracle)

	const workers = 16
	const perWorker = 8
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				node := Node(base*perWorker + i + 1)
				score := Score(-int(node))
				if err := s.Insert(node, score); err != nil {
					t.Errorf("insert %d: %v", node, err)
				}
			}
		}(w)
	}
	wg.Wait()

	assertUniversalInvariants(t, s)

	cur := s.GetCurrent()
	kept := make(map[Node]bool, cur.Size())
	for i := 0; i < cur.Size(); i++ {
		n, _ := cur.NodeAt(i)
		kept[n] = true
	}
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			node := Node(w*perWorker + i + 1)
			if kept[node] {
				continue
			}
			// Must be non-diverse against some kept neighbor closer to it
			// than the owner is (the only reason Insert's eviction pass
			// would have dropped it).
			explained := false
			for n := range kept {
				dist := func(a, b Node) float64 {
					if a > b {
						return float64(a - b)
					}
					return float64(b - a)
				}
				scoreOwnerNode := -dist(1000, node)
				scoreNeighborNode := -dist(n, node)
				if scoreNeighborNode > scoreOwnerNode {
					explained = true
					break
				}
			}
			if !explained && len(kept) > 0 {
				t.Fatalf("node %d missing with no diversity explanation against kept set %v", node, snapshotNodes(s))
			}
		}
	}
}
