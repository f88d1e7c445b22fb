package neighbor

import "sync/atomic"

// Set is the per-node neighbor-set façade (spec §4.6, component F): a fixed
// owner and degree cap fronting an atomically-swapped *Concurrent. Every
// mutation reads the current snapshot, builds a replacement, and installs it
// with a single compare-and-swap; readers never block and never observe a
// partially-built array (spec §5).
type Set struct {
	owner     Node
	maxDegree int
	oracle    Oracle
	filter    DiversityFilter

	current atomic.Pointer[Concurrent]
}

// NewSet creates an empty neighbor set for ownerNode, capped at maxDegree
// neighbors, scoring candidates with oracle. The zero-value DiversityFilter
// (alpha == 1, the pure RNG rule) is used; call SetFilter before the set is
// shared across goroutines to customize alpha.
func NewSet(ownerNode Node, maxDegree int, oracle Oracle) *Set {
	s := &Set{owner: ownerNode, maxDegree: maxDegree, oracle: oracle}
	s.current.Store(NewConcurrentArray(maxDegree))
	return s
}

// Owner returns the node id this set collects neighbors for.
func (s *Set) Owner() Node { return s.owner }

// MaxDegree returns the configured degree cap.
func (s *Set) MaxDegree() int { return s.maxDegree }

// SetFilter overrides the diversity filter (e.g. to set Alpha != 1). Not
// safe to call concurrently with mutators.
func (s *Set) SetFilter(f DiversityFilter) { s.filter = f }

// Size returns the number of neighbors in the current snapshot.
func (s *Set) Size() int {
	return s.current.Load().Size()
}

// Contains reports whether node is a current neighbor. O(size).
func (s *Set) Contains(node Node) bool {
	return s.current.Load().Contains(node)
}

// GetCurrent returns the currently installed snapshot, for tests and
// reporting. The returned array must be treated as read-only: it may still
// be observed by other readers and must never be mutated in place.
func (s *Set) GetCurrent() *Concurrent {
	return s.current.Load()
}

// Iterator yields node ids in descending-score order over a point-in-time
// snapshot of the set. Concurrent mutations after the iterator is created
// are not observed — spec §5's "readers dereference once" contract.
type Iterator struct {
	snapshot *Concurrent
	idx      int
}

// Iterator returns a fresh Iterator over the currently installed snapshot.
func (s *Set) Iterator() *Iterator {
	return &Iterator{snapshot: s.current.Load()}
}

// Next advances the iterator and reports whether a value was produced.
func (it *Iterator) Next() (Node, Score, bool) {
	if it.idx >= it.snapshot.Size() {
		return 0, 0, false
	}
	n, s := it.snapshot.nodes[it.idx], it.snapshot.scores[it.idx]
	it.idx++
	return n, s, true
}

// Insert performs a single-entry insertion under the degree cap (spec §4.6).
// It CAS-retries against concurrent mutators of the same owner; it never
// blocks a reader.
//
// If the insertion pushes the set's size past maxDegree, every non-diverse
// neighbor is evicted in one pass by re-running the diversity filter over
// the full sorted set — this is "re-establish diversity", not "drop the
// single worst entry", and can shrink the set well below maxDegree (spec §9
// open question, resolved this way deliberately; see scenario 1 in spec §8).
func (s *Set) Insert(node Node, score Score) error {
	if node == s.owner {
		return ErrOwnerAsNeighbor
	}
	if nonFinite(score) {
		return ErrScoreNaN
	}
	for {
		old := s.current.Load()
		// Concurrent.InsertSorted only de-duplicates within the run of
		// entries tied at the incoming score (spec §4.2) — a node already
		// present at a different score would otherwise slip past it and
		// violate the set's stronger "no two entries share a node id"
		// invariant (spec §3). Guard against that here, at full-array scope.
		if old.Contains(node) {
			return nil
		}
		candidate := old.CloneConcurrent()
		candidate.InsertSorted(node, score)

		next := candidate
		if candidate.Size() > s.maxDegree {
			kept, err := s.filter.Select(s.owner, s.maxDegree, s.oracle, candidate.Array)
			if err != nil {
				return err
			}
			next = kept
		}
		if s.current.CompareAndSwap(old, next) {
			return nil
		}
	}
}

// InsertDiverse is the build-time bulk path (spec §4.6). natural is the
// candidate list this owner's graph search produced; concurrent is the
// backlink proposals accumulated from other threads that chose owner as a
// neighbor. The two are merged (left-wins: natural over concurrent), merged
// again against whatever is currently installed (existing neighbors win over
// new proposals), diversity-filtered, and CAS-installed. Idempotent with
// respect to neighbors already present.
func (s *Set) InsertDiverse(natural, concurrent *Array) error {
	proposed := Merge(natural, concurrent)
	for {
		old := s.current.Load()
		combined := Merge(old.Array, proposed)
		kept, err := s.filter.Select(s.owner, s.maxDegree, s.oracle, combined)
		if err != nil {
			return err
		}
		if s.current.CompareAndSwap(old, kept) {
			return nil
		}
	}
}

// Backlink records the reciprocal edge: when s's owner chooses other as a
// neighbor at the given score, Backlink adds s's owner to other's set. Its
// concurrency semantics are exactly Insert's on the other side; it exists
// only for call-site clarity (spec §4.6, §9).
func (s *Set) Backlink(other *Set, score Score) error {
	return other.Insert(s.owner, score)
}
