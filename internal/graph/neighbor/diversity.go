package neighbor

import "math"

// DiversityFilter realizes the Vamana / RNG-alpha pruning rule (spec §4.5,
// component E): a candidate edge (owner, c) survives only if no already-kept
// neighbor n lies strictly closer to c than owner does.
//
// Alpha generalizes the strict "score(n, c) > score(owner, c)" rejection
// test to "score(n, c) > Alpha * score(owner, c)" (spec §9). The zero value
// behaves as Alpha == 1, the pure RNG rule.
type DiversityFilter struct {
	Alpha float32
}

func (f DiversityFilter) alpha() float32 {
	if f.Alpha == 0 {
		return 1
	}
	return f.Alpha
}

// Select keeps the RNG-diverse prefix of candidates, in descending score
// order, up to maxDegree entries. candidates must already be descending-
// sorted, deduplicated, and free of owner itself. Select checks only the
// last, returning ErrOwnerAsNeighbor for an owner entry it reaches before the
// cap; ordering and duplicate node ids are not checked.
//
// Iteration is in candidates' source order, so among candidates tied at the
// same score the earlier one (by C's order) wins a slot — this is the
// "earlier-inserted ones win" stability spec.md §4.5 calls for.
func (f DiversityFilter) Select(owner Node, maxDegree int, oracle Oracle, candidates *Array) (*Concurrent, error) {
	alpha := f.alpha()
	kept := NewConcurrentArray(maxDegree)

	for i := 0; i < candidates.Size(); i++ {
		if kept.Size() == maxDegree {
			break
		}
		c := candidates.nodes[i]
		sOC := candidates.scores[i]
		if c == owner {
			return nil, ErrOwnerAsNeighbor
		}
		if nonFinite(sOC) {
			return nil, ErrScoreNaN
		}

		diverse := true
		for j := 0; j < kept.Size(); j++ {
			n := kept.nodes[j]
			sNC, err := oracle.For(n)(c)
			if err != nil {
				return nil, err
			}
			if nonFinite(sNC) {
				return nil, ErrScoreNaN
			}
			if sNC > alpha*sOC {
				diverse = false
				break
			}
		}
		if !diverse {
			continue
		}
		// candidates is sorted and we only ever append, so a plain
		// AddInOrder suffices; using InsertSorted here would be correct
		// too but wastes the scan InsertSorted performs for placement.
		if err := kept.Array.AddInOrder(c, sOC); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

func nonFinite(s Score) bool {
	f := float64(s)
	return math.IsNaN(f) || math.IsInf(f, 0)
}
