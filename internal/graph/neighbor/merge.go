package neighbor

import "sort"

// Merge deduplicates and combines two descending-sorted Arrays into a new
// descending-sorted Array (spec §4.4, component D). It assumes each input is
// individually free of internal duplicate node ids — true of any NeighborArray
// produced by the diversity filter or by a ConcurrentNeighborArray — and
// guarantees:
//
//   - every node id present in L or R appears exactly once in the result;
//   - when a node id is present in both, the result carries L's score
//     ("existing neighbors win over new proposals", left-wins);
//   - max(|L|, |R|) <= |result| <= |L| + |R|;
//   - the result is descending-sorted.
//
// Ties among distinct node ids are broken by source order (L before R,
// earlier entries before later ones within a list) so the result is
// reproducible for identical inputs.
func Merge(l, r *Array) *Array {
	type pair struct {
		node  Node
		score Score
	}

	index := make(map[Node]int, l.Size()+r.Size())
	entries := make([]pair, 0, l.Size()+r.Size())

	for i := 0; i < l.Size(); i++ {
		n, s := l.nodes[i], l.scores[i]
		if _, ok := index[n]; !ok {
			index[n] = len(entries)
			entries = append(entries, pair{n, s})
		}
	}
	for i := 0; i < r.Size(); i++ {
		n, s := r.nodes[i], r.scores[i]
		if _, ok := index[n]; !ok {
			index[n] = len(entries)
			entries = append(entries, pair{n, s})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	out := NewArray(len(entries))
	for _, e := range entries {
		out.nodes = append(out.nodes, e.node)
		out.scores = append(out.scores, e.score)
	}
	return out
}

// MergeConcurrent merges l and r the same way as Merge, but returns a
// *Concurrent — the form Set.insertDiverse needs before handing the result
// to the diversity filter.
func MergeConcurrent(l, r *Array) *Concurrent {
	return &Concurrent{Array: Merge(l, r)}
}
