package neighbor

// PlatformConstants carries the platform-dependent sizes a footprint
// estimate needs: how many bytes a reference (pointer/slice-header word)
// costs, and how many bytes of fixed overhead a Go slice header itself
// carries before counting backing-array bytes. Callers normally fill this
// in once from runtime/unsafe probing (see the memacct package) and reuse
// it across every Footprint call.
type PlatformConstants struct {
	ReferenceWidth   int64 // bytes per pointer-sized reference
	ArrayHeaderWidth int64 // bytes of fixed overhead per slice header
}

// Footprint estimates the byte footprint of s, inclusive of its currently
// installed array (spec §6's "memory-accounting reporter"). It counts:
//
//   - three of the Set struct's fixed fields (owner, maxDegree, the atomic
//     pointer: ReferenceWidth for the pointer plus 16 bytes for the two
//     scalar fields); the oracle and filter fields are not counted;
//   - the current Concurrent's two slice headers (ArrayHeaderWidth each);
//   - the backing arrays sized by *capacity*, not size — arrays installed
//     by the diversity filter are allocated with capacity maxDegree however
//     few entries were kept, and any amortized-doubling headroom from Array
//     growth is real resident memory, so both are counted.
func (s *Set) Footprint(consts PlatformConstants) int64 {
	cur := s.current.Load()
	fixed := consts.ReferenceWidth + 2*8 // atomic pointer + owner(uint32) + maxDegree(int), word-rounded
	headers := 2 * consts.ArrayHeaderWidth
	nodeBytes := int64(cur.Capacity()) * 4  // Node is uint32
	scoreBytes := int64(cur.Capacity()) * 4 // Score is float32
	return fixed + headers + nodeBytes + scoreBytes
}
