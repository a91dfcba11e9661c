package pathnode

// RemoveWeight subtracts removeCounts[i] units of weight from offset i of
// n (clamped at zero) and reports the result:
//
//   - changed is false if removeCounts was entirely zero.
//   - If no offset's weight reaches zero, the node is mutated in place (its
//     generation is bumped so memoized paths through it are invalidated)
//     and originalRemoved is false with no replacements.
//   - If one or more offsets reach zero, n must be discarded entirely
//     (originalRemoved is true) and replaced in the graph by the returned
//     replacements: new nodes allocated from arena for each maximal run of
//     still-positive offsets, each with its position interval shifted by
//     its starting offset, per the design note on node weight removal.
//
// CollapsedKmers (which are not associated with a specific offset) are
// carried onto whichever replacement segment contains offset 0, if any;
// they are dropped if that segment was the one removed.
func RemoveWeight(arena *Arena, n *Node, removeCounts []int) (changed, originalRemoved bool, replacements []*Node) {
	if len(removeCounts) != n.Length() {
		panic("pathnode: RemoveWeight count length mismatch")
	}

	newWeights := make([]int, n.Length())
	any := false
	anyZero := false
	for i, w := range n.weights {
		nw := w - removeCounts[i]
		if nw < 0 {
			nw = 0
		}
		if nw != w {
			any = true
		}
		if nw <= 0 {
			anyZero = true
		}
		newWeights[i] = nw
	}
	if !any {
		return false, false, nil
	}
	if !anyZero {
		copy(n.weights, newWeights)
		n.bumpGeneration()
		return true, false, nil
	}

	// Split into maximal runs of positive weight.
	n.markRemoved()
	replacements = make([]*Node, 0, 2)
	start := -1
	for i := 0; i <= n.Length(); i++ {
		positive := i < n.Length() && newWeights[i] > 0
		if positive && start < 0 {
			start = i
		}
		if !positive && start >= 0 {
			seg, err := arena.Alloc(
				n.kmers[start:i],
				newWeights[start:i],
				n.firstStart+start,
				n.firstEnd+start,
				n.isReference,
				collapsedFor(n, start),
			)
			if err == nil {
				replacements = append(replacements, seg)
			}
			start = -1
		}
	}
	return true, true, replacements
}

// collapsedFor returns n's collapsed kmers if the surviving segment starts
// at offset 0 (the only offset collapsedKmers can be sensibly attributed
// to), otherwise nil.
func collapsedFor(n *Node, segStart int) []Kmer {
	if segStart == 0 {
		return n.collapsedKmers
	}
	return nil
}
