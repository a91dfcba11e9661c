package assembler

import (
	"github.com/cbrueffer/gridss/internal/evidence"
	"github.com/cbrueffer/gridss/internal/metrics"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// removeNodeWeight subtracts one unit of weight at each graph cell whose
// position is covered by one of support's evidence intervals, per
// §4.4's node weight removal rule, then applies whatever split/mutation
// results.
func (as *Assembler) removeNodeWeight(contig pathnode.Contig, support map[evidence.ID]*evidence.KmerEvidence) {
	counts := make(map[*pathnode.Node]map[int]int)
	for _, e := range support {
		for _, sn := range e.Nodes {
			for _, ref := range as.graph.LookupByKmer(sn.Kmer) {
				if ref.Offset < 0 || ref.Node.Removed() {
					continue
				}
				if !sn.Overlaps(ref.Node.FirstStart() + ref.Offset) {
					continue
				}
				if counts[ref.Node] == nil {
					counts[ref.Node] = make(map[int]int)
				}
				counts[ref.Node][ref.Offset]++
			}
		}
	}
	for node, offsetCounts := range counts {
		removeCounts := make([]int, node.Length())
		for off, c := range offsetCounts {
			removeCounts[off] = c
		}
		as.applyRemoveWeight(node, removeCounts)
	}
}

// removeNodeWeightWholesale drains every cell of contig's nodes
// entirely, used by misassembly detection when a contig's evidence must
// be discarded outright rather than one unit at a time.
func (as *Assembler) removeNodeWeightWholesale(contig pathnode.Contig) {
	for _, sub := range contig {
		node := sub.Node()
		removeCounts := make([]int, node.Length())
		for off := 0; off < node.Length(); off++ {
			removeCounts[off] = node.Weight(off)
		}
		as.applyRemoveWeight(node, removeCounts)
	}
}

// applyRemoveWeight subtracts removeCounts from node and propagates the
// result into the graph index and both contig callers: an in-place
// mutation is re-Added to refresh its memo entry; a split removes the
// original node, rewires adjacency for the replacements, and re-inserts
// them.
func (as *Assembler) applyRemoveWeight(node *pathnode.Node, removeCounts []int) {
	changed, originalRemoved, replacements := pathnode.RemoveWeight(as.arena, node, removeCounts)
	if !changed {
		return
	}

	as.anchored.Remove([]*pathnode.Node{node})
	as.unanchored.Remove([]*pathnode.Node{node})

	if !originalRemoved {
		as.anchored.Add(node)
		as.unanchored.Add(node)
		return
	}

	as.graph.Remove(node)
	as.rewireSplit(node, replacements)
	for _, rep := range replacements {
		as.graph.ReInsert(rep)
		as.anchored.Add(rep)
		as.unanchored.Add(rep)
	}
	metrics.ActiveNodes.Set(float64(as.graph.Size()))
}

// rewireSplit re-registers adjacency for a node replaced by its
// surviving segments: the segment covering the original node's first
// offset inherits its predecessors, the segment covering its last offset
// inherits its successors. A fully drained node (no replacements) is
// simply detached from its neighbours.
func (as *Assembler) rewireSplit(old *pathnode.Node, replacements []*pathnode.Node) {
	if len(replacements) == 0 {
		for _, ph := range old.Prev() {
			if pn := as.arena.Get(ph); pn != nil {
				pn.RemoveNext(old.Handle())
			}
		}
		for _, nh := range old.Next() {
			if nn := as.arena.Get(nh); nn != nil {
				nn.RemovePrev(old.Handle())
			}
		}
		return
	}

	first := replacements[0]
	last := replacements[len(replacements)-1]

	if first.FirstStart() == old.FirstStart() {
		for _, ph := range old.Prev() {
			if pn := as.arena.Get(ph); pn != nil {
				pn.RemoveNext(old.Handle())
				pn.AddNext(first.Handle())
				first.AddPrev(ph)
			}
		}
	} else {
		for _, ph := range old.Prev() {
			if pn := as.arena.Get(ph); pn != nil {
				pn.RemoveNext(old.Handle())
			}
		}
	}

	if last.LastEnd() == old.LastEnd() {
		for _, nh := range old.Next() {
			if nn := as.arena.Get(nh); nn != nil {
				nn.RemovePrev(old.Handle())
				nn.AddPrev(last.Handle())
				last.AddNext(nh)
			}
		}
	} else {
		for _, nh := range old.Next() {
			if nn := as.arena.Get(nh); nn != nil {
				nn.RemovePrev(old.Handle())
			}
		}
	}
}
