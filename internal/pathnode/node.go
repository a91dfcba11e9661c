package pathnode

import (
	"github.com/cbrueffer/gridss/internal/kmer"
)

// Kmer re-exports kmer.Kmer so callers of this package rarely need to
// import internal/kmer directly.
type Kmer = kmer.Kmer

// Node is a KmerPathNode: a maximal linear run of consecutive k-mers
// sharing an identical support interval.
//
// Invariants: len(weights) == len(kmers) == L >= 1; firstStart <= firstEnd;
// for any two live nodes sharing the same first kmer, their firstStart
// intervals are disjoint (neither Node nor the graph index checks this).
type Node struct {
	handle Handle
	arena  *Arena

	kmers   []Kmer
	weights []int

	// firstStart/firstEnd is the inclusive position interval at which the
	// first kmer of this node can occur. The last kmer's interval is
	// [firstStart+L-1, firstEnd+L-1].
	firstStart, firstEnd int

	isReference    bool
	collapsedKmers []Kmer

	// prev/next are adjacency lists of other nodes' handles. They are
	// wired by the upstream producer (eg. internal/ingest) and rewired by
	// the assembler when a node is split or drained, not by Node itself.
	prev, next []Handle

	// generation is bumped every time RemoveWeight mutates this node's
	// weight array in place. Memoization entries in the contig caller key
	// off (handle, generation): a stale generation means "recompute."
	generation uint64

	removed bool
}

// Handle returns this node's stable arena handle.
func (n *Node) Handle() Handle { return n.handle }

// Generation returns the current mutation generation of this node.
func (n *Node) Generation() uint64 { return n.generation }

// Removed reports whether this node has been tombstoned.
func (n *Node) Removed() bool { return n.removed }

// Length returns the number of kmers (L) in this node.
func (n *Node) Length() int { return len(n.kmers) }

// IsReference reports whether this node lies entirely on the reference
// allele, and is therefore excluded from scoring.
func (n *Node) IsReference() bool { return n.isReference }

// FirstStart/FirstEnd return the position interval of the first kmer.
func (n *Node) FirstStart() int { return n.firstStart }
func (n *Node) FirstEnd() int   { return n.firstEnd }

// LastStart/LastEnd return the position interval of the last kmer:
// [firstStart+L-1, firstEnd+L-1].
func (n *Node) LastStart() int { return n.firstStart + n.Length() - 1 }
func (n *Node) LastEnd() int   { return n.firstEnd + n.Length() - 1 }

// Kmer returns the kmer at offset i (0-based, 0 is the first kmer).
func (n *Node) Kmer(i int) Kmer { return n.kmers[i] }

// FirstKmer/LastKmer return the node's first and last kmer.
func (n *Node) FirstKmer() Kmer { return n.kmers[0] }
func (n *Node) LastKmer() Kmer  { return n.kmers[len(n.kmers)-1] }

// Weight returns the weight at offset i.
func (n *Node) Weight(i int) int { return n.weights[i] }

// Kmers returns the node's kmer sequence. Callers must not mutate the
// returned slice.
func (n *Node) Kmers() []Kmer { return n.kmers }

// Weights returns the node's per-offset weights. Callers must not mutate
// the returned slice.
func (n *Node) Weights() []int { return n.weights }

// CollapsedKmers returns auxiliary kmers merged into this node by prior
// error correction; tracked only for repeat detection.
func (n *Node) CollapsedKmers() []Kmer { return n.collapsedKmers }

// Prev/Next return the handles of nodes currently linked as predecessors/
// successors. Maintained by the producer and the assembler, not the graph
// index.
func (n *Node) Prev() []Handle { return n.prev }
func (n *Node) Next() []Handle { return n.next }

// AddPrev/AddNext record a new adjacency edge. Idempotent.
func (n *Node) AddPrev(h Handle) {
	for _, p := range n.prev {
		if p == h {
			return
		}
	}
	n.prev = append(n.prev, h)
}

func (n *Node) AddNext(h Handle) {
	for _, nx := range n.next {
		if nx == h {
			return
		}
	}
	n.next = append(n.next, h)
}

// RemovePrev/RemoveNext drop an adjacency edge, if present.
func (n *Node) RemovePrev(h Handle) {
	n.prev = removeHandle(n.prev, h)
}

func (n *Node) RemoveNext(h Handle) {
	n.next = removeHandle(n.next, h)
}

func removeHandle(hs []Handle, target Handle) []Handle {
	out := hs[:0]
	for _, h := range hs {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

// WeightSum returns the sum of weights over offsets [from,to] inclusive.
func (n *Node) WeightSum(from, to int) int {
	sum := 0
	for i := from; i <= to; i++ {
		sum += n.weights[i]
	}
	return sum
}

// markRemoved tombstones the node. Called by RemoveWeight when the node is
// split or fully drained.
func (n *Node) markRemoved() { n.removed = true }

// bumpGeneration increments the mutation counter. Called whenever this
// node's weight array is mutated in place (RemoveWeight).
func (n *Node) bumpGeneration() { n.generation++ }
