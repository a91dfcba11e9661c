// Package pathnode implements KmerPathNode and KmerPathSubnode: the
// compressed, position-interval-tagged chains of k-mers that the positional
// de Bruijn graph is built from.
package pathnode

import (
	"fmt"
)

// Handle is a dense, process-local identifier for a Node allocated from an
// Arena. Handles are never reused once assigned, even after the Node they
// name is removed - removal only tombstones the arena slot.
//
// This mirrors the LocalID/GlobalID split common in arena-backed graph
// structures: Handle is for hot-path adjacency and memoization bookkeeping,
// never serialized or compared across Arena instances.
type Handle uint32

// Arena owns the backing storage for all live and tombstoned path nodes
// produced during one assembler run. Nodes never move once allocated, so a
// Handle remains valid (though possibly tombstoned) for the Arena's
// lifetime.
type Arena struct {
	nodes []*Node
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc creates a new Node from the given kmer/weight run and position
// interval, assigns it a fresh Handle, and returns it. The node is not
// inserted into any graph index by this call.
func (a *Arena) Alloc(kmers []Kmer, weights []int, firstStart, firstEnd int, isReference bool, collapsedKmers []Kmer) (*Node, error) {
	if len(kmers) != len(weights) {
		return nil, fmt.Errorf("pathnode: kmers len %d != weights len %d", len(kmers), len(weights))
	}
	if len(kmers) == 0 {
		return nil, fmt.Errorf("pathnode: node must have at least one kmer")
	}
	if firstStart > firstEnd {
		return nil, fmt.Errorf("pathnode: firstStart %d > firstEnd %d", firstStart, firstEnd)
	}
	n := &Node{
		handle:         Handle(len(a.nodes)),
		arena:          a,
		kmers:          append([]Kmer(nil), kmers...),
		weights:        append([]int(nil), weights...),
		firstStart:     firstStart,
		firstEnd:       firstEnd,
		isReference:    isReference,
		collapsedKmers: append([]Kmer(nil), collapsedKmers...),
	}
	a.nodes = append(a.nodes, n)
	return n, nil
}

// Get returns the Node for h, or nil if h is out of range. The returned
// Node may be tombstoned; check Node.Removed().
func (a *Arena) Get(h Handle) *Node {
	if int(h) < 0 || int(h) >= len(a.nodes) {
		return nil
	}
	return a.nodes[h]
}

// Len returns the total number of nodes ever allocated, live or tombstoned.
func (a *Arena) Len() int {
	return len(a.nodes)
}
