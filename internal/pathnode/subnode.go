package pathnode

import "github.com/cbrueffer/gridss/internal/kmer"

// Subnode is a KmerPathSubnode: a view of a Node restricted to a
// sub-interval of its offsets. A contig is an ordered slice of Subnodes
// whose concatenation forms a connected path in the graph.
type Subnode struct {
	node *Node
	// from/to are inclusive 0-based offsets into node's kmer/weight arrays.
	from, to int
}

// NewSubnode returns a view of n restricted to offsets [from,to] inclusive.
func NewSubnode(n *Node, from, to int) Subnode {
	return Subnode{node: n, from: from, to: to}
}

// WholeNode returns a Subnode spanning the entire node.
func WholeNode(n *Node) Subnode {
	return Subnode{node: n, from: 0, to: n.Length() - 1}
}

// Node returns the underlying Node.
func (s Subnode) Node() *Node { return s.node }

// Length returns the number of kmers this subnode covers.
func (s Subnode) Length() int { return s.to - s.from + 1 }

// FirstStart/FirstEnd/LastStart/LastEnd return the position interval of
// this subnode's first/last kmer, shifted by its starting offset.
func (s Subnode) FirstStart() int { return s.node.firstStart + s.from }
func (s Subnode) FirstEnd() int   { return s.node.firstEnd + s.from }
func (s Subnode) LastStart() int  { return s.node.firstStart + s.to }
func (s Subnode) LastEnd() int    { return s.node.firstEnd + s.to }

// Weight returns the total weight of this subnode's kmers.
func (s Subnode) Weight() int {
	return s.node.WeightSum(s.from, s.to)
}

// Kmers returns the kmers covered by this subnode, in order.
func (s Subnode) Kmers() []Kmer {
	return s.node.kmers[s.from : s.to+1]
}

// Weights returns the per-offset weights covered by this subnode.
func (s Subnode) Weights() []int {
	return s.node.weights[s.from : s.to+1]
}

// Contig is an ordered sequence of Subnodes forming a connected path: each
// consecutive pair must satisfy IsAdjacent between the underlying nodes
// (enforced by callers, not by this type).
type Contig []Subnode

// FirstStart returns the firstStart of the contig's first subnode.
func (c Contig) FirstStart() int {
	if len(c) == 0 {
		return 0
	}
	return c[0].FirstStart()
}

// LastEnd returns the lastEnd of the contig's final subnode.
func (c Contig) LastEnd() int {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].LastEnd()
}

// Length returns the total number of kmers across all subnodes.
func (c Contig) Length() int {
	total := 0
	for _, s := range c {
		total += s.Length()
	}
	return total
}

// Weight returns the total weight across all subnodes.
func (c Contig) Weight() int {
	total := 0
	for _, s := range c {
		total += s.Weight()
	}
	return total
}

// BaseCalls reconstructs the nucleotide sequence spanned by a contig's
// kmer chain: the full first kmer, then one base per subsequent kmer (the
// base each new kmer appends).
func BaseCalls(kmers []Kmer, k int) []byte {
	if len(kmers) == 0 {
		return nil
	}
	bases := make([]byte, 0, k+len(kmers)-1)
	bases = append(bases, kmer.Decode(kmers[0], k)...)
	for i := 1; i < len(kmers); i++ {
		decoded := kmer.Decode(kmers[i], k)
		bases = append(bases, decoded[k-1])
	}
	return bases
}
