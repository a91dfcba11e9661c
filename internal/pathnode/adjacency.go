package pathnode

import "github.com/cbrueffer/gridss/internal/kmer"

// OverlapsClosed reports whether the closed intervals [a1,a2] and [b1,b2]
// intersect.
func OverlapsClosed(a1, a2, b1, b2 int) bool {
	return a1 <= b2 && b1 <= a2
}

// IsAdjacent reports whether an edge (u,v) exists: v's first kmer is a
// one-base extension of u's last kmer, and their position intervals
// overlap after the unit shift implied by that extension.
func IsAdjacent(u, v *Node, k int) bool {
	if !kmer.IsOneBaseExtension(u.LastKmer(), v.FirstKmer(), k) {
		return false
	}
	return OverlapsClosed(u.LastStart()+1, u.LastEnd()+1, v.FirstStart(), v.FirstEnd())
}
