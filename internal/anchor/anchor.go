// Package anchor implements greedy reference-anchor extension of a
// called contig and the repeat-k-mer misassembly fix applied before
// extension.
package anchor

import (
	"github.com/cbrueffer/gridss/internal/evidence"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// ExtendTarget returns max(contigLength, maxAnchorLength), the number of
// bases each end attempts to extend to.
func ExtendTarget(contigLength, maxAnchorLength int) int {
	if contigLength > maxAnchorLength {
		return contigLength
	}
	return maxAnchorLength
}

// Extend greedily walks forward and backward adjacency from contig's
// ends, preferring the next-hop with the higher total weight over the
// overlap interval (ties broken by earlier FirstStart), until it has
// accumulated targetLength bases of reference-supported extension or runs
// out of reference adjacency. The caller (internal/assembler) is
// responsible for having already advanced the underlying input far
// enough that the relevant adjacency exists in arena. It does not mutate
// contig; it returns the extended subnode sequences for each end, in
// traversal order (forward: nearest-to-contig first; backward likewise).
func Extend(arena *pathnode.Arena, contig pathnode.Contig, targetLength int) (forward, backward []pathnode.Subnode) {
	if len(contig) == 0 {
		return nil, nil
	}
	forward = extendDirection(arena, contig[len(contig)-1].Node(), targetLength, true)
	backward = extendDirection(arena, contig[0].Node(), targetLength, false)
	return forward, backward
}

func extendDirection(arena *pathnode.Arena, start *pathnode.Node, targetLength int, goForward bool) []pathnode.Subnode {
	var out []pathnode.Subnode
	current := start
	accumulated := 0
	visited := map[pathnode.Handle]bool{start.Handle(): true}

	for accumulated < targetLength {
		next := bestReferenceHop(arena, current, goForward, visited)
		if next == nil {
			break
		}
		visited[next.Handle()] = true

		remaining := targetLength - accumulated
		if next.Length() > remaining {
			out = append(out, trimToLength(next, remaining, goForward))
			break
		}
		out = append(out, pathnode.WholeNode(next))
		accumulated += next.Length()
		current = next
	}
	return out
}

// trimToLength clips a hop that would overshoot targetLength down to
// exactly length kmers, so AnchorBaseCount never exceeds targetLength.
// A forward hop keeps the bases nearest the contig (the head) and drops
// the tail; a backward hop keeps the bases nearest the contig (the tail,
// since a node's own kmer order always runs in increasing genomic
// position regardless of traversal direction) and drops the head.
func trimToLength(n *pathnode.Node, length int, goForward bool) pathnode.Subnode {
	if goForward {
		return pathnode.NewSubnode(n, 0, length-1)
	}
	return pathnode.NewSubnode(n, n.Length()-length, n.Length()-1)
}

// bestReferenceHop returns the reference-supported neighbour of current
// (in the requested direction) with the highest total weight, excluding
// already-visited handles to avoid looping on a repeat. Ties are broken
// by earlier FirstStart.
func bestReferenceHop(arena *pathnode.Arena, current *pathnode.Node, goForward bool, visited map[pathnode.Handle]bool) *pathnode.Node {
	var candidates []pathnode.Handle
	if goForward {
		candidates = current.Next()
	} else {
		candidates = current.Prev()
	}

	var best *pathnode.Node
	var bestWeight int
	for _, h := range candidates {
		if visited[h] {
			continue
		}
		n := arena.Get(h)
		if n == nil || n.Removed() || !n.IsReference() {
			continue
		}
		w := n.WeightSum(0, n.Length()-1)
		if best == nil || w > bestWeight || (w == bestWeight && n.FirstStart() < best.FirstStart()) {
			best = n
			bestWeight = w
		}
	}
	return best
}

// HasRepeatedKmer reports whether contig revisits any k-mer (primary or
// collapsed) across its subnodes.
func HasRepeatedKmer(contig pathnode.Contig) bool {
	seen := make(map[pathnode.Kmer]bool)
	for _, sub := range contig {
		for _, km := range sub.Kmers() {
			if seen[km] {
				return true
			}
			seen[km] = true
		}
		for _, km := range sub.Node().CollapsedKmers() {
			if seen[km] {
				return true
			}
			seen[km] = true
		}
	}
	return false
}

// FixRepeat partitions support among a repeated k-mer's occurrences by
// which occurrence each evidence item's cells best match (the occurrence
// whose position is nearest the evidence's support cell), then
// reconstructs a corrected subnode sequence keeping only subnodes whose
// k-mers all belong to the dominant (most-voted) occurrence. Returns
// ok=false if the correction would empty the contig.
func FixRepeat(contig pathnode.Contig, support map[evidence.ID]*evidence.KmerEvidence) (pathnode.Contig, bool) {
	occurrences := kmerOccurrences(contig)
	if len(occurrences) == 0 {
		return contig, true
	}

	votes := make(map[pathnode.Kmer]map[int]int) // kmer -> occurrence index -> evidence vote count
	for _, e := range support {
		for _, sn := range e.Nodes {
			occs, ok := occurrences[sn.Kmer]
			if !ok {
				continue
			}
			best, bestDist := -1, -1
			for i, pos := range occs {
				d := intervalDistance(sn, pos)
				if best == -1 || d < bestDist {
					best, bestDist = i, d
				}
			}
			if best >= 0 {
				if votes[sn.Kmer] == nil {
					votes[sn.Kmer] = make(map[int]int)
				}
				votes[sn.Kmer][best]++
			}
		}
	}

	dominant := make(map[pathnode.Kmer]int)
	for km, occVotes := range votes {
		best, bestCount := 0, -1
		for occIdx, count := range occVotes {
			if count > bestCount {
				best, bestCount = occIdx, count
			}
		}
		dominant[km] = best
	}

	var fixed pathnode.Contig
	occSeen := make(map[pathnode.Kmer]int)
	for _, sub := range contig {
		keep := true
		for _, km := range sub.Kmers() {
			idx := occSeen[km]
			occSeen[km]++
			if d, ok := dominant[km]; ok && d != idx {
				keep = false
				break
			}
		}
		if keep {
			fixed = append(fixed, sub)
		}
	}
	if len(fixed) == 0 {
		return nil, false
	}
	return fixed, true
}

func kmerOccurrences(contig pathnode.Contig) map[pathnode.Kmer][]int {
	occurrences := make(map[pathnode.Kmer][]int)
	for _, sub := range contig {
		for off, km := range sub.Kmers() {
			occurrences[km] = append(occurrences[km], sub.FirstStart()+off)
		}
	}
	for km, positions := range occurrences {
		if len(positions) < 2 {
			delete(occurrences, km)
		}
	}
	return occurrences
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// intervalDistance returns how far pos sits from sn's closed [Start,End]
// support interval: zero if pos falls within it, otherwise the distance
// to the nearer edge.
func intervalDistance(sn evidence.SupportNode, pos int) int {
	if sn.Overlaps(pos) {
		return 0
	}
	if pos < sn.Start {
		return sn.Start - pos
	}
	return pos - sn.End
}
