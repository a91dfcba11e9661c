// Package contigcaller implements the memoized best-scoring-path search
// over the live positional de Bruijn graph: the heart of the assembler.
package contigcaller

import (
	"sort"

	"github.com/cbrueffer/gridss/internal/pathnode"
)

// AnchoredScore is the additive bonus a path receives when it terminates
// at a reference-supported node at either end, large enough that any
// reference-anchored path dominates an unanchored one of any realistic
// length.
const AnchoredScore = 1 << 30

// track distinguishes memo entries by whether the path's source node is
// reference-supported. Scoring treats the two independently because the
// anchoring bonus can be earned at either end of a path.
type track int

const (
	trackRefStart track = iota
	trackNonRefStart
	numTracks
)

type trackState struct {
	valid bool

	baseWeight int // sum of non-reference node weights along the path, no bonus
	pathLength int // number of nodes

	sourceFirstStart int
	sourceFirstKmer  pathnode.Kmer

	hasPred   bool
	predNode  pathnode.Handle
	predTrack track
}

type entry struct {
	node       *pathnode.Node
	generation uint64
	tracks     [numTracks]trackState
}

// Caller is one memoized best-path instance over a shared graph. The
// anchored and unanchored callers differ only in bonus.
type Caller struct {
	arena   *pathnode.Arena
	bonus   int
	entries map[pathnode.Handle]*entry

	// pending holds handles whose memo entry was invalidated by Remove as
	// a side effect of removing some other node, but whose underlying
	// node is still live; they are rebuilt on the next BestContig or
	// SanityCheckFrontier call rather than eagerly.
	pending map[pathnode.Handle]bool
}

// NewAnchored returns a Caller using the reference-anchoring bonus.
func NewAnchored(arena *pathnode.Arena) *Caller {
	return newCaller(arena, AnchoredScore)
}

// NewUnanchored returns a Caller scoring purely on weight (bonus of 1,
// effectively disabled as a tie-maker between anchored states).
func NewUnanchored(arena *pathnode.Arena) *Caller {
	return newCaller(arena, 1)
}

func newCaller(arena *pathnode.Arena, bonus int) *Caller {
	return &Caller{
		arena:   arena,
		bonus:   bonus,
		entries: make(map[pathnode.Handle]*entry),
		pending: make(map[pathnode.Handle]bool),
	}
}

// nodeWeight is n's contribution to a path's base weight: reference nodes
// are excluded from scoring and contribute nothing.
func nodeWeight(n *pathnode.Node) int {
	if n.IsReference() {
		return 0
	}
	return n.WeightSum(0, n.Length()-1)
}

// Add inserts n as a path source, or as an extension of every memoized
// path ending at one of n's live predecessors, whichever yields the
// higher score per track.
func (c *Caller) Add(n *pathnode.Node) {
	e := &entry{node: n, generation: n.Generation()}

	for t := track(0); t < numTracks; t++ {
		best := trackState{}

		// Extension candidates: best entry of this track among live
		// predecessors.
		for _, ph := range n.Prev() {
			pn := c.arena.Get(ph)
			if pn == nil || pn.Removed() {
				continue
			}
			pe := c.entries[ph]
			if pe == nil || pe.generation != pn.Generation() {
				continue
			}
			ps := pe.tracks[t]
			if !ps.valid {
				continue
			}
			candidate := trackState{
				valid:            true,
				baseWeight:       ps.baseWeight + nodeWeight(n),
				pathLength:       ps.pathLength + 1,
				sourceFirstStart: ps.sourceFirstStart,
				sourceFirstKmer:  ps.sourceFirstKmer,
				hasPred:          true,
				predNode:         ph,
				predTrack:        t,
			}
			if !best.valid || better(candidate, best) {
				best = candidate
			}
		}

		// Fresh-source candidate: only valid for the track matching n's
		// own reference status.
		matchesOwnTrack := (t == trackRefStart) == n.IsReference()
		if matchesOwnTrack {
			fresh := trackState{
				valid:            true,
				baseWeight:       nodeWeight(n),
				pathLength:       1,
				sourceFirstStart: n.FirstStart(),
				sourceFirstKmer:  n.FirstKmer(),
			}
			if !best.valid || better(fresh, best) {
				best = fresh
			}
		}

		e.tracks[t] = best
	}

	c.entries[n.Handle()] = e
	delete(c.pending, n.Handle())
}

// better reports whether a has a strictly higher base weight than b, or
// equal base weight with an earlier source firstStart.
func better(a, b trackState) bool {
	if a.baseWeight != b.baseWeight {
		return a.baseWeight > b.baseWeight
	}
	return a.sourceFirstStart < b.sourceFirstStart
}

// Remove invalidates the memo entries for nodes, plus (recursively) every
// entry whose best path traversed one of them.
func (c *Caller) Remove(nodes []*pathnode.Node) {
	removedSet := make(map[pathnode.Handle]bool, len(nodes))
	for _, n := range nodes {
		removedSet[n.Handle()] = true
		delete(c.entries, n.Handle())
		delete(c.pending, n.Handle())
	}

	for changed := true; changed; {
		changed = false
		for h, e := range c.entries {
			dependsOnRemoved := false
			for t := track(0); t < numTracks; t++ {
				ts := e.tracks[t]
				if ts.valid && ts.hasPred && removedSet[ts.predNode] {
					dependsOnRemoved = true
					break
				}
			}
			if dependsOnRemoved {
				removedSet[h] = true
				delete(c.entries, h)
				c.pending[h] = true
				changed = true
			}
		}
	}
}

// drainPending rebuilds entries invalidated indirectly by Remove, in
// ascending FirstStart order so predecessors rebuild before dependents.
func (c *Caller) drainPending() {
	if len(c.pending) == 0 {
		return
	}
	handles := make([]pathnode.Handle, 0, len(c.pending))
	for h := range c.pending {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		ni, nj := c.arena.Get(handles[i]), c.arena.Get(handles[j])
		if ni == nil || nj == nil {
			return ni != nil
		}
		return ni.FirstStart() < nj.FirstStart()
	})
	for _, h := range handles {
		n := c.arena.Get(h)
		if n == nil || n.Removed() {
			delete(c.pending, h)
			continue
		}
		c.Add(n)
	}
}

// totalScore returns a track's full score including the anchoring bonus,
// which applies if the path's source is reference-supported (trackRefStart)
// or its current tail node n is.
func (c *Caller) totalScore(ts trackState, n *pathnode.Node, t track) int {
	score := ts.baseWeight
	if t == trackRefStart || n.IsReference() {
		score += c.bonus
	}
	return score
}

// BestContig returns the highest-scoring finalised contig: one whose
// final node's LastEnd is strictly before frontierPosition-maxEvidenceDistance.
// Returns false if no finalised contig currently exists.
func (c *Caller) BestContig(frontierPosition, maxEvidenceDistance int) (pathnode.Contig, bool) {
	c.drainPending()

	cutoff := frontierPosition - maxEvidenceDistance
	var bestContig pathnode.Contig
	var bestScore int
	var bestFirstStart, bestLength int
	var bestFirstKmer pathnode.Kmer
	found := false

	for h, e := range c.entries {
		n := c.arena.Get(h)
		if n == nil || n.Removed() || e.generation != n.Generation() {
			continue
		}
		if n.LastEnd() >= cutoff {
			continue
		}
		for t := track(0); t < numTracks; t++ {
			ts := e.tracks[t]
			if !ts.valid {
				continue
			}
			score := c.totalScore(ts, n, t)
			if !found ||
				score > bestScore ||
				(score == bestScore && ts.sourceFirstStart < bestFirstStart) ||
				(score == bestScore && ts.sourceFirstStart == bestFirstStart && ts.pathLength < bestLength) ||
				(score == bestScore && ts.sourceFirstStart == bestFirstStart && ts.pathLength == bestLength && ts.sourceFirstKmer < bestFirstKmer) {
				found = true
				bestScore = score
				bestFirstStart = ts.sourceFirstStart
				bestLength = ts.pathLength
				bestFirstKmer = ts.sourceFirstKmer
				bestContig = c.reconstruct(h, t)
			}
		}
	}
	return bestContig, found
}

// reconstruct walks the predecessor chain for (handle, t) back to its
// source, returning the path as a Contig of whole-node subnodes in
// forward order.
func (c *Caller) reconstruct(h pathnode.Handle, t track) pathnode.Contig {
	var nodes []*pathnode.Node
	for {
		e := c.entries[h]
		n := c.arena.Get(h)
		nodes = append(nodes, n)
		ts := e.tracks[t]
		if !ts.hasPred {
			break
		}
		h = ts.predNode
		t = ts.predTrack
	}
	contig := make(pathnode.Contig, len(nodes))
	for i, n := range nodes {
		contig[len(nodes)-1-i] = pathnode.WholeNode(n)
	}
	return contig
}

// SanityCheckFrontier asserts that no live node with FirstStart before
// frontierPosition-maxEvidenceDistance (old enough that it should either
// be finalised or removed) currently holds a provisional score exceeding
// the best finalised contig's score. A violation means the frontier
// window let a node linger that could still outscore what has already
// been committed to output. Called periodically by the driver's sanity
// check; a violation is always logged and recovered from, and becomes
// fatal only under cfg.Debug.
func (c *Caller) SanityCheckFrontier(frontierPosition, maxEvidenceDistance int) bool {
	c.drainPending()
	cutoff := frontierPosition - maxEvidenceDistance

	bestScore := -1
	for h, e := range c.entries {
		n := c.arena.Get(h)
		if n == nil || n.Removed() || e.generation != n.Generation() || n.LastEnd() >= cutoff {
			continue
		}
		for t := track(0); t < numTracks; t++ {
			ts := e.tracks[t]
			if ts.valid {
				if s := c.totalScore(ts, n, t); s > bestScore {
					bestScore = s
				}
			}
		}
	}

	for h, e := range c.entries {
		n := c.arena.Get(h)
		if n == nil || n.Removed() || e.generation != n.Generation() {
			continue
		}
		if n.FirstStart() >= cutoff || n.LastEnd() < cutoff {
			continue // not old-yet-unfinalised
		}
		for t := track(0); t < numTracks; t++ {
			ts := e.tracks[t]
			if ts.valid && c.totalScore(ts, n, t) > bestScore {
				return false
			}
		}
	}
	return true
}

// Size returns the number of live memo entries.
func (c *Caller) Size() int {
	return len(c.entries)
}

// Score returns n's best current total score across tracks, or 0 if n
// has no live memo entry. Used only by the visualisation side-outputs
// to annotate exported memoization state.
func (c *Caller) Score(n *pathnode.Node) int {
	e := c.entries[n.Handle()]
	if e == nil || e.generation != n.Generation() {
		return 0
	}
	best := 0
	for t := track(0); t < numTracks; t++ {
		ts := e.tracks[t]
		if ts.valid {
			if s := c.totalScore(ts, n, t); s > best {
				best = s
			}
		}
	}
	return best
}
