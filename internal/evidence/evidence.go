// Package evidence implements the many-to-many association between
// read-derived KmerEvidence items and the (k-mer, position) cells of the
// graph they support.
package evidence

import (
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// ID identifies one KmerEvidence item, unique within a single assembler
// run.
type ID uint64

// SupportNode names one cell a piece of evidence contributes to: the
// k-mer over a closed position interval [Start,End] (Start==End for a
// single-position cell; wider when the evidence's own placement is
// ambiguous), with its scaled weight.
type SupportNode struct {
	Kmer       pathnode.Kmer
	Start, End int
	Weight     int
}

// Overlaps reports whether pos falls within sn's closed interval
// [Start,End] - the "(path node, offset) covering that cell" test node
// weight removal and support lookup both perform.
func (sn SupportNode) Overlaps(pos int) bool {
	return pos >= sn.Start && pos <= sn.End
}

// KmerEvidence is a read's (or read pair's) k-mer trace through the
// graph, plus the breakend interval it implies when unanchored.
type KmerEvidence struct {
	ID ID

	Nodes []SupportNode

	// BreakendStart/BreakendEnd bound this evidence item's individually
	// inferred breakend interval (supplemented data model); both zero if
	// the evidence carries no breakend signal of its own.
	BreakendStart, BreakendEnd int

	// Quality is the scaled weight this evidence carries overall, used to
	// weight its contribution to a contig's synthesized breakend
	// interval.
	Quality int
}

type cellKey struct {
	km  pathnode.Kmer
	pos int
}

// Tracker maintains the bidirectional index between evidence and the
// graph cells it supports.
type Tracker struct {
	byID map[ID]*KmerEvidence

	// cellIndex maps a (kmer, position) cell to the evidence IDs that
	// contribute to it.
	cellIndex map[cellKey][]ID
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		byID:      make(map[ID]*KmerEvidence),
		cellIndex: make(map[cellKey][]ID),
	}
}

// Register admits e into the tracker, indexing each of its support
// cells at every position their interval spans, so a later exact-
// position lookup finds an evidence item whose own cell is wider than
// one position.
func (t *Tracker) Register(e *KmerEvidence) {
	t.byID[e.ID] = e
	for _, n := range e.Nodes {
		for pos := n.Start; pos <= n.End; pos++ {
			k := cellKey{km: n.Kmer, pos: pos}
			t.cellIndex[k] = append(t.cellIndex[k], e.ID)
		}
	}
}

// Unregister removes e and its cell-index entries. It is a no-op if e's
// ID is not currently registered.
func (t *Tracker) Unregister(e *KmerEvidence) {
	if _, ok := t.byID[e.ID]; !ok {
		return
	}
	delete(t.byID, e.ID)
	for _, n := range e.Nodes {
		for pos := n.Start; pos <= n.End; pos++ {
			k := cellKey{km: n.Kmer, pos: pos}
			t.cellIndex[k] = removeID(t.cellIndex[k], e.ID)
		}
	}
}

func removeID(ids []ID, target ID) []ID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Get returns the evidence registered under id, or nil.
func (t *Tracker) Get(id ID) *KmerEvidence {
	return t.byID[id]
}

// Support returns the evidence whose support cells intersect contig's
// subnodes: for each subnode, for each offset in its range, the k-mer at
// that offset and its absolute position are looked up in the cell index.
func (t *Tracker) Support(contig pathnode.Contig) map[ID]*KmerEvidence {
	out := make(map[ID]*KmerEvidence)
	for _, sub := range contig {
		km := sub.Kmers()
		for off, k := range km {
			pos := sub.FirstStart() + off
			for _, id := range t.cellIndex[cellKey{km: k, pos: pos}] {
				if e := t.byID[id]; e != nil {
					out[id] = e
				}
			}
		}
	}
	return out
}

// Untrack returns the same set Support would, then Unregisters each.
func (t *Tracker) Untrack(contig pathnode.Contig) map[ID]*KmerEvidence {
	supporting := t.Support(contig)
	for _, e := range supporting {
		t.Unregister(e)
	}
	return supporting
}

// MatchesExpected reports whether every k-mer cell of sub has at least
// one registered evidence item backing it. Used by the driver's
// periodic sanity check (assembler.sanityCheck); always true when no
// evidence has been lost to a bookkeeping bug.
func (t *Tracker) MatchesExpected(sub pathnode.Subnode) bool {
	for off, km := range sub.Kmers() {
		pos := sub.FirstStart() + off
		if len(t.cellIndex[cellKey{km: km, pos: pos}]) == 0 {
			return false
		}
	}
	return true
}

// Size returns the number of currently registered evidence items.
func (t *Tracker) Size() int {
	return len(t.byID)
}
