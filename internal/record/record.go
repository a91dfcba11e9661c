// Package record defines the assembler's output shape: an assembled
// contig with its bases, qualities, anchors, and supporting evidence.
package record

import (
	"math"

	"github.com/google/uuid"

	"github.com/cbrueffer/gridss/internal/evidence"
)

// Anchor names a reference-supported extension pinning one end of a
// contig to a genomic position.
type Anchor struct {
	ReferenceIndex  int `json:"referenceIndex"`
	Position        int `json:"position"`
	AnchorBaseCount int `json:"anchorBaseCount"`
}

// BreakendInterval bounds an approximate breakend position inferred from
// the weighted union of contributing evidence's individual intervals.
type BreakendInterval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// AssembledContig is one output record: a called, anchor-extended contig
// and its provenance.
type AssembledContig struct {
	AssemblyID uuid.UUID `json:"assemblyId"`

	ReferenceIndex int    `json:"referenceIndex"`
	ContigName     string `json:"contigName"`

	Bases []byte `json:"bases"`
	Quals []byte `json:"quals"`

	// StartAnchor/EndAnchor are nil when that end has no reference
	// anchor: zero anchors means an unanchored breakend, one means a
	// single-anchored breakend, two means a breakpoint.
	StartAnchor *Anchor `json:"startAnchor,omitempty"`
	EndAnchor   *Anchor `json:"endAnchor,omitempty"`

	// Breakend is set only when the contig is anchored on neither end; a
	// single-anchored contig reports just its one Anchor and no Breakend.
	Breakend *BreakendInterval `json:"breakend,omitempty"`

	FirstStart int `json:"firstStart"`

	EvidenceIDs []evidence.ID `json:"evidenceIds"`
}

// NewAssemblyID mints a fresh AssemblyID for a record under construction.
func NewAssemblyID() uuid.UUID {
	return uuid.New()
}

// BaseQuality converts a per-offset k-mer weight into a Phred-scaled
// quality byte: round(10*log10(weight+1)), clamped to [0,93].
func BaseQuality(weight int) byte {
	q := int(math.Round(10 * math.Log10(float64(weight)+1)))
	if q < 0 {
		q = 0
	}
	if q > 93 {
		q = 93
	}
	return byte(q)
}

// ScaledWeight converts a floating-point evidence quality score into a
// non-negative integer weight: max(0, round(quality*scale)).
func ScaledWeight(quality, scale float64) int {
	w := int(math.Round(quality * scale))
	if w < 0 {
		w = 0
	}
	return w
}

// UnionBreakend synthesizes a contig-level breakend interval from a set
// of evidence items: the union of [BreakendStart,BreakendEnd] over the
// subset whose Quality is within one order of magnitude of the maximum
// Quality present, weighted only in the sense that low-quality outliers
// are excluded from the union.
func UnionBreakend(items []*evidence.KmerEvidence) (BreakendInterval, bool) {
	maxQuality := 0
	for _, e := range items {
		if e.Quality > maxQuality {
			maxQuality = e.Quality
		}
	}
	if maxQuality == 0 {
		return BreakendInterval{}, false
	}
	threshold := maxQuality / 10

	first := true
	var out BreakendInterval
	for _, e := range items {
		if e.Quality < threshold {
			continue
		}
		if e.BreakendStart == 0 && e.BreakendEnd == 0 {
			continue
		}
		if first {
			out = BreakendInterval{Start: e.BreakendStart, End: e.BreakendEnd}
			first = false
			continue
		}
		if e.BreakendStart < out.Start {
			out.Start = e.BreakendStart
		}
		if e.BreakendEnd > out.End {
			out.End = e.BreakendEnd
		}
	}
	return out, !first
}
