package assembler

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cbrueffer/gridss/internal/contigcaller"
	"github.com/cbrueffer/gridss/internal/metrics"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// misassemblyCheck guards against a pathological unanchored path growing
// past any plausible breakend: it repeatedly asks the unanchored caller
// for its current best, and if that contig's length exceeds the expected
// breakend length, discards its evidence wholesale and rebuilds both
// callers from the surviving graph.
func (as *Assembler) misassemblyCheck() {
	threshold := int(as.cfg.MaxExpectedBreakendLengthMultiple * float64(as.cfg.MaxConcordantFragmentSize))

	for {
		contig, ok := as.unanchored.BestContig(as.nextPosition(), as.cfg.MaxEvidenceDistance)
		if !ok || contig.Length() <= threshold {
			return
		}

		as.log.WithFields(logrus.Fields{
			"contig_name":     as.cfg.ContigName,
			"reference_index": as.cfg.ReferenceIndex,
			"contig_length":   contig.Length(),
			"threshold":       threshold,
		}).Warn("misassembly guard: discarding oversized unanchored path")

		as.ev.Untrack(contig)
		as.removeNodeWeightWholesale(contig)
		as.reinitializeCallers()

		metrics.MisassemblyTriggers.Inc()
	}
}

// reinitializeCallers discards both callers' memoization and rebuilds it
// from every currently live node, in FirstStart order, after a wholesale
// weight removal has invalidated memo state too broadly to patch
// incrementally.
func (as *Assembler) reinitializeCallers() {
	as.anchored = contigcaller.NewAnchored(as.arena)
	as.unanchored = contigcaller.NewUnanchored(as.arena)

	as.graph.RangeByFirstStart(math.MinInt32, math.MaxInt32, func(n *pathnode.Node) bool {
		as.anchored.Add(n)
		as.unanchored.Add(n)
		return true
	})
}
