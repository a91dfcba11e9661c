package assembler

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cbrueffer/gridss/internal/pathnode"
)

// sanityCheck runs the §7 consistency checks: the frontier
// invariant on both callers, and every live node's evidence backing. A
// violation is logged and recovered from by removing the offending
// node(s) directly from the graph and both callers; under cfg.Debug a
// violation is additionally promoted to a fatal panic, since that flag
// exists precisely to turn a recoverable inconsistency into a hard
// failure during development.
func (as *Assembler) sanityCheck() {
	cutoff := as.nextPosition() - as.cfg.MaxEvidenceDistance

	frontierOK := as.anchored.SanityCheckFrontier(as.nextPosition(), as.cfg.MaxEvidenceDistance) &&
		as.unanchored.SanityCheckFrontier(as.nextPosition(), as.cfg.MaxEvidenceDistance)
	if !frontierOK {
		as.log.WithFields(logrus.Fields{
			"contig_name":     as.cfg.ContigName,
			"reference_index": as.cfg.ReferenceIndex,
			"cutoff":          cutoff,
		}).Error("sanity check failed: stale node outscores a finalised contig")
		as.removeStaleBefore(cutoff)
		as.fatalIfDebug("frontier sanity check failed")
	}

	var unbacked []*pathnode.Node
	for _, n := range as.graph.Nodes() {
		if !as.ev.MatchesExpected(pathnode.WholeNode(n)) {
			unbacked = append(unbacked, n)
		}
	}
	if len(unbacked) > 0 {
		as.log.WithFields(logrus.Fields{
			"contig_name":     as.cfg.ContigName,
			"reference_index": as.cfg.ReferenceIndex,
			"node_count":      len(unbacked),
		}).Error("sanity check failed: live node missing expected evidence backing")
		as.removeNodesDirect(unbacked)
		as.fatalIfDebug("evidence backing sanity check failed")
	}
}

func (as *Assembler) fatalIfDebug(reason string) {
	if as.cfg.Debug {
		as.log.WithFields(logrus.Fields{
			"contig_name":     as.cfg.ContigName,
			"reference_index": as.cfg.ReferenceIndex,
		}).Panic(reason)
	}
}

// removeStaleBefore force-removes every live node whose LastEnd precedes
// cutoff, the same recovery a frontier sanity-check failure requires:
// those nodes should already have been finalised or orphan-collected,
// and direct removal is the simplest way to restore the invariant.
func (as *Assembler) removeStaleBefore(cutoff int) {
	var stale []*pathnode.Node
	as.graph.RangeByFirstStart(math.MinInt32, cutoff, func(n *pathnode.Node) bool {
		if n.LastEnd() < cutoff {
			stale = append(stale, n)
		}
		return true
	})
	as.removeNodesDirect(stale)
}

// removeNodesDirect drops nodes from the evidence tracker, both contig
// callers, and the graph index, following the same order removeOrphans
// uses for its own forced removals.
func (as *Assembler) removeNodesDirect(nodes []*pathnode.Node) {
	if len(nodes) == 0 {
		return
	}
	contig := make(pathnode.Contig, len(nodes))
	for i, n := range nodes {
		contig[i] = pathnode.WholeNode(n)
	}
	as.ev.Untrack(contig)
	as.anchored.Remove(nodes)
	as.unanchored.Remove(nodes)
	for _, n := range nodes {
		as.graph.Remove(n)
	}
}
