package assembler

import (
	"math"

	"github.com/cbrueffer/gridss/internal/metrics"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// removeOrphans scans for position-contiguous clusters of purely
// reference nodes that have fallen far enough behind the frontier that
// no pending input could ever connect to them, and drops them outright.
// It only engages once the graph's oldest live node lags the frontier by
// more than OrphanEvidenceMultiple*maxEvidenceDistance, since the scan
// itself costs a full pass over the ordered index.
func (as *Assembler) removeOrphans() {
	first := as.graph.First()
	if first == nil {
		return
	}
	if as.frontierPos-first.FirstStart() <= OrphanEvidenceMultiple*as.cfg.MaxEvidenceDistance {
		return
	}
	cutoff := as.frontierPos - as.cfg.MaxEvidenceDistance

	var toRemove []*pathnode.Node
	var cluster []*pathnode.Node
	clusterMaxLastEnd := 0

	flush := func() {
		if len(cluster) == 0 {
			return
		}
		allReference := true
		for _, n := range cluster {
			if !n.IsReference() {
				allReference = false
				break
			}
		}
		if allReference && clusterMaxLastEnd < cutoff {
			toRemove = append(toRemove, cluster...)
		}
		cluster = nil
		clusterMaxLastEnd = 0
	}

	as.graph.RangeByFirstStart(math.MinInt32, as.frontierPos, func(n *pathnode.Node) bool {
		if len(cluster) > 0 && n.FirstStart() > clusterMaxLastEnd+1 {
			flush()
		}
		cluster = append(cluster, n)
		if n.LastEnd() > clusterMaxLastEnd {
			clusterMaxLastEnd = n.LastEnd()
		}
		return true
	})
	flush()

	if len(toRemove) == 0 {
		return
	}

	contig := make(pathnode.Contig, len(toRemove))
	for i, n := range toRemove {
		contig[i] = pathnode.WholeNode(n)
	}
	as.ev.Untrack(contig)
	as.anchored.Remove(toRemove)
	as.unanchored.Remove(toRemove)
	for _, n := range toRemove {
		as.graph.Remove(n)
	}

	metrics.OrphanClustersRemoved.Inc()
	metrics.ActiveNodes.Set(float64(as.graph.Size()))
	metrics.MaxBucketSize.Set(float64(as.graph.MaxBucketSize()))
}
