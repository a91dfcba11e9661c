// Package assembler implements the positional de Bruijn graph contig
// assembler's driver: a pull-based iterator streaming path nodes into
// the graph, invoking the memoized contig caller, and emitting
// anchor-extended assembled contigs.
package assembler

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cbrueffer/gridss/config"
	"github.com/cbrueffer/gridss/internal/anchor"
	"github.com/cbrueffer/gridss/internal/contigcaller"
	"github.com/cbrueffer/gridss/internal/evidence"
	"github.com/cbrueffer/gridss/internal/graphindex"
	"github.com/cbrueffer/gridss/internal/metrics"
	"github.com/cbrueffer/gridss/internal/pathnode"
	"github.com/cbrueffer/gridss/internal/record"
	"github.com/cbrueffer/gridss/internal/visualize"
)

// LongestPathRemovalAdvancementTriggerCount is the number of consecutive
// input advancements without a finalised anchored path that engages
// misassembly detection.
const LongestPathRemovalAdvancementTriggerCount = 2

// OrphanEvidenceMultiple scales maxEvidenceDistance to decide when the
// graph's leftmost live node is stale enough to scan for orphaned
// reference-only subgraphs.
const OrphanEvidenceMultiple = 128

// stepResult is the result-variant used internally instead of
// exceptions/sentinel panics: the caller loop on Next retries on
// stepSkip, stops on stepDone.
type stepResult int

const (
	stepEmitted stepResult = iota
	stepSkip
	stepDone
)

var tracer = otel.Tracer("gridss/assembler")

// Assembler is the driver: single-threaded, cooperatively driven by
// pulls on Next. No operation on the graph, evidence tracker, or caller
// may run concurrently with any other.
type Assembler struct {
	cfg   config.Config
	arena *pathnode.Arena
	graph *graphindex.Index
	ev    *evidence.Tracker

	anchored   *contigcaller.Caller
	unanchored *contigcaller.Caller

	source     NodeSource
	lookahead  *InputItem
	sourceDone bool

	consumedInput int
	contigsCalled int
	frontierPos   int

	log *logrus.Logger
}

// New returns an Assembler reading from source under cfg. arena must be
// the same Arena the upstream producer allocates source's nodes from:
// adjacency handles are only meaningful within the Arena that minted
// them, so the caller wires the two together before any input is
// pulled.
func New(cfg config.Config, arena *pathnode.Arena, source NodeSource) *Assembler {
	log := logrus.New()
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return &Assembler{
		cfg:        cfg,
		arena:      arena,
		graph:      graphindex.New(cfg.K),
		ev:         evidence.New(),
		anchored:   contigcaller.NewAnchored(arena),
		unanchored: contigcaller.NewUnanchored(arena),
		source:     source,
		log:        log,
	}
}

// Next pulls the next assembled contig from the driver, or returns
// false once input is exhausted and no contig remains.
func (as *Assembler) Next() (*record.AssembledContig, bool) {
	for {
		rec, res := as.step(context.Background())
		switch res {
		case stepEmitted:
			return rec, true
		case stepDone:
			return nil, false
		default:
			continue
		}
	}
}

// NextContext wraps Next in an OpenTelemetry span, per the suspension-
// point model: each pull is a natural span boundary.
func (as *Assembler) NextContext(ctx context.Context) (*record.AssembledContig, bool) {
	ctx, span := tracer.Start(ctx, "Assembler.Next",
		trace.WithAttributes(
			attribute.String("contig_name", as.cfg.ContigName),
			attribute.Int("reference_index", as.cfg.ReferenceIndex),
		))
	defer span.End()

	for {
		rec, res := as.step(ctx)
		switch res {
		case stepEmitted:
			span.SetStatus(codes.Ok, "")
			return rec, true
		case stepDone:
			return nil, false
		default:
			continue
		}
	}
}

func (as *Assembler) step(ctx context.Context) (*record.AssembledContig, stepResult) {
	contig, ok, exhausted := as.findFinalisedContig(ctx)
	if exhausted {
		if as.graph.Size() > 0 {
			as.log.WithFields(logrus.Fields{
				"contig_name":     as.cfg.ContigName,
				"reference_index": as.cfg.ReferenceIndex,
			}).Error("input exhausted with non-empty graph and no finalised contig")
		}
		return nil, stepDone
	}
	if !ok {
		return nil, stepSkip
	}

	fixed, fixOK := as.fixRepeatsIfNeeded(contig)
	if !fixOK {
		return nil, stepSkip
	}

	rec := as.callContig(fixed)
	if rec == nil {
		return nil, stepSkip
	}
	return rec, stepEmitted
}

// findFinalisedContig drives the load/advance loop from §4.4 step 1-2:
// ask for a finalised best contig; while none and input remains, load
// more and opportunistically remove orphans; engage misassembly
// detection and the §7 sanity checks after two advancements without
// success.
func (as *Assembler) findFinalisedContig(ctx context.Context) (pathnode.Contig, bool, bool) {
	if c, ok := as.anchored.BestContig(as.nextPosition(), as.cfg.MaxEvidenceDistance); ok {
		return c, true, false
	}

	advancements := 0
	for {
		if as.sourceDone && as.lookahead == nil {
			return nil, false, true
		}

		as.advanceUnderlying(ctx, as.nextPosition()+as.cfg.MaxEvidenceDistance+1)
		as.removeOrphans()
		advancements++

		if c, ok := as.anchored.BestContig(as.nextPosition(), as.cfg.MaxEvidenceDistance); ok {
			return c, true, false
		}

		if advancements >= LongestPathRemovalAdvancementTriggerCount {
			as.misassemblyCheck()
			as.sanityCheck()
			advancements = 0
		}

		if as.sourceDone && as.lookahead == nil {
			return nil, false, true
		}
	}
}

// nextPosition returns the smallest FirstStart among input nodes not yet
// loaded, peeking one item from source if necessary.
func (as *Assembler) nextPosition() int {
	if as.lookahead != nil {
		return as.lookahead.Node.FirstStart()
	}
	if as.sourceDone {
		return math.MaxInt32 / 2
	}
	item, ok := as.source.Next()
	if !ok {
		as.sourceDone = true
		return math.MaxInt32 / 2
	}
	as.lookahead = &item
	return item.Node.FirstStart()
}

// advanceUnderlying loads every buffered/pulled item with
// Node.FirstStart() <= targetPos into the graph, evidence tracker, and
// both callers.
func (as *Assembler) advanceUnderlying(ctx context.Context, targetPos int) {
	_, span := tracer.Start(ctx, "Assembler.advanceUnderlying",
		trace.WithAttributes(attribute.Int("target_position", targetPos)))
	defer span.End()

	for {
		if as.lookahead == nil {
			if as.sourceDone {
				return
			}
			item, ok := as.source.Next()
			if !ok {
				as.sourceDone = true
				return
			}
			as.lookahead = &item
		}
		if as.lookahead.Node.FirstStart() > targetPos {
			return
		}
		as.admit(*as.lookahead)
		as.lookahead = nil
	}
}

// AdvanceUnderlying is the public, context-free form used by the anchor
// extension step (§4.5) to ensure the graph is loaded far enough ahead
// before extending a contig's forward end.
func (as *Assembler) AdvanceUnderlying(targetPos int) {
	as.advanceUnderlying(context.Background(), targetPos)
}

func (as *Assembler) admit(item InputItem) {
	if err := as.graph.Insert(item.Node); err != nil {
		as.log.WithFields(logrus.Fields{
			"contig_name":     as.cfg.ContigName,
			"reference_index": as.cfg.ReferenceIndex,
		}).WithError(err).Panic("precondition violation inserting input node")
	}
	for _, e := range item.Evidence {
		as.ev.Register(e)
	}
	as.anchored.Add(item.Node)
	as.unanchored.Add(item.Node)

	as.consumedInput++
	if item.Node.FirstStart() > as.frontierPos {
		as.frontierPos = item.Node.FirstStart()
	}
	metrics.ConsumedInput.Inc()
	metrics.ActiveNodes.Set(float64(as.graph.Size()))
	metrics.MaxBucketSize.Set(float64(as.graph.MaxBucketSize()))
	metrics.FrontierPosition.Set(float64(as.frontierPos))
}

func (as *Assembler) fixRepeatsIfNeeded(contig pathnode.Contig) (pathnode.Contig, bool) {
	if !anchor.HasRepeatedKmer(contig) {
		return contig, true
	}
	support := as.ev.Support(contig)
	return anchor.FixRepeat(contig, support)
}

// callContig extends contig with anchors, untracks its evidence, removes
// the consumed node weight from the graph (cascading into the caller),
// and builds the output record. Returns nil if the repeat fix emptied
// the contig upstream, or if extension left nothing assemblable.
func (as *Assembler) callContig(contig pathnode.Contig) *record.AssembledContig {
	if len(contig) == 0 {
		return nil
	}

	targetLen := anchor.ExtendTarget(contig.Length(), as.cfg.MaxAnchorLength)
	as.AdvanceUnderlying(contig.LastEnd() + targetLen + as.cfg.MaxEvidenceDistance)
	forward, backward := anchor.Extend(as.arena, contig, targetLen)

	memoRows := as.captureMemoRows(contig)
	fullGraphNodes := as.graph.Nodes()

	// support and rec must be built from contig's and the anchors' live
	// weights before removeNodeWeight below mutates them in place.
	support := as.ev.Untrack(contig)
	rec := as.buildRecord(contig, forward, backward, support)

	as.removeNodeWeight(contig, support)

	as.contigsCalled++
	metrics.ContigsCalled.Inc()
	metrics.ActiveNodes.Set(float64(as.graph.Size()))

	if rec != nil {
		as.exportVisualisation(rec.AssemblyID.String(), contig, fullGraphNodes, memoRows)
	}
	return rec
}

func (as *Assembler) captureMemoRows(contig pathnode.Contig) []visualize.MemoRow {
	if !as.cfg.Visualisation.AssemblyContigMemoization {
		return nil
	}
	rows := make([]visualize.MemoRow, 0, len(contig))
	for _, sub := range contig {
		n := sub.Node()
		rows = append(rows, visualize.MemoRow{
			Handle:     uint32(n.Handle()),
			FirstStart: n.FirstStart(),
			Anchored:   as.anchored.Score(n),
			Unanchored: as.unanchored.Score(n),
		})
	}
	return rows
}

// exportVisualisation writes whichever optional diagnostic side-outputs
// cfg.Visualisation enables, using state captured before the contig's
// nodes were removed from the graph and callers. Export failures are
// logged at debug level and otherwise ignored, per the error handling
// design: their absence must never alter assembly results.
func (as *Assembler) exportVisualisation(assemblyID string, contig pathnode.Contig, fullGraphNodes []*pathnode.Node, memoRows []visualize.MemoRow) {
	v := as.cfg.Visualisation
	if v.Directory == "" {
		return
	}

	if v.AssemblyGraph {
		if err := visualize.ExportContigGraph(v.Directory, assemblyID, contig); err != nil {
			as.log.WithError(err).Debug("visualisation: contig graph export failed")
		}
	}
	if v.AssemblyGraphFullSize {
		if err := visualize.ExportFullGraph(v.Directory, assemblyID, fullGraphNodes, v.CompressExports); err != nil {
			as.log.WithError(err).Debug("visualisation: full graph export failed")
		}
	}
	if v.AssemblyContigMemoization {
		if err := visualize.ExportMemoizationCSV(v.Directory, assemblyID, memoRows, v.CompressExports); err != nil {
			as.log.WithError(err).Debug("visualisation: memoization export failed")
		}
	}
}

func (as *Assembler) buildRecord(contig pathnode.Contig, forward, backward []pathnode.Subnode, support map[evidence.ID]*evidence.KmerEvidence) *record.AssembledContig {
	// fullContig is backward (reversed into genomic order, since Extend
	// returns it nearest-to-contig first) + contig + forward: the bases
	// and quals reported for the emitted record cover the whole anchored
	// span, not just the called contig's own subnodes.
	var allKmers []pathnode.Kmer
	var allWeights []int
	for i := len(backward) - 1; i >= 0; i-- {
		allKmers = append(allKmers, backward[i].Kmers()...)
		allWeights = append(allWeights, backward[i].Weights()...)
	}
	for _, sub := range contig {
		allKmers = append(allKmers, sub.Kmers()...)
		allWeights = append(allWeights, sub.Weights()...)
	}
	for _, sub := range forward {
		allKmers = append(allKmers, sub.Kmers()...)
		allWeights = append(allWeights, sub.Weights()...)
	}
	bases := pathnode.BaseCalls(allKmers, as.cfg.K)
	quals := basePerPositionQuality(allWeights, as.cfg.K, len(bases))

	rec := &record.AssembledContig{
		AssemblyID:     record.NewAssemblyID(),
		ReferenceIndex: as.cfg.ReferenceIndex,
		ContigName:     as.cfg.ContigName,
		Bases:          bases,
		Quals:          quals,
		FirstStart:     contig.FirstStart(),
	}
	for id := range support {
		rec.EvidenceIDs = append(rec.EvidenceIDs, id)
	}

	if len(backward) > 0 {
		anchorLen := subnodesLength(backward)
		rec.StartAnchor = &record.Anchor{
			ReferenceIndex:  as.cfg.ReferenceIndex,
			Position:        backward[len(backward)-1].FirstStart(),
			AnchorBaseCount: anchorLen,
		}
	}
	if len(forward) > 0 {
		anchorLen := subnodesLength(forward)
		rec.EndAnchor = &record.Anchor{
			ReferenceIndex:  as.cfg.ReferenceIndex,
			Position:        forward[len(forward)-1].LastEnd(),
			AnchorBaseCount: anchorLen,
		}
	}

	switch {
	case rec.StartAnchor == nil && rec.EndAnchor == nil:
		// Unanchored: infer an approximate breakend from supporting evidence.
		items := make([]*evidence.KmerEvidence, 0, len(support))
		for _, e := range support {
			items = append(items, e)
		}
		if bi, ok := record.UnionBreakend(items); ok {
			rec.Breakend = &record.BreakendInterval{Start: bi.Start, End: bi.End}
		}
	case rec.StartAnchor != nil && rec.EndAnchor != nil:
		// Breakpoint: no breakend interval: drop if the anchors consume the
		// whole base length, leaving no breakend sequence between them.
		if anchorBaseCount(rec.StartAnchor)+anchorBaseCount(rec.EndAnchor) >= len(bases) {
			return nil
		}
	}
	// Single-anchored: neither branch applies; no breakend is synthesized.

	return rec
}

// basePerPositionQuality derives one quality byte per output base from
// the per-k-mer weights covering that base: each base at index i is
// covered by every k-mer j with j <= i <= j+k-1, and its quality is
// BaseQuality of the maximum such weight.
func basePerPositionQuality(weights []int, k, numBases int) []byte {
	quals := make([]byte, numBases)
	for i := 0; i < numBases; i++ {
		lo := i - k + 1
		if lo < 0 {
			lo = 0
		}
		hi := i
		if hi > len(weights)-1 {
			hi = len(weights) - 1
		}
		max := 0
		for j := lo; j <= hi; j++ {
			if weights[j] > max {
				max = weights[j]
			}
		}
		quals[i] = record.BaseQuality(max)
	}
	return quals
}

func anchorBaseCount(a *record.Anchor) int {
	if a == nil {
		return 0
	}
	return a.AnchorBaseCount
}

func subnodesLength(subs []pathnode.Subnode) int {
	total := 0
	for _, s := range subs {
		total += s.Length()
	}
	return total
}

// ActiveNodeCount, MaxBucketSize, ConsumedInputCount, FrontierPosition,
// and ContigsCalledCount are the read-only tracking counters from §6.
func (as *Assembler) ActiveNodeCount() int    { return as.graph.Size() }
func (as *Assembler) MaxBucketSize() int      { return as.graph.MaxBucketSize() }
func (as *Assembler) ConsumedInputCount() int { return as.consumedInput }
func (as *Assembler) FrontierPosition() int   { return as.frontierPos }
func (as *Assembler) ContigsCalledCount() int { return as.contigsCalled }

// Close releases the graph, the callers' memoization, and the evidence
// tracker. No background tasks outlive an Assembler, so this just drops
// references.
func (as *Assembler) Close() error {
	as.graph = graphindex.New(as.cfg.K)
	as.anchored = contigcaller.NewAnchored(as.arena)
	as.unanchored = contigcaller.NewUnanchored(as.arena)
	as.ev = evidence.New()
	return nil
}
