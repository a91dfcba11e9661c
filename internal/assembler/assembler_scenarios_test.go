package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrueffer/gridss/config"
	"github.com/cbrueffer/gridss/internal/anchor"
	"github.com/cbrueffer/gridss/internal/evidence"
	"github.com/cbrueffer/gridss/internal/kmer"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// Scenario fixtures use true k-1-overlapping k-mer chains throughout (the
// linkedChain idiom from internal/anchor's tests), so every expected base
// string below is hand-decoded from pathnode.BaseCalls's own
// first-kmer-plus-trailing-base convention rather than copied from
// spec prose.

func mustKmer(t *testing.T, seq string) pathnode.Kmer {
	t.Helper()
	km, err := kmer.Encode([]byte(seq), testK)
	require.NoError(t, err)
	return km
}

// TestScenarioSingleAnchoredBreakendForward covers a reference node
// extending one end of an otherwise unanchored branch: the emitted
// record's bases must cover the anchor plus the branch, not the branch
// alone, and the anchor's weights must be read before being decremented.
func TestScenarioSingleAnchoredBreakendForward(t *testing.T) {
	arena := pathnode.NewArena()

	ref, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "AAAA"), mustKmer(t, "AAAC")},
		[]int{5, 5}, 10, 10, true, nil)
	require.NoError(t, err)

	branch, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "AACG"), mustKmer(t, "ACGT"), mustKmer(t, "CGTT")},
		[]int{7, 7, 7}, 12, 12, false, nil)
	require.NoError(t, err)

	// ref is wired as branch's predecessor in the arena but never
	// admitted through the source, so it never gets a live caller entry:
	// the DP path finalises branch alone, while anchor.Extend still
	// discovers ref by walking raw arena adjacency.
	ref.AddNext(branch.Handle())
	branch.AddPrev(ref.Handle())

	ev := &evidence.KmerEvidence{
		ID: 1,
		Nodes: []evidence.SupportNode{
			{Kmer: mustKmer(t, "AACG"), Start: 12, End: 12, Weight: 7},
			{Kmer: mustKmer(t, "ACGT"), Start: 13, End: 13, Weight: 7},
			{Kmer: mustKmer(t, "CGTT"), Start: 14, End: 14, Weight: 7},
		},
		Quality: 50,
	}

	idx := 0
	items := []InputItem{{Node: branch, Evidence: []*evidence.KmerEvidence{ev}}}
	source := FuncNodeSource(func() (InputItem, bool) {
		if idx >= len(items) {
			return InputItem{}, false
		}
		item := items[idx]
		idx++
		return item, true
	})

	cfg := config.Default()
	cfg.K = testK
	cfg.MaxEvidenceDistance = 1
	cfg.MaxAnchorLength = 4

	as := New(cfg, arena, source)
	rec, ok := as.Next()
	require.True(t, ok)
	require.NotNil(t, rec)

	assert.Equal(t, "AAAACGTT", string(rec.Bases))
	require.NotNil(t, rec.StartAnchor)
	assert.Equal(t, 10, rec.StartAnchor.Position)
	assert.Equal(t, 2, rec.StartAnchor.AnchorBaseCount)
	assert.Nil(t, rec.EndAnchor)
	assert.Nil(t, rec.Breakend)
	assert.Equal(t, []evidence.ID{1}, rec.EvidenceIDs)
}

// TestScenarioWideSupportIntervalCoversNodeWeightRemoval covers evidence
// whose support cell spans a closed interval wider than one position: the
// node's own cell sits strictly inside the interval rather than at one of
// its two endpoints, so an exact-position match would miss it while an
// overlap match still removes its weight.
func TestScenarioWideSupportIntervalCoversNodeWeightRemoval(t *testing.T) {
	arena := pathnode.NewArena()

	ref, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "AAAA"), mustKmer(t, "AAAC")},
		[]int{5, 5}, 10, 10, true, nil)
	require.NoError(t, err)

	branch, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "AACG"), mustKmer(t, "ACGT"), mustKmer(t, "CGTT")},
		[]int{7, 7, 7}, 12, 12, false, nil)
	require.NoError(t, err)

	ref.AddNext(branch.Handle())
	branch.AddPrev(ref.Handle())

	ev := &evidence.KmerEvidence{
		ID: 1,
		Nodes: []evidence.SupportNode{
			{Kmer: mustKmer(t, "AACG"), Start: 12, End: 12, Weight: 7},
			// ACGT's true cell sits at position 13, strictly inside this
			// [11,15] interval rather than at either endpoint.
			{Kmer: mustKmer(t, "ACGT"), Start: 11, End: 15, Weight: 7},
			{Kmer: mustKmer(t, "CGTT"), Start: 14, End: 14, Weight: 7},
		},
		Quality: 50,
	}

	idx := 0
	items := []InputItem{{Node: branch, Evidence: []*evidence.KmerEvidence{ev}}}
	source := FuncNodeSource(func() (InputItem, bool) {
		if idx >= len(items) {
			return InputItem{}, false
		}
		item := items[idx]
		idx++
		return item, true
	})

	cfg := config.Default()
	cfg.K = testK
	cfg.MaxEvidenceDistance = 1
	cfg.MaxAnchorLength = 4

	as := New(cfg, arena, source)
	rec, ok := as.Next()
	require.True(t, ok)
	require.NotNil(t, rec)

	assert.Equal(t, "AAAACGTT", string(rec.Bases))
	// Support lookup finds ev despite its middle cell's interval covering
	// five positions, not one, so weight removal still decrements branch's
	// offset 1 rather than leaving it untouched.
	assert.Equal(t, []evidence.ID{1}, rec.EvidenceIDs)
	assert.Equal(t, 6, branch.Weight(1))
}

// TestScenarioUnanchoredBreakend covers a wholly non-reference contig
// with no anchor on either end: the record must carry a breakend
// interval unioned from its supporting evidence and no anchors.
func TestScenarioUnanchoredBreakend(t *testing.T) {
	arena := pathnode.NewArena()

	n1, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "TTGA"), mustKmer(t, "TGAC")},
		[]int{7, 7}, 100, 100, false, nil)
	require.NoError(t, err)
	n2, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "GACC"), mustKmer(t, "ACCT")},
		[]int{7, 7}, 102, 102, false, nil)
	require.NoError(t, err)
	n1.AddNext(n2.Handle())
	n2.AddPrev(n1.Handle())

	ev1 := &evidence.KmerEvidence{
		ID: 1,
		Nodes: []evidence.SupportNode{
			{Kmer: mustKmer(t, "TTGA"), Start: 100, End: 100, Weight: 7},
			{Kmer: mustKmer(t, "TGAC"), Start: 101, End: 101, Weight: 7},
		},
		BreakendStart: 200, BreakendEnd: 205, Quality: 50,
	}
	ev2 := &evidence.KmerEvidence{
		ID: 2,
		Nodes: []evidence.SupportNode{
			{Kmer: mustKmer(t, "GACC"), Start: 102, End: 102, Weight: 7},
			{Kmer: mustKmer(t, "ACCT"), Start: 103, End: 103, Weight: 7},
		},
		BreakendStart: 200, BreakendEnd: 205, Quality: 45,
	}

	idx := 0
	items := []InputItem{
		{Node: n1, Evidence: []*evidence.KmerEvidence{ev1}},
		{Node: n2, Evidence: []*evidence.KmerEvidence{ev2}},
	}
	source := FuncNodeSource(func() (InputItem, bool) {
		if idx >= len(items) {
			return InputItem{}, false
		}
		item := items[idx]
		idx++
		return item, true
	})

	cfg := config.Default()
	cfg.K = testK
	cfg.MaxEvidenceDistance = 1
	cfg.MaxAnchorLength = 4

	as := New(cfg, arena, source)
	rec, ok := as.Next()
	require.True(t, ok)
	require.NotNil(t, rec)

	assert.Equal(t, "TTGACCT", string(rec.Bases))
	assert.Nil(t, rec.StartAnchor)
	assert.Nil(t, rec.EndAnchor)
	require.NotNil(t, rec.Breakend)
	assert.Equal(t, 200, rec.Breakend.Start)
	assert.Equal(t, 205, rec.Breakend.End)
	assert.ElementsMatch(t, []evidence.ID{1, 2}, rec.EvidenceIDs)
}

// TestScenarioBreakpoint covers a non-reference segment anchored by a
// reference flank on each end: the record must carry both anchors and no
// breakend interval.
func TestScenarioBreakpoint(t *testing.T) {
	arena := pathnode.NewArena()

	refA, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "AAAA"), mustKmer(t, "AAAC")},
		[]int{5, 5}, 0, 0, true, nil)
	require.NoError(t, err)
	segment, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "AACG"), mustKmer(t, "ACGT")},
		[]int{7, 7}, 2, 2, false, nil)
	require.NoError(t, err)
	refB, err := arena.Alloc(
		[]pathnode.Kmer{mustKmer(t, "CGTA"), mustKmer(t, "GTAC")},
		[]int{5, 5}, 4, 4, true, nil)
	require.NoError(t, err)

	refA.AddNext(segment.Handle())
	segment.AddPrev(refA.Handle())
	segment.AddNext(refB.Handle())
	refB.AddPrev(segment.Handle())

	ev := &evidence.KmerEvidence{
		ID: 1,
		Nodes: []evidence.SupportNode{
			{Kmer: mustKmer(t, "AACG"), Start: 2, End: 2, Weight: 7},
			{Kmer: mustKmer(t, "ACGT"), Start: 3, End: 3, Weight: 7},
		},
		Quality: 50,
	}

	idx := 0
	items := []InputItem{{Node: segment, Evidence: []*evidence.KmerEvidence{ev}}}
	source := FuncNodeSource(func() (InputItem, bool) {
		if idx >= len(items) {
			return InputItem{}, false
		}
		item := items[idx]
		idx++
		return item, true
	})

	cfg := config.Default()
	cfg.K = testK
	cfg.MaxEvidenceDistance = 1
	cfg.MaxAnchorLength = 4

	as := New(cfg, arena, source)
	rec, ok := as.Next()
	require.True(t, ok)
	require.NotNil(t, rec)

	assert.Equal(t, "AAAACGTAC", string(rec.Bases))
	require.NotNil(t, rec.StartAnchor)
	require.NotNil(t, rec.EndAnchor)
	assert.Equal(t, 0, rec.StartAnchor.Position)
	assert.Equal(t, 2, rec.StartAnchor.AnchorBaseCount)
	assert.Equal(t, 5, rec.EndAnchor.Position)
	assert.Equal(t, 2, rec.EndAnchor.AnchorBaseCount)
	assert.Nil(t, rec.Breakend)
}

// TestScenarioMisassemblySuppression covers a pathological unanchored
// path that grows past the expected breakend length: it must be
// discarded wholesale rather than ever reaching callContig.
func TestScenarioMisassemblySuppression(t *testing.T) {
	arena := pathnode.NewArena()

	cfg := config.Default()
	cfg.K = testK
	cfg.MaxEvidenceDistance = 1
	cfg.MaxConcordantFragmentSize = 5
	cfg.MaxExpectedBreakendLengthMultiple = 2 // threshold = 10 kmers

	source := FuncNodeSource(func() (InputItem, bool) { return InputItem{}, false })
	as := New(cfg, arena, source)

	const chainLen = 12 // exceeds the threshold of 10
	var nodes []*pathnode.Node
	for i := 0; i < chainLen; i++ {
		seq := []byte("AAAA")
		seq[i%4] = "ACGT"[(i+1)%4]
		km := mustKmer(t, string(seq))
		n, err := arena.Alloc([]pathnode.Kmer{km}, []int{1}, i, i, false, nil)
		require.NoError(t, err)
		if i > 0 {
			nodes[i-1].AddNext(n.Handle())
			n.AddPrev(nodes[i-1].Handle())
		}
		nodes = append(nodes, n)
		as.admit(InputItem{Node: n})
	}

	contig, ok := as.unanchored.BestContig(as.nextPosition(), cfg.MaxEvidenceDistance)
	require.True(t, ok)
	require.Greater(t, contig.Length(), 10)

	as.misassemblyCheck()

	_, ok = as.unanchored.BestContig(as.nextPosition(), cfg.MaxEvidenceDistance)
	assert.False(t, ok)
	assert.Equal(t, 0, as.ContigsCalledCount())
}

// TestScenarioOrphanRemoval covers a reference-only island that never
// connects to any non-reference node: once the frontier has advanced far
// enough past it, it must be dropped outright without ever being called.
func TestScenarioOrphanRemoval(t *testing.T) {
	arena := pathnode.NewArena()
	cfg := config.Default()
	cfg.K = testK
	cfg.MaxEvidenceDistance = 1

	source := FuncNodeSource(func() (InputItem, bool) { return InputItem{}, false })
	as := New(cfg, arena, source)

	island, err := arena.Alloc([]pathnode.Kmer{mustKmer(t, "AAAA")}, []int{1}, 0, 0, true, nil)
	require.NoError(t, err)
	as.admit(InputItem{Node: island})
	require.Equal(t, 1, as.ActiveNodeCount())

	as.frontierPos = OrphanEvidenceMultiple*cfg.MaxEvidenceDistance + 1

	as.removeOrphans()

	assert.Equal(t, 0, as.ActiveNodeCount())
	assert.Equal(t, 0, as.ContigsCalledCount())
}

// TestScenarioRepeatKmerSplit covers anchor.FixRepeat's partitioning of
// a contig that revisits one k-mer across two subnodes: the occurrence
// with the dominant evidence vote survives, and the surviving partition
// is the longer of the two.
func TestScenarioRepeatKmerSplit(t *testing.T) {
	arena := pathnode.NewArena()

	node, err := arena.Alloc(
		[]pathnode.Kmer{
			mustKmer(t, "AAAA"), mustKmer(t, "ACTT"),
			mustKmer(t, "AAAA"), mustKmer(t, "AAAC"), mustKmer(t, "AACG"), mustKmer(t, "ACGT"),
		},
		[]int{1, 1, 1, 1, 1, 1}, 10, 10, false, nil)
	require.NoError(t, err)

	shortPartition := pathnode.NewSubnode(node, 0, 1)  // AAAA@10, ACTT@11
	longPartition := pathnode.NewSubnode(node, 2, 5)   // AAAA@12, AAAC@13, AACG@14, ACGT@15
	contig := pathnode.Contig{shortPartition, longPartition}

	require.True(t, anchor.HasRepeatedKmer(contig))

	repeated := mustKmer(t, "AAAA")
	support := map[evidence.ID]*evidence.KmerEvidence{
		1: {ID: 1, Nodes: []evidence.SupportNode{{Kmer: repeated, Start: 10, End: 10, Weight: 1}}},
		2: {ID: 2, Nodes: []evidence.SupportNode{{Kmer: repeated, Start: 12, End: 12, Weight: 1}}},
		3: {ID: 3, Nodes: []evidence.SupportNode{{Kmer: repeated, Start: 12, End: 12, Weight: 1}}},
		4: {ID: 4, Nodes: []evidence.SupportNode{{Kmer: repeated, Start: 12, End: 12, Weight: 1}}},
	}

	fixed, ok := anchor.FixRepeat(contig, support)
	require.True(t, ok)
	require.Len(t, fixed, 1)
	assert.Equal(t, 4, fixed[0].Length())
	assert.Equal(t, 12, fixed[0].FirstStart())

	longBases := pathnode.BaseCalls(longPartition.Kmers(), testK)
	shortBases := pathnode.BaseCalls(shortPartition.Kmers(), testK)
	fixedBases := pathnode.BaseCalls(fixed[0].Kmers(), testK)
	assert.Equal(t, len(longBases), len(fixedBases))
	assert.Greater(t, len(longBases), len(shortBases))
}
